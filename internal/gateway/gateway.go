package gateway

import (
	"time"

	"github.com/kr-equities/aegis-quant/internal/external/dart"
	"github.com/kr-equities/aegis-quant/internal/external/kis"
	"github.com/kr-equities/aegis-quant/internal/external/krx"
	"github.com/kr-equities/aegis-quant/internal/external/naver"
	"github.com/kr-equities/aegis-quant/pkg/httputil"
	"github.com/kr-equities/aegis-quant/pkg/logger"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

// Gateway is the Market Data Gateway (C2): a uniform facade over the
// primary-quote vendor (kis), the finance-portal vendor (naver), the
// macro/index vendor (krx), and the disclosure vendor (dart). Calls
// through the kis, naver and krx clients retry through their shared
// httputil.Client (3 retries, 2s exponential-backoff base); the dart
// client and the News scrape use their own http.Client instances.
type Gateway struct {
	kis   *kis.Client
	naver *naver.Client
	krx   *krx.Client
	dart  *dart.Client
	store *store.Store
	log   *logger.Logger
}

// New composes a Gateway from already-constructed vendor clients and the
// Store — Store backs fundamentals() since that table is populated by an
// external batch the Gateway never writes to.
func New(kisClient *kis.Client, naverClient *naver.Client, krxClient *krx.Client, dartClient *dart.Client, st *store.Store, log *logger.Logger) *Gateway {
	return &Gateway{
		kis:   kisClient,
		naver: naverClient,
		krx:   krxClient,
		dart:  dartClient,
		store: st,
		log:   log,
	}
}

// withRetryClient returns an httputil.Client configured with the gateway's
// standard 3-attempt/2s-base backoff, for call sites that build ad hoc
// requests outside the vendor clients' own methods.
func withRetryClient(base *httputil.Client) *httputil.Client {
	return base.WithRetry(3, 2*time.Second)
}
