package report

import (
	"github.com/kr-equities/aegis-quant/internal/gateway"
	"github.com/kr-equities/aegis-quant/internal/llm"
	"github.com/kr-equities/aegis-quant/internal/ranker"
	"github.com/kr-equities/aegis-quant/pkg/logger"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

// Engine generates the morning and afternoon reports — the reference's
// ReportGenerationService, split across morning.go/afternoon.go with the
// shared macro/enrichment plumbing in market.go.
type Engine struct {
	gateway *gateway.Gateway
	store   *store.Store
	ranker  *ranker.Ranker
	llm     *llm.Client
	log     *logger.Logger
}

// New wires an Engine over an existing Gateway, Store, Ranker, and LLM
// client. The Trigger Engine itself isn't a dependency: GenerateAfternoon
// reads its output straight from the Store (ListTriggerResults), the same
// way the reference service reads trigger rows without holding a
// reference to TriggerService.
func New(gw *gateway.Gateway, st *store.Store, rk *ranker.Ranker, llmClient *llm.Client, log *logger.Logger) *Engine {
	return &Engine{gateway: gw, store: st, ranker: rk, llm: llmClient, log: log}
}
