package realtime

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kr-equities/aegis-quant/internal/external/kis"
	"github.com/kr-equities/aegis-quant/pkg/logger"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

const (
	batchSize       = 30
	interBatchDelay = 500 * time.Millisecond
	vendorRateLimit = 2 // calls/sec
	startupRetries  = 3
	startupBackoff  = 60 * time.Second
)

// Poller keeps RealtimePrice warm for every passing ticker across the
// seven session phases, writing through Store.UpsertRealtimePrices once
// per batch.
type Poller struct {
	kis    *kis.Client
	store  *store.Store
	logger *logger.Logger

	limiter *rate.Limiter

	universeMu sync.RWMutex
	universe   []string

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewPoller wires a Poller over an already-configured KIS client and
// Store.
func NewPoller(kisClient *kis.Client, st *store.Store, log *logger.Logger) *Poller {
	return &Poller{
		kis:     kisClient,
		store:   st,
		logger:  log,
		limiter: rate.NewLimiter(rate.Limit(vendorRateLimit), vendorRateLimit),
		stopCh:  make(chan struct{}),
	}
}

// Start blocks running the poller's control loop until ctx is canceled
// or Stop is called. Startup first primes the OAuth token, retrying up
// to startupRetries times with a startupBackoff wait between attempts
// before aborting, then refreshes the universe and enters the loop.
func (p *Poller) Start(ctx context.Context) error {
	if err := p.primeToken(ctx); err != nil {
		return err
	}

	if err := p.refreshUniverse(ctx); err != nil {
		p.logger.WithError(err).Warn("realtime poller: initial universe refresh failed, starting empty")
	}

	p.wg.Add(1)
	defer p.wg.Done()
	p.loop(ctx)
	return nil
}

// Stop signals the control loop to finish its current batch and return.
func (p *Poller) Stop() {
	close(p.stopCh)
	p.wg.Wait()
	p.logger.Info("realtime poller stopped")
}

func (p *Poller) primeToken(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= startupRetries; attempt++ {
		if err := p.kis.EnsureToken(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}
		p.logger.WithFields(map[string]interface{}{
			"attempt": attempt,
			"error":   lastErr.Error(),
		}).Warn("realtime poller: OAuth token priming failed")

		if attempt == startupRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(startupBackoff):
		}
	}
	return lastErr
}

func (p *Poller) refreshUniverse(ctx context.Context) error {
	stocks, err := p.store.ListPassingStocks(ctx)
	if err != nil {
		return err
	}
	tickers := make([]string, len(stocks))
	for i, s := range stocks {
		tickers[i] = s.Ticker
	}

	p.universeMu.Lock()
	p.universe = tickers
	p.universeMu.Unlock()

	p.logger.WithField("count", len(tickers)).Info("realtime poller: universe refreshed")
	return nil
}

func (p *Poller) snapshotUniverse() []string {
	p.universeMu.RLock()
	defer p.universeMu.RUnlock()
	out := make([]string, len(p.universe))
	copy(out, p.universe)
	return out
}

// loop is the control loop described in the realtime poller's control
// flow: resolve phase, sleep-through-closed, else poll the universe in
// rate-limited batches.
func (p *Poller) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		default:
		}

		now := time.Now()
		phase := SessionPhase(now)

		if phase == PhaseClosed {
			if !p.sleepUntil(ctx, nextPrepTime(now)) {
				return
			}
			if err := p.refreshUniverse(ctx); err != nil {
				p.logger.WithError(err).Warn("realtime poller: post-close universe refresh failed")
			}
			continue
		}

		p.pollOnce(ctx, phase)
	}
}

// sleepUntil blocks until t, or returns false if the context/stop
// signal fires first.
func (p *Poller) sleepUntil(ctx context.Context, t time.Time) bool {
	d := time.Until(t)
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-p.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

// pollOnce splits the universe into batches of batchSize and polls each
// in turn with interBatchDelay between them.
func (p *Poller) pollOnce(ctx context.Context, phase Phase) {
	tickers := p.snapshotUniverse()
	if len(tickers) == 0 {
		return
	}

	for i := 0; i < len(tickers); i += batchSize {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		default:
		}

		end := i + batchSize
		if end > len(tickers) {
			end = len(tickers)
		}
		p.pollBatch(ctx, tickers[i:end], phase)

		if end < len(tickers) {
			select {
			case <-ctx.Done():
				return
			case <-p.stopCh:
				return
			case <-time.After(interBatchDelay):
			}
		}
	}
}

// pollBatch fetches one vendor batch with retry-on-rate-limit, remaps
// call-auction fields, and upserts the batch in a single transaction.
// Persistent failure only increments an error counter — it never
// aborts the loop.
func (p *Poller) pollBatch(ctx context.Context, tickers []string, phase Phase) {
	if err := p.limiter.Wait(ctx); err != nil {
		return
	}

	quotes, err := p.fetchWithRetry(ctx, tickers)
	if err != nil {
		p.logger.WithFields(map[string]interface{}{
			"batch_size": len(tickers),
			"error":      err.Error(),
		}).Warn("realtime poller: batch fetch failed")
		return
	}

	status := marketStatusForPhase(phase)
	prices := make([]store.RealtimePrice, 0, len(quotes))
	for _, ticker := range tickers {
		q, ok := quotes[ticker]
		if !ok {
			continue
		}
		prices = append(prices, toRealtimePrice(remapCallAuction(q, phase), status))
	}

	if len(prices) == 0 {
		return
	}

	if err := p.store.UpsertRealtimePrices(ctx, prices); err != nil {
		p.logger.WithError(err).Error("realtime poller: upsert batch failed")
	}
}

// fetchWithRetry retries transport/429 failures with exponential
// backoff up to 3 attempts; persistent failure is returned to the
// caller, which only bumps an error counter.
func (p *Poller) fetchWithRetry(ctx context.Context, tickers []string) (map[string]kis.MultiQuote, error) {
	var lastErr error
	backoff := 2 * time.Second
	for attempt := 1; attempt <= 3; attempt++ {
		quotes, err := p.kis.GetMultiQuote(ctx, tickers)
		if err == nil {
			return quotes, nil
		}
		lastErr = err
		if attempt == 3 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
	return nil, lastErr
}

func marketStatusForPhase(phase Phase) store.MarketStatus {
	switch phase {
	case PhaseRegular, PhaseOpeningAuction, PhaseClosingAuction:
		return store.MarketStatusOpen
	case PhasePrep, PhasePreMarketOff:
		return store.MarketStatusPreMarket
	case PhasePostCloseOff, PhaseAfterHours:
		return store.MarketStatusAfterHours
	default:
		return store.MarketStatusClosed
	}
}

// remapCallAuction overwrites current_price/change_rate/volume with the
// vendor's "expected" call-auction fields during the two auction
// windows, where the regular fields are not yet meaningful.
func remapCallAuction(q kis.MultiQuote, phase Phase) kis.MultiQuote {
	if !phase.IsCallAuction() {
		return q
	}
	q.CurrentPrice = q.PrevClosePrice + q.ExpectedDiff
	q.ChangeRate = q.ExpectedChgRate
	q.ChangeAmount = q.ExpectedDiff
	q.Volume = q.ExpectedVolume
	return q
}

// toRealtimePrice drops the call-auction-only fields the schema has no
// column for (prev_close_price, expected_*) before persistence.
func toRealtimePrice(q kis.MultiQuote, status store.MarketStatus) store.RealtimePrice {
	return store.RealtimePrice{
		Ticker:       q.Ticker,
		Current:      q.CurrentPrice,
		ChangeRate:   q.ChangeRate,
		ChangeAmount: q.ChangeAmount,
		Volume:       q.Volume,
		Open:         q.OpenPrice,
		High:         q.HighPrice,
		Low:          q.LowPrice,
		TradingValue: q.TradingValue,
		MarketStatus: status,
		DataSource:   "kis",
		UpdatedAt:    time.Now(),
	}
}
