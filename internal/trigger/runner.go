package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kr-equities/aegis-quant/internal/gateway"
	"github.com/kr-equities/aegis-quant/pkg/logger"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

// Detector is one named scan over the session's row set. Each of the six
// detectors is a stateless adapter over its scoring function, letting
// RunSession fan them out identically regardless of session.
type Detector interface {
	Type() store.TriggerType
	Detect(rows map[string]row) ([]store.TriggerResult, error)
}

type detectorFunc struct {
	triggerType store.TriggerType
	fn          func(map[string]row) ([]store.TriggerResult, error)
}

func (d detectorFunc) Type() store.TriggerType { return d.triggerType }

func (d detectorFunc) Detect(rows map[string]row) ([]store.TriggerResult, error) {
	return d.fn(rows)
}

var morningDetectors = []Detector{
	detectorFunc{store.TriggerVolumeSurge, morningVolumeSurge},
	detectorFunc{store.TriggerGapUp, morningGapUp},
	detectorFunc{store.TriggerFundInflow, morningFundInflow},
}

var afternoonDetectors = []Detector{
	detectorFunc{store.TriggerIntradayRise, afternoonIntradayRise},
	detectorFunc{store.TriggerClosingStrength, afternoonClosingStrength},
	detectorFunc{store.TriggerSidewaysVolume, afternoonSidewaysVolume},
}

// Engine runs the morning and afternoon trigger scans, each an
// all-or-nothing replace of that (date, session)'s trigger_results slice.
type Engine struct {
	gateway *gateway.Gateway
	store   *store.Store
	log     *logger.Logger
}

// New wires an Engine over an existing Gateway and Store.
func New(gw *gateway.Gateway, st *store.Store, log *logger.Logger) *Engine {
	return &Engine{gateway: gw, store: st, log: log}
}

// RunMorning runs the three morning detectors (volume_surge, gap_up,
// fund_inflow) and replaces the morning session's trigger_results for
// date — trigger_service.py's run_morning_triggers.
func (e *Engine) RunMorning(ctx context.Context, date time.Time) ([]store.TriggerResult, error) {
	return e.runSession(ctx, date, store.SessionMorning, morningDetectors)
}

// RunAfternoon runs the three afternoon detectors (intraday_rise,
// closing_strength, sideways_volume) and replaces the afternoon session's
// trigger_results for date — trigger_service.py's run_afternoon_triggers.
func (e *Engine) RunAfternoon(ctx context.Context, date time.Time) ([]store.TriggerResult, error) {
	return e.runSession(ctx, date, store.SessionAfternoon, afternoonDetectors)
}

// runSession builds the shared row set once, fans the session's three
// detectors out via errgroup (each reads the same row map and never
// mutates it, so no additional synchronization is needed beyond
// collecting each goroutine's own result slice), then replaces the
// session's trigger_results in one transaction.
func (e *Engine) runSession(ctx context.Context, date time.Time, session store.Session, detectors []Detector) ([]store.TriggerResult, error) {
	rows, err := e.buildRows(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	g, _ := errgroup.WithContext(ctx)
	var mu sync.Mutex
	var all []store.TriggerResult

	for _, d := range detectors {
		d := d
		g.Go(func() error {
			hits, err := d.Detect(rows)
			if err != nil {
				return fmt.Errorf("trigger: %s: %w", d.Type(), err)
			}
			mu.Lock()
			all = append(all, hits...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range all {
		all[i].Date = date
		all[i].Session = session
		all[i].DetectedAt = date
	}

	if err := e.store.ReplaceTriggerResults(ctx, date, session, all); err != nil {
		return nil, fmt.Errorf("trigger: persist %s results: %w", session, err)
	}

	e.log.WithFields(map[string]interface{}{
		"session": session,
		"count":   len(all),
	}).Info("trigger scan complete")
	return all, nil
}

// buildRows joins the current day's market data with the previous
// trading day's snapshot, computing every derived metric a detector
// might score on.
func (e *Engine) buildRows(ctx context.Context, date time.Time) (map[string]row, error) {
	current, err := e.gateway.CurrentMarketData(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("trigger: current market data: %w", err)
	}
	if len(current) == 0 {
		return nil, nil
	}

	prevDate, err := e.gateway.PreviousTradingDay(ctx, date, 10)
	if err != nil {
		return nil, fmt.Errorf("trigger: previous trading day: %w", err)
	}

	prevSnap, err := e.gateway.Snapshot(ctx, prevDate)
	if err != nil {
		return nil, fmt.Errorf("trigger: previous snapshot: %w", err)
	}

	prev := make(map[string]gateway.MarketRow, len(prevSnap.Table))
	for ticker, bar := range prevSnap.Table {
		prev[ticker] = gateway.MarketRow{
			Ticker: bar.Ticker,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		}
	}

	return buildRows(current, prev), nil
}
