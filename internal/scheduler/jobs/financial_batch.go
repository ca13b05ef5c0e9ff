package jobs

import (
	"context"
	"time"

	"github.com/kr-equities/aegis-quant/pkg/logger"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

// FinancialBatchJob checks that the external daily fundamentals batch
// has refreshed filtered_stocks today. FilteredStock's lifecycle is
// "produced by an external daily batch; read-only to core" (§3) — this
// job never writes fundamentals itself, only surfaces staleness the
// reconciler and operator can act on.
type FinancialBatchJob struct {
	store    *store.Store
	log      *logger.Logger
	schedule string
}

// NewFinancialBatchJob wires a FinancialBatchJob over the Store. An empty
// cronOverride uses the spec default (00:00 daily).
func NewFinancialBatchJob(st *store.Store, log *logger.Logger, cronOverride string) *FinancialBatchJob {
	schedule := "0 0 0 * * *"
	if cronOverride != "" {
		schedule = cronOverride
	}
	return &FinancialBatchJob{store: st, log: log, schedule: schedule}
}

func (j *FinancialBatchJob) Name() string { return "financial_batch" }

func (j *FinancialBatchJob) Schedule() string { return j.schedule }

// Run reports whether filtered_stocks was refreshed today; a stale batch
// degrades every downstream component silently, so it's logged loudly
// rather than failing the job (there is nothing for this job to retry).
func (j *FinancialBatchJob) Run(ctx context.Context) error {
	updatedAt, err := j.store.MostRecentUpdate(ctx)
	if err != nil {
		return err
	}

	today := time.Now()
	if updatedAt.Year() == today.Year() && updatedAt.YearDay() == today.YearDay() {
		j.log.WithField("updated_at", updatedAt).Info("financial_batch: filtered_stocks is current")
		return nil
	}

	j.log.WithField("updated_at", updatedAt).Warn("financial_batch: filtered_stocks has not refreshed today")
	return nil
}
