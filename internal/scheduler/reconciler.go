package scheduler

import (
	"context"
	"time"

	"github.com/kr-equities/aegis-quant/pkg/logger"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

// Reconciler is a one-shot startup task that inspects today's state and
// fires any job whose output is missing and whose scheduled time has
// already passed — spec §4.9's missed-work rules, so a restart mid-day
// doesn't silently skip a job that should already have run.
type Reconciler struct {
	store *store.Store
	log   *logger.Logger

	financialBatch    Job
	morningReport     Job
	morningTriggers   Job
	afternoonTriggers Job
	afternoonReport   Job
}

// NewReconciler wires a Reconciler over the five scheduled jobs. Each Job
// is run directly (not through the Scheduler's cron path) when its
// missed-work condition holds.
func NewReconciler(st *store.Store, log *logger.Logger, financialBatch, morningReport, morningTriggers, afternoonTriggers, afternoonReport Job) *Reconciler {
	return &Reconciler{
		store:             st,
		log:               log,
		financialBatch:    financialBatch,
		morningReport:     morningReport,
		morningTriggers:   morningTriggers,
		afternoonTriggers: afternoonTriggers,
		afternoonReport:   afternoonReport,
	}
}

// Run checks and fires missed jobs. On weekends everything but
// financial_batch is skipped.
func (r *Reconciler) Run(ctx context.Context) error {
	now := time.Now()

	if err := r.reconcileFinancialBatch(ctx, now); err != nil {
		r.log.WithError(err).Warn("reconciler: financial_batch check failed")
	}

	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		r.log.Info("reconciler: weekend, skipping session jobs")
		return nil
	}

	if err := r.reconcileIfPast(ctx, now, 8, 0, func() (bool, error) {
		existing, err := r.store.GetReportResult(ctx, store.ReportMorning, now)
		return existing == nil, err
	}, r.morningReport); err != nil {
		r.log.WithError(err).Warn("reconciler: morning_report check failed")
	}

	if err := r.reconcileIfPast(ctx, now, 9, 10, func() (bool, error) {
		rows, err := r.store.ListTriggerResults(ctx, now, store.SessionMorning)
		return len(rows) == 0, err
	}, r.morningTriggers); err != nil {
		r.log.WithError(err).Warn("reconciler: morning_triggers check failed")
	}

	if err := r.reconcileIfPast(ctx, now, 15, 30, func() (bool, error) {
		rows, err := r.store.ListTriggerResults(ctx, now, store.SessionAfternoon)
		return len(rows) == 0, err
	}, r.afternoonTriggers); err != nil {
		r.log.WithError(err).Warn("reconciler: afternoon_triggers check failed")
	}

	if err := r.reconcileIfPast(ctx, now, 15, 40, func() (bool, error) {
		existing, err := r.store.GetReportResult(ctx, store.ReportAfternoon, now)
		return existing == nil, err
	}, r.afternoonReport); err != nil {
		r.log.WithError(err).Warn("reconciler: afternoon_report check failed")
	}

	return nil
}

func (r *Reconciler) reconcileFinancialBatch(ctx context.Context, now time.Time) error {
	updatedAt, err := r.store.MostRecentUpdate(ctx)
	if err != nil {
		return err
	}
	if updatedAt.Year() == now.Year() && updatedAt.YearDay() == now.YearDay() {
		return nil
	}
	r.log.Info("reconciler: financial_batch missed, running now")
	return r.financialBatch.Run(ctx)
}

// reconcileIfPast runs job if now has passed hour:minute and missing
// reports true that the job's output doesn't exist yet.
func (r *Reconciler) reconcileIfPast(ctx context.Context, now time.Time, hour, minute int, missing func() (bool, error), job Job) error {
	threshold := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.Before(threshold) {
		return nil
	}

	isMissing, err := missing()
	if err != nil {
		return err
	}
	if !isMissing {
		return nil
	}

	r.log.WithField("job", job.Name()).Info("reconciler: job missed, running now")
	return job.Run(ctx)
}
