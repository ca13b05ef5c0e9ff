package jobs

import (
	"context"
	"time"

	"github.com/kr-equities/aegis-quant/internal/analysis"
	"github.com/kr-equities/aegis-quant/internal/trigger"
	"github.com/kr-equities/aegis-quant/pkg/logger"
)

// AfternoonTriggersJob runs the Trigger Engine's afternoon session scan,
// then invalidates any fired ticker's cached analysis whose move clears
// the Analysis Engine's own trigger threshold — spec §4.5's "afternoon
// orchestrator additionally kicks the cache-invalidation job".
type AfternoonTriggersJob struct {
	trigger  *trigger.Engine
	analysis *analysis.Engine
	log      *logger.Logger
	schedule string
}

// NewAfternoonTriggersJob wires an AfternoonTriggersJob over a
// trigger.Engine and an analysis.Engine. An empty cronOverride uses the
// spec default (15:30 weekdays).
func NewAfternoonTriggersJob(triggerEngine *trigger.Engine, analysisEngine *analysis.Engine, log *logger.Logger, cronOverride string) *AfternoonTriggersJob {
	schedule := "0 30 15 * * MON-FRI"
	if cronOverride != "" {
		schedule = cronOverride
	}
	return &AfternoonTriggersJob{trigger: triggerEngine, analysis: analysisEngine, log: log, schedule: schedule}
}

func (j *AfternoonTriggersJob) Name() string { return "afternoon_triggers" }

func (j *AfternoonTriggersJob) Schedule() string { return j.schedule }

func (j *AfternoonTriggersJob) Run(ctx context.Context) error {
	results, err := j.trigger.RunAfternoon(ctx, time.Now())
	if err != nil {
		return err
	}
	j.log.WithField("count", len(results)).Info("afternoon_triggers: scan complete")

	for _, r := range results {
		if !analysis.CheckAnalysisTrigger(r.ChangeRate) {
			continue
		}
		if err := j.analysis.InvalidateAnalysis(ctx, r.Ticker); err != nil {
			j.log.WithField("ticker", r.Ticker).WithError(err).Warn("afternoon_triggers: analysis cache invalidation failed")
		}
	}
	return nil
}
