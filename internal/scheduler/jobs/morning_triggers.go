package jobs

import (
	"context"
	"time"

	"github.com/kr-equities/aegis-quant/internal/trigger"
	"github.com/kr-equities/aegis-quant/pkg/logger"
)

// MorningTriggersJob runs the Trigger Engine's morning session scan.
type MorningTriggersJob struct {
	engine   *trigger.Engine
	log      *logger.Logger
	schedule string
}

// NewMorningTriggersJob wires a MorningTriggersJob over a trigger.Engine.
// An empty cronOverride uses the spec default (09:10 weekdays).
func NewMorningTriggersJob(engine *trigger.Engine, log *logger.Logger, cronOverride string) *MorningTriggersJob {
	schedule := "0 10 9 * * MON-FRI"
	if cronOverride != "" {
		schedule = cronOverride
	}
	return &MorningTriggersJob{engine: engine, log: log, schedule: schedule}
}

func (j *MorningTriggersJob) Name() string { return "morning_triggers" }

func (j *MorningTriggersJob) Schedule() string { return j.schedule }

func (j *MorningTriggersJob) Run(ctx context.Context) error {
	results, err := j.engine.RunMorning(ctx, time.Now())
	if err != nil {
		return err
	}
	j.log.WithField("count", len(results)).Info("morning_triggers: scan complete")
	return nil
}
