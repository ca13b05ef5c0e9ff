package jobs

import (
	"context"
	"time"

	"github.com/kr-equities/aegis-quant/internal/report"
	"github.com/kr-equities/aegis-quant/pkg/logger"
)

// MorningReportJob runs the Report Engine's morning pipeline.
type MorningReportJob struct {
	engine   *report.Engine
	log      *logger.Logger
	schedule string
}

// NewMorningReportJob wires a MorningReportJob over a report.Engine. An
// empty cronOverride uses the spec default (08:00 weekdays).
func NewMorningReportJob(engine *report.Engine, log *logger.Logger, cronOverride string) *MorningReportJob {
	schedule := "0 0 8 * * MON-FRI"
	if cronOverride != "" {
		schedule = cronOverride
	}
	return &MorningReportJob{engine: engine, log: log, schedule: schedule}
}

func (j *MorningReportJob) Name() string { return "morning_report" }

func (j *MorningReportJob) Schedule() string { return j.schedule }

func (j *MorningReportJob) Run(ctx context.Context) error {
	result, err := j.engine.GenerateMorning(ctx, time.Now())
	if err != nil {
		return err
	}
	if result.AlreadyGenerated {
		j.log.Info("morning_report: already generated for today")
		return nil
	}
	j.log.WithField("top_stocks", len(result.TopStocks)).Info("morning_report: generated")
	return nil
}
