package jobs

import (
	"context"
	"time"

	"github.com/kr-equities/aegis-quant/internal/report"
	"github.com/kr-equities/aegis-quant/pkg/logger"
)

// AfternoonReportJob runs the Report Engine's afternoon pipeline.
type AfternoonReportJob struct {
	engine   *report.Engine
	log      *logger.Logger
	schedule string
}

// NewAfternoonReportJob wires an AfternoonReportJob over a report.Engine.
// An empty cronOverride uses the spec default (15:40 weekdays).
func NewAfternoonReportJob(engine *report.Engine, log *logger.Logger, cronOverride string) *AfternoonReportJob {
	schedule := "0 40 15 * * MON-FRI"
	if cronOverride != "" {
		schedule = cronOverride
	}
	return &AfternoonReportJob{engine: engine, log: log, schedule: schedule}
}

func (j *AfternoonReportJob) Name() string { return "afternoon_report" }

func (j *AfternoonReportJob) Schedule() string { return j.schedule }

func (j *AfternoonReportJob) Run(ctx context.Context) error {
	result, err := j.engine.GenerateAfternoon(ctx, time.Now())
	if err != nil {
		return err
	}
	if result.AlreadyGenerated {
		j.log.Info("afternoon_report: already generated for today")
		return nil
	}
	j.log.Info("afternoon_report: generated")
	return nil
}
