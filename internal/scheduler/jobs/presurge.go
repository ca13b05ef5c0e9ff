package jobs

import (
	"context"
	"time"

	"github.com/kr-equities/aegis-quant/internal/trigger"
	"github.com/kr-equities/aegis-quant/pkg/logger"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

// presurgeSessionSplit is the morning/afternoon boundary the realtime
// pre_surge scan attributes its hits to — noon, between the morning
// (09:10) and afternoon (15:30) trigger scans.
const presurgeSessionSplit = 12 * 60

// PreSurgeJob runs the realtime accumulation scan repeatedly through the
// trading day, persisting hits without disturbing the session's other
// detector rows.
type PreSurgeJob struct {
	scanner  *trigger.PreSurgeScanner
	log      *logger.Logger
	schedule string
}

// NewPreSurgeJob wires a PreSurgeJob over a trigger.PreSurgeScanner. An
// empty cronOverride uses the spec default (every 5 minutes, 09:00-15:55
// weekdays).
func NewPreSurgeJob(scanner *trigger.PreSurgeScanner, log *logger.Logger, cronOverride string) *PreSurgeJob {
	schedule := "0 */5 9-15 * * MON-FRI"
	if cronOverride != "" {
		schedule = cronOverride
	}
	return &PreSurgeJob{scanner: scanner, log: log, schedule: schedule}
}

func (j *PreSurgeJob) Name() string { return "pre_surge" }

func (j *PreSurgeJob) Schedule() string { return j.schedule }

func (j *PreSurgeJob) Run(ctx context.Context) error {
	now := time.Now()
	session := store.SessionMorning
	if now.Hour()*60+now.Minute() >= presurgeSessionSplit {
		session = store.SessionAfternoon
	}

	results, err := j.scanner.ScanAndPersist(ctx, now, session)
	if err != nil {
		return err
	}
	j.log.WithFields(map[string]interface{}{
		"session": session,
		"count":   len(results),
	}).Info("pre_surge: scan complete")
	return nil
}
