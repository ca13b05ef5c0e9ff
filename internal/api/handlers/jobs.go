package handlers

import (
	"net/http"

	"github.com/kr-equities/aegis-quant/internal/scheduler"
)

// JobsHandler exposes the Scheduler's run history — an operational,
// non-domain surface the teacher's own Scheduler.GetJobStats() already
// computes.
type JobsHandler struct {
	scheduler *scheduler.Scheduler
}

// NewJobsHandler wires a JobsHandler over the Scheduler.
func NewJobsHandler(sched *scheduler.Scheduler) *JobsHandler {
	return &JobsHandler{scheduler: sched}
}

// Stats returns every registered job's schedule, run counts, and success rate.
// GET /internal/jobs/stats
func (h *JobsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, h.scheduler.GetJobStats())
}
