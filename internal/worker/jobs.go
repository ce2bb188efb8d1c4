package worker

import (
	"context"
	"sync"
	"time"

	"github.com/hanzitools/hanzistats/internal/logger"
	"github.com/hanzitools/hanzistats/internal/models"
	"github.com/hanzitools/hanzistats/internal/services"
)

// ReportStatus is the lifecycle state of a report job.
type ReportStatus string

const (
	StatusPending   ReportStatus = "pending"
	StatusRunning   ReportStatus = "running"
	StatusCompleted ReportStatus = "completed"
	StatusFailed    ReportStatus = "failed"
)

// ReportState is a point-in-time view of a report job, shaped for the API.
type ReportState struct {
	ID              string         `json:"id"`
	Status          ReportStatus   `json:"status"`
	SelectionsDone  int            `json:"selections_done"`
	SelectionsTotal int            `json:"selections_total"`
	Report          *models.Report `json:"report,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// ReportTracker carries a report job's progress and outcome across the
// worker/API boundary. Progress is reported per completed selection.
type ReportTracker struct {
	mu        sync.Mutex
	id        string
	status    ReportStatus
	done      int
	total     int
	report    *models.Report
	result    models.AggregateResult
	errMsg    string
	createdAt time.Time
}

// NewReportTracker creates a tracker in the pending state.
func NewReportTracker(id string) *ReportTracker {
	return &ReportTracker{
		id:        id,
		status:    StatusPending,
		createdAt: time.Now(),
	}
}

// ID returns the tracker's identifier.
func (t *ReportTracker) ID() string {
	return t.id
}

// Progress records selection-level progress. Safe for use as a
// stats.ProgressFunc.
func (t *ReportTracker) Progress(done, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = done
	t.total = total
}

func (t *ReportTracker) start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusRunning
}

func (t *ReportTracker) complete(report *models.Report, result models.AggregateResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusCompleted
	t.report = report
	t.result = result
}

func (t *ReportTracker) fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusFailed
	t.errMsg = err.Error()
}

// Snapshot returns the current state of the job.
func (t *ReportTracker) Snapshot() ReportState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ReportState{
		ID:              t.id,
		Status:          t.status,
		SelectionsDone:  t.done,
		SelectionsTotal: t.total,
		Report:          t.report,
		Error:           t.errMsg,
	}
}

// Result returns the aggregate snapshot of a completed job. The second
// return is false until the job completes.
func (t *ReportTracker) Result() (models.AggregateResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusCompleted {
		return models.AggregateResult{}, false
	}
	return t.result, true
}

// ReportJob computes a full Hanzi statistics report in the background,
// recording progress and the outcome on its tracker.
type ReportJob struct {
	Tracker    *ReportTracker
	Service    services.StatsService
	Selections []models.Selection
}

func (j *ReportJob) Name() string { return "hanzi_report" }

func (j *ReportJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("report_id", j.Tracker.ID())
	log.Info("computing report for %d selections", len(j.Selections))

	j.Tracker.start()
	report, result, err := j.Service.Report(ctx, j.Selections, j.Tracker.Progress)
	if err != nil {
		j.Tracker.fail(err)
		return err
	}
	j.Tracker.complete(report, result)
	return nil
}
