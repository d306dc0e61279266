package resumes

import (
	"context"
	"time"

	"github.com/AhmeWagih/resume-analyzer/internal/queue"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/metrics"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/telemetry"
)

// Orphan is an artifact left behind after its record was deleted (or a
// delete was attempted) and the artifact delete failed.
type Orphan struct {
	UserID   string
	ResumeID string
	Kind     ArtifactKind
	Path     string
	Err      error
}

// OrphanReporter is the warning channel for failed artifact deletes.
// Implementations must not block the delete path for long and never fail it.
type OrphanReporter interface {
	ReportOrphan(ctx context.Context, o Orphan)
}

// LogReporter logs each orphan at warn level.
type LogReporter struct{}

// ReportOrphan implements OrphanReporter.
func (LogReporter) ReportOrphan(_ context.Context, o Orphan) {
	metrics.IncArtifactDeleteFailed()
	telemetry.Warn("resumes.artifact_delete_failed", map[string]any{
		"user_id":   o.UserID,
		"resume_id": o.ResumeID,
		"kind":      string(o.Kind),
		"path":      o.Path,
		"error":     o.Err,
	})
}

// QueueReporter enqueues orphans for the background sweeper.
type QueueReporter struct {
	Queue queue.Client
	now   func() time.Time
}

// NewQueueReporter constructs a QueueReporter sending to q.
func NewQueueReporter(q queue.Client) *QueueReporter {
	return &QueueReporter{Queue: q, now: time.Now}
}

// ReportOrphan implements OrphanReporter. Enqueue failures are logged only.
func (r *QueueReporter) ReportOrphan(ctx context.Context, o Orphan) {
	if r == nil || r.Queue == nil {
		return
	}
	reason := ""
	if o.Err != nil {
		reason = o.Err.Error()
	}
	now := time.Now
	if r.now != nil {
		now = r.now
	}
	msg := queue.Message{
		UserID:     o.UserID,
		ResumeID:   o.ResumeID,
		Kind:       string(o.Kind),
		Path:       o.Path,
		Reason:     reason,
		EnqueuedAt: now().UTC().Format(time.RFC3339),
		Version:    queue.MessageVersion,
	}
	if err := r.Queue.Send(ctx, msg); err != nil {
		telemetry.Error("resumes.orphan_enqueue_failed", map[string]any{
			"user_id":   o.UserID,
			"resume_id": o.ResumeID,
			"path":      o.Path,
			"error":     err,
		})
	}
}

// MultiReporter fans an orphan out to every reporter in order.
type MultiReporter []OrphanReporter

// ReportOrphan implements OrphanReporter.
func (m MultiReporter) ReportOrphan(ctx context.Context, o Orphan) {
	for _, r := range m {
		if r != nil {
			r.ReportOrphan(ctx, o)
		}
	}
}
