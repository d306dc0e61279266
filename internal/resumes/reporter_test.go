package resumes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhmeWagih/resume-analyzer/internal/queue"
)

type captureQueue struct {
	msgs []queue.Message
	err  error
}

func (q *captureQueue) Send(_ context.Context, msg queue.Message) error {
	if q.err != nil {
		return q.err
	}
	q.msgs = append(q.msgs, msg)
	return nil
}

func TestQueueReporterEnqueuesOrphan(t *testing.T) {
	q := &captureQueue{}
	rep := NewQueueReporter(q)
	rep.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	rep.ReportOrphan(context.Background(), Orphan{
		UserID:   "u1",
		ResumeID: "r1",
		Kind:     ArtifactResume,
		Path:     "abc/cv.pdf",
		Err:      errors.New("timeout"),
	})

	require.Len(t, q.msgs, 1)
	assert.Equal(t, queue.Message{
		UserID:     "u1",
		ResumeID:   "r1",
		Kind:       "resume",
		Path:       "abc/cv.pdf",
		Reason:     "timeout",
		EnqueuedAt: "2026-01-02T03:04:05Z",
		Version:    queue.MessageVersion,
	}, q.msgs[0])
}

func TestQueueReporterSwallowsSendErrors(t *testing.T) {
	rep := NewQueueReporter(&captureQueue{err: errors.New("throttled")})
	assert.NotPanics(t, func() {
		rep.ReportOrphan(context.Background(), Orphan{ResumeID: "r1", Path: "p"})
	})
}

func TestMultiReporterFansOut(t *testing.T) {
	a, b := &recordingReporter{}, &recordingReporter{}
	MultiReporter{a, nil, b}.ReportOrphan(context.Background(), Orphan{Path: "p"})
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
}
