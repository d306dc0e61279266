package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	resumeListsTotal      atomic.Uint64
	resumeListFailedTotal atomic.Uint64
	resumeDecodeSkipped   atomic.Uint64
	resumeDeletedTotal    atomic.Uint64
	resumeDeleteFailed    atomic.Uint64
	bulkDeletesTotal      atomic.Uint64
	bulkDeletesPartial    atomic.Uint64
	artifactDeleteFailed  atomic.Uint64
	orphansSweptTotal     atomic.Uint64
	orphansAbandonedTotal atomic.Uint64

	resumeListDuration = newHistogram([]float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000})
)

// IncResumeList counts a completed listing.
func IncResumeList() { resumeListsTotal.Add(1) }

// IncResumeListFailed counts a listing that hit a store failure.
func IncResumeListFailed() { resumeListFailedTotal.Add(1) }

// AddDecodeSkipped counts stored values excluded because they failed to decode.
func AddDecodeSkipped(n int) {
	if n > 0 {
		resumeDecodeSkipped.Add(uint64(n))
	}
}

// IncResumeDeleted counts a record that is no longer present after a delete.
func IncResumeDeleted() { resumeDeletedTotal.Add(1) }

// IncResumeDeleteFailed counts a record delete that failed.
func IncResumeDeleteFailed() { resumeDeleteFailed.Add(1) }

// IncBulkDelete counts an executed bulk delete.
func IncBulkDelete() { bulkDeletesTotal.Add(1) }

// IncBulkDeletePartial counts a bulk delete that left records behind.
func IncBulkDeletePartial() { bulkDeletesPartial.Add(1) }

// IncArtifactDeleteFailed counts an artifact that could not be removed.
func IncArtifactDeleteFailed() { artifactDeleteFailed.Add(1) }

// IncOrphanSwept counts an orphan artifact removed by the sweeper.
func IncOrphanSwept() { orphansSweptTotal.Add(1) }

// IncOrphanAbandoned counts an orphan message dropped after too many attempts.
func IncOrphanAbandoned() { orphansAbandonedTotal.Add(1) }

// ObserveResumeListDurationMs records a listing duration in milliseconds.
func ObserveResumeListDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	resumeListDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "resume_list_total", "Total resume listings", resumeListsTotal.Load())
	writeCounter(&buf, "resume_list_failed_total", "Total resume listings that failed", resumeListFailedTotal.Load())
	writeCounter(&buf, "resume_decode_skipped_total", "Stored values skipped as undecodable", resumeDecodeSkipped.Load())
	writeCounter(&buf, "resume_deleted_total", "Total resume records deleted", resumeDeletedTotal.Load())
	writeCounter(&buf, "resume_delete_failed_total", "Total resume record deletes that failed", resumeDeleteFailed.Load())
	writeCounter(&buf, "resume_bulk_delete_total", "Total bulk deletes executed", bulkDeletesTotal.Load())
	writeCounter(&buf, "resume_bulk_delete_partial_total", "Total bulk deletes with failures", bulkDeletesPartial.Load())
	writeCounter(&buf, "artifact_delete_failed_total", "Total artifact deletes that failed", artifactDeleteFailed.Load())
	writeCounter(&buf, "orphan_swept_total", "Total orphan artifacts removed by the sweeper", orphansSweptTotal.Load())
	writeCounter(&buf, "orphan_abandoned_total", "Total orphan messages abandoned", orphansAbandonedTotal.Load())
	writeHistogram(&buf, "resume_list_duration_ms", "Resume listing duration in milliseconds", resumeListDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe adds value to the first bucket that holds it; Render accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
