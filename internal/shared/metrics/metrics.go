package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	documentsUploadedTotal  atomic.Uint64
	documentsConfirmedTotal atomic.Uint64
	documentsRejectedTotal  atomic.Uint64

	ingestionsStartedTotal   atomic.Uint64
	ingestionsCompletedTotal atomic.Uint64
	ingestionsFailedTotal    atomic.Uint64

	ingestJobsReceivedTotal             atomic.Uint64
	ingestJobsCompletedTotal            atomic.Uint64
	ingestJobsFailedTotal               atomic.Uint64
	ingestJobsDeletedUnrecoverableTotal atomic.Uint64

	httpRequestsTotal atomic.Uint64

	ingestionDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncDocumentUploaded increments the uploaded-documents counter.
func IncDocumentUploaded() {
	documentsUploadedTotal.Add(1)
}

// IncDocumentConfirmed increments the confirmed-documents counter.
func IncDocumentConfirmed() {
	documentsConfirmedTotal.Add(1)
}

// IncDocumentRejected increments the rejected-documents counter.
func IncDocumentRejected() {
	documentsRejectedTotal.Add(1)
}

// IncIngestionStarted increments the started counter.
func IncIngestionStarted() {
	ingestionsStartedTotal.Add(1)
}

// IncIngestionCompleted increments the completed counter.
func IncIngestionCompleted() {
	ingestionsCompletedTotal.Add(1)
}

// IncIngestionFailed increments the failed counter.
func IncIngestionFailed() {
	ingestionsFailedTotal.Add(1)
}

// IncIngestJobReceived counts queue messages received by the worker.
func IncIngestJobReceived() {
	ingestJobsReceivedTotal.Add(1)
}

// IncIngestJobCompleted counts queue messages processed and deleted.
func IncIngestJobCompleted() {
	ingestJobsCompletedTotal.Add(1)
}

// IncIngestJobFailed counts queue messages left for redelivery.
func IncIngestJobFailed() {
	ingestJobsFailedTotal.Add(1)
}

// IncIngestJobDeletedUnrecoverable counts messages dropped as unprocessable.
func IncIngestJobDeletedUnrecoverable() {
	ingestJobsDeletedUnrecoverableTotal.Add(1)
}

// IncHTTPRequest counts a served HTTP request.
func IncHTTPRequest() {
	httpRequestsTotal.Add(1)
}

// ObserveIngestionDurationMs records an ingestion duration in milliseconds.
func ObserveIngestionDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	ingestionDuration.Observe(value)
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
	writeCounter(&buf, "documents_uploaded_total", "Total documents uploaded", documentsUploadedTotal.Load())
	writeCounter(&buf, "documents_confirmed_total", "Total documents confirmed into the ledger", documentsConfirmedTotal.Load())
	writeCounter(&buf, "documents_rejected_total", "Total documents rejected", documentsRejectedTotal.Load())
	writeCounter(&buf, "ingestions_started_total", "Total ingestion runs started", ingestionsStartedTotal.Load())
	writeCounter(&buf, "ingestions_completed_total", "Total ingestion runs completed", ingestionsCompletedTotal.Load())
	writeCounter(&buf, "ingestions_failed_total", "Total ingestion runs failed", ingestionsFailedTotal.Load())
	writeCounter(&buf, "ingest_jobs_received_total", "Total ingestion jobs received from the queue", ingestJobsReceivedTotal.Load())
	writeCounter(&buf, "ingest_jobs_completed_total", "Total ingestion jobs completed", ingestJobsCompletedTotal.Load())
	writeCounter(&buf, "ingest_jobs_failed_total", "Total ingestion jobs failed and left for redelivery", ingestJobsFailedTotal.Load())
	writeCounter(&buf, "ingest_jobs_deleted_unrecoverable_total", "Total ingestion jobs dropped as unprocessable", ingestJobsDeletedUnrecoverableTotal.Load())
	writeCounter(&buf, "http_requests_total", "Total HTTP requests served", httpRequestsTotal.Load())
	writeHistogram(&buf, "ingestion_duration_ms", "Ingestion duration in milliseconds", ingestionDuration.Snapshot())
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

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
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

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
