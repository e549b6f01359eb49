package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	reviewRequestsTotal  atomic.Uint64
	reviewCompletedTotal atomic.Uint64
	reviewFailedTotal    = newCounterVec("code")

	reviewDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
	llmDuration    = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 20000, 30000, 60000})
)

// IncReviewRequests counts a review request entering the pipeline.
func IncReviewRequests() {
	reviewRequestsTotal.Add(1)
}

// IncReviewCompleted counts a review returned to the caller.
func IncReviewCompleted() {
	reviewCompletedTotal.Add(1)
}

// IncReviewFailed counts a failed review by its error code.
func IncReviewFailed(code string) {
	reviewFailedTotal.Inc(code)
}

// ObserveReviewDurationMs records end-to-end review latency in milliseconds.
func ObserveReviewDurationMs(value float64) {
	reviewDuration.Observe(clamp(value))
}

// ObserveLLMDurationMs records a single model call latency in milliseconds.
func ObserveLLMDurationMs(value float64) {
	llmDuration.Observe(clamp(value))
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
	writeCounter(&buf, "review_requests_total", "Total review requests received", reviewRequestsTotal.Load())
	writeCounter(&buf, "review_completed_total", "Total reviews returned", reviewCompletedTotal.Load())
	writeCounterVec(&buf, "review_failed_total", "Total failed reviews by error code", reviewFailedTotal)
	writeHistogram(&buf, "review_duration_ms", "Review request duration in milliseconds", reviewDuration.Snapshot())
	writeHistogram(&buf, "llm_duration_ms", "LLM call duration in milliseconds", llmDuration.Snapshot())
	return buf.String()
}

func clamp(value float64) float64 {
	if value < 0 {
		return 0
	}
	return value
}

type counterVec struct {
	mu     sync.Mutex
	label  string
	values map[string]uint64
}

func newCounterVec(label string) *counterVec {
	return &counterVec{label: label, values: make(map[string]uint64)}
}

func (v *counterVec) Inc(labelValue string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[labelValue]++
}

func (v *counterVec) snapshot() map[string]uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]uint64, len(v.values))
	for k, n := range v.values {
		out[k] = n
	}
	return out
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

// Observe records value in the first bucket whose bound covers it; buckets
// are made cumulative when rendered.
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

func writeCounterVec(buf *bytes.Buffer, name, help string, vec *counterVec) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	values := vec.snapshot()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, vec.label, k, values[k])
	}
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
