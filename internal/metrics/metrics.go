package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Metrics holds per-endpoint request counters and latency sums. Exposed in
// a plain text format at /metrics.
type Metrics struct {
	mu sync.RWMutex

	requestCount  map[string]uint64
	requestErrors map[string]uint64
	latencySum    map[string]time.Duration
	startTime     time.Time
}

func New() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]uint64),
		requestErrors: make(map[string]uint64),
		latencySum:    make(map[string]time.Duration),
		startTime:     time.Now(),
	}
}

// RecordRequest records one completed request.
func (m *Metrics) RecordRequest(method, path string, status int, duration time.Duration) {
	key := method + " " + normalizePath(path)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requestCount[key]++
	m.latencySum[key] += duration
	if status >= 400 {
		errKey := fmt.Sprintf("%s:%dxx", key, status/100)
		m.requestErrors[errKey]++
	}
}

// normalizePath collapses id segments so every article detail request lands
// on the same series.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if isNumeric(p) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Handler serves the metrics snapshot as text.
func (m *Metrics) Handler(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	fmt.Fprintf(w, "uptime_seconds %d\n", int(time.Since(m.startTime).Seconds()))

	keys := make([]string, 0, len(m.requestCount))
	for k := range m.requestCount {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		count := m.requestCount[k]
		avg := time.Duration(0)
		if count > 0 {
			avg = m.latencySum[k] / time.Duration(count)
		}
		fmt.Fprintf(w, "request_count{route=%q} %d\n", k, count)
		fmt.Fprintf(w, "request_avg_ms{route=%q} %d\n", k, avg.Milliseconds())
	}

	errKeys := make([]string, 0, len(m.requestErrors))
	for k := range m.requestErrors {
		errKeys = append(errKeys, k)
	}
	sort.Strings(errKeys)

	for _, k := range errKeys {
		fmt.Fprintf(w, "request_errors{route=%q} %d\n", k, m.requestErrors[k])
	}
}
