// Package metrics aggregates in-memory counters for HTTP requests, catalog
// synchronization, and thumbnail generation, exposed as plain text at
// /metrics.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

type requestLabel struct {
	method string
	path   string
	status string
}

// Recorder coordinates concurrent counter writers via one mutex. It is cheap
// enough to update on every request; exposition walks a sorted snapshot.
type Recorder struct {
	mu              sync.RWMutex
	requestCount    map[requestLabel]uint64
	requestDuration map[requestLabel]time.Duration
	catalogSyncs    map[string]uint64
	thumbnails      map[string]uint64
}

var defaultRecorder = New()

// New constructs an empty Recorder with initialized backing maps.
func New() *Recorder {
	return &Recorder{
		requestCount:    make(map[requestLabel]uint64),
		requestDuration: make(map[requestLabel]time.Duration),
		catalogSyncs:    make(map[string]uint64),
		thumbnails:      make(map[string]uint64),
	}
}

// Default returns the singleton Recorder shared by packages that do not need
// a custom instrumentation pipeline.
func Default() *Recorder {
	return defaultRecorder
}

// ObserveRequest accumulates request count and cumulative duration by HTTP
// method, normalized path, and status code.
func (r *Recorder) ObserveRequest(method, path string, status int, duration time.Duration) {
	label := requestLabel{
		method: strings.ToUpper(method),
		path:   normalizePath(path),
		status: fmt.Sprintf("%d", status),
	}
	r.mu.Lock()
	r.requestCount[label]++
	r.requestDuration[label] += duration
	r.mu.Unlock()
}

// ObserveCatalogSync records one synchronization pass outcome.
func (r *Recorder) ObserveCatalogSync(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	r.mu.Lock()
	r.catalogSyncs[outcome]++
	r.mu.Unlock()
}

// ObserveThumbnail records a thumbnail cache outcome: "hit", "generated", or
// "failure".
func (r *Recorder) ObserveThumbnail(outcome string) {
	r.mu.Lock()
	r.thumbnails[outcome]++
	r.mu.Unlock()
}

// normalizePath collapses numeric id segments so the label set stays bounded.
func normalizePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if segment == "" {
			continue
		}
		numeric := true
		for _, r := range segment {
			if r < '0' || r > '9' {
				numeric = false
				break
			}
		}
		if numeric {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

// Handler exposes the counters in a plain-text, line-per-metric format.
func (r *Recorder) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		r.mu.RLock()
		lines := make([]string, 0, len(r.requestCount)+len(r.catalogSyncs)+len(r.thumbnails))
		for label, count := range r.requestCount {
			lines = append(lines, fmt.Sprintf(
				"http_requests_total{method=%q,path=%q,status=%q} %d",
				label.method, label.path, label.status, count))
			lines = append(lines, fmt.Sprintf(
				"http_request_duration_ms_total{method=%q,path=%q,status=%q} %d",
				label.method, label.path, label.status, r.requestDuration[label].Milliseconds()))
		}
		for outcome, count := range r.catalogSyncs {
			lines = append(lines, fmt.Sprintf("catalog_syncs_total{outcome=%q} %d", outcome, count))
		}
		for outcome, count := range r.thumbnails {
			lines = append(lines, fmt.Sprintf("thumbnails_total{outcome=%q} %d", outcome, count))
		}
		r.mu.RUnlock()

		sort.Strings(lines)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, line := range lines {
			fmt.Fprintln(w, line)
		}
	})
}

// ResponseRecorder wraps a ResponseWriter to capture the status code for
// logging and metrics middleware.
type ResponseRecorder struct {
	http.ResponseWriter
	status int
}

// NewResponseRecorder wraps w with a 200 default status.
func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rr *ResponseRecorder) WriteHeader(status int) {
	rr.status = status
	rr.ResponseWriter.WriteHeader(status)
}

// Status returns the captured status code.
func (rr *ResponseRecorder) Status() int {
	return rr.status
}
