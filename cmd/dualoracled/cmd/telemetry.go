package cmd

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// roundTracker records the outcome of the last update round for the
// readiness probe.
type roundTracker struct {
	mu        sync.RWMutex
	startedAt time.Time
	lastRound time.Time
	lastErr   error
	feeds     int
	maxAge    time.Duration
}

func newRoundTracker(maxAge time.Duration) *roundTracker {
	return &roundTracker{startedAt: time.Now(), maxAge: maxAge}
}

func (t *roundTracker) record(at time.Time, feeds int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastRound = at
	t.feeds = feeds
	t.lastErr = err
}

// CheckResult represents a single readiness check.
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ReadinessResponse is the response for /health/ready
type ReadinessResponse struct {
	Status        string                 `json:"status"`
	UptimeSeconds int64                  `json:"uptime_seconds"`
	LastRound     string                 `json:"last_round,omitempty"`
	Feeds         int                    `json:"feeds"`
	Checks        map[string]CheckResult `json:"checks"`
}

func (t *roundTracker) readiness(now time.Time) (ReadinessResponse, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	resp := ReadinessResponse{
		Status:        "ready",
		UptimeSeconds: int64(now.Sub(t.startedAt).Seconds()),
		Feeds:         t.feeds,
		Checks:        map[string]CheckResult{},
	}
	healthy := true

	switch {
	case t.lastRound.IsZero():
		resp.Checks["round"] = CheckResult{Status: "unhealthy", Message: "no round completed yet"}
		healthy = false
	case now.Sub(t.lastRound) > t.maxAge:
		resp.Checks["round"] = CheckResult{Status: "unhealthy", Message: "last round is older than " + t.maxAge.String()}
		healthy = false
	default:
		resp.Checks["round"] = CheckResult{Status: "healthy"}
	}
	if !t.lastRound.IsZero() {
		resp.LastRound = t.lastRound.UTC().Format(time.RFC3339)
	}

	if t.lastErr != nil {
		resp.Checks["state"] = CheckResult{Status: "unhealthy", Message: t.lastErr.Error()}
		healthy = false
	} else {
		resp.Checks["state"] = CheckResult{Status: "healthy"}
	}

	if !healthy {
		resp.Status = "not_ready"
	}
	return resp, healthy
}

// newTelemetryServer serves Prometheus metrics on /metrics and the liveness
// and readiness probes on /health and /health/ready.
func newTelemetryServer(addr string, tracker *roundTracker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		resp, ok := tracker.readiness(time.Now())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
