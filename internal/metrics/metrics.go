// Package metrics provides counters, Prometheus collectors, and HTTP
// handlers for exporting carrus runtime metrics.
package metrics

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 1. Internal State (Source of Truth)
var (
	notificationsSent   int64
	notificationsFailed int64
	checks              int64
	pendingUpdates      int64
	lastCheck           int64
)

const counterInc int64 = 1

// 2. Prometheus Collectors
var (
	promSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "carrus_notifications_sent_total",
			Help: "Total notifications accepted by the configured channel",
		},
	)
	promFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "carrus_notifications_failed_total",
			Help: "Total notification attempts rejected or timed out",
		},
	)
	promChecks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "carrus_update_checks_total",
			Help: "Total update-check scans performed",
		},
	)
	promPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "carrus_pending_updates",
			Help: "Packages with a newer version than the installed one at the last scan",
		},
	)
	promLastCheck = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "carrus_last_check_timestamp_seconds",
			Help: "Unix timestamp of the last update check",
		},
	)
)

func init() {
	prometheus.MustRegister(
		promSent,
		promFailed,
		promChecks,
		promPending,
		promLastCheck,
	)
}

// 3. Public API (Updates both Atomic and Prometheus)

// IncNotificationSent increments the counter for accepted notifications.
func IncNotificationSent() {
	atomic.AddInt64(&notificationsSent, counterInc)
	promSent.Inc()
}

// IncNotificationFailed increments the counter for failed notification attempts.
func IncNotificationFailed() {
	atomic.AddInt64(&notificationsFailed, counterInc)
	promFailed.Inc()
}

// IncCheck increments the counter for performed update-check scans.
func IncCheck() {
	atomic.AddInt64(&checks, counterInc)
	promChecks.Inc()
}

// SetPendingUpdates records how many packages had a pending update at the
// last scan.
func SetPendingUpdates(n int) {
	atomic.StoreInt64(&pendingUpdates, int64(n))
	promPending.Set(float64(n))
}

// SetLastCheck stores the provided time as the last check timestamp and
// updates the corresponding Prometheus gauge.
func SetLastCheck(t time.Time) {
	atomic.StoreInt64(&lastCheck, t.Unix())
	promLastCheck.Set(float64(t.Unix()))
}

// 4. JSON Snapshot Struct (For status endpoints)

// StatsSnapshot is a snapshot of metrics for JSON encoding.
type StatsSnapshot struct {
	NotificationsSent   int64  `json:"notifications_sent"`
	NotificationsFailed int64  `json:"notifications_failed"`
	Checks              int64  `json:"update_checks"`
	PendingUpdates      int64  `json:"pending_updates"`
	LastCheck           int64  `json:"last_check_timestamp"`
	LastCheckHuman      string `json:"last_check_human"`
}

// GetSnapshot returns a StatsSnapshot with the current values of all
// internal counters and timestamps.
func GetSnapshot() StatsSnapshot {
	ts := atomic.LoadInt64(&lastCheck)
	return StatsSnapshot{
		NotificationsSent:   atomic.LoadInt64(&notificationsSent),
		NotificationsFailed: atomic.LoadInt64(&notificationsFailed),
		Checks:              atomic.LoadInt64(&checks),
		PendingUpdates:      atomic.LoadInt64(&pendingUpdates),
		LastCheck:           ts,
		LastCheckHuman:      time.Unix(ts, 0).Format(time.RFC3339),
	}
}

// 5. Handlers

// PromHandler returns an HTTP handler that exposes Prometheus metrics.
func PromHandler() http.Handler { return promhttp.Handler() }

// JSONHandler returns an HTTP handler that serves the metrics snapshot as JSON.
func JSONHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GetSnapshot())
	})
}
