package metrics

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMetricsCounters(t *testing.T) {
	s := GetSnapshot()
	initialSent := s.NotificationsSent
	initialFailed := s.NotificationsFailed
	initialChecks := s.Checks

	IncNotificationSent()
	IncNotificationFailed()
	IncCheck()
	SetPendingUpdates(3)
	SetLastCheck(time.Unix(123456789, 0))

	s2 := GetSnapshot()
	if s2.NotificationsSent != initialSent+1 {
		t.Fatalf("expected notifications_sent to increment by 1, got %d", s2.NotificationsSent)
	}
	if s2.NotificationsFailed != initialFailed+1 {
		t.Fatalf("expected notifications_failed to increment by 1, got %d", s2.NotificationsFailed)
	}
	if s2.Checks != initialChecks+1 {
		t.Fatalf("expected update_checks to increment by 1, got %d", s2.Checks)
	}
	if s2.PendingUpdates != 3 {
		t.Fatalf("expected pending_updates 3, got %d", s2.PendingUpdates)
	}
	if s2.LastCheck != 123456789 {
		t.Fatalf("expected last check timestamp 123456789, got %d", s2.LastCheck)
	}
	if s2.LastCheckHuman == "" {
		t.Fatal("expected non-empty LastCheckHuman")
	}
}

func TestJSONHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/status", nil)
	JSONHandler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap StatsSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
}

func TestPromHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	PromHandler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
