package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matdotcx/carrus/internal/config"
	"github.com/matdotcx/carrus/internal/notify"
	"github.com/matdotcx/carrus/internal/state"
	"github.com/matdotcx/carrus/internal/store"
)

// spyProvider records every notification it receives; fail and delay make it
// misbehave on demand.
type spyProvider struct {
	mu      sync.Mutex
	calls   []notify.Notification
	failFor map[string]bool
	delay   time.Duration
}

func (p *spyProvider) Name() string { return "spy" }

func (p *spyProvider) Notify(ctx context.Context, n notify.Notification) bool {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return false
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, n)
	return !p.failFor[n.Package]
}

func (p *spyProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func newTestService(t *testing.T, cfg *config.Config, p notify.Provider) (*Service, *store.Store) {
	t.Helper()
	t.Setenv("CARRUS_STATE_DIR", t.TempDir())
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewWithProvider(cfg, st, p), st
}

func addVersion(t *testing.T, st *store.Store, pkgID int64, version string, installed bool) int64 {
	t.Helper()
	id, err := st.AddVersion(pkgID, version, "https://example.com/"+version+".dmg", "", nil)
	if err != nil {
		t.Fatalf("AddVersion failed: %v", err)
	}
	if installed {
		if err := st.SetInstalled(id, true); err != nil {
			t.Fatalf("SetInstalled failed: %v", err)
		}
	}
	return id
}

func TestNotifyUpdatesEndToEnd(t *testing.T) {
	spy := &spyProvider{}
	svc, st := newTestService(t, config.DefaultConfig(), spy)

	pkgID, err := st.AddPackage("TestApp")
	if err != nil {
		t.Fatalf("AddPackage failed: %v", err)
	}
	addVersion(t, st, pkgID, "1.0.0", true)
	addVersion(t, st, pkgID, "1.1.0", false)

	versions, err := st.ListVersions(pkgID)
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	if len(versions) != 2 || versions[0].Version != "1.1.0" || versions[1].Version != "1.0.0" {
		t.Fatalf("version ordering wrong: %+v", versions)
	}
	latest, _ := st.LatestVersion(pkgID)
	if latest == nil || latest.Version != "1.1.0" {
		t.Fatalf("latest = %+v", latest)
	}
	installed, _ := st.InstalledVersion(pkgID)
	if installed == nil || installed.Version != "1.0.0" {
		t.Fatalf("installed = %+v", installed)
	}

	sent, err := svc.NotifyUpdates(context.Background())
	if err != nil {
		t.Fatalf("NotifyUpdates failed: %v", err)
	}
	if sent != 1 {
		t.Errorf("sent = %d, want 1", sent)
	}
	if spy.callCount() != 1 {
		t.Fatalf("provider called %d times, want 1", spy.callCount())
	}
	n := spy.calls[0]
	if n.Package != "TestApp" || n.CurrentVersion != "1.0.0" || n.NewVersion != "1.1.0" {
		t.Errorf("notification transition wrong: %+v", n)
	}
}

func TestNotifyUpdatesUpToDatePackage(t *testing.T) {
	spy := &spyProvider{}
	svc, st := newTestService(t, config.DefaultConfig(), spy)

	pkgID, _ := st.AddPackage("Current")
	addVersion(t, st, pkgID, "2.0.0", true)

	sent, err := svc.NotifyUpdates(context.Background())
	if err != nil {
		t.Fatalf("NotifyUpdates failed: %v", err)
	}
	if sent != 0 || spy.callCount() != 0 {
		t.Errorf("up-to-date package should send nothing: sent=%d calls=%d", sent, spy.callCount())
	}
}

func TestNotifyUpdatesNoInstalledVersion(t *testing.T) {
	spy := &spyProvider{}
	svc, st := newTestService(t, config.DefaultConfig(), spy)

	pkgID, _ := st.AddPackage("Fresh")
	addVersion(t, st, pkgID, "1.0.0", false)

	sent, err := svc.NotifyUpdates(context.Background())
	if err != nil {
		t.Fatalf("NotifyUpdates failed: %v", err)
	}
	if sent != 1 || spy.callCount() != 1 {
		t.Fatalf("package without installed version should be pending: sent=%d", sent)
	}
	if spy.calls[0].CurrentVersion != "none" {
		t.Errorf("current version = %q, want none", spy.calls[0].CurrentVersion)
	}
}

func TestNotifyUpdatesDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Enabled = false
	spy := &spyProvider{}
	svc, st := newTestService(t, cfg, spy)

	pkgID, _ := st.AddPackage("TestApp")
	addVersion(t, st, pkgID, "1.1.0", false)

	sent, err := svc.NotifyUpdates(context.Background())
	if err != nil {
		t.Fatalf("NotifyUpdates failed: %v", err)
	}
	if sent != 0 {
		t.Errorf("disabled service sent %d notifications", sent)
	}
	if spy.callCount() != 0 {
		t.Error("disabled service must not touch the provider")
	}

	if ok := svc.NotifyOnce(context.Background(), notify.NewNotification("t", "m", "p", "", "")); ok {
		t.Error("NotifyOnce should report false when disabled")
	}
	if spy.callCount() != 0 {
		t.Error("disabled NotifyOnce must not touch the provider")
	}
}

func TestNotifyUpdatesProviderFailureContinuesScan(t *testing.T) {
	spy := &spyProvider{failFor: map[string]bool{"Broken": true}}
	svc, st := newTestService(t, config.DefaultConfig(), spy)

	for _, name := range []string{"Broken", "Working"} {
		pkgID, _ := st.AddPackage(name)
		addVersion(t, st, pkgID, "1.0.0", true)
		addVersion(t, st, pkgID, "2.0.0", false)
	}

	sent, err := svc.NotifyUpdates(context.Background())
	if err != nil {
		t.Fatalf("NotifyUpdates failed: %v", err)
	}
	if sent != 1 {
		t.Errorf("sent = %d, want 1 (failure excluded from count)", sent)
	}
	if spy.callCount() != 2 {
		t.Errorf("provider called %d times, want 2 (scan continues past failures)", spy.callCount())
	}
}

func TestNotifyUpdatesCancelledContext(t *testing.T) {
	spy := &spyProvider{}
	svc, st := newTestService(t, config.DefaultConfig(), spy)

	pkgID, _ := st.AddPackage("TestApp")
	addVersion(t, st, pkgID, "1.1.0", false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sent, err := svc.NotifyUpdates(ctx)
	if err != nil {
		t.Fatalf("NotifyUpdates with cancelled context failed: %v", err)
	}
	if sent != 0 || spy.callCount() != 0 {
		t.Errorf("cancelled context should stop dispatching: sent=%d calls=%d", sent, spy.callCount())
	}
}

func TestNotifyOnce(t *testing.T) {
	spy := &spyProvider{}
	svc, _ := newTestService(t, config.DefaultConfig(), spy)

	n := notify.NewNotification("Build Failed", "The Firefox build failed.", "Firefox", "", "")
	if ok := svc.NotifyOnce(context.Background(), n); !ok {
		t.Fatal("NotifyOnce should report true")
	}
	if spy.callCount() != 1 || spy.calls[0].Title != "Build Failed" {
		t.Errorf("provider did not receive the one-shot notification: %+v", spy.calls)
	}
}

func TestCheckUpdatesDoesNotSend(t *testing.T) {
	spy := &spyProvider{}
	svc, st := newTestService(t, config.DefaultConfig(), spy)

	pkgID, _ := st.AddPackage("TestApp")
	addVersion(t, st, pkgID, "1.1.0", false)

	notifications, err := svc.CheckUpdates(context.Background())
	if err != nil {
		t.Fatalf("CheckUpdates failed: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("expected 1 pending notification, got %d", len(notifications))
	}
	if spy.callCount() != 0 {
		t.Error("CheckUpdates must not call the provider")
	}
}

func TestShouldCheck(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.IntervalHours = 24
	spy := &spyProvider{}
	svc, _ := newTestService(t, cfg, spy)

	now := time.Now()
	if !svc.ShouldCheck(now) {
		t.Error("ShouldCheck should be true with no persisted record")
	}

	if err := state.SaveCheckRecord(state.CheckRecord{LastCheck: now}); err != nil {
		t.Fatal(err)
	}
	if svc.ShouldCheck(now.Add(time.Hour)) {
		t.Error("ShouldCheck should be false one hour after a check")
	}
	if !svc.ShouldCheck(now.Add(25 * time.Hour)) {
		t.Error("ShouldCheck should be true after the interval has elapsed")
	}

	cfg.Enabled = false
	if svc.ShouldCheck(now.Add(48 * time.Hour)) {
		t.Error("ShouldCheck should be false when notifications are disabled")
	}
}

func TestNewFailsFastOnMisconfiguration(t *testing.T) {
	t.Setenv("CARRUS_STATE_DIR", t.TempDir())
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	cfg := config.DefaultConfig()
	cfg.Method = config.MethodSlack // webhook URL missing

	if _, err := New(cfg, st); !errors.Is(err, notify.ErrConfiguration) {
		t.Errorf("New = %v, want ErrConfiguration", err)
	}
}

func TestNotifyUpdatesPersistsCheckRecord(t *testing.T) {
	spy := &spyProvider{}
	svc, st := newTestService(t, config.DefaultConfig(), spy)

	pkgID, _ := st.AddPackage("TestApp")
	addVersion(t, st, pkgID, "1.0.0", true)
	addVersion(t, st, pkgID, "1.1.0", false)

	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return fixed }

	if _, err := svc.NotifyUpdates(context.Background()); err != nil {
		t.Fatalf("NotifyUpdates failed: %v", err)
	}

	rec, err := state.LoadCheckRecord()
	if err != nil {
		t.Fatalf("LoadCheckRecord failed: %v", err)
	}
	if !rec.LastCheck.Equal(fixed) || rec.Pending != 1 || rec.Sent != 1 {
		t.Errorf("check record = %+v", rec)
	}
}
