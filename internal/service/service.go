// Package service wires the version store to a notification provider: it
// scans for packages whose latest known version differs from the installed
// one and dispatches one notification per pending package.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matdotcx/carrus/internal/config"
	"github.com/matdotcx/carrus/internal/logging"
	"github.com/matdotcx/carrus/internal/metrics"
	"github.com/matdotcx/carrus/internal/notify"
	"github.com/matdotcx/carrus/internal/state"
	"github.com/matdotcx/carrus/internal/store"
)

// ErrStoreUnavailable is returned when the version store cannot be
// enumerated at all. Per-package store errors are logged and skipped instead.
var ErrStoreUnavailable = errors.New("version store unavailable")

// Service orchestrates update checks. It holds no mutable state of its own
// beyond the store and the provider resolved at construction.
type Service struct {
	cfg      *config.Config
	store    *store.Store
	provider notify.Provider
	Now      func() time.Time // injectable clock for testing
}

// New resolves the provider for cfg.Method and builds a service. Provider
// misconfiguration (e.g. slack method with an empty webhook URL) fails here,
// before any scan or network attempt.
func New(cfg *config.Config, st *store.Store) (*Service, error) {
	provider, err := notify.NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.Validate() {
		logging.Get().Warn().Str("warning", w).Msg("config validation")
	}
	return NewWithProvider(cfg, st, provider), nil
}

// NewWithProvider builds a service around an explicit provider. Used by
// tests and by callers that construct providers themselves.
func NewWithProvider(cfg *config.Config, st *store.Store, p notify.Provider) *Service {
	return &Service{cfg: cfg, store: st, provider: p, Now: time.Now}
}

// Provider returns the provider resolved at construction.
func (s *Service) Provider() notify.Provider {
	return s.provider
}

// CheckUpdates scans the store and returns one notification per pending
// package, without sending anything. A package is pending when it has a
// latest known version and either no installed version or a different one.
func (s *Service) CheckUpdates(ctx context.Context) ([]notify.Notification, error) {
	packages, err := s.store.ListPackages()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var notifications []notify.Notification
	for _, pkg := range packages {
		if ctx.Err() != nil {
			return notifications, ctx.Err()
		}
		latest, err := s.store.LatestVersion(pkg.ID)
		if err != nil {
			logging.Get().Warn().Err(err).Str("package", pkg.Name).Msg("skipping package: cannot read latest version")
			continue
		}
		if latest == nil {
			continue
		}
		installed, err := s.store.InstalledVersion(pkg.ID)
		if err != nil {
			logging.Get().Warn().Err(err).Str("package", pkg.Name).Msg("skipping package: cannot read installed version")
			continue
		}
		current := "none"
		if installed != nil {
			if installed.Version == latest.Version {
				continue
			}
			current = installed.Version
		}
		notifications = append(notifications, notify.NewNotification(
			"Update Available",
			fmt.Sprintf("A new version of %s is available.", pkg.Name),
			pkg.Name,
			current,
			latest.Version,
		))
	}
	return notifications, nil
}

// NotifyUpdates scans for pending packages and dispatches one notification
// per package through the configured provider. Provider calls run
// concurrently; a failing or timed-out call counts as non-sent and never
// aborts the rest of the scan. Returns the number of notifications the
// channel accepted.
//
// When notifications are disabled the scan is skipped entirely and 0 is
// returned without touching the provider.
func (s *Service) NotifyUpdates(ctx context.Context) (int, error) {
	if !s.cfg.Enabled {
		logging.Get().Info().Msg("notifications are disabled")
		return 0, nil
	}

	notifications, err := s.CheckUpdates(ctx)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return 0, err
	}
	metrics.IncCheck()
	metrics.SetPendingUpdates(len(notifications))

	var sent atomic.Int64
	var wg sync.WaitGroup
	for _, n := range notifications {
		// Cancellation stops issuing new provider calls; in-flight ones
		// resolve or time out on their own.
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(n notify.Notification) {
			defer wg.Done()
			if s.provider.Notify(ctx, n) {
				sent.Add(1)
				metrics.IncNotificationSent()
			} else {
				metrics.IncNotificationFailed()
			}
		}(n)
	}
	wg.Wait()

	now := s.Now()
	metrics.SetLastCheck(now)
	rec := state.CheckRecord{LastCheck: now, Pending: len(notifications), Sent: int(sent.Load())}
	if err := state.SaveCheckRecord(rec); err != nil {
		logging.Get().Warn().Err(err).Msg("failed to persist check record")
	}

	logging.Get().Info().Int("pending", len(notifications)).Int64("sent", sent.Load()).Msg("update check finished")
	return int(sent.Load()), nil
}

// NotifyOnce hands an externally constructed notification (build failure,
// MDM upload result) straight to the provider, bypassing the store scan.
// Reports whether the channel accepted it; always false when notifications
// are disabled.
func (s *Service) NotifyOnce(ctx context.Context, n notify.Notification) bool {
	if !s.cfg.Enabled {
		logging.Get().Info().Msg("notifications are disabled")
		return false
	}
	ok := s.provider.Notify(ctx, n)
	if ok {
		metrics.IncNotificationSent()
	} else {
		metrics.IncNotificationFailed()
	}
	return ok
}

// ShouldCheck reports whether enough time has passed since the last
// persisted check for a new one to be due. A missing or unreadable record
// means a check is due.
func (s *Service) ShouldCheck(now time.Time) bool {
	if !s.cfg.Enabled {
		return false
	}
	rec, err := state.LoadCheckRecord()
	if err != nil {
		logging.Get().Warn().Err(err).Msg("failed to load check record")
		return true
	}
	if rec.LastCheck.IsZero() {
		return true
	}
	interval := time.Duration(s.cfg.IntervalHours) * time.Hour
	return now.Sub(rec.LastCheck) > interval
}
