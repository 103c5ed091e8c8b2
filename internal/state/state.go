// Package state persists the update-check bookkeeping that outlives a single
// invocation: when the last check ran and what it found.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CheckRecord records the outcome of the most recent update check.
type CheckRecord struct {
	LastCheck time.Time `json:"last_check"`
	Pending   int       `json:"pending"`
	Sent      int       `json:"sent"`
}

var mu sync.Mutex

const stateFileName = "carrus_state.json"

func stateFilePath() string {
	if dir := os.Getenv("CARRUS_STATE_DIR"); dir != "" {
		return filepath.Join(dir, stateFileName)
	}
	// Prefer the XDG config dir next to the database; fall back to the
	// current working dir rather than an ephemeral temp directory.
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		if home, err := os.UserHomeDir(); err == nil {
			base = filepath.Join(home, ".config")
		}
	}
	if base != "" {
		dir := filepath.Join(base, "carrus")
		if err := os.MkdirAll(dir, 0o755); err == nil {
			return filepath.Join(dir, stateFileName)
		}
	}
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, stateFileName)
	}
	return filepath.Join(os.TempDir(), stateFileName)
}

// loadUnlocked reads the state file WITHOUT acquiring the package mutex.
// Caller must hold the lock if concurrent access is possible.
func loadUnlocked() (CheckRecord, error) {
	p := stateFilePath()
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckRecord{}, nil
		}
		return CheckRecord{}, fmt.Errorf("load state: %w", err)
	}
	var rec CheckRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return CheckRecord{}, fmt.Errorf("unmarshal state: %w", err)
	}
	return rec, nil
}

// saveUnlocked writes the state file WITHOUT acquiring the package mutex.
func saveUnlocked(rec CheckRecord) error {
	p := stateFilePath()
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir state dir: %w", err)
	}
	if err := os.WriteFile(p, b, 0o640); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// SaveCheckRecord persists the outcome of an update check. The package mutex
// is held for the entire write to avoid lost updates.
func SaveCheckRecord(rec CheckRecord) error {
	mu.Lock()
	defer mu.Unlock()
	return saveUnlocked(rec)
}

// LoadCheckRecord returns the persisted check record; the zero value when no
// check has run yet.
func LoadCheckRecord() (CheckRecord, error) {
	mu.Lock()
	defer mu.Unlock()
	return loadUnlocked()
}
