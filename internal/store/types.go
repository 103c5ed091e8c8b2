package store

import "time"

// Package is a named piece of software tracked for updates.
type Package struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Version is one discoverable release of a package, with download metadata
// and install status.
type Version struct {
	ID          int64
	PackageID   int64
	Version     string
	URL         string
	Checksum    string
	ReleaseDate *time.Time
	Installed   bool
	CreatedAt   time.Time
}

// HistoryEntry records an install or uninstall attempt made by the
// download/build pipeline.
type HistoryEntry struct {
	ID           int64
	PackageID    int64
	Version      string
	Action       string // "install" or "uninstall"
	Status       string // "success" or "failed"
	ErrorMessage string
	CreatedAt    time.Time
}
