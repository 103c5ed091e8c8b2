package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/matdotcx/carrus/internal/semver"
)

// Package operations

// AddPackage creates a package with the given name and returns its id. When a
// package with that name already exists, the existing id is returned instead
// of an error (get-or-create). Use CreatePackage for strict uniqueness.
func (s *Store) AddPackage(name string) (int64, error) {
	id, err := s.CreatePackage(name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrConflict) {
		return 0, err
	}
	pkg, err := s.GetPackageByName(name)
	if err != nil {
		return 0, err
	}
	return pkg.ID, nil
}

// CreatePackage inserts a new package row. Returns ErrConflict when the name
// is already taken.
func (s *Store) CreatePackage(name string) (int64, error) {
	var exists int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM packages WHERE name = ?`, name).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check package %s: %w", name, err)
	}
	if exists > 0 {
		return 0, fmt.Errorf("package %s: %w", name, ErrConflict)
	}

	res, err := s.db.Exec(
		`INSERT INTO packages (name, created_at) VALUES (?, ?)`,
		name, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert package %s: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read package id for %s: %w", name, err)
	}
	return id, nil
}

// GetPackage retrieves a package by id. Returns ErrNotFound when absent.
func (s *Store) GetPackage(id int64) (*Package, error) {
	return s.scanPackage(s.db.QueryRow(
		`SELECT id, name, created_at FROM packages WHERE id = ?`, id,
	), fmt.Sprintf("package %d", id))
}

// GetPackageByName retrieves a package by name. Returns ErrNotFound when absent.
func (s *Store) GetPackageByName(name string) (*Package, error) {
	return s.scanPackage(s.db.QueryRow(
		`SELECT id, name, created_at FROM packages WHERE name = ?`, name,
	), fmt.Sprintf("package %s", name))
}

func (s *Store) scanPackage(row *sql.Row, what string) (*Package, error) {
	var pkg Package
	var createdAt string
	err := row.Scan(&pkg.ID, &pkg.Name, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	pkg.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at for %s: %w", what, err)
	}
	return &pkg, nil
}

// ListPackages returns all tracked packages ordered by name.
func (s *Store) ListPackages() ([]Package, error) {
	rows, err := s.db.Query(`SELECT id, name, created_at FROM packages ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	var packages []Package
	for rows.Next() {
		var pkg Package
		var createdAt string
		if err := rows.Scan(&pkg.ID, &pkg.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan package row: %w", err)
		}
		pkg.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at for %s: %w", pkg.Name, err)
		}
		packages = append(packages, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating packages: %w", err)
	}
	return packages, nil
}

// DeletePackage removes a package; the foreign keys cascade the delete to its
// versions and install history. Returns ErrNotFound for an unknown id.
func (s *Store) DeletePackage(id int64) error {
	res, err := s.db.Exec(`DELETE FROM packages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete package %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete package %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("package %d: %w", id, ErrNotFound)
	}
	return nil
}

// Version operations

// AddVersion records a discoverable release for a package. A duplicate
// (package, version) pair updates the download metadata of the existing row
// without touching its installed flag. Returns ErrNotFound for an unknown
// package id.
func (s *Store) AddVersion(pkgID int64, version, url, checksum string, releaseDate *time.Time) (int64, error) {
	if _, err := s.GetPackage(pkgID); err != nil {
		return 0, err
	}

	var release sql.NullString
	if releaseDate != nil {
		release = sql.NullString{String: releaseDate.UTC().Format(time.RFC3339), Valid: true}
	}
	var sum sql.NullString
	if checksum != "" {
		sum = sql.NullString{String: checksum, Valid: true}
	}

	var existing int64
	err := s.db.QueryRow(
		`SELECT id FROM versions WHERE package_id = ? AND version = ?`, pkgID, version,
	).Scan(&existing)
	switch {
	case err == nil:
		_, err = s.db.Exec(
			`UPDATE versions SET url = ?, checksum = ?, release_date = ? WHERE id = ?`,
			url, sum, release, existing,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to update version %s of package %d: %w", version, pkgID, err)
		}
		return existing, nil
	case err != sql.ErrNoRows:
		return 0, fmt.Errorf("failed to look up version %s of package %d: %w", version, pkgID, err)
	}

	res, err := s.db.Exec(
		`INSERT INTO versions (package_id, version, url, checksum, release_date, installed, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		pkgID, version, url, sum, release, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert version %s of package %d: %w", version, pkgID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read version id: %w", err)
	}
	return id, nil
}

// SetInstalled marks a version as installed or not. Marking a version
// installed clears the flag on every other version of the same package in
// the same transaction, so concurrent callers never observe two installed
// versions. Returns ErrNotFound for an unknown version id.
func (s *Store) SetInstalled(versionID int64, installed bool) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var pkgID int64
	err = tx.QueryRow(`SELECT package_id FROM versions WHERE id = ?`, versionID).Scan(&pkgID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("version %d: %w", versionID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to look up version %d: %w", versionID, err)
	}

	if installed {
		if _, err := tx.Exec(
			`UPDATE versions SET installed = 0 WHERE package_id = ? AND id != ?`, pkgID, versionID,
		); err != nil {
			return fmt.Errorf("failed to clear installed flag for package %d: %w", pkgID, err)
		}
	}
	if _, err := tx.Exec(
		`UPDATE versions SET installed = ? WHERE id = ?`, installed, versionID,
	); err != nil {
		return fmt.Errorf("failed to set installed flag on version %d: %w", versionID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit installed flag update: %w", err)
	}
	return nil
}

// ListVersions returns all versions of a package ordered newest-first by
// parsed version precedence ("1.10" ranks above "1.9"). An empty slice is
// returned when the package has no versions; ErrNotFound when the package id
// is unknown.
func (s *Store) ListVersions(pkgID int64) ([]Version, error) {
	if _, err := s.GetPackage(pkgID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT id, package_id, version, url, checksum, release_date, installed, created_at
		 FROM versions WHERE package_id = ?`, pkgID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions for package %d: %w", pkgID, err)
	}
	defer rows.Close()

	versions := []Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating versions: %w", err)
	}

	// Precedence ordering lives in Go rather than SQL: SQLite cannot compare
	// dotted-numeric versions natively.
	sort.SliceStable(versions, func(i, j int) bool {
		return semver.Compare(versions[i].Version, versions[j].Version) > 0
	})
	return versions, nil
}

// LatestVersion returns the highest-precedence version of a package, or nil
// when the package has no versions.
func (s *Store) LatestVersion(pkgID int64) (*Version, error) {
	versions, err := s.ListVersions(pkgID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}
	return &versions[0], nil
}

// InstalledVersion returns the version currently marked installed, or nil
// when none is.
func (s *Store) InstalledVersion(pkgID int64) (*Version, error) {
	if _, err := s.GetPackage(pkgID); err != nil {
		return nil, err
	}
	row := s.db.QueryRow(
		`SELECT id, package_id, version, url, checksum, release_date, installed, created_at
		 FROM versions WHERE package_id = ? AND installed = 1 LIMIT 1`, pkgID,
	)
	v, err := scanVersionRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(r rowScanner) (*Version, error) {
	var v Version
	var checksum, release sql.NullString
	var createdAt string
	if err := r.Scan(&v.ID, &v.PackageID, &v.Version, &v.URL, &checksum, &release, &v.Installed, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to scan version row: %w", err)
	}
	if checksum.Valid {
		v.Checksum = checksum.String
	}
	if release.Valid {
		t, err := time.Parse(time.RFC3339, release.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse release_date: %w", err)
		}
		v.ReleaseDate = &t
	}
	var err error
	v.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &v, nil
}

func scanVersionRow(row *sql.Row) (*Version, error) {
	var v Version
	var checksum, release sql.NullString
	var createdAt string
	err := row.Scan(&v.ID, &v.PackageID, &v.Version, &v.URL, &checksum, &release, &v.Installed, &createdAt)
	if err != nil {
		return nil, err
	}
	if checksum.Valid {
		v.Checksum = checksum.String
	}
	if release.Valid {
		t, perr := time.Parse(time.RFC3339, release.String)
		if perr != nil {
			return nil, fmt.Errorf("failed to parse release_date: %w", perr)
		}
		v.ReleaseDate = &t
	}
	v.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &v, nil
}

// Install history

// AddInstallHistory records the outcome of an install or uninstall attempt.
func (s *Store) AddInstallHistory(pkgID int64, version, action, status, errMsg string) error {
	if _, err := s.GetPackage(pkgID); err != nil {
		return err
	}
	var msg sql.NullString
	if errMsg != "" {
		msg = sql.NullString{String: errMsg, Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT INTO install_history (package_id, version, action, status, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		pkgID, version, action, status, msg, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert install history for package %d: %w", pkgID, err)
	}
	return nil
}

// PackageHistory returns the install history for a package, newest first.
func (s *Store) PackageHistory(pkgID int64) ([]HistoryEntry, error) {
	if _, err := s.GetPackage(pkgID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT id, package_id, version, action, status, error_message, created_at
		 FROM install_history WHERE package_id = ? ORDER BY id DESC`, pkgID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list history for package %d: %w", pkgID, err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var msg sql.NullString
		var createdAt string
		if err := rows.Scan(&e.ID, &e.PackageID, &e.Version, &e.Action, &e.Status, &msg, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if msg.Valid {
			e.ErrorMessage = msg.String
		}
		e.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return entries, nil
}
