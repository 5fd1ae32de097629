package pkgdb

import (
	"database/sql"
	"errors"
	"fmt"
)

// Package operations

// FindPackage retrieves a package by name. Returns ErrPackageNotFound
// when the package is not recorded.
func (d *DB) FindPackage(name string) (*Package, error) {
	var pkg Package
	err := d.db.QueryRow(
		"SELECT name, version FROM packages WHERE name = ?", name,
	).Scan(&pkg.Name, &pkg.Version)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("package %s: %w", name, ErrPackageNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find package %s: %w", name, err)
	}
	return &pkg, nil
}

// ListPackages returns all recorded packages ordered by name.
func (d *DB) ListPackages() ([]*Package, error) {
	rows, err := d.db.Query("SELECT name, version FROM packages ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	var packages []*Package
	for rows.Next() {
		var pkg Package
		if err := rows.Scan(&pkg.Name, &pkg.Version); err != nil {
			return nil, fmt.Errorf("failed to scan package row: %w", err)
		}
		packages = append(packages, &pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating packages: %w", err)
	}
	return packages, nil
}

// AddPackage records a new package and its lifecycle scripts atomically.
// Fails with ErrPackageExists if the package is already recorded.
func (d *DB) AddPackage(name, version string, scripts []Script) error {
	if _, err := d.FindPackage(name); err == nil {
		return fmt.Errorf("package %s: %w", name, ErrPackageExists)
	} else if !errors.Is(err, ErrPackageNotFound) {
		return err
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("INSERT INTO packages(name, version) VALUES(?, ?)", name, version); err != nil {
		return fmt.Errorf("failed to insert package %s: %w", name, err)
	}
	if err := insertScripts(tx, name, scripts); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit package %s: %w", name, err)
	}
	return nil
}

// UpdatePackage bumps a package from one version to another, replacing
// its script set in the same transaction. Fails with ErrPackageNotFound
// if the package is absent and ErrVersionMismatch if the recorded
// version is not fromVersion. A no-op version bump (to == from) returns
// nil without touching the database.
func (d *DB) UpdatePackage(name, fromVersion, toVersion string, scripts []Script) error {
	cur, err := d.FindPackage(name)
	if err != nil {
		return err
	}
	if cur.Version != fromVersion {
		return fmt.Errorf("package %s is at version %s, not %s: %w",
			name, cur.Version, fromVersion, ErrVersionMismatch)
	}
	if cur.Version == toVersion {
		// Nothing would change; the original installer treats this as
		// a benign re-apply.
		return nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("UPDATE packages SET version = ? WHERE name = ?", toVersion, name); err != nil {
		return fmt.Errorf("failed to update package %s: %w", name, err)
	}
	if _, err := tx.Exec("DELETE FROM scripts WHERE package = ?", name); err != nil {
		return fmt.Errorf("failed to clear scripts for %s: %w", name, err)
	}
	if err := insertScripts(tx, name, scripts); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit update of %s: %w", name, err)
	}
	return nil
}

// RemovePackage deletes the package row itself. It fails with
// ErrPackageHasContents while the package still owns file or script
// rows; contents must be removed first.
func (d *DB) RemovePackage(name string) error {
	if _, err := d.FindPackage(name); err == nil {
		files, err := d.FindFilesForPackage(name)
		if err != nil {
			return err
		}
		if len(files) != 0 {
			return fmt.Errorf("package %s has %d files: %w", name, len(files), ErrPackageHasContents)
		}
		scripts, err := d.FindScriptsForPackage(name, "")
		if err != nil {
			return err
		}
		if len(scripts) != 0 {
			return fmt.Errorf("package %s has %d scripts: %w", name, len(scripts), ErrPackageHasContents)
		}
	} else if !errors.Is(err, ErrPackageNotFound) {
		return err
	}

	if _, err := d.db.Exec("DELETE FROM packages WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete package %s: %w", name, err)
	}
	return nil
}

// Script operations

func insertScripts(tx *sql.Tx, name string, scripts []Script) error {
	for _, s := range scripts {
		if _, err := tx.Exec(
			"INSERT INTO scripts(package, type, script) VALUES(?, ?, ?)",
			name, string(s.Type), s.Body,
		); err != nil {
			return fmt.Errorf("failed to insert %s script for %s: %w", s.Type, name, err)
		}
	}
	return nil
}

// FindScriptsForPackage returns the scripts owned by a package,
// optionally restricted to one script type (pass "" for all).
func (d *DB) FindScriptsForPackage(name string, scriptType ScriptType) ([]Script, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if scriptType == "" {
		rows, err = d.db.Query("SELECT package, type, script FROM scripts WHERE package = ?", name)
	} else {
		rows, err = d.db.Query(
			"SELECT package, type, script FROM scripts WHERE package = ? AND type = ?",
			name, string(scriptType),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scripts for %s: %w", name, err)
	}
	defer rows.Close()

	var scripts []Script
	for rows.Next() {
		var (
			s   Script
			typ string
		)
		if err := rows.Scan(&s.Package, &typ, &s.Body); err != nil {
			return nil, fmt.Errorf("failed to scan script row: %w", err)
		}
		s.Type = ScriptType(typ)
		scripts = append(scripts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scripts: %w", err)
	}
	return scripts, nil
}

// RemovePackageScripts deletes all script rows owned by a package.
func (d *DB) RemovePackageScripts(name string) error {
	if _, err := d.FindPackage(name); err != nil {
		return err
	}
	if _, err := d.db.Exec("DELETE FROM scripts WHERE package = ?", name); err != nil {
		return fmt.Errorf("failed to delete scripts for %s: %w", name, err)
	}
	return nil
}
