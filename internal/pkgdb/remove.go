package pkgdb

import (
	"database/sql"
	"fmt"
)

// Content removal. Each operation touches the live filesystem through
// the Remover collaborator first and deletes database rows only for
// paths whose removal succeeded (or was tolerated), so the database
// never records less than what remains on disk.

// RemovePackageFiles removes every non-directory entry owned by the
// package from the live filesystem and then from the database. If any
// removal fails the operation aborts with a FilesystemError before any
// row is deleted.
func (d *DB) RemovePackageFiles(name string) error {
	if _, err := d.FindPackage(name); err != nil {
		return err
	}
	if d.remover == nil {
		return fmt.Errorf("no filesystem remover configured")
	}

	rows, err := d.db.Query(
		"SELECT path FROM files WHERE package = ? AND kind <> ?",
		name, KindDir.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to get files for %s: %w", name, err)
	}
	paths, err := collectPaths(rows)
	if err != nil {
		return err
	}

	for _, path := range paths {
		if err := d.remover.RemoveFile(d.livePath(path)); err != nil {
			return &FilesystemError{Path: path, Err: err}
		}
	}

	if err := d.deletePaths(paths); err != nil {
		return err
	}
	return d.vacuum()
}

// RemovePackageDirectories removes the package's directories from the
// live filesystem and the database, deepest path first so children go
// before their parents. When failOnError is false a directory that
// cannot be removed (typically because another package still populates
// it) is tolerated and its row is deleted anyway.
func (d *DB) RemovePackageDirectories(name string, failOnError bool) error {
	if _, err := d.FindPackage(name); err != nil {
		return err
	}
	if d.remover == nil {
		return fmt.Errorf("no filesystem remover configured")
	}

	// Reverse lexicographic order removes child directories before
	// their parents.
	rows, err := d.db.Query(
		"SELECT path FROM files WHERE package = ? AND kind = ? ORDER BY path DESC",
		name, KindDir.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to get directories for %s: %w", name, err)
	}
	paths, err := collectPaths(rows)
	if err != nil {
		return err
	}

	for _, path := range paths {
		if err := d.remover.RemoveDirectory(d.livePath(path)); err != nil && failOnError {
			return &FilesystemError{Path: path, Err: err}
		}
	}

	if err := d.deletePaths(paths); err != nil {
		return err
	}
	return d.vacuum()
}

// RemovePackageContents removes the package's files, directories, and
// scripts, in that order, short-circuiting on the first stage that
// fails. Each stage is atomic on its own; the composition is not.
func (d *DB) RemovePackageContents(name string, failOnError bool) error {
	if _, err := d.FindPackage(name); err != nil {
		return err
	}
	if err := d.RemovePackageFiles(name); err != nil {
		return err
	}
	if err := d.RemovePackageDirectories(name, failOnError); err != nil {
		return err
	}
	return d.RemovePackageScripts(name)
}

func collectPaths(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan path row: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating paths: %w", err)
	}
	return paths, nil
}

func (d *DB) deletePaths(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("DELETE FROM files WHERE path = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare delete: %w", err)
	}
	defer stmt.Close()

	for _, p := range paths {
		if _, err := stmt.Exec(p); err != nil {
			return fmt.Errorf("failed to delete file %s: %w", p, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit deletions: %w", err)
	}
	return nil
}
