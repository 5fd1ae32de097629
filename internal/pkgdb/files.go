package pkgdb

import (
	"database/sql"
	"errors"
	"fmt"
)

// File entry operations

// AddFile records (or re-records) a single filesystem entry. Path is the
// primary key: re-registering a path updates the row in place.
func (d *DB) AddFile(e *FileEntry) error {
	_, err := d.db.Exec(`
		INSERT OR REPLACE INTO files
		(package, path, kind, checksum, uid, gid, flags, mode)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Package, e.Path, e.Kind.String(), e.Checksum, e.UID, e.GID, e.Flags, e.Mode,
	)
	if err != nil {
		return fmt.Errorf("failed to insert file %s: %w", e.Path, err)
	}
	return nil
}

// AddFilesBulk records many filesystem entries in a single transaction.
// Entries replace any existing rows for the same paths, so re-applying
// the same record set is idempotent.
func (d *DB) AddFilesBulk(entries []*FileEntry) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO files
		(package, path, kind, checksum, uid, gid, flags, mode)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare bulk insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(
			e.Package, e.Path, e.Kind.String(), e.Checksum, e.UID, e.GID, e.Flags, e.Mode,
		); err != nil {
			return fmt.Errorf("failed to insert file %s: %w", e.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bulk insert: %w", err)
	}
	return nil
}

// FindFile retrieves the entry for a path. Returns ErrFileNotFound when
// no package owns the path.
func (d *DB) FindFile(path string) (*FileEntry, error) {
	e, err := scanEntry(d.db.QueryRow(`
		SELECT package, path, kind, checksum, uid, gid, flags, mode
		FROM files WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", path, ErrFileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find file %s: %w", path, err)
	}
	return e, nil
}

// FindFilesForPackage returns all recorded entries, restricted to one
// owning package when name is non-empty.
func (d *DB) FindFilesForPackage(name string) ([]*FileEntry, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if name == "" {
		rows, err = d.db.Query(`
			SELECT package, path, kind, checksum, uid, gid, flags, mode
			FROM files`)
	} else {
		rows, err = d.db.Query(`
			SELECT package, path, kind, checksum, uid, gid, flags, mode
			FROM files WHERE package = ?`, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get files for %q: %w", name, err)
	}
	defer rows.Close()

	var entries []*FileEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating files: %w", err)
	}
	return entries, nil
}

// RemoveFileEntry deletes the row for a path. Deleting an unrecorded
// path is not an error.
func (d *DB) RemoveFileEntry(path string) error {
	if _, err := d.db.Exec("DELETE FROM files WHERE path = ?", path); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*FileEntry, error) {
	var (
		e        FileEntry
		kind     string
		checksum sql.NullString
	)
	err := row.Scan(&e.Package, &e.Path, &kind, &checksum, &e.UID, &e.GID, &e.Flags, &e.Mode)
	if err != nil {
		return nil, err
	}
	e.Kind = KindFromString(kind)
	e.Checksum = checksum.String
	return &e, nil
}
