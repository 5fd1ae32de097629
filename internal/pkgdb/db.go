// Package pkgdb is the embedded store recording which packages are
// installed, their lifecycle scripts, and every filesystem entry they
// own. It is the single source of truth for "what is installed" on the
// host; nothing is cached across calls.
package pkgdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DBName is the fixed relative path of the package database under the
// system root.
const DBName = "data/pkgdb/updatectl.db"

// Remover performs the live filesystem side of package content removal.
// Row deletion always follows a successful Remover call, never precedes
// it, so the database and the filesystem cannot drift apart.
type Remover interface {
	RemoveFile(path string) error
	RemoveDirectory(path string) error
}

// DB provides access to the package database.
type DB struct {
	db      *sql.DB
	root    string
	remover Remover
}

// New opens (and if necessary initializes) a package database at the
// given path. Use ":memory:" for in-memory databases (useful for
// testing). Recorded paths are resolved against the filesystem root ""
// unless Open is used instead.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; one pooled connection also gives
	// every logical operation its own borrow-use-return cycle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Open opens the package database at its fixed location under root,
// creating the containing directory when create is true.
func Open(root string, create bool) (*DB, error) {
	dbPath := filepath.Join(root, DBName)
	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if !create {
			return nil, fmt.Errorf("cannot connect to database %s: %w", dbPath, err)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	d, err := New(dbPath)
	if err != nil {
		return nil, err
	}
	d.root = root
	return d, nil
}

// Close closes the database.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// SetRemover installs the filesystem removal collaborator used by the
// RemovePackage* operations.
func (d *DB) SetRemover(r Remover) {
	d.remover = r
}

// livePath maps a recorded path to its location on the live filesystem.
func (d *DB) livePath(path string) string {
	if d.root == "" {
		return path
	}
	return filepath.Join(d.root, path)
}

// vacuum reclaims storage after bulk row deletions.
func (d *DB) vacuum() error {
	if _, err := d.db.Exec("VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}
