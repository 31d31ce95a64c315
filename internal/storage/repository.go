// Package storage implements the transaction, category and user stores on
// SQLite.
//
// Every operation, read or write, runs on a single connection while holding
// one process-wide mutex. Two operations never interleave; a sequence of
// operations is not atomic unless it runs inside one method.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"budgethelper/internal/core"
	"budgethelper/internal/log"
)

// DB is the shared SQLite handle guarded by the store lock.
type DB struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *log.Logger
}

func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Open creates the database directory, runs migrations and returns a handle
// limited to one connection.
func Open(ctx context.Context, dbPath string, logger *log.Logger) (*DB, error) {
	if logger == nil {
		logger = log.Default(log.ComponentStorage)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.InfoContext(ctx, "SQLite store opened", "path", dbPath)

	return &DB{db: db, logger: logger.WithComponent(log.ComponentStorage)}, nil
}

func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// Ping checks the store is reachable.
func (d *DB) Ping(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.db.PingContext(ctx); err != nil {
		return dataErr("ping", err)
	}
	return nil
}

func (d *DB) Transactions() *TransactionRepository {
	return &TransactionRepository{db: d}
}

func (d *DB) Categories() *CategoryRepository {
	return &CategoryRepository{db: d}
}

func (d *DB) Users() *UserRepository {
	return &UserRepository{db: d}
}

// dataErr marks err as a data-access failure.
func dataErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, core.ErrDataAccess, err)
}

func sqliteCode(err error) int {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		return serr.Code()
	}
	return 0
}

func isUniqueViolation(err error) bool {
	switch sqliteCode(err) {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(err.Error(), "UNIQUE constraint failed")
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	switch sqliteCode(err) {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
	}
	return false
}
