// Package storage provides functionality for persisting and retrieving Mindnoscape data.
// This file handles the general SQL database interfaces and schemas.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"mindnoscape/workbook/internal/log"
)

// DBDriver represents the type of database driver
type DBDriver string

const (
	// SQLite3 is the cgo SQLite driver (github.com/mattn/go-sqlite3).
	SQLite3 DBDriver = "sqlite3"
	// SQLite is the pure Go SQLite driver (modernc.org/sqlite).
	SQLite DBDriver = "sqlite"
	// Postgres is the PostgreSQL driver (github.com/lib/pq).
	Postgres DBDriver = "postgres"
)

// ErrNoTransaction is returned by Commit and Rollback outside a transaction.
var ErrNoTransaction = errors.New("no active transaction")

// Database interface defines common database operations
type Database interface {
	Open(dataSourceName string) error
	Close() error
	Driver() DBDriver
	Begin() error
	Commit() error
	Rollback() error
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	InsertID(query string, args ...interface{}) (int, error)
	InitSchema() error
}

// NewDatabase creates a new Database instance based on the specified driver
func NewDatabase(driver DBDriver, logger *log.Logger) (Database, error) {
	switch driver {
	case SQLite3, SQLite:
		return &SQLiteDatabase{BaseDatabase: BaseDatabase{driver: driver, logger: logger}}, nil
	case Postgres:
		return &PostgresDatabase{BaseDatabase: BaseDatabase{driver: driver, logger: logger}}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// BaseDatabase provides a base implementation of some Database methods
type BaseDatabase struct {
	db     *sql.DB
	tx     *sql.Tx
	driver DBDriver
	logger *log.Logger
}

// Driver returns the driver the database was opened with.
func (b *BaseDatabase) Driver() DBDriver {
	return b.driver
}

// Begin starts a new transaction
func (b *BaseDatabase) Begin() error {
	tx, err := b.db.Begin()
	if err != nil {
		b.logger.Error(context.Background(), "Failed to begin transaction", log.Fields{"error": err})
		return err
	}
	b.tx = tx
	return nil
}

// Commit commits the current transaction
func (b *BaseDatabase) Commit() error {
	if b.tx == nil {
		return ErrNoTransaction
	}
	err := b.tx.Commit()
	b.tx = nil
	if err != nil {
		b.logger.Error(context.Background(), "Failed to commit transaction", log.Fields{"error": err})
	}
	return err
}

// Rollback rolls back the current transaction
func (b *BaseDatabase) Rollback() error {
	if b.tx == nil {
		return ErrNoTransaction
	}
	err := b.tx.Rollback()
	b.tx = nil
	return err
}

// rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL.
func (b *BaseDatabase) rebind(query string) string {
	if b.driver != Postgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Exec executes a query without returning any rows
func (b *BaseDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	query = b.rebind(query)
	if b.tx != nil {
		return b.tx.Exec(query, args...)
	}
	return b.db.Exec(query, args...)
}

// Query executes a query that returns rows
func (b *BaseDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	query = b.rebind(query)
	if b.tx != nil {
		return b.tx.Query(query, args...)
	}
	return b.db.Query(query, args...)
}

// QueryRow executes a query that is expected to return at most one row
func (b *BaseDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	query = b.rebind(query)
	if b.tx != nil {
		return b.tx.QueryRow(query, args...)
	}
	return b.db.QueryRow(query, args...)
}

// InsertID executes an INSERT and returns the generated id.
func (b *BaseDatabase) InsertID(query string, args ...interface{}) (int, error) {
	if b.driver == Postgres {
		var id int
		if err := b.QueryRow(query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	result, err := b.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return int(id), nil
}

// InitSchema initializes the database schema
func (b *BaseDatabase) InitSchema() error {
	idColumn, blob, ts := "INTEGER PRIMARY KEY AUTOINCREMENT", "BLOB", "DATETIME"
	if b.driver == Postgres {
		idColumn, blob, ts = "SERIAL PRIMARY KEY", "BYTEA", "TIMESTAMPTZ"
	}

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id %s,
			username TEXT UNIQUE NOT NULL,
			password_hash %s NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created %s NOT NULL,
			updated %s NOT NULL
		)`, idColumn, blob, ts, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS workbooks (
			id %s,
			workbook_name TEXT NOT NULL,
			owner TEXT NOT NULL,
			content %s NOT NULL,
			styles %s,
			created %s NOT NULL,
			updated %s NOT NULL,
			FOREIGN KEY (owner) REFERENCES users(username),
			UNIQUE (workbook_name, owner)
		)`, idColumn, blob, blob, ts, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS journal (
			id %s,
			workbook_id INTEGER NOT NULL,
			source_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			old_value TEXT,
			new_value TEXT,
			modified_by TEXT NOT NULL,
			created %s NOT NULL,
			FOREIGN KEY (workbook_id) REFERENCES workbooks(id)
		)`, idColumn, ts),
		`CREATE INDEX IF NOT EXISTS journal_workbook ON journal (workbook_id)`,
	}

	for _, stmt := range statements {
		if _, err := b.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}
