package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mindnoscape/workbook/internal/log"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// SQLiteDatabase implements the Database interface for both SQLite drivers
type SQLiteDatabase struct {
	BaseDatabase
}

// dsnOptions returns the connection parameters enabling foreign keys and WAL in the
// dialect of each driver.
func (s *SQLiteDatabase) dsnOptions() string {
	if s.driver == SQLite {
		return "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	return "_foreign_keys=on&_journal_mode=WAL"
}

// Open opens a connection to the SQLite database
func (s *SQLiteDatabase) Open(dataSourceName string) error {
	s.logger.Info(context.Background(), "Opening SQLite database", log.Fields{"dbPath": filepath.Base(dataSourceName), "driver": string(s.driver)})

	if dataSourceName != MemoryDSN {
		// Ensure the directory for the database file exists
		dbDir := filepath.Dir(dataSourceName)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			s.logger.Error(context.Background(), "Failed to create database directory", log.Fields{"error": err, "directory": dbDir})
			return fmt.Errorf("failed to create database directory '%s': %w", dbDir, err)
		}
	}

	sep := "?"
	if strings.Contains(dataSourceName, "?") {
		sep = "&"
	}
	db, err := sql.Open(string(s.driver), dataSourceName+sep+s.dsnOptions())
	if err != nil {
		s.logger.Error(context.Background(), "Failed to open SQLite database", log.Fields{"error": err})
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Every connection to :memory: is its own database, and SQLite serializes writers anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		db.Close()
		s.logger.Error(context.Background(), "Failed to set SQLite synchronous pragma", log.Fields{"error": err})
		return fmt.Errorf("failed to set SQLite synchronous pragma: %w", err)
	}

	// Verify the connection
	if err := db.Ping(); err != nil {
		db.Close()
		s.logger.Error(context.Background(), "Failed to verify database connection", log.Fields{"error": err})
		return fmt.Errorf("failed to verify database connection: %w", err)
	}

	s.db = db
	s.logger.Info(context.Background(), "SQLite database opened successfully", nil)
	return nil
}

// Close closes the connection to the SQLite database
func (s *SQLiteDatabase) Close() error {
	s.logger.Info(context.Background(), "Closing SQLite database", nil)
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error(context.Background(), "Failed to close SQLite database", log.Fields{"error": err})
			return fmt.Errorf("failed to close SQLite database: %w", err)
		}
	}
	return nil
}
