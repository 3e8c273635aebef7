package storage

import (
	"errors"
	"fmt"
	"path/filepath"

	"mindnoscape/workbook/internal/log"
	"mindnoscape/workbook/internal/model"
)

// Errors returned by the stores.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Storage represents the main storage implementation.
type Storage struct {
	db     Database
	logger *log.Logger
	UserStore
	WorkbookStore
	JournalStore
}

// NewStorage creates a new Storage instance and initializes the database.
func NewStorage(config *model.Config, logger *log.Logger) (*Storage, error) {
	dbDriver, err := validateDBDriver(config.DatabaseType)
	if err != nil {
		return nil, fmt.Errorf("invalid database driver '%s': %w", config.DatabaseType, err)
	}

	db, err := NewDatabase(dbDriver, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database instance: %w", err)
	}

	dataSourceName := dataSource(config, dbDriver)
	if err := db.Open(dataSourceName); err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	return newStorage(db, logger)
}

// NewStorageWithDatabase wraps an already opened database.
func NewStorageWithDatabase(db Database, logger *log.Logger) (*Storage, error) {
	return newStorage(db, logger)
}

func newStorage(db Database, logger *log.Logger) (*Storage, error) {
	storage := &Storage{
		db:     db,
		logger: logger,
	}

	// Create user, workbook and journal tables
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	// Create stores
	storage.UserStore = NewUserStorage(storage)
	storage.WorkbookStore = NewWorkbookStorage(storage)
	storage.JournalStore = NewJournalStorage(storage)

	return storage, nil
}

func validateDBDriver(name string) (DBDriver, error) {
	switch DBDriver(name) {
	case SQLite3, SQLite, Postgres:
		return DBDriver(name), nil
	case "":
		return SQLite3, nil
	default:
		return "", fmt.Errorf("unsupported database type")
	}
}

func dataSource(config *model.Config, driver DBDriver) string {
	if driver == Postgres {
		return config.DatabaseURL
	}
	if config.DatabaseFile == MemoryDSN {
		return MemoryDSN
	}
	return filepath.Join(config.DatabaseDir, config.DatabaseFile)
}

// Close closes the database connection.
func (s *Storage) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// initSchema initializes the database schema.
func (s *Storage) initSchema() error {
	if err := s.db.InitSchema(); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// GetDatabase returns the database instance
func (s *Storage) GetDatabase() Database {
	return s.db
}
