package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"mindnoscape/workbook/internal/log"
)

// PostgresDatabase implements the Database interface for PostgreSQL
type PostgresDatabase struct {
	BaseDatabase
}

// Open connects to the server named by a postgres:// URL or key=value DSN.
func (p *PostgresDatabase) Open(dataSourceName string) error {
	p.logger.Info(context.Background(), "Opening PostgreSQL database", nil)

	db, err := sql.Open(string(Postgres), dataSourceName)
	if err != nil {
		p.logger.Error(context.Background(), "Failed to open PostgreSQL database", log.Fields{"error": err})
		return fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}
	// Transactions are tracked on the database handle, one at a time
	db.SetMaxOpenConns(4)

	if err := db.Ping(); err != nil {
		db.Close()
		p.logger.Error(context.Background(), "Failed to verify database connection", log.Fields{"error": err})
		return fmt.Errorf("failed to verify database connection: %w", err)
	}

	p.db = db
	p.logger.Info(context.Background(), "PostgreSQL database opened successfully", nil)
	return nil
}

// Close closes the connection pool
func (p *PostgresDatabase) Close() error {
	if p.db == nil {
		return nil
	}
	if err := p.db.Close(); err != nil {
		p.logger.Error(context.Background(), "Failed to close PostgreSQL database", log.Fields{"error": err})
		return fmt.Errorf("failed to close PostgreSQL database: %w", err)
	}
	return nil
}
