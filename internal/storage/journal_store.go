package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mindnoscape/workbook/internal/log"
	"mindnoscape/workbook/internal/model"
)

// JournalStore defines the interface for the change journal.
type JournalStore interface {
	JournalAdd(entries []model.JournalEntry) error
	JournalGet(workbookID int, limit int) ([]*model.JournalEntry, error)
	JournalDelete(workbookID int) error
}

// JournalStorage implements the JournalStore interface.
type JournalStorage struct {
	storage *Storage
	logger  *log.Logger
}

// NewJournalStorage creates a new JournalStorage instance.
func NewJournalStorage(storage *Storage) *JournalStorage {
	return &JournalStorage{storage: storage, logger: storage.logger}
}

// JournalAdd writes entries in one transaction.
func (s *JournalStorage) JournalAdd(entries []model.JournalEntry) (err error) {
	if len(entries) == 0 {
		return nil
	}
	db := s.storage.GetDatabase()
	if err := db.Begin(); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = db.Rollback()
		}
	}()

	for _, e := range entries {
		created := e.Created
		if created.IsZero() {
			created = time.Now()
		}
		_, err = db.Exec(
			"INSERT INTO journal (workbook_id, source_id, event_type, old_value, new_value, modified_by, created) VALUES (?, ?, ?, ?, ?, ?, ?)",
			e.WorkbookID, e.SourceID, e.EventType, nullString(e.OldValue), nullString(e.NewValue), e.ModifiedBy, created.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to add journal entry: %w", err)
		}
	}
	if err = db.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug(context.Background(), "Journal entries added", log.Fields{"workbookID": entries[0].WorkbookID, "count": len(entries)})
	return nil
}

// JournalGet returns the newest entries of a workbook first. A limit of 0 or less
// returns all of them.
func (s *JournalStorage) JournalGet(workbookID int, limit int) ([]*model.JournalEntry, error) {
	db := s.storage.GetDatabase()
	query := "SELECT id, workbook_id, source_id, event_type, old_value, new_value, modified_by, created FROM journal WHERE workbook_id = ? ORDER BY id DESC"
	args := []interface{}{workbookID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []*model.JournalEntry
	for rows.Next() {
		var e model.JournalEntry
		var oldValue, newValue sql.NullString
		if err := rows.Scan(&e.ID, &e.WorkbookID, &e.SourceID, &e.EventType, &oldValue, &newValue, &e.ModifiedBy, &e.Created); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		if oldValue.Valid {
			e.OldValue = &oldValue.String
		}
		if newValue.Valid {
			e.NewValue = &newValue.String
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal rows: %w", err)
	}
	return entries, nil
}

// JournalDelete removes every entry of a workbook.
func (s *JournalStorage) JournalDelete(workbookID int) error {
	db := s.storage.GetDatabase()
	if _, err := db.Exec("DELETE FROM journal WHERE workbook_id = ?", workbookID); err != nil {
		return fmt.Errorf("failed to delete journal: %w", err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
