package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mindnoscape/workbook/internal/log"
	"mindnoscape/workbook/internal/model"
)

// WorkbookStore defines the interface for workbook-related storage operations.
type WorkbookStore interface {
	WorkbookAdd(newWorkbook model.WorkbookInfo) (int, error)
	WorkbookGet(workbookInfo model.WorkbookInfo, workbookFilter model.WorkbookFilter) ([]*model.WorkbookRecord, error)
	WorkbookUpdate(workbook *model.WorkbookRecord, workbookUpdateInfo model.WorkbookInfo, workbookFilter model.WorkbookFilter) error
	WorkbookDelete(workbook *model.WorkbookRecord) error
}

// WorkbookStorage implements the WorkbookStore interface.
type WorkbookStorage struct {
	storage *Storage
	logger  *log.Logger
}

// NewWorkbookStorage creates a new WorkbookStorage instance.
func NewWorkbookStorage(storage *Storage) *WorkbookStorage {
	return &WorkbookStorage{storage: storage, logger: storage.logger}
}

// WorkbookAdd adds a new workbook. Names are unique per owner.
func (s *WorkbookStorage) WorkbookAdd(newWorkbook model.WorkbookInfo) (int, error) {
	s.logger.Info(context.Background(), "Adding new workbook", log.Fields{"owner": newWorkbook.Owner, "workbookName": newWorkbook.Name})

	existing, err := s.WorkbookGet(newWorkbook, model.WorkbookFilter{Name: true, Owner: true})
	if err != nil {
		return 0, fmt.Errorf("failed to check for existing workbook: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Warn(context.Background(), "Workbook with the same name already exists", log.Fields{"owner": newWorkbook.Owner, "workbookName": newWorkbook.Name})
		return 0, fmt.Errorf("workbook '%s': %w", newWorkbook.Name, ErrAlreadyExists)
	}

	db := s.storage.GetDatabase()
	if err := db.Begin(); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer db.Rollback()

	now := time.Now().UTC()
	id, err := db.InsertID(
		"INSERT INTO workbooks (workbook_name, owner, content, styles, created, updated) VALUES (?, ?, ?, ?, ?, ?)",
		newWorkbook.Name, newWorkbook.Owner, nonNil(newWorkbook.Content), nonNil(newWorkbook.Styles), now, now,
	)
	if err != nil {
		s.logger.Error(context.Background(), "Failed to add workbook", log.Fields{"error": err, "workbookName": newWorkbook.Name})
		return 0, fmt.Errorf("failed to add workbook: %w", err)
	}

	if err := db.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info(context.Background(), "Workbook added successfully", log.Fields{"workbookID": id, "workbookName": newWorkbook.Name})
	return id, nil
}

// WorkbookGet retrieves workbooks based on the provided info and filter. Content and
// styles are loaded only when the filter selects them.
func (s *WorkbookStorage) WorkbookGet(workbookInfo model.WorkbookInfo, workbookFilter model.WorkbookFilter) ([]*model.WorkbookRecord, error) {
	db := s.storage.GetDatabase()
	columns := "id, workbook_name, owner, created, updated"
	withBody := workbookFilter.Content || workbookFilter.Styles
	if withBody {
		columns += ", content, styles"
	}
	query := "SELECT " + columns + " FROM workbooks WHERE 1=1"
	var args []interface{}

	if workbookFilter.ID {
		query += " AND id = ?"
		args = append(args, workbookInfo.ID)
	}
	if workbookFilter.Name {
		query += " AND workbook_name = ?"
		args = append(args, workbookInfo.Name)
	}
	if workbookFilter.Owner {
		query += " AND owner = ?"
		args = append(args, workbookInfo.Owner)
	}
	query += " ORDER BY workbook_name"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workbooks: %w", err)
	}
	defer rows.Close()

	var workbooks []*model.WorkbookRecord
	for rows.Next() {
		var wb model.WorkbookRecord
		dest := []interface{}{&wb.ID, &wb.Name, &wb.Owner, &wb.Created, &wb.Updated}
		if withBody {
			dest = append(dest, &wb.Content, &wb.Styles)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan workbook row: %w", err)
		}
		workbooks = append(workbooks, &wb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workbook rows: %w", err)
	}

	return workbooks, nil
}

// WorkbookUpdate updates the selected fields of an existing workbook.
func (s *WorkbookStorage) WorkbookUpdate(workbook *model.WorkbookRecord, workbookUpdateInfo model.WorkbookInfo, workbookFilter model.WorkbookFilter) error {
	db := s.storage.GetDatabase()
	now := time.Now().UTC()
	sets := []string{"updated = ?"}
	args := []interface{}{now}

	if workbookFilter.Name {
		sets = append(sets, "workbook_name = ?")
		args = append(args, workbookUpdateInfo.Name)
	}
	if workbookFilter.Owner {
		sets = append(sets, "owner = ?")
		args = append(args, workbookUpdateInfo.Owner)
	}
	if workbookFilter.Content {
		sets = append(sets, "content = ?")
		args = append(args, nonNil(workbookUpdateInfo.Content))
	}
	if workbookFilter.Styles {
		sets = append(sets, "styles = ?")
		args = append(args, nonNil(workbookUpdateInfo.Styles))
	}
	args = append(args, workbook.ID)

	result, err := db.Exec("UPDATE workbooks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		s.logger.Error(context.Background(), "Failed to update workbook", log.Fields{"error": err, "workbookID": workbook.ID})
		return fmt.Errorf("failed to update workbook: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("workbook %d: %w", workbook.ID, ErrNotFound)
	}
	workbook.Updated = now
	return nil
}

// WorkbookDelete removes a workbook and its journal.
func (s *WorkbookStorage) WorkbookDelete(workbook *model.WorkbookRecord) (err error) {
	db := s.storage.GetDatabase()
	if err := db.Begin(); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = db.Rollback()
		}
	}()

	if _, err = db.Exec("DELETE FROM journal WHERE workbook_id = ?", workbook.ID); err != nil {
		return fmt.Errorf("failed to delete workbook journal: %w", err)
	}
	if _, err = db.Exec("DELETE FROM workbooks WHERE id = ?", workbook.ID); err != nil {
		return fmt.Errorf("failed to delete workbook: %w", err)
	}
	if err = db.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info(context.Background(), "Workbook deleted", log.Fields{"workbookID": workbook.ID, "workbookName": workbook.Name})
	return nil
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
