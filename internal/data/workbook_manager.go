package data

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"mindnoscape/workbook/internal/idgen"
	"mindnoscape/workbook/internal/log"
	"mindnoscape/workbook/internal/metrics"
	"mindnoscape/workbook/internal/model"
	"mindnoscape/workbook/internal/storage"
	"mindnoscape/workbook/internal/workbook"
)

// Errors returned by the workbook manager.
var (
	ErrWorkbookNotFound = errors.New("workbook not found")
	ErrEmptyName        = errors.New("workbook name cannot be empty")
)

// DefaultSheetTitle is the title of the first sheet of a new workbook.
const DefaultSheetTitle = "Sheet 1"

// WorkbookManagerOptions carries the optional collaborators of a WorkbookManager.
type WorkbookManagerOptions struct {
	IDFactory idgen.Factory
	ExportDir string
	Metrics   *metrics.Collector
}

// WorkbookManager handles workbook persistence, import and export.
type WorkbookManager struct {
	workbookStore storage.WorkbookStore
	journalStore  storage.JournalStore
	idFactory     idgen.Factory
	exportDir     string
	metrics       *metrics.Collector
	logger        *log.Logger
}

// NewWorkbookManager creates a new WorkbookManager instance.
func NewWorkbookManager(workbookStore storage.WorkbookStore, journalStore storage.JournalStore, opts WorkbookManagerOptions, logger *log.Logger) (*WorkbookManager, error) {
	if workbookStore == nil || journalStore == nil {
		return nil, fmt.Errorf("workbook storage not initialized")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger not initialized")
	}
	if opts.IDFactory == nil {
		opts.IDFactory = idgen.UUIDFactory{}
	}
	return &WorkbookManager{
		workbookStore: workbookStore,
		journalStore:  journalStore,
		idFactory:     opts.IDFactory,
		exportDir:     opts.ExportDir,
		metrics:       opts.Metrics,
		logger:        logger,
	}, nil
}

func (m *WorkbookManager) options(user *model.User) []workbook.Option {
	return []workbook.Option{
		workbook.WithIDFactory(m.idFactory),
		workbook.WithModifier(user.Username),
		workbook.WithLogger(m.logger),
	}
}

// WorkbookCreate creates and stores a workbook with one sheet whose root topic is
// titled after the workbook, and opens it.
func (m *WorkbookManager) WorkbookCreate(user *model.User, name string) (*OpenWorkbook, error) {
	ctx := context.Background()
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	w := workbook.New(m.options(user)...)
	sheet := w.CreateSheet()
	sheet.SetTitle(DefaultSheetTitle)
	root := w.CreateTopic()
	root.SetTitle(name)
	if err := sheet.ReplaceRootTopic(root); err != nil {
		return nil, fmt.Errorf("failed to set root topic: %w", err)
	}
	if err := w.AddSheet(sheet, -1); err != nil {
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}

	content, styles, err := w.Marshal()
	if err != nil {
		return nil, err
	}
	id, err := m.workbookStore.WorkbookAdd(model.WorkbookInfo{Name: name, Owner: user.Username, Content: content, Styles: styles})
	if err != nil {
		return nil, fmt.Errorf("failed to add workbook: %w", err)
	}

	m.logger.Info(ctx, "Workbook created", log.Fields{"workbookID": id, "workbookName": name, "owner": user.Username})
	record := &model.WorkbookRecord{ID: id, Name: name, Owner: user.Username, Content: content, Styles: styles}
	return newOpenWorkbook(record, w, m), nil
}

func (m *WorkbookManager) record(user *model.User, name string, withBody bool) (*model.WorkbookRecord, error) {
	filter := model.WorkbookFilter{Name: true, Owner: true, Content: withBody, Styles: withBody}
	records, err := m.workbookStore.WorkbookGet(model.WorkbookInfo{Name: name, Owner: user.Username}, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get workbook: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("workbook '%s': %w", name, ErrWorkbookNotFound)
	}
	return records[0], nil
}

// WorkbookOpen loads a stored workbook of the user.
func (m *WorkbookManager) WorkbookOpen(user *model.User, name string) (*OpenWorkbook, error) {
	record, err := m.record(user, name, true)
	if err != nil {
		return nil, err
	}
	w, err := workbook.Parse(record.Content, record.Styles, m.options(user)...)
	if err != nil {
		m.logger.Error(context.Background(), "Failed to parse stored workbook", log.Fields{"error": err, "workbookID": record.ID})
		return nil, fmt.Errorf("failed to load workbook '%s': %w", name, err)
	}
	m.logger.Info(context.Background(), "Workbook opened", log.Fields{"workbookID": record.ID, "workbookName": name})
	return newOpenWorkbook(record, w, m), nil
}

// WorkbookSave writes the documents of an open workbook and flushes its journal.
func (m *WorkbookManager) WorkbookSave(ow *OpenWorkbook) error {
	start := time.Now()

	content, styles, err := ow.Workbook.Marshal()
	if err != nil {
		return err
	}
	update := model.WorkbookInfo{Content: content, Styles: styles}
	if err := m.workbookStore.WorkbookUpdate(ow.Record, update, model.WorkbookFilter{Content: true, Styles: true}); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	ow.Record.Content, ow.Record.Styles = content, styles

	entries := ow.takePending()
	if err := m.journalStore.JournalAdd(entries); err != nil {
		ow.pending = append(entries, ow.pending...)
		return fmt.Errorf("failed to write journal: %w", err)
	}

	if m.metrics != nil {
		m.metrics.WorkbooksSaved.Inc()
		m.metrics.JournalEntries.Add(float64(len(entries)))
		m.metrics.SaveDuration.Observe(time.Since(start).Seconds())
	}
	m.logger.Info(context.Background(), "Workbook saved", log.Fields{"workbookID": ow.Record.ID, "journalEntries": len(entries)})
	return nil
}

// WorkbookList returns the workbooks owned by the user, without their documents.
func (m *WorkbookManager) WorkbookList(user *model.User) ([]*model.WorkbookRecord, error) {
	records, err := m.workbookStore.WorkbookGet(model.WorkbookInfo{Owner: user.Username}, model.WorkbookFilter{Owner: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list workbooks: %w", err)
	}
	return records, nil
}

// WorkbookDelete removes a workbook of the user and its journal.
func (m *WorkbookManager) WorkbookDelete(user *model.User, name string) error {
	record, err := m.record(user, name, false)
	if err != nil {
		return err
	}
	if err := m.workbookStore.WorkbookDelete(record); err != nil {
		return fmt.Errorf("failed to delete workbook: %w", err)
	}
	return nil
}

// WorkbookImport reads a workbook file and stores it under name, replacing a workbook
// of the same name. An empty name is taken from the file name.
func (m *WorkbookManager) WorkbookImport(user *model.User, filename, format, name string) (*model.WorkbookRecord, error) {
	w, err := storage.FileImport(filename, format, m.options(user)...)
	if err != nil {
		return nil, fmt.Errorf("failed to import workbook: %w", err)
	}
	if name = strings.TrimSpace(name); name == "" {
		name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}

	if existing, err := m.record(user, name, false); err == nil {
		if err := m.workbookStore.WorkbookDelete(existing); err != nil {
			return nil, fmt.Errorf("failed to delete existing workbook: %w", err)
		}
	} else if !errors.Is(err, ErrWorkbookNotFound) {
		return nil, err
	}

	content, styles, err := w.Marshal()
	if err != nil {
		return nil, err
	}
	id, err := m.workbookStore.WorkbookAdd(model.WorkbookInfo{Name: name, Owner: user.Username, Content: content, Styles: styles})
	if err != nil {
		return nil, fmt.Errorf("failed to add imported workbook: %w", err)
	}

	m.logger.Info(context.Background(), "Workbook imported", log.Fields{"workbookID": id, "workbookName": name, "file": filename})
	return &model.WorkbookRecord{ID: id, Name: name, Owner: user.Username, Content: content, Styles: styles}, nil
}

// WorkbookExport writes a stored workbook to a file and returns the file name used. An
// empty filename places the file in the export directory.
func (m *WorkbookManager) WorkbookExport(user *model.User, name, filename, format string) (string, error) {
	ow, err := m.WorkbookOpen(user, name)
	if err != nil {
		return "", err
	}
	defer ow.Close()
	return m.Export(ow, filename, format)
}

// Export writes an open workbook, including unsaved changes, to a file.
func (m *WorkbookManager) Export(ow *OpenWorkbook, filename, format string) (string, error) {
	if filename == "" {
		filename = filepath.Join(m.exportDir, storage.ExportFilename(ow.Name(), format))
	}
	if err := storage.FileExport(ow.Workbook, filename, format); err != nil {
		return "", fmt.Errorf("failed to export workbook: %w", err)
	}
	m.logger.Info(context.Background(), "Workbook exported", log.Fields{"workbookName": ow.Name(), "file": filename, "format": format})
	return filename, nil
}

// JournalGet returns the newest journal entries of a workbook of the user.
func (m *WorkbookManager) JournalGet(user *model.User, name string, limit int) ([]*model.JournalEntry, error) {
	record, err := m.record(user, name, false)
	if err != nil {
		return nil, err
	}
	entries, err := m.journalStore.JournalGet(record.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get journal: %w", err)
	}
	return entries, nil
}
