package session

import (
	"fmt"
	"strconv"

	"mindnoscape/workbook/internal/model"
	"mindnoscape/workbook/internal/storage"
)

// initWorkbookCommandHandlers initializes workbook command handlers
func initWorkbookCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"new":     handleWorkbookNew,
		"open":    handleWorkbookOpen,
		"save":    handleWorkbookSave,
		"close":   handleWorkbookClose,
		"list":    handleWorkbookList,
		"delete":  handleWorkbookDelete,
		"show":    handleWorkbookShow,
		"export":  handleWorkbookExport,
		"import":  handleWorkbookImport,
		"history": handleWorkbookHistory,
	}
}

// handleWorkbookNew creates, stores and opens a workbook
func handleWorkbookNew(s *Session, cmd model.Command) (interface{}, error) {
	user, err := s.UserGet()
	if err != nil {
		return nil, err
	}
	ow, err := s.DataManager.WorkbookManager.WorkbookCreate(user, cmd.Args[0])
	if err != nil {
		return nil, err
	}
	s.WorkbookSet(ow)
	return fmt.Sprintf("workbook '%s' created", ow.Name()), nil
}

// handleWorkbookOpen opens a stored workbook, dropping unsaved changes of the current one
func handleWorkbookOpen(s *Session, cmd model.Command) (interface{}, error) {
	user, err := s.UserGet()
	if err != nil {
		return nil, err
	}
	ow, err := s.DataManager.WorkbookManager.WorkbookOpen(user, cmd.Args[0])
	if err != nil {
		return nil, err
	}
	s.WorkbookSet(ow)
	return fmt.Sprintf("workbook '%s' opened", ow.Name()), nil
}

// handleWorkbookSave stores the open workbook and its journal
func handleWorkbookSave(s *Session, cmd model.Command) (interface{}, error) {
	ow, err := s.WorkbookGet()
	if err != nil {
		return nil, err
	}
	pending := ow.Pending()
	if err := s.DataManager.WorkbookManager.WorkbookSave(ow); err != nil {
		return nil, err
	}
	return fmt.Sprintf("workbook '%s' saved (%d changes)", ow.Name(), pending), nil
}

// handleWorkbookClose closes the open workbook without saving
func handleWorkbookClose(s *Session, cmd model.Command) (interface{}, error) {
	ow, err := s.WorkbookGet()
	if err != nil {
		return nil, err
	}
	s.WorkbookSet(nil)
	return fmt.Sprintf("workbook '%s' closed", ow.Name()), nil
}

// handleWorkbookList lists the workbooks of the current user
func handleWorkbookList(s *Session, cmd model.Command) (interface{}, error) {
	user, err := s.UserGet()
	if err != nil {
		return nil, err
	}
	return s.DataManager.WorkbookManager.WorkbookList(user)
}

// handleWorkbookDelete deletes a stored workbook of the current user
func handleWorkbookDelete(s *Session, cmd model.Command) (interface{}, error) {
	user, err := s.UserGet()
	if err != nil {
		return nil, err
	}
	if s.Workbook != nil && s.Workbook.Name() == cmd.Args[0] {
		s.WorkbookSet(nil)
	}
	if err := s.DataManager.WorkbookManager.WorkbookDelete(user, cmd.Args[0]); err != nil {
		return nil, err
	}
	return fmt.Sprintf("workbook '%s' deleted", cmd.Args[0]), nil
}

// handleWorkbookShow returns the outline of the open workbook
func handleWorkbookShow(s *Session, cmd model.Command) (interface{}, error) {
	ow, err := s.WorkbookGet()
	if err != nil {
		return nil, err
	}
	return ow.Workbook.Outline(), nil
}

// handleWorkbookExport writes the open workbook to a file
func handleWorkbookExport(s *Session, cmd model.Command) (interface{}, error) {
	ow, err := s.WorkbookGet()
	if err != nil {
		return nil, err
	}
	format := optionalArg(cmd, 0)
	if format == "" {
		format = storage.FormatXMind
	}
	filename, err := s.DataManager.WorkbookManager.Export(ow, optionalArg(cmd, 1), format)
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("exported to %s", filename), nil
}

// handleWorkbookImport stores a workbook read from a file
func handleWorkbookImport(s *Session, cmd model.Command) (interface{}, error) {
	user, err := s.UserGet()
	if err != nil {
		return nil, err
	}
	format := optionalArg(cmd, 1)
	if format == "" {
		format = storage.FormatXMind
	}
	record, err := s.DataManager.WorkbookManager.WorkbookImport(user, cmd.Args[0], format, optionalArg(cmd, 2))
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("workbook '%s' imported", record.Name), nil
}

// handleWorkbookHistory returns the stored journal of the open workbook
func handleWorkbookHistory(s *Session, cmd model.Command) (interface{}, error) {
	ow, err := s.WorkbookGet()
	if err != nil {
		return nil, err
	}
	limit := 20
	if arg := optionalArg(cmd, 0); arg != "" {
		if limit, err = strconv.Atoi(arg); err != nil {
			return nil, fmt.Errorf("invalid limit %q: %w", arg, err)
		}
	}
	return s.DataManager.WorkbookManager.JournalGet(s.User, ow.Name(), limit)
}
