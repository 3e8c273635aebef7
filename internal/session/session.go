// Package session runs user commands against the data layer and keeps the per-user
// state: the logged-in user, the open workbook and the selected sheet.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"mindnoscape/workbook/internal/data"
	"mindnoscape/workbook/internal/log"
	"mindnoscape/workbook/internal/model"
	"mindnoscape/workbook/internal/workbook"
)

// Errors returned when a command needs state the session does not have.
var (
	ErrNoUser     = errors.New("no user logged in")
	ErrNoWorkbook = errors.New("no workbook open")
	ErrNoSheet    = errors.New("no sheet selected")
)

// CommandHandler is a function type for command handlers
type CommandHandler func(*Session, model.Command) (interface{}, error)

// Session represents an individual user session
type Session struct {
	ID          string
	DataManager *data.DataManager
	User        *model.User
	Workbook    *data.OpenWorkbook
	Sheet       *workbook.Sheet

	lastActivity    atomic.Int64
	commandHandlers map[string]map[string]CommandHandler
	ctx             context.Context
	logger          *log.Logger
}

// NewSession creates a new Session instance
func NewSession(id string, dataManager *data.DataManager, logger *log.Logger) *Session {
	s := &Session{
		ID:          id,
		DataManager: dataManager,
		ctx:         log.WithSession(context.Background(), id),
		logger:      logger,
	}
	s.touch()
	s.initCommandHandlers()
	return s
}

// initCommandHandlers initializes the command handlers map
func (s *Session) initCommandHandlers() {
	s.commandHandlers = map[string]map[string]CommandHandler{
		"user":     initUserCommandHandlers(),
		"workbook": initWorkbookCommandHandlers(),
		"sheet":    initSheetCommandHandlers(),
		"topic":    initTopicCommandHandlers(),
		"summary":  initSummaryCommandHandlers(),
		"style":    initStyleCommandHandlers(),
		"history":  initHistoryCommandHandlers(),
		"system":   initSystemCommandHandlers(),
	}
}

// CommandRun executes a command within the session context
func (s *Session) CommandRun(cmd model.Command) (result interface{}, err error) {
	s.touch()

	sc := NewSessionCommand(cmd)
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	handler, ok := s.commandHandlers[cmd.Scope][cmd.Operation]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrInvalidOperation, cmd.Scope, cmd.Operation)
	}

	// Everything one command changes is undone in one step.
	if s.Workbook != nil && cmd.Scope != "history" {
		hm := s.Workbook.History
		hm.Begin()
		defer hm.Commit()
	}

	// Model lifecycle violations are bugs; report them instead of taking the REPL down.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(s.ctx, "Command panicked", log.Fields{"command": cmd.String(), "panic": fmt.Sprint(r)})
			result, err = nil, fmt.Errorf("internal error: %v", r)
		}
	}()

	result, err = handler(s, cmd)
	if err != nil {
		s.logger.Error(s.ctx, "Command execution failed", log.Fields{"command": cmd.String(), "error": err})
	} else {
		s.logger.Debug(s.ctx, "Command executed successfully", log.Fields{"command": cmd.String()})
	}
	return result, err
}

func (s *Session) touch() { s.lastActivity.Store(time.Now().UnixNano()) }

// LastActive returns the time of the last command.
func (s *Session) LastActive() time.Time { return time.Unix(0, s.lastActivity.Load()) }

// UserGet retrieves the current user
func (s *Session) UserGet() (*model.User, error) {
	if s.User == nil {
		return nil, ErrNoUser
	}
	return s.User, nil
}

// UserSet sets the current user and closes the workbook of the previous one
func (s *Session) UserSet(user *model.User) {
	if s.User != nil && (user == nil || s.User.Username != user.Username) {
		s.WorkbookSet(nil)
	}
	s.User = user
}

// WorkbookGet retrieves the open workbook
func (s *Session) WorkbookGet() (*data.OpenWorkbook, error) {
	if s.Workbook == nil {
		return nil, ErrNoWorkbook
	}
	return s.Workbook, nil
}

// WorkbookSet replaces the open workbook, closing the previous one, and selects its
// first sheet
func (s *Session) WorkbookSet(ow *data.OpenWorkbook) {
	if s.Workbook != nil && s.Workbook != ow {
		s.Workbook.Close()
	}
	s.Workbook = ow
	s.Sheet = nil
	if ow != nil {
		s.Sheet = ow.Workbook.PrimarySheet()
		s.logger.Info(s.ctx, "Workbook selected", log.Fields{"workbookName": ow.Name()})
	}
}

// SheetGet retrieves the selected sheet
func (s *Session) SheetGet() (*workbook.Sheet, error) {
	if _, err := s.WorkbookGet(); err != nil {
		return nil, err
	}
	if s.Sheet == nil || s.Sheet.IsOrphan() {
		return nil, ErrNoSheet
	}
	return s.Sheet, nil
}

// reselectSheet selects the first sheet when the selected one is no longer part of the
// workbook.
func (s *Session) reselectSheet() {
	if s.Workbook != nil && (s.Sheet == nil || s.Sheet.IsOrphan()) {
		s.Sheet = s.Workbook.Workbook.PrimarySheet()
	}
}

// Prompt describes the session state for a prompt: user, workbook and sheet title.
func (s *Session) Prompt() (user, workbookName, sheet string) {
	if s.User != nil {
		user = s.User.Username
	}
	if s.Workbook != nil {
		workbookName = s.Workbook.Name()
	}
	if s.Sheet != nil {
		sheet = s.Sheet.Title()
	}
	return user, workbookName, sheet
}

// Close releases the open workbook. Unsaved changes are lost.
func (s *Session) Close() {
	s.WorkbookSet(nil)
	s.User = nil
}
