package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mindnoscape/workbook/internal/data"
	"mindnoscape/workbook/internal/idgen"
	"mindnoscape/workbook/internal/log"
	"mindnoscape/workbook/internal/model"
)

const (
	defaultCleanupInterval = 5 * time.Minute
	defaultSessionTimeout  = 30 * time.Minute
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// SessionManager manages multiple concurrent sessions. Commands of every session run on
// one executor goroutine, so workbooks are never touched concurrently.
type SessionManager struct {
	mu            sync.Mutex
	sessions      map[string]*Session
	dataManager   *data.DataManager
	idFactory     idgen.Factory
	cleanupTicker *time.Ticker
	done          chan struct{}
	commandQueue  chan commandExecution
	closeOnce     sync.Once
	logger        *log.Logger
}

// commandExecution represents a command to be executed in a session and where its
// outcome goes
type commandExecution struct {
	session *Session
	command model.Command
	reply   chan commandResult
}

type commandResult struct {
	value interface{}
	err   error
}

// NewSessionManager starts the command execution and cleanup goroutines
func NewSessionManager(dataManager *data.DataManager, logger *log.Logger) *SessionManager {
	sm := &SessionManager{
		sessions:     make(map[string]*Session),
		dataManager:  dataManager,
		idFactory:    idgen.KSUIDFactory{},
		done:         make(chan struct{}),
		commandQueue: make(chan commandExecution),
		logger:       logger,
	}
	sm.startCleanupRoutine()
	go sm.commandExecutor()

	logger.Info(context.Background(), "SessionManager created successfully", nil)
	return sm
}

// SessionAdd creates a new session and returns its ID
func (sm *SessionManager) SessionAdd() (string, error) {
	sessionID := sm.idFactory.NewID()
	s := NewSession(sessionID, sm.dataManager, sm.logger)

	sm.mu.Lock()
	sm.sessions[sessionID] = s
	sm.mu.Unlock()

	sm.logger.Info(s.ctx, "New session added", nil)
	return sessionID, nil
}

// SessionGet retrieves a session by its ID
func (sm *SessionManager) SessionGet(sessionID string) (*Session, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	session, exists := sm.sessions[sessionID]
	return session, exists
}

// SessionDelete closes and removes a session
func (sm *SessionManager) SessionDelete(sessionID string) {
	sm.mu.Lock()
	s, exists := sm.sessions[sessionID]
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	if !exists {
		sm.logger.Warn(context.Background(), "Attempted to delete non-existent session", log.Fields{"sessionID": sessionID})
		return
	}
	sm.run(s, model.Command{Scope: "system", Operation: "close"})
	sm.logger.Info(context.Background(), "Session deleted", log.Fields{"sessionID": sessionID})
}

// SessionRun executes a command for a specific session
func (sm *SessionManager) SessionRun(sessionID string, cmd model.Command) (interface{}, error) {
	session, exists := sm.SessionGet(sessionID)
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	sm.logger.Command(session.ctx, cmd.String())
	return sm.run(session, cmd)
}

func (sm *SessionManager) run(session *Session, cmd model.Command) (interface{}, error) {
	reply := make(chan commandResult, 1)
	select {
	case sm.commandQueue <- commandExecution{session: session, command: cmd, reply: reply}:
	case <-sm.done:
		return nil, errors.New("session manager closed")
	}
	res := <-reply
	return res.value, res.err
}

// commandExecutor processes commands from the queue
func (sm *SessionManager) commandExecutor() {
	for {
		select {
		case ce := <-sm.commandQueue:
			value, err := ce.session.CommandRun(ce.command)
			ce.reply <- commandResult{value: value, err: err}
		case <-sm.done:
			return
		}
	}
}

// startCleanupRoutine starts a goroutine that periodically cleans up inactive sessions
func (sm *SessionManager) startCleanupRoutine() {
	sm.cleanupTicker = time.NewTicker(defaultCleanupInterval)
	go func() {
		for {
			select {
			case <-sm.cleanupTicker.C:
				sm.cleanupInactiveSessions(time.Now())
			case <-sm.done:
				sm.cleanupTicker.Stop()
				return
			}
		}
	}()
}

// cleanupInactiveSessions removes sessions idle for longer than the session timeout
func (sm *SessionManager) cleanupInactiveSessions(now time.Time) {
	sm.mu.Lock()
	var expired []string
	for id, session := range sm.sessions {
		if now.Sub(session.LastActive()) > defaultSessionTimeout {
			expired = append(expired, id)
		}
	}
	sm.mu.Unlock()

	for _, id := range expired {
		sm.logger.Info(context.Background(), "Removing inactive session", log.Fields{"sessionID": id})
		sm.SessionDelete(id)
	}
}

// Close closes every session and stops the background goroutines.
func (sm *SessionManager) Close() {
	sm.mu.Lock()
	var ids []string
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	sm.mu.Unlock()
	for _, id := range ids {
		sm.SessionDelete(id)
	}
	sm.closeOnce.Do(func() { close(sm.done) })
}
