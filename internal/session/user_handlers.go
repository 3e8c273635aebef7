package session

import (
	"fmt"

	"mindnoscape/workbook/internal/log"
	"mindnoscape/workbook/internal/model"
)

// initUserCommandHandlers initializes user command handlers
func initUserCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"add":    handleUserAdd,
		"login":  handleUserLogin,
		"passwd": handleUserPasswd,
		"delete": handleUserDelete,
		"logout": handleUserLogout,
	}
}

func optionalArg(cmd model.Command, i int) string {
	if i < len(cmd.Args) {
		return cmd.Args[i]
	}
	return ""
}

// handleUserAdd handles the user add command
func handleUserAdd(s *Session, cmd model.Command) (interface{}, error) {
	userID, err := s.DataManager.UserManager.UserAdd(cmd.Args[0], optionalArg(cmd, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to add user: %w", err)
	}
	s.logger.Info(s.ctx, "User added", log.Fields{"userID": userID})
	return fmt.Sprintf("user '%s' added", cmd.Args[0]), nil
}

// handleUserLogin authenticates and selects a user
func handleUserLogin(s *Session, cmd model.Command) (interface{}, error) {
	user, err := s.DataManager.UserManager.UserAuthenticate(cmd.Args[0], optionalArg(cmd, 1))
	if err != nil {
		return nil, err
	}
	s.UserSet(user)
	s.logger.Info(s.ctx, "User logged in", log.Fields{"username": user.Username})
	return fmt.Sprintf("logged in as '%s'", user.Username), nil
}

// handleUserPasswd changes the password of the current user
func handleUserPasswd(s *Session, cmd model.Command) (interface{}, error) {
	user, err := s.UserGet()
	if err != nil {
		return nil, err
	}
	if err := s.DataManager.UserManager.UserPasswordSet(user, cmd.Args[0]); err != nil {
		return nil, err
	}
	return "password changed", nil
}

// handleUserDelete deletes the current user and their workbooks
func handleUserDelete(s *Session, cmd model.Command) (interface{}, error) {
	user, err := s.UserGet()
	if err != nil {
		return nil, err
	}
	s.WorkbookSet(nil)
	if err := s.DataManager.UserDelete(user); err != nil {
		return nil, err
	}
	s.UserSet(nil)
	return fmt.Sprintf("user '%s' deleted", user.Username), nil
}

// handleUserLogout clears the current user
func handleUserLogout(s *Session, cmd model.Command) (interface{}, error) {
	if _, err := s.UserGet(); err != nil {
		return nil, err
	}
	s.UserSet(nil)
	return "logged out", nil
}
