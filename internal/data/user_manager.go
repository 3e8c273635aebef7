package data

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"mindnoscape/workbook/internal/log"
	"mindnoscape/workbook/internal/model"
	"mindnoscape/workbook/internal/storage"
)

// Errors returned by the user manager.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("user is inactive")
	ErrEmptyUsername      = errors.New("username cannot be empty")
)

// UserManager handles all user-related operations.
type UserManager struct {
	userStore storage.UserStore
	hashCost  int
	logger    *log.Logger
}

// NewUserManager creates a new UserManager instance.
func NewUserManager(userStore storage.UserStore, logger *log.Logger) (*UserManager, error) {
	if userStore == nil {
		return nil, fmt.Errorf("userStore not initialized")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger not initialized")
	}
	return &UserManager{
		userStore: userStore,
		hashCost:  bcrypt.DefaultCost,
		logger:    logger,
	}, nil
}

// UserAdd creates a new active user with the given username and password.
func (um *UserManager) UserAdd(username, password string) (int, error) {
	ctx := context.Background()
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, ErrEmptyUsername
	}
	um.logger.Info(ctx, "Adding new user", log.Fields{"username": username})

	hash, err := bcrypt.GenerateFromPassword([]byte(password), um.hashCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := um.userStore.UserAdd(model.UserInfo{Username: username, PasswordHash: hash, Active: true})
	if err != nil {
		um.logger.Error(ctx, "Failed to create user", log.Fields{"error": err, "username": username})
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	um.logger.Info(ctx, "User added successfully", log.Fields{"userID": userID, "username": username})
	return userID, nil
}

// UserAuthenticate verifies a user's credentials and returns the user.
func (um *UserManager) UserAuthenticate(username, password string) (*model.User, error) {
	ctx := context.Background()
	um.logger.Info(ctx, "Authenticating user", log.Fields{"username": username})

	users, err := um.UserGet(model.UserInfo{Username: username}, model.UserFilter{Username: true})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		um.logger.Warn(ctx, "User doesn't exist", log.Fields{"username": username})
		return nil, ErrInvalidCredentials
	}

	user := users[0]
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		um.logger.Warn(ctx, "Authentication failed", log.Fields{"username": username})
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrUserInactive
	}

	um.logger.Info(ctx, "User authenticated successfully", log.Fields{"username": username})
	return user, nil
}

// UserGet retrieves users based on the provided info and filter.
func (um *UserManager) UserGet(userInfo model.UserInfo, userFilter model.UserFilter) ([]*model.User, error) {
	users, err := um.userStore.UserGet(userInfo, userFilter)
	if err != nil {
		um.logger.Error(context.Background(), "Failed to get users", log.Fields{"error": err})
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

// UserPasswordSet replaces the password of a user.
func (um *UserManager) UserPasswordSet(user *model.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), um.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := um.userStore.UserUpdate(user, model.UserInfo{PasswordHash: hash}, model.UserFilter{PasswordHash: true}); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	user.PasswordHash = hash
	um.logger.Info(context.Background(), "User password updated", log.Fields{"userID": user.ID, "username": user.Username})
	return nil
}

// UserUpdate updates an existing user's information.
func (um *UserManager) UserUpdate(user *model.User, userUpdateInfo model.UserInfo, userFilter model.UserFilter) error {
	ctx := context.Background()
	um.logger.Info(ctx, "Updating user", log.Fields{"userID": user.ID, "username": user.Username})

	if err := um.userStore.UserUpdate(user, userUpdateInfo, userFilter); err != nil {
		um.logger.Error(ctx, "Failed to update user", log.Fields{"error": err, "userID": user.ID})
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// UserDelete removes a user.
func (um *UserManager) UserDelete(user *model.User) error {
	if err := um.userStore.UserDelete(user); err != nil {
		um.logger.Error(context.Background(), "Failed to delete user", log.Fields{"error": err, "userID": user.ID})
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
