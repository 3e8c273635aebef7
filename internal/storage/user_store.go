package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mindnoscape/workbook/internal/log"
	"mindnoscape/workbook/internal/model"
)

// UserStore defines the interface for user-related storage operations.
type UserStore interface {
	UserAdd(newUser model.UserInfo) (int, error)
	UserGet(userInfo model.UserInfo, userFilter model.UserFilter) ([]*model.User, error)
	UserUpdate(user *model.User, userUpdateInfo model.UserInfo, userFilter model.UserFilter) error
	UserDelete(user *model.User) error
}

// UserStorage implements the UserStore interface.
type UserStorage struct {
	storage *Storage
	logger  *log.Logger
}

// NewUserStorage creates a new UserStorage instance.
func NewUserStorage(storage *Storage) *UserStorage {
	return &UserStorage{storage: storage, logger: storage.logger}
}

// UserAdd adds a new user to the database.
func (s *UserStorage) UserAdd(newUser model.UserInfo) (int, error) {
	existing, err := s.UserGet(newUser, model.UserFilter{Username: true})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, fmt.Errorf("user '%s': %w", newUser.Username, ErrAlreadyExists)
	}

	db := s.storage.GetDatabase()
	now := time.Now().UTC()

	if err := db.Begin(); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer db.Rollback()

	passwordHash := newUser.PasswordHash
	if passwordHash == nil {
		passwordHash = []byte{}
	}
	id, err := db.InsertID(
		"INSERT INTO users (username, password_hash, active, created, updated) VALUES (?, ?, ?, ?, ?)",
		newUser.Username, passwordHash, newUser.Active, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add user: %w", err)
	}

	if err := db.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info(context.Background(), "User added", log.Fields{"userID": id, "username": newUser.Username})
	return id, nil
}

// UserGet retrieves users based on the provided info and filter.
func (s *UserStorage) UserGet(userInfo model.UserInfo, userFilter model.UserFilter) ([]*model.User, error) {
	db := s.storage.GetDatabase()
	query := "SELECT id, username, password_hash, active, created, updated FROM users WHERE 1=1"
	var args []interface{}

	if userFilter.ID {
		query += " AND id = ?"
		args = append(args, userInfo.ID)
	}
	if userFilter.Username {
		query += " AND username = ?"
		args = append(args, userInfo.Username)
	}
	if userFilter.Active {
		query += " AND active = ?"
		args = append(args, userInfo.Active)
	}
	query += " ORDER BY id"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var u model.User
		err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Active, &u.Created, &u.Updated)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

// UserUpdate updates an existing user in the database.
func (s *UserStorage) UserUpdate(user *model.User, userUpdateInfo model.UserInfo, userFilter model.UserFilter) error {
	db := s.storage.GetDatabase()
	sets := []string{"updated = ?"}
	args := []interface{}{time.Now().UTC()}

	if userFilter.Username {
		sets = append(sets, "username = ?")
		args = append(args, userUpdateInfo.Username)
	}
	if userFilter.PasswordHash {
		sets = append(sets, "password_hash = ?")
		args = append(args, userUpdateInfo.PasswordHash)
	}
	if userFilter.Active {
		sets = append(sets, "active = ?")
		args = append(args, userUpdateInfo.Active)
	}
	args = append(args, user.ID)

	result, err := db.Exec("UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %d: %w", user.ID, ErrNotFound)
	}

	return nil
}

// UserDelete removes a user from the database.
func (s *UserStorage) UserDelete(user *model.User) error {
	db := s.storage.GetDatabase()
	_, err := db.Exec("DELETE FROM users WHERE id = ?", user.ID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.logger.Info(context.Background(), "User deleted", log.Fields{"userID": user.ID, "username": user.Username})
	return nil
}
