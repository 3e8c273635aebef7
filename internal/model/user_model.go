package model

import "time"

// User represents a user account. The username doubles as the "modified-by" identity
// stamped on everything the user edits.
type User struct {
	ID           int       `json:"id" xml:"id,attr"`
	Username     string    `json:"username" xml:"username"`
	PasswordHash []byte    `json:"-" xml:"-"`
	Active       bool      `json:"active" xml:"active,attr"`
	Created      time.Time `json:"created" xml:"created,attr"`
	Updated      time.Time `json:"updated" xml:"updated,attr"`
}

// UserInfo contains basic information about a user.
type UserInfo struct {
	ID           int
	Username     string
	PasswordHash []byte
	Active       bool
}

// UserFilter defines the options for filtering users.
type UserFilter struct {
	ID           bool
	Username     bool
	PasswordHash bool
	Active       bool
}
