package model

import "strings"

// Command represents a user command with its scope, operation, and arguments
type Command struct {
	Scope     string
	Operation string
	Args      []string
}

// String returns the command as typed, quoting arguments that contain spaces.
func (c Command) String() string {
	parts := []string{c.Scope, c.Operation}
	for _, a := range c.Args {
		if a == "" || strings.ContainsAny(a, " \t") {
			a = `"` + a + `"`
		}
		parts = append(parts, a)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
