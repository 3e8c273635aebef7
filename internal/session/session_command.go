package session

import (
	"errors"
	"fmt"
	"sort"

	"mindnoscape/workbook/internal/model"
)

// Errors returned by command validation.
var (
	ErrInvalidScope     = errors.New("invalid command scope")
	ErrInvalidOperation = errors.New("invalid command operation")
	ErrInvalidArguments = errors.New("invalid number of arguments")
)

// arity is the accepted argument count range of one operation. max < 0 means unbounded.
type arity struct {
	min, max int
	usage    string
}

// commandArity lists every operation with its argument counts and usage.
var commandArity = map[string]map[string]arity{
	"user": {
		"add":    {1, 2, "user add <username> [password]"},
		"login":  {1, 2, "user login <username> [password]"},
		"passwd": {1, 1, "user passwd <password>"},
		"delete": {0, 0, "user delete"},
		"logout": {0, 0, "user logout"},
	},
	"workbook": {
		"new":     {1, 1, "workbook new <name>"},
		"open":    {1, 1, "workbook open <name>"},
		"save":    {0, 0, "workbook save"},
		"close":   {0, 0, "workbook close"},
		"list":    {0, 0, "workbook list"},
		"delete":  {1, 1, "workbook delete <name>"},
		"show":    {0, 0, "workbook show"},
		"export":  {0, 2, "workbook export [xml|json|xmind] [filename]"},
		"import":  {1, 3, "workbook import <filename> [xml|json|xmind] [name]"},
		"history": {0, 1, "workbook history [limit]"},
	},
	"sheet": {
		"add":    {1, 1, "sheet add <title>"},
		"list":   {0, 0, "sheet list"},
		"select": {1, 1, "sheet select <index|id>"},
		"title":  {1, 1, "sheet title <title>"},
		"remove": {0, 0, "sheet remove"},
	},
	"topic": {
		"add":    {2, 4, "topic add <parent> <title> [attached|detached|summary] [index]"},
		"title":  {2, 2, "topic title <topic> <title>"},
		"style":  {1, 2, "topic style <topic> [style id]"},
		"move":   {2, 4, "topic move <topic> <new parent> [attached|detached|summary] [index]"},
		"remove": {1, 1, "topic remove <topic>"},
	},
	"summary": {
		"add":    {3, 4, "summary add <topic> <start> <end> [summary topic title]"},
		"range":  {3, 3, "summary range <summary> <start|-> <end|->"},
		"style":  {1, 2, "summary style <summary> [style id]"},
		"topic":  {1, 2, "summary topic <summary> [topic]"},
		"remove": {1, 1, "summary remove <summary>"},
		"show":   {1, 1, "summary show <summary>"},
	},
	"style": {
		"new":   {1, 2, "style new <topic|summary|sheet> [name]"},
		"set":   {3, 3, "style set <style id> <property> <value>"},
		"list":  {0, 0, "style list"},
		"prune": {0, 0, "style prune"},
	},
	"history": {
		"undo": {0, 0, "history undo"},
		"redo": {0, 0, "history redo"},
	},
	"system": {
		"stats": {0, 0, "system stats"},
		"close": {0, 0, "system close"},
	},
}

// SessionCommand wraps the model.Command and adds validation
type SessionCommand struct {
	model.Command
}

// NewSessionCommand creates a new SessionCommand from a model.Command
func NewSessionCommand(cmd model.Command) SessionCommand {
	return SessionCommand{Command: cmd}
}

// Validate checks the scope, the operation and the argument count
func (c *SessionCommand) Validate() error {
	ops, ok := commandArity[c.Scope]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidScope, c.Scope)
	}
	a, ok := ops[c.Operation]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidOperation, c.Scope+" "+c.Operation)
	}
	if n := len(c.Args); n < a.min || (a.max >= 0 && n > a.max) {
		return fmt.Errorf("%w: usage: %s", ErrInvalidArguments, a.usage)
	}
	return nil
}

// Usage returns the usage line of an operation, or "".
func Usage(scope, operation string) string {
	return commandArity[scope][operation].usage
}

// Operations returns the usage lines of every operation of a scope.
func Operations(scope string) []string {
	var lines []string
	for _, a := range commandArity[scope] {
		lines = append(lines, a.usage)
	}
	sort.Strings(lines)
	return lines
}

// Scopes returns every command scope.
func Scopes() []string {
	scopes := make([]string, 0, len(commandArity))
	for scope := range commandArity {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)
	return scopes
}
