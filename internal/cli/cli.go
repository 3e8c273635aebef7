// Package cli implements the interactive shell and the command-line entry points.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"mindnoscape/workbook/internal/log"
	"mindnoscape/workbook/internal/model"
	"mindnoscape/workbook/internal/session"
	"mindnoscape/workbook/internal/ui"
)

// ErrExit is returned when the user asks to leave the shell.
var ErrExit = errors.New("exit requested")

// CLI runs text commands in one session and renders their results.
type CLI struct {
	UI *ui.UI
	RL *readline.Instance

	sessions  *session.SessionManager
	sessionID string
	logger    *log.Logger
}

// NewCLI opens a session for the shell.
func NewCLI(sm *session.SessionManager, u *ui.UI, logger *log.Logger) (*CLI, error) {
	id, err := sm.SessionAdd()
	if err != nil {
		return nil, fmt.Errorf("failed to add session: %w", err)
	}
	return &CLI{UI: u, sessions: sm, sessionID: id, logger: logger}, nil
}

// Close ends the session of the shell.
func (c *CLI) Close() {
	c.sessions.SessionDelete(c.sessionID)
}

// Prompt describes the session state.
func (c *CLI) Prompt() string {
	s, ok := c.sessions.SessionGet(c.sessionID)
	if !ok {
		return c.UI.PromptString("", "", "")
	}
	return c.UI.PromptString(s.Prompt())
}

// Run reads and executes commands until exit or end of input.
func (c *CLI) Run(historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          c.Prompt(),
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()
	c.RL = rl

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			c.UI.Info("Use 'exit' or 'quit' to exit the program.")
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}

		if err := c.Execute(line); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			c.UI.Error(err.Error())
		}
		rl.SetPrompt(c.Prompt())
	}
}

// ParseArgs splits a line on spaces. Double quotes group words into one argument.
func (c *CLI) ParseArgs(input string) []string {
	var args []string
	var currentArg strings.Builder
	inQuotes := false
	quoted := false

	for _, char := range input {
		switch char {
		case '"':
			inQuotes = !inQuotes
			quoted = true
		case ' ', '\t':
			if !inQuotes {
				if currentArg.Len() > 0 || quoted {
					args = append(args, currentArg.String())
					currentArg.Reset()
					quoted = false
				}
			} else {
				currentArg.WriteRune(char)
			}
		default:
			currentArg.WriteRune(char)
		}
	}

	if currentArg.Len() > 0 || quoted {
		args = append(args, currentArg.String())
	}

	return args
}

// ParseCommand turns arguments into a command: scope, operation, then arguments.
func ParseCommand(args []string) (model.Command, error) {
	if len(args) == 0 {
		return model.Command{}, fmt.Errorf("no command provided")
	}
	cmd := model.Command{Scope: strings.ToLower(args[0])}
	if len(args) > 1 {
		cmd.Operation = strings.ToLower(args[1])
		cmd.Args = args[2:]
	}
	return cmd, nil
}

// Execute runs one line. Empty lines and lines starting with # are ignored.
func (c *CLI) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	args := c.ParseArgs(line)

	switch strings.ToLower(args[0]) {
	case "exit", "quit":
		c.UI.Println("Exiting...")
		return ErrExit
	case "help":
		return c.help(args[1:])
	}

	cmd, err := ParseCommand(args)
	if err != nil {
		return err
	}
	if err := c.promptPassword(&cmd); err != nil {
		return err
	}

	result, err := c.sessions.SessionRun(c.sessionID, cmd)
	if err != nil {
		return err
	}
	c.UI.Result(result)
	return nil
}

// promptPassword asks for a missing password of user add and user login.
func (c *CLI) promptPassword(cmd *model.Command) error {
	if c.RL == nil || cmd.Scope != "user" || len(cmd.Args) != 1 {
		return nil
	}
	if cmd.Operation != "add" && cmd.Operation != "login" {
		return nil
	}
	password, err := c.RL.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	cmd.Args = append(cmd.Args, string(password))
	return nil
}

// ExecuteScript runs every line of a file, stopping at the first failing command.
func (c *CLI) ExecuteScript(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open script file: %w", err)
	}
	defer file.Close()

	c.logger.Info(context.Background(), "Running script", log.Fields{"file": filename})
	scanner := bufio.NewScanner(file)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		if err := c.Execute(scanner.Text()); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			return fmt.Errorf("%s:%d: %w", filename, lineNumber, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read script file: %w", err)
	}
	return nil
}

func (c *CLI) help(args []string) error {
	switch len(args) {
	case 0:
		c.UI.Println("Command syntax: <scope> <operation> [arguments]")
		c.UI.Help(session.Scopes(), session.Operations)
	case 1:
		ops := session.Operations(args[0])
		if len(ops) == 0 {
			return fmt.Errorf("unknown scope: %s", args[0])
		}
		c.UI.Help([]string{args[0]}, session.Operations)
	case 2:
		usage := session.Usage(args[0], args[1])
		if usage == "" {
			return fmt.Errorf("no help found for %s %s", args[0], args[1])
		}
		c.UI.Println(usage)
	default:
		return fmt.Errorf("invalid help command, use 'help [scope] [operation]'")
	}
	return nil
}
