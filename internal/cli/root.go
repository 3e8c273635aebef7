package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mindnoscape/workbook/internal/config"
	"mindnoscape/workbook/internal/data"
	"mindnoscape/workbook/internal/log"
	"mindnoscape/workbook/internal/model"
	"mindnoscape/workbook/internal/session"
	"mindnoscape/workbook/internal/storage"
	"mindnoscape/workbook/internal/ui"
)

var (
	// Global flags
	configPath string
	username   string
	password   string
	showIDs    bool
	noColor    bool

	// Set up by PersistentPreRunE
	cfg            *model.Config
	logger         *log.Logger
	store          *storage.Storage
	sessionManager *session.SessionManager
)

// rootCmd starts the interactive shell
var rootCmd = &cobra.Command{
	Use:   "mindnoscape",
	Short: "Mindnoscape - a workbook and mind map editor",
	Long: `Mindnoscape edits workbooks of topic trees with summaries and styles.
Without a subcommand it starts an interactive shell; type 'help' there for commands.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "help", "completion":
			return nil
		case "logs":
			return loadConfig()
		}
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCLI()
		if err != nil {
			return err
		}
		defer c.Close()

		c.UI.Println("Welcome to Mindnoscape! Use 'help' for the list of commands.")
		if username != "" || cfg.DefaultUserActive {
			if err := login(c); err != nil {
				c.UI.Error(err.Error())
			}
		}
		if err := c.Run(cfg.HistoryFile); err != nil {
			logger.Error(context.Background(), "CLI error", log.Fields{"error": err})
			return err
		}
		c.UI.Println("Goodbye!")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (json, yaml or toml)")
	rootCmd.PersistentFlags().StringVarP(&username, "user", "u", "", "user to log in as (default: the configured default user)")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "password of the user")
	rootCmd.PersistentFlags().BoolVar(&showIDs, "ids", false, "show element ids in listings")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the command line.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() error {
	if err := config.ConfigLoad(configPath); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg = config.ConfigGet()
	return nil
}

func setup() error {
	if err := loadConfig(); err != nil {
		return err
	}

	var err error
	logger, err = log.NewLogger(cfg, log.ParseLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info(context.Background(), "Application started", log.Fields{"config": config.ConfigPath()})

	store, err = storage.NewStorage(cfg, logger)
	if err != nil {
		logger.Error(context.Background(), "Failed to initialize storage", log.Fields{"error": err})
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	dataManager, err := data.NewDataManager(store.UserStore, store.WorkbookStore, store.JournalStore, cfg, logger)
	if err != nil {
		logger.Error(context.Background(), "Failed to initialize data manager", log.Fields{"error": err})
		return fmt.Errorf("failed to initialize data manager: %w", err)
	}

	sessionManager = session.NewSessionManager(dataManager, logger)
	return nil
}

func teardown() {
	if sessionManager != nil {
		sessionManager.Close()
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error(context.Background(), "Failed to close storage", log.Fields{"error": err})
		}
	}
	if logger != nil {
		logger.Info(context.Background(), "Application shutting down", nil)
		logger.Close()
	}
}

func newCLI() (*CLI, error) {
	u := ui.NewUI(os.Stdout, cfg.UseColor && !noColor)
	u.ShowIDs = showIDs
	c, err := NewCLI(sessionManager, u, logger)
	if err != nil {
		logger.Error(context.Background(), "Failed to initialize CLI", log.Fields{"error": err})
		return nil, err
	}
	return c, nil
}

// login logs in the user named by --user, or the configured default user.
func login(c *CLI) error {
	name, pass := username, password
	if name == "" {
		name, pass = cfg.DefaultUser, cfg.DefaultUserPassword
	}
	return c.Execute(Quote("user", "login", name, pass))
}

// runCommands logs in and executes lines without the shell.
func runCommands(lines ...string) error {
	c, err := newCLI()
	if err != nil {
		return err
	}
	defer c.Close()
	if err := login(c); err != nil {
		return err
	}
	for _, line := range lines {
		if err := c.Execute(line); err != nil {
			return err
		}
	}
	return nil
}
