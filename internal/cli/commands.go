package cli

import (
	"context"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"mindnoscape/workbook/internal/logview"
	"mindnoscape/workbook/internal/model"
	"mindnoscape/workbook/internal/storage"
)

var (
	exportFormat string
	importFormat string
	importName   string
	historyLimit int
	logFilter    string
	logFollow    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the workbooks of the user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommands("workbook list")
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <workbook> [file]",
	Short: "Export a workbook to a file",
	Long: `Writes a stored workbook as xmind (zipped content and styles), xml or a json outline.
Without a file name the workbook goes to the export directory of the configuration.

Examples:
  mindnoscape export plan
  mindnoscape export plan plan.json --format json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		exportArgs := []string{exportFormat}
		if len(args) > 1 {
			exportArgs = append(exportArgs, args[1])
		}
		return runCommands(
			Quote("workbook", "open", args[0]),
			Quote("workbook", "export", exportArgs...),
		)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a workbook from a file",
	Long: `Reads a workbook written by export and stores it for the user, replacing a stored
workbook of the same name. The name defaults to the file name without extension.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommands(Quote("workbook", "import", args[0], importFormat, importName))
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <workbook>",
	Short: "Show the recorded changes of a workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommands(
			Quote("workbook", "open", args[0]),
			Quote("workbook", "history", strconv.Itoa(historyLimit)),
		)
	},
}

var runCmd = &cobra.Command{
	Use:   "run <script>...",
	Short: "Run shell commands from script files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCLI()
		if err != nil {
			return err
		}
		defer c.Close()
		if err := login(c); err != nil {
			return err
		}
		for _, script := range args {
			if err := c.ExecuteScript(script); err != nil {
				return err
			}
		}
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [log directory]",
	Short: "Show the application logs",
	Long: `Prints the JSON entries of every *.log file in the log directory of the
configuration, or in the given directory, in a compact form.

Examples:
  mindnoscape logs --filter error
  mindnoscape logs ./logs --follow`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.LogFolder
		if len(args) > 0 {
			dir = args[0]
		}
		v := logview.NewViewer(dir, logFilter, os.Stdout, cfg.UseColor && !noColor)
		if !logFollow {
			return v.Scan()
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return v.Follow(ctx)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", storage.FormatXMind, "xmind, xml or json")
	importCmd.Flags().StringVarP(&importFormat, "format", "f", storage.FormatXMind, "xmind, xml or json")
	importCmd.Flags().StringVarP(&importName, "name", "n", "", "name of the stored workbook")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "number of entries, 0 for all")

	logsCmd.Flags().StringVar(&logFilter, "filter", "", "only show entries containing this text")
	logsCmd.Flags().BoolVarP(&logFollow, "follow", "F", false, "keep printing new entries")

	rootCmd.AddCommand(listCmd, exportCmd, importCmd, historyCmd, runCmd, logsCmd)
}

// Quote builds a command line that ParseArgs splits back into the same arguments.
func Quote(scope, operation string, args ...string) string {
	return model.Command{Scope: scope, Operation: operation, Args: args}.String()
}
