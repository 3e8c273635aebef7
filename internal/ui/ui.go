// Package ui renders command results and prompts for the terminal.
package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mindnoscape/workbook/internal/model"
)

// UI writes messages and rendered results to one writer.
type UI struct {
	writer   io.Writer
	renderer *lipgloss.Renderer
	useColor bool

	// ShowIDs adds element ids to outlines and listings.
	ShowIDs bool
}

func NewUI(w io.Writer, useColor bool) *UI {
	return &UI{writer: w, renderer: lipgloss.NewRenderer(w), useColor: useColor}
}

func (u *UI) Print(message string) {
	fmt.Fprint(u.writer, message)
}

func (u *UI) Printf(format string, args ...interface{}) {
	fmt.Fprintf(u.writer, format, args...)
}

func (u *UI) Println(message string) {
	fmt.Fprintln(u.writer, message)
}

func (u *UI) PrintlnColored(message string, c Color) {
	fmt.Fprintln(u.writer, u.colorize(message, c))
}

func (u *UI) Error(message string) {
	u.Printf("%s %s\n", u.colorize("!", ColorRed), u.colorize(message, ColorLightOrange))
}

func (u *UI) Success(message string) {
	u.PrintlnColored(message, ColorLightGreen)
}

func (u *UI) Warning(message string) {
	u.Printf("%s %s\n", u.colorize("?", ColorLightRed), u.colorize(message, ColorLightYellow))
}

func (u *UI) Info(message string) {
	u.PrintlnColored(message, ColorGray)
}

// PromptString builds the REPL prompt: user @ workbook / sheet >
func (u *UI) PromptString(user, workbook, sheet string) string {
	var promptBuilder strings.Builder
	if user != "" {
		promptBuilder.WriteString(u.colorize(user, ColorLightBlue))
		if workbook != "" {
			promptBuilder.WriteString(u.colorize(" @ ", ColorWhite))
			promptBuilder.WriteString(u.colorize(workbook, ColorLightPurple))
			if sheet != "" {
				promptBuilder.WriteString(u.colorize(" / ", ColorWhite))
				promptBuilder.WriteString(u.colorize(sheet, ColorYellow))
			}
		}
		promptBuilder.WriteString(" ")
	}
	promptBuilder.WriteString(u.colorize("> ", ColorGreen))
	return promptBuilder.String()
}

// Result renders the value returned by a session command.
func (u *UI) Result(result interface{}) {
	switch r := result.(type) {
	case nil:
	case string:
		u.Success(r)
	case *model.OutlineWorkbook:
		u.Outline(r)
	case []*model.WorkbookRecord:
		u.WorkbookList(r)
	case []*model.JournalEntry:
		u.JournalList(r)
	case []model.SheetView:
		u.SheetList(r)
	case model.SummaryView:
		u.SummaryInfo(r)
	case []model.StyleView:
		u.StyleList(r)
	case model.HistoryStep:
		u.HistoryStep(r)
	case map[string]float64:
		u.Stats(r)
	default:
		u.Println(fmt.Sprint(r))
	}
}

// Stats lists metric values sorted by name.
func (u *UI) Stats(stats map[string]float64) {
	if len(stats) == 0 {
		u.Info("No statistics recorded")
		return
	}
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		u.Printf("%s %s\n", u.colorize(name, ColorGray), fmt.Sprint(stats[name]))
	}
}

// Help prints usage lines grouped by scope.
func (u *UI) Help(scopes []string, operations func(scope string) []string) {
	for _, scope := range scopes {
		u.PrintlnColored(scope, ColorYellow)
		for _, line := range operations(scope) {
			u.Println("  " + line)
		}
	}
}
