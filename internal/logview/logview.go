// Package logview prints the JSON log files written by the log package in a compact,
// colored form, optionally following them as they grow.
package logview

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
)

// Entry is one decoded log line.
type Entry map[string]interface{}

// Keys written by the zap encoder.
const (
	keyTime    = "ts"
	keyLevel   = "level"
	keyMessage = "msg"
)

// Viewer prints new entries of every *.log file in a directory.
type Viewer struct {
	dir    string
	filter string
	out    io.Writer

	positions map[string]int64
	known     map[string]bool

	timeStyle  lipgloss.Style
	keyStyle   lipgloss.Style
	noteStyle  lipgloss.Style
	levelStyle map[string]lipgloss.Style
}

// NewViewer creates a viewer for dir. Entries not containing filter, ignoring case,
// are skipped.
func NewViewer(dir, filter string, out io.Writer, useColor bool) *Viewer {
	r := lipgloss.NewRenderer(out)
	color := func(c string) lipgloss.Style {
		s := r.NewStyle()
		if useColor {
			s = s.Foreground(lipgloss.Color(c))
		}
		return s
	}
	return &Viewer{
		dir:       dir,
		filter:    strings.ToLower(filter),
		out:       out,
		positions: make(map[string]int64),
		known:     make(map[string]bool),
		timeStyle: color("5"),
		keyStyle:  color("6"),
		noteStyle: color("3"),
		levelStyle: map[string]lipgloss.Style{
			"DEBUG": color("4"),
			"INFO":  color("2"),
			"WARN":  color("3"),
			"ERROR": color("1"),
		},
	}
}

func formatTimestamp(timestamp string) string {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z0700"} {
		if t, err := time.Parse(layout, timestamp); err == nil {
			return t.Format("06-01-02 15:04:05.000")
		}
	}
	return timestamp
}

func padRight(str string, length int) string {
	if len(str) >= length {
		return str
	}
	return str + strings.Repeat(" ", length-len(str))
}

// Format renders an entry: time, level and message on one line, then one line per
// remaining field in key order.
func (v *Viewer) Format(entry Entry) string {
	timestamp, _ := entry[keyTime].(string)
	level, _ := entry[keyLevel].(string)
	msg, _ := entry[keyMessage].(string)

	level = strings.ToUpper(level)
	levelStyle, ok := v.levelStyle[level]
	if !ok {
		levelStyle = lipgloss.NewStyle()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s",
		v.timeStyle.Render(formatTimestamp(timestamp)),
		levelStyle.Render(padRight(level, 5)),
		msg)

	keys := make([]string, 0, len(entry))
	for key := range entry {
		if key != keyTime && key != keyLevel && key != keyMessage {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, "\n    %s %v", v.keyStyle.Render(key+":"), entry[key])
	}
	return b.String()
}

// Scan prints the entries appended to the log files since the previous scan. A file
// that shrank is read again from the start.
func (v *Viewer) Scan() error {
	logFiles, err := filepath.Glob(filepath.Join(v.dir, "*.log"))
	if err != nil {
		return fmt.Errorf("failed to read log directory: %w", err)
	}
	sort.Strings(logFiles)
	for _, filePath := range logFiles {
		if err := v.scanFile(filePath); err != nil {
			return err
		}
	}
	return nil
}

func (v *Viewer) scanFile(filePath string) error {
	if !v.known[filePath] {
		v.known[filePath] = true
		fmt.Fprintln(v.out, v.noteStyle.Render("Log file: "+filepath.Base(filePath)))
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filepath.Base(filePath), err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", filepath.Base(filePath), err)
	}
	if stat.Size() < v.positions[filePath] {
		fmt.Fprintln(v.out, v.noteStyle.Render(filepath.Base(filePath)+" has been truncated, starting from beginning"))
		v.positions[filePath] = 0
	}
	if _, err := file.Seek(v.positions[filePath], io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek in %s: %w", filepath.Base(filePath), err)
	}

	reader := bufio.NewReader(file)
	pos := v.positions[filePath]
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			// A partial last line is read again once it is complete.
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", filepath.Base(filePath), err)
		}
		pos += int64(len(line))
		v.printLine(strings.TrimSpace(line))
	}
	v.positions[filePath] = pos
	return nil
}

func (v *Viewer) printLine(line string) {
	if line == "" {
		return
	}
	var entry Entry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		fmt.Fprintln(v.out, v.levelStyle["ERROR"].Render("unparsable entry: "+line))
		return
	}
	if v.filter != "" && !strings.Contains(strings.ToLower(line), v.filter) {
		return
	}
	fmt.Fprintln(v.out, v.Format(entry))
}

// Follow prints existing entries, then new ones as the files change, until ctx ends.
func (v *Viewer) Follow(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(v.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", v.dir, err)
	}
	if err := v.Scan(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".log") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if err := v.scanFile(event.Name); err != nil {
					fmt.Fprintln(v.out, v.levelStyle["ERROR"].Render(err.Error()))
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(v.out, v.levelStyle["ERROR"].Render("watch error: "+err.Error()))
		}
	}
}
