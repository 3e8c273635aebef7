package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"mindnoscape/workbook/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// WorkbookList displays the stored workbooks of a user
func (u *UI) WorkbookList(records []*model.WorkbookRecord) {
	if len(records) == 0 {
		u.Println("No workbooks available")
		return
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Name, r.Owner, r.Updated.Format(timeLayout)})
	}
	u.table([]string{"Name", "Owner", "Updated"}, rows)
}

// JournalList displays journal entries, newest first
func (u *UI) JournalList(entries []*model.JournalEntry) {
	if len(entries) == 0 {
		u.Println("No recorded changes")
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Created.Format(timeLayout),
			e.EventType,
			e.SourceID,
			optional(e.OldValue),
			optional(e.NewValue),
			e.ModifiedBy,
		})
	}
	u.table([]string{"Time", "Event", "Source", "Old", "New", "By"}, rows)
}

func optional(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func (u *UI) table(headers []string, rows [][]string) {
	header := u.style(ColorYellow).Bold(true)
	border := u.style(ColorBrown)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header.Padding(0, 1)
			}
			return u.renderer.NewStyle().Padding(0, 1)
		})
	u.Println(t.String())
}

// Outline displays every sheet of a workbook as a topic tree
func (u *UI) Outline(w *model.OutlineWorkbook) {
	if len(w.Sheets) == 0 {
		u.Println("No sheets to display")
		return
	}
	for _, sheet := range w.Sheets {
		line := u.colorize(sheet.Title, ColorLightPurple)
		if u.ShowIDs {
			line += " " + u.colorize("["+sheet.ID+"]", ColorOrange)
		}
		u.Println(line)
		if sheet.Root == nil {
			continue
		}
		for _, l := range u.visualizeTopic(sheet.Root) {
			u.Println(l)
		}
	}
}

// outlineEntry is one line below a topic: a child topic or a summary.
type outlineEntry struct {
	label   string
	text    string
	topic   *model.OutlineTopic
	styleID string
	id      string
}

// visualizeTopic generates the tree lines of a topic and its descendants.
func (u *UI) visualizeTopic(root *model.OutlineTopic) []string {
	var output []string

	var buildTree func(e outlineEntry, prefix string, isLast bool)
	buildTree = func(e outlineEntry, prefix string, isLast bool) {
		var line strings.Builder
		line.WriteString(prefix)
		if isLast {
			line.WriteString(u.colorize("└── ", ColorBrown))
			prefix += "    "
		} else {
			line.WriteString(u.colorize("├── ", ColorBrown))
			prefix += u.colorize("│   ", ColorBrown)
		}
		line.WriteString(u.colorize(e.label, ColorYellow))
		line.WriteString(" " + e.text)
		if e.styleID != "" {
			line.WriteString(" " + u.colorize("style:"+e.styleID, ColorGray))
		}
		if u.ShowIDs {
			line.WriteString(" " + u.colorize("["+e.id+"]", ColorOrange))
		}
		output = append(output, line.String())

		if e.topic == nil {
			return
		}
		children := topicEntries(e.topic)
		for i, child := range children {
			buildTree(child, prefix, i == len(children)-1)
		}
	}

	buildTree(outlineEntry{label: "*", text: root.Title, topic: root, styleID: root.StyleID, id: root.ID}, "", true)
	return output
}

// topicEntries lists attached children by index, then detached children, then
// summaries with the topic they refer to, then summary topics no summary refers to.
func topicEntries(t *model.OutlineTopic) []outlineEntry {
	var entries []outlineEntry
	for i, c := range t.Attached {
		entries = append(entries, outlineEntry{label: strconv.Itoa(i), text: c.Title, topic: c, styleID: c.StyleID, id: c.ID})
	}
	for _, c := range t.Detached {
		entries = append(entries, outlineEntry{label: "~", text: c.Title, topic: c, styleID: c.StyleID, id: c.ID})
	}
	referenced := make(map[string]bool)
	for _, s := range t.Summaries {
		e := outlineEntry{label: "{" + boundString(s.Start) + ".." + boundString(s.End) + "}", styleID: s.StyleID, id: s.ID}
		for _, c := range t.Summary {
			if c.ID == s.TopicID {
				e.text, e.topic = c.Title, c
				referenced[c.ID] = true
			}
		}
		entries = append(entries, e)
	}
	for _, c := range t.Summary {
		if !referenced[c.ID] {
			entries = append(entries, outlineEntry{label: "{}", text: c.Title, topic: c, styleID: c.StyleID, id: c.ID})
		}
	}
	return entries
}

func boundString(b *int) string {
	if b == nil {
		return "-"
	}
	return fmt.Sprint(*b)
}
