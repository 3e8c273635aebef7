package ui

import (
	"fmt"
	"sort"
	"strings"

	"mindnoscape/workbook/internal/model"
)

// SheetList displays the sheets of the open workbook, marking the selected one
func (u *UI) SheetList(sheets []model.SheetView) {
	if len(sheets) == 0 {
		u.Println("No sheets available")
		return
	}
	for _, s := range sheets {
		marker := " "
		if s.Selected {
			marker = u.colorize("*", ColorGreen)
		}
		line := fmt.Sprintf("%s %s %s", marker, u.colorize(fmt.Sprint(s.Index), ColorYellow), s.Title)
		if u.ShowIDs {
			line += " " + u.colorize("["+s.ID+"]", ColorOrange)
		}
		u.Println(line)
	}
}

// SummaryInfo displays a summary and the topics it encloses
func (u *UI) SummaryInfo(s model.SummaryView) {
	u.Printf("Summary: %s\n", s.ID)
	u.Printf("Parent: %s\n", orDash(s.ParentID))
	rng := boundString(s.Start) + ".." + boundString(s.End)
	if !s.Valid {
		rng += " " + u.colorize("(invalid)", ColorRed)
	}
	u.Printf("Range: %s\n", rng)
	u.Printf("Topic: %s\n", orDash(s.TopicID))
	u.Printf("Style: %s\n", orDash(s.StyleID))
	if len(s.Enclosed) > 0 {
		u.Printf("Encloses: %s\n", strings.Join(s.Enclosed, ", "))
	}
	if s.Orphan {
		u.Warning("summary is not attached to the workbook")
	}
	if !s.Modified.IsZero() {
		u.Info(fmt.Sprintf("Modified %s by %s", s.Modified.Format(timeLayout), orDash(s.ModifiedBy)))
	}
}

// StyleList displays the styles of the style sheet
func (u *UI) StyleList(styles []model.StyleView) {
	if len(styles) == 0 {
		u.Println("No styles defined")
		return
	}
	for _, s := range styles {
		line := fmt.Sprintf("%s %s", u.colorize(s.ID, ColorOrange), s.Type)
		if s.Name != "" {
			line += fmt.Sprintf(" '%s'", s.Name)
		}
		line += " " + u.colorize(fmt.Sprintf("(%d refs)", s.References), ColorGray)
		u.Println(line)

		keys := make([]string, 0, len(s.Properties))
		for k := range s.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			u.Printf("  %s: %s\n", k, s.Properties[k])
		}
	}
}

// HistoryStep displays an undone or redone change
func (u *UI) HistoryStep(step model.HistoryStep) {
	value := "-"
	if step.Value != nil {
		value = fmt.Sprint(step.Value)
	}
	msg := fmt.Sprintf("%s %s: %s", step.Action, step.Type, value)
	if step.SourceID != "" {
		msg = fmt.Sprintf("%s %s of %s: %s", step.Action, step.Type, step.SourceID, value)
	}
	if step.Changes > 1 {
		msg += fmt.Sprintf(" (+%d more)", step.Changes-1)
	}
	u.Success(msg)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
