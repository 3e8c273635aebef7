package model

import "time"

// SheetView describes one sheet of the open workbook.
type SheetView struct {
	Index    int
	ID       string
	Title    string
	RootID   string
	Selected bool
}

// SummaryView describes a summary and the topics it covers.
type SummaryView struct {
	ID         string
	ParentID   string
	Start      *int
	End        *int
	Valid      bool
	TopicID    string
	StyleID    string
	Enclosed   []string
	Orphan     bool
	Modified   time.Time
	ModifiedBy string
}

// StyleView describes one style of the style sheet.
type StyleView struct {
	ID         string
	Type       string
	Name       string
	Properties map[string]string
	References int
}

// HistoryStep describes an undone or redone command by its first change. For an added
// or removed child, Value is the id of the child.
type HistoryStep struct {
	Action   string
	SourceID string
	Type     string
	Value    any
	Changes  int
}
