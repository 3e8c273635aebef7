package data

import (
	"fmt"
	"strconv"
	"time"

	"mindnoscape/workbook/internal/event"
	"mindnoscape/workbook/internal/history"
	"mindnoscape/workbook/internal/model"
	"mindnoscape/workbook/internal/workbook"
)

// OpenWorkbook is a workbook loaded for editing. Value changes are buffered as journal
// entries until the next save and recorded for undo.
type OpenWorkbook struct {
	Record   *model.WorkbookRecord
	Workbook *workbook.Workbook
	History  *history.Manager

	pending []model.JournalEntry
	regs    []*event.Registration
	clock   func() time.Time
}

func newOpenWorkbook(record *model.WorkbookRecord, w *workbook.Workbook, m *WorkbookManager) *OpenWorkbook {
	ow := &OpenWorkbook{
		Record:   record,
		Workbook: w,
		History:  history.NewManager(w.EventSupport()),
		clock:    time.Now,
	}
	support := w.EventSupport()
	for _, t := range history.ValueTypes {
		ow.regs = append(ow.regs, support.RegisterGlobal(t, event.ListenerFunc(ow.journal)))
	}
	if m.metrics != nil {
		ow.regs = append(ow.regs, m.metrics.Observe(support))
	}
	return ow
}

func (ow *OpenWorkbook) journal(e event.Event) {
	if e.Kind != event.ValueChange {
		return
	}
	el, ok := e.Source.(workbook.Element)
	if !ok {
		return
	}
	ow.pending = append(ow.pending, model.JournalEntry{
		WorkbookID: ow.Record.ID,
		SourceID:   el.ID(),
		EventType:  string(e.Type),
		OldValue:   journalValue(e.OldValue),
		NewValue:   journalValue(e.NewValue),
		ModifiedBy: ow.Workbook.Modifier(),
		Created:    ow.clock(),
	})
}

// Pending returns the number of journal entries waiting for the next save.
func (ow *OpenWorkbook) Pending() int { return len(ow.pending) }

// Name returns the stored workbook name.
func (ow *OpenWorkbook) Name() string { return ow.Record.Name }

// Close stops journaling, history recording and metrics for the workbook. Unsaved
// entries are dropped.
func (ow *OpenWorkbook) Close() {
	for _, r := range ow.regs {
		r.Unregister()
	}
	ow.regs = nil
	ow.History.Close()
	ow.pending = nil
}

func (ow *OpenWorkbook) takePending() []model.JournalEntry {
	entries := ow.pending
	ow.pending = nil
	return entries
}

func journalValue(v any) *string {
	var s string
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		s = val
	case int:
		s = strconv.Itoa(val)
	case fmt.Stringer:
		s = val.String()
	default:
		s = fmt.Sprint(val)
	}
	return &s
}
