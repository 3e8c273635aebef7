package workbook

import (
	"time"

	"mindnoscape/workbook/internal/event"
	"mindnoscape/workbook/internal/registry"
)

// Element is what every sheet, topic and summary offers.
type Element interface {
	registry.Adaptable
	event.Source
	ID() string
	IsOrphan() bool
	ModifiedTime() time.Time
	ModifiedBy() string
}

// Styled elements reference one style by id.
type Styled interface {
	StyleID() string
	SetStyleID(id string)
}

// Titled elements carry a title text.
type Titled interface {
	Title() string
	SetTitle(title string)
}

// ValueApplier writes a value previously reported in a value-change event back to the
// element, so the change can be replayed or reverted.
type ValueApplier interface {
	ApplyValue(t event.Type, value any) error
}

// TargetApplier adds or removes a child previously reported in a target-change event.
type TargetApplier interface {
	ApplyTarget(t event.Type, target any, index int, kind string, add bool) error
}

var (
	_ TargetApplier = (*Topic)(nil)
	_ TargetApplier = (*Workbook)(nil)

	_ Element      = (*Sheet)(nil)
	_ Element      = (*Topic)(nil)
	_ Element      = (*Summary)(nil)
	_ Styled       = (*Topic)(nil)
	_ Styled       = (*Summary)(nil)
	_ Titled       = (*Sheet)(nil)
	_ Titled       = (*Topic)(nil)
	_ ValueApplier = (*Sheet)(nil)
	_ ValueApplier = (*Topic)(nil)
	_ ValueApplier = (*Summary)(nil)
	_ event.Source = (*Workbook)(nil)
)

// stringValue turns an event payload back into attribute text. nil means absent.
func stringValue(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", true
	case string:
		return s, true
	default:
		return "", false
	}
}

// indexValue turns an event payload back into a range bound. nil means unset.
func indexValue(v any) (int, bool) {
	switch n := v.(type) {
	case nil:
		return -1, true
	case int:
		return n, true
	default:
		return 0, false
	}
}

// boundValue is the event payload for a range bound: the index, or nil when unset.
func boundValue(index int) any {
	if index < 0 {
		return nil
	}
	return index
}
