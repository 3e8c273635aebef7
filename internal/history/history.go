// Package history records changes of a workbook and replays them for undo and redo.
package history

import (
	"errors"
	"fmt"

	"mindnoscape/workbook/internal/event"
)

// Errors returned when there is nothing to replay.
var (
	ErrNothingToUndo = errors.New("no operations to undo")
	ErrNothingToRedo = errors.New("no operations to redo")
)

// Applier writes a recorded value back to the element that reported it.
type Applier interface {
	ApplyValue(t event.Type, value any) error
}

// TargetApplier places or removes a child of the element that reported it. kind is the
// placement recorded with the operation and may be empty.
type TargetApplier interface {
	ApplyTarget(t event.Type, target any, index int, kind string, add bool) error
}

// Placed is implemented by children that remember the kind of their last placement.
type Placed interface {
	PlacementKind() string
}

// Operation is one recorded change: a value change, or a child added to or removed
// from Source at Index.
type Operation struct {
	Kind     event.Kind
	Source   event.Source
	Type     event.Type
	OldValue any
	NewValue any
	Target   any
	Index    int
	// Placement is the attachment kind of a topic target when it was recorded.
	Placement string
}

// Step is the group of operations one command produced. It is undone and redone as a
// whole.
type Step struct {
	Operations []Operation
}

// Primary returns the first operation of the step.
func (s *Step) Primary() *Operation {
	if len(s.Operations) == 0 {
		return nil
	}
	return &s.Operations[0]
}

// ValueTypes are the value changes recorded by default. startIndex and endIndex are
// left out because every bound change also reports the whole range.
var ValueTypes = []event.Type{event.TitleText, event.Style, event.TopicRefID, event.Range}

// TargetTypes are the child additions and removals recorded by default.
var TargetTypes = []event.Type{
	event.TopicAdd, event.TopicRemove,
	event.SummaryAdd, event.SummaryRemove,
	event.SheetAdd, event.SheetRemove,
}

// Undoable lists every event type the manager records by default.
var Undoable = append(append([]event.Type{}, ValueTypes...), TargetTypes...)

var addTypes = map[event.Type]bool{
	event.TopicAdd:   true,
	event.SummaryAdd: true,
	event.SheetAdd:   true,
}

// Manager keeps a linear history with a cursor, like an editor undo stack: recording a
// new step after an undo drops the redo tail.
type Manager struct {
	history      []Step
	historyIndex int
	replaying    bool
	regs         []*event.Registration

	depth   int
	current []Operation
}

// NewManager creates a Manager recording the given event types from every source of
// support. With no types, Undoable is used.
func NewManager(support *event.Support, types ...event.Type) *Manager {
	if len(types) == 0 {
		types = Undoable
	}
	hm := &Manager{historyIndex: -1}
	for _, t := range types {
		hm.regs = append(hm.regs, support.RegisterGlobal(t, event.ListenerFunc(hm.record)))
	}
	return hm
}

func (hm *Manager) record(e event.Event) {
	if hm.replaying {
		return
	}
	op := Operation{Kind: e.Kind, Source: e.Source, Type: e.Type}
	switch e.Kind {
	case event.ValueChange:
		if _, ok := e.Source.(Applier); !ok {
			return
		}
		op.OldValue, op.NewValue = e.OldValue, e.NewValue
	case event.TargetChange:
		if _, ok := e.Source.(TargetApplier); !ok {
			return
		}
		op.Target, op.Index = e.Target, e.Index
		if p, ok := e.Target.(Placed); ok {
			op.Placement = p.PlacementKind()
		}
	}
	hm.Add(op)
}

// Begin opens a step. Operations recorded until the matching Commit are undone
// together. Calls nest; only the outermost Commit closes the step.
func (hm *Manager) Begin() {
	hm.depth++
}

// Commit closes the step opened by Begin. An empty step is dropped.
func (hm *Manager) Commit() {
	if hm.depth == 0 {
		return
	}
	hm.depth--
	if hm.depth > 0 || len(hm.current) == 0 {
		return
	}
	ops := hm.current
	hm.current = nil
	hm.push(Step{Operations: ops})
}

// Add records an operation: into the open step, or as a step of its own.
func (hm *Manager) Add(op Operation) {
	if hm.depth > 0 {
		hm.current = append(hm.current, op)
		return
	}
	hm.push(Step{Operations: []Operation{op}})
}

func (hm *Manager) push(step Step) {
	hm.history = append(hm.history[:hm.historyIndex+1], step)
	hm.historyIndex++
}

// Undo reverts the step at the cursor, last operation first, and returns it.
func (hm *Manager) Undo() (*Step, error) {
	if !hm.CanUndo() {
		return nil, ErrNothingToUndo
	}
	step := hm.history[hm.historyIndex]
	for i := len(step.Operations) - 1; i >= 0; i-- {
		op := step.Operations[i]
		if err := hm.apply(op, true); err != nil {
			return nil, fmt.Errorf("failed to undo %s: %w", op.Type, err)
		}
	}
	hm.historyIndex--
	return &step, nil
}

// Redo re-applies the step after the cursor and returns it.
func (hm *Manager) Redo() (*Step, error) {
	if !hm.CanRedo() {
		return nil, ErrNothingToRedo
	}
	step := hm.history[hm.historyIndex+1]
	for _, op := range step.Operations {
		if err := hm.apply(op, false); err != nil {
			return nil, fmt.Errorf("failed to redo %s: %w", op.Type, err)
		}
	}
	hm.historyIndex++
	return &step, nil
}

func (hm *Manager) apply(op Operation, undo bool) error {
	hm.replaying = true
	defer func() { hm.replaying = false }()

	if op.Kind == event.TargetChange {
		ta, ok := op.Source.(TargetApplier)
		if !ok {
			return fmt.Errorf("source cannot replay %s", op.Type)
		}
		// Undoing an addition removes; undoing a removal adds back.
		add := addTypes[op.Type] != undo
		return ta.ApplyTarget(op.Type, op.Target, op.Index, op.Placement, add)
	}

	a, ok := op.Source.(Applier)
	if !ok {
		return fmt.Errorf("source cannot replay %s", op.Type)
	}
	if undo {
		return a.ApplyValue(op.Type, op.OldValue)
	}
	return a.ApplyValue(op.Type, op.NewValue)
}

// CanUndo reports whether Undo has anything to do.
func (hm *Manager) CanUndo() bool { return hm.historyIndex >= 0 }

// CanRedo reports whether Redo has anything to do.
func (hm *Manager) CanRedo() bool { return hm.historyIndex < len(hm.history)-1 }

// Len returns the number of recorded steps, including undone ones.
func (hm *Manager) Len() int { return len(hm.history) }

// Reset clears the history.
func (hm *Manager) Reset() {
	hm.history = nil
	hm.historyIndex = -1
	hm.current = nil
	hm.depth = 0
}

// Close stops recording.
func (hm *Manager) Close() {
	for _, r := range hm.regs {
		r.Unregister()
	}
	hm.regs = nil
}
