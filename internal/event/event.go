// Package event handles change notification between workbook elements and whoever
// listens to them, without the elements knowing their listeners.
package event

import (
	"context"

	"mindnoscape/workbook/internal/log"
)

// Type names the property or relation an event is about.
type Type string

const (
	Style       Type = "style"
	TopicRefID  Type = "topicRefId"
	StartIndex  Type = "startIndex"
	EndIndex    Type = "endIndex"
	Range       Type = "range"
	TitleText   Type = "titleText"
	TopicAdd    Type = "topicAdd"
	TopicRemove Type = "topicRemove"

	SummaryAdd    Type = "summaryAdd"
	SummaryRemove Type = "summaryRemove"
	SheetAdd      Type = "sheetAdd"
	SheetRemove   Type = "sheetRemove"
	RootTopic     Type = "rootTopic"

	// All matches every type when registering.
	All Type = "*"
)

// Kind tells value changes apart from child additions and removals.
type Kind int

const (
	ValueChange Kind = iota
	TargetChange
)

// String returns the kind name.
func (k Kind) String() string {
	if k == TargetChange {
		return "target"
	}
	return "value"
}

// Event is one notification. OldValue/NewValue are set for ValueChange events;
// Target/Index for TargetChange events. A nil value means "absent".
type Event struct {
	Kind     Kind
	Source   Source
	Type     Type
	OldValue any
	NewValue any
	Target   any
	Index    int
}

// Source is anything listeners can register on.
type Source interface {
	RegisterListener(t Type, l Listener) *Registration
}

// Listener receives events.
type Listener interface {
	HandleEvent(e Event)
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(e Event)

// HandleEvent calls f(e).
func (f ListenerFunc) HandleEvent(e Event) { f(e) }

type entry struct {
	listener Listener
	reg      *Registration
}

// Registration is returned by Register and removes the listener when unregistered.
type Registration struct {
	support *Support
	source  Source
	typ     Type
	entry   *entry
}

// Unregister removes the listener. Calling it more than once is a no-op.
func (r *Registration) Unregister() {
	if r == nil || r.entry == nil {
		return
	}
	r.support.remove(r)
	r.entry = nil
}

// Valid reports whether the listener is still registered.
func (r *Registration) Valid() bool {
	return r != nil && r.entry != nil
}

// Support dispatches events for one workbook. Dispatch is synchronous: every listener
// registered when Dispatch starts has run by the time it returns. It is not safe for
// concurrent use; the owning workbook is the lock domain.
type Support struct {
	bySource map[Source]map[Type][]*entry
	global   map[Type][]*entry
	logger   *log.Logger
}

// NewSupport creates an empty Support. logger may be nil.
func NewSupport(logger *log.Logger) *Support {
	return &Support{
		bySource: make(map[Source]map[Type][]*entry),
		global:   make(map[Type][]*entry),
		logger:   logger,
	}
}

// Register adds a listener for events of type t from source. Use All for every type.
func (s *Support) Register(source Source, t Type, l Listener) *Registration {
	e := &entry{listener: l}
	reg := &Registration{support: s, source: source, typ: t, entry: e}
	e.reg = reg
	byType, ok := s.bySource[source]
	if !ok {
		byType = make(map[Type][]*entry)
		s.bySource[source] = byType
	}
	byType[t] = append(byType[t], e)
	return reg
}

// RegisterGlobal adds a listener for events of type t from any source.
func (s *Support) RegisterGlobal(t Type, l Listener) *Registration {
	e := &entry{listener: l}
	reg := &Registration{support: s, typ: t, entry: e}
	e.reg = reg
	s.global[t] = append(s.global[t], e)
	return reg
}

func (s *Support) remove(r *Registration) {
	if r.source == nil {
		s.global[r.typ] = without(s.global[r.typ], r.entry)
		if len(s.global[r.typ]) == 0 {
			delete(s.global, r.typ)
		}
		return
	}
	byType := s.bySource[r.source]
	if byType == nil {
		return
	}
	byType[r.typ] = without(byType[r.typ], r.entry)
	if len(byType[r.typ]) == 0 {
		delete(byType, r.typ)
	}
	if len(byType) == 0 {
		delete(s.bySource, r.source)
	}
}

func without(entries []*entry, target *entry) []*entry {
	out := entries[:0:0]
	for _, e := range entries {
		if e != target {
			out = append(out, e)
		}
	}
	return out
}

// DispatchValueChange notifies listeners that property t of source changed.
// It fires even when oldValue equals newValue.
func (s *Support) DispatchValueChange(source Source, t Type, oldValue, newValue any) {
	s.Dispatch(Event{Kind: ValueChange, Source: source, Type: t, OldValue: oldValue, NewValue: newValue})
}

// DispatchTargetChange notifies listeners that target was added to or removed from
// source at index.
func (s *Support) DispatchTargetChange(source Source, t Type, target any, index int) {
	s.Dispatch(Event{Kind: TargetChange, Source: source, Type: t, Target: target, Index: index})
}

// Dispatch delivers e to source listeners first, then global listeners.
func (s *Support) Dispatch(e Event) {
	var targets []*entry
	if byType := s.bySource[e.Source]; byType != nil {
		targets = append(targets, byType[e.Type]...)
		if e.Type != All {
			targets = append(targets, byType[All]...)
		}
	}
	targets = append(targets, s.global[e.Type]...)
	if e.Type != All {
		targets = append(targets, s.global[All]...)
	}

	for _, t := range targets {
		// Unregistered by an earlier listener during this dispatch.
		if !t.reg.Valid() {
			continue
		}
		s.deliver(t.listener, e)
	}
}

func (s *Support) deliver(l Listener, e Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(context.Background(), "Panic in event listener", log.Fields{
				"type":  string(e.Type),
				"panic": r,
			})
		}
	}()
	l.HandleEvent(e)
}

// ListenerCount returns how many listeners are registered, for diagnostics.
func (s *Support) ListenerCount() int {
	n := 0
	for _, byType := range s.bySource {
		for _, entries := range byType {
			n += len(entries)
		}
	}
	for _, entries := range s.global {
		n += len(entries)
	}
	return n
}
