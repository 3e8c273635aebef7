package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	support *Support
	name    string
}

func (f *fakeSource) RegisterListener(t Type, l Listener) *Registration {
	return f.support.Register(f, t, l)
}

type recorder struct {
	events []Event
}

func (r *recorder) HandleEvent(e Event) { r.events = append(r.events, e) }

func TestDispatchIsSynchronousAndScopedBySource(t *testing.T) {
	s := NewSupport(nil)
	a := &fakeSource{support: s, name: "a"}
	b := &fakeSource{support: s, name: "b"}

	ra, rb := &recorder{}, &recorder{}
	a.RegisterListener(Style, ra)
	b.RegisterListener(Style, rb)

	s.DispatchValueChange(a, Style, "s1", "s2")

	require.Len(t, ra.events, 1)
	assert.Empty(t, rb.events)
	ev := ra.events[0]
	assert.Equal(t, ValueChange, ev.Kind)
	assert.Same(t, a, ev.Source)
	assert.Equal(t, "s1", ev.OldValue)
	assert.Equal(t, "s2", ev.NewValue)
}

func TestDispatchFiresOnEqualValues(t *testing.T) {
	s := NewSupport(nil)
	src := &fakeSource{support: s}
	r := &recorder{}
	src.RegisterListener(TopicRefID, r)

	s.DispatchValueChange(src, TopicRefID, "t1", "t1")
	s.DispatchValueChange(src, TopicRefID, nil, nil)

	assert.Len(t, r.events, 2)
}

func TestTypeFilteringAndWildcards(t *testing.T) {
	s := NewSupport(nil)
	src := &fakeSource{support: s}
	onlyRange, everything, global, globalAll := &recorder{}, &recorder{}, &recorder{}, &recorder{}

	src.RegisterListener(Range, onlyRange)
	src.RegisterListener(All, everything)
	s.RegisterGlobal(StartIndex, global)
	s.RegisterGlobal(All, globalAll)

	s.DispatchValueChange(src, StartIndex, nil, 2)
	s.DispatchValueChange(src, Range, nil, "2,")
	s.DispatchTargetChange(src, TopicAdd, "child", 0)

	assert.Len(t, onlyRange.events, 1)
	assert.Len(t, everything.events, 3)
	assert.Len(t, global.events, 1)
	assert.Len(t, globalAll.events, 3)

	target := everything.events[2]
	assert.Equal(t, TargetChange, target.Kind)
	assert.Equal(t, "child", target.Target)
	assert.Equal(t, "target", target.Kind.String())
}

func TestUnregister(t *testing.T) {
	s := NewSupport(nil)
	src := &fakeSource{support: s}
	r := &recorder{}
	reg := src.RegisterListener(Style, r)
	greg := s.RegisterGlobal(Style, r)
	assert.Equal(t, 2, s.ListenerCount())

	reg.Unregister()
	reg.Unregister()
	assert.False(t, reg.Valid())
	s.DispatchValueChange(src, Style, nil, "x")
	assert.Len(t, r.events, 1, "only the global listener remains")

	greg.Unregister()
	assert.Equal(t, 0, s.ListenerCount())
	s.DispatchValueChange(src, Style, nil, "y")
	assert.Len(t, r.events, 1)
}

func TestUnregisterDuringDispatch(t *testing.T) {
	s := NewSupport(nil)
	src := &fakeSource{support: s}
	second := &recorder{}
	var secondReg *Registration

	src.RegisterListener(Style, ListenerFunc(func(Event) { secondReg.Unregister() }))
	secondReg = src.RegisterListener(Style, second)

	s.DispatchValueChange(src, Style, nil, "x")
	assert.Empty(t, second.events)
}

func TestPanickingListenerDoesNotStopOthers(t *testing.T) {
	s := NewSupport(nil)
	src := &fakeSource{support: s}
	after := &recorder{}
	src.RegisterListener(Style, ListenerFunc(func(Event) { panic("listener bug") }))
	src.RegisterListener(Style, after)

	assert.NotPanics(t, func() { s.DispatchValueChange(src, Style, nil, "x") })
	assert.Len(t, after.events, 1)
}
