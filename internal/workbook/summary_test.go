package workbook

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindnoscape/workbook/internal/dom"
	"mindnoscape/workbook/internal/event"
	"mindnoscape/workbook/internal/registry"
)

func TestSummaryCreationAssignsID(t *testing.T) {
	f := newFixture(t)
	s := f.w.CreateSummary()

	assert.NotEmpty(t, s.ID())
	assert.True(t, s.IsOrphan())
	assert.Nil(t, s.Parent())
	assert.Nil(t, f.w.FindSummary(s.ID()), "detached summaries are not resolvable")
	assert.Same(t, f.w, s.OwnedWorkbook())
}

func TestSummaryRangeScenario(t *testing.T) {
	f := newFixture(t)
	s := f.w.CreateSummary()
	require.NoError(t, f.root.AddSummary(s))

	assert.Equal(t, dom.NoIndex, s.StartIndex())
	assert.Equal(t, dom.NoIndex, s.EndIndex())

	s.SetStartIndex(2)
	s.SetEndIndex(5)
	raw, _ := dom.Attribute(s.Implementation(), dom.AttrRange)
	assert.Equal(t, "2,5", raw)

	r := &recorder{}
	s.RegisterListener(event.All, r)
	s.SetEndIndex(-1)

	require.Len(t, r.events, 2)
	assert.Equal(t, event.EndIndex, r.events[0].Type)
	assert.Equal(t, 5, r.events[0].OldValue)
	assert.Nil(t, r.events[0].NewValue)
	assert.Equal(t, event.Range, r.events[1].Type)
	assert.Equal(t, "2,5", r.events[1].OldValue)
	assert.Equal(t, "2,", r.events[1].NewValue)
	assert.Equal(t, 2, s.StartIndex())
	assert.Equal(t, dom.NoIndex, s.EndIndex())
}

func TestSummaryRangeUnsetBothRemovesAttribute(t *testing.T) {
	f := newFixture(t)
	s := f.w.CreateSummary()
	s.SetStartIndex(1)

	r := &recorder{}
	s.RegisterListener(event.Range, r)
	s.SetStartIndex(dom.NoIndex)

	_, ok := dom.Attribute(s.Implementation(), dom.AttrRange)
	assert.False(t, ok)
	require.Len(t, r.events, 1)
	assert.Equal(t, "1,", r.events[0].OldValue)
	assert.Nil(t, r.events[0].NewValue)
}

func TestSummarySettersFireEvenWithoutChange(t *testing.T) {
	f := newFixture(t)
	s := f.w.CreateSummary()
	require.NoError(t, f.root.AddSummary(s))

	counts := map[event.Type]int{}
	s.RegisterListener(event.All, event.ListenerFunc(func(e event.Event) { counts[e.Type]++ }))

	tests := []struct {
		name   string
		set    func()
		fields []event.Type
	}{
		{"style", func() { s.SetStyleID("") }, []event.Type{event.Style}},
		{"topic ref", func() { s.SetTopicID("") }, []event.Type{event.TopicRefID}},
		{"start", func() { s.SetStartIndex(dom.NoIndex) }, []event.Type{event.StartIndex, event.Range}},
		{"end", func() { s.SetEndIndex(dom.NoIndex) }, []event.Type{event.EndIndex, event.Range}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k := range counts {
				delete(counts, k)
			}
			tt.set()
			want := map[event.Type]int{}
			for _, f := range tt.fields {
				want[f]++
			}
			assert.Equal(t, want, counts)
		})
	}
}

func TestSummaryStyleRefCounting(t *testing.T) {
	f := newFixture(t)
	refs := f.w.StyleRefs()
	s := f.w.CreateSummary()
	s.SetStyleID("A")
	assert.Equal(t, 0, refs.Count("A"), "detached summaries hold no references")

	require.NoError(t, f.root.AddSummary(s))
	assert.Equal(t, 1, refs.Count("A"))

	r := &recorder{}
	s.RegisterListener(event.Style, r)
	s.SetStyleID("B")
	assert.Equal(t, 0, refs.Count("A"))
	assert.Equal(t, 1, refs.Count("B"))
	require.Len(t, r.events, 1)
	assert.Equal(t, "A", r.events[0].OldValue)
	assert.Equal(t, "B", r.events[0].NewValue)

	s.SetStyleID("")
	assert.Equal(t, 0, refs.Count("B"))
	assert.Nil(t, r.events[1].NewValue)
}

func TestSummaryLifecycleRoundTrip(t *testing.T) {
	f := newFixture(t)
	s := f.w.CreateSummary()
	s.SetStyleID("A")

	idsBefore := f.w.Registry().IDCount(f.w.Document())
	refsBefore := f.w.StyleRefs().Snapshot()

	require.NoError(t, f.root.AddSummary(s))
	assert.Equal(t, idsBefore+1, f.w.Registry().IDCount(f.w.Document()))
	assert.Same(t, s, f.w.FindSummary(s.ID()))
	assert.Same(t, s.Implementation(), f.w.FindElement(s.ID()))

	require.NoError(t, f.root.RemoveSummary(s))
	assert.Equal(t, idsBefore, f.w.Registry().IDCount(f.w.Document()))
	assert.Equal(t, refsBefore, f.w.StyleRefs().Snapshot())
	assert.Nil(t, f.w.FindSummary(s.ID()))
	assert.Nil(t, f.w.FindElement(s.ID()))
	assert.True(t, s.IsOrphan())
	assert.NotEmpty(t, s.ID(), "the id survives detaching")
	assert.Nil(t, dom.FirstChildByTag(f.root.Implementation(), dom.TagSummaries))
}

func TestSummaryLifecycleViolationsPanic(t *testing.T) {
	f := newFixture(t)
	s := f.w.CreateSummary()

	assertLifecyclePanic(t, func() { s.removeNotify(f.w, f.root) })

	require.NoError(t, f.root.AddSummary(s))
	assertLifecyclePanic(t, func() { s.addNotify(f.w, f.root) })

	// A second summary carrying the same id cannot be attached alongside the first.
	other := f.w.CreateSummary()
	other.Implementation().CreateAttr(dom.AttrID, s.ID())
	assertLifecyclePanic(t, func() { _ = f.kids[0].AddSummary(other) })
}

func assertLifecyclePanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a lifecycle panic")
		err, ok := r.(error)
		require.True(t, ok)
		var lerr *registry.LifecycleError
		assert.True(t, errors.As(err, &lerr))
	}()
	fn()
}

func TestSummaryParent(t *testing.T) {
	f := newFixture(t)
	s := f.w.CreateSummary()
	require.NoError(t, f.kids[1].AddSummary(s))
	assert.Same(t, f.kids[1], s.Parent())
	assert.Same(t, f.sheet, s.OwnedSheet())
	assert.False(t, s.IsOrphan())

	// Placed directly under a topic, without the summaries container.
	stray := f.w.CreateSummary()
	f.kids[2].Implementation().AddChild(stray.Implementation())
	assert.Nil(t, stray.Parent())
	assert.Nil(t, stray.OwnedSheet())
	assert.Nil(t, stray.TopicAt(0))

	// A summaries container under something that is not a topic.
	foreign := f.w.CreateSummary()
	f.sheet.Implementation().CreateElement(dom.TagSummaries).AddChild(foreign.Implementation())
	assert.Nil(t, foreign.Parent())
}

func TestSummaryTopicAt(t *testing.T) {
	f := newFixture(t)
	s := f.w.CreateSummary()
	require.NoError(t, f.root.AddSummary(s))

	tests := []struct {
		index int
		want  *Topic
	}{
		{-1, nil},
		{0, f.kids[0]},
		{1, f.kids[1]},
		{2, f.kids[2]},
		{3, nil},
	}
	for _, tt := range tests {
		assert.Same(t, tt.want, s.TopicAt(tt.index), "index %d", tt.index)
	}
	// The detached child sits between a and b in document order but is never counted.
	assert.NotContains(t, []*Topic{s.TopicAt(0), s.TopicAt(1), s.TopicAt(2)}, f.loose)
}

func TestSummaryEnclosingTopics(t *testing.T) {
	f := newFixture(t)
	s := f.w.CreateSummary()
	require.NoError(t, f.root.AddSummary(s))

	assert.Empty(t, s.EnclosingTopics())
	s.SetStartIndex(1)
	assert.Empty(t, s.EnclosingTopics())
	s.SetEndIndex(2)
	assert.Equal(t, []*Topic{f.kids[1], f.kids[2]}, s.EnclosingTopics())
	s.SetEndIndex(9)
	assert.Equal(t, []*Topic{f.kids[1], f.kids[2]}, s.EnclosingTopics())
	s.SetEndIndex(2)
	s.SetStartIndex(3)
	assert.False(t, s.Range().Valid())
	assert.Empty(t, s.EnclosingTopics())
}

func TestSummaryTopicReference(t *testing.T) {
	f := newFixture(t)
	s := f.w.CreateSummary()
	require.NoError(t, f.root.AddSummary(s))
	assert.Nil(t, s.Topic())

	target := f.w.CreateTopic()
	require.NoError(t, f.root.Add(target, -1, SummaryTopics))
	s.SetTopicID(target.ID())
	assert.Same(t, target, s.Topic())
	assert.Equal(t, "SUM#"+s.ID()+"{"+target.ID()+"}", s.String())

	// Resolution is global: a topic on another sheet is found too.
	other := f.w.CreateSheet()
	otherRoot := f.w.CreateTopic()
	require.NoError(t, other.ReplaceRootTopic(otherRoot))
	require.NoError(t, f.w.AddSheet(other, -1))
	s.SetTopicID(otherRoot.ID())
	assert.Same(t, otherRoot, s.Topic())

	s.SetTopicID("missing")
	assert.Nil(t, s.Topic())
}

func TestSummaryEquality(t *testing.T) {
	f := newFixture(t)
	s := f.w.CreateSummary()

	twin := &Summary{e: s.Implementation(), w: f.w}
	assert.True(t, s.Equal(twin))
	assert.True(t, twin.Equal(s))

	buckets := map[any]int{}
	buckets[s.Implementation()]++
	buckets[twin.Implementation()]++
	assert.Len(t, buckets, 1)

	same := f.w.SummaryOf(s.Implementation())
	assert.Same(t, s, same)

	clone := f.w.CreateSummary()
	clone.Implementation().CreateAttr(dom.AttrID, s.ID())
	assert.False(t, s.Equal(clone), "structurally identical elements are still distinct")
	assert.False(t, s.Equal(nil))
	assert.Nil(t, f.w.SummaryOf(f.root.Implementation()))
}

func TestSummaryModificationCascade(t *testing.T) {
	f := newFixture(t)
	s := f.w.CreateSummary()
	require.NoError(t, f.kids[0].AddSummary(s))

	f.clock.Advance(time.Second)
	f.w.SetModifier("carol")
	s.SetTopicID("t")

	want := f.clock.now
	for _, el := range []Element{s, f.kids[0], f.root, f.sheet} {
		assert.Equal(t, want.UnixMilli(), el.ModifiedTime().UnixMilli(), el.ID())
		assert.Equal(t, "carol", el.ModifiedBy(), el.ID())
	}
	assert.Equal(t, want.UnixMilli(), f.w.ModifiedTime().UnixMilli())
}

func TestSummaryModificationWithoutParent(t *testing.T) {
	f := newFixture(t)
	s := f.w.CreateSummary()
	s.SetStartIndex(0)
	assert.Equal(t, f.clock.now.UnixMilli(), s.ModifiedTime().UnixMilli())
	assert.Equal(t, "alice", s.ModifiedBy())
}

func TestSummaryApplyValue(t *testing.T) {
	f := newFixture(t)
	s := f.w.CreateSummary()
	require.NoError(t, f.root.AddSummary(s))

	r := &recorder{}
	s.RegisterListener(event.All, r)

	require.NoError(t, s.ApplyValue(event.Range, "1,2"))
	assert.Equal(t, dom.Range{Start: 1, End: 2}, s.Range())
	assert.Len(t, r.events, 3)

	require.NoError(t, s.ApplyValue(event.StartIndex, nil))
	assert.Equal(t, dom.NoIndex, s.StartIndex())
	require.NoError(t, s.ApplyValue(event.EndIndex, 0))
	assert.Equal(t, 0, s.EndIndex())

	require.NoError(t, s.ApplyValue(event.Range, nil))
	_, ok := dom.Attribute(s.Implementation(), dom.AttrRange)
	assert.False(t, ok)

	require.NoError(t, s.ApplyValue(event.Style, "S"))
	assert.Equal(t, 1, f.w.StyleRefs().Count("S"))
	require.NoError(t, s.ApplyValue(event.TopicRefID, "T"))
	assert.Equal(t, "T", s.TopicID())

	assert.Error(t, s.ApplyValue(event.TitleText, "x"))
	assert.Error(t, s.ApplyValue(event.StartIndex, "1"))
	assert.Error(t, s.ApplyValue(event.Style, 3))
}
