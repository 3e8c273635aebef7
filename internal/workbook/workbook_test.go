package workbook

import (
	"strconv"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindnoscape/workbook/internal/dom"
	"mindnoscape/workbook/internal/event"
)

type seqFactory struct {
	prefix string
	n      int
}

func (f *seqFactory) NewID() string {
	f.n++
	return f.prefix + strconv.Itoa(f.n)
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recorder struct{ events []event.Event }

func (r *recorder) HandleEvent(e event.Event) { r.events = append(r.events, e) }

// fixture builds a workbook with one sheet whose root topic has three attached
// children (a, b, c) and one detached child (d).
type fixture struct {
	w     *Workbook
	clock *fakeClock
	sheet *Sheet
	root  *Topic
	kids  []*Topic
	loose *Topic
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	w := New(WithIDFactory(&seqFactory{prefix: "e"}), WithClock(clock.Now), WithModifier("alice"))

	sheet := w.CreateSheet()
	sheet.SetTitle("Sheet 1")
	root := w.CreateTopic()
	root.SetTitle("Central")
	require.NoError(t, sheet.ReplaceRootTopic(root))
	require.NoError(t, w.AddSheet(sheet, -1))

	f := &fixture{w: w, clock: clock, sheet: sheet, root: root}
	for _, title := range []string{"a", "b", "c"} {
		c := w.CreateTopic()
		c.SetTitle(title)
		require.NoError(t, root.Add(c, -1, Attached))
		f.kids = append(f.kids, c)
	}
	f.loose = w.CreateTopic()
	f.loose.SetTitle("d")
	require.NoError(t, root.Add(f.loose, 1, Detached))
	return f
}

func TestNewWorkbookStructure(t *testing.T) {
	f := newFixture(t)

	assert.Len(t, f.w.Sheets(), 1)
	assert.Same(t, f.sheet, f.w.PrimarySheet())
	assert.Same(t, f.root, f.sheet.RootTopic())
	assert.True(t, f.root.IsRoot())
	assert.Nil(t, f.root.Parent())
	assert.Same(t, f.w, f.sheet.Parent())
	assert.Equal(t, 0, f.sheet.Index())

	assert.Equal(t, f.kids, f.root.Children(Attached))
	assert.Equal(t, []*Topic{f.loose}, f.root.Children(Detached))
	assert.Len(t, f.root.AllChildren(), 4)
	assert.Same(t, f.root, f.kids[1].Parent())
	assert.Equal(t, Attached, f.kids[1].Type())
	assert.Equal(t, Detached, f.loose.Type())
	assert.Equal(t, 1, f.kids[1].Index())
	assert.Same(t, f.sheet, f.kids[2].OwnedSheet())

	assert.Same(t, f.kids[0], f.w.FindTopic(f.kids[0].ID()))
	assert.Same(t, f.sheet, f.w.FindSheet(f.sheet.ID()))
	assert.NotNil(t, f.w.FindElement(f.root.ID()))
	assert.Equal(t, "TPC#"+f.root.ID()+"{Central}", f.root.String())
}

func TestTopicAddRejectsCyclesAndUnknownKinds(t *testing.T) {
	f := newFixture(t)

	assert.Error(t, f.kids[0].Add(f.root, -1, Attached))
	assert.Error(t, f.kids[0].Add(f.kids[0], -1, Attached))
	assert.Error(t, f.root.Add(f.w.CreateTopic(), -1, "floating"))
	assert.Error(t, f.root.Add(New().CreateTopic(), -1, Attached))
}

func TestTopicMoveKeepsRegistration(t *testing.T) {
	f := newFixture(t)
	moved := f.kids[2]

	require.NoError(t, f.kids[0].Add(moved, 0, Attached))
	assert.Same(t, f.kids[0], moved.Parent())
	assert.Len(t, f.root.Children(Attached), 2)
	assert.Same(t, moved, f.w.FindTopic(moved.ID()))
}

func TestTopicRemoveUnregistersSubtree(t *testing.T) {
	f := newFixture(t)
	child := f.kids[0]
	grandchild := f.w.CreateTopic()
	require.NoError(t, child.Add(grandchild, -1, Attached))
	s := f.w.CreateSummary()
	require.NoError(t, child.AddSummary(s))
	require.Same(t, s, f.w.FindSummary(s.ID()))

	require.NoError(t, f.root.Remove(child))
	assert.True(t, child.IsOrphan())
	assert.True(t, s.IsOrphan())
	assert.Nil(t, f.w.FindTopic(child.ID()))
	assert.Nil(t, f.w.FindTopic(grandchild.ID()))
	assert.Nil(t, f.w.FindSummary(s.ID()))
	assert.Error(t, f.root.Remove(child))

	// Removed elements keep their canonical wrapper so they can be put back.
	assert.Same(t, child, f.w.TopicOf(child.Implementation()))
	assert.Same(t, s, f.w.SummaryOf(s.Implementation()))

	require.NoError(t, f.root.Add(child, 0, Attached))
	assert.Same(t, grandchild, f.w.FindTopic(grandchild.ID()))
	assert.Same(t, s, f.w.FindSummary(s.ID()))
}

func TestAddRejectsDuplicateIDs(t *testing.T) {
	f := newFixture(t)
	original := f.kids[0]

	clash := f.w.TopicOf(etree.NewElement(dom.TagTopic))
	dom.SetAttribute(clash.Implementation(), dom.AttrID, original.ID())
	err := f.root.Add(clash, -1, Attached)
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Len(t, f.root.Children(Attached), 3)
	assert.Same(t, original.Implementation(), f.w.FindElement(original.ID()))
	assert.Same(t, original, f.w.FindTopic(original.ID()))
	assert.True(t, clash.IsOrphan())

	// A clash deeper in the subtree is found before anything is attached.
	holder := f.w.CreateTopic()
	inner := f.w.TopicOf(etree.NewElement(dom.TagTopic))
	dom.SetAttribute(inner.Implementation(), dom.AttrID, f.kids[1].ID())
	require.NoError(t, holder.Add(inner, -1, Attached))
	assert.ErrorIs(t, f.root.Add(holder, -1, Attached), ErrDuplicateID)
	assert.Nil(t, f.w.FindTopic(holder.ID()))

	sum := f.w.SummaryOf(etree.NewElement(dom.TagSummary))
	dom.SetAttribute(sum.Implementation(), dom.AttrID, original.ID())
	assert.ErrorIs(t, f.root.AddSummary(sum), ErrDuplicateID)
	assert.Empty(t, f.root.Summaries())

	// Moving an attached topic keeps its own ids.
	require.NoError(t, f.kids[2].Add(original, -1, Attached))
	assert.Same(t, original, f.w.FindTopic(original.ID()))
}

func TestTopicEvents(t *testing.T) {
	f := newFixture(t)
	r := &recorder{}
	f.root.RegisterListener(event.All, r)

	child := f.w.CreateTopic()
	require.NoError(t, f.root.Add(child, 1, Attached))
	f.root.SetTitle("Center")
	require.NoError(t, f.root.Remove(child))

	require.Len(t, r.events, 3)
	assert.Equal(t, event.TopicAdd, r.events[0].Type)
	assert.Same(t, child, r.events[0].Target)
	assert.Equal(t, 1, r.events[0].Index)
	assert.Equal(t, event.TitleText, r.events[1].Type)
	assert.Equal(t, "Central", r.events[1].OldValue)
	assert.Equal(t, "Center", r.events[1].NewValue)
	assert.Equal(t, event.TopicRemove, r.events[2].Type)
}

func TestSheetAddRemove(t *testing.T) {
	f := newFixture(t)
	r := &recorder{}
	f.w.RegisterListener(event.All, r)

	second := f.w.CreateSheet()
	require.NoError(t, second.ReplaceRootTopic(f.w.CreateTopic()))
	require.NoError(t, f.w.AddSheet(second, 0))
	assert.Equal(t, []*Sheet{second, f.sheet}, f.w.Sheets())
	assert.Same(t, second.RootTopic(), f.w.FindTopic(second.RootTopic().ID()))
	assert.Error(t, f.w.AddSheet(second, -1))

	require.NoError(t, f.w.RemoveSheet(second))
	assert.Nil(t, f.w.FindTopic(second.RootTopic().ID()))
	assert.True(t, second.IsOrphan())
	assert.Equal(t, -1, second.Index())

	require.Len(t, r.events, 2)
	assert.Equal(t, event.SheetAdd, r.events[0].Type)
	assert.Equal(t, event.SheetRemove, r.events[1].Type)
}

func TestReplaceRootTopic(t *testing.T) {
	f := newFixture(t)
	oldRoot := f.root
	newRoot := f.w.CreateTopic()

	require.NoError(t, f.sheet.ReplaceRootTopic(newRoot))
	assert.Same(t, newRoot, f.sheet.RootTopic())
	assert.Nil(t, f.w.FindTopic(oldRoot.ID()))
	assert.Nil(t, f.w.FindTopic(f.kids[0].ID()))
	assert.Same(t, newRoot, f.w.FindTopic(newRoot.ID()))
}

func TestModificationCascade(t *testing.T) {
	f := newFixture(t)
	f.clock.Advance(time.Minute)
	f.w.SetModifier("bob")

	f.kids[1].SetTitle("b2")

	want := f.clock.now.UnixMilli()
	for _, el := range []Element{f.kids[1], f.root, f.sheet} {
		assert.Equal(t, want, el.ModifiedTime().UnixMilli(), el.ID())
		assert.Equal(t, "bob", el.ModifiedBy())
	}
	assert.Equal(t, want, f.w.ModifiedTime().UnixMilli())
	assert.Equal(t, "bob", f.w.ModifiedBy())
	assert.NotEqual(t, want, f.kids[0].ModifiedTime().UnixMilli(), "siblings are not stamped")
}

func TestModifiedTimeNeverGoesBackwards(t *testing.T) {
	f := newFixture(t)
	before := f.kids[0].ModifiedTime()

	f.clock.Advance(-time.Hour)
	f.kids[0].SetTitle("again")
	assert.Equal(t, before, f.kids[0].ModifiedTime())
}

func TestTopicStyleRefs(t *testing.T) {
	f := newFixture(t)
	refs := f.w.StyleRefs()

	f.kids[0].SetStyleID("s1")
	assert.Equal(t, 1, refs.Count("s1"))

	require.NoError(t, f.root.Remove(f.kids[0]))
	assert.Equal(t, 0, refs.Count("s1"))

	f.kids[0].SetStyleID("s2")
	assert.Equal(t, 0, refs.Count("s2"), "detached topics hold no references")
}

func TestMarshalParseRoundTrip(t *testing.T) {
	f := newFixture(t)
	st := f.w.StyleSheet().CreateStyle("summary")
	st.SetProperty("line-color", "#333333")
	f.w.StyleSheet().AddStyle(st)

	s := f.w.CreateSummary()
	require.NoError(t, f.root.AddSummary(s))
	s.SetStartIndex(0)
	s.SetEndIndex(1)
	s.SetStyleID(st.ID())
	summaryTopic := f.w.CreateTopic()
	summaryTopic.SetTitle("ab")
	require.NoError(t, f.root.Add(summaryTopic, -1, SummaryTopics))
	s.SetTopicID(summaryTopic.ID())

	content, styles, err := f.w.Marshal()
	require.NoError(t, err)

	parsed, err := Parse(content, styles, WithIDFactory(&seqFactory{prefix: "p"}))
	require.NoError(t, err)

	ps := parsed.FindSummary(s.ID())
	require.NotNil(t, ps)
	assert.Equal(t, 0, ps.StartIndex())
	assert.Equal(t, 1, ps.EndIndex())
	assert.Equal(t, "ab", ps.Topic().Title())
	assert.Equal(t, []string{"a", "b"}, titles(ps.EnclosingTopics()))
	assert.Equal(t, 1, parsed.StyleRefs().Count(st.ID()))
	assert.Equal(t, "#333333", parsed.StyleSheet().FindStyle(st.ID()).Property("line-color"))
	assert.Equal(t, "Sheet 1", parsed.PrimarySheet().Title())
	assert.Equal(t, f.w.ModifiedTime(), parsed.ModifiedTime())
}

func TestParseRejectsBadInput(t *testing.T) {
	_, err := Parse([]byte("<not-a-workbook/>"), nil)
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = Parse([]byte("<xmap-content"), nil)
	assert.Error(t, err)

	dup := `<xmap-content><sheet id="s"><topic id="t"><children><topics type="attached">` +
		`<topic id="x"/><topic id="x"/></topics></children></topic></sheet></xmap-content>`
	_, err = Parse([]byte(dup), nil)
	assert.ErrorContains(t, err, "duplicate")
}

func TestParseAssignsMissingIDs(t *testing.T) {
	content := `<xmap-content><sheet><topic><title>root</title><summaries><summary range="0,0"/></summaries></topic></sheet></xmap-content>`
	w, err := Parse([]byte(content), nil, WithIDFactory(&seqFactory{prefix: "n"}))
	require.NoError(t, err)

	root := w.PrimarySheet().RootTopic()
	require.NotEmpty(t, root.ID())
	require.Len(t, root.Summaries(), 1)
	assert.Same(t, root.Summaries()[0], w.FindSummary(root.Summaries()[0].ID()))
}

func TestPruneStyles(t *testing.T) {
	f := newFixture(t)
	ss := f.w.StyleSheet()
	used, unused := ss.CreateStyle("topic"), ss.CreateStyle("topic")
	ss.AddStyle(used)
	ss.AddStyle(unused)
	f.kids[0].SetStyleID(used.ID())

	assert.Equal(t, []string{unused.ID()}, f.w.PruneStyles())
	assert.NotNil(t, ss.FindStyle(used.ID()))
}

func TestApplyValue(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.sheet.ApplyValue(event.TitleText, "Renamed"))
	assert.Equal(t, "Renamed", f.sheet.Title())
	assert.Error(t, f.sheet.ApplyValue(event.Style, "x"))

	require.NoError(t, f.kids[0].ApplyValue(event.Style, "s1"))
	assert.Equal(t, "s1", f.kids[0].StyleID())
	require.NoError(t, f.kids[0].ApplyValue(event.Style, nil))
	assert.Equal(t, "", f.kids[0].StyleID())
	assert.Error(t, f.kids[0].ApplyValue(event.TitleText, 42))
	assert.Error(t, f.kids[0].ApplyValue(event.Range, "1,2"))
}

func titles(topics []*Topic) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		out = append(out, t.Title())
	}
	return out
}
