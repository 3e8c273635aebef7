package workbook

import (
	"fmt"
	"time"

	"github.com/beevik/etree"

	"mindnoscape/workbook/internal/dom"
	"mindnoscape/workbook/internal/event"
	"mindnoscape/workbook/internal/registry"
)

// Attachment kinds of child topics.
const (
	Attached = "attached"
	Detached = "detached"
	// SummaryTopics holds the topics that summaries point at through topic-id.
	SummaryTopics = "summary"
)

// Topic is a node of the outline.
type Topic struct {
	e        *etree.Element
	w        *Workbook
	attached bool
	// kind of the last placement under a parent, kept after removal
	kind string
}

// ID returns the topic id.
func (t *Topic) ID() string {
	id, _ := dom.Attribute(t.e, dom.AttrID)
	return id
}

// Implementation returns the backing element.
func (t *Topic) Implementation() *etree.Element { return t.e }

// RegisterListener registers l for events on this topic.
func (t *Topic) RegisterListener(typ event.Type, l event.Listener) *event.Registration {
	return t.w.support.Register(t, typ, l)
}

// Title returns the topic title.
func (t *Topic) Title() string { return titleText(t.e) }

// SetTitle changes the topic title.
func (t *Topic) SetTitle(title string) {
	old := titleValue(t.e)
	setTitleText(t.e, title)
	t.w.support.DispatchValueChange(t, event.TitleText, old, titleValue(t.e))
	t.w.updateModified(t.e)
}

// StyleID returns the id of the topic style, or "".
func (t *Topic) StyleID() string {
	id, _ := dom.Attribute(t.e, dom.AttrStyleID)
	return id
}

// SetStyleID changes the topic style. An empty id removes it.
func (t *Topic) SetStyleID(id string) {
	old := dom.AttributeValue(t.e, dom.AttrStyleID)
	if t.attached {
		t.w.refs.Decrease(t.StyleID())
	}
	dom.SetAttribute(t.e, dom.AttrStyleID, id)
	if t.attached {
		t.w.refs.Increase(t.StyleID())
	}
	t.w.support.DispatchValueChange(t, event.Style, old, dom.AttributeValue(t.e, dom.AttrStyleID))
	t.w.updateModified(t.e)
}

// Parent returns the parent topic, or nil for a root or detached topic.
func (t *Topic) Parent() *Topic {
	topics := t.e.Parent()
	if !dom.IsElementByTag(topics, dom.TagTopics) {
		return nil
	}
	children := topics.Parent()
	if !dom.IsElementByTag(children, dom.TagChildren) {
		return nil
	}
	if p := children.Parent(); dom.IsElementByTag(p, dom.TagTopic) {
		return t.w.topicFor(p)
	}
	return nil
}

// IsRoot reports whether the topic is the root topic of a sheet.
func (t *Topic) IsRoot() bool {
	return dom.IsElementByTag(t.e.Parent(), dom.TagSheet)
}

// OwnedSheet returns the sheet containing the topic, or nil.
func (t *Topic) OwnedSheet() *Sheet {
	for p := t.e.Parent(); p != nil; p = p.Parent() {
		if p.Tag == dom.TagSheet {
			return t.w.sheetFor(p)
		}
	}
	return nil
}

// OwnedWorkbook returns the workbook the topic was created by.
func (t *Topic) OwnedWorkbook() *Workbook { return t.w }

// IsOrphan reports whether the topic is detached from the workbook document.
func (t *Topic) IsOrphan() bool { return dom.IsOrphan(t.e, t.w.doc) }

// ModifiedTime returns when the topic or anything below it was last modified.
func (t *Topic) ModifiedTime() time.Time { return modifiedTime(t.e) }

// ModifiedBy returns who last modified the topic.
func (t *Topic) ModifiedBy() string { return modifiedBy(t.e) }

// Type returns the attachment kind under the parent topic, or "" for a root or
// detached topic.
func (t *Topic) Type() string {
	if t.Parent() == nil {
		return ""
	}
	kind, _ := dom.Attribute(t.e.Parent(), dom.AttrType)
	return kind
}

// Index returns the position of the topic among siblings of the same kind, or -1.
func (t *Topic) Index() int {
	if t.Parent() == nil {
		return -1
	}
	return elementIndex(t.e.Parent(), t.e, dom.TagTopic)
}

func subtopicsElement(topic *etree.Element, kind string) *etree.Element {
	children := dom.FirstChildByTag(topic, dom.TagChildren)
	for _, ts := range dom.ChildElementsByTag(children, dom.TagTopics) {
		if v, _ := dom.Attribute(ts, dom.AttrType); v == kind {
			return ts
		}
	}
	return nil
}

func ensureSubtopicsElement(topic *etree.Element, kind string) *etree.Element {
	if ts := subtopicsElement(topic, kind); ts != nil {
		return ts
	}
	ts := dom.EnsureChild(topic, dom.TagChildren).CreateElement(dom.TagTopics)
	ts.CreateAttr(dom.AttrType, kind)
	return ts
}

// Children returns the child topics of the given kind, in order.
func (t *Topic) Children(kind string) []*Topic {
	elems := dom.ChildElementsByTag(subtopicsElement(t.e, kind), dom.TagTopic)
	out := make([]*Topic, 0, len(elems))
	for _, e := range elems {
		out = append(out, t.w.topicFor(e))
	}
	return out
}

// AllChildren returns the child topics of every kind, grouped by kind in document order.
func (t *Topic) AllChildren() []*Topic {
	var out []*Topic
	for _, ts := range dom.ChildElementsByTag(dom.FirstChildByTag(t.e, dom.TagChildren), dom.TagTopics) {
		for _, e := range dom.ChildElementsByTag(ts, dom.TagTopic) {
			out = append(out, t.w.topicFor(e))
		}
	}
	return out
}

// isAncestorOf reports whether t is other or one of its ancestors.
func (t *Topic) isAncestorOf(other *Topic) bool {
	for p := other; p != nil; p = p.Parent() {
		if p == t {
			return true
		}
	}
	return false
}

// Add inserts child under t at index among the children of the given kind. An index
// out of range appends. A child placed under another topic is moved.
func (t *Topic) Add(child *Topic, index int, kind string) error {
	if child == nil || child.w != t.w {
		return fmt.Errorf("failed to add topic: topic belongs to another workbook")
	}
	switch kind {
	case Attached, Detached, SummaryTopics:
	default:
		return fmt.Errorf("failed to add topic %s: unknown kind %q", child.ID(), kind)
	}
	if child.isAncestorOf(t) {
		return fmt.Errorf("failed to add topic %s: would create a cycle", child.ID())
	}
	if child.IsRoot() {
		return fmt.Errorf("failed to add topic %s: topic is a sheet root", child.ID())
	}
	if t.attached {
		if err := t.w.checkIDs(child.e); err != nil {
			return fmt.Errorf("failed to add topic %s: %w", child.ID(), err)
		}
	}
	if old := child.Parent(); old != nil {
		if err := old.Remove(child); err != nil {
			return err
		}
	}

	ts := ensureSubtopicsElement(t.e, kind)
	index = insertChildElement(ts, child.e, dom.TagTopic, index)
	child.kind = kind
	if t.attached {
		child.addNotify(t.w)
	}
	t.w.support.DispatchTargetChange(t, event.TopicAdd, child, index)
	t.w.updateModified(t.e)
	return nil
}

// Remove detaches child from t.
func (t *Topic) Remove(child *Topic) error {
	if child == nil || child.Parent() != t {
		return fmt.Errorf("failed to remove topic: not a child of %s", t.ID())
	}
	ts := child.e.Parent()
	index := elementIndex(ts, child.e, dom.TagTopic)
	child.kind, _ = dom.Attribute(ts, dom.AttrType)
	if child.attached {
		child.removeNotify(t.w)
	}
	ts.RemoveChild(child.e)
	children := ts.Parent()
	dom.RemoveIfEmpty(ts)
	dom.RemoveIfEmpty(children)
	t.w.support.DispatchTargetChange(t, event.TopicRemove, child, index)
	t.w.updateModified(t.e)
	return nil
}

// Summaries returns the summaries owned by the topic, in order.
func (t *Topic) Summaries() []*Summary {
	elems := dom.ChildElementsByTag(dom.FirstChildByTag(t.e, dom.TagSummaries), dom.TagSummary)
	out := make([]*Summary, 0, len(elems))
	for _, e := range elems {
		out = append(out, t.w.summaryFor(e))
	}
	return out
}

// AddSummary appends s to the summaries of t.
func (t *Topic) AddSummary(s *Summary) error {
	return t.InsertSummary(s, -1)
}

// InsertSummary inserts s among the summaries of t at index. An index out of range
// appends.
func (t *Topic) InsertSummary(s *Summary, index int) error {
	if s == nil || s.w != t.w {
		return fmt.Errorf("failed to add summary: summary belongs to another workbook")
	}
	if s.e.Parent() != nil {
		return fmt.Errorf("failed to add summary %s: already placed", s.ID())
	}
	if t.attached {
		if err := t.w.checkIDs(s.e); err != nil {
			return fmt.Errorf("failed to add summary %s: %w", s.ID(), err)
		}
	}
	container := dom.EnsureChild(t.e, dom.TagSummaries)
	index = insertChildElement(container, s.e, dom.TagSummary, index)
	if t.attached {
		s.addNotify(t.w, t)
	}
	t.w.support.DispatchTargetChange(t, event.SummaryAdd, s, index)
	t.w.updateModified(t.e)
	return nil
}

// RemoveSummary detaches s from t.
func (t *Topic) RemoveSummary(s *Summary) error {
	if s == nil || s.Parent() != t {
		return fmt.Errorf("failed to remove summary: not owned by %s", t.ID())
	}
	container := s.e.Parent()
	index := elementIndex(container, s.e, dom.TagSummary)
	if s.attached {
		s.removeNotify(t.w, t)
	}
	container.RemoveChild(s.e)
	dom.RemoveIfEmpty(container)
	t.w.support.DispatchTargetChange(t, event.SummaryRemove, s, index)
	t.w.updateModified(t.e)
	return nil
}

// PlacementKind returns the attachment kind the topic was last added under or removed
// from, or "" for a topic never placed under a parent.
func (t *Topic) PlacementKind() string { return t.kind }

// ApplyTarget adds or removes a child topic or summary of t, replaying a topicAdd,
// topicRemove, summaryAdd or summaryRemove event.
func (t *Topic) ApplyTarget(typ event.Type, target any, index int, kind string, add bool) error {
	switch typ {
	case event.TopicAdd, event.TopicRemove:
		child, ok := target.(*Topic)
		if !ok {
			return fmt.Errorf("failed to apply %s: unexpected target %v", typ, target)
		}
		if !add {
			return t.Remove(child)
		}
		if kind == "" {
			kind = Attached
		}
		return t.Add(child, index, kind)
	case event.SummaryAdd, event.SummaryRemove:
		s, ok := target.(*Summary)
		if !ok {
			return fmt.Errorf("failed to apply %s: unexpected target %v", typ, target)
		}
		if !add {
			return t.RemoveSummary(s)
		}
		return t.InsertSummary(s, index)
	default:
		return fmt.Errorf("failed to apply %s: not a topic relation", typ)
	}
}

// ApplyValue writes a titleText or style value back.
func (t *Topic) ApplyValue(typ event.Type, value any) error {
	v, ok := stringValue(value)
	if !ok {
		return fmt.Errorf("failed to apply %s: unexpected value %v", typ, value)
	}
	switch typ {
	case event.TitleText:
		t.SetTitle(v)
	case event.Style:
		t.SetStyleID(v)
	default:
		return fmt.Errorf("failed to apply %s: not a topic property", typ)
	}
	return nil
}

// String returns a short debug form.
func (t *Topic) String() string {
	return "TPC#" + t.ID() + "{" + t.Title() + "}"
}

func (t *Topic) addNotify(w *Workbook) {
	if t.attached {
		panic(&registry.LifecycleError{Op: "attaching already attached topic", ID: t.ID()})
	}
	w.register(t, t.e)
	w.refs.Increase(t.StyleID())
	t.attached = true
	for _, c := range t.AllChildren() {
		c.addNotify(w)
	}
	for _, s := range t.Summaries() {
		s.addNotify(w, t)
	}
}

func (t *Topic) removeNotify(w *Workbook) {
	if !t.attached {
		panic(&registry.LifecycleError{Op: "detaching never attached topic", ID: t.ID()})
	}
	summaries := t.Summaries()
	for i := len(summaries) - 1; i >= 0; i-- {
		summaries[i].removeNotify(w, t)
	}
	children := t.AllChildren()
	for i := len(children) - 1; i >= 0; i-- {
		children[i].removeNotify(w)
	}
	t.attached = false
	w.refs.Decrease(t.StyleID())
	w.unregister(t, t.e)
}
