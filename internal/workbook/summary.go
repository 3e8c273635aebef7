package workbook

import (
	"fmt"
	"time"

	"github.com/beevik/etree"

	"mindnoscape/workbook/internal/dom"
	"mindnoscape/workbook/internal/event"
	"mindnoscape/workbook/internal/registry"
)

// Summary annotates a contiguous range of the attached children of its parent topic.
// It lives in the parent's <summaries> container and may point at a summary topic
// through topic-id.
//
// Every setter writes through to the backing element, dispatches one value-change
// event per affected property, then stamps the summary and its ancestors as modified.
// Events fire even when the value did not change.
type Summary struct {
	e        *etree.Element
	w        *Workbook
	attached bool
}

// ID returns the summary id. It is assigned when the wrapper is created.
func (s *Summary) ID() string {
	id, _ := dom.Attribute(s.e, dom.AttrID)
	return id
}

// Implementation returns the backing element.
func (s *Summary) Implementation() *etree.Element { return s.e }

// OwnedWorkbook returns the workbook the summary was created by.
func (s *Summary) OwnedWorkbook() *Workbook { return s.w }

// RegisterListener registers l for events on this summary.
func (s *Summary) RegisterListener(t event.Type, l event.Listener) *event.Registration {
	return s.w.support.Register(s, t, l)
}

// Equal reports whether both wrappers stand for the same backing element.
func (s *Summary) Equal(other *Summary) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.e == other.e
}

// String returns "SUM#<id>{<topic-id>}".
func (s *Summary) String() string {
	return "SUM#" + s.ID() + "{" + s.TopicID() + "}"
}

// StyleID returns the id of the summary style, or "".
func (s *Summary) StyleID() string {
	id, _ := dom.Attribute(s.e, dom.AttrStyleID)
	return id
}

// SetStyleID changes the summary style. While attached, the old style loses a
// reference before the write and the new one gains a reference after it.
func (s *Summary) SetStyleID(id string) {
	old := dom.AttributeValue(s.e, dom.AttrStyleID)
	if s.attached {
		s.w.refs.Decrease(s.StyleID())
	}
	dom.SetAttribute(s.e, dom.AttrStyleID, id)
	if s.attached {
		s.w.refs.Increase(s.StyleID())
	}
	s.fireValueChange(event.Style, old, dom.AttributeValue(s.e, dom.AttrStyleID))
	s.updateModified()
}

// TopicID returns the id of the referenced summary topic, or "".
func (s *Summary) TopicID() string {
	id, _ := dom.Attribute(s.e, dom.AttrTopicID)
	return id
}

// SetTopicID changes the referenced topic. An empty id removes the reference.
func (s *Summary) SetTopicID(id string) {
	old := dom.AttributeValue(s.e, dom.AttrTopicID)
	dom.SetAttribute(s.e, dom.AttrTopicID, id)
	s.fireValueChange(event.TopicRefID, old, dom.AttributeValue(s.e, dom.AttrTopicID))
	s.updateModified()
}

// Topic resolves topic-id against the whole workbook, or returns nil.
func (s *Summary) Topic() *Topic {
	id := s.TopicID()
	if id == "" {
		return nil
	}
	return s.w.FindTopic(id)
}

func (s *Summary) rangeValue() string {
	raw, _ := dom.Attribute(s.e, dom.AttrRange)
	return raw
}

// Range returns both bounds.
func (s *Summary) Range() dom.Range { return dom.ParseRange(s.rangeValue()) }

// StartIndex returns the first covered child index, or dom.NoIndex.
func (s *Summary) StartIndex() int { return dom.StartIndex(s.rangeValue()) }

// EndIndex returns the last covered child index, or dom.NoIndex.
func (s *Summary) EndIndex() int { return dom.EndIndex(s.rangeValue()) }

// SetStartIndex changes the start bound. A negative index unsets it. Two events are
// dispatched: startIndex with the bound values and range with the raw attribute text.
func (s *Summary) SetStartIndex(index int) {
	oldRange := dom.AttributeValue(s.e, dom.AttrRange)
	oldIndex := boundValue(s.StartIndex())
	dom.SetAttribute(s.e, dom.AttrRange, dom.FormatRange(index, s.EndIndex()))
	newIndex := boundValue(s.StartIndex())
	newRange := dom.AttributeValue(s.e, dom.AttrRange)
	s.fireValueChange(event.StartIndex, oldIndex, newIndex)
	s.fireValueChange(event.Range, oldRange, newRange)
	s.updateModified()
}

// SetEndIndex changes the end bound. A negative index unsets it. Two events are
// dispatched: endIndex with the bound values and range with the raw attribute text.
func (s *Summary) SetEndIndex(index int) {
	oldRange := dom.AttributeValue(s.e, dom.AttrRange)
	oldIndex := boundValue(s.EndIndex())
	dom.SetAttribute(s.e, dom.AttrRange, dom.FormatRange(s.StartIndex(), index))
	newIndex := boundValue(s.EndIndex())
	newRange := dom.AttributeValue(s.e, dom.AttrRange)
	s.fireValueChange(event.EndIndex, oldIndex, newIndex)
	s.fireValueChange(event.Range, oldRange, newRange)
	s.updateModified()
}

// setRange rewrites the whole range attribute, as when a recorded range is replayed.
func (s *Summary) setRange(raw string) {
	r := dom.ParseRange(raw)
	oldRange := dom.AttributeValue(s.e, dom.AttrRange)
	oldStart, oldEnd := boundValue(s.StartIndex()), boundValue(s.EndIndex())
	dom.SetAttribute(s.e, dom.AttrRange, dom.FormatRange(r.Start, r.End))
	s.fireValueChange(event.StartIndex, oldStart, boundValue(s.StartIndex()))
	s.fireValueChange(event.EndIndex, oldEnd, boundValue(s.EndIndex()))
	s.fireValueChange(event.Range, oldRange, dom.AttributeValue(s.e, dom.AttrRange))
	s.updateModified()
}

// Parent returns the topic owning the summary, or nil when the summary is not inside a
// <summaries> container of a topic.
func (s *Summary) Parent() *Topic {
	if e := s.parentTopicElement(); e != nil {
		return s.w.topicFor(e)
	}
	return nil
}

func (s *Summary) parentTopicElement() *etree.Element {
	p := s.e.Parent()
	if !dom.IsElementByTag(p, dom.TagSummaries) {
		return nil
	}
	p = p.Parent()
	if !dom.IsElementByTag(p, dom.TagTopic) {
		return nil
	}
	return p
}

// TopicAt returns the attached child of the parent topic at index, or nil when the
// index is negative or out of range. Detached children are not counted.
func (s *Summary) TopicAt(index int) *Topic {
	if index < 0 {
		return nil
	}
	p := s.parentTopicElement()
	if p == nil {
		return nil
	}
	topics := dom.ChildElementsByTag(subtopicsElement(p, Attached), dom.TagTopic)
	if index >= len(topics) {
		return nil
	}
	return s.w.topicFor(topics[index])
}

// EnclosingTopics returns the attached children covered by the range. A range with an
// unset bound covers nothing.
func (s *Summary) EnclosingTopics() []*Topic {
	r := s.Range()
	if !r.HasStart() || !r.HasEnd() || !r.Valid() {
		return nil
	}
	var out []*Topic
	for i := r.Start; i <= r.End; i++ {
		t := s.TopicAt(i)
		if t == nil {
			break
		}
		out = append(out, t)
	}
	return out
}

// OwnedSheet returns the sheet of the parent topic, or nil.
func (s *Summary) OwnedSheet() *Sheet {
	if p := s.Parent(); p != nil {
		return p.OwnedSheet()
	}
	return nil
}

// IsOrphan reports whether the summary is detached from the workbook document.
func (s *Summary) IsOrphan() bool { return dom.IsOrphan(s.e, s.w.doc) }

// ModifiedTime returns when the summary was last modified.
func (s *Summary) ModifiedTime() time.Time { return modifiedTime(s.e) }

// ModifiedBy returns who last modified the summary.
func (s *Summary) ModifiedBy() string { return modifiedBy(s.e) }

// ApplyValue writes a value from a style, topicRefId, range, startIndex or endIndex
// event back to the summary.
func (s *Summary) ApplyValue(t event.Type, value any) error {
	switch t {
	case event.Style, event.TopicRefID, event.Range:
		v, ok := stringValue(value)
		if !ok {
			return fmt.Errorf("failed to apply %s: unexpected value %v", t, value)
		}
		switch t {
		case event.Style:
			s.SetStyleID(v)
		case event.TopicRefID:
			s.SetTopicID(v)
		default:
			s.setRange(v)
		}
	case event.StartIndex, event.EndIndex:
		n, ok := indexValue(value)
		if !ok {
			return fmt.Errorf("failed to apply %s: unexpected value %v", t, value)
		}
		if t == event.StartIndex {
			s.SetStartIndex(n)
		} else {
			s.SetEndIndex(n)
		}
	default:
		return fmt.Errorf("failed to apply %s: not a summary property", t)
	}
	return nil
}

func (s *Summary) fireValueChange(t event.Type, oldValue, newValue any) {
	s.w.support.DispatchValueChange(s, t, oldValue, newValue)
}

// updateModified stamps the summary, then its parent topic and everything above it.
func (s *Summary) updateModified() {
	s.w.updateModified(s.e)
}

// addNotify is called by the parent topic when the summary joins the workbook.
func (s *Summary) addNotify(w *Workbook, parent *Topic) {
	if s.attached {
		panic(&registry.LifecycleError{Op: "attaching already attached summary", ID: s.ID()})
	}
	w.register(s, s.e)
	w.refs.Increase(s.StyleID())
	s.attached = true
}

// removeNotify undoes addNotify in reverse order.
func (s *Summary) removeNotify(w *Workbook, parent *Topic) {
	if !s.attached {
		panic(&registry.LifecycleError{Op: "detaching never attached summary", ID: s.ID()})
	}
	s.attached = false
	w.refs.Decrease(s.StyleID())
	w.unregister(s, s.e)
}
