package workbook

import (
	"fmt"
	"time"

	"github.com/beevik/etree"

	"mindnoscape/workbook/internal/dom"
	"mindnoscape/workbook/internal/event"
	"mindnoscape/workbook/internal/registry"
)

// Sheet is one page of a workbook holding a single root topic.
type Sheet struct {
	e        *etree.Element
	w        *Workbook
	attached bool
}

// ID returns the sheet id.
func (s *Sheet) ID() string {
	id, _ := dom.Attribute(s.e, dom.AttrID)
	return id
}

// Implementation returns the backing element.
func (s *Sheet) Implementation() *etree.Element { return s.e }

// RegisterListener registers l for events on this sheet.
func (s *Sheet) RegisterListener(t event.Type, l event.Listener) *event.Registration {
	return s.w.support.Register(s, t, l)
}

// Title returns the sheet title.
func (s *Sheet) Title() string {
	return titleText(s.e)
}

// SetTitle changes the sheet title.
func (s *Sheet) SetTitle(title string) {
	old := titleValue(s.e)
	setTitleText(s.e, title)
	s.w.support.DispatchValueChange(s, event.TitleText, old, titleValue(s.e))
	s.w.updateModified(s.e)
}

// RootTopic returns the root topic, or nil for a sheet that has none yet.
func (s *Sheet) RootTopic() *Topic {
	if e := dom.FirstChildByTag(s.e, dom.TagTopic); e != nil {
		return s.w.topicFor(e)
	}
	return nil
}

// ReplaceRootTopic makes topic the root topic of the sheet. The previous root, if
// any, is detached.
func (s *Sheet) ReplaceRootTopic(topic *Topic) error {
	if topic == nil || topic.w != s.w {
		return fmt.Errorf("failed to replace root topic: topic belongs to another workbook")
	}
	if topic.e.Parent() != nil {
		return fmt.Errorf("failed to replace root topic: topic %s is already placed", topic.ID())
	}
	if s.attached {
		if err := s.w.checkIDs(topic.e); err != nil {
			return fmt.Errorf("failed to replace root topic: %w", err)
		}
	}
	old := s.RootTopic()
	if old != nil {
		if s.attached {
			old.removeNotify(s.w)
		}
		s.e.RemoveChild(old.e)
	}
	s.e.InsertChildAt(0, topic.e)
	if s.attached {
		topic.addNotify(s.w)
	}
	var oldValue any
	if old != nil {
		oldValue = old
	}
	s.w.support.DispatchValueChange(s, event.RootTopic, oldValue, topic)
	s.w.updateModified(s.e)
	return nil
}

// Parent returns the owning workbook while the sheet is attached, or nil.
func (s *Sheet) Parent() *Workbook {
	if s.e.Parent() == s.w.doc.Root() {
		return s.w
	}
	return nil
}

// OwnedWorkbook returns the workbook the sheet was created by.
func (s *Sheet) OwnedWorkbook() *Workbook { return s.w }

// Index returns the position of the sheet in the workbook, or -1.
func (s *Sheet) Index() int {
	if s.Parent() == nil {
		return -1
	}
	return elementIndex(s.w.doc.Root(), s.e, dom.TagSheet)
}

// IsOrphan reports whether the sheet is detached from the workbook document.
func (s *Sheet) IsOrphan() bool { return dom.IsOrphan(s.e, s.w.doc) }

// ModifiedTime returns when the sheet or anything in it was last modified.
func (s *Sheet) ModifiedTime() time.Time { return modifiedTime(s.e) }

// ModifiedBy returns who last modified the sheet.
func (s *Sheet) ModifiedBy() string { return modifiedBy(s.e) }

// ApplyValue writes a titleText value back.
func (s *Sheet) ApplyValue(t event.Type, value any) error {
	if t != event.TitleText {
		return fmt.Errorf("failed to apply %s: not a sheet property", t)
	}
	v, ok := stringValue(value)
	if !ok {
		return fmt.Errorf("failed to apply %s: unexpected value %v", t, value)
	}
	s.SetTitle(v)
	return nil
}

// String returns a short debug form.
func (s *Sheet) String() string {
	return "SHEET#" + s.ID() + "{" + s.Title() + "}"
}

func (s *Sheet) addNotify(w *Workbook) {
	if s.attached {
		panic(&registry.LifecycleError{Op: "attaching already attached sheet", ID: s.ID()})
	}
	w.register(s, s.e)
	s.attached = true
	if root := s.RootTopic(); root != nil {
		root.addNotify(w)
	}
}

func (s *Sheet) removeNotify(w *Workbook) {
	if !s.attached {
		panic(&registry.LifecycleError{Op: "detaching never attached sheet", ID: s.ID()})
	}
	if root := s.RootTopic(); root != nil {
		root.removeNotify(w)
	}
	s.attached = false
	w.unregister(s, s.e)
}

func titleText(e *etree.Element) string {
	if t := dom.FirstChildByTag(e, dom.TagTitle); t != nil {
		return t.Text()
	}
	return ""
}

// titleValue is the event payload for a title: its text, or nil when there is none.
func titleValue(e *etree.Element) any {
	if t := dom.FirstChildByTag(e, dom.TagTitle); t != nil {
		return t.Text()
	}
	return nil
}

func setTitleText(e *etree.Element, title string) {
	t := dom.FirstChildByTag(e, dom.TagTitle)
	if title == "" {
		if t != nil {
			e.RemoveChild(t)
		}
		return
	}
	if t == nil {
		t = e.CreateElement(dom.TagTitle)
	}
	t.SetText(title)
}
