// Package workbook implements the outline model: a workbook holds sheets, each sheet a
// root topic, and topics hold child topics and summaries. Every model object wraps one
// element of the content document; the workbook owns the id registry, the style
// reference counts and the event support shared by all of them.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beevik/etree"

	"mindnoscape/workbook/internal/dom"
	"mindnoscape/workbook/internal/event"
	"mindnoscape/workbook/internal/idgen"
	"mindnoscape/workbook/internal/log"
	"mindnoscape/workbook/internal/registry"
	"mindnoscape/workbook/internal/style"
)

// Version is written on new content documents.
const Version = "2.0"

var (
	// ErrInvalidDocument is returned when content does not look like a workbook.
	ErrInvalidDocument = errors.New("invalid workbook document")
	// ErrDuplicateID is returned when an element being attached carries an id that an
	// attached element already holds.
	ErrDuplicateID = errors.New("duplicate id")
)

// Workbook is the owning document of sheets, topics and summaries. It is not safe for
// concurrent use.
type Workbook struct {
	doc      *etree.Document
	styles   *style.Sheet
	refs     *style.RefCounter
	ids      *dom.IDIndex
	registry *registry.Registry
	support  *event.Support

	idFactory idgen.Factory
	clock     func() time.Time
	modifier  string
	logger    *log.Logger
}

// Option configures a Workbook.
type Option func(*Workbook)

// WithIDFactory sets the factory used for new element ids.
func WithIDFactory(f idgen.Factory) Option {
	return func(w *Workbook) { w.idFactory = f }
}

// WithClock sets the time source for modification stamps.
func WithClock(clock func() time.Time) Option {
	return func(w *Workbook) { w.clock = clock }
}

// WithModifier sets the identity written as "modified-by".
func WithModifier(name string) Option {
	return func(w *Workbook) { w.modifier = name }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(w *Workbook) { w.logger = logger }
}

func newWorkbook(opts []Option) *Workbook {
	w := &Workbook{
		refs:      style.NewRefCounter(),
		ids:       dom.NewIDIndex(),
		registry:  registry.New(),
		idFactory: idgen.UUIDFactory{},
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.support = event.NewSupport(w.logger)
	return w
}

// New creates an empty workbook with no sheets.
func New(opts ...Option) *Workbook {
	w := newWorkbook(opts)
	w.doc = etree.NewDocument()
	w.doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := w.doc.CreateElement(dom.TagWorkbook)
	root.CreateAttr(dom.AttrVersion, Version)
	w.styles = style.NewSheet(w.idFactory)
	return w
}

// Parse reads a content document and an optional styles document and attaches every
// sheet, topic and summary found in them.
func Parse(content, styles []byte, opts ...Option) (w *Workbook, err error) {
	w = newWorkbook(opts)
	w.doc = etree.NewDocument()
	if err := w.doc.ReadFromBytes(content); err != nil {
		return nil, fmt.Errorf("failed to parse workbook: %w", err)
	}
	if !dom.IsElementByTag(w.doc.Root(), dom.TagWorkbook) {
		return nil, fmt.Errorf("failed to parse workbook: %w", ErrInvalidDocument)
	}
	if w.styles, err = style.ParseSheet(styles, w.idFactory); err != nil {
		return nil, err
	}

	// Duplicate ids in foreign files surface as lifecycle panics during attach.
	defer func() {
		if r := recover(); r != nil {
			lerr, ok := r.(*registry.LifecycleError)
			if !ok {
				panic(r)
			}
			w, err = nil, fmt.Errorf("failed to parse workbook: %w", lerr)
		}
	}()
	for _, e := range dom.ChildElementsByTag(w.doc.Root(), dom.TagSheet) {
		w.sheetFor(e).addNotify(w)
	}

	w.logger.Debug(context.Background(), "Workbook parsed", log.Fields{
		"sheets": len(w.Sheets()),
		"ids":    w.ids.Len(),
	})
	return w, nil
}

// Marshal serializes the content and styles documents.
func (w *Workbook) Marshal() (content, styles []byte, err error) {
	w.doc.Indent(2)
	content, err = w.doc.WriteToBytes()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	styles, err = w.styles.Marshal()
	if err != nil {
		return nil, nil, err
	}
	return content, styles, nil
}

// Implementation returns the root element of the content document.
func (w *Workbook) Implementation() *etree.Element { return w.doc.Root() }

// Document returns the content document.
func (w *Workbook) Document() *etree.Document { return w.doc }

// RegisterListener registers l for workbook-level events such as sheetAdd.
func (w *Workbook) RegisterListener(t event.Type, l event.Listener) *event.Registration {
	return w.support.Register(w, t, l)
}

// EventSupport returns the event support shared by every element of the workbook.
func (w *Workbook) EventSupport() *event.Support { return w.support }

// Registry returns the adaptable registry of the workbook.
func (w *Workbook) Registry() *registry.Registry { return w.registry }

// StyleSheet returns the styles document.
func (w *Workbook) StyleSheet() *style.Sheet { return w.styles }

// StyleRefs returns the style reference counts of attached elements.
func (w *Workbook) StyleRefs() *style.RefCounter { return w.refs }

// PruneStyles removes styles no attached element refers to and returns their ids.
func (w *Workbook) PruneStyles() []string {
	removed := w.styles.Prune(w.refs)
	if len(removed) > 0 {
		w.logger.Debug(context.Background(), "Unused styles pruned", log.Fields{"styles": removed})
	}
	return removed
}

// SetModifier changes the identity stamped on subsequent modifications.
func (w *Workbook) SetModifier(name string) { w.modifier = name }

// Modifier returns the identity stamped on modifications.
func (w *Workbook) Modifier() string { return w.modifier }

// ModifiedTime returns the last time anything in the workbook was modified.
func (w *Workbook) ModifiedTime() time.Time { return modifiedTime(w.doc.Root()) }

// ModifiedBy returns who last modified the workbook.
func (w *Workbook) ModifiedBy() string { return modifiedBy(w.doc.Root()) }

// CreateSheet creates a detached sheet with a fresh id.
func (w *Workbook) CreateSheet() *Sheet {
	e := etree.NewElement(dom.TagSheet)
	return w.sheetFor(e)
}

// CreateTopic creates a detached topic with a fresh id.
func (w *Workbook) CreateTopic() *Topic {
	e := etree.NewElement(dom.TagTopic)
	return w.topicFor(e)
}

// CreateSummary creates a detached summary with a fresh id.
func (w *Workbook) CreateSummary() *Summary {
	e := etree.NewElement(dom.TagSummary)
	return w.summaryFor(e)
}

// Sheets returns the attached sheets in document order.
func (w *Workbook) Sheets() []*Sheet {
	elems := dom.ChildElementsByTag(w.doc.Root(), dom.TagSheet)
	out := make([]*Sheet, 0, len(elems))
	for _, e := range elems {
		out = append(out, w.sheetFor(e))
	}
	return out
}

// PrimarySheet returns the first sheet, or nil for an empty workbook.
func (w *Workbook) PrimarySheet() *Sheet {
	if e := dom.FirstChildByTag(w.doc.Root(), dom.TagSheet); e != nil {
		return w.sheetFor(e)
	}
	return nil
}

// AddSheet inserts sheet at index, or appends it when index is out of range.
func (w *Workbook) AddSheet(sheet *Sheet, index int) error {
	if sheet == nil || sheet.w != w {
		return fmt.Errorf("failed to add sheet: sheet belongs to another workbook")
	}
	if sheet.e.Parent() != nil {
		return fmt.Errorf("failed to add sheet %s: already attached", sheet.ID())
	}
	if err := w.checkIDs(sheet.e); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	index = insertChildElement(w.doc.Root(), sheet.e, dom.TagSheet, index)
	sheet.addNotify(w)
	w.support.DispatchTargetChange(w, event.SheetAdd, sheet, index)
	w.updateModified(w.doc.Root())
	return nil
}

// RemoveSheet detaches sheet from the workbook.
func (w *Workbook) RemoveSheet(sheet *Sheet) error {
	if sheet == nil || sheet.e.Parent() != w.doc.Root() {
		return fmt.Errorf("failed to remove sheet: not part of this workbook")
	}
	index := elementIndex(w.doc.Root(), sheet.e, dom.TagSheet)
	sheet.removeNotify(w)
	w.doc.Root().RemoveChild(sheet.e)
	w.support.DispatchTargetChange(w, event.SheetRemove, sheet, index)
	w.updateModified(w.doc.Root())
	return nil
}

// ApplyTarget adds or removes a sheet, replaying a sheetAdd or sheetRemove event.
func (w *Workbook) ApplyTarget(typ event.Type, target any, index int, _ string, add bool) error {
	sheet, ok := target.(*Sheet)
	if !ok || (typ != event.SheetAdd && typ != event.SheetRemove) {
		return fmt.Errorf("failed to apply %s: not a sheet relation", typ)
	}
	if add {
		return w.AddSheet(sheet, index)
	}
	return w.RemoveSheet(sheet)
}

// FindElement returns the attached element with the given id, or nil.
func (w *Workbook) FindElement(id string) *etree.Element {
	return w.ids.Lookup(id)
}

// FindTopic returns the attached topic with the given id, or nil.
func (w *Workbook) FindTopic(id string) *Topic {
	t, _ := w.registry.AdaptableByID(id, w.doc).(*Topic)
	return t
}

// FindSummary returns the attached summary with the given id, or nil.
func (w *Workbook) FindSummary(id string) *Summary {
	s, _ := w.registry.AdaptableByID(id, w.doc).(*Summary)
	return s
}

// FindSheet returns the attached sheet with the given id, or nil.
func (w *Workbook) FindSheet(id string) *Sheet {
	s, _ := w.registry.AdaptableByID(id, w.doc).(*Sheet)
	return s
}

// Find returns any attached element wrapper with the given id, or nil.
func (w *Workbook) Find(id string) Element {
	e, _ := w.registry.AdaptableByID(id, w.doc).(Element)
	return e
}

func (w *Workbook) sheetFor(e *etree.Element) *Sheet {
	if s, ok := w.registry.Adaptable(e).(*Sheet); ok {
		return s
	}
	s := &Sheet{e: dom.EnsureID(e, w.idFactory), w: w}
	w.registry.Register(s, e)
	return s
}

func (w *Workbook) topicFor(e *etree.Element) *Topic {
	if t, ok := w.registry.Adaptable(e).(*Topic); ok {
		return t
	}
	t := &Topic{e: dom.EnsureID(e, w.idFactory), w: w}
	w.registry.Register(t, e)
	return t
}

func (w *Workbook) summaryFor(e *etree.Element) *Summary {
	if s, ok := w.registry.Adaptable(e).(*Summary); ok {
		return s
	}
	s := &Summary{e: dom.EnsureID(e, w.idFactory), w: w}
	w.registry.Register(s, e)
	return s
}

// SummaryOf returns the canonical wrapper of a summary element, or nil when e is not a
// summary element.
func (w *Workbook) SummaryOf(e *etree.Element) *Summary {
	if !dom.IsElementByTag(e, dom.TagSummary) {
		return nil
	}
	return w.summaryFor(e)
}

// TopicOf returns the canonical wrapper of a topic element, or nil when e is not a
// topic element.
func (w *Workbook) TopicOf(e *etree.Element) *Topic {
	if !dom.IsElementByTag(e, dom.TagTopic) {
		return nil
	}
	return w.topicFor(e)
}

// register performs the id half of attaching an element. A duplicate id panics before
// the id index changes.
func (w *Workbook) register(a registry.Adaptable, e *etree.Element) {
	id, _ := dom.Attribute(e, dom.AttrID)
	w.registry.RegisterByID(a, id, w.doc)
	w.ids.Declare(e)
}

// checkIDs reports an id in the subtree of e that another attached element holds, or
// that occurs twice in the subtree.
func (w *Workbook) checkIDs(e *etree.Element) error {
	seen := make(map[string]bool)
	var walk func(el *etree.Element) error
	walk = func(el *etree.Element) error {
		switch el.Tag {
		case dom.TagSheet, dom.TagTopic, dom.TagSummary:
			if id, ok := dom.Attribute(el, dom.AttrID); ok && id != "" {
				if seen[id] {
					return fmt.Errorf("%w %q", ErrDuplicateID, id)
				}
				seen[id] = true
				if a := w.registry.AdaptableByID(id, w.doc); a != nil && a.Implementation() != el {
					return fmt.Errorf("%w %q", ErrDuplicateID, id)
				}
			}
		}
		for _, c := range el.ChildElements() {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(e)
}

// unregister is the inverse of register.
func (w *Workbook) unregister(a registry.Adaptable, e *etree.Element) {
	id, _ := dom.Attribute(e, dom.AttrID)
	w.registry.UnregisterByID(a, id, w.doc)
	w.ids.Undeclare(e)
}

// insertChildElement inserts child among the children of parent that carry tag, at the
// given position, and returns the position used.
func insertChildElement(parent, child *etree.Element, tag string, index int) int {
	siblings := dom.ChildElementsByTag(parent, tag)
	if index < 0 || index >= len(siblings) {
		parent.AddChild(child)
		return len(siblings)
	}
	parent.InsertChildAt(siblings[index].Index(), child)
	return index
}

// elementIndex returns the position of child among the children of parent with tag.
func elementIndex(parent, child *etree.Element, tag string) int {
	for i, e := range dom.ChildElementsByTag(parent, tag) {
		if e == child {
			return i
		}
	}
	return -1
}
