// Package style holds the styles document of a workbook and the reference counts that
// tell which styles are still in use.
package style

import (
	"fmt"
	"sort"

	"github.com/beevik/etree"

	"mindnoscape/workbook/internal/dom"
)

// Style types.
const (
	TypeTopic   = "topic"
	TypeSummary = "summary"
	TypeSheet   = "sheet"
)

// Style wraps one <style> element.
type Style struct {
	e *etree.Element
}

// ID returns the style id.
func (s *Style) ID() string {
	id, _ := dom.Attribute(s.e, dom.AttrID)
	return id
}

// Type returns the kind of element the style is meant for.
func (s *Style) Type() string {
	t, _ := dom.Attribute(s.e, dom.AttrType)
	return t
}

// Name returns the display name, if any.
func (s *Style) Name() string {
	n, _ := dom.Attribute(s.e, dom.AttrName)
	return n
}

// SetName sets the display name. An empty name removes it.
func (s *Style) SetName(name string) {
	dom.SetAttribute(s.e, dom.AttrName, name)
}

// Property returns a formatting property such as "fill" or "font-size".
func (s *Style) Property(key string) string {
	v, _ := dom.Attribute(dom.FirstChildByTag(s.e, dom.TagProperties), key)
	return v
}

// SetProperty sets a formatting property. An empty value removes it.
func (s *Style) SetProperty(key, value string) {
	props := dom.EnsureChild(s.e, dom.TagProperties)
	dom.SetAttribute(props, key, value)
	if len(props.Attr) == 0 {
		s.e.RemoveChild(props)
	}
}

// Properties returns all formatting properties.
func (s *Style) Properties() map[string]string {
	out := make(map[string]string)
	props := dom.FirstChildByTag(s.e, dom.TagProperties)
	if props == nil {
		return out
	}
	for _, a := range props.Attr {
		out[a.Key] = a.Value
	}
	return out
}

// Implementation returns the backing element.
func (s *Style) Implementation() *etree.Element { return s.e }

// Sheet is the styles document of one workbook.
type Sheet struct {
	doc    *etree.Document
	gen    dom.IDGenerator
	styles map[*etree.Element]*Style
}

// NewSheet returns an empty styles document.
func NewSheet(gen dom.IDGenerator) *Sheet {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(dom.TagStylesRoot)
	root.CreateAttr(dom.AttrVersion, "2.0")
	return &Sheet{doc: doc, gen: gen, styles: make(map[*etree.Element]*Style)}
}

// ParseSheet reads a styles document. Empty input yields an empty sheet.
func ParseSheet(data []byte, gen dom.IDGenerator) (*Sheet, error) {
	if len(data) == 0 {
		return NewSheet(gen), nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse styles: %w", err)
	}
	if !dom.IsElementByTag(doc.Root(), dom.TagStylesRoot) {
		return nil, fmt.Errorf("failed to parse styles: unexpected root element")
	}
	return &Sheet{doc: doc, gen: gen, styles: make(map[*etree.Element]*Style)}, nil
}

// Marshal serializes the styles document.
func (sh *Sheet) Marshal() ([]byte, error) {
	sh.doc.Indent(2)
	data, err := sh.doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to write styles: %w", err)
	}
	return data, nil
}

// Document returns the backing document.
func (sh *Sheet) Document() *etree.Document { return sh.doc }

func (sh *Sheet) wrap(e *etree.Element) *Style {
	if s, ok := sh.styles[e]; ok {
		return s
	}
	s := &Style{e: e}
	sh.styles[e] = s
	return s
}

func (sh *Sheet) container() *etree.Element {
	return dom.EnsureChild(sh.doc.Root(), dom.TagStyles)
}

// CreateStyle creates a style of the given type with a fresh id. The style is not part
// of the sheet until AddStyle is called.
func (sh *Sheet) CreateStyle(styleType string) *Style {
	e := etree.NewElement(dom.TagStyle)
	dom.EnsureID(e, sh.gen)
	dom.SetAttribute(e, dom.AttrType, styleType)
	return sh.wrap(e)
}

// AddStyle adds s to the sheet. Adding a style that is already there is a no-op.
func (sh *Sheet) AddStyle(s *Style) {
	c := sh.container()
	if s.e.Parent() == c {
		return
	}
	c.AddChild(s.e)
}

// RemoveStyle removes s from the sheet.
func (sh *Sheet) RemoveStyle(s *Style) {
	c := dom.FirstChildByTag(sh.doc.Root(), dom.TagStyles)
	if c == nil || s.e.Parent() != c {
		return
	}
	c.RemoveChild(s.e)
}

// FindStyle returns the style with the given id, or nil.
func (sh *Sheet) FindStyle(id string) *Style {
	if id == "" {
		return nil
	}
	for _, e := range dom.ChildElementsByTag(dom.FirstChildByTag(sh.doc.Root(), dom.TagStyles), dom.TagStyle) {
		if v, _ := dom.Attribute(e, dom.AttrID); v == id {
			return sh.wrap(e)
		}
	}
	return nil
}

// Styles returns every style in the sheet, ordered by id.
func (sh *Sheet) Styles() []*Style {
	elems := dom.ChildElementsByTag(dom.FirstChildByTag(sh.doc.Root(), dom.TagStyles), dom.TagStyle)
	out := make([]*Style, 0, len(elems))
	for _, e := range elems {
		out = append(out, sh.wrap(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Prune removes every style that refs does not count as referenced and returns the
// removed ids.
func (sh *Sheet) Prune(refs *RefCounter) []string {
	var removed []string
	for _, s := range sh.Styles() {
		if refs.Count(s.ID()) > 0 {
			continue
		}
		sh.RemoveStyle(s)
		removed = append(removed, s.ID())
	}
	return removed
}
