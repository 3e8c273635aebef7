// Package dom provides the element-level helpers that the workbook model is built on.
// Every model object wraps one etree element; this package owns the tag and attribute
// vocabulary and the small amount of tree plumbing shared between them.
package dom

import (
	"github.com/beevik/etree"
)

// Tags used in the content and styles documents.
const (
	TagWorkbook  = "xmap-content"
	TagSheet     = "sheet"
	TagTopic     = "topic"
	TagTitle     = "title"
	TagChildren  = "children"
	TagTopics    = "topics"
	TagSummaries = "summaries"
	TagSummary   = "summary"

	TagStylesRoot = "xmap-styles"
	TagStyles     = "styles"
	TagStyle      = "style"
	TagProperties = "properties"
)

// Attribute names.
const (
	AttrID         = "id"
	AttrStyleID    = "style-id"
	AttrTopicID    = "topic-id"
	AttrRange      = "range"
	AttrType       = "type"
	AttrName       = "name"
	AttrTimestamp  = "timestamp"
	AttrModifiedBy = "modified-by"
	AttrVersion    = "version"
)

// Attribute returns the value of the named attribute and whether it is present.
func Attribute(e *etree.Element, name string) (string, bool) {
	if e == nil {
		return "", false
	}
	a := e.SelectAttr(name)
	if a == nil {
		return "", false
	}
	return a.Value, true
}

// AttributeValue returns the attribute value, or nil when absent. Event payloads use it
// so listeners can tell "unset" from "set to the empty string".
func AttributeValue(e *etree.Element, name string) any {
	v, ok := Attribute(e, name)
	if !ok {
		return nil
	}
	return v
}

// SetAttribute writes the attribute. An empty value removes it.
func SetAttribute(e *etree.Element, name, value string) {
	if value == "" {
		e.RemoveAttr(name)
		return
	}
	e.CreateAttr(name, value)
}

// IsElementByTag reports whether e is a non-nil element with the given tag.
func IsElementByTag(e *etree.Element, tag string) bool {
	return e != nil && e.Tag == tag
}

// ChildElementsByTag returns the direct children of e with the given tag, in order.
func ChildElementsByTag(e *etree.Element, tag string) []*etree.Element {
	if e == nil {
		return nil
	}
	return e.SelectElements(tag)
}

// FirstChildByTag returns the first direct child with the given tag, or nil.
func FirstChildByTag(e *etree.Element, tag string) *etree.Element {
	if e == nil {
		return nil
	}
	return e.SelectElement(tag)
}

// EnsureChild returns the first child with the given tag, creating it when missing.
func EnsureChild(e *etree.Element, tag string) *etree.Element {
	if c := e.SelectElement(tag); c != nil {
		return c
	}
	return e.CreateElement(tag)
}

// RemoveIfEmpty detaches e from its parent when it has no child elements left.
func RemoveIfEmpty(e *etree.Element) {
	if e == nil || len(e.ChildElements()) > 0 {
		return
	}
	if p := e.Parent(); p != nil {
		p.RemoveChild(e)
	}
}

// IsOrphan reports whether e is not reachable from the root of doc.
func IsOrphan(e *etree.Element, doc *etree.Document) bool {
	if e == nil || doc == nil {
		return true
	}
	top := e
	for top.Parent() != nil {
		top = top.Parent()
	}
	return top != &doc.Element
}
