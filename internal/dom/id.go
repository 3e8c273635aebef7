package dom

import (
	"github.com/beevik/etree"
)

// IDGenerator produces fresh element ids.
type IDGenerator interface {
	NewID() string
}

// EnsureID gives e an id attribute when it does not carry one yet and returns e.
func EnsureID(e *etree.Element, gen IDGenerator) *etree.Element {
	if id, ok := Attribute(e, AttrID); ok && id != "" {
		return e
	}
	e.CreateAttr(AttrID, gen.NewID())
	return e
}

// IDIndex is the per-document set of elements whose id attribute has been declared as
// the identity attribute. Only declared elements are found by Lookup.
type IDIndex struct {
	elements map[string]*etree.Element
}

// NewIDIndex returns an empty index.
func NewIDIndex() *IDIndex {
	return &IDIndex{elements: make(map[string]*etree.Element)}
}

// Declare marks the id attribute of e as its identity attribute. It reports false and
// changes nothing when another element already holds the id.
func (x *IDIndex) Declare(e *etree.Element) bool {
	id, ok := Attribute(e, AttrID)
	if !ok || id == "" {
		return false
	}
	if held, ok := x.elements[id]; ok && held != e {
		return false
	}
	x.elements[id] = e
	return true
}

// Undeclare clears the identity flag for e. The attribute itself is kept.
func (x *IDIndex) Undeclare(e *etree.Element) {
	id, ok := Attribute(e, AttrID)
	if !ok {
		return
	}
	if x.elements[id] == e {
		delete(x.elements, id)
	}
}

// IsDeclared reports whether e is currently registered as the holder of its id.
func (x *IDIndex) IsDeclared(e *etree.Element) bool {
	id, ok := Attribute(e, AttrID)
	return ok && x.elements[id] == e
}

// Lookup returns the declared element with the given id, or nil.
func (x *IDIndex) Lookup(id string) *etree.Element {
	return x.elements[id]
}

// Len returns the number of declared ids.
func (x *IDIndex) Len() int {
	return len(x.elements)
}
