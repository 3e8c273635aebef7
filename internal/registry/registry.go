// Package registry maps backing elements and ids to the model objects wrapping them.
package registry

import (
	"fmt"

	"github.com/beevik/etree"
)

// Adaptable is a model object backed by one element.
type Adaptable interface {
	Implementation() *etree.Element
}

// LifecycleError reports a caller-side attach/detach violation. It is raised with
// panic: it means the child-management code is broken, not that input was bad.
type LifecycleError struct {
	Op string
	ID string
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("lifecycle violation: %s id %q", e.Op, e.ID)
}

type idKey struct {
	doc *etree.Document
	id  string
}

// Registry keeps one canonical wrapper per element and the id table of every document
// it serves. Wrappers of removed elements stay registered: undo puts removed subtrees
// back and must find the same wrappers. They are released with the Registry, which
// lives as long as its workbook.
type Registry struct {
	byElement map[*etree.Element]Adaptable
	byID      map[idKey]Adaptable
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		byElement: make(map[*etree.Element]Adaptable),
		byID:      make(map[idKey]Adaptable),
	}
}

// Register records a as the wrapper of e.
func (r *Registry) Register(a Adaptable, e *etree.Element) {
	r.byElement[e] = a
}

// Unregister forgets the wrapper of e. The next lookup of e creates a new wrapper, so
// only call it for elements that can never be attached again.
func (r *Registry) Unregister(e *etree.Element) {
	delete(r.byElement, e)
}

// Adaptable returns the wrapper of e, or nil.
func (r *Registry) Adaptable(e *etree.Element) Adaptable {
	if e == nil {
		return nil
	}
	return r.byElement[e]
}

// RegisterByID makes a resolvable by id within doc. Registering a second, different
// adaptable under an id that is still taken panics with *LifecycleError.
func (r *Registry) RegisterByID(a Adaptable, id string, doc *etree.Document) {
	k := idKey{doc: doc, id: id}
	if existing, ok := r.byID[k]; ok && existing != a {
		panic(&LifecycleError{Op: "duplicate registration of", ID: id})
	}
	r.byID[k] = a
}

// UnregisterByID withdraws the id of a. Withdrawing an id that a does not hold panics
// with *LifecycleError.
func (r *Registry) UnregisterByID(a Adaptable, id string, doc *etree.Document) {
	k := idKey{doc: doc, id: id}
	if existing, ok := r.byID[k]; !ok || existing != a {
		panic(&LifecycleError{Op: "unregistering never-registered", ID: id})
	}
	delete(r.byID, k)
}

// AdaptableByID resolves an id within doc, or returns nil.
func (r *Registry) AdaptableByID(id string, doc *etree.Document) Adaptable {
	return r.byID[idKey{doc: doc, id: id}]
}

// IDCount returns the number of ids registered for doc.
func (r *Registry) IDCount(doc *etree.Document) int {
	n := 0
	for k := range r.byID {
		if k.doc == doc {
			n++
		}
	}
	return n
}

// IDs returns the ids registered for doc, in no particular order.
func (r *Registry) IDs(doc *etree.Document) []string {
	var ids []string
	for k := range r.byID {
		if k.doc == doc {
			ids = append(ids, k.id)
		}
	}
	return ids
}
