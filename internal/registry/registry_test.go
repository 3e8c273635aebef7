package registry

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
)

type wrapper struct{ e *etree.Element }

func (w *wrapper) Implementation() *etree.Element { return w.e }

func TestElementMapping(t *testing.T) {
	r := New()
	e := etree.NewElement("topic")
	w := &wrapper{e: e}

	assert.Nil(t, r.Adaptable(e))
	r.Register(w, e)
	assert.Same(t, w, r.Adaptable(e))
	r.Unregister(e)
	assert.Nil(t, r.Adaptable(e))
	assert.Nil(t, r.Adaptable(nil))
}

func TestIDScopedPerDocument(t *testing.T) {
	r := New()
	doc1, doc2 := etree.NewDocument(), etree.NewDocument()
	a := &wrapper{e: etree.NewElement("summary")}
	b := &wrapper{e: etree.NewElement("summary")}

	r.RegisterByID(a, "x", doc1)
	r.RegisterByID(b, "x", doc2)
	assert.Same(t, a, r.AdaptableByID("x", doc1))
	assert.Same(t, b, r.AdaptableByID("x", doc2))
	assert.Equal(t, 1, r.IDCount(doc1))
	assert.Equal(t, []string{"x"}, r.IDs(doc2))

	r.UnregisterByID(a, "x", doc1)
	assert.Nil(t, r.AdaptableByID("x", doc1))
	assert.Same(t, b, r.AdaptableByID("x", doc2))
}

func TestReRegisteringSameAdaptableIsAllowed(t *testing.T) {
	r := New()
	doc := etree.NewDocument()
	a := &wrapper{e: etree.NewElement("summary")}
	r.RegisterByID(a, "x", doc)
	assert.NotPanics(t, func() { r.RegisterByID(a, "x", doc) })
}

func TestLifecycleViolationsPanic(t *testing.T) {
	r := New()
	doc := etree.NewDocument()
	a := &wrapper{e: etree.NewElement("summary")}
	b := &wrapper{e: etree.NewElement("summary")}

	r.RegisterByID(a, "x", doc)
	assert.PanicsWithError(t, `lifecycle violation: duplicate registration of id "x"`, func() {
		r.RegisterByID(b, "x", doc)
	})
	assert.Panics(t, func() { r.UnregisterByID(b, "x", doc) }, "held by another adaptable")
	assert.Panics(t, func() { r.UnregisterByID(a, "y", doc) }, "never registered")
}
