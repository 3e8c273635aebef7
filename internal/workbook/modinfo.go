package workbook

import (
	"strconv"
	"time"

	"github.com/beevik/etree"

	"mindnoscape/workbook/internal/dom"
)

// stamp writes the modification time and author on one element. Time never moves
// backwards on an element, even if the clock does.
func (w *Workbook) stamp(e *etree.Element, now int64) {
	if old := modifiedMillis(e); old > now {
		now = old
	}
	dom.SetAttribute(e, dom.AttrTimestamp, strconv.FormatInt(now, 10))
	dom.SetAttribute(e, dom.AttrModifiedBy, w.modifier)
}

// updateModified stamps e and every topic, sheet and workbook element above it.
func (w *Workbook) updateModified(e *etree.Element) {
	now := w.clock().UnixMilli()
	w.stamp(e, now)
	for p := e.Parent(); p != nil; p = p.Parent() {
		switch p.Tag {
		case dom.TagTopic, dom.TagSheet, dom.TagWorkbook:
			w.stamp(p, now)
		}
	}
}

func modifiedMillis(e *etree.Element) int64 {
	raw, ok := dom.Attribute(e, dom.AttrTimestamp)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func modifiedTime(e *etree.Element) time.Time {
	ms := modifiedMillis(e)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func modifiedBy(e *etree.Element) string {
	v, _ := dom.Attribute(e, dom.AttrModifiedBy)
	return v
}
