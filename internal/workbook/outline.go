package workbook

import (
	"fmt"

	"github.com/beevik/etree"

	"mindnoscape/workbook/internal/dom"
	"mindnoscape/workbook/internal/model"
)

// Outline returns a plain view of the workbook used for JSON export and display.
func (w *Workbook) Outline() *model.OutlineWorkbook {
	out := &model.OutlineWorkbook{}
	for _, s := range w.Sheets() {
		item := &model.OutlineSheet{ID: s.ID(), Title: s.Title()}
		if root := s.RootTopic(); root != nil {
			item.Root = outlineTopic(root)
		}
		out.Sheets = append(out.Sheets, item)
	}
	return out
}

func outlineTopic(t *Topic) *model.OutlineTopic {
	ot := &model.OutlineTopic{ID: t.ID(), Title: t.Title(), StyleID: t.StyleID()}
	for _, c := range t.Children(Attached) {
		ot.Attached = append(ot.Attached, outlineTopic(c))
	}
	for _, c := range t.Children(Detached) {
		ot.Detached = append(ot.Detached, outlineTopic(c))
	}
	for _, c := range t.Children(SummaryTopics) {
		ot.Summary = append(ot.Summary, outlineTopic(c))
	}
	for _, s := range t.Summaries() {
		item := &model.OutlineSummary{ID: s.ID(), TopicID: s.TopicID(), StyleID: s.StyleID()}
		if r := s.Range(); r.HasStart() {
			start := r.Start
			item.Start = &start
		}
		if r := s.Range(); r.HasEnd() {
			end := r.End
			item.End = &end
		}
		ot.Summaries = append(ot.Summaries, item)
	}
	return ot
}

// FromOutline builds a workbook from an outline view. Ids present in the outline are
// kept; missing ones are generated. The styles of the new workbook are empty.
func FromOutline(o *model.OutlineWorkbook, opts ...Option) (*Workbook, error) {
	if o == nil {
		return nil, fmt.Errorf("failed to build workbook: %w", ErrInvalidDocument)
	}
	w := New(opts...)
	root := w.doc.Root()
	for _, item := range o.Sheets {
		se := root.CreateElement(dom.TagSheet)
		withID(se, item.ID)
		if item.Root != nil {
			buildTopic(se, item.Root)
		}
		setTitleText(se, item.Title)
	}

	content, err := w.doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to build workbook: %w", err)
	}
	styles, err := w.styles.Marshal()
	if err != nil {
		return nil, err
	}
	return Parse(content, styles, opts...)
}

func withID(e *etree.Element, id string) {
	if id != "" {
		e.CreateAttr(dom.AttrID, id)
	}
}

func buildTopic(parent *etree.Element, ot *model.OutlineTopic) {
	te := parent.CreateElement(dom.TagTopic)
	withID(te, ot.ID)
	dom.SetAttribute(te, dom.AttrStyleID, ot.StyleID)
	setTitleText(te, ot.Title)

	groups := []struct {
		kind   string
		topics []*model.OutlineTopic
	}{
		{Attached, ot.Attached},
		{Detached, ot.Detached},
		{SummaryTopics, ot.Summary},
	}
	for _, g := range groups {
		if len(g.topics) == 0 {
			continue
		}
		ts := ensureSubtopicsElement(te, g.kind)
		for _, c := range g.topics {
			buildTopic(ts, c)
		}
	}

	if len(ot.Summaries) == 0 {
		return
	}
	container := te.CreateElement(dom.TagSummaries)
	for _, item := range ot.Summaries {
		se := container.CreateElement(dom.TagSummary)
		withID(se, item.ID)
		start, end := dom.NoIndex, dom.NoIndex
		if item.Start != nil {
			start = *item.Start
		}
		if item.End != nil {
			end = *item.End
		}
		dom.SetAttribute(se, dom.AttrRange, dom.FormatRange(start, end))
		dom.SetAttribute(se, dom.AttrTopicID, item.TopicID)
		dom.SetAttribute(se, dom.AttrStyleID, item.StyleID)
	}
}
