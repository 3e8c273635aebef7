package workbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindnoscape/workbook/internal/model"
)

func TestOutlineRoundTrip(t *testing.T) {
	f := newFixture(t)
	s := f.w.CreateSummary()
	require.NoError(t, f.root.AddSummary(s))
	s.SetStartIndex(0)
	s.SetEndIndex(2)
	f.kids[1].SetStyleID("st")

	o := f.w.Outline()
	require.Len(t, o.Sheets, 1)
	root := o.Sheets[0].Root
	assert.Equal(t, "Central", root.Title)
	assert.Len(t, root.Attached, 3)
	assert.Len(t, root.Detached, 1)
	require.Len(t, root.Summaries, 1)
	assert.Equal(t, 0, *root.Summaries[0].Start)
	assert.Equal(t, 2, *root.Summaries[0].End)

	w, err := FromOutline(o)
	require.NoError(t, err)
	assert.Equal(t, o, w.Outline())
	assert.Equal(t, 1, w.StyleRefs().Count("st"))
	assert.NotNil(t, w.FindSummary(s.ID()))
}

func TestFromOutlineGeneratesMissingIDs(t *testing.T) {
	end := 0
	o := &model.OutlineWorkbook{Sheets: []*model.OutlineSheet{{
		Title: "S",
		Root: &model.OutlineTopic{
			Title:     "root",
			Attached:  []*model.OutlineTopic{{Title: "only"}},
			Summaries: []*model.OutlineSummary{{End: &end}},
		},
	}}}

	w, err := FromOutline(o, WithIDFactory(&seqFactory{prefix: "g"}))
	require.NoError(t, err)
	root := w.PrimarySheet().RootTopic()
	assert.NotEmpty(t, root.ID())
	require.Len(t, root.Summaries(), 1)
	assert.Equal(t, 0, root.Summaries()[0].EndIndex())
	assert.False(t, root.Summaries()[0].Range().HasStart())

	_, err = FromOutline(nil)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}
