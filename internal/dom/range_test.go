package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		want       string
	}{
		{"both set", 2, 5, "2,5"},
		{"end unset", 2, NoIndex, "2,"},
		{"start unset", NoIndex, 5, ",5"},
		{"both unset", NoIndex, NoIndex, ""},
		{"zero bounds", 0, 0, "0,0"},
		{"negative treated as unset", -7, 3, ",3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRange(tt.start, tt.end))
		})
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		raw  string
		want Range
	}{
		{"2,5", Range{2, 5}},
		{"2,", Range{2, NoIndex}},
		{",5", Range{NoIndex, 5}},
		{"", Range{NoIndex, NoIndex}},
		{"(1,3)", Range{1, 3}},
		{"(4,)", Range{4, NoIndex}},
		{"x,3", Range{NoIndex, 3}},
		{"7", Range{7, NoIndex}},
		{"-1,-1", Range{NoIndex, NoIndex}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRange(tt.raw))
		})
	}
}

func TestRangeRoundTrip(t *testing.T) {
	for start := 0; start < 6; start++ {
		for end := start; end < 8; end++ {
			got := ParseRange(FormatRange(start, end))
			assert.Equal(t, Range{start, end}, got)
			assert.True(t, got.Valid())
		}
	}

	got := ParseRange(FormatRange(3, NoIndex))
	assert.Equal(t, 3, got.Start)
	assert.False(t, got.HasEnd())

	got = ParseRange(FormatRange(NoIndex, 3))
	assert.False(t, got.HasStart())
	assert.Equal(t, 3, got.End)
}

func TestRangeValidAndContains(t *testing.T) {
	assert.False(t, Range{5, 2}.Valid())
	assert.True(t, Range{NoIndex, 2}.Valid())
	assert.True(t, Range{2, 4}.Contains(3))
	assert.False(t, Range{2, 4}.Contains(5))
	assert.False(t, Range{2, NoIndex}.Contains(2))
}
