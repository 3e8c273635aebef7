package dom

import (
	"strconv"
	"strings"
)

// NoIndex marks an unset range bound.
const NoIndex = -1

// Range is a pair of optional, non-negative sibling indices.
type Range struct {
	Start int
	End   int
}

// HasStart reports whether the start bound is set.
func (r Range) HasStart() bool { return r.Start >= 0 }

// HasEnd reports whether the end bound is set.
func (r Range) HasEnd() bool { return r.End >= 0 }

// Valid reports whether start <= end when both bounds are set.
func (r Range) Valid() bool {
	if r.HasStart() && r.HasEnd() {
		return r.Start <= r.End
	}
	return true
}

// Contains reports whether index lies inside a fully set range.
func (r Range) Contains(index int) bool {
	return r.HasStart() && r.HasEnd() && index >= r.Start && index <= r.End
}

// FormatRange packs two optional bounds into one attribute value.
// Unset bounds are written as empty text; when both are unset the result is "",
// which SetAttribute turns into an absent attribute.
func FormatRange(start, end int) string {
	if start < 0 && end < 0 {
		return ""
	}
	var b strings.Builder
	if start >= 0 {
		b.WriteString(strconv.Itoa(start))
	}
	b.WriteByte(',')
	if end >= 0 {
		b.WriteString(strconv.Itoa(end))
	}
	return b.String()
}

// ParseRange unpacks a range attribute. Absent, malformed or negative bounds decode as
// NoIndex. The parenthesised form "(2,5)" written by older files is accepted.
func ParseRange(raw string) Range {
	r := Range{Start: NoIndex, End: NoIndex}
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "(")
	raw = strings.TrimSuffix(raw, ")")
	if raw == "" {
		return r
	}
	startText, endText, found := strings.Cut(raw, ",")
	r.Start = parseIndex(startText)
	if found {
		r.End = parseIndex(endText)
	}
	return r
}

func parseIndex(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return NoIndex
	}
	return n
}

// StartIndex decodes only the start bound of a raw range value.
func StartIndex(raw string) int { return ParseRange(raw).Start }

// EndIndex decodes only the end bound of a raw range value.
func EndIndex(raw string) int { return ParseRange(raw).End }
