package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"mindnoscape/workbook/internal/dom"
	"mindnoscape/workbook/internal/workbook"
)

// ErrNotFound is returned when a reference names nothing in the open workbook.
var ErrNotFound = errors.New("not found")

// RootRef names the root topic of the selected sheet.
const RootRef = "root"

// resolveTopic finds a topic by reference: "root", a dotted path of attached child
// indices from the root of the selected sheet ("0.2"), or a topic id.
func resolveTopic(s *Session, ref string) (*workbook.Topic, error) {
	sheet, err := s.SheetGet()
	if err != nil {
		return nil, err
	}
	root := sheet.RootTopic()
	if root == nil {
		return nil, fmt.Errorf("sheet '%s' has no root topic: %w", sheet.Title(), ErrNotFound)
	}
	if ref == RootRef {
		return root, nil
	}
	if path, ok := parsePath(ref); ok {
		t := root
		for _, i := range path {
			children := t.Children(workbook.Attached)
			if i >= len(children) {
				return nil, fmt.Errorf("topic %q: %w", ref, ErrNotFound)
			}
			t = children[i]
		}
		return t, nil
	}
	if t := s.Workbook.Workbook.FindTopic(ref); t != nil {
		return t, nil
	}
	return nil, fmt.Errorf("topic %q: %w", ref, ErrNotFound)
}

func parsePath(ref string) ([]int, bool) {
	if ref == "" {
		return nil, false
	}
	parts := strings.Split(ref, ".")
	path := make([]int, 0, len(parts))
	for _, p := range parts {
		i, err := strconv.Atoi(p)
		if err != nil || i < 0 {
			return nil, false
		}
		path = append(path, i)
	}
	return path, true
}

// resolveSummary finds a summary by id or as "<topic>#<n>", the n-th summary of a topic.
func resolveSummary(s *Session, ref string) (*workbook.Summary, error) {
	if _, err := s.SheetGet(); err != nil {
		return nil, err
	}
	if topicRef, n, ok := strings.Cut(ref, "#"); ok {
		t, err := resolveTopic(s, topicRef)
		if err != nil {
			return nil, err
		}
		i, err := strconv.Atoi(n)
		summaries := t.Summaries()
		if err != nil || i < 0 || i >= len(summaries) {
			return nil, fmt.Errorf("summary %q: %w", ref, ErrNotFound)
		}
		return summaries[i], nil
	}
	if sum := s.Workbook.Workbook.FindSummary(ref); sum != nil {
		return sum, nil
	}
	return nil, fmt.Errorf("summary %q: %w", ref, ErrNotFound)
}

// parseBound reads a range bound; "-" unsets it.
func parseBound(arg string) (int, error) {
	if arg == "-" {
		return dom.NoIndex, nil
	}
	i, err := strconv.Atoi(arg)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid index %q", arg)
	}
	return i, nil
}

// parseKind reads an optional attachment kind.
func parseKind(arg string) (string, error) {
	switch arg {
	case "", workbook.Attached:
		return workbook.Attached, nil
	case workbook.Detached, workbook.SummaryTopics:
		return arg, nil
	default:
		return "", fmt.Errorf("invalid topic kind %q", arg)
	}
}

// parseIndex reads an optional insertion index; empty means append.
func parseIndex(arg string) (int, error) {
	if arg == "" {
		return -1, nil
	}
	i, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", arg)
	}
	return i, nil
}
