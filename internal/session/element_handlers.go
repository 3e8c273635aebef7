package session

import (
	"fmt"
	"strconv"

	"mindnoscape/workbook/internal/dom"
	"mindnoscape/workbook/internal/model"
	"mindnoscape/workbook/internal/workbook"
)

// initSheetCommandHandlers initializes sheet command handlers
func initSheetCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"add":    handleSheetAdd,
		"list":   handleSheetList,
		"select": handleSheetSelect,
		"title":  handleSheetTitle,
		"remove": handleSheetRemove,
	}
}

// initTopicCommandHandlers initializes topic command handlers
func initTopicCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"add":    handleTopicAdd,
		"title":  handleTopicTitle,
		"style":  handleTopicStyle,
		"move":   handleTopicMove,
		"remove": handleTopicRemove,
	}
}

// initSummaryCommandHandlers initializes summary command handlers
func initSummaryCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"add":    handleSummaryAdd,
		"range":  handleSummaryRange,
		"style":  handleSummaryStyle,
		"topic":  handleSummaryTopic,
		"remove": handleSummaryRemove,
		"show":   handleSummaryShow,
	}
}

// handleSheetAdd appends a sheet whose root topic carries the sheet title, and selects it
func handleSheetAdd(s *Session, cmd model.Command) (interface{}, error) {
	ow, err := s.WorkbookGet()
	if err != nil {
		return nil, err
	}
	w := ow.Workbook
	sheet := w.CreateSheet()
	sheet.SetTitle(cmd.Args[0])
	root := w.CreateTopic()
	root.SetTitle(cmd.Args[0])
	if err := sheet.ReplaceRootTopic(root); err != nil {
		return nil, err
	}
	if err := w.AddSheet(sheet, -1); err != nil {
		return nil, err
	}
	s.Sheet = sheet
	return fmt.Sprintf("sheet '%s' added", sheet.Title()), nil
}

// handleSheetList describes the sheets of the open workbook
func handleSheetList(s *Session, cmd model.Command) (interface{}, error) {
	ow, err := s.WorkbookGet()
	if err != nil {
		return nil, err
	}
	var views []model.SheetView
	for _, sheet := range ow.Workbook.Sheets() {
		v := model.SheetView{Index: sheet.Index(), ID: sheet.ID(), Title: sheet.Title(), Selected: sheet == s.Sheet}
		if root := sheet.RootTopic(); root != nil {
			v.RootID = root.ID()
		}
		views = append(views, v)
	}
	return views, nil
}

// handleSheetSelect selects a sheet by index or id
func handleSheetSelect(s *Session, cmd model.Command) (interface{}, error) {
	ow, err := s.WorkbookGet()
	if err != nil {
		return nil, err
	}
	sheets := ow.Workbook.Sheets()
	var sheet *workbook.Sheet
	if i, err := strconv.Atoi(cmd.Args[0]); err == nil && i >= 0 && i < len(sheets) {
		sheet = sheets[i]
	} else {
		sheet = ow.Workbook.FindSheet(cmd.Args[0])
	}
	if sheet == nil {
		return nil, fmt.Errorf("sheet %q: %w", cmd.Args[0], ErrNotFound)
	}
	s.Sheet = sheet
	return fmt.Sprintf("sheet '%s' selected", sheet.Title()), nil
}

// handleSheetTitle renames the selected sheet
func handleSheetTitle(s *Session, cmd model.Command) (interface{}, error) {
	sheet, err := s.SheetGet()
	if err != nil {
		return nil, err
	}
	sheet.SetTitle(cmd.Args[0])
	return fmt.Sprintf("sheet renamed to '%s'", sheet.Title()), nil
}

// handleSheetRemove removes the selected sheet and selects the first remaining one
func handleSheetRemove(s *Session, cmd model.Command) (interface{}, error) {
	sheet, err := s.SheetGet()
	if err != nil {
		return nil, err
	}
	w := s.Workbook.Workbook
	if len(w.Sheets()) == 1 {
		return nil, fmt.Errorf("cannot remove the last sheet")
	}
	if err := w.RemoveSheet(sheet); err != nil {
		return nil, err
	}
	s.Sheet = w.PrimarySheet()
	return fmt.Sprintf("sheet '%s' removed", sheet.Title()), nil
}

// handleTopicAdd creates a topic under a parent
func handleTopicAdd(s *Session, cmd model.Command) (interface{}, error) {
	parent, err := resolveTopic(s, cmd.Args[0])
	if err != nil {
		return nil, err
	}
	kind, err := parseKind(optionalArg(cmd, 2))
	if err != nil {
		return nil, err
	}
	index, err := parseIndex(optionalArg(cmd, 3))
	if err != nil {
		return nil, err
	}
	topic := s.Workbook.Workbook.CreateTopic()
	topic.SetTitle(cmd.Args[1])
	if err := parent.Add(topic, index, kind); err != nil {
		return nil, err
	}
	return fmt.Sprintf("topic %s added", topic.ID()), nil
}

// handleTopicTitle renames a topic
func handleTopicTitle(s *Session, cmd model.Command) (interface{}, error) {
	topic, err := resolveTopic(s, cmd.Args[0])
	if err != nil {
		return nil, err
	}
	topic.SetTitle(cmd.Args[1])
	return fmt.Sprintf("topic %s renamed", topic.ID()), nil
}

// handleTopicStyle sets or clears the style of a topic
func handleTopicStyle(s *Session, cmd model.Command) (interface{}, error) {
	topic, err := resolveTopic(s, cmd.Args[0])
	if err != nil {
		return nil, err
	}
	styleID := optionalArg(cmd, 1)
	if err := checkStyle(s, styleID); err != nil {
		return nil, err
	}
	topic.SetStyleID(styleID)
	return fmt.Sprintf("topic %s style set to '%s'", topic.ID(), styleID), nil
}

// handleTopicMove moves a topic under a new parent
func handleTopicMove(s *Session, cmd model.Command) (interface{}, error) {
	topic, err := resolveTopic(s, cmd.Args[0])
	if err != nil {
		return nil, err
	}
	parent, err := resolveTopic(s, cmd.Args[1])
	if err != nil {
		return nil, err
	}
	kind, err := parseKind(optionalArg(cmd, 2))
	if err != nil {
		return nil, err
	}
	index, err := parseIndex(optionalArg(cmd, 3))
	if err != nil {
		return nil, err
	}
	if err := parent.Add(topic, index, kind); err != nil {
		return nil, err
	}
	return fmt.Sprintf("topic %s moved", topic.ID()), nil
}

// handleTopicRemove removes a topic and its subtree
func handleTopicRemove(s *Session, cmd model.Command) (interface{}, error) {
	topic, err := resolveTopic(s, cmd.Args[0])
	if err != nil {
		return nil, err
	}
	parent := topic.Parent()
	if parent == nil {
		return nil, fmt.Errorf("cannot remove a root topic")
	}
	if err := parent.Remove(topic); err != nil {
		return nil, err
	}
	return fmt.Sprintf("topic %s removed", topic.ID()), nil
}

// handleSummaryAdd creates a summary over attached children of a topic, optionally
// with a summary topic that it refers to
func handleSummaryAdd(s *Session, cmd model.Command) (interface{}, error) {
	parent, err := resolveTopic(s, cmd.Args[0])
	if err != nil {
		return nil, err
	}
	start, end, err := parseRange(cmd.Args[1], cmd.Args[2])
	if err != nil {
		return nil, err
	}

	w := s.Workbook.Workbook
	sum := w.CreateSummary()
	if err := parent.AddSummary(sum); err != nil {
		return nil, err
	}
	sum.SetStartIndex(start)
	sum.SetEndIndex(end)

	if title := optionalArg(cmd, 3); title != "" {
		topic := w.CreateTopic()
		topic.SetTitle(title)
		if err := parent.Add(topic, -1, workbook.SummaryTopics); err != nil {
			return nil, err
		}
		sum.SetTopicID(topic.ID())
	}
	return fmt.Sprintf("summary %s added", sum.ID()), nil
}

// handleSummaryRange changes both bounds of a summary
func handleSummaryRange(s *Session, cmd model.Command) (interface{}, error) {
	sum, err := resolveSummary(s, cmd.Args[0])
	if err != nil {
		return nil, err
	}
	start, end, err := parseRange(cmd.Args[1], cmd.Args[2])
	if err != nil {
		return nil, err
	}
	// Moving one bound at a time must not pass through start > end.
	if cur := sum.EndIndex(); start != dom.NoIndex && cur != dom.NoIndex && start > cur {
		sum.SetEndIndex(end)
		sum.SetStartIndex(start)
	} else {
		sum.SetStartIndex(start)
		sum.SetEndIndex(end)
	}
	return fmt.Sprintf("summary %s range set to %s", sum.ID(), dom.FormatRange(start, end)), nil
}

// handleSummaryStyle sets or clears the style of a summary
func handleSummaryStyle(s *Session, cmd model.Command) (interface{}, error) {
	sum, err := resolveSummary(s, cmd.Args[0])
	if err != nil {
		return nil, err
	}
	styleID := optionalArg(cmd, 1)
	if err := checkStyle(s, styleID); err != nil {
		return nil, err
	}
	sum.SetStyleID(styleID)
	return fmt.Sprintf("summary %s style set to '%s'", sum.ID(), styleID), nil
}

// handleSummaryTopic sets or clears the topic a summary refers to
func handleSummaryTopic(s *Session, cmd model.Command) (interface{}, error) {
	sum, err := resolveSummary(s, cmd.Args[0])
	if err != nil {
		return nil, err
	}
	topicID := ""
	if ref := optionalArg(cmd, 1); ref != "" {
		topic, err := resolveTopic(s, ref)
		if err != nil {
			return nil, err
		}
		topicID = topic.ID()
	}
	sum.SetTopicID(topicID)
	return fmt.Sprintf("summary %s topic set to '%s'", sum.ID(), topicID), nil
}

// handleSummaryRemove removes a summary from its topic, together with its summary
// topic when no other summary refers to it
func handleSummaryRemove(s *Session, cmd model.Command) (interface{}, error) {
	sum, err := resolveSummary(s, cmd.Args[0])
	if err != nil {
		return nil, err
	}
	parent := sum.Parent()
	if parent == nil {
		return nil, fmt.Errorf("summary %s has no parent topic", sum.ID())
	}
	topic := sum.Topic()
	if err := parent.RemoveSummary(sum); err != nil {
		return nil, err
	}
	if topic != nil && topic.Parent() == parent && topic.Type() == workbook.SummaryTopics && !summaryTopicShared(parent, topic) {
		if err := parent.Remove(topic); err != nil {
			return nil, err
		}
	}
	return fmt.Sprintf("summary %s removed", sum.ID()), nil
}

func summaryTopicShared(parent, topic *workbook.Topic) bool {
	for _, other := range parent.Summaries() {
		if other.TopicID() == topic.ID() {
			return true
		}
	}
	return false
}

// handleSummaryShow describes a summary and the topics it encloses
func handleSummaryShow(s *Session, cmd model.Command) (interface{}, error) {
	sum, err := resolveSummary(s, cmd.Args[0])
	if err != nil {
		return nil, err
	}
	return SummaryViewOf(sum), nil
}

// SummaryViewOf describes a summary.
func SummaryViewOf(sum *workbook.Summary) model.SummaryView {
	r := sum.Range()
	v := model.SummaryView{
		ID:         sum.ID(),
		Valid:      r.Valid(),
		TopicID:    sum.TopicID(),
		StyleID:    sum.StyleID(),
		Orphan:     sum.IsOrphan(),
		Modified:   sum.ModifiedTime(),
		ModifiedBy: sum.ModifiedBy(),
	}
	if p := sum.Parent(); p != nil {
		v.ParentID = p.ID()
	}
	if r.HasStart() {
		start := r.Start
		v.Start = &start
	}
	if r.HasEnd() {
		end := r.End
		v.End = &end
	}
	for _, t := range sum.EnclosingTopics() {
		v.Enclosed = append(v.Enclosed, t.Title())
	}
	return v
}

func parseRange(startArg, endArg string) (int, int, error) {
	start, err := parseBound(startArg)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseBound(endArg)
	if err != nil {
		return 0, 0, err
	}
	if !(dom.Range{Start: start, End: end}).Valid() {
		return 0, 0, fmt.Errorf("invalid range: start %d is after end %d", start, end)
	}
	return start, end, nil
}

func checkStyle(s *Session, id string) error {
	if id == "" {
		return nil
	}
	if s.Workbook.Workbook.StyleSheet().FindStyle(id) == nil {
		return fmt.Errorf("style %q: %w", id, ErrNotFound)
	}
	return nil
}
