package session

import (
	"fmt"

	"mindnoscape/workbook/internal/event"
	"mindnoscape/workbook/internal/history"
	"mindnoscape/workbook/internal/model"
	"mindnoscape/workbook/internal/style"
	"mindnoscape/workbook/internal/workbook"
)

// initStyleCommandHandlers initializes style command handlers
func initStyleCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"new":   handleStyleNew,
		"set":   handleStyleSet,
		"list":  handleStyleList,
		"prune": handleStylePrune,
	}
}

// initHistoryCommandHandlers initializes history command handlers
func initHistoryCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"undo": handleHistoryUndo,
		"redo": handleHistoryRedo,
	}
}

// initSystemCommandHandlers initializes system command handlers
func initSystemCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"stats": handleSystemStats,
		"close": handleSystemClose,
	}
}

// handleStyleNew adds a style to the style sheet of the open workbook
func handleStyleNew(s *Session, cmd model.Command) (interface{}, error) {
	ow, err := s.WorkbookGet()
	if err != nil {
		return nil, err
	}
	styleType := cmd.Args[0]
	switch styleType {
	case style.TypeTopic, style.TypeSummary, style.TypeSheet:
	default:
		return nil, fmt.Errorf("invalid style type %q", styleType)
	}
	sheet := ow.Workbook.StyleSheet()
	st := sheet.CreateStyle(styleType)
	if name := optionalArg(cmd, 1); name != "" {
		st.SetName(name)
	}
	sheet.AddStyle(st)
	return fmt.Sprintf("style %s added", st.ID()), nil
}

// handleStyleSet sets one property of a style; an empty value removes it
func handleStyleSet(s *Session, cmd model.Command) (interface{}, error) {
	ow, err := s.WorkbookGet()
	if err != nil {
		return nil, err
	}
	st := ow.Workbook.StyleSheet().FindStyle(cmd.Args[0])
	if st == nil {
		return nil, fmt.Errorf("style %q: %w", cmd.Args[0], ErrNotFound)
	}
	st.SetProperty(cmd.Args[1], cmd.Args[2])
	return fmt.Sprintf("style %s updated", st.ID()), nil
}

// handleStyleList describes every style with its reference count
func handleStyleList(s *Session, cmd model.Command) (interface{}, error) {
	ow, err := s.WorkbookGet()
	if err != nil {
		return nil, err
	}
	refs := ow.Workbook.StyleRefs()
	var views []model.StyleView
	for _, st := range ow.Workbook.StyleSheet().Styles() {
		views = append(views, model.StyleView{
			ID:         st.ID(),
			Type:       st.Type(),
			Name:       st.Name(),
			Properties: st.Properties(),
			References: refs.Count(st.ID()),
		})
	}
	return views, nil
}

// handleStylePrune removes the styles nothing refers to
func handleStylePrune(s *Session, cmd model.Command) (interface{}, error) {
	ow, err := s.WorkbookGet()
	if err != nil {
		return nil, err
	}
	removed := ow.Workbook.PruneStyles()
	return fmt.Sprintf("%d unused styles removed", len(removed)), nil
}

// handleHistoryUndo reverts the changes of the last recorded command
func handleHistoryUndo(s *Session, cmd model.Command) (interface{}, error) {
	ow, err := s.WorkbookGet()
	if err != nil {
		return nil, err
	}
	step, err := ow.History.Undo()
	if err != nil {
		return nil, err
	}
	s.reselectSheet()
	return historyStep("undo", step, true), nil
}

// handleHistoryRedo reapplies the changes of the last undone command
func handleHistoryRedo(s *Session, cmd model.Command) (interface{}, error) {
	ow, err := s.WorkbookGet()
	if err != nil {
		return nil, err
	}
	step, err := ow.History.Redo()
	if err != nil {
		return nil, err
	}
	s.reselectSheet()
	return historyStep("redo", step, false), nil
}

// historyStep describes a replayed step by its first operation.
func historyStep(action string, step *history.Step, undo bool) model.HistoryStep {
	op := step.Primary()
	hs := model.HistoryStep{Action: action, Type: string(op.Type), Changes: len(step.Operations)}
	if el, ok := op.Source.(workbook.Element); ok {
		hs.SourceID = el.ID()
	}
	switch {
	case op.Kind == event.TargetChange:
		if el, ok := op.Target.(workbook.Element); ok {
			hs.Value = el.ID()
		}
	case undo:
		hs.Value = op.OldValue
	default:
		hs.Value = op.NewValue
	}
	return hs
}

// handleSystemStats returns the metric counters
func handleSystemStats(s *Session, cmd model.Command) (interface{}, error) {
	return s.DataManager.Metrics.Snapshot()
}

// handleSystemClose ends the session state
func handleSystemClose(s *Session, cmd model.Command) (interface{}, error) {
	s.Close()
	return "session closed", nil
}
