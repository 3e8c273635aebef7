package model

// OutlineWorkbook is the JSON view of a workbook used for export and import.
type OutlineWorkbook struct {
	Sheets []*OutlineSheet `json:"sheets"`
}

// OutlineSheet is one sheet with its root topic.
type OutlineSheet struct {
	ID    string        `json:"id"`
	Title string        `json:"title"`
	Root  *OutlineTopic `json:"root"`
}

// OutlineTopic is a topic with its children grouped by attachment kind.
type OutlineTopic struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	StyleID   string            `json:"style_id,omitempty"`
	Attached  []*OutlineTopic   `json:"attached,omitempty"`
	Detached  []*OutlineTopic   `json:"detached,omitempty"`
	Summary   []*OutlineTopic   `json:"summary_topics,omitempty"`
	Summaries []*OutlineSummary `json:"summaries,omitempty"`
}

// OutlineSummary is a summary over a range of attached children.
type OutlineSummary struct {
	ID      string `json:"id"`
	Start   *int   `json:"start,omitempty"`
	End     *int   `json:"end,omitempty"`
	TopicID string `json:"topic_id,omitempty"`
	StyleID string `json:"style_id,omitempty"`
}
