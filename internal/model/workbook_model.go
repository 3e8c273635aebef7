package model

import "time"

// WorkbookRecord is a persisted workbook: metadata plus its serialized documents.
type WorkbookRecord struct {
	ID      int
	Name    string
	Owner   string
	Content []byte
	Styles  []byte
	Created time.Time
	Updated time.Time
}

// WorkbookInfo contains the fields used to add, query or update workbook records.
type WorkbookInfo struct {
	ID      int
	Name    string
	Owner   string
	Content []byte
	Styles  []byte
}

// WorkbookFilter selects which WorkbookInfo fields take part in a query or update.
type WorkbookFilter struct {
	ID      bool
	Name    bool
	Owner   bool
	Content bool
	Styles  bool
}

// JournalEntry is one recorded value change of a workbook element.
type JournalEntry struct {
	ID         int
	WorkbookID int
	SourceID   string
	EventType  string
	OldValue   *string
	NewValue   *string
	ModifiedBy string
	Created    time.Time
}
