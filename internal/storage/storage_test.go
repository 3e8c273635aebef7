package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindnoscape/workbook/internal/log"
	"mindnoscape/workbook/internal/model"
	"mindnoscape/workbook/internal/workbook"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	cfg := &model.Config{DatabaseType: string(SQLite), DatabaseFile: MemoryDSN}
	s, err := NewStorage(cfg, log.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestValidateDBDriver(t *testing.T) {
	tests := []struct {
		name    string
		want    DBDriver
		wantErr bool
	}{
		{"sqlite3", SQLite3, false},
		{"sqlite", SQLite, false},
		{"postgres", Postgres, false},
		{"", SQLite3, false},
		{"mysql", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateDBDriver(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDataSource(t *testing.T) {
	cfg := &model.Config{DatabaseDir: "data", DatabaseFile: "m.db", DatabaseURL: "postgres://u@h/db"}
	assert.Equal(t, filepath.Join("data", "m.db"), dataSource(cfg, SQLite3))
	assert.Equal(t, "postgres://u@h/db", dataSource(cfg, Postgres))

	cfg.DatabaseFile = MemoryDSN
	assert.Equal(t, MemoryDSN, dataSource(cfg, SQLite))
}

func TestRebindPlaceholders(t *testing.T) {
	pg := &BaseDatabase{driver: Postgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := &BaseDatabase{driver: SQLite}
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}

func TestCommitWithoutTransaction(t *testing.T) {
	s := newTestStorage(t)
	assert.ErrorIs(t, s.GetDatabase().Commit(), ErrNoTransaction)
}

func TestUserStoreCRUD(t *testing.T) {
	s := newTestStorage(t)

	id, err := s.UserAdd(model.UserInfo{Username: "alice", PasswordHash: []byte("hash"), Active: true})
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = s.UserAdd(model.UserInfo{Username: "alice"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	users, err := s.UserGet(model.UserInfo{Username: "alice"}, model.UserFilter{Username: true})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, id, users[0].ID)
	assert.Equal(t, []byte("hash"), users[0].PasswordHash)
	assert.True(t, users[0].Active)

	require.NoError(t, s.UserUpdate(users[0], model.UserInfo{Username: "bob", Active: false}, model.UserFilter{Username: true, Active: true}))
	users, err = s.UserGet(model.UserInfo{ID: id}, model.UserFilter{ID: true})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)
	assert.False(t, users[0].Active)

	require.NoError(t, s.UserDelete(users[0]))
	users, err = s.UserGet(model.UserInfo{}, model.UserFilter{})
	require.NoError(t, err)
	assert.Empty(t, users)

	err = s.UserUpdate(&model.User{ID: id}, model.UserInfo{Username: "carol"}, model.UserFilter{Username: true})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWorkbookStoreCRUD(t *testing.T) {
	s := newTestStorage(t)

	id, err := s.WorkbookAdd(model.WorkbookInfo{Name: "plans", Owner: "alice", Content: []byte("<xmap-content/>")})
	require.NoError(t, err)

	_, err = s.WorkbookAdd(model.WorkbookInfo{Name: "plans", Owner: "alice"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = s.WorkbookAdd(model.WorkbookInfo{Name: "plans", Owner: "bob"})
	require.NoError(t, err)

	list, err := s.WorkbookGet(model.WorkbookInfo{Owner: "alice"}, model.WorkbookFilter{Owner: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Content)

	full, err := s.WorkbookGet(model.WorkbookInfo{ID: id}, model.WorkbookFilter{ID: true, Content: true})
	require.NoError(t, err)
	require.Len(t, full, 1)
	assert.Equal(t, []byte("<xmap-content/>"), full[0].Content)
	assert.Empty(t, full[0].Styles)

	require.NoError(t, s.WorkbookUpdate(full[0], model.WorkbookInfo{Styles: []byte("<xmap-styles/>")}, model.WorkbookFilter{Styles: true}))
	full, err = s.WorkbookGet(model.WorkbookInfo{ID: id}, model.WorkbookFilter{ID: true, Styles: true})
	require.NoError(t, err)
	assert.Equal(t, []byte("<xmap-styles/>"), full[0].Styles)

	value := "x"
	require.NoError(t, s.JournalAdd([]model.JournalEntry{{WorkbookID: id, SourceID: "t1", EventType: "titleText", NewValue: &value}}))
	require.NoError(t, s.WorkbookDelete(full[0]))

	list, err = s.WorkbookGet(model.WorkbookInfo{ID: id}, model.WorkbookFilter{ID: true})
	require.NoError(t, err)
	assert.Empty(t, list)
	entries, err := s.JournalGet(id, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestJournalStoreOrderAndLimit(t *testing.T) {
	s := newTestStorage(t)
	id, err := s.WorkbookAdd(model.WorkbookInfo{Name: "j", Owner: "alice"})
	require.NoError(t, err)

	first, second := "2,", "2,5"
	require.NoError(t, s.JournalAdd([]model.JournalEntry{
		{WorkbookID: id, SourceID: "s1", EventType: "range", NewValue: &first, ModifiedBy: "alice"},
		{WorkbookID: id, SourceID: "s1", EventType: "range", OldValue: &first, NewValue: &second, ModifiedBy: "alice"},
	}))
	require.NoError(t, s.JournalAdd(nil))

	entries, err := s.JournalGet(id, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2,5", *entries[0].NewValue)
	assert.Equal(t, "2,", *entries[0].OldValue)
	assert.Nil(t, entries[1].OldValue)
	assert.Equal(t, "alice", entries[1].ModifiedBy)
	assert.False(t, entries[1].Created.IsZero())

	limited, err := s.JournalGet(id, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, s.JournalDelete(id))
	entries, err = s.JournalGet(id, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func sampleWorkbook(t *testing.T) *workbook.Workbook {
	t.Helper()
	w := workbook.New(workbook.WithModifier("alice"))
	sheet := w.CreateSheet()
	sheet.SetTitle("Plan")
	root := w.CreateTopic()
	root.SetTitle("Goals")
	require.NoError(t, sheet.ReplaceRootTopic(root))
	require.NoError(t, w.AddSheet(sheet, -1))
	for _, title := range []string{"a", "b", "c"} {
		c := w.CreateTopic()
		c.SetTitle(title)
		require.NoError(t, root.Add(c, -1, workbook.Attached))
	}
	st := w.StyleSheet().CreateStyle("summary")
	w.StyleSheet().AddStyle(st)
	s := w.CreateSummary()
	require.NoError(t, root.AddSummary(s))
	s.SetStartIndex(0)
	s.SetEndIndex(2)
	s.SetStyleID(st.ID())
	return w
}

func TestFileExportImportRoundTrip(t *testing.T) {
	for _, format := range []string{FormatXML, FormatJSON, FormatXMind} {
		t.Run(format, func(t *testing.T) {
			w := sampleWorkbook(t)
			summary := w.PrimarySheet().RootTopic().Summaries()[0]
			filename := filepath.Join(t.TempDir(), "out", ExportFilename("My Plan", format))

			require.NoError(t, FileExport(w, filename, format))
			_, err := os.Stat(filename)
			require.NoError(t, err)

			got, err := FileImport(filename, format)
			require.NoError(t, err)
			root := got.PrimarySheet().RootTopic()
			assert.Equal(t, "Goals", root.Title())
			assert.Len(t, root.Children(workbook.Attached), 3)

			s := got.FindSummary(summary.ID())
			require.NotNil(t, s)
			assert.Equal(t, 0, s.StartIndex())
			assert.Equal(t, 2, s.EndIndex())
			assert.Len(t, s.EnclosingTopics(), 3)
			if format == FormatXMind {
				assert.NotNil(t, got.StyleSheet().FindStyle(summary.StyleID()))
				assert.Equal(t, 1, got.StyleRefs().Count(summary.StyleID()))
			}
		})
	}
}

func TestFileIOUnsupportedFormat(t *testing.T) {
	w := sampleWorkbook(t)
	assert.Error(t, FileExport(w, filepath.Join(t.TempDir(), "x.csv"), "csv"))

	path := filepath.Join(t.TempDir(), "x.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b"), 0644))
	_, err := FileImport(path, "csv")
	assert.Error(t, err)

	_, err = FileImport(filepath.Join(t.TempDir(), "missing.xml"), FormatXML)
	assert.Error(t, err)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "my-plan.xml", ExportFilename("My Plan", FormatXML))
	assert.Equal(t, "workbook.json", ExportFilename("???", FormatJSON))
}
