package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindnoscape/workbook/internal/data"
	"mindnoscape/workbook/internal/log"
	"mindnoscape/workbook/internal/model"
	"mindnoscape/workbook/internal/session"
	"mindnoscape/workbook/internal/storage"
	"mindnoscape/workbook/internal/ui"
)

func newTestCLI(t *testing.T) (*CLI, *bytes.Buffer) {
	t.Helper()
	testCfg := &model.Config{
		DatabaseType:        string(storage.SQLite),
		DatabaseFile:        storage.MemoryDSN,
		ExportDir:           t.TempDir(),
		IDFormat:            "ksuid",
		DefaultUser:         "guest",
		DefaultUserActive:   true,
		DefaultUserPassword: "guest",
	}
	st, err := storage.NewStorage(testCfg, log.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	dm, err := data.NewDataManager(st.UserStore, st.WorkbookStore, st.JournalStore, testCfg, log.NewNop())
	require.NoError(t, err)
	sm := session.NewSessionManager(dm, log.NewNop())
	t.Cleanup(sm.Close)

	var buf bytes.Buffer
	c, err := NewCLI(sm, ui.NewUI(&buf, false), log.NewNop())
	require.NoError(t, err)
	return c, &buf
}

func TestParseArgs(t *testing.T) {
	c := &CLI{}
	tests := []struct {
		input string
		want  []string
	}{
		{"topic add root a", []string{"topic", "add", "root", "a"}},
		{`topic add root "two words"`, []string{"topic", "add", "root", "two words"}},
		{`user login guest ""`, []string{"user", "login", "guest", ""}},
		{"  summary   show\troot#0 ", []string{"summary", "show", "root#0"}},
		{`sheet add "a"b`, []string{"sheet", "add", "ab"}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ParseArgs(tt.input))
		})
	}
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand([]string{"Summary", "RANGE", "root#0", "1", "2"})
	require.NoError(t, err)
	assert.Equal(t, model.Command{Scope: "summary", Operation: "range", Args: []string{"root#0", "1", "2"}}, cmd)

	cmd, err = ParseCommand([]string{"workbook"})
	require.NoError(t, err)
	assert.Empty(t, cmd.Operation)

	_, err = ParseCommand(nil)
	assert.Error(t, err)
}

func TestQuoteRoundTrip(t *testing.T) {
	c := &CLI{}
	line := Quote("workbook", "import", "my file.xmind", "xmind", "")
	assert.Equal(t, []string{"workbook", "import", "my file.xmind", "xmind", ""}, c.ParseArgs(line))
}

func TestExecute(t *testing.T) {
	c, out := newTestCLI(t)

	require.NoError(t, c.Execute("user login guest guest"))
	require.NoError(t, c.Execute(`workbook new "Road map"`))
	require.NoError(t, c.Execute(`topic add root "First step"`))
	require.NoError(t, c.Execute("topic add root second"))
	require.NoError(t, c.Execute("summary add root 0 1 Both"))
	assert.Equal(t, "guest @ Road map / Sheet 1 > ", c.Prompt())

	out.Reset()
	require.NoError(t, c.Execute("workbook show"))
	assert.Contains(t, out.String(), "0 First step")
	assert.Contains(t, out.String(), "{0..1} Both")

	err := c.Execute("summary range root#0 1 0")
	assert.Error(t, err)
	err = c.Execute("topic")
	assert.ErrorIs(t, err, session.ErrInvalidOperation)

	assert.NoError(t, c.Execute("# comment"))
	assert.ErrorIs(t, c.Execute("exit"), ErrExit)
}

func TestHelp(t *testing.T) {
	c, out := newTestCLI(t)

	require.NoError(t, c.Execute("help"))
	assert.Contains(t, out.String(), "summary range <summary> <start|-> <end|->")

	out.Reset()
	require.NoError(t, c.Execute("help history"))
	assert.Equal(t, "history\n  history redo\n  history undo\n", out.String())

	out.Reset()
	require.NoError(t, c.Execute("help workbook save"))
	assert.Equal(t, "workbook save\n", out.String())

	assert.Error(t, c.Execute("help nothing"))
	assert.Error(t, c.Execute("help workbook fly"))
}

func TestExecuteScript(t *testing.T) {
	c, out := newTestCLI(t)
	dir := t.TempDir()

	script := filepath.Join(dir, "build.mns")
	require.NoError(t, os.WriteFile(script, []byte(`# build a workbook
user login guest guest
workbook new plan
topic add root a
topic add root b
summary add root 0 1
workbook save
`), 0644))
	require.NoError(t, c.ExecuteScript(script))
	assert.Contains(t, out.String(), "workbook 'plan' saved")

	broken := filepath.Join(dir, "broken.mns")
	require.NoError(t, os.WriteFile(broken, []byte("workbook open plan\ntopic remove root\n"), 0644))
	err := c.ExecuteScript(broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.mns:2")

	assert.Error(t, c.ExecuteScript(filepath.Join(dir, "missing.mns")))
}
