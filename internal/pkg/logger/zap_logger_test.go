package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogsNewestFirstWithPaging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	lines := `{"level":"INFO","timestamp":"t1","message":"first","module":"Pipeline"}
{"level":"WARN","timestamp":"t2","message":"second","module":"Pipeline"}
not json
{"level":"INFO","timestamp":"t3","message":"third","module":"Session"}
`
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	l := &ZapLogger{filePath: path}

	all, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Message)
	assert.NotEmpty(t, all[0].Id)

	infos, err := l.GetLogs("INFO", 10, 0)
	require.NoError(t, err)
	assert.Len(t, infos, 2)

	page, err := l.GetLogs("", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "second", page[0].Message)

	found, err := l.GetLogById(all[2].Id)
	require.NoError(t, err)
	assert.Equal(t, "first", found.Message)
}

func TestGetLogsMissingFile(t *testing.T) {
	l := &ZapLogger{filePath: filepath.Join(t.TempDir(), "missing.log")}
	entries, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.Empty(t, mustLogs(t, NewNopLogger()))
}

func mustLogs(t *testing.T, l *ZapLogger) []LogEntry {
	t.Helper()
	entries, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	return entries
}

func TestGetLogsLevelIsCaseInsensitive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte(`{"level":"WARN","message":"slow search"}`+"\n"), 0o644))

	l := &ZapLogger{filePath: path}
	entries, err := l.GetLogs("warn", 10, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = l.GetLogById("nope")
	assert.ErrorIs(t, err, ErrLogNotFound)
}

func TestFileLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "display.log")
	l := NewIsolatedLogger(path)

	l.Info("Hub", "Client registered", map[string]interface{}{"session_id": "abc"})
	l.Debug("Hub", "below the file level", nil)
	l.Error("Hub", "Failed to encode frame", map[string]interface{}{"error": "boom"})
	require.NoError(t, l.Sync())

	entries := mustLogs(t, l)
	require.Len(t, entries, 2)
	assert.Equal(t, "Failed to encode frame", entries[0].Message)
	assert.Equal(t, "Hub", entries[1].Module)
	assert.Equal(t, "abc", entries[1].Details["session_id"])
}
