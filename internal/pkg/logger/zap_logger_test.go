package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llm.log")
	l := NewIsolatedLogger(path)

	l.Info("Workflow", "stage changed", map[string]interface{}{"to": "GENERATION", "session_id": "s1"})
	l.Debug("Workflow", "debug lines are below file level", nil)
	require.NoError(t, l.Sync())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}

	require.Len(t, lines, 1)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "stage changed", lines[0]["message"])
	assert.Equal(t, "Workflow", lines[0]["module"])
	assert.Equal(t, "s1", lines[0]["session_id"])
	assert.Equal(t, map[string]interface{}{"to": "GENERATION", "session_id": "s1"}, lines[0]["details"])
}

func TestNopLoggerAcceptsNilDetails(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.Warn("Test", "nothing", nil)
		l.Error("Test", "nothing", map[string]interface{}{"error": "boom"})
	})
}
