package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wireddown/qt-py-s3-daq-app-sub000/pkg/log"
)

func writeTestLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.qlog")
	logger, err := log.NewFileLogger(path)
	require.NoError(t, err)
	defer logger.Close()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	logger.Log(log.Event{
		Timestamp: base,
		SessionID: "session-one",
		Direction: log.DirectionOut,
		Category:  log.CategoryMessage,
		Group:     "zone-a",
		Topic:     "qtpy/v1/zone-a/node-1/command",
		Message:   &log.MessageEvent{Kind: "action", Command: "identify", MessageID: "identify-1", Size: 180},
	})
	logger.Log(log.Event{
		Timestamp: base.Add(50 * time.Millisecond),
		SessionID: "session-one",
		Direction: log.DirectionIn,
		Category:  log.CategoryDiscard,
		Group:     "zone-a",
		Topic:     "qtpy/v1/zone-a/broadcast",
		Discard:   &log.DiscardEvent{Reason: "self-originated", MessageID: "identify-1"},
	})
	logger.Log(log.Event{
		Timestamp:   base.Add(100 * time.Millisecond),
		SessionID:   "session-one",
		Direction:   log.DirectionNone,
		Category:    log.CategoryState,
		StateChange: &log.StateChangeEvent{OldState: "Idle", NewState: "Discovering"},
	})
	return path
}

func TestRunViewFormatsEvents(t *testing.T) {
	path := writeTestLog(t)

	var out bytes.Buffer
	require.NoError(t, RunView(path, log.Filter{}, &out))

	text := out.String()
	assert.Contains(t, text, "command=identify")
	assert.Contains(t, text, "dropped: self-originated")
	assert.Contains(t, text, "Idle -> Discovering")
	assert.Contains(t, text, "session:session-")
}

func TestRunViewFilterByCategory(t *testing.T) {
	path := writeTestLog(t)

	category := log.CategoryDiscard
	var out bytes.Buffer
	require.NoError(t, RunView(path, log.Filter{Category: &category}, &out))

	text := out.String()
	assert.Contains(t, text, "self-originated")
	assert.NotContains(t, text, "command=identify")
}

func TestRunStats(t *testing.T) {
	path := writeTestLog(t)

	stats, err := Collect(path)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalEvents)
	assert.Equal(t, 1, stats.EventsByCategory[log.CategoryMessage])
	assert.Equal(t, 1, stats.EventsByCategory[log.CategoryDiscard])
	assert.Equal(t, 1, stats.CommandCounts["identify"])
	assert.Equal(t, 1, stats.DiscardReasons["self-originated"])
	assert.Len(t, stats.Sessions, 1)
	assert.Equal(t, 100*time.Millisecond, stats.TimeRange.End.Sub(stats.TimeRange.Start))

	var out bytes.Buffer
	require.NoError(t, RunStats(path, &out))
	assert.Contains(t, out.String(), "Events:    3")
}

func TestRunExportWritesJSONLines(t *testing.T) {
	path := writeTestLog(t)
	output := filepath.Join(t.TempDir(), "out.jsonl")

	require.NoError(t, RunExport(path, output))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "out", first["direction"])
	assert.Equal(t, "message", first["category"])
}

func TestParseFlags(t *testing.T) {
	d, err := ParseDirectionFlag("in")
	require.NoError(t, err)
	assert.Equal(t, log.DirectionIn, d)

	_, err = ParseDirectionFlag("sideways")
	assert.Error(t, err)

	c, err := ParseCategoryFlag("discard")
	require.NoError(t, err)
	assert.Equal(t, log.CategoryDiscard, c)

	_, err = ParseCategoryFlag("everything")
	assert.Error(t, err)
}
