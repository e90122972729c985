package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_ModuleJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelDebug, true).Module("codec").With("file", "a.bin")
	l.Info("encoded", "blocks", 4)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	assert.Equal(t, "codec", entry["module"])
	assert.Equal(t, "a.bin", entry["file"])
	assert.Equal(t, "encoded", entry["msg"])
	assert.Equal(t, float64(4), entry["blocks"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelWarn, false)
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown too")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Equal(t, 2, strings.Count(out, "shown"))
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing")
}

func TestSetDefault(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	var buf bytes.Buffer
	SetDefault(New(&buf, slog.LevelInfo, false))
	Info("via default", "k", "v")
	assert.Contains(t, buf.String(), "via default")
	assert.Contains(t, buf.String(), "k=v")

	SetDefault(nil)
	assert.NotNil(t, Default())
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, slog.LevelError+1, VerbosityToLevel(0))
	assert.Equal(t, slog.LevelError, VerbosityToLevel(1))
	assert.Equal(t, slog.LevelWarn, VerbosityToLevel(2))
	assert.Equal(t, slog.LevelInfo, VerbosityToLevel(3))
	assert.Equal(t, slog.LevelDebug, VerbosityToLevel(5))
}
