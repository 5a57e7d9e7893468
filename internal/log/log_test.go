package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLog_FormatsFields(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	Info(CatScenario, "step done", "step", 3, "calls", 2)

	line := buf.String()
	require.Contains(t, line, "[INFO] [scenario] step done step=3 calls=2")
	require.True(t, strings.HasSuffix(line, "\n"))
}

func TestLog_OddFieldCount(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	Debug(CatSignal, "add", "id", 1, "orphan")

	require.Contains(t, buf.String(), "id=1 orphan=<missing>")
}

func TestLog_ErrorErr(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	ErrorErr(CatConfig, "load failed", errors.New("no such file"), "path", "x.yaml")
	ErrorErr(CatConfig, "nil error", nil)

	out := buf.String()
	require.Contains(t, out, "[ERROR] [config] load failed path=x.yaml error=no such file")
	require.Contains(t, out, "nil error error=<nil>")
}

func TestLog_MinLevelAndDisable(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	SetMinLevel(LevelWarn)
	Info(CatCLI, "hidden")
	Warn(CatCLI, "shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "[WARN] [cli] shown")

	buf.Reset()
	SetEnabled(false)
	Error(CatCLI, "muted")
	require.Empty(t, buf.String())
}

func TestLog_NoLoggerIsNoop(t *testing.T) {
	Reset()
	require.NotPanics(t, func() {
		Info(CatCLI, "nobody listening")
		SetEnabled(true)
		SetMinLevel(LevelError)
		RemoveHook(1)
	})
	require.Zero(t, OnEntry(func(Entry) {}))
}

func TestLog_Hooks(t *testing.T) {
	InitWriter(nil)
	t.Cleanup(Reset)

	var got []Entry
	id := OnEntry(func(e Entry) { got = append(got, e) })
	require.NotZero(t, id)

	Warn(CatWatch, "changed", "path", "a.yaml")
	require.Len(t, got, 1)
	require.Equal(t, LevelWarn, got[0].Level)
	require.Equal(t, CatWatch, got[0].Category)
	require.Equal(t, "changed", got[0].Message)
	require.Contains(t, got[0].Line, "path=a.yaml")

	RemoveHook(id)
	Warn(CatWatch, "again")
	require.Len(t, got, 1)
}

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	cleanup, err := Init(path, "signals")
	require.NoError(t, err)
	t.Cleanup(Reset)

	Info(CatCLI, "hello file")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[INFO] [cli] hello file")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelInfo, ParseLevel("INFO"))
	require.Equal(t, LevelWarn, ParseLevel("warning"))
	require.Equal(t, LevelError, ParseLevel("error"))
	require.Equal(t, LevelDebug, ParseLevel("bogus"))
	require.Equal(t, "UNKNOWN", Level(42).String())
}
