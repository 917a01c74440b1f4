package estimator

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/gate-estimate/internal/costs"
)

func TestTimingJSONLWritten(t *testing.T) {
	dir := t.TempDir()
	file := writeSource(t, dir, "a.v", "and or")
	missing := filepath.Join(dir, "missing.v")
	timingPath := filepath.Join(dir, "timing.jsonl")

	est := New(builtin(t, costs.FPMul))
	est.TimingPath = timingPath
	_, _, err := est.EstimateAll([]string{file, missing})
	require.NoError(t, err)

	raw, err := os.ReadFile(timingPath)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(raw), []byte("\n"))
	require.Len(t, lines, 3)

	statuses := map[string]string{}
	var foundTotal bool
	for _, line := range lines {
		var ev timingEvent
		require.NoError(t, json.Unmarshal(line, &ev))
		switch ev.Kind {
		case "file":
			statuses[ev.File] = ev.Status
		case "stage":
			foundTotal = ev.Phase == "total"
		}
	}
	assert.True(t, foundTotal, "expected total stage event")
	assert.Equal(t, "ok", statuses[file])
	assert.Equal(t, "missing", statuses[missing])
}

func TestTimingPathFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.jsonl")
	t.Setenv(TimingEnv, path)

	est := New(builtin(t, costs.Multiplier))
	assert.Equal(t, path, est.resolveTimingPath())

	est.TimingPath = "explicit.jsonl"
	assert.Equal(t, "explicit.jsonl", est.resolveTimingPath())
}

func TestTimingDisabledByDefault(t *testing.T) {
	t.Setenv(TimingEnv, "")
	start := time.Now()
	tr := newTimingRecorder(start, "")
	assert.NoError(t, tr.Err())
	tr.RecordStage("total", start, time.Millisecond, "ok")
	tr.Close()
}
