package estimator

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"
)

// TimingEnv names the environment variable that enables timing output.
const TimingEnv = "GATE_ESTIMATE_TIMING_JSONL"

type timingEvent struct {
	Phase      string  `json:"phase"`
	Kind       string  `json:"kind"`
	File       string  `json:"file,omitempty"`
	Status     string  `json:"status,omitempty"`
	StartMS    float64 `json:"start_ms"`
	DurationMS float64 `json:"duration_ms"`
	EndMS      float64 `json:"end_ms"`
}

type timingRecorder struct {
	enabled bool
	start   time.Time
	mu      sync.Mutex
	file    *os.File
	enc     *json.Encoder
	err     error
}

func newTimingRecorder(start time.Time, path string) *timingRecorder {
	tr := &timingRecorder{start: start}
	if path == "" {
		return tr
	}
	f, err := os.Create(path)
	if err != nil {
		tr.err = err
		return tr
	}
	tr.enabled = true
	tr.file = f
	tr.enc = json.NewEncoder(f)
	return tr
}

func (tr *timingRecorder) Err() error {
	if tr == nil {
		return nil
	}
	return tr.err
}

func (tr *timingRecorder) Close() {
	if tr == nil || tr.file == nil {
		return
	}
	_ = tr.file.Close()
}

func (tr *timingRecorder) record(phase, kind, file, status string, start time.Time, duration time.Duration) {
	if tr == nil || !tr.enabled {
		return
	}
	startMS := durationToMS(start.Sub(tr.start))
	durationMS := durationToMS(duration)
	event := timingEvent{
		Phase:      phase,
		Kind:       kind,
		File:       file,
		Status:     status,
		StartMS:    startMS,
		DurationMS: durationMS,
		EndMS:      startMS + durationMS,
	}
	tr.mu.Lock()
	_ = tr.enc.Encode(event)
	tr.mu.Unlock()
}

func (tr *timingRecorder) RecordStage(phase string, start time.Time, duration time.Duration, status string) {
	tr.record(phase, "stage", "", status, start, duration)
}

func (tr *timingRecorder) RecordFile(phase, file, status string, start time.Time, duration time.Duration) {
	tr.record(phase, "file", file, status, start, duration)
}

func durationToMS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000_000.0
}

// resolveTimingPath prefers an explicit TimingPath over the environment.
func (e *Estimator) resolveTimingPath() string {
	if e.TimingPath != "" {
		return e.TimingPath
	}
	return strings.TrimSpace(os.Getenv(TimingEnv))
}
