package output

import (
	"log/slog"
	"time"
)

// Stage names for the analysis pipeline.
const (
	StageLoad      = "load"
	StageTotal     = "total_yield"
	StageMoment    = "moment"
	StageIntensity = "intensity_map"
	StageSegments  = "segment_map"
	StageVariance  = "variance_map"
	StageWrite     = "write"
)

// StageTimer times the sequential stages of a single analysis run.
type StageTimer struct {
	start      time.Time
	stageStart time.Time
	lastStage  string
	order      []string
	durations  map[string]time.Duration
}

// NewStageTimer starts a timer for a new run.
func NewStageTimer() *StageTimer {
	now := time.Now()
	return &StageTimer{
		start:      now,
		stageStart: now,
		durations:  make(map[string]time.Duration),
	}
}

// Start begins timing a named stage, ending the previous one.
func (t *StageTimer) Start(stage string) {
	now := time.Now()
	if t.lastStage != "" {
		t.durations[t.lastStage] += now.Sub(t.stageStart)
	}
	if _, seen := t.durations[stage]; !seen {
		t.order = append(t.order, stage)
	}
	t.stageStart = now
	t.lastStage = stage
}

// Log ends the current stage and logs the full breakdown.
func (t *StageTimer) Log() {
	now := time.Now()
	if t.lastStage != "" {
		t.durations[t.lastStage] += now.Sub(t.stageStart)
		t.lastStage = ""
	}

	total := now.Sub(t.start)
	attrs := []any{"total_ms", total.Milliseconds()}
	for _, stage := range t.order {
		attrs = append(attrs, stage+"_ms", t.durations[stage].Milliseconds())
	}
	slog.Info("timing", attrs...)
}
