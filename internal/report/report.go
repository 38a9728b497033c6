package report

import (
	"encoding/json"
	"os"
	"time"

	"notesmith/internal/note"
)

const reportVersion = "v0.1.0"

type Signal struct {
	Code     string  `json:"code"`
	Stage    string  `json:"stage"`
	Severity string  `json:"severity"`
	Message  string  `json:"message"`
	Value    float64 `json:"value,omitempty"`
}

type StageMetric struct {
	Name       string             `json:"name"`
	Status     string             `json:"status"`
	StartedAt  string             `json:"started_at"`
	FinishedAt string             `json:"finished_at"`
	DurationMS int64              `json:"duration_ms"`
	Counters   map[string]float64 `json:"counters,omitempty"`
	Error      string             `json:"error,omitempty"`

	started time.Time
}

type Summary struct {
	StageCount        int                      `json:"stage_count"`
	FailedStages      int                      `json:"failed_stages"`
	WarningCount      int                      `json:"warning_count"`
	WarningsByKind    map[note.WarningKind]int `json:"warnings_by_kind"`
	SignalsBySeverity map[string]int           `json:"signals_by_severity"`
}

// Report collects stage metrics, signals, and the aggregated warning list of
// one pipeline run, and serializes them next to the rendered output.
type Report struct {
	Version    string         `json:"version"`
	Kind       string         `json:"kind"`
	Output     string         `json:"output"`
	StartedAt  string         `json:"started_at"`
	FinishedAt string         `json:"finished_at"`
	Stages     []StageMetric  `json:"stages"`
	Signals    []Signal       `json:"signals"`
	Warnings   []note.Warning `json:"warnings"`
	Summary    Summary        `json:"summary"`
}

func NewReport(kind, output string) *Report {
	return &Report{
		Version:   reportVersion,
		Kind:      kind,
		Output:    output,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Stages:    []StageMetric{},
		Signals:   []Signal{},
		Warnings:  []note.Warning{},
	}
}

// BeginStage starts timing a named stage.
func (r *Report) BeginStage(name string) StageMetric {
	now := time.Now().UTC()
	return StageMetric{
		Name:      name,
		StartedAt: now.Format(time.RFC3339),
		started:   now,
	}
}

// EndStage records a finished stage. A non-nil err forces error status.
func (r *Report) EndStage(stage StageMetric, status string, counters map[string]float64, err error) {
	now := time.Now().UTC()
	stage.FinishedAt = now.Format(time.RFC3339)
	stage.DurationMS = now.Sub(stage.started).Milliseconds()
	stage.Status = status
	stage.Counters = counters
	if err != nil {
		stage.Status = "error"
		stage.Error = err.Error()
	}
	r.Stages = append(r.Stages, stage)
}

func (r *Report) AddSignal(code, stage, severity, message string, value float64) {
	r.Signals = append(r.Signals, Signal{
		Code:     code,
		Stage:    stage,
		Severity: severity,
		Message:  message,
		Value:    value,
	})
}

// AddWarnings folds batch warnings into the report. Error-severity warnings
// also raise a signal so they stand out in the summary.
func (r *Report) AddWarnings(stage string, warnings []note.Warning) {
	for _, w := range warnings {
		r.Warnings = append(r.Warnings, w)
		if w.Severity == note.SeverityError {
			r.AddSignal(string(w.Kind), stage, "error", w.Message, 0)
		}
	}
}

// Finish closes the report and computes the summary.
func (r *Report) Finish() {
	r.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	note.SortWarnings(r.Warnings)

	summary := Summary{
		StageCount:        len(r.Stages),
		WarningCount:      len(r.Warnings),
		WarningsByKind:    make(map[note.WarningKind]int),
		SignalsBySeverity: make(map[string]int),
	}
	for _, s := range r.Stages {
		if s.Status == "error" {
			summary.FailedStages++
		}
	}
	for _, w := range r.Warnings {
		summary.WarningsByKind[w.Kind]++
	}
	for _, s := range r.Signals {
		summary.SignalsBySeverity[s.Severity]++
	}
	r.Summary = summary
}

// Save writes the report as indented JSON.
func (r *Report) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}
