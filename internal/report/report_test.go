package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"notesmith/internal/note"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_StagesAndSummary(t *testing.T) {
	r := NewReport("full_build", "_site")

	stage := r.BeginStage("load")
	r.EndStage(stage, "ok", map[string]float64{"documents": 3}, nil)

	stage = r.BeginStage("render")
	r.EndStage(stage, "ok", nil, errors.New("disk full"))

	r.AddWarnings("xref", []note.Warning{
		note.NewWarning(note.KindDanglingReference, "a", "ghost", 0, "unknown target"),
		note.NewWarning(note.KindSelfReference, "b", "b", 0, "self relation"),
	})

	r.Finish()

	assert.Equal(t, 2, r.Summary.StageCount)
	assert.Equal(t, 1, r.Summary.FailedStages)
	assert.Equal(t, 2, r.Summary.WarningCount)
	assert.Equal(t, 1, r.Summary.WarningsByKind[note.KindDanglingReference])

	t.Run("Error warnings raise signals", func(t *testing.T) {
		require.Len(t, r.Signals, 1)
		assert.Equal(t, string(note.KindSelfReference), r.Signals[0].Code)
		assert.Equal(t, 1, r.Summary.SignalsBySeverity["error"])
	})

	t.Run("Error forces stage status", func(t *testing.T) {
		assert.Equal(t, "error", r.Stages[1].Status)
		assert.Equal(t, "disk full", r.Stages[1].Error)
	})
}

func TestReport_Save(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build_report.json")

	r := NewReport("check", "")
	stage := r.BeginStage("load")
	r.EndStage(stage, "ok", nil, nil)
	r.Finish()

	require.NoError(t, r.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "check", decoded.Kind)
	require.Len(t, decoded.Stages, 1)
	assert.Equal(t, "load", decoded.Stages[0].Name)
}
