package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beam-label/backend/internal/dxf"
	"github.com/beam-label/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRun_DefaultOutputPath(t *testing.T) {
	input := writeInput(t, "tower.csv", "label,x,y\nB1,1,2\nfb2,3,4\n")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{input}, &stdout, &stderr))

	got, err := os.ReadFile(strings.TrimSuffix(input, ".csv") + ".dxf")
	require.NoError(t, err)

	b := dxf.NewBuilder()
	b.ExportBeamLabels([]models.BeamLabelRecord{
		{Label: "B1", X: 1, Y: 2},
		{Label: "fb2", X: 3, Y: 4},
	})
	assert.Equal(t, b.Generate(), string(got))
	assert.Empty(t, stdout.String())
}

func TestRun_StdoutWithMarkers(t *testing.T) {
	input := writeInput(t, "beams.yaml", "beams:\n  - {label: WB1, x: 0, y: 0}\n")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-o", "-", "-markers", input}, &stdout, &stderr))

	out := stdout.String()
	assert.True(t, strings.HasSuffix(out, "0\nENDSEC\n0\nEOF"))
	assert.Contains(t, out, "0\nCIRCLE\n8\nBEAM_SPECIAL")
}

func TestRun_FormatOverride(t *testing.T) {
	input := writeInput(t, "beams.dat", `[{"label":"B7","x":1,"y":1}]`)
	output := filepath.Join(t.TempDir(), "out.dxf")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-format", "json", "-o", output, input}, &stdout, &stderr))

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(got), "1\nB7")
}

func TestRun_VerboseLogsSkippedRows(t *testing.T) {
	input := writeInput(t, "beams.csv", "label,x,y\nB1,east,0\nB2,0,0\n")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-v", "-o", "-", input}, &stdout, &stderr))

	assert.Contains(t, stderr.String(), "row skipped")
	assert.Contains(t, stderr.String(), "labels=1")
}

func TestRun_Errors(t *testing.T) {
	csv := writeInput(t, "beams.csv", "label,x,y\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no input", nil, "expected exactly one input file"},
		{"unknown extension", []string{"plan.dwg"}, "no reader for file"},
		{"sheet on csv", []string{"-sheet", "2F", csv}, "-sheet only applies to Excel input"},
		{"missing file", []string{filepath.Join(t.TempDir(), "gone.csv")}, "no such file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(tt.args, &stdout, &stderr)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
