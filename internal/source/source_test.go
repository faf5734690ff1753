package source

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_FindReader(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		path string
		want string
	}{
		{"/data/ETABS_梁編號_分頁.xlsx", "xlsx"},
		{"beams.XLSM", "xlsx"},
		{"beams.csv", "csv"},
		{"beams.yml", "yaml"},
		{"beams.yaml", "yaml"},
		{"beams.json", "json"},
	}
	for _, tt := range tests {
		rd, err := reg.FindReader(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, rd.Name(), tt.path)
	}

	_, err := reg.FindReader("drawing.dwg")
	assert.True(t, errors.Is(err, ErrNoReader))
}

func TestRegistry_ReaderByName(t *testing.T) {
	reg := GetGlobalRegistry()

	rd, err := reg.ReaderByName("CSV")
	require.NoError(t, err)
	assert.Equal(t, "csv", rd.Name())

	_, err = reg.ReaderByName("dwg")
	assert.True(t, errors.Is(err, ErrNoReader))
}

type stubReader struct{ *CSVReader }

func (stubReader) Name() string            { return "stub" }
func (stubReader) CanRead(path string) bool { return path == "special.dat" }

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()
	reg.Register(stubReader{NewCSVReader()})

	rd, err := reg.FindReader("special.dat")
	require.NoError(t, err)
	assert.Equal(t, "stub", rd.Name())
}

func TestRegistry_Extensions(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{".xlsx", ".xlsm", ".csv", ".txt", ".yaml", ".yml", ".json"},
		NewRegistry().Extensions())
}
