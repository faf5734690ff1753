package source

import (
	"errors"
	"math"
	"testing"

	"github.com/beam-label/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapHeader_Aliases(t *testing.T) {
	hm, err := mapHeader([]string{"ETABS編號", "編號", "樓層", "X座標", "Y座標", "Show Marker", "text_height"})
	require.NoError(t, err)

	assert.Equal(t, 0, hm.index[colSourceID])
	assert.Equal(t, 1, hm.index[colLabel])
	assert.Equal(t, 2, hm.index[colStory])
	assert.Equal(t, 3, hm.index[colX])
	assert.Equal(t, 4, hm.index[colY])
	assert.Equal(t, 5, hm.index[colMarker])
	assert.Equal(t, 6, hm.index[colHeight])
}

func TestMapHeader_FirstOccurrenceWins(t *testing.T) {
	hm, err := mapHeader([]string{"label", "x", "y", "X"})
	require.NoError(t, err)
	assert.Equal(t, 1, hm.index[colX])
}

func TestMapHeader_Missing(t *testing.T) {
	_, err := mapHeader([]string{"label", "notes"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "x, y")
}

func TestHeaderMapRecord(t *testing.T) {
	hm, err := mapHeader([]string{"label", "x", "y", "z", "height", "rotation", "marker", "vertical"})
	require.NoError(t, err)

	t.Run("full row", func(t *testing.T) {
		rec, rowErr := hm.record([]string{"B1-1", "10.5", "-2", "3", "4", "0.5", "yes", "no"}, 2, "")
		require.Nil(t, rowErr)
		assert.Equal(t, models.BeamLabelRecord{
			Label: "B1-1", X: 10.5, Y: -2, Z: 3, Height: 4, Rotation: 0.5, ShowMarker: true,
		}, rec)
	})

	t.Run("short row uses zero values", func(t *testing.T) {
		rec, rowErr := hm.record([]string{"b2", "1", "2"}, 3, "")
		require.Nil(t, rowErr)
		assert.Equal(t, 0.0, rec.Z)
		assert.Equal(t, 2.5, rec.TextHeight())
		assert.False(t, rec.ShowMarker)
	})

	t.Run("vertical sets rotation", func(t *testing.T) {
		rec, rowErr := hm.record([]string{"B3", "0", "0", "", "", "", "", "TRUE"}, 4, "")
		require.Nil(t, rowErr)
		assert.True(t, rec.Vertical)
		assert.InDelta(t, math.Pi/2, rec.Rotation, 1e-12)
	})

	t.Run("non-numeric coordinate", func(t *testing.T) {
		_, rowErr := hm.record([]string{"B4", "east", "0"}, 5, "2F")
		require.NotNil(t, rowErr)
		assert.Equal(t, models.RowError{Sheet: "2F", Row: 5, Column: "x", Value: "east", Reason: "not a number"}, *rowErr)
	})

	t.Run("bad boolean", func(t *testing.T) {
		_, rowErr := hm.record([]string{"B5", "0", "0", "", "", "", "maybe"}, 6, "")
		require.NotNil(t, rowErr)
		assert.Equal(t, "marker", rowErr.Column)
		assert.Equal(t, "not a boolean", rowErr.Reason)
	})
}

func TestReadTable(t *testing.T) {
	res := newResult("test")
	err := readTable(res,
		[]string{"label", "x", "y"},
		[][]string{
			{"B1", "0", "0"},
			{"", " ", ""},
			{"B2", "bad", "0"},
			{"WB1", "5", "5"},
		},
		2, "RF")
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	assert.Equal(t, "B1", res.Records[0].Label)
	assert.Equal(t, "RF", res.Records[0].Story)
	assert.Equal(t, "WB1", res.Records[1].Label)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, 4, res.Errors[0].Row)
}
