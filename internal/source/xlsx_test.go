package source

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes one sheet per entry of sheets. The first sheet
// replaces the default "Sheet1".
func buildWorkbook(t *testing.T, names []string, sheets map[string][][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range names {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			row := row
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestXLSXReader_MultipleSheets(t *testing.T) {
	buf := buildWorkbook(t, []string{"2F", "Notes", "3F"}, map[string][][]interface{}{
		"2F": {
			{"ETABS編號", "編號", "X座標", "Y座標"},
			{"B12", "B1-1", 0, 0},
			{"B13", "b2", 4.5, 2},
		},
		"Notes": {
			{"generated by ETABS"},
		},
		"3F": {
			{"編號", "X座標", "Y座標", "字高"},
			{"WB1", 1, 1, 3.5},
			{"FWB2", "n/a", 1, 3.5},
		},
	})

	res, err := NewXLSXReader().ReadFrom(context.Background(), buf)
	require.NoError(t, err)

	assert.Equal(t, "xlsx", res.Format)
	assert.Equal(t, []string{"2F", "3F"}, res.Sheets)
	require.Len(t, res.Records, 3)

	assert.Equal(t, "B1-1", res.Records[0].Label)
	assert.Equal(t, "B12", res.Records[0].SourceID)
	assert.Equal(t, "2F", res.Records[0].Story)
	assert.Equal(t, 4.5, res.Records[1].X)
	assert.Equal(t, "3F", res.Records[2].Story)
	assert.Equal(t, 3.5, res.Records[2].Height)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "3F", res.Errors[0].Sheet)
	assert.Equal(t, 3, res.Errors[0].Row)
}

func TestXLSXReader_HeaderBelowBlankRows(t *testing.T) {
	buf := buildWorkbook(t, []string{"Beams"}, map[string][][]interface{}{
		"Beams": {
			{},
			{"label", "x", "y", "marker"},
			{"B7", 1, 2, "Y"},
		},
	})

	res, err := NewXLSXReader().ReadFrom(context.Background(), buf)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.True(t, res.Records[0].ShowMarker)
}

func TestXLSXReader_SelectedSheet(t *testing.T) {
	sheets := map[string][][]interface{}{
		"A": {{"label", "x", "y"}, {"B1", 0, 0}},
		"B": {{"label", "x", "y"}, {"b1", 0, 0}, {"b2", 0, 0}},
	}

	r := &XLSXReader{Sheet: "B"}
	res, err := r.ReadFrom(context.Background(), buildWorkbook(t, []string{"A", "B"}, sheets))
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)

	r = &XLSXReader{Sheet: "C"}
	_, err = r.ReadFrom(context.Background(), buildWorkbook(t, []string{"A", "B"}, sheets))
	assert.ErrorContains(t, err, `sheet "C" not found`)
}

func TestXLSXReader_NoBeamTable(t *testing.T) {
	buf := buildWorkbook(t, []string{"Summary"}, map[string][][]interface{}{
		"Summary": {{"total", 12}},
	})

	_, err := NewXLSXReader().ReadFrom(context.Background(), buf)
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestXLSXReader_Read(t *testing.T) {
	buf := buildWorkbook(t, []string{"Sheet1"}, map[string][][]interface{}{
		"Sheet1": {{"label", "x", "y"}, {"B1", 3, 4}},
	})
	path := filepath.Join(t.TempDir(), "ETABS_beams.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	r := NewXLSXReader()
	assert.True(t, r.CanRead(path))

	res, err := r.Read(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 4.0, res.Records[0].Y)
}

func TestXLSXReader_NotAWorkbook(t *testing.T) {
	_, err := NewXLSXReader().ReadFrom(context.Background(), bytes.NewReader([]byte("label,x,y")))
	assert.ErrorContains(t, err, "failed to open Excel file")
}
