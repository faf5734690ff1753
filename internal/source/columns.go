package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beam-label/backend/internal/models"
)

type column int

const (
	colLabel column = iota
	colX
	colY
	colZ
	colHeight
	colRotation
	colMarker
	colVertical
	colStory
	colSourceID
)

var columnNames = map[column]string{
	colLabel:    "label",
	colX:        "x",
	colY:        "y",
	colZ:        "z",
	colHeight:   "height",
	colRotation: "rotation",
	colMarker:   "marker",
	colVertical: "vertical",
	colStory:    "story",
	colSourceID: "source_id",
}

// headerAliases maps normalized header text to a column. The Chinese headers
// are the ones used by the ETABS beam numbering workbook.
var headerAliases = map[string]column{
	"label":      colLabel,
	"beam":       colLabel,
	"name":       colLabel,
	"編號":         colLabel,
	"梁編號":        colLabel,
	"x":          colX,
	"x座標":        colX,
	"y":          colY,
	"y座標":        colY,
	"z":          colZ,
	"z座標":        colZ,
	"height":     colHeight,
	"textheight": colHeight,
	"字高":         colHeight,
	"rotation":   colRotation,
	"angle":      colRotation,
	"角度":         colRotation,
	"marker":     colMarker,
	"showmarker": colMarker,
	"vertical":   colVertical,
	"isvertical": colVertical,
	"story":      colStory,
	"floor":      colStory,
	"樓層":         colStory,
	"sourceid":   colSourceID,
	"etabs":      colSourceID,
	"etabsid":    colSourceID,
	"etabs編號":    colSourceID,
}

var requiredColumns = []column{colLabel, colX, colY}

var (
	boolTrue  = map[string]bool{"TRUE": true, "1": true, "YES": true, "Y": true, "ON": true, "是": true}
	boolFalse = map[string]bool{"FALSE": true, "0": true, "NO": true, "N": true, "OFF": true, "否": true}
)

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

// headerMap records which cell index holds each known column.
type headerMap struct {
	index map[column]int
}

// mapHeader matches a header row against the known aliases. Unknown headers
// are ignored; the first occurrence of a column wins.
func mapHeader(header []string) (headerMap, error) {
	hm := headerMap{index: make(map[column]int)}
	for i, cell := range header {
		col, ok := headerAliases[normalizeHeader(cell)]
		if !ok {
			continue
		}
		if _, seen := hm.index[col]; !seen {
			hm.index[col] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := hm.index[col]; !ok {
			missing = append(missing, columnNames[col])
		}
	}
	if len(missing) > 0 {
		return hm, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return hm, nil
}

func (hm headerMap) has(col column) bool {
	_, ok := hm.index[col]
	return ok
}

func (hm headerMap) cell(cells []string, col column) string {
	i, ok := hm.index[col]
	if !ok || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// record converts one data row. Empty cells take the field's zero value;
// cells that do not parse produce a RowError and the row is dropped.
func (hm headerMap) record(cells []string, row int, sheet string) (models.BeamLabelRecord, *models.RowError) {
	rec := models.BeamLabelRecord{
		Label:    hm.cell(cells, colLabel),
		Story:    hm.cell(cells, colStory),
		SourceID: hm.cell(cells, colSourceID),
	}

	floats := []struct {
		col column
		dst *float64
	}{
		{colX, &rec.X},
		{colY, &rec.Y},
		{colZ, &rec.Z},
		{colHeight, &rec.Height},
		{colRotation, &rec.Rotation},
	}
	for _, f := range floats {
		raw := hm.cell(cells, f.col)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return rec, &models.RowError{Sheet: sheet, Row: row, Column: columnNames[f.col], Value: raw, Reason: "not a number"}
		}
		*f.dst = v
	}

	bools := []struct {
		col column
		dst *bool
	}{
		{colMarker, &rec.ShowMarker},
		{colVertical, &rec.Vertical},
	}
	for _, b := range bools {
		raw := hm.cell(cells, b.col)
		if raw == "" {
			continue
		}
		v, ok := parseBool(raw)
		if !ok {
			return rec, &models.RowError{Sheet: sheet, Row: row, Column: columnNames[b.col], Value: raw, Reason: "not a boolean"}
		}
		*b.dst = v
	}

	return rec.Normalize(), nil
}

func parseBool(raw string) (bool, bool) {
	u := strings.ToUpper(strings.TrimSpace(raw))
	if boolTrue[u] {
		return true, true
	}
	if boolFalse[u] {
		return false, true
	}
	return false, false
}

// readTable converts a header row plus data rows into records, appending to
// res. firstRow is the 1-based row number of rows[0] in the source.
func readTable(res *Result, header []string, rows [][]string, firstRow int, sheet string) error {
	hm, err := mapHeader(header)
	if err != nil {
		return err
	}
	for i, cells := range rows {
		if blankRow(cells) {
			continue
		}
		rec, rowErr := hm.record(cells, firstRow+i, sheet)
		if rowErr != nil {
			res.Errors = append(res.Errors, *rowErr)
			continue
		}
		if sheet != "" && !hm.has(colStory) {
			rec.Story = sheet
		}
		res.Records = append(res.Records, rec)
	}
	return nil
}
