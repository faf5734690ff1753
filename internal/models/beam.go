// Package models contains domain types for the beam label exporter.
package models

import "math"

// DefaultTextHeight is used when a record leaves Height unset.
const DefaultTextHeight = 2.5

// BeamLabelRecord is one beam label supplied by a record source.
type BeamLabelRecord struct {
	Label      string  `json:"label" yaml:"label" msgpack:"label"`
	X          float64 `json:"x" yaml:"x" msgpack:"x"`
	Y          float64 `json:"y" yaml:"y" msgpack:"y"`
	Z          float64 `json:"z" yaml:"z" msgpack:"z"`
	Height     float64 `json:"height,omitempty" yaml:"height,omitempty" msgpack:"height,omitempty"`
	Rotation   float64 `json:"rotation,omitempty" yaml:"rotation,omitempty" msgpack:"rotation,omitempty"`
	ShowMarker bool    `json:"showMarker,omitempty" yaml:"show_marker,omitempty" msgpack:"showMarker,omitempty"`

	// Metadata carried through from the source file. Not written to DXF.
	Story    string `json:"story,omitempty" yaml:"story,omitempty" msgpack:"story,omitempty"`
	SourceID string `json:"sourceId,omitempty" yaml:"source_id,omitempty" msgpack:"sourceId,omitempty"`
	Vertical bool   `json:"vertical,omitempty" yaml:"vertical,omitempty" msgpack:"vertical,omitempty"`
}

// TextHeight returns Height, or DefaultTextHeight when Height is zero.
func (r BeamLabelRecord) TextHeight() float64 {
	if r.Height == 0 {
		return DefaultTextHeight
	}
	return r.Height
}

// Normalize applies the Vertical flag: a vertical beam with no explicit
// rotation is labelled at 90 degrees.
func (r BeamLabelRecord) Normalize() BeamLabelRecord {
	if r.Vertical && r.Rotation == 0 {
		r.Rotation = math.Pi / 2
	}
	return r
}

// LabelRow is a record as stored in the label index, with the layer it was
// classified to and its position within the export.
type LabelRow struct {
	Seq        int     `json:"seq" msgpack:"seq"`
	Label      string  `json:"label" msgpack:"label"`
	Layer      string  `json:"layer" msgpack:"layer"`
	X          float64 `json:"x" msgpack:"x"`
	Y          float64 `json:"y" msgpack:"y"`
	Z          float64 `json:"z" msgpack:"z"`
	Height     float64 `json:"height" msgpack:"height"`
	Rotation   float64 `json:"rotation" msgpack:"rotation"`
	ShowMarker bool    `json:"showMarker" msgpack:"showMarker"`
	Story      string  `json:"story,omitempty" msgpack:"story,omitempty"`
}

// RowError describes a source row that was rejected because a cell could not
// be converted to the column's type.
type RowError struct {
	Sheet  string `json:"sheet,omitempty"`
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}
