package dxf

import "strings"

// Entity is a drawable record in the ENTITIES section. The set of
// implementations is closed: Text, MText, Line and Circle.
type Entity interface {
	// Kind returns the DXF entity type name, e.g. "TEXT".
	Kind() string
	// LayerName returns the layer the entity references. The layer does not
	// have to be defined in the document.
	LayerName() string

	encode(w *tagWriter)
}

// Layer is a LAYER table record.
type Layer struct {
	Name  string `json:"name"`
	Color int    `json:"color"` // ACI index
}

func (l Layer) encode(w *tagWriter) {
	w.pair(0, "LAYER")
	w.pair(2, l.Name)
	w.pair(70, "0")
	w.integer(62, l.Color)
	w.pair(6, "CONTINUOUS")
}

// TextStyle is a STYLE table record.
type TextStyle struct {
	Name string `json:"name"`
	Font string `json:"font"`
}

func (s TextStyle) encode(w *tagWriter) {
	w.pair(0, "STYLE")
	w.pair(2, s.Name)
	w.pair(70, "0")
	w.pair(40, "0.0")
	w.pair(41, "1.0")
	w.pair(50, "0.0")
	w.pair(71, "0")
	w.pair(42, "2.5")
	w.pair(3, s.Font)
}

// Text is a single-line TEXT entity.
type Text struct {
	X, Y, Z  float64
	Value    string
	Height   float64
	Layer    string
	Style    string
	Rotation float64 // radians
}

func (t Text) Kind() string      { return "TEXT" }
func (t Text) LayerName() string { return t.Layer }

func (t Text) encode(w *tagWriter) {
	w.pair(0, "TEXT")
	w.pair(8, t.Layer)
	w.point(10, t.X, t.Y, t.Z)
	w.number(40, t.Height)
	w.pair(1, t.Value)
	w.pair(7, t.Style)
	w.number(50, t.Rotation)
}

// mtextBreaks turns line breaks into MTEXT paragraph codes.
var mtextBreaks = strings.NewReplacer("\r\n", `\P`, "\r", `\P`, "\n", `\P`)

// MText is a paragraph MTEXT entity. Width 0 means no wrap limit.
type MText struct {
	X, Y, Z float64
	Value   string
	Height  float64
	Layer   string
	Width   float64
}

func (t MText) Kind() string      { return "MTEXT" }
func (t MText) LayerName() string { return t.Layer }

func (t MText) encode(w *tagWriter) {
	w.pair(0, "MTEXT")
	w.pair(8, t.Layer)
	w.point(10, t.X, t.Y, t.Z)
	w.number(40, t.Height)
	w.number(41, t.Width)
	w.pair(1, mtextBreaks.Replace(t.Value))
}

// Line is a two-point LINE entity.
type Line struct {
	X1, Y1, Z1 float64
	X2, Y2, Z2 float64
	Layer      string
}

func (l Line) Kind() string      { return "LINE" }
func (l Line) LayerName() string { return l.Layer }

func (l Line) encode(w *tagWriter) {
	w.pair(0, "LINE")
	w.pair(8, l.Layer)
	w.point(10, l.X1, l.Y1, l.Z1)
	w.point(11, l.X2, l.Y2, l.Z2)
}

// Circle is a CIRCLE entity.
type Circle struct {
	X, Y, Z float64
	Radius  float64
	Layer   string
}

func (c Circle) Kind() string      { return "CIRCLE" }
func (c Circle) LayerName() string { return c.Layer }

func (c Circle) encode(w *tagWriter) {
	w.pair(0, "CIRCLE")
	w.pair(8, c.Layer)
	w.point(10, c.X, c.Y, c.Z)
	w.number(40, c.Radius)
}
