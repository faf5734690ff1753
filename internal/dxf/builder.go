// Package dxf writes beam label drawings in the DXF tag-value text format.
//
// Only the subset needed for labels is supported: a HEADER announcing the
// format version, LAYER and STYLE table records, and TEXT, MTEXT, LINE and
// CIRCLE entities. Nothing is validated; out-of-range values are written as
// given.
package dxf

import (
	"io"

	"github.com/beam-label/backend/internal/models"
)

const (
	// FormatVersion is the $ACADVER written to the HEADER (AutoCAD 2000).
	FormatVersion = "AC1015"

	DefaultLayer  = "0"
	DefaultStyle  = "STANDARD"
	DefaultFont   = "Arial"
	DefaultHeight = models.DefaultTextHeight
	DefaultColor  = ColorWhite

	// LabelStyle is the text style used for beam labels.
	LabelStyle = "BEAM_TEXT"
	// MarkerRadius is the radius of the optional position marker circle.
	MarkerRadius = 0.5
)

// Builder accumulates table records and entities and renders them as one DXF
// document. A Builder is not safe for concurrent use.
type Builder struct {
	layers     []Layer
	layerIndex map[string]struct{}
	styles     []TextStyle
	styleIndex map[string]struct{}
	entities   []Entity
}

// NewBuilder returns a builder with the four beam layers and the BEAM_TEXT
// style already defined.
func NewBuilder() *Builder {
	b := &Builder{
		layerIndex: make(map[string]struct{}),
		styleIndex: make(map[string]struct{}),
	}
	for _, l := range PredefinedLayers() {
		b.AddLayer(l.Name, l.Color)
	}
	b.AddTextStyle(LabelStyle, DefaultFont)
	return b
}

// AddLayer defines a layer. Redefining an existing name is a no-op; the
// first definition wins. Layers are written in the order they were added.
func (b *Builder) AddLayer(name string, color int) {
	if _, ok := b.layerIndex[name]; ok {
		return
	}
	b.layerIndex[name] = struct{}{}
	b.layers = append(b.layers, Layer{Name: name, Color: color})
}

// AddTextStyle defines a text style with the same first-wins rule as AddLayer.
// An empty font name means Arial.
func (b *Builder) AddTextStyle(name, font string) {
	if _, ok := b.styleIndex[name]; ok {
		return
	}
	if font == "" {
		font = DefaultFont
	}
	b.styleIndex[name] = struct{}{}
	b.styles = append(b.styles, TextStyle{Name: name, Font: font})
}

// HasLayer reports whether name was defined with AddLayer.
func (b *Builder) HasLayer(name string) bool {
	_, ok := b.layerIndex[name]
	return ok
}

// HasTextStyle reports whether name was defined with AddTextStyle.
func (b *Builder) HasTextStyle(name string) bool {
	_, ok := b.styleIndex[name]
	return ok
}

// TextOption overrides a TEXT default.
type TextOption func(*Text)

func WithHeight(h float64) TextOption { return func(t *Text) { t.Height = h } }
func WithLayer(layer string) TextOption { return func(t *Text) { t.Layer = layer } }
func WithStyle(style string) TextOption { return func(t *Text) { t.Style = style } }
func WithRotation(rad float64) TextOption { return func(t *Text) { t.Rotation = rad } }

// AddText appends a single-line text entity. Defaults: height 2.5, layer "0",
// style STANDARD, rotation 0. An empty layer means "0".
func (b *Builder) AddText(x, y, z float64, text string, opts ...TextOption) {
	t := Text{
		X: x, Y: y, Z: z,
		Value:  text,
		Height: DefaultHeight,
		Layer:  DefaultLayer,
		Style:  DefaultStyle,
	}
	for _, opt := range opts {
		opt(&t)
	}
	t.Layer = layerOrDefault(t.Layer)
	b.entities = append(b.entities, t)
}

// MTextOption overrides an MTEXT default.
type MTextOption func(*MText)

func MTextHeight(h float64) MTextOption { return func(t *MText) { t.Height = h } }
func MTextLayer(layer string) MTextOption { return func(t *MText) { t.Layer = layer } }
func MTextWidth(w float64) MTextOption { return func(t *MText) { t.Width = w } }

// AddMText appends a paragraph text entity. Defaults: height 2.5, layer "0",
// width 0 (no wrapping). Line breaks in text become paragraph breaks.
func (b *Builder) AddMText(x, y, z float64, text string, opts ...MTextOption) {
	t := MText{
		X: x, Y: y, Z: z,
		Value:  text,
		Height: DefaultHeight,
		Layer:  DefaultLayer,
	}
	for _, opt := range opts {
		opt(&t)
	}
	t.Layer = layerOrDefault(t.Layer)
	b.entities = append(b.entities, t)
}

// AddLine appends a line entity. An empty layer means "0".
func (b *Builder) AddLine(x1, y1, z1, x2, y2, z2 float64, layer string) {
	b.entities = append(b.entities, Line{
		X1: x1, Y1: y1, Z1: z1,
		X2: x2, Y2: y2, Z2: z2,
		Layer: layerOrDefault(layer),
	})
}

// AddCircle appends a circle entity. An empty layer means "0".
func (b *Builder) AddCircle(x, y, z, radius float64, layer string) {
	b.entities = append(b.entities, Circle{
		X: x, Y: y, Z: z,
		Radius: radius,
		Layer:  layerOrDefault(layer),
	})
}

// ExportBeamLabels appends one TEXT per record on the layer chosen by
// Classify, using the BEAM_TEXT style. Records with ShowMarker also get a
// marker CIRCLE at the same point on the same layer.
func (b *Builder) ExportBeamLabels(records []models.BeamLabelRecord) {
	for _, r := range records {
		layer := Classify(r.Label)
		b.AddText(r.X, r.Y, r.Z, r.Label,
			WithHeight(r.TextHeight()),
			WithLayer(layer),
			WithStyle(LabelStyle),
			WithRotation(r.Rotation),
		)
		if r.ShowMarker {
			b.AddCircle(r.X, r.Y, r.Z, MarkerRadius, layer)
		}
	}
}

// Layers returns the defined layers in definition order.
func (b *Builder) Layers() []Layer {
	return append([]Layer(nil), b.layers...)
}

// Styles returns the defined text styles in definition order.
func (b *Builder) Styles() []TextStyle {
	return append([]TextStyle(nil), b.styles...)
}

// Entities returns the entities in insertion order.
func (b *Builder) Entities() []Entity {
	return append([]Entity(nil), b.entities...)
}

// LayerCounts returns the number of entities referencing each layer.
func (b *Builder) LayerCounts() map[string]int {
	counts := make(map[string]int)
	for _, e := range b.entities {
		counts[e.LayerName()]++
	}
	return counts
}

// Generate renders the document. It does not modify the builder, so calling
// it again returns the same text.
func (b *Builder) Generate() string {
	var w tagWriter

	w.beginSection("HEADER")
	w.pair(9, "$ACADVER")
	w.pair(1, FormatVersion)
	w.endSection()

	w.beginSection("TABLES")
	for _, l := range b.layers {
		l.encode(&w)
	}
	for _, s := range b.styles {
		s.encode(&w)
	}
	w.endSection()

	w.beginSection("ENTITIES")
	for _, e := range b.entities {
		e.encode(&w)
	}
	w.endSection()
	w.pair(0, "EOF")

	return w.String()
}

// WriteTo writes the rendered document to dst.
func (b *Builder) WriteTo(dst io.Writer) (int64, error) {
	n, err := io.WriteString(dst, b.Generate())
	return int64(n), err
}

func layerOrDefault(layer string) string {
	if layer == "" {
		return DefaultLayer
	}
	return layer
}
