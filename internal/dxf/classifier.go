package dxf

import "strings"

// Layers every beam label document starts with.
const (
	LayerMain      = "BEAM_MAIN"
	LayerSecondary = "BEAM_SECONDARY"
	LayerSpecial   = "BEAM_SPECIAL"
	LayerLabels    = "BEAM_LABELS"
)

// ACI colors of the predefined layers.
const (
	ColorRed     = 1
	ColorGreen   = 3
	ColorMagenta = 6
	ColorWhite   = 7
)

// PredefinedLayers returns the beam layers in the order they are written to
// the TABLES section.
func PredefinedLayers() []Layer {
	return []Layer{
		{Name: LayerMain, Color: ColorRed},
		{Name: LayerSecondary, Color: ColorGreen},
		{Name: LayerSpecial, Color: ColorMagenta},
		{Name: LayerLabels, Color: ColorWhite},
	}
}

// Classify maps a beam label to the layer it is drawn on. The prefix checks
// are case-sensitive and the first match wins:
//
//	B...          BEAM_MAIN       (girders)
//	b... / fb...  BEAM_SECONDARY  (joists)
//	WB... / FWB...BEAM_SPECIAL
//	anything else BEAM_LABELS
func Classify(label string) string {
	switch {
	case strings.HasPrefix(label, "B"):
		return LayerMain
	case strings.HasPrefix(label, "b"), strings.HasPrefix(label, "fb"):
		return LayerSecondary
	case strings.HasPrefix(label, "WB"), strings.HasPrefix(label, "FWB"):
		return LayerSpecial
	default:
		return LayerLabels
	}
}
