package dxf

import (
	"math"
	"strconv"
	"strings"
)

// lineBreaks flattens values onto one line. A raw break would shift every
// following pair by one line.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// tagWriter accumulates (group code, value) pairs, one token per line.
type tagWriter struct {
	lines []string
}

func (w *tagWriter) pair(code int, value string) {
	w.lines = append(w.lines, strconv.Itoa(code), lineBreaks.Replace(value))
}

func (w *tagWriter) number(code int, v float64) {
	w.pair(code, FormatNumber(v))
}

func (w *tagWriter) integer(code int, v int) {
	w.pair(code, strconv.Itoa(v))
}

func (w *tagWriter) point(baseCode int, x, y, z float64) {
	w.number(baseCode, x)
	w.number(baseCode+10, y)
	w.number(baseCode+20, z)
}

func (w *tagWriter) beginSection(name string) {
	w.pair(0, "SECTION")
	w.pair(2, name)
}

func (w *tagWriter) endSection() {
	w.pair(0, "ENDSEC")
}

func (w *tagWriter) String() string {
	return strings.Join(w.lines, "\n")
}

// FormatNumber renders a coordinate or size as the shortest decimal that
// parses back to v. Exponent notation is never used. NaN and infinities have
// no DXF spelling and are written as 0.
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
