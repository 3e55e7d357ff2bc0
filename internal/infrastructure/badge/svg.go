// Package badge renders the coverage percentage as a shields-style SVG.
package badge

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"os"
	"path/filepath"
)

// FileName is the fixed badge location in the package root.
const FileName = "coverage_badge.svg"

// labelWidth is the fixed pixel width of the left "coverage" block.
const labelWidth = 59

const svgTemplate = `<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="20">
  <linearGradient id="b" x2="0" y2="100%">
    <stop offset="0" stop-color="#bbb" stop-opacity=".1"/>
    <stop offset="1" stop-opacity=".1"/>
  </linearGradient>
  <clipPath id="a">
    <rect width="{{.Width}}" height="20" rx="3" fill="#fff"/>
  </clipPath>
  <g clip-path="url(#a)">
    <path fill="#555" d="M0 0h{{.LabelWidth}}v20H0z"/>
    <path fill="#{{.Color}}" d="M{{.LabelWidth}} 0h{{.ValueWidth}}v20H{{.LabelWidth}}z"/>
    <path fill="url(#b)" d="M0 0h{{.Width}}v20H0z"/>
  </g>
  <g fill="#fff" text-anchor="middle" font-family="DejaVu Sans,Verdana,Geneva,sans-serif" font-size="110">
    <text x="305" y="150" fill="#010101" fill-opacity=".3" transform="scale(.1)" textLength="490">coverage</text>
    <text x="305" y="140" transform="scale(.1)" textLength="490">coverage</text>
    <text x="{{.ValueX}}" y="150" fill="#010101" fill-opacity=".3" transform="scale(.1)" textLength="{{.ValueTextLength}}">{{.Percent}}%</text>
    <text x="{{.ValueX}}" y="140" transform="scale(.1)" textLength="{{.ValueTextLength}}">{{.Percent}}%</text>
  </g>
</svg>
`

type rgb struct {
	r, g, b float64
}

// anchor is a (fraction, color) control point for the color scale.
// The table must stay in ascending fraction order; interpolation scans it
// front to back.
type anchor struct {
	fraction float64
	color    rgb
}

var anchors = []anchor{
	{0.0, rgb{224, 93, 68}},  // red
	{0.5, rgb{224, 93, 68}},  // red
	{0.6, rgb{223, 179, 23}}, // yellow
	{0.9, rgb{151, 202, 0}},  // green
	{1.0, rgb{68, 204, 17}},  // bright green
}

// ColorFor interpolates the badge color for a coverage fraction and
// returns it as a 6-hex-digit string. Each RGB channel is interpolated
// linearly between the tightest bracketing anchors and floored; fractions
// beyond the last anchor clamp to its color.
func ColorFor(fraction float64) string {
	lower := anchors[0]
	upper := anchors[len(anchors)-1]
	for _, a := range anchors {
		if fraction <= a.fraction {
			upper = a
			break
		}
		lower = a
	}

	t := 0.0
	if upper.fraction > lower.fraction {
		t = (fraction - lower.fraction) / (upper.fraction - lower.fraction)
	}
	if fraction > upper.fraction {
		t = 1.0
	}
	c := rgb{
		r: math.Floor(lower.color.r + (upper.color.r-lower.color.r)*t),
		g: math.Floor(lower.color.g + (upper.color.g-lower.color.g)*t),
		b: math.Floor(lower.color.b + (upper.color.b-lower.color.b)*t),
	}
	return fmt.Sprintf("%02x%02x%02x", int(c.r), int(c.g), int(c.b))
}

// Metrics are the geometry values driven by the rendered percentage.
type Metrics struct {
	Width           int // total badge width
	ValueX          int // x of the value text (scale(.1) coordinates)
	ValueTextLength int // textLength of the value text
}

// MetricsFor selects badge geometry by the decimal digit count of the
// floored percentage: one digit (0-9), two digits (10-99), or 100.
func MetricsFor(percent int) Metrics {
	switch {
	case percent < 10:
		return Metrics{Width: 88, ValueX: 725, ValueTextLength: 190}
	case percent < 100:
		return Metrics{Width: 94, ValueX: 755, ValueTextLength: 250}
	default:
		return Metrics{Width: 102, ValueX: 795, ValueTextLength: 330}
	}
}

type templateData struct {
	Width           int
	LabelWidth      int
	ValueWidth      int
	ValueX          int
	ValueTextLength int
	Color           string
	Percent         int
}

// Generate renders the badge SVG for a coverage fraction.
func Generate(w io.Writer, fraction float64) error {
	percent := int(math.Floor(fraction * 100))
	metrics := MetricsFor(percent)

	data := templateData{
		Width:           metrics.Width,
		LabelWidth:      labelWidth,
		ValueWidth:      metrics.Width - labelWidth,
		ValueX:          metrics.ValueX,
		ValueTextLength: metrics.ValueTextLength,
		Color:           ColorFor(fraction),
		Percent:         percent,
	}

	tmpl, err := template.New("badge").Parse(svgTemplate)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}
	return tmpl.Execute(w, data)
}

// Writer persists the badge at the fixed path in the package root.
type Writer struct{}

// Write renders the badge and writes <pkgRoot>/coverage_badge.svg,
// returning the written path.
func (Writer) Write(pkgRoot string, fraction float64) (string, error) {
	path := filepath.Join(pkgRoot, FileName)
	file, err := os.Create(path) // #nosec G304 - fixed path under pkg root
	if err != nil {
		return "", fmt.Errorf("create badge: %w", err)
	}
	defer file.Close()

	if err := Generate(file, fraction); err != nil {
		return "", err
	}
	return path, nil
}
