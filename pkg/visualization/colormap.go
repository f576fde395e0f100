package visualization

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"gonum.org/v1/plot/palette"
)

// RdBu is the 11-class ColorBrewer red-blue diverging scheme ordered from
// blue (low) to red (high).
var RdBu = []string{
	"#053061", "#2166ac", "#4393c3", "#92c5de", "#d1e5f0", "#f7f7f7",
	"#fddbc7", "#f4a582", "#d6604d", "#b2182b", "#67001f",
}

// Diverging maps values in [Min, Max] onto a sequence of colour stops,
// blending between neighbouring stops in CIE L*a*b*.
type Diverging struct {
	stops []colorful.Color
	Min   float64
	Max   float64
}

// NewDiverging parses hex colour stops ordered from low to high.
func NewDiverging(hex []string, min, max float64) (*Diverging, error) {
	if len(hex) < 2 {
		return nil, errors.Errorf("need at least 2 colour stops, got %d", len(hex))
	}
	d := &Diverging{Min: min, Max: max}
	for _, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, errors.Wrapf(err, "colour stop %q", h)
		}
		d.stops = append(d.stops, c)
	}
	return d, nil
}

// At returns the colour for v. Values outside [Min, Max] clamp to the end
// stops; NaN is transparent.
func (d *Diverging) At(v float64) color.Color {
	if math.IsNaN(v) {
		return color.Transparent
	}
	t := 0.5
	if d.Max > d.Min {
		t = (v - d.Min) / (d.Max - d.Min)
	}
	t = math.Max(0, math.Min(1, t))

	pos := t * float64(len(d.stops)-1)
	i := int(pos)
	var c colorful.Color
	switch f := pos - float64(i); {
	case i >= len(d.stops)-1:
		c = d.stops[len(d.stops)-1]
	case f == 0:
		c = d.stops[i]
	default:
		c = d.stops[i].BlendLab(d.stops[i+1], f).Clamped()
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// Palette samples n evenly spaced colours across [Min, Max].
func (d *Diverging) Palette(n int) palette.Palette {
	colors := make([]color.Color, n)
	for i := range colors {
		t := 0.5
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		colors[i] = d.At(d.Min + t*(d.Max-d.Min))
	}
	return colorList(colors)
}

type colorList []color.Color

func (c colorList) Colors() []color.Color { return c }
