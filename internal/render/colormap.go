package render

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// gradientStop anchors a color at a position in [0, 1].
type gradientStop struct {
	col colorful.Color
	pos float64
}

// gradient is a sequence of color stops blended in HCL space.
type gradient []gradientStop

// at returns the gradient color for t in [0, 1].
func (g gradient) at(t float64) colorful.Color {
	if t <= g[0].pos {
		return g[0].col
	}
	for i := 0; i < len(g)-1; i++ {
		c1, c2 := g[i], g[i+1]
		if c1.pos <= t && t <= c2.pos {
			f := (t - c1.pos) / (c2.pos - c1.pos)
			return c1.col.BlendHcl(c2.col, f).Clamped()
		}
	}
	return g[len(g)-1].col
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(fmt.Sprintf("bad colormap stop %q: %v", s, err))
	}
	return c
}

// Built-in colormaps. "gamma" is the default for flux maps; its ramp is
// perceptually uniform so faint diffuse emission stays visible next to
// bright sources.
var colormaps = map[string]gradient{
	"gamma": {
		{mustHex("#440154"), 0.0},
		{mustHex("#3b528b"), 0.25},
		{mustHex("#21918c"), 0.5},
		{mustHex("#5ec962"), 0.75},
		{mustHex("#fde725"), 1.0},
	},
	"heat": {
		{mustHex("#000000"), 0.0},
		{mustHex("#780000"), 0.33},
		{mustHex("#e63900"), 0.66},
		{mustHex("#ffd000"), 0.9},
		{mustHex("#ffffff"), 1.0},
	},
	"gray": {
		{mustHex("#000000"), 0.0},
		{mustHex("#ffffff"), 1.0},
	},
}

// Colormaps lists the available colormap names.
func Colormaps() []string {
	return []string{"gamma", "heat", "gray"}
}

func lookupColormap(name string) (gradient, error) {
	if name == "" {
		name = "gamma"
	}
	g, ok := colormaps[name]
	if !ok {
		return nil, fmt.Errorf("unknown colormap: %s", name)
	}
	return g, nil
}
