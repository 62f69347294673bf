package skylayers

import "github.com/abworrall/skylayers/pkg/ecolor"

// A ColorGrid is a colorized layer: one straight-alpha RGBA per pixel,
// stored row-major.
type ColorGrid struct {
	Shape
	Pix []ecolor.RGBA
}

func NewColorGrid(s Shape) ColorGrid {
	return ColorGrid{Shape:s, Pix:make([]ecolor.RGBA, s.H*s.W)}
}

func (cg ColorGrid)At(x, y int) ecolor.RGBA     { return cg.Pix[y*cg.W + x] }
func (cg ColorGrid)Set(x, y int, c ecolor.RGBA) { cg.Pix[y*cg.W + x] = c }

// A ColormapFunc maps a normalized value to a color.
type ColormapFunc func(float64) ecolor.RGBA
