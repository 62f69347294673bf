package ecolor

import(
	"math"

	"github.com/abworrall/skylayers/pkg/emath"
)

// LUTSize is the number of entries in a Colormap's lookup table.
const LUTSize = 256

// A Colormap maps normalized values in [0,1] onto colours, by linear
// interpolation (in sRGB space, alpha included) from Low to High.
// Like the colormaps in most astronomy plotting tools, it is
// quantized into a lookup table; building one is the expensive part,
// looking up is cheap.
type Colormap struct {
	Low  RGBA
	High RGBA

	lut [LUTSize]RGBA
}

func NewColormap(low, high RGBA) *Colormap {
	cm := Colormap{Low:low, High:high}
	for i:=0; i<LUTSize; i++ {
		t := float64(i) / float64(LUTSize-1)
		cm.lut[i] = RGBA{
			Color: low.Color.BlendRgb(high.Color, t),
			A:     emath.Lerp(low.A, high.A, t),
		}
	}
	return &cm
}

// At looks up a normalized value. Values below 0 get the first entry,
// values above 1 the last; NaN (a blank pixel) is fully transparent.
func (cm *Colormap)At(v float64) RGBA {
	if math.IsNaN(v) {
		return Transparent
	} else if v <= 0 {
		return cm.lut[0]
	}

	idx := int(v * LUTSize)
	if idx >= LUTSize {
		idx = LUTSize - 1
	}
	return cm.lut[idx]
}
