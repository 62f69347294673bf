package skylayers

import(
	"math"

	"github.com/abworrall/skylayers/pkg/emath"
)

// Composite blends descriptors into a raster of the given shape. RGB
// layers set their channel of the base to normalized*opacity (blank
// pixels leave it at zero); overlays are then alpha-blended over it,
// dst = src*a + dst*(1-a), in descriptor order.
func Composite(shape Shape, layers []LayerDescriptor) *Raster {
	r := NewRaster(shape)

	for _, d := range layers {
		if d.Primary < 0 {
			continue
		}
		for y:=0; y<shape.H; y++ {
			for x, v := range d.Data.Row(y) {
				if !math.IsNaN(v) {
					r.Pix[r.offset(x,y) + d.Primary] = v * d.Opacity
				}
			}
		}
	}

	for _, d := range layers {
		if d.Primary >= 0 {
			continue
		}
		for y:=0; y<shape.H; y++ {
			for x, v := range d.Data.Row(y) {
				c := d.Colormap(v)
				a := c.A * d.Opacity
				if a <= 0 {
					continue
				}
				dst := r.RGB(x, y)
				src := emath.Vec3{c.R, c.G, c.B}
				for i:=0; i<3; i++ {
					dst[i] = src[i]*a + dst[i]*(1-a)
				}
				r.SetRGB(x, y, dst)
			}
		}
	}

	return r
}
