package skylayers

import(
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/skylayers/pkg/emath"
)

// A Raster is a rendered composite: H rows of W linear RGB pixels,
// each channel in [0,1]. Row 0 is the first row of the data, which by
// astronomical convention is the bottom of the picture; Bounds and At
// flip it, so image.Image consumers see it the right way up.
//
// Implements image.Image, and hdr.Image.
type Raster struct {
	Shape
	Pix []float64 // RGB triples, row-major
}

func NewRaster(s Shape) *Raster {
	return &Raster{Shape:s, Pix:make([]float64, 3*s.H*s.W)}
}

func (r *Raster)offset(x, y int) int { return 3 * (y*r.W + x) }

// RGB returns the pixel at data coordinates (x,y).
func (r *Raster)RGB(x, y int) emath.Vec3 {
	i := r.offset(x, y)
	return emath.Vec3{r.Pix[i], r.Pix[i+1], r.Pix[i+2]}
}

func (r *Raster)SetRGB(x, y int, v emath.Vec3) {
	i := r.offset(x, y)
	r.Pix[i], r.Pix[i+1], r.Pix[i+2] = v[0], v[1], v[2]
}

// Implement image.Image
func (r *Raster)ColorModel() color.Model { return hdrcolor.RGBModel }
func (r *Raster)Bounds() image.Rectangle { return image.Rect(0, 0, r.W, r.H) }
func (r *Raster)At(x, y int) color.Color { return r.HDRAt(x, y) }

// Implement hdr.Image
func (r *Raster)Size() int { return r.W * r.H }
func (r *Raster)HDRAt(x, y int) hdrcolor.Color {
	v := r.RGB(x, r.H-1-y)
	return hdrcolor.RGB{R:v[0], G:v[1], B:v[2]}
}

func (r *Raster)String() string { return fmt.Sprintf("Raster%s", r.Shape) }

// ToRGBA64 converts into a plain 16 bit image, with the sRGB gamma curve
// applied if gamma is set.
func (r *Raster)ToRGBA64(gamma bool) *image.RGBA64 {
	img := image.NewRGBA64(r.Bounds())
	for y:=0; y<r.H; y++ {
		for x:=0; x<r.W; x++ {
			v := r.RGB(x, y)
			if gamma {
				v = emath.GammaExpand_sRGB(v)
			}
			f := func(c float64) uint16 { return uint16(emath.Clamp01(c) * 0xFFFF + 0.5) }
			img.SetRGBA64(x, r.H-1-y, color.RGBA64{f(v[0]), f(v[1]), f(v[2]), 0xFFFF})
		}
	}
	return img
}

// WriteToHDR outputs a Radiance RGBE file.
func (r *Raster)WriteToHDR(filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("Raster.WriteToHDR, open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		if err := rgbe.Encode(writer, r); err != nil {
			return fmt.Errorf("Raster.WriteToHDR, encoding RGBE file: %v", err)
		}
		return nil
	}
}
