package surface

import(
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/abworrall/skylayers/pkg/ecolor"
	"github.com/abworrall/skylayers/pkg/skylayers"
)

// LayerDump writes each layer as its own transparent PNG, for stacking
// in an external editor. RGB layers come out in their channel's color.
type LayerDump struct {
	Dir string
}

func (s LayerDump)DrawLayers(shape skylayers.Shape, layers []skylayers.LayerDescriptor) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("LayerDump: %v", err)
	}

	for _, d := range layers {
		img := image.NewNRGBA64(image.Rect(0, 0, shape.W, shape.H))
		for y:=0; y<shape.H; y++ {
			for x, v := range d.Data.Row(y) {
				c := descriptorColor(d, v)
				c.A *= d.Opacity
				img.SetNRGBA64(x, shape.H-1-y, c.NRGBA64())
			}
		}

		filename := filepath.Join(s.Dir, fmt.Sprintf("layer-%02d-%s.png", d.Order, d.Source.Band))
		if err := WritePNG(img, filename); err != nil {
			return fmt.Errorf("LayerDump: %v", err)
		}
	}
	return nil
}

// descriptorColor is the straight-alpha color (before opacity) a layer
// contributes at a pixel. An RGB layer contributes its value, opaquely,
// to its one channel.
func descriptorColor(d skylayers.LayerDescriptor, v float64) ecolor.RGBA {
	if d.Primary < 0 {
		return d.Colormap(v)
	} else if math.IsNaN(v) {
		return ecolor.Transparent
	}
	c := ecolor.Black
	switch d.Primary {
	case 0: c.R = v
	case 1: c.G = v
	case 2: c.B = v
	}
	return c
}

// Memory keeps whatever it was last given, for callers (UIs, tests)
// that want the pixels rather than a file.
type Memory struct {
	Raster *skylayers.Raster
	Shape  skylayers.Shape
	Layers []skylayers.LayerDescriptor
}

func (m *Memory)Draw(r *skylayers.Raster) error {
	m.Raster = r
	return nil
}

func (m *Memory)DrawLayers(shape skylayers.Shape, layers []skylayers.LayerDescriptor) error {
	m.Shape, m.Layers = shape, layers
	m.Raster = skylayers.Composite(shape, layers)
	return nil
}
