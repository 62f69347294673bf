package surface

import(
	"fmt"

	"github.com/fogleman/gg"

	"github.com/abworrall/skylayers/pkg/ecolor"
	"github.com/abworrall/skylayers/pkg/skylayers"
)

type LegendEntry struct {
	Label string
	Color ecolor.RGBA
}

// LegendEntries describes each layer of an image, in attach order.
func LegendEntries(img *skylayers.Image) []LegendEntry {
	entries := []LegendEntry{}
	for _, l := range img.Layers() {
		p := l.Params()
		label := fmt.Sprintf("%s (%s)", p.Band, p.Scale)
		if ch, ok := l.Primary(); ok {
			label = fmt.Sprintf("%s [%c]", label, "RGB"[ch])
		}
		c := l.Colormap().High
		c.A = p.Opacity
		entries = append(entries, LegendEntry{Label:label, Color:c})
	}
	return entries
}

// Legend writes a PNG of the composite, annotated with a title and a
// color swatch per layer.
type Legend struct {
	Filename string
	Title    string
	Gamma    bool
	Entries  []LegendEntry
}

func (s Legend)Draw(r *skylayers.Raster) error {
	dc := gg.NewContextForImage(r.ToRGBA64(s.Gamma))

	dc.SetRGB(1, 1, 1)
	dc.DrawString(s.Title, 10, 20)

	for i, e := range s.Entries {
		y := 34.0 + float64(i)*18
		dc.SetRGBA(e.Color.R, e.Color.G, e.Color.B, e.Color.A)
		dc.DrawRectangle(10, y, 12, 12)
		dc.Fill()
		dc.SetRGB(1, 1, 1)
		dc.DrawRectangle(10, y, 12, 12)
		dc.Stroke()
		dc.DrawString(e.Label, 28, y+11)
	}

	if err := dc.SavePNG(s.Filename); err != nil {
		return fmt.Errorf("Legend.Draw '%s': %v", s.Filename, err)
	}
	return nil
}
