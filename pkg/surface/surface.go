package surface

import(
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/abworrall/skylayers/pkg/skylayers"
)

// A Surface displays (or saves) a finished composite.
type Surface interface {
	Draw(r *skylayers.Raster) error
}

// A LayerSurface does its own blending, from per-layer descriptors.
type LayerSurface interface {
	DrawLayers(shape skylayers.Shape, layers []skylayers.LayerDescriptor) error
}

// Multi draws onto several surfaces, carrying on past failures.
type Multi []Surface

func (m Multi)Draw(r *skylayers.Raster) error {
	errs := []error{}
	for _, s := range m {
		if err := s.Draw(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromOutputs builds the file surfaces a config asks for. The legend
// entries come from the image being rendered.
func FromOutputs(o skylayers.Outputs, img *skylayers.Image) Multi {
	m := Multi{}
	if o.PNG != ""    { m = append(m, PNGFile{Filename:o.PNG, Gamma:o.Gamma, Width:o.Width}) }
	if o.TIFF != ""   { m = append(m, TIFFFile{Filename:o.TIFF, Gamma:o.Gamma}) }
	if o.HDR != ""    { m = append(m, HDRFile{Filename:o.HDR}) }
	if o.Tonemap != "" { m = append(m, Tonemapped{Filename:o.Tonemap, Operator:o.Tonemapper}) }
	if o.Legend != "" {
		m = append(m, Legend{Filename:o.Legend, Title:img.Object, Gamma:o.Gamma, Entries:LegendEntries(img)})
	}
	return m
}

func WritePNG(img image.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return png.Encode(writer, img)
	}
}

// insertSuffix puts a suffix before the extension: ("a.png", "-x") -> "a-x.png".
func insertSuffix(filename, suffix string) string {
	ext := filepath.Ext(filename)
	return strings.TrimSuffix(filename, ext) + suffix + ext
}
