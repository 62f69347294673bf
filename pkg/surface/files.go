package surface

import(
	"fmt"
	"image"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/abworrall/skylayers/pkg/skylayers"
)

// PNGFile writes a 16 bit PNG. If Width is set, the image is rescaled
// to that width first, keeping the aspect ratio.
type PNGFile struct {
	Filename string
	Gamma    bool
	Width    int
}

func (s PNGFile)Draw(r *skylayers.Raster) error {
	var img image.Image = r.ToRGBA64(s.Gamma)
	if s.Width > 0 && s.Width != r.W {
		img = Rescale(img, s.Width)
	}
	if err := WritePNG(img, s.Filename); err != nil {
		return fmt.Errorf("PNGFile.Draw: %v", err)
	}
	return nil
}

// Rescale resizes an image to the given width, keeping the aspect ratio.
func Rescale(src image.Image, width int) image.Image {
	b := src.Bounds()
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA64(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// TIFFFile writes a 16 bit, deflate compressed TIFF.
type TIFFFile struct {
	Filename string
	Gamma    bool
}

func (s TIFFFile)Draw(r *skylayers.Raster) error {
	writer, err := os.Create(s.Filename)
	if err != nil {
		return fmt.Errorf("TIFFFile.Draw, open+w '%s': %v", s.Filename, err)
	}
	defer writer.Close()

	if err := tiff.Encode(writer, r.ToRGBA64(s.Gamma), &tiff.Options{Compression:tiff.Deflate}); err != nil {
		return fmt.Errorf("TIFFFile.Draw, encoding '%s': %v", s.Filename, err)
	}
	return nil
}

// HDRFile writes a Radiance RGBE file, keeping the full float precision.
type HDRFile struct {
	Filename string
}

func (s HDRFile)Draw(r *skylayers.Raster) error { return r.WriteToHDR(s.Filename) }
