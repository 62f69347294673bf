package catalog

import(
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"

	"github.com/abworrall/skylayers/pkg/emath"
)

// DecodeTIFF reads a single band from a grayscale (or RGB, which gets
// turned into luminance) TIFF, with values scaled into [0,1]. The
// result is flipped so row 0 is the bottom of the picture, and any
// orientation tag is honored.
func DecodeTIFF(b []byte) (emath.FloatGrid, error) {
	img, err := tiff.Decode(bytes.NewReader(b))
	if err != nil {
		return emath.FloatGrid{}, fmt.Errorf("tiff decode: %v", err)
	}

	bounds := img.Bounds()
	fg := emath.NewFloatGrid(bounds.Dx(), bounds.Dy())
	if fg.IsEmpty() {
		return fg, fmt.Errorf("tiff decode: empty image")
	}
	for y:=0; y<bounds.Dy(); y++ {
		row := fg.Row(y)
		for x:=0; x<bounds.Dx(); x++ {
			row[x] = grayValue(img.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}

	o, err := tiffOrientation(b)
	if err != nil {
		return emath.FloatGrid{}, err
	}
	return o.Apply(fg), nil
}

func grayValue(c color.Color) float64 {
	g := color.Gray16Model.Convert(c).(color.Gray16)
	return float64(g.Y) / 0xFFFF
}

// tiffOrientation reads the orientation tag, if the file has one.
func tiffOrientation(b []byte) (Orientation, error) {
	upright, _ := FromExifOrientation(1)

	ex, err := exif.Decode(bytes.NewReader(b))
	if err != nil {
		return upright, nil // No metadata at all is fine
	}
	tag, err := ex.Get(exif.Orientation)
	if err != nil {
		return upright, nil
	}
	val, err := tag.Int(0)
	if err != nil {
		return upright, fmt.Errorf("tiff orientation tag: %v", err)
	}
	return FromExifOrientation(val)
}

// EncodeGrayTIFF writes a grid as a 16 bit grayscale TIFF, with the
// values in [0,1] and row 0 at the bottom. It is mostly for building
// band files.
func EncodeGrayTIFF(fg emath.FloatGrid) ([]byte, error) {
	img := image.NewGray16(image.Rect(0, 0, fg.Dx(), fg.Dy()))
	for y:=0; y<fg.Dy(); y++ {
		for x, v := range fg.Row(y) {
			img.SetGray16(x, fg.Dy()-1-y, color.Gray16{uint16(emath.Clamp01(v) * 0xFFFF + 0.5)})
		}
	}
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
