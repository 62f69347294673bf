package catalog

import(
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/astrogo/fitsio"

	"github.com/abworrall/skylayers/pkg/emath"
)

// DecodeFITS reads the primary image HDU. Data cubes only give up
// their first plane. Physical values are BZERO + BSCALE*raw, and
// integer pixels equal to BLANK come back as NaN.
func DecodeFITS(r io.Reader) (emath.FloatGrid, error) {
	f, err := fitsio.Open(r)
	if err != nil {
		return emath.FloatGrid{}, fmt.Errorf("fits open: %v", err)
	}
	defer f.Close()

	img, ok := f.HDU(0).(fitsio.Image)
	if !ok {
		return emath.FloatGrid{}, errNoImageHDU
	}

	hdr := img.Header()
	axes := hdr.Axes()
	if len(axes) < 2 {
		return emath.FloatGrid{}, fmt.Errorf("fits: need at least 2 axes, have %v", axes)
	}
	w, h := axes[0], axes[1]
	bitpix := hdr.Bitpix()

	bscale, bzero := 1.0, 0.0
	if v, ok := cardFloat(hdr, "BSCALE"); ok { bscale = v }
	if v, ok := cardFloat(hdr, "BZERO"); ok  { bzero = v }
	blank, hasBlank := cardFloat(hdr, "BLANK")

	bytesPer := bitpix / 8
	if bytesPer < 0 { bytesPer = -bytesPer }
	raw := img.Raw()
	if len(raw) < w*h*bytesPer {
		return emath.FloatGrid{}, fmt.Errorf("fits: %dx%d at BITPIX=%d needs %d bytes, have %d", w, h, bitpix, w*h*bytesPer, len(raw))
	}

	read := func(i int) (float64, bool) { // value, isInteger
		b := raw[i*bytesPer:]
		switch bitpix {
		case 8:   return float64(b[0]), true
		case 16:  return float64(int16(binary.BigEndian.Uint16(b))), true
		case 32:  return float64(int32(binary.BigEndian.Uint32(b))), true
		case 64:  return float64(int64(binary.BigEndian.Uint64(b))), true
		case -32: return float64(math.Float32frombits(binary.BigEndian.Uint32(b))), false
		case -64: return math.Float64frombits(binary.BigEndian.Uint64(b)), false
		}
		return math.NaN(), false
	}

	switch bitpix {
	case 8, 16, 32, 64, -32, -64:
	default:
		return emath.FloatGrid{}, fmt.Errorf("fits: BITPIX=%d not supported", bitpix)
	}

	vals := make([]float64, w*h)
	for i := range vals {
		v, isInt := read(i)
		if isInt && hasBlank && v == blank {
			vals[i] = math.NaN()
			continue
		}
		vals[i] = bzero + bscale*v
	}

	return emath.NewFloatGridFromValues(w, h, vals)
}

func cardFloat(hdr *fitsio.Header, name string) (float64, bool) {
	card := hdr.Get(name)
	if card == nil {
		return 0, false
	}
	switch v := card.Value.(type) {
	case float64: return v, true
	case float32: return float64(v), true
	case int:     return float64(v), true
	case int64:   return float64(v), true
	case int32:   return float64(v), true
	}
	return 0, false
}
