package ecolor

import(
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

var ErrUnknownColor = errors.New("unknown color")

// RGBA is a colour with straight (non-premultiplied) alpha; all
// channels are in [0,1].
type RGBA struct {
	colorful.Color
	A float64
}

var(
	Transparent = RGBA{}
	Black       = RGBA{Color:colorful.Color{R: 0, G: 0, B: 0}, A:1}

	// Single-letter colour codes, as understood by astronomers' plotting
	// tools. Note that "g" (like "green") is the dark CSS green, not #00FF00.
	shortCodes = map[string]RGBA{
		"r": {colorful.Color{R: 1, G: 0, B: 0}, 1},
		"g": {colorful.Color{R: 0, G: 0.5, B: 0}, 1},
		"b": {colorful.Color{R: 0, G: 0, B: 1}, 1},
		"c": {colorful.Color{R: 0, G: 0.75, B: 0.75}, 1},
		"m": {colorful.Color{R: 0.75, G: 0, B: 0.75}, 1},
		"y": {colorful.Color{R: 0.75, G: 0.75, B: 0}, 1},
		"k": {colorful.Color{R: 0, G: 0, B: 0}, 1},
		"w": {colorful.Color{R: 1, G: 1, B: 1}, 1},
	}

	// The reserved primaries; a layer using one of these is eligible
	// for additive RGB fusion.
	primaries = map[string]int{
		"red": 0, "r": 0,
		"green": 1, "g": 1,
		"blue": 2, "b": 2,
	}
)

func (c RGBA)String() string {
	return fmt.Sprintf("%s@%.2f", c.Color.Hex(), c.A)
}

// NRGBA64 converts into the stdlib colour type, clamping out-of-gamut values.
func (c RGBA)NRGBA64() color.NRGBA64 {
	cl := c.Clamped()
	f := func(v float64) uint16 { return uint16(v * 0xFFFF + 0.5) }
	a := c.A
	if a < 0 { a = 0 }
	if a > 1 { a = 1 }
	return color.NRGBA64{f(cl.R), f(cl.G), f(cl.B), f(a)}
}

func normalizeName(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// PrimaryChannel reports which RGB channel (0,1,2) a colour name
// claims, if it is one of the reserved primaries.
func PrimaryChannel(s string) (int, bool) {
	ch, ok := primaries[normalizeName(s)]
	return ch, ok
}

// ParseColor understands CSS colour names ("magenta", "turquoise"),
// single-letter codes ("r", "c"), "transparent", and hex strings in
// the forms #rgb, #rrggbb and #rrggbbaa.
func ParseColor(s string) (RGBA, error) {
	name := normalizeName(s)

	switch {
	case name == "transparent" || name == "none":
		return Transparent, nil

	case strings.HasPrefix(name, "#"):
		alpha := 1.0
		if len(name) == 9 {
			a, err := strconv.ParseUint(name[7:], 16, 8)
			if err != nil {
				return RGBA{}, fmt.Errorf("%w %q: bad alpha: %v", ErrUnknownColor, s, err)
			}
			alpha = float64(a) / 255.0
			name = name[:7]
		}
		c, err := colorful.Hex(name)
		if err != nil {
			return RGBA{}, fmt.Errorf("%w %q: %v", ErrUnknownColor, s, err)
		}
		return RGBA{Color:c, A:alpha}, nil
	}

	if c, exists := shortCodes[name]; exists {
		return c, nil
	}

	if rgba, exists := colornames.Map[name]; exists {
		c, _ := colorful.MakeColor(rgba)
		return RGBA{Color:c, A:1}, nil
	}

	return RGBA{}, fmt.Errorf("%w %q", ErrUnknownColor, s)
}
