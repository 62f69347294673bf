package skylayers

import "strings"

// Colors for bands that don't map onto an RGB primary, in the order
// they get handed out.
var extraBandColors = []string{"magenta", "cyan", "yellow", "orange", "purple", "pink", "turquoise", "lavender"}

// DefaultBandColors picks a color for each band of an object. Bands
// named after a primary ("red", "optical_green" ...) get that primary.
// Everything else takes the next color from a fixed palette; if the
// object has no optical_red band, red, green and blue head that
// palette, so a plain three band object still fuses as RGB.
func DefaultBandColors(bands []string) map[string]string {
	palette := extraBandColors
	hasOpticalRed := false
	for _, b := range bands {
		if b == "optical_red" {
			hasOpticalRed = true
		}
	}
	if !hasOpticalRed {
		palette = append([]string{"red", "green", "blue"}, extraBandColors...)
	}

	colors := map[string]string{}
	next := 0
	for _, b := range bands {
		switch primary := strings.TrimPrefix(b, "optical_"); primary {
		case "red", "green", "blue":
			colors[b] = primary
			continue
		}
		colors[b] = palette[next % len(palette)]
		next++
	}
	return colors
}
