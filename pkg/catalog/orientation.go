package catalog

import(
	"fmt"

	"github.com/abworrall/skylayers/pkg/emath"
)

// An Orientation fixes up a band whose data doesn't arrive with rows
// running up the sky. The transpose happens first, then the flips.
type Orientation struct {
	Transpose bool `yaml:",omitempty"`
	FlipX     bool `yaml:"flipx,omitempty"`
	FlipY     bool `yaml:"flipy,omitempty"`
}

// DefaultOrientations holds the objects whose published data is known
// to be sideways.
func DefaultOrientations() map[string]Orientation {
	return map[string]Orientation{
		"whirlpool_galaxy": {Transpose:true},
	}
}

func (o Orientation)IsIdentity() bool { return o == Orientation{} }

func (o Orientation)String() string {
	return fmt.Sprintf("orient[T=%v,X=%v,Y=%v]", o.Transpose, o.FlipX, o.FlipY)
}

func (o Orientation)Apply(fg emath.FloatGrid) emath.FloatGrid {
	if o.Transpose { fg = fg.Transpose() }
	if o.FlipX     { fg = fg.FlipX() }
	if o.FlipY     { fg = fg.FlipY() }
	return fg
}

// Then composes two orientations: the result applies o, then next.
func (o Orientation)Then(next Orientation) Orientation {
	out := o
	if next.Transpose {
		out.Transpose = !out.Transpose
		out.FlipX, out.FlipY = out.FlipY, out.FlipX
	}
	out.FlipX = out.FlipX != next.FlipX
	out.FlipY = out.FlipY != next.FlipY
	return out
}

// FromExifOrientation maps a TIFF/EXIF orientation tag (1-8) onto the
// fixup that brings the data upright. TIFF row 0 is the top of the
// picture, whereas our row 0 is the bottom, so the upright case (1)
// still needs a vertical flip.
func FromExifOrientation(tag int) (Orientation, error) {
	var o Orientation
	switch tag {
	case 1: o = Orientation{}
	case 2: o = Orientation{FlipX:true}
	case 3: o = Orientation{FlipX:true, FlipY:true}
	case 4: o = Orientation{FlipY:true}
	case 5: o = Orientation{Transpose:true}
	case 6: o = Orientation{Transpose:true, FlipX:true}
	case 7: o = Orientation{Transpose:true, FlipX:true, FlipY:true}
	case 8: o = Orientation{Transpose:true, FlipY:true}
	default:
		return o, fmt.Errorf("exif orientation %d not in [1,8]", tag)
	}
	return o.Then(Orientation{FlipY:true}), nil
}
