package skylayers

import(
	"fmt"
	"math"

	"github.com/abworrall/skylayers/pkg/emath"
)

// Shape is the size of a grid, rows (H) first, matching the
// row-major layout of the data.
type Shape struct {
	H, W int
}

func ShapeOf(fg emath.FloatGrid) Shape { return Shape{H:fg.Dy(), W:fg.Dx()} }

func (s Shape)String() string { return fmt.Sprintf("(%d,%d)", s.H, s.W) }
func (s Shape)IsZero() bool   { return s.H == 0 && s.W == 0 }
func (s Shape)Min() int       { return min(s.H, s.W) }
func (s Shape)Max() int       { return max(s.H, s.W) }

type sizeKind int

const(
	sizeDefault sizeKind = iota
	sizeFull
	sizeTarget
	sizeFactor
)

// A Size is a requested display resolution. The zero value means "not
// specified"; PlanDownsample treats it like FullSize, but Render picks
// a size from its display budget instead.
type Size struct {
	kind   sizeKind
	target Shape
	factor float64
}

// FullSize asks for the data at its native resolution.
func FullSize() Size { return Size{kind:sizeFull} }

// TargetSize asks for a (height, width). Only the smaller of the two
// matters; aspect ratio is always preserved.
func TargetSize(h, w int) Size { return Size{kind:sizeTarget, target:Shape{h, w}} }

// ScaleFactor asks for a fraction of the native resolution.
func ScaleFactor(f float64) Size { return Size{kind:sizeFactor, factor:f} }

func (s Size)IsFull() bool    { return s.kind == sizeFull || s.kind == sizeDefault }
func (s Size)IsDefault() bool { return s.kind == sizeDefault }

func (s Size)String() string {
	switch s.kind {
	case sizeTarget: return fmt.Sprintf("target%s", s.target)
	case sizeFactor: return fmt.Sprintf("factor(%g)", s.factor)
	case sizeFull: return "full"
	}
	return "default"
}

// A DownsamplePlan says how to decimate a full resolution grid: take
// every StrideY'th row and every StrideX'th column, Target.H rows by
// Target.W columns in all.
type DownsamplePlan struct {
	StrideY, StrideX int
	Original         Shape
	Target           Shape
}

func (p DownsamplePlan)IsIdentity() bool { return p.StrideY == 1 && p.StrideX == 1 }

func (p DownsamplePlan)String() string {
	return fmt.Sprintf("%s->%s stride(%d,%d)", p.Original, p.Target, p.StrideY, p.StrideX)
}

// PlanDownsample works out integer strides that reduce orig to roughly
// the requested size. It never upsamples, and always rounds down so
// the strided picks stay inside the source grid.
func PlanDownsample(orig Shape, req Size) (DownsamplePlan, error) {
	identity := DownsamplePlan{StrideY:1, StrideX:1, Original:orig, Target:orig}

	if orig.H <= 0 || orig.W <= 0 {
		return identity, fmt.Errorf("%w: source shape %s", ErrInvalidSize, orig)
	}

	scale := 0.0
	switch req.kind {
	case sizeDefault, sizeFull:
		return identity, nil
	case sizeTarget:
		if req.target.H <= 0 || req.target.W <= 0 {
			return identity, fmt.Errorf("%w: %s", ErrInvalidSize, req)
		}
		scale = float64(req.target.Min()) / float64(orig.Min())
	case sizeFactor:
		scale = req.factor
	}

	if math.IsNaN(scale) || scale <= 0 {
		return identity, fmt.Errorf("%w: %s", ErrInvalidSize, req)
	} else if scale > 1 {
		return identity, nil // Only downsample
	}

	naive := Shape{H:int(float64(orig.H) * scale), W:int(float64(orig.W) * scale)}
	if naive.H == 0 || naive.W == 0 {
		return identity, fmt.Errorf("%w: %s of %s has a zero-length axis", ErrInvalidSize, req, orig)
	}

	p := DownsamplePlan{
		StrideY:  orig.H / naive.H,
		StrideX:  orig.W / naive.W,
		Original: orig,
	}
	if p.IsIdentity() {
		return identity, nil
	}

	// Recompute the target from the strides, so that the strides
	// derived from the target are exactly the ones we'll use.
	p.Target = Shape{H:orig.H / p.StrideY, W:orig.W / p.StrideX}
	if orig.H / p.Target.H != p.StrideY || orig.W / p.Target.W != p.StrideX {
		return identity, fmt.Errorf("%w: %s", ErrInconsistentPlan, p)
	}

	return p, nil
}

// Resample applies a plan to a grid. The identity plan hands back the
// grid itself, not a copy.
func Resample(fg emath.FloatGrid, p DownsamplePlan) emath.FloatGrid {
	if p.IsIdentity() {
		return fg
	}
	return fg.Strided(p.StrideX, p.StrideY, p.Target.W, p.Target.H)
}
