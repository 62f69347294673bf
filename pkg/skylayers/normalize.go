package skylayers

import(
	"fmt"
	"math"
	"strings"

	"github.com/abworrall/skylayers/pkg/emath"
)

type ScaleMode string

const(
	ScaleLinear ScaleMode = "linear"
	ScaleLog    ScaleMode = "log"
)

func ParseScaleMode(s string) (ScaleMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear", "lin": return ScaleLinear, nil
	case "log", "logarithmic": return ScaleLog, nil
	}
	return "", fmt.Errorf("no scale mode named '%s'", s)
}

// A Bound is an optional limit on a layer's stretch. Unset bounds are
// inferred from the data.
type Bound struct {
	Value float64
	Set   bool
}

func BoundAt(v float64) Bound { return Bound{Value:v, Set:true} }

func (b Bound)String() string {
	if !b.Set { return "auto" }
	return fmt.Sprintf("%g", b.Value)
}

// A Normalizer maps raw pixel values into [0,1]. Blank (NaN) pixels
// stay NaN.
type Normalizer interface {
	Normalize(v float64) float64
	Range() (float64, float64)
	String() string
}

// scaleKey holds every parameter that goes into building a
// Normalizer; if it hasn't changed, neither has the Normalizer.
type scaleKey struct {
	Mode        ScaleMode
	VMin, VMax  Bound
	ClipPercent float64
}

type linearNorm struct {
	vmin, vmax float64
}

func (n linearNorm)Range() (float64, float64) { return n.vmin, n.vmax }
func (n linearNorm)String() string            { return fmt.Sprintf("linear[%g,%g]", n.vmin, n.vmax) }

func (n linearNorm)Normalize(v float64) float64 {
	if math.IsNaN(v) {
		return v
	} else if n.vmax <= n.vmin {
		return 0
	}
	return emath.Clamp01((v - n.vmin) / (n.vmax - n.vmin))
}

// logNorm stretches log(v) over [log(floor), log(vmax)]. Anything at
// or below the floor (including zero and negative pixels) maps to 0.
type logNorm struct {
	floor, vmax float64
	logFloor    float64
	logSpan     float64
}

func newLogNorm(floor, vmax float64) logNorm {
	n := logNorm{floor:floor, vmax:vmax, logFloor:math.Log(floor)}
	if vmax > floor {
		n.logSpan = math.Log(vmax) - n.logFloor
	}
	return n
}

func (n logNorm)Range() (float64, float64) { return n.floor, n.vmax }
func (n logNorm)String() string            { return fmt.Sprintf("log[%g,%g]", n.floor, n.vmax) }

func (n logNorm)Normalize(v float64) float64 {
	if math.IsNaN(v) {
		return v
	} else if v <= n.floor || n.logSpan == 0 {
		return 0
	}
	return emath.Clamp01((math.Log(v) - n.logFloor) / n.logSpan)
}

// buildNormalizer infers any unset bounds from the full resolution
// data, so every display size gets the same stretch.
//
// For log scaling the floor is VMin when it is set, else the smallest
// positive pixel in the data (or the low clip percentile, if that is
// higher). A non-positive VMin, or data without a single positive
// pixel, is ErrDegenerateScale.
func buildNormalizer(k scaleKey, raw emath.FloatGrid) (Normalizer, error) {
	lo, hi, _ := raw.MinMax()
	if k.ClipPercent > 0 && (!k.VMin.Set || !k.VMax.Set) {
		var err error
		if lo, hi, err = raw.Percentiles(k.ClipPercent, 100-k.ClipPercent); err != nil {
			return nil, fmt.Errorf("clip %g%%: %v", k.ClipPercent, err)
		}
	}

	vmin, vmax := lo, hi
	if k.VMin.Set { vmin = k.VMin.Value }
	if k.VMax.Set { vmax = k.VMax.Value }

	switch k.Mode {
	case ScaleLinear:
		if math.IsInf(vmin, 0) || math.IsInf(vmax, 0) {
			vmin, vmax = 0, 0 // no finite data at all; everything renders blank anyway
		}
		return linearNorm{vmin:vmin, vmax:vmax}, nil

	case ScaleLog:
		floor := vmin
		if k.VMin.Set {
			if floor <= 0 {
				return nil, fmt.Errorf("%w: vmin %g is not positive", ErrDegenerateScale, floor)
			}
		} else {
			minPos, ok := raw.MinPositive()
			if !ok {
				return nil, fmt.Errorf("%w: data has no positive values, and no vmin was given", ErrDegenerateScale)
			}
			floor = minPos
			if k.ClipPercent > 0 && lo > floor {
				floor = lo
			}
		}
		return newLogNorm(floor, vmax), nil
	}

	return nil, fmt.Errorf("no scale mode named '%s'", k.Mode)
}
