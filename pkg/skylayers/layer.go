package skylayers

import(
	"errors"
	"fmt"
	"math"

	"github.com/abworrall/skylayers/pkg/ecolor"
	"github.com/abworrall/skylayers/pkg/emath"
)

// SourceID names where a layer's data comes from. If File is set and
// exists locally, it wins over the (Object, Band) lookup.
type SourceID struct {
	Object string
	Band   string
	File   string
}

func (id SourceID)String() string {
	if id.File != "" {
		return fmt.Sprintf("%s/%s[%s]", id.Object, id.Band, id.File)
	}
	return fmt.Sprintf("%s/%s", id.Object, id.Band)
}

// LayerParams is everything a caller can set on a layer.
type LayerParams struct {
	SourceID

	Color       string     // "red"/"r" etc. for RGB fusion, else any CSS name or hex string
	MinColor    string     // what zero maps to; default is transparent
	Opacity     float64    // clamped into [0,1]
	Scale       ScaleMode
	VMin, VMax  Bound
	ClipPercent float64    // if >0, unset bounds come from the [p, 100-p] percentiles, not min/max
}

// NewLayerParams returns params for a fully opaque, linearly scaled band.
func NewLayerParams(object, band, color string) LayerParams {
	return LayerParams{
		SourceID: SourceID{Object:object, Band:band},
		Color:    color,
		Opacity:  1.0,
		Scale:    ScaleLinear,
	}
}

func (p LayerParams)scaleKey() scaleKey {
	return scaleKey{Mode:p.Scale, VMin:p.VMin, VMax:p.VMax, ClipPercent:p.ClipPercent}
}

type colorKey struct {
	Color, MinColor string
}

func (p LayerParams)colorKey() colorKey { return colorKey{Color:p.Color, MinColor:p.MinColor} }

// Rebuilds counts how often a layer has redone its expensive work.
type Rebuilds struct {
	Loads     int
	Norms     int
	Colormaps int
	Resamples int
}

// A Layer is one band of one object, with its display state. The
// normalizer and colormap are derived from the params, and are only
// rebuilt when the params they depend on change.
//
// A Layer is not safe for concurrent use.
type Layer struct {
	src      DataSource
	params   LayerParams

	raw      emath.FloatGrid // Shared with the DataSource's cache; never written
	shape    Shape
	required Shape // Fixed by the composite this layer is attached to; zero if none

	norm     Normalizer
	normKey  scaleKey

	cmap     *ecolor.Colormap
	colorKey colorKey
	primary  int // RGB channel claimed by Color, or -1

	lastPlan      DownsamplePlan
	lastResampled emath.FloatGrid

	rebuilds Rebuilds
}

// NewLayer loads the band and builds its rendering state.
func NewLayer(src DataSource, p LayerParams) (*Layer, error) {
	l := &Layer{src:src, primary:-1}
	if err := l.Attach(p); err != nil {
		return nil, err
	}
	return l, nil
}

// Attach (re)binds the layer to a source and a set of rendering
// params. Only the work the change requires gets done: a new identity
// reloads the data, a new stretch (or new data) rebuilds the
// normalizer, and a new color rebuilds the colormap. While the layer
// belongs to a composite, new data must keep the composite's shape,
// else ErrShapeMismatch. If anything fails, the layer is left exactly
// as it was.
func (l *Layer)Attach(p LayerParams) error {
	if math.IsNaN(p.Opacity) {
		p.Opacity = 1
	}
	p.Opacity = emath.Clamp01(p.Opacity)
	if p.Scale == "" {
		p.Scale = ScaleLinear
	}

	next := *l

	if next.raw.IsEmpty() || p.SourceID != l.params.SourceID {
		raw, err := l.src.Load(p.Object, p.Band, p.File)
		if err != nil {
			if errors.Is(err, ErrSourceUnavailable) {
				return fmt.Errorf("attach %s: %w", p.SourceID, err)
			}
			return fmt.Errorf("attach %s: %w: %w", p.SourceID, ErrSourceUnavailable, err)
		} else if raw.IsEmpty() {
			return fmt.Errorf("attach %s: %w: no data", p.SourceID, ErrSourceUnavailable)
		}
		next.raw = raw
		next.shape = ShapeOf(raw)
		next.norm = nil
		next.lastResampled = emath.FloatGrid{}
		next.rebuilds.Loads++
	}

	if !l.required.IsZero() && next.shape != l.required {
		return fmt.Errorf("attach %s: %w: data is %s, composite is %s", p.SourceID, ErrShapeMismatch, next.shape, l.required)
	}

	if sk := p.scaleKey(); next.norm == nil || sk != next.normKey {
		norm, err := buildNormalizer(sk, next.raw)
		if err != nil {
			return fmt.Errorf("attach %s: %w", p.SourceID, err)
		}
		next.norm, next.normKey = norm, sk
		next.rebuilds.Norms++
	}

	if ck := p.colorKey(); next.cmap == nil || ck != next.colorKey {
		high, err := ecolor.ParseColor(ck.Color)
		if err != nil {
			return fmt.Errorf("attach %s: color: %w", p.SourceID, err)
		}
		low := ecolor.Transparent
		if ck.MinColor != "" {
			if low, err = ecolor.ParseColor(ck.MinColor); err != nil {
				return fmt.Errorf("attach %s: min color: %w", p.SourceID, err)
			}
		}
		next.cmap, next.colorKey = ecolor.NewColormap(low, high), ck
		next.primary = -1
		if ch, ok := ecolor.PrimaryChannel(ck.Color); ok {
			next.primary = ch
		}
		next.rebuilds.Colormaps++
	}

	next.params = p
	*l = next
	return nil
}

func (l *Layer)Params() LayerParams     { return l.params }
func (l *Layer)Identity() SourceID      { return l.params.SourceID }
func (l *Layer)Shape() Shape            { return l.shape }
func (l *Layer)Raw() emath.FloatGrid    { return l.raw }
func (l *Layer)Normalizer() Normalizer  { return l.norm }
func (l *Layer)Colormap() *ecolor.Colormap { return l.cmap }
func (l *Layer)Opacity() float64        { return l.params.Opacity }
func (l *Layer)Rebuilds() Rebuilds      { return l.rebuilds }

// Primary reports the RGB channel this layer would like to claim.
func (l *Layer)Primary() (int, bool) { return l.primary, l.primary >= 0 }

func (l *Layer)String() string {
	return fmt.Sprintf("%s %s color=%s opacity=%.2f %s", l.params.SourceID, l.shape, l.params.Color, l.params.Opacity, l.norm)
}

// ResampledData returns the raw data reduced to the given size.
func (l *Layer)ResampledData(s Size) (emath.FloatGrid, error) {
	plan, err := PlanDownsample(l.shape, s)
	if err != nil {
		return emath.FloatGrid{}, fmt.Errorf("resample %s: %w", l.params.SourceID, err)
	}
	return l.resampled(plan), nil
}

// Normalized returns the resampled data, stretched into [0,1]. Blank
// pixels are NaN.
func (l *Layer)Normalized(s Size) (emath.FloatGrid, error) {
	plan, err := PlanDownsample(l.shape, s)
	if err != nil {
		return emath.FloatGrid{}, fmt.Errorf("normalize %s: %w", l.params.SourceID, err)
	}
	return l.normalized(plan), nil
}

// Colorized maps the normalized data through the colormap, with alpha
// scaled by the layer's opacity.
func (l *Layer)Colorized(s Size) (ColorGrid, error) {
	plan, err := PlanDownsample(l.shape, s)
	if err != nil {
		return ColorGrid{}, fmt.Errorf("colorize %s: %w", l.params.SourceID, err)
	}
	return l.colorized(plan), nil
}

// The most recent plan's data is kept, since interactive use tends to
// re-render at the same size over and over.
func (l *Layer)resampled(plan DownsamplePlan) emath.FloatGrid {
	if plan.IsIdentity() {
		return l.raw
	}
	if l.lastResampled.IsEmpty() || plan != l.lastPlan {
		l.lastResampled = Resample(l.raw, plan)
		l.lastPlan = plan
		l.rebuilds.Resamples++
	}
	return l.lastResampled
}

func (l *Layer)normalized(plan DownsamplePlan) emath.FloatGrid {
	return l.resampled(plan).Map(l.norm.Normalize)
}

func (l *Layer)colorized(plan DownsamplePlan) ColorGrid {
	norm := l.normalized(plan)
	cg := NewColorGrid(ShapeOf(norm))
	for y:=0; y<norm.Dy(); y++ {
		for x, v := range norm.Row(y) {
			c := l.cmap.At(v)
			c.A *= l.params.Opacity
			cg.Set(x, y, c)
		}
	}
	return cg
}
