package skylayers

import(
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/abworrall/skylayers/pkg/emath"
)

// fakeSource serves grids from memory, keyed by "object/band" (or by
// file, if one is given).
type fakeSource struct {
	grids map[string]emath.FloatGrid
	loads int
}

func newFakeSource() *fakeSource { return &fakeSource{grids:map[string]emath.FloatGrid{}} }

func (fs *fakeSource)Load(object, band, file string) (emath.FloatGrid, error) {
	fs.loads++
	key := object + "/" + band
	if file != "" {
		key = file
	}
	fg, exists := fs.grids[key]
	if !exists {
		return emath.FloatGrid{}, fmt.Errorf("%w: %s", ErrSourceUnavailable, key)
	}
	return fg, nil
}

func (fs *fakeSource)add(key string, w, h int, f func(x, y int) float64) {
	fg := emath.NewFloatGrid(w, h)
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			fg.Set(x, y, f(x, y))
		}
	}
	fs.grids[key] = fg
}

func (fs *fakeSource)addConst(key string, w, h int, v float64) {
	fs.add(key, w, h, func(int, int) float64 { return v })
}

func ramp(x, y int) float64 { return float64(x + y) }

func TestLayerAttachIsChangeGated(t *testing.T) {
	src := newFakeSource()
	src.add("m51/xray", 20, 10, ramp)
	src.add("m51/optical", 20, 10, ramp)

	p := NewLayerParams("m51", "xray", "magenta")
	l, err := NewLayer(src, p)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	if r := l.Rebuilds(); r.Loads != 1 || r.Norms != 1 || r.Colormaps != 1 {
		t.Fatalf("unexpected initial rebuilds %+v", r)
	}

	// Same params again: nothing should be redone
	if err := l.Attach(p); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if r := l.Rebuilds(); r.Loads != 1 || r.Norms != 1 || r.Colormaps != 1 {
		t.Errorf("identical attach rebuilt something: %+v", r)
	}

	// Opacity alone doesn't touch the normalizer or colormap
	p.Opacity = 0.5
	l.Attach(p)
	if r := l.Rebuilds(); r.Norms != 1 || r.Colormaps != 1 {
		t.Errorf("opacity change rebuilt something: %+v", r)
	}

	p.VMax = BoundAt(5)
	l.Attach(p)
	if r := l.Rebuilds(); r.Loads != 1 || r.Norms != 2 || r.Colormaps != 1 {
		t.Errorf("vmax change: unexpected rebuilds %+v", r)
	}

	p.Color = "cyan"
	l.Attach(p)
	if r := l.Rebuilds(); r.Norms != 2 || r.Colormaps != 2 {
		t.Errorf("color change: unexpected rebuilds %+v", r)
	}

	// New data needs a new normalizer, even with the same scale params
	p.Band = "optical"
	l.Attach(p)
	if r := l.Rebuilds(); r.Loads != 2 || r.Norms != 3 || r.Colormaps != 2 {
		t.Errorf("band change: unexpected rebuilds %+v", r)
	}

	if src.loads != 2 {
		t.Errorf("expected 2 loads from the source, got %d", src.loads)
	}
}

func TestLayerAttachFailureKeepsState(t *testing.T) {
	src := newFakeSource()
	src.add("m51/xray", 4, 4, ramp)

	p := NewLayerParams("m51", "xray", "red")
	l, err := NewLayer(src, p)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}

	bad := p
	bad.Band = "nosuchband"
	if err := l.Attach(bad); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}

	bad = p
	bad.Color = "notacolor"
	if err := l.Attach(bad); !errors.Is(err, ErrUnknownColor) {
		t.Errorf("expected ErrUnknownColor, got %v", err)
	}

	if l.Params() != p {
		t.Errorf("failed attach changed params: %+v", l.Params())
	}
	if ch, ok := l.Primary(); !ok || ch != 0 {
		t.Errorf("failed attach changed primary: %d %v", ch, ok)
	}
}

func TestLayerOpacityClamped(t *testing.T) {
	src := newFakeSource()
	src.add("m51/xray", 4, 4, ramp)

	p := NewLayerParams("m51", "xray", "red")
	p.Opacity = 3
	l, err := NewLayer(src, p)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	if l.Opacity() != 1 {
		t.Errorf("expected opacity 1, got %v", l.Opacity())
	}

	p.Opacity = -1
	l.Attach(p)
	if l.Opacity() != 0 {
		t.Errorf("expected opacity 0, got %v", l.Opacity())
	}
}

func TestLayerNormalizedLinear(t *testing.T) {
	src := newFakeSource()
	src.add("obj/band", 11, 1, func(x, y int) float64 { return float64(x) * 10 })

	l, err := NewLayer(src, NewLayerParams("obj", "band", "red"))
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	norm, err := l.Normalized(FullSize())
	if err != nil {
		t.Fatalf("Normalized: %v", err)
	}
	for x:=0; x<11; x++ {
		if got, want := norm.Get(x, 0), float64(x)/10; math.Abs(got-want) > 1e-12 {
			t.Errorf("x=%d: got %v, want %v", x, got, want)
		}
	}

	// Explicit bounds clip
	p := l.Params()
	p.VMin, p.VMax = BoundAt(20), BoundAt(60)
	l.Attach(p)
	norm, _ = l.Normalized(FullSize())
	if norm.Get(0, 0) != 0 || norm.Get(10, 0) != 1 || norm.Get(4, 0) != 0.5 {
		t.Errorf("clipped stretch wrong: %v %v %v", norm.Get(0, 0), norm.Get(4, 0), norm.Get(10, 0))
	}
}

func TestLayerBoundsComeFromFullResolution(t *testing.T) {
	src := newFakeSource()
	// The max (999) sits on an odd column, which a stride of 2 skips
	src.add("obj/band", 10, 10, func(x, y int) float64 {
		if x == 9 && y == 9 {
			return 999
		}
		return float64(x)
	})

	l, err := NewLayer(src, NewLayerParams("obj", "band", "red"))
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	small, err := l.Normalized(ScaleFactor(0.5))
	if err != nil {
		t.Fatalf("Normalized: %v", err)
	}
	if got, want := small.Get(4, 0), 8.0/999; math.Abs(got-want) > 1e-12 {
		t.Errorf("expected stretch over full-res range, got %v want %v", got, want)
	}
}

func TestLayerLogScale(t *testing.T) {
	src := newFakeSource()
	src.add("obj/band", 4, 1, func(x, y int) float64 { return []float64{-5, 1, 10, 100}[x] })

	p := NewLayerParams("obj", "band", "red")
	p.Scale = ScaleLog
	l, err := NewLayer(src, p)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	norm, _ := l.Normalized(FullSize())
	want := []float64{0, 0, 0.5, 1}
	for x, w := range want {
		if math.Abs(norm.Get(x, 0)-w) > 1e-12 {
			t.Errorf("x=%d: got %v, want %v", x, norm.Get(x, 0), w)
		}
	}

	p.VMin = BoundAt(0)
	if err := l.Attach(p); !errors.Is(err, ErrDegenerateScale) {
		t.Errorf("vmin=0: expected ErrDegenerateScale, got %v", err)
	}

	src.addConst("obj/dark", 4, 4, -1)
	p = NewLayerParams("obj", "dark", "red")
	p.Scale = ScaleLog
	if _, err := NewLayer(src, p); !errors.Is(err, ErrDegenerateScale) {
		t.Errorf("non-positive data: expected ErrDegenerateScale, got %v", err)
	}

	p.VMin, p.VMax = BoundAt(0.1), BoundAt(10)
	if _, err := NewLayer(src, p); err != nil {
		t.Errorf("non-positive data with explicit floor: %v", err)
	}
}

func TestLayerBlankPixels(t *testing.T) {
	src := newFakeSource()
	src.add("obj/band", 3, 1, func(x, y int) float64 { return []float64{0, math.NaN(), 2}[x] })

	l, err := NewLayer(src, NewLayerParams("obj", "band", "magenta"))
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	norm, _ := l.Normalized(FullSize())
	if !math.IsNaN(norm.Get(1, 0)) || norm.Get(2, 0) != 1 {
		t.Errorf("unexpected normalized values %v %v", norm.Get(1, 0), norm.Get(2, 0))
	}

	cg, _ := l.Colorized(FullSize())
	if cg.At(1, 0).A != 0 {
		t.Errorf("blank pixel should be transparent, got %s", cg.At(1, 0))
	}
}

func TestLayerColorizedOpacity(t *testing.T) {
	src := newFakeSource()
	src.add("obj/band", 2, 1, func(x, y int) float64 { return float64(x) })

	p := NewLayerParams("obj", "band", "#ff0000")
	p.Opacity = 0.25
	l, err := NewLayer(src, p)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	cg, err := l.Colorized(FullSize())
	if err != nil {
		t.Fatalf("Colorized: %v", err)
	}

	if c := cg.At(0, 0); c.A != 0 {
		t.Errorf("low end should be transparent, got %s", c)
	}
	if c := cg.At(1, 0); c.R != 1 || c.G != 0 || math.Abs(c.A-0.25) > 1e-12 {
		t.Errorf("high end should be red at 0.25, got %s", c)
	}
}

func TestLayerResampleCache(t *testing.T) {
	src := newFakeSource()
	src.add("obj/band", 40, 40, ramp)

	l, err := NewLayer(src, NewLayerParams("obj", "band", "red"))
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}

	a, _ := l.ResampledData(ScaleFactor(0.5))
	b, _ := l.ResampledData(ScaleFactor(0.5))
	if l.Rebuilds().Resamples != 1 || a.Dense() != b.Dense() {
		t.Errorf("expected one resample, got %d", l.Rebuilds().Resamples)
	}

	if _, err := l.ResampledData(ScaleFactor(0.001)); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
}
