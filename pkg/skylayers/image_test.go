package skylayers

import(
	"errors"
	"math"
	"testing"
)

// unitParams stretches over [0,1], so a constant pixel value comes
// through normalization unchanged.
func unitParams(band, color string) LayerParams {
	p := NewLayerParams("", band, color)
	p.VMin, p.VMax = BoundAt(0), BoundAt(1)
	return p
}

func channelMeans(r *Raster) [3]float64 {
	sums := [3]float64{}
	for i, v := range r.Pix {
		sums[i%3] += v
	}
	n := float64(r.W * r.H)
	return [3]float64{sums[0]/n, sums[1]/n, sums[2]/n}
}

func TestImageShapeMismatch(t *testing.T) {
	src := newFakeSource()
	src.addConst("crab/a", 30, 20, 1)
	src.addConst("crab/b", 20, 30, 1)

	img := NewImage("crab", src)
	if _, err := img.AddLayer("b", unitParams("", "red")); err != nil {
		t.Fatalf("first layer should always attach: %v", err)
	}
	if _, err := img.AddLayer("a", unitParams("", "green")); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
	if len(img.Layers()) != 1 || img.Shape() != (Shape{30, 20}) {
		t.Errorf("mismatched layer changed the image: %s", img)
	}
}

func TestImageRenderNoLayers(t *testing.T) {
	img := NewImage("crab", newFakeSource())
	if _, err := img.Render(RenderOptions{}); !errors.Is(err, ErrNoLayers) {
		t.Errorf("expected ErrNoLayers, got %v", err)
	}
}

func TestImageRGBFusion(t *testing.T) {
	src := newFakeSource()
	src.addConst("crab/r", 16, 12, 0.2)
	src.addConst("crab/g", 16, 12, 0.5)
	src.addConst("crab/b", 16, 12, 0.9)

	img := NewImage("crab", src)
	for _, band := range []string{"r", "g", "b"} {
		if _, err := img.AddLayer(band, unitParams(band, "")); err != nil {
			t.Fatalf("AddLayer %s: %v", band, err)
		}
	}

	r, err := img.Render(RenderOptions{FullResolution:true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if r.Shape != (Shape{12, 16}) {
		t.Errorf("expected (12,16), got %s", r.Shape)
	}

	means := channelMeans(r)
	for i, want := range []float64{0.2, 0.5, 0.9} {
		if math.Abs(means[i]-want) > 1e-9 {
			t.Errorf("channel %d: mean %v, want %v", i, means[i], want)
		}
	}
}

func TestImageRGBFusionOpacityAndMissingChannel(t *testing.T) {
	src := newFakeSource()
	src.addConst("crab/r", 8, 8, 0.8)

	img := NewImage("crab", src)
	p := unitParams("r", "r")
	p.Opacity = 0.5
	if _, err := img.AddLayer("r", p); err != nil {
		t.Fatalf("AddLayer: %v", err)
	}

	r, _ := img.Render(RenderOptions{FullResolution:true})
	if m := channelMeans(r); math.Abs(m[0]-0.4) > 1e-9 || m[1] != 0 || m[2] != 0 {
		t.Errorf("unexpected channel means %v", m)
	}
}

func TestImageDuplicatePrimary(t *testing.T) {
	src := newFakeSource()
	src.addConst("crab/first", 8, 8, 0.25)
	src.addConst("crab/second", 8, 8, 1.0)

	img := NewImage("crab", src)
	first, _ := img.AddLayer("first", unitParams("", "red"))
	second, err := img.AddLayer("second", unitParams("", "red"))
	if err != nil {
		t.Fatalf("AddLayer: %v", err)
	}

	rgb, overlays := img.partition()
	if rgb[0] != first || len(overlays) != 1 || overlays[0] != second {
		t.Fatalf("expected first to claim red and second to overlay")
	}

	// The second layer is fully opaque red at value 1, so alpha-over
	// replaces the base entirely. Had it been fused additively, red
	// would have come out as 1.25 or 0.25.
	r, _ := img.Render(RenderOptions{FullResolution:true})
	if v := r.RGB(3, 3); math.Abs(v[0]-1) > 1e-9 || v[1] != 0 || v[2] != 0 {
		t.Errorf("expected pure red from the overlay, got %v", v)
	}

	// At half value the colormap (transparent -> red) gives alpha ~0.5
	// and color ~(0.5,0,0), blended over 0.25.
	p := second.Params()
	p.VMax = BoundAt(2)
	second.Attach(p)
	r, _ = img.Render(RenderOptions{FullResolution:true})
	if v := r.RGB(3, 3); math.Abs(v[0]-(0.5*0.5 + 0.25*0.5)) > 0.01 {
		t.Errorf("expected alpha-over blend, got %v", v)
	}
}

func TestImageOverlayOrder(t *testing.T) {
	src := newFakeSource()
	src.addConst("crab/a", 4, 4, 1)
	src.addConst("crab/b", 4, 4, 1)

	img := NewImage("crab", src)
	img.AddLayer("a", unitParams("", "cyan"))
	img.AddLayer("b", unitParams("", "yellow"))

	r, _ := img.Render(RenderOptions{FullResolution:true})
	if v := r.RGB(0, 0); v[2] != 0 {
		t.Errorf("later opaque overlay should cover earlier one, got %v", v)
	}
}

func TestImageOpacityLaw(t *testing.T) {
	src := newFakeSource()
	src.add("crab/xray", 20, 20, ramp)

	img := NewImage("crab", src)
	p := NewLayerParams("", "xray", "magenta")
	p.Opacity = 0
	if _, err := img.AddLayer("xray", p); err != nil {
		t.Fatalf("AddLayer: %v", err)
	}

	withLayer, err := img.Render(RenderOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if err := img.DetachLayer(0); err != nil {
		t.Fatalf("DetachLayer: %v", err)
	}
	empty, err := img.Render(RenderOptions{})
	if err != nil {
		t.Fatalf("Render with no layers: %v", err)
	}

	if withLayer.Shape != empty.Shape {
		t.Fatalf("shapes differ: %s vs %s", withLayer.Shape, empty.Shape)
	}
	for i := range empty.Pix {
		if withLayer.Pix[i] != empty.Pix[i] {
			t.Fatalf("pixel %d differs: %v vs %v", i, withLayer.Pix[i], empty.Pix[i])
		}
	}
}

func TestImageRenderIdempotent(t *testing.T) {
	src := newFakeSource()
	src.add("crab/r", 50, 40, ramp)
	src.add("crab/xray", 50, 40, func(x, y int) float64 { return float64(x*y) })

	img := NewImage("crab", src)
	img.AddLayer("r", NewLayerParams("", "r", "red"))
	img.AddLayer("xray", NewLayerParams("", "xray", "turquoise"))

	opts := RenderOptions{Size:TargetSize(20, 20)}
	a, err := img.Render(opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b, _ := img.Render(opts)

	if a.Shape != b.Shape || len(a.Pix) != len(b.Pix) {
		t.Fatalf("shapes differ")
	}
	for i := range a.Pix {
		if math.Float64bits(a.Pix[i]) != math.Float64bits(b.Pix[i]) {
			t.Fatalf("pixel %d differs between renders", i)
		}
	}
}

func TestImageRenderSizes(t *testing.T) {
	src := newFakeSource()
	src.addConst("crab/r", 1000, 500, 1)

	img := NewImage("crab", src)
	img.AddLayer("r", unitParams("", "red"))

	tests := []struct{
		name string
		opts RenderOptions
		want Shape
	}{
		{"budget", RenderOptions{}, Shape{250, 500}},
		{"small budget", RenderOptions{DisplayBudget:100}, Shape{50, 100}},
		{"full", RenderOptions{FullResolution:true}, Shape{500, 1000}},
		{"explicit beats full", RenderOptions{FullResolution:true, Size:ScaleFactor(0.1)}, Shape{50, 100}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := img.Render(tc.opts)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if r.Shape != tc.want {
				t.Errorf("got %s, want %s", r.Shape, tc.want)
			}
		})
	}
}

func TestImageFailedRenderKeepsLast(t *testing.T) {
	src := newFakeSource()
	src.addConst("crab/r", 10, 10, 1)

	img := NewImage("crab", src)
	img.AddLayer("r", unitParams("", "red"))

	good, err := img.Render(RenderOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if _, err := img.Render(RenderOptions{Size:ScaleFactor(0.01)}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
	if img.Last() != good {
		t.Errorf("failed render replaced the last raster")
	}
}

func TestImageDefaultColorsCycle(t *testing.T) {
	src := newFakeSource()
	for _, b := range []string{"a", "b", "c", "d"} {
		src.addConst("crab/"+b, 4, 4, 1)
	}

	img := NewImage("crab", src)
	for i, b := range []string{"a", "b", "c", "d"} {
		l, err := img.AddLayer(b, NewLayerParams("", b, ""))
		if err != nil {
			t.Fatalf("AddLayer: %v", err)
		}
		if ch, ok := l.Primary(); !ok || ch != i%3 {
			t.Errorf("layer %d: expected channel %d, got %d", i, i%3, ch)
		}
	}
}

func TestImageDescribe(t *testing.T) {
	src := newFakeSource()
	src.addConst("crab/x", 40, 40, 1)
	src.addConst("crab/r", 40, 40, 1)

	img := NewImage("crab", src)
	img.AddLayer("x", unitParams("", "orange"))
	img.AddLayer("r", unitParams("", "red"))

	descs, plan, err := img.Describe(RenderOptions{Size:ScaleFactor(0.5)})
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if plan.Target != (Shape{20, 20}) || len(descs) != 2 {
		t.Fatalf("unexpected plan %s, %d descriptors", plan, len(descs))
	}
	if descs[0].Primary != 0 || descs[0].Source.Band != "r" || descs[1].Primary != -1 {
		t.Errorf("expected the RGB layer first, then the overlay: %+v", descs)
	}
	if ShapeOf(descs[1].Data) != plan.Target {
		t.Errorf("descriptor data not resampled")
	}
}

func TestImageReattachKeepsShape(t *testing.T) {
	src := newFakeSource()
	src.add("crab/a", 40, 40, ramp)
	src.add("crab/b", 10, 10, ramp)
	src.add("crab/c", 40, 40, ramp)

	img := NewImage("crab", src)
	l, err := img.AddLayer("a", NewLayerParams("", "a", "magenta"))
	if err != nil {
		t.Fatalf("AddLayer: %v", err)
	}

	p := l.Params()
	p.Band = "b"
	if err := l.Attach(p); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("re-attach to a smaller band: expected ErrShapeMismatch, got %v", err)
	}
	if l.Shape() != (Shape{40, 40}) || l.Identity().Band != "a" {
		t.Errorf("failed re-attach changed the layer: %s", l)
	}
	if _, err := img.Render(RenderOptions{Size:ScaleFactor(0.5)}); err != nil {
		t.Errorf("Render after a refused re-attach: %v", err)
	}

	// Same shape is fine
	p.Band = "c"
	if err := l.Attach(p); err != nil {
		t.Errorf("re-attach to a same-shaped band: %v", err)
	}

	// Once detached, the layer can take on any shape
	if err := img.DetachLayer(0); err != nil {
		t.Fatalf("DetachLayer: %v", err)
	}
	p.Band = "b"
	if err := l.Attach(p); err != nil {
		t.Errorf("re-attach after detach: %v", err)
	}
}

func TestImageRenderRefusesMisshapenLayer(t *testing.T) {
	src := newFakeSource()
	src.add("crab/a", 40, 40, ramp)
	src.add("crab/b", 10, 10, ramp)

	img := NewImage("crab", src)
	img.AddLayer("a", NewLayerParams("", "a", "red"))

	// Detaching from a second composite frees the layer's shape, while
	// img still holds it.
	l := img.Layers()[0]
	other := NewImage("crab", src)
	other.AttachLayer(l)
	other.DetachLayer(0)
	p := l.Params()
	p.Band = "b"
	if err := l.Attach(p); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	if _, err := img.Render(RenderOptions{Size:ScaleFactor(0.5)}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Render: expected ErrShapeMismatch, got %v", err)
	}
	if _, _, err := img.Describe(RenderOptions{}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Describe: expected ErrShapeMismatch, got %v", err)
	}
}

func TestImageDetachLeavesOldSlicesAlone(t *testing.T) {
	src := newFakeSource()
	for _, b := range []string{"a", "b", "c"} {
		src.addConst("crab/"+b, 4, 4, 1)
	}

	img := NewImage("crab", src)
	for _, b := range []string{"a", "b", "c"} {
		img.AddLayer(b, NewLayerParams("", b, ""))
	}

	before := img.Layers()
	if err := img.DetachLayer(0); err != nil {
		t.Fatalf("DetachLayer: %v", err)
	}

	for i, b := range []string{"a", "b", "c"} {
		if before[i].Identity().Band != b {
			t.Errorf("earlier slice changed at %d: got %s, want %s", i, before[i].Identity().Band, b)
		}
	}
	if after := img.Layers(); len(after) != 2 || after[0].Identity().Band != "b" || after[1].Identity().Band != "c" {
		t.Errorf("unexpected layers after detach: %v", after)
	}
}

func TestCompositeMatchesRender(t *testing.T) {
	src := newFakeSource()
	src.add("crab/r", 30, 20, ramp)
	src.add("crab/xray", 30, 20, func(x, y int) float64 { return float64(x*y) })
	src.add("crab/ir", 30, 20, func(x, y int) float64 { return float64(30-x) })

	img := NewImage("crab", src)
	img.AddLayer("xray", NewLayerParams("", "xray", "turquoise"))
	img.AddLayer("r", NewLayerParams("", "r", "red"))
	p := NewLayerParams("", "ir", "orange")
	p.Opacity = 0.4
	img.AddLayer("ir", p)

	opts := RenderOptions{Size:ScaleFactor(0.5)}
	r, err := img.Render(opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	descs, plan, err := img.Describe(opts)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}

	c := Composite(plan.Target, descs)
	if c.Shape != r.Shape {
		t.Fatalf("shape %s, want %s", c.Shape, r.Shape)
	}
	for i := range r.Pix {
		if math.Float64bits(c.Pix[i]) != math.Float64bits(r.Pix[i]) {
			t.Fatalf("pixel %d: %v, want %v", i, c.Pix[i], r.Pix[i])
		}
	}
}
