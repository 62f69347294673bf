package skylayers

import(
	"fmt"
	"log"

	"github.com/abworrall/skylayers/pkg/emath"
)

// DefaultDisplayBudget caps the larger axis of an auto-sized render.
const DefaultDisplayBudget = 400

// Layers added without a color cycle through these.
var defaultLayerColors = []string{"red", "green", "blue"}

// Image is a composite of layers that all share one shape. The first
// layer to be attached fixes the shape; it stays fixed even if every
// layer is later detached.
//
// An Image has a single writer; it does no locking.
type Image struct {
	Object        string
	Verbosity     int
	DisplayBudget int // 0 means DefaultDisplayBudget

	src    DataSource
	layers []*Layer
	shape  Shape
	last   *Raster
}

func NewImage(object string, src DataSource) *Image {
	return &Image{Object:object, src:src}
}

// RenderOptions pick the output size. An explicit Size wins; otherwise
// FullResolution asks for the native shape, and failing that the
// larger axis is capped at the display budget.
type RenderOptions struct {
	Size           Size
	FullResolution bool
	DisplayBudget  int // overrides Image.DisplayBudget if >0
}

func (img *Image)Layers() []*Layer { return img.layers }
func (img *Image)Shape() Shape     { return img.shape }

// Last is the most recent successful render, or nil.
func (img *Image)Last() *Raster { return img.last }

func (img *Image)String() string {
	str := fmt.Sprintf("Image %s %s [\n", img.Object, img.shape)
	for _, l := range img.layers {
		str += fmt.Sprintf("  %s\n", l)
	}
	return str + "]\n"
}

// AttachLayer appends a layer, which must match the composite's shape.
func (img *Image)AttachLayer(l *Layer) error {
	if img.shape.IsZero() {
		img.shape = l.Shape()
	} else if l.Shape() != img.shape {
		return fmt.Errorf("attach %s: %w: layer is %s, image is %s", l.Identity(), ErrShapeMismatch, l.Shape(), img.shape)
	}
	l.required = img.shape
	img.layers = append(img.layers, l)

	if img.Verbosity > 0 {
		log.Printf("attached layer %d: %s", len(img.layers)-1, l)
	}
	return nil
}

// AddLayer loads a band of this image's object as a new layer. If no
// color is given, layers cycle through red, green and blue.
func (img *Image)AddLayer(band string, p LayerParams) (*Layer, error) {
	p.Object, p.Band = img.Object, band
	if p.Color == "" {
		p.Color = defaultLayerColors[len(img.layers) % len(defaultLayerColors)]
	}
	l, err := NewLayer(img.src, p)
	if err != nil {
		return nil, err
	}
	if err := img.AttachLayer(l); err != nil {
		return nil, err
	}
	return l, nil
}

// DetachLayer drops the i'th layer, which is then free to take on data
// of any shape. Slices already returned by Layers are left as they were.
func (img *Image)DetachLayer(i int) error {
	if i < 0 || i >= len(img.layers) {
		return fmt.Errorf("detach %d: only have %d layers", i, len(img.layers))
	}
	img.layers[i].required = Shape{}

	layers := make([]*Layer, 0, len(img.layers)-1)
	layers = append(layers, img.layers[:i]...)
	img.layers = append(layers, img.layers[i+1:]...)
	return nil
}

func (img *Image)resolveSize(o RenderOptions) Size {
	if !o.Size.IsDefault() {
		return o.Size
	} else if o.FullResolution {
		return FullSize()
	}

	budget := o.DisplayBudget
	if budget <= 0 { budget = img.DisplayBudget }
	if budget <= 0 { budget = DefaultDisplayBudget }
	return ScaleFactor(float64(budget) / float64(img.shape.Max()))
}

// Plan works out the downsample plan a render with these options would use.
func (img *Image)Plan(o RenderOptions) (DownsamplePlan, error) {
	if img.shape.IsZero() {
		return DownsamplePlan{}, ErrNoLayers
	}
	plan, err := PlanDownsample(img.shape, img.resolveSize(o))
	if err != nil {
		return plan, fmt.Errorf("plan %s: %w", img.Object, err)
	}
	return plan, nil
}

// partition splits the layers into those that claim an RGB channel,
// and the rest. Channels go to the first layer (in attach order) that
// asks; later layers with the same primary become overlays.
func (img *Image)partition() ([3]*Layer, []*Layer) {
	rgb := [3]*Layer{}
	overlays := []*Layer{}
	for _, l := range img.layers {
		if ch, ok := l.Primary(); ok && rgb[ch] == nil {
			rgb[ch] = l
		} else {
			overlays = append(overlays, l)
		}
	}
	return rgb, overlays
}

// Render composites the layers. The RGB layers are summed into the
// base, each channel being normalized*opacity (or zero if no layer
// claims it); the overlays are then alpha-blended on top, in attach
// order. If rendering fails, Last() is left as it was.
func (img *Image)Render(o RenderOptions) (*Raster, error) {
	plan, err := img.Plan(o)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	descs, err := img.describe(plan)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	r := Composite(plan.Target, descs)

	if img.Verbosity > 0 {
		log.Printf("rendered %s: %s, %d layers", img.Object, plan, len(descs))
	}

	img.last = r
	return r, nil
}

// A LayerDescriptor is a layer, prepared for a surface that wants to
// do its own blending.
type LayerDescriptor struct {
	Data       emath.FloatGrid // normalized, NaN for blank
	Opacity    float64
	Normalizer Normalizer
	Colormap   ColormapFunc
	Primary    int  // RGB channel this layer fuses into, or -1 for an overlay
	Order      int  // blend order; lower goes first
	Source     SourceID
}

// Describe returns per-layer descriptors at the resolution Render would
// use, in blend order: RGB layers first, then overlays.
func (img *Image)Describe(o RenderOptions) ([]LayerDescriptor, DownsamplePlan, error) {
	plan, err := img.Plan(o)
	if err != nil {
		return nil, plan, fmt.Errorf("describe: %w", err)
	}
	descs, err := img.describe(plan)
	if err != nil {
		return nil, plan, fmt.Errorf("describe: %w", err)
	}
	return descs, plan, nil
}

func (img *Image)describe(plan DownsamplePlan) ([]LayerDescriptor, error) {
	for _, l := range img.layers {
		if l.Shape() != img.shape {
			return nil, fmt.Errorf("%s: %w: layer is %s, image is %s", l.Identity(), ErrShapeMismatch, l.Shape(), img.shape)
		}
	}

	rgb, overlays := img.partition()
	descs := []LayerDescriptor{}
	add := func(l *Layer, primary int) {
		descs = append(descs, LayerDescriptor{
			Data:       l.normalized(plan),
			Opacity:    l.Opacity(),
			Normalizer: l.norm,
			Colormap:   l.cmap.At,
			Primary:    primary,
			Order:      len(descs),
			Source:     l.Identity(),
		})
	}
	for ch, l := range rgb {
		if l != nil {
			add(l, ch)
		}
	}
	for _, l := range overlays {
		add(l, -1)
	}

	return descs, nil
}
