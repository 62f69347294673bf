package skylayers

import(
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Verbosity      int

	Object         string
	Layers         []LayerConfig

	DisplayBudget  int                    // Cap on the larger axis of a render; 0 means DefaultDisplayBudget
	FullResolution bool
	Size           []int    `yaml:",flow"` // [h, w]; overrides the display budget
	Factor         float64                // Overrides the display budget, if Size isn't set

	Outputs
}

// LayerConfig is one layer, as written in YAML. Pointer fields are
// optional; nil means "use the default".
type LayerConfig struct {
	Band     string
	File     string   `yaml:",omitempty"`
	Color    string   `yaml:",omitempty"`
	MinColor string   `yaml:"mincolor,omitempty"`
	Opacity  *float64 `yaml:",omitempty"`
	Scale    string   `yaml:",omitempty"`
	VMin     *float64 `yaml:"vmin,omitempty"`
	VMax     *float64 `yaml:"vmax,omitempty"`
	Clip     float64  `yaml:",omitempty"`  // percentile clip, e.g. 0.5
}

// Outputs says where renders should be written. Empty means "don't".
type Outputs struct {
	PNG       string `yaml:"png,omitempty"`
	TIFF      string `yaml:"tiff,omitempty"`
	HDR       string `yaml:"hdr,omitempty"`
	Legend    string `yaml:",omitempty"`
	Tonemap   string `yaml:",omitempty"` // PNG, via Tonemapper
	Tonemapper string `yaml:",omitempty"`
	LayerDir  string `yaml:"layerdir,omitempty"`
	Width     int    `yaml:",omitempty"` // rescale PNG output to this width
	Gamma     bool                      // apply the sRGB curve to 8/16 bit outputs
}

func NewConfig() Config {
	return Config{
		Outputs: Outputs{Gamma:true},
	}
}

func NewConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	return c, err
}

func LoadConfig(filename string) (Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("LoadConfig '%s': %v", filename, err)
	}
	c, err := NewConfigFromYaml(b)
	if err != nil {
		return Config{}, fmt.Errorf("LoadConfig '%s': %v", filename, err)
	}
	return c, nil
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

// RenderOptions turns the size related fields into render options.
func (c Config)RenderOptions() (RenderOptions, error) {
	o := RenderOptions{FullResolution:c.FullResolution, DisplayBudget:c.DisplayBudget}
	switch {
	case len(c.Size) == 2:
		o.Size = TargetSize(c.Size[0], c.Size[1])
	case len(c.Size) != 0:
		return o, fmt.Errorf("%w: size should be [h, w], got %v", ErrInvalidSize, c.Size)
	case c.Factor != 0:
		o.Size = ScaleFactor(c.Factor)
	}
	return o, nil
}

// Params converts a layer's YAML into LayerParams for the given object.
func (lc LayerConfig)Params(object string) (LayerParams, error) {
	p := NewLayerParams(object, lc.Band, lc.Color)
	p.File = lc.File
	p.MinColor = lc.MinColor
	p.ClipPercent = lc.Clip

	if lc.Opacity != nil { p.Opacity = *lc.Opacity }
	if lc.VMin != nil    { p.VMin = BoundAt(*lc.VMin) }
	if lc.VMax != nil    { p.VMax = BoundAt(*lc.VMax) }

	mode, err := ParseScaleMode(lc.Scale)
	if err != nil {
		return p, fmt.Errorf("layer %s: %v", lc.Band, err)
	}
	p.Scale = mode
	return p, nil
}

// NewImageFromConfig builds the composite the config describes,
// loading every layer from src.
func NewImageFromConfig(c Config, src DataSource) (*Image, error) {
	img := NewImage(c.Object, src)
	img.Verbosity = c.Verbosity
	img.DisplayBudget = c.DisplayBudget

	for _, lc := range c.Layers {
		p, err := lc.Params(c.Object)
		if err != nil {
			return nil, err
		}
		if _, err := img.AddLayer(lc.Band, p); err != nil {
			return nil, err
		}
	}

	if c.Verbosity > 0 {
		log.Printf("Loaded %s", img)
	}
	return img, nil
}
