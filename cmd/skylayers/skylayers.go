package main

import(
	"context"
	"flag"
	"log"
	"strings"

	"github.com/abworrall/skylayers/pkg/catalog"
	"github.com/abworrall/skylayers/pkg/skylayers"
	"github.com/abworrall/skylayers/pkg/surface"
)

var(
	fVerbosity int
	fCatalogConfig string
	fCatalogFile string
	fDataDir string
	fNoRemote bool

	fObject string
	fBands string
	fFullRes bool
	fBudget int
	fFactor float64

	fPNG string
	fTIFF string
	fHDR string
	fLegend string
	fTonemap string
	fTonemapper string
	fLayerDir string
	fWidth int
	fGamma bool
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.StringVar(&fCatalogConfig, "catalogconfig", "", "YAML file with catalog settings")
	flag.StringVar(&fCatalogFile, "catalog", "", "YAML catalog of object -> band -> file/URL")
	flag.StringVar(&fDataDir, "datadir", "", "where band files live (and downloads go)")
	flag.BoolVar(&fNoRemote, "noremote", false, "don't consult the Chandra open FITS index")

	flag.StringVar(&fObject, "object", "", "which object to render")
	flag.StringVar(&fBands, "bands", "", "comma separated bands to layer (default: all, with default colors)")
	flag.BoolVar(&fFullRes, "fullres", false, "render at full resolution (slow)")
	flag.IntVar(&fBudget, "budget", 0, "cap on the larger axis of the render")
	flag.Float64Var(&fFactor, "factor", 0, "render at this fraction of full resolution")

	flag.StringVar(&fPNG, "png", "", "write the composite as a PNG")
	flag.StringVar(&fTIFF, "tiff", "", "write the composite as a TIFF")
	flag.StringVar(&fHDR, "hdr", "", "write the composite as an RGBE .hdr file")
	flag.StringVar(&fLegend, "legend", "", "write an annotated PNG, with a legend of the layers")
	flag.StringVar(&fTonemap, "tonemap", "", "write a tonemapped PNG")
	flag.StringVar(&fTonemapper, "tonemapper", "reinhard05", "how to tonemap: all, or one of "+surface.ListTonemappers())
	flag.StringVar(&fLayerDir, "layerdir", "", "write each layer as its own PNG into this dir")
	flag.IntVar(&fWidth, "width", 0, "rescale the PNG output to this width")
	flag.BoolVar(&fGamma, "gamma", true, "apply sRGB gamma to 8/16 bit outputs")
	flag.Parse()

	log.Printf("skylayers starting\n")
}

func loadCatalog() *catalog.Catalog {
	cfg := catalog.NewConfig()
	if fCatalogConfig != "" {
		var err error
		if cfg, err = catalog.LoadConfig(fCatalogConfig); err != nil {
			log.Fatal(err)
		}
	}
	if fCatalogFile != "" { cfg.CatalogFile = fCatalogFile }
	if fDataDir != ""     { cfg.DataDir = fDataDir }
	if fNoRemote          { cfg.ScrapeRemote = false }
	cfg.Verbosity = fVerbosity

	cat, err := catalog.NewCatalog(context.Background(), cfg)
	if err != nil {
		log.Fatal(err)
	}
	return cat
}

// loadConfig reads any .yaml args, then lets the flags override them.
func loadConfig(cat *catalog.Catalog) skylayers.Config {
	c := skylayers.NewConfig()
	for _, arg := range flag.Args() {
		if !strings.HasSuffix(arg, ".yaml") {
			log.Fatalf("don't know what to do with arg '%s'", arg)
		}
		var err error
		if c, err = skylayers.LoadConfig(arg); err != nil {
			log.Fatal(err)
		}
	}

	if fVerbosity > 0    { c.Verbosity = fVerbosity }
	if fObject != ""     { c.Object = fObject }
	if fFullRes          { c.FullResolution = true }
	if fBudget > 0       { c.DisplayBudget = fBudget }
	if fFactor > 0       { c.Factor = fFactor }
	if fPNG != ""        { c.Outputs.PNG = fPNG }
	if fTIFF != ""       { c.Outputs.TIFF = fTIFF }
	if fHDR != ""        { c.Outputs.HDR = fHDR }
	if fLegend != ""     { c.Outputs.Legend = fLegend }
	if fTonemap != ""    { c.Outputs.Tonemap = fTonemap }
	if fLayerDir != ""   { c.Outputs.LayerDir = fLayerDir }
	if fWidth > 0        { c.Outputs.Width = fWidth }
	if c.Outputs.Tonemapper == "" { c.Outputs.Tonemapper = fTonemapper }
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "gamma" { c.Outputs.Gamma = fGamma }
	})

	if c.Object == "" {
		log.Fatalf("no object given; local objects are %v, remote are %v", cat.LocalObjects(), cat.RemoteObjects())
	}

	if fBands != "" || len(c.Layers) == 0 {
		bands := cat.Bands(c.Object)
		if fBands != "" {
			bands = strings.Split(fBands, ",")
		}
		colors := skylayers.DefaultBandColors(bands)
		c.Layers = []skylayers.LayerConfig{}
		for _, band := range bands {
			c.Layers = append(c.Layers, skylayers.LayerConfig{Band:band, Color:colors[band]})
		}
	}

	if c.Outputs.PNG == "" && c.Outputs.TIFF == "" && c.Outputs.HDR == "" && c.Outputs.Legend == "" &&
		c.Outputs.Tonemap == "" && c.Outputs.LayerDir == "" {
		c.Outputs.PNG = c.Object + ".png"
	}

	return c
}

func main() {
	cat := loadCatalog()
	c := loadConfig(cat)

	if c.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", c.AsYaml())
	}

	if cat.IsRemote(c.Object) {
		log.Printf("downloading FITS files for %s, this may take a few minutes", c.Object)
		if err := cat.Prefetch(context.Background(), c.Object); err != nil {
			log.Fatal(err)
		}
	}

	img, err := skylayers.NewImageFromConfig(c, cat)
	if err != nil {
		log.Fatal(err)
	}

	opts, err := c.RenderOptions()
	if err != nil {
		log.Fatal(err)
	}

	r, err := img.Render(opts)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("rendered %s: %s", c.Object, r)

	if err := surface.FromOutputs(c.Outputs, img).Draw(r); err != nil {
		log.Fatal(err)
	}

	if c.Outputs.LayerDir != "" {
		descs, plan, err := img.Describe(opts)
		if err != nil {
			log.Fatal(err)
		}
		if err := (surface.LayerDump{Dir:c.Outputs.LayerDir}).DrawLayers(plan.Target, descs); err != nil {
			log.Fatal(err)
		}
	}

	log.Printf("done")
}
