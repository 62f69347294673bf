package main

import(
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/abworrall/skylayers/pkg/catalog"
)

var(
	fVerbosity int
	fCatalogConfig string
	fCatalogFile string
	fDataDir string
	fNoRemote bool
	fTimeout time.Duration
	fClip float64
	fDumpDir string
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.StringVar(&fCatalogConfig, "catalogconfig", "", "YAML file with catalog settings")
	flag.StringVar(&fCatalogFile, "catalog", "", "YAML catalog of object -> band -> file/URL")
	flag.StringVar(&fDataDir, "datadir", "", "where band files live (and downloads go)")
	flag.BoolVar(&fNoRemote, "noremote", false, "don't consult the Chandra open FITS index")
	flag.DurationVar(&fTimeout, "timeout", 30*time.Minute, "give up on prefetching after this long")
	flag.Float64Var(&fClip, "clip", 0.5, "stats: report the [p, 100-p] percentiles")
	flag.StringVar(&fDumpDir, "dump", "", "stats: also write a grayscale PNG of each band into this dir")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: skycatalog [flags] list | bands <object> | prefetch <object>... | stats <object> [band...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()
}

func main() {
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

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

	if fVerbosity > 0 {
		log.Printf("Catalog configuration:-\n\n%s\n", cfg.AsYaml())
	}

	ctx, cancel := context.WithTimeout(context.Background(), fTimeout)
	defer cancel()

	cat, err := catalog.NewCatalog(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	args := flag.Args()[1:]
	switch cmd := flag.Arg(0); cmd {
	case "list":
		fmt.Printf("local:  %v\nremote: %v\n", cat.LocalObjects(), cat.RemoteObjects())

	case "bands":
		for _, object := range args {
			for _, band := range cat.Bands(object) {
				where, _ := cat.Entry(object, band)
				fmt.Printf("%s/%s: %s\n", object, band, where)
			}
		}

	case "prefetch":
		for _, object := range args {
			log.Printf("downloading FITS files for %s, this may take a few minutes", object)
			if err := cat.Prefetch(ctx, object); err != nil {
				log.Fatal(err)
			}
		}

	case "stats":
		if len(args) < 1 {
			log.Fatal("stats: need an object")
		}
		if err := stats(ctx, cat, args[0], args[1:]); err != nil {
			log.Fatal(err)
		}

	default:
		log.Fatalf("no command named '%s'", cmd)
	}
}

func stats(ctx context.Context, cat *catalog.Catalog, object string, bands []string) error {
	if len(bands) == 0 {
		bands = cat.Bands(object)
	}

	for _, band := range bands {
		fg, err := cat.LoadContext(ctx, object, band, "")
		if err != nil {
			return err
		}

		fmt.Printf("%s/%s: %s\n", object, band, fg.Stats())
		if mp, ok := fg.MinPositive(); ok {
			fmt.Printf("  smallest positive value: %g\n", mp)
		}
		if lo, hi, err := fg.Percentiles(fClip, 100-fClip); err == nil {
			fmt.Printf("  %g%% - %g%% percentiles: [%g, %g]\n", fClip, 100-fClip, lo, hi)
		}
		fmt.Printf("  histogram (linear over [min,max]): %v\n", fg.Histogram())

		if fDumpDir != "" {
			if err := os.MkdirAll(fDumpDir, 0755); err != nil {
				return err
			}
			filename := fmt.Sprintf("%s/%s-%s.png", fDumpDir, object, band)
			if err := fg.ToImg(object+"/"+band, filename); err != nil {
				return err
			}
		}
	}
	return nil
}
