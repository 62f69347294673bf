package catalog

import(
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"

	"github.com/abworrall/skylayers/pkg/emath"
	"github.com/abworrall/skylayers/pkg/skylayers"
)

// A Catalog maps objects and bands onto FITS files, some local and
// some on Chandra's servers. It implements skylayers.DataSource;
// decoded bands are cached by file and orientation, so every layer of
// a band shares one grid, and a file listed under two objects with
// different orientations gets one grid per orientation.
//
// Load and Prefetch are safe for concurrent use; the rest of the
// catalog is read-only once NewCatalog returns.
type Catalog struct {
	Config

	objects []string                     // In the order they were first seen
	bands   map[string][]string          // Per object, in the order they were first seen
	entries map[string]map[string]string // object -> band -> file or URL
	remote  map[string]bool              // Objects only known from the remote index

	fetcher *Fetcher

	mu    sync.Mutex
	cache map[cacheKey]emath.FloatGrid
}

type cacheKey struct {
	Filename    string
	Orientation Orientation
}

var _ skylayers.DataSource = &Catalog{}

// NewCatalog reads the catalog file, and if asked to, merges in the
// objects from the remote index. The index only adds bands; it never
// overrides a local entry.
func NewCatalog(ctx context.Context, cfg Config) (*Catalog, error) {
	c := newEmptyCatalog(cfg)

	if cfg.CatalogFile != "" {
		b, err := os.ReadFile(cfg.CatalogFile)
		if err != nil {
			return nil, fmt.Errorf("catalog read %s: %v", cfg.CatalogFile, err)
		} else if err := c.AddYaml(b); err != nil {
			return nil, fmt.Errorf("catalog %s: %v", cfg.CatalogFile, err)
		}
	}

	if cfg.ScrapeRemote {
		html, err := c.loadChandraIndex(ctx)
		if err != nil {
			return nil, err
		}
		n := c.AddChandraEntries(ParseChandraIndex(c.RemoteURL, html))
		if c.Verbosity > 0 {
			log.Printf("chandra index: %d new bands, %d remote objects", n, len(c.RemoteObjects()))
		}
	}

	return c, nil
}

func newEmptyCatalog(cfg Config) *Catalog {
	if cfg.Orientations == nil {
		cfg.Orientations = DefaultOrientations()
	}
	f := NewFetcher(cfg.FetchTimeout, cfg.FetchRetries)
	f.Verbosity = cfg.Verbosity

	return &Catalog{
		Config:  cfg,
		bands:   map[string][]string{},
		entries: map[string]map[string]string{},
		remote:  map[string]bool{},
		fetcher: f,
		cache:   map[cacheKey]emath.FloatGrid{},
	}
}

func (c *Catalog)add(object, band, where string) bool {
	if c.entries[object] == nil {
		c.entries[object] = map[string]string{}
		c.objects = append(c.objects, object)
	}
	if _, exists := c.entries[object][band]; exists {
		return false
	}
	c.entries[object][band] = where
	c.bands[object] = append(c.bands[object], band)
	return true
}

// AddYaml merges in a catalog file's contents, keeping the file's order:
//
//   kepler:
//     xray: kepler_xray.fits
//     optical: https://chandra.harvard.edu/photo/openFITS/kepler_opt.fits
func (c *Catalog)AddYaml(b []byte) error {
	var doc yaml.MapSlice
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return err
	}

	for _, obj := range doc {
		object := fmt.Sprintf("%v", obj.Key)
		bands, ok := obj.Value.(yaml.MapSlice)
		if !ok {
			return fmt.Errorf("object %s: want a map of band to file, got %T", object, obj.Value)
		}
		for _, band := range bands {
			where, ok := band.Value.(string)
			if !ok {
				return fmt.Errorf("%s/%v: want a file or URL, got %T", object, band.Key, band.Value)
			}
			c.add(object, fmt.Sprintf("%v", band.Key), where)
		}
	}
	return nil
}

// AddChandraEntries merges in remote bands, and returns how many were
// new. Objects that weren't already in the catalog are remote only.
func (c *Catalog)AddChandraEntries(entries []ChandraEntry) int {
	n := 0
	for _, e := range entries {
		if _, exists := c.entries[e.Object]; !exists {
			c.remote[e.Object] = true
		}
		if c.add(e.Object, e.Band, e.URL) {
			n++
		}
	}
	return n
}

func (c *Catalog)Objects() []string { return append([]string{}, c.objects...) }

func (c *Catalog)LocalObjects() []string {
	out := []string{}
	for _, o := range c.objects {
		if !c.remote[o] {
			out = append(out, o)
		}
	}
	return out
}

func (c *Catalog)RemoteObjects() []string {
	out := []string{}
	for o := range c.remote {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog)IsRemote(object string) bool { return c.remote[object] }

func (c *Catalog)Bands(object string) []string { return append([]string{}, c.bands[object]...) }

// Entry is the raw catalog entry for a band: a filename (relative to
// the object's data dir) or a URL.
func (c *Catalog)Entry(object, band string) (string, bool) {
	where, exists := c.entries[object][band]
	return where, exists
}

func isURL(s string) bool { return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://") }

func isFile(s string) bool {
	if s == "" {
		return false
	}
	fi, err := os.Stat(s)
	return err == nil && !fi.IsDir()
}

// Resolve works out which local file holds a band, downloading it if
// it's remote and we don't have it yet. An explicit file wins if it
// exists; then a band that is itself the path of a file; then the
// catalog entry.
func (c *Catalog)Resolve(ctx context.Context, object, band, file string) (string, error) {
	if isFile(file) {
		return file, nil
	} else if isFile(band) {
		return band, nil
	}

	where, exists := c.Entry(object, band)
	if !exists {
		if file != "" {
			return "", fmt.Errorf("%w: file '%s', and no band %s/%s", ErrNotFound, file, object, band)
		}
		return "", fmt.Errorf("%w: no band %s/%s", ErrNotFound, object, band)
	}

	if isURL(where) {
		filename := filepath.Join(c.DataDir, object, path.Base(where))
		if err := c.fetcher.Download(ctx, where, filename); err != nil {
			return "", fmt.Errorf("%s/%s: %w", object, band, err)
		}
		return filename, nil
	}

	filename := where
	if !filepath.IsAbs(filename) {
		filename = filepath.Join(c.DataDir, object, where)
	}
	if !isFile(filename) {
		return "", fmt.Errorf("%w: %s/%s: no file '%s'", ErrNotFound, object, band, filename)
	}
	return filename, nil
}

// Load implements skylayers.DataSource.
func (c *Catalog)Load(object, band, file string) (emath.FloatGrid, error) {
	ctx := context.Background()
	if c.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.FetchTimeout * time.Duration(c.FetchRetries+1))
		defer cancel()
	}
	return c.LoadContext(ctx, object, band, file)
}

func (c *Catalog)LoadContext(ctx context.Context, object, band, file string) (emath.FloatGrid, error) {
	filename, err := c.Resolve(ctx, object, band, file)
	if err != nil {
		return emath.FloatGrid{}, err
	}

	key := cacheKey{Filename:filename, Orientation:c.Orientations[object]}

	c.mu.Lock()
	fg, exists := c.cache[key]
	c.mu.Unlock()
	if exists {
		return fg, nil
	}

	fg, err = decodeFile(filename)
	if err != nil {
		return emath.FloatGrid{}, fmt.Errorf("%s/%s: %w", object, band, err)
	}
	if !key.Orientation.IsIdentity() {
		fg = key.Orientation.Apply(fg)
	}

	if c.Verbosity > 0 {
		log.Printf("loaded %s/%s from %s: %s", object, band, filename, fg.Stats())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, exists := c.cache[key]; exists {
		return cached, nil // Lost a race; everyone gets the same grid
	}
	c.cache[key] = fg
	return fg, nil
}

func decodeFile(filename string) (emath.FloatGrid, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return emath.FloatGrid{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	var fg emath.FloatGrid
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".fits", ".fit", ".fts":
		fg, err = DecodeFITS(bytes.NewReader(b))
	case ".tif", ".tiff":
		fg, err = DecodeTIFF(b)
	default:
		return fg, fmt.Errorf("%w: '%s'", ErrUnsupportedFormat, filename)
	}

	if err != nil {
		return fg, fmt.Errorf("%w: '%s': %v", ErrUnsupportedFormat, filename, err)
	}
	return fg, nil
}

// Prefetch downloads every remote band of an object, a few at a time.
func (c *Catalog)Prefetch(ctx context.Context, object string) error {
	bands := c.Bands(object)
	if len(bands) == 0 {
		return fmt.Errorf("%w: no object %s", ErrNotFound, object)
	}

	if c.Verbosity > 0 {
		log.Printf("downloading FITS files for %s, this may take a few minutes", object)
	}

	g, ctx := errgroup.WithContext(ctx)
	if c.Prefetchers > 0 {
		g.SetLimit(c.Prefetchers)
	}
	for _, band := range bands {
		band := band
		if where, _ := c.Entry(object, band); !isURL(where) {
			continue
		}
		g.Go(func() error {
			_, err := c.Resolve(ctx, object, band, "")
			return err
		})
	}
	return g.Wait()
}
