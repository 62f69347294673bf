package skylayers

import "github.com/abworrall/skylayers/pkg/emath"

// A DataSource resolves a band of an object into its raw 2D data. If
// file is non-empty and names an existing local file it is loaded
// directly; otherwise the (object, band) pair is looked up. Loads must
// be deterministic for a given identity, and may be cached. Failures
// wrap ErrSourceUnavailable.
type DataSource interface {
	Load(object, band, file string) (emath.FloatGrid, error)
}
