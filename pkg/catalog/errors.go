package catalog

import(
	"errors"
	"fmt"

	"github.com/abworrall/skylayers/pkg/skylayers"
)

var(
	// The (object, band) pair isn't in the catalog, or its file is missing.
	ErrNotFound          = fmt.Errorf("%w: not found", skylayers.ErrSourceUnavailable)

	// A remote band (or the remote index) couldn't be downloaded.
	ErrFetchFailed       = fmt.Errorf("%w: fetch failed", skylayers.ErrSourceUnavailable)

	// The band's file is in a format we can't read.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported format", skylayers.ErrSourceUnavailable)

	errNoImageHDU        = errors.New("primary HDU is not an image")
)
