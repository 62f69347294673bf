package skylayers

import(
	"errors"

	"github.com/abworrall/skylayers/pkg/ecolor"
)

var(
	// A layer's raw shape disagrees with the shape already fixed by the
	// first layer of the composite.
	ErrShapeMismatch     = errors.New("layer shape mismatch")

	// A requested display size would produce a zero-length axis (or
	// is otherwise meaningless, e.g. a negative scale factor).
	ErrInvalidSize       = errors.New("invalid display size")

	// The DataSource could not resolve or fetch the band's data.
	// DataSources wrap this, so callers can errors.Is() against it.
	ErrSourceUnavailable = errors.New("source unavailable")

	// Logarithmic scaling was asked for, but there is no positive floor
	// to anchor it.
	ErrDegenerateScale   = errors.New("degenerate logarithmic scale")

	// A downsample plan failed its own stride consistency check. This
	// is a bug, not a user error.
	ErrInconsistentPlan  = errors.New("inconsistent downsample plan")

	// Render was called before any layer fixed the composite's shape.
	ErrNoLayers          = errors.New("composite has no layers")

	ErrUnknownColor      = ecolor.ErrUnknownColor
)
