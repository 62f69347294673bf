package surface

import(
	"fmt"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/tmo"

	"github.com/abworrall/skylayers/pkg/skylayers"
)

var(
	Tonemappers = []string{"drago03", "durand", "icam06", "linear", "reinhard05"}
)

func ListTonemappers() string {
	return fmt.Sprintf("%v", Tonemappers)
}

// Tonemapped runs the composite through one of the HDR tone mapping
// operators before saving it as a PNG. The composite is already in
// display range, so this is a matter of taste: the local operators
// pull faint nebulosity up without blowing out the bright cores. With
// Operator "all", every operator is run, and each output's name gets
// the operator's name inserted (e.g. "m51.png" -> "m51-drago03.png").
type Tonemapped struct {
	Filename string
	Operator string
}

func (s Tonemapped)Draw(r *skylayers.Raster) error {
	names := []string{s.Operator}
	filename := func(string) string { return s.Filename }
	if s.Operator == "all" {
		names = Tonemappers
		filename = func(name string) string { return insertSuffix(s.Filename, "-"+name) }
	}

	for _, name := range names {
		op, err := NewTonemapper(name, r)
		if err != nil {
			return err
		}
		if err := WritePNG(op.Perform(), filename(name)); err != nil {
			return fmt.Errorf("Tonemapped.Draw %s: %v", name, err)
		}
	}
	return nil
}

// NewTonemapper sets up a tone mapping operator by name. The defaults
// tend to overexpose small bright sources, which astronomical images
// are full of, so some are toned down.
func NewTonemapper(name string, img hdr.Image) (tmo.ToneMappingOperator, error) {
	switch name {
	case "drago03":
		op := tmo.NewDefaultDrago03(img)
		op.Bias = 1.0
		return op, nil

	case "durand":
		return tmo.NewDefaultDurand(img), nil

	case "icam06":
		op := tmo.NewDefaultICam06(img)
		op.Contrast    = 0.65
		op.MaxClipping = 0.99999
		return op, nil

	case "linear":
		return tmo.NewLinear(img), nil

	case "reinhard05":
		op := tmo.NewDefaultReinhard05(img)
		op.Chromatic = 0.005
		op.Light     = 0.005
		return op, nil
	}

	return nil, fmt.Errorf("tonemapper %q not recognized, wanted %s", name, ListTonemappers())
}
