package emath

import(
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// A FloatGrid is a 2D grid of floats, as read from a single band of
// an astronomical image. It has Dy() rows of Dx() values each; row 0
// is the first row in the file (for FITS data, the bottom of the
// sky image). It is backed by a gonum matrix, so the value at (x,y)
// lives at (row y, column x).
//
// Grids are shared between layers and caches, so treat them as
// read-only once they have been handed out; every method that changes
// the shape or the values returns a new grid.
type FloatGrid struct {
	m *mat.Dense
}

func NewFloatGrid(w, h int) FloatGrid {
	if w <= 0 || h <= 0 {
		return FloatGrid{}
	}
	return FloatGrid{m: mat.NewDense(h, w, nil)}
}

// NewFloatGridFromValues wraps a row-major slice of w*h values. The
// slice is not copied.
func NewFloatGridFromValues(w, h int, values []float64) (FloatGrid, error) {
	if w <= 0 || h <= 0 {
		return FloatGrid{}, fmt.Errorf("grid %dx%d: dimensions must be positive", w, h)
	}
	if len(values) != w*h {
		return FloatGrid{}, fmt.Errorf("grid %dx%d: have %d values, want %d", w, h, len(values), w*h)
	}
	return FloatGrid{m: mat.NewDense(h, w, values)}, nil
}

// NewFloatGridFromDense wraps an existing matrix, rows being image rows.
func NewFloatGridFromDense(m *mat.Dense) FloatGrid { return FloatGrid{m: m} }

func (fg FloatGrid)IsEmpty() bool           { return fg.m == nil }
func (fg FloatGrid)Get(x, y int) float64    { return fg.m.At(y, x) }
func (fg FloatGrid)Set(x, y int, v float64) { fg.m.Set(y, x, v) }
func (fg FloatGrid)Dense() *mat.Dense       { return fg.m }

func (fg FloatGrid)Dx() int {
	if fg.m == nil { return 0 }
	_, c := fg.m.Dims()
	return c
}

func (fg FloatGrid)Dy() int {
	if fg.m == nil { return 0 }
	r, _ := fg.m.Dims()
	return r
}

// Row returns a view of row y; writes go through to the grid.
func (fg FloatGrid)Row(y int) []float64 { return fg.m.RawRowView(y) }

func (fg FloatGrid)Copy() FloatGrid {
	if fg.m == nil { return FloatGrid{} }
	return FloatGrid{m: mat.DenseCopyOf(fg.m)}
}

// Transpose swaps rows and columns.
func (fg FloatGrid)Transpose() FloatGrid {
	if fg.m == nil { return FloatGrid{} }
	return FloatGrid{m: mat.DenseCopyOf(fg.m.T())}
}

// FlipX mirrors the grid left-to-right.
func (fg FloatGrid)FlipX() FloatGrid {
	out := NewFloatGrid(fg.Dx(), fg.Dy())
	for y:=0; y<fg.Dy(); y++ {
		in, row := fg.Row(y), out.Row(y)
		for x:=0; x<len(in); x++ {
			row[len(in)-1-x] = in[x]
		}
	}
	return out
}

// FlipY mirrors the grid top-to-bottom.
func (fg FloatGrid)FlipY() FloatGrid {
	out := NewFloatGrid(fg.Dx(), fg.Dy())
	for y:=0; y<fg.Dy(); y++ {
		copy(out.Row(fg.Dy()-1-y), fg.Row(y))
	}
	return out
}

// Strided decimates the grid, returning a w*h grid where out(x,y) is
// in(x*strideX, y*strideY). The caller guarantees the picks stay in
// bounds.
func (fg FloatGrid)Strided(strideX, strideY, w, h int) FloatGrid {
	out := NewFloatGrid(w, h)
	for y:=0; y<h; y++ {
		in, row := fg.Row(y*strideY), out.Row(y)
		for x:=0; x<w; x++ {
			row[x] = in[x*strideX]
		}
	}
	return out
}

// Map returns a new grid with f applied to every value.
func (fg FloatGrid)Map(f func(float64) float64) FloatGrid {
	out := NewFloatGrid(fg.Dx(), fg.Dy())
	for y:=0; y<fg.Dy(); y++ {
		in, row := fg.Row(y), out.Row(y)
		for x, v := range in {
			row[x] = f(v)
		}
	}
	return out
}

// MinMax returns the range of the finite values in the grid. The bool
// is false if there are no finite values at all (e.g. an all-blank
// FITS plane).
func (fg FloatGrid)MinMax() (float64, float64, bool) {
	min, max := math.Inf(1), math.Inf(-1)
	for y:=0; y<fg.Dy(); y++ {
		row := fg.Row(y)
		if !floats.HasNaN(row) && !hasInf(row) {
			min = math.Min(min, floats.Min(row))
			max = math.Max(max, floats.Max(row))
			continue
		}
		for _, v := range row {
			if isFinite(v) {
				min = math.Min(min, v)
				max = math.Max(max, v)
			}
		}
	}
	return min, max, !math.IsInf(min, 1)
}

// MinPositive returns the smallest finite value that is > 0.
func (fg FloatGrid)MinPositive() (float64, bool) {
	min := math.Inf(1)
	for y:=0; y<fg.Dy(); y++ {
		for _, v := range fg.Row(y) {
			if v > 0 && v < min && isFinite(v) {
				min = v
			}
		}
	}
	return min, !math.IsInf(min, 1)
}

// FiniteValues returns a copy of all the finite values, in row order.
func (fg FloatGrid)FiniteValues() []float64 {
	vals := make([]float64, 0, fg.Dx() * fg.Dy())
	for y:=0; y<fg.Dy(); y++ {
		for _, v := range fg.Row(y) {
			if isFinite(v) {
				vals = append(vals, v)
			}
		}
	}
	return vals
}

func (fg FloatGrid)Stats() string {
	min, max, _ := fg.MinMax()
	return fmt.Sprintf("fg[%dx%d, vals{%f,%f}]", fg.Dx(), fg.Dy(), min, max)
}

// ToImg saves a simple grayscale, based on the range of values in the grid, and gamma scaling the
// gray to look normal for human vision. Row 0 is drawn at the bottom.
func (fg FloatGrid)ToImg(title, filename string) error {
	min, max, ok := fg.MinMax()
	if !ok {
		return fmt.Errorf("ToImg %s: grid has no finite values", filename)
	}

	img := image.NewRGBA64(image.Rectangle{Max:image.Point{fg.Dx(), fg.Dy()}})
	for x:=0; x<fg.Dx(); x++ {
		for y:=0; y<fg.Dy(); y++ {
			gray := 0.0
			if lum := fg.Get(x,y); isFinite(lum) && max > min {
				gray = GammaExpand_F64((lum - min) / (max - min))
			}
			col := color.RGBA64{uint16(gray * 65535.0), uint16(gray * 65535.0), uint16(gray * 65535.0), 0xFFFF}
			img.Set(x, fg.Dy()-1-y, col)
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1,1,1)
	dc.DrawString(title, 10, 20)
	return dc.SavePNG(filename)
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func hasInf(vals []float64) bool {
	for _, v := range vals {
		if math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
