package emath

import(
	"fmt"
	"math"

	"github.com/codahale/hdrhistogram"
	"github.com/skypies/util/histogram"
)

// Values are rescaled from [min,max] onto [0,percentileResolution]
// integers before going into the hdrhistogram.
const percentileResolution = 1000000

// Percentiles returns the values at the lo'th and hi'th percentiles
// (range [0,100]) of the finite values in the grid. Astronomical images
// tend to have a handful of saturated stars, so a 99.5% upper bound
// usually stretches much better than the max.
func (fg FloatGrid)Percentiles(lo, hi float64) (float64, float64, error) {
	if lo < 0 || hi > 100 || lo > hi {
		return 0, 0, fmt.Errorf("percentiles [%g,%g] not within [0,100]", lo, hi)
	}

	min, max, ok := fg.MinMax()
	if !ok {
		return 0, 0, fmt.Errorf("percentiles: grid has no finite values")
	} else if max == min {
		return min, max, nil
	}

	h := hdrhistogram.New(1, percentileResolution+1, 3)
	scale := float64(percentileResolution) / (max - min)
	for y:=0; y<fg.Dy(); y++ {
		for _, v := range fg.Row(y) {
			if !isFinite(v) {
				continue
			}
			if err := h.RecordValue(int64((v-min)*scale) + 1); err != nil {
				return 0, 0, fmt.Errorf("percentiles: record %g: %v", v, err)
			}
		}
	}

	unscale := func(q float64) float64 {
		v := min + float64(h.ValueAtQuantile(q)-1) / scale
		return math.Max(min, math.Min(max, v))
	}

	return unscale(lo), unscale(hi), nil
}

// Histogram buckets the finite values, spread linearly over the
// grid's [min,max] range. It is only meant for eyeballing a band.
func (fg FloatGrid)Histogram() *histogram.Histogram {
	h := histogram.Histogram{NumBuckets:40, ValMin:0, ValMax:1000}

	min, max, ok := fg.MinMax()
	if !ok || max == min {
		return &h
	}

	for y:=0; y<fg.Dy(); y++ {
		for _, v := range fg.Row(y) {
			if isFinite(v) {
				h.Add(histogram.ScalarVal(int((v - min) / (max - min) * 999)))
			}
		}
	}

	return &h
}
