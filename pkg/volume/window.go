package volume

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"sliceview/internal/models"
)

// AutoWindow sets the display window of vol to the empirical lo and hi
// quantiles (fractions in [0,1]) of its finite voxel values. It is the
// usual way of hiding a few extreme voxels that would otherwise flatten
// the contrast. The bounds are texel values, like Min and Max.
func AutoWindow(vol *models.Volume, lo, hi float64) error {
	if lo < 0 || hi > 1 || lo >= hi {
		return fmt.Errorf("auto window: quantiles %v and %v must satisfy 0 <= lo < hi <= 1", lo, hi)
	}

	sorted := make([]float64, 0, len(vol.Data))
	for _, v := range vol.Data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			sorted = append(sorted, texelValue(v))
		}
	}
	if len(sorted) == 0 {
		return fmt.Errorf("auto window: %w: no finite voxels", ErrDataSize)
	}
	sort.Float64s(sorted)

	low := stat.Quantile(lo, stat.Empirical, sorted, nil)
	high := stat.Quantile(hi, stat.Empirical, sorted, nil)
	if low == high {
		// flat region, keep a usable window
		low, high = vol.Min, vol.Max
	}
	vol.WindowLow, vol.WindowHigh = low, high
	return nil
}
