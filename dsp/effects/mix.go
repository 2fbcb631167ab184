package effects

import "fmt"

// mixInto blends dry and wet in place: dst[i] = dry[i]*(1-level) + wet[i]*level.
// dst may alias dry or wet. All three slices must share the same length.
func mixInto(dst, dry, wet []float64, level float64) {
	inv := 1 - level
	for i := range dst {
		dst[i] = dry[i]*inv + wet[i]*level
	}
}

func validateWetLevel(level float64) error {
	if level < 0 || level > 1 {
		return fmt.Errorf("wet level must be in [0, 1], got %v", level)
	}
	return nil
}
