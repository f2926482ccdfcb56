// Package scoring holds the bonus-points formula.
package scoring

import "math"

// ComputeBonus converts base points and a biome multiplier into the integer
// bonus awarded on top of the base points:
//
//	bonus = round(basePoints × (multiplier − 1))
//
// rounded half away from zero and clamped to a minimum of 0, so a multiplier
// below 1.0 can never subtract points. A multiplier of 1.0 means no bonus.
// Pure: no I/O, no hidden state.
func ComputeBonus(basePoints int, multiplier float64) int {
	extra := math.Round(float64(basePoints) * (multiplier - 1))
	if extra < 0 {
		return 0
	}
	return int(extra)
}
