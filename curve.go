package spindecay

import (
	"fmt"
	"math"
)

/*
FidelityCurve holds the nuclear spin fidelity as a function of entangling
attempts. Entry k is the fidelity after k+1 attempts.
*/
type FidelityCurve []float64

/*
Nearest returns the index whose fidelity is closest to target. Ties go to the
lowest index. The curve is scanned linearly, since Monte Carlo noise means it
is not necessarily monotonic. A curve holding NaN or an infinity is rejected.
*/
func (fc FidelityCurve) Nearest(target float64) (int, error) {
	if len(fc) == 0 {
		return 0, ErrNoFidelityCurve
	}

	if !(target > 0 && target < 1) {
		return 0, fmt.Errorf("%w: target fidelity %v outside (0, 1)", ErrInvalidConfiguration, target)
	}

	best, bestDistance := 0, math.Inf(1)

	for k, f := range fc {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%w: fidelity %v at index %d", ErrInvalidConfiguration, f, k)
		}
		if d := math.Abs(f - target); d < bestDistance {
			best, bestDistance = k, d
		}
	}

	return best, nil
}

// Attempts converts a curve index into the number of entangling attempts.
func Attempts(index int) int {
	return index + 1
}

/*
CoherenceTarget maps a coherence level c onto the fidelity (1 + c) / 2 at which
the curve reaches it. The 1/e attempt count is found at CoherenceTarget(1/e).
*/
func CoherenceTarget(coherence float64) float64 {
	return (1 + coherence) / 2
}
