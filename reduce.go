package spindecay

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

/*
CoherenceSums accumulates the phase of every repetition along the attempt axis
and returns, per attempt, the sum over repetitions of cos(accumulated phase).
Sums rather than means are returned so results from separate chunks of
repetitions can be added before normalising.
*/
func CoherenceSums(phases *mat.Dense) []float64 {
	rows, cols := phases.Dims()

	sums := make([]float64, rows)
	column := make([]float64, rows)
	accumulated := make([]float64, rows)

	for j := 0; j < cols; j++ {
		mat.Col(column, j, phases)
		floats.CumSum(accumulated, column)

		for k, phase := range accumulated {
			sums[k] += math.Cos(phase)
		}
	}

	return sums
}

// FidelityFromSums normalises coherence sums over repetitions into a fidelity curve.
func FidelityFromSums(sums []float64, repetitions int) FidelityCurve {
	curve := make(FidelityCurve, len(sums))
	for k, sum := range sums {
		curve[k] = (sum/float64(repetitions) + 1) / 2
	}
	return curve
}
