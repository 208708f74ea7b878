package spindecay

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

/*
Trials holds the four independent uniform draws consumed per
(attempt, repetition) cell. Rows are entangling attempts, columns are Monte
Carlo repetitions.
*/
type Trials struct {
	Init       *mat.Dense // electron initialisation
	MW         *mat.Dense // microwave pi-pulse fidelity
	Projection *mat.Dense // spin projection outcome
	Repump     *mat.Dense // repump duration
}

// Dims returns the number of attempts and repetitions covered by the trials.
func (t Trials) Dims() (attempts, repetitions int) {
	return t.Init.Dims()
}

/*
GenerateTrials fills the four trial matrices from rng. The matrices are drawn
one after another, each in row-major order, so a given stream always yields
the same trials.
*/
func GenerateTrials(rng *rand.Rand, attempts, repetitions int) Trials {
	draw := func() *mat.Dense {
		data := make([]float64, attempts*repetitions)
		for i := range data {
			data[i] = rng.Float64()
		}
		return mat.NewDense(attempts, repetitions, data)
	}

	// Order matters for reproducibility.
	mw := draw()
	projection := draw()
	init := draw()
	repump := draw()

	return Trials{
		Init:       init,
		MW:         mw,
		Projection: projection,
		Repump:     repump,
	}
}

// newStream returns the random stream for one chunk of repetitions.
func newStream(seed uint64, chunk int) (*rand.Rand, rand.Source) {
	src := rand.NewPCG(seed, uint64(chunk))
	return rand.New(src), src
}
