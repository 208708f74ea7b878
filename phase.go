package spindecay

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

/*
PhaseModel turns electron trajectories into nuclear spin phase. All phases are
worked out in cycles and converted to radians at the end. The rotating frame
runs at the mean of the ms = 0 and ms = -1 precession frequencies.
*/
type PhaseModel struct {
	Coupling          float64 // Hz
	T                 float64 // s, free evolution time
	LarmorPeriod      float64 // s
	LarmorOrder       float64
	AverageRepumpTime float64 // s
	RepumpTimeOffset  float64 // s
	RepumpTimeJitter  float64 // s
}

// DecouplingDuration is the dynamical-decoupling interval larmor_period * larmor_order.
func (pm PhaseModel) DecouplingDuration() float64 {
	return pm.LarmorPeriod * pm.LarmorOrder
}

/*
RepumpPhase maps a uniform draw onto the phase picked up during a repump of
exponentially distributed duration with mean average_repump_time. The mean
duration is subtracted, so only the deviation from the average accumulates.
*/
func (pm PhaseModel) RepumpPhase(u float64) float64 {
	if pm.AverageRepumpTime <= 0 {
		return 0
	}

	duration := distuv.Exponential{Rate: 1 / pm.AverageRepumpTime}.Quantile(u)
	return (duration/pm.AverageRepumpTime - 1) * pm.Coupling * pm.AverageRepumpTime
}

/*
StaticRepumpJitter draws one repump time offset per repetition. Offsets stay
fixed for all attempts of a repetition. With a non-positive jitter every
repetition gets exactly repump_time_offset; otherwise the offset is the
absolute value of a normal draw, as longer repumps are the only ones observed
when laser power drops.
*/
func (pm PhaseModel) StaticRepumpJitter(src rand.Source, repetitions int) []float64 {
	jitter := make([]float64, repetitions)

	if pm.RepumpTimeJitter <= 0 {
		for j := range jitter {
			jitter[j] = pm.RepumpTimeOffset
		}
		return jitter
	}

	normal := distuv.Normal{
		Mu:    pm.RepumpTimeOffset,
		Sigma: pm.RepumpTimeJitter,
		Src:   src,
	}

	for j := range jitter {
		jitter[j] = math.Abs(normal.Rand())
	}

	return jitter
}

/*
Phases returns the phase matrix, in radians, that each entangling attempt
imprints on the nuclear spin. Contributions of the electron trajectories add up:

	initM1: -coupling*T
	initP1:  coupling*T + 3*dd*coupling
	mw0:    -dd*coupling
	mwM1:    dd*coupling
	repump: -(repump phase + coupling*jitter[repetition])

where dd is the decoupling duration.
*/
func (pm PhaseModel) Phases(states ElectronStates, trials Trials, jitter []float64) *mat.Dense {
	rows, cols := trials.Dims()

	dd := pm.DecouplingDuration()

	initP1 := pm.Coupling * pm.T
	initM1 := -initP1

	mw0 := -dd * pm.Coupling
	mwM1 := -mw0
	mwP1 := 1.5 * 2 * dd * pm.Coupling

	phases := mat.NewDense(rows, cols, nil)

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			var phase float64

			if states.InitM1.At(i, j) {
				phase += initM1
			}
			if states.InitP1.At(i, j) {
				phase += initP1 + mwP1
			}
			if states.MW0.At(i, j) {
				phase += mw0
			}
			if states.MWM1.At(i, j) {
				phase += mwM1
			}
			if states.Repump.At(i, j) {
				phase += -(pm.RepumpPhase(trials.Repump.At(i, j)) + pm.Coupling*jitter[j])
			}

			phases.Set(i, j, 2*math.Pi*phase)
		}
	}

	return phases
}
