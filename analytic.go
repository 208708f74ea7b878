package spindecay

import (
	"context"
	"fmt"
	"math"

	"github.com/theapemachine/errnie"
)

/*
Faraday is the closed-form decay model of Blok et al., Faraday Discussions
(2015). Each attempt leaves the electron in the bright state with probability
pflip, in which case the repump adds a Gaussian phase with standard deviation
2*pi*coupling*average_repump_time to the nuclear spin:

	C(N) = (1 - p + p*exp(-(2*pi*c*r)^2 / 2))^N

It is used as the reference the Monte Carlo engine is validated against.
*/
type Faraday struct {
	Base
}

// NewFaraday builds the analytic model from the default parameters and overrides.
func NewFaraday(overrides map[string]any) (*Faraday, error) {
	base, err := newBase(overrides)
	if err != nil {
		return nil, err
	}

	return &Faraday{Base: base}, nil
}

// perAttempt is the coherence left after a single entangling attempt.
func (f *Faraday) perAttempt() (float64, error) {
	values, err := f.floats(ParamCoupling, ParamAverageRepumpTime, ParamPFlip)
	if err != nil {
		return 0, err
	}

	for i, name := range []string{ParamCoupling, ParamAverageRepumpTime, ParamPFlip} {
		if v := values[i]; math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &ParameterError{Name: name, Detail: "not a finite number", Err: ErrInvalidConfiguration}
		}
	}

	c, r, p := values[0], values[1], values[2]
	if !(p >= 0 && p <= 1) {
		return 0, &ParameterError{Name: ParamPFlip, Detail: fmt.Sprintf("probability %v outside [0, 1]", p), Err: ErrInvalidConfiguration}
	}

	sigma := 2 * math.Pi * c * r

	return 1 - p + p*math.Exp(-sigma*sigma/2), nil
}

// DecayAt returns the predicted coherence after n entangling attempts.
func (f *Faraday) DecayAt(n float64) (float64, error) {
	base, err := f.perAttempt()
	if err != nil {
		return 0, err
	}
	return math.Pow(base, n), nil
}

// DecayFormula returns the predicted coherence after 1..entangling_attempts attempts.
func (f *Faraday) DecayFormula() ([]float64, error) {
	base, err := f.perAttempt()
	if err != nil {
		return nil, err
	}

	attempts, err := f.store.Int(ParamEntanglingAttempts)
	if err != nil {
		return nil, err
	}

	if attempts <= 0 {
		return nil, &ParameterError{Name: ParamEntanglingAttempts, Detail: "must be positive", Err: ErrInvalidConfiguration}
	}

	decay := make([]float64, attempts)
	for k := range decay {
		decay[k] = math.Pow(base, float64(k+1))
	}

	return decay, nil
}

/*
FaradayDecayConstant solves DecayAt(N) = 1/e for N, the number of attempts
after which the nuclear spin has dephased. It is +Inf when an attempt does not
dephase the spin at all.
*/
func (f *Faraday) FaradayDecayConstant() (float64, error) {
	base, err := f.perAttempt()
	if err != nil {
		return 0, err
	}

	if base >= 1 {
		return math.Inf(1), nil
	}

	return -1 / math.Log(base), nil
}

// CarbonFidelity converts the predicted coherence into state fidelity.
func (f *Faraday) CarbonFidelity(ctx context.Context) (FidelityCurve, error) {
	decay, err := f.DecayFormula()
	if err != nil {
		return nil, err
	}

	curve := make(FidelityCurve, len(decay))
	for k, c := range decay {
		curve[k] = c/2 + 0.5
	}

	errnie.Info("Faraday.CarbonFidelity - attempts %d", len(curve))
	return curve, nil
}
