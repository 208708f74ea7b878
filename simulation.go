package spindecay

import "context"

/*
Simulation is implemented by every model that can produce a carbon spin
fidelity curve, whether analytic or stochastic. Callers depend on this
capability only.
*/
type Simulation interface {
	CarbonFidelity(ctx context.Context) (FidelityCurve, error)
}

/*
Base owns the ParameterStore of a model and forwards parameter access to it.
It is embedded by Faraday and MonteCarlo.
*/
type Base struct {
	store *ParameterStore
}

func newBase(overrides map[string]any) (Base, error) {
	store, err := NewParameterStore(DefaultParameters(), overrides)
	if err != nil {
		return Base{}, err
	}
	return Base{store: store}, nil
}

// GetParam returns the value of a flat parameter name.
func (b *Base) GetParam(name string) (any, error) {
	return b.store.Get(name)
}

// SetParam replaces the value of a flat parameter name.
func (b *Base) SetParam(name string, value any) error {
	return b.store.Set(name, value)
}

// Params exposes the underlying store, e.g. for snapshots.
func (b *Base) Params() *ParameterStore {
	return b.store
}

// floats reads several numeric parameters at once, failing on the first error.
func (b *Base) floats(names ...string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		f, err := b.store.Float(name)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}
