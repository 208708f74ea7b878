package spindecay

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/theapemachine/errnie"
	"gonum.org/v1/gonum/floats"
)

// requiredParameters are the names the Monte Carlo engine reads on every run.
var requiredParameters = []string{
	ParamCoupling,
	ParamAverageRepumpTime,
	ParamRepumpTimeJitter,
	ParamRepumpTimeOffset,
	ParamPFlip,
	ParamMWInfidelity,
	ParamInitInfidelity,
	ParamLarmorPeriod,
	ParamLarmorOrder,
	ParamT,
	ParamEntanglingAttempts,
	ParamRepetitions,
}

// floatParameters are read as float64, in the order settings indexes them.
var floatParameters = []string{
	ParamCoupling,
	ParamAverageRepumpTime,
	ParamRepumpTimeJitter,
	ParamRepumpTimeOffset,
	ParamPFlip,
	ParamMWInfidelity,
	ParamInitInfidelity,
	ParamLarmorPeriod,
	ParamLarmorOrder,
	ParamT,
}

/*
MonteCarlo estimates the carbon spin fidelity by simulating every entangling
attempt of many independent repetitions. Each run draws fresh trials, classifies
the electron trajectories, converts them into nuclear phase, accumulates that
phase along the attempts and averages the resulting coherence over repetitions.

Repetitions are split into chunks of Config.ChunkSize columns that run on a
worker pool. Chunk i draws from its own random stream seeded with
(Config.Seed, i), so a run is a pure function of the parameters, the seed and
the chunk size.
*/
type MonteCarlo struct {
	Base
	config  *Config
	curve   FidelityCurve
	runID   string
	metrics map[string]interface{}
}

// Option configures a MonteCarlo engine.
type Option func(*MonteCarlo)

// WithConfig replaces the runtime configuration.
func WithConfig(config *Config) Option {
	return func(mc *MonteCarlo) {
		if config != nil {
			copied := *config
			mc.config = &copied
		}
	}
}

// WithSeed sets the seed of the random streams.
func WithSeed(seed uint64) Option {
	return func(mc *MonteCarlo) {
		mc.config.Seed = seed
	}
}

// WithWorkers sets the number of pool workers.
func WithWorkers(workers int) Option {
	return func(mc *MonteCarlo) {
		mc.config.Workers = workers
	}
}

// WithChunkSize sets the number of repetitions simulated per job.
func WithChunkSize(size int) Option {
	return func(mc *MonteCarlo) {
		mc.config.ChunkSize = size
	}
}

// NewMonteCarlo builds an engine from the default parameters and overrides.
func NewMonteCarlo(overrides map[string]any, opts ...Option) (*MonteCarlo, error) {
	return NewMonteCarloWithParameters(DefaultParameters(), overrides, opts...)
}

/*
NewMonteCarloWithParameters builds an engine from a caller supplied parameter
tree. Construction fails if a required parameter is missing or the
configuration is otherwise unusable.
*/
func NewMonteCarloWithParameters(params ParameterSet, overrides map[string]any, opts ...Option) (*MonteCarlo, error) {
	store, err := NewParameterStore(params, overrides)
	if err != nil {
		return nil, err
	}

	mc := &MonteCarlo{
		Base:   Base{store: store},
		config: NewConfig(),
	}

	for _, opt := range opts {
		opt(mc)
	}

	if err := mc.config.Validate(); err != nil {
		return nil, err
	}

	s, err := mc.settings()
	if err != nil {
		return nil, err
	}

	errnie.Info(
		"NewMonteCarlo - attempts %d, repetitions %d, seed %d, workers %d",
		s.attempts,
		s.repetitions,
		mc.config.Seed,
		mc.config.Workers,
	)

	return mc, nil
}

// runSettings is everything a run reads from the parameter store.
type runSettings struct {
	attempts    int
	repetitions int
	electron    ElectronErrors
	phase       PhaseModel
}

func (mc *MonteCarlo) settings() (runSettings, error) {
	for _, name := range requiredParameters {
		if !mc.store.Has(name) {
			return runSettings{}, &ParameterError{
				Name:   name,
				Detail: "required parameter missing",
				Err:    ErrInvalidConfiguration,
			}
		}
	}

	attempts, err := mc.store.Int(ParamEntanglingAttempts)
	if err != nil {
		return runSettings{}, err
	}
	repetitions, err := mc.store.Int(ParamRepetitions)
	if err != nil {
		return runSettings{}, err
	}

	for i, n := range []int{attempts, repetitions} {
		if n <= 0 {
			return runSettings{}, &ParameterError{
				Name:   []string{ParamEntanglingAttempts, ParamRepetitions}[i],
				Detail: fmt.Sprintf("must be a positive integer, got %d", n),
				Err:    ErrInvalidConfiguration,
			}
		}
	}

	values, err := mc.floats(floatParameters...)
	if err != nil {
		return runSettings{}, err
	}

	for i, name := range floatParameters {
		if v := values[i]; math.IsNaN(v) || math.IsInf(v, 0) {
			return runSettings{}, &ParameterError{
				Name:   name,
				Detail: fmt.Sprintf("%v is not a finite number", v),
				Err:    ErrInvalidConfiguration,
			}
		}
	}

	for i, name := range []string{ParamPFlip, ParamMWInfidelity, ParamInitInfidelity} {
		if p := values[4+i]; !(p >= 0 && p <= 1) {
			return runSettings{}, &ParameterError{
				Name:   name,
				Detail: fmt.Sprintf("probability %v outside [0, 1]", p),
				Err:    ErrInvalidConfiguration,
			}
		}
	}

	if values[1] < 0 {
		return runSettings{}, &ParameterError{
			Name:   ParamAverageRepumpTime,
			Detail: "must not be negative",
			Err:    ErrInvalidConfiguration,
		}
	}

	return runSettings{
		attempts:    attempts,
		repetitions: repetitions,
		electron: ElectronErrors{
			PFlip:          values[4],
			MWInfidelity:   values[5],
			InitInfidelity: values[6],
		},
		phase: PhaseModel{
			Coupling:          values[0],
			AverageRepumpTime: values[1],
			RepumpTimeJitter:  values[2],
			RepumpTimeOffset:  values[3],
			LarmorPeriod:      values[7],
			LarmorOrder:       values[8],
			T:                 values[9],
		},
	}, nil
}

// chunk is a contiguous range of repetitions simulated by one job.
type chunk struct {
	index   int
	columns int
}

func planChunks(repetitions, size int) []chunk {
	chunks := make([]chunk, 0, (repetitions+size-1)/size)
	for offset, i := 0, 0; offset < repetitions; offset, i = offset+size, i+1 {
		chunks = append(chunks, chunk{index: i, columns: min(size, repetitions-offset)})
	}
	return chunks
}

// simulateChunk runs the full pipeline for one chunk and returns its coherence sums.
func simulateChunk(s runSettings, seed uint64, c chunk) []float64 {
	rng, src := newStream(seed, c.index)

	trials := GenerateTrials(rng, s.attempts, c.columns)
	states := Classify(trials, s.electron)
	jitter := s.phase.StaticRepumpJitter(src, c.columns)
	phases := s.phase.Phases(states, trials, jitter)

	return CoherenceSums(phases)
}

/*
Run simulates the configured number of repetitions and returns the fidelity
curve. The curve is also kept for FindAttemptsFromFidelity. A failed run
leaves the previous curve untouched.
*/
func (mc *MonteCarlo) Run(ctx context.Context) (FidelityCurve, error) {
	s, err := mc.settings()
	if err != nil {
		return nil, err
	}

	cfg := *mc.config
	chunks := planChunks(s.repetitions, cfg.ChunkSize)
	runID := uuid.NewString()

	errnie.Info(
		"MonteCarlo.Run - run %s, %d attempts x %d repetitions in %d chunks",
		runID,
		s.attempts,
		s.repetitions,
		len(chunks),
	)

	pool := NewPool(ctx, min(cfg.Workers, len(chunks)), &cfg)
	defer pool.Close()

	results := make([]chan Result, len(chunks))
	for i, c := range chunks {
		c := c
		results[i] = pool.Schedule(ctx, fmt.Sprintf("%s/chunk-%d", runID, c.index), func() (any, error) {
			return simulateChunk(s, cfg.Seed, c), nil
		})
	}

	sums := make([]float64, s.attempts)

	for i, ch := range results {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res, ok := <-ch:
			if !ok {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				return nil, fmt.Errorf("chunk %d: result space closed", i)
			}
			if res.Error != nil {
				return nil, fmt.Errorf("chunk %d: %w", i, res.Error)
			}

			chunkSums, ok := res.Value.([]float64)
			if !ok || len(chunkSums) != len(sums) {
				return nil, fmt.Errorf("chunk %d: unexpected result %T", i, res.Value)
			}
			floats.Add(sums, chunkSums)
		}
	}

	curve := FidelityFromSums(sums, s.repetitions)

	mc.curve = curve
	mc.runID = runID
	mc.metrics = pool.Metrics().ExportMetrics()

	errnie.Info("MonteCarlo.Run - run %s done, final fidelity %v", runID, curve[len(curve)-1])

	return curve, nil
}

// CarbonFidelity implements Simulation.
func (mc *MonteCarlo) CarbonFidelity(ctx context.Context) (FidelityCurve, error) {
	return mc.Run(ctx)
}

/*
FindAttemptsFromFidelity returns the 0-based index of the last computed curve
whose fidelity is closest to target, with 0 < target < 1. Ties resolve to the
lowest index. Use Attempts to turn the index into an attempt count.
*/
func (mc *MonteCarlo) FindAttemptsFromFidelity(target float64) (int, error) {
	return mc.curve.Nearest(target)
}

// Curve returns a copy of the last computed fidelity curve, or nil.
func (mc *MonteCarlo) Curve() FidelityCurve {
	if mc.curve == nil {
		return nil
	}
	return append(FidelityCurve(nil), mc.curve...)
}

// Metrics returns the pool metrics of the last successful run.
func (mc *MonteCarlo) Metrics() map[string]interface{} {
	return mc.metrics
}

// RunID identifies the last successful run.
func (mc *MonteCarlo) RunID() string {
	return mc.runID
}

// Config returns a copy of the runtime configuration.
func (mc *MonteCarlo) Config() Config {
	return *mc.config
}
