package spindecay

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

/*
RunRecord is the exportable outcome of one Monte Carlo run next to the analytic
prediction for the same parameters. It is written with msgpack so plotting
tools can pick it up without linking this package.
*/
type RunRecord struct {
	RunID      string             `msgpack:"run_id"`
	Seed       uint64             `msgpack:"seed"`
	ChunkSize  int                `msgpack:"chunk_size"`
	Parameters map[string]float64 `msgpack:"parameters"`
	MonteCarlo []float64          `msgpack:"monte_carlo"`
	Analytic   []float64          `msgpack:"analytic"`

	// Attempt counts at which coherence falls to 1/e.
	MonteCarloN1e int     `msgpack:"monte_carlo_n1e"`
	AnalyticN1e   float64 `msgpack:"analytic_n1e"`
}

/*
NewRunRecord collects the last run of mc and the analytic prediction of
analytic into a record. mc must have completed a run.
*/
func NewRunRecord(mc *MonteCarlo, analytic *Faraday) (*RunRecord, error) {
	curve := mc.Curve()
	if curve == nil {
		return nil, ErrNoFidelityCurve
	}

	index, err := curve.Nearest(CoherenceTarget(1 / math.E))
	if err != nil {
		return nil, err
	}

	record := &RunRecord{
		RunID:         mc.RunID(),
		Seed:          mc.config.Seed,
		ChunkSize:     mc.config.ChunkSize,
		Parameters:    make(map[string]float64),
		MonteCarlo:    curve,
		MonteCarloN1e: Attempts(index),
	}

	for name, value := range mc.Params().Snapshot() {
		if f, ok := toFloat(value); ok {
			record.Parameters[name] = f
		}
	}

	if analytic != nil {
		predicted, err := analytic.CarbonFidelity(context.Background())
		if err != nil {
			return nil, err
		}
		if record.AnalyticN1e, err = analytic.FaradayDecayConstant(); err != nil {
			return nil, err
		}
		record.Analytic = predicted
	}

	return record, nil
}

// Encode writes the record as msgpack.
func (r *RunRecord) Encode(w io.Writer) error {
	if err := msgpack.NewEncoder(w).Encode(r); err != nil {
		return fmt.Errorf("encode run record %s: %w", r.RunID, err)
	}
	return nil
}

// DecodeRunRecord reads a record written by Encode.
func DecodeRunRecord(r io.Reader) (*RunRecord, error) {
	var record RunRecord
	if err := msgpack.NewDecoder(r).Decode(&record); err != nil {
		return nil, fmt.Errorf("decode run record: %w", err)
	}
	return &record, nil
}
