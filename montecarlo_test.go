package spindecay

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/floats"
)

// smallRun overrides the defaults with a problem size that runs in milliseconds.
func smallRun(extra map[string]any) map[string]any {
	overrides := map[string]any{
		ParamEntanglingAttempts: 50,
		ParamRepetitions:        300,
	}
	for name, value := range extra {
		overrides[name] = value
	}
	return overrides
}

// rms is the root mean square difference of two curves of equal length.
func rms(a, b []float64) float64 {
	return floats.Distance(a, b, 2) / math.Sqrt(float64(len(a)))
}

func TestMonteCarlo(t *testing.T) {
	Convey("Given a small Monte Carlo engine", t, func() {
		mc, err := NewMonteCarlo(smallRun(nil), WithChunkSize(64), WithSeed(7))
		So(err, ShouldBeNil)

		var _ Simulation = mc

		Convey("It should not have a curve before running", func() {
			So(mc.Curve(), ShouldBeNil)

			_, err := mc.FindAttemptsFromFidelity(0.7)
			So(errors.Is(err, ErrNoFidelityCurve), ShouldBeTrue)
		})

		Convey("When it runs", func() {
			curve, err := mc.CarbonFidelity(context.Background())
			So(err, ShouldBeNil)

			Convey("There should be one fidelity per attempt, inside [0, 1]", func() {
				So(len(curve), ShouldEqual, 50)
				for _, f := range curve {
					So(f, ShouldBeBetweenOrEqual, 0, 1)
				}
			})

			Convey("The run should be recorded", func() {
				So(mc.RunID(), ShouldNotBeBlank)
				So(mc.Curve(), ShouldResemble, curve)
				So(mc.Metrics()["job_count"], ShouldEqual, int64(5))
				So(mc.Metrics()["failed_jobs"], ShouldEqual, int64(0))
			})

			Convey("The nearest attempt should be searchable", func() {
				target := curve[len(curve)/2]
				i, err := mc.FindAttemptsFromFidelity(target)
				So(err, ShouldBeNil)
				So(curve[i], ShouldEqual, target)

				for j := 0; j < i; j++ {
					So(curve[j], ShouldNotEqual, target)
				}
			})

			Convey("Running again with the same seed should reproduce the curve", func() {
				firstID := mc.RunID()

				again, err := mc.Run(context.Background())
				So(err, ShouldBeNil)
				So(again, ShouldResemble, curve)
				So(mc.RunID(), ShouldNotEqual, firstID)
			})

			Convey("A failed run should keep the previous curve", func() {
				So(mc.SetParam(ParamRepetitions, 0), ShouldBeNil)

				_, err := mc.Run(context.Background())
				So(errors.Is(err, ErrInvalidConfiguration), ShouldBeTrue)
				So(mc.Curve(), ShouldResemble, curve)
			})
		})
	})

	Convey("Given engines that differ only in worker count", t, func() {
		single, err := NewMonteCarlo(smallRun(nil), WithChunkSize(32), WithWorkers(1))
		So(err, ShouldBeNil)
		many, err := NewMonteCarlo(smallRun(nil), WithChunkSize(32), WithWorkers(6))
		So(err, ShouldBeNil)

		Convey("They should produce identical curves", func() {
			a, err := single.Run(context.Background())
			So(err, ShouldBeNil)
			b, err := many.Run(context.Background())
			So(err, ShouldBeNil)

			So(a, ShouldResemble, b)
		})
	})

	Convey("Given engines that differ only in seed", t, func() {
		a, _ := NewMonteCarlo(smallRun(nil), WithSeed(1))
		b, _ := NewMonteCarlo(smallRun(nil), WithSeed(2))

		Convey("Their curves should differ", func() {
			ca, err := a.Run(context.Background())
			So(err, ShouldBeNil)
			cb, err := b.Run(context.Background())
			So(err, ShouldBeNil)

			So(ca, ShouldNotResemble, cb)
		})
	})

	Convey("Given perfect electron control and no bright state", t, func() {
		mc, err := NewMonteCarlo(smallRun(map[string]any{
			ParamPFlip:          0.0,
			ParamMWInfidelity:   0.0,
			ParamInitInfidelity: 0.0,
		}))
		So(err, ShouldBeNil)

		Convey("The nuclear spin should keep full fidelity", func() {
			curve, err := mc.Run(context.Background())
			So(err, ShouldBeNil)
			for _, f := range curve {
				So(f, ShouldEqual, 1)
			}
		})
	})

	Convey("Given an unusable configuration", t, func() {
		Convey("Non-positive sizes should be rejected", func() {
			for _, name := range []string{ParamEntanglingAttempts, ParamRepetitions} {
				_, err := NewMonteCarlo(smallRun(map[string]any{name: 0}))
				So(errors.Is(err, ErrInvalidConfiguration), ShouldBeTrue)
			}
		})

		Convey("Fractional sizes should be rejected", func() {
			_, err := NewMonteCarlo(smallRun(map[string]any{ParamRepetitions: 10.5}))
			So(errors.Is(err, ErrInvalidConfiguration), ShouldBeTrue)
		})

		Convey("Probabilities outside [0, 1] should be rejected", func() {
			_, err := NewMonteCarlo(smallRun(map[string]any{ParamPFlip: 1.5}))
			So(errors.Is(err, ErrInvalidConfiguration), ShouldBeTrue)
		})

		Convey("Non-finite values should be rejected", func() {
			for _, name := range floatParameters {
				for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
					mc, err := NewMonteCarlo(smallRun(map[string]any{name: bad}))
					So(mc, ShouldBeNil)
					So(errors.Is(err, ErrInvalidConfiguration), ShouldBeTrue)

					var perr *ParameterError
					So(errors.As(err, &perr), ShouldBeTrue)
					So(perr.Name, ShouldEqual, name)
				}
			}
		})

		Convey("A non-finite value set after construction should fail the run", func() {
			mc, err := NewMonteCarlo(smallRun(nil))
			So(err, ShouldBeNil)
			So(mc.SetParam(ParamCoupling, math.NaN()), ShouldBeNil)

			curve, err := mc.Run(context.Background())
			So(curve, ShouldBeNil)
			So(errors.Is(err, ErrInvalidConfiguration), ShouldBeTrue)
		})

		Convey("Unknown overrides should be rejected", func() {
			_, err := NewMonteCarlo(smallRun(map[string]any{"b_field": 414.0}))
			So(errors.Is(err, ErrUnknownParameter), ShouldBeTrue)
		})

		Convey("A missing parameter should be rejected", func() {
			params := DefaultParameters()
			delete(params["simulation_params"].(ParameterSet), ParamT)

			_, err := NewMonteCarloWithParameters(params, smallRun(nil))
			So(errors.Is(err, ErrInvalidConfiguration), ShouldBeTrue)

			var perr *ParameterError
			So(errors.As(err, &perr), ShouldBeTrue)
			So(perr.Name, ShouldEqual, ParamT)
		})

		Convey("A zero worker count should be rejected", func() {
			_, err := NewMonteCarlo(smallRun(nil), WithWorkers(0))
			So(errors.Is(err, ErrInvalidConfiguration), ShouldBeTrue)
		})
	})

	Convey("Given a cancelled context", t, func() {
		mc, err := NewMonteCarlo(smallRun(nil))
		So(err, ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("Run should stop with the cancellation", func() {
			_, err := mc.Run(ctx)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(mc.Curve(), ShouldBeNil)
		})
	})

	Convey("Given a long run that is cancelled midway", t, func() {
		mc, err := NewMonteCarlo(map[string]any{
			ParamEntanglingAttempts: 2000,
			ParamRepetitions:        200000,
		}, WithWorkers(2))
		So(err, ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(20*time.Millisecond, cancel)

		Convey("Run should return promptly with the cancellation", func() {
			_, err := mc.Run(ctx)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestMonteCarloAgainstAnalytic(t *testing.T) {
	if testing.Short() {
		t.Skip("long Monte Carlo run")
	}

	// Only the bright state dephases the spin, as in the analytic model.
	overrides := map[string]any{
		ParamEntanglingAttempts: 450,
		ParamRepetitions:        20000,
		ParamMWInfidelity:       0.0,
		ParamInitInfidelity:     0.0,
		ParamRepumpTimeJitter:   0.0,
		ParamRepumpTimeOffset:   0.0,
	}

	mc, err := NewMonteCarlo(overrides, WithSeed(2015))
	if err != nil {
		t.Fatal(err)
	}
	curve, err := mc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	analytic, err := NewFaraday(overrides)
	if err != nil {
		t.Fatal(err)
	}
	predicted, err := analytic.CarbonFidelity(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	n1e, err := analytic.FaradayDecayConstant()
	if err != nil {
		t.Fatal(err)
	}

	overrides[ParamRepetitions] = 10
	few, err := NewMonteCarlo(overrides, WithSeed(2015))
	if err != nil {
		t.Fatal(err)
	}
	noisy, err := few.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	Convey("Given the Monte Carlo and analytic decay for the same spin", t, func() {
		Convey("The 1/e attempt counts should agree within 5%", func() {
			i, err := mc.FindAttemptsFromFidelity(CoherenceTarget(1 / math.E))
			So(err, ShouldBeNil)
			So(n1e, ShouldAlmostEqual, 327.6, 0.5)
			So(float64(Attempts(i)), ShouldAlmostEqual, n1e, 0.05*n1e)
		})

		Convey("More repetitions should bring the curve closer to the prediction", func() {
			near := rms(curve, predicted)
			far := rms(noisy, predicted)

			So(near, ShouldBeLessThan, far)
			So(near, ShouldBeLessThan, 0.02)
		})
	})
}

func BenchmarkSimulateChunk(b *testing.B) {
	mc, err := NewMonteCarlo(map[string]any{ParamEntanglingAttempts: 500})
	if err != nil {
		b.Fatal(err)
	}
	s, err := mc.settings()
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		simulateChunk(s, 1, chunk{index: i, columns: 256})
	}
}
