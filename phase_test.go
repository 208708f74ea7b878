package spindecay

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPhaseModel(t *testing.T) {
	Convey("Given a phase model", t, func() {
		pm := PhaseModel{
			Coupling:          1e3,
			T:                 1e-3,
			LarmorPeriod:      2e-4,
			LarmorOrder:       2,
			AverageRepumpTime: 1e-4,
		}

		Convey("The decoupling interval should be period times order", func() {
			So(pm.DecouplingDuration(), ShouldAlmostEqual, 4e-4, 1e-18)
		})

		Convey("A repump of average length should add no phase", func() {
			So(pm.RepumpPhase(1-1/math.E), ShouldAlmostEqual, 0, 1e-12)
		})

		Convey("An instantaneous repump should subtract the average phase", func() {
			So(pm.RepumpPhase(0), ShouldAlmostEqual, -pm.Coupling*pm.AverageRepumpTime, 1e-12)
		})

		Convey("The repump phase should grow with the draw", func() {
			previous := pm.RepumpPhase(0)
			for u := 0.05; u < 1; u += 0.05 {
				phase := pm.RepumpPhase(u)
				So(phase, ShouldBeGreaterThan, previous)
				previous = phase
			}
		})

		Convey("Without an average repump time there is no repump phase", func() {
			pm.AverageRepumpTime = 0
			So(pm.RepumpPhase(0.7), ShouldEqual, 0)
		})
	})

	Convey("Given a static repump jitter", t, func() {
		pm := PhaseModel{RepumpTimeOffset: 50e-9}

		Convey("A non-positive jitter should yield the offset exactly", func() {
			for _, width := range []float64{0, -1e-9} {
				pm.RepumpTimeJitter = width
				_, src := newStream(1, 0)
				for _, v := range pm.StaticRepumpJitter(src, 100) {
					So(v, ShouldEqual, 50e-9)
				}
			}
		})

		Convey("A positive jitter should yield reproducible non-negative offsets", func() {
			pm.RepumpTimeJitter = 100e-9

			_, a := newStream(9, 2)
			_, b := newStream(9, 2)
			first := pm.StaticRepumpJitter(a, 500)
			second := pm.StaticRepumpJitter(b, 500)

			So(first, ShouldResemble, second)

			distinct := map[float64]struct{}{}
			for _, v := range first {
				So(v, ShouldBeGreaterThanOrEqualTo, 0)
				distinct[v] = struct{}{}
			}
			So(len(distinct), ShouldBeGreaterThan, 1)
		})
	})

	Convey("Given single-cell electron trajectories", t, func() {
		pm := PhaseModel{
			Coupling:          1e3,
			T:                 1e-3,
			LarmorPeriod:      2e-4,
			LarmorOrder:       2,
			AverageRepumpTime: 1e-4,
			RepumpTimeOffset:  1e-5,
		}

		trials := rowTrials([]float64{0}, []float64{0}, []float64{0}, []float64{0})
		jitter := []float64{pm.RepumpTimeOffset}

		trajectory := func(set func(s ElectronStates)) float64 {
			states := ElectronStates{
				Init0:  newMask(1, 1),
				InitP1: newMask(1, 1),
				InitM1: newMask(1, 1),
				MW0:    newMask(1, 1),
				MWM1:   newMask(1, 1),
				Repump: newMask(1, 1),
			}
			set(states)
			return pm.Phases(states, trials, jitter).At(0, 0)
		}

		Convey("ms=0 without repump should leave the nuclear spin alone", func() {
			So(trajectory(func(s ElectronStates) { s.Init0.set(0, 0, true) }), ShouldEqual, 0)
		})

		Convey("ms=-1 should wind back by coupling*T", func() {
			phase := trajectory(func(s ElectronStates) { s.InitM1.set(0, 0, true) })
			So(phase, ShouldAlmostEqual, -2*math.Pi, 1e-12)
		})

		Convey("ms=+1 should add coupling*T plus three decoupling intervals", func() {
			phase := trajectory(func(s ElectronStates) {
				s.InitP1.set(0, 0, true)
				s.Repump.set(0, 0, true)
			})

			// repump draw 0 is an instantaneous repump: -(-c*avg + c*offset)
			want := 2 * math.Pi * (1 + 3*0.4 - (-0.1 + 0.01))
			So(phase, ShouldAlmostEqual, want, 1e-12)
		})

		Convey("Failed pulses should contribute opposite decoupling phases", func() {
			mw0 := trajectory(func(s ElectronStates) { s.MW0.set(0, 0, true) })
			mwM1 := trajectory(func(s ElectronStates) { s.MWM1.set(0, 0, true) })

			So(mw0, ShouldAlmostEqual, -2*math.Pi*0.4, 1e-12)
			So(mwM1, ShouldAlmostEqual, -mw0, 1e-12)
		})
	})
}
