package spindecay

/*
Mask is a boolean matrix with the same shape as the trial matrices, stored row
major.
*/
type Mask struct {
	rows, cols int
	cells      []bool
}

func newMask(rows, cols int) Mask {
	return Mask{rows: rows, cols: cols, cells: make([]bool, rows*cols)}
}

// At reports whether the cell (attempt i, repetition j) is set.
func (m Mask) At(i, j int) bool {
	return m.cells[i*m.cols+j]
}

func (m Mask) set(i, j int, v bool) {
	m.cells[i*m.cols+j] = v
}

// Dims returns the shape of the mask.
func (m Mask) Dims() (rows, cols int) {
	return m.rows, m.cols
}

// Count returns the number of set cells.
func (m Mask) Count() int {
	n := 0
	for _, v := range m.cells {
		if v {
			n++
		}
	}
	return n
}

// ElectronErrors are the probabilities that drive the electron state machine.
type ElectronErrors struct {
	InitInfidelity float64 // electron fails to initialise into ms = 0
	MWInfidelity   float64 // microwave pi-pulse fails
	PFlip          float64 // spin projection threshold
}

/*
ElectronStates classifies every (attempt, repetition) cell by the trajectory
the electron spin took.

Init0, InitP1 and InitM1 partition the cells by initial state. MW0 and MWM1
mark cells where the microwave pulse failed and left the electron effectively
in ms = 0 or ms = -1; they never overlap. Repump marks cells that end with an
optical repump of random duration.
*/
type ElectronStates struct {
	Init0  Mask
	InitP1 Mask
	InitM1 Mask
	MW0    Mask
	MWM1   Mask
	Repump Mask
}

/*
Classify runs the electron state machine over the trials. Per cell:

	init0   = u_init <  1 - init_infidelity
	initP1  = u_init >= 1 - init_infidelity/2
	initM1  = !(init0 || initP1)
	flip    = u_proj > pflip
	canFail = u_mw > 1 - mw_infidelity && !initP1
	mwM1    = canFail && ((initM1 && !flip) || (flip && init0))
	mw0     = canFail && ((init0 && !flip) || (flip && initM1))
	repump  = mwM1 || (init0 && !flip) || initP1 || (initM1 && flip)
*/
func Classify(trials Trials, e ElectronErrors) ElectronStates {
	rows, cols := trials.Dims()

	states := ElectronStates{
		Init0:  newMask(rows, cols),
		InitP1: newMask(rows, cols),
		InitM1: newMask(rows, cols),
		MW0:    newMask(rows, cols),
		MWM1:   newMask(rows, cols),
		Repump: newMask(rows, cols),
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			uInit := trials.Init.At(i, j)

			init0 := uInit < 1-e.InitInfidelity
			initP1 := uInit >= 1-e.InitInfidelity/2
			initM1 := !(init0 || initP1)

			mwFailed := trials.MW.At(i, j) > 1-e.MWInfidelity
			flip := trials.Projection.At(i, j) > e.PFlip

			canFail := mwFailed && !initP1
			mwM1 := canFail && ((initM1 && !flip) || (flip && init0))
			mw0 := canFail && ((init0 && !flip) || (flip && initM1))

			states.Init0.set(i, j, init0)
			states.InitP1.set(i, j, initP1)
			states.InitM1.set(i, j, initM1)
			states.MW0.set(i, j, mw0)
			states.MWM1.set(i, j, mwM1)
			states.Repump.set(i, j, mwM1 || (init0 && !flip) || initP1 || (initM1 && flip))
		}
	}

	return states
}
