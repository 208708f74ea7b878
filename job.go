package spindecay

import "time"

// Job is a unit of work run by the pool.
type Job struct {
	ID        string
	Fn        func() (any, error)
	StartTime time.Time
}

// Result is what a job leaves in the result space.
type Result struct {
	Value     any
	Error     error
	CreatedAt time.Time
}
