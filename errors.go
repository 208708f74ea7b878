package spindecay

import (
	"errors"
	"strings"
)

var (
	// ErrUnknownParameter indicates a flat parameter name that is not in the index.
	ErrUnknownParameter = errors.New("spindecay: unknown parameter")

	// ErrDuplicateParameterName indicates two leaves in the parameter tree share a name.
	ErrDuplicateParameterName = errors.New("spindecay: duplicate parameter name")

	// ErrInvalidConfiguration indicates missing, non-numeric or out of range parameters.
	ErrInvalidConfiguration = errors.New("spindecay: invalid configuration")

	// ErrNoFidelityCurve indicates a query against a model that has not been run.
	ErrNoFidelityCurve = errors.New("spindecay: no fidelity curve computed")
)

/*
ParameterError wraps one of the sentinel errors with the parameter it concerns.
Path is the location inside the ParameterSet when one is known.
*/
type ParameterError struct {
	Name   string
	Path   []string
	Detail string
	Err    error
}

func (e *ParameterError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	b.WriteString(": ")
	b.WriteString(e.Name)

	if len(e.Path) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Path, "."))
		b.WriteString(")")
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	return b.String()
}

func (e *ParameterError) Unwrap() error {
	return e.Err
}
