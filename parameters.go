package spindecay

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

/*
ParameterSet is the nested configuration of physical parameters. Top level keys
are categories ("nv_params", "carbon_params", ...) whose values are again
ParameterSets; any value that is not a ParameterSet is a leaf parameter.
Leaf names have to be unique across the whole tree, because they are addressed
by their flat name only.
*/
type ParameterSet map[string]any

// ParameterIndex maps a flat parameter name to its path inside a ParameterSet.
type ParameterIndex map[string][]string

/*
BuildIndex walks the tree and records the full path of every leaf under its
leaf key. Keys are visited in sorted order, so a duplicate name is always
reported with the same pair of paths for the same tree.
*/
func BuildIndex(set ParameterSet) (ParameterIndex, error) {
	index := make(ParameterIndex)

	var walk func(node ParameterSet, path []string) error
	walk = func(node ParameterSet, path []string) error {
		for _, key := range sortedKeys(node) {
			route := append(append([]string{}, path...), key)

			if child, ok := asSet(node[key]); ok {
				if err := walk(child, route); err != nil {
					return err
				}
				continue
			}

			if previous, exists := index[key]; exists {
				return &ParameterError{
					Name:   key,
					Path:   route,
					Detail: "already defined at " + strings.Join(previous, "."),
					Err:    ErrDuplicateParameterName,
				}
			}

			index[key] = route
		}

		return nil
	}

	if err := walk(set, nil); err != nil {
		return nil, err
	}

	return index, nil
}

/*
ParameterStore gives flat-name access to a nested ParameterSet. The index is
computed once at construction and never changes afterwards; Set only replaces
leaf values.

A store is not safe for concurrent mutation. Set must not be called while a
simulation run is reading the same store; callers finish all writes before
starting a run.
*/
type ParameterStore struct {
	params ParameterSet
	index  ParameterIndex
}

/*
NewParameterStore deep-copies defaults, indexes the copy and applies overrides
through Set, in sorted name order.
*/
func NewParameterStore(defaults ParameterSet, overrides map[string]any) (*ParameterStore, error) {
	params := defaults.Clone()

	index, err := BuildIndex(params)
	if err != nil {
		return nil, err
	}

	store := &ParameterStore{
		params: params,
		index:  index,
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := store.Set(name, overrides[name]); err != nil {
			return nil, err
		}
	}

	return store, nil
}

// Get returns the value stored under the flat parameter name.
func (ps *ParameterStore) Get(name string) (any, error) {
	route, ok := ps.index[name]
	if !ok {
		return nil, &ParameterError{Name: name, Err: ErrUnknownParameter}
	}

	node := ps.params
	for _, key := range route[:len(route)-1] {
		node, _ = asSet(node[key])
	}

	return node[route[len(route)-1]], nil
}

// Set overwrites the leaf value stored under the flat parameter name.
func (ps *ParameterStore) Set(name string, value any) error {
	route, ok := ps.index[name]
	if !ok {
		return &ParameterError{Name: name, Err: ErrUnknownParameter}
	}

	if _, nested := asSet(value); nested {
		return &ParameterError{
			Name:   name,
			Path:   route,
			Detail: "cannot replace a leaf with a nested set",
			Err:    ErrInvalidConfiguration,
		}
	}

	node := ps.params
	for _, key := range route[:len(route)-1] {
		node, _ = asSet(node[key])
	}

	node[route[len(route)-1]] = value
	return nil
}

// Float returns a numeric parameter as float64.
func (ps *ParameterStore) Float(name string) (float64, error) {
	value, err := ps.Get(name)
	if err != nil {
		return 0, err
	}

	f, ok := toFloat(value)
	if !ok {
		return 0, &ParameterError{
			Name:   name,
			Path:   ps.index[name],
			Detail: fmt.Sprintf("%v (%T) is not numeric", value, value),
			Err:    ErrInvalidConfiguration,
		}
	}

	return f, nil
}

// Int returns a numeric parameter as int. Fractional and out of range values are rejected.
func (ps *ParameterStore) Int(name string) (int, error) {
	f, err := ps.Float(name)
	if err != nil {
		return 0, err
	}

	if f != math.Trunc(f) || f < math.MinInt || f >= math.MaxInt {
		return 0, &ParameterError{
			Name:   name,
			Path:   ps.index[name],
			Detail: fmt.Sprintf("%v is not an integer", f),
			Err:    ErrInvalidConfiguration,
		}
	}

	return int(f), nil
}

// Has reports whether name is indexed.
func (ps *ParameterStore) Has(name string) bool {
	_, ok := ps.index[name]
	return ok
}

// Names lists every indexed parameter name in sorted order.
func (ps *ParameterStore) Names() []string {
	names := make([]string, 0, len(ps.index))
	for name := range ps.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Path returns a copy of the location of name inside the ParameterSet.
func (ps *ParameterStore) Path(name string) ([]string, error) {
	route, ok := ps.index[name]
	if !ok {
		return nil, &ParameterError{Name: name, Err: ErrUnknownParameter}
	}
	return append([]string{}, route...), nil
}

// Snapshot returns the current flat name to value mapping.
func (ps *ParameterStore) Snapshot() map[string]any {
	out := make(map[string]any, len(ps.index))
	for _, name := range ps.Names() {
		out[name], _ = ps.Get(name)
	}
	return out
}

// Params returns a deep copy of the nested parameter tree.
func (ps *ParameterStore) Params() ParameterSet {
	return ps.params.Clone()
}

// Clone returns a deep copy of the set. Leaves are copied by value.
func (set ParameterSet) Clone() ParameterSet {
	out := make(ParameterSet, len(set))
	for key, value := range set {
		if child, ok := asSet(value); ok {
			out[key] = child.Clone()
			continue
		}
		out[key] = value
	}
	return out
}

func asSet(value any) (ParameterSet, bool) {
	switch v := value.(type) {
	case ParameterSet:
		return v, true
	case map[string]any:
		return ParameterSet(v), true
	}
	return nil, false
}

func sortedKeys(set ParameterSet) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	}
	return 0, false
}
