package sph

import (
	"errors"
	"fmt"
)

var (
	// ErrAccumulatorConflict indicates two equations in one group claim the
	// same accumulator field of the same destination.
	ErrAccumulatorConflict = errors.New("sph: accumulator claimed twice in one group")

	// ErrUnknownSet indicates an equation names a set missing from the collection.
	ErrUnknownSet = errors.New("sph: unknown particle set")

	// ErrMixedGroup indicates a group holding both equations and sub-groups.
	ErrMixedGroup = errors.New("sph: group mixes equations and sub-groups")

	// ErrIterationBounds indicates an iterated group with invalid sweep limits.
	ErrIterationBounds = errors.New("sph: invalid iteration bounds")

	// ErrNoStage indicates an Evaluate call for a stage that was never compiled.
	ErrNoStage = errors.New("sph: no such stage")
)

// CompileError wraps a compile failure with the group and equation it
// was found in.
type CompileError struct {
	Group    string
	Equation string
	Wrapped  error
}

func (e *CompileError) Error() string {
	if e.Equation == "" {
		return fmt.Sprintf("group %q: %v", e.Group, e.Wrapped)
	}
	return fmt.Sprintf("group %q, equation %s: %v", e.Group, e.Equation, e.Wrapped)
}

func (e *CompileError) Unwrap() error {
	return e.Wrapped
}
