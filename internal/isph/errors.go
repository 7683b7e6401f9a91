package isph

import (
	"errors"
	"fmt"
)

// Setup errors. All of them are reported before the first timestep.
var (
	// ErrNoFluids indicates a scheme without fluid sets.
	ErrNoFluids = errors.New("isph: at least one fluid set is required")

	// ErrMissingPref indicates GTVF was requested without a reference pressure.
	ErrMissingPref = errors.New("isph: gtvf requires a positive pref")

	// ErrInvalidOption indicates an option outside its valid range.
	ErrInvalidOption = errors.New("isph: invalid option")

	// ErrUnknownVariant indicates a variant other than CR, DF, DI or DFDI.
	ErrUnknownVariant = errors.New("isph: unknown variant")

	// ErrUnknownSet indicates a named set missing from the particle collection.
	ErrUnknownSet = errors.New("isph: unknown particle set")
)

// SetupError wraps a setup failure with the option that caused it.
type SetupError struct {
	Option  string
	Value   any
	Wrapped error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("option %s=%v: %v", e.Option, e.Value, e.Wrapped)
}

func (e *SetupError) Unwrap() error {
	return e.Wrapped
}
