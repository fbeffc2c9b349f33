package airquality

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("invalid reading")
	// ErrMalformed is returned by DecodeReadings when the input is not a JSON
	// array of objects.
	ErrMalformed = errors.New("malformed readings")
)

// ValidationError reports a reading that cannot be aggregated.
// Index is the position of the reading in its input sequence.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("reading %d: field %s: %s", e.Index, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
