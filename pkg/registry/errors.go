package registry

import (
	"errors"
	"fmt"
)

// ErrEmptyIdentifier is returned by canonicalizers that cannot accept an empty string
var ErrEmptyIdentifier = errors.New("empty identifier")

// NormalizationError reports a raw identifier that could not be canonicalized
type NormalizationError struct {
	Raw string
	Err error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %q: %v", e.Raw, e.Err)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}
