package spineml

import "errors"

// Errors returned while resolving descriptor references.
var (
	ErrMissingReference = errors.New("missing reference")
	ErrMissingElement   = errors.New("missing element")
)
