package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrMalformedInput = errors.New("malformed input")
	ErrMissingColumn  = errors.New("missing column")
	ErrInvalidQuery   = errors.New("invalid query")
	ErrNoSnapshot     = errors.New("dataset not loaded")
)
