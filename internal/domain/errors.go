package domain

import "errors"

// Pipeline error kinds. Every failure is fatal to the current run; callers
// wrap these with %w and add the operation and remote identifier involved.
var (
	ErrAuth            = errors.New("auth failure")
	ErrFetch           = errors.New("fetch failure")
	ErrMalformedRecord = errors.New("malformed record")
	ErrConfiguration   = errors.New("configuration error")
	ErrDispatch        = errors.New("dispatch failure")
)
