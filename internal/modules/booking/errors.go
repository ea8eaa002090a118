package booking

import "errors"

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("booking not found")
	ErrAccessDenied = errors.New("access denied")
	ErrCancelPaid   = errors.New("cannot cancel already paid booking")
)
