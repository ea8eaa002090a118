package payment

import "errors"

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrAccessDenied    = errors.New("access denied")
	ErrAlreadyPaid     = errors.New("booking is already paid")
	ErrBookingCanceled = errors.New("booking is canceled")
)
