package provider

import (
	"context"

	"bookingpay/internal/domain"
)

// Outcome is what a charge attempt produced on the provider side. The
// response payload is opaque to the coordinator and stored verbatim for
// audit.
type Outcome struct {
	Status    domain.PaymentStatus
	Reference string
	Response  map[string]string
}

// Gateway executes charges against an external settlement provider.
// Charge is the initial attempt; CheckStatus is an independent poll of the
// same payment and is not guaranteed to agree with the original outcome.
type Gateway interface {
	Charge(ctx context.Context, p *domain.Payment) (*Outcome, error)
	CheckStatus(ctx context.Context, p *domain.Payment) (domain.PaymentStatus, error)
}
