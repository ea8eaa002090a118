package payment

import (
	"context"

	"bookingpay/internal/domain"
)

// paymentRepo is the ledger-store surface for payments. Create must reject
// a second payment for the same booking with a unique violation;
// CommitResult must only touch rows still in PENDING.
type paymentRepo interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error)
	GetByBookingToken(ctx context.Context, token string) (*domain.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Payment, error)
	ListByStatus(ctx context.Context, status domain.PaymentStatus) ([]*domain.Payment, error)
	ListAll(ctx context.Context) ([]*domain.Payment, error)
	CommitResult(ctx context.Context, id string, status domain.PaymentStatus, reference string, response map[string]string) (bool, error)
}

type bookingRepo interface {
	GetByToken(ctx context.Context, token string) (*domain.Booking, error)
	UpdateStatusIfCurrent(ctx context.Context, id string, from, to domain.BookingStatus) (bool, error)
}

// Notifier receives payment transitions for the operator event feed.
// Delivery is best effort.
type Notifier interface {
	PaymentUpdated(p *domain.Payment)
}
