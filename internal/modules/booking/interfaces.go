package booking

import (
	"context"
	"time"

	"bookingpay/internal/domain"
)

// BookingRepository is the ledger-store surface the booking service needs.
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByToken(ctx context.Context, token string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error)
	ListAll(ctx context.Context) ([]*domain.Booking, error)
	ListByStatusUpdatedBefore(ctx context.Context, status domain.BookingStatus, cutoff time.Time) ([]*domain.Booking, error)
	UpdateStatusIfCurrent(ctx context.Context, id string, from, to domain.BookingStatus) (bool, error)
}
