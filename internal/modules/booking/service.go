package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"bookingpay/internal/domain"

	"gorm.io/gorm"
)

type Service struct {
	bookings BookingRepository
	loggerf  func(format string, args ...interface{})
}

func NewService(bookings BookingRepository, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{bookings: bookings, loggerf: loggerf}
}

func (s *Service) Create(ctx context.Context, userID string, req CreateBookingRequest) (*domain.Booking, error) {
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	countryCode := strings.ToUpper(strings.TrimSpace(req.CountryCode))
	if req.Amount <= 0 || len(currency) != 3 || countryCode == "" {
		return nil, ErrValidation
	}

	b := &domain.Booking{
		UserID:      userID,
		Status:      domain.BookingNew,
		Amount:      req.Amount,
		Currency:    currency,
		Description: strings.TrimSpace(req.Description),
		CountryCode: countryCode,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	s.loggerf("level=info msg=booking created booking_id=%s user_id=%s amount=%.2f currency=%s country=%s",
		b.ID, userID, b.Amount, b.Currency, b.CountryCode)
	return b, nil
}

// GetByToken resolves a booking by its public token, rejecting tokens that
// belong to a different user.
func (s *Service) GetByToken(ctx context.Context, userID, token string) (*domain.Booking, error) {
	b, err := s.bookings.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrAccessDenied
	}
	return b, nil
}

func (s *Service) ListUserBookings(ctx context.Context, userID string) ([]*domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// Cancel moves a NEW booking to CANCELED. Canceling an already-canceled
// booking is a no-op returning the same record; canceling a PAID booking
// is rejected.
func (s *Service) Cancel(ctx context.Context, userID, token string) (*domain.Booking, error) {
	b, err := s.GetByToken(ctx, userID, token)
	if err != nil {
		return nil, err
	}

	switch b.Status {
	case domain.BookingPaid:
		return nil, ErrCancelPaid
	case domain.BookingCanceled:
		return b, nil
	}

	changed, err := s.bookings.UpdateStatusIfCurrent(ctx, b.ID, domain.BookingNew, domain.BookingCanceled)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Lost a race against a payment success or another cancel;
		// re-read and apply the same terminal-state rules.
		fresh, err := s.bookings.GetByID(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		if fresh.Status == domain.BookingPaid {
			return nil, ErrCancelPaid
		}
		return fresh, nil
	}

	s.loggerf("level=info msg=booking canceled booking_id=%s user_id=%s", b.ID, userID)
	return s.bookings.GetByID(ctx, b.ID)
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*domain.Booking, error) {
	return s.bookings.ListAll(ctx)
}

// ListStale returns NEW bookings untouched for longer than the staleness
// window.
func (s *Service) ListStale(ctx context.Context, olderThan time.Duration) ([]*domain.Booking, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	return s.bookings.ListByStatusUpdatedBefore(ctx, domain.BookingNew, cutoff)
}

// Expire cancels a stale NEW booking. The guarded transition means a
// payment success racing the sweep wins and the booking stays PAID.
func (s *Service) Expire(ctx context.Context, id string) (bool, error) {
	return s.bookings.UpdateStatusIfCurrent(ctx, id, domain.BookingNew, domain.BookingCanceled)
}
