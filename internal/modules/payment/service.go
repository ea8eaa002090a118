package payment

import (
	"context"
	"errors"

	"bookingpay/internal/domain"
	"bookingpay/internal/modules/provider"
	"bookingpay/internal/repository"

	"gorm.io/gorm"
)

// Service owns the booking-payment lifecycle: it is the only component
// that creates or mutates payments, and it flips a booking to PAID only as
// a side effect of a payment reaching SUCCESS.
type Service struct {
	payments paymentRepo
	bookings bookingRepo
	gateway  provider.Gateway
	notifier Notifier
	loggerf  func(format string, args ...interface{})
}

func NewService(payments paymentRepo, bookings bookingRepo, gateway provider.Gateway, notifier Notifier, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		payments: payments,
		bookings: bookings,
		gateway:  gateway,
		notifier: notifier,
		loggerf:  loggerf,
	}
}

// Pay charges the booking behind the token. The call is idempotent per
// booking: if a payment already exists it is returned unchanged and the
// provider is not invoked again. Otherwise the payment row is committed in
// PENDING first, the provider is called outside any storage transaction,
// and the outcome lands in a second, guarded update.
func (s *Service) Pay(ctx context.Context, userID, token string, req PayRequest) (*domain.Payment, error) {
	b, err := s.bookings.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrAccessDenied
	}

	// Idempotency first: an existing payment is returned as-is even when
	// the booking has since settled, so repeated calls always observe the
	// one charge attempt this booking ever gets.
	if existing, err := s.payments.GetByBookingToken(ctx, token); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	switch b.Status {
	case domain.BookingPaid:
		return nil, ErrAlreadyPaid
	case domain.BookingCanceled:
		return nil, ErrBookingCanceled
	}

	p := &domain.Payment{
		BookingID:    b.ID,
		BookingToken: b.Token,
		UserID:       userID,
		Amount:       b.Amount,
		Currency:     b.Currency,
		CardNumber:   maskCardNumber(req.CardNumber),
		CardHolder:   req.CardHolder,
		CardExpiry:   req.CardExpiry,
		Provider:     domain.ProviderForCountry(b.CountryCode),
		Status:       domain.PaymentPending,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		if repository.IsDuplicatePayment(err) {
			// A concurrent caller won the create; hand back its
			// payment so only one charge reaches the provider.
			return s.payments.GetByBookingID(ctx, b.ID)
		}
		return nil, err
	}

	s.loggerf("level=info msg=payment created payment_id=%s booking_id=%s provider=%s amount=%.2f %s",
		p.ID, b.ID, p.Provider, p.Amount, p.Currency)

	outcome, err := s.gateway.Charge(ctx, p)
	if err != nil {
		// Provider unreachable is an ambiguous outcome: the payment
		// stays PENDING and reconciliation settles it later.
		s.loggerf("level=error msg=provider charge failed payment_id=%s provider=%s err=%v", p.ID, p.Provider, err)
		return p, nil
	}

	if err := s.commitOutcome(ctx, p, outcome.Status, outcome.Reference, outcome.Response); err != nil {
		return nil, err
	}
	return s.payments.GetByID(ctx, p.ID)
}

// Recheck polls the provider for a fresh read of a PENDING payment and
// commits the result if it changed. Settled payments are never touched.
func (s *Service) Recheck(ctx context.Context, paymentID string) error {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}
	if p.Status != domain.PaymentPending {
		return nil
	}

	status, err := s.gateway.CheckStatus(ctx, p)
	if err != nil {
		return err
	}
	if status == domain.PaymentPending {
		return nil
	}

	return s.commitOutcome(ctx, p, status, "", nil)
}

// commitOutcome writes the provider result onto the payment and, on
// SUCCESS, flips the owning booking to PAID. Both writes are guarded so a
// concurrent settle or cancel cannot be overwritten.
func (s *Service) commitOutcome(ctx context.Context, p *domain.Payment, status domain.PaymentStatus, reference string, response map[string]string) error {
	if status == domain.PaymentPending {
		return nil
	}

	changed, err := s.payments.CommitResult(ctx, p.ID, status, reference, response)
	if err != nil {
		return err
	}
	if !changed {
		s.loggerf("level=info msg=payment already settled, skipping commit payment_id=%s status=%s", p.ID, status)
		return nil
	}

	s.loggerf("level=info msg=payment settled payment_id=%s booking_id=%s status=%s reference=%s",
		p.ID, p.BookingID, status, reference)

	if status == domain.PaymentSuccess {
		if _, err := s.bookings.UpdateStatusIfCurrent(ctx, p.BookingID, domain.BookingNew, domain.BookingPaid); err != nil {
			return err
		}
	}

	if s.notifier != nil {
		if fresh, err := s.payments.GetByID(ctx, p.ID); err == nil {
			s.notifier.PaymentUpdated(fresh)
		}
	}
	return nil
}

// GetByBookingToken returns the payment attached to the user's booking.
func (s *Service) GetByBookingToken(ctx context.Context, userID, token string) (*domain.Payment, error) {
	p, err := s.payments.GetByBookingToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrAccessDenied
	}
	return p, nil
}

func (s *Service) ListUserPayments(ctx context.Context, userID string) ([]*domain.Payment, error) {
	return s.payments.ListByUser(ctx, userID)
}

func (s *Service) ListPending(ctx context.Context) ([]*domain.Payment, error) {
	return s.payments.ListByStatus(ctx, domain.PaymentPending)
}

func (s *Service) ListAll(ctx context.Context) ([]*domain.Payment, error) {
	return s.payments.ListAll(ctx)
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}

// maskCardNumber keeps only the last four digits of the PAN.
func maskCardNumber(cardNumber string) string {
	if len(cardNumber) < 4 {
		return "****"
	}
	return "**** **** **** " + cardNumber[len(cardNumber)-4:]
}
