package scheduler

import (
	"context"
	"sync"
	"time"

	"bookingpay/internal/config"
	"bookingpay/internal/domain"

	"github.com/go-co-op/gocron/v2"
)

// paymentChecker is the coordinator surface the reconciliation loop needs.
type paymentChecker interface {
	ListPending(ctx context.Context) ([]*domain.Payment, error)
	Recheck(ctx context.Context, paymentID string) error
}

type bookingSweeper interface {
	ListStale(ctx context.Context, olderThan time.Duration) ([]*domain.Booking, error)
	Expire(ctx context.Context, id string) (bool, error)
}

// Scheduler drives the two periodic jobs: rechecking PENDING payments and
// sweeping stale NEW bookings. It is owned by the process lifecycle and
// started/stopped explicitly.
type Scheduler struct {
	payments paymentChecker
	bookings bookingSweeper
	cfg      *config.Runtime
	loggerf  func(format string, args ...interface{})
	cron     gocron.Scheduler
}

func New(payments paymentChecker, bookings bookingSweeper, cfg *config.Runtime, loggerf func(format string, args ...interface{})) (*Scheduler, error) {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}

	s := &Scheduler{
		payments: payments,
		bookings: bookings,
		cfg:      cfg,
		loggerf:  loggerf,
	}

	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	if _, err := cron.NewJob(
		gocron.DurationJob(cfg.RecheckInterval),
		gocron.NewTask(s.CheckPendingPayments),
	); err != nil {
		return nil, err
	}
	if _, err := cron.NewJob(
		gocron.DurationJob(cfg.StaleInterval),
		gocron.NewTask(s.SweepStaleBookings),
	); err != nil {
		return nil, err
	}
	s.cron = cron
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.loggerf("level=info msg=scheduler started recheck_interval=%s stale_interval=%s stale_policy=%s",
		s.cfg.RecheckInterval, s.cfg.StaleInterval, s.cfg.StalePolicy)
}

func (s *Scheduler) Stop() error {
	return s.cron.Shutdown()
}

// CheckPendingPayments rechecks every PENDING payment concurrently. Each
// payment runs in its own goroutine; an error is logged and never aborts
// the batch.
func (s *Scheduler) CheckPendingPayments() {
	ctx := context.Background()

	pending, err := s.payments.ListPending(ctx)
	if err != nil {
		s.loggerf("level=error msg=failed to list pending payments err=%v", err)
		return
	}
	s.loggerf("level=info msg=payment status check started pending=%d", len(pending))

	var wg sync.WaitGroup
	wg.Add(len(pending))
	for _, p := range pending {
		go func(id string) {
			defer wg.Done()
			if err := s.payments.Recheck(ctx, id); err != nil {
				s.loggerf("level=error msg=payment recheck failed payment_id=%s err=%v", id, err)
			}
		}(p.ID)
	}
	wg.Wait()
}

// SweepStaleBookings applies the configured policy to NEW bookings older
// than the staleness window.
func (s *Scheduler) SweepStaleBookings() {
	ctx := context.Background()

	stale, err := s.bookings.ListStale(ctx, s.cfg.StaleAfter)
	if err != nil {
		s.loggerf("level=error msg=failed to list stale bookings err=%v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	for _, b := range stale {
		switch s.cfg.StalePolicy {
		case config.StalePolicyCancel:
			changed, err := s.bookings.Expire(ctx, b.ID)
			if err != nil {
				s.loggerf("level=error msg=failed to expire stale booking booking_id=%s err=%v", b.ID, err)
				continue
			}
			if changed {
				s.loggerf("level=info msg=stale booking canceled booking_id=%s updated_at=%s", b.ID, b.UpdatedAt.Format(time.RFC3339))
			}
		default:
			s.loggerf("level=warn msg=stale booking flagged booking_id=%s user_id=%s updated_at=%s",
				b.ID, b.UserID, b.UpdatedAt.Format(time.RFC3339))
		}
	}
}
