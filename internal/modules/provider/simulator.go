package provider

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"bookingpay/internal/domain"
)

// weights is a cumulative three-way outcome table over a 0-99 roll:
// rolls below success map to SUCCESS, rolls below failed map to FAILED,
// the rest is PENDING.
type weights struct {
	success int
	failed  int
}

func (w weights) outcome(roll int) domain.PaymentStatus {
	switch {
	case roll < w.success:
		return domain.PaymentSuccess
	case roll < w.failed:
		return domain.PaymentFailed
	default:
		return domain.PaymentPending
	}
}

type profile struct {
	chargeDelayMin time.Duration
	chargeDelayMax time.Duration
	checkDelayMin  time.Duration
	checkDelayMax  time.Duration
	charge         weights
	check          weights
}

// The domestic provider answers fast and settles most charges; the
// international one is slow and ambiguous often enough that its payments
// dominate the reconciliation backlog.
var profiles = map[domain.PaymentProvider]profile{
	domain.ProviderDomestic: {
		chargeDelayMin: 50 * time.Millisecond,
		chargeDelayMax: 300 * time.Millisecond,
		charge:         weights{success: 76, failed: 91},
		check:          weights{success: 71, failed: 91},
	},
	domain.ProviderInternational: {
		chargeDelayMin: 500 * time.Millisecond,
		chargeDelayMax: 2000 * time.Millisecond,
		checkDelayMin:  100 * time.Millisecond,
		checkDelayMax:  1000 * time.Millisecond,
		charge:         weights{success: 66, failed: 86},
		check:          weights{success: 61, failed: 86},
	},
}

var chargeResponses = map[domain.PaymentProvider]map[domain.PaymentStatus]map[string]string{
	domain.ProviderDomestic: {
		domain.PaymentSuccess: {"code": "00", "message": "Approved"},
		domain.PaymentFailed:  {"code": "51", "message": "Insufficient funds"},
		domain.PaymentPending: {"code": "99", "message": "Processing"},
	},
	domain.ProviderInternational: {
		domain.PaymentSuccess: {"code": "000", "message": "Transaction successful"},
		domain.PaymentFailed:  {"code": "500", "message": "Declined"},
		domain.PaymentPending: {"code": "001", "message": "Under review"},
	},
}

// Simulator models the two providers with bounded latency and weighted
// random outcomes. The roll, clock and sleep are injectable so tests can
// force deterministic outcomes and skip the delays.
type Simulator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	roll  func(n int) int
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

type Option func(*Simulator)

// WithRoll replaces the random roll, pinning outcomes for tests.
func WithRoll(roll func(n int) int) Option {
	return func(s *Simulator) {
		s.roll = roll
	}
}

// WithoutDelay skips the modeled latency.
func WithoutDelay() Option {
	return func(s *Simulator) {
		s.sleep = func(ctx context.Context, _ time.Duration) error {
			return ctx.Err()
		}
	}
}

func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   time.Now,
		sleep: sleepCtx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Simulator) Charge(ctx context.Context, p *domain.Payment) (*Outcome, error) {
	prof, ok := profiles[p.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", p.Provider)
	}

	if err := s.sleep(ctx, s.delay(prof.chargeDelayMin, prof.chargeDelayMax)); err != nil {
		return nil, err
	}

	status := prof.charge.outcome(s.rollN(100))
	return &Outcome{
		Status:    status,
		Reference: s.reference(p.Provider),
		Response:  chargeResponses[p.Provider][status],
	}, nil
}

func (s *Simulator) CheckStatus(ctx context.Context, p *domain.Payment) (domain.PaymentStatus, error) {
	prof, ok := profiles[p.Provider]
	if !ok {
		return "", fmt.Errorf("unknown provider %q", p.Provider)
	}

	if err := s.sleep(ctx, s.delay(prof.checkDelayMin, prof.checkDelayMax)); err != nil {
		return "", err
	}

	return prof.check.outcome(s.rollN(100)), nil
}

func (s *Simulator) reference(p domain.PaymentProvider) string {
	return fmt.Sprintf("%s_%d", p, s.now().UnixMilli())
}

func (s *Simulator) delay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(s.rollN(int(max-min)))
}

func (s *Simulator) rollN(n int) int {
	if s.roll != nil {
		return s.roll(n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}
