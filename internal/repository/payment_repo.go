package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bookingpay/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

type paymentModel struct {
	ID                string    `gorm:"column:id;primaryKey"`
	BookingID         string    `gorm:"column:booking_id;uniqueIndex"`
	BookingToken      string    `gorm:"column:booking_token;index"`
	UserID            string    `gorm:"column:user_id;index"`
	Amount            float64   `gorm:"column:amount"`
	Currency          string    `gorm:"column:currency"`
	CardNumber        string    `gorm:"column:card_number"`
	CardHolder        string    `gorm:"column:card_holder"`
	CardExpiry        string    `gorm:"column:card_expiry"`
	Provider          string    `gorm:"column:provider"`
	Status            string    `gorm:"column:status;index"`
	ProviderReference *string   `gorm:"column:provider_reference"`
	ProviderResponse  *string   `gorm:"column:provider_response;type:text"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (paymentModel) TableName() string { return "payments" }

func toDomainPayment(m paymentModel) *domain.Payment {
	p := &domain.Payment{
		ID:           m.ID,
		BookingID:    m.BookingID,
		BookingToken: m.BookingToken,
		UserID:       m.UserID,
		Amount:       m.Amount,
		Currency:     m.Currency,
		CardNumber:   m.CardNumber,
		CardHolder:   m.CardHolder,
		CardExpiry:   m.CardExpiry,
		Provider:     domain.PaymentProvider(m.Provider),
		Status:       domain.PaymentStatus(m.Status),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.ProviderReference != nil {
		p.ProviderReference = *m.ProviderReference
	}
	if m.ProviderResponse != nil {
		var resp map[string]string
		if err := json.Unmarshal([]byte(*m.ProviderResponse), &resp); err == nil {
			p.ProviderResponse = resp
		}
	}
	return p
}

func toPaymentModel(p *domain.Payment) paymentModel {
	m := paymentModel{
		ID:           p.ID,
		BookingID:    p.BookingID,
		BookingToken: p.BookingToken,
		UserID:       p.UserID,
		Amount:       p.Amount,
		Currency:     p.Currency,
		CardNumber:   p.CardNumber,
		CardHolder:   p.CardHolder,
		CardExpiry:   p.CardExpiry,
		Provider:     string(p.Provider),
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.ProviderReference != "" {
		v := p.ProviderReference
		m.ProviderReference = &v
	}
	if len(p.ProviderResponse) > 0 {
		if raw, err := json.Marshal(p.ProviderResponse); err == nil {
			s := string(raw)
			m.ProviderResponse = &s
		}
	}
	return m
}

// Create persists a new payment, assigning id and timestamps. The unique
// index on booking_id rejects a second attempt for the same booking;
// callers detect that with IsDuplicatePayment.
func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	m := toPaymentModel(p)
	return r.db.WithContext(ctx).Create(&m).Error
}

// IsDuplicatePayment reports whether err is a unique violation on the
// payments table. Covers both the translated gorm error (sqlite) and the
// raw pgconn code 23505 (postgres).
func IsDuplicatePayment(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	var m paymentModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomainPayment(m), nil
}

func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error) {
	var m paymentModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomainPayment(m), nil
}

func (r *PaymentRepository) GetByBookingToken(ctx context.Context, token string) (*domain.Payment, error) {
	var m paymentModel
	if err := r.db.WithContext(ctx).Where("booking_token = ?", token).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomainPayment(m), nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Payment, error) {
	var rows []paymentModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Payment, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainPayment(m))
	}
	return out, nil
}

func (r *PaymentRepository) ListByStatus(ctx context.Context, status domain.PaymentStatus) ([]*domain.Payment, error) {
	var rows []paymentModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Payment, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainPayment(m))
	}
	return out, nil
}

func (r *PaymentRepository) ListAll(ctx context.Context) ([]*domain.Payment, error) {
	var rows []paymentModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]*domain.Payment, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainPayment(m))
	}
	return out, nil
}

// CommitResult writes a provider outcome onto a payment that is still
// PENDING. The guard makes SUCCESS and FAILED terminal: a late or repeated
// reconciliation can never downgrade a settled payment. Returns false when
// no row was updated.
func (r *PaymentRepository) CommitResult(ctx context.Context, id string, status domain.PaymentStatus, reference string, response map[string]string) (bool, error) {
	updates := map[string]interface{}{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}
	if reference != "" {
		updates["provider_reference"] = reference
	}
	if len(response) > 0 {
		raw, err := json.Marshal(response)
		if err != nil {
			return false, err
		}
		updates["provider_response"] = string(raw)
	}

	res := r.db.WithContext(ctx).
		Model(&paymentModel{}).
		Where("id = ? AND status = ?", id, string(domain.PaymentPending)).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
