package repository

import (
	"context"
	"time"

	"bookingpay/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	UserID      string    `gorm:"column:user_id;index"`
	Token       string    `gorm:"column:token;uniqueIndex"`
	Status      string    `gorm:"column:status;index:idx_bookings_status_updated"`
	Amount      float64   `gorm:"column:amount"`
	Currency    string    `gorm:"column:currency"`
	Description *string   `gorm:"column:description"`
	CountryCode string    `gorm:"column:country_code"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;index:idx_bookings_status_updated"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	var description string
	if m.Description != nil {
		description = *m.Description
	}

	return &domain.Booking{
		ID:          m.ID,
		UserID:      m.UserID,
		Token:       m.Token,
		Status:      domain.BookingStatus(m.Status),
		Amount:      m.Amount,
		Currency:    m.Currency,
		Description: description,
		CountryCode: m.CountryCode,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	var description *string
	if b.Description != "" {
		v := b.Description
		description = &v
	}

	return bookingModel{
		ID:          b.ID,
		UserID:      b.UserID,
		Token:       b.Token,
		Status:      string(b.Status),
		Amount:      b.Amount,
		Currency:    b.Currency,
		Description: description,
		CountryCode: b.CountryCode,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// Create persists a new booking, assigning id, token and timestamps.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Token == "" {
		b.Token = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	m := toBookingModel(b)
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) GetByToken(ctx context.Context, token string) (*domain.Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error) {
	var rows []bookingModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainBooking(m))
	}
	return out, nil
}

func (r *BookingRepository) ListAll(ctx context.Context) ([]*domain.Booking, error) {
	var rows []bookingModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]*domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainBooking(m))
	}
	return out, nil
}

// ListByStatusUpdatedBefore returns bookings in the given status whose last
// update predates the cutoff. Used by the stale-booking sweep.
func (r *BookingRepository) ListByStatusUpdatedBefore(ctx context.Context, status domain.BookingStatus, cutoff time.Time) ([]*domain.Booking, error) {
	var rows []bookingModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", string(status), cutoff).
		Order("updated_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainBooking(m))
	}
	return out, nil
}

// UpdateStatusIfCurrent transitions a booking from one status to another as
// a single guarded update. Returns false when the booking was not in the
// expected status, which keeps PAID and CANCELED terminal under concurrent
// writers.
func (r *BookingRepository) UpdateStatusIfCurrent(ctx context.Context, id string, from, to domain.BookingStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]interface{}{
			"status":     string(to),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
