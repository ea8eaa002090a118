package domain

import "time"

type BookingStatus string

const (
	BookingNew      BookingStatus = "NEW"
	BookingPaid     BookingStatus = "PAID"
	BookingCanceled BookingStatus = "CANCELED"
)

// Booking is a priced reservation owned by a user. Token is the public,
// unguessable identifier used in client-facing paths instead of ID.
type Booking struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Token       string        `json:"token"`
	Status      BookingStatus `json:"status"`
	Amount      float64       `json:"amount"`
	Currency    string        `json:"currency"`
	Description string        `json:"description,omitempty"`
	CountryCode string        `json:"country_code"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Terminal reports whether the booking can no longer change status.
func (b *Booking) Terminal() bool {
	return b.Status == BookingPaid || b.Status == BookingCanceled
}
