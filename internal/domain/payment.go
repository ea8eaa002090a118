package domain

import (
	"strings"
	"time"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

type PaymentProvider string

const (
	// ProviderDomestic settles RU cards; fast, rarely ambiguous.
	ProviderDomestic PaymentProvider = "PROVIDER_A"
	// ProviderInternational settles everything else; slow, ambiguous
	// outcomes are common enough to dominate the reconciliation backlog.
	ProviderInternational PaymentProvider = "PROVIDER_B"
)

// ProviderForCountry routes a booking to a settlement provider by its
// ISO country code. Matching is case-insensitive.
func ProviderForCountry(countryCode string) PaymentProvider {
	if strings.EqualFold(countryCode, "RU") {
		return ProviderDomestic
	}
	return ProviderInternational
}

// Payment is a single charge attempt tied to exactly one booking. Amount
// and currency are snapshotted from the booking at creation time and never
// re-read. CardNumber holds only the masked PAN; the CVV is never stored.
type Payment struct {
	ID                string            `json:"id"`
	BookingID         string            `json:"booking_id"`
	BookingToken      string            `json:"booking_token"`
	UserID            string            `json:"user_id"`
	Amount            float64           `json:"amount"`
	Currency          string            `json:"currency"`
	CardNumber        string            `json:"card_number"`
	CardHolder        string            `json:"card_holder"`
	CardExpiry        string            `json:"card_expiry"`
	Provider          PaymentProvider   `json:"provider"`
	Status            PaymentStatus     `json:"status"`
	ProviderReference string            `json:"provider_reference,omitempty"`
	ProviderResponse  map[string]string `json:"provider_response,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Terminal reports whether the payment outcome is settled. Both SUCCESS
// and FAILED are terminal in the single-attempt lifecycle.
func (p *Payment) Terminal() bool {
	return p.Status == PaymentSuccess || p.Status == PaymentFailed
}
