package repository

import "gorm.io/gorm"

// AutoMigrate creates or updates the ledger tables. The unique index on
// payments.booking_id is the storage-level guarantee that at most one
// charge attempt exists per booking.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userModel{},
		&bookingModel{},
		&paymentModel{},
	)
}
