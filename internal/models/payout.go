package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PayoutStatusPending   = "pending"
	PayoutStatusProcessed = "processed"
	PayoutStatusRejected  = "rejected"
)

// Payout представляет выплату фотографу после освобождения escrow.
// Сумма указана за вычетом комиссии платформы.
type Payout struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	TransactionID   uuid.UUID  `db:"transaction_id" json:"transaction_id"`
	PhotographerID  uuid.UUID  `db:"photographer_id" json:"photographer_id"`
	Amount          int64      `db:"amount" json:"amount"`
	PlatformFee     int64      `db:"platform_fee" json:"platform_fee"`
	Status          string     `db:"status" json:"status"`
	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt     *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}
