package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы escrow-транзакции
const (
	EscrowStatusHeld              = "held"
	EscrowStatusReleased          = "released"
	EscrowStatusRefunded          = "refunded"
	EscrowStatusPartiallyRefunded = "partially_refunded"
	EscrowStatusDisputed          = "disputed"
)

// EscrowTransaction представляет платёж, удерживаемый платформой до
// подтверждения съёмки или истечения периода удержания.
// Все суммы хранятся в минимальных единицах валюты (копейки/пайсы),
// чтобы исключить ошибки плавающей точки.
type EscrowTransaction struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	BookingID       string     `db:"booking_id" json:"booking_id"`
	ClientID        uuid.UUID  `db:"client_id" json:"client_id"`
	PhotographerID  uuid.UUID  `db:"photographer_id" json:"photographer_id"`
	Amount          int64      `db:"amount" json:"amount"`
	PlatformFeeRate float64    `db:"platform_fee_rate" json:"platform_fee_rate"`
	Status          string     `db:"status" json:"status"`
	HoldPeriod      int64      `db:"hold_period_seconds" json:"hold_period_seconds"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ReleaseAt       time.Time  `db:"release_at" json:"release_at"`
	ReleasedAt      *time.Time `db:"released_at" json:"released_at,omitempty"`
	RefundAmount    *int64     `db:"refund_amount" json:"refund_amount,omitempty"`
	DisputeID       *string    `db:"dispute_id" json:"dispute_id,omitempty"`
	Version         int64      `db:"version" json:"version"`
}

// HoldDuration возвращает период удержания как time.Duration.
func (t *EscrowTransaction) HoldDuration() time.Duration {
	return time.Duration(t.HoldPeriod) * time.Second
}
