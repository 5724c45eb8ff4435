package dto

import (
	"time"

	"github.com/bookyourshoot/backend/internal/ledger"
	"github.com/bookyourshoot/backend/internal/models"
	"github.com/bookyourshoot/backend/internal/service"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse represents a standardized success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AuthResponse returns the user together with a fresh token pair
type AuthResponse struct {
	User   *models.User       `json:"user"`
	Tokens *service.TokenPair `json:"tokens"`
}

// TransactionResponse represents an escrow transaction with its countdown
type TransactionResponse struct {
	*models.EscrowTransaction
	Countdown CountdownResponse `json:"countdown"`
}

// CountdownResponse is the wire form of the release countdown
type CountdownResponse struct {
	Status          string  `json:"status"`
	DaysLeft        int     `json:"daysLeft"`
	HoursLeft       int     `json:"hoursLeft"`
	MinutesLeft     int     `json:"minutesLeft"`
	SecondsLeft     int     `json:"secondsLeft"`
	Expired         bool    `json:"expired"`
	ProgressPercent float64 `json:"progressPercent"`
	Display         string  `json:"display"`
}

// NewCountdownResponse converts a computed countdown to its wire form
func NewCountdownResponse(cd ledger.Countdown) CountdownResponse {
	return CountdownResponse{
		Status:          cd.Status,
		DaysLeft:        cd.DaysLeft,
		HoursLeft:       cd.HoursLeft,
		MinutesLeft:     cd.MinutesLeft,
		SecondsLeft:     cd.SecondsLeft,
		Expired:         cd.Expired,
		ProgressPercent: cd.ProgressPercent,
		Display:         cd.Display,
	}
}

// NewTransactionResponse builds a transaction response with the countdown
// computed at the given moment
func NewTransactionResponse(tx *models.EscrowTransaction, now time.Time) *TransactionResponse {
	return &TransactionResponse{
		EscrowTransaction: tx,
		Countdown:         NewCountdownResponse(ledger.ComputeCountdown(tx, now)),
	}
}

// DisputeResponse represents a dispute with its evidence files
type DisputeResponse struct {
	*models.Dispute
	Evidence []models.EvidenceFile `json:"evidence,omitempty"`
}
