package dto

// RegisterRequest represents the request to register a new user
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginRequest represents the request to log in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the request to refresh a token pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateHoldRequest represents the request to capture a booking payment
type CreateHoldRequest struct {
	BookingID       string   `json:"booking_id" binding:"required"`
	PhotographerID  string   `json:"photographer_id" binding:"required"`
	Amount          int64    `json:"amount" binding:"required"`
	PlatformFeeRate *float64 `json:"platform_fee_rate"`
	HoldPeriodHours *int64   `json:"hold_period_hours"`
}

// RefundRequest represents an admin refund decision
type RefundRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// OpenDisputeRequest represents the request to open a dispute
type OpenDisputeRequest struct {
	TransactionID     string `json:"transaction_id" binding:"required"`
	Category          string `json:"category" binding:"required"`
	Description       string `json:"description" binding:"required"`
	DesiredResolution string `json:"desired_resolution"`
}

// ResolveDisputeRequest represents an admin dispute verdict
type ResolveDisputeRequest struct {
	Verdict      string `json:"verdict" binding:"required"`
	RefundAmount int64  `json:"refund_amount"`
}

// RejectPayoutRequest represents the request to reject a pending payout
type RejectPayoutRequest struct {
	Reason string `json:"reason" binding:"required"`
}
