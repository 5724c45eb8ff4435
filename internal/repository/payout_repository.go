package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bookyourshoot/backend/internal/models"
	"github.com/bookyourshoot/backend/internal/repository/common"
)

var (
	ErrPayoutNotFound   = errors.New("payout not found")
	ErrPayoutNotPending = errors.New("payout is not pending")
)

type PayoutRepository struct {
	db *sqlx.DB
}

func NewPayoutRepository(db *sqlx.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	return common.GetByID[models.Payout](ctx, r.db, "payouts", id, ErrPayoutNotFound)
}

func (r *PayoutRepository) ListByPhotographer(ctx context.Context, photographerID uuid.UUID, limit, offset int) ([]models.Payout, error) {
	var payouts []models.Payout
	err := r.db.SelectContext(ctx, &payouts, `
		SELECT * FROM payouts WHERE photographer_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, photographerID, limit, offset)
	return payouts, err
}

func (r *PayoutRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Payout, error) {
	var payouts []models.Payout
	err := r.db.SelectContext(ctx, &payouts, `
		SELECT * FROM payouts WHERE status = $1
		ORDER BY created_at LIMIT $2 OFFSET $3
	`, status, limit, offset)
	return payouts, err
}

// MarkProcessed translates pending → processed. The status guard lives in the
// WHERE clause, so a concurrent process/reject loses cleanly.
func (r *PayoutRepository) MarkProcessed(ctx context.Context, id uuid.UUID, now time.Time) (*models.Payout, error) {
	return r.transition(ctx, id, `
		UPDATE payouts SET status = 'processed', processed_at = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING *
	`, now)
}

// MarkRejected translates pending → rejected with a reason.
func (r *PayoutRepository) MarkRejected(ctx context.Context, id uuid.UUID, reason string, now time.Time) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.GetContext(ctx, &payout, `
		UPDATE payouts SET status = 'rejected', rejection_reason = $2, processed_at = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING *
	`, id, reason, now)
	if err != nil {
		return nil, r.transitionError(ctx, id, err)
	}
	return &payout, nil
}

func (r *PayoutRepository) transition(ctx context.Context, id uuid.UUID, query string, now time.Time) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.GetContext(ctx, &payout, query, id, now); err != nil {
		return nil, r.transitionError(ctx, id, err)
	}
	return &payout, nil
}

// transitionError distinguishes "does not exist" from "already transitioned".
func (r *PayoutRepository) transitionError(ctx context.Context, id uuid.UUID, err error) error {
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("payout repository: transition %w", err)
	}
	if _, getErr := r.GetByID(ctx, id); errors.Is(getErr, ErrPayoutNotFound) {
		return ErrPayoutNotFound
	}
	return ErrPayoutNotPending
}
