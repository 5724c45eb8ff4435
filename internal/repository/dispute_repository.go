package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bookyourshoot/backend/internal/models"
	"github.com/bookyourshoot/backend/internal/repository/common"
)

var ErrDisputeNotFound = errors.New("dispute not found")

type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// CreateWithTransaction atomically inserts the dispute and flips the escrow
// transaction to disputed, guarded by the escrow version.
func (r *DisputeRepository) CreateWithTransaction(ctx context.Context, dispute *models.Dispute, escrowTx *models.EscrowTransaction) error {
	err := common.WithTransaction(ctx, r.db, func(dbTx *sqlx.Tx) error {
		_, err := dbTx.ExecContext(ctx, `
			INSERT INTO disputes
				(id, transaction_id, opened_by, category, description, desired_resolution, resolution_status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, dispute.ID, dispute.TransactionID, dispute.OpenedBy, dispute.Category,
			dispute.Description, dispute.DesiredResolution, dispute.ResolutionStatus, dispute.CreatedAt)
		if err != nil {
			return fmt.Errorf("dispute repository: create %w", err)
		}

		res, err := dbTx.ExecContext(ctx, `
			UPDATE escrow_transactions
			SET status = $2, dispute_id = $3, version = version + 1
			WHERE id = $1 AND version = $4
		`, escrowTx.ID, escrowTx.Status, escrowTx.DisputeID, escrowTx.Version)
		if err != nil {
			return fmt.Errorf("dispute repository: mark escrow disputed %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrVersionConflict
		}
		return nil
	})
	if err != nil {
		return err
	}

	escrowTx.Version++
	return nil
}

// ResolveWithTransaction atomically closes the dispute and applies the new
// escrow snapshot, guarded by the escrow version. Payout is optional: the
// release verdict creates one in the same transaction.
func (r *DisputeRepository) ResolveWithTransaction(ctx context.Context, dispute *models.Dispute, escrowTx *models.EscrowTransaction, payout *models.Payout) error {
	err := common.WithTransaction(ctx, r.db, func(dbTx *sqlx.Tx) error {
		_, err := dbTx.ExecContext(ctx, `
			UPDATE disputes
			SET resolution_status = $2, resolution = $3, resolved_by = $4, resolved_at = $5
			WHERE id = $1
		`, dispute.ID, dispute.ResolutionStatus, dispute.Resolution, dispute.ResolvedBy, dispute.ResolvedAt)
		if err != nil {
			return fmt.Errorf("dispute repository: resolve %w", err)
		}

		res, err := dbTx.ExecContext(ctx, `
			UPDATE escrow_transactions
			SET status = $2, release_at = $3, released_at = $4, refund_amount = $5,
			    dispute_id = $6, version = version + 1
			WHERE id = $1 AND version = $7
		`, escrowTx.ID, escrowTx.Status, escrowTx.ReleaseAt, escrowTx.ReleasedAt,
			escrowTx.RefundAmount, escrowTx.DisputeID, escrowTx.Version)
		if err != nil {
			return fmt.Errorf("dispute repository: apply verdict %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrVersionConflict
		}

		if payout != nil {
			_, err = dbTx.ExecContext(ctx, `
				INSERT INTO payouts (id, transaction_id, photographer_id, amount, platform_fee, status, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, payout.ID, payout.TransactionID, payout.PhotographerID, payout.Amount, payout.PlatformFee, payout.Status, payout.CreatedAt)
			if err != nil {
				return fmt.Errorf("dispute repository: create payout %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	escrowTx.Version++
	return nil
}

func (r *DisputeRepository) GetByID(ctx context.Context, id string) (*models.Dispute, error) {
	return common.GetByID[models.Dispute](ctx, r.db, "disputes", id, ErrDisputeNotFound)
}

func (r *DisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT * FROM disputes WHERE opened_by = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return disputes, err
}

func (r *DisputeRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT * FROM disputes WHERE resolution_status = $1
		ORDER BY created_at LIMIT $2 OFFSET $3
	`, status, limit, offset)
	return disputes, err
}

// SetInReview moves an open dispute under admin review. One-way guard in SQL.
func (r *DisputeRepository) SetInReview(ctx context.Context, id string) (*models.Dispute, error) {
	var dispute models.Dispute
	err := r.db.GetContext(ctx, &dispute, `
		UPDATE disputes SET resolution_status = $2
		WHERE id = $1 AND resolution_status = $3
		RETURNING *
	`, id, models.DisputeStatusInReview, models.DisputeStatusOpen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dispute repository: set in review %w", err)
	}
	return &dispute, nil
}

func (r *DisputeRepository) AddEvidence(ctx context.Context, ev *models.EvidenceFile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dispute_evidence (id, dispute_id, name, mime_type, size_bytes, path, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ev.ID, ev.DisputeID, ev.Name, ev.MimeType, ev.SizeBytes, ev.Path, ev.UploadedAt)
	if err != nil {
		return fmt.Errorf("dispute repository: add evidence %w", err)
	}
	return nil
}

func (r *DisputeRepository) ListEvidence(ctx context.Context, disputeID string) ([]models.EvidenceFile, error) {
	var files []models.EvidenceFile
	err := r.db.SelectContext(ctx, &files, `
		SELECT * FROM dispute_evidence WHERE dispute_id = $1 ORDER BY uploaded_at
	`, disputeID)
	return files, err
}

func (r *DisputeRepository) CountEvidence(ctx context.Context, disputeID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM dispute_evidence WHERE dispute_id = $1`, disputeID)
	return count, err
}
