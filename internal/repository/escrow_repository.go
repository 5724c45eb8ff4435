package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bookyourshoot/backend/internal/models"
	"github.com/bookyourshoot/backend/internal/repository/common"
)

var (
	ErrTransactionNotFound = errors.New("escrow transaction not found")
	ErrVersionConflict     = common.ErrVersionConflict
)

const escrowColumns = `id, booking_id, client_id, photographer_id, amount, platform_fee_rate,
	status, hold_period_seconds, created_at, release_at, released_at, refund_amount, dispute_id, version`

type EscrowRepository struct {
	db *sqlx.DB
}

func NewEscrowRepository(db *sqlx.DB) *EscrowRepository {
	return &EscrowRepository{db: db}
}

// Create сохраняет новую escrow-транзакцию.
func (r *EscrowRepository) Create(ctx context.Context, tx *models.EscrowTransaction) error {
	query := `
		INSERT INTO escrow_transactions
			(id, booking_id, client_id, photographer_id, amount, platform_fee_rate,
			 status, hold_period_seconds, created_at, release_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		tx.ID, tx.BookingID, tx.ClientID, tx.PhotographerID, tx.Amount, tx.PlatformFeeRate,
		tx.Status, tx.HoldPeriod, tx.CreatedAt, tx.ReleaseAt, tx.Version)
	if err != nil {
		return fmt.Errorf("escrow repository: create %w", err)
	}
	return nil
}

// GetByID возвращает транзакцию по идентификатору.
func (r *EscrowRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.EscrowTransaction, error) {
	return common.GetByID[models.EscrowTransaction](ctx, r.db, "escrow_transactions", id, ErrTransactionNotFound)
}

// GetByBookingID возвращает транзакцию по идентификатору бронирования.
func (r *EscrowRepository) GetByBookingID(ctx context.Context, bookingID string) (*models.EscrowTransaction, error) {
	return common.GetByField[models.EscrowTransaction](ctx, r.db, "escrow_transactions", "booking_id", bookingID, ErrTransactionNotFound)
}

// ListByParticipant возвращает транзакции, где пользователь — клиент или фотограф.
func (r *EscrowRepository) ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.EscrowTransaction, error) {
	var txs []models.EscrowTransaction
	query := fmt.Sprintf(`
		SELECT %s FROM escrow_transactions
		WHERE client_id = $1 OR photographer_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, escrowColumns)
	err := r.db.SelectContext(ctx, &txs, query, userID, limit, offset)
	return txs, err
}

// ListDueForRelease возвращает held-транзакции с истёкшим периодом удержания.
// Проверка статуса здесь, а не в памяти: опрос никогда не видит транзакции,
// по которым уже открыт спор или прошёл ручной релиз.
func (r *EscrowRepository) ListDueForRelease(ctx context.Context, now time.Time, limit int) ([]models.EscrowTransaction, error) {
	var txs []models.EscrowTransaction
	query := fmt.Sprintf(`
		SELECT %s FROM escrow_transactions
		WHERE status = 'held' AND release_at <= $1
		ORDER BY release_at LIMIT $2
	`, escrowColumns)
	err := r.db.SelectContext(ctx, &txs, query, now, limit)
	return txs, err
}

// Update записывает новый снимок с проверкой версии (optimistic lock).
// При несовпадении версии возвращает ErrVersionConflict — параллельный
// переход уже состоялся, вызывающая сторона перечитывает запись.
func (r *EscrowRepository) Update(ctx context.Context, tx *models.EscrowTransaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE escrow_transactions
		SET status = $2, release_at = $3, released_at = $4, refund_amount = $5,
		    dispute_id = $6, version = version + 1
		WHERE id = $1 AND version = $7
	`, tx.ID, tx.Status, tx.ReleaseAt, tx.ReleasedAt, tx.RefundAmount, tx.DisputeID, tx.Version)
	if err != nil {
		return fmt.Errorf("escrow repository: update %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("escrow repository: update rows affected %w", err)
	}
	if affected == 0 {
		if _, getErr := r.GetByID(ctx, tx.ID); errors.Is(getErr, ErrTransactionNotFound) {
			return ErrTransactionNotFound
		}
		return ErrVersionConflict
	}

	tx.Version++
	return nil
}

// ReleaseWithPayout атомарно записывает освобождённую транзакцию
// и создаёт отложенную выплату фотографу.
func (r *EscrowRepository) ReleaseWithPayout(ctx context.Context, escrowTx *models.EscrowTransaction, payout *models.Payout) error {
	err := common.WithTransaction(ctx, r.db, func(dbTx *sqlx.Tx) error {
		res, err := dbTx.ExecContext(ctx, `
			UPDATE escrow_transactions
			SET status = $2, released_at = $3, version = version + 1
			WHERE id = $1 AND version = $4
		`, escrowTx.ID, escrowTx.Status, escrowTx.ReleasedAt, escrowTx.Version)
		if err != nil {
			return fmt.Errorf("escrow repository: release %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrVersionConflict
		}

		_, err = dbTx.ExecContext(ctx, `
			INSERT INTO payouts (id, transaction_id, photographer_id, amount, platform_fee, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, payout.ID, payout.TransactionID, payout.PhotographerID, payout.Amount, payout.PlatformFee, payout.Status, payout.CreatedAt)
		if err != nil {
			return fmt.Errorf("escrow repository: create payout %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	escrowTx.Version++
	return nil
}
