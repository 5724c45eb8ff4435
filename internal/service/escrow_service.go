package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/bookyourshoot/backend/internal/ledger"
	"github.com/bookyourshoot/backend/internal/models"
	"github.com/bookyourshoot/backend/internal/pkg/apperror"
	"github.com/bookyourshoot/backend/internal/repository"
)

// EscrowRepository описывает зависимости EscrowService от слоя хранилища.
type EscrowRepository interface {
	Create(ctx context.Context, tx *models.EscrowTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.EscrowTransaction, error)
	GetByBookingID(ctx context.Context, bookingID string) (*models.EscrowTransaction, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.EscrowTransaction, error)
	ListDueForRelease(ctx context.Context, now time.Time, limit int) ([]models.EscrowTransaction, error)
	Update(ctx context.Context, tx *models.EscrowTransaction) error
	ReleaseWithPayout(ctx context.Context, tx *models.EscrowTransaction, payout *models.Payout) error
}

// EscrowService оркестрирует чистые переходы пакета ledger и их
// персистентность. Сам сервис состоянием не владеет: каждый вызов — это
// снимок из репозитория, переход и запись с проверкой версии.
type EscrowService struct {
	repo              EscrowRepository
	defaultHoldPeriod time.Duration
	defaultFeeRate    float64
	clock             func() time.Time
}

// CreateHoldInput содержит параметры захвата платежа по бронированию.
type CreateHoldInput struct {
	BookingID       string
	ClientID        uuid.UUID
	PhotographerID  uuid.UUID
	Amount          int64
	PlatformFeeRate *float64
	HoldPeriod      *time.Duration
}

func NewEscrowService(repo EscrowRepository, defaultHoldPeriod time.Duration, defaultFeeRate float64) *EscrowService {
	return &EscrowService{
		repo:              repo,
		defaultHoldPeriod: defaultHoldPeriod,
		defaultFeeRate:    defaultFeeRate,
		clock:             time.Now,
	}
}

// CreateHold создаёт escrow-удержание. Период удержания и комиссия берутся
// из политики платформы, если не заданы явно для транзакции.
func (s *EscrowService) CreateHold(ctx context.Context, in CreateHoldInput) (*models.EscrowTransaction, error) {
	feeRate := s.defaultFeeRate
	if in.PlatformFeeRate != nil {
		feeRate = *in.PlatformFeeRate
	}
	holdPeriod := s.defaultHoldPeriod
	if in.HoldPeriod != nil {
		holdPeriod = *in.HoldPeriod
	}

	tx, err := ledger.Create(ledger.CreateInput{
		BookingID:       in.BookingID,
		ClientID:        in.ClientID,
		PhotographerID:  in.PhotographerID,
		Amount:          in.Amount,
		PlatformFeeRate: feeRate,
		HoldPeriod:      holdPeriod,
	}, s.clock())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// Get возвращает снимок транзакции. Доступ только участникам и админу.
func (s *EscrowService) Get(ctx context.Context, id, actorID uuid.UUID, role string) (*models.EscrowTransaction, error) {
	tx, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(tx, actorID, role) {
		return nil, apperror.ErrForbidden
	}
	return tx, nil
}

// List возвращает транзакции пользователя (он клиент или фотограф).
func (s *EscrowService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.EscrowTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByParticipant(ctx, userID, limit, offset)
}

// Countdown возвращает мгновенный снимок обратного отсчёта.
func (s *EscrowService) Countdown(ctx context.Context, id, actorID uuid.UUID, role string) (ledger.Countdown, error) {
	tx, err := s.Get(ctx, id, actorID, role)
	if err != nil {
		return ledger.Countdown{}, err
	}
	return ledger.ComputeCountdown(tx, s.clock()), nil
}

// Release выполняет ручное «подтвердить и освободить». Разрешено клиенту
// транзакции и админу.
func (s *EscrowService) Release(ctx context.Context, id, actorID uuid.UUID, role string) (*models.EscrowTransaction, error) {
	tx, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && tx.ClientID != actorID {
		return nil, apperror.ErrForbidden
	}
	return s.release(ctx, tx)
}

// AutoRelease освобождает транзакцию с истёкшим периодом удержания.
// Вызывается опросом релизов; гонки с ручными действиями разрешаются
// проверкой версии в хранилище.
func (s *EscrowService) AutoRelease(ctx context.Context, tx *models.EscrowTransaction) error {
	_, err := s.release(ctx, tx)
	return err
}

// Refund возвращает средства клиенту полностью или частично. Только админ.
func (s *EscrowService) Refund(ctx context.Context, id uuid.UUID, amount int64, role string) (*models.EscrowTransaction, error) {
	if role != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}

	tx, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.Status == models.EscrowStatusDisputed {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition,
			"по спорной транзакции возврат выполняется через разрешение спора")
	}

	refunded, err := ledger.Refund(*tx, amount, s.clock())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &refunded); err != nil {
		return nil, mapRepoError(err)
	}
	return &refunded, nil
}

// DueForRelease возвращает пакет транзакций, готовых к авторелизу.
func (s *EscrowService) DueForRelease(ctx context.Context, limit int) ([]models.EscrowTransaction, error) {
	return s.repo.ListDueForRelease(ctx, s.clock(), limit)
}

func (s *EscrowService) release(ctx context.Context, tx *models.EscrowTransaction) (*models.EscrowTransaction, error) {
	released, err := ledger.Release(*tx, s.clock())
	if err != nil {
		return nil, err
	}

	payout := buildPayout(&released, s.clock())
	if err := s.repo.ReleaseWithPayout(ctx, &released, payout); err != nil {
		return nil, mapRepoError(err)
	}
	return &released, nil
}

func (s *EscrowService) load(ctx context.Context, id uuid.UUID) (*models.EscrowTransaction, error) {
	tx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return tx, nil
}

// buildPayout формирует отложенную выплату фотографу за вычетом комиссии.
func buildPayout(tx *models.EscrowTransaction, now time.Time) *models.Payout {
	fee := ledger.PlatformFee(tx.Amount, tx.PlatformFeeRate)
	return &models.Payout{
		ID:             uuid.New(),
		TransactionID:  tx.ID,
		PhotographerID: tx.PhotographerID,
		Amount:         tx.Amount - fee,
		PlatformFee:    fee,
		Status:         models.PayoutStatusPending,
		CreatedAt:      now,
	}
}

func canView(tx *models.EscrowTransaction, actorID uuid.UUID, role string) bool {
	return role == models.RoleAdmin || tx.ClientID == actorID || tx.PhotographerID == actorID
}

// mapRepoError переводит ошибки хранилища в таксономию apperror.
func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrTransactionNotFound):
		return apperror.ErrTransactionNotFound
	case errors.Is(err, repository.ErrDisputeNotFound):
		return apperror.ErrDisputeNotFound
	case errors.Is(err, repository.ErrPayoutNotFound):
		return apperror.ErrPayoutNotFound
	case errors.Is(err, repository.ErrVersionConflict):
		return apperror.ErrVersionConflict
	default:
		return err
	}
}
