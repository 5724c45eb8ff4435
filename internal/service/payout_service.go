package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/bookyourshoot/backend/internal/models"
	"github.com/bookyourshoot/backend/internal/pkg/apperror"
	"github.com/bookyourshoot/backend/internal/repository"
)

// PayoutRepository описывает хранилище выплат.
type PayoutRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	ListByPhotographer(ctx context.Context, photographerID uuid.UUID, limit, offset int) ([]models.Payout, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Payout, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, now time.Time) (*models.Payout, error)
	MarkRejected(ctx context.Context, id uuid.UUID, reason string, now time.Time) (*models.Payout, error)
}

// PayoutService обслуживает очередь выплат фотографам. Выплаты создаются
// релизом escrow-транзакции; здесь их просматривают и проводят.
type PayoutService struct {
	repo  PayoutRepository
	clock func() time.Time
}

func NewPayoutService(repo PayoutRepository) *PayoutService {
	return &PayoutService{repo: repo, clock: time.Now}
}

// Get возвращает выплату. Доступ у получателя и у админа.
func (s *PayoutService) Get(ctx context.Context, id, actorID uuid.UUID, role string) (*models.Payout, error) {
	payout, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapPayoutError(err)
	}
	if role != models.RoleAdmin && payout.PhotographerID != actorID {
		return nil, apperror.ErrForbidden
	}
	return payout, nil
}

// ListMine возвращает выплаты фотографа.
func (s *PayoutService) ListMine(ctx context.Context, photographerID uuid.UUID, limit, offset int) ([]models.Payout, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByPhotographer(ctx, photographerID, limit, offset)
}

// ListByStatus — админская очередь выплат.
func (s *PayoutService) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Payout, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if status == "" {
		status = models.PayoutStatusPending
	}
	return s.repo.ListByStatus(ctx, status, limit, offset)
}

// Process отмечает выплату проведённой. Только из статуса pending.
func (s *PayoutService) Process(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	payout, err := s.repo.MarkProcessed(ctx, id, s.clock())
	if err != nil {
		return nil, mapPayoutError(err)
	}
	return payout, nil
}

// Reject отклоняет выплату с указанием причины.
func (s *PayoutService) Reject(ctx context.Context, id uuid.UUID, reason string) (*models.Payout, error) {
	if reason == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "причина отклонения обязательна")
	}
	payout, err := s.repo.MarkRejected(ctx, id, reason, s.clock())
	if err != nil {
		return nil, mapPayoutError(err)
	}
	return payout, nil
}

func mapPayoutError(err error) error {
	switch {
	case errors.Is(err, repository.ErrPayoutNotFound):
		return apperror.ErrPayoutNotFound
	case errors.Is(err, repository.ErrPayoutNotPending):
		return apperror.New(apperror.ErrCodeInvalidTransition, "выплата уже проведена или отклонена")
	default:
		return err
	}
}
