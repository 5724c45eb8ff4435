package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/bookyourshoot/backend/internal/models"
	"github.com/bookyourshoot/backend/internal/pkg/apperror"
	"github.com/bookyourshoot/backend/internal/repository"
)

type mockPayoutRepo struct {
	mock.Mock
}

func (m *mockPayoutRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *mockPayoutRepo) ListByPhotographer(ctx context.Context, photographerID uuid.UUID, limit, offset int) ([]models.Payout, error) {
	args := m.Called(ctx, photographerID, limit, offset)
	return args.Get(0).([]models.Payout), args.Error(1)
}

func (m *mockPayoutRepo) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Payout, error) {
	args := m.Called(ctx, status, limit, offset)
	return args.Get(0).([]models.Payout), args.Error(1)
}

func (m *mockPayoutRepo) MarkProcessed(ctx context.Context, id uuid.UUID, now time.Time) (*models.Payout, error) {
	args := m.Called(ctx, id, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *mockPayoutRepo) MarkRejected(ctx context.Context, id uuid.UUID, reason string, now time.Time) (*models.Payout, error) {
	args := m.Called(ctx, id, reason, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func newPayoutServiceForTest(repo *mockPayoutRepo) *PayoutService {
	svc := NewPayoutService(repo)
	svc.clock = func() time.Time { return testNow }
	return svc
}

func pendingPayout(photographerID uuid.UUID) *models.Payout {
	return &models.Payout{
		ID:             uuid.New(),
		TransactionID:  uuid.New(),
		PhotographerID: photographerID,
		Amount:         40500,
		PlatformFee:    4500,
		Status:         models.PayoutStatusPending,
		CreatedAt:      testNow.Add(-time.Hour),
	}
}

func TestPayoutService_Get_OwnerAndAdmin(t *testing.T) {
	repo := new(mockPayoutRepo)
	svc := newPayoutServiceForTest(repo)
	ctx := context.Background()
	photographerID := uuid.New()

	payout := pendingPayout(photographerID)
	repo.On("GetByID", ctx, payout.ID).Return(payout, nil)

	got, err := svc.Get(ctx, payout.ID, photographerID, models.RolePhotographer)
	assert.NoError(t, err)
	assert.Equal(t, payout, got)

	_, err = svc.Get(ctx, payout.ID, uuid.New(), models.RoleClient)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.Get(ctx, payout.ID, uuid.New(), models.RoleAdmin)
	assert.NoError(t, err)
}

func TestPayoutService_Process(t *testing.T) {
	repo := new(mockPayoutRepo)
	svc := newPayoutServiceForTest(repo)
	ctx := context.Background()

	processed := pendingPayout(uuid.New())
	processed.Status = models.PayoutStatusProcessed
	processed.ProcessedAt = &testNow
	repo.On("MarkProcessed", ctx, processed.ID, testNow).Return(processed, nil)

	got, err := svc.Process(ctx, processed.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PayoutStatusProcessed, got.Status)
}

func TestPayoutService_Process_NotPending(t *testing.T) {
	repo := new(mockPayoutRepo)
	svc := newPayoutServiceForTest(repo)
	ctx := context.Background()
	id := uuid.New()

	repo.On("MarkProcessed", ctx, id, testNow).Return(nil, repository.ErrPayoutNotPending)

	_, err := svc.Process(ctx, id)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestPayoutService_Reject(t *testing.T) {
	repo := new(mockPayoutRepo)
	svc := newPayoutServiceForTest(repo)
	ctx := context.Background()

	rejected := pendingPayout(uuid.New())
	rejected.Status = models.PayoutStatusRejected
	repo.On("MarkRejected", ctx, rejected.ID, "неверные реквизиты", testNow).Return(rejected, nil)

	got, err := svc.Reject(ctx, rejected.ID, "неверные реквизиты")
	assert.NoError(t, err)
	assert.Equal(t, models.PayoutStatusRejected, got.Status)
}

func TestPayoutService_Reject_RequiresReason(t *testing.T) {
	repo := new(mockPayoutRepo)
	svc := newPayoutServiceForTest(repo)

	_, err := svc.Reject(context.Background(), uuid.New(), "")
	assert.Error(t, err)
	repo.AssertNotCalled(t, "MarkRejected")
}

func TestPayoutService_Process_NotFound(t *testing.T) {
	repo := new(mockPayoutRepo)
	svc := newPayoutServiceForTest(repo)
	ctx := context.Background()
	id := uuid.New()

	repo.On("MarkProcessed", ctx, id, testNow).Return(nil, repository.ErrPayoutNotFound)

	_, err := svc.Process(ctx, id)
	assert.ErrorIs(t, err, apperror.ErrPayoutNotFound)
}

func TestPayoutService_ListByStatus_DefaultsPending(t *testing.T) {
	repo := new(mockPayoutRepo)
	svc := newPayoutServiceForTest(repo)
	ctx := context.Background()

	repo.On("ListByStatus", ctx, models.PayoutStatusPending, 20, 0).Return([]models.Payout{}, nil)

	_, err := svc.ListByStatus(ctx, "", 0, 0)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
