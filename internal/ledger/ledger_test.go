package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookyourshoot/backend/internal/models"
	"github.com/bookyourshoot/backend/internal/pkg/apperror"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newHeldTx(t *testing.T, amount int64, holdPeriod time.Duration) models.EscrowTransaction {
	t.Helper()
	tx, err := Create(CreateInput{
		BookingID:       "BK-1",
		ClientID:        uuid.New(),
		PhotographerID:  uuid.New(),
		Amount:          amount,
		PlatformFeeRate: 0.10,
		HoldPeriod:      holdPeriod,
	}, t0)
	require.NoError(t, err)
	return tx
}

func TestCreate(t *testing.T) {
	tx := newHeldTx(t, 45000, 7*24*time.Hour)

	assert.Equal(t, models.EscrowStatusHeld, tx.Status)
	assert.Equal(t, t0, tx.CreatedAt)
	assert.Equal(t, t0.Add(7*24*time.Hour), tx.ReleaseAt)
	assert.Equal(t, int64(7*24*3600), tx.HoldPeriod)
	assert.Equal(t, int64(1), tx.Version)
	assert.Nil(t, tx.RefundAmount)
	assert.Nil(t, tx.DisputeID)
}

func TestCreate_Validation(t *testing.T) {
	valid := CreateInput{BookingID: "BK-1", Amount: 1000, PlatformFeeRate: 0.1, HoldPeriod: time.Hour}

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"empty booking", func(in *CreateInput) { in.BookingID = " " }},
		{"zero amount", func(in *CreateInput) { in.Amount = 0 }},
		{"negative amount", func(in *CreateInput) { in.Amount = -5 }},
		{"fee rate above 1", func(in *CreateInput) { in.PlatformFeeRate = 1.5 }},
		{"negative fee rate", func(in *CreateInput) { in.PlatformFeeRate = -0.1 }},
		{"zero hold period", func(in *CreateInput) { in.HoldPeriod = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			_, err := Create(in, t0)
			assert.True(t, apperror.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestRelease(t *testing.T) {
	tx := newHeldTx(t, 45000, 7*24*time.Hour)
	now := t0.Add(time.Hour)

	released, err := Release(tx, now)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowStatusReleased, released.Status)
	require.NotNil(t, released.ReleasedAt)
	assert.Equal(t, now, *released.ReleasedAt)
	// дата авторелиза заморожена для аудита
	assert.Equal(t, tx.ReleaseAt, released.ReleaseAt)
}

func TestRelease_OneWay(t *testing.T) {
	tx := newHeldTx(t, 45000, 7*24*time.Hour)

	released, err := Release(tx, t0)
	require.NoError(t, err)

	_, err = Release(released, t0.Add(time.Minute))
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestRefund_Full(t *testing.T) {
	tx := newHeldTx(t, 18000, 7*24*time.Hour)

	refunded, err := Refund(tx, 18000, t0)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowStatusRefunded, refunded.Status)
	require.NotNil(t, refunded.RefundAmount)
	assert.Equal(t, int64(18000), *refunded.RefundAmount)
}

func TestRefund_Partial(t *testing.T) {
	tx := newHeldTx(t, 18000, 7*24*time.Hour)

	refunded, err := Refund(tx, 9000, t0)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowStatusPartiallyRefunded, refunded.Status)
	require.NotNil(t, refunded.RefundAmount)
	assert.Equal(t, int64(9000), *refunded.RefundAmount)

	// терминальный статус: дальнейший release невозможен
	_, err = Release(refunded, t0.Add(time.Minute))
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestRefund_Validation(t *testing.T) {
	tx := newHeldTx(t, 18000, 7*24*time.Hour)

	_, err := Refund(tx, 0, t0)
	assert.True(t, apperror.IsValidation(err))

	_, err = Refund(tx, 18001, t0)
	assert.True(t, apperror.IsValidation(err))
}

func TestRefund_WhileDisputed(t *testing.T) {
	tx := newHeldTx(t, 18000, 7*24*time.Hour)
	disputed, dispute, err := OpenDispute(tx, DisputeInput{
		OpenedBy:    tx.ClientID,
		Category:    models.DisputeCategoryQuality,
		Description: "photos missing",
	}, t0.Add(time.Hour))
	require.NoError(t, err)

	// прямой возврат по спорной транзакции запрещён: спор остался бы
	// открытым навсегда, допустим только путь через вердикт
	_, err = Refund(disputed, 18000, t0.Add(2*time.Hour))
	assert.True(t, apperror.IsInvalidTransition(err))

	resolved, closedDispute, err := ResolveDispute(disputed, dispute,
		Verdict{Kind: VerdictRefund, RefundAmount: 18000}, PolicyRestart, t0.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.EscrowStatusRefunded, resolved.Status)
	assert.Equal(t, models.DisputeStatusResolved, closedDispute.ResolutionStatus)
}

func TestRefund_AfterRelease(t *testing.T) {
	tx := newHeldTx(t, 18000, 7*24*time.Hour)
	released, err := Release(tx, t0)
	require.NoError(t, err)

	_, err = Refund(released, 9000, t0)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestOpenDispute(t *testing.T) {
	tx := newHeldTx(t, 45000, 7*24*time.Hour)
	now := t0.Add(2 * 24 * time.Hour)

	disputed, dispute, err := OpenDispute(tx, DisputeInput{
		OpenedBy:          tx.ClientID,
		Category:          models.DisputeCategoryQuality,
		Description:       "photos blurry",
		DesiredResolution: models.DisputeResolutionPartialRefund,
	}, now)
	require.NoError(t, err)

	assert.Equal(t, models.EscrowStatusDisputed, disputed.Status)
	require.NotNil(t, disputed.DisputeID)
	assert.Equal(t, dispute.ID, *disputed.DisputeID)
	assert.Equal(t, models.DisputeStatusOpen, dispute.ResolutionStatus)
	assert.Equal(t, tx.ID, dispute.TransactionID)
	assert.Regexp(t, `^DIS-[0-9A-Z]+$`, dispute.ID)

	// второй спор по той же транзакции отклоняется
	_, _, err = OpenDispute(disputed, DisputeInput{
		OpenedBy:    tx.ClientID,
		Category:    models.DisputeCategoryQuality,
		Description: "still blurry",
	}, now.Add(time.Minute))
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestOpenDispute_Validation(t *testing.T) {
	tx := newHeldTx(t, 45000, 7*24*time.Hour)

	_, _, err := OpenDispute(tx, DisputeInput{Category: models.DisputeCategoryQuality, Description: "  "}, t0)
	assert.True(t, apperror.IsValidation(err))

	_, _, err = OpenDispute(tx, DisputeInput{Category: "rudeness", Description: "bad"}, t0)
	assert.True(t, apperror.IsValidation(err))

	_, _, err = OpenDispute(tx, DisputeInput{
		Category:          models.DisputeCategoryQuality,
		Description:       "bad",
		DesiredResolution: "money_and_apology",
	}, t0)
	assert.True(t, apperror.IsValidation(err))
}

func TestOpenDispute_EvidenceLimits(t *testing.T) {
	tx := newHeldTx(t, 45000, 7*24*time.Hour)

	tooMany := make([]EvidenceMeta, MaxEvidenceFiles+1)
	for i := range tooMany {
		tooMany[i] = EvidenceMeta{Name: "a.jpg", MimeType: "image/jpeg", SizeBytes: 100}
	}
	_, _, err := OpenDispute(tx, DisputeInput{
		Category: models.DisputeCategoryQuality, Description: "bad", Evidence: tooMany,
	}, t0)
	assert.True(t, apperror.IsValidation(err))

	_, _, err = OpenDispute(tx, DisputeInput{
		Category: models.DisputeCategoryQuality, Description: "bad",
		Evidence: []EvidenceMeta{{Name: "big.pdf", MimeType: "application/pdf", SizeBytes: MaxEvidenceSizeBytes + 1}},
	}, t0)
	assert.True(t, apperror.IsValidation(err))

	_, _, err = OpenDispute(tx, DisputeInput{
		Category: models.DisputeCategoryQuality, Description: "bad",
		Evidence: []EvidenceMeta{{Name: "clip.mp4", MimeType: "video/mp4", SizeBytes: 100}},
	}, t0)
	assert.True(t, apperror.IsValidation(err))

	_, _, err = OpenDispute(tx, DisputeInput{
		Category: models.DisputeCategoryQuality, Description: "bad",
		Evidence: []EvidenceMeta{
			{Name: "shot.png", MimeType: "image/png", SizeBytes: 1024},
			{Name: "contract.pdf", MimeType: "application/pdf", SizeBytes: 2048},
			{Name: "chat.txt", MimeType: "text/plain", SizeBytes: 64},
		},
	}, t0)
	assert.NoError(t, err)
}

func TestResolveDispute_Refund(t *testing.T) {
	tx := newHeldTx(t, 18000, 7*24*time.Hour)
	disputed, dispute, err := OpenDispute(tx, DisputeInput{
		OpenedBy:          tx.ClientID,
		Category:          models.DisputeCategoryQuality,
		Description:       "photos blurry",
		DesiredResolution: models.DisputeResolutionPartialRefund,
	}, t0.Add(24*time.Hour))
	require.NoError(t, err)

	now := t0.Add(48 * time.Hour)
	resolved, closedDispute, err := ResolveDispute(disputed, dispute, Verdict{Kind: VerdictRefund, RefundAmount: 9000}, PolicyRestart, now)
	require.NoError(t, err)

	assert.Equal(t, models.EscrowStatusPartiallyRefunded, resolved.Status)
	require.NotNil(t, resolved.RefundAmount)
	assert.Equal(t, int64(9000), *resolved.RefundAmount)
	assert.Equal(t, models.DisputeStatusResolved, closedDispute.ResolutionStatus)
	require.NotNil(t, closedDispute.Resolution)
	assert.Equal(t, "refund", *closedDispute.Resolution)

	// повторное разрешение отклоняется
	_, _, err = ResolveDispute(resolved, closedDispute, Verdict{Kind: VerdictRelease}, PolicyRestart, now)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestResolveDispute_Release(t *testing.T) {
	tx := newHeldTx(t, 45000, 7*24*time.Hour)
	disputed, dispute, err := OpenDispute(tx, DisputeInput{
		OpenedBy: tx.ClientID, Category: models.DisputeCategoryLate, Description: "delivered late",
	}, t0.Add(time.Hour))
	require.NoError(t, err)

	resolved, _, err := ResolveDispute(disputed, dispute, Verdict{Kind: VerdictRelease}, PolicyRestart, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.EscrowStatusReleased, resolved.Status)
}

func TestResolveDispute_ReinstateRestart(t *testing.T) {
	hold := 7 * 24 * time.Hour
	tx := newHeldTx(t, 45000, hold)
	disputed, dispute, err := OpenDispute(tx, DisputeInput{
		OpenedBy: tx.ClientID, Category: models.DisputeCategoryOther, Description: "opened by mistake",
	}, t0.Add(3*24*time.Hour))
	require.NoError(t, err)

	now := t0.Add(5 * 24 * time.Hour)
	resolved, _, err := ResolveDispute(disputed, dispute, Verdict{Kind: VerdictReinstateHold}, PolicyRestart, now)
	require.NoError(t, err)

	assert.Equal(t, models.EscrowStatusHeld, resolved.Status)
	assert.Nil(t, resolved.DisputeID)
	// политика restart: период удержания начинается заново
	assert.Equal(t, now.Add(hold), resolved.ReleaseAt)
}

func TestResolveDispute_ReinstateResume(t *testing.T) {
	hold := 7 * 24 * time.Hour
	tx := newHeldTx(t, 45000, hold)
	openedAt := t0.Add(3 * 24 * time.Hour)
	disputed, dispute, err := OpenDispute(tx, DisputeInput{
		OpenedBy: tx.ClientID, Category: models.DisputeCategoryOther, Description: "opened by mistake",
	}, openedAt)
	require.NoError(t, err)

	now := t0.Add(10 * 24 * time.Hour)
	resolved, _, err := ResolveDispute(disputed, dispute, Verdict{Kind: VerdictReinstateHold}, PolicyResume, now)
	require.NoError(t, err)

	// оставалось 4 дня на момент открытия спора
	assert.Equal(t, now.Add(4*24*time.Hour), resolved.ReleaseAt)
}

func TestResolveDispute_WrongDispute(t *testing.T) {
	tx := newHeldTx(t, 45000, 7*24*time.Hour)
	disputed, _, err := OpenDispute(tx, DisputeInput{
		OpenedBy: tx.ClientID, Category: models.DisputeCategoryQuality, Description: "bad",
	}, t0)
	require.NoError(t, err)

	other := models.Dispute{ID: "DIS-OTHER", ResolutionStatus: models.DisputeStatusOpen}
	_, _, err = ResolveDispute(disputed, other, Verdict{Kind: VerdictRelease}, PolicyRestart, t0)
	assert.True(t, apperror.IsValidation(err))
}

func TestPlatformFee(t *testing.T) {
	assert.Equal(t, int64(4500), PlatformFee(45000, 0.10))
	assert.Equal(t, int64(0), PlatformFee(45000, 0))
	assert.Equal(t, int64(45000), PlatformFee(45000, 1))
	// округление half-up
	assert.Equal(t, int64(13), PlatformFee(125, 0.1))
	assert.Equal(t, int64(0), PlatformFee(0, 0.1))
}

func TestNewDisputeID(t *testing.T) {
	id := NewDisputeID(t0)
	assert.Regexp(t, `^DIS-[0-9A-Z]+$`, id)
	later := NewDisputeID(t0.Add(time.Second))
	assert.NotEqual(t, id, later)
}

func TestNewDisputeID_SameMillisecond(t *testing.T) {
	// идентификатор служит первичным ключом: споры, открытые в одну
	// миллисекунду, не должны сталкиваться
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewDisputeID(t0)
		_, dup := seen[id]
		require.False(t, dup, "дубликат идентификатора %s", id)
		seen[id] = struct{}{}
	}
}
