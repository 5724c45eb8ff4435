package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookyourshoot/backend/internal/models"
)

func TestComputeCountdown_AtCreation(t *testing.T) {
	tx := newHeldTx(t, 45000, 7*24*time.Hour)

	cd := ComputeCountdown(&tx, t0)
	assert.False(t, cd.Expired)
	assert.Equal(t, 0.0, cd.ProgressPercent)
	assert.Equal(t, 7, cd.DaysLeft)
	assert.Equal(t, 0, cd.HoursLeft)
}

func TestComputeCountdown_MidHold(t *testing.T) {
	// tx = create("BK-1", 45000, 0.10, 7 дней) в t0; проверка в t0 + 3 дня
	tx := newHeldTx(t, 45000, 7*24*time.Hour)

	cd := ComputeCountdown(&tx, t0.Add(3*24*time.Hour))
	assert.False(t, cd.Expired)
	assert.Equal(t, 4, cd.DaysLeft)
	assert.Equal(t, 0, cd.HoursLeft)
	assert.Equal(t, 0, cd.MinutesLeft)
	assert.Equal(t, 0, cd.SecondsLeft)
	assert.InDelta(t, 42.857, cd.ProgressPercent, 0.01)
}

func TestComputeCountdown_Decomposition(t *testing.T) {
	tx := newHeldTx(t, 45000, 7*24*time.Hour)

	// остаётся 1 день 2 часа 3 минуты 4 секунды
	now := tx.ReleaseAt.Add(-(26*time.Hour + 3*time.Minute + 4*time.Second))
	cd := ComputeCountdown(&tx, now)
	assert.Equal(t, 1, cd.DaysLeft)
	assert.Equal(t, 2, cd.HoursLeft)
	assert.Equal(t, 3, cd.MinutesLeft)
	assert.Equal(t, 4, cd.SecondsLeft)
}

func TestComputeCountdown_FloorsSubSecond(t *testing.T) {
	tx := newHeldTx(t, 45000, 7*24*time.Hour)

	// 1.9 секунды до релиза: округление вниз, не до ближайшего
	cd := ComputeCountdown(&tx, tx.ReleaseAt.Add(-1900*time.Millisecond))
	assert.Equal(t, 1, cd.SecondsLeft)
	assert.False(t, cd.Expired)
}

func TestComputeCountdown_Expired(t *testing.T) {
	tx := newHeldTx(t, 45000, 7*24*time.Hour)

	for _, now := range []time.Time{tx.ReleaseAt, t0.Add(8 * 24 * time.Hour)} {
		cd := ComputeCountdown(&tx, now)
		assert.True(t, cd.Expired)
		assert.Equal(t, 100.0, cd.ProgressPercent)
		assert.Equal(t, 0, cd.DaysLeft)
		assert.Equal(t, 0, cd.HoursLeft)
		assert.Equal(t, 0, cd.MinutesLeft)
		assert.Equal(t, 0, cd.SecondsLeft)
	}
}

func TestComputeCountdown_TwoDayHold(t *testing.T) {
	// период удержания настраивается на транзакцию, не глобально
	tx := newHeldTx(t, 45000, 2*24*time.Hour)

	cd := ComputeCountdown(&tx, t0.Add(24*time.Hour))
	assert.Equal(t, 1, cd.DaysLeft)
	assert.InDelta(t, 50.0, cd.ProgressPercent, 0.01)
}

func TestComputeCountdown_NonHeldStatuses(t *testing.T) {
	cases := []struct {
		status  string
		display string
	}{
		{models.EscrowStatusReleased, "released"},
		{models.EscrowStatusRefunded, "refunded"},
		{models.EscrowStatusPartiallyRefunded, "refunded"},
		{models.EscrowStatusDisputed, "disputed"},
	}

	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			tx := newHeldTx(t, 45000, 7*24*time.Hour)
			tx.Status = tc.status

			cd := ComputeCountdown(&tx, t0)
			assert.Equal(t, tc.display, cd.Display)
			assert.Equal(t, 0, cd.DaysLeft)
			assert.Equal(t, 0.0, cd.ProgressPercent)
			assert.False(t, cd.Expired)
		})
	}
}

func TestComputeCountdown_IsPure(t *testing.T) {
	tx := newHeldTx(t, 45000, 7*24*time.Hour)
	before := tx

	_ = ComputeCountdown(&tx, t0.Add(3*24*time.Hour))
	_ = ComputeCountdown(&tx, t0.Add(8*24*time.Hour))

	require.Equal(t, before, tx)
}
