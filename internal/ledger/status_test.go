package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscrowStatus_IsValid(t *testing.T) {
	for _, s := range []EscrowStatus{StatusHeld, StatusReleased, StatusRefunded, StatusPartiallyRefunded, StatusDisputed} {
		assert.True(t, s.IsValid(), string(s))
	}
	assert.False(t, EscrowStatus("pending").IsValid())
	assert.False(t, EscrowStatus("").IsValid())
}

func TestEscrowStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusHeld.IsTerminal())
	assert.False(t, StatusDisputed.IsTerminal())
	assert.True(t, StatusReleased.IsTerminal())
	assert.True(t, StatusRefunded.IsTerminal())
	assert.True(t, StatusPartiallyRefunded.IsTerminal())
}

func TestEscrowStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		name    string
		from    EscrowStatus
		to      EscrowStatus
		allowed bool
	}{
		{"held to released", StatusHeld, StatusReleased, true},
		{"held to refunded", StatusHeld, StatusRefunded, true},
		{"held to partially refunded", StatusHeld, StatusPartiallyRefunded, true},
		{"held to disputed", StatusHeld, StatusDisputed, true},
		// спор снимается только возвратом в удержание
		{"disputed to held", StatusDisputed, StatusHeld, true},
		{"disputed to released", StatusDisputed, StatusReleased, false},
		{"disputed to refunded", StatusDisputed, StatusRefunded, false},
		// конечные статусы
		{"released is terminal", StatusReleased, StatusHeld, false},
		{"refunded is terminal", StatusRefunded, StatusHeld, false},
		{"partially refunded is terminal", StatusPartiallyRefunded, StatusReleased, false},
		{"unknown status", EscrowStatus("pending"), StatusHeld, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}
