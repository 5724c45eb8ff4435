package ledger

import "github.com/bookyourshoot/backend/internal/models"

type EscrowStatus string

const (
	StatusHeld              EscrowStatus = models.EscrowStatusHeld
	StatusReleased          EscrowStatus = models.EscrowStatusReleased
	StatusRefunded          EscrowStatus = models.EscrowStatusRefunded
	StatusPartiallyRefunded EscrowStatus = models.EscrowStatusPartiallyRefunded
	StatusDisputed          EscrowStatus = models.EscrowStatusDisputed
)

func (s EscrowStatus) IsValid() bool {
	switch s {
	case StatusHeld, StatusReleased, StatusRefunded, StatusPartiallyRefunded, StatusDisputed:
		return true
	}
	return false
}

// IsTerminal сообщает, достигнут ли конечный статус: из него переходов нет.
func (s EscrowStatus) IsTerminal() bool {
	switch s {
	case StatusReleased, StatusRefunded, StatusPartiallyRefunded:
		return true
	}
	return false
}

// CanTransitionTo проверяет, допустим ли прямой переход между статусами.
// Спорная транзакция сначала возвращается в held (вердикт снимает спор),
// и только оттуда достигает конечных статусов.
func (s EscrowStatus) CanTransitionTo(next EscrowStatus) bool {
	transitions := map[EscrowStatus][]EscrowStatus{
		StatusHeld:              {StatusReleased, StatusRefunded, StatusPartiallyRefunded, StatusDisputed},
		StatusDisputed:          {StatusHeld},
		StatusReleased:          {},
		StatusRefunded:          {},
		StatusPartiallyRefunded: {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == next {
			return true
		}
	}
	return false
}
