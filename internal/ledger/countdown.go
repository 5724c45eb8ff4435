package ledger

import (
	"time"

	"github.com/bookyourshoot/backend/internal/models"
)

// Countdown — мгновенный снимок обратного отсчёта до авторелиза.
// Чистая функция от (транзакция, now): пересчитывается на каждый тик,
// ничего не кэшируется и не мутируется.
type Countdown struct {
	Status          string  `json:"status"`
	DaysLeft        int     `json:"days_left"`
	HoursLeft       int     `json:"hours_left"`
	MinutesLeft     int     `json:"minutes_left"`
	SecondsLeft     int     `json:"seconds_left"`
	Expired         bool    `json:"expired"`
	ProgressPercent float64 `json:"progress_percent"`
	Display         string  `json:"display,omitempty"`
}

// ComputeCountdown раскладывает оставшееся время на дни/часы/минуты/секунды
// (целочисленное деление с округлением вниз) и считает процент пройденного
// периода удержания. Для не-held статусов числовых полей нет — только
// фиксированная подпись статуса.
func ComputeCountdown(tx *models.EscrowTransaction, now time.Time) Countdown {
	if tx.Status != models.EscrowStatusHeld {
		return Countdown{Status: tx.Status, Display: statusDisplay(tx.Status)}
	}

	diff := tx.ReleaseAt.Sub(now)
	if diff <= 0 {
		return Countdown{
			Status:          tx.Status,
			Expired:         true,
			ProgressPercent: 100,
		}
	}

	secs := int64(diff / time.Second)
	total := tx.HoldDuration()

	progress := float64(total-diff) / float64(total) * 100
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	return Countdown{
		Status:          tx.Status,
		DaysLeft:        int(secs / 86400),
		HoursLeft:       int(secs % 86400 / 3600),
		MinutesLeft:     int(secs % 3600 / 60),
		SecondsLeft:     int(secs % 60),
		ProgressPercent: progress,
	}
}

func statusDisplay(status string) string {
	switch status {
	case models.EscrowStatusReleased:
		return "released"
	case models.EscrowStatusRefunded, models.EscrowStatusPartiallyRefunded:
		return "refunded"
	case models.EscrowStatusDisputed:
		return "disputed"
	}
	return status
}
