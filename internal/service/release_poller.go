package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bookyourshoot/backend/internal/logger"
	"github.com/bookyourshoot/backend/internal/pkg/apperror"
)

// ReleasePoller периодически освобождает платежи с истёкшим периодом
// удержания. Таймеров на каждую транзакцию нет: единственный источник
// истины — release_at в базе, поэтому рестарт сервиса ничего не теряет.
type ReleasePoller struct {
	escrow    *EscrowService
	interval  time.Duration
	batchSize int
}

func NewReleasePoller(escrow *EscrowService, interval time.Duration, batchSize int) *ReleasePoller {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ReleasePoller{
		escrow:    escrow,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run крутит цикл опроса до отмены контекста.
func (p *ReleasePoller) Run(ctx context.Context) {
	logger.Log.WithField("interval", p.interval.String()).Info("Запущен авторелиз платежей")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Авторелиз платежей остановлен")
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick обрабатывает один пакет готовых к релизу транзакций.
func (p *ReleasePoller) tick(ctx context.Context) {
	due, err := p.escrow.DueForRelease(ctx, p.batchSize)
	if err != nil {
		logger.Log.WithError(err).Error("Авторелиз: не удалось получить транзакции")
		return
	}

	for i := range due {
		tx := due[i]
		if err := p.escrow.AutoRelease(ctx, &tx); err != nil {
			// Гонка с ручным релизом, возвратом или открытием спора —
			// транзакция уже ушла из held, пропускаем без шума.
			if apperror.IsInvalidTransition(err) || apperror.IsConflict(err) {
				logger.Log.WithFields(logrus.Fields{
					"transaction_id": tx.ID,
				}).Debug("Авторелиз: транзакция уже обработана параллельно")
				continue
			}
			logger.Log.WithError(err).WithFields(logrus.Fields{
				"transaction_id": tx.ID,
			}).Error("Авторелиз: не удалось освободить платёж")
			continue
		}
		logger.Log.WithFields(logrus.Fields{
			"transaction_id": tx.ID,
			"booking_id":     tx.BookingID,
		}).Info("Платёж освобождён по истечении периода удержания")
	}
}
