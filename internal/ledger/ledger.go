// Пакет ledger реализует машину состояний escrow-платежа.
// Все операции чистые: принимают снимок транзакции и момент времени,
// возвращают следующий снимок. Пакет не владеет ни часами, ни хранилищем —
// за персистентность и конкурентный доступ отвечает вызывающая сторона.
package ledger

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bookyourshoot/backend/internal/models"
	"github.com/bookyourshoot/backend/internal/pkg/apperror"
)

// Лимиты вложений к спору
const (
	MaxEvidenceFiles     = 5
	MaxEvidenceSizeBytes = 5 << 20
)

// CreateInput содержит параметры создания escrow-транзакции.
type CreateInput struct {
	BookingID       string
	ClientID        uuid.UUID
	PhotographerID  uuid.UUID
	Amount          int64
	PlatformFeeRate float64
	HoldPeriod      time.Duration
}

// Create создаёт транзакцию в статусе held с запланированным авторелизом.
func Create(in CreateInput, now time.Time) (models.EscrowTransaction, error) {
	if strings.TrimSpace(in.BookingID) == "" {
		return models.EscrowTransaction{}, apperror.New(apperror.ErrCodeValidation, "booking_id обязателен")
	}
	if in.Amount <= 0 {
		return models.EscrowTransaction{}, apperror.New(apperror.ErrCodeValidation, "сумма должна быть положительной")
	}
	if in.PlatformFeeRate < 0 || in.PlatformFeeRate > 1 {
		return models.EscrowTransaction{}, apperror.New(apperror.ErrCodeValidation, "комиссия платформы должна быть в диапазоне [0,1]")
	}
	if in.HoldPeriod <= 0 {
		return models.EscrowTransaction{}, apperror.New(apperror.ErrCodeValidation, "период удержания должен быть положительным")
	}

	return models.EscrowTransaction{
		ID:              uuid.New(),
		BookingID:       in.BookingID,
		ClientID:        in.ClientID,
		PhotographerID:  in.PhotographerID,
		Amount:          in.Amount,
		PlatformFeeRate: in.PlatformFeeRate,
		Status:          models.EscrowStatusHeld,
		HoldPeriod:      int64(in.HoldPeriod / time.Second),
		CreatedAt:       now,
		ReleaseAt:       now.Add(in.HoldPeriod),
		Version:         1,
	}, nil
}

// Release переводит held → released. Дата авторелиза замораживается для аудита.
func Release(tx models.EscrowTransaction, now time.Time) (models.EscrowTransaction, error) {
	if err := guardTransition(tx.Status, StatusReleased, "освободить"); err != nil {
		return tx, err
	}
	tx.Status = models.EscrowStatusReleased
	tx.ReleasedAt = &now
	return tx, nil
}

// Refund возвращает средства полностью или частично. Допустим только из held:
// по спорной транзакции возврат проходит через вердикт ResolveDispute.
func Refund(tx models.EscrowTransaction, refundAmount int64, now time.Time) (models.EscrowTransaction, error) {
	if refundAmount <= 0 {
		return tx, apperror.New(apperror.ErrCodeValidation, "сумма возврата должна быть положительной")
	}
	if refundAmount > tx.Amount {
		return tx, apperror.New(apperror.ErrCodeValidation, "сумма возврата не может превышать сумму транзакции")
	}

	next := StatusRefunded
	if refundAmount < tx.Amount {
		next = StatusPartiallyRefunded
	}
	if err := guardTransition(tx.Status, next, "вернуть"); err != nil {
		return tx, err
	}

	tx.Status = string(next)
	tx.RefundAmount = &refundAmount
	tx.ReleasedAt = &now
	return tx, nil
}

// DisputeInput содержит данные открываемого спора. Метаданные вложений
// должны быть проверены вызывающей стороной по содержимому файлов.
type DisputeInput struct {
	OpenedBy          uuid.UUID
	Category          string
	Description       string
	DesiredResolution string
	Evidence          []EvidenceMeta
}

// EvidenceMeta — проверенные метаданные одного вложения.
type EvidenceMeta struct {
	Name      string
	MimeType  string
	SizeBytes int64
}

// OpenDispute переводит held → disputed и создаёт спор.
// Смена статуса сама по себе отменяет авторелиз: опрос релизов и
// обратный отсчёт работают только по held-транзакциям.
func OpenDispute(tx models.EscrowTransaction, in DisputeInput, now time.Time) (models.EscrowTransaction, models.Dispute, error) {
	if !EscrowStatus(tx.Status).CanTransitionTo(StatusDisputed) {
		return tx, models.Dispute{}, apperror.New(apperror.ErrCodeInvalidTransition,
			"платёж уже обработан или спор уже открыт")
	}
	if err := validateDisputeInput(in); err != nil {
		return tx, models.Dispute{}, err
	}

	id := NewDisputeID(now)
	dispute := models.Dispute{
		ID:               id,
		TransactionID:    tx.ID,
		OpenedBy:         in.OpenedBy,
		Category:         in.Category,
		Description:      strings.TrimSpace(in.Description),
		ResolutionStatus: models.DisputeStatusOpen,
		CreatedAt:        now,
	}
	if in.DesiredResolution != "" {
		desired := in.DesiredResolution
		dispute.DesiredResolution = &desired
	}

	tx.Status = models.EscrowStatusDisputed
	tx.DisputeID = &id
	return tx, dispute, nil
}

// VerdictKind определяет исход рассмотрения спора.
type VerdictKind string

const (
	VerdictReinstateHold VerdictKind = "reinstate_hold"
	VerdictRelease       VerdictKind = "release"
	VerdictRefund        VerdictKind = "refund"
)

// Verdict — решение администратора по спору.
type Verdict struct {
	Kind         VerdictKind
	RefundAmount int64
}

// ReinstatePolicy определяет, как пересчитывается авторелиз после
// возврата спора в held: с нуля или с места остановки.
type ReinstatePolicy string

const (
	PolicyRestart ReinstatePolicy = "restart"
	PolicyResume  ReinstatePolicy = "resume"
)

// ResolveDispute закрывает спор и применяет вердикт к транзакции.
func ResolveDispute(tx models.EscrowTransaction, dispute models.Dispute, verdict Verdict, policy ReinstatePolicy, now time.Time) (models.EscrowTransaction, models.Dispute, error) {
	if dispute.ResolutionStatus == models.DisputeStatusResolved {
		return tx, dispute, apperror.New(apperror.ErrCodeInvalidTransition, "спор уже разрешён")
	}
	if tx.DisputeID == nil || *tx.DisputeID != dispute.ID {
		return tx, dispute, apperror.New(apperror.ErrCodeValidation, "спор не относится к этой транзакции")
	}
	if tx.Status != models.EscrowStatusDisputed {
		return tx, dispute, invalidTransition(tx.Status, "разрешить спор по")
	}

	var err error
	switch verdict.Kind {
	case VerdictReinstateHold:
		if err := guardTransition(tx.Status, StatusHeld, "вернуть в удержание"); err != nil {
			return tx, dispute, err
		}
		tx.Status = models.EscrowStatusHeld
		tx.DisputeID = nil
		remaining := tx.HoldDuration()
		if policy == PolicyResume {
			remaining = tx.ReleaseAt.Sub(dispute.CreatedAt)
			if remaining < 0 {
				remaining = 0
			}
		}
		tx.ReleaseAt = now.Add(remaining)
	case VerdictRelease:
		tx.Status = models.EscrowStatusHeld
		tx, err = Release(tx, now)
	case VerdictRefund:
		tx.Status = models.EscrowStatusHeld
		tx, err = Refund(tx, verdict.RefundAmount, now)
	default:
		err = apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("неизвестный вердикт %q", verdict.Kind))
	}
	if err != nil {
		return tx, dispute, err
	}

	resolution := string(verdict.Kind)
	dispute.ResolutionStatus = models.DisputeStatusResolved
	dispute.Resolution = &resolution
	dispute.ResolvedAt = &now
	return tx, dispute, nil
}

// PlatformFee считает комиссию платформы в минимальных единицах валюты
// с округлением до ближайшей единицы (half-up).
func PlatformFee(amount int64, rate float64) int64 {
	if amount <= 0 || rate <= 0 {
		return 0
	}
	fee := int64(float64(amount)*rate + 0.5)
	if fee > amount {
		fee = amount
	}
	return fee
}

// NewDisputeID формирует идентификатор спора вида DIS-<base36 timestamp>.
// Случайный хвост разводит споры, открытые в одну миллисекунду.
func NewDisputeID(now time.Time) string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	ts := strconv.FormatInt(now.UnixMilli(), 36)
	tail := strconv.FormatUint(uint64(binary.BigEndian.Uint32(b[:])), 36)
	return "DIS-" + strings.ToUpper(ts+tail)
}

func guardTransition(current string, next EscrowStatus, action string) error {
	if !EscrowStatus(current).CanTransitionTo(next) {
		return invalidTransition(current, action)
	}
	return nil
}

func validateDisputeInput(in DisputeInput) error {
	if strings.TrimSpace(in.Description) == "" {
		return apperror.New(apperror.ErrCodeValidation, "описание спора обязательно")
	}
	if !isKnownCategory(in.Category) {
		return apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("неизвестная категория спора %q", in.Category))
	}
	if in.DesiredResolution != "" && !isKnownResolution(in.DesiredResolution) {
		return apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("неизвестный желаемый исход %q", in.DesiredResolution))
	}
	if len(in.Evidence) > MaxEvidenceFiles {
		return apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("не более %d вложений", MaxEvidenceFiles))
	}
	for _, ev := range in.Evidence {
		if ev.SizeBytes <= 0 || ev.SizeBytes > MaxEvidenceSizeBytes {
			return apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("вложение %q превышает лимит %d байт", ev.Name, MaxEvidenceSizeBytes))
		}
		if !IsAllowedEvidenceMime(ev.MimeType) {
			return apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("вложение %q имеет неподдерживаемый тип %q", ev.Name, ev.MimeType))
		}
	}
	return nil
}

// IsAllowedEvidenceMime принимает изображения, PDF и простой текст.
func IsAllowedEvidenceMime(mime string) bool {
	if strings.HasPrefix(mime, "image/") {
		return true
	}
	return mime == "application/pdf" || mime == "text/plain"
}

func isKnownCategory(category string) bool {
	switch category {
	case models.DisputeCategoryQuality, models.DisputeCategoryIncomplete, models.DisputeCategoryNoShow,
		models.DisputeCategoryLate, models.DisputeCategoryCommunication, models.DisputeCategoryOther:
		return true
	}
	return false
}

func isKnownResolution(resolution string) bool {
	switch resolution {
	case models.DisputeResolutionFullRefund, models.DisputeResolutionPartialRefund,
		models.DisputeResolutionRedoWork, models.DisputeResolutionMediation:
		return true
	}
	return false
}

func invalidTransition(status, action string) error {
	return apperror.New(apperror.ErrCodeInvalidTransition,
		fmt.Sprintf("нельзя %s платёж в статусе %q", action, status))
}
