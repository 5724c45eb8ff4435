package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DisputeStatusOpen     = "open"
	DisputeStatusInReview = "in_review"
	DisputeStatusResolved = "resolved"
)

// Категории споров
const (
	DisputeCategoryQuality       = "quality"
	DisputeCategoryIncomplete    = "incomplete"
	DisputeCategoryNoShow        = "noshow"
	DisputeCategoryLate          = "late"
	DisputeCategoryCommunication = "communication"
	DisputeCategoryOther         = "other"
)

// Желаемые исходы спора
const (
	DisputeResolutionFullRefund    = "full_refund"
	DisputeResolutionPartialRefund = "partial_refund"
	DisputeResolutionRedoWork      = "redo_work"
	DisputeResolutionMediation     = "mediation"
)

type Dispute struct {
	ID                string     `db:"id" json:"id"`
	TransactionID     uuid.UUID  `db:"transaction_id" json:"transaction_id"`
	OpenedBy          uuid.UUID  `db:"opened_by" json:"opened_by"`
	Category          string     `db:"category" json:"category"`
	Description       string     `db:"description" json:"description"`
	DesiredResolution *string    `db:"desired_resolution" json:"desired_resolution,omitempty"`
	ResolutionStatus  string     `db:"resolution_status" json:"resolution_status"`
	Resolution        *string    `db:"resolution" json:"resolution,omitempty"`
	ResolvedBy        *uuid.UUID `db:"resolved_by" json:"resolved_by,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt        *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// EvidenceFile описывает вложение к спору. Сами байты лежат в файловом
// хранилище, здесь только проверенные метаданные.
type EvidenceFile struct {
	ID         uuid.UUID `db:"id" json:"id"`
	DisputeID  string    `db:"dispute_id" json:"dispute_id"`
	Name       string    `db:"name" json:"name"`
	MimeType   string    `db:"mime_type" json:"mime_type"`
	SizeBytes  int64     `db:"size_bytes" json:"size_bytes"`
	Path       string    `db:"path" json:"-"`
	UploadedAt time.Time `db:"uploaded_at" json:"uploaded_at"`
}
