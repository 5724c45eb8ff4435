package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/bookyourshoot/backend/internal/ledger"
	"github.com/bookyourshoot/backend/internal/models"
	"github.com/bookyourshoot/backend/internal/pkg/apperror"
)

// DisputeRepository is the storage surface the dispute service depends on.
type DisputeRepository interface {
	CreateWithTransaction(ctx context.Context, dispute *models.Dispute, escrowTx *models.EscrowTransaction) error
	ResolveWithTransaction(ctx context.Context, dispute *models.Dispute, escrowTx *models.EscrowTransaction, payout *models.Payout) error
	GetByID(ctx context.Context, id string) (*models.Dispute, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Dispute, error)
	SetInReview(ctx context.Context, id string) (*models.Dispute, error)
	AddEvidence(ctx context.Context, ev *models.EvidenceFile) error
	ListEvidence(ctx context.Context, disputeID string) ([]models.EvidenceFile, error)
	CountEvidence(ctx context.Context, disputeID string) (int, error)
}

// EvidenceStorage persists evidence file contents outside the database.
type EvidenceStorage interface {
	Save(disputeID, filename string, data []byte) (string, error)
}

// DisputeService handles dispute lifecycle: opening, evidence, admin review
// and resolution. Escrow side effects go through the ledger package so the
// interlock with the payment state machine lives in one place.
type DisputeService struct {
	disputes        DisputeRepository
	escrow          EscrowRepository
	storage         EvidenceStorage
	reinstatePolicy ledger.ReinstatePolicy
	clock           func() time.Time
}

func NewDisputeService(disputes DisputeRepository, escrow EscrowRepository, storage EvidenceStorage, reinstatePolicy ledger.ReinstatePolicy) *DisputeService {
	return &DisputeService{
		disputes:        disputes,
		escrow:          escrow,
		storage:         storage,
		reinstatePolicy: reinstatePolicy,
		clock:           time.Now,
	}
}

// OpenDisputeInput carries a client's dispute request.
type OpenDisputeInput struct {
	TransactionID     uuid.UUID
	OpenedBy          uuid.UUID
	Category          string
	Description       string
	DesiredResolution string
}

// Open files a dispute against a held transaction. Only the client of the
// transaction can open one; the escrow switches to disputed in the same
// database transaction, which freezes auto-release.
func (s *DisputeService) Open(ctx context.Context, in OpenDisputeInput) (*models.Dispute, error) {
	escrowTx, err := s.escrow.GetByID(ctx, in.TransactionID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if escrowTx.ClientID != in.OpenedBy {
		return nil, apperror.ErrForbidden
	}

	updated, dispute, err := ledger.OpenDispute(*escrowTx, ledger.DisputeInput{
		OpenedBy:          in.OpenedBy,
		Category:          in.Category,
		Description:       in.Description,
		DesiredResolution: in.DesiredResolution,
	}, s.clock())
	if err != nil {
		return nil, err
	}

	if err := s.disputes.CreateWithTransaction(ctx, &dispute, &updated); err != nil {
		return nil, mapRepoError(err)
	}
	return &dispute, nil
}

// AddEvidence attaches a file to an open dispute. The MIME type is sniffed
// from the file contents, never trusted from the client.
func (s *DisputeService) AddEvidence(ctx context.Context, disputeID string, actorID uuid.UUID, name string, data []byte) (*models.EvidenceFile, error) {
	dispute, err := s.loadDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if dispute.OpenedBy != actorID {
		return nil, apperror.ErrForbidden
	}
	if dispute.ResolutionStatus == models.DisputeStatusResolved {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition, "спор уже разрешён")
	}

	if len(data) == 0 || int64(len(data)) > ledger.MaxEvidenceSizeBytes {
		return nil, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("файл %q превышает лимит %d байт", name, ledger.MaxEvidenceSizeBytes))
	}

	count, err := s.disputes.CountEvidence(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if count >= ledger.MaxEvidenceFiles {
		return nil, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("не более %d вложений на спор", ledger.MaxEvidenceFiles))
	}

	mime := sniffEvidenceMime(data)
	if !ledger.IsAllowedEvidenceMime(mime) {
		return nil, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("неподдерживаемый тип файла %q", mime))
	}

	path, err := s.storage.Save(disputeID, name, data)
	if err != nil {
		return nil, err
	}

	ev := &models.EvidenceFile{
		ID:         uuid.New(),
		DisputeID:  disputeID,
		Name:       name,
		MimeType:   mime,
		SizeBytes:  int64(len(data)),
		Path:       path,
		UploadedAt: s.clock(),
	}
	if err := s.disputes.AddEvidence(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Get returns a dispute. Visible to the opener, both transaction parties
// and admins.
func (s *DisputeService) Get(ctx context.Context, id string, actorID uuid.UUID, role string) (*models.Dispute, error) {
	dispute, err := s.loadDispute(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == models.RoleAdmin || dispute.OpenedBy == actorID {
		return dispute, nil
	}
	escrowTx, err := s.escrow.GetByID(ctx, dispute.TransactionID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !canView(escrowTx, actorID, role) {
		return nil, apperror.ErrForbidden
	}
	return dispute, nil
}

// Evidence lists attachments of a dispute with the same visibility as Get.
func (s *DisputeService) Evidence(ctx context.Context, id string, actorID uuid.UUID, role string) ([]models.EvidenceFile, error) {
	if _, err := s.Get(ctx, id, actorID, role); err != nil {
		return nil, err
	}
	return s.disputes.ListEvidence(ctx, id)
}

// ListMine returns disputes opened by the user.
func (s *DisputeService) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.disputes.ListByUser(ctx, userID, limit, offset)
}

// ListByStatus is the admin review queue.
func (s *DisputeService) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Dispute, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.disputes.ListByStatus(ctx, status, limit, offset)
}

// Review marks an open dispute as in_review. The transition is one way.
func (s *DisputeService) Review(ctx context.Context, id string) (*models.Dispute, error) {
	dispute, err := s.disputes.SetInReview(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return dispute, nil
}

// Resolve applies an admin verdict. A release verdict also schedules the
// photographer payout in the same database transaction.
func (s *DisputeService) Resolve(ctx context.Context, id string, adminID uuid.UUID, verdict ledger.Verdict) (*models.Dispute, error) {
	dispute, err := s.loadDispute(ctx, id)
	if err != nil {
		return nil, err
	}
	escrowTx, err := s.escrow.GetByID(ctx, dispute.TransactionID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	now := s.clock()
	updatedTx, updatedDispute, err := ledger.ResolveDispute(*escrowTx, *dispute, verdict, s.reinstatePolicy, now)
	if err != nil {
		return nil, err
	}
	updatedDispute.ResolvedBy = &adminID

	var payout *models.Payout
	if verdict.Kind == ledger.VerdictRelease {
		payout = buildPayout(&updatedTx, now)
	}

	if err := s.disputes.ResolveWithTransaction(ctx, &updatedDispute, &updatedTx, payout); err != nil {
		return nil, mapRepoError(err)
	}
	return &updatedDispute, nil
}

func (s *DisputeService) loadDispute(ctx context.Context, id string) (*models.Dispute, error) {
	dispute, err := s.disputes.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return dispute, nil
}

// sniffEvidenceMime detects the content type from the file bytes. filetype
// covers images and PDF; plain text falls through to the stdlib detector.
func sniffEvidenceMime(data []byte) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	detected := http.DetectContentType(data)
	if detected == "text/plain; charset=utf-8" {
		return "text/plain"
	}
	return detected
}
