package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bookyourshoot/backend/internal/dto"
	"github.com/bookyourshoot/backend/internal/http/handlers/common"
	"github.com/bookyourshoot/backend/internal/ledger"
	"github.com/bookyourshoot/backend/internal/models"
	"github.com/bookyourshoot/backend/internal/service"
	"github.com/bookyourshoot/backend/internal/validation"
)

// DisputeHandler exposes the dispute lifecycle over HTTP.
type DisputeHandler struct {
	disputes *service.DisputeService
}

func NewDisputeHandler(disputes *service.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputes: disputes}
}

// Create handles POST /disputes/create.
func (h *DisputeHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.OpenDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := validation.ValidateDisputeDescription(req.Description); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	transactionID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		common.RespondBadRequest(c, "неверный transaction_id")
		return
	}

	dispute, err := h.disputes.Open(c.Request.Context(), service.OpenDisputeInput{
		TransactionID:     transactionID,
		OpenedBy:          userID,
		Category:          req.Category,
		Description:       req.Description,
		DesiredResolution: req.DesiredResolution,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dispute)
}

// Get handles GET /disputes/:disputeId.
func (h *DisputeHandler) Get(c *gin.Context) {
	userID, role, ok := disputeActor(c)
	if !ok {
		return
	}

	disputeID := c.Param("disputeId")
	dispute, err := h.disputes.Get(c.Request.Context(), disputeID, userID, role)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	evidence, err := h.disputes.Evidence(c.Request.Context(), disputeID, userID, role)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DisputeResponse{Dispute: dispute, Evidence: evidence})
}

// ListMine handles GET /disputes.
func (h *DisputeHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	disputes, err := h.disputes.ListMine(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"disputes": disputes})
}

// UploadEvidence handles POST /disputes/:disputeId/evidence.
// Accepts a multipart file; the content type is sniffed server-side.
func (h *DisputeHandler) UploadEvidence(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID := c.Param("disputeId")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "файл обязателен")
		return
	}
	if fileHeader.Size > ledger.MaxEvidenceSizeBytes {
		common.RespondBadRequest(c, "файл превышает лимит размера")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		common.RespondInternalError(c, "")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, ledger.MaxEvidenceSizeBytes+1))
	if err != nil {
		common.RespondInternalError(c, "")
		return
	}
	if int64(len(data)) > ledger.MaxEvidenceSizeBytes {
		common.RespondBadRequest(c, "файл превышает лимит размера")
		return
	}

	ev, err := h.disputes.AddEvidence(c.Request.Context(), disputeID, userID, fileHeader.Filename, data)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ev)
}

// ListForReview handles GET /admin/disputes.
func (h *DisputeHandler) ListForReview(c *gin.Context) {
	status := c.DefaultQuery("status", models.DisputeStatusOpen)
	switch status {
	case models.DisputeStatusOpen, models.DisputeStatusInReview, models.DisputeStatusResolved:
	default:
		common.RespondBadRequest(c, "неизвестный статус спора")
		return
	}

	limit, offset := common.GetPagination(c)
	disputes, err := h.disputes.ListByStatus(c.Request.Context(), status, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"disputes": disputes})
}

// Review handles POST /admin/disputes/:disputeId/review.
func (h *DisputeHandler) Review(c *gin.Context) {
	dispute, err := h.disputes.Review(c.Request.Context(), c.Param("disputeId"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

// Resolve handles POST /admin/disputes/:disputeId/resolve.
func (h *DisputeHandler) Resolve(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	verdict := ledger.Verdict{
		Kind:         ledger.VerdictKind(strings.ToLower(req.Verdict)),
		RefundAmount: req.RefundAmount,
	}

	dispute, err := h.disputes.Resolve(c.Request.Context(), c.Param("disputeId"), adminID, verdict)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

func disputeActor(c *gin.Context) (uuid.UUID, string, bool) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return uuid.Nil, "", false
	}
	role, err := common.CurrentUserRole(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return uuid.Nil, "", false
	}
	return userID, role, true
}
