package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookyourshoot/backend/internal/dto"
	"github.com/bookyourshoot/backend/internal/http/handlers/common"
	"github.com/bookyourshoot/backend/internal/service"
	"github.com/bookyourshoot/backend/internal/validation"
)

// PayoutHandler exposes photographer payouts and their admin queue.
type PayoutHandler struct {
	payouts *service.PayoutService
}

func NewPayoutHandler(payouts *service.PayoutService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

// ListMine handles GET /payments/payouts.
func (h *PayoutHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	payouts, err := h.payouts.ListMine(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payouts": payouts})
}

// ListQueue handles GET /payments/admin/payouts.
func (h *PayoutHandler) ListQueue(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	payouts, err := h.payouts.ListByStatus(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payouts": payouts})
}

// Process handles POST /payments/admin/process/:payoutId.
func (h *PayoutHandler) Process(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "payoutId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	payout, err := h.payouts.Process(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, payout)
}

// Reject handles POST /payments/admin/reject/:payoutId.
func (h *PayoutHandler) Reject(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "payoutId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.RejectPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateRejectionReason(req.Reason); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	payout, err := h.payouts.Reject(c.Request.Context(), id, req.Reason)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, payout)
}
