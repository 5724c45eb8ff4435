package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bookyourshoot/backend/internal/dto"
	"github.com/bookyourshoot/backend/internal/http/handlers/common"
	"github.com/bookyourshoot/backend/internal/service"
	"github.com/bookyourshoot/backend/internal/validation"
)

// PaymentHandler предоставляет HTTP слой для escrow-платежей.
type PaymentHandler struct {
	escrow *service.EscrowService
}

func NewPaymentHandler(escrow *service.EscrowService) *PaymentHandler {
	return &PaymentHandler{escrow: escrow}
}

// CreateHold обрабатывает POST /payments/hold.
// Вызывается клиентом при подтверждении бронирования.
func (h *PaymentHandler) CreateHold(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := validation.ValidateBookingID(req.BookingID); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateAmount(req.Amount); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	photographerID, err := uuid.Parse(req.PhotographerID)
	if err != nil {
		common.RespondBadRequest(c, "неверный photographer_id")
		return
	}

	in := service.CreateHoldInput{
		BookingID:       req.BookingID,
		ClientID:        userID,
		PhotographerID:  photographerID,
		Amount:          req.Amount,
		PlatformFeeRate: req.PlatformFeeRate,
	}
	if req.HoldPeriodHours != nil {
		period := time.Duration(*req.HoldPeriodHours) * time.Hour
		in.HoldPeriod = &period
	}

	tx, err := h.escrow.CreateHold(c.Request.Context(), in)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewTransactionResponse(tx, time.Now()))
}

// Get обрабатывает GET /payments/:id.
func (h *PaymentHandler) Get(c *gin.Context) {
	userID, role, ok := h.actor(c)
	if !ok {
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	tx, err := h.escrow.Get(c.Request.Context(), id, userID, role)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTransactionResponse(tx, time.Now()))
}

// List обрабатывает GET /payments.
func (h *PaymentHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	txs, err := h.escrow.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	now := time.Now()
	responses := make([]*dto.TransactionResponse, 0, len(txs))
	for i := range txs {
		responses = append(responses, dto.NewTransactionResponse(&txs[i], now))
	}

	c.JSON(http.StatusOK, gin.H{"transactions": responses})
}

// Countdown обрабатывает GET /payments/:id/countdown.
func (h *PaymentHandler) Countdown(c *gin.Context) {
	userID, role, ok := h.actor(c)
	if !ok {
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	cd, err := h.escrow.Countdown(c.Request.Context(), id, userID, role)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCountdownResponse(cd))
}

// Release обрабатывает POST /payments/:id/release.
// Клиент подтверждает работу и досрочно освобождает платёж.
func (h *PaymentHandler) Release(c *gin.Context) {
	userID, role, ok := h.actor(c)
	if !ok {
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	tx, err := h.escrow.Release(c.Request.Context(), id, userID, role)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTransactionResponse(tx, time.Now()))
}

// Refund обрабатывает POST /payments/admin/refund/:id.
// Полный или частичный возврат клиенту, только для админа.
func (h *PaymentHandler) Refund(c *gin.Context) {
	_, role, ok := h.actor(c)
	if !ok {
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	tx, err := h.escrow.Refund(c.Request.Context(), id, req.Amount, role)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTransactionResponse(tx, time.Now()))
}

// actor достаёт userID и роль из контекста запроса.
func (h *PaymentHandler) actor(c *gin.Context) (uuid.UUID, string, bool) {
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
