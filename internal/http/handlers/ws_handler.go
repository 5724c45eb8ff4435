package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bookyourshoot/backend/internal/service"
	"github.com/bookyourshoot/backend/internal/ws"
)

// WSHandler отвечает за установку WebSocket соединений с потоком
// обратного отсчёта.
type WSHandler struct {
	escrow       *service.EscrowService
	tokenManager *service.TokenManager
	upgrader     websocket.Upgrader
}

func NewWSHandler(escrow *service.EscrowService, tokens *service.TokenManager) *WSHandler {
	return &WSHandler{
		escrow:       escrow,
		tokenManager: tokens,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// StreamCountdown обслуживает GET /api/ws/payments/:id/countdown?token=...
// Браузерные WebSocket не умеют заголовок Authorization, токен идёт в query.
func (h *WSHandler) StreamCountdown(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access токен обязателен"})
		return
	}

	userID, role, err := h.tokenManager.ParseAccess(rawToken)
	if err != nil || userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "невалидный access токен"})
		return
	}

	txID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор транзакции"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stream := ws.NewCountdownStream(conn, h.escrow, txID, userID, role)
	stream.Run(c.Request.Context())
}
