package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestPayoutHandler_ListMine_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PayoutHandler{payouts: nil}
	r.GET("/payments/payouts", handler.ListMine)

	req, _ := http.NewRequest("GET", "/payments/payouts", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPayoutHandler_Process_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PayoutHandler{payouts: nil}
	r.POST("/payments/admin/process/:payoutId", handler.Process)

	req, _ := http.NewRequest("POST", "/payments/admin/process/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPayoutHandler_Reject_MissingReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PayoutHandler{payouts: nil}
	r.POST("/payments/admin/reject/:payoutId", handler.Reject)

	req, _ := http.NewRequest("POST", "/payments/admin/reject/f6f2b2aa-12d2-4bb3-8f3f-0f6f7ad1a001", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPayoutHandler_Reject_ShortReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PayoutHandler{payouts: nil}
	r.POST("/payments/admin/reject/:payoutId", handler.Reject)

	req, _ := http.NewRequest("POST", "/payments/admin/reject/f6f2b2aa-12d2-4bb3-8f3f-0f6f7ad1a001", strings.NewReader(`{"reason":"ok"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
