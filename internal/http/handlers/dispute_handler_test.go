package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/bookyourshoot/backend/internal/http/middleware"
	"github.com/bookyourshoot/backend/internal/models"
)

func TestDisputeHandler_Create_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DisputeHandler{disputes: nil}
	r.POST("/disputes/create", handler.Create)

	req, _ := http.NewRequest("POST", "/disputes/create", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDisputeHandler_Create_ShortDescription(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DisputeHandler{disputes: nil}
	r.POST("/disputes/create", func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uuid.New())
		c.Set(middleware.ContextRoleKey, models.RoleClient)
		handler.Create(c)
	})

	body := `{"transaction_id":"` + uuid.NewString() + `","category":"quality","description":"мало"}`
	req, _ := http.NewRequest("POST", "/disputes/create", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDisputeHandler_Create_InvalidTransactionID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DisputeHandler{disputes: nil}
	r.POST("/disputes/create", func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uuid.New())
		c.Set(middleware.ContextRoleKey, models.RoleClient)
		handler.Create(c)
	})

	body := `{"transaction_id":"not-a-uuid","category":"quality","description":"фотограф не отдал обработанные снимки"}`
	req, _ := http.NewRequest("POST", "/disputes/create", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDisputeHandler_UploadEvidence_NoFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DisputeHandler{disputes: nil}
	r.POST("/disputes/:disputeId/evidence", func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uuid.New())
		handler.UploadEvidence(c)
	})

	req, _ := http.NewRequest("POST", "/disputes/DIS-TEST1/evidence", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDisputeHandler_ListForReview_UnknownStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DisputeHandler{disputes: nil}
	r.GET("/admin/disputes", handler.ListForReview)

	req, _ := http.NewRequest("GET", "/admin/disputes?status=bogus", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
