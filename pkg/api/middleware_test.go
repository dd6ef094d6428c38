package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", requireUserPrincipal(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_principal_id": userPrincipal(c)})
	})
	return r
}

func TestRequireUserPrincipal_RejectsMissingHeader(t *testing.T) {
	r := newTestEngine()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequireUserPrincipal_RejectsEmptyHeader(t *testing.T) {
	r := newTestEngine()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("user_principal_id", "")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequireUserPrincipal_PassesThroughValidHeader(t *testing.T) {
	r := newTestEngine()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("user_principal_id", "user-42")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-42")
}
