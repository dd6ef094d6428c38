package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/conductor/pkg/models"
	"github.com/codeready-toolchain/conductor/pkg/tools"
)

// agentTools only reads Server.Catalogs, so it is exercisable without a live
// Runtime or Store — unlike every other handler, which needs a real
// Session Runtime and Store and has no test in this package.
func TestAgentTools_FlattensEveryCatalogEntry(t *testing.T) {
	gin.SetMode(gin.TestMode)

	hrRegistry := tools.NewRegistry([]tools.Tool{
		{Name: "onboard_employee", Description: "onboard a new hire", ParameterSchema: `{"type":"object"}`},
	})
	srv := &Server{Catalogs: map[models.AgentName]*tools.Registry{models.AgentHR: hrRegistry}}

	r := gin.New()
	r.GET("/api/agent-tools", srv.agentTools)

	req := httptest.NewRequest(http.MethodGet, "/api/agent-tools", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "onboard_employee")
	assert.Contains(t, w.Body.String(), `"agent":"HR"`)
}

func TestAgentTools_EmptyCatalogsReturnsEmptyList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &Server{Catalogs: map[models.AgentName]*tools.Registry{}}

	r := gin.New()
	r.GET("/api/agent-tools", srv.agentTools)

	req := httptest.NewRequest(http.MethodGet, "/api/agent-tools", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}
