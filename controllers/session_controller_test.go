package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"PhotoReveal/config"
	"PhotoReveal/services/registry"
	"PhotoReveal/services/store/storetest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(mem *storetest.MemStore) (*gin.Engine, *registry.Registry) {
	gin.SetMode(gin.TestMode)
	reg := registry.New(mem, nil, &config.Settings{
		MaxParticipants: 50,
		SessionExpiry:   24 * time.Hour,
		CodeLength:      6,
	}, nil)

	router := gin.New()
	router.POST("/api/sessions", CreateSession(reg))
	router.GET("/api/sessions/:code", GetSession(reg))
	return router, reg
}

func TestCreateSessionEndpoint(t *testing.T) {
	mem := storetest.New()
	router, _ := setupRouter(mem)

	body, _ := json.Marshal(gin.H{"name": "Reveal night"})
	req, _ := http.NewRequest("POST", "/api/sessions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	code, ok := response["code"].(string)
	require.True(t, ok)
	assert.Regexp(t, `^[A-Z0-9]{6}$`, code)

	session, ok := response["session"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Reveal night", session["name"])
	assert.Equal(t, code, session["code"])
	assert.Equal(t, true, session["active"])
}

func TestCreateSessionRejectsBadBodies(t *testing.T) {
	mem := storetest.New()
	router, _ := setupRouter(mem)

	cases := []string{
		`{"name": ""}`,
		`{"name": "` + strings.Repeat("x", 51) + `"}`,
		`{broken`,
	}
	for _, body := range cases {
		req, _ := http.NewRequest("POST", "/api/sessions", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}
	assert.Empty(t, mem.Sessions)
}

func TestGetSessionEndpoint(t *testing.T) {
	mem := storetest.New()
	router, reg := setupRouter(mem)

	session, err := reg.CreateSession("Reveal night")
	require.NoError(t, err)

	req, _ := http.NewRequest("GET", "/api/sessions/"+session.Code, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, session.ID, response["id"])
	assert.Equal(t, session.Code, response["code"])
	assert.Equal(t, "Reveal night", response["name"])
}

func TestGetSessionNotFoundAndMalformed(t *testing.T) {
	mem := storetest.New()
	router, _ := setupRouter(mem)

	req, _ := http.NewRequest("GET", "/api/sessions/AB12CD", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Lowercase and wrong-length codes fail validation before any lookup
	for _, code := range []string{"ab12cd", "AB12C", "AB12CD7"} {
		req, _ := http.NewRequest("GET", "/api/sessions/"+code, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "code %s", code)
	}
}
