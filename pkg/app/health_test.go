package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomsync/pkg/logger"
)

func serveReady(t *testing.T, h *HealthHandler) (int, HealthResponse) {
	t.Helper()
	router := httprouter.New()
	h.RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestReady_AllChecksPass(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	ok := ReadyCheck{Name: "mongo", Run: func(context.Context) error { return nil }}

	code, resp := serveReady(t, NewHealthHandler("mongo", log, ok))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, map[string]string{"mongo": "ok"}, resp.Checks)
}

func TestReady_FailingCheck(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	down := ReadyCheck{Name: "mongo", Run: func(context.Context) error { return errors.New("no primary") }}

	code, resp := serveReady(t, NewHealthHandler("mongo", log, down))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", resp.Status)
	assert.Equal(t, "error", resp.Checks["mongo"])
}
