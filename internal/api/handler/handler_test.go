package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/taskboard/internal/api/handler"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "expected data to be a map")
	assert.Equal(t, "ok", data["status"])
}

func TestReadyCheck(t *testing.T) {
	tests := []struct {
		name       string
		store      handler.Pinger
		cache      handler.Pinger
		wantStatus int
		wantRedis  string
	}{
		{"redis disabled", stubPinger{}, nil, http.StatusOK, "disabled"},
		{"all up", stubPinger{}, stubPinger{}, http.StatusOK, "ok"},
		{"redis down is degraded", stubPinger{}, stubPinger{err: errors.New("refused")}, http.StatusOK, "unavailable"},
		{"store down", stubPinger{err: errors.New("no primary")}, stubPinger{}, http.StatusServiceUnavailable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil)
			rec := httptest.NewRecorder()

			handler.ReadyCheck(tt.store, tt.cache)(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, false, body["success"])
				errBody := body["error"].(map[string]any)
				assert.Equal(t, "UNAVAILABLE", errBody["code"])
				return
			}
			data := body["data"].(map[string]any)
			assert.Equal(t, "ready", data["status"])
			assert.Equal(t, tt.wantRedis, data["redis"])
		})
	}
}
