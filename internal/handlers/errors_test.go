package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/logger"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/policy"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/service"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, logger.Nop(), 418, "Teapot", "", nil)

	assert.Equal(t, 418, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Teapot"}`, recorder.Body.String())
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.FromZap(zap.New(core))

	recorder := httptest.NewRecorder()
	respondWithError(recorder, log, 500, ErrInternalServerError, "", errors.New("boom"))

	entries := logs.FilterMessage(ErrInternalServerError).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].ContextMap()["error"])
}

func TestRespondWithServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"validation", service.ValidationError("display_name", "display name is required"), http.StatusBadRequest, "display name is required"},
		{"conflict", service.ConflictError("login already has a profile"), http.StatusConflict, ErrConflict},
		{"unauthorized", service.AuthorizationError(policy.TableProfiles, policy.OpUpdate), http.StatusForbidden, ErrForbidden},
		{"not found", service.ErrNotFound, http.StatusNotFound, ErrNotFound},
		{"atomicity", service.AtomicityError("onboard child", errors.New("disk full")), http.StatusInternalServerError, ErrInternalServerError},
		{"wrapped not found", fmt.Errorf("lookup: %w", service.ErrNotFound), http.StatusNotFound, ErrNotFound},
		{"unknown", errors.New("driver exploded"), http.StatusInternalServerError, ErrInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondWithServiceError(recorder, logger.Nop(), "test", tt.err)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			var body errorResponse
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body.Error)
		})
	}
}
