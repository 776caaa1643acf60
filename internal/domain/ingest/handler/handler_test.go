package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/savohq/statement-ingest/internal/domain/ingest"
)

func testHandler() *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(nil, func(*gin.Context) (uuid.UUID, bool) { return uuid.New(), true }, logger)
}

func TestWriteError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"duplicate period", &ingest.DuplicateError{Reason: ingest.DuplicatePeriod, Msg: "already imported"}, http.StatusConflict},
		{"duplicate file", &ingest.DuplicateError{Reason: ingest.DuplicateFile, Msg: "same file"}, http.StatusConflict},
		{"upload processing", ingest.ErrUploadProcessing, http.StatusConflict},
		{"file too large", ingest.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"unsupported media type", ingest.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType},
		{"not found", ingest.ErrNotFound, http.StatusNotFound},
		{"unsupported bank", ingest.ErrUnsupportedBankFormat, http.StatusBadRequest},
		{"validation", ingest.Validationf("file name is required"), http.StatusBadRequest},
		{"unexpected", assert.AnError, http.StatusInternalServerError},
	}

	h := testHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)

			h.writeError(c, tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestWriteError_DuplicateCarriesReason(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	testHandler().writeError(c, &ingest.DuplicateError{Reason: ingest.DuplicatePeriod, Msg: "already imported"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"already imported","reason":"period_sample_match"}`, rec.Body.String())
}

func TestRoutes_RequireIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(nil, func(*gin.Context) (uuid.UUID, bool) { return uuid.Nil, false }, logger)

	router := gin.New()
	h.Register(router)

	requests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/statements/upload"},
		{http.MethodGet, "/statements/history"},
		{http.MethodGet, "/statements/" + uuid.NewString() + "/status"},
		{http.MethodDelete, "/statements/" + uuid.NewString()},
		{http.MethodPost, "/statements/" + uuid.NewString() + "/retry"},
	}

	for _, r := range requests {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(r.method, r.path, nil)
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestStatus_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	testHandler().Register(router)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/statements/not-a-uuid/status", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
