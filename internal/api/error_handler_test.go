package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/veriscribe/signature-api/internal/core/domain"
)

func handleError(t *testing.T, err error) (int, map[string]any) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler()(err, c)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error response is not JSON: %s", rec.Body.String())
	}
	return rec.Code, body
}

func TestErrorHandler_SentinelMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{domain.ErrEmailTaken, http.StatusBadRequest, "EMAIL_TAKEN"},
		{domain.ErrUsernameTaken, http.StatusBadRequest, "USERNAME_TAKEN"},
		{domain.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
		{domain.ErrRecordNotFound, http.StatusNotFound, "RECORD_NOT_FOUND"},
		{domain.ErrUploadTooLarge, http.StatusBadRequest, "FILE_TOO_LARGE"},
		{domain.ErrUploadBadType, http.StatusBadRequest, "BAD_FILE_TYPE"},
		{domain.ErrWorkerFailed, http.StatusInternalServerError, "VERIFICATION_FAILED"},
		{domain.ErrStoreUnavailable, http.StatusServiceUnavailable, "STORE_UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, body := handleError(t, tt.err)
			if status != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, status)
			}
			if body["code"] != tt.code {
				t.Fatalf("expected code %s, got %v", tt.code, body["code"])
			}
		})
	}
}

func TestErrorHandler_WrappedSentinelStillMaps(t *testing.T) {
	status, body := handleError(t, fmt.Errorf("find user: %w", domain.ErrUserNotFound))
	if status != http.StatusNotFound || body["code"] != "USER_NOT_FOUND" {
		t.Fatalf("wrapped sentinel misrouted: %d %v", status, body)
	}
}

func TestErrorHandler_ModelNotFoundCarriesAvailableModels(t *testing.T) {
	status, body := handleError(t, &domain.ModelNotFoundError{
		Identity:  "mallory",
		Available: []string{"alice", "bob"},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if body["code"] != "MODEL_NOT_FOUND" {
		t.Fatalf("unexpected code: %v", body["code"])
	}
	models, ok := body["availableModels"].([]any)
	if !ok || len(models) != 2 {
		t.Fatalf("availableModels missing: %v", body)
	}
	if body["hint"] == nil {
		t.Fatalf("hint missing: %v", body)
	}
}

func TestErrorHandler_WorkerRejections(t *testing.T) {
	tests := []struct {
		kind domain.RejectionKind
		code string
	}{
		{domain.RejectInvalidImage, "INVALID_IMAGE"},
		{domain.RejectUncertain, "LOW_CONFIDENCE"},
		{domain.RejectError, "WORKER_REJECTED"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, body := handleError(t, &domain.WorkerRejection{Kind: tt.kind, Reason: "because"})
			if status != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", status)
			}
			if body["code"] != tt.code {
				t.Fatalf("expected code %s, got %v", tt.code, body["code"])
			}
			if body["error"] != "because" {
				t.Fatalf("reason should be surfaced verbatim, got %v", body["error"])
			}
		})
	}
}

func TestErrorHandler_OpaqueFailureHidesDetail(t *testing.T) {
	status, body := handleError(t, errors.New("pq: connection refused on 10.0.0.3"))
	if status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	if body["error"] != "Internal server error" {
		t.Fatalf("internal detail leaked: %v", body["error"])
	}
}

func TestErrorHandler_EchoHTTPErrorPassthrough(t *testing.T) {
	status, body := handleError(t, echo.NewHTTPError(http.StatusBadRequest, "age must be a number between 0 and 150"))
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if body["error"] != "age must be a number between 0 and 150" {
		t.Fatalf("validation message lost: %v", body["error"])
	}
}
