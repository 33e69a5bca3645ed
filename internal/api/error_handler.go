package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/veriscribe/signature-api/internal/core/domain"
)

// errorResponse is the single envelope every failed request resolves to.
// Code is a stable machine-readable discriminator; the extra fields only
// appear on the errors that carry them.
type errorResponse struct {
	Error           string   `json:"error"`
	Code            string   `json:"code,omitempty"`
	AvailableModels []string `json:"availableModels,omitempty"`
	Hint            string   `json:"hint,omitempty"`
}

// NewHTTPErrorHandler maps domain errors to transport responses in one place
// so handlers can return errors raw.
func NewHTTPErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := classify(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		}

		if writeErr := c.JSON(status, body); writeErr != nil {
			log.Error().Err(writeErr).Msg("failed to write error response")
		}
	}
}

func classify(err error) (int, errorResponse) {
	var modelErr *domain.ModelNotFoundError
	if errors.As(err, &modelErr) {
		return http.StatusBadRequest, errorResponse{
			Error:           "Unknown signer identity: " + modelErr.Identity,
			Code:            "MODEL_NOT_FOUND",
			AvailableModels: modelErr.Available,
			Hint:            "Train a model for this identity first, or pick one of the available identities.",
		}
	}

	var rejection *domain.WorkerRejection
	if errors.As(err, &rejection) {
		return http.StatusBadRequest, rejectionResponse(rejection)
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg := http.StatusText(httpErr.Code)
		if s, ok := httpErr.Message.(string); ok {
			msg = s
		}
		return httpErr.Code, errorResponse{Error: msg}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "Invalid credentials", Code: "INVALID_CREDENTIALS"}
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusBadRequest, errorResponse{Error: "Email is already registered", Code: "EMAIL_TAKEN"}
	case errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusBadRequest, errorResponse{Error: "Username is already taken", Code: "USERNAME_TAKEN"}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Error: "User not found", Code: "USER_NOT_FOUND"}
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound, errorResponse{Error: "Record not found", Code: "RECORD_NOT_FOUND"}
	case errors.Is(err, domain.ErrUploadTooLarge):
		return http.StatusBadRequest, errorResponse{Error: "Uploaded file is too large", Code: "FILE_TOO_LARGE"}
	case errors.Is(err, domain.ErrUploadBadType):
		return http.StatusBadRequest, errorResponse{Error: "Only image files are accepted", Code: "BAD_FILE_TYPE"}
	case errors.Is(err, domain.ErrWorkerFailed):
		return http.StatusInternalServerError, errorResponse{Error: "Verification failed. Please try again.", Code: "VERIFICATION_FAILED"}
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, errorResponse{Error: "Service temporarily unavailable", Code: "STORE_UNAVAILABLE"}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "Internal server error"}
	}
}

func rejectionResponse(r *domain.WorkerRejection) errorResponse {
	reason := strings.TrimSpace(r.Reason)
	switch r.Kind {
	case domain.RejectInvalidImage:
		if reason == "" {
			reason = "The uploaded image could not be read as a signature."
		}
		return errorResponse{
			Error: reason,
			Code:  "INVALID_IMAGE",
			Hint:  "Upload a clear photo or scan of a handwritten signature.",
		}
	case domain.RejectUncertain:
		if reason == "" {
			reason = "The model could not reach a confident verdict."
		}
		return errorResponse{
			Error: reason,
			Code:  "LOW_CONFIDENCE",
			Hint:  "Try a higher quality image, or verify against a different sample.",
		}
	default:
		if reason == "" {
			reason = "The verification worker reported an error."
		}
		return errorResponse{Error: reason, Code: "WORKER_REJECTED"}
	}
}
