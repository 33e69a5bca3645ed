package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/veriscribe/signature-api/internal/api/metrics"
	"github.com/veriscribe/signature-api/internal/core/domain"
	"github.com/veriscribe/signature-api/internal/core/ports"
	"github.com/veriscribe/signature-api/internal/infrastructure/storage"
)

// VerifyHandler exposes the verification pipeline and the history ledger.
type VerifyHandler struct {
	verify  ports.VerifyService
	history ports.HistoryService
	store   *storage.Store
}

func NewVerifyHandler(verify ports.VerifyService, history ports.HistoryService, store *storage.Store) *VerifyHandler {
	return &VerifyHandler{verify: verify, history: history, store: store}
}

// Predict godoc
// @Summary Verify a signature image against a reference identity
// @Description Accepts an image and the identity to check it against. Works
// @Description for anonymous callers too; only authenticated results are
// @Description recorded in history.
// @Tags verify
// @Accept mpfd
// @Produce json
// @Param signature formData file true "Signature image"
// @Param identity formData string true "Reference identity to verify against"
// @Success 200 {object} ports.PredictResult
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/verify [post]
func (h *VerifyHandler) Predict(c echo.Context) error {
	identity := strings.TrimSpace(c.FormValue("identity"))
	if identity == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "identity is required")
	}

	fh, err := c.FormFile("signature")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "signature image is required")
	}

	staged, err := h.store.Accept(fh)
	if err != nil {
		return err
	}
	// Promote consumes the staged file on success; Discard is a no-op then.
	defer staged.Discard()

	var userID string
	if claims := optionalClaims(c); claims != nil {
		userID = claims.UserID
	}

	start := time.Now()
	result, err := h.verify.Predict(c.Request().Context(), ports.PredictInput{
		UserID:       userID,
		StagedPath:   staged.Path,
		OriginalName: staged.OriginalName,
		Identity:     identity,
	})

	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.VerificationDuration.WithLabelValues(outcomeLabel(err)).Observe(elapsed)
		return err
	}

	metrics.VerificationDuration.WithLabelValues("success").Observe(elapsed)
	metrics.VerificationsTotal.WithLabelValues(string(result.Label)).Inc()
	return c.JSON(http.StatusOK, result)
}

// outcomeLabel buckets a failed verification for the duration histogram and
// bumps the matching failure counter as a side effect.
func outcomeLabel(err error) string {
	var rejection *domain.WorkerRejection
	switch {
	case errors.As(err, &rejection):
		metrics.VerificationRejectionsTotal.WithLabelValues(string(rejection.Kind)).Inc()
		return "rejected"
	case errors.Is(err, domain.ErrModelNotFound):
		return "model_not_found"
	case errors.Is(err, domain.ErrWorkerFailed):
		metrics.WorkerFailuresTotal.Inc()
		return "failed"
	default:
		return "failed"
	}
}

// History godoc
// @Summary List the caller's verification history
// @Description Paginated, newest first. The summary block always covers the
// @Description caller's entire history regardless of filters.
// @Tags history
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Param limit query int false "Page size, capped at 50"
// @Param search query string false "Case-insensitive match on the reference identity"
// @Param date query string false "Single day filter, YYYY-MM-DD"
// @Param status query string false "all, genuine or forged"
// @Success 200 {object} ports.HistoryPage
// @Failure 401 {object} errorResponse
// @Router /api/history [get]
func (h *VerifyHandler) History(c echo.Context) error {
	claims, err := sessionClaims(c)
	if err != nil {
		return err
	}

	q, err := parseHistoryQuery(c)
	if err != nil {
		return err
	}

	page, err := h.history.List(c.Request().Context(), claims.UserID, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// DeleteRecord godoc
// @Summary Delete one history record
// @Tags history
// @Produce json
// @Param id path string true "Record id"
// @Success 200 {object} messageResponse
// @Failure 404 {object} errorResponse
// @Router /api/history/{id} [delete]
func (h *VerifyHandler) DeleteRecord(c echo.Context) error {
	claims, err := sessionClaims(c)
	if err != nil {
		return err
	}

	if err := h.history.DeleteOne(c.Request().Context(), claims.UserID, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Record deleted"})
}

// BulkDelete godoc
// @Summary Delete a set of history records
// @Description Ids that are malformed or not owned by the caller are skipped.
// @Tags history
// @Accept json
// @Produce json
// @Param request body bulkDeleteRequest true "Record ids"
// @Success 200 {object} deletedResponse
// @Failure 400 {object} errorResponse
// @Router /api/history/bulk-delete [post]
func (h *VerifyHandler) BulkDelete(c echo.Context) error {
	claims, err := sessionClaims(c)
	if err != nil {
		return err
	}

	var req bulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	deleted, err := h.history.DeleteBulk(c.Request().Context(), claims.UserID, req.IDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deletedResponse{Message: "Records deleted", Deleted: deleted})
}

// ClearHistory godoc
// @Summary Delete the caller's entire history
// @Tags history
// @Produce json
// @Success 200 {object} deletedResponse
// @Failure 401 {object} errorResponse
// @Router /api/history [delete]
func (h *VerifyHandler) ClearHistory(c echo.Context) error {
	claims, err := sessionClaims(c)
	if err != nil {
		return err
	}

	deleted, err := h.history.DeleteAll(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deletedResponse{Message: "History cleared", Deleted: deleted})
}

// CleanOrphaned godoc
// @Summary Remove history records whose image file is gone
// @Tags history
// @Produce json
// @Success 200 {object} deletedResponse
// @Failure 401 {object} errorResponse
// @Router /api/history/clean-orphaned [post]
func (h *VerifyHandler) CleanOrphaned(c echo.Context) error {
	claims, err := sessionClaims(c)
	if err != nil {
		return err
	}

	deleted, err := h.history.CleanOrphaned(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deletedResponse{Message: "Orphaned records removed", Deleted: deleted})
}

// Models godoc
// @Summary List the reference identities available for verification
// @Tags verify
// @Produce json
// @Success 200 {object} modelsResponse
// @Router /api/models [get]
func (h *VerifyHandler) Models(c echo.Context) error {
	return c.JSON(http.StatusOK, modelsResponse{Models: h.verify.AvailableModels()})
}

func parseHistoryQuery(c echo.Context) (ports.HistoryQuery, error) {
	q := ports.HistoryQuery{Page: 1}

	if v := c.QueryParam("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return q, echo.NewHTTPError(http.StatusBadRequest, "page must be a positive number")
		}
		q.Page = page
	}
	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return q, echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive number")
		}
		q.Limit = limit
	}

	q.Filter.Search = strings.TrimSpace(c.QueryParam("search"))

	if v := c.QueryParam("date"); v != "" {
		day, err := time.Parse("2006-01-02", v)
		if err != nil {
			return q, echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		q.Filter.Date = &day
	}

	switch status := ports.HistoryStatus(strings.ToLower(c.QueryParam("status"))); status {
	case "", ports.StatusAll:
		q.Filter.Status = ports.StatusAll
	case ports.StatusGenuine, ports.StatusForged:
		q.Filter.Status = status
	default:
		return q, echo.NewHTTPError(http.StatusBadRequest, "status must be all, genuine or forged")
	}

	return q, nil
}
