package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veriscribe/signature-api/internal/core/ports"
)

// StatsHandler exposes the public, unauthenticated aggregate.
type StatsHandler struct {
	history ports.HistoryService
	verify  ports.VerifyService
}

func NewStatsHandler(history ports.HistoryService, verify ports.VerifyService) *StatsHandler {
	return &StatsHandler{history: history, verify: verify}
}

// GlobalStats godoc
// @Summary Public service-wide statistics
// @Description Always answers 200. When the datastore is unreachable the
// @Description counters are zero and degraded is true.
// @Tags stats
// @Produce json
// @Success 200 {object} statsResponse
// @Router /api/stats [get]
func (h *StatsHandler) GlobalStats(c echo.Context) error {
	stats, degraded := h.history.GlobalStats(c.Request().Context())
	return c.JSON(http.StatusOK, statsResponse{
		Stats:           stats,
		Degraded:        degraded,
		AvailableModels: h.verify.AvailableModels(),
	})
}
