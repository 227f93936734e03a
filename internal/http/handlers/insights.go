package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CryptracSolutions/ultaura-insights/internal/http/response"
	pkgerrors "github.com/CryptracSolutions/ultaura-insights/internal/pkg/errors"
	"github.com/CryptracSolutions/ultaura-insights/internal/repos"
	"github.com/CryptracSolutions/ultaura-insights/internal/services"
)

type InsightsHandler struct {
	lines      repos.LineRepo
	dashboards services.DashboardService
	summaries  services.SummaryService
}

func NewInsightsHandler(lines repos.LineRepo, dashboards services.DashboardService, summaries services.SummaryService) *InsightsHandler {
	return &InsightsHandler{
		lines:      lines,
		dashboards: dashboards,
		summaries:  summaries,
	}
}

// GET /api/lines/:line_id/insights/dashboard
func (h *InsightsHandler) GetDashboard(c *gin.Context) {
	line := resolveLine(c, h.lines)
	if line == nil {
		return
	}

	dash, err := h.dashboards.GetDashboard(c.Request.Context(), line.ID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "dashboard_failed", fmt.Errorf("could not build dashboard"))
		return
	}
	response.RespondOK(c, gin.H{"dashboard": dash})
}

// GET /api/lines/:line_id/insights/summary?week_start=YYYY-MM-DD
func (h *InsightsHandler) GetWeeklySummary(c *gin.Context) {
	line := resolveLine(c, h.lines)
	if line == nil {
		return
	}

	weekStartParam := c.Query("week_start")
	weekStart, err := time.Parse("2006-01-02", weekStartParam)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_week_start", fmt.Errorf("week_start must be YYYY-MM-DD"))
		return
	}

	summary, err := h.summaries.GetWeeklySummary(c.Request.Context(), line.ID, weekStart)
	if err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrNotFound):
			response.RespondError(c, http.StatusNotFound, "summary_not_found", fmt.Errorf("no summary for that week"))
		case errors.Is(err, pkgerrors.ErrKeyIntegrity):
			// The stored envelope would not open; surface as missing
			// rather than leaking integrity details.
			response.RespondError(c, http.StatusNotFound, "summary_not_found", fmt.Errorf("no summary for that week"))
		default:
			response.RespondError(c, http.StatusInternalServerError, "summary_failed", fmt.Errorf("could not load summary"))
		}
		return
	}
	response.RespondOK(c, gin.H{"summary": summary})
}
