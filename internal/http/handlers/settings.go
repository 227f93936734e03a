package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CryptracSolutions/ultaura-insights/internal/http/response"
	"github.com/CryptracSolutions/ultaura-insights/internal/pkg/ctxutil"
	pkgerrors "github.com/CryptracSolutions/ultaura-insights/internal/pkg/errors"
	"github.com/CryptracSolutions/ultaura-insights/internal/repos"
	"github.com/CryptracSolutions/ultaura-insights/internal/services"
)

type SettingsHandler struct {
	lines   repos.LineRepo
	privacy services.PrivacyService
}

func NewSettingsHandler(lines repos.LineRepo, privacy services.PrivacyService) *SettingsHandler {
	return &SettingsHandler{lines: lines, privacy: privacy}
}

// GET /api/lines/:line_id/insights/privacy
func (h *SettingsHandler) GetPrivacy(c *gin.Context) {
	line := resolveLine(c, h.lines)
	if line == nil {
		return
	}
	settings, err := h.privacy.GetInsightPrivacy(c.Request.Context(), line.ID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "privacy_failed", fmt.Errorf("could not load privacy settings"))
		return
	}
	response.RespondOK(c, gin.H{"privacy": settings})
}

// PATCH /api/lines/:line_id/insights/privacy
// body: { "insights_enabled": bool?, "private_topic_codes": [..]? }
func (h *SettingsHandler) UpdatePrivacy(c *gin.Context) {
	line := resolveLine(c, h.lines)
	if line == nil {
		return
	}
	var patch services.PrivacyPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	settings, err := h.privacy.UpdateInsightPrivacy(c.Request.Context(), line.ID, patch)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrInvalidArgument) {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "privacy_failed", fmt.Errorf("could not update privacy settings"))
		return
	}
	response.RespondOK(c, gin.H{"privacy": settings})
}

// POST /api/lines/:line_id/insights/pause
// body: { "paused": bool, "reason": "..."? }
func (h *SettingsHandler) SetPauseMode(c *gin.Context) {
	line := resolveLine(c, h.lines)
	if line == nil {
		return
	}
	var req struct {
		Paused bool    `json:"paused"`
		Reason *string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	settings, err := h.privacy.SetPauseMode(c.Request.Context(), line.ID, req.Paused, req.Reason)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "pause_failed", fmt.Errorf("could not change pause mode"))
		return
	}
	response.RespondOK(c, gin.H{"privacy": settings})
}

// GET /api/lines/:line_id/notification-preferences
func (h *SettingsHandler) GetNotificationPreferences(c *gin.Context) {
	line := resolveLine(c, h.lines)
	if line == nil {
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	prefs, err := h.privacy.GetOrCreateNotificationPreferences(c.Request.Context(), rd.AccountID, line.ID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "preferences_failed", fmt.Errorf("could not load notification preferences"))
		return
	}
	response.RespondOK(c, gin.H{"preferences": prefs})
}

// PATCH /api/lines/:line_id/notification-preferences
func (h *SettingsHandler) UpdateNotificationPreferences(c *gin.Context) {
	line := resolveLine(c, h.lines)
	if line == nil {
		return
	}
	var patch services.NotificationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	prefs, err := h.privacy.UpdateNotificationPreferences(c.Request.Context(), rd.AccountID, line.ID, patch)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrInvalidArgument) {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "preferences_failed", fmt.Errorf("could not update notification preferences"))
		return
	}
	response.RespondOK(c, gin.H{"preferences": prefs})
}
