package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/CryptracSolutions/ultaura-insights/internal/domain"
	"github.com/CryptracSolutions/ultaura-insights/internal/http/response"
	"github.com/CryptracSolutions/ultaura-insights/internal/pkg/ctxutil"
	pkgerrors "github.com/CryptracSolutions/ultaura-insights/internal/pkg/errors"
	"github.com/CryptracSolutions/ultaura-insights/internal/repos"
)

// resolveLine loads the :line_id line and rechecks that it belongs to the
// token's account. Responds and returns nil on any failure; a foreign line is
// forbidden, not invisible, so a caregiver notices a stale bookmark.
func resolveLine(c *gin.Context, lines repos.LineRepo) *domain.Line {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.AccountID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no caller identity"))
		return nil
	}

	lineID, err := uuid.Parse(c.Param("line_id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_line_id", fmt.Errorf("line_id must be a uuid"))
		return nil
	}

	line, err := lines.GetByID(c.Request.Context(), nil, lineID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "line_not_found", fmt.Errorf("line not found"))
			return nil
		}
		response.RespondError(c, http.StatusInternalServerError, "internal", fmt.Errorf("load line"))
		return nil
	}
	if line.AccountID != rd.AccountID {
		response.RespondError(c, http.StatusForbidden, "forbidden", fmt.Errorf("line does not belong to this account"))
		return nil
	}
	return line
}
