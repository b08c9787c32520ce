package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/routemill-backend/internal/domain/apperr"
	"github.com/yungbote/routemill-backend/internal/domain/catalog"
	"github.com/yungbote/routemill-backend/internal/http/response"
	"github.com/yungbote/routemill-backend/internal/platform/ctxutil"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
	"github.com/yungbote/routemill-backend/internal/services/feed"
	"github.com/yungbote/routemill-backend/internal/services/settings"
)

// viewer returns the authenticated user id or writes a 401.
func viewer(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		response.RespondAppError(c, apperr.Validation("http.param", "invalid %s %q", name, c.Param(name)))
		return uuid.Nil, false
	}
	return id, true
}

// pageRequest reads ?limit=&cursor=. Bounds are applied by the store.
func pageRequest(c *gin.Context) (feed.PageRequest, bool) {
	req := feed.PageRequest{Cursor: strings.TrimSpace(c.Query("cursor"))}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.RespondAppError(c, apperr.Validation("http.page", "invalid limit %q", raw))
			return feed.PageRequest{}, false
		}
		req.Limit = n
	}
	return req, true
}

// gradeDisplay loads the viewer's preference. A failed read falls back to the
// default so browsing keeps working.
func gradeDisplay(c *gin.Context, log *logger.Logger, svc settings.Service, userID uuid.UUID) catalog.GradeDisplay {
	if svc == nil {
		return catalog.GradeDisplayVScale
	}
	s, err := svc.Get(c.Request.Context(), userID)
	if err != nil {
		log.Warn("Load grade display failed", "user_id", userID.String(), "error", err)
		return catalog.GradeDisplayVScale
	}
	return s.GradeDisplay
}
