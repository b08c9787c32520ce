package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/routemill-backend/internal/domain/apperr"
	"github.com/yungbote/routemill-backend/internal/http/response"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
	"github.com/yungbote/routemill-backend/internal/services/settings"
	"github.com/yungbote/routemill-backend/internal/services/stats"
)

type UserHandler struct {
	log      *logger.Logger
	stats    stats.Service
	settings settings.Service
}

func NewUserHandler(log *logger.Logger, statsSvc stats.Service, settingsSvc settings.Service) *UserHandler {
	return &UserHandler{
		log:      log.With("handler", "UserHandler"),
		stats:    statsSvc,
		settings: settingsSvc,
	}
}

// GET /api/users/:id/profile
func (uh *UserHandler) GetProfile(c *gin.Context) {
	viewerID, ok := viewer(c)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	display := gradeDisplay(c, uh.log, uh.settings, viewerID)
	profile, err := uh.stats.Profile(c.Request.Context(), userID, display)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// GET /api/me/settings
func (uh *UserHandler) GetSettings(c *gin.Context) {
	userID, ok := viewer(c)
	if !ok {
		return
	}
	s, err := uh.settings.Get(c.Request.Context(), userID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": s})
}

// PUT /api/me/settings
// body: { "grade_display": "v-scale" | "difficulty" }
func (uh *UserHandler) PutSettings(c *gin.Context) {
	userID, ok := viewer(c)
	if !ok {
		return
	}
	var req struct {
		GradeDisplay string `json:"grade_display"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAppError(c, apperr.Validation("http.settings", "invalid request body: %v", err))
		return
	}
	s, err := uh.settings.Put(c.Request.Context(), userID, req.GradeDisplay)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": s})
}
