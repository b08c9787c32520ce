package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/routemill-backend/internal/domain/apperr"
	"github.com/yungbote/routemill-backend/internal/http/response"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
	"github.com/yungbote/routemill-backend/internal/services/browse"
	"github.com/yungbote/routemill-backend/internal/services/settings"
)

type BrowseHandler struct {
	log      *logger.Logger
	browse   browse.Service
	settings settings.Service
}

func NewBrowseHandler(log *logger.Logger, browseSvc browse.Service, settingsSvc settings.Service) *BrowseHandler {
	return &BrowseHandler{
		log:      log.With("handler", "BrowseHandler"),
		browse:   browseSvc,
		settings: settingsSvc,
	}
}

// GET /api/walls
func (h *BrowseHandler) ListWalls(c *gin.Context) {
	walls, err := h.browse.ListWalls(c.Request.Context())
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"walls": walls})
}

// GET /api/walls/:id/routes
func (h *BrowseHandler) ListWallRoutes(c *gin.Context) {
	userID, ok := viewer(c)
	if !ok {
		return
	}
	wallID := strings.TrimSpace(c.Param("id"))
	if wallID == "" {
		response.RespondAppError(c, apperr.Validation("http.param", "wall id is required"))
		return
	}
	display := gradeDisplay(c, h.log, h.settings, userID)
	routes, err := h.browse.ListWallRoutes(c.Request.Context(), wallID, &userID, display)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes})
}

// GET /api/routes/:id
func (h *BrowseHandler) GetRoute(c *gin.Context) {
	userID, ok := viewer(c)
	if !ok {
		return
	}
	routeID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	display := gradeDisplay(c, h.log, h.settings, userID)
	detail, err := h.browse.RouteDetail(c.Request.Context(), routeID, userID, display)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": detail})
}
