package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/routemill-backend/internal/http/response"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
	"github.com/yungbote/routemill-backend/internal/services/feed"
	"github.com/yungbote/routemill-backend/internal/services/settings"
)

type FeedHandler struct {
	log      *logger.Logger
	feed     feed.Assembler
	settings settings.Service
}

func NewFeedHandler(log *logger.Logger, assembler feed.Assembler, settingsSvc settings.Service) *FeedHandler {
	return &FeedHandler{
		log:      log.With("handler", "FeedHandler"),
		feed:     assembler,
		settings: settingsSvc,
	}
}

// GET /api/feed?limit=&cursor=
func (h *FeedHandler) Global(c *gin.Context) {
	userID, ok := viewer(c)
	if !ok {
		return
	}
	req, ok := pageRequest(c)
	if !ok {
		return
	}
	opts := feed.Options{GradeDisplay: gradeDisplay(c, h.log, h.settings, userID)}
	page, err := h.feed.Global(c.Request.Context(), req, opts)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/routes/:id/activity?limit=&cursor=
func (h *FeedHandler) RouteActivity(c *gin.Context) {
	userID, ok := viewer(c)
	if !ok {
		return
	}
	routeID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	req, ok := pageRequest(c)
	if !ok {
		return
	}
	opts := feed.Options{GradeDisplay: gradeDisplay(c, h.log, h.settings, userID)}
	page, err := h.feed.ByRoute(c.Request.Context(), routeID, req, opts)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/users/:id/activity?limit=&cursor=
func (h *FeedHandler) UserActivity(c *gin.Context) {
	viewerID, ok := viewer(c)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	req, ok := pageRequest(c)
	if !ok {
		return
	}
	opts := feed.Options{GradeDisplay: gradeDisplay(c, h.log, h.settings, viewerID)}
	page, err := h.feed.ByUser(c.Request.Context(), userID, req, opts)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, page)
}
