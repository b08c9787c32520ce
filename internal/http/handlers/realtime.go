package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/routemill-backend/internal/domain/apperr"
	"github.com/yungbote/routemill-backend/internal/http/response"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
	"github.com/yungbote/routemill-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{
		log: log.With("handler", "RealtimeHandler"),
		hub: hub,
	}
}

// GET /api/realtime/stream?channels=feed,route:<id>
//
// Every stream is also subscribed to the viewer's own user channel. Without
// channels the stream follows the global feed.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	userID, ok := viewer(c)
	if !ok {
		return
	}
	channels := []string{realtime.ChannelFeed}
	if raw := strings.TrimSpace(c.Query("channels")); raw != "" {
		channels = channels[:0]
		for _, ch := range strings.Split(raw, ",") {
			ch = strings.TrimSpace(ch)
			if ch == "" {
				continue
			}
			if !realtime.ValidChannel(ch) {
				response.RespondAppError(c, apperr.Validation("http.realtime", "invalid channel %q", ch))
				return
			}
			channels = append(channels, ch)
		}
	}

	client := h.hub.NewSSEClient(userID)
	defer h.hub.CloseClient(client)

	h.hub.AddChannel(client, realtime.UserChannel(userID))
	for _, ch := range channels {
		h.hub.AddChannel(client, ch)
	}
	h.log.Info("SSEStream open", "user_id", userID.String(), "client_id", client.ID.String(), "channels", channels)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
