package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/routemill-backend/internal/domain/activity"
	"github.com/yungbote/routemill-backend/internal/domain/apperr"
	"github.com/yungbote/routemill-backend/internal/http/response"
	"github.com/yungbote/routemill-backend/internal/observability"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
	"github.com/yungbote/routemill-backend/internal/services/activity"
)

const headerIdempotencyKey = "Idempotency-Key"

type ActivityHandler struct {
	log     *logger.Logger
	store   activity.Store
	metrics *observability.Metrics
	timeout time.Duration
}

// NewActivityHandler serves the write side of a route: events and notes.
// metrics may be nil; a zero timeout leaves appends bounded only by the
// request.
func NewActivityHandler(log *logger.Logger, store activity.Store, metrics *observability.Metrics, timeout time.Duration) *ActivityHandler {
	return &ActivityHandler{
		log:     log.With("handler", "ActivityHandler"),
		store:   store,
		metrics: metrics,
		timeout: timeout,
	}
}

func (h *ActivityHandler) appendContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return c.Request.Context(), func() {}
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

type appendRequest struct {
	ActionType    string  `json:"action_type"`
	Content       *string `json:"content"`
	IsBeta        bool    `json:"is_beta"`
	ClientEventID string  `json:"client_event_id"`
}

// POST /api/routes/:id/activity
// body: { "action_type": "COMMENT", "content": "...", "is_beta": false, "client_event_id": "..." }
func (h *ActivityHandler) CreateRouteActivity(c *gin.Context) {
	userID, ok := viewer(c)
	if !ok {
		return
	}
	routeID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req appendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAppError(c, apperr.Validation("http.append", "invalid request body: %v", err))
		return
	}
	key := strings.TrimSpace(req.ClientEventID)
	if key == "" {
		key = strings.TrimSpace(c.GetHeader(headerIdempotencyKey))
	}
	in := types.EventInput{
		ActorID:       userID,
		RouteID:       &routeID,
		ActionType:    types.ActionType(strings.TrimSpace(req.ActionType)),
		Content:       req.Content,
		IsBeta:        req.IsBeta,
		ClientEventID: key,
	}

	ctx, cancel := h.appendContext(c)
	defer cancel()
	start := time.Now()
	ev, err := h.store.Append(ctx, in)
	h.observe(string(in.ActionType), err, start)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event": ev})
}

// POST /api/routes/:id/attempts
func (h *ActivityHandler) LogAttempt(c *gin.Context) {
	userID, ok := viewer(c)
	if !ok {
		return
	}
	routeID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	ctx, cancel := h.appendContext(c)
	defer cancel()
	start := time.Now()
	ev, err := h.store.LogAttempt(ctx, userID, routeID)
	h.observe(string(types.ActionAttempt), err, start)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event": ev})
}

type noteView struct {
	RouteID uuid.UUID `json:"route_id"`
	Text    string    `json:"text"`
}

// GET /api/routes/:id/note
func (h *ActivityHandler) GetNote(c *gin.Context) {
	userID, ok := viewer(c)
	if !ok {
		return
	}
	routeID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	text, err := h.store.GetNote(c.Request.Context(), userID, routeID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": noteView{RouteID: routeID, Text: text}})
}

// PUT /api/routes/:id/note
// body: { "text": "..." }
func (h *ActivityHandler) PutNote(c *gin.Context) {
	userID, ok := viewer(c)
	if !ok {
		return
	}
	routeID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Text *string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == nil {
		response.RespondAppError(c, apperr.Validation("http.note", "text is required"))
		return
	}
	if err := h.store.UpsertNote(c.Request.Context(), userID, routeID, *req.Text); err != nil {
		response.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": noteView{RouteID: routeID, Text: *req.Text}})
}

func (h *ActivityHandler) observe(actionType string, err error, start time.Time) {
	outcome := "ok"
	if err != nil {
		outcome = string(apperr.CodeOf(err))
		if outcome == "" {
			outcome = string(apperr.CodeInternal)
		}
	}
	h.metrics.ObserveAppend(actionType, outcome, time.Since(start))
}
