package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/routemill-backend/internal/domain/activity"
	"github.com/yungbote/routemill-backend/internal/domain/apperr"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
	"github.com/yungbote/routemill-backend/internal/services/feed"
)

// Client talks to the routemill HTTP API on behalf of one signed-in climber.
// It satisfies optimistic.Appender and optimistic.NoteSaver.
type Client interface {
	Append(ctx context.Context, in types.EventInput) (types.ActivityEvent, error)
	LogAttempt(ctx context.Context, routeID uuid.UUID) (types.ActivityEvent, error)
	SaveNote(ctx context.Context, routeID uuid.UUID, text string) error
	RouteActivity(ctx context.Context, routeID uuid.UUID, limit int, cursor string) (feed.Page, error)
}

type Config struct {
	BaseURL string
	// Token is the bearer identity token sent on every request.
	Token   string
	Timeout time.Duration
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("missing routemill base url")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("missing identity token")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &client{
		log:  log.With("client", "RoutemillAPIClient"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type appendRequest struct {
	ActionType    types.ActionType `json:"action_type"`
	Content       *string          `json:"content,omitempty"`
	IsBeta        bool             `json:"is_beta,omitempty"`
	ClientEventID string           `json:"client_event_id,omitempty"`
}

type eventResponse struct {
	Event types.ActivityEvent `json:"event"`
}

// Append posts an event for the token's user. in.ActorID is ignored; the
// server takes the actor from the token.
func (c *client) Append(ctx context.Context, in types.EventInput) (types.ActivityEvent, error) {
	if in.RouteID == nil || *in.RouteID == uuid.Nil {
		return types.ActivityEvent{}, apperr.Validation("apiclient.append", "route is required")
	}
	body := appendRequest{
		ActionType:    in.ActionType,
		Content:       in.Content,
		IsBeta:        in.IsBeta,
		ClientEventID: in.ClientEventID,
	}
	headers := map[string]string{}
	if key := strings.TrimSpace(in.ClientEventID); key != "" {
		headers["Idempotency-Key"] = key
	}
	out, err := doJSON[eventResponse](c, ctx, "apiclient.append", http.MethodPost, "/api/routes/"+in.RouteID.String()+"/activity", body, headers)
	if err != nil {
		return types.ActivityEvent{}, err
	}
	return out.Event, nil
}

func (c *client) LogAttempt(ctx context.Context, routeID uuid.UUID) (types.ActivityEvent, error) {
	out, err := doJSON[eventResponse](c, ctx, "apiclient.log_attempt", http.MethodPost, "/api/routes/"+routeID.String()+"/attempts", nil, nil)
	if err != nil {
		return types.ActivityEvent{}, err
	}
	return out.Event, nil
}

func (c *client) SaveNote(ctx context.Context, routeID uuid.UUID, text string) error {
	body := map[string]string{"text": text}
	_, err := doJSON[json.RawMessage](c, ctx, "apiclient.save_note", http.MethodPut, "/api/routes/"+routeID.String()+"/note", body, nil)
	return err
}

func (c *client) RouteActivity(ctx context.Context, routeID uuid.UUID, limit int, cursor string) (feed.Page, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	path := "/api/routes/" + routeID.String() + "/activity"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	out, err := doJSON[feed.Page](c, ctx, "apiclient.route_activity", http.MethodGet, path, nil, nil)
	if err != nil {
		return feed.Page{}, err
	}
	return *out, nil
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func doJSON[T any](c *client, ctx context.Context, op, method, path string, body any, headers map[string]string) (*T, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, apperr.New(apperr.CodeInternal, op, "encode request", err)
		}
	}
	req, err := http.NewRequestWithContext(defaultCtx(ctx), method, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, apperr.New(apperr.CodeInternal, op, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// network failures and timeouts are worth retrying
		return nil, apperr.Transient(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Transient(op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(op, resp.StatusCode, raw)
	}

	var out T
	if len(bytes.TrimSpace(raw)) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperr.New(apperr.CodeInternal, op, "decode response", err)
	}
	return &out, nil
}

func decodeError(op string, status int, raw []byte) error {
	var env errorEnvelope
	msg := strings.TrimSpace(string(raw))
	code := codeForStatus(status)
	if err := json.Unmarshal(raw, &env); err == nil && env.Error.Message != "" {
		msg = env.Error.Message
		if known := apperr.Code(env.Error.Code); isKnownCode(known) {
			code = known
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return apperr.New(code, op, msg, errors.New("http "+strconv.Itoa(status)))
}

func codeForStatus(status int) apperr.Code {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return apperr.CodeValidation
	case status == http.StatusNotFound:
		return apperr.CodeNotFound
	case status == http.StatusConflict:
		return apperr.CodeConflict
	case status == http.StatusTooManyRequests || status == http.StatusRequestTimeout ||
		status == http.StatusBadGateway || status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout:
		return apperr.CodeTransient
	default:
		return apperr.CodeInternal
	}
}

func isKnownCode(code apperr.Code) bool {
	switch code {
	case apperr.CodeValidation, apperr.CodeNotFound, apperr.CodeTransient, apperr.CodeConflict, apperr.CodeInternal:
		return true
	default:
		return false
	}
}

func defaultCtx(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
