package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/routemill-backend/internal/domain/activity"
	"github.com/yungbote/routemill-backend/internal/clients/optimistic"
	"github.com/yungbote/routemill-backend/internal/domain/apperr"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
)

var (
	_ optimistic.Appender  = Client(nil)
	_ optimistic.NoteSaver = Client(nil)
)

func newTestClient(t *testing.T, h http.HandlerFunc, timeout time.Duration) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c, err := New(log, Config{BaseURL: srv.URL + "/", Token: "tok-123", Timeout: timeout})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestAppendSendsIdempotencyKeyAndDecodesEvent(t *testing.T) {
	routeID := uuid.New()
	eventID := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/routes/"+routeID.String()+"/activity" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("authorization header: %q", got)
		}
		if got := r.Header.Get("Idempotency-Key"); got != "k-1" {
			t.Errorf("idempotency key: %q", got)
		}
		var body appendRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.ActionType != types.ActionComment || body.Content == nil || *body.Content != "nice" {
			t.Errorf("unexpected body %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"event": map[string]any{
				"id":          eventID,
				"actor_id":    uuid.New(),
				"route_id":    routeID,
				"action_type": "COMMENT",
				"content":     "nice",
				"metadata":    map[string]any{},
				"created_at":  time.Now().UTC(),
			},
		})
	}, time.Second)

	content := "nice"
	ev, err := c.Append(context.Background(), types.EventInput{
		ActorID:       uuid.New(),
		RouteID:       &routeID,
		ActionType:    types.ActionComment,
		Content:       &content,
		ClientEventID: "k-1",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ev.ID != eventID || ev.ActionType != types.ActionComment {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestErrorEnvelopeMapsToCodes(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   apperr.Code
	}{
		{"validation envelope", http.StatusBadRequest, `{"error":{"message":"content too long","code":"validation"}}`, apperr.CodeValidation},
		{"not found envelope", http.StatusNotFound, `{"error":{"message":"route missing","code":"not_found"}}`, apperr.CodeNotFound},
		{"unknown code falls back to status", http.StatusServiceUnavailable, `{"error":{"message":"db down","code":"weird"}}`, apperr.CodeTransient},
		{"plain text 500", http.StatusInternalServerError, `boom`, apperr.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}, time.Second)
			_, err := c.LogAttempt(context.Background(), uuid.New())
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := apperr.CodeOf(err); got != tc.want {
				t.Fatalf("code: want=%s got=%s (%v)", tc.want, got, err)
			}
		})
	}
}

func TestTimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	err := c.SaveNote(context.Background(), uuid.New(), "crimp left")
	if !apperr.IsTransient(err) {
		t.Fatalf("want transient, got %v", err)
	}
}

func TestRouteActivityPassesPaging(t *testing.T) {
	routeID := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" || r.URL.Query().Get("cursor") != "abc" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"items":[],"next_cursor":"def"}`))
	}, time.Second)

	page, err := c.RouteActivity(context.Background(), routeID, 5, "abc")
	if err != nil {
		t.Fatalf("RouteActivity: %v", err)
	}
	if page.NextCursor != "def" || len(page.Items) != 0 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestNewRequiresBaseURLAndToken(t *testing.T) {
	log, _ := logger.New("test")
	if _, err := New(log, Config{Token: "x"}); err == nil {
		t.Fatalf("expected missing base url error")
	}
	if _, err := New(log, Config{BaseURL: "http://localhost"}); err == nil {
		t.Fatalf("expected missing token error")
	}
}
