package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsAndHashes(t *testing.T) {
	if !redactionOn() {
		t.Skip("redaction disabled via LOG_REDACTION_ENABLED")
	}
	out := sanitizeKVs([]interface{}{
		"jwt_token", "abc",
		"actor_id", "7c2f0c8e-2a55-4b8e-9d7f-1b6a9e0b2c11",
		"route_id", "r1",
		"dangling",
	})
	if len(out) != 7 {
		t.Fatalf("len: want=7 got=%d", len(out))
	}
	if out[1] != redacted {
		t.Fatalf("token: want redacted got=%v", out[1])
	}
	hashed, ok := out[3].(string)
	if !ok || !strings.HasPrefix(hashed, "hash:") || len(hashed) != len("hash:")+12 {
		t.Fatalf("actor_id: want hash got=%v", out[3])
	}
	if out[5] != "r1" {
		t.Fatalf("route_id should pass through, got=%v", out[5])
	}
	if out[6] != "dangling" {
		t.Fatalf("dangling key should be kept, got=%v", out[6])
	}
}

func TestSanitizeValueNestedMap(t *testing.T) {
	if !redactionOn() {
		t.Skip("redaction disabled via LOG_REDACTION_ENABLED")
	}
	got := sanitizeValue("payload", map[string]interface{}{
		"password": "hunter2",
		"grade":    "V4",
	})
	m, ok := got.(map[string]interface{})
	if !ok {
		t.Fatalf("want map got=%T", got)
	}
	if m["password"] != redacted || m["grade"] != "V4" {
		t.Fatalf("unexpected nested sanitize: %#v", m)
	}
}

func TestHashValueStable(t *testing.T) {
	a := hashValue("same")
	b := hashValue("same")
	if a != b {
		t.Fatalf("hash not stable: %s vs %s", a, b)
	}
	if hashValue("") != "" {
		t.Fatalf("empty input should hash to empty")
	}
}
