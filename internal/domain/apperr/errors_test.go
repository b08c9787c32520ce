package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapKeepsExistingCode(t *testing.T) {
	base := NotFound("activity.append", "route %s not found", "r1")
	wrapped := Wrap(CodeInternal, "outer", fmt.Errorf("ctx: %w", base))
	if !IsCode(wrapped, CodeNotFound) {
		t.Fatalf("want not_found, got=%q", CodeOf(wrapped))
	}
}

func TestErrorStringAndUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := Transient("activity.append", cause)
	if got := err.Error(); got != "activity.append: dial tcp: i/o timeout (transient)" {
		t.Fatalf("unexpected message: %q", got)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause should be reachable via errors.Is")
	}
	if !IsTransient(err) {
		t.Fatalf("want transient")
	}
}

func TestCodeOfUntagged(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Fatalf("untagged error should have empty code, got=%q", got)
	}
	if Wrap(CodeInternal, "op", nil) != nil {
		t.Fatalf("Wrap(nil) should be nil")
	}
}
