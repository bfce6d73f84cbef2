package call

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"validation", fmt.Errorf("%w: ein must be 9 digits", ErrValidation), ErrorKindClient},
		{"http 400", NewHTTPError(400, nil), ErrorKindClient},
		{"http 404", NewHTTPError(404, nil), ErrorKindClient},
		{"http 422", NewHTTPError(422, []byte("bad")), ErrorKindClient},
		{"http 429 is transient", NewHTTPError(429, nil), ErrorKindTransient},
		{"http 500", NewHTTPError(500, nil), ErrorKindTransient},
		{"http 503", NewHTTPError(503, nil), ErrorKindTransient},
		{"deadline", context.DeadlineExceeded, ErrorKindTransient},
		{"canceled", context.Canceled, ErrorKindTransient},
		{"network", errors.New("dial tcp: connection refused"), ErrorKindTransient},
		{"wrapped http", fmt.Errorf("verify: %w", NewHTTPError(403, nil)), ErrorKindClient},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(NewHTTPError(422, nil)) {
		t.Error("422 must not be retryable")
	}
	if !Retryable(NewHTTPError(503, nil)) {
		t.Error("503 must be retryable")
	}
	if Retryable(nil) {
		t.Error("nil must not be retryable")
	}
}

func TestHTTPErrorTruncatesBody(t *testing.T) {
	body := strings.Repeat("x", 2048)
	err := NewHTTPError(500, []byte(body))
	if len(err.Body) != 512 {
		t.Fatalf("expected body truncated to 512, got %d", len(err.Body))
	}
	if !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected status in message, got %q", err.Error())
	}
}
