package einverify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mblcrm/lendgate/internal/domain/call"
)

func TestVerifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/verify" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["ein"] != "123456789" {
			t.Errorf("expected normalized ein, got %q", req["ein"])
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"match_status": "match",
			"entity_type":  "llc",
			"name_control": "SUNR",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 5*time.Second)
	v, err := c.Verify(context.Background(), "12-3456789", "Sunrise Bakery LLC")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if v.MatchStatus != "match" || v.EntityType != "llc" || v.NameControl != "SUNR" {
		t.Fatalf("unexpected verification: %+v", v)
	}
	if v.EIN != "123456789" {
		t.Fatalf("expected normalized EIN, got %q", v.EIN)
	}
}

func TestVerifyClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"ein malformed"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)
	_, err := c.Verify(context.Background(), "123456789", "Sunrise Bakery LLC")

	var httpErr *call.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", httpErr.Status)
	}
	if call.Classify(err) != call.ErrorKindClient {
		t.Fatalf("expected client classification, got %s", call.Classify(err))
	}
}

func TestVerifyServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)
	_, err := c.Verify(context.Background(), "123456789", "Sunrise Bakery LLC")
	if err == nil {
		t.Fatal("expected error")
	}
	if call.Classify(err) != call.ErrorKindTransient {
		t.Fatalf("expected transient classification, got %s", call.Classify(err))
	}
}
