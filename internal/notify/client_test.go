package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewWithoutURLIsNil(t *testing.T) {
	if c := New("  "); c != nil {
		t.Fatalf("expected nil client for empty URL")
	}
	// nil receiver is safe
	var c *Client
	c.GameStarted(context.Background(), "AB12", "alice", "bob")
}

func TestGameEndedPostsPayload(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		got.Store(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, WithTimeout(2*time.Second), WithRetry(0))
	c.GameEnded(context.Background(), "AB12", "bob", "checkmate", []string{"f3", "e5", "g4", "Qh4#"})

	body, _ := got.Load().(map[string]any)
	if body == nil {
		t.Fatalf("webhook not invoked")
	}
	if body["event"] != "gameEnd" || body["roomCode"] != "AB12" || body["winner"] != "bob" {
		t.Fatalf("payload = %v", body)
	}
}

func TestHeaderProviderApplied(t *testing.T) {
	var header atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header.Store(r.Header.Get("X-Token"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, WithHeaderProvider(func() map[string]string {
		return map[string]string{"X-Token": "secret"}
	}))
	c.GameStarted(context.Background(), "CD34", "alice", "bob")

	if got, _ := header.Load().(string); got != "secret" {
		t.Fatalf("header = %q", got)
	}
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, WithRetry(3))
	c.GameStarted(context.Background(), "EF56", "alice", "bob")

	if n := hits.Load(); n != 1 {
		t.Fatalf("4xx retried %d times", n)
	}
}
