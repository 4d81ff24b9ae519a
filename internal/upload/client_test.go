package upload

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/meltforce/squatter/internal/models"
	"github.com/meltforce/squatter/internal/reps"
)

func testSession() *models.TrackSession {
	return &models.TrackSession{
		Exercise:     "squat",
		FirstFrame:   12,
		TrackWindows: []reps.Box{{X: 1, Y: 2, W: 3, H: 4}},
	}
}

func fastClient(url string) *Client {
	c := NewClient(url+"/", "key")
	c.backoff = time.Millisecond
	return c
}

// TestSendSession verifies the request body, API key header and returned ID.
func TestSendSession(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sessions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("X-API-Key"); got != "key" {
			t.Errorf("X-API-Key = %q, want key", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body["exercise"] != "squat" || body["first_frame"] != float64(12) || body["fps"] != float64(25) || body["name"] != "set1" {
			t.Errorf("body = %v", body)
		}
		if tw, ok := body["track_windows"].([]any); !ok || len(tw) != 1 {
			t.Errorf("track_windows = %v", body["track_windows"])
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"abc"}`))
	}))
	defer ts.Close()

	id, err := fastClient(ts.URL).SendSession(context.Background(), "set1", testSession(), 25)
	if err != nil {
		t.Fatal(err)
	}
	if id != "abc" {
		t.Errorf("id = %q, want abc", id)
	}
}

// TestSendSessionRetries verifies 5xx responses are retried.
func TestSendSessionRetries(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"ok"}`))
	}))
	defer ts.Close()

	id, err := fastClient(ts.URL).SendSession(context.Background(), "s", testSession(), 30)
	if err != nil {
		t.Fatal(err)
	}
	if id != "ok" || calls != 3 {
		t.Errorf("id = %q after %d calls, want ok after 3", id, calls)
	}
}

// TestSendSessionGivesUp verifies the client stops after 3 failed attempts.
func TestSendSessionGivesUp(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := fastClient(ts.URL).SendSession(context.Background(), "s", testSession(), 30)
	if err == nil || !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("err = %v, want after 3 attempts", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

// TestSendSessionRejected verifies 4xx responses are not retried.
func TestSendSessionRejected(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"unknown exercise"}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	_, err := fastClient(ts.URL).SendSession(context.Background(), "s", testSession(), 30)
	if err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Errorf("err = %v, want status 400", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
