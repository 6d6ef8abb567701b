package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExchangeSession(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Session-ID"); got != "upstream-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(upstreamSessionData{
			ID:           "ext-1",
			Email:        "player@example.com",
			Name:         "Player One",
			SessionToken: "tok-abc",
		})
	}))
	defer upstream.Close()

	s := &store{}
	auth := NewAuthAPI(&fakeUsers{s}, &fakeSessions{s}, upstream.URL, time.Hour)
	playables := NewPlayableAPI(&fakePlayables{s}, &fakeProgress{s}, &fakeUsers{s})
	router := NewRouter(auth, playables)

	// missing header
	req := httptest.NewRequest(http.MethodPost, "/api/auth/session", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing header: status = %d, want 400", w.Code)
	}

	// rejected upstream session
	req = httptest.NewRequest(http.MethodPost, "/api/auth/session", nil)
	req.Header.Set("X-Session-ID", "wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad session: status = %d, want 401", w.Code)
	}

	// valid exchange creates the user and stores the upstream token
	req = httptest.NewRequest(http.MethodPost, "/api/auth/session", nil)
	req.Header.Set("X-Session-ID", "upstream-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("exchange returned %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["session_token"] != "tok-abc" {
		t.Errorf("session_token = %v", resp["session_token"])
	}
	if len(s.users) != 1 || s.users[0].Email != "player@example.com" {
		t.Errorf("users = %+v", s.users)
	}

	// the exchanged token authenticates API calls
	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer tok-abc")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("me with exchanged token = %d", w.Code)
	}
}
