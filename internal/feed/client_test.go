package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientFetchBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/playables/feed" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Errorf("Authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("skip") != "5" || q.Get("limit") != "10" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode([]Playable{
			{ID: "p1", Kind: KindMCQ, Title: "First"},
			{ID: "p2", Kind: KindChessMate, StartFEN: "8/8/8/8/8/8/8/8 w - - 0 1"},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok123")
	items, err := c.FetchBatch(context.Background(), 5, 10)
	if err != nil {
		t.Fatalf("FetchBatch failed: %v", err)
	}
	if len(items) != 2 || items[0].ID != "p1" || items[1].Kind != KindChessMate {
		t.Errorf("items = %+v", items)
	}
}

func TestClientSubmitAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/playables/p1/answer" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["answer"] != "42" {
			t.Errorf("answer = %q", body["answer"])
		}
		json.NewEncoder(w).Encode(AnswerResult{Correct: true, CorrectAnswer: "42", CurrentStreak: 3})
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok123")
	res, err := c.SubmitAnswer(context.Background(), "p1", "42")
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	if !res.Correct || res.CurrentStreak != 3 {
		t.Errorf("result = %+v", res)
	}
}

func TestClientSubmitChessResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["solved"] != true || body["moves_used"] != float64(2) {
			t.Errorf("body = %v", body)
		}
		json.NewEncoder(w).Encode(ChessResult{CurrentStreak: 1})
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok123")
	res, err := c.SubmitChessResult(context.Background(), "c1", true, 2)
	if err != nil {
		t.Fatalf("SubmitChessResult failed: %v", err)
	}
	if res.CurrentStreak != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid session"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewClient(server.URL, "expired")
	if _, err := c.FetchBatch(context.Background(), 0, 10); err == nil {
		t.Fatal("expected error on 401 response")
	}
}

func TestClientDevLoginStoresToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/dev-login":
			if got := r.Header.Get("Authorization"); got != "" {
				t.Errorf("dev-login sent Authorization %q", got)
			}
			json.NewEncoder(w).Encode(map[string]string{"session_token": "dev_session_x"})
		case "/api/user/stats":
			if got := r.Header.Get("Authorization"); got != "Bearer dev_session_x" {
				t.Errorf("Authorization = %q", got)
			}
			json.NewEncoder(w).Encode(Profile{TotalPlayed: 7, BestStreak: 4})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, "")
	if err := c.DevLogin(context.Background()); err != nil {
		t.Fatalf("DevLogin failed: %v", err)
	}
	if c.Token() != "dev_session_x" {
		t.Errorf("token = %q", c.Token())
	}
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if p := c.Profile(); p.TotalPlayed != 7 || p.BestStreak != 4 {
		t.Errorf("profile = %+v", p)
	}
}
