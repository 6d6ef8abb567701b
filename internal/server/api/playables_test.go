package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/invin-app/invin-core/internal/feed"
	"github.com/invin-app/invin-core/internal/server"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

// store is a shared in-memory backing for the fake repositories.
type store struct {
	mu        sync.Mutex
	users     []server.User
	sessions  []server.Session
	playables []server.StoredPlayable
	progress  []server.Progress
}

type fakeUsers struct{ s *store }

func (f *fakeUsers) FindByEmail(email string) (*server.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for i := range f.s.users {
		if f.s.users[i].Email == email {
			u := f.s.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) FindByID(userID string) (*server.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for i := range f.s.users {
		if f.s.users[i].UserID == userID {
			u := f.s.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) Insert(user server.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.users = append(f.s.users, user)
	return nil
}

func (f *fakeUsers) UpdateStats(user *server.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for i := range f.s.users {
		if f.s.users[i].UserID == user.UserID {
			f.s.users[i].TotalPlayed = user.TotalPlayed
			f.s.users[i].CorrectAnswers = user.CorrectAnswers
			f.s.users[i].CurrentStreak = user.CurrentStreak
			f.s.users[i].BestStreak = user.BestStreak
		}
	}
	return nil
}

type fakeSessions struct{ s *store }

func (f *fakeSessions) Find(token string) (*server.Session, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for i := range f.s.sessions {
		if f.s.sessions[i].SessionToken == token {
			session := f.s.sessions[i]
			return &session, nil
		}
	}
	return nil, nil
}

func (f *fakeSessions) Insert(session server.Session) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.sessions = append(f.s.sessions, session)
	return nil
}

func (f *fakeSessions) Delete(token string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	kept := f.s.sessions[:0]
	for _, session := range f.s.sessions {
		if session.SessionToken != token {
			kept = append(kept, session)
		}
	}
	f.s.sessions = kept
	return nil
}

type fakePlayables struct{ s *store }

func (f *fakePlayables) FindByID(playableID string) (*server.StoredPlayable, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for i := range f.s.playables {
		if f.s.playables[i].ID == playableID {
			p := f.s.playables[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakePlayables) Feed(excludeIDs []string, skip, limit int) ([]server.StoredPlayable, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	var out []server.StoredPlayable
	for _, p := range f.s.playables {
		if !excluded[p.ID] {
			out = append(out, p)
		}
	}
	if skip >= len(out) {
		return nil, nil
	}
	out = out[skip:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePlayables) Insert(playable server.StoredPlayable) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.playables = append(f.s.playables, playable)
	return nil
}

func (f *fakePlayables) InsertAll(playables []server.StoredPlayable) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.playables = append(f.s.playables, playables...)
	return nil
}

func (f *fakePlayables) Count() (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return int64(len(f.s.playables)), nil
}

type fakeProgress struct{ s *store }

func (f *fakeProgress) AnsweredIDs(userID string) ([]string, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var ids []string
	for _, p := range f.s.progress {
		if p.UserID == userID {
			ids = append(ids, p.PlayableID)
		}
	}
	return ids, nil
}

func (f *fakeProgress) Insert(progress server.Progress) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.progress = append(f.s.progress, progress)
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *store) {
	t.Helper()
	s := &store{}
	auth := NewAuthAPI(&fakeUsers{s}, &fakeSessions{s}, "http://auth.invalid", time.Hour)
	playables := NewPlayableAPI(&fakePlayables{s}, &fakeProgress{s}, &fakeUsers{s})
	return NewRouter(auth, playables), s
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	}
	return w, decoded
}

func devLogin(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w, resp := doJSON(t, router, http.MethodPost, "/api/auth/dev-login", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dev-login returned %d: %s", w.Code, w.Body.String())
	}
	token, _ := resp["session_token"].(string)
	if token == "" {
		t.Fatal("dev-login returned no session token")
	}
	return token
}

func textPlayable(id, answer, explanation string) server.StoredPlayable {
	return server.StoredPlayable{
		Playable: feed.Playable{
			ID:       id,
			Kind:     feed.KindTextInput,
			Category: "Science",
			Title:    "Question " + id,
		},
		CorrectAnswer: answer,
		Explanation:   explanation,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestDevLoginAndMe(t *testing.T) {
	router, s := newTestRouter(t)

	token := devLogin(t, router)
	w, me := doJSON(t, router, http.MethodGet, "/api/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me returned %d", w.Code)
	}
	if me["email"] != "dev@invin.app" {
		t.Errorf("me = %v", me)
	}

	// a second login reuses the same user
	devLogin(t, router)
	if len(s.users) != 1 {
		t.Errorf("user count = %d, want 1", len(s.users))
	}
}

func TestRequireAuth(t *testing.T) {
	router, s := newTestRouter(t)

	w, _ := doJSON(t, router, http.MethodGet, "/api/playables/feed", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}
	w, _ = doJSON(t, router, http.MethodGet, "/api/playables/feed", "bogus", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unknown token: status = %d, want 401", w.Code)
	}

	token := devLogin(t, router)
	s.mu.Lock()
	for i := range s.sessions {
		s.sessions[i].ExpiresAt = time.Now().Add(-time.Minute)
	}
	s.mu.Unlock()
	w, _ = doJSON(t, router, http.MethodGet, "/api/playables/feed", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expired token: status = %d, want 401", w.Code)
	}
}

func TestAnswerFlowAndStreaks(t *testing.T) {
	router, s := newTestRouter(t)
	s.playables = []server.StoredPlayable{
		textPlayable("p1", "Mars", "Fourth planet from the sun."),
		textPlayable("p2", "Jupiter", ""),
	}
	token := devLogin(t, router)

	// matching ignores case and surrounding whitespace
	w, resp := doJSON(t, router, http.MethodPost, "/api/playables/p1/answer", token,
		map[string]string{"answer": "  mars "})
	if w.Code != http.StatusOK {
		t.Fatalf("answer returned %d: %s", w.Code, w.Body.String())
	}
	if resp["correct"] != true || resp["current_streak"] != float64(1) {
		t.Errorf("correct answer response = %v", resp)
	}
	if resp["explanation"] != "Fourth planet from the sun." {
		t.Errorf("explanation = %v", resp["explanation"])
	}

	w, resp = doJSON(t, router, http.MethodPost, "/api/playables/p2/answer", token,
		map[string]string{"answer": "Saturn"})
	if w.Code != http.StatusOK {
		t.Fatalf("answer returned %d", w.Code)
	}
	if resp["correct"] != false || resp["current_streak"] != float64(0) {
		t.Errorf("wrong answer response = %v", resp)
	}
	if resp["best_streak"] != float64(1) {
		t.Errorf("best_streak = %v, want 1", resp["best_streak"])
	}
	if resp["correct_answer"] != "Jupiter" {
		t.Errorf("correct_answer = %v", resp["correct_answer"])
	}

	// both items are now excluded from the feed
	req := httptest.NewRequest(http.MethodGet, "/api/playables/feed", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	var items []feed.Playable
	if err := json.Unmarshal(w2.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode feed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("feed after answering = %v, want empty", items)
	}
}

func TestFeedPagesOverRemainingItems(t *testing.T) {
	router, s := newTestRouter(t)
	s.playables = []server.StoredPlayable{
		textPlayable("p1", "a", ""),
		textPlayable("p2", "b", ""),
		textPlayable("p3", "c", ""),
		textPlayable("p4", "d", ""),
	}
	token := devLogin(t, router)

	for _, id := range []string{"p1", "p2"} {
		w, _ := doJSON(t, router, http.MethodPost, "/api/playables/"+id+"/answer", token,
			map[string]string{"answer": "x"})
		if w.Code != http.StatusOK {
			t.Fatalf("answer %s returned %d", id, w.Code)
		}
	}

	// consumed items are excluded before paging, so the first page of
	// the next fetch holds the unanswered remainder
	req := httptest.NewRequest(http.MethodGet, "/api/playables/feed?skip=0&limit=2", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var items []feed.Playable
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode feed: %v", err)
	}
	if len(items) != 2 || items[0].ID != "p3" || items[1].ID != "p4" {
		t.Errorf("feed = %+v, want p3 and p4", items)
	}
}

func TestAnswerUnknownPlayable(t *testing.T) {
	router, _ := newTestRouter(t)
	token := devLogin(t, router)

	w, _ := doJSON(t, router, http.MethodPost, "/api/playables/nope/answer", token,
		map[string]string{"answer": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGuessHintLadder(t *testing.T) {
	router, s := newTestRouter(t)
	playable := server.StoredPlayable{
		Playable: feed.Playable{
			ID:       "g1",
			Kind:     feed.KindGuess,
			Category: "Geography",
			Title:    "Guess the city",
		},
		CorrectAnswer: "Paris",
		Hints:         []string{"It is in Europe.", "The city hosts the Louvre."},
		CreatedAt:     time.Now().UTC(),
	}
	s.playables = []server.StoredPlayable{playable}
	token := devLogin(t, router)

	// first wrong guess reveals the first hint
	w, resp := doJSON(t, router, http.MethodPost, "/api/playables/g1/guess", token,
		map[string]interface{}{"answer": "London", "hint_number": 0})
	if w.Code != http.StatusOK {
		t.Fatalf("guess returned %d: %s", w.Code, w.Body.String())
	}
	if resp["correct"] != false || resp["hint"] != "It is in Europe." || resp["hints_used"] != float64(1) {
		t.Errorf("first wrong guess = %v", resp)
	}
	if len(s.progress) != 0 {
		t.Error("wrong guess with hints left recorded progress")
	}

	// second wrong guess reveals the second hint
	_, resp = doJSON(t, router, http.MethodPost, "/api/playables/g1/guess", token,
		map[string]interface{}{"answer": "Rome", "hint_number": 1})
	if resp["hint"] != "The city hosts the Louvre." || resp["hints_used"] != float64(2) {
		t.Errorf("second wrong guess = %v", resp)
	}

	// third wrong guess exhausts the ladder and counts as incorrect
	_, resp = doJSON(t, router, http.MethodPost, "/api/playables/g1/guess", token,
		map[string]interface{}{"answer": "Berlin", "hint_number": 2})
	if resp["all_hints_exhausted"] != true || resp["correct"] != false {
		t.Errorf("exhausted ladder = %v", resp)
	}
	if resp["correct_answer"] != "Paris" {
		t.Errorf("correct_answer = %v", resp["correct_answer"])
	}
	if len(s.progress) != 1 || s.progress[0].Correct {
		t.Errorf("progress = %+v", s.progress)
	}
	if s.users[0].TotalPlayed != 1 || s.users[0].CurrentStreak != 0 {
		t.Errorf("user stats = %+v", s.users[0])
	}
}

func TestGuessCorrectOnLaterRung(t *testing.T) {
	router, s := newTestRouter(t)
	playable := server.StoredPlayable{
		Playable:      feed.Playable{ID: "g1", Kind: feed.KindGuess, Title: "Guess"},
		CorrectAnswer: "Paris",
		Hints:         []string{"h1", "h2", "h3"},
		CreatedAt:     time.Now().UTC(),
	}
	s.playables = []server.StoredPlayable{playable}
	token := devLogin(t, router)

	_, resp := doJSON(t, router, http.MethodPost, "/api/playables/g1/guess", token,
		map[string]interface{}{"answer": "paris", "hint_number": 2})
	if resp["correct"] != true || resp["hints_used"] != float64(2) {
		t.Errorf("late correct guess = %v", resp)
	}
	if resp["current_streak"] != float64(1) {
		t.Errorf("current_streak = %v", resp["current_streak"])
	}
}

func TestChessResultCountsTowardStreak(t *testing.T) {
	router, s := newTestRouter(t)
	s.playables = []server.StoredPlayable{
		{
			Playable: feed.Playable{
				ID:       "c1",
				Kind:     feed.KindChessMate,
				StartFEN: "7k/8/6K1/8/8/8/8/4R3 w - - 0 1",
				Solution: []string{"e1e8"},
			},
			CreatedAt: time.Now().UTC(),
		},
	}
	token := devLogin(t, router)

	w, resp := doJSON(t, router, http.MethodPost, "/api/playables/c1/chess-result", token,
		map[string]interface{}{"solved": true, "moves_used": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("chess-result returned %d", w.Code)
	}
	if resp["current_streak"] != float64(1) {
		t.Errorf("current_streak = %v", resp["current_streak"])
	}
	if s.users[0].CorrectAnswers != 1 {
		t.Errorf("user stats = %+v", s.users[0])
	}
}

func TestSkipRecordsWithoutStats(t *testing.T) {
	router, s := newTestRouter(t)
	s.playables = []server.StoredPlayable{textPlayable("p1", "Mars", "")}
	token := devLogin(t, router)

	w, _ := doJSON(t, router, http.MethodPost, "/api/playables/p1/skip", token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("skip returned %d", w.Code)
	}
	if len(s.progress) != 1 || s.progress[0].Answered {
		t.Errorf("progress = %+v", s.progress)
	}
	if s.users[0].TotalPlayed != 0 {
		t.Errorf("skip touched stats: %+v", s.users[0])
	}

	// skipped items never come back in the feed
	req := httptest.NewRequest(http.MethodGet, "/api/playables/feed", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	var items []feed.Playable
	if err := json.Unmarshal(w2.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode feed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("feed after skip = %v", items)
	}
}

func TestFeedHidesServerOnlyFields(t *testing.T) {
	router, s := newTestRouter(t)
	playable := textPlayable("p1", "Mars", "secret explanation")
	playable.Hints = []string{"h1", "h2"}
	s.playables = []server.StoredPlayable{playable}
	token := devLogin(t, router)

	req := httptest.NewRequest(http.MethodGet, "/api/playables/feed", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	body := w.Body.String()
	for _, leak := range []string{"Mars", "secret explanation", "h1"} {
		if bytes.Contains([]byte(body), []byte(leak)) {
			t.Errorf("feed leaked %q: %s", leak, body)
		}
	}
	var items []feed.Playable
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode feed: %v", err)
	}
	if len(items) != 1 || items[0].HintCount != 2 {
		t.Errorf("items = %+v, want one item with hint_count 2", items)
	}
}

func TestSeedPopulatesOnce(t *testing.T) {
	router, s := newTestRouter(t)

	w, _ := doJSON(t, router, http.MethodPost, "/api/seed", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("seed returned %d: %s", w.Code, w.Body.String())
	}
	if len(s.playables) == 0 {
		t.Fatal("seed inserted nothing")
	}
	count := len(s.playables)

	hasChess := false
	for _, p := range s.playables {
		if p.Kind == feed.KindChessMate {
			hasChess = true
			if len(p.Solution)%2 == 0 {
				t.Errorf("chess playable %s has even solution length %d", p.ID, len(p.Solution))
			}
		}
	}
	if !hasChess {
		t.Error("seed produced no chess playables")
	}

	// a second seed is a no-op
	doJSON(t, router, http.MethodPost, "/api/seed", "", nil)
	if len(s.playables) != count {
		t.Errorf("second seed changed playable count: %d -> %d", count, len(s.playables))
	}
}

func TestLogout(t *testing.T) {
	router, _ := newTestRouter(t)
	token := devLogin(t, router)

	w, _ := doJSON(t, router, http.MethodPost, "/api/auth/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout returned %d", w.Code)
	}
	w, _ = doJSON(t, router, http.MethodGet, "/api/auth/me", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("me after logout = %d, want 401", w.Code)
	}
}
