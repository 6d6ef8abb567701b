package feed

import "context"

// AnswerResult is the backend's verdict for a submitted answer.
type AnswerResult struct {
	Correct        bool   `json:"correct"`
	CorrectAnswer  string `json:"correct_answer"`
	CurrentStreak  int    `json:"current_streak"`
	BestStreak     int    `json:"best_streak,omitempty"`
	TotalPlayed    int    `json:"total_played,omitempty"`
	CorrectAnswers int    `json:"correct_answers,omitempty"`
	Explanation    string `json:"explanation,omitempty"`
}

// GuessResult is the backend's verdict for one rung of a hint ladder.
type GuessResult struct {
	Correct           bool   `json:"correct"`
	CorrectAnswer     string `json:"correct_answer,omitempty"`
	Hint              string `json:"hint,omitempty"`
	HintsUsed         int    `json:"hints_used,omitempty"`
	AllHintsExhausted bool   `json:"all_hints_exhausted,omitempty"`
	CurrentStreak     int    `json:"current_streak,omitempty"`
}

// ChessResult acknowledges a locally-resolved chess puzzle.
type ChessResult struct {
	CurrentStreak int `json:"current_streak"`
}

// Profile mirrors the server-side user stats consumed for display.
type Profile struct {
	TotalPlayed    int `json:"total_played"`
	CorrectAnswers int `json:"correct_answers"`
	CurrentStreak  int `json:"current_streak"`
	BestStreak     int `json:"best_streak"`
}

// Provider is the feed data provider the session engine consumes.
// An empty FetchBatch result is a valid response meaning "no more content".
type Provider interface {
	FetchBatch(ctx context.Context, offset, limit int) ([]Playable, error)

	SubmitAnswer(ctx context.Context, itemID, answer string) (AnswerResult, error)

	SubmitGuess(ctx context.Context, itemID, answer string, hintNumber int) (GuessResult, error)

	SubmitChessResult(ctx context.Context, itemID string, solved bool, movesUsed int) (ChessResult, error)

	// Skip is best-effort; callers treat it as fire-and-forget.
	Skip(ctx context.Context, itemID string) error
}

// SessionProvider exposes the auth token and cached user profile.
// Refresh is called fire-and-forget after each submission.
type SessionProvider interface {
	Token() string
	Profile() Profile
	Refresh(ctx context.Context) error
}
