package server

import (
	"time"

	"github.com/invin-app/invin-core/internal/feed"
)

// User mirrors the users collection.
type User struct {
	UserID         string    `json:"user_id" bson:"user_id"`
	Email          string    `json:"email" bson:"email"`
	Name           string    `json:"name" bson:"name"`
	Picture        string    `json:"picture,omitempty" bson:"picture,omitempty"`
	TotalPlayed    int       `json:"total_played" bson:"total_played"`
	CorrectAnswers int       `json:"correct_answers" bson:"correct_answers"`
	CurrentStreak  int       `json:"current_streak" bson:"current_streak"`
	BestStreak     int       `json:"best_streak" bson:"best_streak"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

// Session is an opaque bearer token with an expiry.
type Session struct {
	UserID       string    `bson:"user_id"`
	SessionToken string    `bson:"session_token"`
	ExpiresAt    time.Time `bson:"expires_at"`
	CreatedAt    time.Time `bson:"created_at"`
}

// Progress records one answered or skipped playable per user.
type Progress struct {
	UserID     string    `bson:"user_id"`
	PlayableID string    `bson:"playable_id"`
	Answered   bool      `bson:"answered"`
	Correct    bool      `bson:"correct"`
	Timestamp  time.Time `bson:"timestamp"`
}

// StoredPlayable is the playables document: the public payload plus the
// fields that must never reach the client.
type StoredPlayable struct {
	feed.Playable `bson:",inline"`
	CorrectAnswer string    `bson:"correct_answer,omitempty"`
	Explanation   string    `bson:"explanation,omitempty"`
	Hints         []string  `bson:"hints,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
}

// ApplyResult updates a user's running stats for one completed round.
// Streak logic: a correct answer extends the streak and may raise the
// best streak; an incorrect one resets it.
func ApplyResult(u *User, correct bool) {
	u.TotalPlayed++
	if correct {
		u.CorrectAnswers++
		u.CurrentStreak++
		if u.CurrentStreak > u.BestStreak {
			u.BestStreak = u.CurrentStreak
		}
	} else {
		u.CurrentStreak = 0
	}
}
