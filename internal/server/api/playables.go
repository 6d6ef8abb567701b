package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/invin-app/invin-core/internal/feed"
	"github.com/invin-app/invin-core/internal/server"
	"github.com/invin-app/invin-core/internal/server/dao"
)

type PlayableAPI struct {
	Playables dao.PlayableRepository
	Progress  dao.ProgressRepository
	Users     dao.UserRepository
}

func NewPlayableAPI(playables dao.PlayableRepository, progress dao.ProgressRepository, users dao.UserRepository) *PlayableAPI {
	return &PlayableAPI{
		Playables: playables,
		Progress:  progress,
		Users:     users,
	}
}

// Feed returns the next page of playables the user has not answered.
// An empty page is a valid "no more content" response, not an error.
func (p *PlayableAPI) Feed(ctx *gin.Context) {
	user := currentUser(ctx)
	skip, err := strconv.Atoi(ctx.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "skip should be a non-negative integer"})
		return
	}
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit should be a positive integer"})
		return
	}

	answered, err := p.Progress.AnsweredIDs(user.UserID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	stored, err := p.Playables.Feed(answered, skip, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := make([]feed.Playable, 0, len(stored))
	for _, s := range stored {
		item := s.Playable
		item.HintCount = len(s.Hints)
		items = append(items, item)
	}
	ctx.JSON(http.StatusOK, items)
}

type answerSubmission struct {
	Answer string `json:"answer"`
}

// Answer checks a submitted answer and updates the user's stats.
func (p *PlayableAPI) Answer(ctx *gin.Context) {
	user := currentUser(ctx)
	var submission answerSubmission
	if err := ctx.ShouldBindJSON(&submission); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	playable, ok := p.lookupPlayable(ctx)
	if !ok {
		return
	}

	correct := answersMatch(submission.Answer, playable.CorrectAnswer)
	if err := p.recordResult(user, playable.ID, correct); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"correct":         correct,
		"correct_answer":  playable.CorrectAnswer,
		"current_streak":  user.CurrentStreak,
		"best_streak":     user.BestStreak,
		"total_played":    user.TotalPlayed,
		"correct_answers": user.CorrectAnswers,
		"explanation":     playable.Explanation,
	})
}

type guessSubmission struct {
	Answer     string `json:"answer"`
	HintNumber int    `json:"hint_number"`
}

// Guess handles one rung of a guess_the_x hint ladder. A wrong guess
// consumes the next hint; once the ladder is exhausted the round counts
// as incorrect.
func (p *PlayableAPI) Guess(ctx *gin.Context) {
	user := currentUser(ctx)
	var submission guessSubmission
	if err := ctx.ShouldBindJSON(&submission); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	playable, ok := p.lookupPlayable(ctx)
	if !ok {
		return
	}

	if answersMatch(submission.Answer, playable.CorrectAnswer) {
		if err := p.recordResult(user, playable.ID, true); err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{
			"correct":        true,
			"correct_answer": playable.CorrectAnswer,
			"hints_used":     submission.HintNumber,
			"current_streak": user.CurrentStreak,
		})
		return
	}

	hintsUsed := submission.HintNumber + 1
	if hintsUsed <= len(playable.Hints) {
		ctx.JSON(http.StatusOK, gin.H{
			"correct":    false,
			"hint":       playable.Hints[hintsUsed-1],
			"hints_used": hintsUsed,
		})
		return
	}

	if err := p.recordResult(user, playable.ID, false); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"correct":             false,
		"correct_answer":      playable.CorrectAnswer,
		"hints_used":          len(playable.Hints),
		"all_hints_exhausted": true,
		"current_streak":      user.CurrentStreak,
	})
}

type chessSubmission struct {
	Solved    bool `json:"solved"`
	MovesUsed int  `json:"moves_used"`
}

// ChessResult records a locally-resolved chess puzzle. A solved puzzle
// counts as a correct answer for streak purposes.
func (p *PlayableAPI) ChessResult(ctx *gin.Context) {
	user := currentUser(ctx)
	var submission chessSubmission
	if err := ctx.ShouldBindJSON(&submission); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	playable, ok := p.lookupPlayable(ctx)
	if !ok {
		return
	}

	if err := p.recordResult(user, playable.ID, submission.Solved); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"current_streak": user.CurrentStreak,
	})
}

// Skip records a skipped playable. Stats are untouched.
func (p *PlayableAPI) Skip(ctx *gin.Context) {
	user := currentUser(ctx)
	playable, ok := p.lookupPlayable(ctx)
	if !ok {
		return
	}
	err := p.Progress.Insert(server.Progress{
		UserID:     user.UserID,
		PlayableID: playable.ID,
		Answered:   false,
		Correct:    false,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (p *PlayableAPI) Stats(ctx *gin.Context) {
	user := currentUser(ctx)
	ctx.JSON(http.StatusOK, gin.H{
		"total_played":    user.TotalPlayed,
		"correct_answers": user.CorrectAnswers,
		"current_streak":  user.CurrentStreak,
		"best_streak":     user.BestStreak,
	})
}

func (p *PlayableAPI) lookupPlayable(ctx *gin.Context) (*server.StoredPlayable, bool) {
	playable, err := p.Playables.FindByID(ctx.Param("playable_id"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if playable == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "playable not found"})
		return nil, false
	}
	return playable, true
}

func (p *PlayableAPI) recordResult(user *server.User, playableID string, correct bool) error {
	err := p.Progress.Insert(server.Progress{
		UserID:     user.UserID,
		PlayableID: playableID,
		Answered:   true,
		Correct:    correct,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	server.ApplyResult(user, correct)
	return p.Users.UpdateStats(user)
}

func answersMatch(submitted, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(correct))
}
