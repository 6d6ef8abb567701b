package api

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/invin-app/invin-core/internal/feed"
	"github.com/invin-app/invin-core/internal/server"
	"github.com/invin-app/invin-core/pkg/puzgen"
)

// Seed loads sample content into an empty playables collection.
func (p *PlayableAPI) Seed(ctx *gin.Context) {
	count, err := p.Playables.Count()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if count > 0 {
		ctx.JSON(http.StatusOK, gin.H{"message": "database already seeded", "count": count})
		return
	}

	playables := samplePlayables()
	if err := p.Playables.InsertAll(playables); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "database seeded", "count": len(playables)})
}

func samplePlayables() []server.StoredPlayable {
	now := time.Now().UTC()
	playables := []server.StoredPlayable{
		{
			Playable: feed.Playable{
				ID:       newPlayableID(),
				Kind:     feed.KindMCQ,
				Category: "Science",
				Title:    "Photosynthesis",
				Question: map[string]interface{}{
					"text": "What is the primary gas absorbed during photosynthesis?",
				},
				Options:    []string{"Oxygen", "Carbon Dioxide", "Nitrogen", "Hydrogen"},
				Difficulty: "easy",
			},
			CorrectAnswer: "Carbon Dioxide",
			CreatedAt:     now,
		},
		{
			Playable: feed.Playable{
				ID:       newPlayableID(),
				Kind:     feed.KindMCQ,
				Category: "History",
				Title:    "World War II",
				Question: map[string]interface{}{
					"text": "In which year did World War II end?",
				},
				Options:    []string{"1943", "1944", "1945", "1946"},
				Difficulty: "easy",
			},
			CorrectAnswer: "1945",
			CreatedAt:     now,
		},
		{
			Playable: feed.Playable{
				ID:       newPlayableID(),
				Kind:     feed.KindTextInput,
				Category: "Literature",
				Title:    "Famous Authors",
				Question: map[string]interface{}{
					"text": "Who wrote 'Romeo and Juliet'?",
				},
				Difficulty: "easy",
			},
			CorrectAnswer: "Shakespeare",
			CreatedAt:     now,
		},
		{
			Playable: feed.Playable{
				ID:       newPlayableID(),
				Kind:     feed.KindGuess,
				Category: "Geography",
				Title:    "Guess the City",
				Question: map[string]interface{}{
					"text": "Guess the city from the hints.",
				},
				Difficulty: "medium",
			},
			CorrectAnswer: "Paris",
			Hints: []string{
				"It is a European capital.",
				"It sits on the Seine.",
				"Its landmark tower opened in 1889.",
			},
			CreatedAt: now,
		},
	}

	for _, chess := range sampleChessPlayables(now) {
		playables = append(playables, chess)
	}
	return playables
}

func sampleChessPlayables(now time.Time) []server.StoredPlayable {
	candidates := []struct {
		title    string
		fen      string
		solution []string
	}{
		{
			title:    "Mate in one",
			fen:      "7k/8/6K1/8/8/8/8/4R3 w - - 0 1",
			solution: []string{"e1e8"},
		},
		{
			title:    "Mate in two",
			fen:      "r5k1/5ppp/8/8/8/8/4Q3/4R1K1 w - - 0 1",
			solution: []string{"e2e8", "a8e8", "e1e8"},
		},
	}

	playables := make([]server.StoredPlayable, 0, len(candidates))
	for _, c := range candidates {
		// never seed a chess line the rules engine cannot replay to mate
		if err := puzgen.ValidateLine(c.fen, c.solution); err != nil {
			log.Printf("api: skipping seed puzzle %q: %v", c.title, err)
			continue
		}
		playables = append(playables, server.StoredPlayable{
			Playable: feed.Playable{
				ID:       newPlayableID(),
				Kind:     feed.KindChessMate,
				Category: "Chess",
				Title:    c.title,
				Question: map[string]interface{}{
					"text": "Find the forced mate.",
				},
				StartFEN:   c.fen,
				Solution:   c.solution,
				Difficulty: difficultyForMate((len(c.solution) + 1) / 2),
			},
			CreatedAt: now,
		})
	}
	return playables
}

func difficultyForMate(mateIn int) string {
	switch {
	case mateIn <= 1:
		return "easy"
	case mateIn == 2:
		return "medium"
	default:
		return "hard"
	}
}

func newPlayableID() string {
	return "play_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
