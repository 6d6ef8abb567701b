package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notnil/chess"

	"github.com/invin-app/invin-core/internal/config"
	"github.com/invin-app/invin-core/internal/db"
	"github.com/invin-app/invin-core/internal/feed"
	"github.com/invin-app/invin-core/internal/server"
	"github.com/invin-app/invin-core/internal/server/dao"
	"github.com/invin-app/invin-core/pkg/puzgen"
)

// puzzlegen analyzes PGN games with stockfish and inserts every forced
// mate it finds as a chess_mate_in_n playable.
func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: puzzlegen <games.pgn>")
	}

	cfg, err := config.InitGeneratorConfig()
	if err != nil {
		panic(err)
	}

	reader, err := os.Open(os.Args[1])
	if err != nil {
		panic(err)
	}
	defer reader.Close()

	games := make([]*chess.Game, 0)
	scanner := chess.NewScanner(reader)
	for scanner.Scan() {
		games = append(games, scanner.Next())
	}
	log.Printf("read %d games from %s", len(games), os.Args[1])

	puzzles, err := puzgen.AnalyzeAllGames(cfg.Stockfish.Path, games, cfg.Stockfish.Args...)
	if err != nil {
		panic(err)
	}
	log.Printf("generated %d puzzles", len(puzzles))
	if len(puzzles) == 0 {
		return
	}

	dbClient, err := db.New(cfg.Database.Address, cfg.Database.DatabaseName)
	if err != nil {
		panic(err)
	}
	defer dbClient.Close()

	repo := dao.NewPlayableRepository(dbClient)
	if err := repo.InsertAll(toPlayables(puzzles)); err != nil {
		panic(err)
	}
	log.Printf("inserted %d playables", len(puzzles))
}

func toPlayables(puzzles []puzgen.Puzzle) []server.StoredPlayable {
	now := time.Now().UTC()
	playables := make([]server.StoredPlayable, 0, len(puzzles))
	for _, p := range puzzles {
		side := "Black"
		if p.IsWhiteTurn {
			side = "White"
		}
		playables = append(playables, server.StoredPlayable{
			Playable: feed.Playable{
				ID:       "play_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12],
				Kind:     feed.KindChessMate,
				Category: "Chess",
				Title:    fmt.Sprintf("%s to move, mate in %d", side, p.MateIn),
				Question: map[string]interface{}{
					"text": fmt.Sprintf("%s to move. Find the forced mate in %d.", side, p.MateIn),
				},
				StartFEN:   p.StartFEN,
				Solution:   p.Solution,
				Difficulty: difficultyForMate(p.MateIn),
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
