package puzgen

import (
	"github.com/freeeve/uci"
	"github.com/notnil/chess"
)

const maxDepth = 10

func SetupEngine(path string, arg ...string) (*uci.Engine, error) {
	e, err := uci.NewEngine(path, arg...)
	if err != nil {
		return nil, err
	}

	err = e.SetOptions(uci.Options{
		MultiPV: maxDepth,
		Hash:    128,
		Ponder:  false,
		OwnBook: true,
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// AnalyzeGame walks a game move by move and collects every position
// with a forced mate for the side to move.
func AnalyzeGame(path string, game *chess.Game, arg ...string) ([]Puzzle, error) {
	e, err := SetupEngine(path, arg...)
	if err != nil {
		return nil, err
	}
	defer e.Close()
	return analyzeGame(game, e)
}

func AnalyzeAllGames(path string, games []*chess.Game, arg ...string) ([]Puzzle, error) {
	e, err := SetupEngine(path, arg...)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	res := make([]Puzzle, 0)
	for _, game := range games {
		puzzles, err := analyzeGame(game, e)
		if err != nil {
			return nil, err
		}
		res = append(res, puzzles...)
	}
	return res, nil
}

func analyzeGame(g *chess.Game, e *uci.Engine) ([]Puzzle, error) {
	watchedPositions := make(map[string]bool)
	moves := g.Moves()
	newGame := chess.NewGame()
	res := make([]Puzzle, 0)
	for _, move := range moves {
		newGame.Move(move)
		puzzle, err := GeneratePuzzleFromPosition(*newGame, e, watchedPositions)
		if err != nil {
			return nil, err
		}
		if puzzle.StartFEN != "" {
			res = append(res, puzzle)
		}
	}
	return res, nil
}

// GeneratePuzzleFromPosition asks the engine for a forced mate from the
// current position and flattens its principal variation into a
// coordinate-notation solution line.
func GeneratePuzzleFromPosition(game chess.Game, e *uci.Engine, watchedPositions map[string]bool) (Puzzle, error) {
	if watchedPositions[game.FEN()] {
		return Puzzle{}, nil
	}

	if err := e.SetFEN(game.FEN()); err != nil {
		return Puzzle{}, err
	}
	result, err := e.GoDepth(maxDepth)
	if err != nil {
		return Puzzle{}, err
	}
	if len(result.Results) == 0 {
		return Puzzle{}, nil
	}

	best := result.Results[0]
	if !best.Mate || best.Score < 1 {
		return Puzzle{}, nil
	}
	puzzle, ok := flattenLine(game.FEN(), best)
	if !ok {
		return Puzzle{}, nil
	}
	puzzle.IsWhiteTurn = game.Position().Turn() == chess.White
	watchedPositions[game.FEN()] = true
	return puzzle, nil
}

// flattenLine trims the engine's best-move list to the mating line and
// replays it for a legality check. Lines the engine truncated are
// discarded rather than stored half-broken.
func flattenLine(fen string, res uci.ScoreResult) (Puzzle, bool) {
	want := 2*res.Score - 1
	if len(res.BestMoves) < want {
		return Puzzle{}, false
	}
	line := res.BestMoves[:want]
	if err := ValidateLine(fen, line); err != nil {
		return Puzzle{}, false
	}
	return Puzzle{
		StartFEN: fen,
		Solution: line,
		MateIn:   res.Score,
	}, true
}
