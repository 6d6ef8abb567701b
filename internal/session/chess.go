package session

import (
	"context"
	"time"

	"github.com/invin-app/invin-core/internal/feed"
	"github.com/invin-app/invin-core/internal/puzzle"
)

// Chess items bypass the submit-once path: the puzzle engine owns
// move-by-move interaction locally and only enters StateSubmitting once,
// at resolution, carrying the moves-used count for scoring.

// SelectSquare highlights a square of the active chess puzzle.
func (e *Engine) SelectSquare(square string) {
	e.mu.Lock()
	if e.state != StatePlaying || e.puz == nil {
		e.dropLocked("selectSquare")
		e.mu.Unlock()
		return
	}
	e.puz.SelectSquare(square)
	snap := e.puz.Snapshot("")
	e.mu.Unlock()
	e.listener.PuzzleUpdated(snap)
}

// AttemptMove plays one player half-move against the active puzzle.
func (e *Engine) AttemptMove(from, to string) {
	e.mu.Lock()
	if e.state != StatePlaying || e.puz == nil {
		e.dropLocked("attemptMove")
		e.mu.Unlock()
		return
	}
	item, _ := e.batch.Current()
	verdict := e.puz.AttemptMove(from, to)

	var message string
	var dispatch func()
	switch verdict {
	case puzzle.VerdictIllegal:
		message = "illegal move"
	case puzzle.VerdictWrong:
		message = "wrong move, try again"
	case puzzle.VerdictSolved:
		dispatch = e.beginChessSubmitLocked(item, true, e.puz.MovesUsed())
	case puzzle.VerdictOpponentTurn:
		time.AfterFunc(e.cfg.OpponentMoveDelay, e.playOpponentReply)
	}
	snap := e.puz.Snapshot(message)
	e.mu.Unlock()

	e.listener.PuzzleUpdated(snap)
	if dispatch != nil {
		e.listener.StateChanged(StateSubmitting)
		dispatch()
	}
}

// playOpponentReply fires after the presentation delay and applies the
// stored opponent half-move. The state gate drops it if the item has
// changed in the meantime.
func (e *Engine) playOpponentReply() {
	e.mu.Lock()
	if e.state != StatePlaying || e.puz == nil || e.puz.Status() != puzzle.StatusOpponentMoving {
		e.mu.Unlock()
		return
	}
	item, _ := e.batch.Current()
	verdict := e.puz.PlayOpponentReply()

	var dispatch func()
	if verdict == puzzle.VerdictFailed {
		// malformed solution data fails this puzzle only, reported
		// exactly like an incorrect answer
		dispatch = e.beginChessSubmitLocked(item, false, e.puz.MovesUsed())
	}
	snap := e.puz.Snapshot("")
	e.mu.Unlock()

	e.listener.PuzzleUpdated(snap)
	if dispatch != nil {
		e.listener.StateChanged(StateSubmitting)
		dispatch()
	}
}

// resolvePuzzle reports a puzzle outcome that was decided outside the
// normal move flow (an item whose data could not even build a board).
func (e *Engine) resolvePuzzle(item feed.Playable, solved bool, movesUsed int) {
	e.mu.Lock()
	if e.state != StatePlaying {
		e.dropLocked("resolvePuzzle")
		e.mu.Unlock()
		return
	}
	dispatch := e.beginChessSubmitLocked(item, solved, movesUsed)
	e.mu.Unlock()
	e.listener.StateChanged(StateSubmitting)
	dispatch()
}

// beginChessSubmitLocked enters StateSubmitting and returns the report
// dispatch for the caller to run after it has emitted the state event,
// so listeners never see the resolution before the submission. Caller
// holds the lock.
func (e *Engine) beginChessSubmitLocked(item feed.Playable, solved bool, movesUsed int) func() {
	e.transitionLocked(StateSubmitting)
	e.gen++
	gen := e.gen
	return func() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			res, err := e.provider.SubmitChessResult(ctx, item.ID, solved, movesUsed)
			e.finishSubmit(gen, item, Feedback{
				Correct:       solved,
				CurrentStreak: res.CurrentStreak,
			}, err)
		}()
	}
}
