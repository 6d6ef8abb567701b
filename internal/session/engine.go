package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/invin-app/invin-core/internal/feed"
	"github.com/invin-app/invin-core/internal/puzzle"
)

const requestTimeout = 10 * time.Second

type Config struct {
	// PageSize is the batch size requested from the feed provider.
	PageSize int
	// AutoRefetch requests another batch on exhaustion instead of
	// showing the end-of-session summary.
	AutoRefetch bool
	// OpponentMoveDelay is the presentation pause before the stored
	// opponent half-move is applied.
	OpponentMoveDelay time.Duration
}

// Engine is the session state machine: the single source of truth for
// what the user may currently do. Every mutating entry point checks the
// current state under one lock hold and records the transition before
// any asynchronous work starts, so re-entrant calls and late callbacks
// are rejected by the gate rather than by the UI.
type Engine struct {
	provider feed.Provider
	session  feed.SessionProvider
	listener Listener
	cfg      Config

	mu        sync.Mutex
	state     State
	batch     feed.Batch
	feedback  *Feedback
	stats     Stats
	gen       uint64
	hintsUsed int
	puz       *puzzle.Puzzle
}

func New(provider feed.Provider, session feed.SessionProvider, listener Listener, cfg Config) *Engine {
	if listener == nil {
		listener = NopListener{}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.OpponentMoveDelay <= 0 {
		cfg.OpponentMoveDelay = 600 * time.Millisecond
	}
	return &Engine{
		provider: provider,
		session:  session,
		listener: listener,
		cfg:      cfg,
		state:    StateLoading,
		stats:    Stats{CorrectByCategory: make(map[string]int)},
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.clone()
}

// Feedback returns the cached feedback payload while the machine is in
// StateShowingFeedback.
func (e *Engine) Feedback() (Feedback, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.feedback == nil {
		return Feedback{}, false
	}
	return *e.feedback, true
}

// CurrentItem returns the playable under the batch cursor.
func (e *Engine) CurrentItem() (feed.Playable, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.batch.Current()
}

func (e *Engine) BatchIndex() (index, length int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.batch.Index(), e.batch.Len()
}

// PuzzleSnapshot returns the active chess item's render state.
func (e *Engine) PuzzleSnapshot() (puzzle.Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.puz == nil {
		return puzzle.Snapshot{}, false
	}
	return e.puz.Snapshot(""), true
}

// Start kicks off the initial batch fetch. Valid only in StateLoading.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.state != StateLoading {
		e.dropLocked("start")
		e.mu.Unlock()
		return
	}
	e.gen++
	gen := e.gen
	limit := e.cfg.PageSize
	e.mu.Unlock()

	go e.fetch(gen, 0, limit)
}

func (e *Engine) fetch(gen uint64, offset, limit int) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	items, err := e.provider.FetchBatch(ctx, offset, limit)

	e.mu.Lock()
	if e.state != StateLoading || gen != e.gen {
		log.Printf("session: stale fetch result dropped")
		e.mu.Unlock()
		return
	}
	if err != nil {
		// fetch failure degrades to "no content", never a stuck loader
		log.Printf("session: batch fetch failed: %v", err)
		items = nil
	}
	e.batch = feed.NewBatch(items)
	item, hasPuzzle, broken := e.prepareItemLocked()
	e.transitionLocked(StatePlaying)
	index, length := e.batch.Index(), e.batch.Len()
	var snap puzzle.Snapshot
	if hasPuzzle {
		snap = e.puz.Snapshot("")
	}
	e.mu.Unlock()

	e.listener.BatchChanged(index, length)
	e.listener.StateChanged(StatePlaying)
	if hasPuzzle {
		e.listener.PuzzleUpdated(snap)
	}
	if broken {
		e.resolvePuzzle(item, false, 0)
	}
}

// SubmitAnswer submits an MCQ or text-input answer for the current
// item. Valid only in StatePlaying with an item under the cursor.
func (e *Engine) SubmitAnswer(value string) {
	e.mu.Lock()
	if e.state != StatePlaying {
		e.dropLocked("submitAnswer")
		e.mu.Unlock()
		return
	}
	item, ok := e.batch.Current()
	if !ok {
		e.dropLocked("submitAnswer")
		e.mu.Unlock()
		return
	}
	if item.Kind == feed.KindChessMate {
		// chess items resolve through the puzzle engine, not here
		e.dropLocked("submitAnswer")
		e.mu.Unlock()
		return
	}
	if item.Kind == feed.KindGuess {
		e.mu.Unlock()
		e.SubmitGuess(value)
		return
	}
	e.transitionLocked(StateSubmitting)
	e.gen++
	gen := e.gen
	e.mu.Unlock()
	e.listener.StateChanged(StateSubmitting)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := e.provider.SubmitAnswer(ctx, item.ID, value)
		e.finishSubmit(gen, item, Feedback{
			Correct:       res.Correct,
			CorrectAnswer: res.CorrectAnswer,
			CurrentStreak: res.CurrentStreak,
			Explanation:   res.Explanation,
		}, err)
	}()
}

// SubmitGuess submits one rung of a guess_the_x hint ladder. A wrong
// guess with hints remaining returns the machine to StatePlaying with
// the next hint armed; a correct guess or an exhausted ladder completes
// the item through the normal feedback path.
func (e *Engine) SubmitGuess(value string) {
	e.mu.Lock()
	if e.state != StatePlaying {
		e.dropLocked("submitGuess")
		e.mu.Unlock()
		return
	}
	item, ok := e.batch.Current()
	if !ok || item.Kind != feed.KindGuess {
		e.dropLocked("submitGuess")
		e.mu.Unlock()
		return
	}
	e.transitionLocked(StateSubmitting)
	e.gen++
	gen := e.gen
	hintNumber := e.hintsUsed
	e.mu.Unlock()
	e.listener.StateChanged(StateSubmitting)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := e.provider.SubmitGuess(ctx, item.ID, value, hintNumber)
		e.finishGuess(gen, item, res, err)
	}()
}

func (e *Engine) finishGuess(gen uint64, item feed.Playable, res feed.GuessResult, err error) {
	if err == nil && !res.Correct && !res.AllHintsExhausted {
		e.mu.Lock()
		if e.state != StateSubmitting || gen != e.gen {
			log.Printf("session: stale guess result dropped")
			e.mu.Unlock()
			return
		}
		e.hintsUsed = res.HintsUsed
		if e.hintsUsed <= 0 {
			e.hintsUsed = 1
		}
		hintsUsed := e.hintsUsed
		e.transitionLocked(StatePlaying)
		e.mu.Unlock()
		e.listener.HintRevealed(res.Hint, hintsUsed)
		e.listener.StateChanged(StatePlaying)
		return
	}
	e.finishSubmit(gen, item, Feedback{
		Correct:       res.Correct,
		CorrectAnswer: res.CorrectAnswer,
		CurrentStreak: res.CurrentStreak,
	}, err)
}

// finishSubmit resolves StateSubmitting. Session-wide stats update
// atomically with the transition into StateShowingFeedback.
func (e *Engine) finishSubmit(gen uint64, item feed.Playable, fb Feedback, err error) {
	e.mu.Lock()
	if e.state != StateSubmitting || gen != e.gen {
		log.Printf("session: stale submission result dropped")
		e.mu.Unlock()
		return
	}
	if err != nil {
		// feedback discarded; the user may retry the same item
		log.Printf("session: submission failed: %v", err)
		e.transitionLocked(StatePlaying)
		e.mu.Unlock()
		e.listener.StateChanged(StatePlaying)
		return
	}
	e.stats.Played++
	if fb.Correct {
		e.stats.Correct++
		if item.Category != "" {
			e.stats.CorrectByCategory[item.Category]++
		}
	}
	if fb.CurrentStreak > e.stats.BestStreak {
		e.stats.BestStreak = fb.CurrentStreak
	}
	e.feedback = &fb
	e.transitionLocked(StateShowingFeedback)
	stats := e.stats.clone()
	e.mu.Unlock()

	e.listener.FeedbackReady(fb)
	e.listener.StatsUpdated(stats)
	e.listener.StateChanged(StateShowingFeedback)
	e.refreshProfile()
}

// refreshProfile re-reads the user profile for streak display. It never
// gates progression and its failure is absorbed.
func (e *Engine) refreshProfile() {
	if e.session == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_ = e.session.Refresh(ctx)
	}()
}

// Advance moves from feedback into the transition. Only an explicit
// user gesture triggers it, never a timer.
func (e *Engine) Advance() {
	e.mu.Lock()
	if e.state != StateShowingFeedback {
		e.dropLocked("advance")
		e.mu.Unlock()
		return
	}
	e.feedback = nil
	e.transitionLocked(StateTransitioning)
	e.mu.Unlock()
	e.listener.StateChanged(StateTransitioning)
}

// Skip abandons the current item without answering. The skip report is
// fire-and-forget; its outcome never blocks the transition.
func (e *Engine) Skip() {
	e.mu.Lock()
	if e.state != StatePlaying {
		e.dropLocked("skip")
		e.mu.Unlock()
		return
	}
	item, ok := e.batch.Current()
	if !ok {
		e.dropLocked("skip")
		e.mu.Unlock()
		return
	}
	e.transitionLocked(StateTransitioning)
	e.mu.Unlock()
	e.listener.StateChanged(StateTransitioning)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := e.provider.Skip(ctx, item.ID); err != nil {
			log.Printf("session: skip report failed: %v", err)
		}
	}()
}

// CompleteTransition is the presentation layer's "animation finished"
// signal. The cursor advances here; on exhaustion the batch is either
// refetched or cleared into the end-of-session summary.
func (e *Engine) CompleteTransition() {
	e.mu.Lock()
	if e.state != StateTransitioning {
		e.dropLocked("completeTransition")
		e.mu.Unlock()
		return
	}
	e.batch.Advance()

	if e.batch.Exhausted() {
		if e.cfg.AutoRefetch && e.batch.Len() > 0 {
			e.batch = feed.NewBatch(nil)
			e.puz = nil
			e.hintsUsed = 0
			e.transitionLocked(StateLoading)
			e.gen++
			gen := e.gen
			limit := e.cfg.PageSize
			e.mu.Unlock()
			e.listener.StateChanged(StateLoading)
			// the provider excludes everything already answered or
			// skipped, so the next page always starts at offset zero
			go e.fetch(gen, 0, limit)
			return
		}
		e.batch = feed.NewBatch(nil)
		e.puz = nil
		e.hintsUsed = 0
		e.transitionLocked(StatePlaying)
		index, length := e.batch.Index(), e.batch.Len()
		e.mu.Unlock()
		e.listener.BatchChanged(index, length)
		e.listener.StateChanged(StatePlaying)
		return
	}

	item, hasPuzzle, broken := e.prepareItemLocked()
	e.transitionLocked(StatePlaying)
	index, length := e.batch.Index(), e.batch.Len()
	var snap puzzle.Snapshot
	if hasPuzzle {
		snap = e.puz.Snapshot("")
	}
	e.mu.Unlock()

	e.listener.BatchChanged(index, length)
	e.listener.StateChanged(StatePlaying)
	if hasPuzzle {
		e.listener.PuzzleUpdated(snap)
	}
	if broken {
		e.resolvePuzzle(item, false, 0)
	}
}

// prepareItemLocked resets per-item state and, for a chess item,
// constructs a fresh puzzle from its FEN. A puzzle that cannot be
// constructed is reported broken so the caller can resolve it as
// failed.
func (e *Engine) prepareItemLocked() (item feed.Playable, hasPuzzle, broken bool) {
	e.hintsUsed = 0
	e.puz = nil
	item, ok := e.batch.Current()
	if !ok || item.Kind != feed.KindChessMate {
		return item, false, false
	}
	p, err := puzzle.New(item.StartFEN, item.Solution)
	if err != nil {
		log.Printf("session: malformed chess item %s: %v", item.ID, err)
		return item, false, true
	}
	e.puz = p
	return item, true, false
}

func (e *Engine) transitionLocked(to State) {
	log.Printf("session: %s -> %s", e.state, to)
	e.state = to
}

func (e *Engine) dropLocked(action string) {
	log.Printf("session: %s ignored in state %s", action, e.state)
}
