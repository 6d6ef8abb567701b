package session

import "github.com/invin-app/invin-core/internal/puzzle"

// Listener receives the events the engine exposes to the rendering
// layer. Callbacks are invoked outside the engine's lock, so a listener
// may call back into the engine.
type Listener interface {
	StateChanged(state State)
	FeedbackReady(fb Feedback)
	StatsUpdated(stats Stats)
	HintRevealed(hint string, hintsUsed int)
	PuzzleUpdated(snap puzzle.Snapshot)
	BatchChanged(index, length int)
}

// NopListener discards every event.
type NopListener struct{}

func (NopListener) StateChanged(State)            {}
func (NopListener) FeedbackReady(Feedback)        {}
func (NopListener) StatsUpdated(Stats)            {}
func (NopListener) HintRevealed(string, int)      {}
func (NopListener) PuzzleUpdated(puzzle.Snapshot) {}
func (NopListener) BatchChanged(int, int)         {}

