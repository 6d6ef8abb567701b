package puzzle

// Snapshot is the render state of a puzzle: board position, selection
// highlights and a transient user-facing message.
type Snapshot struct {
	FEN               string   `json:"fen"`
	Status            string   `json:"status"`
	SelectedSquare    string   `json:"selected_square,omitempty"`
	LegalDestinations []string `json:"legal_destinations,omitempty"`
	LastMoveFrom      string   `json:"last_move_from,omitempty"`
	LastMoveTo        string   `json:"last_move_to,omitempty"`
	Message           string   `json:"message,omitempty"`
}

// Snapshot captures the current render state. The message is supplied
// by the caller since its lifetime (auto-clear delay) is a presentation
// concern.
func (p *Puzzle) Snapshot(message string) Snapshot {
	selected, dests := p.Selected()
	from, to, _ := p.LastMove()
	return Snapshot{
		FEN:               p.FEN(),
		Status:            p.Status().String(),
		SelectedSquare:    selected,
		LegalDestinations: dests,
		LastMoveFrom:      from,
		LastMoveTo:        to,
		Message:           message,
	}
}
