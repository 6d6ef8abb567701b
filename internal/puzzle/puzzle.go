package puzzle

import (
	"fmt"

	"github.com/notnil/chess"

	"github.com/invin-app/invin-core/pkg/puzgen"
)

// Status is the lifecycle state of a single puzzle attempt.
type Status int

const (
	StatusPlaying Status = iota
	StatusOpponentMoving
	StatusSolved
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusOpponentMoving:
		return "opponent_moving"
	case StatusSolved:
		return "solved"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Verdict describes the outcome of a single move attempt.
type Verdict int

const (
	// VerdictRejected: the puzzle is not accepting moves right now.
	VerdictRejected Verdict = iota
	// VerdictIllegal: not a legal chess move from this position.
	VerdictIllegal
	// VerdictWrong: legal, but not the expected solution move.
	VerdictWrong
	// VerdictOpponentTurn: matched the solution; opponent reply pending.
	VerdictOpponentTurn
	// VerdictSolved: matched the solution and finished the puzzle.
	VerdictSolved
	// VerdictFailed: the stored solution could not be applied.
	VerdictFailed
)

// Puzzle validates player moves against a prerecorded solution line and
// auto-plays the opponent's half-moves. The solution is zero-indexed
// coordinate notation alternating player, opponent, player, ..., ending
// on a player move that delivers checkmate. It is built fresh per item
// and never reused.
type Puzzle struct {
	pos      *chess.Position
	solution []string
	cursor   int
	status   Status

	selected   string
	legalDests []string
	lastFrom   string
	lastTo     string
}

// New builds a puzzle from a starting FEN and its solution line.
func New(fen string, solution []string) (*Puzzle, error) {
	if len(solution) == 0 {
		return nil, fmt.Errorf("puzzle has empty solution")
	}
	fenFunc, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid puzzle fen %q: %w", fen, err)
	}
	game := chess.NewGame(fenFunc)
	return &Puzzle{
		pos:      game.Position(),
		solution: solution,
		status:   StatusPlaying,
	}, nil
}

func (p *Puzzle) Status() Status {
	return p.status
}

func (p *Puzzle) FEN() string {
	return p.pos.String()
}

// Cursor is the index of the next expected half-move. It only moves forward.
func (p *Puzzle) Cursor() int {
	return p.cursor
}

// MovesUsed counts the player half-moves applied so far.
func (p *Puzzle) MovesUsed() int {
	return (p.cursor + 1) / 2
}

// Selected returns the currently selected square and its cached legal
// destinations.
func (p *Puzzle) Selected() (string, []string) {
	return p.selected, p.legalDests
}

// LastMove returns the from/to squares of the most recently applied
// half-move, for highlighting.
func (p *Puzzle) LastMove() (from, to string, ok bool) {
	if p.lastFrom == "" {
		return "", "", false
	}
	return p.lastFrom, p.lastTo, true
}

// SelectSquare marks a square as the move origin and computes legal
// destinations. It is a no-op unless the puzzle is in play and the
// square holds a piece belonging to the side to move.
func (p *Puzzle) SelectSquare(square string) []string {
	p.selected = ""
	p.legalDests = nil
	if p.status != StatusPlaying {
		return nil
	}
	sq, err := parseSquare(square)
	if err != nil {
		return nil
	}
	piece := p.pos.Board().Piece(sq)
	if piece == chess.NoPiece || piece.Color() != p.pos.Turn() {
		return nil
	}
	dests := make([]string, 0)
	for _, m := range p.pos.ValidMoves() {
		if m.S1() == sq {
			dests = append(dests, m.S2().String())
		}
	}
	p.selected = square
	p.legalDests = dests
	return dests
}

// AttemptMove applies the player's move tentatively and compares it
// against the expected solution half-move. Pawn promotions are resolved
// to a queen without prompting. The comparison uses the 4-character
// coordinate prefix, so a trailing promotion letter in the stored
// solution never causes a mismatch.
func (p *Puzzle) AttemptMove(from, to string) Verdict {
	if p.status != StatusPlaying {
		return VerdictRejected
	}
	move := p.findMove(from, to)
	if move == nil {
		return VerdictIllegal
	}

	played := chess.UCINotation{}.Encode(p.pos, move)
	expected := p.solution[p.cursor]
	if len(played) < 4 || len(expected) < 4 || played[:4] != expected[:4] {
		// wrong move: drop the tentative position, keep cursor and status
		p.selected = ""
		p.legalDests = nil
		return VerdictWrong
	}

	p.apply(move, from, to)

	if p.pos.Status() == chess.Checkmate {
		p.status = StatusSolved
		return VerdictSolved
	}
	if p.cursor >= len(p.solution) {
		// solution exhausted without mate: the player produced every
		// expected move, so the puzzle counts as solved
		p.status = StatusSolved
		return VerdictSolved
	}
	p.status = StatusOpponentMoving
	return VerdictOpponentTurn
}

// PlayOpponentReply applies the stored opponent half-move under the
// cursor. Callers invoke it after their presentation delay. A reply
// that cannot be legally applied fails the puzzle; it never panics.
func (p *Puzzle) PlayOpponentReply() Verdict {
	if p.status != StatusOpponentMoving {
		return VerdictRejected
	}
	if p.cursor >= len(p.solution) {
		p.status = StatusFailed
		return VerdictFailed
	}
	notation := p.solution[p.cursor]
	if len(notation) < 4 {
		p.status = StatusFailed
		return VerdictFailed
	}
	// the stored reply is only trusted after it passes movegen; an
	// illegal half-move in the data fails this puzzle, nothing more.
	// MatchMove honors an explicit promotion letter, so an opponent
	// underpromotion is replayed as written rather than auto-queened.
	move, err := puzgen.MatchMove(p.pos, notation)
	if err != nil {
		p.status = StatusFailed
		return VerdictFailed
	}
	p.apply(move, notation[:2], notation[2:4])

	// the opponent reply must leave the player able to continue the line
	if p.cursor >= len(p.solution) || p.pos.Status() != chess.NoMethod {
		p.status = StatusFailed
		return VerdictFailed
	}
	p.status = StatusPlaying
	return VerdictOpponentTurn
}

func (p *Puzzle) apply(move *chess.Move, from, to string) {
	p.pos = p.pos.Update(move)
	p.cursor++
	p.lastFrom = from
	p.lastTo = to
	p.selected = ""
	p.legalDests = nil
}

// findMove locates the legal move between the given squares. When a
// pawn promotion is structurally required the queen variant is chosen;
// the player is never prompted for a promotion piece.
func (p *Puzzle) findMove(from, to string) *chess.Move {
	s1, err := parseSquare(from)
	if err != nil {
		return nil
	}
	s2, err := parseSquare(to)
	if err != nil {
		return nil
	}
	for _, m := range p.pos.ValidMoves() {
		if m.S1() != s1 || m.S2() != s2 {
			continue
		}
		if m.Promo() == chess.NoPieceType || m.Promo() == chess.Queen {
			return m
		}
	}
	return nil
}

func parseSquare(s string) (chess.Square, error) {
	if len(s) != 2 {
		return chess.NoSquare, fmt.Errorf("bad square %q", s)
	}
	file := s[0] - 'a'
	rank := s[1] - '1'
	if file > 7 || rank > 7 {
		return chess.NoSquare, fmt.Errorf("bad square %q", s)
	}
	return chess.Square(int(rank)*8 + int(file)), nil
}
