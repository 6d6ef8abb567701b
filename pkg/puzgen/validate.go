package puzgen

import (
	"fmt"

	"github.com/notnil/chess"
)

// ValidateLine replays a coordinate-notation solution line from the
// given FEN and confirms every half-move is legal and the final one
// delivers checkmate.
func ValidateLine(fen string, line []string) error {
	if len(line) == 0 {
		return fmt.Errorf("empty solution line")
	}
	if len(line)%2 == 0 {
		return fmt.Errorf("solution line must end on a player half-move")
	}
	fenFunc, err := chess.FEN(fen)
	if err != nil {
		return fmt.Errorf("invalid fen %q: %w", fen, err)
	}
	pos := chess.NewGame(fenFunc).Position()

	for i, notation := range line {
		move, err := MatchMove(pos, notation)
		if err != nil {
			return fmt.Errorf("half-move %d: %w", i, err)
		}
		pos = pos.Update(move)
		if i < len(line)-1 && pos.Status() != chess.NoMethod {
			return fmt.Errorf("half-move %d ends the game before the line does", i)
		}
	}
	if pos.Status() != chess.Checkmate {
		return fmt.Errorf("line does not end in checkmate")
	}
	return nil
}

// MatchMove resolves a coordinate-notation half-move against the legal
// moves of a position. The match uses the 4-character coordinate prefix;
// an explicit promotion letter must agree, an absent one means queen.
func MatchMove(pos *chess.Position, notation string) (*chess.Move, error) {
	if len(notation) < 4 {
		return nil, fmt.Errorf("bad move notation %q", notation)
	}
	var fallback *chess.Move
	for _, m := range pos.ValidMoves() {
		encoded := chess.UCINotation{}.Encode(pos, m)
		if encoded[:4] != notation[:4] {
			continue
		}
		if len(notation) >= 5 {
			if len(encoded) >= 5 && encoded[4] == notation[4] {
				return m, nil
			}
			continue
		}
		if m.Promo() == chess.NoPieceType || m.Promo() == chess.Queen {
			return m, nil
		}
		if fallback == nil {
			fallback = m
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, fmt.Errorf("move %q is not legal in position %s", notation, pos.String())
}
