package puzgen

import "encoding/json"

// Puzzle is a forced-mate exercise: a starting position plus its
// principal variation in coordinate notation, alternating player and
// opponent half-moves and ending on the mating player move.
type Puzzle struct {
	StartFEN    string   `json:"start_fen" bson:"start_fen"`
	Solution    []string `json:"solution" bson:"solution"`
	IsWhiteTurn bool     `json:"is_white_turn" bson:"is_white_turn"`
	MateIn      int      `json:"mate_in" bson:"mate_in"`
}

func (p Puzzle) String() string {
	j, _ := json.MarshalIndent(p, "", "\t")
	return string(j)
}
