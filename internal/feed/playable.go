package feed

// Kind determines which submission path applies to a playable.
type Kind string

const (
	KindMCQ       Kind = "mcq"
	KindTextInput Kind = "text_input"
	KindGuess     Kind = "guess_the_x"
	KindChessMate Kind = "chess_mate_in_n"
)

// Playable is one immutable unit of content for a single round.
// Question is an opaque display payload (text, media references);
// the engine never interprets it.
type Playable struct {
	ID         string                 `json:"playable_id" bson:"playable_id"`
	Kind       Kind                   `json:"kind" bson:"kind"`
	Category   string                 `json:"category" bson:"category"`
	Title      string                 `json:"title" bson:"title"`
	Question   map[string]interface{} `json:"question" bson:"question"`
	Options    []string               `json:"options,omitempty" bson:"options,omitempty"`
	StartFEN   string                 `json:"start_fen,omitempty" bson:"start_fen,omitempty"`
	Solution   []string               `json:"solution,omitempty" bson:"solution,omitempty"`
	HintCount  int                    `json:"hint_count,omitempty" bson:"hint_count,omitempty"`
	Difficulty string                 `json:"difficulty,omitempty" bson:"difficulty,omitempty"`
}

// Batch is an ordered sequence of playables plus a cursor.
// The cursor stays within [0, len]; cursor == len signals exhaustion.
type Batch struct {
	items  []Playable
	cursor int
}

func NewBatch(items []Playable) Batch {
	return Batch{items: items}
}

func (b *Batch) Len() int {
	return len(b.items)
}

func (b *Batch) Index() int {
	return b.cursor
}

// Current returns the playable under the cursor, or false on exhaustion.
func (b *Batch) Current() (Playable, bool) {
	if b.cursor >= len(b.items) {
		return Playable{}, false
	}
	return b.items[b.cursor], true
}

// Advance moves the cursor forward by one, saturating at len.
func (b *Batch) Advance() {
	if b.cursor < len(b.items) {
		b.cursor++
	}
}

func (b *Batch) Exhausted() bool {
	return b.cursor >= len(b.items)
}
