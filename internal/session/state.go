package session

// State is the machine's current mode. Any action received outside its
// legal source state is dropped, never queued.
type State int

const (
	StateLoading State = iota
	StatePlaying
	StateSubmitting
	StateShowingFeedback
	StateTransitioning
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StateSubmitting:
		return "submitting"
	case StateShowingFeedback:
		return "showing_feedback"
	case StateTransitioning:
		return "transitioning"
	}
	return "unknown"
}

// Feedback is cached only while the machine is in StateShowingFeedback.
type Feedback struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer,omitempty"`
	CurrentStreak int    `json:"current_streak"`
	Explanation   string `json:"explanation,omitempty"`
}

// Stats are running totals accumulated across the whole batch sequence.
// They are monotonic and never reset mid-session.
type Stats struct {
	Played            int            `json:"played"`
	Correct           int            `json:"correct"`
	BestStreak        int            `json:"best_streak"`
	CorrectByCategory map[string]int `json:"correct_by_category,omitempty"`
}

func (s Stats) clone() Stats {
	out := s
	if s.CorrectByCategory != nil {
		out.CorrectByCategory = make(map[string]int, len(s.CorrectByCategory))
		for k, v := range s.CorrectByCategory {
			out.CorrectByCategory[k] = v
		}
	}
	return out
}
