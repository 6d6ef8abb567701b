package server

import "testing"

func TestApplyResult(t *testing.T) {
	var u User

	ApplyResult(&u, true)
	ApplyResult(&u, true)
	ApplyResult(&u, true)
	if u.TotalPlayed != 3 || u.CorrectAnswers != 3 || u.CurrentStreak != 3 || u.BestStreak != 3 {
		t.Fatalf("after three correct: %+v", u)
	}

	ApplyResult(&u, false)
	if u.CurrentStreak != 0 {
		t.Errorf("wrong answer did not reset streak: %+v", u)
	}
	if u.BestStreak != 3 {
		t.Errorf("wrong answer touched best streak: %+v", u)
	}
	if u.TotalPlayed != 4 || u.CorrectAnswers != 3 {
		t.Errorf("counters wrong: %+v", u)
	}

	// a new shorter streak never lowers the best
	ApplyResult(&u, true)
	ApplyResult(&u, true)
	if u.CurrentStreak != 2 || u.BestStreak != 3 {
		t.Errorf("after rebuilding streak: %+v", u)
	}
}
