package domain

// Tally counts finished rounds for a session. Counters only grow.
type Tally struct {
	X     int `json:"x"`
	O     int `json:"o"`
	Draws int `json:"draws"`
}

// Record counts a finished round and returns the updated tally.
// An in-progress result is ignored; callers record each terminal transition once.
func (t *Tally) Record(r Result) Tally {
	switch r.Phase {
	case Won:
		switch r.Winner {
		case X:
			t.X++
		case O:
			t.O++
		}
	case Draw:
		t.Draws++
	}
	return *t
}

// Rounds is the number of finished rounds.
func (t Tally) Rounds() int { return t.X + t.O + t.Draws }
