package app

import "github.com/Jyoti203/tic-tac-toe/internal/domain"

// EventKind identifies a state change a renderer reacts to.
type EventKind string

const (
	EventCellUpdated  EventKind = "cell_updated"
	EventTurnChanged  EventKind = "turn_changed"
	EventGameEnded    EventKind = "game_ended"
	EventScoreChanged EventKind = "score_changed"
	EventRoundReset   EventKind = "round_reset"
	EventModeChanged  EventKind = "mode_changed"
)

// Event is emitted by a session operation. Payload is one of the *Payload types below.
type Event struct {
	Kind    EventKind `json:"kind"`
	Payload any       `json:"payload,omitempty"`
}

// CellUpdatedPayload reports the mark placed at Index.
type CellUpdatedPayload struct {
	Index  int    `json:"index"`
	Player string `json:"player"`
}

// TurnChangedPayload names the player to move next.
type TurnChangedPayload struct {
	Player string `json:"player"`
}

// GameEndedPayload describes how the round finished.
type GameEndedPayload struct {
	Phase  string `json:"phase"`
	Winner string `json:"winner,omitempty"`
	// Line is the winning triple; nil on a draw.
	Line []int `json:"line,omitempty"`
}

// ScoreChangedPayload carries the tally after a finished round.
type ScoreChangedPayload struct {
	Tally domain.Tally `json:"tally"`
}

// ModeChangedPayload names the new mode.
type ModeChangedPayload struct {
	Mode string `json:"mode"`
}

func gameEnded(r domain.Result) Event {
	p := GameEndedPayload{Phase: r.Phase.String()}
	if r.Phase == domain.Won {
		p.Winner = r.Winner.String()
		p.Line = r.Line[:]
	}
	return Event{Kind: EventGameEnded, Payload: p}
}
