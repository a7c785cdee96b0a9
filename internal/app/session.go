package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Jyoti203/tic-tac-toe/internal/ai"
	"github.com/Jyoti203/tic-tac-toe/internal/domain"
)

// Mode selects who controls O.
type Mode uint8

const (
	ModePvP Mode = iota
	ModePvAI
)

// AIPlayer is the mark the computer plays in ModePvAI. The human always plays X.
const AIPlayer = domain.O

func (m Mode) String() string {
	if m == ModePvAI {
		return "pvai"
	}
	return "pvp"
}

// ParseMode accepts "pvp" or "pvai" (also "pva" and "ai").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pvp", "":
		return ModePvP, nil
	case "pvai", "pva", "ai":
		return ModePvAI, nil
	}
	return ModePvP, fmt.Errorf("unknown mode %q", s)
}

// Errors exposed by the session layer.
var (
	ErrNotYourTurn = errors.New("not your turn")
	ErrNotAITurn   = errors.New("not the computer's turn")
)

// Session is one player's game: the current round, the mode and the running tally.
// It is not safe for concurrent use; Service serialises access.
type Session struct {
	ID    string
	Game  domain.Game
	Mode  Mode
	Score domain.Tally
	// Round increments on every reset so stale AI replies can be recognised.
	Round   int
	Created time.Time
	Updated time.Time
}

// NewSession returns a session in the given mode with an empty board.
func NewSession(id string, mode Mode) *Session {
	now := time.Now()
	return &Session{ID: id, Game: domain.New(), Mode: mode, Created: now, Updated: now}
}

// AITurn reports whether the computer should move next.
func (s *Session) AITurn() bool {
	return s.Mode == ModePvAI && !s.Game.Over() && s.Game.Turn == AIPlayer
}

// RequestMove applies a human move for whoever is to play.
func (s *Session) RequestMove(index int) ([]Event, error) {
	if s.AITurn() {
		return nil, ErrNotYourTurn
	}
	return s.apply(index, s.Game.Turn)
}

// AIMove lets strategy play for AIPlayer.
func (s *Session) AIMove(strategy ai.Strategy) ([]Event, error) {
	if !s.AITurn() {
		return nil, ErrNotAITurn
	}
	idx, err := strategy.Move(s.Game.Board, AIPlayer)
	if err != nil {
		return nil, err
	}
	return s.apply(idx, AIPlayer)
}

// SetMode switches mode and starts a new round. The tally is kept.
func (s *Session) SetMode(m Mode) []Event {
	s.Mode = m
	events := s.RestartRound()
	return append([]Event{{Kind: EventModeChanged, Payload: ModeChangedPayload{Mode: m.String()}}}, events...)
}

// RestartRound clears the board. The tally is kept.
func (s *Session) RestartRound() []Event {
	s.Game.Reset()
	s.Round++
	s.Updated = time.Now()
	return []Event{
		{Kind: EventRoundReset},
		{Kind: EventTurnChanged, Payload: TurnChangedPayload{Player: s.Game.Turn.String()}},
	}
}

func (s *Session) apply(index int, player domain.Cell) ([]Event, error) {
	res, err := s.Game.Apply(index, player)
	if err != nil {
		return nil, err
	}
	s.Updated = time.Now()

	events := []Event{{Kind: EventCellUpdated, Payload: CellUpdatedPayload{Index: index, Player: player.String()}}}
	if !res.Terminal() {
		return append(events, Event{Kind: EventTurnChanged, Payload: TurnChangedPayload{Player: s.Game.Turn.String()}}), nil
	}
	// Apply only reports a terminal result on the move that ended the round.
	tally := s.Score.Record(res)
	return append(events, gameEnded(res), Event{Kind: EventScoreChanged, Payload: ScoreChangedPayload{Tally: tally}}), nil
}

// Status is the one-line description shown above the board.
func (s *Session) Status() string {
	if s.Game.Over() {
		return s.Game.Result.String()
	}
	if s.AITurn() {
		return "Computer is thinking..."
	}
	return fmt.Sprintf("Player %s's Turn", s.Game.Turn)
}
