package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// Opponent returns the other mark. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// ParseCell parses "X" or "O" (case-insensitive).
func ParseCell(s string) (Cell, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return X, nil
	case "O":
		return O, nil
	}
	return Empty, fmt.Errorf("unknown player %q", s)
}

// Board is a fixed 3x3 board stored row-major.
type Board [9]Cell

// EmptyCells returns the indices of all empty cells in ascending order.
func (b Board) EmptyCells() []int {
	out := make([]int, 0, len(b))
	for i, c := range b {
		if c == Empty {
			out = append(out, i)
		}
	}
	return out
}

// Filled counts the non-empty cells.
func (b Board) Filled() int {
	n := 0
	for _, c := range b {
		if c != Empty {
			n++
		}
	}
	return n
}

// Line is a triple of board indices.
type Line [3]int

// Lines lists every winning line. The order is fixed: rows, columns, diagonals.
var Lines = [8]Line{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// Phase is the lifecycle stage of a round.
type Phase uint8

const (
	InProgress Phase = iota
	Won
	Draw
)

func (p Phase) String() string {
	switch p {
	case Won:
		return "won"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

// Result describes the state of a round after a move.
// Winner and Line are only meaningful when Phase is Won.
type Result struct {
	Phase  Phase
	Winner Cell
	Line   Line
}

// Terminal reports whether the round is decided.
func (r Result) Terminal() bool { return r.Phase != InProgress }

func (r Result) String() string {
	switch r.Phase {
	case Won:
		return r.Winner.String() + " Wins"
	case Draw:
		return "Draw"
	default:
		return "In progress"
	}
}

// Game holds the current state of a Tic-Tac-Toe round.
type Game struct {
	Board  Board
	Turn   Cell
	Result Result
	Moves  int
}

// Errors returned by domain operations. Every rejection matches ErrInvalidMove.
var (
	ErrInvalidMove = errors.New("invalid move")
	ErrOutOfBounds = fmt.Errorf("%w: out of bounds", ErrInvalidMove)
	ErrOccupied    = fmt.Errorf("%w: cell occupied", ErrInvalidMove)
	ErrGameOver    = fmt.Errorf("%w: game over", ErrInvalidMove)
	ErrWrongTurn   = fmt.Errorf("%w: wrong turn", ErrInvalidMove)
)

// New returns a new game with X to move.
func New() Game {
	return Game{Turn: X}
}

// Over reports whether the round has been won or drawn.
func (g *Game) Over() bool { return g.Result.Terminal() }

// Apply places player's mark at index (0..8). A rejected move leaves g untouched.
func (g *Game) Apply(index int, player Cell) (Result, error) {
	if g.Over() {
		return g.Result, ErrGameOver
	}
	if index < 0 || index >= len(g.Board) {
		return g.Result, ErrOutOfBounds
	}
	if player != g.Turn {
		return g.Result, ErrWrongTurn
	}
	if g.Board[index] != Empty {
		return g.Result, ErrOccupied
	}

	g.Board[index] = player
	g.Moves++

	g.Result = CheckTerminal(g.Board)
	if !g.Result.Terminal() {
		g.Turn = player.Opponent()
	}
	return g.Result, nil
}

// Play attempts to play the current turn at row r, column c (0..2).
func (g *Game) Play(r, c int) (Result, error) {
	if r < 0 || r > 2 || c < 0 || c > 2 {
		return g.Result, ErrOutOfBounds
	}
	return g.Apply(r*3+c, g.Turn)
}

// Reset clears the board for a new round with X to move.
func (g *Game) Reset() {
	*g = New()
}

// CheckTerminal scans Lines in order; the first fully owned line wins.
// A full board without a winning line is a draw.
func CheckTerminal(b Board) Result {
	for _, ln := range Lines {
		side := b[ln[0]]
		if side != Empty && b[ln[1]] == side && b[ln[2]] == side {
			return Result{Phase: Won, Winner: side, Line: ln}
		}
	}
	if b.Filled() == len(b) {
		return Result{Phase: Draw}
	}
	return Result{Phase: InProgress}
}
