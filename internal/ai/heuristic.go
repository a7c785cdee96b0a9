// Package ai picks moves for a computer-controlled player.
package ai

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/Jyoti203/tic-tac-toe/internal/domain"
)

// ErrNoMoves is returned when the board has no empty cell left.
var ErrNoMoves = errors.New("ai: no empty cells")

// Strategy chooses a cell for player me on board b.
type Strategy interface {
	Move(b domain.Board, me domain.Cell) (int, error)
}

// Heuristic completes its own line, else blocks the opponent's, else plays at random.
// It looks one ply ahead only, so a fork beats it.
type Heuristic struct {
	Rand *rand.Rand
}

// Move returns the heuristic choice for me; the opponent is me.Opponent().
func (h Heuristic) Move(b domain.Board, me domain.Cell) (int, error) {
	return SelectMove(b, me, me.Opponent(), h.Rand)
}

// Random plays a uniformly random empty cell.
type Random struct {
	Rand *rand.Rand
}

// Move ignores the player and returns any empty cell.
func (r Random) Move(b domain.Board, _ domain.Cell) (int, error) {
	return randomCell(b, r.Rand)
}

// NewStrategy resolves a strategy by name.
func NewStrategy(name string, rng *rand.Rand) (Strategy, error) {
	switch name {
	case "heuristic", "":
		return Heuristic{Rand: rng}, nil
	case "random":
		return Random{Rand: rng}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// SelectMove returns the heuristic move for aiPlayer. A nil rng uses the global source.
func SelectMove(b domain.Board, aiPlayer, opponent domain.Cell, rng *rand.Rand) (int, error) {
	if idx, ok := completeLine(b, aiPlayer); ok {
		return idx, nil
	}
	if idx, ok := completeLine(b, opponent); ok {
		return idx, nil
	}
	return randomCell(b, rng)
}

// completeLine finds the first line, in domain.Lines order, holding two of p's marks and one empty cell.
func completeLine(b domain.Board, p domain.Cell) (int, bool) {
	for _, ln := range domain.Lines {
		owned, free := 0, -1
		for _, idx := range ln {
			switch b[idx] {
			case p:
				owned++
			case domain.Empty:
				free = idx
			}
		}
		if owned == 2 && free >= 0 {
			return free, true
		}
	}
	return -1, false
}

func randomCell(b domain.Board, rng *rand.Rand) (int, error) {
	empty := b.EmptyCells()
	if len(empty) == 0 {
		return -1, ErrNoMoves
	}
	var n int
	if rng != nil {
		n = rng.IntN(len(empty))
	} else {
		n = rand.IntN(len(empty))
	}
	return empty[n], nil
}
