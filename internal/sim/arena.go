// Package sim plays computer strategies against each other.
package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jyoti203/tic-tac-toe/internal/ai"
	"github.com/Jyoti203/tic-tac-toe/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// Config describes a series of games between P1 and P2.
type Config struct {
	Rounds int
	P1     ai.Strategy
	P2     ai.Strategy
	P1Name string
	P2Name string
	// Alternate swaps who plays X every round; otherwise P1 is always X.
	Alternate bool
}

// Summary is the outcome of a series, from P1's perspective.
type Summary struct {
	TotalGames      int          `json:"total_games"`
	P1Wins          int          `json:"player1_wins"`
	P2Wins          int          `json:"player2_wins"`
	Draws           int          `json:"draws"`
	FirstToMoveWins int          `json:"first_to_move_wins"`
	Tally           domain.Tally `json:"tally"`
	MeanLength      float64      `json:"mean_length"`
	StdDevLength    float64      `json:"stddev_length"`
	P1Name          string       `json:"player1_name"`
	P2Name          string       `json:"player2_name"`
}

// P1Score is wins plus half the draws, divided by the games played.
func (s Summary) P1Score() float64 {
	if s.TotalGames == 0 {
		return 0
	}
	return (float64(s.P1Wins) + 0.5*float64(s.Draws)) / float64(s.TotalGames)
}

func (s Summary) String() string {
	return fmt.Sprintf("%s vs %s: %d games, %d-%d-%d (score %.3f), length %.2f±%.2f",
		s.P1Name, s.P2Name, s.TotalGames, s.P1Wins, s.Draws, s.P2Wins, s.P1Score(), s.MeanLength, s.StdDevLength)
}

// Run plays cfg.Rounds games. It stops early with ctx.Err() and the partial summary.
func Run(ctx context.Context, cfg Config) (Summary, error) {
	if cfg.P1 == nil || cfg.P2 == nil {
		return Summary{}, errors.New("sim: both strategies are required")
	}
	if cfg.Rounds <= 0 {
		return Summary{}, errors.New("sim: rounds must be positive")
	}
	sum := Summary{P1Name: cfg.P1Name, P2Name: cfg.P2Name}
	lengths := make([]float64, 0, cfg.Rounds)

	for round := 0; round < cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			summarize(&sum, lengths)
			return sum, err
		}
		p1 := domain.X
		if cfg.Alternate && round%2 == 1 {
			p1 = domain.O
		}
		res, moves, err := playGame(cfg.P1, cfg.P2, p1)
		if err != nil {
			summarize(&sum, lengths)
			return sum, fmt.Errorf("round %d: %w", round+1, err)
		}
		sum.Tally.Record(res)
		lengths = append(lengths, float64(moves))
		switch {
		case res.Phase == domain.Draw:
			sum.Draws++
		case res.Winner == p1:
			sum.P1Wins++
		default:
			sum.P2Wins++
		}
		if res.Phase == domain.Won && res.Winner == domain.X {
			sum.FirstToMoveWins++
		}
	}
	summarize(&sum, lengths)
	return sum, nil
}

func summarize(sum *Summary, lengths []float64) {
	sum.TotalGames = len(lengths)
	if len(lengths) == 0 {
		return
	}
	sum.MeanLength, sum.StdDevLength = stat.MeanStdDev(lengths, nil)
	if len(lengths) == 1 {
		sum.StdDevLength = 0
	}
}

// playGame plays one round; p1Mark is the mark P1 plays.
func playGame(p1, p2 ai.Strategy, p1Mark domain.Cell) (domain.Result, int, error) {
	g := domain.New()
	for !g.Over() {
		player := p2
		if g.Turn == p1Mark {
			player = p1
		}
		idx, err := player.Move(g.Board, g.Turn)
		if err != nil {
			return g.Result, g.Moves, err
		}
		if _, err := g.Apply(idx, g.Turn); err != nil {
			return g.Result, g.Moves, err
		}
	}
	return g.Result, g.Moves, nil
}
