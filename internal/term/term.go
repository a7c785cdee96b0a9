// Package term plays a session in a terminal.
package term

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Jyoti203/tic-tac-toe/internal/ai"
	"github.com/Jyoti203/tic-tac-toe/internal/app"
	"github.com/Jyoti203/tic-tac-toe/internal/domain"
	"github.com/muesli/termenv"
)

// Options configures a terminal game.
type Options struct {
	Mode     app.Mode
	AIDelay  time.Duration
	Strategy ai.Strategy
	// Profile forces a colour profile; tests use termenv.Ascii.
	Profile *termenv.Profile
}

// Renderer draws a session and narrates its events.
type Renderer struct {
	out *termenv.Output
}

// NewRenderer wraps w. A nil profile detects one from the environment.
func NewRenderer(w io.Writer, profile *termenv.Profile) *Renderer {
	var opts []termenv.OutputOption
	if profile != nil {
		opts = append(opts, termenv.WithProfile(*profile))
	}
	return &Renderer{out: termenv.NewOutput(w, opts...)}
}

func (r *Renderer) mark(c domain.Cell, idx int, win bool) string {
	var s termenv.Style
	switch c {
	case domain.X:
		s = r.out.String("X").Foreground(r.out.Color("#E88388")).Bold()
	case domain.O:
		s = r.out.String("O").Foreground(r.out.Color("#71BEF2")).Bold()
	default:
		s = r.out.String(strconv.Itoa(idx + 1)).Faint()
	}
	if win {
		s = s.Reverse()
	}
	return s.String()
}

// Board prints the grid, the status line and the tally.
func (r *Renderer) Board(s app.Session) {
	var win [9]bool
	if s.Game.Result.Phase == domain.Won {
		for _, idx := range s.Game.Result.Line {
			win[idx] = true
		}
	}
	var b strings.Builder
	for row := 0; row < 3; row++ {
		cells := make([]string, 3)
		for col := 0; col < 3; col++ {
			idx := row*3 + col
			cells[col] = " " + r.mark(s.Game.Board[idx], idx, win[idx]) + " "
		}
		b.WriteString(strings.Join(cells, "|"))
		b.WriteString("\n")
		if row < 2 {
			b.WriteString("---+---+---\n")
		}
	}
	fmt.Fprint(r.out, b.String())
	fmt.Fprintln(r.out, r.out.String(s.Status()).Bold())
	fmt.Fprintf(r.out, "X: %d  O: %d  Draw: %d  [%s]\n", s.Score.X, s.Score.O, s.Score.Draws, s.Mode)
}

// Event prints a one-line note for events worth narrating.
func (r *Renderer) Event(ev app.Event) {
	switch p := ev.Payload.(type) {
	case app.CellUpdatedPayload:
		fmt.Fprintf(r.out, "%s plays %d\n", p.Player, p.Index+1)
	case app.ModeChangedPayload:
		fmt.Fprintf(r.out, "mode: %s\n", p.Mode)
	}
	if ev.Kind == app.EventRoundReset {
		fmt.Fprintln(r.out, "new round")
	}
}

// Error prints a rejected command.
func (r *Renderer) Error(msg string) {
	fmt.Fprintln(r.out, r.out.String(msg).Foreground(r.out.Color("#DBAB79")))
}

// readLines scans in on its own goroutine so a blocked read never holds up
// cancellation. The line channel closes at end of input; the scanner's error
// is then available on the second channel.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		errc <- sc.Err()
	}()
	return lines, errc
}

const help = "commands: 1-9 play a cell, r restart, m pvp|pvai switch mode, q quit"

// Run plays until q, end of input or ctx is done. It is the only goroutine touching the session.
func Run(ctx context.Context, in io.Reader, w io.Writer, opts Options) (domain.Tally, error) {
	if opts.Strategy == nil {
		opts.Strategy = ai.Heuristic{}
	}
	r := NewRenderer(w, opts.Profile)
	sess := app.NewSession("terminal", opts.Mode)

	show := func(events []app.Event) {
		for _, ev := range events {
			r.Event(ev)
		}
		r.Board(*sess)
	}

	fmt.Fprintln(r.out, help)
	r.Board(*sess)

	lines, readErr := readLines(ctx, in)
	for {
		if sess.AITurn() {
			select {
			case <-ctx.Done():
				// the pending reply is dropped
				return sess.Score, ctx.Err()
			case <-time.After(opts.AIDelay):
			}
			events, err := sess.AIMove(opts.Strategy)
			if err != nil {
				return sess.Score, fmt.Errorf("computer move: %w", err)
			}
			show(events)
			continue
		}

		var line string
		select {
		case <-ctx.Done():
			return sess.Score, ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return sess.Score, <-readErr
			}
			line = l
		}
		cmd := strings.Fields(strings.ToLower(line))
		if len(cmd) == 0 {
			continue
		}
		switch cmd[0] {
		case "q", "quit":
			return sess.Score, nil
		case "r", "restart":
			show(sess.RestartRound())
		case "m", "mode":
			if len(cmd) < 2 {
				r.Error("usage: m pvp|pvai")
				continue
			}
			m, err := app.ParseMode(cmd[1])
			if err != nil {
				r.Error(err.Error())
				continue
			}
			show(sess.SetMode(m))
		case "h", "help", "?":
			fmt.Fprintln(r.out, help)
		default:
			n, err := strconv.Atoi(cmd[0])
			if err != nil {
				r.Error("unknown command " + strconv.Quote(cmd[0]))
				continue
			}
			events, err := sess.RequestMove(n - 1)
			if err != nil {
				r.Error(err.Error())
				continue
			}
			show(events)
		}
	}
}
