// Command tictactoe serves the game over HTTP, plays it in a terminal, or benchmarks strategies.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jyoti203/tic-tac-toe/internal/ai"
	"github.com/Jyoti203/tic-tac-toe/internal/app"
	"github.com/Jyoti203/tic-tac-toe/internal/config"
	"github.com/Jyoti203/tic-tac-toe/internal/sim"
	"github.com/Jyoti203/tic-tac-toe/internal/term"
	"github.com/Jyoti203/tic-tac-toe/internal/web"
)

const usage = `usage: tictactoe <command> [flags]

commands:
  serve   run the web server
  play    play in the terminal
  bench   pit two strategies against each other`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "serve":
		err = serve(os.Args[2:])
	case "play":
		err = play(os.Args[2:])
	case "bench":
		err = bench(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to a JSON config file")
	addr := fs.String("addr", "", "Address to listen on (overrides config)")
	aiDelay := fs.Duration("ai-delay", -1, "Pause before the computer replies (overrides config)")
	fs.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *aiDelay >= 0 {
		cfg.AIDelay = config.Duration(*aiDelay)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// nil rng: timers reply concurrently and only the global source is safe to share.
	strategy, err := ai.NewStrategy(cfg.Strategy, nil)
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, "tictactoe ", log.LstdFlags)
	svc := app.NewService(
		app.WithAIDelay(time.Duration(cfg.AIDelay)),
		app.WithStrategy(strategy),
		app.WithLogger(logger),
	)
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      web.NewServer(svc, web.WithHeartbeat(time.Duration(cfg.Heartbeat)), web.WithLogger(logger)),
		ReadTimeout:  time.Duration(cfg.ReadTimeout),
		WriteTimeout: time.Duration(cfg.WriteTimeout),
		IdleTimeout:  time.Duration(cfg.IdleTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case err := <-errCh:
		svc.Shutdown()
		return err
	case <-ctx.Done():
	}

	logger.Printf("shutting down")
	// Ends open event streams so Shutdown does not wait on them.
	svc.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func play(args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	mode := fs.String("mode", "pvai", "Game mode: pvp or pvai")
	strategyName := fs.String("strategy", "heuristic", "Computer strategy: heuristic or random")
	aiDelay := fs.Duration("ai-delay", 300*time.Millisecond, "Pause before the computer replies")
	fs.Parse(args)

	m, err := app.ParseMode(*mode)
	if err != nil {
		return err
	}
	strategy, err := ai.NewStrategy(*strategyName, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	tally, err := term.Run(ctx, os.Stdin, os.Stdout, term.Options{Mode: m, AIDelay: *aiDelay, Strategy: strategy})
	fmt.Printf("final score  X: %d  O: %d  Draw: %d\n", tally.X, tally.O, tally.Draws)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func bench(args []string) error {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	rounds := fs.Int("rounds", 1000, "Number of games")
	p1Name := fs.String("p1", "heuristic", "Strategy of player 1")
	p2Name := fs.String("p2", "random", "Strategy of player 2")
	seed := fs.Uint64("seed", 1, "Random seed")
	alternate := fs.Bool("alternate", true, "Swap sides every game")
	asJSON := fs.Bool("json", false, "Print the summary as JSON")
	fs.Parse(args)

	rng := rand.New(rand.NewPCG(*seed, *seed))
	p1, err := ai.NewStrategy(*p1Name, rng)
	if err != nil {
		return err
	}
	p2, err := ai.NewStrategy(*p2Name, rng)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	sum, err := sim.Run(ctx, sim.Config{
		Rounds:    *rounds,
		P1:        p1,
		P2:        p2,
		P1Name:    *p1Name,
		P2Name:    *p2Name,
		Alternate: *alternate,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}
	fmt.Println(sum)
	return nil
}
