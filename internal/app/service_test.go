package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Jyoti203/tic-tac-toe/internal/domain"
)

func TestCreateAndGet(t *testing.T) {
	s := NewService()
	gs, err := s.CreateSession(ModePvP)
	if err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}
	if gs.ID == "" {
		t.Fatalf("expected non-empty session ID")
	}
	if gs.Game.Turn != domain.X {
		t.Fatalf("expected initial turn X")
	}
	if gs.Created.IsZero() || gs.Updated.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}
	got, ok := s.Get(gs.ID)
	if !ok || got.ID != gs.ID {
		t.Fatalf("Get should find created session")
	}
	if _, ok := s.Get("not-a-uuid"); ok {
		t.Fatalf("malformed id should not resolve")
	}
	if _, err := s.Play("2d4f1c59-7d3e-4a55-9f47-0a8b1f2c3d4e", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewService()
	gs, _ := s.CreateSession(ModePvP)
	gs.Game.Board[0] = domain.O
	latest, _ := s.Get(gs.ID)
	if latest.Game.Board[0] != domain.Empty {
		t.Fatalf("mutating a snapshot must not change the stored session")
	}
}

func TestPlayPvP(t *testing.T) {
	s := NewService()
	gs, _ := s.CreateSession(ModePvP)
	for _, idx := range []int{0, 4, 1, 7} {
		if _, err := s.Play(gs.ID, idx); err != nil {
			t.Fatalf("play %d failed: %v", idx, err)
		}
	}
	st, err := s.Play(gs.ID, 2)
	if err != nil {
		t.Fatalf("winning play failed: %v", err)
	}
	if st.Game.Result.Winner != domain.X || st.Score.X != 1 {
		t.Fatalf("expected X win recorded, got result=%+v score=%+v", st.Game.Result, st.Score)
	}
	if _, err := s.Play(gs.ID, 8); !errors.Is(err, domain.ErrInvalidMove) {
		t.Fatalf("expected invalid move after win, got %v", err)
	}
	st, err = s.Restart(gs.ID)
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if st.Game.Board.Filled() != 0 || st.Score.X != 1 {
		t.Fatalf("restart should clear board and keep score: %+v", st)
	}
}

func TestPlayPvAIRepliesSynchronously(t *testing.T) {
	s := NewService(WithStrategy(fixedStrategy(4)))
	gs, _ := s.CreateSession(ModePvAI)
	st, err := s.Play(gs.ID, 0)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if st.Game.Board[0] != domain.X || st.Game.Board[4] != domain.O {
		t.Fatalf("expected human and computer moves, board=%v", st.Game.Board)
	}
	if st.Game.Turn != domain.X || st.Game.Moves != 2 {
		t.Fatalf("expected X to move after reply, turn=%v moves=%d", st.Game.Turn, st.Game.Moves)
	}
}

func TestDelayedReplyIsBroadcast(t *testing.T) {
	s := NewService(WithStrategy(fixedStrategy(4)), WithAIDelay(10*time.Millisecond))
	defer s.Shutdown()
	gs, _ := s.CreateSession(ModePvAI)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ch, unsub, err := s.Subscribe(ctx, gs.ID)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer unsub()

	st, err := s.Play(gs.ID, 0)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if st.Game.Moves != 1 || !st.AITurn() {
		t.Fatalf("expected pending computer reply, got moves=%d", st.Game.Moves)
	}

	var updates []Update
	for len(updates) < 2 {
		select {
		case u := <-ch:
			updates = append(updates, u)
		case <-ctx.Done():
			t.Fatalf("timed out waiting for updates, got %d", len(updates))
		}
	}
	reply := updates[1]
	if reply.Session.Game.Board[4] != domain.O || reply.Events[0].Kind != EventCellUpdated {
		t.Fatalf("unexpected reply update: %+v", reply)
	}
	latest, _ := s.Get(gs.ID)
	if latest.Game.Moves != 2 {
		t.Fatalf("expected reply applied, moves=%d", latest.Game.Moves)
	}
}

func TestRestartDropsPendingReply(t *testing.T) {
	s := NewService(WithStrategy(fixedStrategy(4)), WithAIDelay(20*time.Millisecond))
	defer s.Shutdown()
	gs, _ := s.CreateSession(ModePvAI)
	if _, err := s.Play(gs.ID, 0); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if _, err := s.Restart(gs.ID); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	latest, _ := s.Get(gs.ID)
	if latest.Game.Board.Filled() != 0 {
		t.Fatalf("stale reply applied after restart: %v", latest.Game.Board)
	}
}

func TestStaleReplyIgnoredAfterNewRound(t *testing.T) {
	s := NewService(WithStrategy(fixedStrategy(4)))
	gs, _ := s.CreateSession(ModePvAI)
	s.mu.Lock()
	sess := s.sessions[gs.ID]
	sess.RequestMove(0)
	round := sess.Round
	sess.RestartRound()
	sess.RequestMove(8)
	s.mu.Unlock()

	// A timer from the old round fires while the new round also waits for O.
	s.replyAI(gs.ID, round)
	latest, _ := s.Get(gs.ID)
	if latest.Game.Board[4] != domain.Empty || latest.Game.Moves != 1 {
		t.Fatalf("stale reply applied: %v", latest.Game.Board)
	}
	s.replyAI(gs.ID, latest.Round)
	latest, _ = s.Get(gs.ID)
	if latest.Game.Board[4] != domain.O {
		t.Fatalf("current reply not applied: %v", latest.Game.Board)
	}
}

func TestSetModeKeepsScore(t *testing.T) {
	s := NewService()
	gs, _ := s.CreateSession(ModePvP)
	for _, idx := range []int{0, 4, 1, 7, 2} {
		s.Play(gs.ID, idx)
	}
	st, err := s.SetMode(gs.ID, ModePvAI)
	if err != nil {
		t.Fatalf("set mode failed: %v", err)
	}
	if st.Mode != ModePvAI || st.Game.Board.Filled() != 0 || st.Score.X != 1 {
		t.Fatalf("unexpected state after mode switch: %+v", st)
	}
}

func TestSubscribeAndBroadcast(t *testing.T) {
	s := NewService()
	gs, _ := s.CreateSession(ModePvP)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	ch, unsub, err := s.Subscribe(ctx, gs.ID)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer unsub()

	if _, err := s.Play(gs.ID, 0); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	select {
	case u, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed unexpectedly")
		}
		if u.Session.Game.Moves != 1 || len(u.Events) != 2 {
			t.Fatalf("unexpected broadcast: moves=%d events=%v", u.Session.Game.Moves, kinds(u.Events))
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for broadcast")
	}
}

func TestSubscribeUnknownSession(t *testing.T) {
	s := NewService()
	if _, _, err := s.Subscribe(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDropSlowSubscriber(t *testing.T) {
	s := NewService()
	gs, _ := s.CreateSession(ModePvP)

	// Slow subscriber: never read
	ctxSlow, cancelSlow := context.WithCancel(context.Background())
	defer cancelSlow()
	slowCh, _, _ := s.Subscribe(ctxSlow, gs.ID)

	// Enough updates to overflow the buffer.
	for i := 0; i < subscriberBuffer+1; i++ {
		if _, err := s.Restart(gs.ID); err != nil {
			t.Fatalf("restart %d: %v", i, err)
		}
	}

	drained := 0
	for range slowCh {
		drained++
	}
	if drained != subscriberBuffer {
		t.Fatalf("expected %d buffered updates before close, got %d", subscriberBuffer, drained)
	}
}

func TestCloseEndsSubscriptions(t *testing.T) {
	s := NewService(WithAIDelay(time.Hour))
	gs, _ := s.CreateSession(ModePvAI)
	ch, _, _ := s.Subscribe(context.Background(), gs.ID)
	s.Play(gs.ID, 0)
	<-ch

	if err := s.Close(gs.ID); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed")
	}
	if _, ok := s.Get(gs.ID); ok {
		t.Fatalf("closed session still present")
	}
	if len(s.timers) != 0 {
		t.Fatalf("pending reply timer not stopped")
	}
}

func TestShutdownRejectsNewSessions(t *testing.T) {
	s := NewService()
	s.Shutdown()
	if _, err := s.CreateSession(ModePvP); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestShutdownRejectsChanges(t *testing.T) {
	s := NewService(WithAIDelay(time.Hour))
	gs, _ := s.CreateSession(ModePvAI)
	s.Shutdown()

	if _, err := s.Play(gs.ID, 4); !errors.Is(err, ErrClosed) {
		t.Fatalf("play: expected ErrClosed, got %v", err)
	}
	if _, err := s.SetMode(gs.ID, ModePvP); !errors.Is(err, ErrClosed) {
		t.Fatalf("set mode: expected ErrClosed, got %v", err)
	}
	if _, err := s.Restart(gs.ID); !errors.Is(err, ErrClosed) {
		t.Fatalf("restart: expected ErrClosed, got %v", err)
	}
	if _, _, err := s.Subscribe(context.Background(), gs.ID); !errors.Is(err, ErrClosed) {
		t.Fatalf("subscribe: expected ErrClosed, got %v", err)
	}

	latest, ok := s.Get(gs.ID)
	if !ok {
		t.Fatalf("session must stay readable after shutdown")
	}
	if latest.Game.Moves != 0 || latest.Round != 0 || latest.Mode != ModePvAI {
		t.Fatalf("rejected calls changed the session: %+v", latest)
	}
	if latest.AITurn() || latest.Status() != "Player X's Turn" {
		t.Fatalf("session left waiting on the computer: %q", latest.Status())
	}
	if len(s.timers) != 0 {
		t.Fatalf("no reply may be scheduled after shutdown")
	}
}
