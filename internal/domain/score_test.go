package domain

import "testing"

func TestTallyRecord(t *testing.T) {
	var tally Tally
	tally.Record(Result{Phase: Won, Winner: X, Line: Line{0, 1, 2}})
	tally.Record(Result{Phase: Won, Winner: O, Line: Line{2, 4, 6}})
	tally.Record(Result{Phase: Won, Winner: X, Line: Line{0, 3, 6}})
	got := tally.Record(Result{Phase: Draw})
	want := Tally{X: 2, O: 1, Draws: 1}
	if got != want || tally != want {
		t.Fatalf("expected %+v, got returned=%+v stored=%+v", want, got, tally)
	}
	if tally.Rounds() != 4 {
		t.Fatalf("expected 4 rounds, got %d", tally.Rounds())
	}
}

func TestTallyIgnoresInProgress(t *testing.T) {
	var tally Tally
	if got := tally.Record(Result{Phase: InProgress}); got != (Tally{}) {
		t.Fatalf("expected unchanged tally, got %+v", got)
	}
}

func TestTallySurvivesReset(t *testing.T) {
	var tally Tally
	g := New()
	for _, idx := range []int{0, 4, 1, 7, 2} {
		res, err := g.Apply(idx, g.Turn)
		if err != nil {
			t.Fatalf("move %d failed: %v", idx, err)
		}
		if res.Terminal() {
			tally.Record(res)
		}
	}
	if tally.X != 1 {
		t.Fatalf("expected X tally 1, got %+v", tally)
	}
	g.Reset()
	if tally.X != 1 || g.Board.Filled() != 0 || g.Turn != X {
		t.Fatalf("reset should clear board only; tally=%+v game=%+v", tally, g)
	}
}
