package rules

import "testing"

func TestTurnManagerPhaseSequence(t *testing.T) {
	tm := NewTurnManager([]string{"Draw", "Main", "Combat", "End"}, 2)

	if tm.CurrentPhase() != "" {
		t.Fatalf("expected no phase before the turn begins, got %q", tm.CurrentPhase())
	}
	if phase := tm.EnterFirstPhase(); phase != "Draw" {
		t.Fatalf("expected first phase Draw, got %q", phase)
	}

	for _, want := range []string{"Main", "Combat", "End"} {
		phase, ok := tm.AdvancePhase()
		if !ok {
			t.Fatalf("expected to advance into %s", want)
		}
		if phase != want {
			t.Fatalf("expected phase %s, got %s", want, phase)
		}
	}

	if !tm.IsLastPhase() {
		t.Fatalf("expected End to be the last phase")
	}
	phase, ok := tm.AdvancePhase()
	if ok {
		t.Fatalf("expected advance past the last phase to be refused")
	}
	if phase != "End" || tm.CurrentPhase() != "End" {
		t.Fatalf("expected cursor to stay on End, got %q", tm.CurrentPhase())
	}
}

func TestTurnManagerRoundRobin(t *testing.T) {
	tm := NewTurnManager([]string{"Main"}, 3)

	for i := 1; i <= 2; i++ {
		seat, wrapped := tm.EndTurn()
		if seat != i || wrapped {
			t.Fatalf("end turn %d: expected seat %d without wrap, got seat %d wrapped=%v", i, i, seat, wrapped)
		}
		if tm.TurnNumber() != 1 {
			t.Fatalf("expected to remain on turn 1, got %d", tm.TurnNumber())
		}
	}

	seat, wrapped := tm.EndTurn()
	if seat != 0 || !wrapped {
		t.Fatalf("expected wrap back to seat 0, got seat %d wrapped=%v", seat, wrapped)
	}
	if tm.TurnNumber() != 2 {
		t.Fatalf("expected turn number 2 after wrap, got %d", tm.TurnNumber())
	}
	if tm.CurrentPhase() != "" {
		t.Fatalf("expected phase cursor reset on a new turn, got %q", tm.CurrentPhase())
	}
}
