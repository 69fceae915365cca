package dcfr

import (
	"context"
	"testing"

	"github.com/lox/postflop-solver/internal/cards"
	"github.com/lox/postflop-solver/internal/gametree"
	"github.com/lox/postflop-solver/internal/storage"
	"github.com/lox/postflop-solver/internal/tree"
)

// buildRiverOnlyTree mirrors gametree_test.go's AA-versus-KK, complete-board
// setup: EffectiveStack 0 at the river collapses the action tree straight to
// a showdown terminal, leaving nothing for the solver to decide.
func buildRiverOnlyTree(t *testing.T) *gametree.GameTree {
	t.Helper()
	board, err := cards.ParseBoard("3h3s3d2c2s")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	aa, err := cards.ParseRange("AA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kk, err := cards.ParseRange("KK")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := &cards.CardConfig{
		Ranges: [2]*cards.Range{aa, kk},
		Flop:   [3]cards.Card{board[0], board[1], board[2]},
		Turn:   board[3],
		River:  board[4],
	}
	actionRoot, err := tree.Build(&tree.TreeConfig{
		StartStreet:    5,
		Pot:            100,
		EffectiveStack: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gt, err := gametree.Build(actionRoot, cfg, storage.Float)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gt.Root.Action.Kind != tree.TerminalNode {
		t.Fatalf("expected a terminal-only tree, got kind %v", gt.Root.Action.Kind)
	}
	return gt
}

func TestRunOnTerminalOnlyTreeIsExploitabilityZero(t *testing.T) {
	gt := buildRiverOnlyTree(t)
	arena, err := gt.Allocate(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := New(gt, arena, nil)

	res, err := s.Run(context.Background(), Config{MaxIterations: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Iterations != 1 {
		t.Fatalf("Iterations = %d, want 1", res.Iterations)
	}
	if res.Exploitability != 0 {
		t.Fatalf("Exploitability = %v, want 0 (no decisions exist in this tree)", res.Exploitability)
	}
}

func TestRunChecksExploitabilyTargetEarlyStop(t *testing.T) {
	gt := buildRiverOnlyTree(t)
	arena, err := gt.Allocate(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := New(gt, arena, nil)

	// A terminal-only tree is exploitability 0 from the first check, so an
	// arbitrarily loose target should stop after a single iteration even
	// with a large MaxIterations ceiling.
	res, err := s.Run(context.Background(), Config{MaxIterations: 1000, ExploitabilityTarget: 0.5, CheckInterval: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Iterations != 1 {
		t.Fatalf("Iterations = %d, want 1 (early stop)", res.Iterations)
	}
}
