package exploit

import (
	"context"
	"testing"

	"github.com/lox/postflop-solver/internal/cards"
	"github.com/lox/postflop-solver/internal/gametree"
	"github.com/lox/postflop-solver/internal/storage"
	"github.com/lox/postflop-solver/internal/tree"
)

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
	actionRoot, err := tree.Build(&tree.TreeConfig{StartStreet: 5, Pot: 100, EffectiveStack: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gt, err := gametree.Build(actionRoot, cfg, storage.Float)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return gt
}

func TestComputeOnTerminalOnlyTreeIsZero(t *testing.T) {
	gt := buildRiverOnlyTree(t)
	arena, err := gt.Allocate(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ex, err := Compute(context.Background(), gt, arena)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex != 0 {
		t.Fatalf("exploitability = %v, want 0 (no decisions to exploit)", ex)
	}
}

func TestWeightedSumIgnoresZeroWeightCombos(t *testing.T) {
	cfv := make([]float64, cards.NumCombos)
	cfv[0] = 5
	cfv[1] = 100
	weights := make([]float64, cards.NumCombos)
	weights[0] = 2

	got := weightedSum(cfv, weights)
	if got != 5 {
		t.Fatalf("weightedSum = %v, want 5 (combo 1 has zero weight)", got)
	}
}

func TestWeightedSumZeroWhenNoWeight(t *testing.T) {
	cfv := make([]float64, cards.NumCombos)
	weights := make([]float64, cards.NumCombos)
	if got := weightedSum(cfv, weights); got != 0 {
		t.Fatalf("weightedSum = %v, want 0", got)
	}
}

func TestAverageStrategyUniformWhenNeverVisited(t *testing.T) {
	gt := buildRiverOnlyTree(t)
	if gt.Root.Action.Kind == tree.TerminalNode {
		t.Skip("terminal-only tree has no player node to exercise averageStrategy on")
	}
	arena, err := gt.Allocate(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	avg := averageStrategy(gt.Root, arena)
	actionCount := gt.Root.Layout.ActionCount
	for a := 0; a < actionCount; a++ {
		if got := avg[a][0]; got != 1.0/float64(actionCount) {
			t.Fatalf("avg[%d][0] = %v, want %v", a, got, 1.0/float64(actionCount))
		}
	}
}
