package navigate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lox/postflop-solver/internal/cards"
	"github.com/lox/postflop-solver/internal/dcfr"
	"github.com/lox/postflop-solver/internal/gametree"
	"github.com/lox/postflop-solver/internal/storage"
	"github.com/lox/postflop-solver/internal/tree"
)

func buildTrivialRiver(t *testing.T) (*gametree.GameTree, *storage.Arena) {
	t.Helper()
	board, err := cards.ParseBoard("3h3s3d2c2s")
	require.NoError(t, err)
	aa, err := cards.ParseRange("AA")
	require.NoError(t, err)
	kk, err := cards.ParseRange("KK")
	require.NoError(t, err)
	cc := &cards.CardConfig{
		Ranges: [2]*cards.Range{aa, kk},
		Flop:   [3]cards.Card{board[0], board[1], board[2]},
		Turn:   board[3],
		River:  board[4],
	}
	root, err := tree.Build(&tree.TreeConfig{StartStreet: 5, Pot: 100, EffectiveStack: 0})
	require.NoError(t, err)
	gt, err := gametree.Build(root, cc, storage.Float)
	require.NoError(t, err)
	arena, err := gt.Allocate(0)
	require.NoError(t, err)
	return gt, arena
}

func TestNewCursorStartsAtRootAndNavigatesTerminal(t *testing.T) {
	gt, arena := buildTrivialRiver(t)
	c := NewCursor(gt, arena)
	require.True(t, c.IsTerminal())
	require.False(t, c.IsChance())
	require.Equal(t, -1, c.CurrentPlayer())
	require.Empty(t, c.AvailableActions())
	require.Error(t, c.Play(0))
}

func TestExpectedValuesBeforeSolveIsOperationMisordered(t *testing.T) {
	gt, arena := buildTrivialRiver(t)
	c := NewCursor(gt, arena)
	_, err := c.ExpectedValues(context.Background(), 0)
	require.Error(t, err)
}

func TestTrivialRiverOOPWinsWholePotEveryHand(t *testing.T) {
	gt, arena := buildTrivialRiver(t)
	solver := dcfr.New(gt, arena, nil)
	_, err := solver.Run(context.Background(), dcfr.Config{MaxIterations: 1})
	require.NoError(t, err)

	c := NewCursor(gt, arena)
	c.Solved = true
	// Showdown pays plus or minus half the pot: taking the whole 100-chip
	// pot nets +50 per OOP hand, and losing it costs IP 50.
	ev, err := c.ExpectedValues(context.Background(), 0)
	require.NoError(t, err)
	for _, v := range ev {
		require.InDelta(t, 50.0, v, 1e-9)
	}
	loserEV, err := c.ExpectedValues(context.Background(), 1)
	require.NoError(t, err)
	for _, v := range loserEV {
		require.InDelta(t, -50.0, v, 1e-9)
	}
}

func TestNormalizedWeightsSumToOneAndAreCached(t *testing.T) {
	gt, arena := buildTrivialRiver(t)
	c := NewCursor(gt, arena)
	w := c.NormalizedWeights(0)
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	require.InDelta(t, 1.0, sum, 1e-9)

	w2 := c.NormalizedWeights(0)
	require.Same(t, &w[0], &w2[0], "second call should hit the cache, not recompute")
}

func TestBackToRootClearsHistoryAndCache(t *testing.T) {
	gt, arena := buildTrivialRiver(t)
	c := NewCursor(gt, arena)
	_ = c.NormalizedWeights(0)
	c.BackToRoot()
	require.Empty(t, c.History())
}
