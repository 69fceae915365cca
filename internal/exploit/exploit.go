// Package exploit computes the exploitability of a solved game's current
// average strategy: for each player, the value of a pure best response
// against the other player's average strategy, summed and normalized by
// pot, per spec §4.6 point 3 / §8's monotonicity property. Implemented as
// a best-response variant of internal/dcfr's recursion (pure arg-max
// action selection instead of regret matching) sharing the chance/
// terminal traversal in internal/cfrcore.
package exploit

import (
	"context"

	"github.com/lox/postflop-solver/internal/cards"
	"github.com/lox/postflop-solver/internal/cfrcore"
	"github.com/lox/postflop-solver/internal/gametree"
	"github.com/lox/postflop-solver/internal/storage"
	"github.com/lox/postflop-solver/internal/tree"
)

// Compute returns the exploitability of gt's current average strategy (the
// arena's cumulative-strategy tables), expressed as a fraction of the
// root pot.
func Compute(ctx context.Context, gt *gametree.GameTree, arena *storage.Arena) (float64, error) {
	initWeights := [2][]float64{
		denseWeights(gt.Config.Ranges[0]),
		denseWeights(gt.Config.Ranges[1]),
	}
	return ComputeFrom(ctx, gt.Root, initWeights, arena)
}

// ComputeFrom computes exploitability rooted at an arbitrary node with
// caller-supplied per-player entry reach, expressed as a fraction of that
// node's own pot. internal/persist's resolve step uses this to check a
// re-solved subtree's local exploitability against a target without
// walking the whole tree.
func ComputeFrom(ctx context.Context, root *gametree.GameNode, initWeights [2][]float64, arena *storage.Arena) (float64, error) {
	pot := root.Action.Pot

	total := 0.0
	for br := 0; br < 2; br++ {
		cfreach := make([]float64, cards.NumCombos)
		copy(cfreach, initWeights[1-br])
		cfv, err := solveBestResponse(ctx, root, arena, br, cfreach)
		if err != nil {
			return 0, err
		}
		total += weightedSum(cfv, initWeights[br])
	}
	if pot <= 0 {
		return 0, nil
	}
	return total / pot, nil
}

func denseWeights(r *cards.Range) []float64 {
	out := make([]float64, cards.NumCombos)
	for _, idx := range r.Combos() {
		out[idx] = r.Weight(idx)
	}
	return out
}

func weightedSum(cfv, weights []float64) float64 {
	sum, norm := 0.0, 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		sum += w * cfv[i]
		norm += w
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

func solveBestResponse(ctx context.Context, node *gametree.GameNode, arena *storage.Arena, br int, cfreach []float64) ([]float64, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	switch node.Action.Kind {
	case tree.TerminalNode:
		return cfrcore.TerminalCFV(node, br, cfreach), nil
	case tree.ChanceNode:
		return cfrcore.ChanceCFV(ctx, node, cfreach, func(ctx context.Context, child *gametree.GameNode, scaled []float64) ([]float64, error) {
			return solveBestResponse(ctx, child, arena, br, scaled)
		})
	default:
		return playerBestResponse(ctx, node, arena, br, cfreach)
	}
}

func playerBestResponse(ctx context.Context, node *gametree.GameNode, arena *storage.Arena, br int, cfreach []float64) ([]float64, error) {
	n := node.Action
	actionCount := len(n.Actions)
	children := make([]*gametree.GameNode, actionCount)
	for i, a := range n.Actions {
		children[i] = node.Children[a.String()]
	}

	childCFVs := make([][]float64, actionCount)
	for i, child := range children {
		cfv, err := solveBestResponse(ctx, child, arena, br, cfreach)
		if err != nil {
			return nil, err
		}
		childCFVs[i] = cfv
	}

	out := make([]float64, cards.NumCombos)
	if n.Player == br {
		// The best-responding player plays the arg-max action pure, per
		// hand, rather than regret-matching.
		own := node.ValidIndices[br]
		for _, combo := range own {
			best := childCFVs[0][combo]
			for a := 1; a < actionCount; a++ {
				if childCFVs[a][combo] > best {
					best = childCFVs[a][combo]
				}
			}
			out[combo] = best
		}
		return out, nil
	}

	// The non-best-responding player plays their average strategy: fold
	// each action's child contribution (reach already carries the
	// weighting) into the node value.
	avg := averageStrategy(node, arena)
	handCount := len(node.ValidIndices[n.Player])
	nextCFreach := make([][]float64, actionCount)
	for a := range nextCFreach {
		nextCFreach[a] = make([]float64, cards.NumCombos)
	}
	for h := 0; h < handCount; h++ {
		combo := node.ValidIndices[n.Player][h]
		for a := 0; a < actionCount; a++ {
			nextCFreach[a][combo] = avg[a][h] * cfreach[combo]
		}
	}

	for a, child := range children {
		cfv, err := solveBestResponse(ctx, child, arena, br, nextCFreach[a])
		if err != nil {
			return nil, err
		}
		for i, v := range cfv {
			out[i] += v
		}
	}
	return out, nil
}

// AverageStrategy exports averageStrategy for internal/persist's resolve
// step, which needs the same cumulative-strategy normalization to derive
// entry reach probabilities at a truncation boundary.
func AverageStrategy(node *gametree.GameNode, arena *storage.Arena) [][]float64 {
	return averageStrategy(node, arena)
}

// averageStrategy normalizes a node's cumulative-strategy row into a
// per-hand probability distribution over actions, falling back to uniform
// when a hand's row is entirely zero (never visited).
func averageStrategy(node *gametree.GameNode, arena *storage.Arena) [][]float64 {
	l := node.Layout
	row := arena.StrategyRow(l)
	actionCount, handCount := l.ActionCount, l.HandCount

	out := make([][]float64, actionCount)
	for a := range out {
		out[a] = make([]float64, handCount)
	}
	for h := 0; h < handCount; h++ {
		sum := 0.0
		for a := 0; a < actionCount; a++ {
			sum += float64(row[a*handCount+h])
		}
		for a := 0; a < actionCount; a++ {
			if sum > 0 {
				out[a][h] = float64(row[a*handCount+h]) / sum
			} else {
				out[a][h] = 1.0 / float64(actionCount)
			}
		}
	}
	return out
}
