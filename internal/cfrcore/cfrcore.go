// Package cfrcore holds the chance-node and terminal-node traversal logic
// shared by internal/dcfr's training recursion and internal/exploit's
// best-response recursion (spec §4.6): both walk the same tree shape and
// only differ in how they handle a player-to-act node, so that one piece
// of logic is grounded once here rather than duplicated in each caller.
package cfrcore

import (
	"context"

	"github.com/lox/postflop-solver/internal/cards"
	"github.com/lox/postflop-solver/internal/gametree"
	"github.com/lox/postflop-solver/internal/terminal"
	"github.com/lox/postflop-solver/internal/tree"
)

// Recurse descends into a single child node, returning a dense cfv vector
// indexed by comboIndex over player's hole combos.
type Recurse func(ctx context.Context, node *gametree.GameNode, cfreach []float64) ([]float64, error)

// TerminalCFV delegates to internal/terminal for a fold or showdown
// terminal, per spec §4.5.
func TerminalCFV(node *gametree.GameNode, player int, cfreach []float64) []float64 {
	n := node.Action
	out := make([]float64, cards.NumCombos)
	rake := terminal.Rake(n.Pot, n.RakeRate, n.RakeCap)

	switch n.Terminal {
	case tree.FoldWin:
		amount := n.Pot/2 - rake
		if n.FoldWinner != player {
			amount = -amount
		}
		own := node.ValidIndices[player]
		opp := node.ValidIndices[1-player]
		for _, hc := range terminal.FoldCFV(own, opp, cfreach, amount) {
			out[hc.ComboIndex] = hc.Value
		}
	default: // Showdown
		potHalf := n.Pot/2 - rake
		for _, hc := range terminal.ShowdownCFV(node.StrengthTables[player], node.StrengthTables[1-player], cfreach, potHalf) {
			out[hc.ComboIndex] = hc.Value
		}
	}
	return out
}

// ChanceCFV scales cfreach by the chance factor, recurses into each
// representative outcome via recurse, and accumulates each alias's
// contribution by applying (then reversing) its suit swap-list to the
// representative's returned cfv, per spec §4.6/§9.
func ChanceCFV(ctx context.Context, node *gametree.GameNode, cfreach []float64, recurse Recurse) ([]float64, error) {
	table := node.Isomorphism
	factor := table.ChanceFactor()
	inv := 1.0
	if factor > 0 {
		inv = 1.0 / float64(factor)
	}
	scaled := make([]float64, len(cfreach))
	for i, v := range cfreach {
		scaled[i] = v * inv
	}

	accum := make([]float64, cards.NumCombos)
	for _, rep := range table.Representatives {
		child := node.Children[rep.String()]
		cfv, err := recurse(ctx, child, scaled)
		if err != nil {
			return nil, err
		}
		for i, v := range cfv {
			accum[i] += v
		}
		for _, alias := range table.Aliases[rep] {
			swaps := table.SwapLists[alias]
			ApplySwapList(cfv, swaps)
			for i, v := range cfv {
				accum[i] += v
			}
			ApplySwapList(cfv, swaps) // involution: restores rep's coordinates
		}
	}
	return accum, nil
}

// ApplySwapList exchanges v[a] and v[b] for every pair in swaps, in place.
// Applying the same list twice is the identity.
func ApplySwapList(v []float64, swaps [][2]int) {
	for _, p := range swaps {
		v[p[0]], v[p[1]] = v[p[1]], v[p[0]]
	}
}

