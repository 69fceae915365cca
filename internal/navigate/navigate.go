// Package navigate implements spec §4.8's interactive cursor over a
// solved game tree: play/back_to_root/apply_history movement plus
// per-player weights, normalized weights, equity, expected values,
// strategy, and private cards at the current node.
//
// The EV/equity traversal (averageCFV) is grounded directly on
// internal/exploit's playerBestResponse: same chance/terminal handling
// via internal/cfrcore and the same cumulative-strategy reweighting for
// the non-acting player, but with the acting player also following their
// average strategy instead of a best response, since navigation reports
// the value of the solved game as actually played, not its
// exploitability.
package navigate

import (
	"context"

	"github.com/lox/postflop-solver/internal/cards"
	"github.com/lox/postflop-solver/internal/cfrcore"
	"github.com/lox/postflop-solver/internal/exploit"
	"github.com/lox/postflop-solver/internal/gametree"
	"github.com/lox/postflop-solver/internal/solverr"
	"github.com/lox/postflop-solver/internal/storage"
	"github.com/lox/postflop-solver/internal/tree"
)

// Cursor walks a solved GameTree. Solved must be set true once the
// arena's strategy tables are meaningful (spec §7's OperationMisordered:
// "requesting EVs before solve"); EV/equity/strategy queries fail until
// then.
type Cursor struct {
	Tree   *gametree.GameTree
	Arena  *storage.Arena
	Solved bool

	node            *gametree.GameNode
	path            []string
	normalizedCache [2][]float64
}

// NewCursor starts a cursor at gt's root.
func NewCursor(gt *gametree.GameTree, arena *storage.Arena) *Cursor {
	return &Cursor{Tree: gt, Arena: arena, node: gt.Root}
}

// BackToRoot resets the cursor to the tree's root.
func (c *Cursor) BackToRoot() {
	c.node = c.Tree.Root
	c.path = nil
	c.normalizedCache = [2][]float64{}
}

// AvailableActions lists the current node's legal moves: action strings
// at a player node, or representative-card strings at a chance node (the
// cursor treats "which card came off" as a playable choice, same index
// space play(i) and apply_history use). A terminal node has none.
func (c *Cursor) AvailableActions() []string {
	switch c.node.Action.Kind {
	case tree.ChanceNode:
		reps := c.node.Isomorphism.Representatives
		out := make([]string, len(reps))
		for i, r := range reps {
			out[i] = r.String()
		}
		return out
	case tree.TerminalNode:
		return nil
	default:
		out := make([]string, len(c.node.Action.Actions))
		for i, a := range c.node.Action.Actions {
			out[i] = a.String()
		}
		return out
	}
}

// CurrentPlayer returns the acting player (0 OOP, 1 IP) at a player node,
// or -1 at a chance or terminal node.
func (c *Cursor) CurrentPlayer() int {
	if c.node.Action.Kind == tree.PlayerNode {
		return c.node.Action.Player
	}
	return -1
}

// IsTerminal reports whether the cursor is at a hand-ending node.
func (c *Cursor) IsTerminal() bool {
	return c.node.Action.Kind == tree.TerminalNode
}

// IsChance reports whether the cursor awaits the next board card.
func (c *Cursor) IsChance() bool {
	return c.node.Action.Kind == tree.ChanceNode
}

// Play moves to the child at index i of AvailableActions(), per spec
// §4.8's play(action_index).
func (c *Cursor) Play(i int) error {
	keys := c.AvailableActions()
	if c.node.Action.Kind == tree.TerminalNode {
		return solverr.New(solverr.NavigationInvalid, "cannot play from a terminal node")
	}
	if i < 0 || i >= len(keys) {
		return solverr.New(solverr.NavigationInvalid, "action index out of range")
	}
	child, ok := c.node.Children[keys[i]]
	if !ok {
		return solverr.New(solverr.NavigationInvalid, "action has no corresponding child node")
	}
	c.node = child
	c.path = append(c.path, keys[i])
	c.normalizedCache = [2][]float64{}
	return nil
}

// ApplyHistory resets to the root and replays a sequence of action/card
// strings (as returned by AvailableActions), failing NavigationInvalid on
// the first entry with no matching child.
func (c *Cursor) ApplyHistory(path []string) error {
	c.BackToRoot()
	for _, token := range path {
		keys := c.AvailableActions()
		idx := -1
		for i, k := range keys {
			if k == token {
				idx = i
				break
			}
		}
		if idx < 0 {
			return solverr.New(solverr.NavigationInvalid, "history action not found at this node: "+token)
		}
		if err := c.Play(idx); err != nil {
			return err
		}
	}
	return nil
}

// History returns the sequence of action/card strings played so far.
func (c *Cursor) History() []string {
	return append([]string(nil), c.path...)
}

// Weights returns player p's raw range weight for each of their hands
// still valid at the current node (board-conflicting combos are already
// excluded from that set by internal/gametree's card-removal filtering),
// in the same hand order PrivateCards(p) uses.
func (c *Cursor) Weights(p int) []float64 {
	idx := c.node.ValidIndices[p]
	out := make([]float64, len(idx))
	r := c.Tree.Config.Ranges[p]
	for h, combo := range idx {
		out[h] = r.Weight(int(combo))
	}
	return out
}

// NormalizedWeights returns Weights(p) rescaled to sum to 1, caching the
// result per spec §4.8's cache_normalized_weights until the cursor moves.
func (c *Cursor) NormalizedWeights(p int) []float64 {
	if c.normalizedCache[p] != nil {
		return c.normalizedCache[p]
	}
	w := c.Weights(p)
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	out := make([]float64, len(w))
	if sum > 0 {
		for i, v := range w {
			out[i] = v / sum
		}
	}
	c.normalizedCache[p] = out
	return out
}

// PrivateCards returns player p's two hole cards for each hand still
// valid at the current node, in Weights(p)/NormalizedWeights(p) order.
func (c *Cursor) PrivateCards(p int) [][2]cards.Card {
	idx := c.node.ValidIndices[p]
	out := make([][2]cards.Card, len(idx))
	for h, combo := range idx {
		combo := cards.ComboAt(int(combo))
		out[h] = [2]cards.Card{combo.Lo, combo.Hi}
	}
	return out
}

// Strategy returns the current node's average strategy flattened in
// action-major order (action*handCount + hand), matching the arena's own
// row layout. Valid only at a player node.
func (c *Cursor) Strategy() ([]float64, error) {
	if err := c.requireSolved(); err != nil {
		return nil, err
	}
	if c.node.Action.Kind != tree.PlayerNode {
		return nil, solverr.New(solverr.NavigationInvalid, "strategy is only defined at a player node")
	}
	avg := exploit.AverageStrategy(c.node, c.Arena)
	actionCount, handCount := c.node.Layout.ActionCount, c.node.Layout.HandCount
	out := make([]float64, actionCount*handCount)
	for a := 0; a < actionCount; a++ {
		for h := 0; h < handCount; h++ {
			out[a*handCount+h] = avg[a][h]
		}
	}
	return out, nil
}

// ExpectedValues returns player p's per-hand expected value at the
// current node under both players' stored average strategies, entering
// with the opponent's normalized (board-conditioned) range as reach —
// i.e. the value conditional on having reached this node, the
// conventional framing a solver navigation view reports, rather than the
// joint unconditional value of the whole hand.
func (c *Cursor) ExpectedValues(ctx context.Context, p int) ([]float64, error) {
	if err := c.requireSolved(); err != nil {
		return nil, err
	}
	cfreach := make([]float64, cards.NumCombos)
	opp := 1 - p
	oppIdx := c.node.ValidIndices[opp]
	oppNorm := c.NormalizedWeights(opp)
	for h, combo := range oppIdx {
		cfreach[combo] = oppNorm[h]
	}
	cfv, err := averageCFV(ctx, c.node, c.Arena, p, cfreach)
	if err != nil {
		return nil, err
	}
	own := c.node.ValidIndices[p]
	out := make([]float64, len(own))
	for h, combo := range own {
		out[h] = cfv[combo]
	}
	return out, nil
}

// Equity returns ExpectedValues(p) divided by the current node's pot, per
// hand. ExpectedValues is a net result paid as plus or minus half the
// pot, so a hand that wins an unraked pot of this size outright scores
// 0.5 and one that loses it scores -0.5.
func (c *Cursor) Equity(ctx context.Context, p int) ([]float64, error) {
	ev, err := c.ExpectedValues(ctx, p)
	if err != nil {
		return nil, err
	}
	pot := c.node.Action.Pot
	out := make([]float64, len(ev))
	if pot > 0 {
		for i, v := range ev {
			out[i] = v / pot
		}
	}
	return out, nil
}

func (c *Cursor) requireSolved() error {
	if !c.Solved {
		return solverr.New(solverr.OperationMisordered, "requested EVs/strategy before the game was solved")
	}
	return nil
}

// averageCFV computes player's counterfactual value at node assuming both
// sides follow the arena's current average strategy, rather than a best
// response — the "value as actually played" this package reports.
func averageCFV(ctx context.Context, node *gametree.GameNode, arena *storage.Arena, player int, cfreach []float64) ([]float64, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	switch node.Action.Kind {
	case tree.TerminalNode:
		return cfrcore.TerminalCFV(node, player, cfreach), nil
	case tree.ChanceNode:
		return cfrcore.ChanceCFV(ctx, node, cfreach, func(ctx context.Context, child *gametree.GameNode, scaled []float64) ([]float64, error) {
			return averageCFV(ctx, child, arena, player, scaled)
		})
	default:
		return averageCFVPlayerNode(ctx, node, arena, player, cfreach)
	}
}

func averageCFVPlayerNode(ctx context.Context, node *gametree.GameNode, arena *storage.Arena, player int, cfreach []float64) ([]float64, error) {
	n := node.Action
	actionCount := len(n.Actions)
	children := make([]*gametree.GameNode, actionCount)
	for i, a := range n.Actions {
		children[i] = node.Children[a.String()]
	}
	avg := exploit.AverageStrategy(node, arena)

	if n.Player == player {
		own := node.ValidIndices[player]
		childCFVs := make([][]float64, actionCount)
		for i, child := range children {
			cfv, err := averageCFV(ctx, child, arena, player, cfreach)
			if err != nil {
				return nil, err
			}
			childCFVs[i] = cfv
		}
		out := make([]float64, cards.NumCombos)
		for h, combo := range own {
			var v float64
			for a := 0; a < actionCount; a++ {
				v += avg[a][h] * childCFVs[a][combo]
			}
			out[combo] = v
		}
		return out, nil
	}

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
	out := make([]float64, cards.NumCombos)
	for a, child := range children {
		cfv, err := averageCFV(ctx, child, arena, player, nextCFreach[a])
		if err != nil {
			return nil, err
		}
		for i, v := range cfv {
			out[i] += v
		}
	}
	return out, nil
}
