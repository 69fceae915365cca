package cfrcore

import (
	"context"
	"testing"

	"github.com/lox/postflop-solver/internal/cards"
	"github.com/lox/postflop-solver/internal/gametree"
	"github.com/lox/postflop-solver/internal/tree"
)

func TestApplySwapListIsInvolution(t *testing.T) {
	v := []float64{1, 2, 3, 4}
	swaps := [][2]int{{0, 3}, {1, 2}}
	ApplySwapList(v, swaps)
	want := []float64{4, 3, 2, 1}
	for i := range v {
		if v[i] != want[i] {
			t.Fatalf("after first swap, v[%d] = %v, want %v", i, v[i], want[i])
		}
	}
	ApplySwapList(v, swaps)
	orig := []float64{1, 2, 3, 4}
	for i := range v {
		if v[i] != orig[i] {
			t.Fatalf("after second swap (restore), v[%d] = %v, want %v", i, v[i], orig[i])
		}
	}
}

func TestTerminalCFVFoldWinFlipsSignForLoser(t *testing.T) {
	ah := cards.NewCard(12, 2)
	kh := cards.NewCard(11, 2)
	as := cards.NewCard(12, 3)
	ks := cards.NewCard(11, 3)
	ownCombo := cards.ComboIndex(ah, kh)
	oppCombo := cards.ComboIndex(as, ks)

	cfreach := make([]float64, cards.NumCombos)
	cfreach[oppCombo] = 10

	node := &gametree.GameNode{
		Action: &tree.Node{
			Kind:       tree.TerminalNode,
			Terminal:   tree.FoldWin,
			FoldWinner: 0,
			Pot:        100,
		},
		ValidIndices: [2][]int16{{int16(ownCombo)}, {int16(oppCombo)}},
	}

	winnerCFV := TerminalCFV(node, 0, cfreach)
	// cfreach is indexed by the opponent's combos, so the loser (player 1)
	// is given player 0's reach instead.
	loserReach := make([]float64, cards.NumCombos)
	loserReach[ownCombo] = 10
	loserCFV := TerminalCFV(node, 1, loserReach)
	if winnerCFV[ownCombo] <= 0 {
		t.Fatalf("winner cfv = %v, want positive", winnerCFV[ownCombo])
	}
	if loserCFV[oppCombo] != -winnerCFV[ownCombo] {
		t.Fatalf("loser cfv = %v, want %v (negation of winner's)", loserCFV[oppCombo], -winnerCFV[ownCombo])
	}
}

// TestChanceCFVAppliesSwapsForAliasesAndRestoresRepresentative builds a
// chance node with one representative and one alias sharing the
// representative's swap list, and checks that ChanceCFV's accumulated
// total equals the representative contribution plus its swapped-coordinate
// copy, with the callback invoked exactly once (aliases ride on the
// representative's recursion, per spec §4.6/§9 suit isomorphism).
func TestChanceCFVAppliesSwapsForAliasesAndRestoresRepresentative(t *testing.T) {
	rep := cards.NewCard(5, 0)  // 7c, representative
	alias := cards.NewCard(5, 1) // 7d, alias sharing rep's swap list

	swaps := [][2]int{{0, 1}}
	table := &gametree.IsomorphismTable{
		Representatives: []cards.Card{rep},
		Aliases:         map[cards.Card][]cards.Card{rep: {alias}},
		SwapLists:       map[cards.Card][][2]int{alias: swaps},
	}

	child := &gametree.GameNode{Action: &tree.Node{Kind: tree.TerminalNode}}
	node := &gametree.GameNode{
		Action:      &tree.Node{Kind: tree.ChanceNode},
		Isomorphism: table,
		Children:    map[string]*gametree.GameNode{rep.String(): child},
	}

	calls := 0
	recurse := func(ctx context.Context, n *gametree.GameNode, cfreach []float64) ([]float64, error) {
		calls++
		out := make([]float64, cards.NumCombos)
		out[0] = 3
		out[1] = 7
		return out, nil
	}

	accum, err := ChanceCFV(context.Background(), node, make([]float64, cards.NumCombos), recurse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("recurse called %d times, want 1 (only representatives recurse)", calls)
	}
	// representative's own contribution (3, 7) plus its swapped-coordinate
	// alias contribution (7, 3): accum[0] = 3+7 = 10, accum[1] = 7+3 = 10.
	if accum[0] != 10 || accum[1] != 10 {
		t.Fatalf("accum[0:2] = [%v %v], want [10 10]", accum[0], accum[1])
	}
}

func TestChanceCFVScalesReachByChanceFactor(t *testing.T) {
	rep1 := cards.NewCard(5, 0)
	rep2 := cards.NewCard(6, 0)
	table := &gametree.IsomorphismTable{
		Representatives: []cards.Card{rep1, rep2},
		Aliases:         map[cards.Card][]cards.Card{},
		SwapLists:       map[cards.Card][][2]int{},
	}
	child1 := &gametree.GameNode{Action: &tree.Node{Kind: tree.TerminalNode}}
	child2 := &gametree.GameNode{Action: &tree.Node{Kind: tree.TerminalNode}}
	node := &gametree.GameNode{
		Action:      &tree.Node{Kind: tree.ChanceNode},
		Isomorphism: table,
		Children: map[string]*gametree.GameNode{
			rep1.String(): child1,
			rep2.String(): child2,
		},
	}

	var gotReach float64
	cfreach := make([]float64, cards.NumCombos)
	cfreach[0] = 20
	recurse := func(ctx context.Context, n *gametree.GameNode, reach []float64) ([]float64, error) {
		gotReach = reach[0]
		return make([]float64, cards.NumCombos), nil
	}
	if _, err := ChanceCFV(context.Background(), node, cfreach, recurse); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// table.ChanceFactor() counts representatives with no aliases: 2.
	if want := 20.0 / float64(table.ChanceFactor()); gotReach != want {
		t.Fatalf("scaled reach = %v, want %v", gotReach, want)
	}
}
