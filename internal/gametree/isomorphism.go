// Package gametree couples the action tree (internal/tree) with
// combinatorial board runouts and per-player hole-card enumeration, per
// spec §4.2. Grounded on the teacher's bucket/abstraction layer in
// sdk/solver/bucket.go for the idea of precomputed per-street lookup
// tables, generalized here from heuristic buckets into exact suit-
// isomorphism classes and strength-sorted arrays; the isomorphism
// collapsing itself has no direct teacher analogue and follows spec §4.2
// and §9 directly.
package gametree

import "github.com/lox/postflop-solver/internal/cards"

// equivalentSuits reports whether suits a and b are interchangeable for
// cfg: both ranges are invariant under the swap, and the partial board's
// rank-set within each suit matches after swapping (spec §4.2).
func equivalentSuits(cfg *cards.CardConfig, a, b uint8) bool {
	if a == b {
		return true
	}
	if !cfg.Ranges[0].SuitInvariant(a, b) || !cfg.Ranges[1].SuitInvariant(a, b) {
		return false
	}
	return boardRankSet(cfg, a) == boardRankSet(cfg, b)
}

func boardRankSet(cfg *cards.CardConfig, suit uint8) uint16 {
	var mask uint16
	for _, c := range cfg.Board() {
		if c.Suit() == suit {
			mask |= 1 << c.Rank()
		}
	}
	return mask
}

// suitGroups partitions the 4 suits into equivalence classes for cfg using
// union-find over the pairwise equivalentSuits test.
func suitGroups(cfg *cards.CardConfig) [][]uint8 {
	parent := [4]uint8{0, 1, 2, 3}
	var find func(uint8) uint8
	find = func(x uint8) uint8 {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(x, y uint8) {
		rx, ry := find(x), find(y)
		if rx != ry {
			parent[rx] = ry
		}
	}

	for a := uint8(0); a < 4; a++ {
		for b := a + 1; b < 4; b++ {
			if equivalentSuits(cfg, a, b) {
				union(a, b)
			}
		}
	}

	groups := map[uint8][]uint8{}
	for s := uint8(0); s < 4; s++ {
		r := find(s)
		groups[r] = append(groups[r], s)
	}
	out := make([][]uint8, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	return out
}

// SwapList returns the sequence of (combo-index-a, combo-index-b) pairs
// that reindexes every hole-combo from suit-a/suit-b coordinates to their
// swapped counterparts. Applying it twice is the identity, which is what
// lets the DCFR engine apply it, use the result, then reverse it in place
// without extra allocation (spec §9).
func SwapList(a, b uint8) [][2]int {
	if a == b {
		return nil
	}
	var out [][2]int
	for i := 0; i < cards.NumCombos; i++ {
		combo := cards.ComboAt(i)
		swapped := combo.Hand().SwapSuits(a, b)
		j := cards.ComboIndexOfHand(swapped)
		if j > i {
			out = append(out, [2]int{i, j})
		}
	}
	return out
}

// ChanceOutcome is one possible next card in a chance node's enumeration.
type ChanceOutcome struct {
	Card cards.Card
}

// IsomorphismTable groups a chance node's possible next cards into
// representative outcomes plus, for every non-representative outcome, the
// per-player swap-list that reindexes the representative's result into
// that outcome's coordinates (spec §3's GameTree/isomorphism table).
type IsomorphismTable struct {
	Representatives []cards.Card
	Aliases         map[cards.Card][]cards.Card
	SwapLists       map[cards.Card][][2]int
}

// BuildIsomorphismTable enumerates every card not already used on the
// board (dead set) and groups cards of equivalent suits within the same
// rank into one representative plus aliases.
func BuildIsomorphismTable(cfg *cards.CardConfig, dead cards.Hand) *IsomorphismTable {
	groups := suitGroups(cfg)
	suitToGroup := make(map[uint8]int, 4)
	for gi, g := range groups {
		for _, s := range g {
			suitToGroup[s] = gi
		}
	}

	table := &IsomorphismTable{
		Aliases:   map[cards.Card][]cards.Card{},
		SwapLists: map[cards.Card][][2]int{},
	}

	// repForGroup[rank][group] tracks the first (lowest-suit) card seen
	// for a given rank within a suit-equivalence group; later cards of
	// the same rank/group become aliases of it.
	repForGroup := map[[2]int]cards.Card{}

	for v := uint8(0); v < 52; v++ {
		c := cards.Card(v)
		if dead.Has(c) {
			continue
		}
		key := [2]int{int(c.Rank()), suitToGroup[c.Suit()]}
		if rep, ok := repForGroup[key]; ok {
			table.Aliases[rep] = append(table.Aliases[rep], c)
			table.SwapLists[c] = SwapList(rep.Suit(), c.Suit())
			continue
		}
		repForGroup[key] = c
		table.Representatives = append(table.Representatives, c)
	}

	return table
}

// ChanceFactor is the divisor spec §4.6 applies to cfreach before
// descending into a chance node's children: the number of outcomes an
// observer who only knows the board (not the opponent's specific hand)
// would consider possible.
func (t *IsomorphismTable) ChanceFactor() int {
	count := len(t.Representatives)
	for _, aliases := range t.Aliases {
		count += len(aliases)
	}
	return count
}
