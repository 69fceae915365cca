// Package terminal computes counterfactual values at fold and showdown
// terminals, per spec §4.5. Grounded on ehrlich-b-poker's
// pkg/equity/calculator.go for the weighted-tally approach to showdown
// equity, reworked from its O(own*opp) direct comparison into the
// strength-sorted conditional-inner-product technique spec §4.5
// mandates, using internal/gametree's bracketed StrengthEntry tables.
package terminal

import (
	"sort"

	"github.com/lox/postflop-solver/internal/cards"
	"github.com/lox/postflop-solver/internal/gametree"
)

// Rake computes the rake taken from a pot under a flat rate with a cap,
// per spec §4.5.
func Rake(pot, rate, cap float64) float64 {
	r := pot * rate
	if r > cap {
		return cap
	}
	if r < 0 {
		return 0
	}
	return r
}

// HandCFV pairs a combo index with its computed counterfactual value.
type HandCFV struct {
	ComboIndex int
	Value      float64
}

// FoldCFV computes the fold terminal's per-hand cfv for the side that did
// not fold: each of ownCombos earns amount times the cfreach-weighted mass
// of opponent combos that don't share a card with it.
func FoldCFV(ownCombos []int16, oppValidCombos []int16, cfreach []float64, amount float64) []HandCFV {
	total := 0.0
	for _, j := range oppValidCombos {
		total += cfreach[j]
	}

	out := make([]HandCFV, len(ownCombos))
	for i, ci := range ownCombos {
		ownHand := cards.ComboAt(int(ci)).Hand()
		mass := total
		for _, j := range oppValidCombos {
			if cards.ComboAt(int(j)).Hand().Overlaps(ownHand) {
				mass -= cfreach[j]
			}
		}
		out[i] = HandCFV{ComboIndex: int(ci), Value: amount * mass}
	}
	return out
}

// ShowdownCFV computes the showdown terminal's per-hand cfv using the
// strength-sorted, sentinel-bracketed tables for both players: for each of
// the acting player's hands, sums cfreach-weighted opponent mass that is
// weaker, equal, and stronger, correcting for card conflicts by walking
// only the (at most ~100) opponent combos that actually share a card with
// the hand in question.
func ShowdownCFV(ownTable, oppTable []gametree.StrengthEntry, cfreach []float64, potHalf float64) []HandCFV {
	oppPos := make(map[int]int, len(oppTable))
	for i, e := range oppTable {
		if e.ComboIndex >= 0 {
			oppPos[e.ComboIndex] = i
		}
	}

	cum := make([]float64, len(oppTable)+1)
	for i, e := range oppTable {
		w := 0.0
		if e.ComboIndex >= 0 {
			w = cfreach[e.ComboIndex]
		}
		cum[i+1] = cum[i] + w
	}
	total := cum[len(oppTable)]

	out := make([]HandCFV, 0, len(ownTable))
	for _, e := range ownTable {
		if e.ComboIndex < 0 {
			continue // sentinel
		}
		lb := sort.Search(len(oppTable), func(i int) bool { return oppTable[i].Strength >= e.Strength })
		ub := sort.Search(len(oppTable), func(i int) bool { return oppTable[i].Strength > e.Strength })
		weaker := cum[lb]
		equal := cum[ub] - cum[lb]
		stronger := total - cum[ub]

		ownCards := comboCards(e.ComboIndex)
		for _, c := range ownCards {
			for v := uint8(0); v < 52; v++ {
				other := cards.Card(v)
				if other == ownCards[0] || other == ownCards[1] || other == c {
					continue
				}
				conflict := cards.ComboIndexOfHand(cards.HandFromCards(c, other))
				pos, ok := oppPos[conflict]
				if !ok {
					continue
				}
				w := cfreach[conflict]
				switch {
				case oppTable[pos].Strength < e.Strength:
					weaker -= w
				case oppTable[pos].Strength == e.Strength:
					equal -= w
				default:
					stronger -= w
				}
			}
		}
		_ = equal // ties contribute zero net; kept for clarity/debugging

		out = append(out, HandCFV{ComboIndex: e.ComboIndex, Value: (weaker - stronger) * potHalf})
	}
	return out
}

func comboCards(idx int) [2]cards.Card {
	c := cards.ComboAt(idx)
	return [2]cards.Card{c.Lo, c.Hi}
}
