package gametree

import (
	"math"
	"sort"
	"sync"

	"github.com/lox/postflop-solver/internal/cards"
	"github.com/lox/postflop-solver/internal/evaluator"
)

// strengthCache memoizes 7-card evaluations across the repeated
// isomorphic showdown boards BuildStrengthTable is called against while
// coupling a game tree (internal/gametree.coupleNode calls it once per
// showdown terminal, across every chance representative). Built lazily
// and shared package-wide rather than threaded through Build's signature,
// since it is purely a performance cache with no externally observable
// state.
var (
	strengthCacheOnce sync.Once
	strengthCache     *evaluator.Cache
)

func sharedStrengthCache() *evaluator.Cache {
	strengthCacheOnce.Do(func() {
		c, err := evaluator.NewCache(1 << 20)
		if err != nil {
			panic(err)
		}
		strengthCache = c
	})
	return strengthCache
}

// StrengthEntry pairs a combo with its 7-card hand strength. Strength is
// widened to int64 so the bracketing sentinels (below) can sit strictly
// outside the range of any real evaluator.HandRank value.
type StrengthEntry struct {
	Strength   int64
	ComboIndex int
}

const sentinelLow = -1

// BuildStrengthTable computes r's combos' strengths against a complete
// five-card board, sorted ascending and bracketed by sentinels at both
// ends (spec §4.2), so the terminal evaluator's conditional inner product
// never needs a bounds check at the array edges.
func BuildStrengthTable(r *cards.Range, board [5]cards.Card) []StrengthEntry {
	boardHand := cards.HandFromCards(board[0], board[1], board[2], board[3], board[4])
	cache := sharedStrengthCache()

	entries := make([]StrengthEntry, 0, len(r.Combos()))
	for _, idx := range r.Combos() {
		combo := cards.ComboAt(idx)
		if combo.Hand().Overlaps(boardHand) {
			continue
		}
		rank := cache.Evaluate7(combo.Lo, combo.Hi, board)
		entries = append(entries, StrengthEntry{Strength: int64(rank), ComboIndex: idx})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Strength < entries[j].Strength })

	out := make([]StrengthEntry, 0, len(entries)+2)
	out = append(out, StrengthEntry{Strength: sentinelLow, ComboIndex: -1})
	out = append(out, entries...)
	out = append(out, StrengthEntry{Strength: math.MaxInt64, ComboIndex: -1})
	return out
}
