package evaluator

import (
	lru "github.com/opencoff/golang-lru"

	"github.com/lox/postflop-solver/internal/cards"
)

// Cache memoizes full 7-card evaluations keyed by the card bitmask, so that
// repeated lookups of the same board/hole combination during tree
// construction and strength sorting don't re-walk the bit-slice classifier.
//
// The teacher's go.mod carries github.com/opencoff/golang-lru as a direct
// dependency with no importer in the retrieved sources; this wires it into
// the one place in the solver where the same 7-card hand is evaluated
// repeatedly across isomorphic chance branches.
type Cache struct {
	lru *lru.Cache[cards.Hand, HandRank]
}

// NewCache builds an evaluation cache holding up to size distinct hands.
func NewCache(size int) (*Cache, error) {
	l, err := lru.New[cards.Hand, HandRank](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l}, nil
}

// Evaluate returns the memoized HandRank for h, computing and storing it on
// a cache miss.
func (c *Cache) Evaluate(h cards.Hand) HandRank {
	if rank, ok := c.lru.Get(h); ok {
		return rank
	}
	rank := EvaluateHand(h)
	c.lru.Add(h, rank)
	return rank
}

// Evaluate7 is the cached equivalent of the package-level Evaluate7.
func (c *Cache) Evaluate7(hole0, hole1 cards.Card, board [5]cards.Card) HandRank {
	h := cards.HandFromCards(hole0, hole1, board[0], board[1], board[2], board[3], board[4])
	return c.Evaluate(h)
}

// Len reports the number of hands currently memoized.
func (c *Cache) Len() int {
	return c.lru.Len()
}
