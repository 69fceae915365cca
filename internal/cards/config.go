package cards

import "github.com/lox/postflop-solver/internal/solverr"

// CardConfig bundles the two players' ranges with the known board. Flop
// must be fully dealt; turn and river may only be present if the streets
// before them are (spec.md §3's CardConfig invariant).
type CardConfig struct {
	Ranges [2]*Range
	Flop   [3]Card
	Turn   Card // NotDealt if not yet dealt
	River  Card // NotDealt if not yet dealt
}

// Board returns the known board cards in order, excluding NotDealt slots.
func (c *CardConfig) Board() []Card {
	out := make([]Card, 0, 5)
	for _, f := range c.Flop {
		out = append(out, f)
	}
	if c.Turn.Valid() {
		out = append(out, c.Turn)
	}
	if c.River.Valid() {
		out = append(out, c.River)
	}
	return out
}

// Validate checks the no-duplicate-card and street-ordering invariants.
func (c *CardConfig) Validate() error {
	if c.Ranges[0] == nil || c.Ranges[1] == nil {
		return solverr.New(solverr.ConfigurationInvalid, "both player ranges are required")
	}
	for _, f := range c.Flop {
		if !f.Valid() {
			return solverr.New(solverr.ConfigurationInvalid, "flop must have three dealt cards")
		}
	}
	if !c.Turn.Valid() && c.River.Valid() {
		return solverr.New(solverr.ConfigurationInvalid, "river dealt without turn")
	}
	seen := make(map[Card]bool, 5)
	for _, c := range c.Board() {
		if seen[c] {
			return solverr.New(solverr.ConfigurationInvalid, "duplicate card on board: "+c.String())
		}
		seen[c] = true
	}
	return nil
}

// Street returns how many of flop/turn/river are known: 3, 4, or 5.
func (c *CardConfig) Street() int {
	n := 3
	if c.Turn.Valid() {
		n = 4
	}
	if c.River.Valid() {
		n = 5
	}
	return n
}
