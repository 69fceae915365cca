package gametree

import "github.com/lox/postflop-solver/internal/cards"

// ValidIndices returns the combo indices of r still consistent with board:
// no shared card. Used to restrict the solver's per-hand loops to live
// combos only (spec §4.2).
func ValidIndices(r *cards.Range, board cards.Hand) []int16 {
	var out []int16
	for _, idx := range r.Combos() {
		if cards.ComboAt(idx).Hand().Overlaps(board) {
			continue
		}
		out = append(out, int16(idx))
	}
	return out
}
