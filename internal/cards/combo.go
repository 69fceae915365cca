package cards

// NumCombos is the number of unordered two-card hole combinations from a
// 52-card deck: C(52,2) = 1326.
const NumCombos = 1326

// Combo is an unordered pair of hole cards.
type Combo struct {
	Lo, Hi Card // Lo < Hi, canonical order
}

var (
	comboIndexTable [52][52]int16
	comboTable      [NumCombos]Combo
)

func init() {
	for i := range comboIndexTable {
		for j := range comboIndexTable[i] {
			comboIndexTable[i][j] = -1
		}
	}
	idx := 0
	for a := uint8(0); a < 52; a++ {
		for b := a + 1; b < 52; b++ {
			comboTable[idx] = Combo{Lo: Card(a), Hi: Card(b)}
			comboIndexTable[a][b] = int16(idx)
			comboIndexTable[b][a] = int16(idx)
			idx++
		}
	}
}

// ComboIndex returns the canonical [0,1326) index for the unordered pair
// (a,b). Panics if a==b or either card is invalid; callers are expected to
// have validated inputs already (hole cards come from enumeration, never
// from unchecked user input at this layer).
func ComboIndex(a, b Card) int {
	if !a.Valid() || !b.Valid() || a == b {
		panic("cards: invalid combo")
	}
	return int(comboIndexTable[a][b])
}

// ComboAt returns the Combo for a canonical index in [0,1326).
func ComboAt(index int) Combo {
	return comboTable[index]
}

// ComboIndexOfHand returns the canonical combo index of a two-card Hand
// mask, used by isomorphism detection to reindex a combo after a suit
// swap.
func ComboIndexOfHand(h Hand) int {
	var cs [2]Card
	n := 0
	for v := uint8(0); v < 52 && n < 2; v++ {
		c := Card(v)
		if h.Has(c) {
			cs[n] = c
			n++
		}
	}
	return ComboIndex(cs[0], cs[1])
}

// Hand returns the two-card bitmask for the combo.
func (c Combo) Hand() Hand {
	return HandFromCards(c.Lo, c.Hi)
}

// String renders the combo as two concatenated card strings, e.g. "AhKh".
func (c Combo) String() string {
	return c.Lo.String() + c.Hi.String()
}
