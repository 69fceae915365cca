// Package tree builds the action tree of spec §4.1: the bet/raise/check/
// call/fold transition structure for a betting configuration, independent
// of any particular board runout or hole cards. Grounded structurally on
// ehrlich-b-poker's pkg/tree (TreeNode/Builder shape, notation.Action) but
// reworked around this module's betsize.BetSize menus and the merge/
// add-allin/force-allin threshold rules spec.md adds on top of that
// reference.
package tree

import (
	"fmt"

	"github.com/lox/postflop-solver/internal/cards"
)

// ActionKind distinguishes the edge types spec §3's ActionTree allows.
type ActionKind uint8

const (
	Check ActionKind = iota
	Fold
	Call
	Bet
	Raise
	AllIn
	ChanceCard
)

func (k ActionKind) String() string {
	switch k {
	case Check:
		return "Check"
	case Fold:
		return "Fold"
	case Call:
		return "Call"
	case Bet:
		return "Bet"
	case Raise:
		return "Raise"
	case AllIn:
		return "AllIn"
	case ChanceCard:
		return "ChanceCard"
	default:
		return "Unknown"
	}
}

// Action is a single action-tree edge label.
type Action struct {
	Kind   ActionKind
	Amount float64    // chip amount, for Bet/Raise/AllIn
	Card   cards.Card // dealt card, for ChanceCard
}

func (a Action) String() string {
	switch a.Kind {
	case Bet, Raise, AllIn:
		return fmt.Sprintf("%s(%.0f)", a.Kind, a.Amount)
	case ChanceCard:
		return fmt.Sprintf("ChanceCard(%s)", a.Card)
	default:
		return a.Kind.String()
	}
}
