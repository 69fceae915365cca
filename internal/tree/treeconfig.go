package tree

import (
	"github.com/lox/postflop-solver/internal/betsize"
	"github.com/lox/postflop-solver/internal/solverr"
)

// StreetMenu holds the bet/raise/donk size menus for one player on one
// street.
type StreetMenu struct {
	Bets   []betsize.BetSize // opening bets, used when facing no bet
	Raises []betsize.BetSize // raises, used when facing a bet
	Donks  []betsize.BetSize // opening bets when OOP leads a new non-flop street; nil means "use Bets"
}

// TreeConfig is the betting-side configuration from spec §3's TreeConfig:
// everything the action tree needs that isn't range/equity data. Board
// knowledge here is only the street count the tree starts at; the actual
// dealt cards belong to cards.CardConfig and are only consulted once the
// action tree is coupled into a game tree.
type TreeConfig struct {
	StartStreet    int // 3, 4, or 5: which street the root begins on
	Pot            float64
	EffectiveStack float64

	RakeRate float64
	RakeCap  float64

	// Menus[player][street] gives that player's menu on that street.
	// Player 0 is OOP, player 1 is IP. Street indices are 3, 4, 5.
	Menus [2]map[int]StreetMenu

	AddAllinThreshold   float64 // 0 disables
	ForceAllinThreshold float64 // 0 disables
	MergingThreshold    float64 // 0 disables merging
}

// Validate checks the structural invariants of spec §3 and §7.
func (tc *TreeConfig) Validate() error {
	if tc.StartStreet < 3 || tc.StartStreet > 5 {
		return solverr.New(solverr.ConfigurationInvalid, "start street must be 3 (flop), 4 (turn), or 5 (river)")
	}
	if tc.Pot <= 0 {
		return solverr.New(solverr.ConfigurationInvalid, "pot must be positive")
	}
	if tc.EffectiveStack < 0 {
		return solverr.New(solverr.ConfigurationInvalid, "effective stack must be non-negative")
	}
	if tc.RakeRate < 0 || tc.RakeRate > 1 {
		return solverr.New(solverr.ConfigurationInvalid, "rake rate must be in [0,1]")
	}
	if tc.RakeCap < 0 {
		return solverr.New(solverr.ConfigurationInvalid, "rake cap must be non-negative")
	}
	return nil
}

// menuFor resolves the menu a player uses for a street, defaulting to an
// empty menu when unconfigured.
func (tc *TreeConfig) menuFor(player, street int) StreetMenu {
	if tc.Menus[player] == nil {
		return StreetMenu{}
	}
	return tc.Menus[player][street]
}
