// Package config loads the solver's external configuration file, per
// spec.md §6: a structured object with two fields, card_config and
// tree_config, using the exact two-character card encoding, comma-
// separated bet-size menus, and range shorthand described there. The wire
// shape is dictated character-for-character by the spec, leaving no room
// for a config library like the teacher's hashicorp/hcl/v2 to fill without
// producing an incompatible format, so this package is stdlib
// encoding/json only (see DESIGN.md).
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lox/postflop-solver/internal/betsize"
	"github.com/lox/postflop-solver/internal/cards"
	"github.com/lox/postflop-solver/internal/solverr"
	"github.com/lox/postflop-solver/internal/tree"
)

// File is the on-disk JSON shape of a solver config file.
type File struct {
	CardConfig CardConfigFile `json:"card_config"`
	TreeConfig TreeConfigFile `json:"tree_config"`
}

// CardConfigFile is card_config's wire shape: two range shorthand strings
// and the board, each street a two-character-card concatenation (or
// "NOT_DEALT" for turn/river when absent).
type CardConfigFile struct {
	OOPRange string `json:"oop_range"`
	IPRange  string `json:"ip_range"`
	Flop     string `json:"flop"`
	Turn     string `json:"turn"`
	River    string `json:"river"`
}

// StreetMenuFile is one player's bet/raise/donk menu for one street, each a
// comma-separated bet-size grammar string (spec.md §4.1/§6).
type StreetMenuFile struct {
	Bets   string `json:"bets"`
	Raises string `json:"raises"`
	Donks  string `json:"donks"`
}

// TreeConfigFile is tree_config's wire shape. Menus are keyed by street
// number as a JSON object key ("3", "4", "5").
type TreeConfigFile struct {
	Pot                 float64                   `json:"pot"`
	EffectiveStack      float64                   `json:"effective_stack"`
	RakeRate            float64                   `json:"rake_rate"`
	RakeCap             float64                   `json:"rake_cap"`
	AddAllinThreshold   float64                   `json:"add_allin_threshold"`
	ForceAllinThreshold float64                   `json:"force_allin_threshold"`
	MergingThreshold    float64                   `json:"merging_threshold"`
	OOPMenus            map[string]StreetMenuFile `json:"oop_menus"`
	IPMenus             map[string]StreetMenuFile `json:"ip_menus"`
}

// Load reads and parses a config file from path into the solver's native
// CardConfig/TreeConfig types, validating both before returning.
func Load(path string) (*cards.CardConfig, *tree.TreeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, solverr.Wrap(solverr.ConfigurationInvalid, "reading config file", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, solverr.Wrap(solverr.ConfigurationInvalid, "parsing config JSON", err)
	}
	return Decode(&f)
}

// Decode converts a parsed File into the solver's native config types.
func Decode(f *File) (*cards.CardConfig, *tree.TreeConfig, error) {
	cc, err := decodeCardConfig(&f.CardConfig)
	if err != nil {
		return nil, nil, err
	}
	tc, err := decodeTreeConfig(&f.TreeConfig, cc.Street())
	if err != nil {
		return nil, nil, err
	}
	if err := cc.Validate(); err != nil {
		return nil, nil, err
	}
	if err := tc.Validate(); err != nil {
		return nil, nil, err
	}
	return cc, tc, nil
}

func decodeCardConfig(f *CardConfigFile) (*cards.CardConfig, error) {
	oop, err := cards.ParseRange(f.OOPRange)
	if err != nil {
		return nil, solverr.Wrap(solverr.RangeParseFailed, "oop_range", err)
	}
	ip, err := cards.ParseRange(f.IPRange)
	if err != nil {
		return nil, solverr.Wrap(solverr.RangeParseFailed, "ip_range", err)
	}
	flop, err := cards.ParseBoard(f.Flop)
	if err != nil {
		return nil, solverr.Wrap(solverr.ConfigurationInvalid, "flop", err)
	}
	if len(flop) != 3 {
		return nil, solverr.New(solverr.ConfigurationInvalid, "flop must have exactly three cards")
	}
	turn, err := parseOptionalCard(f.Turn)
	if err != nil {
		return nil, solverr.Wrap(solverr.ConfigurationInvalid, "turn", err)
	}
	river, err := parseOptionalCard(f.River)
	if err != nil {
		return nil, solverr.Wrap(solverr.ConfigurationInvalid, "river", err)
	}
	return &cards.CardConfig{
		Ranges: [2]*cards.Range{oop, ip},
		Flop:   [3]cards.Card{flop[0], flop[1], flop[2]},
		Turn:   turn,
		River:  river,
	}, nil
}

func parseOptionalCard(s string) (cards.Card, error) {
	if s == "" {
		return cards.NotDealt, nil
	}
	return cards.ParseCard(s)
}

func decodeTreeConfig(f *TreeConfigFile, startStreet int) (*tree.TreeConfig, error) {
	tc := &tree.TreeConfig{
		StartStreet:         startStreet,
		Pot:                 f.Pot,
		EffectiveStack:      f.EffectiveStack,
		RakeRate:            f.RakeRate,
		RakeCap:             f.RakeCap,
		AddAllinThreshold:   f.AddAllinThreshold,
		ForceAllinThreshold: f.ForceAllinThreshold,
		MergingThreshold:    f.MergingThreshold,
	}
	oopMenus, err := decodeMenus(f.OOPMenus)
	if err != nil {
		return nil, err
	}
	ipMenus, err := decodeMenus(f.IPMenus)
	if err != nil {
		return nil, err
	}
	tc.Menus = [2]map[int]tree.StreetMenu{oopMenus, ipMenus}
	return tc, nil
}

func decodeMenus(menus map[string]StreetMenuFile) (map[int]tree.StreetMenu, error) {
	if len(menus) == 0 {
		return nil, nil
	}
	out := make(map[int]tree.StreetMenu, len(menus))
	for streetStr, m := range menus {
		street, err := parseStreet(streetStr)
		if err != nil {
			return nil, err
		}
		bets, err := betsize.ParseMenu(m.Bets)
		if err != nil {
			return nil, err
		}
		raises, err := betsize.ParseMenu(m.Raises)
		if err != nil {
			return nil, err
		}
		donks, err := betsize.ParseMenu(m.Donks)
		if err != nil {
			return nil, err
		}
		out[street] = tree.StreetMenu{Bets: bets, Raises: raises, Donks: donks}
	}
	return out, nil
}

func parseStreet(s string) (int, error) {
	switch s {
	case "3", "flop":
		return 3, nil
	case "4", "turn":
		return 4, nil
	case "5", "river":
		return 5, nil
	default:
		return 0, solverr.New(solverr.ConfigurationInvalid, fmt.Sprintf("unrecognized street key %q", s))
	}
}
