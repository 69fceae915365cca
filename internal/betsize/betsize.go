// Package betsize parses the textual bet/raise size grammar of spec §4.1
// and §6 and resolves a parsed size against a live pot/stack state into a
// chip amount. Grounded on the teacher's config-parsing style in
// sdk/solver/config.go (plain strconv-based tokenizers returning
// *solverr.Error on malformed input) and the geometric growth math in
// ehrlich-b-poker's pkg/tree/geometric.go, generalized from a dedicated
// struct into one case of this package's tagged union.
package betsize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lox/postflop-solver/internal/solverr"
)

// Kind tags the five bet-size forms the grammar in spec §6 accepts.
type Kind uint8

const (
	// PotFraction is "<num>%": a fraction of the current pot.
	PotFraction Kind = iota
	// PrevBetMultiplier is "<num>x": a multiplier (>1) of the bet being
	// raised.
	PrevBetMultiplier
	// Additive is "<int>c" or "<int>c<int>r": a flat chip amount,
	// optionally capped to a maximum number of raises on the street.
	Additive
	// Geometric is "<int>?e<num>?%?": geometric pot growth toward a
	// pot-relative ceiling over a number of remaining streets.
	Geometric
	// AllIn is the literal "a".
	AllIn
)

// BetSize is a parsed, unresolved bet/raise size specification.
type BetSize struct {
	Kind Kind

	// Fraction holds the PotFraction fraction or the PrevBetMultiplier
	// multiplier.
	Fraction float64

	// Constant holds the Additive flat chip amount.
	Constant int
	// RaiseCap is the Additive form's maximum raise count; zero means
	// uncapped.
	RaiseCap int

	// Streets is the Geometric form's remaining-streets count; zero
	// means "to the river from here", resolved by the caller.
	Streets int
	// Ceiling is the Geometric form's pot-relative target, e.g. 1.5 for
	// "150%".
	Ceiling float64
}

// Parse parses a single bet-size token.
func Parse(tok string) (BetSize, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return BetSize{}, solverr.New(solverr.ConfigurationInvalid, "empty bet-size token")
	}
	if tok == "a" {
		return BetSize{Kind: AllIn}, nil
	}
	if i := strings.IndexByte(tok, 'e'); i >= 0 {
		return parseGeometric(tok, i)
	}
	if strings.HasSuffix(tok, "%") {
		frac, err := parseFloatFraction(strings.TrimSuffix(tok, "%"))
		if err != nil {
			return BetSize{}, badToken(tok, err)
		}
		return BetSize{Kind: PotFraction, Fraction: frac}, nil
	}
	if strings.HasSuffix(tok, "x") {
		mult, err := strconv.ParseFloat(strings.TrimSuffix(tok, "x"), 64)
		if err != nil {
			return BetSize{}, badToken(tok, err)
		}
		if mult <= 1 {
			return BetSize{}, solverr.New(solverr.ConfigurationInvalid, fmt.Sprintf("bet-size %q: multiplier must exceed 1", tok))
		}
		return BetSize{Kind: PrevBetMultiplier, Fraction: mult}, nil
	}
	if i := strings.IndexByte(tok, 'c'); i >= 0 {
		return parseAdditive(tok, i)
	}
	return BetSize{}, solverr.New(solverr.ConfigurationInvalid, fmt.Sprintf("unrecognized bet-size token %q", tok))
}

// parseAdditive parses "<int>c" or "<int>c<int>r".
func parseAdditive(tok string, cIdx int) (BetSize, error) {
	amount, err := strconv.Atoi(tok[:cIdx])
	if err != nil {
		return BetSize{}, badToken(tok, err)
	}
	if amount <= 0 {
		return BetSize{}, solverr.New(solverr.ConfigurationInvalid, fmt.Sprintf("bet-size %q: amount must be positive", tok))
	}
	rest := tok[cIdx+1:]
	if rest == "" {
		return BetSize{Kind: Additive, Constant: amount}, nil
	}
	if !strings.HasSuffix(rest, "r") {
		return BetSize{}, solverr.New(solverr.ConfigurationInvalid, fmt.Sprintf("unrecognized bet-size token %q", tok))
	}
	cap, err := strconv.Atoi(strings.TrimSuffix(rest, "r"))
	if err != nil || cap <= 0 {
		return BetSize{}, solverr.New(solverr.ConfigurationInvalid, fmt.Sprintf("bet-size %q: invalid raise cap", tok))
	}
	return BetSize{Kind: Additive, Constant: amount, RaiseCap: cap}, nil
}

// parseGeometric parses "<int>?e<num>?%?": an optional leading street
// count, the literal 'e', and an optional pot-relative ceiling.
func parseGeometric(tok string, eIdx int) (BetSize, error) {
	var streets int
	if eIdx > 0 {
		n, err := strconv.Atoi(tok[:eIdx])
		if err != nil {
			return BetSize{}, badToken(tok, err)
		}
		streets = n
	}
	rest := strings.TrimSuffix(tok[eIdx+1:], "%")
	ceiling := 1.0
	if rest != "" {
		frac, err := parseFloatFraction(rest)
		if err != nil {
			return BetSize{}, badToken(tok, err)
		}
		ceiling = frac
	}
	if streets < 0 {
		return BetSize{}, solverr.New(solverr.ConfigurationInvalid, fmt.Sprintf("bet-size %q: negative street count", tok))
	}
	return BetSize{Kind: Geometric, Streets: streets, Ceiling: ceiling}, nil
}

func parseFloatFraction(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return v / 100, nil
}

func badToken(tok string, cause error) error {
	return solverr.Wrap(solverr.ConfigurationInvalid, fmt.Sprintf("malformed bet-size token %q", tok), cause)
}

// ParseMenu parses a comma-separated menu of bet-size tokens.
func ParseMenu(spec string) ([]BetSize, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	var out []BetSize
	for _, tok := range strings.Split(spec, ",") {
		bs, err := Parse(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, bs)
	}
	return out, nil
}

// Resolve converts a parsed BetSize into a chip amount given the current
// pot, the bet being raised (zero if this is an opening bet), and the
// remaining effective stack. streetsRemaining is consulted only for the
// Geometric form when the size itself didn't specify a street count.
func (b BetSize) Resolve(pot, facingBet, remainingStack float64, streetsRemaining int) float64 {
	switch b.Kind {
	case PotFraction:
		return b.Fraction * (pot + 2*facingBet)
	case PrevBetMultiplier:
		return b.Fraction * facingBet
	case Additive:
		return float64(b.Constant)
	case Geometric:
		streets := b.Streets
		if streets <= 0 {
			streets = streetsRemaining
		}
		if streets <= 0 {
			streets = 1
		}
		return geometricBetSize(pot, b.Ceiling, streets, remainingStack)
	case AllIn:
		return remainingStack
	default:
		return 0
	}
}

// geometricBetSize returns the chip amount of the bet that, bet and called
// as the same fraction of pot on each of the given number of remaining
// streets, grows the pot geometrically to ceiling*pot, capped at the
// remaining stack.
// Grounded on ehrlich-b-poker's GeometricSizing.CalculateBetSize.
func geometricBetSize(pot, ceiling float64, streets int, remainingStack float64) float64 {
	if pot <= 0 || streets <= 0 {
		return 0
	}
	targetPot := ceiling * pot
	growth := math.Pow(targetPot/pot, 1.0/float64(streets))
	betFraction := (growth - 1.0) / 2.0
	bet := betFraction * pot
	if bet > remainingStack {
		bet = remainingStack
	}
	if bet < 0 {
		bet = 0
	}
	return bet
}

// String renders b back into its canonical token form.
func (b BetSize) String() string {
	switch b.Kind {
	case PotFraction:
		return fmt.Sprintf("%g%%", b.Fraction*100)
	case PrevBetMultiplier:
		return fmt.Sprintf("%gx", b.Fraction)
	case Additive:
		if b.RaiseCap > 0 {
			return fmt.Sprintf("%dc%dr", b.Constant, b.RaiseCap)
		}
		return fmt.Sprintf("%dc", b.Constant)
	case Geometric:
		if b.Streets > 0 {
			return fmt.Sprintf("%de%g%%", b.Streets, b.Ceiling*100)
		}
		return fmt.Sprintf("e%g%%", b.Ceiling*100)
	case AllIn:
		return "a"
	default:
		return "?"
	}
}
