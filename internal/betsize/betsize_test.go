package betsize

import "testing"

func TestParsePotFraction(t *testing.T) {
	bs, err := Parse("75%")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bs.Kind != PotFraction || bs.Fraction != 0.75 {
		t.Fatalf("got %+v", bs)
	}
}

func TestParsePrevBetMultiplier(t *testing.T) {
	bs, err := Parse("2.5x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bs.Kind != PrevBetMultiplier || bs.Fraction != 2.5 {
		t.Fatalf("got %+v", bs)
	}

	if _, err := Parse("1x"); err == nil {
		t.Fatalf("expected error for multiplier <= 1")
	}
}

func TestParseAdditive(t *testing.T) {
	bs, err := Parse("50c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bs.Kind != Additive || bs.Constant != 50 || bs.RaiseCap != 0 {
		t.Fatalf("got %+v", bs)
	}

	bs, err = Parse("50c3r")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bs.Constant != 50 || bs.RaiseCap != 3 {
		t.Fatalf("got %+v", bs)
	}
}

func TestParseGeometric(t *testing.T) {
	bs, err := Parse("2e150%")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bs.Kind != Geometric || bs.Streets != 2 || bs.Ceiling != 1.5 {
		t.Fatalf("got %+v", bs)
	}

	bs, err = Parse("e%")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bs.Streets != 0 || bs.Ceiling != 1 {
		t.Fatalf("got %+v", bs)
	}
}

func TestParseAllIn(t *testing.T) {
	bs, err := Parse("a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bs.Kind != AllIn {
		t.Fatalf("got %+v", bs)
	}
}

func TestParseMalformedToken(t *testing.T) {
	cases := []string{"", "xx%", "foo", "50cz", "-5c"}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Fatalf("expected error parsing %q", c)
		}
	}
}

func TestParseMenu(t *testing.T) {
	menu, err := ParseMenu("33%, 75%, a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(menu) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(menu))
	}
	if menu[2].Kind != AllIn {
		t.Fatalf("expected last entry to be all-in, got %+v", menu[2])
	}
}

func TestResolvePotFractionIncludesFacingBet(t *testing.T) {
	bs := BetSize{Kind: PotFraction, Fraction: 1.0}
	got := bs.Resolve(100, 0, 1000, 1)
	if got != 100 {
		t.Fatalf("expected pot-sized bet of 100, got %v", got)
	}

	got = bs.Resolve(100, 50, 1000, 1)
	if got != 200 {
		t.Fatalf("expected pot-sized raise of 200 (pot+2x facing bet), got %v", got)
	}
}

func TestResolveAllInUsesRemainingStack(t *testing.T) {
	bs := BetSize{Kind: AllIn}
	if got := bs.Resolve(100, 0, 250, 1); got != 250 {
		t.Fatalf("expected 250, got %v", got)
	}
}

func TestResolveGeometricCapsAtStack(t *testing.T) {
	bs := BetSize{Kind: Geometric, Streets: 1, Ceiling: 10}
	got := bs.Resolve(10, 0, 5, 1)
	if got != 5 {
		t.Fatalf("expected geometric bet capped at remaining stack (5), got %v", got)
	}
}
