package evaluator

import (
	"testing"

	"github.com/lox/postflop-solver/internal/cards"
)

func mustCard(t *testing.T, s string) cards.Card {
	t.Helper()
	c, err := cards.ParseCard(s)
	if err != nil {
		t.Fatalf("ParseCard(%q): %v", s, err)
	}
	return c
}

func board5(t *testing.T, s string) [5]cards.Card {
	t.Helper()
	bs, err := cards.ParseBoard(s)
	if err != nil || len(bs) != 5 {
		t.Fatalf("ParseBoard(%q): %v", s, err)
	}
	return [5]cards.Card{bs[0], bs[1], bs[2], bs[3], bs[4]}
}

func TestEvaluate7Categories(t *testing.T) {
	cases := []struct {
		name     string
		hole0    string
		hole1    string
		board    string
		category HandRank
	}{
		{"quads", "2c", "2d", "2h2s5c9dKc", FourOfAKind},
		{"full house", "As", "Ad", "AhKsKdKc2c", FullHouse},
		{"flush", "2h", "9h", "3h7hJh5c8d", Flush},
		{"straight", "5c", "6d", "7h8s9c2d3d", Straight},
		{"trips", "2c", "2d", "2h9s5cKdQc", ThreeOfAKind},
		{"two pair", "2c", "9d", "2h9s5cKdQc", TwoPair},
		{"pair", "2c", "7d", "2h9s5cKdQc", Pair},
		{"high card", "2c", "7d", "3h9s5cKdQc", HighCard},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rank := Evaluate7(mustCard(t, tc.hole0), mustCard(t, tc.hole1), board5(t, tc.board))
			if rank.Category() != tc.category {
				t.Fatalf("got category %v, want %v", rank.Category(), tc.category)
			}
		})
	}
}

func TestEvaluate7TotalOrder(t *testing.T) {
	board := board5(t, "2h7s9dJcKd")
	aces := Evaluate7(mustCard(t, "Ah"), mustCard(t, "Ad"), board)
	kings := Evaluate7(mustCard(t, "Kh"), mustCard(t, "Ks"), board)
	if !(aces > kings) {
		t.Fatalf("pocket aces should beat pocket kings on this board")
	}
}

func TestEvaluate7WheelStraight(t *testing.T) {
	rank := Evaluate7(mustCard(t, "Ah"), mustCard(t, "2d"), board5(t, "3h4s5c9dKc"))
	if rank.Category() != Straight {
		t.Fatalf("expected wheel straight, got %v", rank.Category())
	}
}

func TestEvaluate7NoCollisionAcrossCategories(t *testing.T) {
	board := board5(t, "2h7s9dJcKd")
	pair := Evaluate7(mustCard(t, "2c"), mustCard(t, "7d"), board)
	straight := Evaluate7(mustCard(t, "8h"), mustCard(t, "Th"), board)
	if !(straight > pair) {
		t.Fatalf("straight must outrank pair regardless of kicker bits")
	}
}
