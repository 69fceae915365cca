package tree

// NodeKind classifies an action-tree node per spec §3.
type NodeKind uint8

const (
	PlayerNode NodeKind = iota
	ChanceNode
	TerminalNode
)

func (k NodeKind) String() string {
	switch k {
	case PlayerNode:
		return "Player"
	case ChanceNode:
		return "Chance"
	case TerminalNode:
		return "Terminal"
	default:
		return "Unknown"
	}
}

// TerminalKind distinguishes the two ways a hand can end.
type TerminalKind uint8

const (
	FoldWin TerminalKind = iota
	Showdown
)

// Node is a single action-tree node. Player nodes carry one child per
// Actions entry, in the same order. Chance nodes carry exactly one child:
// the action subtree for the next street, built fresh with no pending bet.
// The game tree (internal/gametree) is what couples a Chance node with the
// actual set of possible next cards; this package never enumerates cards.
type Node struct {
	Kind NodeKind

	// Player-node fields.
	Player   int // 0 (OOP) or 1 (IP)
	Actions  []Action
	Children []*Node // parallel to Actions for PlayerNode

	// Chance-node field.
	Next *Node

	// Terminal-node fields.
	Terminal    TerminalKind
	FoldWinner  int // player index, valid when Terminal == FoldWin

	// State shared by every node kind.
	Street int // 3 (flop), 4 (turn), 5 (river)
	Pot    float64
	Stacks [2]float64

	// RakeRate/RakeCap mirror the TreeConfig that built this tree, so the
	// terminal evaluator can compute rake without threading TreeConfig
	// through the game tree separately.
	RakeRate float64
	RakeCap  float64
}

// IsTerminal reports whether n ends the hand.
func (n *Node) IsTerminal() bool {
	return n.Kind == TerminalNode
}

// IsChance reports whether n awaits the next board card.
func (n *Node) IsChance() bool {
	return n.Kind == ChanceNode
}

// CountNodes returns the number of nodes in the subtree rooted at n,
// counting n itself.
func (n *Node) CountNodes() int {
	if n == nil {
		return 0
	}
	count := 1
	for _, c := range n.Children {
		count += c.CountNodes()
	}
	count += n.Next.CountNodes()
	return count
}
