package gametree

import (
	"github.com/lox/postflop-solver/internal/cards"
	"github.com/lox/postflop-solver/internal/solverr"
	"github.com/lox/postflop-solver/internal/storage"
	"github.com/lox/postflop-solver/internal/tree"
)

// GameNode couples one action-tree node with the hole-combo indices live
// at that point and, for player nodes, its storage layout.
type GameNode struct {
	Action *tree.Node

	// ValidIndices[p] lists the combo indices of player p's range still
	// consistent with the board at this node.
	ValidIndices [2][]int16

	// Layout is non-nil only for PlayerNode action nodes.
	Layout *storage.NodeLayout

	// Children mirrors Action.Children for PlayerNode, is a single
	// representative-keyed map for ChanceNode, and is empty for
	// terminals.
	Children map[string]*GameNode

	// Isomorphism is non-nil only for chance nodes.
	Isomorphism *IsomorphismTable

	// Board holds every card known at this node (flop/turn/river so far).
	Board []cards.Card

	// StrengthTables is non-nil only for showdown terminal nodes: the
	// sentinel-bracketed, sorted hand-strength table per player against
	// the complete five-card board, per spec §4.5.
	StrengthTables [2][]StrengthEntry
}

// GameTree is the coupling of an action tree with CardConfig's ranges and
// board, per spec §3/§4.2.
type GameTree struct {
	Config    *cards.CardConfig
	Root      *GameNode
	Allocator *storage.Allocator
}

// Build couples actionRoot (from internal/tree.Build) with cfg into a
// GameTree, precomputing valid-index sets, building the sorted strength
// tables of every showdown terminal on a complete five-card board, and
// reserving storage layouts for every player node.
func Build(actionRoot *tree.Node, cfg *cards.CardConfig, mode storage.Mode) (*GameTree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	expectedStreet := actionRoot.Street
	if cfg.Street() != expectedStreet {
		return nil, solverr.New(solverr.ActionTreeInconsistent,
			"action tree's starting street does not match the card configuration's dealt board")
	}

	alloc := storage.NewAllocator(mode)
	board := cfg.Board()
	root, err := coupleNode(actionRoot, cfg, board, alloc)
	if err != nil {
		return nil, err
	}
	return &GameTree{Config: cfg, Root: root, Allocator: alloc}, nil
}

func coupleNode(n *tree.Node, cfg *cards.CardConfig, board []cards.Card, alloc *storage.Allocator) (*GameNode, error) {
	boardHand := cards.HandFromCards(board...)
	gn := &GameNode{
		Action: n,
		Board:  append([]cards.Card(nil), board...),
	}
	gn.ValidIndices[0] = ValidIndices(cfg.Ranges[0], boardHand)
	gn.ValidIndices[1] = ValidIndices(cfg.Ranges[1], boardHand)

	switch n.Kind {
	case tree.TerminalNode:
		if n.Terminal == tree.Showdown && len(board) == 5 {
			var board5 [5]cards.Card
			copy(board5[:], board)
			gn.StrengthTables[0] = BuildStrengthTable(cfg.Ranges[0], board5)
			gn.StrengthTables[1] = BuildStrengthTable(cfg.Ranges[1], board5)
		}
		return gn, nil

	case tree.ChanceNode:
		table := BuildIsomorphismTable(cfg, boardHand)
		gn.Isomorphism = table
		gn.Children = make(map[string]*GameNode, len(table.Representatives))
		for _, rep := range table.Representatives {
			childBoard := append(append([]cards.Card(nil), board...), rep)
			child, err := coupleNode(n.Next, cfg, childBoard, alloc)
			if err != nil {
				return nil, err
			}
			gn.Children[rep.String()] = child
		}
		return gn, nil

	default: // PlayerNode
		handCount := len(gn.ValidIndices[n.Player])
		gn.Layout = alloc.Reserve(len(n.Actions), handCount)
		gn.Children = make(map[string]*GameNode, len(n.Children))
		for i, child := range n.Children {
			key := n.Actions[i].String()
			cn, err := coupleNode(child, cfg, board, alloc)
			if err != nil {
				return nil, err
			}
			gn.Children[key] = cn
		}
		return gn, nil
	}
}

// EstimatedBytes reports the byte size Allocate will need.
func (g *GameTree) EstimatedBytes() int64 {
	return g.Allocator.EstimatedBytes()
}

// Allocate builds the storage arenas for g. maxBytes, if nonzero, refuses
// the allocation when it would exceed the budget (InsufficientMemory).
func (g *GameTree) Allocate(maxBytes int64) (*storage.Arena, error) {
	return g.Allocator.Build(maxBytes)
}
