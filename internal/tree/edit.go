package tree

import "github.com/lox/postflop-solver/internal/solverr"

// AddAction appends a new action/child pair to a player node, used for
// post-construction edits before the tree is coupled into a game tree
// (spec §3's ActionTree lifecycle). The caller supplies the already-built
// subtree for the new action.
func AddAction(n *Node, action Action, child *Node) error {
	if n.Kind != PlayerNode {
		return solverr.New(solverr.ActionTreeInconsistent, "cannot add an action to a non-player node")
	}
	for _, existing := range n.Actions {
		if existing == action {
			return solverr.New(solverr.ActionTreeInconsistent, "duplicate action in menu: "+action.String())
		}
	}
	n.Actions = append(n.Actions, action)
	n.Children = append(n.Children, child)
	return nil
}

// RemoveAction removes the action at index i (and its child subtree) from
// a player node.
func RemoveAction(n *Node, i int) error {
	if n.Kind != PlayerNode {
		return solverr.New(solverr.ActionTreeInconsistent, "cannot remove an action from a non-player node")
	}
	if i < 0 || i >= len(n.Actions) {
		return solverr.New(solverr.NavigationInvalid, "action index out of range")
	}
	n.Actions = append(n.Actions[:i], n.Actions[i+1:]...)
	n.Children = append(n.Children[:i], n.Children[i+1:]...)
	return nil
}
