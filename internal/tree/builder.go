package tree

import (
	"math"
	"sort"

	"github.com/lox/postflop-solver/internal/betsize"
	"github.com/lox/postflop-solver/internal/solverr"
)

// streetState is the recursion state threaded through construction. It is
// never exposed on Node; Node stores only what navigation and the solver
// need.
type streetState struct {
	street           int
	pot              float64
	stacks           [2]float64 // remaining behind, per player
	committed        [2]float64 // committed this street, per player
	actor            int
	raisesThisStreet int
	lastIncrement    float64 // size of the last bet/raise, for min-raise clamping
	firstActionOfStreet bool // true only for player 0's very first action of a non-flop street
}

// minBetUnit is the clamp floor used when no previous bet/raise increment
// exists on the street, standing in for spec §4.1's "big-blind equivalent".
const minBetUnit = 1.0

// Build constructs the action tree described by tc, per spec §4.1.
func Build(tc *TreeConfig) (*Node, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	st := streetState{
		street: tc.StartStreet,
		pot:    tc.Pot,
		stacks: [2]float64{tc.EffectiveStack, tc.EffectiveStack},
	}
	return buildPlayerNode(tc, st)
}

func buildPlayerNode(tc *TreeConfig, st streetState) (*Node, error) {
	if st.stacks[0] <= 0 || st.stacks[1] <= 0 {
		// One side is already all-in; no more betting is possible this
		// hand. Run the remaining streets as pure chance down to showdown.
		return buildRunout(tc, st)
	}

	facingBet := st.committed[1-st.actor] - st.committed[st.actor]
	node := &Node{
		Kind:   PlayerNode,
		Player: st.actor,
		Street: st.street,
		Pot:    st.pot + st.committed[0] + st.committed[1],
		Stacks: st.stacks,
	}

	if facingBet > 0 {
		return buildFacingBet(tc, st, node, facingBet)
	}
	return buildFacingCheck(tc, st, node)
}

func buildFacingCheck(tc *TreeConfig, st streetState, node *Node) (*Node, error) {
	node.Actions = append(node.Actions, Action{Kind: Check})
	if st.actor == 0 {
		next := st
		next.actor = 1
		next.firstActionOfStreet = false
		child, err := buildPlayerNode(tc, next)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	} else {
		child, err := closeStreet(tc, st)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}

	menu := betMenu(tc, st)
	amounts, err := resolveBettingMenu(tc, menu, st, 0)
	if err != nil {
		return nil, err
	}
	for _, amt := range amounts {
		action, child, err := betOrAllIn(tc, st, amt, Bet)
		if err != nil {
			return nil, err
		}
		node.Actions = append(node.Actions, action)
		node.Children = append(node.Children, child)
	}
	return node, nil
}

func buildFacingBet(tc *TreeConfig, st streetState, node *Node, facingBet float64) (*Node, error) {
	node.Actions = append(node.Actions, Action{Kind: Fold})
	node.Children = append(node.Children, terminalFold(tc, st, 1-st.actor))

	node.Actions = append(node.Actions, Action{Kind: Call})
	callChild, err := resolveCall(tc, st, facingBet)
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, callChild)

	menu := raiseMenu(tc, st)
	increments, err := resolveBettingMenu(tc, menu, st, facingBet)
	if err != nil {
		return nil, err
	}
	for _, inc := range increments {
		raiseTo := facingBet + inc
		action, child, err := betOrAllIn(tc, st, raiseTo, Raise)
		if err != nil {
			return nil, err
		}
		node.Actions = append(node.Actions, action)
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// betOrAllIn builds the child reached by committing amt more chips this
// street (a bet amount when facing no bet; the call amount plus the raise
// increment when facing one), reclassifying as AllIn when the commitment
// exhausts the stack.
func betOrAllIn(tc *TreeConfig, st streetState, amt float64, kind ActionKind) (Action, *Node, error) {
	if amt >= st.stacks[st.actor] {
		amt = st.stacks[st.actor]
		kind = AllIn
	}
	next := st
	delta := amt
	next.pot += delta
	next.stacks[st.actor] -= delta
	next.committed[st.actor] += amt
	next.lastIncrement = delta
	if kind != AllIn {
		next.raisesThisStreet++
	}
	next.actor = 1 - st.actor
	next.firstActionOfStreet = false
	child, err := buildPlayerNode(tc, next)
	if err != nil {
		return Action{}, nil, err
	}
	return Action{Kind: kind, Amount: amt}, child, nil
}

func resolveCall(tc *TreeConfig, st streetState, facingBet float64) (*Node, error) {
	next := st
	next.pot += facingBet
	next.stacks[st.actor] -= facingBet
	next.committed[st.actor] = st.committed[1-st.actor]
	if st.street == 5 {
		return terminalShowdown(tc, next), nil
	}
	return closeStreet(tc, next)
}

// closeStreet advances from the end of one street's betting (both players
// checked, or a bet was called) into the next street, or a river showdown.
func closeStreet(tc *TreeConfig, st streetState) (*Node, error) {
	if st.street == 5 {
		return terminalShowdown(tc, st), nil
	}
	chanceNode := &Node{
		Kind:   ChanceNode,
		Street: st.street,
		Pot:    st.pot + st.committed[0] + st.committed[1],
		Stacks: st.stacks,
	}
	next := streetState{
		street:              st.street + 1,
		pot:                 st.pot + st.committed[0] + st.committed[1],
		stacks:              st.stacks,
		actor:               0,
		firstActionOfStreet: true,
	}
	nextNode, err := buildPlayerNode(tc, next)
	if err != nil {
		return nil, err
	}
	chanceNode.Next = nextNode
	return chanceNode, nil
}

// buildRunout handles the all-in-and-call case: no more betting decisions
// remain, so every remaining street is a bare chance transition ending in
// showdown.
func buildRunout(tc *TreeConfig, st streetState) (*Node, error) {
	if st.street == 5 {
		return terminalShowdown(tc, st), nil
	}
	chanceNode := &Node{
		Kind:   ChanceNode,
		Street: st.street,
		Pot:    st.pot,
		Stacks: st.stacks,
	}
	next := st
	next.street++
	nextNode, err := buildRunout(tc, next)
	if err != nil {
		return nil, err
	}
	chanceNode.Next = nextNode
	return chanceNode, nil
}

func terminalFold(tc *TreeConfig, st streetState, winner int) *Node {
	return &Node{
		Kind:       TerminalNode,
		Terminal:   FoldWin,
		FoldWinner: winner,
		Street:     st.street,
		Pot:        st.pot + st.committed[0] + st.committed[1],
		Stacks:     st.stacks,
		RakeRate:   tc.RakeRate,
		RakeCap:    tc.RakeCap,
	}
}

func terminalShowdown(tc *TreeConfig, st streetState) *Node {
	return &Node{
		Kind:     TerminalNode,
		Terminal: Showdown,
		Street:   st.street,
		Pot:      st.pot,
		Stacks:   st.stacks,
		RakeRate: tc.RakeRate,
		RakeCap:  tc.RakeCap,
	}
}

// betMenu selects the opening-bet menu: donk sizes when this is the first
// action of a new non-flop street, player 0 (OOP) is acting, and a donk
// menu is configured; the ordinary bet menu otherwise. This resolves
// spec.md's open question in favor of upstream's rule: donk sizes apply
// only to the very first action of the street, never after a check.
func betMenu(tc *TreeConfig, st streetState) []betsize.BetSize {
	m := tc.menuFor(st.actor, st.street)
	if st.firstActionOfStreet && st.street != 3 && st.actor == 0 && len(m.Donks) > 0 {
		return m.Donks
	}
	return m.Bets
}

func raiseMenu(tc *TreeConfig, st streetState) []betsize.BetSize {
	m := tc.menuFor(st.actor, st.street)
	out := make([]betsize.BetSize, 0, len(m.Raises))
	for _, bs := range m.Raises {
		if bs.RaiseCap > 0 && st.raisesThisStreet >= bs.RaiseCap {
			continue
		}
		out = append(out, bs)
	}
	return out
}

// resolveBettingMenu converts a menu into clamped, merged chip amounts (bet
// amounts when facingBet is 0, raise increments above the call amount
// otherwise), applying the add-allin and force-allin thresholds.
func resolveBettingMenu(tc *TreeConfig, menu []betsize.BetSize, st streetState, facingBet float64) ([]float64, error) {
	if len(menu) == 0 {
		return resolveThresholdOnlyMenu(tc, st, facingBet)
	}

	stack := st.stacks[st.actor]
	pot := st.pot + st.committed[0] + st.committed[1]
	streetsRemaining := 6 - st.street

	type candidate struct {
		raw  float64
		frac float64
	}
	cands := make([]candidate, 0, len(menu))
	for _, bs := range menu {
		raw := bs.Resolve(pot, facingBet, stack, streetsRemaining)
		if raw <= 0 {
			continue
		}
		cands = append(cands, candidate{raw: raw, frac: raw / pot})
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].raw < cands[j].raw })

	merged := make([]float64, 0, len(cands))
	for _, c := range cands {
		if len(merged) > 0 {
			prevFrac := merged[len(merged)-1] / pot
			if math.Abs(c.frac-prevFrac) < tc.MergingThreshold {
				continue // keep the smaller, already-appended amount
			}
		}
		merged = append(merged, c.raw)
	}

	clamped := make([]float64, 0, len(merged))
	minIncrement := st.lastIncrement
	if minIncrement <= 0 {
		minIncrement = minBetUnit
	}
	for _, raw := range merged {
		amt := raw
		if amt < minIncrement {
			amt = minIncrement
		}
		if amt > stack {
			amt = stack
		}
		clamped = append(clamped, amt)
	}
	clamped = dedupe(clamped)

	clamped = applyAddAllinThreshold(tc, clamped, stack)
	clamped = applyForceAllinThreshold(tc, clamped, st, facingBet, pot, stack)
	return clamped, nil
}

// resolveThresholdOnlyMenu handles an empty bet/raise menu: no voluntary
// sizes are offered, but the all-in thresholds can still synthesize an
// AllIn action.
func resolveThresholdOnlyMenu(tc *TreeConfig, st streetState, facingBet float64) ([]float64, error) {
	stack := st.stacks[st.actor]
	out := applyAddAllinThreshold(tc, nil, stack)
	return out, nil
}

func applyAddAllinThreshold(tc *TreeConfig, amounts []float64, stack float64) []float64 {
	if tc.AddAllinThreshold <= 0 {
		return amounts
	}
	largest := 0.0
	if len(amounts) > 0 {
		largest = amounts[len(amounts)-1]
	}
	if largest >= tc.AddAllinThreshold*stack {
		return amounts
	}
	return append(amounts, stack)
}

func applyForceAllinThreshold(tc *TreeConfig, amounts []float64, st streetState, facingBet, pot, stack float64) []float64 {
	if tc.ForceAllinThreshold <= 0 || len(amounts) == 0 {
		return amounts
	}
	last := len(amounts) - 1
	amt := amounts[last]
	resultingPot := pot + 2*amt
	resultingStack := stack - amt
	if resultingPot <= 0 {
		return amounts
	}
	spr := resultingStack / resultingPot
	if spr <= tc.ForceAllinThreshold {
		amounts[last] = stack
	}
	return dedupe(amounts)
}

func dedupe(amounts []float64) []float64 {
	out := amounts[:0:0]
	for i, a := range amounts {
		if i > 0 && a == amounts[i-1] {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Validate is re-exported so callers can check a tree's structural
// invariants after post-construction edits (internal/tree/edit.go).
func Validate(root *Node) error {
	if root == nil {
		return solverr.New(solverr.ActionTreeInconsistent, "nil tree root")
	}
	return validateNode(root, map[float64]bool{})
}

func validateNode(n *Node, _ map[float64]bool) error {
	if n.Kind != PlayerNode {
		if n.Next != nil {
			return validateNode(n.Next, nil)
		}
		return nil
	}
	seen := map[float64]bool{}
	for i, a := range n.Actions {
		if a.Kind == Bet || a.Kind == Raise || a.Kind == AllIn {
			if seen[a.Amount] {
				return solverr.New(solverr.ActionTreeInconsistent, "duplicate action amount in menu")
			}
			seen[a.Amount] = true
		}
		if err := validateNode(n.Children[i], nil); err != nil {
			return err
		}
	}
	return nil
}
