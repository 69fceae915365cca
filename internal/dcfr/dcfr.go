// Package dcfr implements Discounted Counterfactual Regret Minimization
// with alternating updates, per spec §4.6. Grounded on
// lox-pokerforbots/sdk/solver/trainer.go for the worker-pool iteration
// loop, and on ehrlich-b-poker's
// pkg/solver/cfr.go for the plain two-sided recursive cfr() control flow
// this module generalizes into the player/opponent-asymmetric,
// discount-weighted variant spec §4.6 requires. Sibling-child parallelism
// (spec §5) uses golang.org/x/sync/errgroup and golang.org/x/sync/semaphore
// to bound concurrent goroutines, replacing the teacher's ad hoc
// sync.WaitGroup + closures with a cancellation-aware pool that falls back
// to inline recursion once the pool is saturated (spec §5's "single-
// threaded implementation is a valid fallback").
package dcfr

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/lox/postflop-solver/internal/cards"
	"github.com/lox/postflop-solver/internal/cfrcore"
	"github.com/lox/postflop-solver/internal/exploit"
	"github.com/lox/postflop-solver/internal/gametree"
	"github.com/lox/postflop-solver/internal/storage"
	"github.com/lox/postflop-solver/internal/tree"
)

// Config controls a solving run.
type Config struct {
	MaxIterations int // 0 means "until exploitability target is met"

	// ExploitabilityTarget is a fraction of pot; 0 disables early
	// stopping, running until MaxIterations.
	ExploitabilityTarget float64

	// CheckInterval is how often (in iterations) exploitability is
	// recomputed; 0 defaults to 10, per spec §4.6 step 3.
	CheckInterval int

	// Workers bounds concurrent sibling-child recursion; 0 defaults to
	// runtime.NumCPU().
	Workers int
}

// Result summarizes a completed or early-stopped run.
type Result struct {
	Iterations     int
	Exploitability float64
}

// Solver runs DCFR over a coupled game tree and its storage arena.
type Solver struct {
	Tree  *gametree.GameTree
	Arena *storage.Arena
	Locks map[*gametree.GameNode]*Lock

	sem *semaphore.Weighted
}

// New constructs a Solver. locks may be nil; when non-nil it maps a
// specific player node to a forced per-hand action weighting (spec §4.6
// step 3).
func New(gt *gametree.GameTree, arena *storage.Arena, locks map[*gametree.GameNode]*Lock) *Solver {
	return &Solver{Tree: gt, Arena: arena, Locks: locks}
}

// Run executes DCFR iterations until cfg.MaxIterations is reached or, if
// cfg.ExploitabilityTarget is positive, exploitability drops to or below
// it first (checked every cfg.CheckInterval iterations, per spec §4.6).
func (s *Solver) Run(ctx context.Context, cfg Config) (*Result, error) {
	initWeights := [2][]float64{
		denseWeights(s.Tree.Config.Ranges[0]),
		denseWeights(s.Tree.Config.Ranges[1]),
	}
	return s.RunFrom(ctx, s.Tree.Root, initWeights, cfg)
}

// RunFrom executes DCFR iterations rooted at an arbitrary node with
// caller-supplied per-player entry reach, instead of the tree's own root
// and full range weights. internal/persist's resolve step uses this to
// re-solve only the subtree beyond a truncation boundary, seeding entry
// reach from the preserved ancestor strategy rather than the original
// full ranges (spec §4.7).
func (s *Solver) RunFrom(ctx context.Context, root *gametree.GameNode, initWeights [2][]float64, cfg Config) (*Result, error) {
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = 10
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	s.sem = semaphore.NewWeighted(int64(workers))

	var lastExploit float64
	var iter int
	for t := 1; cfg.MaxIterations <= 0 || t <= cfg.MaxIterations; t++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		alpha, beta, gamma := discountCoefficients(t)
		for _, player := range [2]int{0, 1} {
			cfreach := make([]float64, cards.NumCombos)
			copy(cfreach, initWeights[1-player])
			if _, err := s.solveRecursive(ctx, root, player, cfreach, alpha, beta, gamma); err != nil {
				return nil, err
			}
		}
		iter = t

		last := t == cfg.MaxIterations
		if t%interval == 0 || last {
			ex, err := exploit.ComputeFrom(ctx, root, initWeights, s.Arena)
			if err != nil {
				return nil, err
			}
			lastExploit = ex
			if cfg.ExploitabilityTarget > 0 && ex <= cfg.ExploitabilityTarget {
				return &Result{Iterations: iter, Exploitability: ex}, nil
			}
		}
	}
	return &Result{Iterations: iter, Exploitability: lastExploit}, nil
}

func denseWeights(r *cards.Range) []float64 {
	out := make([]float64, cards.NumCombos)
	for _, idx := range r.Combos() {
		out[idx] = r.Weight(idx)
	}
	return out
}

func (s *Solver) solveRecursive(ctx context.Context, node *gametree.GameNode, player int, cfreach []float64, alpha, beta, gamma float64) ([]float64, error) {
	switch node.Action.Kind {
	case tree.TerminalNode:
		return cfrcore.TerminalCFV(node, player, cfreach), nil
	case tree.ChanceNode:
		return cfrcore.ChanceCFV(ctx, node, cfreach, func(ctx context.Context, child *gametree.GameNode, scaled []float64) ([]float64, error) {
			return s.solveRecursive(ctx, child, player, scaled, alpha, beta, gamma)
		})
	default:
		if node.Action.Player == player {
			return s.actingPlayerNode(ctx, node, player, cfreach, alpha, beta, gamma)
		}
		return s.opponentNode(ctx, node, player, cfreach, alpha, beta, gamma)
	}
}

// spawn runs fn either as a pooled goroutine (when a slot is free) or
// inline, so a saturated pool never deadlocks a recursive fan-out (spec
// §5's single-threaded fallback).
func (s *Solver) spawn(g *errgroup.Group, fn func() error) {
	if s.sem.TryAcquire(1) {
		g.Go(func() error {
			defer s.sem.Release(1)
			return fn()
		})
		return
	}
	if err := fn(); err != nil {
		g.Go(func() error { return err })
	}
}

// actingPlayerNode implements spec §4.6's "player is the actor" case:
// recurse with unmodified cfreach (the actor's own action doesn't change
// the opponent's reach), regret-match, apply node-locking, compute the
// node's cfv, then update the cumulative strategy and regret arenas.
func (s *Solver) actingPlayerNode(ctx context.Context, node *gametree.GameNode, player int, cfreach []float64, alpha, beta, gamma float64) ([]float64, error) {
	n := node.Action
	actionCount := len(n.Actions)
	children := make([]*gametree.GameNode, actionCount)
	for i, a := range n.Actions {
		children[i] = node.Children[a.String()]
	}

	childCFVs := make([][]float64, actionCount)
	g, gctx := errgroup.WithContext(ctx)
	for i := range children {
		i := i
		s.spawn(g, func() error {
			cfv, err := s.solveRecursive(gctx, children[i], player, cfreach, alpha, beta, gamma)
			if err != nil {
				return err
			}
			childCFVs[i] = cfv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l := node.Layout
	handCount := l.HandCount
	own := node.ValidIndices[player]
	lock := s.Locks[node]

	regretRow := s.Arena.RegretRow(l)
	strat := regretMatching(regretRow, actionCount, handCount)
	applyLock(strat, lock, actionCount, handCount)

	result := make([]float64, cards.NumCombos)
	for h := 0; h < handCount; h++ {
		combo := own[h]
		var v float64
		for a := 0; a < actionCount; a++ {
			v += strat[a][h] * childCFVs[a][combo]
		}
		result[combo] = v
	}

	strategyRow := s.Arena.StrategyRow(l)
	newStratRow := make([]float32, len(regretRow))
	newRegretRow := make([]float32, len(regretRow))
	for a := 0; a < actionCount; a++ {
		for h := 0; h < handCount; h++ {
			combo := own[h]
			idx := a*handCount + h

			newStratRow[idx] = float32(gamma*float64(strategyRow[idx]) + strat[a][h])

			if isLocked(lock, a, h) {
				newRegretRow[idx] = 0
				continue
			}
			old := float64(regretRow[idx])
			coef := beta
			if old >= 0 {
				coef = alpha
			}
			instant := childCFVs[a][combo] - result[combo]
			newRegretRow[idx] = float32(coef*old + instant)
		}
	}
	s.Arena.SetStrategyRow(l, newStratRow)
	s.Arena.SetRegretRow(l, newRegretRow)

	return result, nil
}

// opponentNode implements spec §4.6's "player is the opponent" case: the
// acting player's current strategy reweights cfreach per action before
// recursing, and the node's cfv is a simple sum over actions since reach
// already carries the weighting.
func (s *Solver) opponentNode(ctx context.Context, node *gametree.GameNode, player int, cfreach []float64, alpha, beta, gamma float64) ([]float64, error) {
	n := node.Action
	actionCount := len(n.Actions)
	l := node.Layout
	handCount := l.HandCount
	actorHands := node.ValidIndices[n.Player]

	regretRow := s.Arena.RegretRow(l)
	strat := regretMatching(regretRow, actionCount, handCount)
	applyLock(strat, s.Locks[node], actionCount, handCount)

	children := make([]*gametree.GameNode, actionCount)
	nextCFreach := make([][]float64, actionCount)
	for i, a := range n.Actions {
		children[i] = node.Children[a.String()]
		reach := make([]float64, cards.NumCombos)
		for h := 0; h < handCount; h++ {
			combo := actorHands[h]
			reach[combo] = strat[i][h] * cfreach[combo]
		}
		nextCFreach[i] = reach
	}

	childCFVs := make([][]float64, actionCount)
	g, gctx := errgroup.WithContext(ctx)
	for i := range children {
		i := i
		s.spawn(g, func() error {
			cfv, err := s.solveRecursive(gctx, children[i], player, nextCFreach[i], alpha, beta, gamma)
			if err != nil {
				return err
			}
			childCFVs[i] = cfv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]float64, cards.NumCombos)
	for _, cfv := range childCFVs {
		for i, v := range cfv {
			out[i] += v
		}
	}
	return out, nil
}
