// Package storage implements the dense regret/strategy arenas of spec
// §3's StrategyStorage and §4.4: one contiguous buffer per table instead
// of per-node slices, so a solved game is a single blob to serialize and
// truncate. Grounded on the teacher's sharded RegretTable in
// sdk/solver/regret.go (concurrency-safe accumulation over a flat
// action-by-hand layout) generalized from per-entry slices into one arena
// offset per node, per spec §4.4/§9's "shared cumulative regret/strategy
// arenas" design note.
package storage

import (
	"fmt"

	"github.com/lox/postflop-solver/internal/solverr"
)

// Mode selects the storage representation for an arena's cells.
type Mode uint8

const (
	// Float stores each cell as a 32-bit float.
	Float Mode = iota
	// Compressed stores each cell as a 16-bit integer plus a per-node
	// f32 rescale factor (signed for regrets, unsigned for strategy).
	Compressed
)

// NodeLayout records where one action-tree node's tables live inside the
// arenas: a dense action_count x hand_count block starting at the given
// offsets.
type NodeLayout struct {
	RegretOffset   int
	StrategyOffset int
	ActionCount    int
	HandCount      int

	// ScaleIndex indexes Arena.RegretScale/StrategyScale in Compressed
	// mode; meaningless in Float mode.
	ScaleIndex int
}

// Len returns the number of cells (action_count * hand_count) the node
// occupies in each arena.
func (l NodeLayout) Len() int {
	return l.ActionCount * l.HandCount
}

// Arena holds the regret and cumulative-strategy tables for an entire
// solved game tree in two parallel buffers, addressed by NodeLayout
// offsets recorded on each game-tree node.
type Arena struct {
	Mode Mode

	RegretsF   []float32 // Float mode
	StrategyF  []float32

	RegretsI16  []int16  // Compressed mode, signed
	StrategyI16 []uint16 // Compressed mode, unsigned

	// Scale holds one rescale factor per node, indexed the same way a
	// node's offsets are (offset / per-node stride is not uniform, so
	// scales are keyed by node index, assigned by the allocator in
	// construction order).
	RegretScale   []float32
	StrategyScale []float32
}

// Allocator computes the total arena size a game tree needs and then
// produces the arena, per spec §4.2's "arena allocation" contract: the
// game tree reports memory needed before the caller commits to allocating
// it.
type Allocator struct {
	Mode     Mode
	layouts  []*NodeLayout
	nextNode int
}

// NewAllocator creates an allocator in the given storage mode.
func NewAllocator(mode Mode) *Allocator {
	return &Allocator{Mode: mode}
}

// Reserve records a node's table shape and returns the NodeLayout the
// caller should store on that node; offsets are assigned once Build runs.
func (a *Allocator) Reserve(actionCount, handCount int) *NodeLayout {
	l := &NodeLayout{ActionCount: actionCount, HandCount: handCount}
	a.layouts = append(a.layouts, l)
	return l
}

// TotalCells returns the total number of action*hand cells reserved so
// far, the unit the allocator reports memory requirements in.
func (a *Allocator) TotalCells() int {
	total := 0
	for _, l := range a.layouts {
		total += l.Len()
	}
	return total
}

// EstimatedBytes reports how many bytes Build's arena will occupy, for
// callers that want to check available memory before committing.
func (a *Allocator) EstimatedBytes() int64 {
	cells := int64(a.TotalCells())
	switch a.Mode {
	case Compressed:
		// 2 bytes/cell in each of two arenas, plus one f32 scale per node
		// per arena.
		return cells*2*2 + int64(len(a.layouts))*4*2
	default:
		return cells * 4 * 2
	}
}

// Build assigns offsets to every reserved layout and allocates the arena.
// maxBytes, if nonzero, refuses allocation above that budget.
func (a *Allocator) Build(maxBytes int64) (*Arena, error) {
	if maxBytes > 0 && a.EstimatedBytes() > maxBytes {
		return nil, solverr.New(solverr.InsufficientMemory, fmt.Sprintf(
			"arena would need %d bytes, budget is %d", a.EstimatedBytes(), maxBytes))
	}

	offset := 0
	for i, l := range a.layouts {
		l.RegretOffset = offset
		l.StrategyOffset = offset
		l.ScaleIndex = i
		offset += l.Len()
	}
	total := offset

	arena := &Arena{Mode: a.Mode}
	switch a.Mode {
	case Compressed:
		arena.RegretsI16 = make([]int16, total)
		arena.StrategyI16 = make([]uint16, total)
		arena.RegretScale = make([]float32, len(a.layouts))
		arena.StrategyScale = make([]float32, len(a.layouts))
	default:
		arena.RegretsF = make([]float32, total)
		arena.StrategyF = make([]float32, total)
	}
	return arena, nil
}
