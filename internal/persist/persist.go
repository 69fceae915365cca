// Package persist implements spec §4.7's saved-game format: serializing a
// solved game tree to a single file, truncating it at a target storage
// street to shrink it, and resolving (rebuilding) forgotten streets back
// out of a truncated save.
//
// Grounded on lox-pokerforbots/sdk/solver/checkpoint.go's atomic
// temp-file-then-rename save idiom (SaveCheckpoint/LoadTrainerFromCheckpoint),
// with the JSON envelope swapped for an explicit encoding/binary frame
// (magic, version, memo, configuration, target-storage-street tag,
// per-node arena rows) as spec §6 requires, and internal/fileutil's
// WriteFileAtomic reused directly for the rename-into-place step.
//
// The action tree and chance isomorphism tables are not serialized node
// by node. Both are pure functions of (CardConfig, TreeConfig), so Load
// reconstructs them by calling tree.Build and gametree.Build on the
// decoded configuration rather than walking a second, bespoke tree codec
// — the same approach the teacher's checkpoint.go takes for the parts of
// trainer state it can cheaply recompute (e.g. abstraction tables)
// instead of serializing them.
package persist

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/lox/postflop-solver/internal/cards"
	"github.com/lox/postflop-solver/internal/dcfr"
	"github.com/lox/postflop-solver/internal/exploit"
	"github.com/lox/postflop-solver/internal/fileutil"
	"github.com/lox/postflop-solver/internal/gametree"
	"github.com/lox/postflop-solver/internal/solverr"
	"github.com/lox/postflop-solver/internal/storage"
	"github.com/lox/postflop-solver/internal/tree"
)

const (
	magic       = "PFS1"
	fileVersion = 1
)

// ResolveMode selects whether Resolve mutates the arena it is given or
// produces a separate one, per spec §4.7's in-place/copy distinction.
type ResolveMode int

const (
	InPlace ResolveMode = iota
	Copy
)

// configWire is the JSON-encodable snapshot of a CardConfig/TreeConfig
// pair written into the saved-game header. Range's weights are private,
// so they are flattened into plain arrays here rather than round-tripped
// through the human-authored shorthand grammar internal/config uses.
type configWire struct {
	OOPWeights [cards.NumCombos]float64
	IPWeights  [cards.NumCombos]float64
	Flop       [3]cards.Card
	Turn       cards.Card
	River      cards.Card
	Tree       *tree.TreeConfig
}

func toWire(cc *cards.CardConfig, tc *tree.TreeConfig) *configWire {
	w := &configWire{Flop: cc.Flop, Turn: cc.Turn, River: cc.River, Tree: tc}
	for i := 0; i < cards.NumCombos; i++ {
		w.OOPWeights[i] = cc.Ranges[0].Weight(i)
		w.IPWeights[i] = cc.Ranges[1].Weight(i)
	}
	return w
}

func (w *configWire) cardConfig() *cards.CardConfig {
	oop, ip := cards.NewRange(), cards.NewRange()
	for i := 0; i < cards.NumCombos; i++ {
		if w.OOPWeights[i] > 0 {
			oop.SetWeight(i, w.OOPWeights[i])
		}
		if w.IPWeights[i] > 0 {
			ip.SetWeight(i, w.IPWeights[i])
		}
	}
	return &cards.CardConfig{Ranges: [2]*cards.Range{oop, ip}, Flop: w.Flop, Turn: w.Turn, River: w.River}
}

func writeString(w *bytes.Buffer, s string) {
	binary.Write(w, binary.BigEndian, uint32(len(s)))
	w.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeFloat32Slice(w *bytes.Buffer, vals []float32) {
	binary.Write(w, binary.BigEndian, uint32(len(vals)))
	for _, v := range vals {
		binary.Write(w, binary.BigEndian, v)
	}
}

func readFloat32Slice(r *bytes.Reader) ([]float32, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i := range out {
		if err := binary.Read(r, binary.BigEndian, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// walkKept visits every player node reachable from n whose street is at
// most targetStreet, in the same deterministic construction order
// gametree.Build assembled them in (chance nodes branch over
// Isomorphism.Representatives, player nodes branch over Action.Actions).
// Nodes beyond targetStreet, and everything under them, are skipped: a
// node's street never decreases going deeper, so the first node to fail
// the check prunes its whole subtree.
func walkKept(n *gametree.GameNode, targetStreet int, visit func(*gametree.GameNode)) {
	if n.Action.Street > targetStreet {
		return
	}
	switch n.Action.Kind {
	case tree.TerminalNode:
		return
	case tree.ChanceNode:
		for _, rep := range n.Isomorphism.Representatives {
			walkKept(n.Children[rep.String()], targetStreet, visit)
		}
	default: // PlayerNode
		visit(n)
		for _, a := range n.Action.Actions {
			walkKept(n.Children[a.String()], targetStreet, visit)
		}
	}
}

// Save writes gt/arena to path, keeping only the player-node rows at or
// before targetStreet (3 Flop, 4 Turn, 5 River) — a target of River keeps
// everything, Turn discards river-layer arenas, Flop discards turn and
// river layers too, per spec §4.7. tc is the tree configuration that
// produced gt's action tree (GameTree itself only retains the card
// configuration); memo is a caller-supplied annotation carried in the
// header; compress wraps the body in gzip, the "standard byte-level
// compressor" spec §6 allows.
func Save(path string, tc *tree.TreeConfig, gt *gametree.GameTree, arena *storage.Arena, targetStreet int, memo string, compress bool) error {
	configBlob, err := json.Marshal(toWire(gt.Config, tc))
	if err != nil {
		return solverr.Wrap(solverr.ConfigurationInvalid, "encoding saved-game configuration", err)
	}

	var body bytes.Buffer
	writeString(&body, memo)
	body.WriteByte(byte(arena.Mode))
	body.WriteByte(byte(targetStreet))
	writeString(&body, string(configBlob))

	var nodeCount uint32
	walkKept(gt.Root, targetStreet, func(*gametree.GameNode) { nodeCount++ })
	binary.Write(&body, binary.BigEndian, nodeCount)

	walkKept(gt.Root, targetStreet, func(n *gametree.GameNode) {
		l := n.Layout
		writeFloat32Slice(&body, arena.RegretRow(l))
		writeFloat32Slice(&body, arena.StrategyRow(l))
	})

	var out bytes.Buffer
	out.WriteString(magic)
	binary.Write(&out, binary.BigEndian, uint32(fileVersion))
	if compress {
		out.WriteByte(1)
		gz := gzip.NewWriter(&out)
		if _, err := gz.Write(body.Bytes()); err != nil {
			return solverr.Wrap(solverr.PersistenceCorrupt, "compressing saved game", err)
		}
		if err := gz.Close(); err != nil {
			return solverr.Wrap(solverr.PersistenceCorrupt, "compressing saved game", err)
		}
	} else {
		out.WriteByte(0)
		out.Write(body.Bytes())
	}

	return fileutil.WriteFileAtomic(path, out.Bytes(), 0o644)
}

// Loaded is the result of Load: a freshly reconstructed game tree and
// arena, with every street's layout allocated (even streets the save
// discarded, so Resolve has somewhere to write their rebuilt rows) but
// only rows at or before the saved target street populated.
type Loaded struct {
	CardConfig   *cards.CardConfig
	TreeConfig   *tree.TreeConfig
	Tree         *gametree.GameTree
	Arena        *storage.Arena
	TargetStreet int
	Memo         string
}

// Load reads a saved game back, reconstructing its action tree and game
// tree deterministically from the decoded configuration rather than
// deserializing tree structure directly (see package doc), then replays
// the saved rows into a freshly allocated arena of the saved mode.
func Load(path string) (*Loaded, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, solverr.Wrap(solverr.PersistenceCorrupt, "reading saved game", err)
	}
	if len(raw) < len(magic)+4+1 {
		return nil, solverr.New(solverr.PersistenceCorrupt, "saved game file truncated")
	}
	if string(raw[:len(magic)]) != magic {
		return nil, solverr.New(solverr.PersistenceCorrupt, "saved game magic mismatch")
	}
	r := bytes.NewReader(raw[len(magic):])
	var fv uint32
	if err := binary.Read(r, binary.BigEndian, &fv); err != nil {
		return nil, solverr.Wrap(solverr.PersistenceCorrupt, "reading saved-game version", err)
	}
	if fv != fileVersion {
		return nil, solverr.New(solverr.PersistenceCorrupt, fmt.Sprintf("saved game version %d unsupported", fv))
	}
	compressFlag, err := r.ReadByte()
	if err != nil {
		return nil, solverr.Wrap(solverr.PersistenceCorrupt, "reading saved-game flags", err)
	}

	var body io.Reader = r
	if compressFlag == 1 {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, solverr.Wrap(solverr.PersistenceCorrupt, "decompressing saved game", err)
		}
		defer gz.Close()
		body = gz
	}
	bodyBytes, err := io.ReadAll(body)
	if err != nil {
		return nil, solverr.Wrap(solverr.PersistenceCorrupt, "reading saved-game body", err)
	}
	br := bytes.NewReader(bodyBytes)

	memo, err := readString(br)
	if err != nil {
		return nil, solverr.Wrap(solverr.PersistenceCorrupt, "reading saved-game memo", err)
	}
	modeByte, err := br.ReadByte()
	if err != nil {
		return nil, solverr.Wrap(solverr.PersistenceCorrupt, "reading saved-game storage mode", err)
	}
	targetByte, err := br.ReadByte()
	if err != nil {
		return nil, solverr.Wrap(solverr.PersistenceCorrupt, "reading saved-game target street", err)
	}
	configJSON, err := readString(br)
	if err != nil {
		return nil, solverr.Wrap(solverr.PersistenceCorrupt, "reading saved-game configuration", err)
	}

	var w configWire
	if err := json.Unmarshal([]byte(configJSON), &w); err != nil {
		return nil, solverr.Wrap(solverr.PersistenceCorrupt, "decoding saved-game configuration", err)
	}
	cc := w.cardConfig()
	tc := w.Tree

	actionRoot, err := tree.Build(tc)
	if err != nil {
		return nil, solverr.Wrap(solverr.ActionTreeInconsistent, "rebuilding action tree from saved configuration", err)
	}
	mode := storage.Mode(modeByte)
	gt, err := gametree.Build(actionRoot, cc, mode)
	if err != nil {
		return nil, err
	}
	arena, err := gt.Allocate(0)
	if err != nil {
		return nil, err
	}

	targetStreet := int(targetByte)
	var nodeCount uint32
	if err := binary.Read(br, binary.BigEndian, &nodeCount); err != nil {
		return nil, solverr.Wrap(solverr.PersistenceCorrupt, "reading saved-game node count", err)
	}
	var readErr error
	var seen uint32
	walkKept(gt.Root, targetStreet, func(n *gametree.GameNode) {
		if readErr != nil {
			return
		}
		regretRow, err := readFloat32Slice(br)
		if err != nil {
			readErr = solverr.Wrap(solverr.PersistenceCorrupt, "reading saved regret row", err)
			return
		}
		strategyRow, err := readFloat32Slice(br)
		if err != nil {
			readErr = solverr.Wrap(solverr.PersistenceCorrupt, "reading saved strategy row", err)
			return
		}
		arena.SetRegretRow(n.Layout, regretRow)
		arena.SetStrategyRow(n.Layout, strategyRow)
		seen++
	})
	if readErr != nil {
		return nil, readErr
	}
	if seen != nodeCount {
		return nil, solverr.New(solverr.PersistenceCorrupt, fmt.Sprintf("saved game node count mismatch: header says %d, reconstructed tree has %d", nodeCount, seen))
	}

	return &Loaded{
		CardConfig:   cc,
		TreeConfig:   tc,
		Tree:         gt,
		Arena:        arena,
		TargetStreet: targetStreet,
		Memo:         memo,
	}, nil
}

// Truncate zeroes every player-node row beyond targetStreet in place,
// approximating spec §4.7's "zeroes and releases arenas beyond the
// target street" for a dense single-slice arena that cannot shrink: the
// rows are reset to zero rather than the backing slice itself being
// freed, leaving the node topology unchanged so the game can later be
// resolved back out.
func Truncate(gt *gametree.GameTree, arena *storage.Arena, targetStreet int) {
	walkKept(gt.Root, maxStreet, func(n *gametree.GameNode) {
		if n.Action.Street <= targetStreet {
			return
		}
		l := n.Layout
		zero := make([]float32, l.Len())
		arena.SetRegretRow(l, zero)
		arena.SetStrategyRow(l, zero)
	})
}

const maxStreet = 5

func denseWeights(r *cards.Range) []float64 {
	out := make([]float64, cards.NumCombos)
	for _, idx := range r.Combos() {
		out[idx] = r.Weight(idx)
	}
	return out
}

type boundary struct {
	node          *gametree.GameNode
	reach0, reach1 []float64
}

// collectBoundaries walks the full tree (ignoring the target-street
// prune) and records, for every chance node whose street equals
// targetStreet — the point where the next street's cards, and so the
// next street's arenas, were forgotten — the per-player reach
// probability of getting there under arena's current average strategy.
// That reach is exactly the "preserved ancestor strategy defines entry
// reach probabilities" seeding spec §4.7 describes.
func collectBoundaries(n *gametree.GameNode, targetStreet int, arena *storage.Arena, reach0, reach1 []float64, out *[]boundary) {
	if n.Action.Kind == tree.ChanceNode && n.Action.Street == targetStreet {
		*out = append(*out, boundary{
			node:   n,
			reach0: append([]float64(nil), reach0...),
			reach1: append([]float64(nil), reach1...),
		})
		return
	}
	switch n.Action.Kind {
	case tree.TerminalNode:
		return
	case tree.ChanceNode:
		for _, rep := range n.Isomorphism.Representatives {
			collectBoundaries(n.Children[rep.String()], targetStreet, arena, reach0, reach1, out)
		}
	default: // PlayerNode
		avg := exploit.AverageStrategy(n, arena)
		player := n.Action.Player
		own := n.ValidIndices[player]
		reach := [2][]float64{reach0, reach1}
		for ai, a := range n.Action.Actions {
			next0, next1 := reach0, reach1
			branch := append([]float64(nil), reach[player]...)
			for h, combo := range own {
				branch[combo] = avg[ai][h] * reach[player][combo]
			}
			if player == 0 {
				next0 = branch
			} else {
				next1 = branch
			}
			collectBoundaries(n.Children[a.String()], targetStreet, arena, next0, next1, out)
		}
	}
}

func cloneArena(a *storage.Arena) *storage.Arena {
	return &storage.Arena{
		Mode:          a.Mode,
		RegretsF:      append([]float32(nil), a.RegretsF...),
		StrategyF:     append([]float32(nil), a.StrategyF...),
		RegretsI16:    append([]int16(nil), a.RegretsI16...),
		StrategyI16:   append([]uint16(nil), a.StrategyI16...),
		RegretScale:   append([]float32(nil), a.RegretScale...),
		StrategyScale: append([]float32(nil), a.StrategyScale...),
	}
}

// RebuildAndResolveForgottenStreets implements spec §4.7's resolve
// operation: for every truncation boundary (the chance nodes dealing the
// first forgotten street), it re-solves the subtree beneath that node
// using dcfr.Solver.RunFrom, seeded with the per-player reach probability
// of reaching that node under the preserved ancestor average strategy,
// until that subtree's local exploitability meets cfg.ExploitabilityTarget
// or cfg.MaxIterations is exhausted. mode selects whether arena is
// mutated in place or left untouched in favor of a returned copy.
func RebuildAndResolveForgottenStreets(ctx context.Context, gt *gametree.GameTree, arena *storage.Arena, targetStreet int, cfg dcfr.Config, mode ResolveMode) (*storage.Arena, []*dcfr.Result, error) {
	working := arena
	if mode == Copy {
		working = cloneArena(arena)
	}

	var boundaries []boundary
	collectBoundaries(gt.Root, targetStreet, working, denseWeights(gt.Config.Ranges[0]), denseWeights(gt.Config.Ranges[1]), &boundaries)

	solver := dcfr.New(gt, working, nil)
	results := make([]*dcfr.Result, 0, len(boundaries))
	for _, b := range boundaries {
		select {
		case <-ctx.Done():
			return working, results, ctx.Err()
		default:
		}
		res, err := solver.RunFrom(ctx, b.node, [2][]float64{b.reach0, b.reach1}, cfg)
		if err != nil {
			return working, results, err
		}
		results = append(results, res)
	}
	return working, results, nil
}
