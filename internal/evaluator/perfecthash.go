package evaluator

import (
	"encoding/binary"

	"github.com/opencoff/go-chd"
)

// shapeTable memoizes the non-flush classification (quads through high
// card) over the bounded set of 13-rank-count "shapes" a 7-card hand can
// take: a shape is the per-rank card-count histogram, independent of
// suits, which is exactly what classifyShape consumes. The teacher's
// go.mod carries github.com/opencoff/go-chd as a direct dependency with no
// importer in the retrieved sources; a minimal perfect hash fits this case
// well because the shape set is static and fully known in advance.
type shapeTable struct {
	mph     *chd.CHD
	results []HandRank
	keys    [][]byte
}

var globalShapeTable = buildShapeTable()

// shapeKey packs a 13-rank count histogram (each 0-4, three bits per rank)
// into an 8-byte key suitable for hashing.
func shapeKey(counts [13]uint8) []byte {
	var packed uint64
	for r, c := range counts {
		packed |= uint64(c) << uint(3*r)
	}
	key := make([]byte, 8)
	binary.LittleEndian.PutUint64(key, packed)
	return key
}

func buildShapeTable() *shapeTable {
	var keys [][]byte
	var results []HandRank

	var counts [13]uint8
	var walk func(rank, remaining int)
	walk = func(rank, remaining int) {
		if rank == 13 {
			if remaining == 0 {
				keys = append(keys, shapeKey(counts))
				results = append(results, classifyShape(counts))
			}
			return
		}
		maxHere := remaining
		if maxHere > 4 {
			maxHere = 4
		}
		for c := 0; c <= maxHere; c++ {
			counts[rank] = uint8(c)
			walk(rank+1, remaining-c)
		}
		counts[rank] = 0
	}
	walk(0, 7)

	builder := chd.NewBuilder()
	for _, k := range keys {
		builder.Add(k)
	}
	mph, err := builder.Freeze(0.9)
	if err != nil {
		// The key set is built from an exhaustive, collision-free
		// enumeration above; a Freeze failure means go-chd itself
		// rejected a well-formed static key set, which we cannot
		// recover from at init time.
		panic("evaluator: building shape perfect hash: " + err.Error())
	}

	ordered := make([]HandRank, len(keys))
	for i, k := range keys {
		ordered[mph.Find(k)] = results[i]
	}

	return &shapeTable{mph: mph, results: ordered, keys: keys}
}

// classifyShape computes the non-flush category+kicker HandRank from a bare
// rank-count histogram, with no knowledge of suits. This is the function
// buildShapeTable precomputes across every reachable 7-card shape.
func classifyShape(counts [13]uint8) HandRank {
	var mask uint16
	for r, c := range counts {
		if c > 0 {
			mask |= 1 << uint(r)
		}
	}

	if quad := findCount(counts, 4, 0xFFFF); quad >= 0 {
		kicker := topExcluding(mask, []int{quad})
		return FourOfAKind | (HandRank(quad) << 24) | (HandRank(kicker) << 20)
	}

	trips := findCount(counts, 3, 0xFFFF)
	if trips >= 0 {
		if pair := findCountAtLeast(counts, 2, trips); pair >= 0 {
			return FullHouse | (HandRank(trips) << 24) | (HandRank(pair) << 20)
		}
	}

	if high, ok := straightHigh(mask); ok {
		return Straight | (HandRank(high) << 24)
	}

	if trips >= 0 {
		kickers := topExcludingN(mask, []int{trips}, 2)
		return ThreeOfAKind | (HandRank(trips) << 24) | packKickersFrom(kickers, 20)
	}

	pair1 := findCount(counts, 2, 0xFFFF)
	if pair1 >= 0 {
		if pair2 := findCount(counts, 2, bitExcept(pair1)); pair2 >= 0 {
			if pair2 > pair1 {
				pair1, pair2 = pair2, pair1
			}
			kicker := topExcluding(mask, []int{pair1, pair2})
			return TwoPair | (HandRank(pair1) << 24) | (HandRank(pair2) << 20) | (HandRank(kicker) << 16)
		}
		kickers := topExcludingN(mask, []int{pair1}, 3)
		return Pair | (HandRank(pair1) << 24) | packKickersFrom(kickers, 20)
	}

	kickers := topExcludingN(mask, nil, 5)
	return HighCard | packKickers(kickers)
}

// lookupShape returns the precomputed non-flush classification for counts,
// falling back to a direct computation if the shape somehow falls outside
// the table (defensive: the table is built from an exhaustive 7-card
// enumeration, so this path is never expected to run).
func lookupShape(counts [13]uint8) HandRank {
	idx := globalShapeTable.mph.Find(shapeKey(counts))
	if idx >= uint32(len(globalShapeTable.results)) {
		return classifyShape(counts)
	}
	return globalShapeTable.results[idx]
}
