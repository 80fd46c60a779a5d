package engine

import (
	"sync/atomic"

	. "github.com/kheron-chess/corengine/common"
)

// TranspositionTable is the shared key→entry cache every thread probes
// and stores into. Clusters of ttClusterSize entries are guarded by a
// per-cluster CAS gate (the same trick CounterGo's tierTransTable
// uses): a reader or writer that loses the race treats the cluster as
// momentarily absent, a "torn read is a miss" guarantee, without a
// true lock-free XOR scheme.
const ttClusterSize = 4

type ttEntry struct {
	gate        int32
	key32       uint32
	move        Move
	value       int16
	eval        int16
	evalMargin  int8
	depth       int16 // fractional plies (onePly units); an int8 overflows past ~63 plies
	boundAndGen uint8 // low 2 bits bound kind, high 6 bits generation
}

func (e *ttEntry) bound() int       { return int(e.boundAndGen & 3) }
func (e *ttEntry) generation() uint8 { return e.boundAndGen >> 2 }

// TTEntry is the read-only view returned by Probe.
type TTEntry struct {
	Move       Move
	Value      int
	Eval       int
	EvalMargin int
	Depth      int
	Bound      int
	ok         bool
}

func (e TTEntry) Found() bool { return e.ok }

type TranspositionTable struct {
	megabytes  int
	entries    []ttEntry
	mask       uint32
	generation uint8
}

func roundPowerOfTwo(size int) int {
	var x = 1
	for (x << 1) <= size {
		x <<= 1
	}
	return x
}

func NewTranspositionTable(megabytes int) *TranspositionTable {
	if megabytes < 1 {
		megabytes = 1
	}
	var entrySize = 20 // approximate entry footprint, cluster-aligned
	var numEntries = roundPowerOfTwo(1024 * 1024 * megabytes / entrySize)
	if numEntries < ttClusterSize {
		numEntries = ttClusterSize
	}
	return &TranspositionTable{
		megabytes: megabytes,
		entries:   make([]ttEntry, numEntries),
		mask:      uint32(numEntries - ttClusterSize),
	}
}

func (tt *TranspositionTable) Megabytes() int { return tt.megabytes }

// NewSearch bumps the generation counter used by the replacement policy;
// called once per `go` command.
func (tt *TranspositionTable) NewSearch() {
	tt.generation = (tt.generation + 1) & 63
}

func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = ttEntry{}
	}
	tt.generation = 0
}

func (tt *TranspositionTable) cluster(key uint64) []ttEntry {
	var index = uint32(key) & tt.mask
	return tt.entries[index : index+ttClusterSize]
}

// Probe returns the entry matching key, if any. A hit refreshes the
// entry's generation to the current search; callers decide usability
// via OkToUseTT.
func (tt *TranspositionTable) Probe(key uint64) TTEntry {
	var cluster = tt.cluster(key)
	var gate = &cluster[0].gate
	if !atomic.CompareAndSwapInt32(gate, 0, 1) {
		return TTEntry{}
	}
	defer atomic.StoreInt32(gate, 0)
	for i := range cluster {
		var e = &cluster[i]
		if e.key32 == uint32(key>>32)^uint32(key) && e.boundAndGen != 0 {
			e.boundAndGen = (e.boundAndGen & 3) | (tt.generation << 2)
			return TTEntry{
				Move:       e.move,
				Value:      int(e.value),
				Eval:       int(e.eval),
				EvalMargin: int(e.evalMargin),
				Depth:      int(e.depth),
				Bound:      e.bound(),
				ok:         true,
			}
		}
	}
	return TTEntry{}
}

// Store inserts or replaces an entry for key. value==valueNone stores an
// eval-only entry: bound is boundNone and
// only Eval/EvalMargin are meaningful.
func (tt *TranspositionTable) Store(key uint64, value, bound, depth int, move Move, sEval, sMargin int) {
	var cluster = tt.cluster(key)
	var gate = &cluster[0].gate
	if !atomic.CompareAndSwapInt32(gate, 0, 1) {
		return
	}
	defer atomic.StoreInt32(gate, 0)

	var key32 = uint32(key>>32) ^ uint32(key) // folds in the low bits too, so keys sharing a cluster still differ here
	var best *ttEntry
	var bestScore = -1 << 30
	for i := range cluster {
		var e = &cluster[i]
		if e.key32 == key32 && e.boundAndGen != 0 {
			best = e
			break
		}
		var score = replacementScore(e, tt.generation)
		if score > bestScore {
			bestScore = score
			best = e
		}
	}

	// Never lose a same-generation, full-key match with strictly higher
	// depth unless this store is itself deeper, whatever its bound. An
	// eval-only store (bound==boundNone) never carries a search result,
	// so it always refreshes the eval cache instead of being blocked by
	// another entry's depth.
	if bound != boundNone && best.key32 == key32 && best.boundAndGen != 0 &&
		best.generation() == tt.generation &&
		int(best.depth) > depth {
		return
	}

	if bound == boundNone && best.key32 == key32 && best.boundAndGen != 0 {
		best.eval = int16(sEval)
		best.evalMargin = int8(sMargin)
		best.boundAndGen = (best.boundAndGen & 3) | (tt.generation << 2)
		return
	}

	if move == MoveEmpty && best.key32 == key32 {
		move = best.move // keep the prior best move when this store carries none
	}

	best.key32 = key32
	best.move = move
	best.value = int16(value)
	best.depth = int16(depth)
	best.boundAndGen = uint8(bound) | (tt.generation << 2)
	best.eval = int16(sEval)
	best.evalMargin = int8(sMargin)
}

func replacementScore(e *ttEntry, curGen uint8) int {
	if e.boundAndGen == 0 {
		return 1 << 30 // always prefer an empty slot
	}
	var score = -int(e.depth)
	if e.generation() != curGen {
		score += 64
	}
	return score
}

// OkToUseTT reports whether tte is usable at depth against beta: usable
// when depth is sufficient or the stored score lies in the mate band
// (>= valueWin or <= valueLoss), and the bound is on the correct side
// of beta.
func OkToUseTT(tte TTEntry, depth, beta, height int) (int, bool) {
	if !tte.ok {
		return 0, false
	}
	var v = valueFromTT(tte.Value, height)
	if tte.Depth >= depth || v >= valueWin || v <= valueLoss {
		if tte.Bound == boundExact {
			return v, true
		}
		if (tte.Bound&boundLower) != 0 && v >= beta {
			return v, true
		}
		if (tte.Bound&boundUpper) != 0 && v < beta {
			return v, true
		}
	}
	return v, false
}
