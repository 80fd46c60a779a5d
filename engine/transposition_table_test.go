package engine

import (
	"testing"

	"github.com/matryer/is"

	. "github.com/kheron-chess/corengine/common"
)

func TestTranspositionTableStoreProbe(t *testing.T) {
	var check = is.New(t)
	var tt = NewTranspositionTable(1)

	var key uint64 = 9409641586937047728
	tt.Store(key, 12, boundUpper, 23, MoveEmpty, valueNone, 0)

	var e = tt.Probe(key)
	check.True(e.Found())
	check.Equal(e.Value, 12)
	check.Equal(e.Depth, 23)
	check.Equal(e.Bound, boundUpper)

	var miss = tt.Probe(key + 1)
	check.True(!miss.Found())
}

func TestTranspositionTableKeepsDeeperNonExactEntry(t *testing.T) {
	var check = is.New(t)
	var tt = NewTranspositionTable(1)
	var key uint64 = 123456789

	tt.Store(key, 5, boundExact, 10, MoveEmpty, valueNone, 0)
	tt.Store(key, 7, boundUpper, 3, MoveEmpty, valueNone, 0) // shallower, non-exact: must not evict

	var e = tt.Probe(key)
	check.Equal(e.Depth, 10)
	check.Equal(e.Value, 5)
}

func TestTranspositionTableExactBoundKeepsDeeperEntry(t *testing.T) {
	var check = is.New(t)
	var tt = NewTranspositionTable(1)
	var key uint64 = 123456789

	tt.Store(key, 5, boundExact, 10, MoveEmpty, valueNone, 0)
	tt.Store(key, -3, boundExact, 3, MoveEmpty, valueNone, 0) // shallower, even exact: must not evict

	var e = tt.Probe(key)
	check.Equal(e.Depth, 10)
	check.Equal(e.Value, 5)
}

func TestTranspositionTableEvalOnlyEntryKeepsPriorMove(t *testing.T) {
	var check = is.New(t)
	var tt = NewTranspositionTable(1)
	var key uint64 = 42

	var m = Move(17)
	tt.Store(key, 5, boundExact, 4, m, valueNone, 0)
	tt.Store(key, valueNone, boundNone, depthZero, MoveEmpty, 123, 2)

	var e = tt.Probe(key)
	check.Equal(e.Move, m)
	check.Equal(e.Eval, 123)
	check.Equal(e.EvalMargin, 2)
}

func TestValueToFromTTRoundTrips(t *testing.T) {
	var check = is.New(t)
	var height = 5

	var v = valueWin - 3
	check.Equal(valueFromTT(valueToTT(v, height), height), v)

	check.Equal(valueToTT(valueNone, height), valueNone)
	check.Equal(valueFromTT(valueNone, height), valueNone)
}

func TestOkToUseTT(t *testing.T) {
	var check = is.New(t)

	var lowerTTE = TTEntry{Value: valueToTT(100, 3), Depth: 10, Bound: boundLower, ok: true}
	var v, ok = OkToUseTT(lowerTTE, 8, 50, 3)
	check.True(ok)
	check.Equal(v, 100)

	_, ok = OkToUseTT(lowerTTE, 8, 150, 3)
	check.True(!ok) // lower bound below beta tells us nothing

	var upperTTE = TTEntry{Value: valueToTT(-100, 3), Depth: 10, Bound: boundUpper, ok: true}
	_, ok = OkToUseTT(upperTTE, 8, 50, 3)
	check.True(ok)
}
