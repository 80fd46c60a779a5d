package engine

import (
	"testing"

	"github.com/matryer/is"

	. "github.com/kheron-chess/corengine/common"
)

// testMove builds a quiet Move from its public bit layout; history.go
// never looks at anything beyond From/To/MovingPiece, so a hand-built move
// with no real board behind it is fine here.
func testMove(from, to, piece int) Move {
	return Move(from ^ (to << 6) ^ (piece << 12))
}

func TestHistoryUpdateRewardsBestMovePenalizesRest(t *testing.T) {
	var check = is.New(t)
	var th = &thread{}
	var h = historyContext{thread: th, sideToMove: true, cont1: -1, cont2: -1}

	var m1 = testMove(SquareE2, SquareE4, Pawn)
	var m2 = testMove(SquareD2, SquareD4, Pawn)
	var best = testMove(SquareG1, SquareF3, Knight)

	h.Update([]Move{m1, m2, best}, best, 6*onePly)

	var scoreBest = h.ReadTotal(best)
	var scoreOther = h.ReadTotal(m1)
	check.True(scoreBest > 0)
	check.True(scoreOther < 0)
	check.True(scoreBest > scoreOther)
}

func TestHistoryUpdateStopsAtBestMove(t *testing.T) {
	var check = is.New(t)
	var th = &thread{}
	var h = historyContext{thread: th, sideToMove: true, cont1: -1, cont2: -1}

	var m1 = testMove(SquareE2, SquareE4, Pawn)
	var untouched = testMove(SquareD2, SquareD4, Pawn)

	h.Update([]Move{m1, untouched}, m1, 6*onePly) // best move is first: the update stops there, so untouched is never penalized

	check.True(h.ReadTotal(m1) > 0)
	check.Equal(h.ReadTotal(untouched), 0)
}

func TestClearHistoryZeroesTables(t *testing.T) {
	var check = is.New(t)
	var th = &thread{}
	var h = historyContext{thread: th, sideToMove: true, cont1: -1, cont2: -1}

	var m = testMove(SquareE2, SquareE4, Pawn)
	h.Update([]Move{m}, m, 6*onePly)
	check.True(h.ReadTotal(m) != 0)

	th.clearHistory()
	check.Equal(h.ReadTotal(m), 0)
}

func TestUpdateHistoryConvergesTowardTarget(t *testing.T) {
	var check = is.New(t)
	var v int16
	for i := 0; i < 200; i++ {
		updateHistory(&v, 400, true)
	}
	check.True(int(v) > historyMax-100)
}
