package engine

import (
	"testing"

	"github.com/matryer/is"

	. "github.com/kheron-chess/corengine/common"
)

// kiwipeteFen is the standard perft "Kiwipete" position: plenty of
// captures and a king in the middle of the board, good for exercising
// move ordering.
const kiwipeteFen = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

func emptyHistoryContext() historyContext {
	return historyContext{thread: &thread{}, cont1: -1, cont2: -1}
}

func TestMoveIteratorTTMoveFirst(t *testing.T) {
	var check = is.New(t)
	var p, err = NewPositionFromFEN(kiwipeteFen)
	check.NoErr(err)

	var legal = GenerateLegalMoves(&p)
	check.True(len(legal) > 1)
	var ttMove = legal[len(legal)-1] // the last generated move, which no other key puts first

	var buffer [MaxMoves]OrderedMove
	var mi = moveIterator{position: &p, buffer: buffer[:], ttMove: ttMove, history: emptyHistoryContext()}
	mi.init()

	check.Equal(mi.next(), ttMove)
}

func TestMoveIteratorSkipsExcludedMoves(t *testing.T) {
	var check = is.New(t)
	var p, err = NewPositionFromFEN(kiwipeteFen)
	check.NoErr(err)

	var legal = GenerateLegalMoves(&p)
	var skip = map[Move]bool{legal[0]: true}

	var buffer [MaxMoves]OrderedMove
	var mi = moveIterator{position: &p, buffer: buffer[:], skip: skip, history: emptyHistoryContext()}
	mi.init()

	for m := mi.next(); m != MoveEmpty; m = mi.next() {
		check.True(m != legal[0])
	}
}

func TestMoveIteratorKillersAboveQuiets(t *testing.T) {
	var check = is.New(t)
	var p, err = NewPositionFromFEN(InitialPositionFen)
	check.NoErr(err)

	var legal = GenerateLegalMoves(&p)
	var killer Move
	for _, m := range legal {
		if !isCaptureOrPromotion(m) {
			killer = m
			break
		}
	}
	check.True(killer != MoveEmpty)

	var buffer [MaxMoves]OrderedMove
	var mi = moveIterator{position: &p, buffer: buffer[:], killer1: killer, history: emptyHistoryContext()}
	mi.init()

	check.Equal(mi.next(), killer)
}

func TestMoveIteratorQSOnlyEmitsCaptures(t *testing.T) {
	var check = is.New(t)
	var p, err = NewPositionFromFEN(kiwipeteFen)
	check.NoErr(err)

	var buffer [MaxMoves]OrderedMove
	var mi = moveIteratorQS{position: &p, buffer: buffer[:]}
	mi.init()

	for m := mi.next(); m != MoveEmpty; m = mi.next() {
		check.True(isCaptureOrPromotion(m))
	}
}

func TestMoveIteratorQSFallsBackToFullMovesInCheck(t *testing.T) {
	var check = is.New(t)
	// White king on e1 is checked by a knight on d3 with no white piece
	// in range to capture it: every legal reply is a quiet king step.
	var p, err = NewPositionFromFEN("4k3/8/8/8/8/3n4/8/4K3 w - - 0 1")
	check.NoErr(err)
	check.True(p.IsCheck())

	var buffer [MaxMoves]OrderedMove
	var mi = moveIteratorQS{position: &p, buffer: buffer[:], inCheck: true}
	mi.init()

	var sawQuietEvasion = false
	for m := mi.next(); m != MoveEmpty; m = mi.next() {
		if !isCaptureOrPromotion(m) {
			sawQuietEvasion = true
		}
	}
	check.True(sawQuietEvasion)
}

func TestMoveToTopPicksHighestKey(t *testing.T) {
	var check = is.New(t)
	var ml = []OrderedMove{{Key: 3}, {Key: 9}, {Key: 1}, {Key: 5}}
	moveToTop(ml)
	check.Equal(ml[0].Key, 9)
}
