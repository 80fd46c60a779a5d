package engine

import (
	. "github.com/kheron-chess/corengine/common"
)

// Value bounds: a bounded signed integer in [-MATE, +MATE] with
// sentinels for unknown/draw/infinite and a mate band.
const (
	stackSize     = 128
	maxHeight     = stackSize - 2
	valueDraw     = 0
	valueNone     = 30002
	valueMate     = 30000
	valueInfinite = valueMate + 1
	valueWin      = valueMate - 2*maxHeight
	valueLoss     = -valueWin
	valueKnownWin = valueMate / 2
)

// Depth is counted in fractional plies; onePly lets the extension and
// reduction machinery express sub-ply adjustments.
const (
	onePly          = 2
	depthZero       = 0
	depthQSChecks   = -1
	depthQSNoChecks = depthQSChecks - onePly
	depthMinSplit   = 6 * onePly
)

// Piece material, centipawn scale; used by pruning margins, not by the
// (out of scope) Evaluator.
const (
	PawnValue   = 100
	KnightValue = 400
	BishopValue = 400
	RookValue   = 600
	QueenValue  = 1200
)

// Bound kinds: LOWER|UPPER == EXACT.
const (
	boundNone  = 0
	boundUpper = 1
	boundLower = 2
	boundExact = boundUpper | boundLower
)

func winIn(height int) int {
	return valueMate - height
}

func lossIn(height int) int {
	return -valueMate + height
}

func valueToTT(v, height int) int {
	if v == valueNone {
		return v
	}
	if v >= valueWin {
		return v + height
	}
	if v <= valueLoss {
		return v - height
	}
	return v
}

func valueFromTT(v, height int) int {
	if v == valueNone {
		return v
	}
	if v >= valueWin {
		return v - height
	}
	if v <= valueLoss {
		return v + height
	}
	return v
}

func newUciScore(v int) UciScore {
	if v >= valueWin {
		return UciScore{Mate: (valueMate - v + 1) / 2}
	} else if v <= valueLoss {
		return UciScore{Mate: (-valueMate - v) / 2}
	}
	return UciScore{Centipawns: v}
}

func isLateEndgame(p *Position, side bool) bool {
	// sample: position fen 8/8/6p1/1p2pk1p/1Pp1p2P/2PbP1P1/3N1P2/4K3 w - - 12 58
	var ownPieces = p.PiecesByColor(side)
	return ((p.Rooks|p.Queens)&ownPieces) == 0 &&
		!MoreThanOne((p.Knights|p.Bishops)&ownPieces)
}

func hasNonPawnMaterial(p *Position, side bool) bool {
	var ownPieces = p.PiecesByColor(side)
	return (p.Knights|p.Bishops|p.Rooks|p.Queens)&ownPieces != 0
}

func isCaptureOrPromotion(move Move) bool {
	return move.CapturedPiece() != Empty || move.Promotion() != Empty
}

func isPawnPush7th(move Move, side bool) bool {
	if move.MovingPiece() != Pawn {
		return false
	}
	var rank = Rank(move.To())
	if side {
		return rank == Rank7
	}
	return rank == Rank2
}

func isPawnAdvance(move Move, side bool) bool {
	if move.MovingPiece() != Pawn {
		return false
	}
	var rank = Rank(move.To())
	if side {
		return rank >= Rank5
	}
	return rank <= Rank4
}
