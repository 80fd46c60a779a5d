// Package basic is the minimal Evaluator collaborator the search core
// needs to run and be tested: material plus piece-square tables, tapered
// between middlegame and endgame by remaining non-pawn material. It is
// deliberately untuned.
package basic

import (
	. "github.com/kheron-chess/corengine/common"
)

const (
	pawnValue   = 100
	knightValue = 400
	bishopValue = 400
	rookValue   = 600
	queenValue  = 1200
)

// Game-phase weights and the all-material total, CounterGo pesto-style
// tapering (other_examples' pesto evaluation.go uses the same idea with
// different constants; this rescales to the classic 24-point scale).
const (
	knightPhase = 1
	bishopPhase = 1
	rookPhase   = 2
	queenPhase  = 4
	totalPhase  = 4*(knightPhase+bishopPhase) + 4*rookPhase + 2*queenPhase
)

// EvaluationService is a material+PST Evaluator implementing
// engine.Evaluator's Evaluate(p) (value, margin) signature without
// importing the engine package: Go interfaces are satisfied
// structurally.
type EvaluationService struct{}

func NewEvaluationService() *EvaluationService {
	return &EvaluationService{}
}

func (e *EvaluationService) Evaluate(p *Position) (value, margin int) {
	var mg, eg int
	var phase int

	var add = func(piece int, white bool, matValue int) {
		var own = p.White
		if !white {
			own = p.Black
		}
		var pieces uint64
		switch piece {
		case Pawn:
			pieces = p.Pawns & own
		case Knight:
			pieces = p.Knights & own
		case Bishop:
			pieces = p.Bishops & own
		case Rook:
			pieces = p.Rooks & own
		case Queen:
			pieces = p.Queens & own
		case King:
			pieces = p.Kings & own
		}
		var sign = 1
		if !white {
			sign = -1
		}
		for b := pieces; b != 0; b &= b - 1 {
			var sq = FirstOne(b)
			mg += sign * (matValue + pst(&pstMidgame, piece, sq, white))
			eg += sign * (matValue + pst(&pstEndgame, piece, sq, white))
		}
	}

	for _, white := range [2]bool{true, false} {
		add(Pawn, white, pawnValue)
		add(Knight, white, knightValue)
		add(Bishop, white, bishopValue)
		add(Rook, white, rookValue)
		add(Queen, white, queenValue)
		add(King, white, 0)
	}

	phase = knightPhase*PopCount(p.Knights) + bishopPhase*PopCount(p.Bishops) +
		rookPhase*PopCount(p.Rooks) + queenPhase*PopCount(p.Queens)
	if phase > totalPhase {
		phase = totalPhase
	}

	value = (mg*phase + eg*(totalPhase-phase)) / totalPhase
	if !p.WhiteMove {
		value = -value
	}

	margin = AbsDelta(mg, eg) / 8
	if margin > 120 {
		margin = 120
	}
	return value, margin
}
