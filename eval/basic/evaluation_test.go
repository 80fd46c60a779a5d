package basic

import (
	"testing"

	"github.com/matryer/is"

	. "github.com/kheron-chess/corengine/common"
)

func TestEvaluateInitialPositionIsBalanced(t *testing.T) {
	var check = is.New(t)
	var p, err = NewPositionFromFEN(InitialPositionFen)
	check.NoErr(err)

	var value, _ = NewEvaluationService().Evaluate(&p)
	check.Equal(value, 0)
}

func TestEvaluateFavorsSideUpAQueen(t *testing.T) {
	var check = is.New(t)
	var p, err = NewPositionFromFEN("rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	check.NoErr(err)

	var value, _ = NewEvaluationService().Evaluate(&p)
	check.Equal(value, queenValue+pst(&pstMidgame, Queen, SquareD1, true)) // the extra queen's material plus its d1 square value; everything else cancels
}

func TestEvaluateIsSideToMoveRelative(t *testing.T) {
	var check = is.New(t)
	var white, err = NewPositionFromFEN("rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	check.NoErr(err)
	var black, err2 = NewPositionFromFEN("rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1")
	check.NoErr(err2)

	var valueWhite, _ = NewEvaluationService().Evaluate(&white)
	var valueBlack, _ = NewEvaluationService().Evaluate(&black)
	check.Equal(valueWhite, -valueBlack)
}

func TestEvaluateMarginIsCapped(t *testing.T) {
	var check = is.New(t)
	var p, err = NewPositionFromFEN(InitialPositionFen)
	check.NoErr(err)

	var _, margin = NewEvaluationService().Evaluate(&p)
	check.True(margin >= 0 && margin <= 120)
}
