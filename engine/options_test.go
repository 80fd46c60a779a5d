package engine

import (
	"testing"

	"github.com/matryer/is"
)

func TestFutilityMarginShrinksWithMoveCount(t *testing.T) {
	var check = is.New(t)
	var lo = futilityMargin(3*onePly, 1)
	var hi = futilityMargin(3*onePly, 20)
	check.True(hi < lo) // later moves get a tighter (smaller) margin
}

func TestFutilityMarginDisabledFromDepthSeven(t *testing.T) {
	var check = is.New(t)
	check.Equal(futilityMargin(7*onePly, 1), 2*valueInfinite)
}

func TestFutilityMoveCountGrowsWithDepth(t *testing.T) {
	var check = is.New(t)
	check.True(futilityMoveCount(5*onePly) > futilityMoveCount(2*onePly))
}

func TestLMRReductionZeroForEarlyMoves(t *testing.T) {
	var check = is.New(t)
	check.Equal(lmrReduction(true, 3*onePly, 1), 0)
	check.Equal(lmrReduction(false, 3*onePly, 1), 0)
}

func TestLMRReductionGrowsWithMoveCount(t *testing.T) {
	var check = is.New(t)
	var early = lmrReduction(false, 8*onePly, 2)
	var late = lmrReduction(false, 8*onePly, 40)
	check.True(late >= early)
}

func TestLMRReductionNonPVAtLeastAsBigAsPV(t *testing.T) {
	var check = is.New(t)
	for d := 1; d < depthTableSize; d++ {
		for mn := 1; mn < moveTableSize; mn++ {
			check.True(reductionsNonPV[d][mn] >= reductionsPV[d][mn])
		}
	}
}

func TestClampDepthAndMoveIndexStayInBounds(t *testing.T) {
	var check = is.New(t)
	check.Equal(clampDepthIndex(-5), 1)
	check.Equal(clampDepthIndex(1000*onePly), depthTableSize-1)
	check.Equal(clampMoveIndex(0), 1)
	check.Equal(clampMoveIndex(1000), moveTableSize-1)
}

func TestRazorMarginGrowsWithDepth(t *testing.T) {
	var check = is.New(t)
	check.True(razorMargin(4*onePly) > razorMargin(onePly))
}
