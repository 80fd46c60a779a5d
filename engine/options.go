package engine

import "math"

// Futility, late-move-pruning and LMR tables, computed once at package
// init. Indexed by depth
// in whole plies (depth/onePly) and by move count within the node's
// move loop.
const (
	depthTableSize = 32
	moveTableSize  = 64
)

var futilityMoveCounts [depthTableSize]int
var futilityMargins [depthTableSize][moveTableSize]int
var reductionsPV [depthTableSize][moveTableSize]int
var reductionsNonPV [depthTableSize][moveTableSize]int

func init() {
	for d := 1; d < depthTableSize; d++ {
		futilityMoveCounts[d] = int(3.001 + 0.25*float64(d*d))
		for mn := 1; mn < moveTableSize; mn++ {
			if d < 7 {
				futilityMargins[d][mn] = int(112*(math.Log(float64(d*d)/2)/math.Ln2+1.001)) - 8*mn + 45
			} else {
				futilityMargins[d][mn] = 2 * valueInfinite
			}
			var pv = math.Log(float64(d)) * math.Log(float64(mn)) / 3
			var nonPV = 0.33 + math.Log(float64(d))*math.Log(float64(mn))/2.25
			reductionsPV[d][mn] = reductionSteps(pv)
			reductionsNonPV[d][mn] = reductionSteps(nonPV)
		}
	}
}

func reductionSteps(v float64) int {
	if v < 1.0 {
		return 0
	}
	return int(v) * onePly
}

func clampDepthIndex(depth int) int {
	var d = depth / onePly
	if d < 1 {
		d = 1
	}
	if d >= depthTableSize {
		d = depthTableSize - 1
	}
	return d
}

func clampMoveIndex(moveCount int) int {
	if moveCount < 1 {
		moveCount = 1
	}
	if moveCount >= moveTableSize {
		moveCount = moveTableSize - 1
	}
	return moveCount
}

func futilityMargin(depth, moveCount int) int {
	return futilityMargins[clampDepthIndex(depth)][clampMoveIndex(moveCount)]
}

// futilityMoveCount is the late-move-pruning threshold: once a node has
// tried this many moves (captures included), every later quiet move is
// skipped outright instead of being searched at all.
func futilityMoveCount(depth int) int {
	return futilityMoveCounts[clampDepthIndex(depth)]
}

func lmrReduction(pvNode bool, depth, moveCount int) int {
	var d, mn = clampDepthIndex(depth), clampMoveIndex(moveCount)
	if pvNode {
		return reductionsPV[d][mn]
	}
	return reductionsNonPV[d][mn]
}

// razorMargin grounds razoring on other_examples/hailam-chessplay__search.go's
// constants, rescaled from whole plies to our onePly=2 depth unit.
// Reverse futility pruning reuses futilityMargin(depth, 0) instead of a
// separate table.
func razorMargin(depth int) int {
	return 300 + 100*(depth/onePly)
}
