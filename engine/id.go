package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	. "github.com/kheron-chess/corengine/common"
)

// easyMoveMargin and aspirationWindow are the early-stop margin and
// starting aspiration delta of the classic id_loop-style iterative
// deepening driver, rescaled to our centipawn scale.
const (
	easyMoveMargin   = 50
	aspirationWindow = 16
)

// iterativeDeepening is the call tree the cancellation panic is scoped
// to: deepen a ply at a time, widen-on-fail aspiration windows around
// the root, rank MultiPV slots, and apply the easyMove/bestMoveChanges
// early-stop heuristics below.
// It returns normally once depth-limited, once no further iteration can
// complete before the time manager is done, or once an early-stop
// condition fires; a search-timeout panic from deep inside a partially
// searched iteration is recovered here and simply ends the loop, since
// Engine.commitIteration is only ever called for a fully completed one.
func (e *Engine) iterativeDeepening(ctx context.Context) {
	var master = e.pool.threads[0]
	var legalMoves = GenerateLegalMoves(&master.stack[0].position)
	if len(legalMoves) == 0 {
		return
	}

	e.rootMoves = lo.Map(legalMoves, func(m Move, _ int) RootMove {
		return RootMove{PV: []Move{m}}
	})

	var multiPV = e.MultiPV
	if multiPV < 1 {
		multiPV = 1
	}
	if multiPV > len(legalMoves) {
		multiPV = len(legalMoves)
	}

	var stopHelpers = e.pool.lazySMPHelpers()
	defer stopHelpers()
	defer func() {
		if r := recover(); r != nil && r != errSearchTimeout {
			panic(r)
		}
	}()

	var bestValues [stackSize]int
	var bestMoveChanges [stackSize]int
	var easyMove = MoveEmpty
	var prevBest = MoveEmpty

	for depth := 1; depth < maxHeight; depth++ {
		if e.timeManager.limits.Depth != 0 && depth > e.timeManager.limits.Depth {
			return
		}
		if e.timeManager.IsDone() {
			return
		}
		master.rootDepth = depth * onePly

		var excluded = make(map[Move]bool, multiPV)
		var slots = make([]RootMove, multiPV)
		var complete = true

		for pvIndex := 0; pvIndex < multiPV; pvIndex++ {
			e.rootExcluded = excluded
			var prevScore = 0
			if depth > 1 {
				prevScore = e.rootMoves[pvIndex].Score
			}
			var score = e.searchRoot(master, depth*onePly, prevScore)
			if e.timeManager.IsDone() {
				complete = false
				break
			}
			var pv = master.stack[0].pv.toSlice()
			if len(pv) == 0 {
				complete = false
				break
			}
			excluded[pv[0]] = true
			slots[pvIndex] = RootMove{PV: pv, Score: score, Nodes: e.rootMoveNodes[pv[0]]}
		}
		e.rootExcluded = nil

		if !complete {
			return // the last fully completed iteration's mainLine stands
		}

		copy(e.rootMoves, slots)
		bestValues[depth] = slots[0].Score
		var bestMove = slots[0].PV[0]

		bestMoveChanges[depth] = bestMoveChanges[depth-1]
		if depth > 1 && bestMove != prevBest {
			bestMoveChanges[depth]++
		}
		prevBest = bestMove

		if depth == 1 {
			if len(slots) == 1 || slots[0].Score > secondBestScore(slots)+easyMoveMargin {
				easyMove = bestMove
			}
		} else if bestMove != easyMove {
			easyMove = MoveEmpty
		}

		e.commitIteration(slots[0].PV, depth, slots[0].Score)

		if e.shouldStopEarly(depth, bestValues, bestMoveChanges, easyMove) {
			return
		}
	}
}

func secondBestScore(slots []RootMove) int {
	if len(slots) < 2 {
		return -valueInfinite
	}
	return slots[1].Score
}

// searchRoot runs one depth's root search, widening the aspiration
// window around prevScore on fail-high/low until a score lands
// strictly inside the window or the time manager calls it.
func (e *Engine) searchRoot(t *thread, depth, prevScore int) int {
	if depth <= 4*onePly || prevScore >= valueKnownWin || prevScore <= -valueKnownWin {
		return t.alphaBeta(-valueInfinite, valueInfinite, depth, 0, MoveEmpty)
	}

	var delta = aspirationWindow
	var alpha = Max(prevScore-delta, -valueInfinite)
	var beta = Min(prevScore+delta, valueInfinite)

	for {
		var score = t.alphaBeta(alpha, beta, depth, 0, MoveEmpty)
		if e.timeManager.IsDone() {
			return score
		}
		if score <= alpha {
			beta = (alpha + beta) / 2
			alpha = Max(score-delta, -valueInfinite)
		} else if score >= beta {
			beta = Min(score+delta, valueInfinite)
		} else {
			return score
		}
		delta += delta / 2
		if Abs(score) >= valueKnownWin {
			return score
		}
	}
}

func Abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// shouldStopEarly applies the iterative-deepening driver's early-stop
// block: an already-resolved mate score stable
// across two iterations, the easyMove heuristic (one move dominates
// both the node share and the fraction of available time spent), a
// best-move-instability time extension, and a hard 62%-of-available-time
// safety net. None of it fires for infinite/ponder searches or once no
// clock-based limit was set (softLimit == 0).
func (e *Engine) shouldStopEarly(depth int, bestValues, bestMoveChanges [stackSize]int, easyMove Move) bool {
	var tm = e.timeManager
	if tm.limits.Infinite || tm.limits.Ponder || tm.softLimit == 0 {
		return false
	}

	if depth >= 5 &&
		Abs(bestValues[depth]) >= valueWin && Abs(bestValues[depth-1]) >= valueWin &&
		Abs(bestValues[depth]) > Abs(bestValues[depth-1]) {
		tm.Stop()
		return true
	}

	var elapsed = time.Since(tm.start)
	var available = tm.hardLimit
	if available == 0 {
		available = tm.softLimit
	}

	if depth >= 7 && easyMove != MoveEmpty && len(e.rootMoves) > 0 && easyMove == e.rootMoves[0].PV[0] {
		var total = atomic.LoadInt64(&e.liveNodes)
		var bestShare = e.rootMoveNodes[easyMove]
		switch {
		case len(e.rootMoves) == 1:
			tm.Stop()
			return true
		case total > 0 && bestShare*100 > total*85 && elapsed > available/16:
			tm.Stop()
			return true
		case total > 0 && bestShare*100 > total*98 && elapsed > available/32:
			tm.Stop()
			return true
		}
	}

	var softBudget = tm.softLimit
	if depth > 4 && depth < 50 {
		softBudget = pvInstabilityExtend(softBudget, bestMoveChanges[depth], bestMoveChanges[depth-1])
	}
	if elapsed > softBudget {
		tm.Stop()
		return true
	}

	if elapsed > available*62/100 {
		tm.Stop()
		return true
	}

	return false
}

// pvInstabilityExtend grows the soft time budget when the best move has
// changed recently: a simplified, linear stand-in for a PV-instability
// lookup table, driven by the same two-iteration signal
// (bestMoveChanges[depth], bestMoveChanges[depth-1]).
func pvInstabilityExtend(soft time.Duration, changesNow, changesPrev int) time.Duration {
	var factor = 1.0 + 0.05*float64(changesNow) + 0.03*float64(changesPrev)
	return time.Duration(float64(soft) * factor)
}
