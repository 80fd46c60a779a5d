package engine

import (
	"errors"
	"sync/atomic"

	. "github.com/kheron-chess/corengine/common"
)

// errSearchTimeout is panicked from incNodes/pollIfDue once the time
// manager's context is done, and recovered at the top of the
// iterative-deepening driver and in the thread pool's idle loop.
var errSearchTimeout = errors.New("search timeout")

const nodesBetweenPolls = 2047

// incNodes bumps both this thread's and the engine's live node counts
// and, for thread 0, checks whether the search should stop. Matching
// CounterGo's search.go, this is the only place the node budget is
// enforced inside the recursive search; pollIfDue also checks the time
// manager on thread 0.
func (t *thread) incNodes() {
	t.nodes++
	var n = atomic.AddInt64(&t.engine.liveNodes, 1)
	if t.id == 0 && n&nodesBetweenPolls == 0 {
		t.engine.timeManager.OnNodesChanged(n)
		if t.engine.timeManager.IsDone() {
			panic(errSearchTimeout)
		}
	}
}

// excludedMoveKey perturbs a position's Zobrist key for the singular
// extension's "same position, but what if this move didn't exist"
// probe.
func excludedMoveKey(move Move) uint64 {
	return uint64(move) * 0x9e3779b97f4a7c15
}

func (t *thread) isDraw(height int) bool {
	var position = &t.stack[height].position
	if position.Rule50 >= 100 {
		return true
	}
	if (position.Pawns|position.Rooks|position.Queens) == 0 &&
		!MoreThanOne(position.Knights|position.Bishops) {
		return true // insufficient material
	}
	if t.isRepeat(height) {
		return true
	}
	return false
}

func (t *thread) isRepeat(height int) bool {
	var position = &t.stack[height].position
	if t.engine.historyKeys[position.Key] >= 2 {
		return true // position already occurred twice before this search started
	}
	for h := height - 2; h >= 0 && h >= height-position.Rule50; h -= 2 {
		if position.IsRepetition(&t.stack[h].position) {
			return true
		}
	}
	return false
}

func (t *thread) updateKiller(move Move, height int) {
	var frame = &t.stack[height]
	if frame.killer1 != move {
		frame.killer2 = frame.killer1
		frame.killer1 = move
	}
}

// evaluateStatic calls the out-of-scope Evaluator collaborator directly,
// used at maxHeight where recursing further is not possible.
func (t *thread) evaluateStatic(p *Position) int {
	var v, _ = t.evaluator.Evaluate(p)
	return v
}

// quiescence resolves captures at a node: stand-pat, then captures
// (and, on the first quiescence ply only, quiet checks) ordered by
// MVV-LVA and filtered by SEE/delta pruning, until no capture improves
// on alpha. depth is the quiescence horizon, decreasing by onePly each
// ply below the depthZero frontier; it gates quiet-check generation
// separately from ttDepth, which instead reflects this node's own
// in-check status for TT storage.
func (t *thread) quiescence(alpha, beta, depth, height int) int {
	if t.id == 0 {
		t.pollIfDue()
	}

	var frame = &t.stack[height]
	frame.pv.clear()
	var position = &frame.position
	var isCheck = position.IsCheck()

	if height >= maxHeight {
		return t.evaluateStatic(position)
	}
	if t.isDraw(height) {
		return valueDraw
	}

	var ttDepth = depthQSNoChecks
	if isCheck {
		ttDepth = depthQSChecks
	}
	var posKey = position.Key
	var tte = t.engine.transTable.Probe(posKey)
	if tte.Found() {
		if v, ok := OkToUseTT(tte, ttDepth, beta, height); ok {
			return v
		}
	}

	var bestValue int
	var staticEval, evalMargin int
	if isCheck {
		bestValue = lossIn(height)
	} else if tte.Found() && tte.Eval != valueNone {
		staticEval = tte.Eval
		evalMargin = tte.EvalMargin
		bestValue = staticEval
	} else {
		staticEval, evalMargin = t.evaluator.Evaluate(position)
		bestValue = staticEval
	}
	frame.staticEval = staticEval

	var bestMove = MoveEmpty
	var pvNode = beta != alpha+1

	if !isCheck {
		if bestValue > alpha {
			alpha = bestValue
		}
		if bestValue >= beta {
			if !tte.Found() {
				t.engine.transTable.Store(posKey, valueToTT(bestValue, height), boundLower, ttDepth, MoveEmpty, staticEval, evalMargin)
			}
			return bestValue
		}
	}

	var futilityBase = bestValue + 50

	var mi = moveIteratorQS{
		position:  position,
		buffer:    frame.moveBuffer[:],
		genChecks: !isCheck && depth >= depthQSChecks,
		inCheck:   isCheck,
	}
	mi.init()

	var moveCount = 0
	for {
		var move = mi.next()
		if move == MoveEmpty {
			break
		}

		var quiet = !isCaptureOrPromotion(move)
		if !isCheck {
			if quiet {
				if !checkIsDangerous(position, move, futilityBase, beta) {
					continue
				}
			} else if !isDangerCapture(position, move) {
				if futilityBase+moveValue(move) <= alpha {
					continue
				}
				if !seeGEZero(position, move) {
					continue
				}
			}
		} else if bestValue > valueLoss && !seeGEZero(position, move) {
			continue // in check: once an evasion has scored above a mate loss, SEE-negative ones are not tried
		}

		var child = &t.stack[height+1].position
		if !position.MakeMove(move, child) {
			continue
		}
		t.stack[height+1].sp = nil
		t.incNodes()
		moveCount++

		var score = -t.quiescence(-beta, -alpha, depth-onePly, height+1)
		if score > bestValue {
			bestValue = score
			bestMove = move
			if pvNode {
				frame.pv.assign(move, &t.stack[height+1].pv)
			}
			if score > alpha {
				alpha = score
				if score >= beta {
					break
				}
			}
		}
	}

	if isCheck && moveCount == 0 {
		return lossIn(height)
	}

	var bound = boundUpper
	if bestValue >= beta {
		bound = boundLower
	}
	t.engine.transTable.Store(posKey, valueToTT(bestValue, height), bound, ttDepth, bestMove, staticEval, evalMargin)
	return bestValue
}

// alphaBeta is the main search node pipeline: split-point re-entry,
// draw/mate-distance pruning, TT probe,
// static eval, razoring/static-null/null-move/probcut, IID, singular
// extension, the move loop (with LMP/futility/SEE pruning, check and
// recapture extensions, LMR and the PVS re-search ladder), and finally
// mate/stalemate detection and the TT store.
func (t *thread) alphaBeta(alpha, beta, depth, height int, excludedMove Move) int {
	if sp := t.stack[height].sp; sp != nil && excludedMove == MoveEmpty {
		return t.searchSplitPoint(sp, height)
	}
	if depth <= depthZero {
		return t.quiescence(alpha, beta, depthZero, height)
	}

	var rootNode = height == 0
	var pvNode = beta != alpha+1
	var frame = &t.stack[height]
	frame.pv.clear()
	frame.brokenThreat = false
	var position = &frame.position
	var isCheck = position.IsCheck()

	if t.id == 0 {
		t.pollIfDue()
	}

	if !rootNode {
		if height >= maxHeight {
			return t.evaluateStatic(position)
		}
		if t.isDraw(height) {
			return valueDraw
		}
		alpha = Max(alpha, lossIn(height))
		beta = Min(beta, winIn(height+1))
		if alpha >= beta {
			return alpha
		}
	}

	var posKey = position.Key
	if excludedMove != MoveEmpty {
		posKey ^= excludedMoveKey(excludedMove)
	}

	var tte = t.engine.transTable.Probe(posKey)
	var ttMove = MoveEmpty
	if tte.Found() {
		ttMove = tte.Move
		var ttValue = valueFromTT(tte.Value, height)
		var usable bool
		if pvNode {
			usable = tte.Bound == boundExact && ttValue > alpha && ttValue < beta
		} else {
			_, usable = OkToUseTT(tte, depth, beta, height)
		}
		if usable {
			if ttMove != MoveEmpty && !isCaptureOrPromotion(ttMove) && ttValue >= beta {
				t.updateKiller(ttMove, height)
			}
			return ttValue
		}
	}

	var staticEval, evalMargin int
	if isCheck {
		staticEval = valueNone
	} else if tte.Found() && tte.Eval != valueNone {
		staticEval = tte.Eval
		evalMargin = tte.EvalMargin
	} else {
		staticEval, evalMargin = t.evaluator.Evaluate(position)
		if excludedMove == MoveEmpty {
			t.engine.transTable.Store(posKey, valueNone, boundNone, depthZero, MoveEmpty, staticEval, evalMargin)
		}
	}
	frame.staticEval = staticEval
	var improving = isCheck || height < 2 || t.stack[height-2].staticEval == valueNone ||
		staticEval > t.stack[height-2].staticEval

	if !rootNode && !isCheck && excludedMove == MoveEmpty {
		if !pvNode && ttMove == MoveEmpty && depth < 4*onePly {
			var rBeta = beta - razorMargin(depth)
			if staticEval < rBeta {
				if v := t.quiescence(rBeta-1, rBeta, depthZero, height); v < rBeta {
					return v
				}
			}
		}

		if !pvNode && depth < 8*onePly && hasNonPawnMaterial(position, position.WhiteMove) {
			var margin = futilityMargin(depth, 0)
			if !improving {
				margin -= margin / 4
			}
			if staticEval-margin >= beta {
				return staticEval - margin
			}
		}

		if !pvNode && !frame.skipNullMove && depth > onePly && staticEval >= beta &&
			hasNonPawnMaterial(position, position.WhiteMove) && position.LastMove != MoveEmpty &&
			!isLateEndgame(position, position.WhiteMove) {

			var reduction = 3*onePly + depth/4
			if staticEval-PawnValue > beta {
				reduction += onePly
			}
			var child = &t.stack[height+1].position
			position.MakeNullMove(child)
			t.stack[height+1].sp = nil
			t.incNodes()
			var score = -t.alphaBeta(-beta, -(beta - 1), depth-reduction, height+1, MoveEmpty)

			if score >= beta {
				if score >= valueWin {
					score = beta
				}
				if depth < 12*onePly {
					return score
				}
				frame.skipNullMove = true
				var v = t.alphaBeta(beta-1, beta, depth-reduction, height, MoveEmpty)
				frame.skipNullMove = false
				if v >= beta {
					return score
				}
				frame.brokenThreat = true
			}
		}

		if !pvNode && depth >= 5*onePly {
			var probcutBeta = Min(beta+200, valueKnownWin)
			var mi = moveIteratorQS{position: position, buffer: frame.moveBuffer[:], genChecks: false}
			mi.init()
			for {
				var m = mi.next()
				if m == MoveEmpty {
					break
				}
				if !seeGEZero(position, m) {
					continue
				}
				var child = &t.stack[height+1].position
				if !position.MakeMove(m, child) {
					continue
				}
				t.stack[height+1].sp = nil
				t.incNodes()
				var s = -t.alphaBeta(-probcutBeta, -(probcutBeta - 1), depth-4*onePly, height+1, MoveEmpty)
				if s >= probcutBeta {
					return s
				}
			}
		}
	}

	if ttMove == MoveEmpty && excludedMove == MoveEmpty && !isCheck {
		var iidEligible = (pvNode && depth >= 5*onePly) ||
			(!pvNode && depth >= 8*onePly && staticEval+100 >= beta)
		if iidEligible {
			var iidDepth = depth - 2*onePly
			if !pvNode {
				iidDepth = depth / 2
			}
			t.alphaBeta(alpha, beta, iidDepth, height, MoveEmpty)
			if tte2 := t.engine.transTable.Probe(posKey); tte2.Found() {
				ttMove = tte2.Move
			}
		}
	}

	var singularMove = MoveEmpty
	if !rootNode && excludedMove == MoveEmpty && ttMove != MoveEmpty &&
		depth >= 8*onePly && tte.Found() && tte.Depth >= depth-3*onePly && (tte.Bound&boundLower) != 0 {
		var singularBeta = valueFromTT(tte.Value, height) - (depth / onePly)
		if v := t.alphaBeta(singularBeta-1, singularBeta, depth/2, height, ttMove); v < singularBeta {
			singularMove = ttMove
		}
	}

	var hc = t.getHistoryContext(height)
	var mi = moveIterator{
		position: position,
		buffer:   frame.moveBuffer[:],
		history:  hc,
		ttMove:   ttMove,
		killer1:  frame.killer1,
		killer2:  frame.killer2,
	}
	if rootNode {
		mi.skip = t.engine.rootExcluded
	}
	mi.init()

	var bestValue = -valueInfinite
	var bestMove = MoveEmpty
	var moveCount = 0
	var quietsSearched = frame.quietsSearched[:0]
	var alphaOrig = alpha

	for {
		var move = mi.next()
		if move == MoveEmpty {
			break
		}
		if move == excludedMove {
			continue
		}

		var nodesBefore = t.nodes
		var score, legal, quiet = t.searchMove(height, depth, alpha, beta, moveCount, move, singularMove, pvNode, rootNode, isCheck, bestValue)
		if !legal {
			continue
		}
		moveCount++
		if rootNode {
			t.engine.rootMoveNodes[move] += t.nodes - nodesBefore
		}
		if quiet {
			quietsSearched = append(quietsSearched, move)
		}

		if score > bestValue {
			bestValue = score
			bestMove = move
			if pvNode {
				frame.pv.assign(move, &t.stack[height+1].pv)
			}
			if score > alpha {
				alpha = score
				if score >= beta {
					break
				}
			}
		}

		if moveCount == 1 && !rootNode && depth >= depthMinSplit && t.poolHasIdleThread() {
			var sp = t.split(height, depth, alpha, beta, bestValue, bestMove, quietsSearched, &mi, pvNode)
			bestValue = sp.bestValue
			bestMove = sp.bestMove
			quietsSearched = sp.quietsSearched
			if sp.moveCount > moveCount {
				moveCount = sp.moveCount
			}
			break
		}
	}

	if moveCount == 0 {
		if excludedMove != MoveEmpty {
			return alpha
		}
		if isCheck {
			return lossIn(height)
		}
		return valueDraw
	}

	if bestMove != MoveEmpty && !isCaptureOrPromotion(bestMove) && bestValue >= beta {
		t.updateKiller(bestMove, height)
		hc.Update(quietsSearched, bestMove, depth)
	}

	if excludedMove == MoveEmpty {
		var bound = boundUpper
		if bestValue >= beta {
			bound = boundLower
		} else if bestValue > alphaOrig {
			bound = boundExact
		}
		t.engine.transTable.Store(posKey, valueToTT(bestValue, height), bound, depth, bestMove, staticEval, evalMargin)
	}

	return bestValue
}

// searchMove applies per-move pruning (late
// move pruning, futility, SEE on losing captures), then the check,
// singular, recapture and pawn-push-to-seventh extensions, then
// hands off to searchChild for LMR and the PVS re-search ladder.
// legal reports whether MakeMove accepted move; callers must not
// advance their own move-count when it is false.
func (t *thread) searchMove(height, depth, alpha, beta, moveCount int, move, singularMove Move,
	pvNode, rootNode, isCheck bool, bestValue int) (score int, legal, quiet bool) {

	var frame = &t.stack[height]
	var position = &frame.position
	quiet = !isCaptureOrPromotion(move)

	if !rootNode && !isCheck && bestValue > valueLoss && moveCount > 0 && move != singularMove {
		if quiet {
			// A null-move search that failed low on the verification re-search
			// (frame.brokenThreat) means the side to move is sitting on a real
			// threat the opponent's null move couldn't dodge; a quiet move
			// here may be the only reply that meets that threat, so LMP and
			// futility are skipped rather than risking pruning it away.
			if !frame.brokenThreat {
				if moveCount >= futilityMoveCount(depth) {
					return 0, false, quiet
				}
				if depth < 8*onePly && frame.staticEval+futilityMargin(depth, moveCount) <= alpha {
					return 0, false, quiet
				}
			}
		} else if depth < 6*onePly && !isDangerCapture(position, move) && !seeGEZero(position, move) {
			return 0, false, quiet
		}
	}

	var child = &t.stack[height+1].position
	if !position.MakeMove(move, child) {
		return 0, false, quiet
	}
	t.stack[height+1].sp = nil
	t.incNodes()

	var givesCheck = child.IsCheck()
	var newDepth = depth - onePly
	switch {
	case isCheck || givesCheck:
		newDepth += onePly
	case move == singularMove:
		newDepth += onePly
	case isPawnPush7th(move, position.WhiteMove):
		newDepth += onePly
	case move.CapturedPiece() != Empty && position.LastMove != MoveEmpty && position.LastMove.To() == move.To():
		newDepth += onePly
	}

	var pawnAdvance = isPawnAdvance(move, position.WhiteMove)
	score = t.searchChild(height, alpha, beta, newDepth, moveCount, pvNode, quiet, givesCheck, pawnAdvance)
	return score, true, quiet
}

// searchChild runs the recursive search for one already-made move and
// returns its score from the parent's perspective: a zero-window probe
// at reduced depth (LMR) when eligible, escalating to a zero-window
// full-depth probe and finally a full-window search when a probe beats
// alpha, exactly the PVS ladder CounterGo's search.go uses. A pawn push
// already past the middle of the board is never reduced: it is the kind
// of sharp, easy-to-misjudge move CounterGo's own search.go carves out
// of late move reduction.
func (t *thread) searchChild(height, alpha, beta, newDepth, moveCount int, pvNode, quiet, givesCheck, pawnAdvance bool) int {
	if moveCount == 0 {
		return -t.alphaBeta(-beta, -alpha, newDepth, height+1, MoveEmpty)
	}

	var reduction = 0
	if quiet && !givesCheck && !pawnAdvance {
		reduction = lmrReduction(pvNode, newDepth, moveCount)
		if newDepth-reduction < onePly {
			reduction = Max(0, newDepth-onePly)
		}
	}

	var score = -t.alphaBeta(-(alpha + 1), -alpha, newDepth-reduction, height+1, MoveEmpty)
	if score > alpha && reduction > 0 {
		score = -t.alphaBeta(-(alpha + 1), -alpha, newDepth, height+1, MoveEmpty)
	}
	if score > alpha && pvNode {
		score = -t.alphaBeta(-beta, -alpha, newDepth, height+1, MoveEmpty)
	}
	return score
}

// searchSplitPoint is a participant's entire contribution to a
// SplitPoint: draw a move from the shared iterator, try it with the
// same pruning/extension/LMR logic as the serial loop, and fold the
// result back in, until the iterator is dry or a sibling reports a
// cutoff.
func (t *thread) searchSplitPoint(sp *SplitPoint, height int) int {
	var frame = &t.stack[height]
	frame.position = sp.position
	var isCheck = frame.position.IsCheck()

	for {
		var move, alpha, beta, bestValue, moveCount, ok = sp.nextMove()
		if !ok {
			return sp.bestValue
		}

		var score, legal, _ = t.searchMove(height, sp.depth, alpha, beta, moveCount, move, MoveEmpty, sp.pvNode, false, isCheck, bestValue)
		if !legal {
			continue
		}
		sp.noteLegalMove()
		sp.commitResult(t, move, score, &t.stack[height+1].pv, height)
	}
}

func (t *thread) poolHasIdleThread() bool {
	var pool = t.engine.pool
	if pool == nil || len(pool.threads) <= 1 {
		return false
	}
	pool.mu.Lock()
	defer pool.mu.Unlock()
	for i, slave := range pool.threads {
		if i != t.id && pool.job[i] == nil && atomic.LoadInt32(&slave.busy) == 0 {
			return true
		}
	}
	return false
}

// pollIfDue checks the time manager on every call, made at each
// alphaBeta/quiescence entry of the master's own recursion and
// independent of incNodes' node-count poll, so
// that deep plain recursion (no null-move/probcut side calls) still
// notices a stop promptly.
func (t *thread) pollIfDue() {
	if t.engine.timeManager.IsDone() {
		panic(errSearchTimeout)
	}
}
