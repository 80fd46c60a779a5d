package engine

import (
	. "github.com/kheron-chess/corengine/common"
)

const historyMax = 1 << 14

// historyContext narrows a thread's shared history/continuation tables
// to one node's perspective: whose move it is, and which piece-to-square
// slots the previous one or two plies landed on.
type historyContext struct {
	thread     *thread
	sideToMove bool
	cont1      int
	cont2      int
}

func (t *thread) getHistoryContext(height int) historyContext {
	var sideToMove = t.stack[height].position.WhiteMove
	var cont1 = -1
	if prev := t.stack[height].position.LastMove; prev != MoveEmpty {
		cont1 = pieceSquareIndex(!sideToMove, prev)
	}
	var cont2 = -1
	if height > 0 {
		if prev := t.stack[height-1].position.LastMove; prev != MoveEmpty {
			cont2 = pieceSquareIndex(sideToMove, prev)
		}
	}
	return historyContext{thread: t, sideToMove: sideToMove, cont1: cont1, cont2: cont2}
}

// ReadTotal sums the move's plain from-to score with its continuation
// score against the previous one or two plies' piece-to-square slots.
func (h *historyContext) ReadTotal(m Move) int {
	var t = h.thread
	var score = int(t.mainHistory[sideFromToIndex(h.sideToMove, m)])
	var pieceTo = pieceSquareIndex(h.sideToMove, m)
	if h.cont1 != -1 {
		score += int(t.continuationHistory[h.cont1][pieceTo])
	}
	if h.cont2 != -1 {
		score += int(t.continuationHistory[h.cont2][pieceTo])
	}
	return score
}

// Update rewards the move that caused a beta cutoff (or, if none,
// simply closed the node) and penalizes every quiet move tried before it.
func (h *historyContext) Update(quietsSearched []Move, bestMove Move, depth int) {
	var t = h.thread
	var bonus = Min((depth/onePly)*(depth/onePly), 400)
	for _, m := range quietsSearched {
		var good = m == bestMove
		var fromTo = sideFromToIndex(h.sideToMove, m)
		updateHistory(&t.mainHistory[fromTo], bonus, good)
		var pieceTo = pieceSquareIndex(h.sideToMove, m)
		if h.cont1 != -1 {
			updateHistory(&t.continuationHistory[h.cont1][pieceTo], bonus, good)
		}
		if h.cont2 != -1 {
			updateHistory(&t.continuationHistory[h.cont2][pieceTo], bonus, good)
		}
		if good {
			break
		}
	}
}

func updateHistory(v *int16, bonus int, good bool) {
	var target = -historyMax
	if good {
		target = historyMax
	}
	*v += int16((target - int(*v)) * bonus / 512)
}

func (t *thread) clearHistory() {
	for i := range t.mainHistory {
		t.mainHistory[i] = 0
	}
	for i := range t.continuationHistory {
		for j := range t.continuationHistory[i] {
			t.continuationHistory[i][j] = 0
		}
	}
}

func pieceSquareIndex(side bool, move Move) int {
	var result = (move.MovingPiece() << 6) | move.To()
	if side {
		result |= 1 << 9
	}
	return result
}

func sideFromToIndex(side bool, move Move) int {
	var result = (move.From() << 6) | move.To()
	if side {
		result |= 1 << 12
	}
	return result
}
