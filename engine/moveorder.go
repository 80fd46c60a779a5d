package engine

import (
	. "github.com/kheron-chess/corengine/common"
)

// sortImportant separates "always try before ordinary history score"
// moves (TT move, good captures, killers) from the history-ordered
// long tail, mirroring CounterGo's moveiterator.go sortTableKeyImportant.
const sortImportant = 1 << 20

// moveIterator is the staged move picker for one node: TT move,
// then SEE-ordered captures/promotions, then killers, then
// history-ordered quiets, then bad (SEE<0) captures last.
type moveIterator struct {
	position *Position
	buffer   []OrderedMove
	history  historyContext
	ttMove   Move
	killer1  Move
	killer2  Move
	skip     map[Move]bool // root-only: moves already claimed by an earlier MultiPV slot
	count    int
	index    int
}

func (mi *moveIterator) init() {
	var raw [MaxMoves]Move
	var ml = GenerateMoves(raw[:], mi.position)
	mi.count = 0
	mi.index = 0
	for _, m := range ml {
		if mi.skip != nil && mi.skip[m] {
			continue
		}
		var i = mi.count
		mi.count++
		var score int
		switch {
		case m == mi.ttMove:
			score = sortImportant + 2_000_000
		case isCaptureOrPromotion(m):
			if seeGEZero(mi.position, m) {
				score = sortImportant + 1_000_000 + mvvlva(m)
			} else {
				score = mvvlva(m) - sortImportant // bad capture: after every quiet move
			}
		case m == mi.killer1:
			score = sortImportant + 1
		case m == mi.killer2:
			score = sortImportant
		default:
			score = mi.history.ReadTotal(m)
		}
		mi.buffer[i] = OrderedMove{Move: m, Key: score}
	}
}

// next selects the remaining move with the highest key and returns it,
// or MoveEmpty once the list is exhausted. Picking on demand rather
// than sorting up front keeps ordering correct even though a move's
// key (history) can in principle change between picks within one node
// (it does not here, but the contract does not rely on it being fixed).
func (mi *moveIterator) next() Move {
	if mi.index >= mi.count {
		return MoveEmpty
	}
	moveToTop(mi.buffer[mi.index:mi.count])
	var m = mi.buffer[mi.index].Move
	mi.index++
	return m
}

// moveIteratorQS emits captures, promotions, and — when genChecks is
// set — quiet checking moves, for quiescence search and
// for probcut's capture-only sampling at the main search depth. When
// the side to move is in check it instead emits the full legal move
// list: a capture-only picker would miss quiet check evasions
// (king steps, interpositions) and leave a node with legal replies
// looking like checkmate, exactly as CounterGo's own moveiterator.go
// falls back to GenerateMoves while in check.
type moveIteratorQS struct {
	position  *Position
	buffer    []OrderedMove
	genChecks bool
	inCheck   bool
	count     int
	index     int
}

func (mi *moveIteratorQS) init() {
	var raw [MaxMoves]Move
	var ml []Move
	if mi.inCheck {
		ml = GenerateMoves(raw[:], mi.position)
	} else {
		ml = GenerateCaptures(raw[:], mi.position, mi.genChecks)
	}
	mi.count = len(ml)
	mi.index = 0
	for i, m := range ml {
		mi.buffer[i] = OrderedMove{Move: m, Key: mvvlva(m)}
	}
}

func (mi *moveIteratorQS) next() Move {
	if mi.index >= mi.count {
		return MoveEmpty
	}
	moveToTop(mi.buffer[mi.index:mi.count])
	var m = mi.buffer[mi.index].Move
	mi.index++
	return m
}

func moveToTop(ml []OrderedMove) {
	var best = 0
	for i := 1; i < len(ml); i++ {
		if ml[i].Key > ml[best].Key {
			best = i
		}
	}
	if best != 0 {
		ml[0], ml[best] = ml[best], ml[0]
	}
}
