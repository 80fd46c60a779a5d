package engine

import (
	. "github.com/kheron-chess/corengine/common"
)

var pieceValuesSEE = [...]int{0, 1, 4, 4, 6, 12, 120}

var pieceValues = [...]int{0, PawnValue, KnightValue, BishopValue, RookValue, QueenValue, QueenValue * 10}

func moveValue(move Move) int {
	var result = pieceValues[move.CapturedPiece()]
	if move.Promotion() != Empty {
		result += pieceValues[move.Promotion()] - pieceValues[Pawn]
	}
	return result
}

func mvvlva(move Move) int {
	var captureScore = pieceValuesSEE[move.CapturedPiece()]
	if move.Promotion() != Empty {
		captureScore += pieceValuesSEE[move.Promotion()] - pieceValuesSEE[Pawn]
	}
	return captureScore*8 - move.MovingPiece()
}

func getAttacks(p *Position, to int, side bool, occ uint64) uint64 {
	var att = (PawnAttacks(to, !side) & p.Pawns) |
		(KnightAttacks[to] & p.Knights) |
		(KingAttacks[to] & p.Kings) |
		(BishopAttacks(to, occ) & (p.Bishops | p.Queens)) |
		(RookAttacks(to, occ) & (p.Rooks | p.Queens))
	return p.PiecesByColor(side) & att
}

func getLeastValuableAttacker(p *Position, to int, side bool, occ uint64) (attacker, from int) {
	attacker = Empty
	from = SquareNone
	var att = getAttacks(p, to, side, occ) & occ
	if att == 0 {
		return
	}
	var newTarget = pieceValuesSEE[King] + 1
	for ; att != 0; att &= att - 1 {
		var f = FirstOne(att)
		var piece = p.WhatPiece(f)
		if pieceValuesSEE[piece] < newTarget {
			attacker = piece
			from = f
			newTarget = pieceValuesSEE[piece]
		}
	}
	return
}

// seeGE implements SEE (static exchange evaluation),
// used to order captures and to prune losing ones.
func seeGE(p *Position, move Move, bound int) bool {
	var piece = move.MovingPiece()
	var score0 = pieceValuesSEE[move.CapturedPiece()]
	if promotion := move.Promotion(); promotion != Empty {
		piece = promotion
		score0 += pieceValuesSEE[promotion] - pieceValuesSEE[Pawn]
	}
	var to = move.To()
	var occ = (p.White ^ p.Black) &^ SquareMask[move.From()]
	occ |= SquareMask[to]
	var side = !p.WhiteMove
	var relativeStm = true
	var balance = score0 - bound
	if balance < 0 {
		return false
	}
	balance -= pieceValuesSEE[piece]
	if balance >= 0 {
		return true
	}
	for {
		var nextVictim, from = getLeastValuableAttacker(p, to, side, occ)
		if nextVictim == Empty {
			return relativeStm
		}
		if piece == King {
			return !relativeStm
		}
		occ ^= SquareMask[from]
		piece = nextVictim
		if relativeStm {
			balance += pieceValuesSEE[nextVictim]
		} else {
			balance -= pieceValuesSEE[nextVictim]
		}
		relativeStm = !relativeStm
		if relativeStm == (balance >= 0) {
			return relativeStm
		}
		side = !side
	}
}

func seeGEZero(p *Position, move Move) bool {
	return seeGE(p, move, 0)
}

// isDangerCapture flags captures not safe to prune by futility: a pawn
// capture that leaves the opponent with no pawns at all.
func isDangerCapture(p *Position, m Move) bool {
	if m.CapturedPiece() == Pawn {
		var pawns = p.Pawns & p.PiecesByColor(!p.WhiteMove)
		if (pawns & (pawns - 1)) == 0 {
			return true
		}
	}
	return false
}

// checkIsDangerous reports whether a quiet checking move is worth
// searching in quiescence: the enemy king has little room, or the check
// is a contact queen check, or it nets enough undefended material to
// cross beta even after the futility base is subtracted.
func checkIsDangerous(p *Position, move Move, futilityBase, beta int) bool {
	var to = move.To()
	var enemyKingSq = FirstOne(p.Kings & p.PiecesByColor(!p.WhiteMove))
	if File(enemyKingSq) == FileA || File(enemyKingSq) == FileH ||
		Rank(enemyKingSq) == Rank1 || Rank(enemyKingSq) == Rank8 {
		return true
	}
	if move.MovingPiece() == Queen && SquareDistance(to, enemyKingSq) <= 1 {
		return true
	}
	var occ = (p.White ^ p.Black) &^ SquareMask[move.From()]
	occ |= SquareMask[to]
	var newAttacks = getAttacks(p, enemyKingSq, p.WhiteMove, occ) &^ getAttacks(p, enemyKingSq, p.WhiteMove, p.White^p.Black)
	var undefended = newAttacks & p.PiecesByColor(!p.WhiteMove) &^ p.Pawns
	if undefended != 0 {
		var gain = pieceValuesSEE[p.WhatPiece(FirstOne(undefended))] * PawnValue / 4
		if futilityBase+gain >= beta {
			return true
		}
	}
	return false
}
