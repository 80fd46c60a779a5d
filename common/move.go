package common

import "strings"

// Move packs from/to squares, the moving piece, captured piece and
// promotion piece into a 32-bit int (type declared in types.go):
// bits 0-5 from, 6-11 to, 12-14 moving piece, 15-17 captured piece,
// 18-20 promotion piece.

func makeMove(from, to, movingPiece, capturedPiece int) Move {
	return Move(from ^ (to << 6) ^ (movingPiece << 12) ^ (capturedPiece << 15))
}

func makePawnMove(from, to, capturedPiece, promotion int) Move {
	return Move(from ^ (to << 6) ^ (Pawn << 12) ^ (capturedPiece << 15) ^ (promotion << 18))
}

func (m Move) From() int          { return int(m & 63) }
func (m Move) To() int            { return int((m >> 6) & 63) }
func (m Move) MovingPiece() int   { return int((m >> 12) & 7) }
func (m Move) CapturedPiece() int { return int((m >> 15) & 7) }
func (m Move) Promotion() int     { return int((m >> 18) & 7) }

func (m Move) String() string {
	if m == MoveEmpty {
		return "0000"
	}
	var sPromotion = ""
	if m.Promotion() != Empty {
		sPromotion = string("nbrq"[m.Promotion()-Knight])
	}
	return SquareName(m.From()) + SquareName(m.To()) + sPromotion
}

// MakeMoveLAN looks up lan ("e2e4", "e7e8q", ...) among the pseudo-legal
// moves of p and plays it, reporting false when lan does not name a
// legal move in this position.
func (p *Position) MakeMoveLAN(lan string) (Position, bool) {
	var buffer [MaxMoves]Move
	for _, mv := range GenerateMoves(buffer[:], p) {
		if !strings.EqualFold(mv.String(), lan) {
			continue
		}
		var newPosition Position
		if p.MakeMove(mv, &newPosition) {
			return newPosition, true
		}
		return Position{}, false
	}
	return Position{}, false
}

func moveToSAN(pos *Position, ml []Move, mv Move) string {
	const PieceNames = "NBRQK"
	if mv == whiteKingSideCastle || mv == blackKingSideCastle {
		return "O-O"
	}
	if mv == whiteQueenSideCastle || mv == blackQueenSideCastle {
		return "O-O-O"
	}
	var strPiece, strCapture, strFrom, strTo, strPromotion string
	if mv.MovingPiece() != Pawn {
		strPiece = string(PieceNames[mv.MovingPiece()-Knight])
	}
	strTo = SquareName(mv.To())
	if mv.CapturedPiece() != Empty {
		strCapture = "x"
		if mv.MovingPiece() == Pawn {
			strFrom = SquareName(mv.From())[:1]
		}
	}
	if mv.Promotion() != Empty {
		strPromotion = "=" + string(PieceNames[mv.Promotion()-Knight])
	}
	var ambiguity, uniqCol, uniqRow = false, true, true
	for _, mv1 := range ml {
		if mv1.From() == mv.From() || mv1.To() != mv.To() || mv1.MovingPiece() != mv.MovingPiece() {
			continue
		}
		ambiguity = true
		if File(mv1.From()) == File(mv.From()) {
			uniqCol = false
		}
		if Rank(mv1.From()) == Rank(mv.From()) {
			uniqRow = false
		}
	}
	if ambiguity {
		switch {
		case uniqCol:
			strFrom = SquareName(mv.From())[:1]
		case uniqRow:
			strFrom = SquareName(mv.From())[1:2]
		default:
			strFrom = SquareName(mv.From())
		}
	}
	return strPiece + strFrom + strCapture + strTo + strPromotion
}

// ParseMoveSAN resolves a SAN token (optionally suffixed with +/#/?/!)
// against the legal moves of pos, returning MoveEmpty when no legal
// move renders to that SAN.
func ParseMoveSAN(pos *Position, san string) Move {
	if index := strings.IndexAny(san, "+#?!"); index >= 0 {
		san = san[:index]
	}
	var ml = GenerateLegalMoves(pos)
	for _, mv := range ml {
		if san == moveToSAN(pos, ml, mv) {
			return mv
		}
	}
	return MoveEmpty
}
