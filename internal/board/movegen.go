package board

// GenerateLegalMoves returns every legal move for the side to move.
func (p *Position) GenerateLegalMoves() *MoveList {
	pseudo := p.GeneratePseudoLegalMoves()
	legal := NewMoveList()
	for _, m := range pseudo.Slice() {
		if p.IsLegal(m) {
			legal.Add(m)
		}
	}
	return legal
}

// GeneratePseudoLegalMoves returns moves that obey piece movement but may
// leave the mover's king in check.
func (p *Position) GeneratePseudoLegalMoves() *MoveList {
	ml := NewMoveList()
	us := p.SideToMove
	targets := ^p.Occupied[us]

	p.generatePawnMoves(ml, us)

	for _, pt := range [4]PieceType{Knight, Bishop, Rook, Queen} {
		pieces := p.Pieces[us][pt]
		for pieces != 0 {
			from := pieces.PopLSB()
			attacks := p.attacksFrom(pt, from) & targets
			for attacks != 0 {
				ml.Add(NewMove(from, attacks.PopLSB()))
			}
		}
	}

	if king := p.Pieces[us][King]; king != 0 {
		from := king.LSB()
		attacks := KingAttacks(from) & targets
		for attacks != 0 {
			ml.Add(NewMove(from, attacks.PopLSB()))
		}
		p.generateCastlingMoves(ml, us, from)
	}
	return ml
}

func (p *Position) attacksFrom(pt PieceType, sq Square) Bitboard {
	switch pt {
	case Knight:
		return KnightAttacks(sq)
	case Bishop:
		return BishopAttacks(sq, p.AllOccupied)
	case Rook:
		return RookAttacks(sq, p.AllOccupied)
	case Queen:
		return QueenAttacks(sq, p.AllOccupied)
	case King:
		return KingAttacks(sq)
	}
	return Empty
}

func (p *Position) generatePawnMoves(ml *MoveList, us Color) {
	pawns := p.Pieces[us][Pawn]
	empty := ^p.AllOccupied
	enemies := p.Occupied[us.Other()]

	var push1, push2, attackL, attackR, lastRank Bitboard
	var dir int
	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		lastRank, dir = Rank8, 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		lastRank, dir = Rank1, -8
	}

	add := func(targets Bitboard, offset int) {
		for targets != 0 {
			to := targets.PopLSB()
			from := Square(int(to) - offset)
			if lastRank.IsSet(to) {
				for _, promo := range [4]PieceType{Queen, Rook, Bishop, Knight} {
					ml.Add(NewPromotion(from, to, promo))
				}
				continue
			}
			ml.Add(NewMove(from, to))
		}
	}
	add(push1, dir)
	add(push2, 2*dir)
	add(attackL, dir-1)
	add(attackR, dir+1)

	victim := Square(int(p.EnPassant) - dir)
	if p.EnPassant != NoSquare && p.Pieces[us.Other()][Pawn].IsSet(victim) && p.IsEmpty(p.EnPassant) {
		attackers := PawnAttacks(p.EnPassant, us.Other()) & pawns
		for attackers != 0 {
			ml.Add(NewEnPassant(attackers.PopLSB(), p.EnPassant))
		}
	}
}

// generateCastlingMoves needs the king on its home square and the rook in
// its corner as well as the right itself: edited positions may carry rights
// their pieces no longer support.
func (p *Position) generateCastlingMoves(ml *MoveList, us Color, king Square) {
	home := NewSquare(4, 0)
	if us == Black {
		home = NewSquare(4, 7)
	}
	if king != home {
		return
	}
	them := us.Other()
	rank := home.Rank()
	wings := []struct {
		kingSide bool
		rook     Square
		empty    []int
		safe     []int
		to       int
	}{
		{true, NewSquare(7, rank), []int{5, 6}, []int{4, 5, 6}, 6},
		{false, NewSquare(0, rank), []int{1, 2, 3}, []int{4, 3, 2}, 2},
	}
	for _, w := range wings {
		if !p.CastlingRights.CanCastle(us, w.kingSide) || !p.Pieces[us][Rook].IsSet(w.rook) {
			continue
		}
		ok := true
		for _, f := range w.empty {
			ok = ok && p.IsEmpty(NewSquare(f, rank))
		}
		for _, f := range w.safe {
			ok = ok && !p.IsSquareAttacked(NewSquare(f, rank), them)
		}
		if ok {
			ml.Add(NewCastling(home, NewSquare(w.to, rank)))
		}
	}
}

var rookCorners = [4]struct {
	sq    Square
	right CastlingRights
}{
	{A1, WhiteQueenSideCastle}, {H1, WhiteKingSideCastle},
	{A8, BlackQueenSideCastle}, {H8, BlackKingSideCastle},
}

// IsLegal reports whether m can be played without leaving the mover's king
// attacked. Capturing a king is never legal.
func (p *Position) IsLegal(m Move) bool {
	if target := p.PieceAt(m.To()); target != NoPiece && target.Type() == King {
		return false
	}
	next := p.Copy()
	return next.MakeMove(m)
}

// MakeMove plays m on p. It reports false when there is no piece of the side
// to move on the origin square, or when the move leaves that side's king in
// check; p is modified either way in the second case.
func (p *Position) MakeMove(m Move) bool {
	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	piece := p.PieceAt(from)
	if piece == NoPiece || piece.Color() != us {
		return false
	}
	pt := piece.Type()

	p.EnPassant = NoSquare
	if m.IsEnPassant() {
		captured := to - 8
		if us == Black {
			captured = to + 8
		}
		p.removePiece(captured)
	} else if p.PieceAt(to) != NoPiece {
		p.removePiece(to)
	}

	p.movePiece(from, to)

	if m.IsPromotion() {
		p.Pieces[us][Pawn] &^= SquareBB(to)
		p.Pieces[us][m.Promotion()] |= SquareBB(to)
	}

	if m.IsCastling() {
		rank := from.Rank()
		if to > from {
			p.movePiece(NewSquare(7, rank), NewSquare(5, rank))
		} else {
			p.movePiece(NewSquare(0, rank), NewSquare(3, rank))
		}
	}

	if pt == King {
		p.CastlingRights &^= castleRight(us, true) | castleRight(us, false)
	}
	for _, corner := range rookCorners {
		if from == corner.sq || to == corner.sq {
			p.CastlingRights &^= corner.right
		}
	}

	if pt == Pawn && (int(to)-int(from) == 16 || int(from)-int(to) == 16) {
		p.EnPassant = Square((int(from) + int(to)) / 2)
	}

	p.SideToMove = them
	p.UpdateCheckers()

	if ksq := p.KingSquare[us]; ksq != NoSquare && p.IsSquareAttacked(ksq, them) {
		return false
	}
	return true
}

// HasLegalMoves reports whether the side to move has any legal move.
func (p *Position) HasLegalMoves() bool {
	for _, m := range p.GeneratePseudoLegalMoves().Slice() {
		if p.IsLegal(m) {
			return true
		}
	}
	return false
}

func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsDraw reports stalemate or insufficient material. Puzzle positions carry
// no move counters so the fifty-move rule does not apply.
func (p *Position) IsDraw() bool {
	return p.IsStalemate() || p.IsInsufficientMaterial()
}

// IsInsufficientMaterial reports bare kings, or a single minor piece against
// a bare king.
func (p *Position) IsInsufficientMaterial() bool {
	for _, pt := range [3]PieceType{Pawn, Rook, Queen} {
		if p.Pieces[White][pt]|p.Pieces[Black][pt] != 0 {
			return false
		}
	}
	white := p.Pieces[White][Knight].PopCount() + p.Pieces[White][Bishop].PopCount()
	black := p.Pieces[Black][Knight].PopCount() + p.Pieces[Black][Bishop].PopCount()
	return white+black <= 1
}
