package board

// Grid is the piece placement of a position indexed by Square. The zero
// value is not empty (it is all white pawns); use NewGrid.
type Grid [64]Piece

// NewGrid returns a grid with no pieces.
func NewGrid() Grid {
	var g Grid
	for sq := range g {
		g[sq] = NoPiece
	}
	return g
}

// At returns the piece at the given file and rank (both 0-based).
func (g *Grid) At(file, rank int) Piece {
	return g[NewSquare(file, rank)]
}

// Set places p on sq. NoPiece empties the square.
func (g *Grid) Set(sq Square, p Piece) {
	if sq.IsValid() {
		g[sq] = p
	}
}

// Count returns how many squares hold p.
func (g *Grid) Count(p Piece) int {
	n := 0
	for _, q := range g {
		if q == p {
			n++
		}
	}
	return n
}

// Flags is the non-placement state of a position.
type Flags struct {
	SideToMove Color
	Castling   CastlingRights
	EnPassant  Square

	// SideInferred is set by Decode when the input omitted the side to move
	// and White was assumed.
	SideInferred bool
}

// NewFlags returns White to move, no castling and no en passant target.
func NewFlags() Flags {
	return Flags{SideToMove: White, Castling: NoCastling, EnPassant: NoSquare}
}

// StandardGrid returns the initial chess arrangement.
func StandardGrid() Grid {
	g := NewGrid()
	back := [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for file, pt := range back {
		g[NewSquare(file, 0)] = NewPiece(pt, White)
		g[NewSquare(file, 1)] = WhitePawn
		g[NewSquare(file, 6)] = BlackPawn
		g[NewSquare(file, 7)] = NewPiece(pt, Black)
	}
	return g
}

// StandardFlags returns White to move with all castling rights.
func StandardFlags() Flags {
	return Flags{SideToMove: White, Castling: AllCastling, EnPassant: NoSquare}
}

// FromGrid builds a Position from a grid and flags.
func FromGrid(g Grid, f Flags) *Position {
	p := &Position{
		SideToMove:     f.SideToMove,
		CastlingRights: f.Castling,
		EnPassant:      NoSquare,
	}
	if validEnPassant(f.EnPassant) {
		p.EnPassant = f.EnPassant
	}
	for sq, piece := range g {
		p.setPiece(piece, Square(sq))
	}
	p.findKings()
	p.UpdateCheckers()
	return p
}

// Grid returns the piece placement of p.
func (p *Position) Grid() Grid {
	g := NewGrid()
	for sq := A1; sq <= H8; sq++ {
		g[sq] = p.PieceAt(sq)
	}
	return g
}

// Flags returns the side to move, castling rights and en passant target.
func (p *Position) Flags() Flags {
	return Flags{SideToMove: p.SideToMove, Castling: p.CastlingRights, EnPassant: p.EnPassant}
}

// validEnPassant reports whether sq can be an en passant target: only
// squares on the third or sixth rank qualify.
func validEnPassant(sq Square) bool {
	return sq.IsValid() && (sq.Rank() == 2 || sq.Rank() == 5)
}
