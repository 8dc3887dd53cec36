package board

import (
	"fmt"
	"strings"
)

// ToSAN writes m in standard algebraic notation, including the check or
// mate suffix.
func (m Move) ToSAN(pos *Position) string {
	if m == NoMove {
		return "-"
	}
	from, to := m.From(), m.To()
	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return m.String()
	}

	var sb strings.Builder
	switch {
	case m.IsCastling() && to > from:
		sb.WriteString("O-O")
	case m.IsCastling():
		sb.WriteString("O-O-O")
	default:
		pt := piece.Type()
		if pt != Pawn {
			sb.WriteByte("PNBRQK"[pt])
			sb.WriteString(disambiguation(pos, m, pt))
		}
		if m.IsCapture(pos) {
			if pt == Pawn {
				sb.WriteByte(byte('a' + from.File()))
			}
			sb.WriteByte('x')
		}
		sb.WriteString(to.String())
		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte("PNBRQK"[m.Promotion()])
		}
	}

	next := pos.Copy()
	next.MakeMove(m)
	if next.IsCheckmate() {
		sb.WriteByte('#')
	} else if next.InCheck() {
		sb.WriteByte('+')
	}
	return sb.String()
}

func disambiguation(pos *Position, m Move, pt PieceType) string {
	from := m.From()
	pieces := pos.Pieces[pos.SideToMove][pt]
	var rivals []Square
	for _, other := range pos.GenerateLegalMoves().Slice() {
		if other.To() == m.To() && other.From() != from && pieces.IsSet(other.From()) {
			rivals = append(rivals, other.From())
		}
	}
	if len(rivals) == 0 {
		return ""
	}
	sameFile, sameRank := false, false
	for _, sq := range rivals {
		sameFile = sameFile || sq.File() == from.File()
		sameRank = sameRank || sq.Rank() == from.Rank()
	}
	switch {
	case !sameFile:
		return string(rune('a' + from.File()))
	case !sameRank:
		return string(rune('1' + from.Rank()))
	default:
		return from.String()
	}
}

// StripAnnotations removes trailing check, mate and evaluation marks
// ("+", "#", "!", "?") from a SAN string.
func StripAnnotations(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "+#!?")
}

// ParseSAN finds the legal move written in standard algebraic notation.
// Check and evaluation marks are ignored, castling may use letter O or digit
// zero, and the "=" before a promotion piece is optional. A string matching
// no legal move, or more than one, is an error.
func ParseSAN(s string, pos *Position) (Move, error) {
	orig := s
	s = StripAnnotations(s)
	illegal := func(reason string) (Move, error) {
		return NoMove, fmt.Errorf("%w: %q: %s", ErrIllegalMove, orig, reason)
	}

	legal := pos.GenerateLegalMoves().Slice()
	switch strings.ReplaceAll(s, "0", "O") {
	case "O-O", "O-O-O":
		kingSide := len(s) == 3
		for _, m := range legal {
			if m.IsCastling() && (m.To() > m.From()) == kingSide {
				return m, nil
			}
		}
		return illegal("castling not available")
	}

	promo := NoPieceType
	if i := strings.IndexByte(s, '='); i >= 0 {
		if i+2 != len(s) {
			return illegal("bad promotion suffix")
		}
		promo = promotionFromLetter(s[i+1])
		if promo == NoPieceType {
			return illegal("bad promotion piece")
		}
		s = s[:i]
	} else if n := len(s); n >= 3 && promotionFromLetter(s[n-1]) != NoPieceType && s[n-2] >= '1' && s[n-2] <= '8' {
		promo = promotionFromLetter(s[n-1])
		s = s[:n-1]
	}

	capture := strings.Contains(s, "x")
	s = strings.ReplaceAll(s, "x", "")

	pt := Pawn
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		i := strings.IndexByte("PNBRQK", s[0])
		if i < 0 {
			return illegal("unknown piece letter")
		}
		pt = PieceType(i)
		s = s[1:]
	}
	if len(s) < 2 {
		return illegal("missing destination")
	}
	dest, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return illegal("bad destination")
	}

	file, rank := -1, -1
	for _, c := range s[:len(s)-2] {
		switch {
		case c >= 'a' && c <= 'h':
			file = int(c - 'a')
		case c >= '1' && c <= '8':
			rank = int(c - '1')
		default:
			return illegal("bad disambiguation")
		}
	}

	found := NoMove
	for _, m := range legal {
		from := m.From()
		switch {
		case m.To() != dest, m.IsCastling(), pos.PieceAt(from).Type() != pt:
			continue
		case file >= 0 && from.File() != file, rank >= 0 && from.Rank() != rank:
			continue
		case capture && !m.IsCapture(pos):
			continue
		case m.Promotion() != promo:
			continue
		}
		if found != NoMove {
			return illegal("ambiguous")
		}
		found = m
	}
	if found == NoMove {
		if promo == NoPieceType && pt == Pawn && dest.RelativeRank(pos.SideToMove) == 7 {
			return illegal("promotion piece required")
		}
		return illegal("no such move")
	}
	return found, nil
}

func promotionFromLetter(c byte) PieceType {
	switch c {
	case 'Q', 'q':
		return Queen
	case 'R', 'r':
		return Rook
	case 'B', 'b':
		return Bishop
	case 'N', 'n':
		return Knight
	}
	return NoPieceType
}
