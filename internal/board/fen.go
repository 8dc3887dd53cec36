package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrMalformedPosition is matched by every *MalformedPositionError.
var ErrMalformedPosition = errors.New("malformed position")

// MalformedPositionError describes why a position string was rejected.
type MalformedPositionError struct {
	Input  string
	Field  string // placement, side, castling, en-passant or counters
	Rank   int    // 1-8 for placement errors, otherwise 0
	Reason string
}

func (e *MalformedPositionError) Error() string {
	if e.Rank > 0 {
		return fmt.Sprintf("malformed position %q: rank %d: %s", e.Input, e.Rank, e.Reason)
	}
	if e.Field != "" {
		return fmt.Sprintf("malformed position %q: %s: %s", e.Input, e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed position %q: %s", e.Input, e.Reason)
}

func (e *MalformedPositionError) Unwrap() error { return ErrMalformedPosition }

// Encode writes the canonical position string for g and f. Move counters
// are always "0 1". An en passant square off the third and sixth ranks is
// written as "-".
func Encode(g Grid, f Flags) string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := g.At(file, rank)
			if piece >= NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	sb.WriteByte(f.SideToMove.Char())
	sb.WriteByte(' ')
	sb.WriteString(f.Castling.String())
	sb.WriteByte(' ')
	if validEnPassant(f.EnPassant) {
		sb.WriteString(f.EnPassant.String())
	} else {
		sb.WriteByte('-')
	}
	sb.WriteString(" 0 1")
	return sb.String()
}

// Decode parses a position string. Only the placement field is required:
// a missing side to move decodes as White with SideInferred set, missing
// castling and en passant fields decode as none. Move counters, when
// present, must be numbers but are otherwise ignored.
func Decode(s string) (Grid, Flags, error) {
	g, f := NewGrid(), NewFlags()
	fail := func(field string, rank int, format string, args ...any) (Grid, Flags, error) {
		return NewGrid(), NewFlags(), &MalformedPositionError{
			Input:  s,
			Field:  field,
			Rank:   rank,
			Reason: fmt.Sprintf(format, args...),
		}
	}

	fields := strings.Fields(s)
	switch {
	case len(fields) == 0:
		return fail("", 0, "empty input")
	case len(fields) > 6:
		return fail("", 0, "expected at most 6 fields, got %d", len(fields))
	}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return fail("placement", 0, "expected 8 ranks, got %d", len(ranks))
	}
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(row); j++ {
			c := row[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
			} else {
				piece := PieceFromChar(c)
				if piece == NoPiece {
					return fail("placement", rank+1, "invalid piece token %q", c)
				}
				if file < 8 {
					g[NewSquare(file, rank)] = piece
				}
				file++
			}
			if file > 8 {
				return fail("placement", rank+1, "more than 8 squares")
			}
		}
		if file != 8 {
			return fail("placement", rank+1, "has %d squares, want 8", file)
		}
	}

	if len(fields) < 2 {
		f.SideInferred = true
	} else {
		switch fields[1] {
		case "w":
			f.SideToMove = White
		case "b":
			f.SideToMove = Black
		default:
			return fail("side", 0, "invalid side to move %q", fields[1])
		}
	}

	if len(fields) >= 3 && fields[2] != "-" {
		for _, c := range fields[2] {
			i := strings.IndexRune("KQkq", c)
			if i < 0 {
				return fail("castling", 0, "invalid castling token %q", c)
			}
			f.Castling |= 1 << i
		}
	}

	if len(fields) >= 4 && fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil || !validEnPassant(sq) || strings.ToLower(fields[3]) != fields[3] {
			return fail("en-passant", 0, "invalid en passant target %q", fields[3])
		}
		f.EnPassant = sq
	}

	for _, counter := range fields[min(len(fields), 4):] {
		if n, err := strconv.Atoi(counter); err != nil || n < 0 {
			return fail("counters", 0, "invalid move counter %q", counter)
		}
	}

	return g, f, nil
}

// ParseFEN decodes s into a Position.
func ParseFEN(s string) (*Position, error) {
	g, f, err := Decode(s)
	if err != nil {
		return nil, err
	}
	return FromGrid(g, f), nil
}

// ToFEN returns the canonical position string for p.
func (p *Position) ToFEN() string {
	return Encode(p.Grid(), p.Flags())
}
