package board

import (
	"errors"
	"testing"
)

func TestEncodeStandard(t *testing.T) {
	if got := Encode(StandardGrid(), StandardFlags()); got != StartFEN {
		t.Errorf("Encode(standard) = %q, want %q", got, StartFEN)
	}
	if got := NewPosition().ToFEN(); got != StartFEN {
		t.Errorf("NewPosition().ToFEN() = %q", got)
	}
}

func TestEncodeEmptyBoard(t *testing.T) {
	want := "8/8/8/8/8/8/8/8 w - - 0 1"
	if got := Encode(NewGrid(), NewFlags()); got != want {
		t.Errorf("Encode(empty) = %q, want %q", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"7k/6pp/8/8/8/8/8/4Q2K w - - 0 1",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w Kq e6 0 1",
		"8/8/8/8/4Pp2/8/8/k6K b - e3 0 1",
	}
	for _, fen := range fens {
		g, f, err := Decode(fen)
		if err != nil {
			t.Fatalf("Decode(%q): %v", fen, err)
		}
		if got := Encode(g, f); got != fen {
			t.Errorf("round trip %q -> %q", fen, got)
		}
	}
}

func TestDecodeNormalizesCounters(t *testing.T) {
	g, f, err := Decode("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 17 42")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := Encode(g, f); got != StartFEN {
		t.Errorf("Encode = %q, want counters reset", got)
	}
}

func TestDecodeInfersSide(t *testing.T) {
	_, f, err := Decode("4k3/8/8/8/8/8/8/4K3")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !f.SideInferred || f.SideToMove != White {
		t.Errorf("flags = %+v, want inferred White", f)
	}
	if f.Castling != NoCastling || f.EnPassant != NoSquare {
		t.Errorf("flags = %+v, want no castling and no en passant", f)
	}

	_, f, _ = Decode("4k3/8/8/8/8/8/8/4K3 b")
	if f.SideInferred || f.SideToMove != Black {
		t.Errorf("flags = %+v, want explicit Black", f)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
		rank  int
	}{
		{"empty", "   ", "", 0},
		{"seven ranks", "8/8/8/8/8/8/8 w - - 0 1", "placement", 0},
		{"nine squares", "8/8/8/8/8/8/8/K8 w - - 0 1", "placement", 1},
		{"short rank", "8/8/7/8/8/8/8/8 w - - 0 1", "placement", 6},
		{"bad token", "8/8/8/8/8/8/8/7X w - - 0 1", "placement", 1},
		{"bad side", "8/8/8/8/8/8/8/8 x - - 0 1", "side", 0},
		{"bad castling", "8/8/8/8/8/8/8/8 w KX - 0 1", "castling", 0},
		{"bad en passant", "8/8/8/8/8/8/8/8 w - e4 0 1", "en-passant", 0},
		{"bad counter", "8/8/8/8/8/8/8/8 w - - x 1", "counters", 0},
		{"too many fields", "8/8/8/8/8/8/8/8 w - - 0 1 extra", "", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Decode(tc.input)
			if !errors.Is(err, ErrMalformedPosition) {
				t.Fatalf("Decode(%q) error = %v, want ErrMalformedPosition", tc.input, err)
			}
			var mp *MalformedPositionError
			if !errors.As(err, &mp) {
				t.Fatalf("error %T is not *MalformedPositionError", err)
			}
			if mp.Field != tc.field || mp.Rank != tc.rank {
				t.Errorf("field/rank = %q/%d, want %q/%d", mp.Field, mp.Rank, tc.field, tc.rank)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		fen string
		ok  bool
	}{
		{StartFEN, true},
		{"8/8/8/8/8/8/8/4K3 w - - 0 1", false},
		{"4k3/8/8/8/8/8/8/3KK3 w - - 0 1", false},
		{"P3k3/8/8/8/8/8/8/4K3 w - - 0 1", false},
		// Black is in check with White to move.
		{"4k3/8/8/8/8/8/8/4RK2 w - - 0 1", false},
		{"4k3/8/8/8/8/8/8/4RK2 b - - 0 1", true},
	}
	for _, tc := range tests {
		pos, err := ParseFEN(tc.fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", tc.fen, err)
		}
		err = pos.Validate()
		if (err == nil) != tc.ok {
			t.Errorf("Validate(%q) = %v, want ok=%v", tc.fen, err, tc.ok)
		}
		if err != nil && !errors.Is(err, ErrInvalidPosition) {
			t.Errorf("Validate(%q) error %v does not wrap ErrInvalidPosition", tc.fen, err)
		}
	}
}

func TestPositionGridFlags(t *testing.T) {
	pos := NewPosition()
	g := pos.Grid()
	if g[E1] != WhiteKing || g[D8] != BlackQueen || g[E4] != NoPiece {
		t.Errorf("unexpected grid contents: e1=%v d8=%v e4=%v", g[E1], g[D8], g[E4])
	}
	if got := g.Count(WhitePawn); got != 8 {
		t.Errorf("white pawns = %d, want 8", got)
	}
	if f := pos.Flags(); f != StandardFlags() {
		t.Errorf("Flags() = %+v, want %+v", f, StandardFlags())
	}
}
