package rules

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hailam/chesspuzzles/internal/board"
)

const (
	mateInOne = "7k/6pp/8/8/8/8/8/4Q2K w - - 0 1"
	promotion = "3k4/P7/8/8/8/8/8/4K3 w - - 0 1"
	stalemate = "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"
)

func oracles() map[string]Oracle {
	return map[string]Oracle{"builtin": Engine{}, "library": Library{}}
}

// placement returns the placement and side fields of a position string.
func placement(fen string) string {
	f := strings.Fields(fen)
	return f[0] + " " + f[1]
}

func TestOracleContract(t *testing.T) {
	for name, o := range oracles() {
		t.Run(name, func(t *testing.T) {
			dests, err := o.LegalDestinations(board.StartFEN, board.E2)
			if err != nil {
				t.Fatalf("LegalDestinations: %v", err)
			}
			got := map[board.Square]bool{}
			for _, sq := range dests {
				got[sq] = true
			}
			if diff := cmp.Diff(map[board.Square]bool{board.E3: true, board.E4: true}, got); diff != "" {
				t.Errorf("e2 destinations (-want +got):\n%s", diff)
			}

			if dests, _ := o.LegalDestinations(board.StartFEN, board.E7); len(dests) != 0 {
				t.Errorf("black pawn has destinations with white to move: %v", dests)
			}

			next, mv, err := o.ApplyMove(board.StartFEN, board.E2, board.E4, board.NoPieceType)
			if err != nil {
				t.Fatalf("ApplyMove(e2e4): %v", err)
			}
			if got := placement(next); got != "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b" {
				t.Errorf("after e4 = %q", got)
			}
			if !strings.HasSuffix(next, " 0 1") {
				t.Errorf("counters not normalized: %q", next)
			}
			if mv.SAN != "e4" || mv.UCI != "e2e4" {
				t.Errorf("move = %+v", mv)
			}
		})
	}
}

func TestOracleMate(t *testing.T) {
	for name, o := range oracles() {
		t.Run(name, func(t *testing.T) {
			next, mv, err := o.ApplyMoveBySAN(mateInOne, "Qe8")
			if err != nil {
				t.Fatalf("ApplyMoveBySAN(Qe8): %v", err)
			}
			if !mv.Checkmate || !mv.Check || mv.SAN != "Qe8#" {
				t.Errorf("move = %+v, want checkmate Qe8#", mv)
			}
			if mate, _ := o.IsCheckmate(next); !mate {
				t.Errorf("IsCheckmate(%q) = false", next)
			}
			if mate, _ := o.IsCheckmate(mateInOne); mate {
				t.Error("start position reported as checkmate")
			}
		})
	}
}

func TestOraclePromotion(t *testing.T) {
	for name, o := range oracles() {
		t.Run(name, func(t *testing.T) {
			needs, err := NeedsPromotion(o, promotion, board.A7, board.A8)
			if err != nil || !needs {
				t.Fatalf("NeedsPromotion = %v, %v", needs, err)
			}
			if _, _, err := o.ApplyMove(promotion, board.A7, board.A8, board.NoPieceType); !errors.Is(err, ErrPromotionRequired) {
				t.Errorf("ApplyMove without piece: %v, want ErrPromotionRequired", err)
			}
			if _, _, err := o.ApplyMove(promotion, board.A7, board.A8, board.King); !errors.Is(err, ErrIllegalMove) {
				t.Errorf("ApplyMove to king: %v, want ErrIllegalMove", err)
			}
			next, mv, err := o.ApplyMove(promotion, board.A7, board.A8, board.Knight)
			if err != nil {
				t.Fatalf("ApplyMove(a8=N): %v", err)
			}
			if mv.SAN != "a8=N" || mv.Promotion != board.Knight {
				t.Errorf("move = %+v", mv)
			}
			if got := placement(next); got != "N2k4/8/8/8/8/8/8/4K3 b" {
				t.Errorf("after a8=N = %q", got)
			}
		})
	}
}

func TestOracleErrors(t *testing.T) {
	for name, o := range oracles() {
		t.Run(name, func(t *testing.T) {
			if _, _, err := o.ApplyMove(board.StartFEN, board.E2, board.E5, board.NoPieceType); !errors.Is(err, ErrIllegalMove) {
				t.Errorf("e2e5: %v, want ErrIllegalMove", err)
			}
			if _, _, err := o.ApplyMoveBySAN(board.StartFEN, "Qh5"); !errors.Is(err, ErrIllegalMove) {
				t.Errorf("Qh5: %v, want ErrIllegalMove", err)
			}
			if _, err := o.LegalMoves("not a position", board.E2); !errors.Is(err, board.ErrMalformedPosition) {
				t.Errorf("malformed: %v, want ErrMalformedPosition", err)
			}
		})
	}
}

func TestOracleCoordinateFallback(t *testing.T) {
	for name, o := range oracles() {
		t.Run(name, func(t *testing.T) {
			_, mv, err := o.ApplyMoveBySAN(board.StartFEN, "g1f3")
			if err != nil {
				t.Fatalf("ApplyMoveBySAN(g1f3): %v", err)
			}
			if mv.SAN != "Nf3" {
				t.Errorf("SAN = %q, want Nf3", mv.SAN)
			}
		})
	}
}

func TestOracleDraw(t *testing.T) {
	for name, o := range oracles() {
		t.Run(name, func(t *testing.T) {
			if draw, err := o.IsDraw(stalemate); err != nil || !draw {
				t.Errorf("IsDraw(stalemate) = %v, %v", draw, err)
			}
			if draw, _ := o.IsDraw(board.StartFEN); draw {
				t.Error("IsDraw(start) = true")
			}
		})
	}
}

func TestEngineCastleOntoRook(t *testing.T) {
	fen := "4k3/8/8/8/8/8/8/R3K2R w KQ - 0 1"
	_, mv, err := Engine{}.ApplyMove(fen, board.E1, board.H1, board.NoPieceType)
	if err != nil {
		t.Fatalf("ApplyMove(e1h1): %v", err)
	}
	if mv.SAN != "O-O" || mv.To != board.G1 {
		t.Errorf("move = %+v, want O-O", mv)
	}
}

func TestFlipSide(t *testing.T) {
	got, err := FlipSide("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	if err != nil {
		t.Fatalf("FlipSide: %v", err)
	}
	want := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 1"
	if got != want {
		t.Errorf("FlipSide = %q, want %q", got, want)
	}
	if _, err := FlipSide("x"); !errors.Is(err, board.ErrMalformedPosition) {
		t.Errorf("FlipSide(x) error = %v", err)
	}
}

func TestNew(t *testing.T) {
	for kind, want := range map[string]Oracle{"": Engine{}, "builtin": Engine{}, "Library": Library{}} {
		o, err := New(kind)
		if err != nil {
			t.Fatalf("New(%q): %v", kind, err)
		}
		if o != want {
			t.Errorf("New(%q) = %T, want %T", kind, o, want)
		}
	}
	if _, err := New("stockfish"); !errors.Is(err, ErrUnknownOracle) {
		t.Errorf("New(stockfish) error = %v", err)
	}
}
