package authoring

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hailam/chesspuzzles/internal/board"
	"github.com/hailam/chesspuzzles/internal/feedback"
	"github.com/hailam/chesspuzzles/internal/puzzle"
	"github.com/hailam/chesspuzzles/internal/rules"
)

const (
	mateInOne    = "7k/6pp/8/8/8/8/8/4Q2K w - - 0 1"
	promotionFEN = "3k4/P7/8/8/8/8/8/4K3 w - - 0 1"
)

func newSession(t *testing.T) (*Session, *feedback.Recorder) {
	t.Helper()
	rec := &feedback.Recorder{}
	return New(rules.Engine{}, WithSink(rec), WithAdvanceDelay(time.Millisecond)), rec
}

func mustMove(t *testing.T, s *Session, uci string) {
	t.Helper()
	from, _ := board.ParseSquare(uci[:2])
	to, _ := board.ParseSquare(uci[2:4])
	res, err := s.Move(from, to)
	if err != nil {
		t.Fatalf("Move(%s): %v", uci, err)
	}
	if res != Recorded {
		t.Fatalf("Move(%s) = %s, want recorded", uci, res)
	}
}

func TestSetupPlacement(t *testing.T) {
	s, _ := newSession(t)

	if err := s.SelectTool(board.WhiteKing); err != nil {
		t.Fatal(err)
	}
	if err := s.ClickSquare(board.E1); err != nil {
		t.Fatal(err)
	}
	g := s.Grid()
	if g[board.E1] != board.WhiteKing {
		t.Fatalf("e1 = %v, want white king", g[board.E1])
	}

	// Clicking the same piece again erases it.
	if err := s.ClickSquare(board.E1); err != nil {
		t.Fatal(err)
	}
	g = s.Grid()
	if g[board.E1] != board.NoPiece {
		t.Errorf("e1 = %v after second click, want empty", g[board.E1])
	}

	// A different piece replaces the occupant.
	s.ClickSquare(board.D4)
	s.SelectTool(board.BlackQueen)
	s.ClickSquare(board.D4)
	g = s.Grid()
	if g[board.D4] != board.BlackQueen {
		t.Errorf("d4 = %v, want black queen", g[board.D4])
	}

	s.SelectTool(board.NoPiece)
	s.ClickSquare(board.D4)
	g = s.Grid()
	if g.Count(board.BlackQueen) != 0 {
		t.Error("eraser left the queen on the board")
	}

	if err := s.ClickSquare(board.NoSquare); !errors.Is(err, board.ErrInvalidSquare) {
		t.Errorf("ClickSquare(NoSquare) = %v", err)
	}
}

func TestSetupFlags(t *testing.T) {
	s, _ := newSession(t)
	s.StandardPosition()
	s.SetSideToMove(board.Black)
	s.SetCastling(board.WhiteQueenSideCastle|board.BlackQueenSideCastle, false)
	if got, want := s.Position(), "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b Kk - 0 1"; got != want {
		t.Errorf("Position() = %q, want %q", got, want)
	}

	if err := s.SetEnPassant(board.E4); err == nil {
		t.Error("SetEnPassant(e4) should fail")
	}
	if err := s.SetEnPassant(board.E3); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(s.Position(), " b Kk e3 ") {
		t.Errorf("Position() = %q", s.Position())
	}

	s.ClearBoard()
	if got, want := s.Position(), "8/8/8/8/8/8/8/8 b - - 0 1"; got != want {
		t.Errorf("after ClearBoard = %q, want %q", got, want)
	}
}

func TestCommitRejectsInvalidPositions(t *testing.T) {
	s, _ := newSession(t)
	if err := s.Commit(); !errors.Is(err, board.ErrInvalidPosition) {
		t.Errorf("Commit() on empty board = %v", err)
	}
	if s.Phase() != PhaseSetup {
		t.Errorf("phase = %s", s.Phase())
	}

	// White to move and in check: fine to play from, but the preloaded
	// move would be black's with white in check.
	s.SelectTool(board.WhiteKing)
	s.ClickSquare(board.A1)
	s.SelectTool(board.BlackKing)
	s.ClickSquare(board.H8)
	s.SelectTool(board.BlackRook)
	s.ClickSquare(board.A8)
	if err := s.SetPreloadEnabled(true); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit(); !errors.Is(err, board.ErrInvalidPosition) {
		t.Errorf("Commit() with preload = %v", err)
	}
	s.SetPreloadEnabled(false)
	if err := s.Commit(); err != nil {
		t.Errorf("Commit() without preload = %v", err)
	}
}

func TestCommitPreloadWithOpponentInCheck(t *testing.T) {
	const start = "4k3/8/8/8/8/8/8/4R1K1 w - - 0 1"
	s, _ := newSession(t)
	for _, p := range []struct {
		piece board.Piece
		sq    board.Square
	}{
		{board.WhiteKing, board.G1},
		{board.WhiteRook, board.E1},
		{board.BlackKing, board.E8},
	} {
		s.SelectTool(p.piece)
		if err := s.ClickSquare(p.sq); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SetPreloadEnabled(true); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("Commit() with black in check = %v", err)
	}
	if s.Phase() != PhasePreloaded || s.Start() != start {
		t.Fatalf("phase %s, start %q", s.Phase(), s.Start())
	}

	mustMove(t, s, "e8d8")
	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}
	mustMove(t, s, "e1e8")
	r, err := s.Save(puzzle.Metadata{Name: "Escape"})
	if err != nil {
		t.Fatal(err)
	}
	if r.FEN != start || r.PreloadedMove != "Kd8" {
		t.Errorf("record = %+v", r)
	}
	if diff := cmp.Diff([]string{"Re8+"}, r.Solution); diff != "" {
		t.Errorf("solution (-want +got):\n%s", diff)
	}

	// The saved record reopens without falling back to setup.
	e, _ := newSession(t)
	if err := e.Edit(r); err != nil {
		t.Fatalf("Edit() = %v", err)
	}
	if e.Phase() != PhaseSolution || e.PreloadedMove() != "Kd8" {
		t.Fatalf("phase %s, preloaded %q", e.Phase(), e.PreloadedMove())
	}
	if diff := cmp.Diff(r.Solution, e.Moves()); diff != "" {
		t.Errorf("moves (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(e.Position(), "3kR3/8/8/8/8/8/8/6K1 b") {
		t.Errorf("position = %q", e.Position())
	}
}

func TestRecordSolution(t *testing.T) {
	s, rec := newSession(t)
	s.StandardPosition()
	if err := s.Commit(); err != nil {
		t.Fatal(err)
	}
	if s.Phase() != PhaseSolution {
		t.Fatalf("phase = %s, want solution", s.Phase())
	}
	if s.CanSave() {
		t.Error("CanSave() before any move")
	}
	if _, err := s.Save(puzzle.Metadata{}); !errors.Is(err, ErrNotSaveEligible) {
		t.Errorf("Save() = %v", err)
	}

	// Illegal input is ignored.
	res, err := s.Move(board.E2, board.E5)
	if err != nil || res != Ignored {
		t.Errorf("Move(e2e5) = %s, %v", res, err)
	}

	mustMove(t, s, "e2e4")
	mustMove(t, s, "e7e5")
	mustMove(t, s, "g1f3")

	if diff := cmp.Diff([]string{"e4", "e5", "Nf3"}, s.Moves()); diff != "" {
		t.Errorf("moves (-want +got):\n%s", diff)
	}
	if !s.CanSave() {
		t.Fatal("CanSave() = false")
	}
	r, err := s.Save(puzzle.Metadata{Name: "Open game", Difficulty: puzzle.Easy, IsEnabled: true})
	if err != nil {
		t.Fatal(err)
	}
	want := &puzzle.Record{
		Name:       "Open game",
		FEN:        board.StartFEN,
		Solution:   []string{"e4", "e5", "Nf3"},
		Difficulty: puzzle.Easy,
		IsEnabled:  true,
	}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("record (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]feedback.Kind{feedback.MoveRecorded, feedback.MoveRecorded, feedback.MoveRecorded}, rec.Kinds()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestUndoReplaysFromStart(t *testing.T) {
	s, _ := newSession(t)
	s.StandardPosition()
	s.Commit()

	mustMove(t, s, "e2e4")
	mustMove(t, s, "e7e5")
	afterTwo := s.Position()
	mustMove(t, s, "g1f3")
	afterThree := s.Position()

	if err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if s.Position() != afterTwo {
		t.Errorf("after Undo = %q, want %q", s.Position(), afterTwo)
	}
	mustMove(t, s, "g1f3")
	if s.Position() != afterThree {
		t.Errorf("after replaying = %q, want %q", s.Position(), afterThree)
	}

	for range 3 {
		if err := s.Undo(); err != nil {
			t.Fatal(err)
		}
	}
	if s.Position() != board.StartFEN {
		t.Errorf("after undoing everything = %q", s.Position())
	}
	if err := s.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo() on empty solution = %v", err)
	}
}

func TestPreloadedMove(t *testing.T) {
	s, rec := newSession(t)
	s.StandardPosition()
	s.SetSideToMove(board.Black)
	s.SetPreloadEnabled(true)
	if err := s.Commit(); err != nil {
		t.Fatal(err)
	}
	if s.Phase() != PhasePreloaded {
		t.Fatalf("phase = %s, want preloaded", s.Phase())
	}
	// The preloaded move belongs to white, the side not to move.
	if !strings.Contains(s.Position(), " w ") {
		t.Errorf("preload position = %q", s.Position())
	}

	// Black pieces cannot be selected for the preloaded move.
	if _, err := s.Click(board.E7); err != nil {
		t.Fatal(err)
	}
	if sq, _ := s.Selection(); sq != board.NoSquare {
		t.Errorf("selected %s", sq)
	}

	mustMove(t, s, "g1f3")
	if s.PreloadedMove() != "Nf3" {
		t.Errorf("PreloadedMove() = %q", s.PreloadedMove())
	}
	step, ok := s.Pending()
	if !ok || step.Name != "advance" || step.Delay != time.Millisecond {
		t.Fatalf("Pending() = %+v, %v", step, ok)
	}
	// Input waits for the advance step.
	if res, _ := s.Move(board.E7, board.E5); res != Ignored {
		t.Errorf("Move while pending = %s", res)
	}
	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}
	if s.Phase() != PhaseSolution {
		t.Fatalf("phase = %s, want solution", s.Phase())
	}

	mustMove(t, s, "e7e5")
	r, err := s.Save(puzzle.Metadata{Name: "reply"})
	if err != nil {
		t.Fatal(err)
	}
	if r.PreloadedMove != "Nf3" || r.FEN != "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1" {
		t.Errorf("record = %+v", r)
	}
	if err := puzzle.Verify(rules.Engine{}, r); err != nil {
		t.Errorf("saved record does not replay: %v", err)
	}
	if diff := cmp.Diff([]feedback.Kind{feedback.PreloadedRecorded, feedback.MoveRecorded}, rec.Kinds()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestPromotion(t *testing.T) {
	s, rec := newSession(t)
	if err := s.Edit(&puzzle.Record{FEN: promotionFEN}); err != nil {
		t.Fatal(err)
	}
	res, err := s.Move(board.A7, board.A8)
	if err != nil || res != NeedsPromotion {
		t.Fatalf("Move(a7a8) = %s, %v", res, err)
	}
	if len(s.Moves()) != 0 {
		t.Error("promotion recorded before a piece was chosen")
	}

	if res, _ := s.ChoosePromotion(board.King); res != NeedsPromotion {
		t.Errorf("ChoosePromotion(king) = %s", res)
	}
	if last, _ := rec.Last(); last.Kind != feedback.InvalidPromotion {
		t.Errorf("last event = %s, want invalid-promotion", last.Kind)
	}

	if res, _ := s.ChoosePromotion(board.Knight); res != Recorded {
		t.Errorf("ChoosePromotion(knight) = %s", res)
	}
	if diff := cmp.Diff([]string{"a8=N"}, s.Moves()); diff != "" {
		t.Errorf("moves (-want +got):\n%s", diff)
	}

	s.Undo()
	s.Move(board.A7, board.A8)
	s.CancelPromotion()
	if res, _ := s.ChoosePromotion(board.Queen); res != Ignored {
		t.Errorf("ChoosePromotion after cancel = %s", res)
	}
}

func TestClickSelectsThenMoves(t *testing.T) {
	s, _ := newSession(t)
	s.StandardPosition()
	s.Commit()

	if res, err := s.Click(board.E2); err != nil || res != Ignored {
		t.Fatalf("Click(e2) = %s, %v", res, err)
	}
	sq, opts := s.Selection()
	if sq != board.E2 || len(opts) != 2 {
		t.Errorf("Selection() = %s, %v", sq, opts)
	}
	if res, _ := s.Click(board.E4); res != Recorded {
		t.Errorf("Click(e4) = %s", res)
	}
	if sq, _ := s.Selection(); sq != board.NoSquare {
		t.Errorf("selection kept after move: %s", sq)
	}

	s.Click(board.E7)
	s.Click(board.A3)
	if sq, _ := s.Selection(); sq != board.NoSquare {
		t.Errorf("selection kept after a non-destination click: %s", sq)
	}
}

func TestCheckmateFeedback(t *testing.T) {
	s, rec := newSession(t)
	if err := s.Edit(&puzzle.Record{FEN: mateInOne}); err != nil {
		t.Fatal(err)
	}
	mustMove(t, s, "e1e8")
	want := []feedback.Kind{feedback.MoveRecorded, feedback.Checkmate}
	if diff := cmp.Diff(want, rec.Kinds()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
	if got := s.Moves(); got[0] != "Qe8#" {
		t.Errorf("moves = %v", got)
	}
}

func TestWrongPhase(t *testing.T) {
	s, _ := newSession(t)
	if _, err := s.Move(board.E2, board.E4); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("Move in setup = %v", err)
	}
	if err := s.BackToSetup(); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("BackToSetup in setup = %v", err)
	}
	s.StandardPosition()
	s.Commit()
	if err := s.ClickSquare(board.E4); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("ClickSquare after commit = %v", err)
	}
	if err := s.Commit(); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("second Commit = %v", err)
	}
}

func TestBackToSetupAndRecommit(t *testing.T) {
	s, _ := newSession(t)
	s.StandardPosition()
	s.Commit()
	mustMove(t, s, "d2d4")

	if err := s.BackToSetup(); err != nil {
		t.Fatal(err)
	}
	if len(s.Moves()) != 0 || s.Phase() != PhaseSetup {
		t.Fatalf("BackToSetup kept moves %v, phase %s", s.Moves(), s.Phase())
	}
	s.SetSideToMove(board.Black)
	if err := s.Commit(); err != nil {
		t.Fatal(err)
	}
	if want := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1"; s.Start() != want {
		t.Errorf("Start() = %q, want %q", s.Start(), want)
	}
}

func TestEdit(t *testing.T) {
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	stored := &puzzle.Record{
		ID:            "p1",
		Name:          "Italian",
		FEN:           "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1",
		PreloadedMove: "e4",
		Solution:      []string{"e5", "Nf3"},
		CreatedAt:     created,
	}

	s, _ := newSession(t)
	if err := s.Edit(stored); err != nil {
		t.Fatal(err)
	}
	if s.Phase() != PhaseSolution || s.PreloadedMove() != "e4" {
		t.Fatalf("phase %s, preloaded %q", s.Phase(), s.PreloadedMove())
	}
	mustMove(t, s, "b8c6")
	r, err := s.Save(s.Metadata())
	if err != nil {
		t.Fatal(err)
	}
	if r.ID != "p1" || r.Name != "Italian" || !r.CreatedAt.Equal(created) {
		t.Errorf("record = %+v", r)
	}
	if diff := cmp.Diff([]string{"e5", "Nf3", "Nc6"}, r.Solution); diff != "" {
		t.Errorf("solution (-want +got):\n%s", diff)
	}
	// Undo stops at the preloaded move.
	for range 3 {
		s.Undo()
	}
	if !strings.HasPrefix(s.Position(), "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b") {
		t.Errorf("after undoing all = %q", s.Position())
	}
}

func TestEditBrokenRecord(t *testing.T) {
	s, _ := newSession(t)
	err := s.Edit(&puzzle.Record{ID: "bad", FEN: board.StartFEN, Solution: []string{"e4", "e4"}})
	var re *puzzle.ReplayError
	if !errors.As(err, &re) {
		t.Fatalf("Edit() = %v, want *puzzle.ReplayError", err)
	}
	if re.PuzzleID != "bad" || re.Ply != 2 || re.Move != "e4" || !errors.Is(err, rules.ErrIllegalMove) {
		t.Errorf("replay error = %+v", re)
	}
	if s.Phase() != PhaseSetup {
		t.Errorf("phase = %s, want setup", s.Phase())
	}
	if s.Position() != board.StartFEN {
		t.Errorf("setup board = %q", s.Position())
	}

	if err := s.Edit(&puzzle.Record{FEN: "8/8/8"}); !errors.Is(err, board.ErrMalformedPosition) {
		t.Errorf("Edit(malformed) = %v", err)
	}
}
