package solving

import (
	"errors"
	"slices"

	"github.com/hailam/chesspuzzles/internal/board"
	"github.com/hailam/chesspuzzles/internal/feedback"
	"github.com/hailam/chesspuzzles/internal/puzzle"
	"github.com/hailam/chesspuzzles/internal/rules"
)

// ready reports whether the session takes input right now.
func (s *Session) ready() (bool, error) {
	if s.record == nil {
		return false, ErrNoPuzzle
	}
	return !s.solved && s.halted == nil && !s.steps.Busy(), nil
}

// Click handles a board click: a piece of the side to move is selected, a
// legal destination of the selection is attempted, and anything else
// clears the selection.
func (s *Session) Click(sq board.Square) (Outcome, error) {
	if ok, err := s.ready(); !ok || !sq.IsValid() {
		return OutcomeIgnored, err
	}
	pos, err := board.ParseFEN(s.live)
	if err != nil {
		return OutcomeIgnored, err
	}
	if p := pos.PieceAt(sq); p != board.NoPiece && p.Color() == pos.SideToMove {
		return OutcomeIgnored, s.Select(sq)
	}
	if s.selected != board.NoSquare {
		for _, opt := range s.options {
			if opt.To == sq {
				return s.Attempt(s.selected, sq)
			}
		}
	}
	s.clearSelection()
	return OutcomeIgnored, nil
}

// Select marks sq and looks up its legal moves for display.
func (s *Session) Select(sq board.Square) error {
	if ok, err := s.ready(); !ok {
		return err
	}
	s.clearSelection()
	opts, err := s.oracle.LegalMoves(s.live, sq)
	if err != nil {
		return err
	}
	if len(opts) > 0 {
		s.selected = sq
		s.options = opts
	}
	return nil
}

// Attempt plays from-to for the student. Input that is not a legal move, or
// arrives while the puzzle is solved, halted or a step is pending, is ignored.
func (s *Session) Attempt(from, to board.Square) (Outcome, error) {
	if ok, err := s.ready(); !ok {
		return OutcomeIgnored, err
	}
	s.promo = nil
	defer s.clearSelection()

	opts, err := s.oracle.LegalMoves(s.live, from)
	if err != nil {
		return OutcomeIgnored, err
	}
	i := slices.IndexFunc(opts, func(o rules.MoveOption) bool { return o.To == to })
	if i < 0 {
		return OutcomeIgnored, nil
	}
	if opts[i].Promotion {
		s.promo = &promotion{from: from, to: to}
		return OutcomeNeedsPromotion, nil
	}
	return s.play(from, to, board.NoPieceType)
}

// ChoosePromotion completes a pending promotion. A piece other than queen,
// rook, bishop or knight reports InvalidPromotion and keeps it pending.
func (s *Session) ChoosePromotion(pt board.PieceType) (Outcome, error) {
	if s.promo == nil {
		return OutcomeIgnored, nil
	}
	if !pt.IsPromotion() {
		s.emit(feedback.Event{Kind: feedback.InvalidPromotion, FEN: s.live, Ply: s.cursor})
		return OutcomeNeedsPromotion, nil
	}
	p := s.promo
	s.promo = nil
	return s.play(p.from, p.to, pt)
}

// CancelPromotion drops a pending promotion.
func (s *Session) CancelPromotion() { s.promo = nil }

func (s *Session) play(from, to board.Square, promo board.PieceType) (Outcome, error) {
	before := s.live
	next, mv, err := s.oracle.ApplyMove(before, from, to, promo)
	if errors.Is(err, rules.ErrIllegalMove) {
		return OutcomeIgnored, nil
	}
	if err != nil {
		return OutcomeIgnored, err
	}
	s.live = next
	s.attempts++

	expected := s.record.Solution[s.cursor]
	how, ok := s.matcher.Match(mv, expected)
	if !ok {
		s.emit(feedback.Event{Kind: feedback.WrongMove, Move: mv.SAN, FEN: next, Ply: s.cursor})
		s.steps.Schedule("revert", s.delays.Revert, func() error {
			s.live = before
			return nil
		})
		return OutcomeWrong, nil
	}

	s.cursor++
	s.emit(feedback.Event{Kind: feedback.CorrectMove, Move: mv.SAN, FEN: next, Ply: s.cursor, Detail: how})
	if s.cursor == len(s.record.Solution) {
		s.finish(mv, next)
		return OutcomeSolved, nil
	}
	s.steps.Schedule("reply", s.delays.Reply, s.reply)
	return OutcomeCorrect, nil
}

// reply plays the scripted opponent move at the cursor.
func (s *Session) reply() error {
	san := s.record.Solution[s.cursor]
	next, mv, err := s.oracle.ApplyMoveBySAN(s.live, san)
	if err != nil {
		re := &puzzle.ReplayError{PuzzleID: s.record.ID, Ply: s.cursor + 1, Move: san, Err: err}
		s.halt(re)
		s.emit(feedback.Event{Kind: feedback.ReplayFailed, Move: san, FEN: s.live, Ply: s.cursor, Err: re})
		return re
	}
	s.live = next
	s.cursor++
	s.emit(feedback.Event{Kind: feedback.OpponentReplied, Move: mv.SAN, FEN: next, Ply: s.cursor})
	if s.cursor == len(s.record.Solution) {
		s.finish(mv, next)
	}
	return nil
}

func (s *Session) finish(mv rules.Move, fen string) {
	s.solved = true
	s.emit(feedback.Event{Kind: feedback.Solved, Move: mv.SAN, FEN: fen, Ply: s.cursor})
	if mv.Checkmate {
		s.emit(feedback.Event{Kind: feedback.Checkmate, Move: mv.SAN, FEN: fen, Ply: s.cursor})
		return
	}
	if draw, err := s.oracle.IsDraw(fen); err == nil && draw {
		s.emit(feedback.Event{Kind: feedback.Draw, Move: mv.SAN, FEN: fen, Ply: s.cursor})
	}
}
