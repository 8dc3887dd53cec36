package authoring

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hailam/chesspuzzles/internal/board"
	"github.com/hailam/chesspuzzles/internal/feedback"
	"github.com/hailam/chesspuzzles/internal/puzzle"
	"github.com/hailam/chesspuzzles/internal/rules"
)

func (s *Session) acceptsMoves() error {
	if s.phase == PhaseSetup {
		return fmt.Errorf("%w: %s", ErrWrongPhase, s.phase)
	}
	return nil
}

// Click handles a board click while entering moves: a piece of the side to
// move is selected, a legal destination of the selection is played, and
// anything else clears the selection.
func (s *Session) Click(sq board.Square) (Result, error) {
	if err := s.acceptsMoves(); err != nil {
		return Ignored, err
	}
	if s.steps.Busy() || !sq.IsValid() {
		return Ignored, nil
	}
	pos, err := board.ParseFEN(s.live)
	if err != nil {
		return Ignored, err
	}
	if p := pos.PieceAt(sq); p != board.NoPiece && p.Color() == pos.SideToMove {
		return Ignored, s.Select(sq)
	}
	if s.selected != board.NoSquare {
		for _, opt := range s.options {
			if opt.To == sq {
				return s.Move(s.selected, sq)
			}
		}
	}
	s.clearSelection()
	return Ignored, nil
}

// Select marks sq and looks up its legal moves. A square without a movable
// piece leaves nothing selected.
func (s *Session) Select(sq board.Square) error {
	if err := s.acceptsMoves(); err != nil {
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

// Move enters from-to. Illegal moves are ignored. A promotion waits for
// ChoosePromotion.
func (s *Session) Move(from, to board.Square) (Result, error) {
	if err := s.acceptsMoves(); err != nil {
		return Ignored, err
	}
	if s.steps.Busy() {
		return Ignored, nil
	}
	s.promo = nil
	defer s.clearSelection()

	opts, err := s.oracle.LegalMoves(s.live, from)
	if err != nil {
		return Ignored, err
	}
	i := slices.IndexFunc(opts, func(o rules.MoveOption) bool { return o.To == to })
	if i < 0 {
		return Ignored, nil
	}
	if opts[i].Promotion {
		s.promo = &promotion{from: from, to: to}
		return NeedsPromotion, nil
	}
	return s.record(from, to, board.NoPieceType)
}

// ChoosePromotion completes a pending promotion. A piece other than queen,
// rook, bishop or knight reports InvalidPromotion and keeps it pending.
func (s *Session) ChoosePromotion(pt board.PieceType) (Result, error) {
	if s.promo == nil {
		return Ignored, nil
	}
	if !pt.IsPromotion() {
		s.emit(feedback.Event{Kind: feedback.InvalidPromotion, FEN: s.live, Ply: len(s.moves)})
		return NeedsPromotion, nil
	}
	p := s.promo
	s.promo = nil
	return s.record(p.from, p.to, pt)
}

// CancelPromotion drops a pending promotion.
func (s *Session) CancelPromotion() { s.promo = nil }

func (s *Session) record(from, to board.Square, promo board.PieceType) (Result, error) {
	next, mv, err := s.oracle.ApplyMove(s.live, from, to, promo)
	if errors.Is(err, rules.ErrIllegalMove) {
		return Ignored, nil
	}
	if err != nil {
		return Ignored, err
	}
	s.live = next

	if s.phase == PhasePreloaded {
		s.preloaded = mv.SAN
		s.solutionStart = next
		s.emit(feedback.Event{Kind: feedback.PreloadedRecorded, Move: mv.SAN, FEN: next})
		s.steps.Schedule("advance", s.advanceDelay, func() error {
			s.phase = PhaseSolution
			return nil
		})
		return Recorded, nil
	}

	s.moves = append(s.moves, mv.SAN)
	s.emit(feedback.Event{Kind: feedback.MoveRecorded, Move: mv.SAN, FEN: next, Ply: len(s.moves)})
	s.notifyEnd(mv, next)
	return Recorded, nil
}

func (s *Session) notifyEnd(mv rules.Move, fen string) {
	if mv.Checkmate {
		s.emit(feedback.Event{Kind: feedback.Checkmate, Move: mv.SAN, FEN: fen, Ply: len(s.moves)})
		return
	}
	if draw, err := s.oracle.IsDraw(fen); err == nil && draw {
		s.emit(feedback.Event{Kind: feedback.Draw, Move: mv.SAN, FEN: fen, Ply: len(s.moves)})
	}
}

// Undo drops the last solution move and rebuilds the live position by
// replaying the remaining moves from the solution start.
func (s *Session) Undo() error {
	if s.phase != PhaseSolution {
		return fmt.Errorf("%w: %s", ErrWrongPhase, s.phase)
	}
	if len(s.moves) == 0 {
		return ErrNothingToUndo
	}
	moves := s.moves[:len(s.moves)-1]
	fen, err := s.replay(s.solutionStart, moves)
	if err != nil {
		return err
	}
	s.steps.Clear()
	s.clearSelection()
	s.promo = nil
	s.moves = moves
	s.live = fen
	return nil
}

func (s *Session) replay(fen string, moves []string) (string, error) {
	for i, san := range moves {
		next, _, err := s.oracle.ApplyMoveBySAN(fen, san)
		if err != nil {
			return "", &puzzle.ReplayError{PuzzleID: s.recordID, Ply: i + 1, Move: san, Err: err}
		}
		fen = next
	}
	return fen, nil
}

// CanSave reports whether Save would succeed.
func (s *Session) CanSave() bool {
	return s.phase == PhaseSolution && len(s.moves) > 0 && !s.steps.Busy()
}

// Save builds the record for the committed position and recorded moves.
// A session opened with Edit keeps the record's ID.
func (s *Session) Save(meta puzzle.Metadata) (*puzzle.Record, error) {
	if !s.CanSave() {
		return nil, ErrNotSaveEligible
	}
	r := &puzzle.Record{
		ID:            s.recordID,
		FEN:           s.start,
		Solution:      slices.Clone(s.moves),
		PreloadedMove: s.preloaded,
		CreatedAt:     s.createdAt,
	}
	r.SetMetadata(meta)
	if err := r.Validate(); err != nil {
		return nil, err
	}
	s.meta = meta
	return r, nil
}

// Edit reopens r: its position becomes the setup and is committed, then the
// preloaded move and solution are replayed so recording continues after
// them. If a stored move no longer applies the session is left in setup
// with r's board and the *puzzle.ReplayError is returned.
func (s *Session) Edit(r *puzzle.Record) error {
	g, f, err := board.Decode(r.FEN)
	if err != nil {
		return err
	}
	s.steps.Clear()
	s.clearSelection()
	s.promo = nil
	s.phase = PhaseSetup
	s.grid, s.flags = g, f
	s.preload = r.HasPreloadedMove()
	s.recordID = r.ID
	s.createdAt = r.CreatedAt
	s.meta = r.Metadata()

	if err := s.Commit(); err != nil {
		return err
	}
	if s.preload {
		c := r.Clone()
		c.FEN = s.start
		next, _, err := puzzle.PlayPreloaded(s.oracle, c)
		if err != nil {
			_ = s.BackToSetup()
			return err
		}
		s.preloaded = c.PreloadedMove
		s.solutionStart = next
		s.live = next
		s.phase = PhaseSolution
	}
	fen, err := s.replay(s.solutionStart, r.Solution)
	if err != nil {
		_ = s.BackToSetup()
		return err
	}
	s.moves = slices.Clone(r.Solution)
	s.live = fen
	return nil
}
