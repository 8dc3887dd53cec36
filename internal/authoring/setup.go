package authoring

import (
	"fmt"

	"github.com/hailam/chesspuzzles/internal/board"
	"github.com/hailam/chesspuzzles/internal/rules"
)

func (s *Session) inSetup() error {
	if s.phase != PhaseSetup {
		return fmt.Errorf("%w: %s", ErrWrongPhase, s.phase)
	}
	return nil
}

// SelectTool picks the piece ClickSquare places. board.NoPiece erases.
func (s *Session) SelectTool(p board.Piece) error {
	if err := s.inSetup(); err != nil {
		return err
	}
	if p > board.NoPiece {
		return fmt.Errorf("authoring: invalid piece %d", p)
	}
	s.tool = p
	return nil
}

// ClickSquare places the tool on sq, or empties sq when the tool already
// stands there or the tool is the eraser.
func (s *Session) ClickSquare(sq board.Square) error {
	if err := s.inSetup(); err != nil {
		return err
	}
	if !sq.IsValid() {
		return board.ErrInvalidSquare
	}
	if s.tool == board.NoPiece || s.grid[sq] == s.tool {
		s.grid.Set(sq, board.NoPiece)
		return nil
	}
	s.grid.Set(sq, s.tool)
	return nil
}

func (s *Session) SetSideToMove(c board.Color) error {
	if err := s.inSetup(); err != nil {
		return err
	}
	if c != board.White && c != board.Black {
		return fmt.Errorf("authoring: invalid side %d", c)
	}
	s.flags.SideToMove = c
	s.flags.SideInferred = false
	return nil
}

// SetCastling turns the given castling rights on or off.
func (s *Session) SetCastling(rights board.CastlingRights, on bool) error {
	if err := s.inSetup(); err != nil {
		return err
	}
	if on {
		s.flags.Castling |= rights & board.AllCastling
	} else {
		s.flags.Castling &^= rights
	}
	return nil
}

// SetEnPassant sets the en passant target; board.NoSquare clears it.
func (s *Session) SetEnPassant(sq board.Square) error {
	if err := s.inSetup(); err != nil {
		return err
	}
	if sq != board.NoSquare && (!sq.IsValid() || (sq.Rank() != 2 && sq.Rank() != 5)) {
		return fmt.Errorf("authoring: en passant target %s not on the third or sixth rank", sq)
	}
	s.flags.EnPassant = sq
	return nil
}

// ClearBoard removes every piece along with castling and en passant.
func (s *Session) ClearBoard() error {
	if err := s.inSetup(); err != nil {
		return err
	}
	s.grid = board.NewGrid()
	s.flags.Castling = board.NoCastling
	s.flags.EnPassant = board.NoSquare
	return nil
}

// StandardPosition loads the initial chess arrangement.
func (s *Session) StandardPosition() error {
	if err := s.inSetup(); err != nil {
		return err
	}
	s.grid = board.StandardGrid()
	s.flags = board.StandardFlags()
	return nil
}

// SetPreloadEnabled chooses whether Commit leads to capturing a preloaded move.
func (s *Session) SetPreloadEnabled(on bool) error {
	if err := s.inSetup(); err != nil {
		return err
	}
	s.preload = on
	return nil
}

// Commit freezes the setup as the puzzle start. The position must be
// playable by the side to move, or with preload enabled by the other side,
// which makes the preloaded move and may start in check.
func (s *Session) Commit() error {
	if err := s.inSetup(); err != nil {
		return err
	}
	fen := board.Encode(s.grid, s.flags)
	live := fen
	if s.preload {
		flipped, err := rules.FlipSide(fen)
		if err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		pos, err := board.ParseFEN(flipped)
		if err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		if err := pos.Validate(); err != nil {
			return fmt.Errorf("commit: cannot preload a move: %w", err)
		}
		live = flipped
	} else if err := board.FromGrid(s.grid, s.flags).Validate(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.steps.Clear()
	s.clearSelection()
	s.promo = nil
	s.start = fen
	s.solutionStart = fen
	s.live = live
	s.preloaded = ""
	s.moves = nil
	if s.preload {
		s.phase = PhasePreloaded
	} else {
		s.phase = PhaseSolution
	}
	return nil
}

// BackToSetup returns to setup with the committed board, discarding the
// preloaded move and the recorded solution.
func (s *Session) BackToSetup() error {
	if s.phase == PhaseSetup {
		return fmt.Errorf("%w: %s", ErrWrongPhase, s.phase)
	}
	s.steps.Clear()
	s.clearSelection()
	s.promo = nil
	s.preloaded = ""
	s.moves = nil
	s.live = ""
	s.phase = PhaseSetup
	return nil
}
