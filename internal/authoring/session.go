// Package authoring is the puzzle editor: a coach arranges a position, may
// record the opponent's opening move, then records the solution line.
//
// A Session moves through three phases:
//
//	PhaseSetup -> PhasePreloaded -> PhaseSolution
//	PhaseSetup ---------------------> PhaseSolution   (preload disabled)
//	PhaseSolution -> PhaseSetup                        (BackToSetup)
//
// Leaving PhasePreloaded happens through a pending step once the preloaded
// move is captured; callers run it with Tick.
package authoring

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/hailam/chesspuzzles/internal/board"
	"github.com/hailam/chesspuzzles/internal/feedback"
	"github.com/hailam/chesspuzzles/internal/puzzle"
	"github.com/hailam/chesspuzzles/internal/rules"
	"github.com/hailam/chesspuzzles/internal/timeline"
)

var (
	// ErrWrongPhase is returned by operations not available in the current phase.
	ErrWrongPhase = errors.New("operation not available in this phase")
	// ErrNothingToUndo is returned by Undo with no recorded moves.
	ErrNothingToUndo = errors.New("no solution moves to undo")
	// ErrNotSaveEligible is returned by Save before a solution move exists.
	ErrNotSaveEligible = errors.New("puzzle needs at least one solution move")
)

// Phase is the editor state.
type Phase int

const (
	PhaseSetup Phase = iota
	PhasePreloaded
	PhaseSolution
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhasePreloaded:
		return "preloaded"
	case PhaseSolution:
		return "solution"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Result says what a move input did.
type Result int

const (
	// Ignored means the input changed nothing but the selection.
	Ignored Result = iota
	// NeedsPromotion means the move waits for ChoosePromotion.
	NeedsPromotion
	// Recorded means the move was stored.
	Recorded
)

func (r Result) String() string {
	switch r {
	case Ignored:
		return "ignored"
	case NeedsPromotion:
		return "needs-promotion"
	case Recorded:
		return "recorded"
	}
	return fmt.Sprintf("result(%d)", int(r))
}

// DefaultAdvanceDelay is the pause between capturing the preloaded move and
// starting solution recording.
const DefaultAdvanceDelay = 300 * time.Millisecond

// Option configures a Session.
type Option func(*Session)

// WithAdvanceDelay sets the delay carried by the advance step.
func WithAdvanceDelay(d time.Duration) Option {
	return func(s *Session) { s.advanceDelay = d }
}

// WithSink sets where feedback events go. The default discards them.
func WithSink(sink feedback.Sink) Option {
	return func(s *Session) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// Session is one editing session. It is not safe for concurrent use.
type Session struct {
	oracle       rules.Oracle
	sink         feedback.Sink
	advanceDelay time.Duration
	steps        timeline.Queue

	phase   Phase
	grid    board.Grid
	flags   board.Flags
	tool    board.Piece
	preload bool

	start         string // committed position
	solutionStart string // start, or the position after the preloaded move
	live          string
	preloaded     string
	moves         []string

	selected board.Square
	options  []rules.MoveOption
	promo    *promotion

	// Carried over from Edit so Save updates the same record.
	recordID  string
	createdAt time.Time
	meta      puzzle.Metadata
}

type promotion struct {
	from, to board.Square
}

// New returns a session in setup with an empty board, White to move.
func New(o rules.Oracle, opts ...Option) *Session {
	s := &Session{
		oracle:       o,
		sink:         feedback.Discard,
		advanceDelay: DefaultAdvanceDelay,
		grid:         board.NewGrid(),
		flags:        board.NewFlags(),
		tool:         board.NoPiece,
		selected:     board.NoSquare,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Phase() Phase { return s.phase }

// Grid returns the setup board.
func (s *Session) Grid() board.Grid { return s.grid }

// Flags returns the setup flags.
func (s *Session) Flags() board.Flags { return s.flags }

func (s *Session) Tool() board.Piece { return s.tool }

func (s *Session) PreloadEnabled() bool { return s.preload }

// Position returns the board being edited: the encoded setup in
// PhaseSetup, otherwise the live position moves are entered on.
func (s *Session) Position() string {
	if s.phase == PhaseSetup {
		return board.Encode(s.grid, s.flags)
	}
	return s.live
}

// Start returns the committed position, empty before Commit.
func (s *Session) Start() string { return s.start }

// PreloadedMove returns the captured preloaded move in SAN, if any.
func (s *Session) PreloadedMove() string { return s.preloaded }

// Moves returns a copy of the recorded solution.
func (s *Session) Moves() []string { return slices.Clone(s.moves) }

// Selection returns the selected square and its legal moves.
func (s *Session) Selection() (board.Square, []rules.MoveOption) {
	return s.selected, slices.Clone(s.options)
}

// PromotionPending reports whether a move waits for ChoosePromotion.
func (s *Session) PromotionPending() bool { return s.promo != nil }

// Metadata returns the descriptive fields of the record being edited.
func (s *Session) Metadata() puzzle.Metadata { return s.meta }

// RecordID returns the ID of the record opened with Edit.
func (s *Session) RecordID() string { return s.recordID }

// Pending returns the scheduled step, if any.
func (s *Session) Pending() (timeline.Step, bool) { return s.steps.Pending() }

// Tick runs the next scheduled step. It returns timeline.ErrEmpty when
// nothing is scheduled.
func (s *Session) Tick() error {
	_, err := s.steps.Tick()
	return err
}

// Drain runs every scheduled step, calling wait before each.
func (s *Session) Drain(wait func(timeline.Step)) error { return s.steps.Drain(wait) }

func (s *Session) emit(e feedback.Event) { s.sink.Emit(e) }

func (s *Session) clearSelection() {
	s.selected = board.NoSquare
	s.options = nil
}
