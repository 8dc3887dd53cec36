// Package solving plays a stored puzzle against a student. Every student
// move is checked against the next solution entry; correct moves are
// answered by the scripted reply and wrong ones are taken back.
//
// The reply, the take-back and the opening preloaded move are scheduled as
// pending steps. While one is pending the session ignores input; callers
// run them with Tick, after the step's Delay if they show the board live.
package solving

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

// ErrNoPuzzle is returned before Load.
var ErrNoPuzzle = errors.New("no puzzle loaded")

// Outcome says what a student input did.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeNeedsPromotion
	OutcomeCorrect
	OutcomeWrong
	OutcomeSolved
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeNeedsPromotion:
		return "needs-promotion"
	case OutcomeCorrect:
		return "correct"
	case OutcomeWrong:
		return "wrong"
	case OutcomeSolved:
		return "solved"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Delays are the pauses carried by scheduled steps.
type Delays struct {
	Preload time.Duration
	Reply   time.Duration
	Revert  time.Duration
}

// DefaultDelays returns the delays used when none are configured.
func DefaultDelays() Delays {
	return Delays{
		Preload: 500 * time.Millisecond,
		Reply:   500 * time.Millisecond,
		Revert:  600 * time.Millisecond,
	}
}

type Option func(*Session)

func WithDelays(d Delays) Option {
	return func(s *Session) { s.delays = d }
}

// WithSink sets where feedback events go. The default discards them.
func WithSink(sink feedback.Sink) Option {
	return func(s *Session) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithMatcher replaces the move comparison.
func WithMatcher(m Matcher) Option {
	return func(s *Session) { s.matcher = m }
}

// Session is one attempt at a puzzle. It is not safe for concurrent use.
type Session struct {
	oracle  rules.Oracle
	sink    feedback.Sink
	matcher Matcher
	delays  Delays
	steps   timeline.Queue

	record       *puzzle.Record
	start        string
	live         string
	cursor       int
	preloadDone  bool
	solved       bool
	attempts     int
	orientation  board.Color
	sideInferred bool
	halted       error

	selected board.Square
	options  []rules.MoveOption
	promo    *promotion
}

type promotion struct {
	from, to board.Square
}

func New(o rules.Oracle, opts ...Option) *Session {
	s := &Session{
		oracle:   o,
		sink:     feedback.Discard,
		matcher:  DefaultMatcher(),
		delays:   DefaultDelays(),
		selected: board.NoSquare,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load starts r from the beginning. The board orientation is fixed to the
// side to move in r's position for the rest of the session. A preloaded
// move is scheduled as the "preload" step.
func (s *Session) Load(r *puzzle.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	g, f, err := board.Decode(r.FEN)
	if err != nil {
		return err
	}
	s.steps.Clear()
	s.record = r.Clone()
	s.start = board.Encode(g, f)
	s.live = s.start
	s.cursor = 0
	s.preloadDone = false
	s.solved = false
	s.attempts = 0
	s.orientation = f.SideToMove
	s.sideInferred = f.SideInferred
	s.halted = nil
	s.promo = nil
	s.clearSelection()

	if s.record.HasPreloadedMove() {
		s.steps.Schedule("preload", s.delays.Preload, s.playPreloaded)
	}
	return nil
}

// Reset is a fresh Load of the current puzzle.
func (s *Session) Reset() error {
	if s.record == nil {
		return ErrNoPuzzle
	}
	return s.Load(s.record)
}

func (s *Session) playPreloaded() error {
	c := s.record.Clone()
	c.FEN = s.start
	next, mv, err := puzzle.PlayPreloaded(s.oracle, c)
	if err != nil {
		s.halt(err)
		s.emit(feedback.Event{Kind: feedback.ReplayFailed, Move: c.PreloadedMove, FEN: s.live, Err: err})
		return err
	}
	s.live = next
	s.preloadDone = true
	s.emit(feedback.Event{Kind: feedback.PreloadedPlayed, Move: mv.SAN, FEN: next})
	return nil
}

// halt stops the session after a scripted move fails to replay. Input is
// ignored until the puzzle is reset or another one is loaded.
func (s *Session) halt(err error) {
	s.halted = err
	s.promo = nil
	s.clearSelection()
	s.steps.Clear()
}

// Halted returns the replay error that stopped the session, if any.
func (s *Session) Halted() error { return s.halted }

func (s *Session) Record() *puzzle.Record {
	if s.record == nil {
		return nil
	}
	return s.record.Clone()
}

// Position returns the live position.
func (s *Session) Position() string { return s.live }

// Orientation returns the side shown at the bottom of the board.
func (s *Session) Orientation() board.Color { return s.orientation }

// SideInferred reports whether the puzzle's position omitted the side to
// move and White was assumed.
func (s *Session) SideInferred() bool { return s.sideInferred }

func (s *Session) Solved() bool { return s.solved }

func (s *Session) Attempts() int { return s.attempts }

// PreloadPlayed reports whether the preloaded move has been shown.
func (s *Session) PreloadPlayed() bool { return s.preloadDone }

// Progress returns how many solution entries have been played and how many
// there are.
func (s *Session) Progress() (cursor, total int) {
	if s.record == nil {
		return 0, 0
	}
	return s.cursor, len(s.record.Solution)
}

// Hint returns the puzzle's hint text.
func (s *Session) Hint() string {
	if s.record == nil {
		return ""
	}
	return s.record.Hint
}

// PromotionPending reports whether a move waits for ChoosePromotion.
func (s *Session) PromotionPending() bool { return s.promo != nil }

// Selection returns the selected square and its legal moves.
func (s *Session) Selection() (board.Square, []rules.MoveOption) {
	return s.selected, slices.Clone(s.options)
}

// Pending returns the scheduled step, if any.
func (s *Session) Pending() (timeline.Step, bool) { return s.steps.Pending() }

// Tick runs the next scheduled step. It returns timeline.ErrEmpty when
// nothing is scheduled and a *puzzle.ReplayError when a stored move no
// longer applies.
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
