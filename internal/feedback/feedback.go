// Package feedback carries user-facing notifications out of the editor and
// player sessions.
package feedback

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Kind identifies what happened.
type Kind int

const (
	MoveRecorded Kind = iota
	PreloadedRecorded
	CorrectMove
	WrongMove
	OpponentReplied
	PreloadedPlayed
	Solved
	InvalidPromotion
	ReplayFailed
	Checkmate
	Draw
)

var kindNames = [...]string{
	MoveRecorded:      "move-recorded",
	PreloadedRecorded: "preloaded-recorded",
	CorrectMove:       "correct-move",
	WrongMove:         "wrong-move",
	OpponentReplied:   "opponent-replied",
	PreloadedPlayed:   "preloaded-played",
	Solved:            "solved",
	InvalidPromotion:  "invalid-promotion",
	ReplayFailed:      "replay-failed",
	Checkmate:         "checkmate",
	Draw:              "draw",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Severity is how a front end should present an event.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Success
)

// Severity returns the presentation level for k.
func (k Kind) Severity() Severity {
	switch k {
	case WrongMove, InvalidPromotion:
		return Warning
	case ReplayFailed:
		return Error
	case CorrectMove, Solved, Checkmate:
		return Success
	default:
		return Info
	}
}

// Event is one notification.
type Event struct {
	Kind Kind
	Move string // SAN of the move involved, if any
	FEN  string // position after the event
	Ply  int    // solution cursor after the event
	// Detail is a short free-form qualifier, e.g. which comparison matched a
	// correct move.
	Detail string
	Err    error
}

// Message renders the event as a one-line notice.
func (e Event) Message() string {
	switch e.Kind {
	case MoveRecorded:
		return "Recorded " + e.Move
	case PreloadedRecorded:
		return "Opponent's first move set to " + e.Move
	case CorrectMove:
		return "Correct! " + e.Move
	case WrongMove:
		return "Not the solution - try again"
	case OpponentReplied:
		return "Opponent played " + e.Move
	case PreloadedPlayed:
		return "Opponent opened with " + e.Move
	case Solved:
		return "Puzzle solved!"
	case InvalidPromotion:
		return "Choose a queen, rook, bishop or knight"
	case ReplayFailed:
		if e.Err != nil {
			return "Puzzle is broken: " + e.Err.Error()
		}
		return "Puzzle is broken"
	case Checkmate:
		return "Checkmate!"
	case Draw:
		return "Draw"
	}
	return e.Kind.String()
}

// Sink receives events.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Multi fans an event out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			if s != nil {
				s.Emit(e)
			}
		}
	})
}

// Recorder keeps every event it receives. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kinds returns the kinds of the recorded events in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]Kind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

// Last returns the most recent event.
func (r *Recorder) Last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}, false
	}
	return r.events[len(r.events)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Logger writes events to a zerolog logger, at warn level for warnings and
// error level for failures.
type Logger struct {
	log zerolog.Logger
}

func NewLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log.With().Str("component", "feedback").Logger()}
}

func (l *Logger) Emit(e Event) {
	var ev *zerolog.Event
	switch e.Kind.Severity() {
	case Error:
		ev = l.log.Error().Err(e.Err)
	case Warning:
		ev = l.log.Warn()
	default:
		ev = l.log.Debug()
	}
	ev = ev.Str("event", e.Kind.String()).Int("ply", e.Ply)
	if e.Move != "" {
		ev = ev.Str("move", e.Move)
	}
	if e.Detail != "" {
		ev = ev.Str("detail", e.Detail)
	}
	if e.FEN != "" {
		ev = ev.Str("fen", e.FEN)
	}
	ev.Msg(e.Message())
}
