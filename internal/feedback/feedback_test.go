package feedback

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func TestRecorderAndMulti(t *testing.T) {
	var a, b Recorder
	sink := Multi(&a, nil, &b, Discard)
	sink.Emit(Event{Kind: WrongMove, Move: "Qe7"})
	sink.Emit(Event{Kind: Solved})

	want := []Kind{WrongMove, Solved}
	if diff := cmp.Diff(want, a.Kinds()); diff != "" {
		t.Errorf("a kinds (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, b.Kinds()); diff != "" {
		t.Errorf("b kinds (-want +got):\n%s", diff)
	}
	if last, ok := a.Last(); !ok || last.Kind != Solved {
		t.Errorf("Last() = %+v, %v", last, ok)
	}
	a.Reset()
	if _, ok := a.Last(); ok {
		t.Error("Last() after Reset should be empty")
	}
}

func TestKindStringAndSeverity(t *testing.T) {
	tests := []struct {
		kind     Kind
		name     string
		severity Severity
	}{
		{MoveRecorded, "move-recorded", Info},
		{WrongMove, "wrong-move", Warning},
		{InvalidPromotion, "invalid-promotion", Warning},
		{ReplayFailed, "replay-failed", Error},
		{Solved, "solved", Success},
		{Draw, "draw", Info},
	}
	for _, tc := range tests {
		if got := tc.kind.String(); got != tc.name {
			t.Errorf("%d.String() = %q, want %q", tc.kind, got, tc.name)
		}
		if got := tc.kind.Severity(); got != tc.severity {
			t.Errorf("%s.Severity() = %d, want %d", tc.name, got, tc.severity)
		}
	}
	if got := Kind(99).String(); got != "kind(99)" {
		t.Errorf("unknown kind = %q", got)
	}
}

func TestMessage(t *testing.T) {
	if got := (Event{Kind: OpponentReplied, Move: "e5"}).Message(); got != "Opponent played e5" {
		t.Errorf("Message = %q", got)
	}
	if got := (Event{Kind: ReplayFailed, Err: errors.New("boom")}).Message(); got != "Puzzle is broken: boom" {
		t.Errorf("Message = %q", got)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(zerolog.New(&buf))
	l.Emit(Event{Kind: ReplayFailed, Move: "Qxh7", Ply: 1, Err: errors.New("illegal")})

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line %q: %v", buf.String(), err)
	}
	if line["level"] != "error" || line["event"] != "replay-failed" || line["move"] != "Qxh7" || line["error"] != "illegal" {
		t.Errorf("log line = %v", line)
	}
}
