package puzzle

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hailam/chesspuzzles/internal/board"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want error
	}{
		{"ok", Record{FEN: board.StartFEN, Solution: []string{"e4"}}, nil},
		{"no position", Record{Solution: []string{"e4"}}, ErrMissingPosition},
		{"malformed", Record{FEN: "8/8 w", Solution: []string{"e4"}}, board.ErrMalformedPosition},
		{"empty solution", Record{FEN: board.StartFEN}, ErrEmptySolution},
		{"blank move", Record{FEN: board.StartFEN, Solution: []string{"e4", " "}}, ErrEmptySolution},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rec.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRecordWireShape(t *testing.T) {
	rec := Record{
		ID:            "p1",
		Name:          "Back rank",
		Category:      "mates",
		FEN:           "7k/6pp/8/8/8/8/8/4Q2K w - - 0 1",
		Solution:      []string{"Qe8"},
		Difficulty:    Easy,
		IsEnabled:     true,
		PreloadedMove: "",
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "name", "category", "description", "fen", "solution", "hint", "difficulty", "icon", "isEnabled"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("wire shape missing %q", key)
		}
	}
	for _, key := range []string{"preloadedMove", "createdAt", "updatedAt"} {
		if _, ok := fields[key]; ok {
			t.Errorf("wire shape has empty %q", key)
		}
	}
}

func TestCloneAndMetadata(t *testing.T) {
	rec := &Record{Name: "a", Solution: []string{"e4", "e5"}, Hint: "center"}
	c := rec.Clone()
	c.Solution[0] = "d4"
	if rec.Solution[0] != "e4" {
		t.Error("Clone shares the solution slice")
	}

	meta := rec.Metadata()
	meta.Name = "b"
	c.SetMetadata(meta)
	if diff := cmp.Diff(meta, c.Metadata()); diff != "" {
		t.Errorf("metadata (-want +got):\n%s", diff)
	}
	if got := rec.Plies(); got != 1 {
		t.Errorf("Plies() = %d, want 1", got)
	}
}
