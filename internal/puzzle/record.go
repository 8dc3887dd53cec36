// Package puzzle defines the stored puzzle record, its repository port and
// helpers that check a record still replays.
package puzzle

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hailam/chesspuzzles/internal/board"
)

var (
	// ErrEmptySolution is returned for a record without solution moves.
	ErrEmptySolution = errors.New("puzzle has no solution moves")
	// ErrMissingPosition is returned for a record without a start position.
	ErrMissingPosition = errors.New("puzzle has no start position")
	// ErrNotFound is returned by repositories for unknown IDs.
	ErrNotFound = errors.New("puzzle not found")
)

// Difficulty is a free-form label; these are the values the editor offers.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Record is a stored puzzle in its wire shape.
type Record struct {
	ID            string     `json:"id,omitempty"`
	Name          string     `json:"name"`
	Category      string     `json:"category"`
	Description   string     `json:"description"`
	FEN           string     `json:"fen"`
	Solution      []string   `json:"solution"`
	Hint          string     `json:"hint"`
	Difficulty    Difficulty `json:"difficulty"`
	Icon          string     `json:"icon"`
	IsEnabled     bool       `json:"isEnabled"`
	PreloadedMove string     `json:"preloadedMove,omitempty"`
	CreatedAt     time.Time  `json:"createdAt,omitzero"`
	UpdatedAt     time.Time  `json:"updatedAt,omitzero"`
}

// Metadata is the descriptive part of a record that the editor collects
// separately from the moves.
type Metadata struct {
	Name        string
	Category    string
	Description string
	Hint        string
	Difficulty  Difficulty
	Icon        string
	IsEnabled   bool
}

// Metadata returns the descriptive fields of r.
func (r *Record) Metadata() Metadata {
	return Metadata{
		Name:        r.Name,
		Category:    r.Category,
		Description: r.Description,
		Hint:        r.Hint,
		Difficulty:  r.Difficulty,
		Icon:        r.Icon,
		IsEnabled:   r.IsEnabled,
	}
}

// SetMetadata overwrites the descriptive fields of r.
func (r *Record) SetMetadata(m Metadata) {
	r.Name = m.Name
	r.Category = m.Category
	r.Description = m.Description
	r.Hint = m.Hint
	r.Difficulty = m.Difficulty
	r.Icon = m.Icon
	r.IsEnabled = m.IsEnabled
}

// HasPreloadedMove reports whether the opponent plays a move before the
// student's first turn.
func (r *Record) HasPreloadedMove() bool {
	return strings.TrimSpace(r.PreloadedMove) != ""
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := *r
	c.Solution = slices.Clone(r.Solution)
	return &c
}

// Validate checks that r is save-eligible: a decodable start position and
// at least one non-blank solution move.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.FEN) == "" {
		return ErrMissingPosition
	}
	if _, _, err := board.Decode(r.FEN); err != nil {
		return err
	}
	if len(r.Solution) == 0 {
		return ErrEmptySolution
	}
	for i, mv := range r.Solution {
		if strings.TrimSpace(mv) == "" {
			return fmt.Errorf("solution move %d is blank: %w", i+1, ErrEmptySolution)
		}
	}
	return nil
}

// Plies returns the number of moves the student makes in a full solve:
// every other solution entry starting with the first.
func (r *Record) Plies() int {
	return (len(r.Solution) + 1) / 2
}
