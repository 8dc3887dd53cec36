package solving

import (
	"strings"

	"github.com/hailam/chesspuzzles/internal/board"
	"github.com/hailam/chesspuzzles/internal/rules"
)

// Predicate is one way a played move can equal a stored solution entry.
type Predicate struct {
	Name  string
	Match func(played rules.Move, expected string) bool
}

// Matcher is an ordered list of predicates; the first that matches wins.
type Matcher []Predicate

// Match reports whether played equals expected and names the predicate
// that accepted it.
func (m Matcher) Match(played rules.Move, expected string) (string, bool) {
	expected = strings.TrimSpace(expected)
	for _, p := range m {
		if p.Match(played, expected) {
			return p.Name, true
		}
	}
	return "", false
}

// Stored solutions come in several notations, so a move counts as correct
// when any of these agree with the entry.
var (
	// SAN compares algebraic notation, ignoring case and check, mate and
	// evaluation marks.
	SAN = Predicate{Name: "san", Match: func(played rules.Move, expected string) bool {
		return played.SAN != "" && strings.EqualFold(board.StripAnnotations(played.SAN), board.StripAnnotations(expected))
	}}
	// Destination accepts an entry that is just the target square.
	Destination = Predicate{Name: "destination", Match: func(played rules.Move, expected string) bool {
		return strings.EqualFold(played.To.String(), expected)
	}}
	// Coordinates accepts from and to squares run together, with or
	// without a promotion letter.
	Coordinates = Predicate{Name: "coordinates", Match: func(played rules.Move, expected string) bool {
		return strings.EqualFold(played.From.String()+played.To.String(), expected) ||
			(played.UCI != "" && strings.EqualFold(played.UCI, expected))
	}}
)

// DefaultMatcher tries SAN, then destination, then coordinates.
func DefaultMatcher() Matcher {
	return Matcher{SAN, Destination, Coordinates}
}
