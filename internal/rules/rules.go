// Package rules is the move legality port used by the puzzle editor and
// player. Positions cross it as canonical position strings so that any
// chess library can sit behind it.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hailam/chesspuzzles/internal/board"
)

var (
	// ErrIllegalMove is matched by every *IllegalMoveError.
	ErrIllegalMove = errors.New("illegal move")
	// ErrPromotionRequired is returned by ApplyMove when a pawn reaches the
	// last rank and no promotion piece was given.
	ErrPromotionRequired = errors.New("promotion piece required")
	// ErrUnknownOracle is returned by New for an unrecognized kind.
	ErrUnknownOracle = errors.New("unknown rules oracle")
)

// IllegalMoveError reports a move the oracle refused.
type IllegalMoveError struct {
	FEN    string
	Move   string
	Reason string
}

func (e *IllegalMoveError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("illegal move %s in %q", e.Move, e.FEN)
	}
	return fmt.Sprintf("illegal move %s in %q: %s", e.Move, e.FEN, e.Reason)
}

func (e *IllegalMoveError) Unwrap() error { return ErrIllegalMove }

// MoveOption is one legal destination for a piece.
type MoveOption struct {
	To        board.Square
	Promotion bool
	Capture   bool
}

// Move describes a move that was applied.
type Move struct {
	From      board.Square
	To        board.Square
	Promotion board.PieceType
	SAN       string
	UCI       string
	Capture   bool
	Check     bool
	Checkmate bool
}

// Oracle answers legality questions about positions given as strings.
// Returned positions are canonical, with counters "0 1".
type Oracle interface {
	// LegalMoves lists the destinations of the piece on from. A square
	// without a piece of the side to move yields no options.
	LegalMoves(fen string, from board.Square) ([]MoveOption, error)
	LegalDestinations(fen string, from board.Square) ([]board.Square, error)
	// ApplyMove plays from-to. promo is ignored unless the move promotes,
	// in which case it must be one of N, B, R, Q.
	ApplyMove(fen string, from, to board.Square, promo board.PieceType) (string, Move, error)
	// ApplyMoveBySAN plays a move written in SAN. Coordinate notation
	// ("e2e4", "e7e8q") is accepted as well.
	ApplyMoveBySAN(fen, notation string) (string, Move, error)
	IsCheckmate(fen string) (bool, error)
	IsDraw(fen string) (bool, error)
}

// Kinds accepted by New.
const (
	KindBuiltin = "builtin"
	KindLibrary = "library"
)

// New returns the oracle for kind. The empty kind selects the builtin one.
func New(kind string) (Oracle, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindBuiltin:
		return Engine{}, nil
	case KindLibrary:
		return Library{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOracle, kind)
}

// NeedsPromotion reports whether from-to is a legal pawn move onto the last
// rank.
func NeedsPromotion(o Oracle, fen string, from, to board.Square) (bool, error) {
	opts, err := o.LegalMoves(fen, from)
	if err != nil {
		return false, err
	}
	for _, opt := range opts {
		if opt.To == to {
			return opt.Promotion, nil
		}
	}
	return false, nil
}

// FlipSide hands the move to the other side and clears the en passant
// target, which only belonged to the original side.
func FlipSide(fen string) (string, error) {
	g, f, err := board.Decode(fen)
	if err != nil {
		return "", err
	}
	f.SideToMove = f.SideToMove.Other()
	f.EnPassant = board.NoSquare
	return board.Encode(g, f), nil
}

// Canonical re-encodes fen with counters "0 1".
func Canonical(fen string) (string, error) {
	g, f, err := board.Decode(fen)
	if err != nil {
		return "", err
	}
	return board.Encode(g, f), nil
}

// looksLikeCoordinates reports whether s has the shape of "e2e4" or "e7e8q".
func looksLikeCoordinates(s string) bool {
	s = strings.ToLower(s)
	if len(s) != 4 && len(s) != 5 {
		return false
	}
	if _, err := board.ParseSquare(s[:2]); err != nil {
		return false
	}
	_, err := board.ParseSquare(s[2:4])
	return err == nil
}

func destinations(opts []MoveOption) []board.Square {
	out := make([]board.Square, 0, len(opts))
	for _, opt := range opts {
		out = append(out, opt.To)
	}
	return out
}
