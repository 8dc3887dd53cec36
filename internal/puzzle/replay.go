package puzzle

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesspuzzles/internal/rules"
)

// ReplayError reports a stored move that no longer applies.
type ReplayError struct {
	PuzzleID  string
	Ply       int // 1-based index into Solution, 0 for the preloaded move
	Move      string
	Preloaded bool
	Err       error
}

func (e *ReplayError) Error() string {
	id := e.PuzzleID
	if id == "" {
		id = "(unsaved)"
	}
	if e.Preloaded {
		return fmt.Sprintf("puzzle %s: preloaded move %q does not apply: %v", id, e.Move, e.Err)
	}
	return fmt.Sprintf("puzzle %s: solution move %d %q does not apply: %v", id, e.Ply, e.Move, e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }

// PlayPreloaded applies the preloaded move of r, which belongs to the side
// not to move in r.FEN, and returns the resulting position. Records without
// a preloaded move return r.FEN unchanged.
func PlayPreloaded(o rules.Oracle, r *Record) (string, rules.Move, error) {
	if !r.HasPreloadedMove() {
		return r.FEN, rules.Move{}, nil
	}
	flipped, err := rules.FlipSide(r.FEN)
	if err != nil {
		return "", rules.Move{}, err
	}
	next, mv, err := o.ApplyMoveBySAN(flipped, r.PreloadedMove)
	if err != nil {
		return "", rules.Move{}, &ReplayError{PuzzleID: r.ID, Move: r.PreloadedMove, Preloaded: true, Err: err}
	}
	return next, mv, nil
}

// Replay plays the preloaded move and every solution move of r and returns
// the final position.
func Replay(o rules.Oracle, r *Record) (string, error) {
	fen, _, err := PlayPreloaded(o, r)
	if err != nil {
		return "", err
	}
	for i, san := range r.Solution {
		next, _, err := o.ApplyMoveBySAN(fen, san)
		if err != nil {
			return "", &ReplayError{PuzzleID: r.ID, Ply: i + 1, Move: san, Err: err}
		}
		fen = next
	}
	return fen, nil
}

// Verify validates r and replays it.
func Verify(o rules.Oracle, r *Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	_, err := Replay(o, r)
	return err
}

// VerifyResult pairs a record ID with its verification error, nil if it
// replays cleanly.
type VerifyResult struct {
	ID  string
	Err error
}

// VerifyAll checks records concurrently, at most limit at a time (limit <= 0
// means no bound). Results follow the order of records. The returned error
// is non-nil only if ctx ends first.
func VerifyAll(ctx context.Context, o rules.Oracle, records []*Record, limit int) ([]VerifyResult, error) {
	results := make([]VerifyResult, len(records))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, r := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = VerifyResult{ID: r.ID, Err: Verify(o, r)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Failed returns the results with a non-nil error.
func Failed(results []VerifyResult) []VerifyResult {
	var out []VerifyResult
	for _, res := range results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// IsReplayError reports whether err carries a *ReplayError.
func IsReplayError(err error) bool {
	var re *ReplayError
	return errors.As(err, &re)
}
