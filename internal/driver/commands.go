package driver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hailam/chesspuzzles/internal/authoring"
	"github.com/hailam/chesspuzzles/internal/board"
	"github.com/hailam/chesspuzzles/internal/puzzle"
	"github.com/hailam/chesspuzzles/internal/solving"
)

func needArgs(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

// parseMove splits "e2e4" or "e7e8q" into squares and an optional
// promotion piece.
func parseMove(s string) (from, to board.Square, promo board.PieceType, err error) {
	promo = board.NoPieceType
	if len(s) != 4 && len(s) != 5 {
		return board.NoSquare, board.NoSquare, promo, fmt.Errorf("move %q: want from and to squares, e.g. e2e4", s)
	}
	if from, err = board.ParseSquare(s[:2]); err != nil {
		return
	}
	if to, err = board.ParseSquare(s[2:4]); err != nil {
		return
	}
	if len(s) == 5 {
		promo, err = board.ParsePromotion(s[4:])
	}
	return
}

func (d *Driver) authoring(ctx context.Context, cmd string, args []string) error {
	a := d.author
	switch cmd {
	case "tool":
		if err := needArgs(args, 1, "tool <piece|x>"); err != nil {
			return err
		}
		p := board.NoPiece
		if args[0] != "x" {
			if len(args[0]) != 1 {
				return fmt.Errorf("piece %q: want one of PNBRQKpnbrqk or x", args[0])
			}
			if p = board.PieceFromChar(args[0][0]); p == board.NoPiece {
				return fmt.Errorf("piece %q: want one of PNBRQKpnbrqk or x", args[0])
			}
		}
		return a.SelectTool(p)

	case "side":
		if err := needArgs(args, 1, "side <w|b>"); err != nil {
			return err
		}
		c, err := board.ParseColor(args[0])
		if err != nil {
			return err
		}
		return a.SetSideToMove(c)

	case "castle":
		if err := needArgs(args, 1, "castle <KQkq|->"); err != nil {
			return err
		}
		if err := a.SetCastling(board.AllCastling, false); err != nil {
			return err
		}
		if args[0] == "-" {
			return nil
		}
		for _, c := range args[0] {
			right, ok := map[rune]board.CastlingRights{
				'K': board.WhiteKingSideCastle,
				'Q': board.WhiteQueenSideCastle,
				'k': board.BlackKingSideCastle,
				'q': board.BlackQueenSideCastle,
			}[c]
			if !ok {
				return fmt.Errorf("castling %q: want letters from KQkq", args[0])
			}
			a.SetCastling(right, true)
		}
		return nil

	case "ep":
		if err := needArgs(args, 1, "ep <square|->"); err != nil {
			return err
		}
		if args[0] == "-" {
			return a.SetEnPassant(board.NoSquare)
		}
		sq, err := board.ParseSquare(args[0])
		if err != nil {
			return err
		}
		return a.SetEnPassant(sq)

	case "clear":
		return a.ClearBoard()

	case "standard":
		return a.StandardPosition()

	case "preload":
		if err := needArgs(args, 1, "preload <on|off>"); err != nil {
			return err
		}
		on, err := parseSwitch(args[0])
		if err != nil {
			return err
		}
		return a.SetPreloadEnabled(on)

	case "commit":
		if err := a.Commit(); err != nil {
			return err
		}
		d.println("phase: %s", a.Phase())
		return nil

	case "move":
		if err := needArgs(args, 1, "move <uci>"); err != nil {
			return err
		}
		from, to, promo, err := parseMove(args[0])
		if err != nil {
			return err
		}
		res, err := a.Move(from, to)
		if err != nil {
			return err
		}
		if res == authoring.NeedsPromotion && promo != board.NoPieceType {
			if res, err = a.ChoosePromotion(promo); err != nil {
				return err
			}
		}
		d.println("%s", res)
		return nil

	case "undo":
		if err := a.Undo(); err != nil {
			return err
		}
		d.println("moves: %s", strings.Join(a.Moves(), " "))
		return nil

	case "back":
		if err := a.BackToSetup(); err != nil {
			return err
		}
		d.println("phase: %s", a.Phase())
		return nil

	case "meta":
		if err := needArgs(args, 2, "meta <key> <value...>"); err != nil {
			return err
		}
		return d.setMeta(args[0], strings.Join(args[1:], " "))

	case "save":
		return d.save(ctx)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	return strconv.ParseBool(s)
}

func (d *Driver) setMeta(key, value string) error {
	switch strings.ToLower(key) {
	case "name":
		d.meta.Name = value
	case "category":
		d.meta.Category = value
	case "description":
		d.meta.Description = value
	case "hint":
		d.meta.Hint = value
	case "difficulty":
		d.meta.Difficulty = puzzle.Difficulty(strings.ToLower(value))
	case "icon":
		d.meta.Icon = value
	case "enabled":
		on, err := parseSwitch(value)
		if err != nil {
			return err
		}
		d.meta.IsEnabled = on
	default:
		return fmt.Errorf("unknown metadata key %q", key)
	}
	return nil
}

func (d *Driver) save(ctx context.Context) error {
	r, err := d.author.Save(d.meta)
	if err != nil {
		return err
	}
	var stored *puzzle.Record
	if r.ID == "" {
		stored, err = d.repo.Create(ctx, r)
	} else {
		stored, err = d.repo.Update(ctx, r)
	}
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	// Later saves in this session update the stored record.
	if err := d.author.Edit(stored); err != nil {
		return err
	}
	d.log.Info().Str("id", stored.ID).Str("fen", stored.FEN).Int("moves", len(stored.Solution)).Msg("puzzle saved")
	d.println("saved %s", stored.ID)
	return nil
}

func (d *Driver) edit(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, "edit <id>"); err != nil {
		return err
	}
	r, err := d.repo.Get(ctx, args[0])
	if err != nil {
		return err
	}
	d.newAuthor()
	d.meta = r.Metadata()
	if err := d.author.Edit(r); err != nil {
		return err
	}
	d.println("editing %s: %s", r.ID, strings.Join(d.author.Moves(), " "))
	return nil
}

func (d *Driver) solving(cmd string, args []string) error {
	s := d.solver
	switch cmd {
	case "try":
		if err := needArgs(args, 1, "try <uci>"); err != nil {
			return err
		}
		from, to, promo, err := parseMove(args[0])
		if err != nil {
			return err
		}
		out, err := s.Attempt(from, to)
		if err != nil {
			return err
		}
		if out == solving.OutcomeNeedsPromotion && promo != board.NoPieceType {
			if out, err = s.ChoosePromotion(promo); err != nil {
				return err
			}
		}
		d.println("%s", out)
		return nil

	case "reset":
		if err := s.Reset(); err != nil {
			return err
		}
		d.println("ok")
		return nil

	case "hint":
		if h := s.Hint(); h != "" {
			d.println("hint: %s", h)
		} else {
			d.println("no hint")
		}
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (d *Driver) solve(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, "solve <id>"); err != nil {
		return err
	}
	r, err := d.repo.Get(ctx, args[0])
	if err != nil {
		return err
	}
	d.newSolver()
	if err := d.solver.Load(r); err != nil {
		return err
	}
	_, total := d.solver.Progress()
	d.println("solving %s: %s to move, %d moves", r.ID, strings.ToLower(d.solver.Orientation().String()), total)
	return nil
}

func (d *Driver) click(args []string) error {
	if err := needArgs(args, 1, "click <square>"); err != nil {
		return err
	}
	sq, err := board.ParseSquare(args[0])
	if err != nil {
		return err
	}
	switch d.mode {
	case modeAuthoring:
		if d.author.Phase() == authoring.PhaseSetup {
			return d.author.ClickSquare(sq)
		}
		res, err := d.author.Click(sq)
		if err != nil {
			return err
		}
		d.println("%s", res)
	case modeSolving:
		out, err := d.solver.Click(sq)
		if err != nil {
			return err
		}
		d.println("%s", out)
	default:
		return errors.New("nothing to click on; use new, edit or solve")
	}
	return nil
}

func (d *Driver) promote(args []string) error {
	if err := needArgs(args, 1, "promote <q|r|b|n>"); err != nil {
		return err
	}
	// An unknown letter still goes to the session, which reports it.
	pt, _ := board.ParsePromotion(args[0])
	switch d.mode {
	case modeAuthoring:
		res, err := d.author.ChoosePromotion(pt)
		if err != nil {
			return err
		}
		d.println("%s", res)
	case modeSolving:
		out, err := d.solver.ChoosePromotion(pt)
		if err != nil {
			return err
		}
		d.println("%s", out)
	default:
		return errors.New("no promotion pending")
	}
	return nil
}

func (d *Driver) show() error {
	var fen, status string
	bottom := board.White
	switch d.mode {
	case modeAuthoring:
		a := d.author
		fen = a.Position()
		status = fmt.Sprintf("phase %s, preload %q, moves [%s]", a.Phase(), a.PreloadedMove(), strings.Join(a.Moves(), " "))
	case modeSolving:
		s := d.solver
		fen = s.Position()
		bottom = s.Orientation()
		cursor, total := s.Progress()
		status = fmt.Sprintf("progress %d/%d, attempts %d, solved %v", cursor, total, s.Attempts(), s.Solved())
		if err := s.Halted(); err != nil {
			status += fmt.Sprintf(", halted: %v", err)
		}
	default:
		return errors.New("nothing to show; use new, edit or solve")
	}
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return err
	}
	d.println("%s", strings.TrimRight(pos.Diagram(bottom), "\n"))
	d.println("fen: %s", fen)
	d.println("%s", status)
	return nil
}

func (d *Driver) list(ctx context.Context) error {
	records, err := d.repo.List(ctx)
	if err != nil {
		return err
	}
	for _, r := range records {
		d.println("%s\t%s\t%s\t%d", r.ID, r.Name, r.Difficulty, r.Plies())
	}
	d.println("%d puzzles", len(records))
	return nil
}

func (d *Driver) delete(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, "delete <id>"); err != nil {
		return err
	}
	if err := d.repo.Delete(ctx, args[0]); err != nil {
		return err
	}
	d.log.Info().Str("id", args[0]).Msg("puzzle deleted")
	d.println("deleted %s", args[0])
	return nil
}

func (d *Driver) verify(ctx context.Context) error {
	records, err := d.repo.List(ctx)
	if err != nil {
		return err
	}
	results, err := puzzle.VerifyAll(ctx, d.oracle, records, d.workers)
	if err != nil {
		return err
	}
	for _, res := range puzzle.Failed(results) {
		d.log.Error().Err(res.Err).Str("id", res.ID).Msg("puzzle does not replay")
		d.println("broken %s: %v", res.ID, res.Err)
	}
	d.println("verified %d puzzles, %d broken", len(results), len(puzzle.Failed(results)))
	return nil
}
