// Package driver runs editor and player sessions from a line-oriented
// command stream, one command per line.
package driver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesspuzzles/internal/authoring"
	"github.com/hailam/chesspuzzles/internal/feedback"
	"github.com/hailam/chesspuzzles/internal/puzzle"
	"github.com/hailam/chesspuzzles/internal/rules"
	"github.com/hailam/chesspuzzles/internal/solving"
	"github.com/hailam/chesspuzzles/internal/timeline"
)

// errQuit ends Run without an error.
var errQuit = errors.New("quit")

type mode int

const (
	modeNone mode = iota
	modeAuthoring
	modeSolving
)

type Option func(*Driver)

func WithLogger(log zerolog.Logger) Option {
	return func(d *Driver) { d.log = log }
}

// WithRealtime makes the driver wait out each step's delay before running it.
func WithRealtime(on bool) Option {
	return func(d *Driver) { d.realtime = on }
}

// WithVerifyWorkers bounds how many puzzles "verify" checks at once.
func WithVerifyWorkers(n int) Option {
	return func(d *Driver) { d.workers = n }
}

func WithAuthoringOptions(opts ...authoring.Option) Option {
	return func(d *Driver) { d.authorOpts = append(d.authorOpts, opts...) }
}

func WithSolvingOptions(opts ...solving.Option) Option {
	return func(d *Driver) { d.solveOpts = append(d.solveOpts, opts...) }
}

// WithSink also sends session feedback to sink, next to the printed lines.
func WithSink(sink feedback.Sink) Option {
	return func(d *Driver) { d.extra = sink }
}

// Driver owns at most one editor and one player session. It is not safe
// for concurrent use.
type Driver struct {
	oracle rules.Oracle
	repo   puzzle.Repository
	log    zerolog.Logger

	realtime   bool
	workers    int
	authorOpts []authoring.Option
	solveOpts  []solving.Option
	extra      feedback.Sink
	sleep      func(context.Context, time.Duration) error

	out    io.Writer
	mode   mode
	author *authoring.Session
	solver *solving.Session
	meta   puzzle.Metadata
}

func New(o rules.Oracle, repo puzzle.Repository, opts ...Option) *Driver {
	d := &Driver{
		oracle:  o,
		repo:    repo,
		log:     zerolog.Nop(),
		workers: 4,
		sleep:   sleepCtx,
		out:     io.Discard,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run reads commands from in until "quit", end of input or ctx ends.
// Command errors are printed as "error: ..." and do not stop the loop.
func (d *Driver) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	d.out = out
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		err := d.dispatch(ctx, parts[0], parts[1:])
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			d.fail(parts[0], err)
		}
		if err := d.runSteps(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.fail("step", err)
		}
	}
	return scanner.Err()
}

func (d *Driver) fail(cmd string, err error) {
	fmt.Fprintf(d.out, "error: %v\n", err)
	ev := d.log.Warn()
	if puzzle.IsReplayError(err) {
		ev = d.log.Error()
	}
	ev.Err(err).Str("command", cmd).Msg("command failed")
}

// runSteps runs the active session's pending steps.
func (d *Driver) runSteps(ctx context.Context) error {
	var sleepErr error
	wait := func(s timeline.Step) {
		fmt.Fprintf(d.out, "step: %s\n", s.Name)
		if d.realtime && sleepErr == nil {
			sleepErr = d.sleep(ctx, s.Delay)
		}
	}
	var err error
	switch d.mode {
	case modeAuthoring:
		err = d.author.Drain(wait)
	case modeSolving:
		err = d.solver.Drain(wait)
	}
	if sleepErr != nil {
		return sleepErr
	}
	return err
}

func (d *Driver) sink() feedback.Sink {
	return feedback.Multi(feedback.SinkFunc(d.print), d.extra)
}

func (d *Driver) print(e feedback.Event) {
	fmt.Fprintf(d.out, "%s: %s\n", e.Kind, e.Message())
}

func (d *Driver) println(format string, args ...any) {
	fmt.Fprintf(d.out, format+"\n", args...)
}

func (d *Driver) newAuthor() {
	opts := append([]authoring.Option{authoring.WithSink(d.sink())}, d.authorOpts...)
	d.author = authoring.New(d.oracle, opts...)
	d.meta = puzzle.Metadata{IsEnabled: true}
	d.mode = modeAuthoring
}

func (d *Driver) newSolver() {
	opts := append([]solving.Option{solving.WithSink(d.sink())}, d.solveOpts...)
	d.solver = solving.New(d.oracle, opts...)
	d.mode = modeSolving
}

func (d *Driver) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "quit":
		return errQuit
	case "new":
		d.newAuthor()
		d.println("ok")
		return nil
	case "tool", "side", "castle", "ep", "clear", "standard", "preload", "commit",
		"move", "undo", "back", "meta", "save":
		if d.author == nil || d.mode != modeAuthoring {
			return errors.New("no puzzle being edited; use new or edit")
		}
		return d.authoring(ctx, cmd, args)
	case "try", "reset", "hint":
		if d.solver == nil || d.mode != modeSolving {
			return errors.New("no puzzle being solved; use solve")
		}
		return d.solving(cmd, args)
	case "click":
		return d.click(args)
	case "promote":
		return d.promote(args)
	case "show":
		return d.show()
	case "edit":
		return d.edit(ctx, args)
	case "solve":
		return d.solve(ctx, args)
	case "list":
		return d.list(ctx)
	case "delete":
		return d.delete(ctx, args)
	case "verify":
		return d.verify(ctx)
	}
	return fmt.Errorf("unknown command %q", cmd)
}
