// Command puzzlectl edits and plays chess puzzles over a line protocol on
// stdin. Type "new" to start editing, "solve <id>" to play a stored puzzle.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/hailam/chesspuzzles/internal/api"
	"github.com/hailam/chesspuzzles/internal/authoring"
	"github.com/hailam/chesspuzzles/internal/config"
	"github.com/hailam/chesspuzzles/internal/driver"
	"github.com/hailam/chesspuzzles/internal/feedback"
	"github.com/hailam/chesspuzzles/internal/logging"
	"github.com/hailam/chesspuzzles/internal/puzzle"
	"github.com/hailam/chesspuzzles/internal/rules"
	"github.com/hailam/chesspuzzles/internal/solving"
	"github.com/hailam/chesspuzzles/internal/storage"
)

var (
	configPath = flag.String("config", "", "YAML config file")
	dataDir    = flag.String("data", "", "local database directory (default: platform data dir)")
	apiURL     = flag.String("api", "", "puzzle service base URL; overrides the local database")
	oracle     = flag.String("oracle", "", "rules oracle: builtin or library")
	logLevel   = flag.String("log-level", "", "log level: trace, debug, info, warn, error")
	realtime   = flag.Bool("realtime", false, "wait out step delays")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "puzzlectl:", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	// Flags given on the command line win over file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.DataDir = *dataDir
		case "api":
			cfg.APIURL = *apiURL
		case "oracle":
			cfg.Oracle = *oracle
		case "log-level":
			cfg.LogLevel = *logLevel
		case "realtime":
			cfg.Realtime = *realtime
		}
	})
	return cfg, cfg.Validate()
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}
	o, err := rules.New(cfg.Oracle)
	if err != nil {
		return err
	}

	repo, closeRepo, err := openRepository(cfg, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	cached, err := storage.NewCached(repo, cfg.CacheSize)
	if err != nil {
		return err
	}
	defer cached.Close()

	d := driver.New(o, cached,
		driver.WithLogger(log),
		driver.WithRealtime(cfg.Realtime),
		driver.WithVerifyWorkers(cfg.VerifyWorkers),
		driver.WithSink(feedback.NewLogger(log)),
		driver.WithAuthoringOptions(authoring.WithAdvanceDelay(cfg.Delays.Advance)),
		driver.WithSolvingOptions(solving.WithDelays(solving.Delays{
			Preload: cfg.Delays.Preload,
			Reply:   cfg.Delays.Reply,
			Revert:  cfg.Delays.Revert,
		})),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("oracle", cfg.Oracle).Bool("realtime", cfg.Realtime).Msg("puzzlectl ready")
	// Reading stdin cannot be interrupted, so a signal stops waiting for
	// the loop instead.
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, os.Stdin, os.Stdout) }()
	select {
	case err := <-done:
		if err != nil && ctx.Err() == nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("interrupted")
	}
	hits, misses := cached.Stats()
	log.Debug().Uint64("cache_hits", hits).Uint64("cache_misses", misses).Msg("bye")
	return nil
}

// openRepository returns the remote service client when an API URL is
// configured, otherwise the local database.
func openRepository(cfg config.Config, log zerolog.Logger) (puzzle.Repository, func(), error) {
	if cfg.APIURL != "" {
		c, err := api.New(cfg.APIURL,
			api.WithTimeout(cfg.APITimeout),
			api.WithLogger(log.With().Str("component", "api").Logger()))
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("url", cfg.APIURL).Msg("using puzzle service")
		return c, func() {}, nil
	}

	dir, err := storage.DatabaseDir(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.Open(dir, log)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("dir", dir).Msg("using local database")
	return store, func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("close database")
		}
	}, nil
}
