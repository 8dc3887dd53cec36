package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hailam/chesspuzzles/internal/puzzle"
)

const keyPrefix = "puzzle/"

// ErrExists is returned by Create for an ID that is already stored.
var ErrExists = errors.New("puzzle already exists")

func recordKey(id string) []byte { return []byte(keyPrefix + id) }

// Store is a puzzle.Repository backed by BadgerDB. Records are stored as
// JSON under "puzzle/<id>". It is safe for concurrent use.
type Store struct {
	db  *badger.DB
	log zerolog.Logger
	now func() time.Time
}

var _ puzzle.Repository = (*Store)(nil)

// Open opens or creates the database in dir.
func Open(dir string, log zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{log.With().Str("component", "badger").Logger()})
	return open(opts, log)
}

// OpenInMemory opens a database that lives only as long as the Store.
func OpenInMemory(log zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, log)
}

func open(opts badger.Options, log zerolog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open puzzle store: %w", err)
	}
	return &Store{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Create stores a new record, assigning a UUID when r has no ID.
func (s *Store) Create(ctx context.Context, r *puzzle.Record) (*puzzle.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	rec := r.Clone()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := s.now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(recordKey(rec.ID))
		if err == nil {
			return fmt.Errorf("%w: %s", ErrExists, rec.ID)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return put(txn, rec)
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("id", rec.ID).Str("fen", rec.FEN).Msg("puzzle created")
	return rec, nil
}

// Update replaces a stored record. CreatedAt is kept from the stored copy.
func (s *Store) Update(ctx context.Context, r *puzzle.Record) (*puzzle.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.ID == "" {
		return nil, fmt.Errorf("update: %w: empty id", puzzle.ErrNotFound)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	rec := r.Clone()
	rec.UpdatedAt = s.now()

	err := s.db.Update(func(txn *badger.Txn) error {
		old, err := get(txn, rec.ID)
		if err != nil {
			return err
		}
		rec.CreatedAt = old.CreatedAt
		return put(txn, rec)
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("id", rec.ID).Msg("puzzle updated")
	return rec, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := get(txn, id); err != nil {
			return err
		}
		return txn.Delete(recordKey(id))
	})
	if err != nil {
		return err
	}
	s.log.Debug().Str("id", id).Msg("puzzle deleted")
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*puzzle.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec *puzzle.Record
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = get(txn, id)
		return err
	})
	return rec, err
}

// List returns every record, oldest first.
func (s *Store) List(ctx context.Context) ([]*puzzle.Record, error) {
	var out []*puzzle.Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec := &puzzle.Record{}
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, rec)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b *puzzle.Record) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func get(txn *badger.Txn, id string) (*puzzle.Record, error) {
	item, err := txn.Get(recordKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", puzzle.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	rec := &puzzle.Record{}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, rec)
	})
	return rec, err
}

func put(txn *badger.Txn, rec *puzzle.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return txn.Set(recordKey(rec.ID), data)
}

// badgerLogger sends badger's own messages to zerolog. Info and debug
// chatter is demoted to trace.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Trace().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msgf(strings.TrimSpace(format), args...)
}
