package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/jobharvest/internal/config"
	"github.com/nao1215/jobharvest/internal/database"
	"github.com/nao1215/jobharvest/internal/model"
)

// Store loads and saves the run state.
type Store interface {
	// Load returns the persisted state. It reports false when nothing was
	// persisted yet.
	Load(ctx context.Context) (model.RunState, bool, error)

	// Save replaces the persisted state.
	Save(ctx context.Context, st model.RunState) error

	// Close releases the store.
	Close() error
}

// Open creates the store selected by cfg.StateBackend. The sqlite store
// uses db, which the caller keeps owning.
func Open(cfg *config.Config, db *database.CrawlDB) (Store, error) {
	switch cfg.StateBackend {
	case config.StateSQLite:
		if db == nil {
			return nil, errors.New("sqlite state store requires a database")
		}
		return NewSQLiteStore(db), nil
	case config.StateFile:
		return NewFileStore(cfg.StatePath()), nil
	case config.StateRedis:
		return NewRedisStore(cfg.RedisAddr, cfg.RedisKey, cfg.RedisTTL), nil
	case config.StateNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownStateBackend, cfg.StateBackend)
	}
}

// Nop discards state. Load always reports nothing persisted.
type Nop struct{}

// Load implements Store.
func (Nop) Load(context.Context) (model.RunState, bool, error) { return model.RunState{}, false, nil }

// Save implements Store.
func (Nop) Save(context.Context, model.RunState) error { return nil }

// Close implements Store.
func (Nop) Close() error { return nil }

// SQLiteStore keeps the state in the kv_store table under model.StateKey.
type SQLiteStore struct {
	db  *database.CrawlDB
	key string
}

// NewSQLiteStore creates a store over db. Close does not close db.
func NewSQLiteStore(db *database.CrawlDB) *SQLiteStore {
	return &SQLiteStore{db: db, key: model.StateKey}
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) (model.RunState, bool, error) {
	var st model.RunState
	ok, err := s.db.GetValue(ctx, s.key, &st)
	if err != nil || !ok {
		return model.RunState{}, false, err
	}
	return st, true, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, st model.RunState) error {
	return s.db.SetValue(ctx, s.key, st)
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return nil
}
