package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nao1215/jobharvest/internal/config"
	"github.com/nao1215/jobharvest/internal/database"
	"github.com/nao1215/jobharvest/internal/model"
)

func sampleState() model.RunState {
	return model.RunState{
		RunID:       "4f1c2a9e-0000-4000-8000-000000000001",
		Saved:       7,
		CompletedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Stats: model.StatsSnapshot{
			ItemsSaved:  7,
			DetailPages: 8,
			Duration:    90 * time.Second,
		},
		Politeness: model.PolitenessState{
			GlobalBackoff:        1450 * time.Millisecond,
			ConsecutiveSuccesses: 4,
			BlockedCount:         2,
		},
	}
}

// roundTrip saves a state and checks that a fresh Load returns it.
func roundTrip(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Load(ctx); err != nil || ok {
		t.Fatalf("empty store Load() ok=%v err=%v", ok, err)
	}

	want := sampleState()
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, ok, err := s.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load failed: ok=%v err=%v", ok, err)
	}
	if got.Saved != 7 || got.RunID != want.RunID || !got.CompletedAt.Equal(want.CompletedAt) {
		t.Errorf("Load() = %+v", got)
	}
	if got.Stats.DetailPages != 8 || got.Stats.Duration != 90*time.Second {
		t.Errorf("stats not restored: %+v", got.Stats)
	}
	if got.Politeness != want.Politeness {
		t.Errorf("politeness = %+v, want %+v", got.Politeness, want.Politeness)
	}
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		roundTrip(t, NewFileStore(filepath.Join(t.TempDir(), "nested", "state.json")))
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "state.json")
		if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, _, err := NewFileStore(path).Load(context.Background()); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("save leaves no temporary files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		s := NewFileStore(filepath.Join(dir, "state.json"))
		for range 3 {
			if err := s.Save(context.Background(), sampleState()); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("expected only state.json, got %d entries", len(entries))
		}
	})
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()

	roundTrip(t, NewSQLiteStore(db))
}

// fakeRedis is an in-memory redisClient.
type fakeRedis struct {
	mu     sync.Mutex
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Close() error { return nil }

func TestRedisStore(t *testing.T) {
	t.Parallel()

	t.Run("round trip under prefixed key with TTL", func(t *testing.T) {
		t.Parallel()

		client := newFakeRedis()
		roundTrip(t, NewRedisStoreWithClient(client, "jobharvest:", time.Hour))

		if _, ok := client.data["jobharvest:STATE"]; !ok {
			t.Errorf("state not stored under prefixed key: %v", client.data)
		}
		if client.ttls["jobharvest:STATE"] != time.Hour {
			t.Errorf("ttl = %v, want 1h", client.ttls["jobharvest:STATE"])
		}
	})

	t.Run("connection errors are returned", func(t *testing.T) {
		t.Parallel()

		client := newFakeRedis()
		client.getErr = errors.New("connection refused")
		if _, _, err := NewRedisStoreWithClient(client, "p:", 0).Load(context.Background()); err == nil {
			t.Error("expected error")
		}
	})
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("file backend", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.StateBackend = config.StateFile
		cfg.StateFile = filepath.Join(t.TempDir(), "s.json")
		s, err := Open(cfg, nil)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if _, ok := s.(*FileStore); !ok {
			t.Errorf("expected *FileStore, got %T", s)
		}
	})

	t.Run("none backend never persists", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.StateBackend = config.StateNone
		s, err := Open(cfg, nil)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		_ = s.Save(context.Background(), sampleState())
		if _, ok, _ := s.Load(context.Background()); ok {
			t.Error("none backend returned state")
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.StateBackend = "etcd"
		if _, err := Open(cfg, nil); !errors.Is(err, config.ErrUnknownStateBackend) {
			t.Errorf("expected ErrUnknownStateBackend, got %v", err)
		}
	})
}
