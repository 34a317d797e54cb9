package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/molo/molo-go/internal/model"
	"github.com/molo/molo-go/internal/service"
)

const (
	listKey        = "molo:entries:list"
	entryKeyPrefix = "molo:entries:id:"
	generationKey  = "molo:entries:gen"
)

// EntryStore wraps a service.EntryStore with a read-through Redis cache.
// Every write bumps the generation key and drops the list key and the written
// entry's key. A fill is only stored when the generation it was read under is
// still current, so a read racing a write never caches the older result.
type EntryStore struct {
	next service.EntryStore
	rdb  *redis.Client
	ttl  time.Duration
}

var _ service.EntryStore = (*EntryStore)(nil)

// NewEntryStore creates a caching EntryStore.
func NewEntryStore(next service.EntryStore, rdb *redis.Client, ttl time.Duration) *EntryStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &EntryStore{next: next, rdb: rdb, ttl: ttl}
}

func (s *EntryStore) List(ctx context.Context) ([]model.Entry, error) {
	var entries []model.Entry
	if s.load(ctx, listKey, &entries) {
		return entries, nil
	}

	gen, genOK := s.generation(ctx)
	entries, err := s.next.List(ctx)
	if err != nil {
		return nil, err
	}
	if genOK {
		s.store(ctx, gen, listKey, entries)
	}
	return entries, nil
}

func (s *EntryStore) Get(ctx context.Context, id string) (model.Entry, error) {
	var entry model.Entry
	if s.load(ctx, entryKeyPrefix+id, &entry) {
		return entry, nil
	}

	gen, genOK := s.generation(ctx)
	entry, err := s.next.Get(ctx, id)
	if err != nil {
		return model.Entry{}, err
	}
	if genOK {
		s.store(ctx, gen, entryKeyPrefix+id, entry)
	}
	return entry, nil
}

func (s *EntryStore) Save(ctx context.Context, entry model.Entry) (model.Entry, error) {
	saved, err := s.next.Save(ctx, entry)
	s.invalidate(ctx, entry.ID)
	return saved, err
}

func (s *EntryStore) Update(ctx context.Context, entry model.Entry) (model.Entry, error) {
	saved, err := s.next.Update(ctx, entry)
	s.invalidate(ctx, entry.ID)
	return saved, err
}

func (s *EntryStore) Delete(ctx context.Context, id string) error {
	err := s.next.Delete(ctx, id)
	s.invalidate(ctx, id)
	return err
}

func (s *EntryStore) load(ctx context.Context, key string, dst any) bool {
	bs, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(bs, dst); err != nil {
		slog.Warn("cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

// generation returns the current write generation. ok is false when Redis
// cannot be read, in which case the caller must not fill the cache.
func (s *EntryStore) generation(ctx context.Context) (int64, bool) {
	gen, err := s.rdb.Get(ctx, generationKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, true
	case err != nil:
		slog.Warn("cache generation read failed", "error", err)
		return 0, false
	}
	return gen, true
}

// store caches v under key if no write has happened since gen was read.
func (s *EntryStore) store(ctx context.Context, gen int64, key string, v any) {
	bs, err := json.Marshal(v)
	if err != nil {
		return
	}

	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, bs, s.ttl)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		// A write bumped the generation between WATCH and EXEC.
	case err != nil:
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}

// invalidate runs even when the write failed, since a failed transaction may
// still have raced with a successful one.
func (s *EntryStore) invalidate(ctx context.Context, id string) {
	ctx = context.WithoutCancel(ctx)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, listKey, entryKeyPrefix+id)
		return nil
	})
	if err != nil {
		slog.Warn("cache invalidate failed", "entry_id", id, "error", err)
	}
}
