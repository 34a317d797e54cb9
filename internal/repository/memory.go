package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/molo/molo-go/internal/model"
)

// MemoryCredentialRepository keeps the credential in process memory. It is
// used by the memory storage driver and in tests.
type MemoryCredentialRepository struct {
	mu   sync.RWMutex
	cred *model.Credential
}

// NewMemoryCredentialRepository creates an empty MemoryCredentialRepository.
func NewMemoryCredentialRepository() *MemoryCredentialRepository {
	return &MemoryCredentialRepository{}
}

func (r *MemoryCredentialRepository) Exists(ctx context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cred != nil, nil
}

func (r *MemoryCredentialRepository) Create(ctx context.Context, cred *model.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cred != nil {
		return ErrCredentialExists
	}

	now := time.Now().UTC()
	c := *cred
	c.CreatedAt, c.UpdatedAt = now, now
	r.cred = &c
	return nil
}

func (r *MemoryCredentialRepository) Get(ctx context.Context) (*model.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.cred == nil {
		return nil, ErrCredentialNotFound
	}
	c := *r.cred
	return &c, nil
}

// MemoryEntryRepository keeps entries in process memory with the same
// semantics as EntryRepository.
type MemoryEntryRepository struct {
	mu      sync.RWMutex
	entries map[string]model.Entry
}

// NewMemoryEntryRepository creates an empty MemoryEntryRepository.
func NewMemoryEntryRepository() *MemoryEntryRepository {
	return &MemoryEntryRepository{entries: make(map[string]model.Entry)}
}

func (r *MemoryEntryRepository) List(ctx context.Context) ([]model.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]model.Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].UpdatedAt != entries[j].UpdatedAt {
			return entries[i].UpdatedAt > entries[j].UpdatedAt
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

func (r *MemoryEntryRepository) Get(ctx context.Context, id string) (model.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return model.Entry{}, ErrEntryNotFound
	}
	return e, nil
}

func (r *MemoryEntryRepository) Save(ctx context.Context, entry model.Entry) (model.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.entries[entry.ID]
	if !ok {
		r.entries[entry.ID] = entry
		return entry, nil
	}

	r.entries[entry.ID] = merge(existing, entry)
	return r.entries[entry.ID], nil
}

func (r *MemoryEntryRepository) Update(ctx context.Context, entry model.Entry) (model.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.entries[entry.ID]
	if !ok {
		return model.Entry{}, ErrEntryNotFound
	}

	existing.Title, existing.Content, existing.Date = entry.Title, entry.Content, entry.Date
	existing.UpdatedAt = max(existing.UpdatedAt, entry.UpdatedAt)
	r.entries[entry.ID] = existing
	return existing, nil
}

func (r *MemoryEntryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return ErrEntryNotFound
	}
	delete(r.entries, id)
	return nil
}

// merge mirrors upsertQuery: incoming fields win unless they are older than
// the stored row, and created_at never changes.
func merge(existing, incoming model.Entry) model.Entry {
	if incoming.UpdatedAt >= existing.UpdatedAt {
		existing.Title = incoming.Title
		existing.Content = incoming.Content
		existing.Date = incoming.Date
		existing.UpdatedAt = incoming.UpdatedAt
	}
	return existing
}
