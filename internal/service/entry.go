package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/molo/molo-go/internal/events"
	"github.com/molo/molo-go/internal/model"
	"github.com/molo/molo-go/internal/repository"
)

// Limits match the entries table columns.
const (
	maxEntryIDLength = 64
	maxTitleLength   = 512
	maxDateLength    = 64
)

// EntryStore persists diary entries. Save is an atomic upsert by ID that keeps
// CreatedAt of an existing row; Update fails with repository.ErrEntryNotFound
// when the ID is unknown.
type EntryStore interface {
	List(ctx context.Context) ([]model.Entry, error)
	Get(ctx context.Context, id string) (model.Entry, error)
	Save(ctx context.Context, entry model.Entry) (model.Entry, error)
	Update(ctx context.Context, entry model.Entry) (model.Entry, error)
	Delete(ctx context.Context, id string) error
}

// EntryService handles diary entry business logic.
type EntryService struct {
	store  EntryStore
	events events.Publisher
	now    func() time.Time
}

// NewEntryService creates a new EntryService.
func NewEntryService(store EntryStore, pub events.Publisher) *EntryService {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &EntryService{store: store, events: pub, now: time.Now}
}

// List returns all entries, most recently updated first.
func (s *EntryService) List(ctx context.Context) ([]model.Entry, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.Entry{}
	}
	return entries, nil
}

// Get returns a single entry.
func (s *EntryService) Get(ctx context.Context, id string) (model.Entry, error) {
	entry, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrEntryNotFound) {
		return model.Entry{}, ErrEntryNotFound
	}
	return entry, err
}

// Save creates the entry or replaces the one with the same ID.
func (s *EntryService) Save(ctx context.Context, req model.EntryRequest) (model.Entry, error) {
	if err := validateEntry(req); err != nil {
		return model.Entry{}, err
	}

	now := s.now().UnixMilli()
	entry := req.ToEntry()
	entry.CreatedAt, entry.UpdatedAt = now, now

	saved, err := s.store.Save(ctx, entry)
	if err != nil {
		return model.Entry{}, err
	}

	s.publish(ctx, events.TypeEntrySaved, saved.ID)
	return saved, nil
}

// Update replaces an existing entry identified by id.
func (s *EntryService) Update(ctx context.Context, id string, req model.EntryRequest) (model.Entry, error) {
	req.ID = id
	if err := validateEntry(req); err != nil {
		return model.Entry{}, err
	}

	entry := req.ToEntry()
	entry.UpdatedAt = s.now().UnixMilli()

	saved, err := s.store.Update(ctx, entry)
	if err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			return model.Entry{}, ErrEntryNotFound
		}
		return model.Entry{}, err
	}

	s.publish(ctx, events.TypeEntrySaved, saved.ID)
	return saved, nil
}

// Delete removes an entry.
func (s *EntryService) Delete(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrEntryNotFound) {
		return ErrEntryNotFound
	}
	if err != nil {
		return err
	}

	s.publish(ctx, events.TypeEntryDeleted, id)
	return nil
}

func (s *EntryService) publish(ctx context.Context, typ, id string) {
	publishEvent(ctx, s.events, events.Event{Type: typ, EntryID: id, OccurredAt: s.now().UTC()})
}

func validateEntry(req model.EntryRequest) error {
	switch {
	case req.ID == "":
		return ErrEntryIDRequired
	case len(req.ID) > maxEntryIDLength:
		return ErrEntryIDTooLong
	case strings.TrimSpace(req.Title) == "":
		return ErrTitleRequired
	case utf8.RuneCountInString(req.Title) > maxTitleLength:
		return ErrTitleTooLong
	case req.Content == "":
		return ErrContentRequired
	case req.Date == "":
		return ErrDateRequired
	case utf8.RuneCountInString(req.Date) > maxDateLength:
		return ErrDateTooLong
	}
	return nil
}

// publishEvent never fails the caller; audit delivery is best effort.
func publishEvent(ctx context.Context, pub events.Publisher, ev events.Event) {
	if err := pub.Publish(ctx, ev); err != nil {
		slog.Warn("publish audit event", "type", ev.Type, "entry_id", ev.EntryID, "error", err)
	}
}
