package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/molo/molo-go/internal/events"
	"github.com/molo/molo-go/internal/model"
	"github.com/molo/molo-go/internal/repository"
)

func newTestEntryService() (*EntryService, *recordingPublisher, *fakeClock) {
	pub := &recordingPublisher{}
	clock := newFakeClock()
	svc := NewEntryService(repository.NewMemoryEntryRepository(), pub)
	svc.now = clock.Now
	return svc, pub, clock
}

func TestSave_Validation(t *testing.T) {
	svc, _, _ := newTestEntryService()
	valid := model.EntryRequest{ID: "e1", Title: "Day 1", Content: "Hello", Date: "2024-01-01"}

	tests := []struct {
		name   string
		mutate func(*model.EntryRequest)
		want   error
	}{
		{"missing id", func(r *model.EntryRequest) { r.ID = "" }, ErrEntryIDRequired},
		{"long id", func(r *model.EntryRequest) { r.ID = strings.Repeat("x", 65) }, ErrEntryIDTooLong},
		{"missing title", func(r *model.EntryRequest) { r.Title = " " }, ErrTitleRequired},
		{"missing content", func(r *model.EntryRequest) { r.Content = "" }, ErrContentRequired},
		{"missing date", func(r *model.EntryRequest) { r.Date = "" }, ErrDateRequired},
		{"long title", func(r *model.EntryRequest) { r.Title = strings.Repeat("x", 600) }, ErrTitleTooLong},
		{"long date", func(r *model.EntryRequest) { r.Date = strings.Repeat("9", 65) }, ErrDateTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := svc.Save(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestSave_LengthLimitsCountCharacters(t *testing.T) {
	svc, _, _ := newTestEntryService()

	// 512 multi-byte characters fit a VARCHAR(512) utf8mb4 column.
	title := strings.Repeat("é", 512)
	saved, err := svc.Save(context.Background(), model.EntryRequest{ID: "e1", Title: title, Content: "c", Date: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, title, saved.Title)

	_, err = svc.Update(context.Background(), "e1", model.EntryRequest{Title: title + "é", Content: "c", Date: "2024-01-01"})
	assert.ErrorIs(t, err, ErrTitleTooLong)
}

func TestSave_CreateThenUpdate(t *testing.T) {
	svc, pub, _ := newTestEntryService()
	ctx := context.Background()

	created, err := svc.Save(ctx, model.EntryRequest{ID: "e1", Title: "Day 1", Content: "Hello", Date: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	updated, err := svc.Save(ctx, model.EntryRequest{ID: "e1", Title: "Day 1", Content: "Hello again", Date: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Greater(t, updated.UpdatedAt, created.UpdatedAt)
	assert.Equal(t, "Hello again", updated.Content)

	assert.Equal(t, []string{events.TypeEntrySaved, events.TypeEntrySaved}, pub.types())
}

func TestList_OrderedByUpdatedAtDesc(t *testing.T) {
	svc, _, _ := newTestEntryService()
	ctx := context.Background()

	empty, err := svc.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, id := range []string{"t1", "t2", "t3"} {
		_, err := svc.Save(ctx, model.EntryRequest{ID: id, Title: id, Content: "c", Date: "2024-01-01"})
		require.NoError(t, err)
	}

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "t3", entries[0].ID)
	assert.Equal(t, "t2", entries[1].ID)
	assert.Equal(t, "t1", entries[2].ID)
}

func TestUpdate(t *testing.T) {
	svc, _, _ := newTestEntryService()
	ctx := context.Background()

	_, err := svc.Update(ctx, "missing", model.EntryRequest{Title: "t", Content: "c", Date: "d"})
	assert.ErrorIs(t, err, ErrEntryNotFound)

	created, err := svc.Save(ctx, model.EntryRequest{ID: "e1", Title: "t", Content: "c", Date: "d"})
	require.NoError(t, err)

	// The path id wins over the body id.
	updated, err := svc.Update(ctx, "e1", model.EntryRequest{ID: "other", Title: "t2", Content: "c2", Date: "d2"})
	require.NoError(t, err)
	assert.Equal(t, "e1", updated.ID)
	assert.Equal(t, "t2", updated.Title)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Greater(t, updated.UpdatedAt, created.UpdatedAt)

	_, err = svc.Get(ctx, "other")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestDeleteThenGet(t *testing.T) {
	svc, pub, _ := newTestEntryService()
	ctx := context.Background()

	_, err := svc.Save(ctx, model.EntryRequest{ID: "e1", Title: "t", Content: "c", Date: "d"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "e1"))
	_, err = svc.Get(ctx, "e1")
	assert.ErrorIs(t, err, ErrEntryNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "e1"), ErrEntryNotFound)

	assert.Equal(t, []string{events.TypeEntrySaved, events.TypeEntryDeleted}, pub.types())
}
