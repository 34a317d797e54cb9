package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/molo/molo-go/internal/model"
)

var entryCols = []string{"id", "title", "content", "entry_date", "created_at", "updated_at"}

func TestEntryList(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEntryRepository(db)

	mock.ExpectQuery(`SELECT id, title, content, entry_date, created_at, updated_at FROM entries ORDER BY updated_at DESC`).
		WillReturnRows(sqlmock.NewRows(entryCols).
			AddRow("e3", "t3", "c3", "2024-01-03", 3, 30).
			AddRow("e1", "t1", "c1", "2024-01-01", 1, 10))

	entries, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "e3", entries[0].ID)
	assert.Equal(t, int64(30), entries[0].UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryListEmpty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEntryRepository(db)

	mock.ExpectQuery(`SELECT .* FROM entries`).WillReturnRows(sqlmock.NewRows(entryCols))

	entries, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestEntryGetNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEntryRepository(db)

	mock.ExpectQuery(`SELECT .* FROM entries WHERE id = \?`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestEntrySaveReadsBackInTransaction(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO entries .* ON DUPLICATE KEY UPDATE .* updated_at = GREATEST\(updated_at, VALUES\(updated_at\)\)`).
		WithArgs("e1", "Day 1", "Hello again", "2024-01-01", int64(200), int64(200)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`SELECT .* FROM entries WHERE id = \?`).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows(entryCols).AddRow("e1", "Day 1", "Hello again", "2024-01-01", 100, 200))
	mock.ExpectCommit()

	saved, err := repo.Save(context.Background(), model.Entry{
		ID: "e1", Title: "Day 1", Content: "Hello again", Date: "2024-01-01", CreatedAt: 200, UpdatedAt: 200,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), saved.CreatedAt)
	assert.Equal(t, int64(200), saved.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntrySaveRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEntryRepository(db)

	boom := errors.New("deadlock")
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO entries`).WillReturnError(boom)
	mock.ExpectRollback()

	_, err := repo.Save(context.Background(), model.Entry{ID: "e1", Title: "t", Content: "c", Date: "d"})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryUpdate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM entries WHERE id = \? FOR UPDATE`).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows(entryCols).AddRow("e1", "old", "old", "2024-01-01", 100, 100))
	mock.ExpectExec(`UPDATE entries SET .* WHERE id = \?`).
		WithArgs("new", "body", "2024-01-02", int64(300), "e1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .* FROM entries WHERE id = \?`).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows(entryCols).AddRow("e1", "new", "body", "2024-01-02", 100, 300))
	mock.ExpectCommit()

	saved, err := repo.Update(context.Background(), model.Entry{ID: "e1", Title: "new", Content: "body", Date: "2024-01-02", UpdatedAt: 300})
	require.NoError(t, err)
	assert.Equal(t, "new", saved.Title)
	assert.Equal(t, int64(100), saved.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryUpdateNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FOR UPDATE`).WithArgs("missing").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), model.Entry{ID: "missing"})
	assert.ErrorIs(t, err, ErrEntryNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEntryRepository(db)

	mock.ExpectExec(`DELETE FROM entries WHERE id = \?`).WithArgs("e1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM entries WHERE id = \?`).WithArgs("e1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "e1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "e1"), ErrEntryNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUsesEmbeddedFS(t *testing.T) {
	db, _ := newMock(t)

	var gotDir string
	orig := gooseUp
	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}
	t.Cleanup(func() { gooseUp = orig })

	require.NoError(t, Migrate(context.Background(), db))
	assert.Equal(t, ".", gotDir)

	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error { return errors.New("bad sql") }
	assert.ErrorContains(t, Migrate(context.Background(), db), "migrate: bad sql")
}
