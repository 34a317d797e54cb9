package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/molo/molo-go/internal/model"
)

var ErrEntryNotFound = errors.New("entry not found")

// EntryRepository handles diary entry persistence in MySQL.
type EntryRepository struct {
	db *sql.DB
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

const entryColumns = `id, title, content, entry_date, created_at, updated_at`

// upsertQuery inserts a new entry or replaces an existing one. The row only
// takes the incoming fields when the incoming updated_at is not older than the
// stored one, so concurrent writers resolve to the latest timestamp.
// updated_at is assigned last because MySQL evaluates the assignments in order.
const upsertQuery = `
	INSERT INTO entries (id, title, content, entry_date, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
		title      = IF(VALUES(updated_at) >= updated_at, VALUES(title), title),
		content    = IF(VALUES(updated_at) >= updated_at, VALUES(content), content),
		entry_date = IF(VALUES(updated_at) >= updated_at, VALUES(entry_date), entry_date),
		updated_at = GREATEST(updated_at, VALUES(updated_at))`

const updateQuery = `
	UPDATE entries SET
		title      = ?,
		content    = ?,
		entry_date = ?,
		updated_at = GREATEST(updated_at, ?)
	WHERE id = ?`

// List returns every entry ordered by most recently updated.
func (r *EntryRepository) List(ctx context.Context) ([]model.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY updated_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.Entry, 0)
	for rows.Next() {
		var e model.Entry
		if err := rows.Scan(&e.ID, &e.Title, &e.Content, &e.Date, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Get retrieves an entry by its client-generated ID.
func (r *EntryRepository) Get(ctx context.Context, id string) (model.Entry, error) {
	return getEntry(ctx, r.db, id, false)
}

// Save inserts or replaces the entry and returns the stored row. CreatedAt of
// the argument is used only when the row is new.
func (r *EntryRepository) Save(ctx context.Context, entry model.Entry) (model.Entry, error) {
	var saved model.Entry
	err := WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, upsertQuery,
			entry.ID, entry.Title, entry.Content, entry.Date, entry.CreatedAt, entry.UpdatedAt,
		); err != nil {
			return fmt.Errorf("upsert entry: %w", err)
		}

		var err error
		saved, err = getEntry(ctx, tx, entry.ID, false)
		return err
	})
	return saved, err
}

// Update replaces title, content and date of an existing entry. It returns
// ErrEntryNotFound when no entry has the given ID.
func (r *EntryRepository) Update(ctx context.Context, entry model.Entry) (model.Entry, error) {
	var saved model.Entry
	err := WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		if _, err := getEntry(ctx, tx, entry.ID, true); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, updateQuery,
			entry.Title, entry.Content, entry.Date, entry.UpdatedAt, entry.ID,
		); err != nil {
			return fmt.Errorf("update entry: %w", err)
		}

		var err error
		saved, err = getEntry(ctx, tx, entry.ID, false)
		return err
	})
	return saved, err
}

// Delete removes an entry. It returns ErrEntryNotFound when nothing was deleted.
func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrEntryNotFound
	}

	return nil
}

func getEntry(ctx context.Context, db DBTX, id string, forUpdate bool) (model.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var e model.Entry
	err := db.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.Title, &e.Content, &e.Date, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Entry{}, ErrEntryNotFound
		}
		return model.Entry{}, fmt.Errorf("select entry: %w", err)
	}

	return e, nil
}
