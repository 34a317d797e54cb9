package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/molo/molo-go/internal/model"
)

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrCredentialExists   = errors.New("credential already exists")
)

// CredentialRepository persists the singleton credential row. The fixed
// primary key makes a second insert fail with a duplicate key error.
type CredentialRepository struct {
	db DBTX
}

// NewCredentialRepository creates a new CredentialRepository.
func NewCredentialRepository(db DBTX) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Exists reports whether the credential row has been created.
func (r *CredentialRepository) Exists(ctx context.Context) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM credentials WHERE id = 1`).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count credentials: %w", err)
	}
	return n > 0, nil
}

// Create inserts the credential. It returns ErrCredentialExists when the row
// is already present.
func (r *CredentialRepository) Create(ctx context.Context, cred *model.Credential) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO credentials (id, secret_hash) VALUES (1, ?)`, cred.SecretHash)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrCredentialExists
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

// Get returns the stored credential.
func (r *CredentialRepository) Get(ctx context.Context) (*model.Credential, error) {
	cred := &model.Credential{}
	err := r.db.QueryRowContext(ctx,
		`SELECT secret_hash, created_at, updated_at FROM credentials WHERE id = 1`,
	).Scan(&cred.SecretHash, &cred.CreatedAt, &cred.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("select credential: %w", err)
	}
	return cred, nil
}

// isDuplicateEntryError checks if a MySQL error is a duplicate entry error (code 1062).
func isDuplicateEntryError(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return false
}
