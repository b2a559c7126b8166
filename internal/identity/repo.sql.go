package identity

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatehouse-auth/gatehouse/internal/shared"
)

// Store abstracts persistence so handlers and the guard can be tested with
// in-memory fakes.
type Store interface {
	CreateUser(ctx context.Context, email, name, passwordHash string) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByID(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context, limit int32) ([]User, error)

	CreateAPIKey(ctx context.Context, userID int64, label, prefix, digest string, expiresAt *time.Time) (*APIKey, error)
	ListAPIKeysByUser(ctx context.Context, userID int64) ([]APIKey, error)
	GetAPIKeyByDigest(ctx context.Context, digest string) (*APIKey, error)
	GetAPIKeyByID(ctx context.Context, id int64) (*APIKey, error)
	DeleteAPIKey(ctx context.Context, id int64) error
	DeleteExpiredAPIKeys(ctx context.Context, now time.Time) (int64, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, name, password_hash, global_role, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.GlobalRole, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new active user.
func (r *Repository) CreateUser(ctx context.Context, email, name, passwordHash string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash) VALUES ($1, $2, $3) RETURNING `+userColumns,
		email, name, passwordHash)
	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// FindUserByEmail fetches a user by email.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// FindUserByID fetches a user by primary key.
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// ListUsers returns up to limit users ordered by id.
func (r *Repository) ListUsers(ctx context.Context, limit int32) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.GlobalRole, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const apiKeyColumns = `id, user_id, label, key_prefix, expires_at, created_at`

func scanAPIKey(row pgx.Row) (*APIKey, error) {
	var k APIKey
	if err := row.Scan(&k.ID, &k.UserID, &k.Label, &k.KeyPrefix, &k.ExpiresAt, &k.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &k, nil
}

// CreateAPIKey inserts a new API key record. The secret digest is stored,
// never the secret itself.
func (r *Repository) CreateAPIKey(ctx context.Context, userID int64, label, prefix, digest string, expiresAt *time.Time) (*APIKey, error) {
	return scanAPIKey(r.pool.QueryRow(ctx,
		`INSERT INTO api_keys (user_id, label, key_prefix, secret_digest, expires_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING `+apiKeyColumns,
		userID, label, prefix, digest, expiresAt))
}

// ListAPIKeysByUser returns the user's keys, newest first.
func (r *Repository) ListAPIKeysByUser(ctx context.Context, userID int64) ([]APIKey, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []APIKey
	for rows.Next() {
		var k APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Label, &k.KeyPrefix, &k.ExpiresAt, &k.CreatedAt); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// GetAPIKeyByDigest fetches a key by the sha256 digest of its secret.
func (r *Repository) GetAPIKeyByDigest(ctx context.Context, digest string) (*APIKey, error) {
	return scanAPIKey(r.pool.QueryRow(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE secret_digest = $1`, digest))
}

// GetAPIKeyByID fetches a key by primary key.
func (r *Repository) GetAPIKeyByID(ctx context.Context, id int64) (*APIKey, error) {
	return scanAPIKey(r.pool.QueryRow(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE id = $1`, id))
}

// DeleteAPIKey removes a key.
func (r *Repository) DeleteAPIKey(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteExpiredAPIKeys purges keys whose expiry has passed.
func (r *Repository) DeleteExpiredAPIKeys(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM api_keys WHERE expires_at IS NOT NULL AND expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
