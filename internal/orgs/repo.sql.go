package orgs

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatehouse-auth/gatehouse/internal/platform/db"
	"github.com/gatehouse-auth/gatehouse/internal/shared"
)

// Store abstracts persistence so handlers and the guard can be tested with
// in-memory fakes.
type Store interface {
	CreateOrg(ctx context.Context, name, slug string, ownerID int64) (*Org, error)
	GetOrg(ctx context.Context, id int64) (*Org, error)
	SlugExists(ctx context.Context, slug string) (bool, error)

	UpsertMembership(ctx context.Context, orgID, userID int64, role string) (*Membership, error)
	UpdateMembershipRole(ctx context.Context, orgID, userID int64, role string) (*Membership, error)
	GetMembership(ctx context.Context, orgID, userID int64) (*Membership, error)
	ListMembers(ctx context.Context, orgID int64) ([]Member, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateOrg inserts a new organization and its owner membership atomically.
func (r *Repository) CreateOrg(ctx context.Context, name, slug string, ownerID int64) (*Org, error) {
	var o Org
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO orgs (name, slug) VALUES ($1, $2) RETURNING id, name, slug, created_at`,
			name, slug).Scan(&o.ID, &o.Name, &o.Slug, &o.CreatedAt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO org_members (org_id, user_id, role) VALUES ($1, $2, $3)`,
			o.ID, ownerID, RoleOwner)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return &o, nil
}

// GetOrg fetches an organization by id.
func (r *Repository) GetOrg(ctx context.Context, id int64) (*Org, error) {
	var o Org
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, slug, created_at FROM orgs WHERE id = $1`, id).
		Scan(&o.ID, &o.Name, &o.Slug, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// SlugExists reports whether a slug is already taken.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orgs WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

func scanMembership(row pgx.Row) (*Membership, error) {
	var m Membership
	if err := row.Scan(&m.OrgID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// UpsertMembership creates a membership, updating the role if one exists.
func (r *Repository) UpsertMembership(ctx context.Context, orgID, userID int64, role string) (*Membership, error) {
	return scanMembership(r.pool.QueryRow(ctx,
		`INSERT INTO org_members (org_id, user_id, role) VALUES ($1, $2, $3)
		 ON CONFLICT (org_id, user_id) DO UPDATE SET role = EXCLUDED.role
		 RETURNING org_id, user_id, role, created_at`,
		orgID, userID, role))
}

// UpdateMembershipRole changes an existing membership's role.
func (r *Repository) UpdateMembershipRole(ctx context.Context, orgID, userID int64, role string) (*Membership, error) {
	return scanMembership(r.pool.QueryRow(ctx,
		`UPDATE org_members SET role = $3 WHERE org_id = $1 AND user_id = $2
		 RETURNING org_id, user_id, role, created_at`,
		orgID, userID, role))
}

// GetMembership fetches the membership row for (org, user).
func (r *Repository) GetMembership(ctx context.Context, orgID, userID int64) (*Membership, error) {
	return scanMembership(r.pool.QueryRow(ctx,
		`SELECT org_id, user_id, role, created_at FROM org_members WHERE org_id = $1 AND user_id = $2`,
		orgID, userID))
}

// ListMembers returns memberships joined with account display fields.
func (r *Repository) ListMembers(ctx context.Context, orgID int64) ([]Member, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.org_id, m.user_id, m.role, m.created_at, u.email, u.name
		 FROM org_members m JOIN users u ON u.id = m.user_id
		 WHERE m.org_id = $1 ORDER BY m.created_at`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.OrgID, &m.UserID, &m.Role, &m.CreatedAt, &m.Email, &m.Name); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
