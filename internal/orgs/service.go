package orgs

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole rejects membership roles outside owner/admin/member.
var ErrUnknownRole = errors.New("orgs: unknown role")

// ErrNameRequired rejects organization names that are empty after trimming.
var ErrNameRequired = errors.New("orgs: name required")

// ErrSlugTaken signals a concurrent insert won the slug between the
// availability check and the write.
var ErrSlugTaken = errors.New("orgs: slug taken")

// Service orchestrates organization and membership operations.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateOrg creates an organization and makes the creator its owner. The slug
// is derived from the name, suffixed on collision.
func (s *Service) CreateOrg(ctx context.Context, name string, creatorID int64) (*Org, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	base := Slugify(name)
	if base == "" {
		base = "org"
	}
	slug := base
	for i := 2; ; i++ {
		taken, err := s.store.SlugExists(ctx, slug)
		if err != nil {
			return nil, err
		}
		if !taken {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}

	return s.store.CreateOrg(ctx, name, slug, creatorID)
}

// GetOrg fetches an organization by id.
func (s *Service) GetOrg(ctx context.Context, id int64) (*Org, error) {
	return s.store.GetOrg(ctx, id)
}

// AddMember creates a membership at the given role, defaulting to member.
func (s *Service) AddMember(ctx context.Context, orgID, userID int64, role string) (*Membership, error) {
	if role == "" {
		role = RoleMember
	}
	if !ValidRole(role) {
		return nil, ErrUnknownRole
	}
	if _, err := s.store.GetOrg(ctx, orgID); err != nil {
		return nil, err
	}
	return s.store.UpsertMembership(ctx, orgID, userID, role)
}

// ChangeMemberRole updates an existing membership's role.
func (s *Service) ChangeMemberRole(ctx context.Context, orgID, userID int64, role string) (*Membership, error) {
	if !ValidRole(role) {
		return nil, ErrUnknownRole
	}
	return s.store.UpdateMembershipRole(ctx, orgID, userID, role)
}

// Membership returns the (org, user) membership row.
func (s *Service) Membership(ctx context.Context, orgID, userID int64) (*Membership, error) {
	return s.store.GetMembership(ctx, orgID, userID)
}

// ListMembers returns the organization's members.
func (s *Service) ListMembers(ctx context.Context, orgID int64) ([]Member, error) {
	if _, err := s.store.GetOrg(ctx, orgID); err != nil {
		return nil, err
	}
	return s.store.ListMembers(ctx, orgID)
}
