// Package testutil provides in-memory store implementations for tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gatehouse-auth/gatehouse/internal/identity"
	"github.com/gatehouse-auth/gatehouse/internal/orgs"
	"github.com/gatehouse-auth/gatehouse/internal/shared"
)

// MemIdentityStore is an in-memory identity.Store.
type MemIdentityStore struct {
	mu       sync.Mutex
	nextUser int64
	nextKey  int64
	users    map[int64]identity.User
	keys     map[int64]identity.APIKey
	digests  map[string]int64
}

// NewMemIdentityStore constructs an empty store.
func NewMemIdentityStore() *MemIdentityStore {
	return &MemIdentityStore{
		users:   make(map[int64]identity.User),
		keys:    make(map[int64]identity.APIKey),
		digests: make(map[string]int64),
	}
}

// CreateUser implements identity.Store.
func (s *MemIdentityStore) CreateUser(_ context.Context, email, name, passwordHash string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return nil, identity.ErrEmailTaken
		}
	}
	s.nextUser++
	now := time.Now()
	u := identity.User{
		ID:           s.nextUser,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u
	return &u, nil
}

// SetGlobalRole promotes or demotes a user, for test arrangement.
func (s *MemIdentityStore) SetGlobalRole(userID int64, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[userID]
	u.GlobalRole = role
	s.users[userID] = u
}

// FindUserByEmail implements identity.Store.
func (s *MemIdentityStore) FindUserByEmail(_ context.Context, email string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			copied := u
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindUserByID implements identity.Store.
func (s *MemIdentityStore) FindUserByID(_ context.Context, id int64) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := u
	return &copied, nil
}

// ListUsers implements identity.Store.
func (s *MemIdentityStore) ListUsers(_ context.Context, limit int32) ([]identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []identity.User
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	if int32(len(users)) > limit {
		users = users[:limit]
	}
	return users, nil
}

// CreateAPIKey implements identity.Store.
func (s *MemIdentityStore) CreateAPIKey(_ context.Context, userID int64, label, prefix, digest string, expiresAt *time.Time) (*identity.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextKey++
	k := identity.APIKey{
		ID:        s.nextKey,
		UserID:    userID,
		Label:     label,
		KeyPrefix: prefix,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	s.keys[k.ID] = k
	s.digests[digest] = k.ID
	return &k, nil
}

// ListAPIKeysByUser implements identity.Store.
func (s *MemIdentityStore) ListAPIKeysByUser(_ context.Context, userID int64) ([]identity.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []identity.APIKey
	for _, k := range s.keys {
		if k.UserID == userID {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].ID < keys[j].ID })
	return keys, nil
}

// GetAPIKeyByDigest implements identity.Store.
func (s *MemIdentityStore) GetAPIKeyByDigest(_ context.Context, digest string) (*identity.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.digests[digest]
	if !ok {
		return nil, shared.ErrNotFound
	}
	k := s.keys[id]
	return &k, nil
}

// GetAPIKeyByID implements identity.Store.
func (s *MemIdentityStore) GetAPIKeyByID(_ context.Context, id int64) (*identity.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := k
	return &copied, nil
}

// DeleteAPIKey implements identity.Store.
func (s *MemIdentityStore) DeleteAPIKey(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.keys, id)
	for digest, keyID := range s.digests {
		if keyID == id {
			delete(s.digests, digest)
		}
	}
	return nil
}

// DeleteExpiredAPIKeys implements identity.Store.
func (s *MemIdentityStore) DeleteExpiredAPIKeys(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, k := range s.keys {
		if k.ExpiresAt != nil && k.ExpiresAt.Before(now) {
			delete(s.keys, id)
			for digest, keyID := range s.digests {
				if keyID == id {
					delete(s.digests, digest)
				}
			}
			removed++
		}
	}
	return removed, nil
}

// ExpireAPIKey backdates a key's expiry, for test arrangement.
func (s *MemIdentityStore) ExpireAPIKey(id int64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok {
		return
	}
	k.ExpiresAt = &at
	s.keys[id] = k
}

// MemOrgStore is an in-memory orgs.Store.
type MemOrgStore struct {
	mu      sync.Mutex
	nextOrg int64
	orgs    map[int64]orgs.Org
	members map[int64]map[int64]orgs.Membership
	emails  func(userID int64) (string, string)
}

// NewMemOrgStore constructs an empty store. The emails func supplies display
// fields for ListMembers; it may be nil.
func NewMemOrgStore(emails func(userID int64) (string, string)) *MemOrgStore {
	return &MemOrgStore{
		orgs:    make(map[int64]orgs.Org),
		members: make(map[int64]map[int64]orgs.Membership),
		emails:  emails,
	}
}

// CreateOrg implements orgs.Store.
func (s *MemOrgStore) CreateOrg(_ context.Context, name, slug string, ownerID int64) (*orgs.Org, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextOrg++
	o := orgs.Org{ID: s.nextOrg, Name: name, Slug: slug, CreatedAt: time.Now()}
	s.orgs[o.ID] = o
	s.members[o.ID] = map[int64]orgs.Membership{
		ownerID: {OrgID: o.ID, UserID: ownerID, Role: orgs.RoleOwner, CreatedAt: time.Now()},
	}
	return &o, nil
}

// GetOrg implements orgs.Store.
func (s *MemOrgStore) GetOrg(_ context.Context, id int64) (*orgs.Org, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orgs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := o
	return &copied, nil
}

// SlugExists implements orgs.Store.
func (s *MemOrgStore) SlugExists(_ context.Context, slug string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orgs {
		if o.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// UpsertMembership implements orgs.Store.
func (s *MemOrgStore) UpsertMembership(_ context.Context, orgID, userID int64, role string) (*orgs.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[orgID]; !ok {
		return nil, shared.ErrNotFound
	}
	m, ok := s.members[orgID][userID]
	if !ok {
		m = orgs.Membership{OrgID: orgID, UserID: userID, CreatedAt: time.Now()}
	}
	m.Role = role
	s.members[orgID][userID] = m
	copied := m
	return &copied, nil
}

// UpdateMembershipRole implements orgs.Store.
func (s *MemOrgStore) UpdateMembershipRole(_ context.Context, orgID, userID int64, role string) (*orgs.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[orgID][userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	m.Role = role
	s.members[orgID][userID] = m
	copied := m
	return &copied, nil
}

// GetMembership implements orgs.Store.
func (s *MemOrgStore) GetMembership(_ context.Context, orgID, userID int64) (*orgs.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[orgID][userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := m
	return &copied, nil
}

// ListMembers implements orgs.Store.
func (s *MemOrgStore) ListMembers(_ context.Context, orgID int64) ([]orgs.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byOrg, ok := s.members[orgID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	var out []orgs.Member
	for _, m := range byOrg {
		member := orgs.Member{Membership: m}
		if s.emails != nil {
			member.Email, member.Name = s.emails(m.UserID)
		}
		out = append(out, member)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
