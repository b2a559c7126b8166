package orgs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-auth/gatehouse/internal/orgs"
	"github.com/gatehouse-auth/gatehouse/internal/shared"
	"github.com/gatehouse-auth/gatehouse/internal/testutil"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Acme Rockets":       "acme-rockets",
		"  Acme   Rockets  ": "acme-rockets",
		"Café Zürich":        "cafe-zurich",
		"A/B Testing, Inc.":  "a-b-testing-inc",
		"--- !!! ---":        "",
		"42 Widgets":         "42-widgets",
		"Ärzte ohne Grenzen": "arzte-ohne-grenzen",
		"trailing-punct!!!":  "trailing-punct",
	}
	for in, want := range cases {
		assert.Equal(t, want, orgs.Slugify(in), "Slugify(%q)", in)
	}
}

func TestCreateOrgSlugCollision(t *testing.T) {
	svc := orgs.NewService(testutil.NewMemOrgStore(nil))
	ctx := context.Background()

	first, err := svc.CreateOrg(ctx, "Acme Rockets", 1)
	require.NoError(t, err)
	assert.Equal(t, "acme-rockets", first.Slug)

	second, err := svc.CreateOrg(ctx, "Acme Rockets", 2)
	require.NoError(t, err)
	assert.Equal(t, "acme-rockets-2", second.Slug)

	third, err := svc.CreateOrg(ctx, "Acme! Rockets?", 3)
	require.NoError(t, err)
	assert.Equal(t, "acme-rockets-3", third.Slug)

	// A name with no usable characters still yields a slug.
	odd, err := svc.CreateOrg(ctx, "!!!", 4)
	require.NoError(t, err)
	assert.Equal(t, "org", odd.Slug)
}

func TestCreateOrgRequiresName(t *testing.T) {
	svc := orgs.NewService(testutil.NewMemOrgStore(nil))
	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := svc.CreateOrg(context.Background(), name, 1)
		assert.ErrorIs(t, err, orgs.ErrNameRequired, "name %q", name)
	}
}

func TestCreateOrgMakesCreatorOwner(t *testing.T) {
	svc := orgs.NewService(testutil.NewMemOrgStore(nil))
	ctx := context.Background()

	org, err := svc.CreateOrg(ctx, "Acme", 7)
	require.NoError(t, err)

	m, err := svc.Membership(ctx, org.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, orgs.RoleOwner, m.Role)

	_, err = svc.Membership(ctx, org.ID, 8)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMembershipRoles(t *testing.T) {
	svc := orgs.NewService(testutil.NewMemOrgStore(nil))
	ctx := context.Background()

	org, err := svc.CreateOrg(ctx, "Acme", 1)
	require.NoError(t, err)

	m, err := svc.AddMember(ctx, org.ID, 2, "")
	require.NoError(t, err)
	assert.Equal(t, orgs.RoleMember, m.Role)

	_, err = svc.AddMember(ctx, org.ID, 3, "emperor")
	assert.ErrorIs(t, err, orgs.ErrUnknownRole)

	_, err = svc.AddMember(ctx, 999, 2, "")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	m, err = svc.ChangeMemberRole(ctx, org.ID, 2, orgs.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, orgs.RoleAdmin, m.Role)

	_, err = svc.ChangeMemberRole(ctx, org.ID, 2, "emperor")
	assert.ErrorIs(t, err, orgs.ErrUnknownRole)

	// Changing a role for someone who was never added does not create one.
	_, err = svc.ChangeMemberRole(ctx, org.ID, 42, orgs.RoleMember)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	members, err := svc.ListMembers(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, orgs.RoleOwner, members[0].Role)
	assert.Equal(t, orgs.RoleAdmin, members[1].Role)
}
