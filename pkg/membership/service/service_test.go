package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/superdao/reconciler/pkg/app/errors"
	"github.com/superdao/reconciler/pkg/membership"
	"github.com/superdao/reconciler/pkg/user"
)

func TestAddMember_Idempotent(t *testing.T) {
	daoID := uuid.New()
	userID := uuid.New()

	created := 0
	store := &mockStore{
		GetFunc: func(ctx context.Context, d, u uuid.UUID) (*membership.Membership, error) {
			return &membership.Membership{DaoID: d, UserID: u, Role: membership.RoleMember}, nil
		},
		CreateFunc: func(ctx context.Context, m *membership.Membership) error {
			created++
			return nil
		},
	}

	svc := NewService(store, &mockUserStore{}, zap.NewNop())

	err := svc.AddMember(context.Background(), daoID, userID, membership.RoleMember, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, created, "re-adding an existing member must not create a row")
}

func TestAddMember_CreatesWhenMissing(t *testing.T) {
	daoID := uuid.New()
	userID := uuid.New()

	var got *membership.Membership
	store := &mockStore{
		GetFunc: func(ctx context.Context, d, u uuid.UUID) (*membership.Membership, error) {
			return nil, membership.ErrMembershipNotFound
		},
		CreateFunc: func(ctx context.Context, m *membership.Membership) error {
			got = m
			return nil
		},
	}

	svc := NewService(store, &mockUserStore{}, zap.NewNop())

	err := svc.AddMember(context.Background(), daoID, userID, membership.RoleMember, []string{"gold"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, daoID, got.DaoID)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, membership.RoleMember, got.Role)
	assert.Equal(t, []string{"gold"}, got.Tiers)
}

func TestDeleteMember_NotFound(t *testing.T) {
	store := &mockStore{
		DeleteFunc: func(ctx context.Context, d, u uuid.UUID) error {
			return membership.ErrMembershipNotFound
		},
	}

	svc := NewService(store, &mockUserStore{}, zap.NewNop())

	err := svc.DeleteMember(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CategoryResourceNotFound))
}

func TestGetMemberByID(t *testing.T) {
	id := uuid.New()

	store := &mockStore{
		GetByIDFunc: func(ctx context.Context, got uuid.UUID) (*membership.Membership, error) {
			if got != id {
				return nil, membership.ErrMembershipNotFound
			}
			return &membership.Membership{ID: got, Role: membership.RoleAdmin}, nil
		},
	}

	svc := NewService(store, &mockUserStore{}, zap.NewNop())

	m, err := svc.GetMemberByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, membership.RoleAdmin, m.Role)

	_, err = svc.GetMemberByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CategoryResourceNotFound))
}

func TestCheckAccess_SupervisorBypassesRoles(t *testing.T) {
	userID := uuid.New()

	users := &mockUserStore{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*user.User, error) {
			return &user.User{ID: id, IsSupervisor: true}, nil
		},
	}
	store := &mockStore{
		GetFunc: func(ctx context.Context, d, u uuid.UUID) (*membership.Membership, error) {
			t.Fatal("membership must not be consulted for supervisors")
			return nil, nil
		},
	}

	svc := NewService(store, users, zap.NewNop())

	err := svc.CheckAccess(context.Background(), uuid.New(), userID, membership.RoleCreator)
	assert.NoError(t, err)
}

func TestCheckAccess_RoleMismatchForbidden(t *testing.T) {
	users := &mockUserStore{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*user.User, error) {
			return &user.User{ID: id}, nil
		},
	}
	store := &mockStore{
		GetFunc: func(ctx context.Context, d, u uuid.UUID) (*membership.Membership, error) {
			return &membership.Membership{DaoID: d, UserID: u, Role: membership.RoleMember}, nil
		},
	}

	svc := NewService(store, users, zap.NewNop())

	err := svc.CheckAccess(context.Background(), uuid.New(), uuid.New(), membership.RoleCreator, membership.RoleAdmin)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CategoryForbidden))
}

func TestCheckAccess_NonMemberForbidden(t *testing.T) {
	users := &mockUserStore{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*user.User, error) {
			return &user.User{ID: id}, nil
		},
	}
	store := &mockStore{
		GetFunc: func(ctx context.Context, d, u uuid.UUID) (*membership.Membership, error) {
			return nil, membership.ErrMembershipNotFound
		},
	}

	svc := NewService(store, users, zap.NewNop())

	err := svc.CheckAccess(context.Background(), uuid.New(), uuid.New(), membership.RoleMember)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CategoryForbidden))
}

func TestUpdateAdminList_PromotesAndDemotes(t *testing.T) {
	daoID := uuid.New()
	keepAdmin := uuid.New()
	demote := uuid.New()
	promote := uuid.New()
	creator := uuid.New()

	roleChanges := map[uuid.UUID]membership.Role{}
	store := &mockStore{
		ListByDaoFunc: func(ctx context.Context, d uuid.UUID) ([]*membership.Membership, error) {
			return []*membership.Membership{
				{DaoID: d, UserID: keepAdmin, Role: membership.RoleAdmin},
				{DaoID: d, UserID: demote, Role: membership.RoleAdmin},
				{DaoID: d, UserID: promote, Role: membership.RoleMember},
				{DaoID: d, UserID: creator, Role: membership.RoleCreator},
			}, nil
		},
		UpdateRoleFunc: func(ctx context.Context, d, u uuid.UUID, role membership.Role) error {
			roleChanges[u] = role
			return nil
		},
	}

	svc := NewService(store, &mockUserStore{}, zap.NewNop())

	err := svc.UpdateAdminList(context.Background(), daoID, []uuid.UUID{keepAdmin, promote})
	require.NoError(t, err)

	assert.Equal(t, membership.RoleAdmin, roleChanges[promote])
	assert.Equal(t, membership.RoleMember, roleChanges[demote])
	assert.NotContains(t, roleChanges, keepAdmin)
	assert.NotContains(t, roleChanges, creator, "creator role must never change")
}

func TestUpdateMemberList_AddsAndRemoves(t *testing.T) {
	daoID := uuid.New()
	stays := uuid.New()
	leaves := uuid.New()
	joins := uuid.New()

	var removed []uuid.UUID
	var added []uuid.UUID
	store := &mockStore{
		ListByDaoFunc: func(ctx context.Context, d uuid.UUID) ([]*membership.Membership, error) {
			return []*membership.Membership{
				{DaoID: d, UserID: stays, Role: membership.RoleMember},
				{DaoID: d, UserID: leaves, Role: membership.RoleMember},
			}, nil
		},
		DeleteFunc: func(ctx context.Context, d, u uuid.UUID) error {
			removed = append(removed, u)
			return nil
		},
		GetFunc: func(ctx context.Context, d, u uuid.UUID) (*membership.Membership, error) {
			return nil, membership.ErrMembershipNotFound
		},
		CreateFunc: func(ctx context.Context, m *membership.Membership) error {
			added = append(added, m.UserID)
			return nil
		},
	}

	svc := NewService(store, &mockUserStore{}, zap.NewNop())

	err := svc.UpdateMemberList(context.Background(), daoID, []uuid.UUID{stays, joins})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{leaves}, removed)
	assert.Equal(t, []uuid.UUID{joins}, added)
}
