package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/superdao/reconciler/pkg/membership"
	"github.com/superdao/reconciler/pkg/user"
)

// mockStore implements membership.Store with function fields for tests
type mockStore struct {
	CreateFunc      func(ctx context.Context, m *membership.Membership) error
	GetFunc         func(ctx context.Context, daoID, userID uuid.UUID) (*membership.Membership, error)
	GetByIDFunc     func(ctx context.Context, id uuid.UUID) (*membership.Membership, error)
	ListByDaoFunc   func(ctx context.Context, daoID uuid.UUID) ([]*membership.Membership, error)
	UpdateRoleFunc  func(ctx context.Context, daoID, userID uuid.UUID, role membership.Role) error
	UpdateTiersFunc func(ctx context.Context, daoID, userID uuid.UUID, tiers []string) error
	DeleteFunc      func(ctx context.Context, daoID, userID uuid.UUID) error
}

func (m *mockStore) Create(ctx context.Context, mem *membership.Membership) error {
	return m.CreateFunc(ctx, mem)
}

func (m *mockStore) Get(ctx context.Context, daoID, userID uuid.UUID) (*membership.Membership, error) {
	return m.GetFunc(ctx, daoID, userID)
}

func (m *mockStore) GetByID(ctx context.Context, id uuid.UUID) (*membership.Membership, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockStore) ListByDao(ctx context.Context, daoID uuid.UUID) ([]*membership.Membership, error) {
	return m.ListByDaoFunc(ctx, daoID)
}

func (m *mockStore) UpdateRole(ctx context.Context, daoID, userID uuid.UUID, role membership.Role) error {
	return m.UpdateRoleFunc(ctx, daoID, userID, role)
}

func (m *mockStore) UpdateTiers(ctx context.Context, daoID, userID uuid.UUID, tiers []string) error {
	return m.UpdateTiersFunc(ctx, daoID, userID, tiers)
}

func (m *mockStore) Delete(ctx context.Context, daoID, userID uuid.UUID) error {
	return m.DeleteFunc(ctx, daoID, userID)
}

// mockUserStore implements user.Store with function fields for tests
type mockUserStore struct {
	CreateFunc             func(ctx context.Context, u *user.User) error
	GetByIDFunc            func(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByWalletAddressFunc func(ctx context.Context, walletAddress string) (*user.User, error)
}

func (m *mockUserStore) Create(ctx context.Context, u *user.User) error {
	return m.CreateFunc(ctx, u)
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockUserStore) GetByWalletAddress(ctx context.Context, walletAddress string) (*user.User, error) {
	return m.GetByWalletAddressFunc(ctx, walletAddress)
}
