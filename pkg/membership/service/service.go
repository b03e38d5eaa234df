// Package service implements the membership business rules on top of the
// membership store: idempotent adds, role changes, bulk role
// synchronization, and the access check used by every mutating endpoint.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/superdao/reconciler/internal/metrics"
	apperrors "github.com/superdao/reconciler/pkg/app/errors"
	"github.com/superdao/reconciler/pkg/membership"
	"github.com/superdao/reconciler/pkg/user"
)

// Service defines the membership business logic
type Service interface {
	// AddMember creates a membership row unless one already exists for the
	// (dao, user) pair. Re-adding an existing member is a silent no-op.
	AddMember(ctx context.Context, daoID, userID uuid.UUID, role membership.Role, tiers []string) error
	DeleteMember(ctx context.Context, daoID, userID uuid.UUID) error
	ChangeRole(ctx context.Context, daoID, userID uuid.UUID, role membership.Role) error
	// UpdateAdminList makes exactly the given users admins: current admins
	// not in the list are demoted to plain members, listed users are
	// promoted or added. Sudo and Creator rows are never touched.
	UpdateAdminList(ctx context.Context, daoID uuid.UUID, userIDs []uuid.UUID) error
	// UpdateMemberList syncs the full member set against the given users:
	// missing users are added as members, members absent from the list are
	// removed. Sudo rows are invisible to the sync.
	UpdateMemberList(ctx context.Context, daoID uuid.UUID, userIDs []uuid.UUID) error
	UpdateTiers(ctx context.Context, daoID, userID uuid.UUID, tiers []string) error
	GetMember(ctx context.Context, daoID, userID uuid.UUID) (*membership.Membership, error)
	GetMemberByID(ctx context.Context, id uuid.UUID) (*membership.Membership, error)
	ListMembers(ctx context.Context, daoID uuid.UUID) ([]*membership.Membership, error)
	// CheckAccess returns nil when the user holds one of the given roles in
	// the DAO, or is a platform supervisor. Otherwise it returns a
	// Forbidden service error.
	CheckAccess(ctx context.Context, daoID, userID uuid.UUID, roles ...membership.Role) error
}

type membershipService struct {
	store  membership.Store
	users  user.Store
	logger *zap.Logger
}

// NewService creates a new membership service
func NewService(store membership.Store, users user.Store, logger *zap.Logger) Service {
	return &membershipService{
		store:  store,
		users:  users,
		logger: logger,
	}
}

func (s *membershipService) AddMember(ctx context.Context, daoID, userID uuid.UUID, role membership.Role, tiers []string) error {
	_, err := s.store.Get(ctx, daoID, userID)
	if err == nil {
		// already a member, nothing to do
		return nil
	}
	if !errors.Is(err, membership.ErrMembershipNotFound) {
		return apperrors.GeneralError(fmt.Errorf("failed to check membership: %w", err))
	}
	m := &membership.Membership{
		DaoID:  daoID,
		UserID: userID,
		Role:   role,
		Tiers:  tiers,
	}
	if err := s.store.Create(ctx, m); err != nil {
		return apperrors.GeneralError(fmt.Errorf("failed to add member: %w", err))
	}
	metrics.MembershipChanges.WithLabelValues("add").Inc()
	s.logger.Info("member added",
		zap.String("daoId", daoID.String()),
		zap.String("userId", userID.String()),
		zap.String("role", string(role)))
	return nil
}

func (s *membershipService) DeleteMember(ctx context.Context, daoID, userID uuid.UUID) error {
	err := s.store.Delete(ctx, daoID, userID)
	if err != nil {
		if errors.Is(err, membership.ErrMembershipNotFound) {
			return apperrors.NotFoundError(err, "member not found")
		}
		return apperrors.GeneralError(fmt.Errorf("failed to delete member: %w", err))
	}
	metrics.MembershipChanges.WithLabelValues("remove").Inc()
	s.logger.Info("member removed",
		zap.String("daoId", daoID.String()),
		zap.String("userId", userID.String()))
	return nil
}

func (s *membershipService) ChangeRole(ctx context.Context, daoID, userID uuid.UUID, role membership.Role) error {
	err := s.store.UpdateRole(ctx, daoID, userID, role)
	if err != nil {
		if errors.Is(err, membership.ErrMembershipNotFound) {
			return apperrors.NotFoundError(err, "member not found")
		}
		return apperrors.GeneralError(fmt.Errorf("failed to change role: %w", err))
	}
	return nil
}

func (s *membershipService) UpdateAdminList(ctx context.Context, daoID uuid.UUID, userIDs []uuid.UUID) error {
	current, err := s.store.ListByDao(ctx, daoID)
	if err != nil {
		return apperrors.GeneralError(fmt.Errorf("failed to list members: %w", err))
	}
	wanted := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	for _, m := range current {
		switch {
		case m.Role == membership.RoleCreator:
			// the creator keeps their role regardless of the admin list
			continue
		case wanted[m.UserID] && m.Role != membership.RoleAdmin:
			if err := s.store.UpdateRole(ctx, daoID, m.UserID, membership.RoleAdmin); err != nil {
				return apperrors.GeneralError(fmt.Errorf("failed to promote admin: %w", err))
			}
		case !wanted[m.UserID] && m.Role == membership.RoleAdmin:
			if err := s.store.UpdateRole(ctx, daoID, m.UserID, membership.RoleMember); err != nil {
				return apperrors.GeneralError(fmt.Errorf("failed to demote admin: %w", err))
			}
		}
		delete(wanted, m.UserID)
	}
	for id := range wanted {
		if err := s.AddMember(ctx, daoID, id, membership.RoleAdmin, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *membershipService) UpdateMemberList(ctx context.Context, daoID uuid.UUID, userIDs []uuid.UUID) error {
	current, err := s.store.ListByDao(ctx, daoID)
	if err != nil {
		return apperrors.GeneralError(fmt.Errorf("failed to list members: %w", err))
	}
	wanted := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	for _, m := range current {
		if wanted[m.UserID] {
			delete(wanted, m.UserID)
			continue
		}
		if m.Role == membership.RoleCreator {
			continue
		}
		if err := s.store.Delete(ctx, daoID, m.UserID); err != nil {
			return apperrors.GeneralError(fmt.Errorf("failed to remove member: %w", err))
		}
	}
	for id := range wanted {
		if err := s.AddMember(ctx, daoID, id, membership.RoleMember, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *membershipService) UpdateTiers(ctx context.Context, daoID, userID uuid.UUID, tiers []string) error {
	err := s.store.UpdateTiers(ctx, daoID, userID, tiers)
	if err != nil {
		if errors.Is(err, membership.ErrMembershipNotFound) {
			return apperrors.NotFoundError(err, "member not found")
		}
		return apperrors.GeneralError(fmt.Errorf("failed to update tiers: %w", err))
	}
	return nil
}

func (s *membershipService) GetMember(ctx context.Context, daoID, userID uuid.UUID) (*membership.Membership, error) {
	m, err := s.store.Get(ctx, daoID, userID)
	if err != nil {
		if errors.Is(err, membership.ErrMembershipNotFound) {
			return nil, apperrors.NotFoundError(err, "member not found")
		}
		return nil, apperrors.GeneralError(fmt.Errorf("failed to get member: %w", err))
	}
	return m, nil
}

func (s *membershipService) GetMemberByID(ctx context.Context, id uuid.UUID) (*membership.Membership, error) {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, membership.ErrMembershipNotFound) {
			return nil, apperrors.NotFoundError(err, "member not found")
		}
		return nil, apperrors.GeneralError(fmt.Errorf("failed to get member: %w", err))
	}
	return m, nil
}

func (s *membershipService) ListMembers(ctx context.Context, daoID uuid.UUID) ([]*membership.Membership, error) {
	members, err := s.store.ListByDao(ctx, daoID)
	if err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to list members: %w", err))
	}
	return members, nil
}

func (s *membershipService) CheckAccess(ctx context.Context, daoID, userID uuid.UUID, roles ...membership.Role) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return apperrors.ForbiddenError(err, "access denied")
		}
		return apperrors.GeneralError(fmt.Errorf("failed to load user: %w", err))
	}
	if u.IsSupervisor {
		return nil
	}
	m, err := s.store.Get(ctx, daoID, userID)
	if err != nil {
		if errors.Is(err, membership.ErrMembershipNotFound) {
			return apperrors.ForbiddenError(membership.ErrMembershipNotFound, "access denied")
		}
		return apperrors.GeneralError(fmt.Errorf("failed to check access: %w", err))
	}
	for _, role := range roles {
		if m.Role == role {
			return nil
		}
	}
	return apperrors.ForbiddenError(
		nil, fmt.Sprintf("role %s is not allowed for this operation", m.Role))
}
