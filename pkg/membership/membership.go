// Package membership tracks who belongs to which DAO and with what role.
// A user holds at most one membership row per DAO. The daos.members_count
// counter is maintained in the same database transaction as every row
// change, so it never drifts from the row count.
package membership

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrMembershipNotFound = errors.New("membership not found")

// Role is the member's role within a single DAO
type Role string

const (
	// RoleSudo is a hidden operational role. Sudo members are excluded from
	// member listings and from the members_count counter.
	RoleSudo    Role = "SUDO"
	RoleCreator Role = "CREATOR"
	RoleAdmin   Role = "ADMIN"
	RoleMember  Role = "MEMBER"
)

// Membership links one user to one DAO
type Membership struct {
	ID     uuid.UUID
	DaoID  uuid.UUID
	UserID uuid.UUID
	Role   Role
	// Tiers lists the NFT tier identifiers the member currently holds
	Tiers     []string
	CreatedAt time.Time
}

// Store is the data-access contract for membership rows. Create and Delete
// adjust daos.members_count within the same transaction as the row change;
// Sudo rows never touch the counter.
type Store interface {
	Create(ctx context.Context, m *Membership) error
	Get(ctx context.Context, daoID, userID uuid.UUID) (*Membership, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Membership, error)
	ListByDao(ctx context.Context, daoID uuid.UUID) ([]*Membership, error)
	UpdateRole(ctx context.Context, daoID, userID uuid.UUID, role Role) error
	UpdateTiers(ctx context.Context, daoID, userID uuid.UUID, tiers []string) error
	Delete(ctx context.Context, daoID, userID uuid.UUID) error
}
