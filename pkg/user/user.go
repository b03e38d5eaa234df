// Package user holds the platform user as seen by the reconciliation core:
// a wallet address, an optional email for notifications, and the
// platform-level supervisor flag that bypasses per-DAO roles.
package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrUserNotFound = errors.New("user not found")

// User is a platform account
type User struct {
	ID            uuid.UUID
	WalletAddress string
	Email         string
	DisplayName   string
	// IsSupervisor grants access to every DAO operation regardless of the
	// user's per-DAO role
	IsSupervisor bool
	CreatedAt    time.Time
}

// Store is the data-access contract for users
type Store interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByWalletAddress(ctx context.Context, walletAddress string) (*User, error)
}
