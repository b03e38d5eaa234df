// Package dao holds the DAO community aggregate: a tenant identified by a
// slug and, once deployed, an on-chain contract address.
package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrDaoNotFound = errors.New("dao not found")

// Dao is a tenant community on the platform
type Dao struct {
	ID              uuid.UUID
	Slug            string
	Name            string
	ContractAddress string
	// MembersCount is a denormalized counter of non-Sudo memberships.
	// It is mutated only together with a membership row change, inside the
	// same database transaction.
	MembersCount int
	CreatedAt    time.Time
}

// Store is the data-access contract for DAO rows
type Store interface {
	Create(ctx context.Context, d *Dao) error
	GetByID(ctx context.Context, id uuid.UUID) (*Dao, error)
	GetByAddress(ctx context.Context, contractAddress string) (*Dao, error)
	// Delete removes a DAO row. Used as the compensating action when a claim
	// flow fails after provisionally creating the DAO.
	Delete(ctx context.Context, id uuid.UUID) error
}
