// Package whitelist stores per-DAO claim eligibility: which wallets may
// claim which NFT tiers without paying.
package whitelist

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrEntryNotFound = errors.New("whitelist entry not found")

// Entry grants one wallet claim rights in one DAO
type Entry struct {
	ID            uuid.UUID
	DaoID         uuid.UUID
	WalletAddress string
	// Tiers the wallet is allowed to claim. Empty means any tier.
	Tiers     []string
	CreatedAt time.Time
}

// Allows reports whether the entry covers the given tier
func (e *Entry) Allows(tier string) bool {
	if len(e.Tiers) == 0 {
		return true
	}
	for _, t := range e.Tiers {
		if t == tier {
			return true
		}
	}
	return false
}

// Store is the data-access contract for whitelist entries
type Store interface {
	Create(ctx context.Context, e *Entry) error
	GetByWallet(ctx context.Context, daoID uuid.UUID, walletAddress string) (*Entry, error)
	ListByDao(ctx context.Context, daoID uuid.UUID) ([]*Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
