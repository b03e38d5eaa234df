// Package txlog records every on-chain transaction the platform submits and
// its eventual outcome. A row is created when the transaction is sent
// (pending), then stamped with succeeded_at or failed_at when the chain
// watcher reports the terminal scenario.
package txlog

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrLogNotFound = errors.New("transaction log not found")

// Type identifies which platform operation produced the transaction
type Type string

const (
	TypeBan             Type = "BAN"
	TypeAirdrop         Type = "AIRDROP"
	TypeWhitelist       Type = "WHITELIST"
	TypeBuyNft          Type = "BUY_NFT"
	TypeBuyWhitelistNft Type = "BUY_WHITELIST_NFT"
	TypeClaimNft        Type = "CLAIM_NFT"
	TypeReferralClaim   Type = "REFERRAL_CLAIM"
	TypeChangeRole      Type = "CHANGE_ROLE"
)

// Status is derived from the outcome timestamps, never stored
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// Log is one tracked transaction
type Log struct {
	TransactionHash string
	Type            Type
	// ExecutorID is the platform user who initiated the transaction
	ExecutorID  string
	DaoAddress  string
	Payload     json.RawMessage
	CreatedAt   time.Time
	SucceededAt *time.Time
	FailedAt    *time.Time
}

// Status derives the transaction state from the outcome timestamps
func (l *Log) Status() Status {
	switch {
	case l.SucceededAt != nil:
		return StatusSucceeded
	case l.FailedAt != nil:
		return StatusFailed
	default:
		return StatusPending
	}
}

// Store is the data-access contract for transaction logs
type Store interface {
	Create(ctx context.Context, l *Log) error
	GetByHash(ctx context.Context, hash string) (*Log, error)
	List(ctx context.Context, limit, offset int) ([]*Log, error)
	// ListPending returns logs with neither outcome timestamp set, oldest
	// first.
	ListPending(ctx context.Context) ([]*Log, error)
	// MarkSucceeded stamps succeeded_at. Returns ErrLogNotFound when no row
	// matches the hash.
	MarkSucceeded(ctx context.Context, hash string) error
	// MarkFailed stamps failed_at. Returns ErrLogNotFound when no row
	// matches the hash.
	MarkFailed(ctx context.Context, hash string) error
}
