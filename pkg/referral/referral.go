// Package referral implements ambassador campaigns: shareable claim links
// with a bounded number of uses. The remaining-use counter is recomputed
// under a serializable transaction so concurrent claims can never push it
// below zero.
package referral

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCampaignNotFound = errors.New("referral campaign not found")
	ErrLinkNotFound     = errors.New("referral link not found")
	ErrLinkExhausted    = errors.New("referral link has no uses left")
	ErrAlreadyClaimed   = errors.New("user already claimed through this campaign")
	ErrMemberNotFound   = errors.New("referral member not found")
)

// Campaign is one referral program for a DAO tier
type Campaign struct {
	ID    uuid.UUID
	DaoID uuid.UUID
	Name  string
	Tier  string
	// IsRecursive mints a fresh link for every member who joins through the
	// campaign, letting the member graph grow link by link.
	IsRecursive bool
	// LinkLimit is the use budget given to newly minted links
	LinkLimit int
	CreatedAt time.Time
}

// Link is one shareable claim link
type Link struct {
	ID         uuid.UUID
	CampaignID uuid.UUID
	// ReferrerID is the user whose link this is
	ReferrerID uuid.UUID
	Limit      int
	// LimitLeft is denormalized from Limit minus the member count and only
	// ever written inside the serializable recompute.
	LimitLeft int
	CreatedAt time.Time
}

// Member records one successful claim through a link
type Member struct {
	ID            uuid.UUID
	CampaignID    uuid.UUID
	LinkID        uuid.UUID
	UserID        uuid.UUID
	WalletAddress string
	CreatedAt     time.Time
}

// Store is the data-access contract for referral state
type Store interface {
	CreateCampaign(ctx context.Context, c *Campaign) error
	GetCampaign(ctx context.Context, id uuid.UUID) (*Campaign, error)
	CreateLink(ctx context.Context, l *Link) error
	GetLink(ctx context.Context, id uuid.UUID) (*Link, error)
	ListLinksByReferrer(ctx context.Context, campaignID, referrerID uuid.UUID) ([]*Link, error)
	// AddMember inserts the claim record and recomputes the link's
	// limit_left in one serializable transaction. Returns ErrLinkExhausted
	// when the insert would drive the remaining count below zero and
	// ErrAlreadyClaimed when the user already holds a member row in the
	// campaign.
	AddMember(ctx context.Context, m *Member) error
	GetMemberByUser(ctx context.Context, campaignID, userID uuid.UUID) (*Member, error)
}
