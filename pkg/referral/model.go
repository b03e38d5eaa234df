package referral

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CampaignRecord maps directly to the 'referral_campaigns' table
type CampaignRecord struct {
	bun.BaseModel `bun:"table:referral_campaigns,alias:rc"`
	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	DaoID         uuid.UUID `bun:"dao_id,notnull,type:uuid"`
	Name          string    `bun:"name,notnull,type:varchar(255)"`
	Tier          string    `bun:"tier,notnull,type:varchar(64)"`
	IsRecursive   bool      `bun:"is_recursive,notnull,default:false"`
	LinkLimit     int       `bun:"link_limit,notnull,default:0"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

// LinkRecord maps directly to the 'referral_links' table
type LinkRecord struct {
	bun.BaseModel `bun:"table:referral_links,alias:rl"`
	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	CampaignID    uuid.UUID `bun:"campaign_id,notnull,type:uuid"`
	ReferrerID    uuid.UUID `bun:"referrer_id,notnull,type:uuid"`
	LinkLimit     int       `bun:"link_limit,notnull"`
	LimitLeft     int       `bun:"limit_left,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

// MemberRecord maps directly to the 'referral_members' table
type MemberRecord struct {
	bun.BaseModel `bun:"table:referral_members,alias:rm"`
	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	CampaignID    uuid.UUID `bun:"campaign_id,notnull,type:uuid"`
	LinkID        uuid.UUID `bun:"link_id,notnull,type:uuid"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid"`
	WalletAddress string    `bun:"wallet_address,notnull,type:varchar(42)"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

func toCampaignRecord(c *Campaign) *CampaignRecord {
	return &CampaignRecord{
		ID:          c.ID,
		DaoID:       c.DaoID,
		Name:        c.Name,
		Tier:        c.Tier,
		IsRecursive: c.IsRecursive,
		LinkLimit:   c.LinkLimit,
		CreatedAt:   c.CreatedAt,
	}
}

func toCampaign(r *CampaignRecord) *Campaign {
	return &Campaign{
		ID:          r.ID,
		DaoID:       r.DaoID,
		Name:        r.Name,
		Tier:        r.Tier,
		IsRecursive: r.IsRecursive,
		LinkLimit:   r.LinkLimit,
		CreatedAt:   r.CreatedAt,
	}
}

func toLinkRecord(l *Link) *LinkRecord {
	return &LinkRecord{
		ID:         l.ID,
		CampaignID: l.CampaignID,
		ReferrerID: l.ReferrerID,
		LinkLimit:  l.Limit,
		LimitLeft:  l.LimitLeft,
		CreatedAt:  l.CreatedAt,
	}
}

func toLink(r *LinkRecord) *Link {
	return &Link{
		ID:         r.ID,
		CampaignID: r.CampaignID,
		ReferrerID: r.ReferrerID,
		Limit:      r.LinkLimit,
		LimitLeft:  r.LimitLeft,
		CreatedAt:  r.CreatedAt,
	}
}

func toMemberRecord(m *Member) *MemberRecord {
	return &MemberRecord{
		ID:            m.ID,
		CampaignID:    m.CampaignID,
		LinkID:        m.LinkID,
		UserID:        m.UserID,
		WalletAddress: m.WalletAddress,
		CreatedAt:     m.CreatedAt,
	}
}

func toMember(r *MemberRecord) *Member {
	return &Member{
		ID:            r.ID,
		CampaignID:    r.CampaignID,
		LinkID:        r.LinkID,
		UserID:        r.UserID,
		WalletAddress: r.WalletAddress,
		CreatedAt:     r.CreatedAt,
	}
}
