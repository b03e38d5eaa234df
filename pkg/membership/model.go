package membership

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record maps directly to the 'dao_memberships' table in PostgreSQL.
// The (dao_id, user_id) pair carries a unique index so a user can hold at
// most one membership per DAO.
type Record struct {
	bun.BaseModel `bun:"table:dao_memberships,alias:dm"`
	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	DaoID         uuid.UUID `bun:"dao_id,notnull,type:uuid"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid"`
	Role          string    `bun:"role,notnull,type:varchar(16)"`
	Tiers         []string  `bun:"tiers,array"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

func toRecord(m *Membership) *Record {
	return &Record{
		ID:        m.ID,
		DaoID:     m.DaoID,
		UserID:    m.UserID,
		Role:      string(m.Role),
		Tiers:     m.Tiers,
		CreatedAt: m.CreatedAt,
	}
}

func toMembership(r *Record) *Membership {
	return &Membership{
		ID:        r.ID,
		DaoID:     r.DaoID,
		UserID:    r.UserID,
		Role:      Role(r.Role),
		Tiers:     r.Tiers,
		CreatedAt: r.CreatedAt,
	}
}
