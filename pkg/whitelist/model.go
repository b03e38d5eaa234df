package whitelist

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record maps directly to the 'whitelist_entries' table in PostgreSQL
type Record struct {
	bun.BaseModel `bun:"table:whitelist_entries,alias:we"`
	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	DaoID         uuid.UUID `bun:"dao_id,notnull,type:uuid"`
	WalletAddress string    `bun:"wallet_address,notnull,type:varchar(42)"`
	Tiers         []string  `bun:"tiers,array"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

func toRecord(e *Entry) *Record {
	return &Record{
		ID:            e.ID,
		DaoID:         e.DaoID,
		WalletAddress: e.WalletAddress,
		Tiers:         e.Tiers,
		CreatedAt:     e.CreatedAt,
	}
}

func toEntry(r *Record) *Entry {
	return &Entry{
		ID:            r.ID,
		DaoID:         r.DaoID,
		WalletAddress: r.WalletAddress,
		Tiers:         r.Tiers,
		CreatedAt:     r.CreatedAt,
	}
}
