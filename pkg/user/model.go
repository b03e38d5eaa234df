package user

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record maps directly to the 'users' table in PostgreSQL
type Record struct {
	bun.BaseModel `bun:"table:users,alias:u"`
	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	WalletAddress string    `bun:"wallet_address,unique,notnull,type:varchar(42)"`
	Email         *string   `bun:"email,type:varchar(255)"`
	DisplayName   *string   `bun:"display_name,type:varchar(255)"`
	IsSupervisor  bool      `bun:"is_supervisor,notnull,default:false"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

func toRecord(u *User) *Record {
	rec := &Record{
		ID:            u.ID,
		WalletAddress: u.WalletAddress,
		IsSupervisor:  u.IsSupervisor,
		CreatedAt:     u.CreatedAt,
	}
	if u.Email != "" {
		rec.Email = &u.Email
	}
	if u.DisplayName != "" {
		rec.DisplayName = &u.DisplayName
	}
	return rec
}

func toUser(rec *Record) *User {
	u := &User{
		ID:            rec.ID,
		WalletAddress: rec.WalletAddress,
		IsSupervisor:  rec.IsSupervisor,
		CreatedAt:     rec.CreatedAt,
	}
	if rec.Email != nil {
		u.Email = *rec.Email
	}
	if rec.DisplayName != nil {
		u.DisplayName = *rec.DisplayName
	}
	return u
}
