package dao

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record maps directly to the 'daos' table in PostgreSQL
type Record struct {
	bun.BaseModel   `bun:"table:daos,alias:d"`
	ID              uuid.UUID `bun:"id,pk,type:uuid"`
	Slug            string    `bun:"slug,unique,notnull,type:varchar(100)"`
	Name            string    `bun:"name,notnull,type:varchar(255)"`
	ContractAddress string    `bun:"contract_address,type:varchar(42)"`
	MembersCount    int       `bun:"members_count,notnull,default:0"`
	CreatedAt       time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

func toRecord(d *Dao) *Record {
	return &Record{
		ID:              d.ID,
		Slug:            d.Slug,
		Name:            d.Name,
		ContractAddress: d.ContractAddress,
		MembersCount:    d.MembersCount,
		CreatedAt:       d.CreatedAt,
	}
}

func toDao(r *Record) *Dao {
	return &Dao{
		ID:              r.ID,
		Slug:            r.Slug,
		Name:            r.Name,
		ContractAddress: r.ContractAddress,
		MembersCount:    r.MembersCount,
		CreatedAt:       r.CreatedAt,
	}
}
