package txlog

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// Record maps directly to the 'transaction_logs' table in PostgreSQL.
// The transaction hash is the primary key: one tracked transaction, one row.
type Record struct {
	bun.BaseModel   `bun:"table:transaction_logs,alias:tl"`
	TransactionHash string          `bun:"transaction_hash,pk,type:varchar(66)"`
	Type            string          `bun:"type,notnull,type:varchar(32)"`
	ExecutorID      string          `bun:"executor_id,type:varchar(64)"`
	DaoAddress      string          `bun:"dao_address,type:varchar(42)"`
	Payload         json.RawMessage `bun:"payload,type:jsonb"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,default:current_timestamp"`
	SucceededAt     *time.Time      `bun:"succeeded_at"`
	FailedAt        *time.Time      `bun:"failed_at"`
}

func toRecord(l *Log) *Record {
	return &Record{
		TransactionHash: l.TransactionHash,
		Type:            string(l.Type),
		ExecutorID:      l.ExecutorID,
		DaoAddress:      l.DaoAddress,
		Payload:         l.Payload,
		CreatedAt:       l.CreatedAt,
		SucceededAt:     l.SucceededAt,
		FailedAt:        l.FailedAt,
	}
}

func toLog(r *Record) *Log {
	return &Log{
		TransactionHash: r.TransactionHash,
		Type:            Type(r.Type),
		ExecutorID:      r.ExecutorID,
		DaoAddress:      r.DaoAddress,
		Payload:         r.Payload,
		CreatedAt:       r.CreatedAt,
		SucceededAt:     r.SucceededAt,
		FailedAt:        r.FailedAt,
	}
}
