package txlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the transaction log store
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Create(ctx context.Context, l *Log) error {
	_, err := s.db.NewInsert().
		Model(toRecord(l)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create transaction log: %w", err)
	}
	return nil
}

func (s *pgStore) GetByHash(ctx context.Context, hash string) (*Log, error) {
	rec := new(Record)
	err := s.db.NewSelect().
		Model(rec).
		Where("transaction_hash = ?", hash).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLogNotFound
		}
		return nil, fmt.Errorf("failed to get transaction log: %w", err)
	}
	return toLog(rec), nil
}

func (s *pgStore) List(ctx context.Context, limit, offset int) ([]*Log, error) {
	var recs []Record
	err := s.db.NewSelect().
		Model(&recs).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction logs: %w", err)
	}
	return toLogs(recs), nil
}

func (s *pgStore) ListPending(ctx context.Context) ([]*Log, error) {
	var recs []Record
	err := s.db.NewSelect().
		Model(&recs).
		Where("succeeded_at IS NULL").
		Where("failed_at IS NULL").
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transaction logs: %w", err)
	}
	return toLogs(recs), nil
}

func (s *pgStore) MarkSucceeded(ctx context.Context, hash string) error {
	return s.stamp(ctx, hash, "succeeded_at")
}

func (s *pgStore) MarkFailed(ctx context.Context, hash string) error {
	return s.stamp(ctx, hash, "failed_at")
}

func (s *pgStore) stamp(ctx context.Context, hash, column string) error {
	res, err := s.db.NewUpdate().
		Model((*Record)(nil)).
		Set("? = current_timestamp", bun.Ident(column)).
		Where("transaction_hash = ?", hash).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to stamp transaction log: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrLogNotFound
	}
	return nil
}

func toLogs(recs []Record) []*Log {
	out := make([]*Log, 0, len(recs))
	for i := range recs {
		out = append(out, toLog(&recs[i]))
	}
	return out
}
