package whitelist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the whitelist store
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Create(ctx context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.db.NewInsert().
		Model(toRecord(e)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create whitelist entry: %w", err)
	}
	return nil
}

func (s *pgStore) GetByWallet(ctx context.Context, daoID uuid.UUID, walletAddress string) (*Entry, error) {
	rec := new(Record)
	err := s.db.NewSelect().
		Model(rec).
		Where("dao_id = ?", daoID).
		Where("lower(wallet_address) = lower(?)", walletAddress).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get whitelist entry: %w", err)
	}
	return toEntry(rec), nil
}

func (s *pgStore) ListByDao(ctx context.Context, daoID uuid.UUID) ([]*Entry, error) {
	var recs []Record
	err := s.db.NewSelect().
		Model(&recs).
		Where("dao_id = ?", daoID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list whitelist entries: %w", err)
	}
	out := make([]*Entry, 0, len(recs))
	for i := range recs {
		out = append(out, toEntry(&recs[i]))
	}
	return out, nil
}

func (s *pgStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.NewDelete().
		Model((*Record)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete whitelist entry: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrEntryNotFound
	}
	return nil
}
