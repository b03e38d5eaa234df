package dao

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

// NewStore creates a new postgres implementation of the DAO store
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Create(ctx context.Context, d *Dao) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := s.db.NewInsert().
		Model(toRecord(d)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create dao: %w", err)
	}
	return nil
}

func (s *pgStore) GetByID(ctx context.Context, id uuid.UUID) (*Dao, error) {
	rec := new(Record)
	err := s.db.NewSelect().
		Model(rec).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDaoNotFound
		}
		return nil, fmt.Errorf("failed to get dao: %w", err)
	}
	return toDao(rec), nil
}

func (s *pgStore) GetByAddress(ctx context.Context, contractAddress string) (*Dao, error) {
	rec := new(Record)
	err := s.db.NewSelect().
		Model(rec).
		Where("contract_address = ?", contractAddress).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDaoNotFound
		}
		return nil, fmt.Errorf("failed to get dao by address: %w", err)
	}
	return toDao(rec), nil
}

func (s *pgStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.NewDelete().
		Model((*Record)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete dao: %w", err)
	}
	return nil
}
