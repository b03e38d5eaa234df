package membership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the membership store
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

// Create inserts the membership row and, unless the role is Sudo, increments
// the DAO's members_count in the same transaction.
func (s *pgStore) Create(ctx context.Context, m *Membership) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(toRecord(m)).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert membership: %w", err)
		}
		if m.Role == RoleSudo {
			return nil
		}
		if _, err := tx.NewUpdate().
			Table("daos").
			Set("members_count = members_count + 1").
			Where("id = ?", m.DaoID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to increment members count: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

func (s *pgStore) Get(ctx context.Context, daoID, userID uuid.UUID) (*Membership, error) {
	rec := new(Record)
	err := s.db.NewSelect().
		Model(rec).
		Where("dao_id = ?", daoID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return toMembership(rec), nil
}

func (s *pgStore) GetByID(ctx context.Context, id uuid.UUID) (*Membership, error) {
	rec := new(Record)
	err := s.db.NewSelect().
		Model(rec).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return toMembership(rec), nil
}

// ListByDao returns the DAO's memberships with Sudo rows filtered out, the
// same visibility rule member listings use.
func (s *pgStore) ListByDao(ctx context.Context, daoID uuid.UUID) ([]*Membership, error) {
	var recs []Record
	err := s.db.NewSelect().
		Model(&recs).
		Where("dao_id = ?", daoID).
		Where("role != ?", string(RoleSudo)).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	out := make([]*Membership, 0, len(recs))
	for i := range recs {
		out = append(out, toMembership(&recs[i]))
	}
	return out, nil
}

func (s *pgStore) UpdateRole(ctx context.Context, daoID, userID uuid.UUID, role Role) error {
	res, err := s.db.NewUpdate().
		Model((*Record)(nil)).
		Set("role = ?", string(role)).
		Where("dao_id = ?", daoID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

func (s *pgStore) UpdateTiers(ctx context.Context, daoID, userID uuid.UUID, tiers []string) error {
	res, err := s.db.NewUpdate().
		Model((*Record)(nil)).
		Set("tiers = ?", pgdialect.Array(tiers)).
		Where("dao_id = ?", daoID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update tiers: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

// Delete removes the membership row and, unless the role was Sudo,
// decrements the DAO's members_count in the same transaction.
func (s *pgStore) Delete(ctx context.Context, daoID, userID uuid.UUID) error {
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		rec := new(Record)
		err := tx.NewSelect().
			Model(rec).
			Where("dao_id = ?", daoID).
			Where("user_id = ?", userID).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrMembershipNotFound
			}
			return fmt.Errorf("failed to lock membership: %w", err)
		}
		if _, err := tx.NewDelete().
			Model((*Record)(nil)).
			Where("id = ?", rec.ID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete membership: %w", err)
		}
		if Role(rec.Role) == RoleSudo {
			return nil
		}
		if _, err := tx.NewUpdate().
			Table("daos").
			Set("members_count = members_count - 1").
			Where("id = ?", daoID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to decrement members count: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return ErrMembershipNotFound
		}
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return nil
}
