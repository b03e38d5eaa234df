package referral

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

// NewStore creates a new postgres implementation of the referral store
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) CreateCampaign(ctx context.Context, c *Campaign) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := s.db.NewInsert().
		Model(toCampaignRecord(c)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create referral campaign: %w", err)
	}
	return nil
}

func (s *pgStore) GetCampaign(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	rec := new(CampaignRecord)
	err := s.db.NewSelect().
		Model(rec).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to get referral campaign: %w", err)
	}
	return toCampaign(rec), nil
}

func (s *pgStore) CreateLink(ctx context.Context, l *Link) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	_, err := s.db.NewInsert().
		Model(toLinkRecord(l)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create referral link: %w", err)
	}
	return nil
}

func (s *pgStore) GetLink(ctx context.Context, id uuid.UUID) (*Link, error) {
	rec := new(LinkRecord)
	err := s.db.NewSelect().
		Model(rec).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get referral link: %w", err)
	}
	return toLink(rec), nil
}

func (s *pgStore) ListLinksByReferrer(ctx context.Context, campaignID, referrerID uuid.UUID) ([]*Link, error) {
	var recs []LinkRecord
	err := s.db.NewSelect().
		Model(&recs).
		Where("campaign_id = ?", campaignID).
		Where("referrer_id = ?", referrerID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list referral links: %w", err)
	}
	out := make([]*Link, 0, len(recs))
	for i := range recs {
		out = append(out, toLink(&recs[i]))
	}
	return out, nil
}

// AddMember inserts the claim row and recomputes limit_left from the actual
// member count, all under serializable isolation. Recomputing instead of
// decrementing keeps the counter correct even if rows were added or removed
// out of band.
func (s *pgStore) AddMember(ctx context.Context, m *Member) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	err := s.db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*MemberRecord)(nil)).
			Where("campaign_id = ?", m.CampaignID).
			Where("user_id = ?", m.UserID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to check existing claim: %w", err)
		}
		if exists {
			return ErrAlreadyClaimed
		}

		link := new(LinkRecord)
		if err := tx.NewSelect().
			Model(link).
			Where("id = ?", m.LinkID).
			Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrLinkNotFound
			}
			return fmt.Errorf("failed to load referral link: %w", err)
		}

		if _, err := tx.NewInsert().
			Model(toMemberRecord(m)).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert referral member: %w", err)
		}

		used, err := tx.NewSelect().
			Model((*MemberRecord)(nil)).
			Where("link_id = ?", m.LinkID).
			Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count link members: %w", err)
		}

		left := link.LinkLimit - used
		if left < 0 {
			return ErrLinkExhausted
		}
		if _, err := tx.NewUpdate().
			Model((*LinkRecord)(nil)).
			Set("limit_left = ?", left).
			Where("id = ?", m.LinkID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to update limit left: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrLinkExhausted) || errors.Is(err, ErrAlreadyClaimed) || errors.Is(err, ErrLinkNotFound) {
			return err
		}
		return fmt.Errorf("failed to add referral member: %w", err)
	}
	return nil
}

func (s *pgStore) GetMemberByUser(ctx context.Context, campaignID, userID uuid.UUID) (*Member, error) {
	rec := new(MemberRecord)
	err := s.db.NewSelect().
		Model(rec).
		Where("campaign_id = ?", campaignID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get referral member: %w", err)
	}
	return toMember(rec), nil
}
