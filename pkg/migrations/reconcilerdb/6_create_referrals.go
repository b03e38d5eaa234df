package reconcilerdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	mghelper "github.com/superdao/reconciler/pkg/pgutil/migrations"
	"github.com/superdao/reconciler/pkg/referral"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating referral tables...")
		if err := mghelper.CreateSchema(ctx, db,
			&referral.CampaignRecord{},
			&referral.LinkRecord{},
			&referral.MemberRecord{},
		); err != nil {
			return err
		}
		if err := mghelper.CreateModelIndexes(ctx, db, &referral.LinkRecord{}, "campaign_id"); err != nil {
			return err
		}
		if err := mghelper.CreateModelIndexes(ctx, db, &referral.MemberRecord{}, "link_id"); err != nil {
			return err
		}
		// one claim per user per campaign
		return mghelper.CreateUniqueIndex(ctx, db, &referral.MemberRecord{},
			"referral_members_campaign_user_idx", "campaign_id", "user_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping referral tables...")
		return mghelper.DropTables(ctx, db,
			&referral.MemberRecord{},
			&referral.LinkRecord{},
			&referral.CampaignRecord{},
		)
	})
}
