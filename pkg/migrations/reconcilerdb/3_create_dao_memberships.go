package reconcilerdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/superdao/reconciler/pkg/membership"
	mghelper "github.com/superdao/reconciler/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating dao_memberships table...")
		if err := mghelper.CreateSchema(ctx, db, &membership.Record{}); err != nil {
			return err
		}
		// one membership per (dao, user) pair
		if err := mghelper.CreateUniqueIndex(ctx, db, &membership.Record{},
			"dao_memberships_dao_user_idx", "dao_id", "user_id"); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &membership.Record{}, "user_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping dao_memberships table...")
		return mghelper.DropTables(ctx, db, &membership.Record{})
	})
}
