package reconcilerdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	mghelper "github.com/superdao/reconciler/pkg/pgutil/migrations"
	"github.com/superdao/reconciler/pkg/whitelist"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating whitelist_entries table...")
		if err := mghelper.CreateSchema(ctx, db, &whitelist.Record{}); err != nil {
			return err
		}
		return mghelper.CreateUniqueIndex(ctx, db, &whitelist.Record{},
			"whitelist_entries_dao_wallet_idx", "dao_id", "wallet_address")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping whitelist_entries table...")
		return mghelper.DropTables(ctx, db, &whitelist.Record{})
	})
}
