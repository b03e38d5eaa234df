package reconcilerdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/superdao/reconciler/pkg/dao"
	mghelper "github.com/superdao/reconciler/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating daos table...")
		if err := mghelper.CreateSchema(ctx, db, &dao.Record{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &dao.Record{}, "contract_address")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping daos table...")
		return mghelper.DropTables(ctx, db, &dao.Record{})
	})
}
