package reconcilerdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	mghelper "github.com/superdao/reconciler/pkg/pgutil/migrations"
	"github.com/superdao/reconciler/pkg/txlog"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating transaction_logs table...")
		if err := mghelper.CreateSchema(ctx, db, &txlog.Record{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &txlog.Record{}, "created_at")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping transaction_logs table...")
		return mghelper.DropTables(ctx, db, &txlog.Record{})
	})
}
