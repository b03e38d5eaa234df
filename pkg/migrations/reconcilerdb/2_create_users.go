package reconcilerdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	mghelper "github.com/superdao/reconciler/pkg/pgutil/migrations"
	"github.com/superdao/reconciler/pkg/user"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating users table...")
		return mghelper.CreateSchema(ctx, db, &user.Record{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping users table...")
		return mghelper.DropTables(ctx, db, &user.Record{})
	})
}
