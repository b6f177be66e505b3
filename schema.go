package userdesk

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// schemaModels in dependency order, users first so foreign keys resolve.
var schemaModels = []any{
	(*User)(nil),
	(*EmailVerificationCode)(nil),
	(*Session)(nil),
}

// CreateSchema provisions the tables the package needs. It is idempotent and
// safe to run on every start.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range schemaModels {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create table")
		}
	}

	return nil
}
