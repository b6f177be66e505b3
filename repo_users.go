package userdesk

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/userdesk/go-userdesk/datatable"
)

// MarkUserVerifiedSQL promotes an unverified account in one statement, the
// RETURNING clause doubles as an existence check.
var MarkUserVerifiedSQL = `UPDATE "users" AS "usr"
SET
	"email_verified" = TRUE,
	"status" = 'active',
	"hashed_password" = ?
WHERE (
	"usr"."id" = ?
) RETURNING *;`

// Users exposes the user store.
type Users interface {
	repository.Repository[*User]

	GetByNormalizedUsername(ctx context.Context, normalized string) (*User, error)
	GetByNormalizedUsernameTx(ctx context.Context, tx bun.IDB, normalized string) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)
	MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
	ListPage(ctx context.Context, state datatable.State) (*datatable.Page[*User], error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

// NewUsersRepository builds the bun backed user store.
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "normalized_username"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByNormalizedUsername(ctx context.Context, normalized string) (*User, error) {
	return a.GetByNormalizedUsernameTx(ctx, a.db, normalized)
}

func (a *users) GetByNormalizedUsernameTx(ctx context.Context, tx bun.IDB, normalized string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.normalized_username = ?", normalized).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"normalized_username": normalized,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, tx, MarkUserVerifiedSQL, passwordHash, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

// usersTableColumns whitelists the sortable/filterable columns of the users
// data table.
var usersTableColumns = datatable.Columns{
	"username":   "username",
	"fullname":   "fullname",
	"email":      "email",
	"status":     "status",
	"role":       "user_role",
	"created_at": "created_at",
}

// usersSearchColumns are scanned by the free-text query.
var usersSearchColumns = []string{"username", "fullname", "email"}

func (a *users) ListPage(ctx context.Context, state datatable.State) (*datatable.Page[*User], error) {
	state = state.Normalize()

	var records []*User
	q := a.db.NewSelect().Model(&records)
	q = datatable.ApplySelect(q, state, usersTableColumns, usersSearchColumns)

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, err
	}

	page := datatable.NewPage(records, total, state.Page, state.Limit)
	return &page, nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.Normalize()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
