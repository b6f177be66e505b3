package userdesk

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Sessions exposes the session store. Deletes are idempotent: removing an id
// that does not exist is not an error.
type Sessions interface {
	Create(ctx context.Context, session *Session) error
	// GetWithUser loads a session and its owning user in one query. A
	// missing id yields (nil, nil).
	GetWithUser(ctx context.Context, id string) (*Session, error)
	MarkStale(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessions struct {
	db *bun.DB
}

var _ Sessions = (*sessions)(nil)

// NewSessionsRepository builds the bun backed session store.
func NewSessionsRepository(db *bun.DB) Sessions {
	return &sessions{db: db}
}

func (r *sessions) Create(ctx context.Context, session *Session) error {
	_, err := r.db.NewInsert().Model(session).Exec(ctx)
	return err
}

func (r *sessions) GetWithUser(ctx context.Context, id string) (*Session, error) {
	record := &Session{}
	err := r.db.NewSelect().
		Model(record).
		Relation("User").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return record, nil
}

func (r *sessions) MarkStale(ctx context.Context, id string) error {
	_, err := r.db.NewUpdate().
		Model((*Session)(nil)).
		Set("fresh = ?", false).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *sessions) Delete(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().
		Model((*Session)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *sessions) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*Session)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	return err
}

func (r *sessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*Session)(nil)).
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
