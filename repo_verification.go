package userdesk

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// VerificationCodes exposes the email verification code store.
type VerificationCodes interface {
	CreateTx(ctx context.Context, tx bun.IDB, code *EmailVerificationCode) error
	// LatestForUser returns the most recently issued code for a user, or
	// (nil, nil) when none is outstanding.
	LatestForUser(ctx context.Context, userID uuid.UUID) (*EmailVerificationCode, error)
	DeleteTx(ctx context.Context, tx bun.IDB, id int64) error
	DeleteForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error
	// ReplaceForUserTx clears any outstanding codes and inserts the new
	// one, so a user has at most one live code at a time.
	ReplaceForUserTx(ctx context.Context, tx bun.IDB, code *EmailVerificationCode) error
}

type verificationCodes struct {
	db *bun.DB
}

var _ VerificationCodes = (*verificationCodes)(nil)

// NewVerificationCodesRepository builds the bun backed code store.
func NewVerificationCodesRepository(db *bun.DB) VerificationCodes {
	return &verificationCodes{db: db}
}

func (r *verificationCodes) CreateTx(ctx context.Context, tx bun.IDB, code *EmailVerificationCode) error {
	if code.CreatedAt == nil {
		now := time.Now()
		code.CreatedAt = &now
	}
	_, err := tx.NewInsert().Model(code).Exec(ctx)
	return err
}

func (r *verificationCodes) LatestForUser(ctx context.Context, userID uuid.UUID) (*EmailVerificationCode, error) {
	record := &EmailVerificationCode{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		OrderExpr("?TableAlias.id DESC").
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

func (r *verificationCodes) ReplaceForUserTx(ctx context.Context, tx bun.IDB, code *EmailVerificationCode) error {
	if err := r.DeleteForUserTx(ctx, tx, code.UserID); err != nil {
		return err
	}
	return r.CreateTx(ctx, tx, code)
}

func (r *verificationCodes) DeleteTx(ctx context.Context, tx bun.IDB, id int64) error {
	_, err := tx.NewDelete().
		Model((*EmailVerificationCode)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *verificationCodes) DeleteForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*EmailVerificationCode)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	return err
}
