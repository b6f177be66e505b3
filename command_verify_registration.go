package userdesk

import (
	"context"
	"crypto/subtle"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// VerifyRegistrationMessage finalizes a registration with the emailed code
// and the password the user chose. OnVerified, when set, receives the
// promoted user so the caller can start a session.
type VerifyRegistrationMessage struct {
	Username string `json:"username"`
	Code     string `json:"confirmationCode"`
	Password string `json:"password"`

	OnVerified func(user *User)
}

func (e VerifyRegistrationMessage) Type() string { return "registration.verify" }

// VerifyRegistrationHandler promotes an unverified account. Every
// precondition failure collapses into the same uniform error so responses do
// not reveal which step rejected the attempt.
type VerifyRegistrationHandler struct {
	repo   RepositoryManager
	logger Logger
	now    func() time.Time
}

// NewVerifyRegistrationHandler creates a handler with sane defaults.
func NewVerifyRegistrationHandler(repo RepositoryManager) *VerifyRegistrationHandler {
	return &VerifyRegistrationHandler{
		repo:   repo,
		logger: defLogger{},
		now:    time.Now,
	}
}

// WithLogger overrides the logger used by the handler.
func (h *VerifyRegistrationHandler) WithLogger(logger Logger) *VerifyRegistrationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyRegistrationHandler) Execute(ctx context.Context, event VerifyRegistrationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during registration verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyRegistrationHandler) execute(ctx context.Context, event VerifyRegistrationMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	normalized := NormalizeUsername(event.Username)

	user, err := h.repo.Users().GetByNormalizedUsername(ctx, normalized)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrVerificationFailed
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user")
	}

	if user.EmailVerified {
		return ErrVerificationFailed
	}

	code, err := h.repo.VerificationCodes().LatestForUser(ctx, user.ID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up verification code")
	}

	if code == nil || code.Expired(h.now()) {
		return ErrVerificationFailed
	}

	if subtle.ConstantTimeCompare([]byte(code.Code), []byte(event.Code)) != 1 {
		return ErrVerificationFailed
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.repo.Users().MarkVerifiedTx(ctx, tx, user.ID, hash); err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrVerificationFailed
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark user verified")
		}

		if err := h.repo.VerificationCodes().DeleteTx(ctx, tx, code.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume verification code")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "registration verification transaction failed")
	}

	user.EmailVerified = true
	user.Status = UserStatusActive
	user.HashedPassword = hash

	if event.OnVerified != nil {
		event.OnVerified(user)
	}

	return nil
}
