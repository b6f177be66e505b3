package userdesk

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// SendRegistrationCodeMessage starts or restarts a self-service registration.
type SendRegistrationCodeMessage struct {
	Username      string `json:"username"`
	Fullname      string `json:"fullname"`
	Email         string `json:"email"`
	AgreedToTerms bool   `json:"agree"`
}

func (e SendRegistrationCodeMessage) Type() string { return "registration.send_code" }

// SendRegistrationCodeHandler issues an email verification code. When the
// username is unknown it first creates an unverified account shell; when the
// username belongs to a verified account it does nothing and reports success,
// so the endpoint cannot be used to probe for existing accounts.
type SendRegistrationCodeHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
	cfg    VerificationConfig
	now    func() time.Time
}

// NewSendRegistrationCodeHandler creates a handler with sane defaults.
func NewSendRegistrationCodeHandler(repo RepositoryManager, mailer Mailer) *SendRegistrationCodeHandler {
	return &SendRegistrationCodeHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
		cfg: VerificationConfig{
			TTL: 10 * time.Minute,
		},
		now: time.Now,
	}
}

// WithLogger overrides the logger used by the handler.
func (h *SendRegistrationCodeHandler) WithLogger(logger Logger) *SendRegistrationCodeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithConfig overrides the code TTL and reissue policy.
func (h *SendRegistrationCodeHandler) WithConfig(cfg VerificationConfig) *SendRegistrationCodeHandler {
	if cfg.TTL > 0 {
		h.cfg = cfg
	}
	return h
}

func (h *SendRegistrationCodeHandler) Execute(ctx context.Context, event SendRegistrationCodeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during registration code dispatch",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SendRegistrationCodeHandler) execute(ctx context.Context, event SendRegistrationCodeMessage) error {
	if !event.AgreedToTerms {
		return ErrMustAgreeToTerms
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	normalized := NormalizeUsername(event.Username)

	user, err := h.repo.Users().GetByNormalizedUsername(ctx, normalized)
	if err != nil && !repository.IsRecordNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user")
	}

	if user != nil && user.EmailVerified {
		// already registered, pretend we sent a code
		h.logger.Debug("registration code requested for verified user %s", normalized)
		return nil
	}

	code, err := NewVerificationCode()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification code")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if user == nil {
			user = &User{
				Username:           event.Username,
				NormalizedUsername: normalized,
				Fullname:           event.Fullname,
				Email:              event.Email,
				Status:             UserStatusPending,
				Role:               RoleUser,
				AgreedToTerms:      true,
				HashedPassword:     RandomPasswordHash(),
			}

			if id, err := hashid.NewUUID(normalized); err == nil {
				user.ID = id
			}

			if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
			}
		}

		record := &EmailVerificationCode{
			Code:      code,
			UserID:    user.ID,
			ExpiresAt: h.now().Add(h.cfg.TTL),
		}

		if h.cfg.KeepPriorCodes {
			err = h.repo.VerificationCodes().CreateTx(ctx, tx, record)
		} else {
			err = h.repo.VerificationCodes().ReplaceForUserTx(ctx, tx, record)
		}
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store verification code")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "registration code transaction failed")
	}

	// delivery happens outside the transaction: a failed send leaves the
	// account shell and stored code in place, retrying the request issues
	// a fresh code
	if err := h.mailer.SendVerificationCode(ctx, event.Email, event.Fullname, code); err != nil {
		h.logger.Error("failed to deliver verification code to %s: %s", event.Email, err)
		return ErrCodeDeliveryFailed
	}

	return nil
}
