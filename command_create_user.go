package userdesk

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// CreateUserMessage is the administrative provisioning payload. The created
// account skips email verification entirely.
type CreateUserMessage struct {
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Phone    string `json:"phone_number"`
	Address  string `json:"address"`
	Status   string `json:"status"`
	Role     string `json:"user_role"`
	Password string `json:"password"`

	OnCreated func(user *User)
}

func (e CreateUserMessage) Type() string { return "user.create" }

// Validate checks the provisioning payload before any store access.
func (e CreateUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Username, validation.Required, validation.Length(2, 100)),
		validation.Field(&e.Fullname, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&e.Phone, validation.By(validatePhone)),
		validation.Field(&e.Status, validation.By(validateStatus)),
		validation.Field(&e.Role, validation.By(validateRole)),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 100)),
	)
}

func validatePhone(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}

	num, err := phonenumbers.Parse(raw, "US")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return goerrors.New("invalid phone number", goerrors.CategoryValidation)
	}

	return nil
}

func validateStatus(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	if !IsValidStatus(UserStatus(raw)) {
		return goerrors.New("invalid user status", goerrors.CategoryValidation)
	}
	return nil
}

func validateRole(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	if !IsValidRole(UserRole(raw)) {
		return goerrors.New("invalid user role", goerrors.CategoryValidation)
	}
	return nil
}

// CreateUserHandler provisions an account on behalf of a root user. Unlike
// self-service registration a duplicate username is reported as such, the
// caller is already authenticated as an administrator.
type CreateUserHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewCreateUserHandler creates a handler with sane defaults.
func NewCreateUserHandler(repo RepositoryManager) *CreateUserHandler {
	return &CreateUserHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *CreateUserHandler) WithLogger(logger Logger) *CreateUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *CreateUserHandler) Execute(ctx context.Context, event CreateUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user creation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateUserHandler) execute(ctx context.Context, event CreateUserMessage) error {
	if err := event.Validate(); err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid user payload").
			WithCode(goerrors.CodeBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	normalized := NormalizeUsername(event.Username)

	existing, err := h.repo.Users().GetByNormalizedUsername(ctx, normalized)
	if err != nil && !repository.IsRecordNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user")
	}

	if existing != nil {
		return ErrDuplicateUsername
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Username:           event.Username,
		NormalizedUsername: normalized,
		Fullname:           event.Fullname,
		Email:              event.Email,
		EmailVerified:      true,
		Phone:              formatPhone(event.Phone),
		Address:            event.Address,
		Status:             UserStatus(event.Status),
		Role:               UserRole(event.Role),
		AgreedToTerms:      true,
		HashedPassword:     hash,
	}

	if user.Status == "" {
		user.Status = UserStatusActive
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user creation transaction failed")
	}

	if event.OnCreated != nil {
		event.OnCreated(user)
	}

	return nil
}

// formatPhone canonicalizes a phone number to E.164 when it parses; raw
// input is kept otherwise (it already passed validation or was empty).
func formatPhone(raw string) string {
	if raw == "" {
		return ""
	}
	num, err := phonenumbers.Parse(raw, "US")
	if err != nil {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
