package userdesk

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// SeedRootUser ensures the configured administrative account exists. An
// existing account is left untouched, so password rotation happens through
// the application, not the environment.
func SeedRootUser(ctx context.Context, repo RepositoryManager, cfg RootUserConfig, logger Logger) error {
	if logger == nil {
		logger = defLogger{}
	}

	if cfg.Username == "" || cfg.Password == "" {
		logger.Debug("root user seed skipped, no credentials configured")
		return nil
	}

	normalized := NormalizeUsername(cfg.Username)

	existing, err := repo.Users().GetByNormalizedUsername(ctx, normalized)
	if err != nil && !repository.IsRecordNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up root user")
	}

	if existing != nil {
		return nil
	}

	hash, err := HashPassword(cfg.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash root password")
	}

	user := &User{
		Username:           cfg.Username,
		NormalizedUsername: normalized,
		Fullname:           cfg.Fullname,
		Email:              cfg.Email,
		EmailVerified:      true,
		Status:             UserStatusActive,
		Role:               RoleRoot,
		AgreedToTerms:      true,
		HashedPassword:     hash,
	}

	if _, err := repo.Users().Create(ctx, user); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create root user")
	}

	logger.Info("seeded root user %s", cfg.Username)

	return nil
}
