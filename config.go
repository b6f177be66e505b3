package userdesk

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// Config carries every knob of the application, loaded from the environment.
type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"file:userdesk.db?cache=shared&_pragma=foreign_keys(1)"`

	Session      SessionConfig      `envPrefix:"SESSION_"`
	Verification VerificationConfig `envPrefix:"VERIFICATION_"`
	SMTP         SMTPConfig         `envPrefix:"SMTP_"`
	Root         RootUserConfig     `envPrefix:"ROOT_"`
}

// SessionConfig controls the session cookie lifecycle.
type SessionConfig struct {
	CookieName string        `env:"COOKIE_NAME" envDefault:"auth_session"`
	MaxAge     time.Duration `env:"MAX_AGE" envDefault:"24h"`
}

// VerificationConfig controls emailed registration codes.
type VerificationConfig struct {
	TTL time.Duration `env:"TTL" envDefault:"10m"`
	// KeepPriorCodes preserves earlier unconsumed codes when a new one is
	// issued. Default is to replace them, so "the" outstanding code is
	// always the most recently sent one.
	KeepPriorCodes bool `env:"KEEP_PRIOR_CODES" envDefault:"false"`
}

// SMTPConfig configures the outbound mail channel.
type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

// RootUserConfig seeds the initial administrative account.
type RootUserConfig struct {
	Username string `env:"USERNAME" envDefault:"root"`
	Fullname string `env:"FULLNAME" envDefault:"Root User"`
	Email    string `env:"EMAIL"`
	Password string `env:"PASSWORD"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to parse environment configuration")
	}
	return &cfg, nil
}

// IsProduction reports whether we run under the production environment. It
// gates the Secure attribute of session cookies.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.SMTP.Host == "" {
		return errors.New("missing SMTP_HOST environment variable", errors.CategoryValidation)
	}
	if c.SMTP.From == "" {
		return errors.New("missing SMTP_FROM environment variable", errors.CategoryValidation)
	}
	return nil
}
