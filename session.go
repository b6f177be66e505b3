package userdesk

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// SessionService manages the full lifecycle of database backed sessions: the
// opaque cookie value is the primary key of a row in the sessions table, so
// invalidating a session is deleting that row.
type SessionService interface {
	CreateSession(ctx context.Context, userID uuid.UUID) (*Session, error)
	// ValidateSession resolves a cookie value into the user it belongs to.
	// Unknown and expired ids both come back as (nil, nil, nil); expired
	// rows are deleted on the way out. The first successful validation of
	// a session flips its fresh flag off.
	ValidateSession(ctx context.Context, sessionID string) (*User, *Session, error)
	InvalidateSession(ctx context.Context, sessionID string) error
	InvalidateUserSessions(ctx context.Context, userID uuid.UUID) error
	CreateSessionCookie(sessionID string) fiber.Cookie
	CreateBlankSessionCookie() fiber.Cookie
}

type sessionService struct {
	repo       RepositoryManager
	logger     Logger
	cookieName string
	maxAge     time.Duration
	secure     bool
	now        func() time.Time
}

var _ SessionService = (*sessionService)(nil)

// NewSessionService builds the session manager. The secure flag controls the
// Secure attribute of issued cookies and should be on in production.
func NewSessionService(repo RepositoryManager, cfg SessionConfig, secure bool, logger Logger) SessionService {
	if logger == nil {
		logger = defLogger{}
	}

	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "auth_session"
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}

	return &sessionService{
		repo:       repo,
		logger:     logger,
		cookieName: cookieName,
		maxAge:     maxAge,
		secure:     secure,
		now:        time.Now,
	}
}

func (s *sessionService) CreateSession(ctx context.Context, userID uuid.UUID) (*Session, error) {
	id, err := NewSessionID()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to generate session id")
	}

	now := s.now()
	session := &Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.maxAge),
		Fresh:     true,
	}

	if err := s.repo.Sessions().Create(ctx, session); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist session")
	}

	return session, nil
}

func (s *sessionService) ValidateSession(ctx context.Context, sessionID string) (*User, *Session, error) {
	if sessionID == "" {
		return nil, nil, nil
	}

	session, err := s.repo.Sessions().GetWithUser(ctx, sessionID)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CategoryInternal, "failed to load session")
	}

	if session == nil || session.User == nil {
		return nil, nil, nil
	}

	if session.Expired(s.now()) {
		if err := s.repo.Sessions().Delete(ctx, session.ID); err != nil {
			s.logger.Error("failed to delete expired session: %s", err)
		}
		return nil, nil, nil
	}

	if session.Fresh {
		if err := s.repo.Sessions().MarkStale(ctx, session.ID); err != nil {
			return nil, nil, errors.Wrap(err, errors.CategoryInternal, "failed to mark session stale")
		}
		session.Fresh = false
	}

	return session.User, session, nil
}

func (s *sessionService) InvalidateSession(ctx context.Context, sessionID string) error {
	if err := s.repo.Sessions().Delete(ctx, sessionID); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete session")
	}
	return nil
}

func (s *sessionService) InvalidateUserSessions(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Sessions().DeleteByUser(ctx, userID); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete user sessions")
	}
	return nil
}

func (s *sessionService) CreateSessionCookie(sessionID string) fiber.Cookie {
	return fiber.Cookie{
		Name:     s.cookieName,
		Value:    sessionID,
		Path:     "/",
		Expires:  s.now().Add(s.maxAge),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}

// CreateBlankSessionCookie clears the session cookie on the client by setting
// an empty value that expired at the epoch.
func (s *sessionService) CreateBlankSessionCookie() fiber.Cookie {
	return fiber.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}
