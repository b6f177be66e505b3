package userdesk

import (
	"github.com/gofiber/fiber/v2"
)

// NewSessionMiddleware resolves the session cookie into a user. Requests
// without a valid session pass through unauthenticated; guards downstream
// decide whether that is acceptable.
func NewSessionMiddleware(sessions SessionService) fiber.Handler {
	cookieName := sessions.CreateBlankSessionCookie().Name

	return func(c *fiber.Ctx) error {
		token := c.Cookies(cookieName)
		if token == "" {
			return c.Next()
		}

		user, session, err := sessions.ValidateSession(c.UserContext(), token)
		if err != nil {
			return err
		}

		if user == nil || session == nil {
			// stale cookie, clear it
			cookie := sessions.CreateBlankSessionCookie()
			c.Cookie(&cookie)
			return c.Next()
		}

		c.Locals(LocalsUserKey, user)
		c.Locals(LocalsSessionKey, session)

		ctx := WithUser(c.UserContext(), user)
		ctx = WithSession(ctx, session)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// RequireAuth rejects requests that did not resolve to an authenticated
// user.
func RequireAuth(c *fiber.Ctx) error {
	if _, ok := UserFromContext(c.UserContext()); !ok {
		return ErrUnauthorized
	}
	return c.Next()
}

// RequireRoot rejects requests from non-root users. It assumes RequireAuth
// ran first.
func RequireRoot(c *fiber.Ctx) error {
	user, ok := UserFromContext(c.UserContext())
	if !ok {
		return ErrUnauthorized
	}

	if !user.IsRoot() {
		return ErrForbidden
	}

	return c.Next()
}
