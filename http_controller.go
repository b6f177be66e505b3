package userdesk

import (
	"errors"
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-repository-bun"

	"github.com/userdesk/go-userdesk/datatable"
)

// AuthControllerRoutes holds the route paths the controller registers.
type AuthControllerRoutes struct {
	Login                string
	Logout               string
	SendRegistrationCode string
	Verify               string
	CreateUser           string
	UsersAPI             string
	UsersPage            string
}

// AuthController serves authentication, registration and user management
// endpoints.
type AuthController struct {
	Debug    bool
	Logger   Logger
	Repo     RepositoryManager
	Sessions SessionService
	Mailer   Mailer
	Config   VerificationConfig
	Routes   *AuthControllerRoutes
}

// AuthControllerOption configures the controller.
type AuthControllerOption func(*AuthController) *AuthController

// WithControllerLogger sets the controller logger.
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerDebug toggles payload dumps on authentication routes.
func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

// WithVerificationConfig sets the registration code TTL and reissue policy.
func WithVerificationConfig(cfg VerificationConfig) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

// NewAuthController builds the controller. Repo, Sessions and Mailer are
// required.
func NewAuthController(repo RepositoryManager, sessions SessionService, mailer Mailer, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:   defLogger{},
		Repo:     repo,
		Sessions: sessions,
		Mailer:   mailer,
		Routes: &AuthControllerRoutes{
			Login:                "/api/auth/login",
			Logout:               "/api/auth/logout",
			SendRegistrationCode: "/api/auth/register/send-registration-code",
			Verify:               "/api/auth/register/verify",
			CreateUser:           "/api/auth/create-user",
			UsersAPI:             "/api/users",
			UsersPage:            "/users",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Sessions == nil {
		panic("Missing SessionService in auth controller...")
	}

	if c.Mailer == nil {
		panic("Missing Mailer in auth controller...")
	}

	return c
}

// RegisterRoutes mounts every controller route on the app. Session-aware
// routes get the session middleware; admin routes additionally require an
// authenticated root user.
func (a *AuthController) RegisterRoutes(app *fiber.App) {
	session := NewSessionMiddleware(a.Sessions)

	app.Post(a.Routes.Login, a.LoginPost).Name("login.post")
	app.Get(a.Routes.Logout, session, a.Logout).Name("logout.get")
	app.Post(a.Routes.SendRegistrationCode, a.SendRegistrationCode).Name("register.send-code")
	app.Post(a.Routes.Verify, a.Verify).Name("register.verify")
	app.Post(a.Routes.CreateUser, session, RequireAuth, RequireRoot, a.CreateUser).Name("users.create")
	app.Get(a.Routes.UsersAPI, session, RequireAuth, a.UsersIndex).Name("users.index")
	app.Get(a.Routes.UsersPage, session, RequireAuth, a.UsersPage).Name("users.page")
}

// LoginRequest payload
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginPost authenticates a user. Unknown username, non-active account and
// wrong password all fail with the same message and status.
func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload: %s", err)
		return ErrInvalidCredentials
	}

	if err := payload.Validate(); err != nil {
		return ErrInvalidCredentials
	}

	if a.Debug {
		a.Logger.Debug("login attempt: %s", print.MaybePrettyJSON(map[string]string{
			"username": payload.Username,
		}))
	}

	user, err := a.Repo.Users().GetByNormalizedUsername(c.UserContext(), NormalizeUsername(payload.Username))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrInvalidCredentials
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user")
	}

	if !user.IsActive() {
		return ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(payload.Password, user.HashedPassword); err != nil {
		return ErrInvalidCredentials
	}

	session, err := a.Sessions.CreateSession(c.UserContext(), user.ID)
	if err != nil {
		return err
	}

	cookie := a.Sessions.CreateSessionCookie(session.ID)
	c.Cookie(&cookie)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user": user,
	})
}

// Logout terminates the current session. Requests without a session cookie
// are bounced to the login page.
func (a *AuthController) Logout(c *fiber.Ctx) error {
	session, ok := SessionFromContext(c.UserContext())
	if !ok || session == nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	if err := a.Sessions.InvalidateSession(c.UserContext(), session.ID); err != nil {
		return err
	}

	cookie := a.Sessions.CreateBlankSessionCookie()
	c.Cookie(&cookie)

	return c.Redirect("/", fiber.StatusSeeOther)
}

// SendRegistrationCode starts self-service registration by emailing a code.
func (a *AuthController) SendRegistrationCode(c *fiber.Ctx) error {
	payload := new(SendRegistrationCodeMessage)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("send code parse payload: %s", err)
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest)
	}

	handler := NewSendRegistrationCodeHandler(a.Repo, a.Mailer).
		WithLogger(a.Logger).
		WithConfig(a.Config)

	if err := handler.Execute(c.UserContext(), *payload); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{})
}

// Verify finalizes registration with the emailed code and logs the user in.
func (a *AuthController) Verify(c *fiber.Ctx) error {
	payload := new(VerifyRegistrationMessage)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("verify parse payload: %s", err)
		return ErrVerificationFailed
	}

	var verified *User
	payload.OnVerified = func(user *User) {
		verified = user
	}

	handler := NewVerifyRegistrationHandler(a.Repo).WithLogger(a.Logger)
	if err := handler.Execute(c.UserContext(), *payload); err != nil {
		return err
	}

	session, err := a.Sessions.CreateSession(c.UserContext(), verified.ID)
	if err != nil {
		return err
	}

	cookie := a.Sessions.CreateSessionCookie(session.ID)
	c.Cookie(&cookie)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user": verified,
	})
}

// CreateUser provisions an account on behalf of the authenticated root user.
func (a *AuthController) CreateUser(c *fiber.Ctx) error {
	payload := new(CreateUserMessage)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("create user parse payload: %s", err)
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest)
	}

	var created *User
	payload.OnCreated = func(user *User) {
		created = user
	}

	handler := NewCreateUserHandler(a.Repo).WithLogger(a.Logger)
	if err := handler.Execute(c.UserContext(), *payload); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user": created,
	})
}

// UsersIndex returns one page of the user listing as JSON.
func (a *AuthController) UsersIndex(c *fiber.Ctx) error {
	state := datatable.ParseState(queryValues(c), "status", "role")

	page, err := a.Repo.Users().ListPage(c.UserContext(), state)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list users")
	}

	return c.Status(fiber.StatusOK).JSON(page)
}

// userTableRow carries one listing row plus the search-highlighted cells the
// template renders with <mark> tags.
type userTableRow struct {
	User     *User
	Username []datatable.Segment
	Fullname []datatable.Segment
	Email    []datatable.Segment
}

func highlightUserRows(items []*User, query string) []userTableRow {
	rows := make([]userTableRow, 0, len(items))
	for _, user := range items {
		rows = append(rows, userTableRow{
			User:     user,
			Username: datatable.Highlight(user.Username, query),
			Fullname: datatable.Highlight(user.Fullname, query),
			Email:    datatable.Highlight(user.Email, query),
		})
	}
	return rows
}

// UsersPage renders the server side user table.
func (a *AuthController) UsersPage(c *fiber.Ctx) error {
	state := datatable.ParseState(queryValues(c), "status", "role")

	page, err := a.Repo.Users().ListPage(c.UserContext(), state)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list users")
	}

	user, _ := UserFromContext(c.UserContext())

	return c.Render("users", fiber.Map{
		"viewer":   user,
		"page":     page,
		"rows":     highlightUserRows(page.Items, state.Query),
		"state":    state,
		"statuses": AllStatuses(),
		"roles":    AllRoles(),
	})
}

// ErrorHandler is the fiber error handler for controller routes: rich errors
// map to their status and message, everything else is a 500.
func ErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiberErr.Message,
			})
		}

		status := HTTPStatusFor(err)
		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed: %s", err)
		}

		return c.Status(status).JSON(fiber.Map{
			"error": ErrorMessageFor(err),
		})
	}
}

func queryValues(c *fiber.Ctx) url.Values {
	values := url.Values{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})
	return values
}
