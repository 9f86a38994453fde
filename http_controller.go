package auth

import (
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// invalidCredentialsText is the single message every credential failure
// maps to. Unknown login, wrong password, and malformed payload are
// indistinguishable to callers.
const invalidCredentialsText = "Invalid username or password."

const loginForm = `<!DOCTYPE html>
<html>
<body>
<form method="post" action="/login">
	<input type="text" name="username" placeholder="username">
	<input type="password" name="password" placeholder="password">
	<button type="submit">Sign in</button>
</form>
</body>
</html>`

// AccountController exposes the authentication and account management
// endpoints over fiber.
type AccountController struct {
	Auther   *Auther
	Sessions *SessionStore
	Repo     RepositoryManager
	Avatars  *AvatarStore
	Logger   Logger
}

type AccountControllerOption func(*AccountController) *AccountController

func NewAccountController(opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in account controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in account controller...")
	}

	if c.Sessions == nil {
		panic("Missing SessionStore in account controller...")
	}

	if c.Avatars == nil {
		panic("Missing AvatarStore in account controller...")
	}

	return c
}

func WithControllerLogger(logger Logger) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Logger = logger
		return c
	}
}

func WithControllerAuther(auther *Auther) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Auther = auther
		return c
	}
}

func WithControllerSessions(sessions *SessionStore) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Sessions = sessions
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Repo = repo
		return c
	}
}

func WithControllerAvatars(avatars *AvatarStore) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Avatars = avatars
		return c
	}
}

func RegisterAccountRoutes(app *fiber.App, controller *AccountController) {
	app.Post("/token", controller.TokenPost)

	app.Get("/login", controller.LoginShow)
	app.Post("/login", controller.LoginPost)
	app.Post("/logoff", controller.LogoffPost)

	app.Get("/persons", controller.PersonList)
	app.Post("/persons", controller.PersonCreate)
	app.Get("/persons/:id", controller.PersonShow)
	app.Post("/persons/:id", controller.PersonUpdate)
	app.Post("/persons/:id/delete", controller.PersonDelete)

	app.Get("/avatar", controller.AvatarShow)

	app.Get("/addresses", controller.AddressList)
	app.Post("/addresses", controller.AddressCreate)
	app.Post("/addresses/:id/delete", controller.AddressDelete)
}

// TokenRequest payload
type TokenRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r TokenRequest) GetIdentifier() string {
	return r.Username
}

// GetPassword will return the password
func (r TokenRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r TokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// TokenPost issues a bearer token for valid credentials. Every failure
// mode produces the same response.
func (a *AccountController) TokenPost(c *fiber.Ctx) error {
	payload := new(TokenRequest)

	if err := c.BodyParser(payload); err != nil {
		return a.invalidCredentials(c)
	}

	if err := payload.Validate(); err != nil {
		return a.invalidCredentials(c)
	}

	token, err := a.Auther.Login(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		a.Logger.Info("token request rejected for %q", payload.Username)
		return a.invalidCredentials(c)
	}

	return c.JSON(fiber.Map{
		"access_token": token,
		"username":     payload.Username,
	})
}

func (a *AccountController) invalidCredentials(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"errorText": invalidCredentialsText,
	})
}

func (a *AccountController) LoginShow(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(loginForm)
}

// LoginPost starts a server side session for valid credentials.
func (a *AccountController) LoginPost(c *fiber.Ctx) error {
	payload := new(TokenRequest)

	if err := c.BodyParser(payload); err != nil {
		return a.loginFailed(c)
	}

	if err := payload.Validate(); err != nil {
		return a.loginFailed(c)
	}

	identity, err := a.Auther.Authenticate(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return a.loginFailed(c)
	}

	if err := a.Sessions.Login(c, identity); err != nil {
		a.Logger.Error("login failed to persist session: %s", err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

func (a *AccountController) loginFailed(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(fiber.StatusUnauthorized).SendString(loginForm)
}

// LogoffPost ends the current session. An anonymous logoff is rejected,
// an already expired session is not.
func (a *AccountController) LogoffPost(c *fiber.Ctx) error {
	identity, ok := a.currentIdentity(c)
	if !ok || identity == nil {
		return a.renderAuthError(c, ErrUnauthenticated)
	}

	if err := a.Sessions.Logout(c); err != nil {
		a.Logger.Error("logoff failed to destroy session: %s", err)
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

// PersonPayload is the account create/update form payload.
type PersonPayload struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
	Role     string `form:"role" json:"role"`
}

// Validate will validate the payload
func (r PersonPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Role, validation.Required),
	)
}

func (a *AccountController) PersonList(c *fiber.Ctx) error {
	identity, _ := a.currentIdentity(c)
	if err := RequireRole(identity, RoleAdmin); err != nil {
		return a.renderAuthError(c, err)
	}

	records, err := a.Repo.Persons().List(c.UserContext())
	if err != nil {
		return a.renderAuthError(c, err)
	}

	return c.JSON(records)
}

func (a *AccountController) PersonCreate(c *fiber.Ctx) error {
	identity, _ := a.currentIdentity(c)
	if err := RequireRole(identity, RoleAdmin); err != nil {
		return a.renderAuthError(c, err)
	}

	payload := new(PersonPayload)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errorText": "failed to parse payload"})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errorText": err.Error()})
	}

	msg := RegisterPersonMessage{
		Username: payload.Username,
		Password: payload.Password,
		Role:     UserRole(payload.Role),
	}

	avatar, cleanup, err := a.avatarUpload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errorText": "failed to read avatar"})
	}
	defer cleanup()
	msg.Avatar = avatar

	handler := NewRegisterPersonHandler(a.Repo, a.Avatars)
	id, err := handler.Execute(c.UserContext(), msg)
	if err != nil {
		return a.renderAuthError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (a *AccountController) PersonShow(c *fiber.Ctx) error {
	identity, _ := a.currentIdentity(c)
	if err := RequireRole(identity, RoleAdmin); err != nil {
		return a.renderAuthError(c, err)
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return a.renderAuthError(c, ErrIdentityNotFound)
	}

	person, err := a.Repo.Persons().GetByID(c.UserContext(), id)
	if err != nil {
		return a.renderAuthError(c, err)
	}

	return c.JSON(person)
}

func (a *AccountController) PersonUpdate(c *fiber.Ctx) error {
	identity, _ := a.currentIdentity(c)
	if err := RequireRole(identity, RoleAdmin); err != nil {
		return a.renderAuthError(c, err)
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return a.renderAuthError(c, ErrIdentityNotFound)
	}

	payload := new(PersonPayload)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errorText": "failed to parse payload"})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errorText": err.Error()})
	}

	msg := UpdatePersonMessage{
		ID:          id,
		Username:    payload.Username,
		NewPassword: payload.Password,
		Role:        UserRole(payload.Role),
	}

	avatar, cleanup, err := a.avatarUpload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errorText": "failed to read avatar"})
	}
	defer cleanup()
	msg.Avatar = avatar

	handler := NewUpdatePersonHandler(a.Repo, a.Avatars).WithLogger(a.Logger)
	if err := handler.Execute(c.UserContext(), msg); err != nil {
		return a.renderAuthError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (a *AccountController) PersonDelete(c *fiber.Ctx) error {
	identity, _ := a.currentIdentity(c)
	if err := RequireRole(identity, RoleAdmin); err != nil {
		return a.renderAuthError(c, err)
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return a.renderAuthError(c, ErrIdentityNotFound)
	}

	handler := NewDeletePersonHandler(a.Repo, a.Avatars).WithLogger(a.Logger)
	if err := handler.Execute(c.UserContext(), DeletePersonMessage{ID: id}); err != nil {
		return a.renderAuthError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// AvatarShow serves the avatar for the named account. Any authenticated
// caller may fetch any avatar; a missing account or file serves the
// default image.
func (a *AccountController) AvatarShow(c *fiber.Ctx) error {
	identity, _ := a.currentIdentity(c)
	if err := RequireAuthenticated(identity); err != nil {
		return a.renderAuthError(c, err)
	}

	var person *Person
	if username := c.Query("username"); username != "" {
		record, err := a.Repo.Persons().GetByLogin(c.UserContext(), username)
		if err != nil && !goerrors.IsNotFound(err) {
			return a.renderAuthError(c, err)
		}
		person = record
	}

	data, contentType := a.Avatars.Read(person)
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}

// AddressPayload is the listing creation form payload.
type AddressPayload struct {
	Addr        string `form:"addr" json:"addr"`
	Description string `form:"description" json:"description"`
	Cost        int64  `form:"cost" json:"cost"`
	Rooms       int    `form:"rooms" json:"rooms"`
}

// Validate will validate the payload
func (r AddressPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Addr, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.Cost, validation.Min(0)),
		validation.Field(&r.Rooms, validation.Min(0)),
	)
}

// AddressList returns the caller's own listings.
func (a *AccountController) AddressList(c *fiber.Ctx) error {
	identity, _ := a.currentIdentity(c)
	if err := RequireAuthenticated(identity); err != nil {
		return a.renderAuthError(c, err)
	}

	ownerID, err := strconv.ParseInt(identity.ID(), 10, 64)
	if err != nil {
		return a.renderAuthError(c, ErrForbidden)
	}

	records, err := a.Repo.Addresses().ListByOwner(c.UserContext(), ownerID)
	if err != nil {
		return a.renderAuthError(c, err)
	}

	return c.JSON(records)
}

// AddressCreate creates a listing owned by the caller. The owner comes
// from the verified identity, never from the payload.
func (a *AccountController) AddressCreate(c *fiber.Ctx) error {
	identity, _ := a.currentIdentity(c)
	if err := RequireAuthenticated(identity); err != nil {
		return a.renderAuthError(c, err)
	}

	ownerID, err := strconv.ParseInt(identity.ID(), 10, 64)
	if err != nil {
		return a.renderAuthError(c, ErrForbidden)
	}

	payload := new(AddressPayload)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errorText": "failed to parse payload"})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errorText": err.Error()})
	}

	address := &Address{
		Addr:        payload.Addr,
		Description: payload.Description,
		Cost:        payload.Cost,
		Rooms:       payload.Rooms,
		OwnerID:     ownerID,
	}

	if err := a.Repo.Addresses().Create(c.UserContext(), address); err != nil {
		return a.renderAuthError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(address)
}

// AddressDelete removes a listing the caller owns. The ownership check
// runs after the load, so a missing listing is a 404 and someone else's
// listing is a 403.
func (a *AccountController) AddressDelete(c *fiber.Ctx) error {
	identity, _ := a.currentIdentity(c)
	if err := RequireAuthenticated(identity); err != nil {
		return a.renderAuthError(c, err)
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return a.renderAuthError(c, ErrRecordNotFound)
	}

	address, err := a.Repo.Addresses().GetByID(c.UserContext(), id)
	if err != nil {
		return a.renderAuthError(c, err)
	}

	if err := RequireOwner(identity, address); err != nil {
		return a.renderAuthError(c, err)
	}

	if err := a.Repo.Addresses().Delete(c.UserContext(), id); err != nil {
		return a.renderAuthError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// currentIdentity resolves the caller from, in order, middleware locals,
// a bearer token, and the server side session.
func (a *AccountController) currentIdentity(c *fiber.Ctx) (Identity, bool) {
	if identity, ok := IdentityFromLocals(c, "user"); ok {
		return identity, true
	}

	if token := bearerToken(c); token != "" {
		claims, err := a.Auther.TokenService().Validate(token)
		if err == nil {
			return IdentityFromClaims(claims), true
		}
		a.Logger.Debug("bearer token rejected: %s", err)
	}

	return a.Sessions.Current(c)
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > 7 && header[:7] == "Bearer " {
		return header[7:]
	}
	return ""
}

// avatarUpload reads an optional multipart avatar file. The cleanup
// closes the underlying file and is safe to call unconditionally.
func (a *AccountController) avatarUpload(c *fiber.Ctx) (*AvatarUpload, func(), error) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		// No multipart body or no avatar part, both fine.
		return nil, func() {}, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}

	return &AvatarUpload{FileName: fh.Filename, Content: f}, func() { f.Close() }, nil
}

func (a *AccountController) renderAuthError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Code != 0 {
		return c.Status(richErr.Code).JSON(fiber.Map{"errorText": richErr.Message})
	}

	a.Logger.Error("unhandled controller error: %s", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"errorText": "internal error"})
}
