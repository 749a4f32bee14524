package identity

import (
	"fmt"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// UserControllerRoutes collects the route paths so embedders can remount the
// API under a different prefix.
type UserControllerRoutes struct {
	Base        string
	Register    string
	Login       string
	AccessToken string
	Activate    string
	NewPassword string
	Status      string
	Health      string
	Profile     string
	Attributes  string
}

// UserController exposes the account JSON API.
type UserController struct {
	Debug         bool
	Logger        Logger
	Repo          RepositoryManager
	Auther        Authenticator
	Mailer        Mailer
	Routes        *UserControllerRoutes
	ErrorHandler  router.ErrorHandler
	ContextKey    string
	ActivationURL string
	// RequireConfirmation gates registration behind the email activation
	// flow. When false new accounts are confirmed immediately.
	RequireConfirmation bool
}

type UserControllerOption func(*UserController) *UserController

func WithControllerLogger(logger Logger) UserControllerOption {
	return func(c *UserController) *UserController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuthenticator(auther Authenticator) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Auther = auther
		return c
	}
}

func WithControllerMailer(mailer Mailer) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Mailer = mailer
		return c
	}
}

func WithControllerErrorHandler(handler router.ErrorHandler) UserControllerOption {
	return func(c *UserController) *UserController {
		if handler != nil {
			c.ErrorHandler = handler
		}
		return c
	}
}

func WithControllerContextKey(key string) UserControllerOption {
	return func(c *UserController) *UserController {
		if key != "" {
			c.ContextKey = key
		}
		return c
	}
}

func WithActivationURL(url string) UserControllerOption {
	return func(c *UserController) *UserController {
		c.ActivationURL = url
		return c
	}
}

func WithRequireConfirmation(require bool) UserControllerOption {
	return func(c *UserController) *UserController {
		c.RequireConfirmation = require
		return c
	}
}

func NewUserController(opts ...UserControllerOption) *UserController {
	c := &UserController{
		Logger:     defLogger{},
		ContextKey: "payload",
		Routes: &UserControllerRoutes{
			Base:        "/users",
			Register:    "/users/register",
			Login:       "/users/login",
			AccessToken: "/users/accessToken",
			Activate:    "/users/activate",
			NewPassword: "/users/newPassword",
			Status:      "/users/status",
			Health:      "/users/health",
			Profile:     "/users/profile",
			Attributes:  "/users/attributes",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = JSONErrorHandler(c.Logger)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in user controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in user controller...")
	}

	return c
}

// RegisterUserRoutes mounts the account API on the given router.
func RegisterUserRoutes[T any](app router.Router[T], opts ...UserControllerOption) *UserController {
	controller := NewUserController(opts...)

	app.Post(controller.Routes.Register, controller.Register).SetName("users.register")
	app.Post(controller.Routes.Login, controller.Login).SetName("users.login")
	app.Post(controller.Routes.AccessToken, controller.AccessToken).SetName("users.access-token")
	app.Get(controller.Routes.Activate, controller.Activate).SetName("users.activate")
	app.Post(controller.Routes.NewPassword, controller.NewPassword).SetName("users.new-password")
	app.Get(controller.Routes.Status, controller.Status).SetName("users.status")
	app.Get(controller.Routes.Health, controller.Health).SetName("users.health")

	app.Get(controller.Routes.Profile, controller.ProfileShow).SetName("users.profile.get")
	app.Post(controller.Routes.Profile, controller.ProfileUpdate).SetName("users.profile.post")

	app.Get(controller.Routes.Attributes, controller.AttributesList).SetName("users.attributes.get")
	app.Post(controller.Routes.Attributes, controller.AttributeSet).SetName("users.attributes.post")
	app.Delete(controller.Routes.Attributes, controller.AttributeDelete).SetName("users.attributes.delete")

	app.Get(controller.Routes.Base, controller.List).SetName("users.list")
	app.Patch(controller.Routes.Base+"/:userID", controller.AdminUpdate).SetName("users.patch")
	app.Delete(controller.Routes.Base+"/:userID", controller.AdminDelete).SetName("users.delete")

	return controller
}

// DefaultRestrictions is the startup restriction table for the account API.
// Rejections answer with the evaluator's opaque status so restricted routes
// are indistinguishable from missing ones.
func DefaultRestrictions() []Restriction {
	return []Restriction{
		Restrict("GET", "/users", LevelAdmin),
		Restrict("PATCH", "/users/:userID(int)", LevelAdmin).WithSubjectParam("userID"),
		Restrict("DELETE", "/users/:userID(int)", LevelAdmin).WithSubjectParam("userID"),
		Restrict("POST", "/users/profile", LevelAdmin),
	}
}

// RegistrationCreatePayload is the registration body
type RegistrationCreatePayload struct {
	FirstName       string `json:"firstname"`
	LastName        string `json:"lastname"`
	Language        string `json:"language"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Language, validation.Length(2, 10)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *UserController) Register(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorResponse{
			Status:     responseFailure,
			Message:    "invalid registration payload",
			Validation: FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=======================")
	}

	registerUser := NewRegisterUserHandler(a.Repo, a.Mailer, a.ActivationURL)
	user, err := registerUser.Execute(ctx.Context(), RegisterUserMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Language:  payload.Language,
		Email:     payload.Email,
		Password:  payload.Password,
		Level:     LevelStandard,
		Confirmed: !a.RequireConfirmation,
	})
	if err != nil {
		a.Logger.Error("register user: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status": responseSuccess,
		"user":   NewUserResponse(user, nil),
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *UserController) Login(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorResponse{
			Status:     responseFailure,
			Message:    "invalid login payload",
			Validation: FormatValidationErrorToMap(err),
		})
	}

	result, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Error("login: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status":       responseSuccess,
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
		"user":         NewUserResponse(result.User, nil),
	})
}

// AccessTokenRequest carries the refresh token presented for renewal.
type AccessTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r AccessTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

func (a *UserController) AccessToken(ctx router.Context) error {
	payload := new(AccessTokenRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorResponse{
			Status:     responseFailure,
			Message:    "invalid token payload",
			Validation: FormatValidationErrorToMap(err),
		})
	}

	accessToken, _, err := a.Auther.Refresh(ctx.Context(), payload.RefreshToken)
	if err != nil {
		a.Logger.Error("access token refresh: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status":      responseSuccess,
		"accessToken": accessToken,
	})
}

func (a *UserController) Activate(ctx router.Context) error {
	code := ctx.Query("code")

	activate := NewActivateAccountHandler(a.Repo)
	if _, err := activate.Execute(ctx.Context(), ActivateAccountMessage{Code: code}); err != nil {
		a.Logger.Error("activate account: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status": responseSuccess,
	})
}

// NewPasswordRequest names the account a replacement password is mailed to.
type NewPasswordRequest struct {
	Email string `json:"email"`
}

func (r NewPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *UserController) NewPassword(ctx router.Context) error {
	payload := new(NewPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorResponse{
			Status:     responseFailure,
			Message:    "invalid payload",
			Validation: FormatValidationErrorToMap(err),
		})
	}

	newPassword := NewNewPasswordHandler(a.Repo, nil, a.Mailer)
	if err := newPassword.Execute(ctx.Context(), NewPasswordMessage{Email: payload.Email}); err != nil {
		a.Logger.Error("new password: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status": responseSuccess,
	})
}

// Status echoes the identity baked into the presented access token. It never
// touches the store, which makes it a cheap session liveness probe.
func (a *UserController) Status(ctx router.Context) error {
	payload, ok := RouterPayload(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status": responseSuccess,
		"user": map[string]any{
			"id":               payload.UID,
			"email":            payload.EmailAddress,
			"firstname":        payload.FirstName,
			"lastname":         payload.LastName,
			"language":         payload.Language,
			"permission_level": payload.Level,
			"role":             Levels.Resolve(payload.Level),
		},
	})
}

func (a *UserController) Health(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, map[string]any{
		"status": responseSuccess,
	})
}

func (a *UserController) ProfileShow(ctx router.Context) error {
	payload, ok := RouterPayload(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	user, err := a.Repo.Users().GetByID(ctx.Context(), payload.UID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	attributes, err := a.Repo.Attributes().ListByUser(ctx.Context(), user.ID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status": responseSuccess,
		"user":   NewUserResponse(user, attributes),
	})
}

// ProfileUpdatePayload is the self-service profile patch. Email, level and
// confirmation are deliberately absent; those change through the admin API.
type ProfileUpdatePayload struct {
	FirstName *string `json:"firstname"`
	LastName  *string `json:"lastname"`
	Language  *string `json:"language"`
}

func (a *UserController) ProfileUpdate(ctx router.Context) error {
	payload, ok := RouterPayload(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	body := new(ProfileUpdatePayload)
	if err := ctx.Bind(body); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse request body"))
	}

	user, err := a.Repo.Users().GetByID(ctx.Context(), payload.UID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	UserUpdate{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Language:  body.Language,
	}.Apply(user)

	if user, err = a.Repo.Users().Update(ctx.Context(), user); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status": responseSuccess,
		"user":   NewUserResponse(user, nil),
	})
}

func (a *UserController) AttributesList(ctx router.Context) error {
	payload, ok := RouterPayload(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	attributes, err := a.Repo.Attributes().ListByUser(ctx.Context(), payload.UID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status":     responseSuccess,
		"attributes": attributes,
	})
}

// AttributeSetPayload upserts a profile attribute by key.
type AttributeSetPayload struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

func (r AttributeSetPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Key, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Text, validation.Required),
	)
}

func (a *UserController) AttributeSet(ctx router.Context) error {
	payload, ok := RouterPayload(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	body := new(AttributeSetPayload)
	if err := ctx.Bind(body); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse request body"))
	}

	if err := body.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorResponse{
			Status:     responseFailure,
			Message:    "invalid attribute payload",
			Validation: FormatValidationErrorToMap(err),
		})
	}

	attribute, err := a.Repo.Attributes().Set(ctx.Context(), payload.UID, body.Key, body.Text)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status":    responseSuccess,
		"attribute": attribute,
	})
}

func (a *UserController) AttributeDelete(ctx router.Context) error {
	payload, ok := RouterPayload(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	key := ctx.Query("key")
	if key == "" {
		return a.ErrorHandler(ctx, goerrors.New("attribute key is required", goerrors.CategoryBadInput).
			WithTextCode("KEY_REQUIRED"))
	}

	if err := a.Repo.Attributes().DeleteByUserAndKey(ctx.Context(), payload.UID, key); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status": responseSuccess,
	})
}

func (a *UserController) List(ctx router.Context) error {
	users, err := a.Repo.Users().List(ctx.Context())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	out := make([]*UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, NewUserResponse(user, nil))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status": responseSuccess,
		"users":  out,
	})
}

func (a *UserController) AdminUpdate(ctx router.Context) error {
	id, err := a.userIDParam(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	body := new(UserUpdate)
	if err := ctx.Bind(body); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse request body"))
	}

	user, err := a.Repo.Users().GetByID(ctx.Context(), id)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	body.Apply(user)

	if user, err = a.Repo.Users().Update(ctx.Context(), user); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status": responseSuccess,
		"user":   NewUserResponse(user, nil),
	})
}

func (a *UserController) AdminDelete(ctx router.Context) error {
	id, err := a.userIDParam(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := a.Repo.Users().DeleteWithAttributes(ctx.Context(), id); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status": responseSuccess,
	})
}

func (a *UserController) userIDParam(ctx router.Context) (int64, error) {
	raw := ctx.Param("userID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, goerrors.New("invalid user id", goerrors.CategoryBadInput).
			WithTextCode("INVALID_USER_ID").
			WithMetadata(map[string]any{"user_id": raw})
	}
	return id, nil
}
