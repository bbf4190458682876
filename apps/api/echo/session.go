package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/session"
	"github.com/trezcool/gradebook/core/user"
	"github.com/trezcool/gradebook/services/metrics"
)

type authApi struct {
	conf        *core.Config
	logger      core.Logger
	auth        session.Authority
	revocations Revocations
	users       *user.Service
	validate    *validator.Validate
}

func registerAuthAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := authApi{
		conf:        deps.Conf,
		logger:      deps.Logger,
		auth:        deps.Authority,
		revocations: deps.Revocations,
		users:       deps.Users,
		validate:    deps.Validate,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	// TODO: rate limit `/login` & `/password-reset` per client IP
	ag.POST("/login", api.login)
	ag.POST("/password-reset", api.resetPassword)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	tg := ag.Group("", authed...)
	tg.POST("/token-refresh", api.refreshToken)
	tg.POST("/logout", api.logout)
	tg.POST("/password-change", api.changePassword)
}

type (
	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginResponse struct {
		Token string            `json:"token"`
		User  session.Principal `json:"user"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}

func (api *authApi) issueToken(ctx echo.Context, p session.Principal, origIat ...int64) error {
	token, err := GenerateToken(api.conf, NewClaims(api.conf, p, origIat...))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: p})
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}

	p, err := session.SignIn(ctx.Request().Context(), api.auth, data.Email, data.Password)
	metrics.LoginAttempts.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return errors.Wrap(err, "signing in")
	}
	return api.issueToken(ctx, p)
}

func (api *authApi) revoke(ctx echo.Context, claims Claims) {
	if err := api.revocations.Revoke(ctx.Request().Context(), claims.Id, claims.ttl()); err != nil {
		api.logger.Warn("revoking token", err, claims.Principal())
	}
}

// logout always succeeds: sign out failures are only logged.
func (api *authApi) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	p := claims.Principal()
	if err = api.auth.SignOut(ctx.Request().Context(), p); err != nil {
		api.logger.Warn("signing out", err, p)
	}
	api.revoke(ctx, claims)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	// check if user is still active
	if api.users != nil {
		usr, err := api.users.GetByID(ctx.Request().Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return errUnauthorized
			}
			return errors.Wrap(err, "finding user by ID")
		}
		if !usr.IsActive {
			return errAccountDeactivated
		}
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(api.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return errRefreshExpired
	}

	api.revoke(ctx, claims)
	return api.issueToken(ctx, claims.Principal(), claims.OrigIssuedAt)
}

func (api *authApi) changePassword(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data session.PasswordChange
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordChange")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = session.ChangePassword(ctx.Request().Context(), api.auth, claims.Principal(), data); err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			return core.NewValidationError(err, core.FieldError{Field: "current_password", Error: "invalid password"})
		}
		return errors.Wrap(err, "changing password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been changed."})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := session.SendPasswordReset(ctx.Request().Context(), api.auth, data.Email); err != nil {
		// do not return errors to attackers
		api.logger.Error("requesting password reset", err)
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

// confirmPasswordReset only exists for local accounts; Firebase hosts its own reset page.
func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	if api.users == nil {
		return errHttpNotFound
	}

	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if _, err := api.users.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}
