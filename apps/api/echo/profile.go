package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/teacher"
)

type profileApi struct {
	svc      *teacher.Service
	validate *validator.Validate
}

func registerProfileAPI(g *echo.Group, deps ServerDeps) {
	api := profileApi{svc: deps.Teachers, validate: deps.Validate}

	g.GET("", api.retrieve)
	g.PUT("", api.update)
	g.POST("/photo", api.uploadPhoto)
}

func (api *profileApi) retrieve(ctx echo.Context) error {
	p := contextPrincipal(ctx)
	profile, err := api.svc.Get(ctx.Request().Context(), p.UID)
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	if profile.Email == "" {
		profile.Email = p.Email
	}
	return ctx.JSON(http.StatusOK, profile)
}

func (api *profileApi) update(ctx echo.Context) error {
	var data teacher.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	profile, err := api.svc.Save(ctx.Request().Context(), contextPrincipal(ctx).UID, data)
	if err != nil {
		return errors.Wrap(err, "saving profile")
	}
	return ctx.JSON(http.StatusOK, profile)
}

// uploadPhoto stores the uploaded image (form field "photo") and links it to the profile.
func (api *profileApi) uploadPhoto(ctx echo.Context) error {
	fh, err := ctx.FormFile("photo")
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "photo", Error: "this field is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()

	profile, err := api.svc.UpdatePhoto(ctx.Request().Context(), contextPrincipal(ctx).UID, f, fh.Header.Get(echo.HeaderContentType))
	if err != nil {
		return errors.Wrap(err, "updating profile photo")
	}
	return ctx.JSON(http.StatusOK, profile)
}
