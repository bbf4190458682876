package echoapi

import (
	"net/http"
	"net/url"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
	sheetsvc "github.com/trezcool/gradebook/services/sheets"
)

type studentApi struct {
	svc        *student.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerStudentAPI(g *echo.Group, deps ServerDeps) {
	api := studentApi{svc: deps.Students, validate: deps.Validate, translator: deps.Translator}

	g.GET("", api.query)
	g.POST("", api.create)
	g.POST("/import", api.importSheet)

	g.GET("/:bcn", api.retrieve)
	g.PUT("/:bcn", api.update)
	g.DELETE("/:bcn", api.destroy)
}

// pathParam returns the unescaped path parameter name.
func pathParam(ctx echo.Context, name string) string {
	v := ctx.Param(name)
	if uv, err := url.PathUnescape(v); err == nil {
		return uv
	}
	return v
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}

	students, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	st, err := api.svc.GetByBirthCert(ctx.Request().Context(), pathParam(ctx, "bcn"))
	if err != nil {
		return errors.Wrap(err, "finding student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := api.svc.Update(ctx.Request().Context(), pathParam(ctx, "bcn"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), pathParam(ctx, "bcn")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	ImportLineError struct {
		Line  int         `json:"line"`
		Error interface{} `json:"error"`
	}

	ImportResponse struct {
		Created []student.Student `json:"created"`
		Errors  []ImportLineError `json:"errors"`
	}
)

// importSheet creates the students listed in the uploaded workbook (form field "file").
func (api *studentApi) importSheet(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "file", Error: "this field is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()

	rows, err := sheetsvc.ReadStudents(f)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "file", Error: err.Error()})
	}

	report, err := api.svc.Import(ctx.Request().Context(), api.validate, rows)
	if err != nil {
		return errors.Wrap(err, "importing students")
	}

	res := ImportResponse{Created: report.Created, Errors: make([]ImportLineError, 0, len(report.Errors))}
	for _, ie := range report.Errors {
		res.Errors = append(res.Errors, ImportLineError{Line: ie.Line, Error: validationMessage(ie.Err, api.translator)})
	}
	return ctx.JSON(http.StatusOK, res)
}
