package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/services/metrics"
	sheetsvc "github.com/trezcool/gradebook/services/sheets"
)

type gradeApi struct {
	svc      *grade.Service
	students *student.Service
}

func registerGradeAPI(g *echo.Group, deps ServerDeps) {
	api := gradeApi{svc: deps.Grades, students: deps.Students}

	g.GET("/:grade/:subject", api.loadRoster)
	g.GET("/:grade/:subject/export", api.export)
	g.PUT("/:grade/:subject/:bcn", api.saveMark)
}

type StudentMarkResponse struct {
	grade.StudentMark
	EffectiveMark null.String `json:"effective_mark"`
}

func newStudentMarkResponse(m grade.StudentMark) StudentMarkResponse {
	return StudentMarkResponse{StudentMark: m, EffectiveMark: m.EffectiveMark()}
}

func (api *gradeApi) load(ctx echo.Context) (string, string, []grade.StudentMark, error) {
	gradeLevel, subject := pathParam(ctx, "grade"), pathParam(ctx, "subject")
	marks, err := api.svc.LoadRoster(ctx.Request().Context(), gradeLevel, subject)
	if !core.IsValidation(err) {
		metrics.RosterLoads.WithLabelValues(gradeLevel, subject, metrics.Result(err)).Inc()
	}
	if err != nil {
		return gradeLevel, subject, nil, errors.Wrap(err, "loading roster")
	}
	return gradeLevel, subject, marks, nil
}

func (api *gradeApi) loadRoster(ctx echo.Context) error {
	_, _, marks, err := api.load(ctx)
	if err != nil {
		return err
	}
	res := make([]StudentMarkResponse, 0, len(marks))
	for _, m := range marks {
		res = append(res, newStudentMarkResponse(m))
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *gradeApi) export(ctx echo.Context) error {
	gradeLevel, subject, marks, err := api.load(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err = sheetsvc.WriteMarks(&buf, gradeLevel, subject, marks); err != nil {
		return errors.Wrap(err, "writing mark sheet")
	}
	ctx.Response().Header().Set(
		echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", sheetsvc.ExportFilename(gradeLevel, subject)),
	)
	return ctx.Blob(http.StatusOK, sheetsvc.ContentType, buf.Bytes())
}

// saveMark overwrites a mark. The student's full name is looked up when the body omits it.
func (api *gradeApi) saveMark(ctx echo.Context) error {
	gradeLevel, subject, bcn := pathParam(ctx, "grade"), pathParam(ctx, "subject"), pathParam(ctx, "bcn")

	var data grade.MarkUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkUpdate")
	}
	data.FullName = core.CleanString(data.FullName)
	if data.FullName == "" && core.IsPathSegment(bcn) {
		st, err := api.students.GetByBirthCert(ctx.Request().Context(), bcn)
		if err != nil {
			return errors.Wrap(err, "finding student")
		}
		data.FullName = st.FullName
	}

	err := api.svc.SaveMark(ctx.Request().Context(), gradeLevel, subject, bcn, data)
	if !core.IsValidation(err) {
		metrics.MarksSaved.WithLabelValues(gradeLevel, subject, metrics.Result(err)).Inc()
	}
	if err != nil {
		return errors.Wrap(err, "saving mark")
	}
	if data.Mark.Valid && !data.IsAbsent {
		metrics.MarkDistribution.WithLabelValues(gradeLevel, subject).Observe(float64(data.Mark.Int))
	}

	saved := grade.StudentMark{FullName: data.FullName, BirthCertNumber: bcn, IsAbsent: data.IsAbsent}
	if data.Mark.Valid {
		saved.Mark = null.StringFrom(strconv.Itoa(data.Mark.Int))
	}
	return ctx.JSON(http.StatusOK, newStudentMarkResponse(saved))
}
