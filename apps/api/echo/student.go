package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kurswahl/core"
	"github.com/trezcool/kurswahl/core/assignment"
	"github.com/trezcool/kurswahl/core/student"
)

var orderingParam = "ordering"

type studentApi struct {
	svc           student.ServiceInterface
	assignmentSvc assignment.ServiceInterface
	validate      *validator.Validate
}

func registerStudentAPI(
	g *echo.Group,
	authed []echo.MiddlewareFunc,
	svc student.ServiceInterface,
	assignmentSvc assignment.ServiceInterface,
	validate *validator.Validate,
) {
	api := studentApi{
		svc:           svc,
		assignmentSvc: assignmentSvc,
		validate:      validate,
	}

	sg := g.Group("/students", authed...)
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.GET("/:name", api.retrieve)
	sg.PUT("/:name", api.update)
	sg.DELETE("/:name", api.destroy)
	sg.GET("/:name/coverage", api.coverage)
}

// Handlers

// query lists the roster; `?ordering=-priority,name` sorts it.
func (api *studentApi) query(ctx echo.Context) error {
	filter := student.QueryFilter{
		Search: ctx.QueryParam("search"),
		Class:  ctx.QueryParam("class"),
	}
	if val := ctx.QueryParam("needs_support"); val != "" {
		needsSupport, err := strconv.ParseBool(val)
		if err != nil {
			return core.NewFieldError("needs_support", "needs_support must be a boolean")
		}
		filter.NeedsSupport = &needsSupport
	}
	filter.Clean()

	students, err := api.svc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	student.Sort(students, core.ParseOrderings(ctx.QueryParam(orderingParam)))
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.Get(ctx.Request().Context(), pathParam(ctx, "name"))
	if err != nil {
		return errors.Wrap(err, "finding student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Update(ctx.Request().Context(), pathParam(ctx, "name"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), pathParam(ctx, "name")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) coverage(ctx echo.Context) error {
	res, err := api.assignmentSvc.Coverage(ctx.Request().Context(), pathParam(ctx, "name"))
	if err != nil {
		return errors.Wrap(err, "checking coverage")
	}
	return ctx.JSON(http.StatusOK, res)
}
