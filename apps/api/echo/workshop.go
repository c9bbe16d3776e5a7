package echoapi

import (
	"io/ioutil"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kurswahl/core"
	"github.com/trezcool/kurswahl/core/rule"
	"github.com/trezcool/kurswahl/core/workshop"
)

type workshopApi struct {
	svc      workshop.ServiceInterface
	ruleSvc  rule.ServiceInterface
	validate *validator.Validate
}

func registerWorkshopAPI(
	g *echo.Group,
	authed []echo.MiddlewareFunc,
	svc workshop.ServiceInterface,
	ruleSvc rule.ServiceInterface,
	validate *validator.Validate,
) {
	api := workshopApi{
		svc:      svc,
		ruleSvc:  ruleSvc,
		validate: validate,
	}

	wg := g.Group("/workshops", authed...)
	wg.GET("", api.query)
	wg.POST("", api.create)
	wg.POST("/import", api.importTable)
	wg.GET("/:name", api.retrieve)
	wg.PUT("/:name", api.update)
	wg.DELETE("/:name", api.destroy)
	wg.GET("/:name/rules", api.queryRules)

	// archive
	wg.GET("/archive", api.queryArchive)
	wg.POST("/archive/:name/reactivate", api.reactivate)
	wg.DELETE("/archive/:name", api.purge)
}

// Handlers

func (api *workshopApi) query(ctx echo.Context) error {
	workshops, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying workshops")
	}
	if workshops == nil {
		workshops = []workshop.Workshop{}
	}
	return ctx.JSON(http.StatusOK, workshops)
}

func (api *workshopApi) create(ctx echo.Context) error {
	var data workshop.NewWorkshop
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewWorkshop")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	w, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating workshop")
	}
	return ctx.JSON(http.StatusCreated, w)
}

// importTable accepts the workshop table, `{"name": {"capacity": 12, "bands": ["band1"]}}`
// or the legacy `{"name": 12}`.
func (api *workshopApi) importTable(ctx echo.Context) error {
	data, err := ioutil.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading workshop table")
	}
	tbl, err := workshop.ParseTable(data)
	if err != nil {
		if _, ok := errors.Cause(err).(*core.ValidationError); ok {
			return err
		}
		return core.NewValidationError(errors.Wrap(err, "invalid workshop table"))
	}

	workshops, err := api.svc.ImportTable(ctx.Request().Context(), tbl)
	if err != nil {
		return errors.Wrap(err, "importing workshop table")
	}
	return ctx.JSON(http.StatusOK, workshops)
}

func (api *workshopApi) retrieve(ctx echo.Context) error {
	w, err := api.svc.Get(ctx.Request().Context(), pathParam(ctx, "name"))
	if err != nil {
		return errors.Wrap(err, "finding workshop")
	}
	return ctx.JSON(http.StatusOK, w)
}

func (api *workshopApi) update(ctx echo.Context) error {
	var data workshop.UpdateWorkshop
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateWorkshop")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	w, err := api.svc.Update(ctx.Request().Context(), pathParam(ctx, "name"), data)
	if err != nil {
		return errors.Wrap(err, "updating workshop")
	}
	return ctx.JSON(http.StatusOK, w)
}

// destroy archives workshops that carry history and deletes the others.
func (api *workshopApi) destroy(ctx echo.Context) error {
	archived, err := api.svc.Delete(ctx.Request().Context(), pathParam(ctx, "name"))
	if err != nil {
		return errors.Wrap(err, "deleting workshop")
	}
	return ctx.JSON(http.StatusOK, DeleteWorkshopResponse{Archived: archived})
}

func (api *workshopApi) queryRules(ctx echo.Context) error {
	w, err := api.svc.Get(ctx.Request().Context(), pathParam(ctx, "name"))
	if err != nil {
		return errors.Wrap(err, "finding workshop")
	}
	rules, err := api.ruleSvc.Referencing(ctx.Request().Context(), w.Name)
	if err != nil {
		return errors.Wrap(err, "querying rules")
	}
	return ctx.JSON(http.StatusOK, rules)
}

func (api *workshopApi) queryArchive(ctx echo.Context) error {
	workshops, err := api.svc.QueryArchive(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying archived workshops")
	}
	if workshops == nil {
		workshops = []workshop.Workshop{}
	}
	return ctx.JSON(http.StatusOK, workshops)
}

func (api *workshopApi) reactivate(ctx echo.Context) error {
	w, err := api.svc.Reactivate(ctx.Request().Context(), pathParam(ctx, "name"))
	if err != nil {
		return errors.Wrap(err, "reactivating workshop")
	}
	return ctx.JSON(http.StatusOK, w)
}

func (api *workshopApi) purge(ctx echo.Context) error {
	if err := api.svc.Purge(ctx.Request().Context(), pathParam(ctx, "name")); err != nil {
		return errors.Wrap(err, "purging workshop")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type DeleteWorkshopResponse struct {
	Archived bool `json:"archived"`
}
