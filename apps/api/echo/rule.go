package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kurswahl/core/rule"
)

type ruleApi struct {
	svc      rule.ServiceInterface
	validate *validator.Validate
}

func registerRuleAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc rule.ServiceInterface, validate *validator.Validate) {
	api := ruleApi{svc: svc, validate: validate}

	rg := g.Group("/rules", authed...)
	rg.GET("", api.query)
	rg.POST("", api.create)
	rg.DELETE("/:name", api.destroy)
}

func (api *ruleApi) query(ctx echo.Context) error {
	rules, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying rules")
	}
	if rules == nil {
		rules = rule.Set{}
	}
	return ctx.JSON(http.StatusOK, rules)
}

func (api *ruleApi) create(ctx echo.Context) error {
	var data rule.NewRule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRule")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	r, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating rule")
	}
	return ctx.JSON(http.StatusCreated, rule.Wrap(r))
}

func (api *ruleApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), pathParam(ctx, "name")); err != nil {
		return errors.Wrap(err, "deleting rule")
	}
	return ctx.NoContent(http.StatusNoContent)
}
