package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kurswahl/core/operator"
)

type operatorApi struct {
	auth     *tokenAuth
	svc      operator.ServiceInterface
	validate *validator.Validate
}

func registerOperatorAPI(
	g *echo.Group,
	authed []echo.MiddlewareFunc,
	auth *tokenAuth,
	svc operator.ServiceInterface,
	validate *validator.Validate,
) {
	api := operatorApi{
		auth:     auth,
		svc:      svc,
		validate: validate,
	}

	og := g.Group("/operators")

	// un-authed endpoints
	og.POST("/login", api.login)

	// authed endpoints
	ag := og.Group("", authed...)
	ag.POST("", api.create)
	ag.GET("/me", api.me)
	ag.POST("/token-refresh", api.refreshToken)
}

// Handlers

func (api *operatorApi) login(ctx echo.Context) error {
	var data operator.LoginCredentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginCredentials")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	token, err := api.auth.login(ctx, data)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *operatorApi) create(ctx echo.Context) error {
	var data operator.NewOperator
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOperator")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	op, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating operator")
	}
	return ctx.JSON(http.StatusCreated, op)
}

func (api *operatorApi) me(ctx echo.Context) error {
	op, err := api.auth.contextOperator(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, op)
}

func (api *operatorApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refreshToken(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

type LoginResponse struct {
	Token string `json:"token"`
}
