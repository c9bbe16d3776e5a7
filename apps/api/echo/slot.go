package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kurswahl/core/assignment"
)

type slotApi struct {
	svc      assignment.ServiceInterface
	validate *validator.Validate
}

// registerSlotAPI exposes the trimester workflow: import choices, allocate, adjust the draft, finalize.
// Keys are given in their url form, e.g. `2025-2026-T2`.
func registerSlotAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc assignment.ServiceInterface, validate *validator.Validate) {
	api := slotApi{svc: svc, validate: validate}

	sg := g.Group("/slots", authed...)
	sg.GET("", api.query)
	sg.GET("/:key", api.retrieve)
	sg.POST("/:key/choices", api.importChoices)
	sg.POST("/:key/allocate", api.allocate)
	sg.GET("/:key/draft", api.retrieveDraft)
	sg.PUT("/:key/draft/placements", api.move)
	sg.POST("/:key/finalize", api.finalize)
}

func slotKey(ctx echo.Context) (assignment.SlotKey, error) {
	return assignment.ParseSlotKey(pathParam(ctx, "key"))
}

// Handlers

func (api *slotApi) query(ctx echo.Context) error {
	slots, err := api.svc.QuerySlots(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying slots")
	}
	if slots == nil {
		slots = []assignment.Slot{}
	}
	return ctx.JSON(http.StatusOK, slots)
}

func (api *slotApi) retrieve(ctx echo.Context) error {
	key, err := slotKey(ctx)
	if err != nil {
		return err
	}
	slot, err := api.svc.GetSlot(ctx.Request().Context(), key)
	if err != nil {
		return errors.Wrap(err, "finding slot")
	}
	return ctx.JSON(http.StatusOK, slot)
}

func (api *slotApi) importChoices(ctx echo.Context) error {
	key, err := slotKey(ctx)
	if err != nil {
		return err
	}
	var data assignment.Upload
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Upload")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	if data.IsEmpty() {
		return errEmptyUpload
	}

	d, err := api.svc.ImportChoices(ctx.Request().Context(), key, data)
	if err != nil {
		return errors.Wrap(err, "importing choices")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *slotApi) allocate(ctx echo.Context) error {
	key, err := slotKey(ctx)
	if err != nil {
		return err
	}
	d, err := api.svc.Allocate(ctx.Request().Context(), key)
	if err != nil {
		return errors.Wrap(err, "allocating")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *slotApi) retrieveDraft(ctx echo.Context) error {
	key, err := slotKey(ctx)
	if err != nil {
		return err
	}
	d, err := api.svc.GetDraft(ctx.Request().Context(), key)
	if err != nil {
		return errors.Wrap(err, "finding draft")
	}
	return ctx.JSON(http.StatusOK, d)
}

// move never refuses a placement; broken constraints come back as draft violations.
func (api *slotApi) move(ctx echo.Context) error {
	key, err := slotKey(ctx)
	if err != nil {
		return err
	}
	var data assignment.MoveRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MoveRequest")
	}
	data.Clean()
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	d, err := api.svc.Move(ctx.Request().Context(), key, data)
	if err != nil {
		return errors.Wrap(err, "moving student")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *slotApi) finalize(ctx echo.Context) error {
	key, err := slotKey(ctx)
	if err != nil {
		return err
	}
	slot, err := api.svc.Finalize(ctx.Request().Context(), key)
	if err != nil {
		return errors.Wrap(err, "finalizing")
	}
	return ctx.JSON(http.StatusOK, slot)
}
