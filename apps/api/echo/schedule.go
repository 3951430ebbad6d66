package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/aquaflow/core/schedule"
)

type scheduleApi struct {
	svc      *schedule.Service
	validate *validator.Validate
}

func registerScheduleAPI(g *echo.Group, svc *schedule.Service, validate *validator.Validate) {
	api := scheduleApi{svc: svc, validate: validate}

	g.POST("", api.create)
	g.GET("", api.query)
	g.GET("/grade-completa", api.grid)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.destroy)
	g.POST("/:id/alunos/:aluno_id", api.enroll)
	g.DELETE("/:id/alunos/:aluno_id", api.withdraw)
	g.GET("/:id/vagas", api.occupancy)
}

func (api *scheduleApi) create(ctx echo.Context) error {
	var data schedule.NewSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSlot")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.CreateSlot(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating slot")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *scheduleApi) query(ctx echo.Context) error {
	slots, err := api.svc.Slots(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying slots")
	}
	if slots == nil {
		slots = []schedule.Slot{}
	}
	return ctx.JSON(http.StatusOK, slots)
}

func (api *scheduleApi) grid(ctx echo.Context) error {
	grid, err := api.svc.Grid(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building weekly grid")
	}
	if grid == nil {
		grid = []schedule.GridSlot{}
	}
	return ctx.JSON(http.StatusOK, grid)
}

func (api *scheduleApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	s, err := api.svc.Slot(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *scheduleApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data schedule.UpdateSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSlot")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.UpdateSlot(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating slot")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *scheduleApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteSlot(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting slot")
	}
	return ctx.JSON(http.StatusOK, DeletedResponse{Message: "Horário excluído com sucesso", ID: id})
}

func (api *scheduleApi) enrollmentParams(ctx echo.Context) (slotID, studentID int, err error) {
	if slotID, err = intParam(ctx, "id"); err != nil {
		return
	}
	studentID, err = intParam(ctx, "aluno_id")
	return
}

func (api *scheduleApi) enroll(ctx echo.Context) error {
	slotID, studentID, err := api.enrollmentParams(ctx)
	if err != nil {
		return err
	}
	e, err := api.svc.Enroll(ctx.Request().Context(), slotID, studentID)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *scheduleApi) withdraw(ctx echo.Context) error {
	slotID, studentID, err := api.enrollmentParams(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Withdraw(ctx.Request().Context(), slotID, studentID); err != nil {
		return errors.Wrap(err, "withdrawing student")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Message: "Aluno removido do horário"})
}

func (api *scheduleApi) occupancy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	occ, err := api.svc.Occupancy(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, occ)
}
