package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/aquaflow/core/instructor"
)

type instructorApi struct {
	svc      *instructor.Service
	validate *validator.Validate
}

func registerInstructorAPI(g *echo.Group, svc *instructor.Service, validate *validator.Validate) {
	api := instructorApi{svc: svc, validate: validate}

	g.POST("", api.create)
	g.GET("", api.query)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.destroy)
}

func (api *instructorApi) create(ctx echo.Context) error {
	var data instructor.NewInstructor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInstructor")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	i, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating instructor")
	}
	return ctx.JSON(http.StatusCreated, i)
}

func (api *instructorApi) query(ctx echo.Context) error {
	filter := instructor.QueryFilter{
		IsActive:  boolQuery(ctx, "is_active"),
		Specialty: ctx.QueryParam("especialidade"),
	}
	instructors, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying instructors")
	}
	if instructors == nil {
		instructors = []instructor.Instructor{}
	}
	return ctx.JSON(http.StatusOK, instructors)
}

func (api *instructorApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	i, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, i)
}

func (api *instructorApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	orig, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return err
	}

	var data instructor.UpdateInstructor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateInstructor")
	}
	if err := data.Validate(api.validate, orig, api.svc); err != nil {
		return err
	}

	i, err := api.svc.Update(ctx.Request().Context(), orig, data)
	if err != nil {
		return errors.Wrap(err, "updating instructor")
	}
	return ctx.JSON(http.StatusOK, i)
}

func (api *instructorApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Deactivate(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deactivating instructor")
	}
	return ctx.JSON(http.StatusOK, DeletedResponse{Message: "Professor desativado com sucesso", ID: id})
}
