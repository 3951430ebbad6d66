package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/aquaflow/core/payment"
	"github.com/trezcool/aquaflow/core/student"
)

type studentApi struct {
	svc      *student.Service
	payments *payment.Service
	validate *validator.Validate
	now      func() time.Time
}

// registerStudentAPI mounts the student endpoints. Delinquency is computed on the academy's calendar (loc).
func registerStudentAPI(g *echo.Group, svc *student.Service, payments *payment.Service, validate *validator.Validate, loc *time.Location) {
	api := studentApi{
		svc:      svc,
		payments: payments,
		validate: validate,
		now:      func() time.Time { return time.Now().In(loc) },
	}

	g.POST("", api.create)
	g.GET("", api.query)
	g.GET("/inadimplentes", api.delinquents)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.destroy)
	g.GET("/:id/pagamentos", api.queryPayments)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := student.QueryFilter{
		Active:     boolQuery(ctx, "ativo"),
		LessonType: ctx.QueryParam("tipo_aula"),
	}
	students, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) delinquents(ctx echo.Context) error {
	delinquents, err := api.svc.Delinquents(ctx.Request().Context(), api.now())
	if err != nil {
		return errors.Wrap(err, "listing delinquent students")
	}
	return ctx.JSON(http.StatusOK, delinquents)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	s, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	orig, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return err
	}

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate, orig); err != nil {
		return err
	}

	s, err := api.svc.Update(ctx.Request().Context(), orig, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Deactivate(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deactivating student")
	}
	return ctx.JSON(http.StatusOK, DeletedResponse{Message: "Aluno desativado com sucesso", ID: id})
}

func (api *studentApi) queryPayments(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	payments, err := api.payments.QueryByStudent(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying student payments")
	}
	if payments == nil {
		payments = []payment.Payment{}
	}
	return ctx.JSON(http.StatusOK, payments)
}
