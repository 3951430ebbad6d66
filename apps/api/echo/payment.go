package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/aquaflow/core/payment"
)

type paymentApi struct {
	svc      *payment.Service
	validate *validator.Validate
}

func registerPaymentAPI(g *echo.Group, svc *payment.Service, validate *validator.Validate) {
	api := paymentApi{svc: svc, validate: validate}

	g.POST("", api.create)
	g.GET("", api.query)
	g.GET("/relatorio-mensal", api.monthlyReport)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.destroy)
}

func (api *paymentApi) create(ctx echo.Context) error {
	var data payment.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating payment")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *paymentApi) query(ctx echo.Context) error {
	var (
		filter payment.QueryFilter
		err    error
	)
	if filter.StudentID, err = intQuery(ctx, "aluno_id"); err != nil {
		return err
	}
	if filter.From, err = dateQuery(ctx, "data_inicio"); err != nil {
		return err
	}
	if filter.To, err = dateQuery(ctx, "data_fim"); err != nil {
		return err
	}

	payments, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	if payments == nil {
		payments = []payment.Payment{}
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *paymentApi) monthlyReport(ctx echo.Context) error {
	var (
		filter payment.ReportFilter
		err    error
	)
	if filter.Year, err = intQuery(ctx, "ano"); err != nil {
		return err
	}
	if filter.Month, err = intQuery(ctx, "mes"); err != nil {
		return err
	}

	lines, err := api.svc.MonthlyReport(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "building monthly report")
	}
	if lines == nil {
		lines = []payment.ReportLine{}
	}
	return ctx.JSON(http.StatusOK, lines)
}

func (api *paymentApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	p, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *paymentApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data payment.UpdatePayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating payment")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *paymentApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting payment")
	}
	return ctx.JSON(http.StatusOK, DeletedResponse{Message: "Pagamento excluído com sucesso", ID: id})
}
