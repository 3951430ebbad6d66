package echoapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/aquaflow/core"
	"github.com/trezcool/aquaflow/core/calendar"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// intParam reads a positive integer path parameter.
func intParam(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// boolQuery reads an optional boolean query parameter; anything unparsable is ignored.
func boolQuery(ctx echo.Context, name string) *bool {
	b, err := strconv.ParseBool(ctx.QueryParam(name))
	if err != nil {
		return nil
	}
	return &b
}

// intQuery reads an optional non-negative integer query parameter.
func intQuery(ctx echo.Context, name string) (int, error) {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("parâmetro %s inválido", name))
	}
	return n, nil
}

// dateQuery reads an optional YYYY-MM-DD query parameter.
func dateQuery(ctx echo.Context, name string) (calendar.Date, error) {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return calendar.Date{}, nil
	}
	d, err := calendar.ParseDate(val)
	if err != nil {
		return calendar.Date{}, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("parâmetro %s deve estar no formato AAAA-MM-DD", name))
	}
	return d, nil
}

type (
	DeletedResponse struct {
		Message string `json:"message"`
		ID      int    `json:"id"`
	}

	SuccessResponse struct {
		Message string `json:"message"`
	}
)
