package plan

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/aquaflow/core"
)

const (
	DefaultLessonMinutes = 50
	DefaultGraceDays     = 5
)

// Plan is a membership plan students can subscribe to.
type Plan struct {
	ID             int             `json:"id" db:"id"`
	Name           string          `json:"nome" db:"name"`
	Description    null.String     `json:"descricao" db:"description"`
	MonthlyPrice   decimal.Decimal `json:"valor_mensal" db:"monthly_price"`
	LessonsPerWeek int             `json:"aulas_por_semana" db:"lessons_per_week"`
	LessonMinutes  int             `json:"duracao_aula_minutos" db:"lesson_minutes"`
	FreeAccess     bool            `json:"acesso_livre" db:"free_access"`
	AllowsMakeup   bool            `json:"permite_reposicao" db:"allows_makeup"`
	GraceDays      int             `json:"dias_tolerancia" db:"grace_days"`
	Active         bool            `json:"ativo" db:"active"`
}

// NewPlan contains information needed to create a new Plan.
type NewPlan struct {
	Name           string          `json:"nome" validate:"required,min=3,max=100"`
	Description    null.String     `json:"descricao" validate:"omitempty,max=500"`
	MonthlyPrice   decimal.Decimal `json:"valor_mensal" validate:"gte=0"`
	LessonsPerWeek int             `json:"aulas_por_semana" validate:"required,min=1,max=7"`
	LessonMinutes  int             `json:"duracao_aula_minutos" validate:"min=30,max=120"`
	FreeAccess     bool            `json:"acesso_livre"`
	AllowsMakeup   *bool           `json:"permite_reposicao"`
	GraceDays      *int            `json:"dias_tolerancia" validate:"omitempty,min=0,max=30"`
}

func (np *NewPlan) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	if np.LessonMinutes == 0 {
		np.LessonMinutes = DefaultLessonMinutes
	}
	return validate.Struct(np)
}

// UpdatePlan defines what information may be provided to modify an existing Plan.
// Nil fields are left unchanged.
type UpdatePlan struct {
	Name           *string          `json:"nome" validate:"omitempty,min=3,max=100"`
	Description    *string          `json:"descricao" validate:"omitempty,max=500"`
	MonthlyPrice   *decimal.Decimal `json:"valor_mensal" validate:"omitempty,gte=0"`
	LessonsPerWeek *int             `json:"aulas_por_semana" validate:"omitempty,min=1,max=7"`
	LessonMinutes  *int             `json:"duracao_aula_minutos" validate:"omitempty,min=30,max=120"`
	FreeAccess     *bool            `json:"acesso_livre"`
	AllowsMakeup   *bool            `json:"permite_reposicao"`
	GraceDays      *int             `json:"dias_tolerancia" validate:"omitempty,min=0,max=30"`
	Active         *bool            `json:"ativo"`
}

func (up *UpdatePlan) Validate(validate *validator.Validate) error {
	if up.Name != nil {
		name := core.CleanString(*up.Name)
		up.Name = &name
	}
	return validate.Struct(up)
}

// Apply returns orig with the provided fields changed.
func (up UpdatePlan) Apply(orig Plan) Plan {
	p := orig
	if up.Name != nil {
		p.Name = *up.Name
	}
	if up.Description != nil {
		p.Description = null.StringFrom(*up.Description)
	}
	if up.MonthlyPrice != nil {
		p.MonthlyPrice = *up.MonthlyPrice
	}
	if up.LessonsPerWeek != nil {
		p.LessonsPerWeek = *up.LessonsPerWeek
	}
	if up.LessonMinutes != nil {
		p.LessonMinutes = *up.LessonMinutes
	}
	if up.FreeAccess != nil {
		p.FreeAccess = *up.FreeAccess
	}
	if up.AllowsMakeup != nil {
		p.AllowsMakeup = *up.AllowsMakeup
	}
	if up.GraceDays != nil {
		p.GraceDays = *up.GraceDays
	}
	if up.Active != nil {
		p.Active = *up.Active
	}
	return p
}
