package student

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/aquaflow/core"
	"github.com/trezcool/aquaflow/core/calendar"
)

// Lesson types
const (
	LessonSwimming     = "natacao"
	LessonWaterAerobic = "hidroginastica"
)

const DefaultContractMonths = 12

var LessonTypes = []string{LessonSwimming, LessonWaterAerobic}

type Student struct {
	ID             int             `json:"id" db:"id"`
	FullName       string          `json:"nome_completo" db:"full_name"`
	Guardian       null.String     `json:"responsavel" db:"guardian"`
	LessonType     string          `json:"tipo_aula" db:"lesson_type"`
	MonthlyFee     decimal.Decimal `json:"valor_mensalidade" db:"monthly_fee"`
	DueDay         int             `json:"dia_vencimento" db:"due_day"` // 1-31
	ContractStart  calendar.Date   `json:"data_inicio_contrato" db:"contract_start"`
	ContractEnd    calendar.Date   `json:"data_fim_contrato" db:"contract_end"`
	ContractMonths int             `json:"duracao_contrato_meses" db:"contract_months"`
	PlanID         null.Int        `json:"plano_id" db:"plan_id"`
	Active         bool            `json:"ativo" db:"active"`
	Phone          null.String     `json:"telefone_whatsapp" db:"phone"`
	Notes          null.String     `json:"observacoes" db:"notes"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"` // UTC
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"` // UTC
}

// DueDate returns the student's effective due date in ref's month.
func (s Student) DueDate(ref time.Time) time.Time {
	return calendar.EffectiveDueDate(s.DueDay, ref)
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	FullName       string          `json:"nome_completo" validate:"required,min=1,max=200"`
	Guardian       null.String     `json:"responsavel" validate:"omitempty,max=200"`
	LessonType     string          `json:"tipo_aula" validate:"required,oneof=natacao hidroginastica"`
	MonthlyFee     decimal.Decimal `json:"valor_mensalidade" validate:"gte=0"`
	DueDay         int             `json:"dia_vencimento" validate:"required,min=1,max=31"`
	ContractStart  calendar.Date   `json:"data_inicio_contrato"`
	ContractEnd    calendar.Date   `json:"data_fim_contrato"`
	ContractMonths int             `json:"duracao_contrato_meses" validate:"omitempty,min=1,max=60"`
	PlanID         null.Int        `json:"plano_id" validate:"omitempty,gt=0"`
	Active         *bool           `json:"ativo"`
	Phone          null.String     `json:"telefone_whatsapp" validate:"omitempty,max=20"`
	Notes          null.String     `json:"observacoes"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.FullName = core.CleanString(ns.FullName)
	ns.LessonType = core.CleanString(ns.LessonType, true /* lower */)
	if ns.Phone.Valid {
		ns.Phone.String = core.CleanString(ns.Phone.String)
	}
	if ns.ContractMonths == 0 {
		ns.ContractMonths = DefaultContractMonths
	}
	if err := validate.Struct(ns); err != nil {
		return err
	}
	return checkContractDates(ns.ContractStart, ns.ContractEnd)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Nil fields are left unchanged.
type UpdateStudent struct {
	FullName       *string          `json:"nome_completo" validate:"omitempty,min=1,max=200"`
	Guardian       *string          `json:"responsavel" validate:"omitempty,max=200"`
	LessonType     *string          `json:"tipo_aula" validate:"omitempty,oneof=natacao hidroginastica"`
	MonthlyFee     *decimal.Decimal `json:"valor_mensalidade" validate:"omitempty,gte=0"`
	DueDay         *int             `json:"dia_vencimento" validate:"omitempty,min=1,max=31"`
	ContractStart  *calendar.Date   `json:"data_inicio_contrato"`
	ContractEnd    *calendar.Date   `json:"data_fim_contrato"`
	ContractMonths *int             `json:"duracao_contrato_meses" validate:"omitempty,min=1,max=60"`
	PlanID         *int             `json:"plano_id" validate:"omitempty,gt=0"`
	Active         *bool            `json:"ativo"`
	Phone          *string          `json:"telefone_whatsapp" validate:"omitempty,max=20"`
	Notes          *string          `json:"observacoes"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate, orig Student) error {
	if us.FullName != nil {
		name := core.CleanString(*us.FullName)
		us.FullName = &name
	}
	if us.LessonType != nil {
		lt := core.CleanString(*us.LessonType, true /* lower */)
		us.LessonType = &lt
	}
	if err := validate.Struct(us); err != nil {
		return err
	}
	updated := us.Apply(orig)
	return checkContractDates(updated.ContractStart, updated.ContractEnd)
}

// Apply returns orig with the provided fields changed.
func (us UpdateStudent) Apply(orig Student) Student {
	s := orig
	if us.FullName != nil {
		s.FullName = *us.FullName
	}
	if us.Guardian != nil {
		s.Guardian = null.StringFrom(*us.Guardian)
	}
	if us.LessonType != nil {
		s.LessonType = *us.LessonType
	}
	if us.MonthlyFee != nil {
		s.MonthlyFee = *us.MonthlyFee
	}
	if us.DueDay != nil {
		s.DueDay = *us.DueDay
	}
	if us.ContractStart != nil {
		s.ContractStart = *us.ContractStart
	}
	if us.ContractEnd != nil {
		s.ContractEnd = *us.ContractEnd
	}
	if us.ContractMonths != nil {
		s.ContractMonths = *us.ContractMonths
	}
	if us.PlanID != nil {
		s.PlanID = null.IntFrom(*us.PlanID)
	}
	if us.Active != nil {
		s.Active = *us.Active
	}
	if us.Phone != nil {
		s.Phone = null.NewString(core.CleanString(*us.Phone), core.CleanString(*us.Phone) != "")
	}
	if us.Notes != nil {
		s.Notes = null.StringFrom(*us.Notes)
	}
	return s
}

func checkContractDates(start, end calendar.Date) error {
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return core.NewValidationError(
			errContractDates,
			core.FieldError{Field: "data_fim_contrato", Error: errContractDates.Error()},
		)
	}
	return nil
}

type QueryFilter struct {
	Active     *bool  // nil: any
	LessonType string // empty: any
}

// Delinquent is a student listed by the delinquency report.
type Delinquent struct {
	Student
	LastPayment          calendar.Date `json:"ultimo_pagamento"`
	NeverPaid            bool          `json:"nunca_pagou"`
	DaysSinceLastPayment int           `json:"dias_desde_ultimo_pagamento"`
}

// LastPayment pairs a student with the date of their most recent payment (zero when none).
type LastPayment struct {
	Student
	PaidOn calendar.Date `db:"last_paid_on"`
}
