package payment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/aquaflow/core"
	"github.com/trezcool/aquaflow/core/calendar"
)

// Methods
const (
	MethodCash         = "dinheiro"
	MethodPix          = "pix"
	MethodCreditCard   = "cartao_credito"
	MethodDebitCard    = "cartao_debito"
	MethodBankTransfer = "transferencia"
)

var Methods = []string{MethodCash, MethodPix, MethodCreditCard, MethodDebitCard, MethodBankTransfer}

type Payment struct {
	ID             int             `json:"id" db:"id"`
	StudentID      int             `json:"aluno_id" db:"student_id"`
	Amount         decimal.Decimal `json:"valor" db:"amount"`
	PaidOn         calendar.Date   `json:"data_pagamento" db:"paid_on"`
	ReferenceMonth string          `json:"mes_referencia" db:"reference_month"` // YYYY-MM
	Method         string          `json:"forma_pagamento" db:"method"`
	Notes          null.String     `json:"observacoes" db:"notes"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"` // UTC
}

// NewPayment contains information needed to record a Payment.
type NewPayment struct {
	StudentID      int             `json:"aluno_id" validate:"required,gt=0"`
	Amount         decimal.Decimal `json:"valor" validate:"gte=0"`
	PaidOn         calendar.Date   `json:"data_pagamento" validate:"required"`
	ReferenceMonth string          `json:"mes_referencia" validate:"required,refmonth"`
	Method         string          `json:"forma_pagamento" validate:"required,oneof=dinheiro pix cartao_credito cartao_debito transferencia"`
	Notes          null.String     `json:"observacoes"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.ReferenceMonth = core.CleanString(np.ReferenceMonth)
	np.Method = core.CleanString(np.Method, true /* lower */)
	return validate.Struct(np)
}

// UpdatePayment defines what information may be provided to modify an existing Payment.
// Nil fields are left unchanged.
type UpdatePayment struct {
	StudentID      *int             `json:"aluno_id" validate:"omitempty,gt=0"`
	Amount         *decimal.Decimal `json:"valor" validate:"omitempty,gte=0"`
	PaidOn         *calendar.Date   `json:"data_pagamento"`
	ReferenceMonth *string          `json:"mes_referencia" validate:"omitempty,refmonth"`
	Method         *string          `json:"forma_pagamento" validate:"omitempty,oneof=dinheiro pix cartao_credito cartao_debito transferencia"`
	Notes          *string          `json:"observacoes"`
}

func (up *UpdatePayment) Validate(validate *validator.Validate) error {
	if up.Method != nil {
		m := core.CleanString(*up.Method, true /* lower */)
		up.Method = &m
	}
	return validate.Struct(up)
}

// Apply returns orig with the provided fields changed.
func (up UpdatePayment) Apply(orig Payment) Payment {
	p := orig
	if up.StudentID != nil {
		p.StudentID = *up.StudentID
	}
	if up.Amount != nil {
		p.Amount = *up.Amount
	}
	if up.PaidOn != nil && !up.PaidOn.IsZero() {
		p.PaidOn = *up.PaidOn
	}
	if up.ReferenceMonth != nil {
		p.ReferenceMonth = *up.ReferenceMonth
	}
	if up.Method != nil {
		p.Method = *up.Method
	}
	if up.Notes != nil {
		p.Notes = null.StringFrom(*up.Notes)
	}
	return p
}

type QueryFilter struct {
	StudentID int
	From      calendar.Date // inclusive
	To        calendar.Date // inclusive
}

// ReportFilter narrows the monthly report to a year, or a single month of a year.
// Month without Year is ignored.
type ReportFilter struct {
	Year  int
	Month int
}

// ReferenceMonth returns the exact month to report on, if any.
func (rf ReportFilter) ReferenceMonth() (string, bool) {
	if rf.Year > 0 && rf.Month >= 1 && rf.Month <= 12 {
		return calendar.Month{Year: rf.Year, Month: time.Month(rf.Month)}.String(), true
	}
	return "", false
}

// ReportLine aggregates the payments of one reference month and method.
type ReportLine struct {
	ReferenceMonth string          `json:"mes_referencia" db:"reference_month"`
	Method         string          `json:"forma_pagamento" db:"method"`
	Count          int             `json:"quantidade" db:"count"`
	Total          decimal.Decimal `json:"total" db:"total"`
}
