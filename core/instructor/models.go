package instructor

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/aquaflow/core"
)

// Specialties
const (
	SpecialtySwimming     = "natacao"
	SpecialtyWaterAerobic = "hidroginastica"
	SpecialtyBoth         = "ambos"
)

var (
	cpfTag      = "cpf"
	cpfText     = "CPF deve ter 11 dígitos"
	nonDigitsRe = regexp.MustCompile(`\D`)
)

// InitValidators registers the instructor validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(cpfTag, cpfValidation)
	core.RegisterCustomTranslation(validate, translator, cpfTag, cpfText)
}

func cpfValidation(fl validator.FieldLevel) bool {
	return len(nonDigitsRe.ReplaceAllString(fl.Field().String(), "")) == 11
}

// FormatCPF renders the 11 digits of a CPF as XXX.XXX.XXX-XX. Invalid input is returned cleaned.
func FormatCPF(cpf string) string {
	d := nonDigitsRe.ReplaceAllString(cpf, "")
	if len(d) != 11 {
		return core.CleanString(cpf)
	}
	return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
}

type Instructor struct {
	ID        int         `json:"id" db:"id"`
	Name      string      `json:"nome" db:"name"`
	Email     string      `json:"email" db:"email"`
	CPF       string      `json:"cpf" db:"cpf"` // XXX.XXX.XXX-XX
	Phone     null.String `json:"telefone" db:"phone"`
	Specialty null.String `json:"especialidade" db:"specialty"`
	IsActive  bool        `json:"is_active" db:"is_active"`
}

// NewInstructor contains information needed to create a new Instructor.
type NewInstructor struct {
	Name      string      `json:"nome" validate:"required,max=200"`
	Email     string      `json:"email" validate:"required,email"`
	CPF       string      `json:"cpf" validate:"required,cpf"`
	Phone     null.String `json:"telefone" validate:"omitempty,max=20"`
	Specialty null.String `json:"especialidade" validate:"omitempty,oneof=natacao hidroginastica ambos"`
}

func (ni *NewInstructor) Validate(validate *validator.Validate, svc *Service) error {
	ni.Name = core.CleanString(ni.Name)
	ni.Email = core.CleanString(ni.Email, true /* lower */)
	if ni.Specialty.Valid {
		ni.Specialty.String = core.CleanString(ni.Specialty.String, true /* lower */)
	}
	if err := validate.Struct(ni); err != nil {
		return err
	}
	ni.CPF = FormatCPF(ni.CPF)
	return svc.CheckUniqueness(nil, ni.Email, ni.CPF)
}

// UpdateInstructor defines what information may be provided to modify an existing Instructor.
// Nil fields are left unchanged.
type UpdateInstructor struct {
	Name      *string `json:"nome" validate:"omitempty,max=200"`
	Email     *string `json:"email" validate:"omitempty,email"`
	CPF       *string `json:"cpf" validate:"omitempty,cpf"`
	Phone     *string `json:"telefone" validate:"omitempty,max=20"`
	Specialty *string `json:"especialidade" validate:"omitempty,oneof=natacao hidroginastica ambos"`
	IsActive  *bool   `json:"is_active"`
}

func (ui *UpdateInstructor) Validate(validate *validator.Validate, orig Instructor, svc *Service) error {
	if ui.Email != nil {
		email := core.CleanString(*ui.Email, true /* lower */)
		ui.Email = &email
	}
	if ui.Specialty != nil {
		spec := core.CleanString(*ui.Specialty, true /* lower */)
		ui.Specialty = &spec
	}
	if err := validate.Struct(ui); err != nil {
		return err
	}
	if ui.CPF != nil {
		cpf := FormatCPF(*ui.CPF)
		ui.CPF = &cpf
	}
	updated := ui.Apply(orig)
	return svc.CheckUniqueness(&orig, updated.Email, updated.CPF)
}

// Apply returns orig with the provided fields changed.
func (ui UpdateInstructor) Apply(orig Instructor) Instructor {
	i := orig
	if ui.Name != nil {
		i.Name = core.CleanString(*ui.Name)
	}
	if ui.Email != nil {
		i.Email = *ui.Email
	}
	if ui.CPF != nil {
		i.CPF = *ui.CPF
	}
	if ui.Phone != nil {
		i.Phone = null.StringFrom(*ui.Phone)
	}
	if ui.Specialty != nil {
		i.Specialty = null.StringFrom(*ui.Specialty)
	}
	if ui.IsActive != nil {
		i.IsActive = *ui.IsActive
	}
	return i
}

type QueryFilter struct {
	IsActive  *bool
	Specialty string
}
