package schedule

import (
	"regexp"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/aquaflow/core"
)

// Weekdays, in week order
const (
	Monday    = "segunda"
	Tuesday   = "terca"
	Wednesday = "quarta"
	Thursday  = "quinta"
	Friday    = "sexta"
	Saturday  = "sabado"
	Sunday    = "domingo"
)

const (
	DefaultCapacity = 10
	MaxCapacity     = 50
)

var (
	Weekdays = []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

	clockTag   = "clock"
	clockText  = "horário deve estar no formato HH:MM"
	clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// InitValidators registers the schedule validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(clockTag, clockValidation)
	core.RegisterCustomTranslation(validate, translator, clockTag, clockText)
}

func clockValidation(fl validator.FieldLevel) bool {
	return clockRegex.MatchString(fl.Field().String())
}

// WeekdayIndex returns the position of a weekday in the week (Monday first), or len(Weekdays).
func WeekdayIndex(weekday string) int {
	for i, d := range Weekdays {
		if d == weekday {
			return i
		}
	}
	return len(Weekdays)
}

// Slot is a recurring weekly class at a given weekday and time.
type Slot struct {
	ID           int      `json:"id" db:"id"`
	Weekday      string   `json:"dia_semana" db:"weekday"`
	StartsAt     string   `json:"horario" db:"starts_at"` // HH:MM
	MaxCapacity  int      `json:"capacidade_maxima" db:"max_capacity"`
	LessonType   string   `json:"tipo_aula" db:"lesson_type"`
	InstructorID null.Int `json:"professor_id" db:"instructor_id"`
	Waitlist     int      `json:"fila_espera" db:"waitlist"`
}

// Enrollment puts a student on a slot's roster.
type Enrollment struct {
	ID        int       `json:"matricula_id" db:"id"`
	SlotID    int       `json:"horario_id" db:"slot_id"`
	StudentID int       `json:"aluno_id" db:"student_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

// Occupancy summarizes how full a slot is.
type Occupancy struct {
	SlotID      int     `json:"horario_id"`
	Weekday     string  `json:"dia_semana"`
	StartsAt    string  `json:"horario"`
	LessonType  string  `json:"tipo_aula"`
	MaxCapacity int     `json:"capacidade_maxima"`
	Enrolled    int     `json:"alunos_matriculados"`
	Available   int     `json:"vagas_disponiveis"`
	PercentFull float64 `json:"percentual_ocupacao"`
}

func NewOccupancy(slot Slot, enrolled int) Occupancy {
	return Occupancy{
		SlotID:      slot.ID,
		Weekday:     slot.Weekday,
		StartsAt:    slot.StartsAt,
		LessonType:  slot.LessonType,
		MaxCapacity: slot.MaxCapacity,
		Enrolled:    enrolled,
		Available:   slot.MaxCapacity - enrolled,
		PercentFull: core.Percent(enrolled, slot.MaxCapacity),
	}
}

// RosterEntry is a student as shown on a slot's roster.
type RosterEntry struct {
	SlotID   int         `json:"-" db:"slot_id"`
	ID       int         `json:"id" db:"id"`
	FullName string      `json:"nome_completo" db:"full_name"`
	Phone    null.String `json:"telefone_whatsapp" db:"phone"`
}

// GridSlot is a slot of the weekly grid, with its roster.
type GridSlot struct {
	Slot
	InstructorName null.String   `json:"professor_nome" db:"instructor_name"`
	Students       []RosterEntry `json:"alunos" db:"-"`
	Available      int           `json:"vagas_disponiveis" db:"-"`
}

// NewSlot contains information needed to create a new Slot.
type NewSlot struct {
	Weekday      string   `json:"dia_semana" validate:"required,oneof=segunda terca quarta quinta sexta sabado domingo"`
	StartsAt     string   `json:"horario" validate:"required,clock"`
	MaxCapacity  int      `json:"capacidade_maxima" validate:"min=1,max=50"`
	LessonType   string   `json:"tipo_aula" validate:"required,oneof=natacao hidroginastica"`
	InstructorID null.Int `json:"professor_id" validate:"omitempty,gt=0"`
	Waitlist     int      `json:"fila_espera" validate:"min=0"`
}

func (ns *NewSlot) Validate(validate *validator.Validate) error {
	ns.Weekday = core.CleanString(ns.Weekday, true /* lower */)
	ns.StartsAt = normalizeClock(ns.StartsAt)
	ns.LessonType = core.CleanString(ns.LessonType, true /* lower */)
	if ns.MaxCapacity == 0 {
		ns.MaxCapacity = DefaultCapacity
	}
	return validate.Struct(ns)
}

// UpdateSlot defines what information may be provided to modify an existing Slot.
// Nil fields are left unchanged.
type UpdateSlot struct {
	Weekday      *string `json:"dia_semana" validate:"omitempty,oneof=segunda terca quarta quinta sexta sabado domingo"`
	StartsAt     *string `json:"horario" validate:"omitempty,clock"`
	MaxCapacity  *int    `json:"capacidade_maxima" validate:"omitempty,min=1,max=50"`
	LessonType   *string `json:"tipo_aula" validate:"omitempty,oneof=natacao hidroginastica"`
	InstructorID *int    `json:"professor_id" validate:"omitempty,gt=0"`
	Waitlist     *int    `json:"fila_espera" validate:"omitempty,min=0"`
}

func (us *UpdateSlot) Validate(validate *validator.Validate) error {
	if us.Weekday != nil {
		weekday := core.CleanString(*us.Weekday, true /* lower */)
		us.Weekday = &weekday
	}
	if us.LessonType != nil {
		lessonType := core.CleanString(*us.LessonType, true /* lower */)
		us.LessonType = &lessonType
	}
	if us.StartsAt != nil {
		clock := normalizeClock(*us.StartsAt)
		us.StartsAt = &clock
	}
	return validate.Struct(us)
}

// Apply returns orig with the provided fields changed.
func (us UpdateSlot) Apply(orig Slot) Slot {
	s := orig
	if us.Weekday != nil {
		s.Weekday = *us.Weekday
	}
	if us.StartsAt != nil {
		s.StartsAt = *us.StartsAt
	}
	if us.MaxCapacity != nil {
		s.MaxCapacity = *us.MaxCapacity
	}
	if us.LessonType != nil {
		s.LessonType = *us.LessonType
	}
	if us.InstructorID != nil {
		s.InstructorID = null.IntFrom(*us.InstructorID)
	}
	if us.Waitlist != nil {
		s.Waitlist = *us.Waitlist
	}
	return s
}

// normalizeClock accepts "HH:MM" and "HH:MM:SS" and keeps "HH:MM".
func normalizeClock(s string) string {
	s = core.CleanString(s)
	if len(s) == len("15:04:05") {
		if t, err := time.Parse("15:04:05", s); err == nil {
			return t.Format("15:04")
		}
	}
	return s
}
