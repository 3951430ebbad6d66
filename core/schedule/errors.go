package schedule

import (
	"fmt"

	"github.com/trezcool/aquaflow/core"
)

var (
	ErrSlotNotFound        = core.NewNotFoundError("Horário não encontrado")
	ErrStudentNotFound     = core.NewNotFoundError("Aluno não encontrado")
	ErrEnrollmentNotFound  = core.NewNotFoundError("Aluno não está matriculado neste horário")
	ErrInstructorNotFound  = core.NewNotFoundError("Professor não encontrado")
	ErrInactiveStudent     = core.NewRuleError("Aluno está inativo")
	ErrDuplicateEnrollment = core.NewRuleError("Aluno já está matriculado neste horário")
)

// CapacityError is returned when a slot's roster is already full.
type CapacityError struct {
	MaxCapacity int
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("Horário já está com capacidade máxima (%d alunos)", e.MaxCapacity)
}

func (CapacityError) RuleViolation() {}

// HasEnrollmentsError is returned when deleting a slot that still has students.
type HasEnrollmentsError struct {
	Count int
}

func (e HasEnrollmentsError) Error() string {
	return fmt.Sprintf("Não é possível deletar. Existem %d aluno(s) matriculado(s) neste horário.", e.Count)
}

func (HasEnrollmentsError) RuleViolation() {}

// CapacityBelowRosterError is returned when shrinking a slot below its current roster.
type CapacityBelowRosterError struct {
	Enrolled int
}

func (e CapacityBelowRosterError) Error() string {
	return fmt.Sprintf("Capacidade não pode ser menor que o número de alunos matriculados (%d)", e.Enrolled)
}

func (CapacityBelowRosterError) RuleViolation() {}
