package instructor

import (
	"context"
	"errors"

	"github.com/trezcool/aquaflow/core"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("Professor não encontrado")
	ErrEmailExists = errors.New("Já existe um professor cadastrado com este email")
	ErrCPFExists   = errors.New("Já existe um professor cadastrado com este CPF")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrEmailExists or ErrCPFExists when another instructor than
		// excluded (if any) holds email or cpf.
		CheckUniqueness(ctx context.Context, email, cpf string, excluded *Instructor) error
		CreateInstructor(ctx context.Context, i Instructor) (Instructor, error)
		GetInstructor(ctx context.Context, id int) (Instructor, error)
		InstructorExists(ctx context.Context, id int) (bool, error)
		// QueryInstructors returns matching instructors ordered by name.
		QueryInstructors(ctx context.Context, filter QueryFilter) ([]Instructor, error)
		UpdateInstructor(ctx context.Context, i Instructor) (Instructor, error)
		DeactivateInstructor(ctx context.Context, id int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckUniqueness(excluded *Instructor, email, cpf string) error {
	if err := svc.repo.CheckUniqueness(context.Background(), email, cpf, excluded); err != nil {
		var field string
		switch err {
		case ErrEmailExists:
			field = "email"
		case ErrCPFExists:
			field = "cpf"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ni NewInstructor) (Instructor, error) {
	return svc.repo.CreateInstructor(ctx, Instructor{
		Name:      ni.Name,
		Email:     ni.Email,
		CPF:       ni.CPF,
		Phone:     ni.Phone,
		Specialty: ni.Specialty,
		IsActive:  true,
	})
}

func (svc *Service) Get(ctx context.Context, id int) (Instructor, error) {
	return svc.repo.GetInstructor(ctx, id)
}

func (svc *Service) Exists(ctx context.Context, id int) (bool, error) {
	return svc.repo.InstructorExists(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Instructor, error) {
	filter.Specialty = core.CleanString(filter.Specialty, true /* lower */)
	return svc.repo.QueryInstructors(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, orig Instructor, ui UpdateInstructor) (Instructor, error) {
	return svc.repo.UpdateInstructor(ctx, ui.Apply(orig))
}

// Deactivate soft-deletes an instructor: slots keep their reference to them.
func (svc *Service) Deactivate(ctx context.Context, id int) error {
	return svc.repo.DeactivateInstructor(ctx, id)
}
