package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/aquaflow/core"
)

// Roles
const (
	RoleAdmin        = "admin"
	RoleReceptionist = "recepcionista"
	RoleStudent      = "aluno"
)

var (
	AllRoles   = []string{RoleAdmin, RoleReceptionist, RoleStudent}
	StaffRoles = []string{RoleAdmin, RoleReceptionist}

	Roles = []Role{
		{Name: "Administrador", Value: RoleAdmin},
		{Name: "Recepcionista", Value: RoleReceptionist},
		{Name: "Aluno", Value: RoleStudent},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           int         `json:"id" db:"id"`
	Email        string      `json:"email" db:"email"`
	Username     string      `json:"username" db:"username"`
	FullName     null.String `json:"full_name" db:"full_name"`
	Role         string      `json:"role" db:"role"`
	IsActive     bool        `json:"is_active" db:"is_active"`
	IsSuperuser  bool        `json:"is_superuser" db:"is_superuser"`
	PasswordHash []byte      `json:"-" db:"password_hash"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    null.Time   `json:"last_login" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// SetRole also keeps IsSuperuser in sync: only admins are superusers.
func (u *User) SetRole(role string) {
	u.Role = role
	u.IsSuperuser = role == RoleAdmin
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleReceptionist
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=100,alphanum_"`
	FullName string `json:"full_name" validate:"omitempty,max=200"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=admin recepcionista aluno"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.FullName = core.CleanString(nu.FullName)
	if nu.Role == "" {
		nu.Role = RoleReceptionist
	}

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Empty or nil fields are left unchanged.
type UpdateUser struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Username string `json:"username" validate:"omitempty,min=3,max=100,alphanum_"`
	FullName string `json:"full_name" validate:"omitempty,max=200"`
	Password string `json:"password"`
	Role     string `json:"role" validate:"omitempty,oneof=admin recepcionista aluno"`
	IsActive *bool  `json:"is_active"`
}

func (uu *UpdateUser) Validate(validate *validator.Validate, origUsr User, svc *Service) error {
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}
	if uname := core.CleanString(uu.Username, true /* lower */); uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}
	uu.FullName = core.CleanString(uu.FullName)

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Username, uu.Email, origUsr)
}

type QueryFilter struct {
	Search   string
	Role     string
	IsActive *bool
	Skip     int
	Limit    int // 0: no limit
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
	if qf.Skip < 0 {
		qf.Skip = 0
	}
	if qf.Limit < 0 {
		qf.Limit = 0
	}
}
