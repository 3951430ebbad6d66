package sqlxrepos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/aquaflow/core"
	"github.com/trezcool/aquaflow/core/user"
)

const userColumns = `id, email, username, full_name, role, is_active, is_superuser, password_hash,
	created_at, updated_at, last_login`

var userOrderings = map[string]string{
	"id":         "id",
	"email":      "email",
	"username":   "username",
	"full_name":  "full_name",
	"role":       "role",
	"created_at": "created_at",
	"last_login": "last_login",
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	ids := make([]int64, 0, len(excludedUsers))
	for _, u := range excludedUsers {
		ids = append(ids, int64(u.ID))
	}

	var taken []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	err := repo.db.SelectContext(
		ctx, &taken,
		"SELECT username, email FROM users WHERE (username = $1 OR email = $2) AND NOT (id = ANY($3))",
		username, email, pq.Array(ids),
	)
	if err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, u := range taken {
		if u.Username == username {
			return user.ErrUsernameExists
		}
	}
	if len(taken) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	id, err := insertReturningID(ctx, repo.db, `
		INSERT INTO users (email, username, full_name, role, is_active, is_superuser, password_hash,
			created_at, updated_at, last_login)
		VALUES (:email, :username, :full_name, :role, :is_active, :is_superuser, :password_hash,
			:created_at, :updated_at, :last_login)
		RETURNING id`, usr)
	if err != nil {
		if pgCode(err) == uniqueViolation {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	usr.ID = id
	return usr, nil
}

func (repo userRepository) getUser(ctx context.Context, where string, args ...interface{}) (user.User, error) {
	var usr user.User
	err := repo.db.GetContext(ctx, &usr, "SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", args...)
	if err != nil {
		return user.User{}, trapNoRows(err, user.ErrNotFound, "getting user")
	}
	return usr, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	return repo.getUser(ctx, "id = $1", id)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, "email = $1", email)
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, uname string) (user.User, error) {
	return repo.getUser(ctx, "username = $1 OR email = $1", uname)
}

func (repo userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	var conds conditions
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		conds.add("(full_name ILIKE ? OR username ILIKE ? OR email ILIKE ?)", val, val, val)
	}
	if filter.Role != "" {
		conds.add("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		conds.add("is_active = ?", *filter.IsActive)
	}

	q := "SELECT " + userColumns + " FROM users" + conds.where() +
		" ORDER BY " + core.OrderBy(ordering, userOrderings, "id ASC")
	args := conds.args
	if filter.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Skip > 0 {
		q += " OFFSET ?"
		args = append(args, filter.Skip)
	}

	users := make([]user.User, 0)
	if err := repo.db.SelectContext(ctx, &users, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	err := updateOne(ctx, repo.db, `
		UPDATE users SET email = :email, username = :username, full_name = :full_name, role = :role,
			is_active = :is_active, is_superuser = :is_superuser, password_hash = :password_hash,
			updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`, usr, user.ErrNotFound)
	if err != nil {
		if err == user.ErrNotFound {
			return user.User{}, err
		}
		if pgCode(err) == uniqueViolation {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, fmt.Sprintf("updating user %d", usr.ID))
	}
	return usr, nil
}
