package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/aquaflow/core"
	"github.com/trezcool/aquaflow/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if isExcluded(usr, excludedUsers) {
			continue
		}
		if usr.Username == username {
			return user.ErrUsernameExists
		}
		if usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, u := range repo.db.users {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
		if u.Username == usr.Username {
			return user.User{}, user.ErrUsernameExists
		}
	}
	usr.ID = repo.db.nextID("users")
	repo.db.users[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) find(match func(u user.User) bool) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, u := range repo.db.users {
		if match(u) {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByID(_ context.Context, id int) (user.User, error) {
	return repo.find(func(u user.User) bool { return u.ID == id })
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	return repo.find(func(u user.User) bool { return u.Email == email })
}

func (repo *userRepository) GetUserByUsernameOrEmail(_ context.Context, uname string) (user.User, error) {
	return repo.find(func(u user.User) bool { return u.Username == uname || u.Email == uname })
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	users := make([]user.User, 0, len(repo.db.users))
	for _, u := range repo.db.users {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.FullName.String), search) &&
			!strings.Contains(strings.ToLower(u.Username), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		users = append(users, u)
	}
	sortUsers(users, ordering)

	if filter.Skip >= len(users) {
		return []user.User{}, nil
	}
	users = users[filter.Skip:]
	if filter.Limit > 0 && filter.Limit < len(users) {
		users = users[:filter.Limit]
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.users[usr.ID] = usr
	return usr, nil
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, excl := range excludedUsers {
		if excl.ID == usr.ID {
			return true
		}
	}
	return false
}

// sortUsers applies the first known ordering, by ID by default.
func sortUsers(users []user.User, ordering []core.DBOrdering) {
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	var less func(i, j int) bool
	for _, ord := range ordering {
		var cmp func(a, b user.User) bool
		switch ord.Field {
		case "email":
			cmp = func(a, b user.User) bool { return a.Email < b.Email }
		case "username":
			cmp = func(a, b user.User) bool { return a.Username < b.Username }
		case "full_name":
			cmp = func(a, b user.User) bool { return a.FullName.String < b.FullName.String }
		case "role":
			cmp = func(a, b user.User) bool { return a.Role < b.Role }
		case "created_at":
			cmp = func(a, b user.User) bool { return a.CreatedAt.Before(b.CreatedAt) }
		case "id":
			cmp = func(a, b user.User) bool { return a.ID < b.ID }
		default:
			continue
		}
		asc := ord.Ascending
		less = func(i, j int) bool {
			if asc {
				return cmp(users[i], users[j])
			}
			return cmp(users[j], users[i])
		}
		break
	}
	if less != nil {
		sort.SliceStable(users, less)
	}
}
