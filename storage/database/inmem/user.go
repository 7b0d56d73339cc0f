package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

// query must be called with the lock held.
func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckUniqueness(_ context.Context, login, sgc string, excludedID int) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sgcTaken := false
	for _, usr := range repo.query() {
		if usr.ID == excludedID {
			continue
		}
		if usr.Login == login {
			return user.ErrLoginExists
		}
		if usr.SGC == sgc {
			sgcTaken = true
		}
	}
	if sgcTaken {
		return user.ErrSGCExists
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	usr.ID = repo.db.pkCount
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

var userCompare = map[string]func(a, b user.User) int{
	"id":         func(a, b user.User) int { return a.ID - b.ID },
	"login":      func(a, b user.User) int { return strings.Compare(a.Login, b.Login) },
	"permission": func(a, b user.User) int { return strings.Compare(a.Permission, b.Permission) },
	"sgc_code":   func(a, b user.User) int { return strings.Compare(a.SGC, b.SGC) },
	"last_login": func(a, b user.User) int { return a.LastLogin.Compare(b.LastLogin) },
}

func (repo *userRepository) QueryUsers(_ context.Context, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	users := repo.query()
	repo.db.RUnlock()

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "login", Ascending: true}}
	}
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range ordering {
			cmp, ok := userCompare[ord.Field]
			if !ok {
				continue
			}
			c := cmp(users[i], users[j])
			if !ord.Ascending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var match func(usr *user.User) bool
	switch {
	case filter.ID > 0:
		if usr, ok := repo.db.table[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	case filter.Login != "":
		match = func(usr *user.User) bool { return usr.Login == filter.Login }
	case filter.SGC != "":
		match = func(usr *user.User) bool { return usr.SGC == filter.SGC }
	case filter.Email != "":
		match = func(usr *user.User) bool { return usr.Email == filter.Email }
	default:
		return user.User{}, user.ErrNotFound
	}

	for _, usr := range repo.db.table {
		if match(usr) {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) DeleteUser(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return user.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
