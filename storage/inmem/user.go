package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ready4exam/platform/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UID < users[j].UID })
	return users
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[usr.UID]; ok {
		return user.User{}, user.ErrExists
	}
	repo.db.table[usr.UID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, uid string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[uid]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Username != "" && usr.Username == username {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := make([]user.User, 0)
	for _, usr := range repo.query() {
		if filter.Email != "" && !strings.EqualFold(usr.Email, filter.Email) {
			continue
		}
		if filter.TenantType != "" && usr.TenantType != filter.TenantType {
			continue
		}
		if filter.SchoolID != "" && usr.SchoolID != filter.SchoolID {
			continue
		}
		users = append(users, usr)
	}
	return users, nil
}

func (repo *userRepository) SetLastLogin(_ context.Context, uid string, at time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr, ok := repo.db.table[uid]
	if !ok {
		return user.ErrNotFound
	}
	usr.LastLogin = at
	return nil
}

func (repo *userRepository) SetPasswordHash(_ context.Context, uid string, hash []byte) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr, ok := repo.db.table[uid]
	if !ok {
		return user.ErrNotFound
	}
	usr.PasswordHash = hash
	return nil
}

func (repo *userRepository) SuspendUsersByEmail(_ context.Context, email, schoolID string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, usr := range repo.db.table {
		if !strings.EqualFold(usr.Email, email) || usr.IsOwner() {
			continue
		}
		if schoolID == "" || usr.SchoolID == schoolID {
			usr.Role = user.RoleSuspended
			usr.PaidClasses = make(map[string]bool)
			n++
		}
	}
	return n, nil
}
