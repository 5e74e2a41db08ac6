package account

import (
	"fmt"

	"github.com/sadopc/taskr/internal/logging"
	"github.com/sadopc/taskr/internal/store"
)

// Directory is the set of registered users, kept under the "users" key.
type Directory struct {
	store *store.Store
}

func NewDirectory(s *store.Store) *Directory {
	return &Directory{store: s}
}

// ListUsers returns every registered user in insertion order.
func (d *Directory) ListUsers() ([]store.User, error) {
	users, _, err := store.Get[[]store.User](d.store, store.KeyUsers)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// AddUser stores candidate under a fresh id and returns the stored record.
// Any id on the candidate is ignored. Emails are not checked for uniqueness.
func (d *Directory) AddUser(candidate store.User) (*store.User, error) {
	var added store.User
	err := store.Modify(d.store, store.KeyUsers, func(users []store.User) ([]store.User, bool, error) {
		added = candidate
		added.ID = store.NextID(users, func(u store.User) int64 { return u.ID })
		return append(users, added), true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("add user: %w", err)
	}
	logging.Logger.WithField("user_id", added.ID).Info("user registered")
	return &added, nil
}

// findByCredentials returns the first user whose email and password both
// match exactly, or nil.
func (d *Directory) findByCredentials(email, password string) (*store.User, error) {
	users, err := d.ListUsers()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Email == email && users[i].Password == password {
			return &users[i], nil
		}
	}
	return nil, nil
}
