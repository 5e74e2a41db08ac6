// Package tasks keeps the task collection under the "tasks" key. Reads and
// creation are scoped to the signed-in user; delete, edit and the finders
// work over every user's tasks.
package tasks

import (
	"errors"
	"fmt"

	"github.com/sadopc/taskr/internal/logging"
	"github.com/sadopc/taskr/internal/store"
	"github.com/sirupsen/logrus"
)

// ErrNotAuthenticated is returned when a scoped operation runs without a
// signed-in user.
var ErrNotAuthenticated = errors.New("user not logged in")

// Identity reports the signed-in user.
type Identity interface {
	CurrentUserID() (int64, bool)
}

type Store struct {
	kv       *store.Store
	identity Identity
}

func New(kv *store.Store, identity Identity) *Store {
	return &Store{kv: kv, identity: identity}
}

func taskID(t store.Task) int64 { return t.ID }

// All returns every stored task regardless of owner.
func (s *Store) All() ([]store.Task, error) {
	tasks, _, err := store.Get[[]store.Task](s.kv, store.KeyTasks)
	if err != nil {
		return nil, fmt.Errorf("get tasks: %w", err)
	}
	return tasks, nil
}

// List returns the signed-in user's tasks in insertion order.
func (s *Store) List() ([]store.Task, error) {
	userID, ok := s.identity.CurrentUserID()
	if !ok {
		return nil, fmt.Errorf("get tasks: %w", ErrNotAuthenticated)
	}
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	var owned []store.Task
	for _, t := range all {
		if t.UserID == userID {
			owned = append(owned, t)
		}
	}
	return owned, nil
}

// Add stores candidate for the signed-in user. The id and owner on the
// candidate are replaced; an empty status becomes Pending.
func (s *Store) Add(candidate store.Task) (*store.Task, error) {
	userID, ok := s.identity.CurrentUserID()
	if !ok {
		return nil, fmt.Errorf("add task: %w", ErrNotAuthenticated)
	}

	var added store.Task
	err := store.Modify(s.kv, store.KeyTasks, func(all []store.Task) ([]store.Task, bool, error) {
		added = candidate
		added.ID = store.NextID(all, taskID)
		added.UserID = userID
		if added.Status == "" {
			added.Status = store.StatusPending
		}
		return append(all, added), true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("add task: %w", err)
	}
	logging.Logger.WithFields(logrus.Fields{"task_id": added.ID, "user_id": userID}).Info("task added")
	return &added, nil
}

// Delete removes the task with id. Unknown ids are ignored.
func (s *Store) Delete(id int64) error {
	removed := false
	err := store.Modify(s.kv, store.KeyTasks, func(all []store.Task) ([]store.Task, bool, error) {
		kept := make([]store.Task, 0, len(all))
		for _, t := range all {
			if t.ID == id {
				removed = true
				continue
			}
			kept = append(kept, t)
		}
		return kept, removed, nil
	})
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if removed {
		logging.Logger.WithField("task_id", id).Info("task deleted")
	}
	return nil
}

// Edit replaces the stored task with the same id as updated, keeping its
// original owner. It returns nil, nil and writes nothing when no task has
// that id.
func (s *Store) Edit(updated store.Task) (*store.Task, error) {
	var edited *store.Task
	err := store.Modify(s.kv, store.KeyTasks, func(all []store.Task) ([]store.Task, bool, error) {
		for i := range all {
			if all[i].ID != updated.ID {
				continue
			}
			next := updated
			next.UserID = all[i].UserID
			all[i] = next
			edited = &next
			return all, true, nil
		}
		return all, false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("edit task %d: %w", updated.ID, err)
	}
	if edited == nil {
		logging.Logger.WithField("task_id", updated.ID).Debug("edit of unknown task ignored")
		return nil, nil
	}
	logging.Logger.WithField("task_id", edited.ID).Info("task edited")
	return edited, nil
}

// FindByName returns the first task named exactly name, or nil.
func (s *Store) FindByName(name string) (*store.Task, error) {
	return s.find(func(t store.Task) bool { return t.Name == name })
}

// FindByID returns the task with id, or nil.
func (s *Store) FindByID(id int64) (*store.Task, error) {
	return s.find(func(t store.Task) bool { return t.ID == id })
}

func (s *Store) find(match func(store.Task) bool) (*store.Task, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if match(all[i]) {
			return &all[i], nil
		}
	}
	return nil, nil
}
