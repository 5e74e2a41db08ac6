package store

import (
	"math"
	"time"
)

type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	PhoneNo  string `json:"phoneNo"`
}

type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
)

// Valid reports whether s is one of the known task statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Toggled flips Pending and Completed.
func (s Status) Toggled() Status {
	if s == StatusPending {
		return StatusCompleted
	}
	return StatusPending
}

type Task struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Status      Status    `json:"status"`
	UserID      int64     `json:"userId"`
}

// DaysRequired is the number of started days between StartDate and EndDate.
func (t Task) DaysRequired() int {
	d := t.EndDate.Sub(t.StartDate)
	return int(math.Ceil(d.Hours() / 24))
}

type Setting struct {
	Key   string
	Value string
}

// NextID returns max(ids)+1, or 1 for an empty collection.
func NextID[T any](items []T, id func(T) int64) int64 {
	var max int64
	for _, it := range items {
		if v := id(it); v > max {
			max = v
		}
	}
	return max + 1
}
