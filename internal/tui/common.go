package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/taskr/internal/query"
	"github.com/sadopc/taskr/internal/store"
	"github.com/sadopc/taskr/internal/tasks"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTasks viewState = iota
	viewReports
	viewSettings
)

var viewNames = []string{"Tasks", "Reports", "Settings"}

const dateLayout = "2006-01-02"

// --- Messages ---

type tasksLoadedMsg struct {
	tasks []store.Task
}

// pageMsg carries a page computed off the UI goroutine by a debounced
// search update.
type pageMsg struct {
	page query.Page
}

type taskSavedMsg struct {
	task *store.Task
	verb string
}

type taskDeletedMsg struct {
	id int64
}

type authDoneMsg struct {
	user *store.User
}

type authFailedMsg struct {
	text string
}

type signedUpMsg struct {
	user *store.User
}

type loggedOutMsg struct{}

type settingsSavedMsg struct {
	pageSize int
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path  string
	count int
}

// --- Helpers ---

// errStatus turns a failed operation into a footer message.
func errStatus(op string, err error) statusMsg {
	switch {
	case errors.Is(err, tasks.ErrNotAuthenticated):
		return statusMsg{text: "Not logged in", isError: true}
	case store.IsStorage(err):
		return statusMsg{text: fmt.Sprintf("%s: storage error", op), isError: true}
	}
	return statusMsg{text: fmt.Sprintf("%s: %v", op, err), isError: true}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format(dateLayout)
}

// parseDate reads a YYYY-MM-DD value as local midnight.
func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("use YYYY-MM-DD")
	}
	return t, nil
}

func validateDate(s string) error {
	_, err := parseDate(s)
	return err
}

func today() string {
	return time.Now().Format(dateLayout)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
