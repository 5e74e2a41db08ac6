package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/taskr/internal/store"
)

const dateLayout = "2006-01-02"

func ToCSV(tasks []store.Task, users map[int64]*store.User, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Name", "Description", "Start", "End", "Days", "Status", "Owner"}); err != nil {
		return err
	}

	for _, t := range tasks {
		row := []string{
			fmt.Sprintf("%d", t.ID),
			t.Name,
			t.Description,
			formatDate(t.StartDate),
			formatDate(t.EndDate),
			fmt.Sprintf("%d", t.DaysRequired()),
			string(t.Status),
			ownerName(users, t.UserID),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func ownerName(users map[int64]*store.User, id int64) string {
	if u, ok := users[id]; ok {
		return u.Name
	}
	return "Unknown"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
