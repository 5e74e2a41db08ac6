package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/taskr/internal/store"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	Count      int        `json:"count"`
	Completed  int        `json:"completed"`
	Tasks      []jsonTask `json:"tasks"`
}

type jsonTask struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
	DaysRequired int    `json:"days_required"`
	Status       string `json:"status"`
	Owner        string `json:"owner"`
	OwnerID      int64  `json:"owner_id"`
}

func ToJSON(tasks []store.Task, users map[int64]*store.User, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(tasks),
	}

	for _, t := range tasks {
		if t.Status == store.StatusCompleted {
			export.Completed++
		}
		export.Tasks = append(export.Tasks, jsonTask{
			ID:           t.ID,
			Name:         t.Name,
			Description:  t.Description,
			StartDate:    formatDate(t.StartDate),
			EndDate:      formatDate(t.EndDate),
			DaysRequired: t.DaysRequired(),
			Status:       string(t.Status),
			Owner:        ownerName(users, t.UserID),
			OwnerID:      t.UserID,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
