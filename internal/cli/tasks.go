package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sadopc/taskr/internal/query"
	"github.com/sadopc/taskr/internal/store"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func tasksCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and manage your tasks",
	}

	cmd.AddCommand(tasksListCmd(configPath))
	cmd.AddCommand(tasksAddCmd(configPath))
	cmd.AddCommand(tasksEditCmd(configPath))
	cmd.AddCommand(tasksToggleCmd(configPath))
	cmd.AddCommand(tasksRmCmd(configPath))
	cmd.AddCommand(tasksShowCmd(configPath))

	return cmd
}

func tasksListCmd(configPath *string) *cobra.Command {
	var (
		search   string
		status   string
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your tasks, one page at a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := parseStatus(status, true)
			if err != nil {
				return err
			}
			return withEnv(*configPath, func(e *env) error {
				list, err := e.tasks.List()
				if err != nil {
					return err
				}

				size := pageSize
				if !cmd.Flags().Changed("page-size") {
					size = e.store.IntSetting("page_size", e.cfg.Query.PageSize)
					if !query.ValidPageSize(size) {
						size = e.cfg.Query.PageSize
					}
				}

				p := query.New(e.tasks)
				if _, err := p.SetPageSize(size); err != nil {
					return err
				}
				p.Load(list)
				p.SetSearchTerm(search)
				p.SetStatus(st)
				result := p.SetPage(page)

				out := cmd.OutOrStdout()
				if result.TotalItems == 0 {
					fmt.Fprintln(out, "No tasks")
					return nil
				}
				if err := printTasks(out, result.Tasks); err != nil {
					return err
				}
				fmt.Fprintf(out, "\npage %d of %d (%d tasks)\n", result.Number, result.TotalPages, result.TotalItems)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive name filter")
	cmd.Flags().StringVar(&status, "status", "", "Pending or Completed (default all)")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number")
	cmd.Flags().IntVarP(&pageSize, "page-size", "n", query.DefaultPageSize, "Tasks per page (5, 10 or 20)")

	return cmd
}

// taskFlags are the editable task fields shared by add and edit.
type taskFlags struct {
	name        string
	description string
	start       string
	end         string
	status      string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Task name")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "Description")
	cmd.Flags().StringVar(&f.start, "start", "", "Start date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&f.end, "end", "", "End date (YYYY-MM-DD, default start date)")
	cmd.Flags().StringVar(&f.status, "status", "", "Pending or Completed")
}

// apply copies the flags the user set onto t.
func (f *taskFlags) apply(cmd *cobra.Command, t *store.Task) error {
	changed := cmd.Flags().Changed
	if changed("name") {
		t.Name = strings.TrimSpace(f.name)
	}
	if changed("description") {
		t.Description = f.description
	}
	if changed("start") {
		d, err := parseDate(f.start)
		if err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		t.StartDate = d
	}
	if changed("end") {
		d, err := parseDate(f.end)
		if err != nil {
			return fmt.Errorf("--end: %w", err)
		}
		t.EndDate = d
	}
	if changed("status") {
		st, err := parseStatus(f.status, false)
		if err != nil {
			return err
		}
		t.Status = st
	}

	if t.Name == "" {
		return errors.New("task name must not be empty")
	}
	if !t.StartDate.IsZero() && !t.EndDate.IsZero() && t.EndDate.Before(t.StartDate) {
		return errors.New("end date is before start date")
	}
	return nil
}

func tasksAddCmd(configPath *string) *cobra.Command {
	var f taskFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task for the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(*configPath, func(e *env) error {
				today, _ := parseDate(time.Now().Format(dateLayout))
				t := store.Task{
					StartDate: today,
					Status:    e.store.DefaultStatus(),
				}
				if err := f.apply(cmd, &t); err != nil {
					return err
				}
				if !cmd.Flags().Changed("end") {
					t.EndDate = t.StartDate
				}

				added, err := e.tasks.Add(t)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added task %d: %s\n", added.ID, added.Name)
				return nil
			})
		},
	}

	f.register(cmd)
	cmd.MarkFlagRequired("name")

	return cmd
}

func tasksEditCmd(configPath *string) *cobra.Command {
	var f taskFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(*configPath, func(e *env) error {
				if _, err := e.requireUser(); err != nil {
					return err
				}
				t, err := e.tasks.FindByID(id)
				if err != nil {
					return err
				}
				if t == nil {
					return fmt.Errorf("no task with id %d", id)
				}
				if err := f.apply(cmd, t); err != nil {
					return err
				}

				updated, err := e.tasks.Edit(*t)
				if err != nil {
					return err
				}
				if updated == nil {
					return fmt.Errorf("no task with id %d", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated task %d: %s\n", updated.ID, updated.Name)
				return nil
			})
		},
	}

	f.register(cmd)

	return cmd
}

func tasksToggleCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task between Pending and Completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(*configPath, func(e *env) error {
				if _, err := e.requireUser(); err != nil {
					return err
				}
				t, err := e.tasks.FindByID(id)
				if err != nil {
					return err
				}
				if t == nil {
					return fmt.Errorf("no task with id %d", id)
				}

				updated, err := query.New(e.tasks).ToggleStatus(*t)
				if err != nil {
					return err
				}
				if updated == nil {
					return fmt.Errorf("no task with id %d", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task %d is now %s\n", updated.ID, updated.Status)
				return nil
			})
		},
	}
}

func tasksRmCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(*configPath, func(e *env) error {
				if _, err := e.requireUser(); err != nil {
					return err
				}
				if err := e.tasks.Delete(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
				return nil
			})
		},
	}
}

func tasksShowCmd(configPath *string) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show one task by id or by --name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (name == "") {
				return errors.New("give either an id or --name")
			}
			return withEnv(*configPath, func(e *env) error {
				if _, err := e.requireUser(); err != nil {
					return err
				}

				var (
					t   *store.Task
					err error
				)
				if name != "" {
					t, err = e.tasks.FindByName(name)
				} else {
					var id int64
					if id, err = parseID(args[0]); err != nil {
						return err
					}
					t, err = e.tasks.FindByID(id)
				}
				if err != nil {
					return err
				}
				if t == nil {
					return errors.New("task not found")
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:          %d\n", t.ID)
				fmt.Fprintf(out, "Name:        %s\n", t.Name)
				fmt.Fprintf(out, "Description: %s\n", t.Description)
				fmt.Fprintf(out, "Start:       %s\n", formatDate(t.StartDate))
				fmt.Fprintf(out, "End:         %s\n", formatDate(t.EndDate))
				fmt.Fprintf(out, "Days:        %d\n", t.DaysRequired())
				fmt.Fprintf(out, "Status:      %s\n", t.Status)
				fmt.Fprintf(out, "Owner:       %d\n", t.UserID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Exact task name")

	return cmd
}

func printTasks(w io.Writer, list []store.Task) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tSTART\tEND\tDAYS")
	for _, t := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n",
			t.ID, t.Name, t.Status, formatDate(t.StartDate), formatDate(t.EndDate), t.DaysRequired())
	}
	return tw.Flush()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

// parseStatus accepts a status name in any case. An empty value is
// query.AnyStatus when allowAny is set.
func parseStatus(s string, allowAny bool) (store.Status, error) {
	if s == "" && allowAny {
		return query.AnyStatus, nil
	}
	for _, st := range []store.Status{store.StatusPending, store.StatusCompleted} {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status %q (want Pending or Completed)", s)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}
