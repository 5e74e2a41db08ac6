package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/taskr/internal/export"
	"github.com/sadopc/taskr/internal/logging"
	"github.com/sadopc/taskr/internal/store"
	"github.com/spf13/cobra"
)

func exportCmd(configPath *string) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write your tasks to a CSV or JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "csv" && format != "json" {
				return fmt.Errorf("unknown format %q (want csv or json)", format)
			}
			if out == "" {
				out = fmt.Sprintf("taskr-export-%s.%s", time.Now().Format(dateLayout), format)
			}

			return withEnv(*configPath, func(e *env) error {
				list, err := e.tasks.List()
				if err != nil {
					return err
				}

				ulist, err := e.users.ListUsers()
				if err != nil {
					return err
				}
				users := make(map[int64]*store.User, len(ulist))
				for i := range ulist {
					users[ulist[i].ID] = &ulist[i]
				}

				if format == "csv" {
					err = export.ToCSV(list, users, out)
				} else {
					err = export.ToJSON(list, users, out)
				}
				if err != nil {
					return err
				}

				logging.Logger.WithField("path", out).Info("tasks exported")
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tasks to %s\n", len(list), out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default taskr-export-<date>.<format>)")

	return cmd
}
