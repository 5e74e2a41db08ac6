package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/taskr/internal/logging"
	"github.com/sadopc/taskr/internal/tui"
	"github.com/spf13/cobra"
)

func runTUI(cmd *cobra.Command, configPath string) error {
	return withEnv(configPath, func(e *env) error {
		app := tui.NewApp(tui.Services{
			Store:    e.store,
			Users:    e.users,
			Session:  e.session,
			Tasks:    e.tasks,
			Debounce: e.cfg.Debounce(),
			PageSize: e.cfg.Query.PageSize,
		})

		logging.Logger.Info("ui started")
		p := tea.NewProgram(app, tea.WithAltScreen())
		_, err := p.Run()
		logging.Logger.Info("ui stopped")
		return err
	})
}
