package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/taskr/internal/account"
	"github.com/sadopc/taskr/internal/export"
	"github.com/sadopc/taskr/internal/logging"
	"github.com/sadopc/taskr/internal/query"
	"github.com/sadopc/taskr/internal/store"
	"github.com/sadopc/taskr/internal/tasks"
)

// Services are the long-lived components the UI drives.
type Services struct {
	Store   *store.Store
	Users   *account.Directory
	Session *account.Session
	Tasks   *tasks.Store

	Debounce  time.Duration
	PageSize  int    // used when the page_size setting is missing or invalid
	ExportDir string // defaults to the home directory
}

// App is the root Bubble Tea model.
type App struct {
	svc    Services
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	pipeline *query.Pipeline
	pages    chan query.Page

	auth     authModel
	tasks    tasksModel
	reports  reportsModel
	settings settingsModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(svc Services) App {
	h := help.New()
	h.ShowAll = false

	if svc.Debounce <= 0 {
		svc.Debounce = query.DefaultDebounce
	}
	pageSize := svc.Store.IntSetting("page_size", svc.PageSize)
	if !query.ValidPageSize(pageSize) {
		pageSize = svc.PageSize
	}

	// Holds only the latest debounced page; the timer goroutine is the
	// single sender.
	pages := make(chan query.Page, 1)
	pipeline := query.New(svc.Tasks,
		query.WithDebounce(svc.Debounce),
		query.WithPageSize(pageSize),
		query.WithOnChange(func(p query.Page) {
			select {
			case <-pages:
			default:
			}
			pages <- p
		}),
	)

	return App{
		svc:        svc,
		activeView: viewTasks,
		pipeline:   pipeline,
		pages:      pages,
		auth:       newAuthModel(svc.Users, svc.Session),
		tasks:      newTasksModel(svc.Store, svc.Tasks, pipeline),
		reports:    newReportsModel(svc.Tasks),
		settings:   newSettingsModel(svc.Store),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForPage(a.pages)}
	if a.authenticated() {
		cmds = append(cmds, a.tasks.refresh())
	} else {
		cmds = append(cmds, a.auth.init())
	}
	return tea.Batch(cmds...)
}

// waitForPage blocks until the pipeline publishes a debounced page.
func waitForPage(ch <-chan query.Page) tea.Cmd {
	return func() tea.Msg {
		return pageMsg{page: <-ch}
	}
}

func (a App) authenticated() bool {
	return a.svc.Session.IsAuthenticated()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.auth.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case pageMsg:
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		return a, tea.Batch(cmd, waitForPage(a.pages))

	case tasksLoadedMsg:
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		return a, cmd

	case authDoneMsg:
		a.setStatus(fmt.Sprintf("Logged in as %s", msg.user.Name), false)
		a.activeView = viewTasks
		return a, a.tasks.refresh()

	case signedUpMsg:
		a.setStatus(fmt.Sprintf("Account created for %s, log in to continue", msg.user.Email), false)
		var cmd tea.Cmd
		a.auth, cmd = a.auth.update(msg)
		return a, cmd

	case loggedOutMsg:
		a.setStatus("Logged out", false)
		a.activeView = viewTasks
		a.exportPicking = false
		a.tasks.clear()
		var cmd tea.Cmd
		a.auth, cmd = a.auth.update(msg)
		return a, cmd

	case taskSavedMsg:
		a.setStatus(fmt.Sprintf("%s: %s", msg.verb, msg.task.Name), false)
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		return a, cmd

	case taskDeletedMsg:
		a.setStatus(fmt.Sprintf("Deleted task %d", msg.id), false)
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		return a, cmd

	case settingsSavedMsg:
		a.setStatus("Settings saved", false)
		if page, err := a.pipeline.SetPageSize(msg.pageSize); err == nil {
			a.tasks.setPage(page)
		}
		return a, nil

	case statusMsg:
		a.setStatus(msg.text, msg.isError)
		if msg.isError {
			logging.Logger.WithField("view", viewNames[a.activeView]).Warn(msg.text)
		}
		return a, nil

	case exportDoneMsg:
		a.setStatus(fmt.Sprintf("Exported %d tasks to %s", msg.count, msg.path), false)
		a.exportPicking = false
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.authenticated() {
			var cmd tea.Cmd
			a.auth, cmd = a.auth.update(msg)
			return a, cmd
		}

		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Logout):
			return a, a.logout()
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTasks
			return a, a.tasks.refresh()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewReports
			return a, a.reports.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}
	}

	if !a.authenticated() {
		var cmd tea.Cmd
		a.auth, cmd = a.auth.update(msg)
		return a, cmd
	}
	return a.updateActiveView(msg)
}

func (a *App) setStatus(text string, isErr bool) {
	a.status = text
	a.statusErr = isErr
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTasks:
		return a.tasks.capturing()
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewTasks:
		return a.tasks.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) logout() tea.Cmd {
	session := a.svc.Session
	return func() tea.Msg {
		if err := session.Logout(); err != nil {
			return errStatus("Logout", err)
		}
		return loggedOutMsg{}
	}
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	if !a.authenticated() {
		content = a.auth.view()
	} else {
		switch a.activeView {
		case viewTasks:
			content = a.tasks.view()
		case viewReports:
			content = a.reports.view()
		case viewSettings:
			content = a.settings.view()
		}
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("taskr")

	if !a.authenticated() {
		return headerStyle.Render(title)
	}

	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	user := ""
	if u := a.svc.Session.CurrentUser(); u != nil {
		user = mutedStyle.Render(" " + u.Name)
	}

	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(user)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, user, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := ""
	if a.authenticated() {
		helpView = a.help.View(keys)
	}

	status := ""
	if a.status != "" {
		if a.statusErr {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	left := footerStyle.Render(helpView)

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(status)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, status)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	svc := a.svc
	return func() tea.Msg {
		list, err := svc.Tasks.List()
		if err != nil {
			return errStatus("Export", err)
		}

		// Build owner lookup
		users := make(map[int64]*store.User)
		ulist, err := svc.Users.ListUsers()
		if err != nil {
			return errStatus("Export", err)
		}
		for i := range ulist {
			users[ulist[i].ID] = &ulist[i]
		}

		dir := svc.ExportDir
		if dir == "" {
			dir, _ = os.UserHomeDir()
		}
		dateStr := time.Now().Format(dateLayout)

		var path string
		if format == 0 {
			path = filepath.Join(dir, fmt.Sprintf("taskr-export-%s.csv", dateStr))
			if err := export.ToCSV(list, users, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(dir, fmt.Sprintf("taskr-export-%s.json", dateStr))
			if err := export.ToJSON(list, users, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		logging.Logger.WithField("path", path).Info("tasks exported")
		return exportDoneMsg{path: path, count: len(list)}
	}
}
