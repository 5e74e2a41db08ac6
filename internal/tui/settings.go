package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/taskr/internal/query"
	"github.com/sadopc/taskr/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	pageSize      *int
	defaultStatus *store.Status
}

func newSettingsModel(s *store.Store) settingsModel {
	ps := query.DefaultPageSize
	ds := store.StatusPending
	return settingsModel{
		store:         s,
		pageSize:      &ps,
		defaultStatus: &ds,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	st := s.store
	return func() tea.Msg {
		settings, err := st.GetAllSettings()
		if err != nil {
			return errStatus("Settings", err)
		}
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	// Load current values
	*s.pageSize = s.store.IntSetting("page_size", query.DefaultPageSize)
	if !query.ValidPageSize(*s.pageSize) {
		*s.pageSize = query.DefaultPageSize
	}
	*s.defaultStatus = s.store.DefaultStatus()

	sizeOptions := make([]huh.Option[int], len(query.PageSizes))
	for i, n := range query.PageSizes {
		sizeOptions[i] = huh.NewOption(fmt.Sprintf("%d per page", n), n)
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().Title("Page size").Options(sizeOptions...).Value(s.pageSize),
			huh.NewSelect[store.Status]().Title("New tasks start as").
				Options(
					huh.NewOption("Pending", store.StatusPending),
					huh.NewOption("Completed", store.StatusCompleted),
				).Value(s.defaultStatus),
		).Title("Tasks"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, tea.Batch(s.saveSettings(), s.refresh())
	}

	return s, cmd
}

func (s settingsModel) saveSettings() tea.Cmd {
	st := s.store
	pageSize, status := *s.pageSize, *s.defaultStatus
	return func() tea.Msg {
		if err := st.SetSetting("page_size", strconv.Itoa(pageSize)); err != nil {
			return errStatus("Save settings", err)
		}
		if err := st.SetSetting("default_status", string(status)); err != nil {
			return errStatus("Save settings", err)
		}
		return settingsSavedMsg{pageSize: pageSize}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case "page_size":
		if n, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d per page", n)
		}
	case "default_status":
		if !store.Status(v).Valid() {
			return v + " (invalid)"
		}
	}
	return v
}
