package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/taskr/internal/query"
	"github.com/sadopc/taskr/internal/store"
	"github.com/sadopc/taskr/internal/tasks"
)

// statusCycle is the order the status filter steps through.
var statusCycle = []store.Status{query.AnyStatus, store.StatusPending, store.StatusCompleted}

type tasksModel struct {
	kv       *store.Store
	tasks    *tasks.Store
	pipeline *query.Pipeline
	width    int
	height   int

	page   query.Page
	cursor int

	search    textinput.Model
	searching bool
	pager     paginator.Model

	formActive bool
	form       *huh.Form
	formType   string // "new", "edit"
	editing    store.Task

	// Form field pointers (survive value copies)
	formName   *string
	formDesc   *string
	formStart  *string
	formEnd    *string
	formStatus *store.Status
}

func newTasksModel(kv *store.Store, ts *tasks.Store, p *query.Pipeline) tasksModel {
	ti := textinput.New()
	ti.Placeholder = "search by name"
	ti.Prompt = "/ "
	ti.PromptStyle = searchPromptStyle
	ti.CharLimit = 64

	pg := paginator.New()
	pg.Type = paginator.Dots
	pg.ActiveDot = highlightStyle.Render("•")
	pg.InactiveDot = mutedStyle.Render("•")

	name, desc, start, end := "", "", "", ""
	status := store.StatusPending
	return tasksModel{
		kv:         kv,
		tasks:      ts,
		pipeline:   p,
		page:       p.Current(),
		search:     ti,
		pager:      pg,
		formName:   &name,
		formDesc:   &desc,
		formStart:  &start,
		formEnd:    &end,
		formStatus: &status,
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.search.Width = max(w-12, 10)
}

// clear drops the cached tasks along with any search or status filter.
// A pending debounced search is superseded by the empty term.
func (m *tasksModel) clear() {
	m.searching = false
	m.search.Blur()
	m.search.SetValue("")
	m.cursor = 0
	m.pipeline.PushSearch("")
	m.pipeline.SetSearchTerm("")
	m.pipeline.SetStatus(query.AnyStatus)
	m.setPage(m.pipeline.Load(nil))
}

// capturing reports whether keys belong to this view rather than the app.
func (m tasksModel) capturing() bool {
	return m.formActive || m.searching
}

func (m tasksModel) refresh() tea.Cmd {
	ts := m.tasks
	return func() tea.Msg {
		list, err := ts.List()
		if err != nil {
			return errStatus("Load tasks", err)
		}
		return tasksLoadedMsg{tasks: list}
	}
}

func (m *tasksModel) setPage(p query.Page) {
	m.page = p
	m.cursor = min(m.cursor, max(0, len(p.Tasks)-1))
	m.pager.PerPage = max(p.Size, 1)
	m.pager.SetTotalPages(p.TotalItems)
	m.pager.Page = max(p.Number-1, 0)
}

func (m tasksModel) selected() (store.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.page.Tasks) {
		return store.Task{}, false
	}
	return m.page.Tasks[m.cursor], true
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tasksLoadedMsg:
		m.setPage(m.pipeline.Load(msg.tasks))
		return m, nil

	case pageMsg:
		m.cursor = 0
		m.setPage(msg.page)
		return m, nil

	case taskSavedMsg:
		return m, m.refresh()

	case taskDeletedMsg:
		return m, m.refresh()

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m tasksModel) updateSearch(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != before {
		m.pipeline.PushSearch(v)
	}
	return m, cmd
}

func (m tasksModel) updateList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.page.Tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Left):
		m.cursor = 0
		m.setPage(m.pipeline.PrevPage())
	case key.Matches(msg, keys.Right):
		m.cursor = 0
		m.setPage(m.pipeline.NextPage())
	case key.Matches(msg, keys.Search):
		m.searching = true
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(msg, keys.Filter):
		m.cursor = 0
		m.setPage(m.pipeline.SetStatus(nextStatus(m.pipeline.State().Status)))
	case key.Matches(msg, keys.PageSize):
		m.cursor = 0
		page, err := m.pipeline.SetPageSize(nextPageSize(m.pipeline.State().PageSize))
		if err != nil {
			return m, func() tea.Msg { return errStatus("Page size", err) }
		}
		m.setPage(page)
	case key.Matches(msg, keys.Toggle):
		if t, ok := m.selected(); ok {
			return m, m.toggle(t)
		}
	case key.Matches(msg, keys.Delete):
		if t, ok := m.selected(); ok {
			return m, m.delete(t.ID)
		}
	case key.Matches(msg, keys.New):
		return m.showForm(nil)
	case key.Matches(msg, keys.Edit):
		if t, ok := m.selected(); ok {
			return m.showForm(&t)
		}
	}
	return m, nil
}

func nextStatus(cur store.Status) store.Status {
	for i, s := range statusCycle {
		if s == cur {
			return statusCycle[(i+1)%len(statusCycle)]
		}
	}
	return query.AnyStatus
}

func nextPageSize(cur int) int {
	for i, n := range query.PageSizes {
		if n == cur {
			return query.PageSizes[(i+1)%len(query.PageSizes)]
		}
	}
	return query.DefaultPageSize
}

func (m tasksModel) toggle(t store.Task) tea.Cmd {
	p := m.pipeline
	return func() tea.Msg {
		updated, err := p.ToggleStatus(t)
		if err != nil {
			return errStatus("Toggle", err)
		}
		if updated == nil {
			return statusMsg{text: fmt.Sprintf("Task %d no longer exists", t.ID), isError: true}
		}
		return taskSavedMsg{task: updated, verb: "Marked " + string(updated.Status)}
	}
}

func (m tasksModel) delete(id int64) tea.Cmd {
	ts := m.tasks
	return func() tea.Msg {
		if err := ts.Delete(id); err != nil {
			return errStatus("Delete", err)
		}
		return taskDeletedMsg{id: id}
	}
}

// showForm opens the task form, prefilled from t when editing.
func (m tasksModel) showForm(t *store.Task) (tasksModel, tea.Cmd) {
	if t == nil {
		m.formType = "new"
		m.editing = store.Task{}
		*m.formName = ""
		*m.formDesc = ""
		*m.formStart = today()
		*m.formEnd = today()
		*m.formStatus = m.kv.DefaultStatus()
	} else {
		m.formType = "edit"
		m.editing = *t
		*m.formName = t.Name
		*m.formDesc = t.Description
		*m.formStart = dateOrToday(t.StartDate.IsZero(), formatDate(t.StartDate))
		*m.formEnd = dateOrToday(t.EndDate.IsZero(), formatDate(t.EndDate))
		*m.formStatus = t.Status
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(m.formName).Validate(required("name")),
			huh.NewText().Title("Description").Lines(3).Value(m.formDesc),
		),
		huh.NewGroup(
			huh.NewInput().Title("Start date").Placeholder(dateLayout).Value(m.formStart).Validate(validateDate),
			huh.NewInput().Title("End date").Placeholder(dateLayout).Value(m.formEnd).Validate(validateDate),
			huh.NewSelect[store.Status]().Title("Status").
				Options(
					huh.NewOption("Pending", store.StatusPending),
					huh.NewOption("Completed", store.StatusCompleted),
				).Value(m.formStatus),
			huh.NewNote().TitleFunc(func() string {
				return daysLabel(*m.formStart, *m.formEnd)
			}, []*string{m.formStart, m.formEnd}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func dateOrToday(zero bool, s string) string {
	if zero {
		return today()
	}
	return s
}

func daysLabel(start, end string) string {
	s, err1 := parseDate(start)
	e, err2 := parseDate(end)
	if err1 != nil || err2 != nil || e.Before(s) {
		return "Days required: —"
	}
	return fmt.Sprintf("Days required: %d", store.Task{StartDate: s, EndDate: e}.DaysRequired())
}

// taskFromForm applies form values on top of base.
func taskFromForm(base store.Task, name, desc, start, end string, status store.Status) (store.Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return base, errors.New("name is required")
	}
	s, err := parseDate(start)
	if err != nil {
		return base, fmt.Errorf("start date: %w", err)
	}
	e, err := parseDate(end)
	if err != nil {
		return base, fmt.Errorf("end date: %w", err)
	}
	if e.Before(s) {
		return base, errors.New("end date is before start date")
	}
	base.Name = name
	base.Description = strings.TrimSpace(desc)
	base.StartDate = s
	base.EndDate = e
	base.Status = status
	return base, nil
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		t, err := taskFromForm(m.editing, *m.formName, *m.formDesc, *m.formStart, *m.formEnd, *m.formStatus)
		if err != nil {
			return m, func() tea.Msg { return statusMsg{text: err.Error(), isError: true} }
		}
		return m, m.save(t, m.formType == "edit")
	}

	return m, cmd
}

func (m tasksModel) save(t store.Task, edit bool) tea.Cmd {
	ts := m.tasks
	return func() tea.Msg {
		if edit {
			updated, err := ts.Edit(t)
			if err != nil {
				return errStatus("Edit", err)
			}
			if updated == nil {
				return statusMsg{text: fmt.Sprintf("Task %d no longer exists", t.ID), isError: true}
			}
			return taskSavedMsg{task: updated, verb: "Updated"}
		}
		added, err := ts.Add(t)
		if err != nil {
			return errStatus("Add", err)
		}
		return taskSavedMsg{task: added, verb: "Added"}
	}
}

func (m tasksModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Task")
		if m.formType == "edit" {
			title = titleStyle.Render(fmt.Sprintf("Edit Task #%d", m.editing.ID))
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}

	st := m.pipeline.State()

	var rows []string
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Tasks"), "  ",
		subtitleStyle.Render(fmt.Sprintf("status: %s  per page: %d  %d found", statusLabel(st.Status), st.PageSize, m.page.TotalItems)),
	))
	rows = append(rows, "")

	if m.searching || m.search.Value() != "" {
		rows = append(rows, m.search.View(), "")
	}

	if len(m.page.Tasks) == 0 {
		msg := "No tasks yet. Press n to create one."
		if st.SearchTerm != "" || st.Status != query.AnyStatus {
			msg = "No tasks match."
		}
		rows = append(rows, mutedStyle.Render(msg))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	nameW := max(min(w-52, 40), 12)
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-5s %-*s %-10s %-10s %-10s %5s", "ID", nameW, "Name", "Status", "Start", "End", "Days")))

	for i, t := range m.page.Tasks {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		status := pendingStyle.Render(fmt.Sprintf("%-10s", t.Status))
		if t.Status == store.StatusCompleted {
			status = completedStyle.Render(fmt.Sprintf("%-10s", t.Status))
		}
		rows = append(rows, fmt.Sprintf("%s %s %-10s %-10s %5d",
			style.Render(fmt.Sprintf("%s%-5d %-*s", cursor, t.ID, nameW, truncate(t.Name, nameW))),
			status,
			formatDate(t.StartDate),
			formatDate(t.EndDate),
			t.DaysRequired(),
		))
	}

	if t, ok := m.selected(); ok && t.Description != "" {
		rows = append(rows, "", mutedStyle.Render("  "+truncate(t.Description, max(w-6, 10))))
	}

	rows = append(rows, "")
	if m.page.TotalPages > 1 {
		rows = append(rows, fmt.Sprintf("  %s  %s", m.pager.View(),
			mutedStyle.Render(fmt.Sprintf("page %d of %d", m.page.Number, m.page.TotalPages))))
	}
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  space: toggle  d: delete  /: search  f: filter  s: size"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func statusLabel(s store.Status) string {
	if s == query.AnyStatus {
		return "all"
	}
	return string(s)
}
