package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/taskr/internal/store"
	"github.com/sadopc/taskr/internal/tasks"
)

// reportMonths is how many months the chart shows at once.
const reportMonths = 6

// monthCount is the number of tasks due in one month, split by status.
type monthCount struct {
	Month     time.Time // first day of the month
	Pending   int
	Completed int
}

// monthlyCounts groups tasks by the month of their end date, oldest first.
// Tasks without an end date are left out.
func monthlyCounts(list []store.Task) []monthCount {
	byMonth := make(map[time.Time]*monthCount)
	for _, t := range list {
		if t.EndDate.IsZero() {
			continue
		}
		m := time.Date(t.EndDate.Year(), t.EndDate.Month(), 1, 0, 0, 0, 0, time.UTC)
		mc, ok := byMonth[m]
		if !ok {
			mc = &monthCount{Month: m}
			byMonth[m] = mc
		}
		if t.Status == store.StatusCompleted {
			mc.Completed++
		} else {
			mc.Pending++
		}
	}

	out := make([]monthCount, 0, len(byMonth))
	for _, mc := range byMonth {
		out = append(out, *mc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

type reportsModel struct {
	tasks  *tasks.Store
	width  int
	height int

	all    []store.Task
	months []monthCount
	offset int // months scrolled back from the latest window

	chart barchart.Model
}

func newReportsModel(ts *tasks.Store) reportsModel {
	return reportsModel{
		tasks: ts,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	tasks []store.Task
}

func (r reportsModel) refresh() tea.Cmd {
	ts := r.tasks
	return func() tea.Msg {
		list, err := ts.List()
		if err != nil {
			return errStatus("Reports", err)
		}
		return reportsDataMsg{tasks: list}
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.all = msg.tasks
		r.months = monthlyCounts(msg.tasks)
		r.offset = min(r.offset, r.maxOffset())
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			if r.offset < r.maxOffset() {
				r.offset++
				r.buildChart()
			}
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
				r.buildChart()
			}
		}
	}
	return r, nil
}

func (r reportsModel) maxOffset() int {
	return max(len(r.months)-reportMonths, 0)
}

// window returns the months currently on screen.
func (r reportsModel) window() []monthCount {
	end := len(r.months) - r.offset
	start := max(end-reportMonths, 0)
	return r.months[start:end]
}

func (r *reportsModel) buildChart() {
	chartWidth := max(r.width-8, 20)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	pending := lipgloss.NewStyle().Foreground(colorWarning)
	completed := lipgloss.NewStyle().Foreground(colorSuccess)

	var bars []barchart.BarData
	for _, mc := range r.window() {
		bars = append(bars, barchart.BarData{
			Label: mc.Month.Format("Jan 06"),
			Values: []barchart.BarValue{
				{Name: "Completed", Value: float64(mc.Completed), Style: completed},
				{Name: "Pending", Value: float64(mc.Pending), Style: pending},
			},
		})
	}
	if len(bars) == 0 {
		bars = []barchart.BarData{{
			Label:  "",
			Values: []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}},
		}}
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	header := titleStyle.Render("Reports")
	if win := r.window(); len(win) > 0 {
		label := fmt.Sprintf("%s — %s", win[0].Month.Format("Jan 2006"), win[len(win)-1].Month.Format("Jan 2006"))
		header = lipgloss.JoinHorizontal(lipgloss.Bottom, header, "  ", mutedStyle.Render(label))
	}

	legend := "  " + successStyle.Render("●") + " Completed  " + warningStyle.Render("●") + " Pending"
	nav := mutedStyle.Render("  ←/→: scroll months")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", legend, "", r.renderTotals(w), "", nav,
		),
	)
}

func (r reportsModel) renderTotals(w int) string {
	if len(r.all) == 0 {
		return mutedStyle.Render("  No tasks yet")
	}

	var pending, completed, days int
	for _, t := range r.all {
		if t.Status == store.StatusCompleted {
			completed++
		} else {
			pending++
		}
		days += max(t.DaysRequired(), 0)
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-10s %10s %10s %10s", "Month", "Pending", "Completed", "Total")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 44))))
	for _, mc := range r.window() {
		rows = append(rows, fmt.Sprintf("  %-10s %10d %10d %10d",
			mc.Month.Format("Jan 2006"), mc.Pending, mc.Completed, mc.Pending+mc.Completed))
	}
	rows = append(rows, "")
	rows = append(rows, fmt.Sprintf("  %s %d  %s %d  %s %d  %s %d",
		subtitleStyle.Render("tasks"), len(r.all),
		subtitleStyle.Render("pending"), pending,
		subtitleStyle.Render("completed"), completed,
		subtitleStyle.Render("days planned"), days,
	))
	return strings.Join(rows, "\n")
}
