// Package query turns a task collection into the page shown to the user:
// case-insensitive name search, status filter and fixed-size pages, with
// search keystrokes debounced before they take effect.
package query

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sadopc/taskr/internal/store"
)

// AnyStatus disables the status filter.
const AnyStatus store.Status = ""

const (
	DefaultPageSize = 5
	DefaultDebounce = 300 * time.Millisecond
)

// PageSizes are the selectable page sizes.
var PageSizes = []int{5, 10, 20}

var ErrInvalidPageSize = errors.New("invalid page size")

// ValidPageSize reports whether n is one of PageSizes.
func ValidPageSize(n int) bool {
	for _, s := range PageSizes {
		if s == n {
			return true
		}
	}
	return false
}

// Page is one slice of the filtered tasks.
type Page struct {
	Tasks      []store.Task
	Number     int // 1-based
	Size       int
	TotalPages int
	TotalItems int // after filtering
}

// Filter keeps tasks whose name contains term, ignoring case, and whose
// status equals status unless it is AnyStatus.
func Filter(tasks []store.Task, term string, status store.Status) []store.Task {
	term = strings.ToLower(term)
	var out []store.Task
	for _, t := range tasks {
		if !strings.Contains(strings.ToLower(t.Name), term) {
			continue
		}
		if status != AnyStatus && t.Status != status {
			continue
		}
		out = append(out, t)
	}
	return out
}

// TotalPages is ceil(n/size); 0 for no items.
func TotalPages(n, size int) int {
	if n == 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Paginate returns page number (1-based) of filtered. A page past the end
// yields no tasks rather than an error.
func Paginate(filtered []store.Task, number, size int) Page {
	p := Page{
		Number:     number,
		Size:       size,
		TotalPages: TotalPages(len(filtered), size),
		TotalItems: len(filtered),
	}
	if size <= 0 || number < 1 {
		return p
	}
	start := (number - 1) * size
	if start >= len(filtered) {
		return p
	}
	end := min(start+size, len(filtered))
	p.Tasks = append([]store.Task(nil), filtered[start:end]...)
	return p
}

// Editor persists an edited task and returns the stored record, or nil when
// the task no longer exists.
type Editor interface {
	Edit(updated store.Task) (*store.Task, error)
}

// State is the user-facing query state.
type State struct {
	SearchTerm  string
	Status      store.Status
	PageSize    int
	CurrentPage int
}

// Pipeline holds the cached task collection and query state. Methods are safe
// to call from the UI goroutine while debounced search updates arrive from a
// timer goroutine.
type Pipeline struct {
	editor   Editor
	debounce time.Duration
	onChange func(Page)

	mu    sync.Mutex
	tasks []store.Task
	state State
	page  Page

	search *Debouncer
}

type Option func(*Pipeline)

// WithDebounce sets the search quiet period.
func WithDebounce(d time.Duration) Option {
	return func(p *Pipeline) { p.debounce = d }
}

// WithPageSize sets the initial page size; invalid sizes are ignored.
func WithPageSize(n int) Option {
	return func(p *Pipeline) {
		if ValidPageSize(n) {
			p.state.PageSize = n
		}
	}
}

// WithOnChange registers fn to receive the page produced by each effective
// debounced search update. fn runs on the timer goroutine.
func WithOnChange(fn func(Page)) Option {
	return func(p *Pipeline) { p.onChange = fn }
}

func New(editor Editor, opts ...Option) *Pipeline {
	p := &Pipeline{
		editor:   editor,
		debounce: DefaultDebounce,
		state: State{
			Status:      AnyStatus,
			PageSize:    DefaultPageSize,
			CurrentPage: 1,
		},
	}
	for _, o := range opts {
		o(p)
	}
	p.search = NewDebouncer(p.debounce, p.applySearch)
	p.refresh()
	return p
}

// refresh recomputes the current page. Caller holds mu or owns p exclusively.
func (p *Pipeline) refresh() Page {
	filtered := Filter(p.tasks, p.state.SearchTerm, p.state.Status)
	p.page = Paginate(filtered, p.state.CurrentPage, p.state.PageSize)
	return p.page
}

func (p *Pipeline) clampPage(n int) int {
	filtered := Filter(p.tasks, p.state.SearchTerm, p.state.Status)
	last := max(1, TotalPages(len(filtered), p.state.PageSize))
	return min(max(n, 1), last)
}

// Load replaces the cached tasks, keeping the current page when it still
// exists.
func (p *Pipeline) Load(tasks []store.Task) Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append([]store.Task(nil), tasks...)
	p.state.CurrentPage = p.clampPage(p.state.CurrentPage)
	return p.refresh()
}

// PushSearch feeds a raw keystroke value into the debounced search stream.
func (p *Pipeline) PushSearch(raw string) {
	p.search.Push(raw)
}

func (p *Pipeline) applySearch(term string) {
	page := p.SetSearchTerm(term)
	if p.onChange != nil {
		p.onChange(page)
	}
}

// SetSearchTerm applies term immediately and returns to the first page.
func (p *Pipeline) SetSearchTerm(term string) Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.SearchTerm = term
	p.state.CurrentPage = 1
	return p.refresh()
}

// SetStatus changes the status filter and returns to the first page.
func (p *Pipeline) SetStatus(status store.Status) Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Status = status
	p.state.CurrentPage = 1
	return p.refresh()
}

// SetPageSize changes the page size and returns to the first page.
func (p *Pipeline) SetPageSize(n int) (Page, error) {
	if !ValidPageSize(n) {
		return p.Current(), fmt.Errorf("%w: %d (want one of %v)", ErrInvalidPageSize, n, PageSizes)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.PageSize = n
	p.state.CurrentPage = 1
	return p.refresh(), nil
}

// SetPage moves to page n, clamped to the pages that exist.
func (p *Pipeline) SetPage(n int) Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.CurrentPage = p.clampPage(n)
	return p.refresh()
}

func (p *Pipeline) NextPage() Page {
	return p.SetPage(p.State().CurrentPage + 1)
}

func (p *Pipeline) PrevPage() Page {
	return p.SetPage(p.State().CurrentPage - 1)
}

// ToggleStatus flips task between Pending and Completed, saves it through
// the editor and updates the cached copy with the stored record. The
// current page is clamped when the task drops out of the filter. A nil
// result means the task no longer exists; the cache is left as is.
func (p *Pipeline) ToggleStatus(task store.Task) (*store.Task, error) {
	task.Status = task.Status.Toggled()
	updated, err := p.editor.Edit(task)
	if err != nil {
		return nil, fmt.Errorf("toggle status: %w", err)
	}
	if updated == nil {
		return nil, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.tasks {
		if p.tasks[i].ID == updated.ID {
			p.tasks[i] = *updated
		}
	}
	p.state.CurrentPage = p.clampPage(p.state.CurrentPage)
	p.refresh()
	return updated, nil
}

// Current returns the most recently computed page.
func (p *Pipeline) Current() Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}
