package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"taskora/internal/apiclient"
	"taskora/internal/domain"
)

// TaskAPI is the subset of apiclient.Client the model drives.
type TaskAPI interface {
	ListTasks(ctx context.Context) ([]domain.Task, error)
	CreateTask(ctx context.Context, in apiclient.TaskInput) (*domain.Task, error)
	UpdateTask(ctx context.Context, id string, in apiclient.TaskInput) (*domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// ErrBusy is returned when a save or load is already in flight.
var ErrBusy = errors.New("a request is already in flight")

const (
	MsgLoadFailed    = "Unable to load tasks. Ensure the API server is reachable."
	MsgTitleRequired = "Title is required."
	MsgDuplicate     = "A task with this title already exists."
	MsgUnreachable   = "Unable to reach the task API."

	ToastCreated = "Task created"
	ToastUpdated = "Task updated"
	ToastDeleted = "Task deleted"

	toastTTL = 2200 * time.Millisecond
)

const FilterAll = "all"

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Form is the shared create/edit form. Status holds the wire name.
type Form struct {
	Title       string
	Description string
	Status      string
}

func emptyForm() Form {
	return Form{Status: domain.StatusPending.String()}
}

// Counts are taken over all loaded tasks, not the visible ones.
type Counts struct {
	Total      int
	Pending    int
	InProgress int
	Completed  int
}

// Model is the console's view-model. It is safe for concurrent use; the
// event watcher reloads from its own goroutine.
type Model struct {
	api TaskAPI
	now func() time.Time

	mu        sync.Mutex
	tasks     []domain.Task
	loadGen   uint64
	loading   bool
	saving    bool
	errMsg    string
	toast     string
	toastAt   time.Time
	theme     Theme
	form      Form
	mode      Mode
	editingID string
	filter    string
	search    string
}

// NewModel starts in the loading state until the first Load returns.
func NewModel(api TaskAPI) *Model {
	return &Model{
		api:     api,
		now:     time.Now,
		loading: true,
		theme:   ThemeLight,
		form:    emptyForm(),
		filter:  FilterAll,
	}
}

func (m *Model) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// Load re-fetches the whole collection. On failure the previous list is kept
// and the load error banner is shown. When loads overlap only the most
// recently started one updates the model.
func (m *Model) Load(ctx context.Context) error {
	m.mu.Lock()
	m.loadGen++
	gen := m.loadGen
	m.loading = true
	m.errMsg = ""
	m.mu.Unlock()

	tasks, err := m.api.ListTasks(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.loadGen {
		return nil
	}
	m.loading = false
	if err != nil {
		m.errMsg = MsgLoadFailed
		return err
	}
	m.tasks = tasks
	return nil
}

func (m *Model) SetFilter(filter string) error {
	if filter != FilterAll {
		if _, err := domain.ParseStatus(filter); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.filter = filter
	m.mu.Unlock()
	return nil
}

func (m *Model) SetSearch(text string) {
	m.mu.Lock()
	m.search = text
	m.mu.Unlock()
}

func (m *Model) SetTitle(title string) {
	m.mu.Lock()
	m.form.Title = title
	m.mu.Unlock()
}

func (m *Model) SetDescription(desc string) {
	m.mu.Lock()
	m.form.Description = desc
	m.mu.Unlock()
}

func (m *Model) SetStatus(status string) error {
	if _, err := domain.ParseStatus(status); err != nil {
		return err
	}
	m.mu.Lock()
	m.form.Status = status
	m.mu.Unlock()
	return nil
}

// Edit loads the task with the given id into the form and switches to edit mode.
func (m *Model) Edit(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == id {
			m.mode = ModeEdit
			m.editingID = id
			m.form = Form{Title: t.Title, Description: t.Description, Status: t.Status.String()}
			return nil
		}
	}
	return domain.ErrTaskNotFound
}

func (m *Model) ResetForm() {
	m.mu.Lock()
	m.resetFormLocked()
	m.mu.Unlock()
}

func (m *Model) resetFormLocked() {
	m.form = emptyForm()
	m.mode = ModeCreate
	m.editingID = ""
}

func (m *Model) ToggleTheme() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.theme == ThemeDark {
		m.theme = ThemeLight
	} else {
		m.theme = ThemeDark
	}
}

// Submit creates or updates from the form. Local checks run against the
// loaded tasks only; the server has the final word.
func (m *Model) Submit(ctx context.Context) error {
	m.mu.Lock()
	if m.saving || m.loading {
		m.mu.Unlock()
		return ErrBusy
	}

	title := strings.TrimSpace(m.form.Title)
	if title == "" {
		m.errMsg = MsgTitleRequired
		m.mu.Unlock()
		return domain.ErrTitleRequired
	}
	key := domain.TitleKey(title)
	for _, t := range m.tasks {
		if domain.TitleKey(t.Title) == key && !(m.mode == ModeEdit && t.ID == m.editingID) {
			m.errMsg = MsgDuplicate
			m.mu.Unlock()
			return domain.ErrDuplicateTitle
		}
	}

	in := apiclient.TaskInput{
		Title:       title,
		Description: strings.TrimSpace(m.form.Description),
		Status:      m.form.Status,
	}
	editing := m.mode == ModeEdit && m.editingID != ""
	id := m.editingID
	m.saving = true
	m.errMsg = ""
	m.mu.Unlock()

	var err error
	if editing {
		_, err = m.api.UpdateTask(ctx, id, in)
	} else {
		_, err = m.api.CreateTask(ctx, in)
	}
	if err != nil {
		m.finishSave(errorMessage(err))
		return err
	}

	_ = m.Load(ctx)

	m.mu.Lock()
	if editing {
		m.setToastLocked(ToastUpdated)
	} else {
		m.setToastLocked(ToastCreated)
	}
	m.resetFormLocked()
	m.saving = false
	m.mu.Unlock()
	return nil
}

// Delete removes a task. Deleting the task being edited resets the form.
func (m *Model) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	if m.saving {
		m.mu.Unlock()
		return ErrBusy
	}
	m.saving = true
	m.errMsg = ""
	m.mu.Unlock()

	if err := m.api.DeleteTask(ctx, id); err != nil {
		m.finishSave(errorMessage(err))
		return err
	}

	_ = m.Load(ctx)

	m.mu.Lock()
	m.setToastLocked(ToastDeleted)
	if m.editingID == id {
		m.resetFormLocked()
	}
	m.saving = false
	m.mu.Unlock()
	return nil
}

func (m *Model) finishSave(msg string) {
	m.mu.Lock()
	m.errMsg = msg
	m.saving = false
	m.mu.Unlock()
}

func (m *Model) setToastLocked(msg string) {
	m.toast = msg
	m.toastAt = m.now()
}

// errorMessage picks the text shown in the error banner.
func errorMessage(err error) string {
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, apiclient.ErrUnreachable):
		return MsgUnreachable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return MsgUnreachable
	default:
		return fmt.Sprintf("Request failed: %v", err)
	}
}

// View is a consistent snapshot of everything the renderer shows.
type View struct {
	Tasks     []domain.Task // visible after filter and search
	Counts    Counts
	Loading   bool
	Saving    bool
	Error     string
	Toast     string
	Theme     Theme
	Form      Form
	Mode      Mode
	EditingID string
	Filter    string
	Search    string
}

func (m *Model) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := View{
		Tasks:     m.visibleLocked(),
		Counts:    m.countsLocked(),
		Loading:   m.loading,
		Saving:    m.saving,
		Error:     m.errMsg,
		Theme:     m.theme,
		Form:      m.form,
		Mode:      m.mode,
		EditingID: m.editingID,
		Filter:    m.filter,
		Search:    m.search,
	}
	if m.toast != "" && m.now().Sub(m.toastAt) < toastTTL {
		v.Toast = m.toast
	}
	return v
}

// Visible returns the tasks matching the status filter and search text.
func (m *Model) Visible() []domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visibleLocked()
}

func (m *Model) visibleLocked() []domain.Task {
	needle := strings.ToLower(strings.TrimSpace(m.search))
	out := make([]domain.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if m.filter != FilterAll && t.Status.String() != m.filter {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (m *Model) countsLocked() Counts {
	c := Counts{Total: len(m.tasks)}
	for _, t := range m.tasks {
		switch t.Status {
		case domain.StatusPending:
			c.Pending++
		case domain.StatusInProgress:
			c.InProgress++
		case domain.StatusCompleted:
			c.Completed++
		}
	}
	return c
}

// Subtitle is the line above the task list.
func (v View) Subtitle() string {
	switch {
	case v.Loading:
		return "Loading tasks from API…"
	case v.Counts.Total == 0:
		return "No tasks yet. Start by adding one."
	default:
		return fmt.Sprintf("Showing %d of %d tasks.", len(v.Tasks), v.Counts.Total)
	}
}

// EmptyState is shown in place of the list when nothing is visible.
func (v View) EmptyState() string {
	if v.Loading {
		return "Connecting to your API…"
	}
	return "Nothing to show yet"
}

func (v View) FormTitle() string {
	if v.Mode == ModeEdit {
		return "Update Task"
	}
	return "Add New Task"
}

func (v View) SubmitLabel() string {
	switch {
	case v.Saving:
		return "Saving…"
	case v.Mode == ModeEdit:
		return "Update Task"
	default:
		return "Add Task"
	}
}
