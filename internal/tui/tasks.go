package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusflow/internal/pomodoro"
)

type tasksModel struct {
	svc    pomodoro.TaskService
	width  int
	height int

	tasks    []pomodoro.Task
	cursor   int
	loaded   bool

	formActive bool
	form       *huh.Form
	formType   string // "task", "delete"

	// Form field pointers (survive value copies)
	formTitle   *string
	formDesc    *string
	formConfirm *bool
	deletingID  int64
}

func newTasksModel(svc pomodoro.TaskService) tasksModel {
	title, desc, confirm := "", "", false
	return tasksModel{
		svc:         svc,
		formTitle:   &title,
		formDesc:    &desc,
		formConfirm: &confirm,
	}
}

func (t *tasksModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

type tasksDataMsg struct {
	tasks []pomodoro.Task
	err   error
}

// taskChangedMsg reports a finished task write. gone is set when the task
// left the open list, so a selection pointing at it must be dropped.
type taskChangedMsg struct {
	op   string
	id   int64
	gone bool
	err  error
}

func (t tasksModel) refresh() tea.Cmd {
	svc := t.svc
	return func() tea.Msg {
		tasks, err := svc.ListTasks(context.Background(), false)
		return tasksDataMsg{tasks: tasks, err: err}
	}
}

func (t tasksModel) current() *pomodoro.Task {
	if t.cursor < 0 || t.cursor >= len(t.tasks) {
		return nil
	}
	return &t.tasks[t.cursor]
}

func (t tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		if msg.err != nil {
			return t, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Load tasks: %v", msg.err), isError: true}
			}
		}
		t.tasks = msg.tasks
		t.loaded = true
		if t.cursor >= len(t.tasks) {
			t.cursor = max(0, len(t.tasks)-1)
		}
		return t, nil

	case taskChangedMsg:
		if msg.err != nil {
			return t, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("%s: %v", msg.op, msg.err), isError: true}
			}
		}
		return t, t.refresh()

	case tea.KeyMsg:
		return t.updateList(msg)
	}
	return t, nil
}

func (t tasksModel) updateList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if t.cursor > 0 {
			t.cursor--
		}
	case key.Matches(msg, keys.Down):
		if t.cursor < len(t.tasks)-1 {
			t.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if task := t.current(); task != nil {
			picked := *task
			return t, func() tea.Msg { return taskSelectedMsg{task: &picked} }
		}
	case key.Matches(msg, keys.Clear):
		return t, func() tea.Msg { return taskSelectedMsg{} }
	case key.Matches(msg, keys.New):
		return t.showNewTaskForm()
	case key.Matches(msg, keys.Done):
		if task := t.current(); task != nil {
			return t, t.complete(*task)
		}
	case key.Matches(msg, keys.Delete):
		if task := t.current(); task != nil {
			return t.showDeleteForm(*task)
		}
	}
	return t, nil
}

func (t tasksModel) complete(task pomodoro.Task) tea.Cmd {
	svc := t.svc
	return func() tea.Msg {
		_, err := svc.UpdateTask(context.Background(), task.ID, pomodoro.TaskUpdate{
			Completed: pomodoro.Ptr(true),
		})
		return taskChangedMsg{op: "Complete task", id: task.ID, gone: true, err: err}
	}
}

func (t tasksModel) create(title, desc string) tea.Cmd {
	svc := t.svc
	in := pomodoro.TaskCreate{Title: strings.TrimSpace(title)}
	if d := strings.TrimSpace(desc); d != "" {
		in.Description = &d
	}
	return func() tea.Msg {
		task, err := svc.CreateTask(context.Background(), in)
		if err != nil {
			return taskChangedMsg{op: "Create task", err: err}
		}
		return taskChangedMsg{op: "Create task", id: task.ID}
	}
}

func (t tasksModel) remove(id int64) tea.Cmd {
	svc := t.svc
	return func() tea.Msg {
		err := svc.DeleteTask(context.Background(), id)
		return taskChangedMsg{op: "Delete task", id: id, gone: true, err: err}
	}
}

func (t tasksModel) showNewTaskForm() (tasksModel, tea.Cmd) {
	*t.formTitle = ""
	*t.formDesc = ""
	t.formType = "task"

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(t.formTitle).
				CharLimit(200).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewText().Title("Description (optional)").Value(t.formDesc),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t tasksModel) showDeleteForm(task pomodoro.Task) (tasksModel, tea.Cmd) {
	*t.formConfirm = false
	t.formType = "delete"
	t.deletingID = task.ID

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", task.Title)).
				Affirmative("Delete").
				Negative("Keep").
				Value(t.formConfirm),
		),
	).WithShowHelp(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	switch t.form.State {
	case huh.StateCompleted:
		t.formActive = false
		switch t.formType {
		case "task":
			if strings.TrimSpace(*t.formTitle) != "" {
				return t, t.create(*t.formTitle, *t.formDesc)
			}
		case "delete":
			if *t.formConfirm {
				return t, t.remove(t.deletingID)
			}
		}
		return t, nil
	case huh.StateAborted:
		t.formActive = false
		t.form = nil
		return t, nil
	}

	return t, cmd
}

func (t tasksModel) view(selected *int64) string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		title := titleStyle.Render("New Task")
		if t.formType == "delete" {
			title = titleStyle.Render("Delete Task")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", t.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Tasks")

	if len(t.tasks) == 0 {
		empty := "No open tasks. Press n to create one."
		if !t.loaded {
			empty = "Loading..."
		}
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render(empty),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for i, task := range t.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		mark := mutedStyle.Render("○")
		if selected != nil && *selected == task.ID {
			mark = accentStyle.Render("●")
		}
		desc := ""
		if task.Description != nil && *task.Description != "" {
			desc = mutedStyle.Render("  " + firstLine(*task.Description))
		}
		rows = append(rows, fmt.Sprintf("%s %s", mark, style.Render(cursor+task.Title))+desc)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: work on  u: unselect  n: new  c: complete  d: delete"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + "…"
	}
	return s
}
