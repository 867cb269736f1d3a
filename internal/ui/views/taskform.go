package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/api"
	"taskdeck/internal/board"
	"taskdeck/internal/models"
	"taskdeck/internal/ui/styles"
)

type formSubmittedMsg struct {
	task  models.Task
	isNew bool
}

type commentsLoadedMsg struct {
	taskID   int64
	comments []models.Comment
	err      error
}

type commentPostedMsg struct {
	taskID  int64
	comment models.Comment
	err     error
}

// form focus slots
const (
	formTitle = iota
	formDescription
	formStatus
	formPriority
	formDue
	formAssignee
	formReviewer
	formSubmit
	formFieldCount
)

// taskForm edits a new or existing task. Pickers cycle with left/right, text
// fields take input directly.
type taskForm struct {
	editing *models.Task
	users   []models.User

	title textinput.Model
	desc  textarea.Model
	due   textinput.Model

	statusIdx   int
	priorityIdx int
	assigneeIdx int // 0 is unassigned, i+1 is users[i]
	reviewerIdx int

	focusIdx int
	errMsg   string
}

func newTaskForm(users []models.User, editing *models.Task) *taskForm {
	title := textinput.New()
	title.Placeholder = "Task title"
	title.CharLimit = models.MaxTitleLen
	title.Focus()

	desc := textarea.New()
	desc.Placeholder = "Description (optional)"
	desc.CharLimit = models.MaxDescriptionLen
	desc.SetHeight(4)

	due := textinput.New()
	due.Placeholder = "YYYY-MM-DD"
	due.CharLimit = 10

	f := &taskForm{
		users:       users,
		editing:     editing,
		title:       title,
		desc:        desc,
		due:         due,
		priorityIdx: 1, // medium
	}

	if editing != nil {
		f.title.SetValue(editing.Title)
		f.desc.SetValue(editing.Description)
		if editing.DueDate != nil {
			f.due.SetValue(editing.DueDate.Format("2006-01-02"))
		}
		for i, s := range models.Statuses {
			if s == editing.Status {
				f.statusIdx = i
			}
		}
		for i, p := range models.Priorities {
			if p == editing.Priority {
				f.priorityIdx = i
			}
		}
		f.assigneeIdx = f.userIndex(editing.AssigneeID)
		f.reviewerIdx = f.userIndex(editing.ReviewerID)
	}
	return f
}

func (f *taskForm) userIndex(id *int64) int {
	if id == nil {
		return 0
	}
	for i, u := range f.users {
		if u.ID == *id {
			return i + 1
		}
	}
	return 0
}

func (f *taskForm) userAt(idx int) *int64 {
	if idx == 0 || idx > len(f.users) {
		return nil
	}
	id := f.users[idx-1].ID
	return &id
}

func (f *taskForm) updateFocus() {
	f.title.Blur()
	f.desc.Blur()
	f.due.Blur()
	switch f.focusIdx {
	case formTitle:
		f.title.Focus()
	case formDescription:
		f.desc.Focus()
	case formDue:
		f.due.Focus()
	}
}

// build assembles the task from the form fields, validating the date.
func (f *taskForm) build() (models.Task, error) {
	var t models.Task
	if f.editing != nil {
		t = *f.editing
	}
	t.Title = strings.TrimSpace(f.title.Value())
	t.Description = strings.TrimSpace(f.desc.Value())
	t.Status = models.Statuses[f.statusIdx]
	t.Priority = models.Priorities[f.priorityIdx]
	t.AssigneeID = f.userAt(f.assigneeIdx)
	t.ReviewerID = f.userAt(f.reviewerIdx)

	t.DueDate = nil
	if raw := strings.TrimSpace(f.due.Value()); raw != "" {
		due, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return t, fmt.Errorf("due date must be YYYY-MM-DD")
		}
		t.DueDate = &due
	}
	return t, nil
}

func (v *BoardView) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := v.form

	switch {
	case msg.String() == "esc":
		v.form = nil
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		f.focusIdx = (f.focusIdx + 1) % formFieldCount
		f.updateFocus()
		return v, textinput.Blink

	case msg.String() == "shift+tab":
		f.focusIdx = (f.focusIdx + formFieldCount - 1) % formFieldCount
		f.updateFocus()
		return v, textinput.Blink
	}

	switch f.focusIdx {
	case formStatus:
		if cycled := cyclePicker(msg, &f.statusIdx, len(models.Statuses)); cycled {
			return v, nil
		}
	case formPriority:
		if cycled := cyclePicker(msg, &f.priorityIdx, len(models.Priorities)); cycled {
			return v, nil
		}
	case formAssignee:
		if cycled := cyclePicker(msg, &f.assigneeIdx, len(f.users)+1); cycled {
			return v, nil
		}
	case formReviewer:
		if cycled := cyclePicker(msg, &f.reviewerIdx, len(f.users)+1); cycled {
			return v, nil
		}
	}

	if key.Matches(msg, v.keys.Enter) && f.focusIdx != formDescription {
		task, err := f.build()
		if err != nil {
			f.errMsg = err.Error()
			return v, nil
		}
		return v, func() tea.Msg {
			return formSubmittedMsg{task: task, isNew: f.editing == nil}
		}
	}

	var cmd tea.Cmd
	switch f.focusIdx {
	case formTitle:
		f.title, cmd = f.title.Update(msg)
	case formDescription:
		f.desc, cmd = f.desc.Update(msg)
	case formDue:
		f.due, cmd = f.due.Update(msg)
	}
	return v, cmd
}

// cyclePicker advances a picker index on left/right, reporting whether the
// key was consumed.
func cyclePicker(msg tea.KeyMsg, idx *int, n int) bool {
	switch msg.String() {
	case "left", "h":
		*idx = (*idx + n - 1) % n
		return true
	case "right", "l", " ":
		*idx = (*idx + 1) % n
		return true
	}
	return false
}

// submitForm stages the edited task optimistically and starts its commit.
func (v *BoardView) submitForm(msg formSubmittedMsg) (tea.Model, tea.Cmd) {
	var (
		p   *board.Pending
		err error
	)
	if msg.isNew {
		p, err = v.model.Create(msg.task)
	} else {
		p, err = v.model.Update(msg.task)
	}
	if err != nil {
		var ve *api.ValidationError
		if errors.As(err, &ve) && v.form != nil {
			v.form.errMsg = ve.Reason
			return v, nil
		}
		v.form = nil
		return v, v.setToast(err.Error(), toastError)
	}

	v.form = nil
	v.clampCursors()
	if p == nil {
		return v, nil
	}
	return v, v.commitCmd(p)
}

func (f *taskForm) render(s *styles.Styles) string {
	title := "New Task"
	if f.editing != nil {
		title = "Edit Task"
	}

	field := func(idx int, label, value string) string {
		style := s.Input
		if f.focusIdx == idx {
			style = s.InputFocused
		}
		return label + "\n" + style.Width(50).Render(value)
	}
	picker := func(idx int, label, value string) string {
		marker := "  "
		style := s.Input
		if f.focusIdx == idx {
			marker = "> "
			style = s.InputFocused
		}
		return marker + label + " " + style.Render(" ◂ "+value+" ▸ ")
	}

	assignee := "unassigned"
	if f.assigneeIdx > 0 {
		assignee = f.users[f.assigneeIdx-1].DisplayName()
	}
	reviewer := "none"
	if f.reviewerIdx > 0 {
		reviewer = f.users[f.reviewerIdx-1].DisplayName()
	}

	btn := s.Button
	if f.focusIdx == formSubmit {
		btn = s.ButtonFocused
	}

	rows := []string{
		s.Title.Render(title),
		"",
		field(formTitle, "Title:", f.title.View()),
		"",
		field(formDescription, "Description:", f.desc.View()),
		"",
		picker(formStatus, "Status:  ", models.Statuses[f.statusIdx].Label()),
		picker(formPriority, "Priority:", string(models.Priorities[f.priorityIdx])),
		"",
		field(formDue, "Due date:", f.due.View()),
		"",
		picker(formAssignee, "Assignee:", assignee),
		picker(formReviewer, "Reviewer:", reviewer),
		"",
		btn.Render(" Save "),
	}
	if f.errMsg != "" {
		rows = append(rows, "", s.ToastError.Render(f.errMsg))
	}
	rows = append(rows, "", s.Help.Render("tab next field • ←/→ change value • ↵ save • esc cancel"))

	return s.Popup.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// taskDetail shows one task with its comment thread.
type taskDetail struct {
	task     models.Task
	users    map[int64]models.User
	comments []models.Comment
	loading  bool
	loadErr  string
	posting  bool
	input    textinput.Model
}

func newTaskDetail(task models.Task, users map[int64]models.User) *taskDetail {
	input := textinput.New()
	input.Placeholder = "Add a comment..."
	input.CharLimit = models.MaxDescriptionLen
	input.Focus()

	return &taskDetail{
		task:    task,
		users:   users,
		loading: true,
		input:   input,
	}
}

func (d *taskDetail) handleAsync(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case commentsLoadedMsg:
		if msg.taskID != d.task.ID {
			return nil
		}
		d.loading = false
		if msg.err != nil {
			d.loadErr = "could not load comments"
			return nil
		}
		d.comments = msg.comments

	case commentPostedMsg:
		if msg.taskID != d.task.ID {
			return nil
		}
		d.posting = false
		if msg.err != nil {
			d.loadErr = "comment failed: " + msg.err.Error()
			return nil
		}
		d.loadErr = ""
		d.comments = append(d.comments, msg.comment)
		d.input.SetValue("")
	}
	return nil
}

func (v *BoardView) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := v.detail

	switch msg.String() {
	case "esc":
		v.detail = nil
		return v, nil
	case "enter":
		body := strings.TrimSpace(d.input.Value())
		if body == "" || d.posting {
			return v, nil
		}
		d.posting = true
		return v, v.postCommentCmd(d.task.ID, body)
	}

	var cmd tea.Cmd
	d.input, cmd = d.input.Update(msg)
	return v, cmd
}

func (v *BoardView) postCommentCmd(taskID int64, body string) tea.Cmd {
	gw := v.gw
	return func() tea.Msg {
		comment, err := gw.CreateComment(context.Background(), taskID, body)
		return commentPostedMsg{taskID: taskID, comment: comment, err: err}
	}
}

func (d *taskDetail) render(s *styles.Styles) string {
	t := d.task

	meta := fmt.Sprintf("%s · %s", t.Status.Label(), t.Priority)
	if t.DueDate != nil {
		meta += " · due " + t.DueDate.Format("2006-01-02")
	}
	if t.AssigneeID != nil {
		if u, ok := d.users[*t.AssigneeID]; ok {
			meta += " · assigned to " + u.DisplayName()
		}
	}
	if t.ReviewerID != nil {
		if u, ok := d.users[*t.ReviewerID]; ok {
			meta += " · reviewer " + u.DisplayName()
		}
	}
	if t.ReviewStatus != nil {
		meta += " · review " + string(*t.ReviewStatus)
	}

	rows := []string{
		s.Title.Render(truncate(t.Title, 60)),
		s.TitleMuted.Render(meta),
		"",
	}
	if t.Description != "" {
		rows = append(rows, lipgloss.NewStyle().Width(60).Render(t.Description), "")
	}

	rows = append(rows, s.LaneHeader.Render(fmt.Sprintf("Comments (%d)", len(d.comments))))
	switch {
	case d.loading:
		rows = append(rows, s.Help.Render("loading..."))
	case len(d.comments) == 0:
		rows = append(rows, s.Help.Render("no comments yet"))
	default:
		for _, c := range d.comments {
			author := c.Author.DisplayName()
			if author == "" {
				author = "unknown"
			}
			rows = append(rows,
				s.HelpKey.Render(author)+" "+s.Help.Render(c.CreatedAt.Format("Jan 2 15:04")),
				lipgloss.NewStyle().Width(60).Render(c.Body),
			)
		}
	}

	if d.loadErr != "" {
		rows = append(rows, "", s.ToastError.Render(d.loadErr))
	}

	rows = append(rows,
		"",
		s.InputFocused.Width(60).Render(d.input.View()),
		s.Help.Render("↵ post comment • esc close"),
	)

	return s.Popup.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// deleteConfirm holds the task pending a y/n answer.
type deleteConfirm struct {
	task models.Task
}
