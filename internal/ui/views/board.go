package views

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/api"
	"taskdeck/internal/assistant"
	"taskdeck/internal/board"
	"taskdeck/internal/drag"
	"taskdeck/internal/models"
	"taskdeck/internal/session"
	"taskdeck/internal/store"
	"taskdeck/internal/ui/keys"
	"taskdeck/internal/ui/styles"
)

// LoggedOut signals that the user ended their session.
type LoggedOut struct{}

type tasksLoadedMsg struct {
	tasks []models.Task
}

type snapshotLoadedMsg struct {
	tasks []models.Task
}

type loadFailedMsg struct {
	err error
}

type usersLoadedMsg struct {
	users  []models.User
	cached bool
}

type commitResultMsg struct {
	res board.Result
}

type aiHealthMsg struct {
	online bool
}

type toastClearMsg struct {
	seq int
}

type toastKind int

const (
	toastError toastKind = iota
	toastSuccess
	toastInfo
)

// card and lane geometry, shared by rendering and mouse hit-testing
const (
	boardTop   = 3 // header, status line, blank
	cardHeight = 2
	laneGap    = 1
)

// BoardView is the kanban surface: four lanes, cursor navigation, drag and
// drop, the task form and detail overlays, and the assistant panel.
type BoardView struct {
	gw   *api.Client
	st   *store.Store
	sess *session.Session

	model *board.Model
	drag  *drag.Controller
	chat  *ChatView

	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	loading    bool
	liveLoaded bool

	users    map[int64]models.User
	userList []models.User

	laneIdx int
	cursor  [4]int
	scroll  [4]int

	listMode   bool
	listCursor int

	searching   bool
	searchInput textinput.Model
	query       string

	chatOpen bool
	aiOnline bool

	form    *taskForm
	detail  *taskDetail
	confirm *deleteConfirm

	showHelp bool

	toast     string
	toastKind toastKind
	toastSeq  int
}

// NewBoardView creates the board for an authenticated session.
func NewBoardView(gw *api.Client, st *store.Store, sess *session.Session) *BoardView {
	search := textinput.New()
	search.Placeholder = "search tasks..."
	search.CharLimit = 100

	return &BoardView{
		gw:          gw,
		st:          st,
		sess:        sess,
		model:       board.NewModel(gw),
		drag:        drag.NewController(),
		chat:        NewChatView(gw),
		styles:      styles.NewStyles(),
		keys:        keys.DefaultKeyMap(),
		loading:     true,
		users:       map[int64]models.User{},
		searchInput: search,
	}
}

func (v *BoardView) Init() tea.Cmd {
	return tea.Batch(
		v.loadSnapshotCmd(),
		v.loadTasksCmd(),
		v.loadUsersCmd(),
		v.aiHealthCmd(),
	)
}

func (v *BoardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.chat.setSize(msg.Width, msg.Height)
		return v, nil

	case snapshotLoadedMsg:
		// Stale paint only; a live load may already have landed.
		if !v.liveLoaded {
			v.model.Replace(msg.tasks)
			v.clampCursors()
		}
		return v, nil

	case tasksLoadedMsg:
		v.liveLoaded = true
		v.loading = false
		v.model.Replace(msg.tasks)
		v.drag.Cancel()
		v.clampCursors()
		return v, v.saveSnapshotCmd(msg.tasks)

	case loadFailedMsg:
		v.loading = false
		if v.liveLoaded {
			return v, v.setToast("reload failed: "+msg.err.Error(), toastError)
		}
		return v, v.setToast("could not load tasks: "+msg.err.Error()+" (showing cached board)", toastError)

	case usersLoadedMsg:
		v.userList = msg.users
		v.users = map[int64]models.User{}
		for _, u := range msg.users {
			v.users[u.ID] = u
		}
		if msg.cached {
			return v, v.setToast("user list unavailable, using cached names", toastInfo)
		}
		return v, nil

	case aiHealthMsg:
		v.aiOnline = msg.online
		v.chat.setOnline(msg.online)
		return v, nil

	case commitResultMsg:
		return v.resolveCommit(msg.res)

	case assistantEffectMsg:
		return v.applyEffect(msg.effect)

	case chatReplyMsg, chatOutcomeMsg:
		cmd := v.chat.handleAsync(msg)
		return v, cmd

	case commentsLoadedMsg, commentPostedMsg:
		if v.detail != nil {
			return v, v.detail.handleAsync(msg)
		}
		return v, nil

	case formSubmittedMsg:
		return v.submitForm(msg)

	case toastClearMsg:
		if msg.seq == v.toastSeq {
			v.toast = ""
		}
		return v, nil

	case tea.MouseMsg:
		if v.chatOpen || v.form != nil || v.detail != nil || v.confirm != nil {
			return v, nil
		}
		return v.updateMouse(msg)

	case tea.KeyMsg:
		switch {
		case v.chatOpen:
			return v.updateChatKeys(msg)
		case v.form != nil:
			return v.updateForm(msg)
		case v.detail != nil:
			return v.updateDetail(msg)
		case v.confirm != nil:
			return v.updateConfirmDelete(msg)
		case v.searching:
			return v.updateSearch(msg)
		default:
			return v.updateNormal(msg)
		}
	}

	return v, nil
}

func (v *BoardView) updateChatKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	closed, cmd := v.chat.handleKey(msg)
	if closed {
		v.chatOpen = false
	}
	return v, cmd
}

// updateNormal handles keys when no mode or overlay is active.
func (v *BoardView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.showHelp {
		v.showHelp = false
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Quit):
		if v.drag.State() != drag.Idle {
			v.drag.Cancel()
			return v, nil
		}
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		if v.drag.State() != drag.Idle {
			v.drag.Cancel()
			return v, nil
		}
		if v.query != "" {
			v.query = ""
			v.searchInput.SetValue("")
			v.clampCursors()
		}
		return v, nil

	case key.Matches(msg, v.keys.Help):
		v.showHelp = true
		return v, nil

	case msg.String() == "ctrl+l":
		if err := v.sess.End(); err != nil {
			return v, v.setToast("logout failed: "+err.Error(), toastError)
		}
		return v, func() tea.Msg { return LoggedOut{} }

	case key.Matches(msg, v.keys.Reload):
		v.loading = true
		return v, v.loadTasksCmd()

	case key.Matches(msg, v.keys.View):
		v.listMode = !v.listMode
		v.clampCursors()
		return v, nil

	case key.Matches(msg, v.keys.Search):
		v.searching = true
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Chat):
		v.chatOpen = true
		return v, v.chat.open()

	case key.Matches(msg, v.keys.New):
		v.form = newTaskForm(v.userList, nil)
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit):
		if t, ok := v.cursorTask(); ok {
			v.form = newTaskForm(v.userList, &t)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.Delete):
		if t, ok := v.cursorTask(); ok {
			v.confirm = &deleteConfirm{task: t}
		}
		return v, nil

	case key.Matches(msg, v.keys.Up):
		v.moveCursor(-1)
		return v, nil

	case key.Matches(msg, v.keys.Down):
		v.moveCursor(1)
		return v, nil

	case key.Matches(msg, v.keys.Left):
		v.changeLane(-1)
		return v, nil

	case key.Matches(msg, v.keys.Right):
		v.changeLane(1)
		return v, nil

	case key.Matches(msg, v.keys.Grab):
		return v, v.toggleGrab()

	case key.Matches(msg, v.keys.Enter):
		if v.drag.State() != drag.Idle {
			return v, v.toggleGrab()
		}
		if t, ok := v.cursorTask(); ok {
			v.detail = newTaskDetail(t, v.users)
			return v, tea.Batch(v.loadCommentsCmd(t.ID), textinput.Blink)
		}
		return v, nil
	}

	return v, nil
}

// toggleGrab starts a keyboard drag on the cursor task, or releases one.
func (v *BoardView) toggleGrab() tea.Cmd {
	if v.listMode {
		return nil
	}
	if v.drag.State() == drag.Idle {
		t, ok := v.cursorTask()
		if !ok {
			return nil
		}
		v.drag.Press(t.ID, t.Status)
		v.drag.HoverLane(t.Status)
		return nil
	}

	move := v.drag.Release()
	if move == nil {
		return nil
	}
	return v.startMove(*move)
}

// startMove stages a lane transition and kicks off its commit.
func (v *BoardView) startMove(move drag.Move) tea.Cmd {
	p, err := v.model.Move(move.TaskID, move.To)
	if err != nil {
		return v.setToast(err.Error(), toastError)
	}
	if p == nil {
		return nil // same lane
	}
	v.clampCursors()
	return v.commitCmd(p)
}

func (v *BoardView) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.searching = false
		v.searchInput.Blur()
		v.searchInput.SetValue("")
		v.query = ""
		v.clampCursors()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		v.searching = false
		v.searchInput.Blur()
		return v, nil
	}

	var cmd tea.Cmd
	v.searchInput, cmd = v.searchInput.Update(msg)
	v.query = strings.TrimSpace(v.searchInput.Value())
	v.clampCursors()
	return v, cmd
}

func (v *BoardView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		task := v.confirm.task
		v.confirm = nil
		p, err := v.model.Delete(task.ID)
		if err != nil {
			return v, v.setToast(err.Error(), toastError)
		}
		v.clampCursors()
		return v, v.commitCmd(p)
	case "n", "N", "esc":
		v.confirm = nil
		return v, nil
	}
	return v, nil
}

// updateMouse translates pointer events into drag controller transitions.
func (v *BoardView) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if v.listMode {
		return v, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return v, nil
		}
		if t, lane, ok := v.cardAt(msg.X, msg.Y); ok {
			v.laneIdx = lane
			v.cursor[lane] = v.indexInLane(lane, t.ID)
			v.drag.Press(t.ID, t.Status)
		} else if lane, ok := v.laneAt(msg.X, msg.Y); ok {
			v.laneIdx = lane
		}
		return v, nil

	case tea.MouseActionMotion:
		if v.drag.State() == drag.Idle {
			return v, nil
		}
		if lane, ok := v.laneAt(msg.X, msg.Y); ok {
			v.drag.HoverLane(models.Statuses[lane])
		} else {
			v.drag.HoverOutside()
		}
		return v, nil

	case tea.MouseActionRelease:
		if v.drag.State() == drag.Idle {
			return v, nil
		}
		if lane, ok := v.laneAt(msg.X, msg.Y); ok {
			v.drag.HoverLane(models.Statuses[lane])
		} else {
			v.drag.HoverOutside()
		}
		move := v.drag.Release()
		if move == nil {
			return v, nil
		}
		return v, v.startMove(*move)
	}

	return v, nil
}

// resolveCommit feeds a finished network call back into the board model and
// chains the next queued mutation for the same task, if any.
func (v *BoardView) resolveCommit(res board.Result) (tea.Model, tea.Cmd) {
	next, err := v.model.Resolve(res)
	v.clampCursors()

	var cmds []tea.Cmd
	if next != nil {
		cmds = append(cmds, v.commitCmd(next))
	}
	if err != nil {
		var me *board.MutationError
		if errors.As(err, &me) {
			cmds = append(cmds, v.setToast(fmt.Sprintf("%q: %v", me.TaskTitle, me.Err), toastError))
		} else {
			cmds = append(cmds, v.setToast(err.Error(), toastError))
		}
	}
	return v, tea.Batch(cmds...)
}

// applyEffect applies a server-authoritative assistant result to the board.
func (v *BoardView) applyEffect(eff assistant.Effect) (tea.Model, tea.Cmd) {
	switch eff.Kind {
	case assistant.EffectUpsert:
		if eff.Task != nil {
			v.model.UpsertRemote(*eff.Task)
			v.clampCursors()
		}
		return v, nil
	case assistant.EffectRemove:
		v.model.RemoveRemote(eff.RemoveID)
		v.clampCursors()
		return v, nil
	case assistant.EffectReload:
		return v, v.loadTasksCmd()
	}
	return v, nil
}

// Commands

func (v *BoardView) loadTasksCmd() tea.Cmd {
	mdl := v.model
	return func() tea.Msg {
		tasks, err := mdl.Fetch(context.Background(), api.TaskFilter{})
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return tasksLoadedMsg{tasks: tasks}
	}
}

func (v *BoardView) loadSnapshotCmd() tea.Cmd {
	st := v.st
	return func() tea.Msg {
		tasks, err := st.Snapshot()
		if err != nil {
			log.Printf("snapshot load failed: %v", err)
			return nil
		}
		if len(tasks) == 0 {
			return nil
		}
		return snapshotLoadedMsg{tasks: tasks}
	}
}

func (v *BoardView) saveSnapshotCmd(tasks []models.Task) tea.Cmd {
	st := v.st
	return func() tea.Msg {
		if err := st.SaveSnapshot(tasks); err != nil {
			log.Printf("snapshot save failed: %v", err)
		}
		return nil
	}
}

func (v *BoardView) loadUsersCmd() tea.Cmd {
	gw, st := v.gw, v.st
	return func() tea.Msg {
		users, err := gw.Users(context.Background())
		if err == nil {
			if saveErr := st.SaveUsers(users); saveErr != nil {
				log.Printf("user cache save failed: %v", saveErr)
			}
			return usersLoadedMsg{users: users}
		}
		log.Printf("user list fetch failed, falling back to cache: %v", err)
		cached, cacheErr := st.CachedUsers()
		if cacheErr != nil || len(cached) == 0 {
			return usersLoadedMsg{}
		}
		return usersLoadedMsg{users: cached, cached: true}
	}
}

func (v *BoardView) aiHealthCmd() tea.Cmd {
	gw := v.gw
	return func() tea.Msg {
		health, err := gw.AIHealthCheck(context.Background())
		if err != nil {
			return aiHealthMsg{online: false}
		}
		return aiHealthMsg{online: health.Available()}
	}
}

func (v *BoardView) commitCmd(p *board.Pending) tea.Cmd {
	mdl := v.model
	return func() tea.Msg {
		return commitResultMsg{res: mdl.Commit(context.Background(), p)}
	}
}

func (v *BoardView) loadCommentsCmd(taskID int64) tea.Cmd {
	gw := v.gw
	return func() tea.Msg {
		comments, err := gw.TaskComments(context.Background(), taskID)
		return commentsLoadedMsg{taskID: taskID, comments: comments, err: err}
	}
}

func (v *BoardView) setToast(text string, kind toastKind) tea.Cmd {
	v.toast = text
	v.toastKind = kind
	v.toastSeq++
	seq := v.toastSeq
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return toastClearMsg{seq: seq}
	})
}

// Lane and cursor helpers

// lane returns the tasks of one lane after the search filter.
func (v *BoardView) lane(status models.Status) []models.Task {
	tasks := v.model.Lane(status)
	if v.query == "" {
		return tasks
	}
	q := strings.ToLower(v.query)
	var out []models.Task
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Description), q) {
			out = append(out, t)
		}
	}
	return out
}

// visible returns every task surviving the search filter in board order.
func (v *BoardView) visible() []models.Task {
	var out []models.Task
	for _, status := range models.Statuses {
		out = append(out, v.lane(status)...)
	}
	return out
}

func (v *BoardView) cursorTask() (models.Task, bool) {
	if v.listMode {
		tasks := v.visible()
		if v.listCursor < 0 || v.listCursor >= len(tasks) {
			return models.Task{}, false
		}
		return tasks[v.listCursor], true
	}
	lane := v.lane(models.Statuses[v.laneIdx])
	idx := v.cursor[v.laneIdx]
	if idx < 0 || idx >= len(lane) {
		return models.Task{}, false
	}
	return lane[idx], true
}

func (v *BoardView) indexInLane(lane int, taskID int64) int {
	for i, t := range v.lane(models.Statuses[lane]) {
		if t.ID == taskID {
			return i
		}
	}
	return 0
}

func (v *BoardView) moveCursor(delta int) {
	if v.listMode {
		v.listCursor = clamp(v.listCursor+delta, 0, max(len(v.visible())-1, 0))
		return
	}
	lane := v.lane(models.Statuses[v.laneIdx])
	v.cursor[v.laneIdx] = clamp(v.cursor[v.laneIdx]+delta, 0, max(len(lane)-1, 0))
	v.adjustScroll()
}

func (v *BoardView) changeLane(delta int) {
	if v.listMode {
		return
	}
	v.laneIdx = clamp(v.laneIdx+delta, 0, len(models.Statuses)-1)
	if v.drag.State() != drag.Idle {
		v.drag.HoverLane(models.Statuses[v.laneIdx])
	}
	v.clampCursors()
}

func (v *BoardView) clampCursors() {
	for i, status := range models.Statuses {
		n := len(v.lane(status))
		v.cursor[i] = clamp(v.cursor[i], 0, max(n-1, 0))
	}
	v.listCursor = clamp(v.listCursor, 0, max(len(v.visible())-1, 0))
	v.adjustScroll()
}

func (v *BoardView) adjustScroll() {
	visible := v.visibleCards()
	if visible < 1 {
		visible = 1
	}
	for i := range models.Statuses {
		if v.cursor[i] < v.scroll[i] {
			v.scroll[i] = v.cursor[i]
		}
		if v.cursor[i] >= v.scroll[i]+visible {
			v.scroll[i] = v.cursor[i] - visible + 1
		}
		if v.scroll[i] < 0 {
			v.scroll[i] = 0
		}
	}
}

// Geometry

// laneOuterWidth is a lane's full width including its border columns.
func (v *BoardView) laneOuterWidth() int {
	total := min(v.width, styles.MaxWidth)
	w := (total - laneGap*(len(models.Statuses)-1)) / len(models.Statuses)
	if w < 16 {
		w = 16
	}
	return w
}

// visibleCards is how many cards fit in a lane body.
func (v *BoardView) visibleCards() int {
	// border top + lane header above, border bottom + help line below
	body := v.height - boardTop - 4
	if body < cardHeight {
		return 1
	}
	return body / cardHeight
}

// laneAt maps a terminal coordinate to a lane index.
func (v *BoardView) laneAt(x, y int) (int, bool) {
	if y < boardTop || y >= v.height-1 {
		return 0, false
	}
	outer := v.laneOuterWidth()
	for i := range models.Statuses {
		left := i * (outer + laneGap)
		if x >= left && x < left+outer {
			return i, true
		}
	}
	return 0, false
}

// cardAt maps a terminal coordinate to the card rendered there.
func (v *BoardView) cardAt(x, y int) (models.Task, int, bool) {
	lane, ok := v.laneAt(x, y)
	if !ok {
		return models.Task{}, 0, false
	}
	// border row then lane header row precede the cards
	row := y - boardTop - 2
	if row < 0 {
		return models.Task{}, 0, false
	}
	idx := v.scroll[lane] + row/cardHeight
	tasks := v.lane(models.Statuses[lane])
	if idx >= len(tasks) || idx >= v.scroll[lane]+v.visibleCards() {
		return models.Task{}, 0, false
	}
	return tasks[idx], lane, true
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
