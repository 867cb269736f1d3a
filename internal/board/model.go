// Package board is the authoritative client-side view of the task set. Tasks
// live in one slice in insertion order from the last load; lanes are derived
// by status. Mutations apply optimistically and are committed to the gateway
// afterwards, with exact rollback when the backend rejects a write.
//
// The model is single-writer: only the UI loop calls its mutating methods.
// Commit is the one exception: it performs the network call and touches no
// model state, so it can run inside a tea.Cmd goroutine.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"taskdeck/internal/api"
	"taskdeck/internal/models"
)

// Op is a mutation kind.
type Op int

const (
	OpCreate Op = iota + 1
	OpUpdate
	OpMove
	OpDelete
)

// Change is one mutation. Task carries the full post-change record; for
// OpDelete only the ID is meaningful.
type Change struct {
	Op   Op
	Task models.Task
}

// ErrNotFound is returned when a mutation targets a task the model no
// longer holds.
var ErrNotFound = errors.New("board: task not found")

// MutationError reports a backend-rejected write after its optimistic state
// has been rolled back. TaskTitle is the display name for toast reporting.
type MutationError struct {
	TaskTitle string
	Err       error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("mutation of %q failed: %v", e.TaskTitle, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// Pending is a staged mutation awaiting its gateway commit.
type Pending struct {
	change Change
	key    int64 // serialization key: the task id at stage time
	gen    uint64
	revert func(m *Model)
}

// Change returns the staged mutation.
func (p *Pending) Change() Change {
	return p.change
}

// Result carries a commit outcome back into the model.
type Result struct {
	Pending *Pending
	Task    *models.Task // server's record, when the endpoint returns one
	Err     error
}

// Model holds the task set and the in-flight mutation bookkeeping.
type Model struct {
	gw        *api.Client
	tasks     []models.Task
	nextLocal int64
	gen       uint64
	inflight  map[int64]bool
	queued    map[int64][]Change
}

// NewModel creates an empty board bound to the gateway.
func NewModel(gw *api.Client) *Model {
	return &Model{
		gw:        gw,
		nextLocal: -1,
		inflight:  make(map[int64]bool),
		queued:    make(map[int64][]Change),
	}
}

// Fetch loads the task set from the gateway. The model is not touched; the
// caller replaces state via Replace only on success, so a failed load leaves
// prior state intact.
func (m *Model) Fetch(ctx context.Context, filter api.TaskFilter) ([]models.Task, error) {
	return m.gw.ListTasks(ctx, filter)
}

// Replace swaps in a freshly loaded task set wholesale. Queued changes are
// dropped and still-running commits are orphaned: their results no longer
// revert or reconcile anything.
func (m *Model) Replace(tasks []models.Task) {
	m.tasks = tasks
	m.gen++
	m.inflight = make(map[int64]bool)
	m.queued = make(map[int64][]Change)
}

// Tasks returns the task set in board order.
func (m *Model) Tasks() []models.Task {
	return m.tasks
}

// Lane returns the tasks in one status lane, preserving board order.
func (m *Model) Lane(status models.Status) []models.Task {
	var lane []models.Task
	for _, t := range m.tasks {
		if t.Status == status {
			lane = append(lane, t)
		}
	}
	return lane
}

// Counts returns the number of tasks per lane.
func (m *Model) Counts() map[models.Status]int {
	counts := make(map[models.Status]int, len(models.Statuses))
	for _, t := range m.tasks {
		counts[t.Status]++
	}
	return counts
}

// Get returns a task by id.
func (m *Model) Get(id int64) (models.Task, bool) {
	for _, t := range m.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// Busy reports whether any commit is in flight.
func (m *Model) Busy() bool {
	return len(m.inflight) > 0
}

func validateRecord(t models.Task) error {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return &api.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(title) > models.MaxTitleLen {
		return &api.ValidationError{Field: "title", Reason: fmt.Sprintf("longer than %d characters", models.MaxTitleLen)}
	}
	if utf8.RuneCountInString(t.Description) > models.MaxDescriptionLen {
		return &api.ValidationError{Field: "description", Reason: fmt.Sprintf("longer than %d characters", models.MaxDescriptionLen)}
	}
	if !t.Status.Valid() {
		return &api.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", t.Status)}
	}
	if !t.Priority.Valid() {
		return &api.ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", t.Priority)}
	}
	return nil
}

// Create stages an optimistic new task under a temporary negative id. The
// real id arrives with the commit result.
func (m *Model) Create(t models.Task) (*Pending, error) {
	if err := validateRecord(t); err != nil {
		return nil, err
	}
	t.Title = strings.TrimSpace(t.Title)
	t.ID = m.nextLocal
	m.nextLocal--
	return m.submit(Change{Op: OpCreate, Task: t})
}

// Update stages an optimistic full-record update.
func (m *Model) Update(t models.Task) (*Pending, error) {
	if err := validateRecord(t); err != nil {
		return nil, err
	}
	t.Title = strings.TrimSpace(t.Title)
	if _, ok := m.Get(t.ID); !ok && !m.inflight[t.ID] {
		return nil, ErrNotFound
	}
	return m.submit(Change{Op: OpUpdate, Task: t})
}

// Move stages a status-only transition. Moving a task onto its current
// status is a no-op: no staging, no network call, no change notification.
func (m *Model) Move(id int64, status models.Status) (*Pending, error) {
	if !status.Valid() {
		return nil, &api.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", status)}
	}
	t, ok := m.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	if t.Status == status {
		return nil, nil
	}
	t.Status = status
	return m.submit(Change{Op: OpMove, Task: t})
}

// Delete stages an optimistic removal.
func (m *Model) Delete(id int64) (*Pending, error) {
	if _, ok := m.Get(id); !ok && !m.inflight[id] {
		return nil, ErrNotFound
	}
	return m.submit(Change{Op: OpDelete, Task: models.Task{ID: id}})
}

// submit stages a change now, or queues it behind an in-flight commit for
// the same task id. At most one commit per id runs at a time; the queue
// keeps rapid mutations in submission order.
func (m *Model) submit(ch Change) (*Pending, error) {
	key := ch.Task.ID
	if m.inflight[key] {
		m.queued[key] = append(m.queued[key], ch)
		return nil, nil
	}
	p, err := m.stage(ch)
	if err != nil {
		return nil, err
	}
	m.inflight[key] = true
	return p, nil
}

// stage applies the change optimistically and captures its reversal token.
func (m *Model) stage(ch Change) (*Pending, error) {
	p := &Pending{change: ch, key: ch.Task.ID, gen: m.gen}

	switch ch.Op {
	case OpCreate:
		id := ch.Task.ID
		m.tasks = append(m.tasks, ch.Task)
		p.revert = func(m *Model) { m.remove(id) }

	case OpUpdate, OpMove:
		idx := m.index(ch.Task.ID)
		if idx < 0 {
			return nil, ErrNotFound
		}
		old := m.tasks[idx]
		m.tasks[idx] = ch.Task
		p.revert = func(m *Model) {
			if i := m.index(old.ID); i >= 0 {
				m.tasks[i] = old
			}
		}

	case OpDelete:
		idx := m.index(ch.Task.ID)
		if idx < 0 {
			return nil, ErrNotFound
		}
		old := m.tasks[idx]
		m.tasks = append(m.tasks[:idx], m.tasks[idx+1:]...)
		p.revert = func(m *Model) {
			if idx > len(m.tasks) {
				idx = len(m.tasks)
			}
			m.tasks = append(m.tasks[:idx], append([]models.Task{old}, m.tasks[idx:]...)...)
		}

	default:
		return nil, fmt.Errorf("board: unknown op %d", ch.Op)
	}

	return p, nil
}

// Commit sends the staged change to the gateway. It reads no model state and
// is safe to run off the UI loop; feed the Result back through Resolve.
func (m *Model) Commit(ctx context.Context, p *Pending) Result {
	ch := p.change
	switch ch.Op {
	case OpCreate:
		task, err := m.gw.CreateTask(ctx, api.Record(ch.Task))
		if err != nil {
			return Result{Pending: p, Err: err}
		}
		return Result{Pending: p, Task: &task}

	case OpUpdate:
		task, err := m.gw.UpdateTask(ctx, ch.Task.ID, api.Record(ch.Task))
		if err != nil {
			return Result{Pending: p, Err: err}
		}
		return Result{Pending: p, Task: &task}

	case OpMove:
		task, err := m.gw.UpdateTaskStatus(ctx, ch.Task.ID, ch.Task.Status)
		if err != nil {
			return Result{Pending: p, Err: err}
		}
		return Result{Pending: p, Task: &task}

	case OpDelete:
		return Result{Pending: p, Err: m.gw.DeleteTask(ctx, ch.Task.ID)}
	}
	return Result{Pending: p, Err: fmt.Errorf("board: unknown op %d", ch.Op)}
}

// Resolve reconciles a commit result on the UI loop. On failure the
// reversal token restores the exact pre-mutation state and a MutationError
// is returned for toast reporting. Either way the next queued change for
// the same task id, if any, is staged and returned for its own commit.
func (m *Model) Resolve(res Result) (*Pending, error) {
	p := res.Pending

	// Orphaned by a wholesale Replace: nothing to revert or reconcile.
	if p.gen != m.gen {
		if res.Err != nil {
			return nil, &MutationError{TaskTitle: p.change.Task.Title, Err: res.Err}
		}
		return nil, nil
	}

	delete(m.inflight, p.key)
	key := p.key

	var mutErr error
	if res.Err != nil {
		p.revert(m)
		if p.change.Op == OpCreate {
			// The task never existed server-side; anything queued for its
			// temporary id can no longer apply.
			delete(m.queued, p.key)
		}
		title := p.change.Task.Title
		if title == "" {
			if t, ok := m.Get(p.change.Task.ID); ok {
				title = t.Title
			}
		}
		mutErr = &MutationError{TaskTitle: title, Err: res.Err}
	} else {
		switch p.change.Op {
		case OpCreate:
			if res.Task != nil {
				m.adopt(p.key, *res.Task)
				// Adoption re-keyed the queue to the server id; dequeue
				// under it or queued changes would be stranded.
				key = res.Task.ID
			}
		case OpUpdate, OpMove:
			if res.Task != nil {
				if idx := m.index(res.Task.ID); idx >= 0 {
					m.tasks[idx] = *res.Task
				}
			}
		case OpDelete:
			delete(m.queued, p.key)
		}
	}

	next, err := m.dequeue(key)
	if err != nil && mutErr == nil {
		mutErr = err
	}
	return next, mutErr
}

// dequeue stages the next queued change for a task id, skipping changes that
// can no longer apply.
func (m *Model) dequeue(key int64) (*Pending, error) {
	q := m.queued[key]
	for len(q) > 0 {
		ch := q[0]
		q = q[1:]
		if len(q) == 0 {
			delete(m.queued, key)
		} else {
			m.queued[key] = q
		}

		p, err := m.stage(ch)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		m.inflight[key] = true
		return p, nil
	}
	delete(m.queued, key)
	return nil, nil
}

// adopt swaps an optimistic create (temporary negative id) for the server's
// record, keeping its board position, and re-keys anything queued behind it.
func (m *Model) adopt(localID int64, server models.Task) {
	if idx := m.index(localID); idx >= 0 {
		m.tasks[idx] = server
	}
	if q, ok := m.queued[localID]; ok {
		delete(m.queued, localID)
		for i := range q {
			q[i].Task.ID = server.ID
		}
		m.queued[server.ID] = append(q, m.queued[server.ID]...)
	}
}

// UpsertRemote applies a server-authoritative record, as returned by a
// confirmed assistant action. The backend has already performed the write, so
// there is nothing optimistic to stage or roll back; the board just adopts
// the record, appending it when the task is new.
func (m *Model) UpsertRemote(t models.Task) {
	if idx := m.index(t.ID); idx >= 0 {
		m.tasks[idx] = t
		return
	}
	m.tasks = append(m.tasks, t)
}

// RemoveRemote drops a task deleted server-side by a confirmed assistant
// action.
func (m *Model) RemoveRemote(id int64) {
	m.remove(id)
	delete(m.queued, id)
}

// remove drops the task with the given id, if present.
func (m *Model) remove(id int64) {
	if idx := m.index(id); idx >= 0 {
		m.tasks = append(m.tasks[:idx], m.tasks[idx+1:]...)
	}
}

func (m *Model) index(id int64) int {
	for i, t := range m.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
