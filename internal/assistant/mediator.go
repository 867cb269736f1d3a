// Package assistant manages the propose / confirm / execute lifecycle for
// natural-language commands. The mediator never mutates task state itself:
// confirmed results are handed back as Effects for the board model to apply,
// so every mutation flows through the same single writer regardless of
// whether it came from a form, a drag or the assistant.
package assistant

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"taskdeck/internal/api"
	"taskdeck/internal/models"
)

// State is the mediator's phase.
type State int

const (
	Idle State = iota
	AwaitingResponse
	AwaitingConfirmation
	Executing
)

// Role identifies a transcript message's author.
type Role int

const (
	RoleUser Role = iota
	RoleAssistant
)

// Message is one transcript entry.
type Message struct {
	Role      Role
	Body      string
	IsError   bool
	IsSuccess bool
	At        time.Time
}

// PendingAction is an assistant-proposed mutation awaiting explicit user
// confirmation. At most one exists at a time; it is never partially applied.
type PendingAction struct {
	Kind    string
	Data    map[string]any
	Summary string
}

// ServiceError reports an unavailable assistant or a malformed proposal.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("assistant: %v", e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Request is one in-flight chat call. The sequence number is the stale
// response guard: replies whose request was superseded are dropped.
type Request struct {
	seq  uint64
	Text string
}

// Reply carries a chat result back into the mediator.
type Reply struct {
	Request *Request
	Resp    api.ChatResponse
	Err     error
}

// Execution is one in-flight confirm-action call.
type Execution struct {
	seq    uint64
	Action PendingAction
}

// Outcome carries an execution result back into the mediator.
type Outcome struct {
	Execution *Execution
	Resp      api.ConfirmResponse
	Err       error
}

// EffectKind tells the board what a confirmed action did server-side.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectUpsert
	EffectRemove
	EffectReload
)

// Effect is the board-facing result of a confirmed action.
type Effect struct {
	Kind     EffectKind
	Task     *models.Task
	RemoveID int64
}

// Mediator is the chat state machine. Like the board model it is
// single-writer: only Send and Execute may run off the UI loop, and they
// touch no mediator state.
type Mediator struct {
	gw         *api.Client
	state      State
	seq        uint64
	transcript []Message
	pending    *PendingAction
}

const greeting = "Ask me to create, edit, move, assign or delete tasks in plain language.\n" +
	"Try: \"Create a high priority task to fix the login bug\" or \"Show me all tasks in review\"."

// New creates an idle mediator with a greeting in the transcript.
func New(gw *api.Client) *Mediator {
	m := &Mediator{gw: gw}
	m.append(Message{Role: RoleAssistant, Body: greeting})
	return m
}

// State returns the current phase.
func (m *Mediator) State() State {
	return m.state
}

// Transcript returns the conversation so far.
func (m *Mediator) Transcript() []Message {
	return m.transcript
}

// Pending returns the action awaiting confirmation, if any.
func (m *Mediator) Pending() *PendingAction {
	return m.pending
}

func (m *Mediator) append(msg Message) {
	if msg.At.IsZero() {
		msg.At = time.Now()
	}
	m.transcript = append(m.transcript, msg)
}

// Submit validates and records one user message, returning the request to
// send. Valid only from Idle: while a response, confirmation or execution is
// outstanding, new input is rejected rather than queued.
func (m *Mediator) Submit(text string) (*Request, error) {
	if m.state != Idle {
		return nil, &api.ValidationError{Reason: "assistant is busy, wait for the current command to finish"}
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &api.ValidationError{Field: "message", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(trimmed) > models.MaxChatMessageLen {
		return nil, &api.ValidationError{Field: "message", Reason: fmt.Sprintf("longer than %d characters", models.MaxChatMessageLen)}
	}

	m.seq++
	m.state = AwaitingResponse
	m.append(Message{Role: RoleUser, Body: trimmed})
	return &Request{seq: m.seq, Text: trimmed}, nil
}

// Send performs the chat call. Safe off the UI loop; feed the Reply back
// through HandleReply.
func (m *Mediator) Send(ctx context.Context, req *Request) Reply {
	resp, err := m.gw.Chat(ctx, req.Text)
	return Reply{Request: req, Resp: resp, Err: err}
}

// HandleReply transitions on a chat result. Stale replies, where the chat
// surface was closed and reopened or the request was otherwise superseded,
// are dropped without any state change.
func (m *Mediator) HandleReply(r Reply) {
	if m.state != AwaitingResponse || r.Request == nil || r.Request.seq != m.seq {
		return
	}

	if r.Err != nil {
		m.state = Idle
		m.append(Message{Role: RoleAssistant, Body: serviceMessage(r.Err), IsError: true})
		return
	}

	resp := r.Resp
	if resp.ConfirmationNeeded {
		if resp.Action == "" || resp.Data == nil {
			m.state = Idle
			err := &ServiceError{Err: fmt.Errorf("proposal missing action or data")}
			m.append(Message{Role: RoleAssistant, Body: err.Error(), IsError: true})
			return
		}
		m.pending = &PendingAction{
			Kind:    resp.Action,
			Data:    resp.Data,
			Summary: summarize(resp.Action, resp.Data),
		}
		m.state = AwaitingConfirmation
		m.append(Message{Role: RoleAssistant, Body: resp.Message})
		return
	}

	// Pure query or answer: no pending action, straight back to idle.
	m.state = Idle
	m.append(Message{Role: RoleAssistant, Body: resp.Message})
}

// Confirm accepts the pending action and returns the execution to run.
// Valid only while a confirmation is awaited.
func (m *Mediator) Confirm() (*Execution, error) {
	if m.state != AwaitingConfirmation || m.pending == nil {
		return nil, &api.ValidationError{Reason: "nothing awaiting confirmation"}
	}
	m.state = Executing
	return &Execution{seq: m.seq, Action: *m.pending}, nil
}

// Cancel discards the pending action with no side effects.
func (m *Mediator) Cancel() error {
	if m.state != AwaitingConfirmation {
		return &api.ValidationError{Reason: "nothing awaiting confirmation"}
	}
	m.pending = nil
	m.state = Idle
	return nil
}

// Execute performs the confirm-action call. Safe off the UI loop; feed the
// Outcome back through HandleOutcome.
func (m *Mediator) Execute(ctx context.Context, ex *Execution) Outcome {
	resp, err := m.gw.ConfirmAction(ctx, ex.Action.Kind, ex.Action.Data)
	return Outcome{Execution: ex, Resp: resp, Err: err}
}

// HandleOutcome finishes an execution and returns the board-facing effect.
// On failure the board is untouched: the effect is EffectNone and the error
// joins the transcript. Either way the mediator ends at Idle.
func (m *Mediator) HandleOutcome(o Outcome) Effect {
	if m.state != Executing || o.Execution == nil || o.Execution.seq != m.seq {
		return Effect{}
	}

	m.pending = nil
	m.state = Idle

	if o.Err != nil {
		m.append(Message{Role: RoleAssistant, Body: serviceMessage(o.Err), IsError: true})
		return Effect{}
	}
	if !o.Resp.Success {
		msg := o.Resp.Message
		if msg == "" {
			msg = "action failed"
		}
		m.append(Message{Role: RoleAssistant, Body: msg, IsError: true})
		return Effect{}
	}

	m.append(Message{Role: RoleAssistant, Body: o.Resp.Message, IsSuccess: true})
	return effectFor(o.Execution.Action, o.Resp)
}

// Reset abandons whatever is in flight and returns to Idle, keeping the
// transcript. Closing the chat surface calls this; a late reply for the old
// sequence then fails the stale guard instead of acting on dead state.
func (m *Mediator) Reset() {
	m.seq++
	m.pending = nil
	m.state = Idle
}

func effectFor(action PendingAction, resp api.ConfirmResponse) Effect {
	switch action.Kind {
	case api.ActionCreateTask, api.ActionEditTask, api.ActionMoveTask, api.ActionAssignTask:
		if resp.Task != nil {
			return Effect{Kind: EffectUpsert, Task: resp.Task}
		}
		// No record to reconcile with; refresh instead of guessing.
		return Effect{Kind: EffectReload}
	case api.ActionDeleteTask:
		if resp.Task != nil {
			return Effect{Kind: EffectRemove, RemoveID: resp.Task.ID}
		}
		return Effect{Kind: EffectReload}
	case api.ActionBulk:
		return Effect{Kind: EffectReload}
	}
	return Effect{}
}

func serviceMessage(err error) string {
	return (&ServiceError{Err: err}).Error()
}

// summarize renders a short human-readable description of a proposal for
// the confirmation prompt.
func summarize(kind string, data map[string]any) string {
	title, _ := data["task_title"].(string)
	switch kind {
	case api.ActionCreateTask:
		t, _ := data["title"].(string)
		parts := []string{fmt.Sprintf("create %q", t)}
		if p, ok := data["priority"].(string); ok {
			parts = append(parts, "priority "+p)
		}
		if s, ok := data["status"].(string); ok {
			parts = append(parts, "in "+s)
		}
		return strings.Join(parts, ", ")
	case api.ActionEditTask:
		changes, _ := data["changes"].(map[string]any)
		keys := make([]string, 0, len(changes))
		for k := range changes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s → %v", k, changes[k]))
		}
		return fmt.Sprintf("edit %q: %s", title, strings.Join(pairs, ", "))
	case api.ActionMoveTask:
		from, _ := data["current_status"].(string)
		to, _ := data["new_status"].(string)
		return fmt.Sprintf("move %q: %s → %s", title, from, to)
	case api.ActionDeleteTask:
		return fmt.Sprintf("delete %q (cannot be undone)", title)
	case api.ActionAssignTask:
		who, _ := data["assignee_name"].(string)
		return fmt.Sprintf("assign %q to %s", title, who)
	case api.ActionBulk:
		op, _ := data["operation"].(string)
		count, _ := data["task_count"].(float64)
		return fmt.Sprintf("%s affecting %d tasks", op, int(count))
	}
	return kind
}
