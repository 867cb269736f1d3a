package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"taskdeck/internal/models"
)

// TaskFilter narrows and orders the task list. Zero values are omitted.
type TaskFilter struct {
	Status    models.Status
	Priority  models.Priority
	SortBy    string // created_at, due_date, priority
	SortOrder string // asc, desc
}

func (f TaskFilter) query() string {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Priority != "" {
		q.Set("priority", string(f.Priority))
	}
	if f.SortBy != "" {
		q.Set("sort_by", f.SortBy)
	}
	if f.SortOrder != "" {
		q.Set("sort_order", f.SortOrder)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// ListTasks fetches the task set in backend order.
func (c *Client) ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, "/tasks"+filter.query(), nil, &tasks, true); err != nil {
		return nil, err
	}
	return tasks, nil
}

// TaskRecord is the full-record write body. The gateway contract has no
// partial patch for task fields; updates always send the whole record.
type TaskRecord struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      models.Status   `json:"status"`
	Priority    models.Priority `json:"priority"`
	DueDate     *string         `json:"due_date,omitempty"`
	AssigneeID  *int64          `json:"assigned_to_id,omitempty"`
	ReviewerID  *int64          `json:"reviewer_id,omitempty"`
}

// Record converts a task to its write body.
func Record(t models.Task) TaskRecord {
	rec := TaskRecord{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		AssigneeID:  t.AssigneeID,
		ReviewerID:  t.ReviewerID,
	}
	if t.DueDate != nil {
		s := t.DueDate.UTC().Format("2006-01-02T15:04:05Z")
		rec.DueDate = &s
	}
	return rec
}

// CreateTask creates a task; the backend assigns the id.
func (c *Client) CreateTask(ctx context.Context, rec TaskRecord) (models.Task, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var task models.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", rec, &task, true); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// UpdateTask replaces a task's record.
func (c *Client) UpdateTask(ctx context.Context, id int64, rec TaskRecord) (models.Task, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var task models.Task
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/tasks/%d", id), rec, &task, true); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// UpdateTaskStatus changes only a task's status lane.
func (c *Client) UpdateTaskStatus(ctx context.Context, id int64, status models.Status) (models.Task, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	body := struct {
		Status models.Status `json:"status"`
	}{Status: status}

	var task models.Task
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/tasks/%d/status", id), body, &task, true); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// DeleteTask deletes a task. Irreversible from the client's perspective.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil, true)
}
