package api

import (
	"context"
	"net/http"

	"taskdeck/internal/models"
)

// Action kinds the assistant can propose.
const (
	ActionCreateTask = "create_task"
	ActionEditTask   = "edit_task"
	ActionMoveTask   = "move_task"
	ActionDeleteTask = "delete_task"
	ActionAssignTask = "assign_task"
	ActionQueryTasks = "query_tasks"
	ActionBulk       = "bulk_operation"
)

// ChatResponse is the assistant's reply to one message. When
// ConfirmationNeeded is set, Action and Data describe a proposed mutation
// that must not be applied until the user confirms.
type ChatResponse struct {
	Message            string         `json:"message"`
	Action             string         `json:"action,omitempty"`
	Data               map[string]any `json:"data,omitempty"`
	ConfirmationNeeded bool           `json:"confirmation_needed,omitempty"`
}

// ConfirmResponse is the result of executing a confirmed action.
type ConfirmResponse struct {
	Success bool         `json:"success"`
	Task    *models.Task `json:"task,omitempty"`
	Message string       `json:"message"`
}

// AIHealth is the assistant's availability.
type AIHealth struct {
	Status string `json:"status"` // available or unavailable
}

// Available reports whether the assistant can take messages.
func (h AIHealth) Available() bool {
	return h.Status == "available"
}

// Chat sends one free-text message to the assistant.
func (c *Client) Chat(ctx context.Context, message string) (ChatResponse, error) {
	ctx, cancel := c.withAITimeout(ctx)
	defer cancel()

	body := struct {
		Message string `json:"message"`
	}{Message: message}

	var resp ChatResponse
	if err := c.do(ctx, http.MethodPost, "/ai/chat", body, &resp, true); err != nil {
		return ChatResponse{}, err
	}
	return resp, nil
}

// ConfirmAction executes a previously proposed action.
func (c *Client) ConfirmAction(ctx context.Context, action string, data map[string]any) (ConfirmResponse, error) {
	ctx, cancel := c.withAITimeout(ctx)
	defer cancel()

	body := struct {
		Action string         `json:"action"`
		Data   map[string]any `json:"data"`
	}{Action: action, Data: data}

	var resp ConfirmResponse
	if err := c.do(ctx, http.MethodPost, "/ai/confirm-action", body, &resp, true); err != nil {
		return ConfirmResponse{}, err
	}
	return resp, nil
}

// AIHealthCheck reports the assistant's availability. Unauthenticated.
func (c *Client) AIHealthCheck(ctx context.Context) (AIHealth, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var health AIHealth
	if err := c.do(ctx, http.MethodGet, "/ai/health", nil, &health, false); err != nil {
		return AIHealth{}, err
	}
	return health, nil
}
