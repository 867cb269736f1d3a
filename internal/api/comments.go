package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taskdeck/internal/models"
)

// wireComment tolerates every field name the backend has historically used
// for a comment's text. Normalization happens here, at the gateway boundary;
// the rest of the program only sees models.Comment.
type wireComment struct {
	ID        int64       `json:"id"`
	TaskID    int64       `json:"task_id"`
	Author    models.User `json:"author"`
	Body      string      `json:"body"`
	Content   string      `json:"content"`
	Comment   string      `json:"comment"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"created_at"`
}

func (w wireComment) normalize() models.Comment {
	body := w.Body
	for _, candidate := range []string{w.Content, w.Comment, w.Text} {
		if body == "" {
			body = candidate
		}
	}
	return models.Comment{
		ID:        w.ID,
		TaskID:    w.TaskID,
		Author:    w.Author,
		Body:      body,
		CreatedAt: w.CreatedAt,
	}
}

// TaskComments fetches a task's comments, oldest first.
func (c *Client) TaskComments(ctx context.Context, taskID int64) ([]models.Comment, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var wire []wireComment
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tasks/%d/comments", taskID), nil, &wire, true); err != nil {
		return nil, err
	}
	comments := make([]models.Comment, len(wire))
	for i, w := range wire {
		comments[i] = w.normalize()
	}
	return comments, nil
}

// CreateComment adds a comment to a task.
func (c *Client) CreateComment(ctx context.Context, taskID int64, body string) (models.Comment, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req := struct {
		TaskID  int64  `json:"task_id"`
		Content string `json:"content"`
	}{TaskID: taskID, Content: body}

	var wire wireComment
	if err := c.do(ctx, http.MethodPost, "/tasks/comments", req, &wire, true); err != nil {
		return models.Comment{}, err
	}
	return wire.normalize(), nil
}
