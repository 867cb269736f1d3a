package models

import "time"

// Status is a task's board lane.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusInReview   Status = "in_review"
	StatusCompleted  Status = "completed"
)

// Statuses lists all lanes in board order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusInReview, StatusCompleted}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Label returns the human-readable lane title
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusInReview:
		return "In Review"
	case StatusCompleted:
		return "Completed"
	}
	return string(s)
}

// Priority is a task's urgency level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists all priorities from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// ReviewStatus is the review outcome for a task in the in_review lane. It is
// an independent axis from Status: the backend decides whether it resets when
// a task leaves review, so the client never clears it.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Limits enforced client-side before a request is made.
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 1000
	MaxChatMessageLen = 1000
)

// Task is the central entity. The ID is assigned by the backend and is
// negative only for optimistic entries that have not been committed yet.
type Task struct {
	ID           int64         `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	Status       Status        `json:"status"`
	Priority     Priority      `json:"priority"`
	DueDate      *time.Time    `json:"due_date,omitempty"`
	AssigneeID   *int64        `json:"assigned_to_id,omitempty"`
	ReviewerID   *int64        `json:"reviewer_id,omitempty"`
	ReviewStatus *ReviewStatus `json:"review_status,omitempty"`
	CommentCount int           `json:"comment_count"`
	CreatedAt    time.Time     `json:"created_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// User is a backend account, read-only from this client.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// DisplayName returns the best available name for UI rendering.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Comment belongs to exactly one task. Body is already normalized by the
// gateway regardless of which historical field name the backend used.
type Comment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	Author    User      `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
