package store

import (
	"database/sql"

	"taskdeck/internal/models"
)

// SaveSnapshot replaces the stored task snapshot, preserving board order.
// Optimistic entries (negative ids) are skipped; they do not exist server-side.
func (s *Store) SaveSnapshot(tasks []models.Task) error {
	tx, err := s.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM task_snapshot"); err != nil {
		return err
	}
	pos := 0
	for _, t := range tasks {
		if t.ID < 0 {
			continue
		}
		var review *string
		if t.ReviewStatus != nil {
			r := string(*t.ReviewStatus)
			review = &r
		}
		_, err := tx.Exec(`
			INSERT INTO task_snapshot
				(position, id, title, description, status, priority, due_date,
				 assignee_id, reviewer_id, review_status, comment_count, created_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, pos, t.ID, t.Title, t.Description, string(t.Status), string(t.Priority),
			t.DueDate, t.AssigneeID, t.ReviewerID, review, t.CommentCount, t.CreatedAt, t.CompletedAt)
		if err != nil {
			return err
		}
		pos++
	}
	return tx.Commit()
}

// Snapshot returns the stored task snapshot in board order
func (s *Store) Snapshot() ([]models.Task, error) {
	rows, err := s.Query(`
		SELECT id, title, description, status, priority, due_date,
		       assignee_id, reviewer_id, review_status, comment_count, created_at, completed_at
		FROM task_snapshot
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		var status, priority string
		var review sql.NullString
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &status, &priority,
			&t.DueDate, &t.AssigneeID, &t.ReviewerID, &review, &t.CommentCount,
			&t.CreatedAt, &t.CompletedAt); err != nil {
			return nil, err
		}
		t.Status = models.Status(status)
		t.Priority = models.Priority(priority)
		if review.Valid {
			r := models.ReviewStatus(review.String)
			t.ReviewStatus = &r
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
