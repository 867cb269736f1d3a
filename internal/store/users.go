package store

import (
	"taskdeck/internal/models"
)

// SaveUsers replaces the cached user lookup table
func (s *Store) SaveUsers(users []models.User) error {
	tx, err := s.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM users"); err != nil {
		return err
	}
	for _, u := range users {
		_, err := tx.Exec(`
			INSERT INTO users (id, username, email, full_name) VALUES (?, ?, ?, ?)
		`, u.ID, u.Username, u.Email, u.FullName)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CachedUsers returns the cached user lookup table
func (s *Store) CachedUsers() ([]models.User, error) {
	rows, err := s.Query("SELECT id, username, email, full_name FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FullName); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
