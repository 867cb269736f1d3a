package api

import (
	"context"
	"net/http"

	"taskdeck/internal/models"
)

// Users fetches the user lookup list. A view session fetches it once and
// resolves assignee/reviewer ids against it.
func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var users []models.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users, true); err != nil {
		return nil, err
	}
	return users, nil
}
