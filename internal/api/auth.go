package api

import (
	"context"
	"net/http"

	"taskdeck/internal/models"
)

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the register request body.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges credentials for a bearer token. It does not touch the
// session; callers begin the session once the profile fetch succeeds.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", creds, &resp, false); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// Register creates an account and returns its bearer token.
func (c *Client) Register(ctx context.Context, reg Registration) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", reg, &resp, false); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// Me fetches the profile for the given token. The token is passed explicitly
// because this runs during login, before the session begins.
func (c *Client) Me(ctx context.Context, token string) (models.User, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	op := "GET /users/me"
	req, err := newJSONRequest(ctx, http.MethodGet, c.baseURL+basePath+"/users/me", nil)
	if err != nil {
		return models.User{}, &FetchError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var user models.User
	if err := c.send(req, op, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}
