package api

import "fmt"

// ValidationError reports bad local input. It is raised before any request
// is made and never reaches the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// AuthError reports a missing or expired credential. Authenticated calls fail
// with it client-side, before the request is made.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "auth: " + e.Reason
}

// FetchError reports a transport or decode failure. The response, if any,
// could not be trusted, so callers leave their state untouched.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusError reports a non-2xx response from the backend.
type StatusError struct {
	Op     string
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Op, e.Code)
}
