package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/checklist/internal/domain/session"
	"github.com/rpggio/checklist/internal/domain/todo"
	"github.com/rpggio/checklist/internal/mutation"
)

// APIError is the error a tool call reports.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

// MapError maps domain errors to tool error codes. Unknown errors keep their
// message under INTERNAL.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, session.ErrUnauthenticated):
		return &APIError{Code: "UNAUTHENTICATED", Message: "not signed in", RecoveryHint: "Call sign_in or sign_up first"}
	case errors.Is(err, session.ErrInvalidCredentials):
		return &APIError{Code: "INVALID_CREDENTIALS", Message: "email or password is wrong", RecoveryHint: "Check the credentials or call sign_up"}
	case errors.Is(err, session.ErrEmailTaken):
		return &APIError{Code: "EMAIL_TAKEN", Message: "an account with this email exists", RecoveryHint: "Call sign_in instead"}
	case errors.Is(err, todo.ErrInvalidEmail):
		return &APIError{Code: "INVALID_EMAIL", Message: "email address is not valid"}
	case errors.Is(err, todo.ErrInvalidPassword):
		return &APIError{Code: "INVALID_PASSWORD", Message: fmt.Sprintf("password must be %d to %d characters", todo.MinPasswordLength, todo.MaxPasswordLength)}
	case errors.Is(err, todo.ErrInvalidTitle):
		return &APIError{Code: "INVALID_TITLE", Message: fmt.Sprintf("title must be %d to %d characters", todo.MinTitleLength, todo.MaxTitleLength)}
	case errors.Is(err, todo.ErrInvalidParams):
		return &APIError{Code: "INVALID_PARAMS", Message: "unknown order or filter", RecoveryHint: "order_by: title|completed|created_at, filter: ALL|ACTIVE|COMPLETED"}
	case errors.Is(err, todo.ErrTodoNotFound):
		return &APIError{Code: "TODO_NOT_FOUND", Message: "todo not found", RecoveryHint: "Call list_todos for current ids"}
	}
	return &APIError{Code: "INTERNAL", Message: err.Error()}
}

// resultError turns a failed mutation into a tool error.
func resultError(res mutation.Result) error {
	if res.OK() {
		return nil
	}
	apiErr := MapError(res.Err)
	switch res.Status {
	case mutation.RolledBack:
		apiErr = &APIError{Code: "ROLLED_BACK", Message: apiErr.Message, RecoveryHint: "The change was undone; retry later"}
	case mutation.Failed:
		if apiErr.Code == "INTERNAL" {
			apiErr = &APIError{Code: "REMOTE_FAILED", Message: apiErr.Message, RecoveryHint: "Retry later"}
		}
	}
	return apiErr
}
