package todo

import "errors"

var (
	// ErrTodoNotFound indicates the target item doesn't exist for the user.
	ErrTodoNotFound = errors.New("todo not found")
	// ErrInvalidTitle indicates a title outside the allowed length.
	ErrInvalidTitle = errors.New("title must be 3 to 10 characters")
	// ErrInvalidParams indicates an unknown sort column or filter.
	ErrInvalidParams = errors.New("invalid query params")
	// ErrInvalidEmail indicates a missing or malformed email address.
	ErrInvalidEmail = errors.New("valid email required")
	// ErrInvalidPassword indicates a password outside the allowed length.
	ErrInvalidPassword = errors.New("password must be 6 to 12 characters")
	// ErrMissingUser indicates an operation was attempted without a user id.
	ErrMissingUser = errors.New("user id required")
	// ErrMalformedRow indicates the row store returned an undecodable row.
	ErrMalformedRow = errors.New("malformed todo row")
)
