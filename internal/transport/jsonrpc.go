package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rpggio/checklist/internal/repository"
)

// JSON-RPC 2.0 error codes.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
)

// Application error codes, mapped from repository errors.
const (
	ErrUnauthorizedCode = -32001
	ErrNotFoundCode     = -32004
	ErrConflictCode     = -32009
)

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Unwrap maps application codes back to repository errors.
func (e *Error) Unwrap() error {
	switch e.Code {
	case ErrUnauthorizedCode:
		return repository.ErrUnauthorized
	case ErrNotFoundCode:
		return repository.ErrNotFound
	case ErrConflictCode:
		return repository.ErrConflict
	case ErrInvalidParams:
		return repository.ErrInvalidInput
	}
	return nil
}

// ErrorCode returns the code reported to clients for err.
func ErrorCode(err error) int {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr.Code
	}
	switch {
	case errors.Is(err, repository.ErrUnauthorized):
		return ErrUnauthorizedCode
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFoundCode
	case errors.Is(err, repository.ErrConflict):
		return ErrConflictCode
	case errors.Is(err, repository.ErrInvalidInput):
		return ErrInvalidParams
	}
	return ErrInternal
}

// ParseRequest parses and validates a JSON-RPC request payload.
func ParseRequest(body io.Reader) (Request, error) {
	var req Request
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return Request{}, fmt.Errorf("parse error: %w", err)
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return Request{}, fmt.Errorf("invalid request")
	}
	return req, nil
}

// WriteResult writes a JSON-RPC success response.
func WriteResult(w http.ResponseWriter, id any, result any) {
	writeJSON(w, http.StatusOK, Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	})
}

// WriteErr writes err as a JSON-RPC error response.
func WriteErr(w http.ResponseWriter, id any, err error) {
	WriteError(w, id, ErrorCode(err), err.Error(), nil)
}

// WriteError writes a JSON-RPC error response.
func WriteError(w http.ResponseWriter, id any, code int, message string, data any) {
	writeJSON(w, http.StatusOK, Response{
		JSONRPC: "2.0",
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
