package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/checklist/internal/domain/session"
	"github.com/rpggio/checklist/internal/repository"
)

// AuthBackend is the password and token store behind /auth.
type AuthBackend interface {
	UserResolver
	SignUp(ctx context.Context, email, password string) (*session.ProviderSession, error)
	SignIn(ctx context.Context, email, password string) (*session.ProviderSession, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Server wires HTTP handlers.
type Server struct {
	rows    repository.RowStore
	auth    AuthBackend
	exposed map[string]bool
	logger  *slog.Logger
}

// NewServer creates the backend router. /rest only reaches the todos table,
// and only the caller's rows within it.
func NewServer(rows repository.RowStore, backend AuthBackend, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	srv := &Server{
		rows:    rows,
		auth:    backend,
		exposed: map[string]bool{"todos": true},
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", srv.handleHealth)
	r.Post("/auth", srv.handleAuth)
	r.With(AuthMiddleware(backend)).Post("/rest", srv.handleRest)

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type credentialsParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type okResult struct {
	OK bool `json:"ok"`
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		WriteError(w, nil, ErrInvalidReq, "invalid request", nil)
		return
	}
	ctx := r.Context()

	switch req.Method {
	case "sign_up", "sign_in":
		var p credentialsParams
		if err := decodeParams(req.Params, &p); err != nil {
			WriteError(w, req.ID, ErrInvalidParams, err.Error(), nil)
			return
		}
		var ps *session.ProviderSession
		if req.Method == "sign_up" {
			ps, err = s.auth.SignUp(ctx, p.Email, p.Password)
		} else {
			ps, err = s.auth.SignIn(ctx, p.Email, p.Password)
		}
		if err != nil {
			s.logger.Info("auth rejected", "method", req.Method, "error", err)
			WriteErr(w, req.ID, err)
			return
		}
		WriteResult(w, req.ID, ps)

	case "sign_out":
		token := BearerToken(r)
		if token != "" {
			if err := s.auth.SignOut(ctx, token); err != nil {
				WriteErr(w, req.ID, err)
				return
			}
		}
		WriteResult(w, req.ID, okResult{OK: true})

	case "get_user":
		user, err := s.auth.GetUser(ctx, BearerToken(r))
		if err != nil {
			WriteErr(w, req.ID, err)
			return
		}
		WriteResult(w, req.ID, user)

	default:
		WriteError(w, req.ID, ErrMethodNotFound, fmt.Sprintf("unknown method %q", req.Method), nil)
	}
}

// SelectParams are the params of the select method.
type SelectParams struct {
	Table   string                 `json:"table"`
	Columns []string               `json:"columns,omitempty"`
	Where   []repository.Predicate `json:"where,omitempty"`
	Order   *repository.Order      `json:"order,omitempty"`
}

// InsertParams are the params of the insert method.
type InsertParams struct {
	Table     string         `json:"table"`
	Row       repository.Row `json:"row"`
	Returning []string       `json:"returning,omitempty"`
}

// UpdateParams are the params of the update method.
type UpdateParams struct {
	Table string                 `json:"table"`
	Patch repository.Row         `json:"patch"`
	Where []repository.Predicate `json:"where,omitempty"`
}

// DeleteParams are the params of the delete method.
type DeleteParams struct {
	Table string                 `json:"table"`
	Where []repository.Predicate `json:"where,omitempty"`
}

// RowsResult is the result of select.
type RowsResult struct {
	Rows []repository.Row `json:"rows"`
}

// RowResult is the result of insert.
type RowResult struct {
	Row repository.Row `json:"row"`
}

const ownerColumn = "user_id"

func (s *Server) handleRest(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		WriteError(w, nil, ErrInvalidReq, "invalid request", nil)
		return
	}

	userID, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	result, err := s.dispatchRest(r.Context(), userID, req)
	if err != nil {
		s.logger.Debug("rest call failed", "method", req.Method, "user_id", userID, "error", err)
		WriteErr(w, req.ID, err)
		return
	}
	WriteResult(w, req.ID, result)
}

func (s *Server) dispatchRest(ctx context.Context, userID string, req Request) (any, error) {
	switch req.Method {
	case "select":
		var p SelectParams
		if err := s.decodeTable(req.Params, &p, &p.Table); err != nil {
			return nil, err
		}
		rows, err := s.rows.Select(ctx, p.Table, p.Columns, scoped(p.Where, userID), p.Order)
		if err != nil {
			return nil, err
		}
		return RowsResult{Rows: rows}, nil

	case "insert":
		var p InsertParams
		if err := s.decodeTable(req.Params, &p, &p.Table); err != nil {
			return nil, err
		}
		if p.Row == nil {
			p.Row = repository.Row{}
		}
		p.Row[ownerColumn] = userID
		row, err := s.rows.Insert(ctx, p.Table, p.Row, p.Returning)
		if err != nil {
			return nil, err
		}
		return RowResult{Row: row}, nil

	case "update":
		var p UpdateParams
		if err := s.decodeTable(req.Params, &p, &p.Table); err != nil {
			return nil, err
		}
		if _, ok := p.Patch[ownerColumn]; ok {
			return nil, fmt.Errorf("%s is read-only: %w", ownerColumn, repository.ErrInvalidInput)
		}
		if err := s.rows.Update(ctx, p.Table, p.Patch, scoped(p.Where, userID)); err != nil {
			return nil, err
		}
		return okResult{OK: true}, nil

	case "delete":
		var p DeleteParams
		if err := s.decodeTable(req.Params, &p, &p.Table); err != nil {
			return nil, err
		}
		if err := s.rows.Delete(ctx, p.Table, scoped(p.Where, userID)); err != nil {
			return nil, err
		}
		return okResult{OK: true}, nil
	}
	return nil, &Error{Code: ErrMethodNotFound, Message: fmt.Sprintf("unknown method %q", req.Method)}
}

// decodeTable decodes raw into dst, whose table field is table, and checks
// that the table is exposed.
func (s *Server) decodeTable(raw json.RawMessage, dst any, table *string) error {
	if err := decodeParams(raw, dst); err != nil {
		return fmt.Errorf("%v: %w", err, repository.ErrInvalidInput)
	}
	if !s.exposed[*table] {
		return fmt.Errorf("table %q is not exposed: %w", *table, repository.ErrInvalidInput)
	}
	return nil
}

// scoped appends the owner predicate so callers only reach their own rows.
func scoped(where []repository.Predicate, userID string) []repository.Predicate {
	out := make([]repository.Predicate, 0, len(where)+1)
	for _, p := range where {
		if p.Column == ownerColumn {
			continue
		}
		out = append(out, p)
	}
	return append(out, repository.Eq(ownerColumn, userID))
}

func decodeParams(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing params")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}
