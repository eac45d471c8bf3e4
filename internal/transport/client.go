package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rpggio/checklist/internal/domain/session"
	"github.com/rpggio/checklist/internal/repository"
)

// TokenSource supplies the access token for /rest calls.
type TokenSource interface {
	AccessToken() string
}

// Client talks to the backend server. It implements repository.RowStore and
// auth.Backend.
type Client struct {
	baseURL string
	http    *http.Client
	nextID  atomic.Int64

	mu     sync.RWMutex
	tokens TokenSource
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// SetTokenSource sets where /rest calls get their bearer token.
func (c *Client) SetTokenSource(tokens TokenSource) {
	c.mu.Lock()
	c.tokens = tokens
	c.mu.Unlock()
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.AccessToken()
}

type clientResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

func (c *Client) call(ctx context.Context, path, method, token string, params, out any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encoding %s params: %w", method, err)
	}
	body, err := json.Marshal(Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  raw,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("calling %s: %w", method, repository.ErrUnauthorized)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calling %s: unexpected status %d", method, resp.StatusCode)
	}

	var rpc clientResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if rpc.Error != nil {
		return fmt.Errorf("calling %s: %w", method, rpc.Error)
	}
	if out == nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(rpc.Result))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding %s result: %w", method, err)
	}
	return nil
}

func (c *Client) rest(ctx context.Context, method string, params, out any) error {
	return c.call(ctx, "/rest", method, c.accessToken(), params, out)
}

func (c *Client) Select(ctx context.Context, table string, columns []string, where []repository.Predicate, order *repository.Order) ([]repository.Row, error) {
	var out RowsResult
	err := c.rest(ctx, "select", SelectParams{Table: table, Columns: columns, Where: where, Order: order}, &out)
	if err != nil {
		return nil, err
	}
	if out.Rows == nil {
		out.Rows = []repository.Row{}
	}
	return out.Rows, nil
}

func (c *Client) Insert(ctx context.Context, table string, row repository.Row, returning []string) (repository.Row, error) {
	var out RowResult
	if err := c.rest(ctx, "insert", InsertParams{Table: table, Row: row, Returning: returning}, &out); err != nil {
		return nil, err
	}
	return out.Row, nil
}

func (c *Client) Update(ctx context.Context, table string, patch repository.Row, where []repository.Predicate) error {
	return c.rest(ctx, "update", UpdateParams{Table: table, Patch: patch, Where: where}, nil)
}

func (c *Client) Delete(ctx context.Context, table string, where []repository.Predicate) error {
	return c.rest(ctx, "delete", DeleteParams{Table: table, Where: where}, nil)
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*session.ProviderSession, error) {
	var out session.ProviderSession
	if err := c.call(ctx, "/auth", "sign_up", "", credentialsParams{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*session.ProviderSession, error) {
	var out session.ProviderSession
	if err := c.call(ctx, "/auth", "sign_in", "", credentialsParams{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.call(ctx, "/auth", "sign_out", accessToken, struct{}{}, nil)
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (*session.User, error) {
	var out session.User
	if err := c.call(ctx, "/auth", "get_user", accessToken, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
