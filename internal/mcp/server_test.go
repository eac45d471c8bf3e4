package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/checklist/internal/app"
	"github.com/rpggio/checklist/internal/auth"
	"github.com/rpggio/checklist/internal/domain/session"
	"github.com/rpggio/checklist/internal/domain/todo"
	"github.com/rpggio/checklist/internal/filterstate"
	"github.com/rpggio/checklist/internal/mutation"
	"github.com/rpggio/checklist/internal/sqlite"
	"github.com/stretchr/testify/require"
)

func newClientSession(t *testing.T) (*sdkmcp.ClientSession, *filterstate.MemoryLocation) {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	loc := filterstate.NewMemoryLocation("/")
	provider := auth.NewProvider(sqlite.NewAuthRepository(db), &auth.MemoryTokenStore{}, nil)
	a := app.New(provider, todo.NewService(sqlite.NewRowStore(db), nil), loc, nil)
	a.Start(ctx)
	t.Cleanup(a.Close)

	server := NewServer(Config{App: a, Location: loc})
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })

	return cs, loc
}

func call[T any](t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any) T {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.False(t, res.IsError, "%s failed: %s", name, toolErrorText(res))

	var out T
	data, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func callErr(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.True(t, res.IsError, "%s unexpectedly succeeded", name)
	return toolErrorText(res)
}

func toolErrorText(res *sdkmcp.CallToolResult) string {
	for _, c := range res.Content {
		if text, ok := c.(*sdkmcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

func itemTitles(items []TodoItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func TestServer_ListsTools(t *testing.T) {
	cs, _ := newClientSession(t)

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	require.Equal(t, []string{
		"add_todo", "delete_todo", "get_location", "list_todos", "refresh",
		"rename_todo", "set_filter", "set_order", "sign_in", "sign_out",
		"sign_up", "toggle_direction", "toggle_todo", "whoami",
	}, names)
}

func TestServer_GuideResource(t *testing.T) {
	cs, _ := newClientSession(t)

	res, err := cs.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "checklist://docs/guide"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "toggle_todo")
}

func TestServer_TodoFlow(t *testing.T) {
	cs, loc := newClientSession(t)

	who := call[WhoAmIResponse](t, cs, "whoami", nil)
	require.True(t, who.Loaded)
	require.False(t, who.SignedIn)
	require.Contains(t, callErr(t, cs, "add_todo", map[string]any{"title": "buy milk"}), "UNAUTHENTICATED")

	who = call[WhoAmIResponse](t, cs, "sign_up", map[string]any{"email": "alice@example.com", "password": "secret1"})
	require.True(t, who.SignedIn)
	require.Equal(t, "alice@example.com", who.User.Email)

	view := call[ViewResponse](t, cs, "list_todos", nil)
	require.Empty(t, view.Items)

	milk := call[MutationResponse](t, cs, "add_todo", map[string]any{"title": "buy milk"})
	require.Equal(t, mutation.Confirmed, milk.Status)
	require.NotNil(t, milk.Item)
	require.NotZero(t, milk.Item.ID)
	added := call[MutationResponse](t, cs, "add_todo", map[string]any{"title": "walk dog"})
	require.Equal(t, []string{"buy milk", "walk dog"}, itemTitles(added.View.Items))

	toggled := call[MutationResponse](t, cs, "toggle_todo", map[string]any{"id": milk.Item.ID})
	require.True(t, toggled.View.Items[0].Completed)

	view = call[ViewResponse](t, cs, "set_filter", map[string]any{"filter": "ACTIVE"})
	require.Equal(t, []string{"walk dog"}, itemTitles(view.Items))

	location := call[LocationResponse](t, cs, "get_location", nil)
	u, err := url.Parse(location.URL)
	require.NoError(t, err)
	saved, err := filterstate.Decode(u.Query().Get(filterstate.Param))
	require.NoError(t, err)
	require.Equal(t, todo.FilterActive, saved.Filter)

	dogID := view.Items[0].ID
	renamed := call[MutationResponse](t, cs, "rename_todo", map[string]any{"id": dogID, "title": "walk cat"})
	require.Equal(t, []string{"walk cat"}, itemTitles(renamed.View.Items))
	require.Empty(t, renamed.View.Editing)
	require.Contains(t, callErr(t, cs, "rename_todo", map[string]any{"id": dogID, "title": "no"}), "INVALID_TITLE")

	deleted := call[MutationResponse](t, cs, "delete_todo", map[string]any{"id": dogID})
	require.Empty(t, deleted.View.Items)
	require.Contains(t, callErr(t, cs, "toggle_todo", map[string]any{"id": dogID}), "TODO_NOT_FOUND")

	require.Contains(t, callErr(t, cs, "set_order", map[string]any{"order_by": "priority"}), "INVALID_PARAMS")
	view = call[ViewResponse](t, cs, "set_order", map[string]any{"order_by": "title", "ascending": false})
	require.Equal(t, todo.QueryParams{OrderBy: todo.OrderByTitle, Ascending: false, Filter: todo.FilterActive}, view.Params)
	view = call[ViewResponse](t, cs, "toggle_direction", nil)
	require.True(t, view.Params.Ascending)

	who = call[WhoAmIResponse](t, cs, "sign_out", nil)
	require.False(t, who.SignedIn)
	require.Equal(t, "/", loc.URL())

	require.Contains(t, callErr(t, cs, "sign_in", map[string]any{"email": "alice@example.com", "password": "wrong12"}), "INVALID_CREDENTIALS")
	who = call[WhoAmIResponse](t, cs, "sign_in", map[string]any{"email": "alice@example.com", "password": "secret1"})
	require.True(t, who.SignedIn)
	view = call[ViewResponse](t, cs, "refresh", nil)
	require.Equal(t, []string{"buy milk"}, itemTitles(view.Items))
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{session.ErrUnauthenticated, "UNAUTHENTICATED"},
		{fmt.Errorf("signing in: %w", session.ErrInvalidCredentials), "INVALID_CREDENTIALS"},
		{session.ErrEmailTaken, "EMAIL_TAKEN"},
		{todo.ErrInvalidTitle, "INVALID_TITLE"},
		{fmt.Errorf("toggling: %w", todo.ErrTodoNotFound), "TODO_NOT_FOUND"},
		{errors.New("disk on fire"), "INTERNAL"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.code, MapError(tc.err).Code, tc.err.Error())
	}
	require.Nil(t, MapError(nil))
}

func TestResultError(t *testing.T) {
	require.NoError(t, resultError(mutation.Result{Status: mutation.Confirmed}))

	err := resultError(mutation.Result{Status: mutation.RolledBack, Err: errors.New("timeout")})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "ROLLED_BACK", apiErr.Code)

	err = resultError(mutation.Result{Status: mutation.Failed, Err: errors.New("timeout")})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "REMOTE_FAILED", apiErr.Code)

	err = resultError(mutation.Result{Status: mutation.Rejected, Err: todo.ErrInvalidTitle})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INVALID_TITLE", apiErr.Code)
}
