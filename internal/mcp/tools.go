package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/checklist/internal/app"
	"github.com/rpggio/checklist/internal/domain/session"
	"github.com/rpggio/checklist/internal/mutation"
)

type tools struct {
	app      *app.App
	location Location
}

func registerTools(server *sdkmcp.Server, t *tools) {
	// Session
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "whoami",
		Description: "Report whether a user is signed in and who",
	}, t.whoami)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "sign_up",
		Description: "Create an account and sign in with it",
	}, t.signUp)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "sign_in",
		Description: "Sign in with email and password",
	}, t.signIn)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "sign_out",
		Description: "Sign out and reset the filter",
	}, t.signOut)

	// Reading and view state
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_todos",
		Description: "Return the current list view for the active order and filter",
	}, t.listTodos)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_order",
		Description: "Sort the list by a column, optionally setting the direction",
	}, t.setOrder)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_filter",
		Description: "Show all, only active, or only completed items",
	}, t.setFilter)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "toggle_direction",
		Description: "Flip the sort direction",
	}, t.toggleDirection)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "refresh",
		Description: "Refetch the active list from the store",
	}, t.refresh)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_location",
		Description: "Return the location URL carrying the saved filter",
	}, t.getLocation)

	// Mutations
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_todo",
		Description: "Add an item to the end of the list",
	}, t.addTodo)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "toggle_todo",
		Description: "Flip an item's completed flag; undone if the store rejects it",
	}, t.toggleTodo)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "rename_todo",
		Description: "Change an item's title",
	}, t.renameTodo)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_todo",
		Description: "Delete an item",
	}, t.deleteTodo)
}

func (t *tools) whoami(_ context.Context, _ *sdkmcp.CallToolRequest, _ NoParams) (*sdkmcp.CallToolResult, WhoAmIResponse, error) {
	v := t.app.View()
	return nil, WhoAmIResponse{Loaded: v.Loaded, SignedIn: v.SignedIn, User: v.User}, nil
}

func (t *tools) signUp(ctx context.Context, _ *sdkmcp.CallToolRequest, in CredentialsParams) (*sdkmcp.CallToolResult, WhoAmIResponse, error) {
	if err := t.app.SignUp(ctx, session.Credentials{Email: in.Email, Password: in.Password}); err != nil {
		return nil, WhoAmIResponse{}, MapError(err)
	}
	return t.whoami(ctx, nil, NoParams{})
}

func (t *tools) signIn(ctx context.Context, _ *sdkmcp.CallToolRequest, in CredentialsParams) (*sdkmcp.CallToolResult, WhoAmIResponse, error) {
	if err := t.app.SignIn(ctx, session.Credentials{Email: in.Email, Password: in.Password}); err != nil {
		return nil, WhoAmIResponse{}, MapError(err)
	}
	return t.whoami(ctx, nil, NoParams{})
}

func (t *tools) signOut(ctx context.Context, _ *sdkmcp.CallToolRequest, _ NoParams) (*sdkmcp.CallToolResult, WhoAmIResponse, error) {
	if err := t.app.SignOut(ctx); err != nil {
		return nil, WhoAmIResponse{}, MapError(err)
	}
	return t.whoami(ctx, nil, NoParams{})
}

// settled waits out in-flight fetches so the returned view is not mid-load.
func (t *tools) settled() ViewResponse {
	t.app.Wait()
	return toViewResponse(t.app.View())
}

func (t *tools) listTodos(_ context.Context, _ *sdkmcp.CallToolRequest, _ NoParams) (*sdkmcp.CallToolResult, ViewResponse, error) {
	return nil, t.settled(), nil
}

func (t *tools) setOrder(_ context.Context, _ *sdkmcp.CallToolRequest, in SetOrderParams) (*sdkmcp.CallToolResult, ViewResponse, error) {
	p := t.app.Params()
	p.OrderBy = in.OrderBy
	if in.Ascending != nil {
		p.Ascending = *in.Ascending
	}
	if err := t.app.SetParams(p); err != nil {
		return nil, ViewResponse{}, MapError(err)
	}
	return nil, t.settled(), nil
}

func (t *tools) setFilter(_ context.Context, _ *sdkmcp.CallToolRequest, in SetFilterParams) (*sdkmcp.CallToolResult, ViewResponse, error) {
	if err := t.app.SetFilter(in.Filter); err != nil {
		return nil, ViewResponse{}, MapError(err)
	}
	return nil, t.settled(), nil
}

func (t *tools) toggleDirection(_ context.Context, _ *sdkmcp.CallToolRequest, _ NoParams) (*sdkmcp.CallToolResult, ViewResponse, error) {
	if err := t.app.ToggleAscending(); err != nil {
		return nil, ViewResponse{}, MapError(err)
	}
	return nil, t.settled(), nil
}

func (t *tools) refresh(_ context.Context, _ *sdkmcp.CallToolRequest, _ NoParams) (*sdkmcp.CallToolResult, ViewResponse, error) {
	t.app.Refresh()
	return nil, t.settled(), nil
}

func (t *tools) getLocation(_ context.Context, _ *sdkmcp.CallToolRequest, _ NoParams) (*sdkmcp.CallToolResult, LocationResponse, error) {
	return nil, LocationResponse{URL: t.location.URL()}, nil
}

func (t *tools) mutationResponse(res mutation.Result) (*sdkmcp.CallToolResult, MutationResponse, error) {
	if err := resultError(res); err != nil {
		return nil, MutationResponse{}, err
	}
	out := MutationResponse{Op: res.Op, Status: res.Status, View: toViewResponse(t.app.View())}
	if res.Item.ID != 0 {
		item := toTodoItem(res.Item)
		out.Item = &item
	}
	return nil, out, nil
}

func (t *tools) addTodo(ctx context.Context, _ *sdkmcp.CallToolRequest, in AddTodoParams) (*sdkmcp.CallToolResult, MutationResponse, error) {
	return t.mutationResponse(t.app.Add(ctx, in.Title))
}

func (t *tools) toggleTodo(ctx context.Context, _ *sdkmcp.CallToolRequest, in TodoIDParams) (*sdkmcp.CallToolResult, MutationResponse, error) {
	return t.mutationResponse(t.app.Toggle(ctx, in.ID))
}

func (t *tools) renameTodo(ctx context.Context, _ *sdkmcp.CallToolRequest, in RenameTodoParams) (*sdkmcp.CallToolResult, MutationResponse, error) {
	t.app.BeginEdit(in.ID)
	res := t.app.Rename(ctx, in.ID, in.Title)
	if !res.OK() {
		t.app.CancelEdit(in.ID)
	}
	return t.mutationResponse(res)
}

func (t *tools) deleteTodo(ctx context.Context, _ *sdkmcp.CallToolRequest, in TodoIDParams) (*sdkmcp.CallToolResult, MutationResponse, error) {
	return t.mutationResponse(t.app.Delete(ctx, in.ID))
}
