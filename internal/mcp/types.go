package mcp

import (
	"time"

	"github.com/rpggio/checklist/internal/app"
	"github.com/rpggio/checklist/internal/domain/todo"
	"github.com/rpggio/checklist/internal/mutation"
)

type NoParams struct{}

type CredentialsParams struct {
	Email    string `json:"email" jsonschema:"account email address"`
	Password string `json:"password" jsonschema:"account password, 6 to 12 characters"`
}

type SetOrderParams struct {
	OrderBy   todo.OrderBy `json:"order_by" jsonschema:"sort column: title, completed or created_at"`
	Ascending *bool        `json:"ascending,omitempty" jsonschema:"sort direction; omit to keep the current one"`
}

type SetFilterParams struct {
	Filter todo.Filter `json:"filter" jsonschema:"ALL, ACTIVE or COMPLETED"`
}

type AddTodoParams struct {
	Title string `json:"title" jsonschema:"item title, 3 to 10 characters"`
}

type TodoIDParams struct {
	ID int64 `json:"id" jsonschema:"item id from list_todos"`
}

type RenameTodoParams struct {
	ID    int64  `json:"id" jsonschema:"item id from list_todos"`
	Title string `json:"title" jsonschema:"new title, 3 to 10 characters"`
}

type WhoAmIResponse struct {
	Loaded   bool      `json:"loaded"`
	SignedIn bool      `json:"signed_in"`
	User     *app.User `json:"user,omitempty"`
}

// TodoItem is a todo as tools report it.
type TodoItem struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"created_at"`
}

type ViewResponse struct {
	Loaded   bool             `json:"loaded"`
	SignedIn bool             `json:"signed_in"`
	User     *app.User        `json:"user,omitempty"`
	Params   todo.QueryParams `json:"params"`
	Items    []TodoItem       `json:"items"`
	Loading  bool             `json:"loading"`
	Stale    bool             `json:"stale"`
	Error    string           `json:"error,omitempty"`
	Editing  []int64          `json:"editing"`
}

type MutationResponse struct {
	Op     mutation.Op     `json:"op"`
	Status mutation.Status `json:"status"`
	Item   *TodoItem       `json:"item,omitempty"`
	View   ViewResponse    `json:"view"`
}

type LocationResponse struct {
	URL string `json:"url"`
}

func toTodoItem(t todo.Todo) TodoItem {
	return TodoItem{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toViewResponse(v app.View) ViewResponse {
	items := make([]TodoItem, len(v.Items))
	for i, t := range v.Items {
		items[i] = toTodoItem(t)
	}
	editing := v.Editing
	if editing == nil {
		editing = []int64{}
	}
	return ViewResponse{
		Loaded:   v.Loaded,
		SignedIn: v.SignedIn,
		User:     v.User,
		Params:   v.Params,
		Items:    items,
		Loading:  v.Loading,
		Stale:    v.Stale,
		Error:    v.Error,
		Editing:  editing,
	}
}
