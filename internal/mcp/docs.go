package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `checklist is a personal todo list. Tools act on one signed-in user's items.

- Call whoami first. If not signed in, call sign_in (or sign_up for a new account).
- list_todos returns the current view: items for the active order and filter.
- set_order, set_filter and toggle_direction change the view; the choice is saved in the location (get_location).
- add_todo, toggle_todo, rename_todo and delete_todo change items. Each returns the view after the change.
- toggle_todo shows the flip at once and undoes it if the store rejects the change (status ROLLED_BACK).
- Titles are 3 to 10 characters. Passwords are 6 to 12 characters.

Docs: checklist://docs/guide
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "checklist://docs/guide",
		Name:        "guide",
		Title:       "checklist guide",
		Description: "How the list view, filters and item changes behave.",
		Content: `# checklist

## Signing in

` + "`sign_up`" + ` creates an account and signs in. ` + "`sign_in`" + ` reuses one. The access token is kept between runs, so a restarted server is still signed in. ` + "`sign_out`" + ` clears the token, the list and the saved filter.

## The view

` + "`list_todos`" + ` returns:

- ` + "`params`" + `: ` + "`orderBy`" + ` (title, completed, created_at), ` + "`isAscending`" + `, ` + "`filter`" + ` (ALL, ACTIVE, COMPLETED).
- ` + "`items`" + `: the list for those params.
- ` + "`loading`" + ` / ` + "`stale`" + `: a fetch is running, or the shown list may be out of date.
- ` + "`error`" + `: the last fetch failure, if any. Call ` + "`refresh`" + ` to retry.

Each distinct params value is cached separately. Switching back to an earlier filter shows the cached list and refetches it.

## Changing items

| Tool | Behavior |
|---|---|
| ` + "`add_todo`" + ` | Appended once the store assigns an id. |
| ` + "`toggle_todo`" + ` | Shown at once; undone if the store rejects it. |
| ` + "`rename_todo`" + ` | Applied once the store accepts it. |
| ` + "`delete_todo`" + ` | Removed once the store accepts it. |

Errors carry a code (` + "`UNAUTHENTICATED`" + `, ` + "`INVALID_TITLE`" + `, ` + "`TODO_NOT_FOUND`" + `, ` + "`ROLLED_BACK`" + `, ...) and a hint.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
