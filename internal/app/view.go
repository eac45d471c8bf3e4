package app

import (
	"github.com/rpggio/checklist/internal/domain/todo"
)

// DefaultAvatarURL is shown for users without an avatar of their own.
const DefaultAvatarURL = "https://static.vecteezy.com/system/resources/thumbnails/009/292/244/small/default-avatar-icon-of-social-media-user-vector.jpg"

// User is the signed-in identity shown by the view.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// View is everything a renderer needs at one instant.
type View struct {
	// Loaded is false until the initial session fetch has completed.
	Loaded   bool             `json:"loaded"`
	SignedIn bool             `json:"signed_in"`
	User     *User            `json:"user,omitempty"`
	Params   todo.QueryParams `json:"params"`
	Items    []todo.Todo      `json:"items"`
	Loading  bool             `json:"loading"`
	Stale    bool             `json:"stale"`
	Error    string           `json:"error,omitempty"`
	Draft    string           `json:"draft"`
	Editing  []int64          `json:"editing"`
}

// View snapshots the current state.
func (a *App) View() View {
	s := a.sessions.Read()
	v := View{
		Loaded:   a.sync.Loaded(),
		SignedIn: s.Usable(),
		Params:   a.query.Params(),
		Items:    []todo.Todo{},
		Draft:    a.form.Value(),
		Editing:  a.edits.IDs(),
	}
	if s.Authenticated() {
		v.User = &User{ID: s.UserID, Email: s.Email, AvatarURL: s.AvatarURL}
		if v.User.AvatarURL == "" {
			v.User.AvatarURL = DefaultAvatarURL
		}
	}
	if !v.SignedIn {
		return v
	}

	if entry, ok := a.query.Entry(); ok {
		if entry.Items != nil {
			v.Items = entry.Items
		}
		v.Loading = entry.Loading
		v.Stale = entry.Stale
	}
	if err := a.query.Err(); err != nil {
		v.Error = err.Error()
	}
	return v
}
