package session

// AudienceAuthenticated is the audience a session must carry to be usable.
const AudienceAuthenticated = "authenticated"

// Session is the identity currently recognized by the client. Empty strings
// stand for absent values; the zero Session is the signed-out state.
type Session struct {
	UserID    string `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Audience  string `json:"aud,omitempty"`
}

// Authenticated reports whether a user is present.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

// Usable reports whether gated operations may run for this session.
func (s Session) Usable() bool {
	return s.UserID != "" && s.Audience == AudienceAuthenticated
}

// IsZero reports whether s is the empty session.
func (s Session) IsZero() bool {
	return s == Session{}
}

// User is the identity record issued by the auth provider.
type User struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Audience string         `json:"aud"`
	Metadata map[string]any `json:"user_metadata,omitempty"`
}

// AvatarURL returns the avatar from the user's metadata, if any.
func (u User) AvatarURL() string {
	v, _ := u.Metadata["avatar_url"].(string)
	return v
}

// ProviderSession is a session as issued by the auth provider.
type ProviderSession struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// EventKind names a provider session change.
type EventKind string

const (
	EventInitialSession EventKind = "INITIAL_SESSION"
	EventSignedIn       EventKind = "SIGNED_IN"
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
	EventUserUpdated    EventKind = "USER_UPDATED"
)

// Event is emitted by the provider whenever its session changes.
type Event struct {
	Kind    EventKind
	Session *ProviderSession
}

// Normalize converts a provider session into the store's shape. A nil
// session normalizes to the empty Session.
func Normalize(ps *ProviderSession) Session {
	if ps == nil || ps.User.ID == "" {
		return Session{}
	}
	return Session{
		UserID:    ps.User.ID,
		Email:     ps.User.Email,
		AvatarURL: ps.User.AvatarURL(),
		Audience:  ps.User.Audience,
	}
}
