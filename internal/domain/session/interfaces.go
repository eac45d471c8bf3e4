package session

import "context"

// Credentials identify a user for password sign-in and sign-up.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Provider issues sessions and reports changes to them.
type Provider interface {
	GetSession(ctx context.Context) (*ProviderSession, error)
	// OnSessionChange registers listener and returns the func that removes it.
	OnSessionChange(listener func(Event)) (unsubscribe func())
	SignIn(ctx context.Context, creds Credentials) (*ProviderSession, error)
	SignUp(ctx context.Context, creds Credentials) (*ProviderSession, error)
	SignOut(ctx context.Context) error
}
