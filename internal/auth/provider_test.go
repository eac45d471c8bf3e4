package auth_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rpggio/checklist/internal/auth"
	"github.com/rpggio/checklist/internal/domain/session"
	"github.com/rpggio/checklist/internal/domain/todo"
	"github.com/rpggio/checklist/internal/repository"
	"github.com/rpggio/checklist/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var creds = session.Credentials{Email: "alice@example.com", Password: "secret1"}

func issued() *session.ProviderSession {
	return &session.ProviderSession{
		AccessToken: "tok-1",
		User:        session.User{ID: "u1", Email: creds.Email, Audience: session.AudienceAuthenticated},
	}
}

func TestProvider_SignInEmitsAndStoresToken(t *testing.T) {
	ctx := context.Background()
	backend := &mocks.AuthBackend{}
	backend.On("SignIn", ctx, creds.Email, creds.Password).Return(issued(), nil)
	tokens := &auth.MemoryTokenStore{}

	p := auth.NewProvider(backend, tokens, nil)
	var events []session.EventKind
	p.OnSessionChange(func(ev session.Event) { events = append(events, ev.Kind) })

	ps, err := p.SignIn(ctx, creds)
	require.NoError(t, err)
	require.Equal(t, "u1", ps.User.ID)
	require.Equal(t, []session.EventKind{session.EventSignedIn}, events)
	require.Equal(t, "tok-1", p.AccessToken())

	ti, err := tokens.Load()
	require.NoError(t, err)
	require.Equal(t, "tok-1", ti.Token)

	got, err := p.GetSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "u1", got.User.ID)
}

func TestProvider_SignInErrors(t *testing.T) {
	ctx := context.Background()
	backend := &mocks.AuthBackend{}
	backend.On("SignIn", ctx, creds.Email, creds.Password).Return(nil, repository.ErrUnauthorized)
	backend.On("SignUp", ctx, creds.Email, creds.Password).Return(nil, repository.ErrConflict)

	p := auth.NewProvider(backend, &auth.MemoryTokenStore{}, nil)

	_, err := p.SignIn(ctx, creds)
	require.ErrorIs(t, err, session.ErrInvalidCredentials)
	_, err = p.SignUp(ctx, creds)
	require.ErrorIs(t, err, session.ErrEmailTaken)

	_, err = p.SignIn(ctx, session.Credentials{Email: "bad", Password: "secret1"})
	require.ErrorIs(t, err, todo.ErrInvalidEmail)
	backend.AssertNumberOfCalls(t, "SignIn", 1)
}

func TestProvider_GetSessionResolvesStoredToken(t *testing.T) {
	ctx := context.Background()
	backend := &mocks.AuthBackend{}
	backend.On("GetUser", ctx, "tok-1").Return(&issued().User, nil).Once()

	tokens := &auth.MemoryTokenStore{}
	require.NoError(t, tokens.Save("tok-1"))

	p := auth.NewProvider(backend, tokens, nil)
	ps, err := p.GetSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "u1", ps.User.ID)

	_, err = p.GetSession(ctx)
	require.NoError(t, err)
	backend.AssertExpectations(t)
}

func TestProvider_GetSessionDropsRejectedToken(t *testing.T) {
	ctx := context.Background()
	backend := &mocks.AuthBackend{}
	backend.On("GetUser", ctx, "stale").Return(nil, repository.ErrUnauthorized)

	tokens := &auth.MemoryTokenStore{}
	require.NoError(t, tokens.Save("stale"))

	p := auth.NewProvider(backend, tokens, nil)
	ps, err := p.GetSession(ctx)
	require.NoError(t, err)
	require.Nil(t, ps)

	ti, err := tokens.Load()
	require.NoError(t, err)
	require.Nil(t, ti)
}

func TestProvider_GetSessionNoToken(t *testing.T) {
	p := auth.NewProvider(&mocks.AuthBackend{}, &auth.MemoryTokenStore{}, nil)
	ps, err := p.GetSession(context.Background())
	require.NoError(t, err)
	require.Nil(t, ps)
}

func TestProvider_SignOutAlwaysClears(t *testing.T) {
	ctx := context.Background()
	backend := &mocks.AuthBackend{}
	backend.On("SignIn", ctx, creds.Email, creds.Password).Return(issued(), nil)
	backend.On("SignOut", ctx, "tok-1").Return(errors.New("offline"))

	tokens := &auth.MemoryTokenStore{}
	p := auth.NewProvider(backend, tokens, nil)
	var events []session.EventKind
	unsubscribe := p.OnSessionChange(func(ev session.Event) { events = append(events, ev.Kind) })

	_, err := p.SignIn(ctx, creds)
	require.NoError(t, err)

	err = p.SignOut(ctx)
	require.Error(t, err)
	require.Equal(t, []session.EventKind{session.EventSignedIn, session.EventSignedOut}, events)
	require.Empty(t, p.AccessToken())
	ti, _ := tokens.Load()
	require.Nil(t, ti)

	unsubscribe()
	unsubscribe()
	require.NoError(t, p.SignOut(ctx))
	require.Len(t, events, 2)
	backend.AssertNumberOfCalls(t, "SignOut", 1)
	backend.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
}

func TestFileTokenStore(t *testing.T) {
	t.Setenv(auth.TokenEnv, "")
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	store, err := auth.NewFileTokenStore(path)
	require.NoError(t, err)

	ti, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, ti)

	require.NoError(t, store.Save("Bearer tok-9"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	ti, err = store.Load()
	require.NoError(t, err)
	require.Equal(t, "tok-9", ti.Token)
	require.Equal(t, "file", ti.Source)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	ti, err = store.Load()
	require.NoError(t, err)
	require.Nil(t, ti)
}

func TestFileTokenStore_EnvOverride(t *testing.T) {
	t.Setenv(auth.TokenEnv, "bearer from-env")
	store, err := auth.NewFileTokenStore(filepath.Join(t.TempDir(), "credentials.json"))
	require.NoError(t, err)

	ti, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "from-env", ti.Token)
	require.Equal(t, "env", ti.Source)
}
