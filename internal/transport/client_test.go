package transport_test

import (
	"context"
	"testing"

	"github.com/rpggio/checklist/internal/domain/todo"
	"github.com/rpggio/checklist/internal/repository"
	"github.com/rpggio/checklist/internal/testserver"
	"github.com/rpggio/checklist/internal/transport"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) AccessToken() string { return string(s) }

func TestClient_AuthRoundTrip(t *testing.T) {
	ctx := context.Background()
	ts := testserver.New(t)
	client := transport.NewClient(ts.URL(), nil)

	created, err := client.SignUp(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, created.AccessToken)

	_, err = client.SignUp(ctx, "alice@example.com", "secret1")
	require.ErrorIs(t, err, repository.ErrConflict)

	_, err = client.SignIn(ctx, "alice@example.com", "wrong12")
	require.ErrorIs(t, err, repository.ErrUnauthorized)

	user, err := client.GetUser(ctx, created.AccessToken)
	require.NoError(t, err)
	require.Equal(t, created.User.ID, user.ID)

	require.NoError(t, client.SignOut(ctx, created.AccessToken))
	_, err = client.GetUser(ctx, created.AccessToken)
	require.ErrorIs(t, err, repository.ErrUnauthorized)
}

func TestClient_TodoServiceOverHTTP(t *testing.T) {
	ctx := context.Background()
	ts := testserver.New(t)
	alice := ts.AddUser(t, "alice@example.com", "secret1")
	bob := ts.AddUser(t, "bob@example.com", "secret1")

	client := transport.NewClient(ts.URL(), nil)
	client.SetTokenSource(staticToken(alice.AccessToken))
	svc := todo.NewService(client, nil)

	milk, err := svc.Create(ctx, alice.User.ID, "buy milk")
	require.NoError(t, err)
	require.NotZero(t, milk.ID)
	require.False(t, milk.CreatedAt.IsZero())
	_, err = svc.Create(ctx, alice.User.ID, "walk dog")
	require.NoError(t, err)

	require.NoError(t, svc.SetCompleted(ctx, alice.User.ID, milk.ID, true))

	active, err := svc.List(ctx, alice.User.ID, todo.QueryParams{
		OrderBy: todo.OrderByTitle, Ascending: true, Filter: todo.FilterActive,
	})
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "walk dog", active[0].Title)

	// Bob's token cannot reach Alice's rows even when naming her user id.
	client.SetTokenSource(staticToken(bob.AccessToken))
	bobView, err := svc.List(ctx, alice.User.ID, todo.DefaultQueryParams())
	require.NoError(t, err)
	require.Empty(t, bobView)
	require.ErrorIs(t, svc.Delete(ctx, alice.User.ID, milk.ID), todo.ErrTodoNotFound)

	client.SetTokenSource(staticToken(""))
	_, err = svc.List(ctx, alice.User.ID, todo.DefaultQueryParams())
	require.ErrorIs(t, err, repository.ErrUnauthorized)
}
