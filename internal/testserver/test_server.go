package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rpggio/checklist/internal/domain/session"
	"github.com/rpggio/checklist/internal/sqlite"
	"github.com/rpggio/checklist/internal/transport"
	"github.com/stretchr/testify/require"
)

// TestServer is a backend server over a private in-memory database.
type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
	Rows   *sqlite.RowStore
	Auth   *sqlite.AuthRepository
}

func New(t *testing.T) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	rows := sqlite.NewRowStore(db)
	authRepo := sqlite.NewAuthRepository(db)
	server := httptest.NewServer(transport.NewServer(rows, authRepo, nil))

	ts := &TestServer{
		Server: server,
		DB:     db,
		Rows:   rows,
		Auth:   authRepo,
	}

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// URL returns the server's base URL.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}

// AddUser registers a user directly in the database and returns its session.
func (ts *TestServer) AddUser(t *testing.T, email, password string) *session.ProviderSession {
	t.Helper()
	ps, err := ts.Auth.SignUp(context.Background(), email, password)
	require.NoError(t, err)
	return ps
}
