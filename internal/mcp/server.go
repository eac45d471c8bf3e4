package mcp

import (
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/checklist/internal/app"
)

// Location exposes the address that carries the saved filter.
type Location interface {
	URL() string
}

// Config contains server configuration.
type Config struct {
	App      *app.App
	Location Location
	Version  string
	Logger   *slog.Logger
}

// NewServer creates an MCP server exposing the app's view and operations as
// tools. The app must already be started.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "checklist",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(readyMiddleware(cfg.App.Ready()))
	server.AddReceivingMiddleware(userMiddleware(func() string { return cfg.App.Session().UserID }))
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, &tools{app: cfg.App, location: cfg.Location})

	return server
}
