package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const userIDKey contextKey = iota

// getUserID returns the signed-in user id recorded for the request, if any.
func getUserID(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// readyMiddleware holds tool calls until the initial session load has
// finished, so the first call sees the restored session.
func readyMiddleware(ready <-chan struct{}) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method != "tools/call" {
				return next(ctx, method, req)
			}
			select {
			case <-ready:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return next(ctx, method, req)
		}
	}
}

// userMiddleware records the signed-in user id in the request context.
func userMiddleware(currentUser func() string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if id := currentUser(); id != "" {
				ctx = context.WithValue(ctx, userIDKey, id)
			}
			return next(ctx, method, req)
		}
	}
}
