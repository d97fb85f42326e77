package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// DefaultEndpoint is the path of the streamable HTTP transport.
const DefaultEndpoint = "/mcp"

// ServeStdio serves s on stdin and stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("serve mcp stdio: %w", err)
	}
	return nil
}

// ServeHTTP serves s over streamable HTTP on addr until ctx is cancelled.
func ServeHTTP(ctx context.Context, s *server.MCPServer, addr string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	httpServer := server.NewStreamableHTTPServer(s, server.WithEndpointPath(DefaultEndpoint))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mcp http server listening", zap.String("addr", addr), zap.String("endpoint", DefaultEndpoint))
		errCh <- httpServer.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve mcp http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown mcp http: %w", err)
	}
	logger.Info("mcp http server stopped")
	return nil
}
