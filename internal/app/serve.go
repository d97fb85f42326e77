package app

import (
	"context"
	"strings"

	"go.uber.org/zap"

	shelfmcp "github.com/five82/shelf/internal/mcp"
	"github.com/five82/shelf/internal/server"
)

// Serve runs the JSON API until ctx is cancelled. An empty addr uses the
// configured http_bind.
func Serve(ctx context.Context, opts Options, addr string) error {
	svc, err := Bootstrap(ctx, opts)
	if err != nil {
		return err
	}
	defer svc.Close()

	if strings.TrimSpace(addr) == "" {
		addr = svc.Config.HTTPBind
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := StartRefresher(ctx, svc.Store, svc.Catalog, svc.Config.RefreshInterval, svc.Logger.Named("refresher"))

	srv := server.New(svc.Catalog, svc.Library, svc.Explainer, svc.Logger.Named("http"))
	err = srv.ListenAndServe(ctx, addr)
	cancel()
	<-done
	return err
}

// ServeMCP exposes the catalog tools over stdio, or over streamable HTTP when
// httpAddr is set. Logs always go to stderr or the log file so stdout stays
// reserved for the protocol.
func ServeMCP(ctx context.Context, opts Options, httpAddr string) error {
	svc, err := Bootstrap(ctx, opts)
	if err != nil {
		return err
	}
	defer svc.Close()

	logger := svc.Logger.Named("mcp")
	s := shelfmcp.NewServer(shelfmcp.Tools{
		Catalog:   svc.Catalog,
		Explainer: svc.Explainer,
		Logger:    logger,
	})

	if strings.TrimSpace(httpAddr) != "" {
		return shelfmcp.ServeHTTP(ctx, s, httpAddr, logger)
	}
	logger.Info("serving mcp on stdio", zap.Bool("explain", svc.Explainer.Enabled()))
	return shelfmcp.ServeStdio(s)
}
