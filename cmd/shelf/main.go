package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "shelf: %v\n", err)
		return 1
	}
	return 0
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	prefsPath  string
	verbose    bool
}

func (g *globalFlags) options() app.Options {
	return app.Options{
		ConfigPath: g.configPath,
		PrefsPath:  g.prefsPath,
		Verbose:    g.verbose,
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "shelf",
		Short: "Browse a spreadsheet-backed reading catalog",
		Long: `shelf reads a reading catalog kept in a spreadsheet, one sheet per subject
and one row per book, and lets you browse it, keep favorites and track
reading progress.

Run without arguments to start the terminal interface.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), flags.options())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.config/shelf/config.toml)")
	pf.StringVar(&flags.prefsPath, "prefs", "", "UI preferences file (default ~/.config/shelf/prefs.toml)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newServeCmd(flags),
		newMCPCmd(flags),
		newCacheCmd(flags),
		newSubjectsCmd(flags),
		newBooksCmd(flags),
	)
	return root
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog, favorites and history as a JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Serve(cmd.Context(), flags.options(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default http_bind from config)")
	return cmd
}

func newMCPCmd(flags *globalFlags) *cobra.Command {
	var httpAddr string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Expose the catalog as Model Context Protocol tools",
		Long: `Serves list_subjects, list_books, search_books, get_book and, when a Gemini
key is configured, explain_book. Uses stdio unless --http is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.ServeMCP(cmd.Context(), flags.options(), httpAddr)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address instead of stdio (e.g. :8090)")
	return cmd
}
