package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/app"
	"github.com/five82/shelf/internal/catalog"
)

// withServices boots the shared services for a one-shot command.
func withServices(ctx context.Context, flags *globalFlags, fn func(*app.Services) error) error {
	svc, err := app.Bootstrap(ctx, flags.options())
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc)
}

func newCacheCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the cached catalog",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "clear",
			Short: "Delete the cached catalog",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withServices(cmd.Context(), flags, func(svc *app.Services) error {
					if err := svc.Catalog.Clear(); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "refresh",
			Short: "Fetch every sheet again and rewrite the cache",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withServices(cmd.Context(), flags, func(svc *app.Services) error {
					snap, err := svc.Catalog.Refresh(cmd.Context())
					if err != nil {
						return fmt.Errorf("refresh catalog: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "cached %d subjects, %d books\n", len(snap.Subjects), snap.BookCount())
					return nil
				})
			},
		},
	)
	return cmd
}

func newSubjectsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "subjects",
		Short: "List the subjects of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd.Context(), flags, func(svc *app.Services) error {
				subjects := svc.Catalog.Subjects(cmd.Context())
				if len(subjects) == 0 {
					return fmt.Errorf("no subjects found")
				}
				rows := make([][]string, len(subjects))
				for i, s := range subjects {
					rows[i] = []string{s.ID, s.Name}
				}
				printTable(cmd.OutOrStdout(), []string{"ID", "SUBJECT"}, rows)
				return nil
			})
		},
	}
}

func newBooksCmd(flags *globalFlags) *cobra.Command {
	var sortBy, dir, query string
	cmd := &cobra.Command{
		Use:   "books <subject>",
		Short: "List the books of a subject (name or ID)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := catalog.ParseSortField(sortBy)
			if err != nil {
				return err
			}
			direction, err := catalog.ParseDirection(dir)
			if err != nil {
				return err
			}
			return withServices(cmd.Context(), flags, func(svc *app.Services) error {
				ctx := cmd.Context()
				subject, ok := findSubject(ctx, svc.Catalog, args[0])
				if !ok {
					return fmt.Errorf("unknown subject %q", args[0])
				}
				books := catalog.Sort(catalog.Search(svc.Catalog.Books(ctx, subject.Name), query), field, direction)
				rows := make([][]string, len(books))
				for i, b := range books {
					rows[i] = []string{strconv.Itoa(b.Order), b.Title, b.Rating, b.ID}
				}
				printTable(cmd.OutOrStdout(), []string{"#", "TITLE", "RATING", "ID"}, rows)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", "order", "sort by order, title or rating")
	cmd.Flags().StringVar(&dir, "dir", "asc", "sort direction, asc or desc")
	cmd.Flags().StringVarP(&query, "query", "q", "", "only books whose title or synopsis contains this text")
	return cmd
}

func findSubject(ctx context.Context, cat *catalog.Catalog, arg string) (catalog.Subject, bool) {
	if s, ok := cat.SubjectByID(ctx, arg); ok {
		return s, true
	}
	if s, ok := cat.SubjectByID(ctx, catalog.Slug(arg)); ok {
		return s, true
	}
	return catalog.Subject{}, false
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}
