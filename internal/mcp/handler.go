package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/five82/shelf/internal/catalog"
	"github.com/five82/shelf/internal/explain"
)

const Version = "0.1.0"

// searchLimit caps how many books search_books returns.
const searchLimit = 50

type ListBooksRequest struct {
	Subject string `json:"subject"` // subject name or ID
	Sort    string `json:"sort"`
	Dir     string `json:"dir"`
	Query   string `json:"query"`
}

type ListBooksResponse struct {
	Subject catalog.Subject `json:"subject"`
	Books   []catalog.Book  `json:"books"`
}

type SearchBooksRequest struct {
	Query string `json:"query"`
}

type SearchBooksResponse struct {
	Total int            `json:"total"`
	Books []catalog.Book `json:"books"`
}

type BookRequest struct {
	ID string `json:"id"`
}

type ExplainResponse struct {
	Book        catalog.Book `json:"book"`
	Explanation string       `json:"explanation"`
}

// Tools bundles what the handlers read from.
type Tools struct {
	Catalog   *catalog.Catalog
	Explainer *explain.Explainer
	Logger    *zap.Logger
}

// NewServer creates an MCP server exposing the catalog tools. explain_book is
// only registered when the explainer is enabled.
func NewServer(t Tools) *server.MCPServer {
	if t.Logger == nil {
		t.Logger = zap.NewNop()
	}

	s := server.NewMCPServer(
		"shelf",
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("list_subjects",
		mcp.WithDescription("List the subjects (spreadsheet sheets) of the reading catalog"),
	), t.listSubjects)

	s.AddTool(mcp.NewTool("list_books",
		mcp.WithDescription("List the books of one subject, optionally filtered and sorted"),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Subject name or ID as returned by list_subjects"),
		),
		mcp.WithString("sort",
			mcp.Description("Sort field"),
			mcp.Enum(string(catalog.SortByOrder), string(catalog.SortByTitle), string(catalog.SortByRating)),
		),
		mcp.WithString("dir",
			mcp.Description("Sort direction"),
			mcp.Enum(string(catalog.Ascending), string(catalog.Descending)),
		),
		mcp.WithString("query",
			mcp.Description("Case-insensitive text matched against title and synopsis"),
		),
	), mcp.NewTypedToolHandler(t.listBooks))

	s.AddTool(mcp.NewTool("search_books",
		mcp.WithDescription("Search every subject for books whose title or synopsis contains the query"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to search for"),
		),
	), mcp.NewTypedToolHandler(t.searchBooks))

	s.AddTool(mcp.NewTool("get_book",
		mcp.WithDescription("Get one book by ID"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Book ID as returned by list_books or search_books"),
		),
	), mcp.NewTypedToolHandler(t.getBook))

	if t.Explainer.Enabled() {
		s.AddTool(mcp.NewTool("explain_book",
			mcp.WithDescription("Explain a book's content in plain Portuguese using Gemini"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Book ID"),
			),
		), mcp.NewTypedToolHandler(t.explainBook))
	}

	return s
}

func (t Tools) listSubjects(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subjects := t.Catalog.Subjects(ctx)
	if len(subjects) == 0 {
		return mcp.NewToolResultError("no subjects available; the catalog could not be loaded"), nil
	}
	return jsonResult(subjects)
}

func (t Tools) listBooks(ctx context.Context, _ mcp.CallToolRequest, args ListBooksRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(args.Subject)
	if name == "" {
		return mcp.NewToolResultError("subject is required"), nil
	}
	field, err := catalog.ParseSortField(args.Sort)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dir, err := catalog.ParseDirection(args.Dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	subject, ok := t.findSubject(ctx, name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown subject %q", name)), nil
	}
	books := catalog.Sort(catalog.Search(t.Catalog.Books(ctx, subject.Name), args.Query), field, dir)
	return jsonResult(ListBooksResponse{Subject: subject, Books: nonNil(books)})
}

func (t Tools) searchBooks(ctx context.Context, _ mcp.CallToolRequest, args SearchBooksRequest) (*mcp.CallToolResult, error) {
	if strings.TrimSpace(args.Query) == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	matches := catalog.Search(t.Catalog.AllBooks(ctx), args.Query)
	resp := SearchBooksResponse{Total: len(matches), Books: nonNil(matches)}
	if len(resp.Books) > searchLimit {
		resp.Books = resp.Books[:searchLimit]
	}
	return jsonResult(resp)
}

func (t Tools) getBook(ctx context.Context, _ mcp.CallToolRequest, args BookRequest) (*mcp.CallToolResult, error) {
	book, errResult := t.lookupBook(ctx, args.ID)
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(book)
}

func (t Tools) explainBook(ctx context.Context, _ mcp.CallToolRequest, args BookRequest) (*mcp.CallToolResult, error) {
	book, errResult := t.lookupBook(ctx, args.ID)
	if errResult != nil {
		return errResult, nil
	}
	text := t.Explainer.Explain(ctx, book)
	if text == explain.FailureText {
		return mcp.NewToolResultError(text), nil
	}
	return jsonResult(ExplainResponse{Book: book, Explanation: text})
}

func (t Tools) lookupBook(ctx context.Context, id string) (catalog.Book, *mcp.CallToolResult) {
	id = strings.TrimSpace(id)
	if id == "" {
		return catalog.Book{}, mcp.NewToolResultError("id is required")
	}
	book, ok := t.Catalog.Book(ctx, id)
	if !ok {
		return catalog.Book{}, mcp.NewToolResultError(fmt.Sprintf("unknown book %q", id))
	}
	return book, nil
}

// findSubject matches a subject by ID first, then by name ignoring case.
func (t Tools) findSubject(ctx context.Context, name string) (catalog.Subject, bool) {
	if subject, ok := t.Catalog.SubjectByID(ctx, name); ok {
		return subject, true
	}
	for _, subject := range t.Catalog.Subjects(ctx) {
		if strings.EqualFold(subject.Name, name) {
			return subject, true
		}
	}
	return catalog.Subject{}, false
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
