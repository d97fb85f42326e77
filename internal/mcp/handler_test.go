package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/five82/shelf/internal/catalog"
	"github.com/five82/shelf/internal/explain"
)

type memSource struct {
	names  []string
	sheets map[string][][]string
}

func (s memSource) SheetNames(context.Context) ([]string, error) { return s.names, nil }

func (s memSource) Rows(_ context.Context, sheet string) ([][]string, error) {
	return s.sheets[sheet], nil
}

type fixedGenerator struct{ answer string }

func (g fixedGenerator) Generate(context.Context, string) (string, error) { return g.answer, nil }

func newTools(gen explain.Generator) Tools {
	src := memSource{
		names: []string{"Direito Civil", "Direito Penal"},
		sheets: map[string][][]string{
			"Direito Civil": {
				{"Title", "Synopsis", "Rating", "Order"},
				{"Contratos", "Teoria geral dos contratos", "5", "2"},
				{"Obrigações", "Direito das obrigações", "3", "1"},
			},
			"Direito Penal": {
				{"Nome", "Sinopse", "Nota", "Ordem"},
				{"Parte Geral", "Teoria do crime", "4", "1"},
			},
		},
	}
	return Tools{
		Catalog:   catalog.New(src, nil, nil),
		Explainer: explain.New(gen, nil),
	}
}

func callRequest(name string, args any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Request: mcp.Request{Method: "tools/call"},
		Params:  mcp.CallToolParams{Name: name, Arguments: args},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", result.Content[0])
	return text.Text
}

func TestNewServer(t *testing.T) {
	s := NewServer(newTools(nil))
	require.NotNil(t, s)
}

func TestToolsList(t *testing.T) {
	for _, tc := range []struct {
		name        string
		gen         explain.Generator
		wantExplain bool
	}{
		{"explainer disabled", nil, false},
		{"explainer enabled", fixedGenerator{answer: "ok"}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := NewServer(newTools(tc.gen))
			resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
			data, err := json.Marshal(resp)
			require.NoError(t, err)
			out := string(data)

			for _, name := range []string{"list_subjects", "list_books", "search_books", "get_book"} {
				require.Contains(t, out, `"`+name+`"`)
			}
			require.Equal(t, tc.wantExplain, strings.Contains(out, `"explain_book"`))
		})
	}
}

func TestListSubjects(t *testing.T) {
	tools := newTools(nil)
	result, err := tools.listSubjects(context.Background(), callRequest("list_subjects", nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var subjects []catalog.Subject
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &subjects))
	require.Len(t, subjects, 2)
}

func TestListBooks(t *testing.T) {
	tools := newTools(nil)
	ctx := context.Background()

	args := ListBooksRequest{Subject: "direito civil", Sort: "title", Dir: "desc"}
	result, err := tools.listBooks(ctx, callRequest("list_books", args), args)
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var resp ListBooksResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	require.Equal(t, "Direito Civil", resp.Subject.Name)
	require.Equal(t, "Obrigações", resp.Books[0].Title)

	args = ListBooksRequest{Subject: "direito-penal", Query: "nada"}
	result, err = tools.listBooks(ctx, callRequest("list_books", args), args)
	require.NoError(t, err)
	require.Contains(t, resultText(t, result), `"books":[]`)
}

func TestListBooksValidation(t *testing.T) {
	tools := newTools(nil)
	ctx := context.Background()

	for _, args := range []ListBooksRequest{
		{},
		{Subject: "Direito Civil", Sort: "pages"},
		{Subject: "Direito Civil", Dir: "up"},
		{Subject: "Direito Tributário"},
	} {
		result, err := tools.listBooks(ctx, callRequest("list_books", args), args)
		require.NoError(t, err)
		require.True(t, result.IsError, "args %+v", args)
	}
}

func TestSearchAndGetBook(t *testing.T) {
	tools := newTools(nil)
	ctx := context.Background()

	args := SearchBooksRequest{Query: "teoria"}
	result, err := tools.searchBooks(ctx, callRequest("search_books", args), args)
	require.NoError(t, err)
	var resp SearchBooksResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	require.Equal(t, 2, resp.Total)

	get := BookRequest{ID: resp.Books[0].ID}
	result, err = tools.getBook(ctx, callRequest("get_book", get), get)
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Contains(t, resultText(t, result), resp.Books[0].Title)

	for _, bad := range []BookRequest{{}, {ID: "missing-1"}} {
		result, err = tools.getBook(ctx, callRequest("get_book", bad), bad)
		require.NoError(t, err)
		require.True(t, result.IsError)
	}

	empty := SearchBooksRequest{Query: "  "}
	result, err = tools.searchBooks(ctx, callRequest("search_books", empty), empty)
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestExplainBook(t *testing.T) {
	tools := newTools(fixedGenerator{answer: "Um livro sobre contratos."})
	ctx := context.Background()
	book := tools.Catalog.Books(ctx, "Direito Civil")[0]

	args := BookRequest{ID: book.ID}
	result, err := tools.explainBook(ctx, callRequest("explain_book", args), args)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var resp ExplainResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	require.Equal(t, "Um livro sobre contratos.", resp.Explanation)
	require.Equal(t, book.ID, resp.Book.ID)
}
