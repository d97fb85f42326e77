// Package explain asks a generative model for a plain-language explanation
// of a book.
package explain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"google.golang.org/genai"

	"github.com/five82/shelf/internal/catalog"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.0-flash"

	// EmptyAnswer is returned when the model answers with no text.
	EmptyAnswer = "Não foi possível gerar uma explicação para este livro."
	// FailureText is returned when the model cannot be reached.
	FailureText = "Erro ao gerar explicação. Por favor, tente novamente mais tarde."
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gemini is a Generator backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini builds a Gemini generator. apiKey is required.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string {
	return g.model
}

// Generate implements Generator.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}

// Prompt builds the question sent to the model.
func Prompt(title, synopsis string) string {
	return fmt.Sprintf("Explique com linguagem simples o conteúdo do livro %s, que trata sobre %s.", title, synopsis)
}

// Explainer wraps a Generator with the user-facing fallbacks and remembers
// successful answers per book for the life of the process.
type Explainer struct {
	gen    Generator
	logger *zap.Logger

	mu    sync.Mutex
	memo  map[string]string
	group singleflight.Group
}

// New returns an Explainer. A nil generator yields a disabled explainer that
// always answers with FailureText.
func New(gen Generator, logger *zap.Logger) *Explainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Explainer{gen: gen, logger: logger, memo: make(map[string]string)}
}

// Enabled reports whether a generator is configured.
func (e *Explainer) Enabled() bool {
	return e != nil && e.gen != nil
}

// Explain returns the explanation for book, reusing an earlier answer.
func (e *Explainer) Explain(ctx context.Context, book catalog.Book) string {
	if !e.Enabled() {
		return FailureText
	}
	e.mu.Lock()
	cached, ok := e.memo[book.ID]
	e.mu.Unlock()
	if ok {
		return cached
	}

	v, _, _ := e.group.Do(book.ID, func() (any, error) {
		text, err := e.generate(ctx, book.Title, book.Synopsis)
		if err != nil {
			return FailureText, nil
		}
		if book.ID != "" {
			e.mu.Lock()
			e.memo[book.ID] = text
			e.mu.Unlock()
		}
		return text, nil
	})
	return v.(string)
}

// ExplainText explains an arbitrary title and synopsis without memoizing.
func (e *Explainer) ExplainText(ctx context.Context, title, synopsis string) string {
	if !e.Enabled() {
		return FailureText
	}
	text, err := e.generate(ctx, title, synopsis)
	if err != nil {
		return FailureText
	}
	return text
}

// Forget drops every remembered answer.
func (e *Explainer) Forget() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.memo)
}

func (e *Explainer) generate(ctx context.Context, title, synopsis string) (string, error) {
	text, err := e.gen.Generate(ctx, Prompt(title, synopsis))
	if err != nil {
		e.logger.Warn("explanation failed", zap.String("title", title), zap.Error(err))
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return EmptyAnswer, nil
	}
	return text, nil
}
