package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/five82/shelf/internal/catalog"
	"github.com/five82/shelf/internal/explain"
	"github.com/five82/shelf/internal/library"
)

const (
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 1 << 16
)

// Server exposes the catalog, library and explainer as a JSON API.
type Server struct {
	catalog   *catalog.Catalog
	library   *library.Library
	explainer *explain.Explainer
	logger    *zap.Logger
	router    *mux.Router
}

// New wires the routes. A nil library lives in memory and a nil explainer is
// disabled.
func New(cat *catalog.Catalog, lib *library.Library, explainer *explain.Explainer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lib == nil {
		lib = library.Open("", logger)
	}
	if explainer == nil {
		explainer = explain.New(nil, logger)
	}
	s := &Server{
		catalog:   cat,
		library:   lib,
		explainer: explainer,
		logger:    logger,
		router:    mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	// Subject and book IDs keep any "/" of the sheet name, so clients send
	// them path-escaped (%2F) and routes match on the escaped path.
	r.UseEncodedPath()
	r.Use(s.logRequests)
	// Fallback handlers bypass router middleware and log on their own.
	r.NotFoundHandler = s.logRequests(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	}))
	r.MethodNotAllowedHandler = s.logRequests(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}))

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/subjects", s.handleSubjects).Methods(http.MethodGet)
	api.HandleFunc("/subjects/{id}/books", s.handleSubjectBooks).Methods(http.MethodGet)
	api.HandleFunc("/books", s.handleBooks).Methods(http.MethodGet)
	api.HandleFunc("/books/{id}", s.handleBook).Methods(http.MethodGet)
	api.HandleFunc("/books/{id}/explain", s.handleExplain).Methods(http.MethodPost)
	api.HandleFunc("/favorites", s.handleFavorites).Methods(http.MethodGet)
	api.HandleFunc("/favorites/{id}", s.handleAddFavorite).Methods(http.MethodPut)
	api.HandleFunc("/favorites/{id}", s.handleRemoveFavorite).Methods(http.MethodDelete)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/history", s.handleRecordHistory).Methods(http.MethodPost)
	api.HandleFunc("/cache", s.handleClearCache).Methods(http.MethodDelete)
	api.HandleFunc("/cache/refresh", s.handleRefreshCache).Methods(http.MethodPost)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	<-errCh
	s.logger.Info("http server stopped")
	return nil
}

// Handlers

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"cacheFresh": s.catalog.Fresh(),
		"explain":    s.explainer.Enabled(),
	})
}

func (s *Server) handleSubjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.catalog.Subjects(r.Context())))
}

func (s *Server) handleSubjectBooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	subject, ok := s.catalog.SubjectByID(ctx, id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown subject %q", id))
		return
	}

	q := r.URL.Query()
	field, err := catalog.ParseSortField(q.Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dir, err := catalog.ParseDirection(q.Get("dir"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	books := catalog.Sort(catalog.Search(s.catalog.Books(ctx, subject.Name), q.Get("q")), field, dir)
	writeJSON(w, http.StatusOK, map[string]any{
		"subject": subject,
		"books":   nonNil(books),
	})
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	books := catalog.Search(s.catalog.AllBooks(r.Context()), r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, nonNil(books))
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	book, ok := s.lookupBook(w, r)
	if !ok {
		return
	}
	resp := map[string]any{
		"book":     book,
		"favorite": s.library.IsFavorite(book.ID),
	}
	if progress, ok := s.library.Progress(book.ID); ok {
		resp["progress"] = progress
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	book, ok := s.lookupBook(w, r)
	if !ok {
		return
	}
	if !s.explainer.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "explanations are not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"bookId":      book.ID,
		"explanation": s.explainer.Explain(r.Context(), book),
	})
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	books := library.ResolveFavorites(s.library.Favorites(), s.catalog.AllBooks(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{
		"ids":   nonNil(s.library.Favorites()),
		"books": nonNil(books),
	})
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	s.updateFavorite(w, r, s.library.AddFavorite)
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	s.updateFavorite(w, r, s.library.RemoveFavorite)
}

func (s *Server) updateFavorite(w http.ResponseWriter, r *http.Request, apply func(string) error) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	id = strings.TrimSpace(id)
	if id == "" {
		writeError(w, http.StatusBadRequest, "book id is required")
		return
	}
	if err := apply(id); err != nil {
		s.logger.Error("update favorites failed", zap.String("book", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save favorites")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       id,
		"favorite": s.library.IsFavorite(id),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	items := library.Resolve(s.library.History(), s.catalog.AllBooks(r.Context()))
	writeJSON(w, http.StatusOK, nonNil(items))
}

type historyRequest struct {
	BookID   string   `json:"bookId"`
	Progress *float64 `json:"progress"`
}

func (s *Server) handleRecordHistory(w http.ResponseWriter, r *http.Request) {
	var req historyRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	req.BookID = strings.TrimSpace(req.BookID)
	if req.BookID == "" {
		writeError(w, http.StatusBadRequest, "bookId is required")
		return
	}

	progress := 0.0
	if req.Progress != nil {
		progress = *req.Progress
	} else if current, ok := s.library.Progress(req.BookID); ok {
		progress = current
	}
	if err := s.library.AddToHistory(req.BookID, progress); err != nil {
		s.logger.Error("record history failed", zap.String("book", req.BookID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save history")
		return
	}
	saved, _ := s.library.Progress(req.BookID)
	writeJSON(w, http.StatusOK, map[string]any{
		"bookId":   req.BookID,
		"progress": saved,
	})
}

func (s *Server) handleClearCache(w http.ResponseWriter, _ *http.Request) {
	if err := s.catalog.Clear(); err != nil {
		s.logger.Error("clear cache failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.explainer.Forget()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefreshCache(w http.ResponseWriter, r *http.Request) {
	snap, err := s.catalog.Refresh(r.Context())
	if err != nil {
		s.logger.Warn("refresh catalog failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"subjects": len(snap.Subjects),
		"books":    snap.BookCount(),
	})
}

func (s *Server) lookupBook(w http.ResponseWriter, r *http.Request) (catalog.Book, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return catalog.Book{}, false
	}
	book, ok := s.catalog.Book(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown book %q", id))
	}
	return book, ok
}

// pathID returns the unescaped {id} route variable.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := url.PathUnescape(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid id: %v", err))
		return "", false
	}
	return id, true
}

// Helpers

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
