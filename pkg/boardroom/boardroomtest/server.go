// Package boardroomtest provides an in-memory boardroom service for tests
// and local runs.
//
//	srv := boardroomtest.NewServer("test-key")
//	defer srv.Close()
//	client, _ := boardroom.New("test-key", boardroom.WithBaseEndpoint(srv.URL()))
package boardroomtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// BasePath is where the API is mounted, matching the default base endpoint.
const BasePath = "/api/v1"

const maxUploadSize = 32 << 20

// Request is a request the server received.
type Request struct {
	Method  string
	Path    string
	Header  http.Header
	Body    []byte
	Attempt int
}

type Decision struct {
	ID        string    `json:"id"`
	Context   any       `json:"context"`
	Decision  string    `json:"decision"`
	CreatedAt time.Time `json:"createdAt"`
}

type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int       `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

type AgentReply struct {
	Role     string `json:"role"`
	Reply    string `json:"reply"`
	ThreadID string `json:"threadId"`
}

type fault struct {
	status    int
	body      string
	remaining int
}

// Server is a fake of the boardroom HTTP API backed by memory.
type Server struct {
	apiKey string
	srv    *httptest.Server
	router chi.Router

	mu        sync.Mutex
	requests  []Request
	decisions []Decision
	documents map[string]Document
	faults    []*fault
}

// NewServer starts a server that accepts apiKey in X-API-Key.
func NewServer(apiKey string) *Server {
	s := &Server{
		apiKey:    apiKey,
		documents: make(map[string]Document),
	}

	s.router = chi.NewRouter()
	s.router.Use(s.recordMiddleware)
	s.router.Route(BasePath, func(r chi.Router) {
		r.Use(s.faultMiddleware)
		r.Use(s.authMiddleware)

		r.Post("/decision", s.handleDecision)
		r.Get("/history", s.handleHistory)
		r.Post("/agent/{role}/consult", s.handleAgent("consult"))
		r.Post("/agent/{role}/execute", s.handleAgent("execute"))
		r.Post("/knowledge/upload", s.handleUpload)
		r.Get("/knowledge", s.handleListDocuments)
		r.Delete("/knowledge/{docID}", s.handleDeleteDocument)
	})

	s.srv = httptest.NewServer(s.router)
	return s
}

// URL is the base endpoint to configure the client with.
func (s *Server) URL() string {
	return s.srv.URL + BasePath
}

func (s *Server) Close() {
	s.srv.Close()
}

// FailNext makes the next n requests answer status with body. Faults queue
// up in the order they were added.
func (s *Server) FailNext(n int, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, &fault{status: status, body: body, remaining: n})
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// AddDocument seeds a document and returns its id.
func (s *Server) AddDocument(doc Document) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	s.documents[doc.ID] = doc
	return doc.ID
}

func (s *Server) recordMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadSize))
		if err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "unreadable body")
			return
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		attempt := 1
		requestID := r.Header.Get("X-Request-Id")
		for _, prev := range s.requests {
			if requestID != "" && prev.Header.Get("X-Request-Id") == requestID {
				attempt++
			}
		}
		s.requests = append(s.requests, Request{
			Method:  r.Method,
			Path:    r.URL.Path,
			Header:  r.Header.Clone(),
			Body:    body,
			Attempt: attempt,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) faultMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var active *fault
		if len(s.faults) > 0 {
			active = s.faults[0]
			active.remaining--
			if active.remaining <= 0 {
				s.faults = s.faults[1:]
			}
		}
		s.mu.Unlock()

		if active != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(active.status)
			_, _ = io.WriteString(w, active.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Context any `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Context == nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "context is required")
		return
	}

	decision := Decision{
		ID:        uuid.NewString(),
		Context:   req.Context,
		Decision:  "approved",
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.decisions = append(s.decisions, decision)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	history := append([]Decision{}, s.decisions...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleAgent(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := chi.URLParam(r, "role")
		if role != strings.ToLower(role) {
			writeError(w, http.StatusNotFound, "UNKNOWN_ROLE", fmt.Sprintf("unknown role %q", role))
			return
		}

		var req struct {
			Context  string `json:"context"`
			Task     string `json:"task"`
			ThreadID string `json:"threadId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid body")
			return
		}

		input := req.Context
		if action == "execute" {
			input = req.Task
		}
		if input == "" {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "input is required")
			return
		}

		threadID := req.ThreadID
		if threadID == "" {
			threadID = uuid.NewString()
		}
		writeJSON(w, http.StatusOK, AgentReply{
			Role:     role,
			Reply:    fmt.Sprintf("%s %s: %s", role, action, input),
			ThreadID: threadID,
		})
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "expected multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "file is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "unreadable file")
		return
	}

	doc := Document{
		Title:       r.FormValue("title"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        len(content),
	}
	doc.ID = s.AddDocument(doc)

	s.mu.Lock()
	doc = s.documents[doc.ID]
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	docs := make([]Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	s.mu.Unlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UploadedAt.Before(docs[j].UploadedAt) ||
			(docs[i].UploadedAt.Equal(docs[j].UploadedAt) && docs[i].ID < docs[j].ID)
	})
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	s.mu.Lock()
	_, ok := s.documents[docID]
	delete(s.documents, docID)
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("document %s not found", docID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
