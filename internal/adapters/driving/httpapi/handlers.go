package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/knowsync/internal/core/domain"
	"github.com/custodia-labs/knowsync/internal/logger"
)

// SourceTypeManual tags documents inserted directly through the API
// rather than synced from the task source.
const SourceTypeManual = "manual"

type syncRequest struct {
	ProjectIDs []string `json:"projectIds"`
	Async      bool     `json:"async"`
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId"`
}

type createDocumentRequest struct {
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	URL      string         `json:"url"`
	Metadata map[string]any `json:"metadata"`
}

type workspaceResponse struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

type projectResponse struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

type documentResponse struct {
	ID         int64          `json:"id"`
	SourceType string         `json:"sourceType"`
	SourceID   string         `json:"sourceId"`
	SourceURL  string         `json:"sourceUrl,omitempty"`
	Title      string         `json:"title"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	IndexedAt  time.Time      `json:"indexedAt"`
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSync runs or enqueues a sync over the requested projects.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.ProjectIDs) == 0 {
		writeError(w, http.StatusBadRequest, "projectIds is required")
		return
	}

	if req.Async {
		if s.queue == nil {
			writeError(w, http.StatusNotImplemented, "async sync is not configured")
			return
		}
		job, err := s.queue.Enqueue(r.Context(), req.ProjectIDs)
		if err != nil {
			logger.Warn("http: enqueue failed: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to queue sync")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{
			"jobId":  job.ID,
			"status": "queued",
		})
		return
	}

	reports, err := s.sync.SyncProjects(r.Context(), req.ProjectIDs)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, domain.Summarise(reports))
}

// handleAsk answers a question from the knowledge base.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := s.answer.Answer(r.Context(), req.Question, req.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "question is required")
			return
		}
		// Pipeline details stay in the logs, not the response.
		logger.Warn("http: ask failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to generate answer")
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

// handleProjects lists workspaces and their unarchived projects.
func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		writeError(w, http.StatusNotImplemented, "task source is not configured")
		return
	}

	workspaces, err := s.source.ListWorkspaces(r.Context())
	if err != nil {
		logger.Warn("http: listing workspaces: %v", err)
		writeError(w, http.StatusBadGateway, "failed to reach task source")
		return
	}

	projects, err := s.source.ListProjects(r.Context(), "")
	if err != nil {
		logger.Warn("http: listing projects: %v", err)
		writeError(w, http.StatusBadGateway, "failed to reach task source")
		return
	}

	wsOut := make([]workspaceResponse, len(workspaces))
	for i, ws := range workspaces {
		wsOut[i] = workspaceResponse{GID: ws.GID, Name: ws.Name}
	}
	projOut := make([]projectResponse, len(projects))
	for i, p := range projects {
		projOut[i] = projectResponse{GID: p.GID, Name: p.Name}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"workspaces": wsOut,
		"projects":   projOut,
	})
}

// handleSource tests the task source connection.
func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		writeError(w, http.StatusNotImplemented, "task source is not configured")
		return
	}

	user, err := s.source.Validate(r.Context())
	if err != nil {
		logger.Warn("http: source validation failed: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"connected": false,
			"error":     "connection failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"connected": true,
		"user":      user,
	})
}

// handleListDocuments returns all stored entries without embeddings.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "knowledge store is not configured")
		return
	}

	entries, err := s.store.List(r.Context())
	if err != nil {
		logger.Warn("http: listing documents: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	out := make([]documentResponse, len(entries))
	for i := range entries {
		out[i] = documentResponse{
			ID:         entries[i].ID,
			SourceType: entries[i].SourceType,
			SourceID:   entries[i].SourceID,
			SourceURL:  entries[i].SourceURL,
			Title:      entries[i].Title,
			Metadata:   entries[i].Metadata,
			IndexedAt:  entries[i].IndexedAt,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"documents": out,
		"count":     len(out),
	})
}

// handleCreateDocument inserts a manual document, embedding its content
// so it participates in retrieval alongside synced tasks.
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	if s.store == nil || s.embedder == nil {
		writeError(w, http.StatusNotImplemented, "document insertion is not configured")
		return
	}

	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "title and content are required")
		return
	}

	embedding, err := s.embedder.Embed(r.Context(), req.Content)
	if err != nil {
		logger.Warn("http: embedding document: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to embed document")
		return
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = make(map[string]any)
	}
	if req.URL != "" {
		metadata["url"] = req.URL
	}

	entry := &domain.KnowledgeEntry{
		SourceType:  SourceTypeManual,
		SourceID:    uuid.NewString(),
		SourceURL:   req.URL,
		Title:       req.Title,
		Content:     req.Content,
		Metadata:    metadata,
		ContentHash: domain.NewFingerprint(req.Content),
		Embedding:   embedding,
		IndexedAt:   time.Now().UTC(),
	}

	inserted, err := s.store.Insert(r.Context(), entry)
	if err != nil {
		logger.Warn("http: inserting document: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store document")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":       inserted.ID,
		"sourceId": inserted.SourceID,
	})
}
