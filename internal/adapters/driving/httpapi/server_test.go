package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/knowsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/knowsync/internal/core/domain"
	"github.com/custodia-labs/knowsync/internal/core/ports/driven"
	"github.com/custodia-labs/knowsync/internal/core/ports/driving"
)

// ==================== Stubs ====================

type stubSync struct {
	reports []domain.SyncReport
	err     error
}

var _ driving.SyncService = (*stubSync)(nil)

func (s *stubSync) SyncProject(ctx context.Context, projectID string) (*domain.SyncReport, error) {
	reports, err := s.SyncProjects(ctx, []string{projectID})
	if err != nil {
		return nil, err
	}
	return &reports[0], nil
}

func (s *stubSync) SyncProjects(_ context.Context, projectIDs []string) ([]domain.SyncReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.reports != nil {
		return s.reports, nil
	}
	reports := make([]domain.SyncReport, len(projectIDs))
	for i, id := range projectIDs {
		reports[i] = domain.SyncReport{ProjectID: id, Synced: 2, Skipped: 1}
	}
	return reports, nil
}

func (s *stubSync) SyncTask(context.Context, string, string) (domain.SyncOutcome, error) {
	return domain.OutcomeSynced, nil
}

type stubAnswer struct {
	answer *domain.Answer
	err    error
}

var _ driving.AnswerService = (*stubAnswer)(nil)

func (s *stubAnswer) Answer(_ context.Context, question, _ string) (*domain.Answer, error) {
	if question == "" {
		return nil, domain.ErrInvalidInput
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.answer, nil
}

type stubTaskSource struct {
	user string
	err  error
}

var _ driven.TaskSource = (*stubTaskSource)(nil)

func (s *stubTaskSource) Validate(context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.user, nil
}

func (s *stubTaskSource) ListWorkspaces(context.Context) ([]domain.Workspace, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Workspace{{GID: "W1", Name: "Acme"}}, nil
}

func (s *stubTaskSource) ListProjects(context.Context, string) ([]domain.Project, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Project{{GID: "P1", Name: "Engineering"}}, nil
}

func (s *stubTaskSource) ListTasks(context.Context, string) ([]domain.Task, error) {
	return nil, nil
}

func (s *stubTaskSource) GetTask(context.Context, string, string) (*domain.Task, error) {
	return nil, domain.ErrNotFound
}

type stubEmbedder struct{ err error }

var _ driven.EmbeddingService = (*stubEmbedder)(nil)

func (e *stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, 0.2}, nil
}

func (e *stubEmbedder) Dimensions() int { return 2 }

func (e *stubEmbedder) ModelName() string { return "stub" }

type stubQueue struct {
	enqueued [][]string
}

var _ driven.JobQueue = (*stubQueue)(nil)

func (q *stubQueue) Enqueue(_ context.Context, projectIDs []string) (*domain.SyncJob, error) {
	q.enqueued = append(q.enqueued, projectIDs)
	return &domain.SyncJob{
		ID:     "job-1",
		Status: domain.JobStatusPending,
	}, nil
}

func (q *stubQueue) Dequeue(context.Context) (*domain.SyncJob, error) {
	return nil, domain.ErrNotFound
}

func (q *stubQueue) Complete(context.Context, string) error { return nil }

func (q *stubQueue) Fail(context.Context, string, string) error { return nil }

func (q *stubQueue) Get(context.Context, string) (*domain.SyncJob, error) {
	return nil, domain.ErrNotFound
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Sync == nil {
		cfg.Sync = &stubSync{}
	}
	if cfg.Answer == nil {
		cfg.Answer = &stubAnswer{answer: &domain.Answer{Text: "an answer"}}
	}
	server, err := NewServer(cfg)
	require.NoError(t, err)
	return server
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// ==================== Tests ====================

func TestHealth(t *testing.T) {
	server := newTestServer(t, Config{})

	rec := doJSON(t, server.Router(), http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSyncReturnsSummary(t *testing.T) {
	server := newTestServer(t, Config{})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/sync",
		map[string]any{"projectIds": []string{"P1", "P2"}})
	require.Equal(t, http.StatusOK, rec.Code)

	var summary domain.SyncSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.TotalProjects)
	assert.Equal(t, 4, summary.TotalSynced)
	assert.Equal(t, 2, summary.TotalSkipped)
	assert.Len(t, summary.Reports, 2)
}

func TestSyncRequiresProjectIDs(t *testing.T) {
	server := newTestServer(t, Config{})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/sync", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, server.Router(), http.MethodPost, "/api/sync", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncAsyncEnqueues(t *testing.T) {
	queue := &stubQueue{}
	server := newTestServer(t, Config{Queue: queue})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/sync",
		map[string]any{"projectIds": []string{"P1"}, "async": true})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "job-1", resp["jobId"])
	assert.Equal(t, "queued", resp["status"])
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, []string{"P1"}, queue.enqueued[0])
}

func TestSyncAsyncWithoutQueue(t *testing.T) {
	server := newTestServer(t, Config{})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/sync",
		map[string]any{"projectIds": []string{"P1"}, "async": true})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestAsk(t *testing.T) {
	server := newTestServer(t, Config{Answer: &stubAnswer{answer: &domain.Answer{
		Text:    "The login flow is broken.",
		Sources: []domain.AnswerSource{{Title: "Doc", URL: "https://example.com"}},
	}}})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/ask",
		map[string]string{"question": "What is broken?", "sessionId": "s1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var answer domain.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Equal(t, "The login flow is broken.", answer.Text)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "https://example.com", answer.Sources[0].URL)
}

func TestAskEmptyQuestion(t *testing.T) {
	server := newTestServer(t, Config{})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/ask",
		map[string]string{"question": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskPipelineFailureIsGeneric(t *testing.T) {
	server := newTestServer(t, Config{Answer: &stubAnswer{
		err: fmt.Errorf("%w: secret internal detail", domain.ErrRetrieval),
	}})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/ask",
		map[string]string{"question": "What is broken?"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to generate answer")
	assert.NotContains(t, rec.Body.String(), "secret internal detail")
}

func TestProjects(t *testing.T) {
	server := newTestServer(t, Config{Source: &stubTaskSource{user: "Dana"}})

	rec := doJSON(t, server.Router(), http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Workspaces []workspaceResponse `json:"workspaces"`
		Projects   []projectResponse   `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Workspaces, 1)
	assert.Equal(t, "Acme", resp.Workspaces[0].Name)
	require.Len(t, resp.Projects, 1)
	assert.Equal(t, "P1", resp.Projects[0].GID)
}

func TestSourceConnectionTest(t *testing.T) {
	server := newTestServer(t, Config{Source: &stubTaskSource{user: "Dana Scully"}})

	rec := doJSON(t, server.Router(), http.MethodGet, "/api/source", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dana Scully")
}

func TestSourceConnectionFailure(t *testing.T) {
	server := newTestServer(t, Config{Source: &stubTaskSource{err: fmt.Errorf("401 unauthorized")}})

	rec := doJSON(t, server.Router(), http.MethodGet, "/api/source", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"connected":false`)
	assert.NotContains(t, rec.Body.String(), "401")
}

func TestListDocuments(t *testing.T) {
	store := memory.NewKnowledgeStore()
	_, err := store.Insert(context.Background(), &domain.KnowledgeEntry{
		SourceType:  domain.SourceTypeAsanaTask,
		SourceID:    "T1",
		Title:       "Fix login bug",
		Content:     "body",
		ContentHash: domain.NewFingerprint("body"),
		Embedding:   []float32{1},
		IndexedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)

	server := newTestServer(t, Config{Store: store})

	rec := doJSON(t, server.Router(), http.MethodGet, "/api/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Documents []documentResponse `json:"documents"`
		Count     int                `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "Fix login bug", resp.Documents[0].Title)
}

func TestCreateDocument(t *testing.T) {
	store := memory.NewKnowledgeStore()
	server := newTestServer(t, Config{Store: store, Embedder: &stubEmbedder{}})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/documents", map[string]any{
		"title":   "Onboarding guide",
		"content": "How we onboard new developers.",
		"url":     "https://example.com/onboarding",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, SourceTypeManual, entries[0].SourceType)
	assert.Equal(t, "https://example.com/onboarding", entries[0].Metadata["url"])
	assert.Equal(t, domain.NewFingerprint("How we onboard new developers."), entries[0].ContentHash)
}

func TestCreateDocumentValidation(t *testing.T) {
	server := newTestServer(t, Config{Store: memory.NewKnowledgeStore(), Embedder: &stubEmbedder{}})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/documents",
		map[string]any{"title": "No content"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSAllowedOrigin(t *testing.T) {
	server := newTestServer(t, Config{AllowedOrigins: []string{"https://widget.example.com"}})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://widget.example.com")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, "https://widget.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSDisallowedOrigin(t *testing.T) {
	server := newTestServer(t, Config{AllowedOrigins: []string{"https://widget.example.com"}})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcard(t *testing.T) {
	server := newTestServer(t, Config{AllowedOrigins: []string{"*"}})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://anything.example.com")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, "https://anything.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(t, Config{AllowedOrigins: []string{"*"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/ask", nil)
	req.Header.Set("Origin", "https://widget.example.com")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}
