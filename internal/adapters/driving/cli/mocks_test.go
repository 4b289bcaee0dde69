package cli

import (
	"context"
	"errors"

	"github.com/custodia-labs/knowsync/internal/core/domain"
	"github.com/custodia-labs/knowsync/internal/core/ports/driven"
	"github.com/custodia-labs/knowsync/internal/core/ports/driving"
)

type mockSyncService struct {
	reports []domain.SyncReport
	err     error
}

var _ driving.SyncService = (*mockSyncService)(nil)

func (m *mockSyncService) SyncProject(ctx context.Context, projectID string) (*domain.SyncReport, error) {
	reports, err := m.SyncProjects(ctx, []string{projectID})
	if err != nil {
		return nil, err
	}
	return &reports[0], nil
}

func (m *mockSyncService) SyncProjects(_ context.Context, projectIDs []string) ([]domain.SyncReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.reports != nil {
		return m.reports, nil
	}
	reports := make([]domain.SyncReport, len(projectIDs))
	for i, id := range projectIDs {
		reports[i] = domain.SyncReport{ProjectID: id, Synced: 1}
	}
	return reports, nil
}

func (m *mockSyncService) SyncTask(context.Context, string, string) (domain.SyncOutcome, error) {
	return domain.OutcomeSynced, nil
}

type mockAnswerService struct {
	answer *domain.Answer
	err    error
}

var _ driving.AnswerService = (*mockAnswerService)(nil)

func (m *mockAnswerService) Answer(context.Context, string, string) (*domain.Answer, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

type mockAnswerServiceError struct{}

var _ driving.AnswerService = (*mockAnswerServiceError)(nil)

func (m *mockAnswerServiceError) Answer(context.Context, string, string) (*domain.Answer, error) {
	return nil, errors.New("ask failed")
}

// mockConfigStore serves a fixed project list.
type mockConfigStore struct {
	projects []string
}

var _ driven.ConfigStore = (*mockConfigStore)(nil)

func (m *mockConfigStore) GetString(string) string        { return "" }
func (m *mockConfigStore) GetStringSlice(string) []string { return m.projects }
func (m *mockConfigStore) GetInt(string) int              { return 0 }
func (m *mockConfigStore) GetBool(string) bool            { return false }

// setupTestServices injects mocks and returns a cleanup that restores
// the previous services.
func setupTestServices() func() {
	oldSync := syncService
	oldAnswer := answerService

	syncService = &mockSyncService{}
	answerService = &mockAnswerService{answer: &domain.Answer{Text: "mock answer"}}

	return func() {
		syncService = oldSync
		answerService = oldAnswer
	}
}
