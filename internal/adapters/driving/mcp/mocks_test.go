package mcp

import (
	"context"

	"github.com/custodia-labs/knowsync/internal/core/domain"
	"github.com/custodia-labs/knowsync/internal/core/ports/driving"
)

// mockAnswerService returns a canned answer or error.
type mockAnswerService struct {
	answer *domain.Answer
	err    error

	lastQuestion string
	lastSession  string
}

var _ driving.AnswerService = (*mockAnswerService)(nil)

func (m *mockAnswerService) Answer(_ context.Context, question, sessionID string) (*domain.Answer, error) {
	m.lastQuestion = question
	m.lastSession = sessionID
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

// mockSyncService returns canned reports or an error.
type mockSyncService struct {
	reports []domain.SyncReport
	err     error

	lastProjects []string
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
	m.lastProjects = projectIDs
	if m.err != nil {
		return nil, m.err
	}
	return m.reports, nil
}

func (m *mockSyncService) SyncTask(context.Context, string, string) (domain.SyncOutcome, error) {
	return domain.OutcomeSynced, nil
}
