package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from the knowledge base"`
	SessionID string `json:"session_id,omitempty" jsonschema:"optional session identifier for interaction logging"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string         `json:"answer"`
	Sources []SourceOutput `json:"sources"`
}

// SourceOutput is one citation attached to an answer.
type SourceOutput struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SyncInput is the input schema for the sync tool.
type SyncInput struct {
	ProjectIDs []string `json:"project_ids" jsonschema:"the project GIDs to synchronise"`
}

// SyncOutput is the output schema for the sync tool.
type SyncOutput struct {
	TotalProjects int                `json:"total_projects"`
	TotalSynced   int                `json:"total_synced"`
	TotalSkipped  int                `json:"total_skipped"`
	TotalErrors   int                `json:"total_errors"`
	Reports       []SyncReportOutput `json:"reports"`
}

// SyncReportOutput summarises one project within a sync run.
type SyncReportOutput struct {
	ProjectID string   `json:"project_id"`
	Synced    int      `json:"synced"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the synced knowledge base with citations",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync",
		Description: "Synchronise one or more projects into the knowledge base",
	}, s.handleSync)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Answer.Answer(ctx, input.Question, input.SessionID)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:  answer.Text,
		Sources: make([]SourceOutput, len(answer.Sources)),
	}
	for i := range answer.Sources {
		output.Sources[i] = SourceOutput{
			Title: answer.Sources[i].Title,
			URL:   answer.Sources[i].URL,
		}
	}

	return nil, output, nil
}

// handleSync handles the sync tool invocation.
func (s *Server) handleSync(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SyncInput,
) (*mcp.CallToolResult, SyncOutput, error) {
	reports, err := s.ports.Sync.SyncProjects(ctx, input.ProjectIDs)
	if err != nil {
		return nil, SyncOutput{}, err
	}

	output := SyncOutput{
		TotalProjects: len(reports),
		Reports:       make([]SyncReportOutput, len(reports)),
	}
	for i := range reports {
		out := SyncReportOutput{
			ProjectID: reports[i].ProjectID,
			Synced:    reports[i].Synced,
			Skipped:   reports[i].Skipped,
		}
		for _, syncErr := range reports[i].Errors {
			out.Errors = append(out.Errors, syncErr.TaskID+": "+syncErr.Error)
		}
		output.TotalSynced += reports[i].Synced
		output.TotalSkipped += reports[i].Skipped
		output.TotalErrors += len(reports[i].Errors)
		output.Reports[i] = out
	}

	return nil, output, nil
}
