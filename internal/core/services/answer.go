package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/knowsync/internal/core/domain"
	"github.com/custodia-labs/knowsync/internal/core/ports/driven"
	"github.com/custodia-labs/knowsync/internal/core/ports/driving"
	"github.com/custodia-labs/knowsync/internal/logger"
)

// Ensure RetrievalEngine implements the interface.
var _ driving.AnswerService = (*RetrievalEngine)(nil)

// Retrieval parameters. The floor keeps weakly related entries out of
// the prompt; the limit bounds prompt size.
const (
	similarityFloor   = 0.3
	maxContextEntries = 5
	answerMaxTokens   = 500
	answerTemperature = 0.7
)

// systemPrompt instructs the model to stay grounded in the supplied
// context and to say so when the context cannot answer the question.
const systemPrompt = `You are a helpful assistant answering questions about a team's project knowledge base.
Answer using ONLY the provided context. If the context does not contain enough information to answer the question, say so clearly instead of guessing.
Keep answers concise and factual.`

// RetrievalEngine answers questions by retrieving similar knowledge
// entries and generating a grounded completion.
type RetrievalEngine struct {
	embedder driven.EmbeddingService
	store    driven.KnowledgeStore
	llm      driven.LLMService
	log      driven.InteractionLog
}

// NewRetrievalEngine creates a retrieval engine. The interaction log may
// be nil, in which case answered questions are not recorded.
func NewRetrievalEngine(
	embedder driven.EmbeddingService,
	store driven.KnowledgeStore,
	llm driven.LLMService,
	log driven.InteractionLog,
) *RetrievalEngine {
	return &RetrievalEngine{
		embedder: embedder,
		store:    store,
		llm:      llm,
		log:      log,
	}
}

// Answer embeds the question, retrieves grounding context above the
// similarity floor and generates an answer with citations.
//
// Any pipeline failure is fatal to the request. An empty retrieval
// result is not a failure: the model is asked to answer from no context
// and will disclose the insufficiency.
func (e *RetrievalEngine) Answer(ctx context.Context, question, sessionID string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrInvalidInput
	}

	embedding, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding question: %v", domain.ErrRetrieval, err)
	}

	hits, err := e.store.Search(ctx, embedding, similarityFloor, maxContextEntries)
	if err != nil {
		return nil, fmt.Errorf("%w: searching knowledge base: %v", domain.ErrRetrieval, err)
	}

	logger.Debug("question matched %d entries", len(hits))

	text, err := e.llm.Chat(ctx, []driven.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserMessage(question, hits)},
	}, driven.ChatOptions{
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: generating answer: %v", domain.ErrRetrieval, err)
	}

	answer := &domain.Answer{
		Text:    text,
		Sources: citations(hits),
	}

	e.recordInteraction(question, sessionID, answer)

	return answer, nil
}

// buildUserMessage assembles the prompt from the retrieved entries in
// descending similarity order.
func buildUserMessage(question string, hits []domain.SearchHit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("Context: (no relevant entries found)\n\nQuestion: %s", question)
	}

	bodies := make([]string, len(hits))
	for i, hit := range hits {
		bodies[i] = hit.Entry.Content
	}
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", strings.Join(bodies, "\n\n"), question)
}

// citations extracts sources from entries whose metadata carries a URL.
// Repeated URLs are kept as-is.
func citations(hits []domain.SearchHit) []domain.AnswerSource {
	var sources []domain.AnswerSource
	for _, hit := range hits {
		url, ok := hit.Entry.Metadata["url"].(string)
		if !ok || url == "" {
			continue
		}
		sources = append(sources, domain.AnswerSource{
			Title: hit.Entry.Title,
			URL:   url,
		})
	}
	return sources
}

// recordInteraction logs the answered question on a separate goroutine.
// The response has already been produced; a failed write is only
// counted in the logs.
func (e *RetrievalEngine) recordInteraction(question, sessionID string, answer *domain.Answer) {
	if e.log == nil {
		return
	}

	interaction := &domain.Interaction{
		SessionID: sessionID,
		Question:  question,
		Answer:    answer.Text,
		Sources:   answer.Sources,
		CreatedAt: time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.log.Record(ctx, interaction); err != nil {
			logger.Warn("recording interaction failed: %v", err)
		}
	}()
}
