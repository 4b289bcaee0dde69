package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/knowsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/knowsync/internal/core/domain"
	"github.com/custodia-labs/knowsync/internal/core/ports/driven"
)

// queryEmbedder maps exact texts to vectors so similarity is controllable.
type queryEmbedder struct {
	vectors map[string][]float32
	err     error
}

var _ driven.EmbeddingService = (*queryEmbedder)(nil)

func (e *queryEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0}, nil
}

func (e *queryEmbedder) Dimensions() int { return 2 }

func (e *queryEmbedder) ModelName() string { return "fake-embedding" }

// fakeLLM returns a canned completion and records the prompt it saw.
type fakeLLM struct {
	response string
	err      error

	messages []driven.ChatMessage
	opts     driven.ChatOptions
}

var _ driven.LLMService = (*fakeLLM)(nil)

func (l *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	l.messages = messages
	l.opts = opts
	if l.err != nil {
		return "", l.err
	}
	return l.response, nil
}

func (l *fakeLLM) ModelName() string { return "fake-llm" }

func seedEntry(t *testing.T, store *memory.KnowledgeStore, sourceID, content string, embedding []float32, metadata map[string]any) {
	t.Helper()
	_, err := store.Insert(context.Background(), &domain.KnowledgeEntry{
		SourceType:  domain.SourceTypeAsanaTask,
		SourceID:    sourceID,
		Title:       "Entry " + sourceID,
		Content:     content,
		Metadata:    metadata,
		ContentHash: domain.NewFingerprint(content),
		Embedding:   embedding,
		IndexedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	engine := NewRetrievalEngine(&queryEmbedder{}, memory.NewKnowledgeStore(), &fakeLLM{}, nil)

	_, err := engine.Answer(context.Background(), "   ", "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnswerBuildsContextInSimilarityOrder(t *testing.T) {
	store := memory.NewKnowledgeStore()
	seedEntry(t, store, "close", "Closest entry body.", []float32{1, 0}, nil)
	seedEntry(t, store, "near", "Near entry body.", []float32{1, 1}, nil)
	seedEntry(t, store, "far", "Unrelated body.", []float32{0, 1}, nil)

	llm := &fakeLLM{response: "The login flow is broken."}
	engine := NewRetrievalEngine(&queryEmbedder{}, store, llm, nil)

	answer, err := engine.Answer(context.Background(), "What is broken?", "s1")
	require.NoError(t, err)
	assert.Equal(t, "The login flow is broken.", answer.Text)

	require.Len(t, llm.messages, 2)
	assert.Equal(t, "system", llm.messages[0].Role)
	assert.Equal(t, "user", llm.messages[1].Role)

	// Context carries the two above-floor entries, closest first, and
	// not the orthogonal one.
	prompt := llm.messages[1].Content
	assert.Contains(t, prompt, "Closest entry body.\n\nNear entry body.")
	assert.NotContains(t, prompt, "Unrelated body.")
	assert.Contains(t, prompt, "What is broken?")

	assert.Equal(t, answerMaxTokens, llm.opts.MaxTokens)
	assert.InDelta(t, answerTemperature, llm.opts.Temperature, 1e-9)
}

func TestAnswerWithNoContext(t *testing.T) {
	llm := &fakeLLM{response: "I don't have enough information to answer that."}
	engine := NewRetrievalEngine(&queryEmbedder{}, memory.NewKnowledgeStore(), llm, nil)

	answer, err := engine.Answer(context.Background(), "What is the roadmap?", "")
	require.NoError(t, err)
	assert.NotEmpty(t, answer.Text)
	assert.Empty(t, answer.Sources)

	assert.Contains(t, llm.messages[1].Content, "(no relevant entries found)")
}

func TestAnswerCitesEntriesWithURLs(t *testing.T) {
	store := memory.NewKnowledgeStore()
	seedEntry(t, store, "with-url", "Entry with URL.", []float32{1, 0},
		map[string]any{"url": "https://example.com/doc"})
	seedEntry(t, store, "without-url", "Entry without URL.", []float32{1, 0.1}, nil)
	seedEntry(t, store, "dup-url", "Another entry, same URL.", []float32{1, 0.2},
		map[string]any{"url": "https://example.com/doc"})

	engine := NewRetrievalEngine(&queryEmbedder{}, store, &fakeLLM{response: "ok"}, nil)

	answer, err := engine.Answer(context.Background(), "anything", "")
	require.NoError(t, err)

	// Only entries carrying a url metadata key are cited, duplicates kept.
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, "https://example.com/doc", answer.Sources[0].URL)
	assert.Equal(t, "https://example.com/doc", answer.Sources[1].URL)
}

func TestAnswerEmbeddingFailureIsFatal(t *testing.T) {
	engine := NewRetrievalEngine(
		&queryEmbedder{err: fmt.Errorf("quota exceeded")},
		memory.NewKnowledgeStore(), &fakeLLM{}, nil)

	_, err := engine.Answer(context.Background(), "question", "")
	require.ErrorIs(t, err, domain.ErrRetrieval)
}

func TestAnswerCompletionFailureIsFatal(t *testing.T) {
	engine := NewRetrievalEngine(
		&queryEmbedder{}, memory.NewKnowledgeStore(),
		&fakeLLM{err: fmt.Errorf("model overloaded")}, nil)

	_, err := engine.Answer(context.Background(), "question", "")
	require.ErrorIs(t, err, domain.ErrRetrieval)
}

func TestAnswerRecordsInteraction(t *testing.T) {
	log := memory.NewInteractionLog()
	engine := NewRetrievalEngine(&queryEmbedder{}, memory.NewKnowledgeStore(),
		&fakeLLM{response: "answer text"}, log)

	_, err := engine.Answer(context.Background(), "What happened?", "session-42")
	require.NoError(t, err)

	// The write is fire-and-forget on a separate goroutine.
	assert.Eventually(t, func() bool {
		return len(log.Interactions()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	recorded := log.Interactions()[0]
	assert.Equal(t, "session-42", recorded.SessionID)
	assert.Equal(t, "What happened?", recorded.Question)
	assert.Equal(t, "answer text", recorded.Answer)
}
