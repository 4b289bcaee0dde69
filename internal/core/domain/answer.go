package domain

import "time"

// AnswerSource is one citation attached to a generated answer.
type AnswerSource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Answer is the result of a question-answering request: generated text
// grounded in retrieved context, plus citations for entries that carried
// a resolvable URL. Repeated URLs are not deduplicated.
type Answer struct {
	Text    string         `json:"answer"`
	Sources []AnswerSource `json:"sources"`
}

// Interaction is a best-effort log record of one answered question.
// Writing it must never affect the response already produced.
type Interaction struct {
	SessionID string
	Question  string
	Answer    string
	Sources   []AnswerSource
	CreatedAt time.Time
}
