package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"digestgram/internal/database"
	"digestgram/internal/summarizer"
)

// ErrEmptyText rejects empty or whitespace-only input before any I/O.
var ErrEmptyText = errors.New("text is empty")

// PersistenceError marks a failed durable write. Unlike summarization
// failures, which degrade to placeholder text, this one reaches the caller:
// silently losing the record would break the durability contract.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// TextSummarizer is the total summarization contract: it always returns
// user-visible text, genuine or placeholder.
type TextSummarizer interface {
	Summarize(ctx context.Context, input summarizer.Input) string
}

// Pipeline is the single entry point for summarization requests: it ensures
// the requesting user exists, produces the summary, and logs the outcome
// exactly once.
type Pipeline struct {
	db         *database.Database
	summarizer TextSummarizer
	log        *slog.Logger
}

func New(db *database.Database, s TextSummarizer, log *slog.Logger) *Pipeline {
	return &Pipeline{
		db:         db,
		summarizer: s,
		log:        log,
	}
}

func (p *Pipeline) Run(
	ctx context.Context,
	userID int64,
	username string,
	rawText string,
) (string, error) {
	return p.RunWithSource(ctx, userID, username, rawText, "")
}

func (p *Pipeline) RunWithSource(
	ctx context.Context,
	userID int64,
	username string,
	rawText string,
	sourceURL string,
) (string, error) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return "", ErrEmptyText
	}

	if _, err := p.db.EnsureUser(ctx, userID, username); err != nil {
		return "", &PersistenceError{Op: "ensure user", Err: err}
	}

	summary := p.summarizer.Summarize(ctx, summarizer.Input{
		Text:      text,
		SourceURL: sourceURL,
	})

	record, err := p.db.SaveSummary(ctx, userID, text, summary)
	if err != nil {
		return "", &PersistenceError{Op: "save summary", Err: err}
	}

	p.log.InfoContext(ctx, "Summary is saved",
		"userID", userID,
		"recordID", record.ID,
		"originalChars", len(text),
		"summaryChars", len(summary))

	return summary, nil
}
