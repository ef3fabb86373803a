package summarizer

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"unicode/utf8"
)

// WarningMarker prefixes every placeholder returned instead of a genuine
// summary, so callers and users can tell the two apart.
const WarningMarker = "⚠️"

const (
	timeoutPlaceholder  = WarningMarker + " Error: the summarization service did not respond in time."
	apiErrorPlaceholder = WarningMarker + " Error while calling the summarization API."
	genericPlaceholder  = WarningMarker + " Error while processing the text."

	fallbackSummaryMaxChars = 200
)

// Safe turns any Summarizer into a total function: every failure resolves to
// a short user-visible placeholder, and the full error detail goes to the log
// only. With a nil inner summarizer it degrades to plain truncation.
type Safe struct {
	inner Summarizer
	log   *slog.Logger
}

func NewSafe(inner Summarizer, log *slog.Logger) *Safe {
	return &Safe{inner: inner, log: log}
}

func (s *Safe) Summarize(ctx context.Context, input Input) string {
	if s.inner == nil {
		return truncateText(input.Text, fallbackSummaryMaxChars)
	}

	summary, err := s.inner.Summarize(ctx, input)
	if err == nil {
		return summary
	}

	var statusErr *StatusError

	switch {
	case isTimeout(err):
		s.log.ErrorContext(ctx, "Summarization timed out",
			"error", err,
			"sourceURL", input.SourceURL)

		return timeoutPlaceholder

	case errors.As(err, &statusErr):
		s.log.ErrorContext(ctx, "Summarization API returned an error",
			"error", err,
			"statusCode", statusErr.StatusCode,
			"body", statusErr.Body,
			"sourceURL", input.SourceURL)

		return apiErrorPlaceholder

	case errors.Is(err, ErrMissingOperationID):
		s.log.ErrorContext(ctx, "Summarization API response is malformed",
			"error", err,
			"sourceURL", input.SourceURL)

		return apiErrorPlaceholder

	default:
		s.log.ErrorContext(ctx, "Summarization failed",
			"error", err,
			"sourceURL", input.SourceURL)

		return genericPlaceholder
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, ErrOperationTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncateText(text string, maxChars int) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}

	runes := []rune(text)

	return strings.TrimSpace(string(runes[:maxChars])) + "…"
}
