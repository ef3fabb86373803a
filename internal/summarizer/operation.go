package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

var (
	// ErrOperationTimeout is returned when the poll attempt budget is
	// exhausted before the remote operation reaches a terminal state.
	ErrOperationTimeout = errors.New("timeout waiting for operation")

	// ErrMissingOperationID is returned when the submit response carries
	// no operation identifier.
	ErrMissingOperationID = errors.New("operation id is missing")
)

// StatusError reports a non-success HTTP status from the remote service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.StatusCode)
}

// operationStatus is one observation of a remote long-running operation.
// Done marks the terminal state; Response is only populated once Done is set.
type operationStatus struct {
	ID       string              `json:"id"`
	Done     bool                `json:"done"`
	Response *completionResponse `json:"response"`
}

// operationPoller drives one remote long-running call to completion:
// a single submit (never retried, operation creation is not idempotent),
// then bounded status polling.
type operationPoller struct {
	client       *http.Client
	apiKey       string
	pollInterval time.Duration
	maxAttempts  int
	log          *slog.Logger
}

func (p *operationPoller) submitAndWait(
	ctx context.Context,
	submitURL string,
	payload any,
	statusURL func(operationID string) string,
) (*operationStatus, error) {
	submitted, err := p.submit(ctx, submitURL, payload)
	if err != nil {
		return nil, fmt.Errorf("submit operation: %w", err)
	}

	if submitted.Done {
		return submitted, nil
	}

	for attempt := range p.maxAttempts {
		status, fetchErr := p.fetchStatus(ctx, statusURL(submitted.ID))
		if fetchErr != nil {
			return nil, fmt.Errorf("fetch operation status: %w", fetchErr)
		}

		if status.Done {
			return status, nil
		}

		p.log.DebugContext(ctx, "Operation is not terminal yet",
			"operationID", submitted.ID,
			"attempt", attempt+1,
			"maxAttempts", p.maxAttempts)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.pollInterval):
		}
	}

	return nil, ErrOperationTimeout
}

func (p *operationPoller) submit(
	ctx context.Context,
	submitURL string,
	payload any,
) (*operationStatus, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, submitURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Api-Key "+p.apiKey)

	status, err := p.doRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if status.ID == "" {
		return nil, ErrMissingOperationID
	}

	return status, nil
}

func (p *operationPoller) fetchStatus(
	ctx context.Context,
	statusURL string,
) (*operationStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Api-Key "+p.apiKey)

	return p.doRequest(ctx, req)
}

func (p *operationPoller) doRequest(
	ctx context.Context,
	req *http.Request,
) (*operationStatus, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			p.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"url", req.URL.String(),
				"operation", "doRequest")
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			p.log.WarnContext(ctx, "Failed to read error response body",
				"error", readErr,
				"statusCode", resp.StatusCode)
		}

		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var status operationStatus
	if err = json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &status, nil
}
