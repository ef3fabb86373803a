package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultLLMBaseURL       = "https://llm.api.cloud.yandex.net/foundationModels/v1"
	defaultOperationBaseURL = "https://operation.api.cloud.yandex.net"
	defaultPollInterval     = time.Second
	defaultMaxPollAttempts  = 20
	defaultHTTPTimeout      = 30 * time.Second

	modelTemperature = 0.2
	modelMaxTokens   = 1000

	yandexGPTSystemPrompt = "You are annotating incoming texts. " +
		"Summarize in 1-2 short sentences, then put 5-7 keywords on a separate line."
)

type completionRequest struct {
	ModelURI          string            `json:"modelUri"`
	CompletionOptions completionOptions `json:"completionOptions"`
	Messages          []message         `json:"messages"`
}

type completionOptions struct {
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int64   `json:"maxTokens"`
}

type message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type completionResponse struct {
	Alternatives []alternative `json:"alternatives"`
}

type alternative struct {
	Message message `json:"message"`
}

type YandexGPTConfig struct {
	APIKey           string
	FolderID         string
	BaseURL          string
	OperationBaseURL string
	PollInterval     time.Duration
	MaxPollAttempts  int
	HTTPTimeout      time.Duration
}

// YandexGPTSummarizer calls the YandexGPT asynchronous completion API:
// it submits a completion operation and polls it to a terminal state.
type YandexGPTSummarizer struct {
	folderID         string
	baseURL          string
	operationBaseURL string
	poller           *operationPoller
}

func NewYandexGPTSummarizer(
	cfg YandexGPTConfig,
	log *slog.Logger,
) (*YandexGPTSummarizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("API key is empty")
	}
	if strings.TrimSpace(cfg.FolderID) == "" {
		return nil, errors.New("folder ID is empty")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultLLMBaseURL
	}
	if cfg.OperationBaseURL == "" {
		cfg.OperationBaseURL = defaultOperationBaseURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = defaultMaxPollAttempts
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}

	return &YandexGPTSummarizer{
		folderID:         cfg.FolderID,
		baseURL:          strings.TrimSuffix(cfg.BaseURL, "/"),
		operationBaseURL: strings.TrimSuffix(cfg.OperationBaseURL, "/"),
		poller: &operationPoller{
			client:       &http.Client{Timeout: cfg.HTTPTimeout},
			apiKey:       cfg.APIKey,
			pollInterval: cfg.PollInterval,
			maxAttempts:  cfg.MaxPollAttempts,
			log:          log,
		},
	}, nil
}

// Summarize submits the text as an asynchronous completion and waits for the
// terminal response. Extraction is lenient: a terminal response without the
// expected shape yields an empty summary, not an error.
func (s *YandexGPTSummarizer) Summarize(
	ctx context.Context,
	input Input,
) (string, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return "", errors.New("input is empty")
	}

	payload := completionRequest{
		ModelURI: fmt.Sprintf("gpt://%s/yandexgpt-lite", s.folderID),
		CompletionOptions: completionOptions{
			Stream:      false,
			Temperature: modelTemperature,
			MaxTokens:   modelMaxTokens,
		},
		Messages: []message{
			{Role: "system", Text: yandexGPTSystemPrompt},
			{Role: "user", Text: buildUserPrompt(text, input.SourceURL)},
		},
	}

	status, err := s.poller.submitAndWait(ctx, s.submitURL(), payload, s.statusURL)
	if err != nil {
		return "", fmt.Errorf("submit and wait: %w", err)
	}

	if status.Response == nil || len(status.Response.Alternatives) == 0 {
		return "", nil
	}

	return strings.TrimSpace(status.Response.Alternatives[0].Message.Text), nil
}

func (s *YandexGPTSummarizer) submitURL() string {
	return s.baseURL + "/completionAsync"
}

func (s *YandexGPTSummarizer) statusURL(operationID string) string {
	return s.operationBaseURL + "/operations/" + operationID
}

func buildUserPrompt(text string, sourceURL string) string {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return text
	}

	var b strings.Builder
	b.WriteString("Source:\n")
	b.WriteString(sourceURL)
	b.WriteString("\nContent:\n")
	b.WriteString(text)

	return b.String()
}
