package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const (
	baseMaxOutputTokens  int64 = 512
	limitMaxOutputTokens int64 = 2048

	openAISystemPrompt = `Summarize the incoming text.

Rules:
- 1-2 short sentences with the core idea and critical context.
- Then exactly one separate line with 5-7 comma-separated keywords.
- Neutral tone, same language as the input.
- Remove fillers, emojis, hashtags, links unless essential.`
)

// OpenAISummarizer calls OpenAI's Responses API to produce summaries.
// It is the alternative provider when no YandexGPT credentials are set.
type OpenAISummarizer struct {
	client openai.Client
}

func NewOpenAISummarizer(apiKey string) (*OpenAISummarizer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("API key is empty")
	}

	return &OpenAISummarizer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}, nil
}

func (s *OpenAISummarizer) Summarize(
	ctx context.Context,
	input Input,
) (string, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return "", errors.New("input is empty")
	}

	maxOutputTokens := baseMaxOutputTokens
	for {
		resp, err := s.client.Responses.New(ctx, responses.ResponseNewParams{
			Model:           openai.ChatModelGPT5Mini2025_08_07,
			ServiceTier:     responses.ResponseNewParamsServiceTierFlex,
			MaxOutputTokens: openai.Int(maxOutputTokens),
			Reasoning: responses.ReasoningParam{
				Effort: openai.ReasoningEffortLow,
			},
			Instructions: openai.String(openAISystemPrompt),
			Input: responses.ResponseNewParamsInputUnion{
				OfString: openai.String(buildUserPrompt(text, input.SourceURL)),
			},
		})
		if err != nil {
			return "", fmt.Errorf("do request: %w", err)
		}

		if resp.Status == "incomplete" {
			if resp.IncompleteDetails.Reason == "max_output_tokens" && maxOutputTokens < limitMaxOutputTokens {
				maxOutputTokens *= 2
				if maxOutputTokens > limitMaxOutputTokens {
					maxOutputTokens = limitMaxOutputTokens
				}
				continue
			}
			return "", fmt.Errorf(
				"response is incomplete (reason = %s, maxOutputTokens = %d)",
				resp.IncompleteDetails.Reason,
				maxOutputTokens,
			)
		}

		return strings.TrimSpace(resp.OutputText()), nil
	}
}
