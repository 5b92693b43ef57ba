// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"github.com/pdiddy/litfinder/pkg/types"
)

// DefaultModel is used when the configuration names no model.
const DefaultModel = shared.ChatModelGPT5Mini

// OpenAIBackend implements Summarizer and KeywordExtractor with the OpenAI
// Responses API.
type OpenAIBackend struct {
	Client openai.Client
	Model  string
}

// NewOpenAIBackend builds a backend from cfg. Extra options are appended
// after the API key, so tests can point the client at an httptest server
// with option.WithBaseURL.
func NewOpenAIBackend(cfg types.AIConfig, opts ...option.RequestOption) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: no API key configured")
	}
	model := cfg.Model
	if model == "" {
		model = string(DefaultModel)
	}
	opts = append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	return &OpenAIBackend{
		Client: openai.NewClient(opts...),
		Model:  model,
	}, nil
}

// Summarize returns a summary of text of at most opts.MaxWords words.
func (b *OpenAIBackend) Summarize(ctx context.Context, text string, opts SummaryOptions) (string, error) {
	prompt, err := renderSummaryPrompt(text, opts.MaxWords)
	if err != nil {
		return "", fmt.Errorf("rendering summary prompt: %w", err)
	}
	reply, err := b.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if reply == "" {
		return "", fmt.Errorf("openai: empty summary")
	}
	return reply, nil
}

// ExtractKeywords returns up to topN keyphrases for text.
func (b *OpenAIBackend) ExtractKeywords(ctx context.Context, text string, topN int) ([]string, error) {
	prompt, err := renderKeywordPrompt(text, topN)
	if err != nil {
		return nil, fmt.Errorf("rendering keyword prompt: %w", err)
	}
	reply, err := b.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	keywords := parseKeywords(reply, topN)
	if len(keywords) == 0 {
		return nil, fmt.Errorf("openai: could not parse keywords from %q", reply)
	}
	return keywords, nil
}

func (b *OpenAIBackend) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := b.Client.Responses.New(ctx, responses.ResponseNewParams{
		Model: b.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling OpenAI API: %w", err)
	}
	return strings.TrimSpace(resp.OutputText()), nil
}
