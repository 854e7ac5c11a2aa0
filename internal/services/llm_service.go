package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

const maxExtractionInput = 20000

var ErrInvalidModelJSON = errors.New("model returned invalid JSON")

type LLMService struct {
	Client llms.Model
}

// NewLLMService connects to Gemini. The client is reused for every request.
func NewLLMService(ctx context.Context, apiKey, model string) (*LLMService, error) {
	if apiKey == "" {
		return nil, errors.New("llm: api key is empty")
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("llm: create gemini client: %w", err)
	}
	return &LLMService{Client: llm}, nil
}

const jobExtractionPrompt = `You extract job postings into structured data.

Read the raw page content below. Skip navigation, footers, cookie banners and "similar jobs" lists.
Answer with a single JSON object and nothing else (no markdown fences) using exactly these keys:

{
  "companyName": "hiring company",
  "title": "job title",
  "location": "city, country or Remote",
  "description": "plain-text summary of responsibilities and requirements",
  "techStack": ["technologies mentioned"],
  "salaryRange": "salary text if stated"
}

Use null for anything the page does not state. Never guess.

Source URL: %s

Page content:
%s
`

// ExtractJobDetails turns raw HTML of a job page into the JSON object described in the prompt.
func (s *LLMService) ExtractJobDetails(ctx context.Context, rawHTML, url string) (json.RawMessage, error) {
	if len(rawHTML) > maxExtractionInput {
		rawHTML = rawHTML[:maxExtractionInput]
	}
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, fmt.Sprintf(jobExtractionPrompt, url, rawHTML))
	if err != nil {
		return nil, fmt.Errorf("llm: extract job: %w", err)
	}
	out := stripCodeFence(resp)
	if !json.Valid([]byte(out)) {
		return nil, ErrInvalidModelJSON
	}
	return json.RawMessage(out), nil
}

// Stream sends the model's answer to onChunk piece by piece. Returning an
// error from onChunk stops generation.
func (s *LLMService) Stream(ctx context.Context, prompt string, onChunk func(string) error) error {
	_, err := llms.GenerateFromSinglePrompt(ctx, s.Client, prompt,
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			return onChunk(string(chunk))
		}),
	)
	return err
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
