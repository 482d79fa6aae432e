// Package advisor turns a narrative prompt into a structured CFO
// report via the Gemini API.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const (
	model       = "gemini-2.0-flash"
	temperature = 0.3
)

// Report is the structured output the advisor model must produce.
type Report struct {
	ExecutiveSummary string     `json:"executiveSummary"`
	KeyRisks         []string   `json:"keyRisks"`
	KeyOpportunities []string   `json:"keyOpportunities"`
	FollowUps        []FollowUp `json:"followUpQuestions"`
	AdvisorNotes     string     `json:"advisorNotes"`
}

// FollowUp is one model-proposed question, optionally tied to the
// insight that prompted it.
type FollowUp struct {
	InsightID string `json:"insightId"`
	Question  string `json:"question"`
	Reason    string `json:"reason"`
}

// Generator produces raw model text for a prompt. The Gemini client
// satisfies it; tests substitute a fake.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Agent wraps a Generator and decodes its output into a Report.
type Agent struct {
	gen Generator
	log zerolog.Logger
}

// NewAgent creates an advisor agent over the given generator.
func NewAgent(gen Generator, log zerolog.Logger) *Agent {
	return &Agent{gen: gen, log: log}
}

// Run sends the prompt plus the JSON-schema instruction to the model
// and decodes the reply. Model output wrapped in markdown code fences
// is unwrapped before decoding; anything that still fails to decode is
// an error, never a synthesized report.
func (a *Agent) Run(ctx context.Context, prompt string) (*Report, error) {
	full := prompt + `
Respond ONLY in valid JSON matching this schema:

{
  "executiveSummary": string,
  "keyRisks": string[],
  "keyOpportunities": string[],
  "followUpQuestions": [
    {
      "insightId": string | null,
      "question": string,
      "reason": string
    }
  ],
  "advisorNotes": string
}
`

	text, err := a.gen.GenerateText(ctx, full)
	if err != nil {
		return nil, fmt.Errorf("advisor generation: %w", err)
	}

	cleaned := stripFences(text)

	var report Report
	if err := json.Unmarshal([]byte(cleaned), &report); err != nil {
		a.log.Error().Str("raw", text).Msg("advisor output failed to decode")
		return nil, fmt.Errorf("decode advisor output: %w", err)
	}
	return &report, nil
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// GeminiClient is the production Generator backed by the Gemini API.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient dials the Gemini API with the given key.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// GenerateText runs one generation call at low temperature.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(
		ctx,
		model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{Temperature: genai.Ptr(float32(temperature))},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}
