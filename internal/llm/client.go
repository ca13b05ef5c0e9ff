// Package llm wraps the Gemini API for the Analysis Engine (C8), Report
// Engine (C9), and Top-N Ranker's (C7) news-sentiment ranking pass.
// Grounded on bobmcallan-vire's internal/clients/gemini/client.go:
// functional-options construction, a thin GenerateContent/
// GenerateWithURLContext pair over genai.Client.Models.GenerateContent.
package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/kr-equities/aegis-quant/pkg/logger"
	"github.com/kr-equities/aegis-quant/pkg/redis"
)

// DefaultModel matches the reference's GEMINI_MODEL setting.
const DefaultModel = "gemini-2.0-flash"

// rateLimitKey/rateLimitBudget/rateLimitWindow mirror the reference
// RateLimiter's budget (llm_company_analysis.py's
// RateLimiter(max_requests=60, time_window=60)).
const (
	rateLimitKey    = "llm"
	rateLimitBudget = 60
	rateLimitWindow = time.Minute
)

// Client generates text and URL-grounded completions against Gemini,
// rate-limited through the shared pkg/redis.RateLimiter (a no-op when
// Redis is disabled, matching that package's "allow all" fallback).
type Client struct {
	genai   *genai.Client
	model   string
	limiter *redis.RateLimiter
	log     *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides DefaultModel.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithRateLimiter installs a shared rate limiter; without one, every
// call proceeds unthrottled (the caller is then responsible for its own
// pacing).
func WithRateLimiter(limiter *redis.RateLimiter) Option {
	return func(c *Client) { c.limiter = limiter }
}

// New constructs a Client from an API key, applying any Options over the
// package defaults.
func New(ctx context.Context, apiKey string, log *logger.Logger, opts ...Option) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create client: %w", err)
	}

	c := &Client{
		genai: genaiClient,
		model: DefaultModel,
		log:   log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ModelName returns the model this Client calls, for callers that
// persist it alongside a generated result.
func (c *Client) ModelName() string {
	return c.model
}

// Generate produces plain text for prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	text, _, err := c.generate(ctx, prompt, nil)
	return text, err
}

// GenerateWithURLContext produces text with Gemini's URL-context
// grounding tool enabled, so the model can fetch and reason over the
// given URLs directly rather than relying solely on prompt text — used
// by the Report Engine's macro/news grounding pass.
func (c *Client) GenerateWithURLContext(ctx context.Context, prompt string, urls ...string) (string, error) {
	text, _, err := c.generateWithURLContext(ctx, prompt, urls...)
	return text, err
}

// GenerateWithUsage is Generate plus the input+output token count, for
// callers that persist tokens_used alongside the response (the Analysis
// and Report engines' cache rows).
func (c *Client) GenerateWithUsage(ctx context.Context, prompt string) (string, int, error) {
	return c.generate(ctx, prompt, nil)
}

// GenerateWithURLContextUsage is GenerateWithURLContext plus the token count.
func (c *Client) GenerateWithURLContextUsage(ctx context.Context, prompt string, urls ...string) (string, int, error) {
	return c.generateWithURLContext(ctx, prompt, urls...)
}

// GenerateWithGroundingUsage enables Gemini's Google Search grounding tool
// at the given sampling temperature — the Report Engine's morning/afternoon
// narrative calls, grounded on llm_report.py's _generate_with_grounding
// (temperature 0.3, google_search tool, same usage-metadata token count).
func (c *Client) GenerateWithGroundingUsage(ctx context.Context, prompt string, temperature float32) (string, int, error) {
	config := &genai.GenerateContentConfig{
		Temperature: &temperature,
		Tools:       []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	return c.generate(ctx, prompt, config)
}

func (c *Client) generateWithURLContext(ctx context.Context, prompt string, urls ...string) (string, int, error) {
	if len(urls) > 0 {
		prompt = withURLPreamble(prompt, urls)
	}
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{URLContext: &genai.URLContext{}}},
	}
	return c.generate(ctx, prompt, config)
}

func (c *Client) generate(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, redis.RateLimitConfig{
			Key:    rateLimitKey,
			Limit:  rateLimitBudget,
			Window: rateLimitWindow,
		}); err != nil {
			return "", 0, fmt.Errorf("llm: rate limit wait: %w", err)
		}
	}

	contents := genai.Text(prompt)
	result, err := c.genai.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", 0, fmt.Errorf("llm: generate content: %w", err)
	}

	text, err := extractText(result)
	if err != nil {
		return "", 0, err
	}

	var tokens int
	if result.UsageMetadata != nil {
		tokens = int(result.UsageMetadata.PromptTokenCount) + int(result.UsageMetadata.CandidatesTokenCount)
		c.log.WithFields(map[string]interface{}{
			"input_tokens":  result.UsageMetadata.PromptTokenCount,
			"output_tokens": result.UsageMetadata.CandidatesTokenCount,
		}).Debug("llm: token usage")
	}
	return text, tokens, nil
}

func extractText(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("llm: empty response")
	}
	var text string
	for _, part := range result.Candidates[0].Content.Parts {
		text += part.Text
	}
	if text == "" {
		return "", fmt.Errorf("llm: no text in response")
	}
	return text, nil
}

func withURLPreamble(prompt string, urls []string) string {
	preamble := "Reference URLs:\n"
	for _, u := range urls {
		preamble += "- " + u + "\n"
	}
	return preamble + "\n" + prompt
}
