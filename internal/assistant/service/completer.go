package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/genai"

	"mynotes/config"
)

const (
	DefaultOpenAIModel = "gpt-4o"
	DefaultGeminiModel = "gemini-2.5-flash"
)

// CompletionOptions tunes a single completion. Zero MaxTokens means the
// provider default.
type CompletionOptions struct {
	Temperature float64
	MaxTokens   int
}

// Completer sends one system + user turn to a chat-completion provider and
// returns the generated text.
type Completer interface {
	Complete(ctx context.Context, system, user string, opts CompletionOptions) (string, error)
}

// OpenAICompleter talks to the OpenAI chat completions API through langchaingo.
type OpenAICompleter struct {
	llm *openai.LLM
}

func NewOpenAICompleter(apiKey, model string, client *http.Client) (*OpenAICompleter, error) {
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts := []openai.Option{openai.WithToken(apiKey), openai.WithModel(model)}
	if client != nil {
		opts = append(opts, openai.WithHTTPClient(client))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("could not create openai client: %w", err)
	}
	return &OpenAICompleter{llm: llm}, nil
}

func (o *OpenAICompleter) Complete(ctx context.Context, system, user string, opts CompletionOptions) (string, error) {
	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}

	resp, err := o.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}, callOpts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Content, nil
}

// GeminiCompleter talks to the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

func NewGeminiCompleter(ctx context.Context, apiKey, model string, client *http.Client) (*GeminiCompleter, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: client,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create gemini client: %w", err)
	}
	return &GeminiCompleter{client: gc, model: model}, nil
}

func (g *GeminiCompleter) Complete(ctx context.Context, system, user string, opts CompletionOptions) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.Text(system)[0],
		Temperature:       genai.Ptr(float32(opts.Temperature)),
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(user), cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// NewCompleter builds the completer for the configured provider, or returns
// nil when the provider has no credential (the proxy then reports
// ErrNoCredential without any outbound call).
func NewCompleter(ctx context.Context, cfg config.AIConfig) (Completer, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, nil
	}

	var client *http.Client
	timeout, err := cfg.RequestTimeout()
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		client = &http.Client{Timeout: timeout}
	}

	if cfg.Provider == "gemini" {
		g, err := NewGeminiCompleter(ctx, key, cfg.Model, client)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
	o, err := NewOpenAICompleter(key, cfg.Model, client)
	if err != nil {
		return nil, err
	}
	return o, nil
}
