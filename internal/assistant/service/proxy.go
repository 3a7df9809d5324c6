package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mynotes/internal/assistant/model"
	"mynotes/pkg/logger"
)

var (
	// ErrUseLocal marks every failure after which the caller should answer
	// with the local interpreter instead.
	ErrUseLocal = errors.New("language model unavailable")
	// ErrNoCredential is returned before any outbound call when no API key is set.
	ErrNoCredential = fmt.Errorf("%w: no api key configured", ErrUseLocal)
	// ErrMissingClient rejects a generate request without client data.
	ErrMissingClient = errors.New("missing client data")
)

// ProviderError wraps any failure reported by the completion provider.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return "completion provider: " + e.Err.Error()
}

func (e *ProviderError) Unwrap() []error {
	return []error{ErrUseLocal, e.Err}
}

// Proxy forwards assistant requests to the configured completion provider.
// A nil Completer means no credential is configured.
type Proxy struct {
	Completer   Completer
	Temperature float64
	MaxTokens   int
	Now         func() time.Time
}

func NewProxy(c Completer, temperature float64, maxTokens int) *Proxy {
	return &Proxy{Completer: c, Temperature: temperature, MaxTokens: maxTokens, Now: time.Now}
}

// Available reports whether a provider credential is configured.
func (p *Proxy) Available() bool {
	return p.Completer != nil
}

// Chat sends one user message with its data summary. It makes a single
// attempt; on failure the error satisfies errors.Is(err, ErrUseLocal).
func (p *Proxy) Chat(ctx context.Context, req model.ChatRequest) (*model.ChatReply, error) {
	if p.Completer == nil {
		return nil, ErrNoCredential
	}

	system := ChatSystemPrompt(req.Message, req.Context, p.now())
	text, err := p.Completer.Complete(ctx, system, req.Message, CompletionOptions{
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	})
	if err != nil {
		logger.Sugar.Errorf("Chat completion failed: %v", err)
		return nil, &ProviderError{Err: err}
	}

	reply := ParseReply(text)
	return &reply, nil
}

// GenerateClientResponse drafts a spoken reply for a law-office client based
// on the client's notes. No token limit is applied.
func (p *Proxy) GenerateClientResponse(ctx context.Context, req model.GenerateRequest) (string, error) {
	if req.Client == nil {
		return "", ErrMissingClient
	}
	if p.Completer == nil {
		return "", ErrNoCredential
	}

	text, err := p.Completer.Complete(ctx, clientSystemPrompt, ClientPrompt(req), CompletionOptions{
		Temperature: p.Temperature,
	})
	if err != nil {
		logger.Sugar.Errorf("Client response generation failed: %v", err)
		return "", &ProviderError{Err: err}
	}
	return text, nil
}

// ParseReply decodes a structured reply when the text looks like JSON and
// falls back to plain text otherwise.
func ParseReply(text string) model.ChatReply {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") || strings.Contains(text, `"action":`) {
		var reply model.ChatReply
		if err := json.Unmarshal([]byte(trimmed), &reply); err == nil {
			return reply
		}
		logger.Sugar.Debugf("Reply looked like JSON but did not decode, using raw text")
	}
	return model.ChatReply{Response: text}
}

func (p *Proxy) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
