// Package openaiadapter implements cce.Summarizer on top of the OpenAI
// chat completions API. It lives outside pkg/cce deliberately: the core
// engine has zero dependency on any specific LLM provider, and every
// caller of Compress works identically whether or not this package is
// ever imported. Its result is only ever trusted through cce's
// withFallback acceptance rule (non-empty, strictly shorter than input);
// a network failure or a verbose response simply falls back to the
// deterministic summarizer.
package openaiadapter

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/kestrelcode/cce/pkg/cce"
	"github.com/kestrelcode/cce/pkg/logging"
)

var adapterLog *logging.Logger

func init() {
	var err error
	adapterLog, err = logging.NewLogger("openaiadapter")
	if err != nil {
		adapterLog.Warnf("falling back to stderr logging: %v", err)
	}
}

const defaultPrompt = "Summarize the following conversation excerpt as tersely as possible while preserving every fact, decision, and named entity. Respond with the summary only."

// Summarizer implements cce.Summarizer using a chat completions model.
type Summarizer struct {
	client       openai.Client
	model        string
	systemPrompt string
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithSystemPrompt overrides the instruction sent ahead of the text to
// summarize.
func WithSystemPrompt(prompt string) Option {
	return func(s *Summarizer) { s.systemPrompt = prompt }
}

// New returns a Summarizer using model (e.g. "gpt-4o-mini") and the given
// client options (API key, base URL, etc. — see option.WithAPIKey and
// friends in github.com/openai/openai-go/option).
func New(model string, clientOpts []option.RequestOption, opts ...Option) *Summarizer {
	s := &Summarizer{
		client:       openai.NewClient(clientOpts...),
		model:        model,
		systemPrompt: defaultPrompt,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize implements cce.Summarizer.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(s.systemPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		adapterLog.Warnf("openai summarize call failed: %v", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openaiadapter: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ cce.Summarizer = (*Summarizer)(nil)
