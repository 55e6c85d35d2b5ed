package cce

import (
	"context"
	"strings"

	"github.com/kestrelcode/cce/pkg/logging"
)

var llmFallbackLog *logging.Logger

func init() {
	var err error
	llmFallbackLog, err = logging.NewLogger("llmsummarizer")
	if err != nil {
		llmFallbackLog.Warnf("falling back to stderr logging: %v", err)
	}
}

// This file implements the external-summarizer integration described in
// spec.md §6: an optional Summarizer may be plugged into CompressOptions,
// but its output is only ever trusted through withFallback, which accepts
// it only when non-empty and strictly shorter than the input text. Any
// other outcome (error, empty, not-shorter) falls back to the
// deterministic summarizer so a flaky or misbehaving external
// collaborator can never make compression produce a larger or invalid
// result.

// withFallback calls summarizer.Summarize(ctx, text) and accepts its
// result only if it is non-empty and strictly shorter than text;
// otherwise it falls back to the deterministic summarizer.
func withFallback(ctx context.Context, summarizer Summarizer, text string, cfg ScoringConfig) string {
	if summarizer == nil {
		return DeterministicSummarize(text, cfg)
	}

	out, err := summarizer.Summarize(ctx, text)
	if err != nil {
		llmFallbackLog.Debugf("external summarizer error, falling back: %v", err)
		return DeterministicSummarize(text, cfg)
	}
	out = strings.TrimSpace(out)
	if out == "" || len(out) >= len(text) {
		llmFallbackLog.Debugf("external summarizer result rejected (len %d >= input %d), falling back", len(out), len(text))
		return DeterministicSummarize(text, cfg)
	}
	return out
}

// LLMCallFunc is the raw capability a caller plugs into MakeSummarizer /
// MakeEscalatingSummarizer: given a fully-rendered prompt, return the
// model's raw text response.
type LLMCallFunc func(ctx context.Context, prompt string) (string, error)

// SummarizerPromptOptions configures the prompt MakeSummarizer renders
// around the text to summarize.
type SummarizerPromptOptions struct {
	// PreserveTerms are named entities/identifiers the prompt asks the
	// model to keep verbatim in its summary (function names, error codes,
	// etc.) — typically the classifier's extracted entities for the text
	// being summarized.
	PreserveTerms []string

	// Instruction overrides the default summarization instruction.
	Instruction string
}

const defaultSummarizerInstruction = "Summarize the following text as tersely as possible while preserving every fact, decision, and named entity. Respond with the summary only, no preamble."

// renderPrompt builds the prompt text sent to call.
func renderPrompt(text string, opts SummarizerPromptOptions) string {
	instruction := opts.Instruction
	if instruction == "" {
		instruction = defaultSummarizerInstruction
	}
	var b strings.Builder
	b.WriteString(instruction)
	if len(opts.PreserveTerms) > 0 {
		b.WriteString("\nPreserve these terms verbatim: ")
		b.WriteString(strings.Join(opts.PreserveTerms, ", "))
	}
	b.WriteString("\n\n")
	b.WriteString(text)
	return b.String()
}

// MakeSummarizer adapts a raw LLMCallFunc into a Summarizer by wrapping the
// input text in a summarization prompt built from opts. The result is
// still only ever trusted through withFallback's acceptance rule.
func MakeSummarizer(call LLMCallFunc, opts SummarizerPromptOptions) Summarizer {
	return SummarizerFunc(func(ctx context.Context, text string) (string, error) {
		return call(ctx, renderPrompt(text, opts))
	})
}

// MakeEscalatingSummarizer returns a Summarizer that tries each of primary,
// then fallbacks in order, accepting the first one whose result is
// non-empty; each attempt's acceptance (shorter-than-input) is still
// enforced by withFallback at the call site, so this only governs which
// candidate earns the attempt.
func MakeEscalatingSummarizer(primary Summarizer, fallbacks ...Summarizer) Summarizer {
	chain := append([]Summarizer{primary}, fallbacks...)
	return SummarizerFunc(func(ctx context.Context, text string) (string, error) {
		var lastErr error
		for _, s := range chain {
			if s == nil {
				continue
			}
			out, err := s.Summarize(ctx, text)
			if err != nil {
				lastErr = err
				continue
			}
			if strings.TrimSpace(out) != "" {
				return out, nil
			}
		}
		return "", lastErr
	})
}
