package cce

import "context"

// Summarizer is the external, pluggable capability for LLM-backed
// summarization. The core never calls it directly — it is only ever
// invoked through withFallback (see llmsummarizer.go), which accepts its
// result only if non-empty and strictly shorter than the input, and falls
// back to the deterministic summarizer otherwise. Implementations may block
// on a network call; ctx carries cancellation.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// SummarizerFunc adapts a plain function to Summarizer.
type SummarizerFunc func(ctx context.Context, text string) (string, error)

// Summarize implements Summarizer.
func (f SummarizerFunc) Summarize(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// TokenCounter is a pluggable token-counting capability. DefaultTokenCounter
// implements the spec's heuristic; NewTiktokenCounter wraps an actual BPE
// tokenizer for callers who need accurate counts.
type TokenCounter interface {
	CountTokens(m Message) int
}

// TokenCounterFunc adapts a plain function to TokenCounter.
type TokenCounterFunc func(m Message) int

// CountTokens implements TokenCounter.
func (f TokenCounterFunc) CountTokens(m Message) int {
	return f(m)
}

// CompressOptions configures a single Compress call. The zero value is not
// directly usable — call DefaultCompressOptions() and override fields.
type CompressOptions struct {
	// Preserve lists role names never compressed. Default: ["system"].
	Preserve []string

	// RecencyWindow protects the last N messages from compression.
	// Default: 4.
	RecencyWindow int

	// SourceVersion is copied into every emitted _cce_original.version.
	// Default: 0.
	SourceVersion int

	// Summarizer, if set, enables the withFallback external-summarization
	// path for every group's prose summarization.
	Summarizer Summarizer

	// TokenBudget, if > 0, enables budget search (see budget.go).
	TokenBudget int

	// MinRecencyWindow floors the budget search's binary search range.
	// Default: 0.
	MinRecencyWindow int

	// ForceConverge hard-truncates the tail when budget search cannot fit
	// within MinRecencyWindow. Default: false.
	ForceConverge bool

	// Dedup enables exact dedup. Default: true.
	Dedup bool

	// FuzzyDedup enables fuzzy (near-duplicate) dedup. Default: false.
	FuzzyDedup bool

	// FuzzyThreshold is the Jaccard similarity threshold in [0,1] for
	// accepting a fuzzy-dedup pair. Default: 0.85.
	FuzzyThreshold float64

	// EmbedSummaryID inlines the summary_id into emitted content as
	// "[summary#<id>: ...]" instead of "[summary: ...]". Default: false.
	EmbedSummaryID bool

	// TokenCounter overrides DefaultTokenCounter for budget search.
	TokenCounter TokenCounter

	// PreserveGlobs is a domain-stack addition: gobwas/glob patterns that
	// force-preserve any message whose content contains a path-shaped token
	// matching one of them. Default: empty (no additional preservation).
	PreserveGlobs []string

	// ScoringConfig overrides the deterministic sentence scorer's weights
	// and structural-path thresholds. Default: DefaultScoringConfig().
	ScoringConfig *ScoringConfig
}

// DefaultCompressOptions returns spec-literal defaults.
func DefaultCompressOptions() CompressOptions {
	return CompressOptions{
		Preserve:       []string{RoleSystem},
		RecencyWindow:  4,
		SourceVersion:  0,
		Dedup:          true,
		FuzzyDedup:     false,
		FuzzyThreshold: 0.85,
	}
}

// withDefaults fills zero-valued fields that have a spec-mandated default
// but whose Go zero value is ambiguous with "explicitly set to zero"
// (RecencyWindow, FuzzyThreshold): callers constructing CompressOptions by
// hand without DefaultCompressOptions() still get spec defaults.
func (o CompressOptions) withDefaults() CompressOptions {
	if o.Preserve == nil {
		o.Preserve = []string{RoleSystem}
	}
	if o.FuzzyThreshold == 0 {
		o.FuzzyThreshold = 0.85
	}
	if o.ScoringConfig == nil {
		cfg := DefaultScoringConfig()
		o.ScoringConfig = &cfg
	}
	return o
}

func (o CompressOptions) preservesRole(role Role) bool {
	for _, r := range o.Preserve {
		if r == role {
			return true
		}
	}
	return false
}

// UncompressOptions configures a single Uncompress call.
type UncompressOptions struct {
	// Recursive enables iterated decompression (up to 10 rounds): after one
	// pass, if any restored message itself carries _cce_original, repeat on
	// the output.
	Recursive bool
}
