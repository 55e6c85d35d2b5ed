package cce

import (
	"context"
	"strings"

	"github.com/kestrelcode/cce/pkg/logging"
)

var pipelineLog *logging.Logger

func init() {
	var err error
	pipelineLog, err = logging.NewLogger("pipeline")
	if err != nil {
		pipelineLog.Warnf("falling back to stderr logging: %v", err)
	}
}

// Compress runs the full classify -> dedup -> group-and-summarize ->
// provenance-stamp pipeline over messages, returning a replacement
// sequence plus the verbatim side-store needed to reverse it. If
// opts.TokenBudget > 0, it additionally runs the budget search (see
// budget.go) instead of a single fixed-recency-window pass.
func Compress(ctx context.Context, messages []Message, opts CompressOptions) (CompressResult, error) {
	if err := validateMessageIDs(messages); err != nil {
		return CompressResult{}, err
	}

	opts = opts.withDefaults()

	if opts.TokenBudget > 0 {
		return compressWithBudgetSearch(ctx, messages, opts)
	}
	return compressOnce(ctx, messages, opts)
}

// validateMessageIDs rejects input-shape errors the rest of the pipeline
// can't recover from: every message needs a non-empty ID, unique within
// the sequence, since dedup grouping, provenance parent_ids, and the
// verbatim side-store are all keyed on it.
func validateMessageIDs(messages []Message) error {
	seen := make(map[string]bool, len(messages))
	for i, m := range messages {
		if m.ID == "" {
			return newTypeErrorf("message at index %d has an empty ID", i)
		}
		if seen[m.ID] {
			return newTypeErrorf("duplicate message ID %q", m.ID)
		}
		seen[m.ID] = true
	}
	return nil
}

// compressOnce runs a single pass at opts.RecencyWindow with no budget
// search.
func compressOnce(ctx context.Context, messages []Message, opts CompressOptions) (CompressResult, error) {
	n := len(messages)
	classifications := make([]Classification, n)
	for i, m := range messages {
		classifications[i] = Classify(m, i, n, opts)
	}

	var dedupVerdicts map[string]dedupVerdict
	if opts.Dedup || opts.FuzzyDedup {
		dedupVerdicts = runDedup(messages, opts)
	}

	verbatim := make(VerbatimMap)
	var out []Message

	stats := CompressionStats{OriginalVersion: opts.SourceVersion}

	i := 0
	for i < n {
		m := messages[i]
		cls := classifications[i]

		if v, ok := dedupVerdicts[m.ID]; ok {
			out = append(out, rewriteDedupMessage(m, v, verbatim, opts))
			if v.Kind == DedupFuzzy {
				stats.MessagesFuzzyDeduped++
			} else {
				stats.MessagesDeduped++
			}
			i++
			continue
		}

		if cls.Preserve {
			out = append(out, m)
			stats.MessagesPreserved++
			i++
			continue
		}

		if cls.CodeSplit {
			rewritten, compressed := rewriteGroup(ctx, []Message{m}, opts, verbatim)
			out = append(out, rewritten...)
			if compressed {
				stats.MessagesCompressed++
			} else {
				stats.MessagesPreserved++
			}
			i++
			continue
		}

		// Accumulate a run of adjacent, same-role, compressible,
		// non-dedup, non-code-split, non-preserved messages into one
		// group.
		j := i + 1
		for j < n {
			next := messages[j]
			nextCls := classifications[j]
			if _, deduped := dedupVerdicts[next.ID]; deduped {
				break
			}
			if nextCls.Preserve || nextCls.CodeSplit || next.Role != m.Role {
				break
			}
			j++
		}
		group := messages[i:j]
		rewritten, compressed := rewriteGroup(ctx, group, opts, verbatim)
		out = append(out, rewritten...)
		if compressed {
			stats.MessagesCompressed += len(group)
		} else {
			stats.MessagesPreserved += len(group)
		}
		i = j
	}

	stats.Ratio, stats.TokenRatio = computeRatios(messages, out, opts)

	pipelineLog.Debugf("compress: %d in, %d out", n, len(out))
	pipelineLog.LogCompressionSummary(logging.CompressionSummary{
		Ratio:                stats.Ratio,
		TokenRatio:           stats.TokenRatio,
		MessagesCompressed:   stats.MessagesCompressed,
		MessagesPreserved:    stats.MessagesPreserved,
		MessagesDeduped:      stats.MessagesDeduped,
		MessagesFuzzyDeduped: stats.MessagesFuzzyDeduped,
	})

	return CompressResult{Messages: out, Verbatim: verbatim, Compression: stats}, nil
}

// rewriteDedupMessage replaces a duplicate message with a short reference
// to its keep target, archiving the original in verbatim.
func rewriteDedupMessage(m Message, v dedupVerdict, verbatim VerbatimMap, opts CompressOptions) Message {
	verbatim[m.ID] = m.Clone()

	content := formatDedupReference(v, len(m.Content))
	orig := &CCEOriginal{
		IDs:       []string{m.ID},
		SummaryID: SummaryID([]string{m.ID}),
		ParentIDs: collectParentIDs([]Message{m}),
		Version:   opts.SourceVersion,
	}

	out := m.withMetadata(MetadataOriginalKey, orig)
	out.Content = content
	out.ToolCalls = nil
	return out
}

// rewriteGroup summarizes a run of same-role messages into one rewritten
// message, archiving every covered original in verbatim. If the rewrite is
// not strictly shorter than the original combined content (the size
// guard), the group's messages are returned unchanged instead — still
// individually, so the sequence length is unaffected either way.
func rewriteGroup(ctx context.Context, group []Message, opts CompressOptions, verbatim VerbatimMap) ([]Message, bool) {
	ids := make([]string, len(group))
	var combined strings.Builder
	for i, m := range group {
		ids[i] = m.ID
		verbatim[m.ID] = m.Clone()
		if i > 0 {
			combined.WriteString("\n\n")
		}
		combined.WriteString(m.Content)
	}
	original := combined.String()

	var summary string
	if len(group) == 1 && classifyCodeSplit(group[0], opts) {
		summary = CodeSplit(original, *opts.ScoringConfig)
	} else {
		summary = withFallback(ctx, opts.Summarizer, original, *opts.ScoringConfig)
	}

	content := formatSummaryContent(summary, ids, opts)

	if len(content) >= len(original) {
		pipelineLog.Debugf("size guard tripped for group %v, keeping originals", ids)
		return group, false
	}

	orig := &CCEOriginal{
		IDs:       ids,
		SummaryID: SummaryID(ids),
		ParentIDs: collectParentIDs(group),
		Version:   opts.SourceVersion,
	}

	return []Message{{
		ID:       group[0].ID,
		Index:    group[0].Index,
		Role:     group[0].Role,
		Content:  content,
		Metadata: map[string]any{MetadataOriginalKey: orig},
	}}, true
}

func classifyCodeSplit(m Message, opts CompressOptions) bool {
	fences := findFences(m.Content)
	return len(fences) > 0
}

// formatSummaryContent renders a group's summary text with the
// "[summary: ...]" or "[summary#<id>: ...]" wrapper, unless the
// summarizer already returned a structured/code-split rendering (which
// carries its own bracket).
func formatSummaryContent(summary string, ids []string, opts CompressOptions) string {
	if strings.HasPrefix(summary, "[summary") || strings.HasPrefix(summary, "[cce:") {
		return summary
	}
	if opts.EmbedSummaryID {
		return "[summary#" + SummaryID(ids) + ": " + summary + "]"
	}
	return "[summary: " + summary + "]"
}

// collectParentIDs gathers the summary_ids of any already-compressed
// messages found in group, deduplicated, in order of first appearance.
func collectParentIDs(group []Message) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range group {
		orig := m.Original()
		if orig == nil {
			continue
		}
		if orig.SummaryID != "" && !seen[orig.SummaryID] {
			seen[orig.SummaryID] = true
			out = append(out, orig.SummaryID)
		}
		for _, pid := range orig.ParentIDs {
			if !seen[pid] {
				seen[pid] = true
				out = append(out, pid)
			}
		}
	}
	return out
}

// computeRatios returns the character-length ratio and token-count ratio of
// in relative to out (orig/result, per spec.md §3), so a 10x compression
// reports ratio ≈ 10, not ≈ 0.1.
func computeRatios(in, out []Message, opts CompressOptions) (float64, float64) {
	counter := opts.TokenCounter
	if counter == nil {
		counter = DefaultTokenCounter
	}

	var inChars, outChars, inTokens, outTokens int
	for _, m := range in {
		inChars += len(m.Content)
		inTokens += counter.CountTokens(m)
	}
	for _, m := range out {
		outChars += len(m.Content)
		outTokens += counter.CountTokens(m)
	}

	ratio := 1.0
	if outChars > 0 {
		ratio = float64(inChars) / float64(outChars)
	}
	tokenRatio := 1.0
	if outTokens > 0 {
		tokenRatio = float64(inTokens) / float64(outTokens)
	}
	return ratio, tokenRatio
}
