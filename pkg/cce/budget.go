package cce

import (
	"context"
	"sort"
	"strconv"
)

// compressWithBudgetSearch binary-searches the recency window so the
// compressed sequence's token count fits within opts.TokenBudget, per
// spec.md §4.6. A fast path returns the input untouched if it already fits
// uncompressed. Otherwise it searches for the largest recency window (no
// smaller than opts.MinRecencyWindow) whose compressed output still fits,
// since a larger window preserves more recent context. If even the floor
// window doesn't fit and opts.ForceConverge is set, a final tail-truncation
// pass hard-truncates the longest eligible messages until it does.
func compressWithBudgetSearch(ctx context.Context, messages []Message, opts CompressOptions) (CompressResult, error) {
	counter := opts.TokenCounter
	if counter == nil {
		counter = DefaultTokenCounter
	}

	if countTokens(messages, counter) <= opts.TokenBudget {
		return CompressResult{
			Messages:       append([]Message(nil), messages...),
			Verbatim:       make(VerbatimMap),
			BudgetSearched: true,
			Fits:           true,
			TokenCount:     countTokens(messages, counter),
			RecencyWindow:  len(messages),
		}, nil
	}

	lo := opts.MinRecencyWindow
	hi := len(messages) - 1
	if hi < lo {
		hi = lo
	}

	for lo < hi {
		mid := lo + (hi-lo+1)/2 // ceil((lo+hi)/2)
		result, err := compressAtWindow(ctx, messages, opts, mid)
		if err != nil {
			return CompressResult{}, err
		}
		if countTokens(result.Messages, counter) <= opts.TokenBudget {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	best, err := compressAtWindow(ctx, messages, opts, lo)
	if err != nil {
		return CompressResult{}, err
	}

	tokenCount := countTokens(best.Messages, counter)
	fits := tokenCount <= opts.TokenBudget

	if !fits && opts.ForceConverge {
		best.Messages, tokenCount = forceConverge(best.Messages, lo, opts.Preserve, opts.TokenBudget, opts.SourceVersion, best.Verbatim, counter)
		fits = tokenCount <= opts.TokenBudget
	}

	best.BudgetSearched = true
	best.Fits = fits
	best.TokenCount = tokenCount
	best.RecencyWindow = lo
	return best, nil
}

func compressAtWindow(ctx context.Context, messages []Message, opts CompressOptions, window int) (CompressResult, error) {
	windowed := opts
	windowed.RecencyWindow = window
	windowed.TokenBudget = 0 // avoid recursing back into budget search
	return compressOnce(ctx, messages, windowed)
}

func countTokens(messages []Message, counter TokenCounter) int {
	total := 0
	for _, m := range messages {
		total += counter.CountTokens(m)
	}
	return total
}

const truncatedContentThreshold = 512

// forceConverge hard-truncates the longest eligible messages in descending
// length order until the sequence fits budget or no eligible message
// remains, per spec.md §4.6. Eligible messages are those outside the
// protected recency-window suffix, whose role isn't in preserve, and whose
// content exceeds truncatedContentThreshold chars. Truncation rewrites
// content to "[truncated — <origLen> chars: <first 512 chars>]"; a message
// that already carried provenance only has its content replaced, one that
// didn't gains a fresh _cce_original with a new summary_id, and its
// pre-truncation form is archived into verbatim so decompression can still
// recover it.
func forceConverge(messages []Message, recencyWindow int, preserve []string, budget int, sourceVersion int, verbatim VerbatimMap, counter TokenCounter) ([]Message, int) {
	out := append([]Message(nil), messages...)

	protectedFrom := len(out) - recencyWindow
	if protectedFrom < 0 {
		protectedFrom = 0
	}

	preserveSet := make(map[string]bool, len(preserve))
	for _, r := range preserve {
		preserveSet[r] = true
	}

	eligible := make([]int, 0, len(out))
	for i, m := range out {
		if i >= protectedFrom {
			continue
		}
		if preserveSet[m.Role] {
			continue
		}
		if len(m.Content) <= truncatedContentThreshold {
			continue
		}
		eligible = append(eligible, i)
	}
	sort.SliceStable(eligible, func(a, b int) bool {
		return len(out[eligible[a]].Content) > len(out[eligible[b]].Content)
	})

	total := countTokens(out, counter)
	for _, idx := range eligible {
		if total <= budget {
			break
		}
		m := out[idx]
		origLen := len(m.Content)
		head := m.Content
		if len(head) > truncatedContentThreshold {
			head = head[:truncatedContentThreshold]
		}
		truncated := formatTruncated(origLen, head)

		if m.Original() != nil {
			m.Content = truncated
		} else {
			verbatim[m.ID] = m.Clone()
			orig := &CCEOriginal{
				IDs:       []string{m.ID},
				SummaryID: SummaryID([]string{m.ID}),
				Version:   sourceVersion,
			}
			m = m.withMetadata(MetadataOriginalKey, orig)
			m.Content = truncated
		}
		out[idx] = m
		total = countTokens(out, counter)
	}
	return out, total
}

func formatTruncated(origLen int, head string) string {
	return "[truncated — " + strconv.Itoa(origLen) + " chars: " + head + "]"
}
