package cce

import (
	"regexp"
	"sort"
	"strings"
)

// This file implements the deterministic, dependency-free summarizer that
// backs every compression when no external Summarizer is configured (and
// as the fallback target of withFallback otherwise). It implements
// spec.md §4.2: greedy budget packing over scored sentences, entity
// extraction, and the structured-output fast path for line-oriented
// content.

// DeterministicSummarize reduces content to a budget-bounded summary plus
// an entity line, following the scoring rules in cfg.
func DeterministicSummarize(content string, cfg ScoringConfig) string {
	if isStructuredOutput(content, cfg) {
		return structuredSummarize(content, cfg)
	}

	budget := cfg.LongBudget
	if len(content) < cfg.ShortInputThreshold {
		budget = cfg.ShortBudget
	}

	sentences := scoreAllSentences(content, cfg)
	primary := packSentences(sentences, budget)
	entities := extractEntities(content, cfg.MaxEntities)

	var b strings.Builder
	b.WriteString(primary)
	if len(entities) > 0 {
		if primary != "" {
			b.WriteString(" ")
		}
		b.WriteString("[entities: ")
		b.WriteString(strings.Join(entities, ", "))
		b.WriteString("]")
	}
	return b.String()
}

// packSentences greedily selects sentences by descending score (ties
// broken by original order) until adding the next would exceed budget
// characters, then renders them back in original document order.
func packSentences(sentences []scoredSentence, budget int) string {
	if len(sentences) == 0 {
		return ""
	}

	ranked := make([]scoredSentence, len(sentences))
	copy(ranked, sentences)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Order < ranked[j].Order
	})

	picked := make(map[int]bool)
	used := 0
	for _, s := range ranked {
		cost := len(s.Text) + 1
		if used+cost > budget && len(picked) > 0 {
			continue
		}
		picked[s.Order] = true
		used += cost
		if used >= budget {
			break
		}
	}

	var out []string
	for _, s := range sentences {
		if picked[s.Order] {
			out = append(out, s.Text)
		}
	}
	return strings.Join(out, " ")
}

// --- Entity extraction ---

var (
	properNounRe       = regexp.MustCompile(`\b[A-Z][a-z]{2,}\b`)
	numberUnitEntityRe = numberUnitRe

	// commonSentenceStarters excludes capitalized words that only match
	// properNounRe because they happen to open a sentence, not because
	// they name anything (spec.md §4.3).
	commonSentenceStarters = map[string]bool{
		"The": true, "This": true, "These": true, "That": true, "Those": true,
		"There": true, "Here": true, "It": true, "We": true, "You": true,
		"They": true, "He": true, "She": true, "Also": true, "However": true,
		"Additionally": true, "Finally": true, "Then": true, "Thus": true,
		"Therefore": true, "Because": true, "Although": true, "When": true,
		"While": true, "If": true, "After": true, "Before": true, "Since": true,
		"So": true, "But": true, "And": true, "Or": true, "As": true,
	}
)

// extractEntities pulls proper nouns, identifier-cased words, vowelless
// abbreviations, and numbers-with-units out of content, deduplicated and
// capped at max, in order of first appearance. Proper nouns are extracted
// first (per spec.md §4.3's stated preference order), ahead of
// PascalCase/camelCase/snake_case identifiers, vowelless abbreviations, and
// numbers-with-units, so they're the ones kept when the cap truncates.
func extractEntities(content string, max int) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	var properNouns []string
	for _, m := range properNounRe.FindAllString(content, -1) {
		if !commonSentenceStarters[m] {
			properNouns = append(properNouns, m)
		}
	}

	for _, matches := range [][]string{
		properNouns,
		pascalCaseRe.FindAllString(content, -1),
		camelCaseRe.FindAllString(content, -1),
		snakeCaseRe.FindAllString(content, -1),
		abbreviationWordRe.FindAllString(content, -1),
		numberUnitEntityRe.FindAllString(content, -1),
	} {
		for _, m := range matches {
			add(m)
			if len(out) >= max {
				return out
			}
		}
	}
	return out
}

// --- Structured-output fast path ---

// isStructuredOutput reports whether content looks like line-oriented
// structured output (log dumps, listings) rather than prose: enough
// lines, high newline density, and a majority of lines matching a
// line-oriented shape.
func isStructuredOutput(content string, cfg ScoringConfig) bool {
	lines := strings.Split(content, "\n")
	if len(lines) < cfg.StructuredMinLines {
		return false
	}
	if len(content) == 0 {
		return false
	}
	density := float64(strings.Count(content, "\n")) / float64(len(content))
	if density < cfg.StructuredNewlineDensity {
		return false
	}

	structured := 0
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if t == "" {
			continue
		}
		if looksLikeStructuredLine(t) {
			structured++
		}
	}
	nonEmpty := 0
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return false
	}
	return float64(structured)/float64(nonEmpty) >= cfg.StructuredLineFraction
}

func looksLikeStructuredLine(line string) bool {
	if grepRefRe.MatchString(line) {
		return true
	}
	if statusWordRe.MatchString(line) {
		return true
	}
	if yamlKVLineRe.MatchString(line) {
		return true
	}
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
		return true
	}
	return false
}

// structuredSummarize extracts the highest-value lines (status words,
// grep-style references, errors) up to cfg.StructuredMaxExtractedLines,
// preserving their original order.
func structuredSummarize(content string, cfg ScoringConfig) string {
	lines := strings.Split(content, "\n")
	var kept []string
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if t == "" {
			continue
		}
		if looksLikeStructuredLine(t) {
			kept = append(kept, t)
			if len(kept) >= cfg.StructuredMaxExtractedLines {
				break
			}
		}
	}
	if len(kept) == 0 {
		for i, l := range lines {
			t := strings.TrimSpace(l)
			if t == "" {
				continue
			}
			kept = append(kept, t)
			if i >= cfg.StructuredMaxExtractedLines {
				break
			}
		}
	}
	return strings.Join(kept, "\n")
}
