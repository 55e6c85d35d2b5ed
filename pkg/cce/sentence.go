package cce

import (
	"regexp"
	"strings"
)

// This file implements paragraph/sentence splitting and the deterministic
// additive sentence scorer from spec.md §4.2/§4.3.

var (
	abbreviations = map[string]bool{
		"mr.": true, "mrs.": true, "ms.": true, "dr.": true, "prof.": true,
		"sr.": true, "jr.": true, "st.": true, "vs.": true, "etc.": true,
		"e.g.": true, "i.e.": true, "approx.": true, "no.": true, "fig.": true,
		"inc.": true, "ltd.": true, "co.": true, "corp.": true,
	}

	sentenceEndRe = regexp.MustCompile(`[.!?]+["')\]]*\s+`)

	camelCaseRe  = regexp.MustCompile(`\b[a-z]+(?:[A-Z][a-z0-9]*)+\b`)
	pascalCaseRe = regexp.MustCompile(`\b[A-Z][a-z0-9]*(?:[A-Z][a-z0-9]*)+\b`)
	snakeCaseRe  = regexp.MustCompile(`\b[a-z][a-z0-9]*(?:_[a-z0-9]+)+\b`)

	keywordRe = regexp.MustCompile(`(?i)\b(?:importantly|however|critically|critical|must|should|warning|note that|key|crucial)\b`)

	fillerOpenerRe = regexp.MustCompile(`(?i)^(?:so,?\s+|well,?\s+|basically,?\s+|anyway,?\s+|just to say,?\s+|i think\s+|i guess\s+)`)

	// abbreviationWordRe matches vowelless abbreviations: runs of 3+
	// consonants with no vowels, e.g. "npm", "ssh" (spec.md §4.1/§4.3).
	abbreviationWordRe = regexp.MustCompile(`(?i)\b[bcdfghjklmnpqrstvwxyz]{3,}\b`)
)

// splitParagraphs splits content on blank lines.
func splitParagraphs(content string) []string {
	raw := regexp.MustCompile(`\n\s*\n`).Split(content, -1)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences splits a paragraph into sentences, honoring the
// abbreviation list so "Dr. Smith said..." doesn't break after "Dr.".
func splitSentences(paragraph string) []string {
	paragraph = strings.TrimSpace(strings.ReplaceAll(paragraph, "\n", " "))
	if paragraph == "" {
		return nil
	}

	idxs := sentenceEndRe.FindAllStringIndex(paragraph, -1)
	var sentences []string
	start := 0
	for _, loc := range idxs {
		candidate := paragraph[start:loc[1]]
		lastWord := lastWordBefore(paragraph, loc[0]+1)
		if abbreviations[strings.ToLower(lastWord)] {
			continue
		}
		sentences = append(sentences, strings.TrimSpace(candidate))
		start = loc[1]
	}
	if start < len(paragraph) {
		rest := strings.TrimSpace(paragraph[start:])
		if rest != "" {
			sentences = append(sentences, rest)
		}
	}
	return sentences
}

// lastWordBefore returns the whitespace-delimited token ending at or before
// position pos in s.
func lastWordBefore(s string, pos int) string {
	if pos > len(s) {
		pos = len(s)
	}
	end := pos
	start := end
	for start > 0 && s[start-1] != ' ' {
		start--
	}
	return s[start:end]
}

// scoreSentence computes the additive score for one sentence using cfg's
// weights, returning the score and the set of entity-bearing tokens found
// (for later entity extraction).
func scoreSentence(sentence string, position, total int, cfg ScoringConfig) int {
	score := 0

	score += cfg.CamelCaseWeight * countDistinctMatches(camelCaseRe, sentence)
	score += cfg.PascalCaseWeight * countDistinctMatches(pascalCaseRe, sentence)
	score += cfg.SnakeCaseWeight * countDistinctMatches(snakeCaseRe, sentence)
	if keywordRe.MatchString(sentence) {
		score += cfg.KeywordWeight
	}
	score += cfg.UnitNumberWeight * countDistinctMatches(numberUnitRe, sentence)
	score += cfg.AbbreviationWeight * countDistinctMatches(abbreviationWordRe, sentence)
	score += cfg.StatusWordWeight * countDistinctMatches(statusWordRe, sentence)
	score += cfg.GrepRefWeight * countDistinctMatches(grepRefRe, sentence)
	if n := len(sentence); n >= cfg.LengthBandMin && n <= cfg.LengthBandMax {
		score += cfg.LengthBandWeight
	}
	if fillerOpenerRe.MatchString(sentence) {
		score += cfg.FillerOpenerPenalty
	}

	return score
}

// countDistinctMatches returns the number of distinct (deduplicated) matches
// of re in s, so "+N per distinct X" scoring rules scale with how many
// different identifiers/refs appear rather than firing once per sentence.
func countDistinctMatches(re *regexp.Regexp, s string) int {
	seen := make(map[string]bool)
	count := 0
	for _, m := range re.FindAllString(s, -1) {
		if !seen[m] {
			seen[m] = true
			count++
		}
	}
	return count
}

// scoredSentence pairs a sentence with its score and original order.
type scoredSentence struct {
	Text  string
	Score int
	Order int
}

// scoreAllSentences flattens content into scored sentences across all
// paragraphs, preserving original document order in Order.
func scoreAllSentences(content string, cfg ScoringConfig) []scoredSentence {
	var out []scoredSentence
	order := 0
	paragraphs := splitParagraphs(content)
	total := 0
	for _, p := range paragraphs {
		total += len(splitSentences(p))
	}
	for _, p := range paragraphs {
		for _, s := range splitSentences(p) {
			out = append(out, scoredSentence{
				Text:  s,
				Score: scoreSentence(s, order, total, cfg),
				Order: order,
			})
			order++
		}
	}
	return out
}
