package cce

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicSummarize_ShorterThanInput(t *testing.T) {
	cfg := DefaultScoringConfig()
	content := strings.Repeat("The deployment pipeline ran successfully across all regions today. ", 20)

	summary := DeterministicSummarize(content, cfg)

	assert.Less(t, len(summary), len(content))
	assert.NotEmpty(t, summary)
}

func TestDeterministicSummarize_ShortInputUsesShortBudget(t *testing.T) {
	cfg := DefaultScoringConfig()
	content := strings.Repeat("A short paragraph about the status of the migration. ", 3)
	assert.Less(t, len(content), cfg.ShortInputThreshold)

	summary := DeterministicSummarize(content, cfg)
	assert.LessOrEqual(t, len(summary), cfg.ShortBudget+200) // some headroom for the entities suffix
}

func TestExtractEntities_DedupsAndCaps(t *testing.T) {
	content := "The UserService calls fetchUserData and then writes to user_cache_table. UserService UserService."
	entities := extractEntities(content, 3)

	assert.LessOrEqual(t, len(entities), 3)
	seen := make(map[string]bool)
	for _, e := range entities {
		assert.False(t, seen[e], "entities must be deduplicated")
		seen[e] = true
	}
}

func TestExtractEntities_FindsNumbersWithUnits(t *testing.T) {
	content := "Latency increased to 450ms after the rollout, up from 12ms at baseline."
	entities := extractEntities(content, 10)

	found := false
	for _, e := range entities {
		if strings.Contains(e, "ms") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestPackSentences_RespectsBudgetOrdering(t *testing.T) {
	sentences := []scoredSentence{
		{Text: "Low score sentence that is rather long and not very informative at all.", Score: 1, Order: 0},
		{Text: "High score sentence with required keyword here.", Score: 10, Order: 1},
	}

	out := packSentences(sentences, 60)

	// Budget only fits one sentence; the higher-scored one should win, but
	// rendering restores original document order (trivial here since only
	// one is picked).
	assert.Contains(t, out, "High score sentence")
}

func TestIsStructuredOutput_DetectsLogLines(t *testing.T) {
	cfg := DefaultScoringConfig()
	content := strings.Repeat("main.go:42: PASS\n", 10)

	assert.True(t, isStructuredOutput(content, cfg))
}

func TestIsStructuredOutput_FalseForProse(t *testing.T) {
	cfg := DefaultScoringConfig()
	content := strings.Repeat("This is an ordinary paragraph of prose without any structure. ", 5)

	assert.False(t, isStructuredOutput(content, cfg))
}

func TestStructuredSummarize_KeepsHighValueLines(t *testing.T) {
	cfg := DefaultScoringConfig()
	content := "setup.go:10: PASS\nteardown.go:20: FAIL\nirrelevant line one\nirrelevant line two\nirrelevant line three\nirrelevant line four\n"

	out := structuredSummarize(content, cfg)
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "FAIL")
}
