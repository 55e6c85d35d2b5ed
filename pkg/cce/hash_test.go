package cce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDjb2Deterministic(t *testing.T) {
	a := djb2([]byte("hello world"))
	b := djb2([]byte("hello world"))
	assert.Equal(t, a, b)
}

func TestDjb2DistinguishesInputs(t *testing.T) {
	a := djb2([]byte("hello"))
	b := djb2([]byte("world"))
	assert.NotEqual(t, a, b)
}

func TestBase36Lowercase(t *testing.T) {
	s := base36(123456789)
	assert.Equal(t, s, stringsToLower(s), "base36 output must already be lowercase")
}

func TestSummaryIDSingleID(t *testing.T) {
	id := SummaryID([]string{"msg-1"})
	assert.True(t, len(id) > len("cce_sum_"))
	assert.Equal(t, "cce_sum_", id[:8])
}

func TestSummaryIDOrderIndependent(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
	}{
		{"two ids reversed", []string{"a", "b"}, []string{"b", "a"}},
		{"three ids shuffled", []string{"x", "y", "z"}, []string{"z", "x", "y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, SummaryID(tt.a), SummaryID(tt.b))
		})
	}
}

func TestSummaryIDDifferentForDifferentSets(t *testing.T) {
	assert.NotEqual(t, SummaryID([]string{"a", "b"}), SummaryID([]string{"a", "c"}))
}

func stringsToLower(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r >= 'A' && r <= 'Z' {
			out[i] = r + ('a' - 'A')
		}
	}
	return string(out)
}
