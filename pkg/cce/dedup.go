package cce

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kestrelcode/cce/pkg/logging"
)

var dedupLog *logging.Logger

func init() {
	var err error
	dedupLog, err = logging.NewLogger("dedup")
	if err != nil {
		dedupLog.Warnf("falling back to stderr logging: %v", err)
	}
}

// DedupKind identifies how a message was deduplicated.
type DedupKind int

const (
	DedupNone DedupKind = iota
	DedupExact
	DedupFuzzy
)

// dedupVerdict is the dedup pass's per-message annotation, overlaid onto
// the classifier's verdict by the pipeline.
type dedupVerdict struct {
	Kind         DedupKind
	KeepTargetID string
	Similarity   float64 // only meaningful for DedupFuzzy
}

// dedupEligible reports whether m may participate in dedup at all: not a
// preserved-role message, no tool_calls, not already compressed, and long
// enough to be worth deduping.
func dedupEligible(m Message, opts CompressOptions) bool {
	if opts.preservesRole(m.Role) {
		return false
	}
	if m.HasToolCalls() {
		return false
	}
	if isAlreadyCompressedMarker(m.Content) {
		return false
	}
	return len(m.Content) >= 200
}

// runDedup computes dedup verdicts for the whole sequence. It never mutates
// messages; the pipeline applies the verdicts.
func runDedup(messages []Message, opts CompressOptions) map[string]dedupVerdict {
	verdicts := make(map[string]dedupVerdict)

	if opts.Dedup {
		exactGroups := groupExactDuplicates(messages, opts)
		for _, group := range exactGroups {
			applyGroupVerdict(group, messages, opts, DedupExact, verdicts, nil)
		}
	}

	if opts.FuzzyDedup {
		remaining := make([]int, 0, len(messages))
		for i, m := range messages {
			if _, already := verdicts[m.ID]; already {
				continue
			}
			if dedupEligible(m, opts) {
				remaining = append(remaining, i)
			}
		}
		fuzzyGroups, sims := groupFuzzyDuplicates(messages, remaining, opts.FuzzyThreshold)
		for _, group := range fuzzyGroups {
			applyGroupVerdict(group, messages, opts, DedupFuzzy, verdicts, sims)
		}
	}

	dedupLog.Debugf("dedup pass complete: %d verdicts", len(verdicts))
	return verdicts
}

// applyGroupVerdict picks the keep target for a duplicate group (indices
// into messages) and records a verdict for every other member.
func applyGroupVerdict(group []int, messages []Message, opts CompressOptions, kind DedupKind, out map[string]dedupVerdict, sims map[[2]int]float64) {
	if len(group) < 2 {
		return
	}
	total := len(messages)
	keepIdx := pickKeepTarget(group, total, opts.RecencyWindow)
	keepID := messages[keepIdx].ID

	for _, idx := range group {
		if idx == keepIdx {
			continue
		}
		sim := 1.0
		if kind == DedupFuzzy && sims != nil {
			if s, ok := sims[[2]int{keepIdx, idx}]; ok {
				sim = s
			} else if s, ok := sims[[2]int{idx, keepIdx}]; ok {
				sim = s
			}
		}
		out[messages[idx].ID] = dedupVerdict{Kind: kind, KeepTargetID: keepID, Similarity: sim}
	}
}

// pickKeepTarget implements the keep-target rule: the first occurrence
// (lowest index) inside the recency window, else the latest occurrence.
func pickKeepTarget(group []int, total, recencyWindow int) int {
	for _, idx := range group {
		if total-idx <= recencyWindow {
			return idx
		}
	}
	latest := group[0]
	for _, idx := range group {
		if idx > latest {
			latest = idx
		}
	}
	return latest
}

// groupExactDuplicates groups eligible messages by djb2 hash of their
// length-prefixed content, then sub-groups within a hash bucket by
// byte-equal content.
func groupExactDuplicates(messages []Message, opts CompressOptions) [][]int {
	byHash := make(map[uint32][]int)
	for i, m := range messages {
		if !dedupEligible(m, opts) {
			continue
		}
		h := djb2(lengthPrefixed(m.Content))
		byHash[h] = append(byHash[h], i)
	}

	var groups [][]int
	for _, idxs := range byHash {
		byContent := make(map[string][]int)
		for _, idx := range idxs {
			byContent[messages[idx].Content] = append(byContent[messages[idx].Content], idx)
		}
		for _, g := range byContent {
			if len(g) >= 2 {
				sort.Ints(g)
				groups = append(groups, g)
			}
		}
	}
	return groups
}

// --- Fuzzy dedup ---

// normalizedLines trims, lowercases, and drops blank lines from content.
func normalizedLines(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.ToLower(strings.TrimSpace(line))
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// fingerprint returns the first n normalized lines (n=5 per spec).
func fingerprint(lines []string) []string {
	n := 5
	if len(lines) < n {
		n = len(lines)
	}
	return lines[:n]
}

// groupFuzzyDuplicates applies the full fuzzy-dedup algorithm over the
// given candidate indices (already filtered to eligible, non-exact-duped
// messages with >= 2 normalized lines). It returns the union-find groups
// and a similarity map keyed by the accepted (i,j) pair.
func groupFuzzyDuplicates(messages []Message, candidates []int, threshold float64) ([][]int, map[[2]int]float64) {
	type candidate struct {
		idx         int
		lines       []string
		fingerprint []string
	}

	var cands []candidate
	for _, idx := range candidates {
		lines := normalizedLines(messages[idx].Content)
		if len(lines) < 2 {
			continue
		}
		cands = append(cands, candidate{idx: idx, lines: lines, fingerprint: fingerprint(lines)})
	}

	// Invert fingerprint lines into a lookup: fp line -> candidate positions
	// (into cands) that contain it.
	invIndex := make(map[string][]int)
	for ci, c := range cands {
		seen := make(map[string]bool)
		for _, line := range c.fingerprint {
			if seen[line] {
				continue
			}
			seen[line] = true
			invIndex[line] = append(invIndex[line], ci)
		}
	}

	// Forward pairs only: (a,b) with a<b sharing >= 3 fingerprint lines.
	shared := make(map[[2]int]int)
	for _, positions := range invIndex {
		for i := 0; i < len(positions); i++ {
			for j := i + 1; j < len(positions); j++ {
				a, b := positions[i], positions[j]
				if a > b {
					a, b = b, a
				}
				shared[[2]int{a, b}]++
			}
		}
	}

	uf := newUnionFind(len(cands))
	sims := make(map[[2]int]float64) // keyed by message-ID-index pair (original indices)

	for pair, count := range shared {
		if count < 3 {
			continue
		}
		a, b := cands[pair[0]], cands[pair[1]]

		lenA, lenB := len(messages[a.idx].Content), len(messages[b.idx].Content)
		minLen, maxLen := lenA, lenB
		if minLen > maxLen {
			minLen, maxLen = maxLen, minLen
		}
		if maxLen == 0 || float64(minLen)/float64(maxLen) < 0.7 {
			continue
		}

		sim := lineJaccard(a.lines, b.lines)
		if sim >= threshold {
			uf.union(pair[0], pair[1])
			sims[[2]int{a.idx, b.idx}] = sim
		}
	}

	// Collect union-find groups, translated back to message indices.
	byRoot := make(map[int][]int)
	for ci, c := range cands {
		root := uf.find(ci)
		byRoot[root] = append(byRoot[root], c.idx)
	}

	var groups [][]int
	for _, g := range byRoot {
		if len(g) >= 2 {
			sort.Ints(g)
			groups = append(groups, g)
		}
	}
	return groups, sims
}

// lineJaccard computes the multiset Jaccard similarity of two normalized
// line lists: |A ∩ B| / |A ∪ B|, counting multiplicities via per-line
// min/max.
func lineJaccard(a, b []string) float64 {
	freqA := make(map[string]int)
	for _, l := range a {
		freqA[l]++
	}
	freqB := make(map[string]int)
	for _, l := range b {
		freqB[l]++
	}

	union := make(map[string]bool)
	for l := range freqA {
		union[l] = true
	}
	for l := range freqB {
		union[l] = true
	}

	var inter, uni int
	for l := range union {
		ca, cb := freqA[l], freqB[l]
		if ca < cb {
			inter += ca
			uni += cb
		} else {
			inter += cb
			uni += ca
		}
	}
	if uni == 0 {
		return 0
	}
	return float64(inter) / float64(uni)
}

// --- Union-find ---

// unionFind is a standard disjoint-set-union with path compression and
// union-by-rank over integer indices.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}

// formatDedupReference renders the emitted reference text for a
// dedup-rewritten message.
func formatDedupReference(v dedupVerdict, origLen int) string {
	if v.Kind == DedupFuzzy {
		pct := int(v.Similarity*100 + 0.5)
		return fmt.Sprintf("[cce:near-dup of %s — %d chars, ~%d%% match]", v.KeepTargetID, origLen, pct)
	}
	return fmt.Sprintf("[cce:dup of %s — %d chars]", v.KeepTargetID, origLen)
}
