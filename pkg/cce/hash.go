package cce

import (
	"sort"
	"strconv"
)

// djb2 computes Dan Bernstein's string hash over b: h starts at 5381, and
// each byte updates h = h*33 + byte using unsigned 32-bit arithmetic. This
// exact arithmetic must be reproduced bit-for-bit across implementations for
// summary_ids to match across runtimes — hence the explicit uint32 type
// rather than anything wider.
func djb2(b []byte) uint32 {
	var h uint32 = 5381
	for _, c := range b {
		h = h*33 + uint32(c)
	}
	return h
}

// lengthPrefixed returns a representation of s prefixed with its byte
// length, matching the dedup spec's "djb2 hash of the length-prefixed
// content" rule. The prefix guards against hash collisions between strings
// that differ only in how a boundary byte is interpreted.
func lengthPrefixed(s string) []byte {
	out := make([]byte, 0, len(s)+11)
	out = append(out, strconv.Itoa(len(s))...)
	out = append(out, ':')
	out = append(out, s...)
	return out
}

// base36 renders n in lowercase base36, matching spec.md's "lowercase
// base36" requirement for summary_id. strconv.FormatUint already emits
// lowercase digits for bases above 10.
func base36(n uint32) string {
	return strconv.FormatUint(uint64(n), 36)
}

// summaryIDKey builds the djb2 input for a group of message IDs: the single
// ID itself when there is exactly one, else the IDs sorted and joined with
// NUL. Sorting (not original order) is what makes the result a pure
// function of the *set* of IDs, per the summary-ID-purity invariant.
func summaryIDKey(ids []string) string {
	if len(ids) == 1 {
		return ids[0]
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	out := make([]byte, 0, len(sorted)*8)
	for i, id := range sorted {
		if i > 0 {
			out = append(out, 0)
		}
		out = append(out, id...)
	}
	return string(out)
}

// SummaryID computes "cce_sum_<base36(djb2(key))>" for the given set of
// source message IDs. It is non-cryptographic by design: collisions are
// acceptable because the ID is advisory provenance, not a lookup key.
func SummaryID(ids []string) string {
	key := summaryIDKey(ids)
	return "cce_sum_" + base36(djb2([]byte(key)))
}
