package cce

import "github.com/kestrelcode/cce/pkg/logging"

var decompressLog *logging.Logger

func init() {
	var err error
	decompressLog, err = logging.NewLogger("decompress")
	if err != nil {
		decompressLog.Warnf("falling back to stderr logging: %v", err)
	}
}

// Uncompress reverses a Compress call: every rewritten message (one
// carrying _cce_original metadata) is replaced by its archived originals
// looked up from store, in IDs order; every other message passes through
// unchanged. If opts.Recursive is set, the expansion repeats (up to 10
// rounds) so a message compressed across multiple rounds fully unwinds.
func Uncompress(messages []Message, store VerbatimStore, opts UncompressOptions) UncompressResult {
	current := messages
	result := UncompressResult{}

	const maxRounds = 10
	for round := 0; round < maxRounds; round++ {
		expanded, roundStats := uncompressOnce(current, store)
		result.MessagesExpanded += roundStats.expanded
		result.MessagesPassthrough += roundStats.passthrough
		result.MissingIDs = append(result.MissingIDs, roundStats.missing...)

		current = expanded
		if !opts.Recursive || !roundStats.anyExpanded {
			break
		}
	}

	result.Messages = current
	decompressLog.Debugf("uncompress: %d expanded, %d passthrough, %d missing ids",
		result.MessagesExpanded, result.MessagesPassthrough, len(result.MissingIDs))
	return result
}

type uncompressRoundStats struct {
	expanded    int
	passthrough int
	missing     []string
	anyExpanded bool
}

func uncompressOnce(messages []Message, store VerbatimStore) ([]Message, uncompressRoundStats) {
	var out []Message
	var stats uncompressRoundStats

	for _, m := range messages {
		orig := m.Original()
		if orig == nil {
			out = append(out, m)
			stats.passthrough++
			continue
		}

		restored := make([]Message, 0, len(orig.IDs))
		var missing []string
		for _, id := range orig.IDs {
			r, ok := store.Lookup(id)
			if !ok {
				missing = append(missing, id)
				continue
			}
			restored = append(restored, r)
		}

		if len(missing) > 0 {
			// Can't fully resolve this rewrite: report the missing ids
			// and leave the message in its compressed form rather than
			// emitting a partial, wrong expansion.
			stats.missing = append(stats.missing, missing...)
			out = append(out, m)
			continue
		}

		stats.anyExpanded = true
		stats.expanded += len(restored)
		out = append(out, restored...)
	}

	return out, stats
}
