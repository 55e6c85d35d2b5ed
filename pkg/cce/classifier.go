package cce

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/kestrelcode/cce/pkg/logging"
)

var classifierLog *logging.Logger

func init() {
	var err error
	classifierLog, err = logging.NewLogger("classifier")
	if err != nil {
		classifierLog.Warnf("falling back to stderr logging: %v", err)
	}
}

// Tier is the classifier's compressibility tier for a message.
type Tier string

const (
	TierT0 Tier = "T0" // preserve verbatim
	TierT2 Tier = "T2" // short prose, < 20 words
	TierT3 Tier = "T3" // long prose
)

// ReasonKind partitions classifier reasons into hard (force preserve) and
// soft (informational only).
type ReasonKind string

const (
	ReasonHard ReasonKind = "hard"
	ReasonSoft ReasonKind = "soft"
)

// Reason names one rule that fired during classification.
type Reason struct {
	Name string
	Kind ReasonKind
}

// Classification is the classifier's verdict for a single message.
type Classification struct {
	Tier      Tier
	Reasons   []Reason
	Preserve  bool // true iff the message must not be rewritten at all
	CodeSplit bool // true iff the message should go through the code-aware splitter
}

func (c Classification) hasHardReason(name string) bool {
	for _, r := range c.Reasons {
		if r.Kind == ReasonHard && r.Name == name {
			return true
		}
	}
	return false
}

func preserveResult(reason string) Classification {
	return Classification{Tier: TierT0, Preserve: true, Reasons: []Reason{{Name: reason, Kind: ReasonHard}}}
}

// Classify assigns a message its tier and reasons. index is the message's
// position in the full sequence; total is the sequence length, needed to
// evaluate the recency window.
func Classify(m Message, index, total int, opts CompressOptions) Classification {
	// Rule 1: role in caller's preserve list.
	if opts.preservesRole(m.Role) {
		return preserveResult("preserve-role")
	}

	// Rule 2: recency window.
	if total-index <= opts.RecencyWindow {
		return preserveResult("recency-window")
	}

	// Rule 3: non-empty tool_calls.
	if m.HasToolCalls() {
		return preserveResult("tool-calls")
	}

	// Rule 4: short content.
	if len(m.Content) < 120 {
		return preserveResult("short-content")
	}

	// Rule 5: already compressed.
	if isAlreadyCompressedMarker(m.Content) {
		return preserveResult("already-compressed")
	}

	// Rule 6: glob-preserve (domain-stack addition, evaluated alongside the
	// hard structural detectors since it is itself a hard, force-preserve
	// rule keyed off the same file-path soft signal).
	if matchesPreserveGlob(m.Content, opts.PreserveGlobs) {
		return preserveResult("glob-preserve")
	}

	// Rule 6 (continued): hard-T0 structural detectors, evaluated in the
	// spec's listed order. The fenced-code detector has the code-split
	// special case instead of a flat preserve.
	fences := findFences(m.Content)
	if len(fences) > 0 {
		if surroundingProseLen(m.Content, fences) >= 80 {
			return Classification{Tier: TierT0, Preserve: false, CodeSplit: true,
				Reasons: []Reason{{Name: "fenced-code-split", Kind: ReasonHard}}}
		}
		return preserveResult("fenced-code")
	}
	if hasIndentedCode(m.Content) {
		return preserveResult("indented-code")
	}
	if looksJSONShaped(m.Content) {
		return preserveResult("json-shaped")
	}
	if looksYAMLShaped(m.Content) {
		return preserveResult("yaml-shaped")
	}
	if specialCharRatio(m.Content) > 0.15 {
		return preserveResult("special-char-ratio")
	}
	if cv, lines := lineLengthCV(m.Content); cv > 1.2 && lines > 3 {
		return preserveResult("line-length-cv")
	}
	if detectAPIKey(m.Content) {
		return preserveResult("api-key")
	}
	if looksLatexMath(m.Content) {
		return preserveResult("latex-math")
	}
	if hasUnicodeMathSymbols(m.Content) {
		return preserveResult("unicode-math")
	}
	if sqlDensity(m.Content) {
		return preserveResult("sql-content")
	}
	if versePattern(m.Content) {
		return preserveResult("verse-pattern")
	}

	// Rule 7: content parses as JSON outright (catches shapes the cheap
	// heuristic in looksJSONShaped missed, e.g. a bare quoted string or
	// number that is nonetheless valid JSON).
	if parsesAsJSON(m.Content) {
		return preserveResult("json-parse")
	}

	// Rule 8: compressible. Tier by word count, soft reasons recorded for
	// informational purposes (entity extraction captures the same signal
	// later).
	tier := TierT3
	if wordCount(m.Content) < 20 {
		tier = TierT2
	}
	return Classification{Tier: tier, Preserve: false, Reasons: softReasonScan(m.Content)}
}

var compressedPrefixes = []string{"[summary:", "[summary#", "[truncated"}

func isAlreadyCompressedMarker(content string) bool {
	trimmed := strings.TrimLeft(content, " \t\n\r")
	for _, p := range compressedPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

func matchesPreserveGlob(content string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	paths := filePathRe.FindAllString(content, -1)
	if len(paths) == 0 {
		return false
	}
	for _, pat := range patterns {
		g, err := glob.Compile(pat, '/')
		if err != nil {
			classifierLog.Warnf("invalid preserve glob %q: %v", pat, err)
			continue
		}
		for _, p := range paths {
			if g.Match(p) {
				return true
			}
		}
	}
	return false
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
