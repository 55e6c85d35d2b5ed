package cce

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// This file implements the hard-T0 structural detectors and soft-reason
// scanners from spec.md §4.1. Each detector is intentionally narrow and
// composable so the classifier can report *which* rule fired (useful for
// debugging and for the glob-preserve override in classifier.go).

var (
	fencedCodeRe     = regexp.MustCompile("(?s)```([^\n]*)\n(.*?)```")
	indentedLineRe   = regexp.MustCompile(`(?m)^(?:[ ]{4,}|\t).+$`)
	yamlKVLineRe     = regexp.MustCompile(`(?m)^\s*[A-Za-z0-9_.-]+:\s+\S.*$`)
	latexBlockRe     = regexp.MustCompile(`(?s)\$\$.+?\$\$`)
	latexInlineRe    = regexp.MustCompile(`\$[0-9+\-*/^_{}().\s=]+\$`)
	unicodeMathChars = "∑∫∂√∞≈≠≤≥±×÷∏∇∈∉⊂⊆∀∃→⇒⇔∧∨¬"

	urlRe        = regexp.MustCompile(`\bhttps?://[^\s]+`)
	emailRe      = regexp.MustCompile(`\b[\w.+-]+@[\w-]+\.[\w.-]+\b`)
	phoneRe      = regexp.MustCompile(`\b(?:\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	semverRe     = regexp.MustCompile(`\bv?\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?\b`)
	hexHashRe    = regexp.MustCompile(`\b[0-9a-fA-F]{7,64}\b`)
	filePathRe   = regexp.MustCompile(`\b(?:[\w.-]+/)+[\w.-]+\.[A-Za-z0-9]{1,8}\b|\b[\w.-]+\.[A-Za-z0-9]{1,8}:\d+\b`)
	dottedNumRe  = regexp.MustCompile(`\b\d+(?:\.\d+){2,}\b`)
	quotedKeyRe  = regexp.MustCompile(`"[A-Za-z_][A-Za-z0-9_]*"\s*:`)
	numberUnitRe = regexp.MustCompile(`\b\d+(?:\.\d+)?\s*(?:ms|s|sec|secs|min|mins|h|hr|hrs|KB|MB|GB|TB|%)\b`)
	grepRefRe    = regexp.MustCompile(`\b[\w./-]+\.[A-Za-z0-9]+:\d+:?\b`)

	legalTerms = []string{"pursuant to", "hereinafter", "indemnif", "liability", "governing law", "force majeure", "warranty"}

	apiKeyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bsk-[A-Za-z0-9]{20,}\b`),
		regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
		regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{20,}\b`),
		regexp.MustCompile(`\bgithub_pat_[A-Za-z0-9_]{20,}\b`),
		regexp.MustCompile(`\b(?:sk|rk)_(?:live|test)_[A-Za-z0-9]{10,}\b`),
		regexp.MustCompile(`\bxox[bp]-[A-Za-z0-9-]{10,}\b`),
		regexp.MustCompile(`\bSG\.[A-Za-z0-9_-]{16,}\.[A-Za-z0-9_-]{10,}\b`),
		regexp.MustCompile(`\bglpat-[A-Za-z0-9_-]{20,}\b`),
		regexp.MustCompile(`\bnpm_[A-Za-z0-9]{20,}\b`),
		regexp.MustCompile(`\bAIza[A-Za-z0-9_-]{30,}\b`),
	}

	genericTokenRe = regexp.MustCompile(`\b[A-Za-z0-9]+[_-][A-Za-z0-9_-]{15,}\b`)

	sqlStrongAnchors = []string{"GROUP BY", "PRIMARY KEY", "FOREIGN KEY", "NOT NULL", "VARCHAR", "INNER JOIN", "LEFT JOIN", "RIGHT JOIN"}
	sqlWeakAnchors   = []string{"WHERE", "JOIN", "HAVING", "UNION", "DISTINCT", "ORDER BY", "SELECT", "INSERT", "UPDATE", "DELETE"}

	statusWordRe = regexp.MustCompile(`\b(?:PASS|FAIL|ERROR|WARNING|WARN)\b`)

	capitalizedLineRe = regexp.MustCompile(`^[A-Z][^.!?]*$`)
)

// fenceMatch describes one fenced code block found in a message.
type fenceMatch struct {
	InfoString string
	Code       string
	FullText   string // the literal "```lang\ncode```" substring, byte-identical to source
}

// findFences returns every non-nested triple-backtick fence in content, in
// order of appearance.
func findFences(content string) []fenceMatch {
	matches := fencedCodeRe.FindAllStringSubmatch(content, -1)
	out := make([]fenceMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, fenceMatch{InfoString: strings.TrimSpace(m[1]), Code: m[2], FullText: m[0]})
	}
	return out
}

// surroundingProseLen returns the length of content with every fenced block
// (including its backticks) removed.
func surroundingProseLen(content string, fences []fenceMatch) int {
	stripped := content
	for _, f := range fences {
		stripped = strings.Replace(stripped, f.FullText, "", 1)
	}
	return len(strings.TrimSpace(stripped))
}

func hasIndentedCode(content string) bool {
	lines := indentedLineRe.FindAllString(content, -1)
	return len(lines) >= 2
}

// looksJSONShaped applies the cheap structural heuristic (leading brace,
// balanced delimiters or quoted keys) used by the hard detector. A full
// parse is tried separately in classifier.go step 7.
func looksJSONShaped(content string) bool {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return false
	}
	first := trimmed[0]
	if first != '{' && first != '[' {
		return false
	}
	if !bracesBalanced(trimmed) {
		return false
	}
	return quotedKeyRe.MatchString(trimmed) || strings.ContainsAny(trimmed, "{}[]")
}

func bracesBalanced(s string) bool {
	depth := 0
	inStr := false
	escaped := false
	for _, r := range s {
		if inStr {
			if escaped {
				escaped = false
			} else if r == '\\' {
				escaped = true
			} else if r == '"' {
				inStr = false
			}
			continue
		}
		switch r {
		case '"':
			inStr = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0 && !inStr
}

func looksYAMLShaped(content string) bool {
	lines := strings.Split(content, "\n")
	run := 0
	for _, line := range lines {
		if yamlKVLineRe.MatchString(line) {
			run++
			if run >= 2 {
				return true
			}
		} else if strings.TrimSpace(line) == "" {
			continue
		} else {
			run = 0
		}
	}
	return false
}

const specialCharSet = "{}[]<>|\\;:@#$%^&*()=+`~"

func specialCharRatio(content string) float64 {
	nonSpace := 0
	special := 0
	for _, r := range content {
		if unicode.IsSpace(r) {
			continue
		}
		nonSpace++
		if strings.ContainsRune(specialCharSet, r) {
			special++
		}
	}
	if nonSpace == 0 {
		return 0
	}
	return float64(special) / float64(nonSpace)
}

// lineLengthCV returns the coefficient of variation (stddev/mean) of
// non-empty line lengths, and the count of non-empty lines considered.
func lineLengthCV(content string) (float64, int) {
	var lens []float64
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lens = append(lens, float64(len(line)))
	}
	if len(lens) == 0 {
		return 0, 0
	}
	var sum float64
	for _, l := range lens {
		sum += l
	}
	mean := sum / float64(len(lens))
	if mean == 0 {
		return 0, len(lens)
	}
	var sq float64
	for _, l := range lens {
		sq += (l - mean) * (l - mean)
	}
	stddev := math.Sqrt(sq / float64(len(lens)))
	return stddev / mean, len(lens)
}

// shannonEntropy returns the Shannon entropy in bits/char of s.
func shannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}
	var entropy float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// detectAPIKey reports whether content contains a known provider key
// prefix, or a generic high-entropy hyphen/underscore-separated token that
// is not a CSS/BEM-style hyphenated word.
func detectAPIKey(content string) bool {
	for _, re := range apiKeyPatterns {
		if re.MatchString(content) {
			return true
		}
	}
	for _, tok := range genericTokenRe.FindAllString(content, -1) {
		if isHighEntropySecret(tok) {
			return true
		}
	}
	return false
}

// isHighEntropySecret implements the generic high-entropy token detector:
// a "_" or "-" separated token, body length >= 16 chars, Shannon entropy >=
// 3.5 bits/char, that is rejected if it looks like a CSS/BEM class name
// (all-lowercase words joined by single hyphens, no digits — e.g.
// "button-primary-outline").
func isHighEntropySecret(tok string) bool {
	if !strings.ContainsAny(tok, "_-") {
		return false
	}
	if len(tok) < 16 {
		return false
	}
	if looksLikeBEM(tok) {
		return false
	}
	return shannonEntropy(tok) >= 3.5
}

// looksLikeBEM reports whether tok is plausibly a CSS/BEM-style hyphenated
// identifier: hyphen-separated lowercase alphabetic words with no digits.
func looksLikeBEM(tok string) bool {
	if strings.ContainsAny(tok, "0123456789") {
		return false
	}
	parts := strings.FieldsFunc(tok, func(r rune) bool { return r == '-' || r == '_' })
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsLower(r) {
				return false
			}
		}
	}
	return true
}

func looksLatexMath(content string) bool {
	if latexBlockRe.MatchString(content) {
		return true
	}
	return latexInlineRe.MatchString(content)
}

func hasUnicodeMathSymbols(content string) bool {
	for _, r := range content {
		if strings.ContainsRune(unicodeMathChars, r) {
			return true
		}
	}
	return false
}

// sqlDensity reports whether content's keyword density indicates SQL: one
// strong anchor phrase, or >= 3 distinct weak anchors.
func sqlDensity(content string) bool {
	upper := strings.ToUpper(content)
	for _, a := range sqlStrongAnchors {
		if strings.Contains(upper, a) {
			return true
		}
	}
	seen := make(map[string]bool)
	for _, a := range sqlWeakAnchors {
		if strings.Contains(upper, a) {
			seen[a] = true
		}
	}
	return len(seen) >= 3
}

// versePattern reports >= 3 consecutive capitalized lines lacking terminal
// punctuation.
func versePattern(content string) bool {
	lines := strings.Split(content, "\n")
	run := 0
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			run = 0
			continue
		}
		if capitalizedLineRe.MatchString(line) {
			run++
			if run >= 3 {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

// softReasonScan records which informational soft reasons fire for
// content. These never prevent compression; entity extraction later
// captures the same signal.
func softReasonScan(content string) []Reason {
	var reasons []Reason
	add := func(name string) { reasons = append(reasons, Reason{Name: name, Kind: ReasonSoft}) }

	if urlRe.MatchString(content) {
		add("url")
	}
	if emailRe.MatchString(content) {
		add("email")
	}
	if phoneRe.MatchString(content) {
		add("phone")
	}
	if semverRe.MatchString(content) {
		add("semver")
	}
	if hexHashRe.MatchString(content) {
		add("hex-hash")
	}
	if filePathRe.MatchString(content) {
		add("file-path")
	}
	if dottedNumRe.MatchString(content) {
		add("dotted-number")
	}
	if quotedKeyRe.MatchString(content) {
		add("quoted-key")
	}
	lower := strings.ToLower(content)
	for _, term := range legalTerms {
		if strings.Contains(lower, term) {
			add("legal-term")
			break
		}
	}
	if numberUnitRe.MatchString(content) {
		add("numeric-with-units")
	}
	return reasons
}
