package cce

import (
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// CodeSplit alternates prose and fenced-code segments of content, summarizing
// the prose and passing every fenced block through byte-identical, per
// spec.md's code-aware splitter. Reassembly format is:
//
//	[summary: <prose summary>]
//
//	<fence 1>
//
//	<fence 2>
//	...
func CodeSplit(content string, cfg ScoringConfig) string {
	fences := findFences(content)
	if len(fences) == 0 {
		return DeterministicSummarize(content, cfg)
	}

	prose := content
	for _, f := range fences {
		prose = strings.Replace(prose, f.FullText, "\n", 1)
	}
	prose = strings.TrimSpace(prose)

	var summary string
	if prose != "" {
		summary = DeterministicSummarize(prose, cfg)
	}

	var b strings.Builder
	b.WriteString("[summary: ")
	b.WriteString(summary)
	b.WriteString("]")
	for _, f := range fences {
		b.WriteString("\n\n")
		b.WriteString(annotateFenceLanguage(f))
	}
	return b.String()
}

// annotateFenceLanguage returns the fence's literal text, sniffing a
// language tag via chroma when the fence omitted its info string. The
// fence body itself is never altered; chroma only informs the info
// string so downstream readers get a language hint even when the
// original author didn't write one.
func annotateFenceLanguage(f fenceMatch) string {
	if f.InfoString != "" {
		return f.FullText
	}
	lang := sniffLanguage(f.Code)
	if lang == "" {
		return f.FullText
	}
	return "```" + lang + "\n" + f.Code + "```"
}

// sniffLanguage uses chroma's lexer analysis to guess a fenced block's
// language from its content alone. Returns "" when chroma can't find a
// confident match, in which case the fence is left without an info
// string rather than guessing wrong.
func sniffLanguage(code string) string {
	lexer := lexers.Analyse(code)
	if lexer == nil {
		return ""
	}
	config := lexer.Config()
	if config == nil || len(config.Aliases) == 0 {
		return ""
	}
	return config.Aliases[0]
}
