package cce

import "encoding/json"

// parsesAsJSON reports whether content is valid JSON outright. This is a
// stdlib-only check by necessity: it is the full-parse fallback behind the
// cheap structural heuristic in looksJSONShaped, and a real parse is the
// only way to settle it — no third-party library in the example pack offers
// anything encoding/json doesn't already provide for a plain validity
// check.
func parsesAsJSON(content string) bool {
	trimmed := []byte(content)
	var v any
	return json.Unmarshal(trimmed, &v) == nil
}
