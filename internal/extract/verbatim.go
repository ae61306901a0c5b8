package extract

import "strings"

// The verbatim constraint: claim text must appear, modulo whitespace and case
// normalization, as a substring of its source zone text. Anything an LLM
// backend returns that fails this check is synthesized and gets dropped.

// collapseWhitespace folds any run of whitespace into a single space and trims.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeForMatch prepares text for the verbatim substring check.
func normalizeForMatch(s string) string {
	return strings.ToLower(collapseWhitespace(s))
}

// isVerbatim reports whether claim appears inside source after normalization.
func isVerbatim(claim, source string) bool {
	c := normalizeForMatch(claim)
	if c == "" {
		return false
	}
	return strings.Contains(normalizeForMatch(source), c)
}
