package common

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnumPattern = regexp.MustCompile(`[^a-z0-9\s]`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// FoldAccents 去除變音符號（sauté -> saute）
func FoldAccents(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return folded
}

// NormalizeForMatch 轉小寫、去除變音符號、非英數字元改為空白並壓縮空白
func NormalizeForMatch(text string) string {
	normalized := strings.ToLower(FoldAccents(text))
	normalized = nonAlnumPattern.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(normalized, " "))
}

// CollapseSpaces 壓縮連續空白
func CollapseSpaces(text string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}
