package source

import (
	"net/url"
	"regexp"
	"strings"

	"miseflow/internal/pkg/common"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxTranscriptSteps       = 18
	maxTranscriptIngredients = 30
	maxIngredientHints       = 20
	quantityNotSpecified     = "(quantity not specified)"
)

var (
	shortDescriptionPattern = regexp.MustCompile(`"shortDescription":"((?:\\.|[^"\\])*)"`)
	urlPattern              = regexp.MustCompile(`(?i)https?://[^\s<>"')\]]+`)
	trailingPunctPattern    = regexp.MustCompile(`[.,!?]$`)
	recipeLinkPattern       = regexp.MustCompile(`recipe|recipes|cooking|kitchen|food|meal|dish|allrecipes|foodnetwork|seriouseats|epicurious|bonappetit`)

	ingredientHeaderPattern  = regexp.MustCompile(`(?i)\bingredients?\b`)
	ingredientStopPattern    = regexp.MustCompile(`(?i)^\s*(instructions?|method|directions?)\b`)
	instructionHeaderPattern = regexp.MustCompile(`(?i)\b(instructions?|directions?|method)\b`)
	instructionStopPattern   = regexp.MustCompile(`(?i)^\s*(notes?|nutrition|serving)\b`)
	dashBulletPattern        = regexp.MustCompile(`^[-*]\s*`)
	quantityLinePattern      = regexp.MustCompile(`^(\d+(\s+\d+/\d+)?|\d+/\d+|\d+\.\d+)\s+([a-zA-Z]+)\b`)
	numberedLinePattern      = regexp.MustCompile(`^\d+(?:\.\s|[)\-])`)

	sentenceEndPattern    = regexp.MustCompile(`[.!?]\s+`)
	cookingVerbPattern    = regexp.MustCompile(`(?i)\b(add|mix|stir|cook|bake|heat|whisk|simmer|season|serve|chop|slice|boil|pour|combine|saute)\b`)
	spokenQuantityPattern = regexp.MustCompile(`(?i)(\d+(\s+\d+/\d+)?|\d+/\d+|\d+\.\d+)\s+(cups?|cup|tbsp|tablespoons?|tsp|teaspoons?|lb|lbs|oz|ounces?|grams?|g|ml|cloves?)\s+([a-zA-Z][a-zA-Z\s-]{2,40})`)

	ingredientHints = []string{
		"salt", "pepper", "garlic", "onion", "olive oil", "butter",
		"chicken", "beef", "pasta", "rice", "tomato", "lemon",
	}
)

// ParseVideoDescription 比較 player response 的 shortDescription 與 meta description，取較長者
func ParseVideoDescription(html string) string {
	if html == "" {
		return ""
	}

	var short string
	if m := shortDescriptionPattern.FindStringSubmatch(html); m != nil {
		if err := common.ParseJSON(`"`+m[1]+`"`, &short); err != nil {
			short = strings.NewReplacer(`\n`, "\n", `\u0026`, "&", `\"`, `"`).Replace(m[1])
		}
	}

	var meta string
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		meta = readMeta(doc, "name", "description")
	}

	if len(meta) > len(short) {
		return meta
	}
	return short
}

// parsePageTitle og:title 或 <title>
func parsePageTitle(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return DecodeHTML(firstNonEmpty(readMeta(doc, "property", "og:title"), doc.Find("title").First().Text()))
}

// ExtractURLs 找出文字中的網址並去除結尾標點
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	urls := make([]string, 0, len(matches))
	for _, match := range matches {
		urls = append(urls, trailingPunctPattern.ReplaceAllString(match, ""))
	}
	return urls
}

// IsLikelyRecipeLink 以主機與路徑關鍵字判斷，排除影片平台本身
func IsLikelyRecipeLink(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if isVideoHost(host) {
		return false
	}
	return recipeLinkPattern.MatchString(strings.ToLower(host + parsed.Path))
}

// RecipeCandidates 描述中的食譜連結候選，最多 limit 個
func RecipeCandidates(description string, limit int) []string {
	candidates := make([]string, 0, limit)
	for _, link := range common.DedupeStrings(ExtractURLs(description)) {
		if len(candidates) >= limit {
			break
		}
		if IsLikelyRecipeLink(link) {
			candidates = append(candidates, link)
		}
	}
	return candidates
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range splitLines(text) {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// IngredientLikeLines 描述中「Ingredients」段落；沒有段落時取以數量開頭的行
func IngredientLikeLines(text string) []string {
	lines := nonEmptyLines(text)

	if start := indexOfMatch(lines, ingredientHeaderPattern); start >= 0 {
		var section []string
		for _, line := range lines[start+1:] {
			if ingredientStopPattern.MatchString(line) {
				break
			}
			if len(line) < 3 {
				continue
			}
			section = append(section, dashBulletPattern.ReplaceAllString(line, ""))
		}
		if len(section) > 0 {
			return section
		}
	}

	var matched []string
	for _, line := range lines {
		if stripped := dashBulletPattern.ReplaceAllString(line, ""); quantityLinePattern.MatchString(stripped) {
			matched = append(matched, stripped)
		}
	}
	return matched
}

// InstructionLikeLines 描述中「Instructions」段落；沒有段落時取帶 1. 1) 1- 編號的行
func InstructionLikeLines(text string) []string {
	lines := nonEmptyLines(text)

	if start := indexOfMatch(lines, instructionHeaderPattern); start >= 0 {
		var section []string
		for _, line := range lines[start+1:] {
			if instructionStopPattern.MatchString(line) {
				break
			}
			if len(line) < 8 {
				continue
			}
			section = append(section, stepNumberPrefix.ReplaceAllString(line, ""))
		}
		if len(section) > 0 {
			return section
		}
	}

	var numbered []string
	for _, line := range lines {
		if numberedLinePattern.MatchString(line) {
			numbered = append(numbered, stepNumberPrefix.ReplaceAllString(line, ""))
		}
	}
	return numbered
}

func indexOfMatch(lines []string, pattern *regexp.Regexp) int {
	for i, line := range lines {
		if pattern.MatchString(line) {
			return i
		}
	}
	return -1
}

// splitSentences 在 . ! ? 後的空白處斷句，標點保留在句尾
func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceEndPattern.FindAllStringIndex(text, -1) {
		if sentence := strings.TrimSpace(text[last : loc[0]+1]); sentence != "" {
			sentences = append(sentences, sentence)
		}
		last = loc[1]
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// TranscriptSteps 含烹飪動詞的句子
func TranscriptSteps(items []TranscriptItem) []string {
	var candidates []string
	for _, sentence := range splitSentences(transcriptText(items)) {
		if cookingVerbPattern.MatchString(common.FoldAccents(sentence)) {
			candidates = append(candidates, sentence)
		}
	}
	steps := common.DedupeStrings(candidates)
	if len(steps) > maxTranscriptSteps {
		steps = steps[:maxTranscriptSteps]
	}
	return steps
}

// TranscriptIngredients 口述的「數量 單位 食材」；找不到時退回常見食材提示
func TranscriptIngredients(items []TranscriptItem) []string {
	text := transcriptText(items)

	if matches := spokenQuantityPattern.FindAllString(text, -1); len(matches) > 0 {
		ingredients := common.DedupeStrings(matches)
		if len(ingredients) > maxTranscriptIngredients {
			ingredients = ingredients[:maxTranscriptIngredients]
		}
		return ingredients
	}

	lower := strings.ToLower(text)
	var hints []string
	for _, hint := range ingredientHints {
		if len(hints) >= maxIngredientHints {
			break
		}
		if strings.Contains(lower, hint) {
			hints = append(hints, hint+" "+quantityNotSpecified)
		}
	}
	return hints
}
