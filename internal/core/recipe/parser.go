package recipe

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"miseflow/internal/pkg/common"
)

// Parser 以一組固定詞表解析食材與步驟
//
// Parser 建立後不可變，可在多個 goroutine 間共用。
type Parser struct {
	rules *Rules

	ingredientPattern   *regexp.Regexp
	prepPattern         *regexp.Regexp
	keepSeparatePattern *regexp.Regexp
	separateStepPattern *regexp.Regexp
	preheatPattern      *regexp.Regexp

	stopwords map[string]bool
	prepVerbs map[string]bool
}

var (
	parenPattern      = regexp.MustCompile(`\(([^)]*)\)`)
	stepMarkerPattern = regexp.MustCompile(`^\d+[.)\-\s]*`)
)

// NewParser 依詞表編譯正則；rules 為 nil 時使用 DefaultRules
func NewParser(rules *Rules) *Parser {
	if rules == nil {
		rules = DefaultRules()
	}

	p := &Parser{
		rules:     rules,
		stopwords: toSet(rules.Stopwords),
		prepVerbs: toSet(rules.PrepVerbs),
	}

	p.ingredientPattern = regexp.MustCompile(
		`(?i)^\s*(?:(\d+\s+\d+/\d+|\d+/\d+|\d*\.?\d+)\s+)?(?:(` + alternation(rules.Units) + `)\.?\s+)?(.+)$`,
	)
	p.prepPattern = wordPattern(rules.PrepVerbs)
	p.keepSeparatePattern = wordPattern(rules.KeepSeparate)
	p.separateStepPattern = wordPattern(rules.SeparateInStep)
	p.preheatPattern = wordPattern(rules.PreheatWords)

	return p
}

// Rules 目前使用的詞表
func (p *Parser) Rules() *Rules {
	return p.rules
}

// ParseIngredients 逐行解析，空白行略過
func (p *Parser) ParseIngredients(raw string) []Ingredient {
	return p.ParseIngredientLines(strings.Split(raw, "\n"))
}

// ParseIngredientLines 逐行解析，空白行略過
func (p *Parser) ParseIngredientLines(lines []string) []Ingredient {
	ingredients := make([]Ingredient, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ingredients = append(ingredients, p.ParseIngredientLine(line, len(ingredients)))
	}
	return ingredients
}

// ParseIngredientLine 解析單行食材
//
// 永遠回傳名稱非空的食材；無法切分時整行當作名稱。
func (p *Parser) ParseIngredientLine(line string, index int) Ingredient {
	cleaned := common.CollapseSpaces(line)

	var quantity, unit string
	core := cleaned
	if m := p.ingredientPattern.FindStringSubmatch(cleaned); m != nil {
		quantity = strings.TrimSpace(m[1])
		unit = strings.TrimSpace(m[2])
		if rest := strings.TrimSpace(m[3]); rest != "" {
			core = rest
		}
	}

	name, prep, _ := strings.Cut(core, ",")
	name = strings.TrimSpace(name)
	prep = strings.TrimSpace(prep)

	if parens := parenPattern.FindAllStringSubmatch(name, -1); len(parens) > 0 {
		parts := []string{prep}
		for _, paren := range parens {
			parts = append(parts, strings.TrimSpace(paren[1]))
		}
		prep = joinNonEmpty(parts, "; ")
		name = common.CollapseSpaces(parenPattern.ReplaceAllString(name, " "))
	}

	if prep == "" {
		if m := p.prepPattern.FindStringSubmatch(core); m != nil {
			prep = strings.ToLower(m[1])
		}
	}

	name = p.stripLeadingPrep(name)
	if name == "" {
		name = cleaned
	}

	return Ingredient{
		ID:             fmt.Sprintf("ing-%d-%s", index, common.ShortID()),
		Raw:            cleaned,
		Quantity:       quantity,
		QuantityNumber: quantityPtr(quantity),
		Unit:           unit,
		Name:           name,
		Prep:           prep,
		Category:       p.Categorize(name),
		Keywords:       p.Keywords(name),
	}
}

// stripLeadingPrep 去掉名稱開頭的處理動詞（"finely chopped carrots" -> "carrots"）
func (p *Parser) stripLeadingPrep(name string) string {
	words := strings.Fields(name)
	start := 0
	for start < len(words)-1 {
		word := strings.ToLower(strings.Trim(words[start], ".;:"))
		next := strings.ToLower(strings.Trim(words[start+1], ".;:"))
		switch {
		case p.prepVerbs[word]:
			start++
		case word == "and" && start > 0:
			start++
		case strings.HasSuffix(word, "ly") && p.prepVerbs[next]:
			start++
		default:
			return strings.Join(words[start:], " ")
		}
	}
	return strings.Join(words[start:], " ")
}

// Categorize 依規則順序回傳第一個命中的分類
func (p *Parser) Categorize(name string) Category {
	normalized := common.NormalizeForMatch(name)
	for _, rule := range p.rules.Categories {
		for _, word := range rule.Words {
			if strings.Contains(normalized, word) {
				return rule.Category
			}
		}
	}
	return CategoryOther
}

// Keywords 正規化後長度大於 2 且非停用詞的字，保留原順序
func (p *Parser) Keywords(name string) []string {
	keywords := make([]string, 0, p.rules.MaxKeywords)
	for _, word := range strings.Fields(common.NormalizeForMatch(name)) {
		if len(keywords) >= p.rules.MaxKeywords {
			break
		}
		if len(word) <= 2 || p.stopwords[word] {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}

// ParseSteps 拆行並去除開頭的編號
func ParseSteps(raw string) []string {
	return ParseStepLines(strings.Split(raw, "\n"))
}

// ParseStepLines 去除每行開頭的編號，空白行略過
func ParseStepLines(lines []string) []string {
	steps := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		step := strings.TrimSpace(stepMarkerPattern.ReplaceAllString(trimmed, ""))
		if step == "" {
			continue
		}
		steps = append(steps, step)
	}
	return steps
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, word := range words {
		set[strings.ToLower(word)] = true
	}
	return set
}

// alternation 長字優先，避免 "l" 搶先匹配 "lb"
func alternation(words []string) string {
	sorted := append([]string(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})
	quoted := make([]string, 0, len(sorted))
	for _, word := range sorted {
		if word == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(word))
	}
	return strings.Join(quoted, "|")
}

// wordPattern 不分大小寫的整字匹配；詞表為空時回傳永不匹配的正則
func wordPattern(words []string) *regexp.Regexp {
	alt := alternation(words)
	if alt == "" {
		return regexp.MustCompile(`[^\s\S]`)
	}
	return regexp.MustCompile(`(?i)\b(` + alt + `)\b`)
}

func joinNonEmpty(parts []string, sep string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, sep)
}
