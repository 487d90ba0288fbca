package recipe

import (
	"regexp"
	"strings"
	"time"

	"miseflow/internal/pkg/common"
)

const (
	defaultTitle    = "Untitled Recipe"
	defaultServings = 4
	maxSlugLength   = 80
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Normalizer 串起解析、分碗、備料與購物清單
type Normalizer struct {
	parser *Parser
	now    func() time.Time
}

// NewNormalizer 建立 Normalizer；parser 為 nil 時使用預設詞表
func NewNormalizer(parser *Parser) *Normalizer {
	if parser == nil {
		parser = NewParser(nil)
	}
	return &Normalizer{parser: parser, now: time.Now}
}

// Parser 取得底層解析器
func (n *Normalizer) Parser() *Parser {
	return n.parser
}

// Normalize 將原始文字轉為完整食譜
func (n *Normalizer) Normalize(req NormalizeRequest) *Recipe {
	ingredients := n.parser.ParseIngredients(req.IngredientsRaw)
	steps := ParseSteps(req.StepsRaw)

	n.parser.ApplyStepUsage(ingredients, steps)
	plan := n.parser.BuildBowlPlan(ingredients, steps)

	meta := n.buildMeta(req)

	discovery := common.Discovery{Method: common.MethodManualInput, DetectedType: meta.SourceType}
	if req.Discovery != nil {
		discovery = *req.Discovery
		discovery.RecipeLinks = append([]string(nil), req.Discovery.RecipeLinks...)
		discovery.Notes = append([]string(nil), req.Discovery.Notes...)
	}

	recipe := &Recipe{
		Meta:        meta,
		Ingredients: ingredients,
		Steps:       steps,
		Bowls:       plan.Bowls,
		Separate:    plan.Separate,
		Mise:        n.parser.BuildMiseList(ingredients, plan.Bowls, steps),
		Shopping:    BuildShoppingList(ingredients),
		Citation:    BuildCitation(meta, discovery),
		Discovery:   discovery,
	}
	recipe.Markdown = ToMarkdown(recipe)
	return recipe
}

// FromExtraction 把擷取結果當作手動輸入送進正規化流程
func (n *Normalizer) FromExtraction(result *common.ExtractionResult, sourceURL string, servings float64) *Recipe {
	discovery := result.Discovery
	return n.Normalize(NormalizeRequest{
		Title:          result.Title,
		Author:         result.Author,
		SourceType:     result.DetectedType,
		SourceURL:      sourceURL,
		ImageURL:       result.ImageURL,
		CreditNotes:    result.CreditNotes,
		Servings:       servings,
		IngredientsRaw: strings.Join(result.Ingredients, "\n"),
		StepsRaw:       strings.Join(result.Steps, "\n"),
		Discovery:      &discovery,
	})
}

func (n *Normalizer) buildMeta(req NormalizeRequest) Meta {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultTitle
	}

	sourceType := req.SourceType
	if sourceType == "" {
		sourceType = common.SourceManual
	}

	servings := req.Servings
	if servings <= 0 {
		servings = defaultServings
	}

	now := n.now().UTC()
	return Meta{
		ID:           common.GenerateUUID(),
		Title:        title,
		Author:       strings.TrimSpace(req.Author),
		SourceType:   sourceType,
		SourceURL:    strings.TrimSpace(req.SourceURL),
		Servings:     servings,
		CreditNotes:  strings.TrimSpace(req.CreditNotes),
		ImageURL:     strings.TrimSpace(req.ImageURL),
		Slug:         Slugify(title, now),
		NormalizedAt: now,
	}
}

// Slugify 轉為網址用的 slug；結果為空時以時間戳命名
func Slugify(value string, now time.Time) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(common.FoldAccents(strings.TrimSpace(value))), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		return "recipe-" + now.Format("20060102150405")
	}
	return slug
}

// BuildCitation 組合來源標示與參考連結
func BuildCitation(meta Meta, discovery common.Discovery) Citation {
	creditLine := meta.CreditNotes
	if creditLine == "" {
		if meta.Author != "" {
			creditLine = "Adapted from " + meta.Author + ". Keep attribution when republishing."
		} else {
			creditLine = "Original source credit should be preserved when republishing."
		}
	}

	method := discovery.Method
	if method == "" {
		method = common.MethodManualInput
	}

	references := common.DedupeStrings(append([]string{meta.SourceURL}, discovery.RecipeLinks...))

	return Citation{
		SourceType:       meta.SourceType.Label(),
		SourceURL:        meta.SourceURL,
		Author:           meta.Author,
		CapturedOn:       meta.NormalizedAt.Format("January 2, 2006"),
		CreditLine:       creditLine,
		ExtractionMethod: method,
		References:       references,
	}
}
