package source

import (
	"context"
	"fmt"
	"strings"

	"miseflow/internal/pkg/common"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// 清單策略名稱
const (
	strategyMarkup    = "recipe-schema"
	strategyHeading   = "heading-section"
	strategyMicrodata = "microdata"
)

// ParsedPage 單一網頁的解析結果
type ParsedPage struct {
	Title       string
	Author      string
	ImageURL    string
	Ingredients []string
	Steps       []string
	UsedMarkup  bool
	Notes       []string
}

// ParsePage 先讀 JSON-LD，缺少的欄位再以 meta、標題與 microdata 補齊
func ParsePage(html, baseURL string, maxLines int) (*ParsedPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}

	markup := ExtractMarkup(doc)
	page := &ParsedPage{}

	page.Title = DecodeHTML(firstText("title", []textStrategy{
		{strategyMarkup, func() string { return markup.Title }},
		{"og:title", func() string { return readMeta(doc, "property", "og:title") }},
		{"twitter:title", func() string { return readMeta(doc, "name", "twitter:title") }},
		{"h1", func() string { return doc.Find("h1").First().Text() }},
		{"document-title", func() string { return doc.Find("title").First().Text() }},
	}))

	page.Author = DecodeHTML(firstText("author", []textStrategy{
		{strategyMarkup, func() string { return markup.Author }},
		{"meta-author", func() string { return readMeta(doc, "name", "author") }},
		{strategyMicrodata, func() string { return doc.Find("[itemprop='author']").First().Text() }},
	}))

	image := firstText("image", []textStrategy{
		{strategyMarkup, func() string { return markup.ImageURL }},
		{"og:image", func() string { return readMeta(doc, "property", "og:image") }},
		{"twitter:image", func() string { return readMeta(doc, "name", "twitter:image") }},
		{"first-img", func() string { return firstImageSrc(doc) }},
	})
	page.ImageURL = absolutizeURL(image, baseURL)

	cleanIngredients := func(lines []string) []string { return CleanLines(lines, maxLines) }
	cleanSteps := func(lines []string) []string { return CleanLines(stripStepNumbers(lines), maxLines) }

	ingredients, ingredientSource, ingredientTrail := firstLines("Ingredient", []lineStrategy{
		{strategyMarkup, func() []string { return markup.Ingredients }},
		{strategyHeading, func() []string { return extractSectionByHeading(doc, ingredientHeadings, maxLines) }},
		{strategyMicrodata, func() []string { return microdataLines(doc, "recipeIngredient") }},
	}, cleanIngredients)

	steps, stepSource, stepTrail := firstLines("Instruction", []lineStrategy{
		{strategyMarkup, func() []string { return markup.Steps }},
		{strategyHeading, func() []string { return extractSectionByHeading(doc, stepHeadings, maxLines) }},
		{strategyMicrodata, func() []string { return microdataLines(doc, "recipeInstructions") }},
	}, cleanSteps)

	page.Ingredients = ingredients
	page.Steps = steps
	page.UsedMarkup = ingredientSource == strategyMarkup || stepSource == strategyMarkup

	if len(page.Ingredients) == 0 {
		page.Notes = append(page.Notes, "No clear ingredient section detected.")
	}
	if len(page.Steps) == 0 {
		page.Notes = append(page.Notes, "No clear instruction section detected.")
	}
	if page.UsedMarkup {
		page.Notes = append(page.Notes, "Recipe schema (JSON-LD) was used.")
	} else {
		page.Notes = append(page.Notes, "Used heading and list heuristics.")
	}
	page.Notes = append(page.Notes, ingredientTrail, stepTrail)

	return page, nil
}

func firstImageSrc(doc *goquery.Document) string {
	src, _ := doc.Find("img").First().Attr("src")
	return src
}

// WebExtractor 一般網頁食譜擷取
type WebExtractor struct {
	fetcher  Fetcher
	maxLines int
}

// NewWebExtractor 創建網頁擷取器
func NewWebExtractor(fetcher Fetcher, maxLines int) *WebExtractor {
	return &WebExtractor{fetcher: fetcher, maxLines: maxLines}
}

// Extract 抓取頁面並解析；抓取失敗為硬錯誤
func (e *WebExtractor) Extract(ctx context.Context, url string) (*common.ExtractionResult, error) {
	html, err := e.fetcher.FetchText(ctx, url)
	if err != nil {
		return nil, err
	}

	page, err := ParsePage(html, url, e.maxLines)
	if err != nil {
		return nil, common.Wrap(common.ErrFetchFailed, "page could not be parsed", err)
	}

	method := common.MethodHTMLHeuristics
	if page.UsedMarkup {
		method = common.MethodJSONLD
	}

	creditNotes := fmt.Sprintf("Adapted from %s. Keep attribution to the original creator.", hostname(url))
	if page.Author != "" {
		creditNotes = fmt.Sprintf("Adapted from %s. Keep attribution when republishing.", page.Author)
	}

	common.LogInfo("網頁擷取完成",
		zap.String("url", url),
		zap.String("method", method),
		zap.Int("ingredients", len(page.Ingredients)),
		zap.Int("steps", len(page.Steps)),
	)

	return &common.ExtractionResult{
		DetectedType: common.SourceWeb,
		Title:        page.Title,
		Author:       page.Author,
		ImageURL:     page.ImageURL,
		Ingredients:  page.Ingredients,
		Steps:        page.Steps,
		CreditNotes:  creditNotes,
		Discovery: common.Discovery{
			Method:       method,
			DetectedType: common.SourceWeb,
			RecipeLinks:  []string{url},
			Notes:        page.Notes,
		},
	}, nil
}
