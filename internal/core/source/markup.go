package source

import (
	"encoding/json"
	"sort"
	"strings"

	"miseflow/internal/pkg/common"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// MarkupRecipe 從內嵌 JSON-LD 讀出的食譜欄位
type MarkupRecipe struct {
	Found       bool
	Title       string
	Author      string
	ImageURL    string
	Ingredients []string
	Steps       []string
}

// HasContent 是否帶有食材或步驟
func (m MarkupRecipe) HasContent() bool {
	return len(m.Ingredients) > 0 || len(m.Steps) > 0
}

// ExtractMarkup 走訪所有 JSON-LD 區塊，取第一個 @type 含 recipe 的節點
//
// 無法解析的區塊直接略過。
func ExtractMarkup(doc *goquery.Document) MarkupRecipe {
	var nodes []map[string]interface{}

	doc.Find("script[type='application/ld+json']").Each(func(i int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		var parsed interface{}
		if err := common.ParseLenientJSON(raw, &parsed); err != nil {
			common.LogDebug("略過無法解析的 JSON-LD", zap.Int("index", i), zap.Error(err))
			return
		}
		collectRecipeNodes(parsed, &nodes)
	})

	if len(nodes) == 0 {
		return MarkupRecipe{}
	}

	node := nodes[0]
	return MarkupRecipe{
		Found:       true,
		Title:       readText(node["name"]),
		Author:      readAuthor(node["author"]),
		ImageURL:    readImage(node["image"]),
		Ingredients: readIngredients(node["recipeIngredient"]),
		Steps:       readInstructions(node["recipeInstructions"]),
	}
}

// collectRecipeNodes 深度優先：節點本身、@graph、其餘鍵依字母順序
func collectRecipeNodes(node interface{}, out *[]map[string]interface{}) {
	switch v := node.(type) {
	case []interface{}:
		for _, item := range v {
			collectRecipeNodes(item, out)
		}
	case map[string]interface{}:
		if isRecipeType(v["@type"]) {
			*out = append(*out, v)
		}
		if graph, ok := v["@graph"]; ok {
			collectRecipeNodes(graph, out)
		}

		keys := make([]string, 0, len(v))
		for key := range v {
			if key != "@graph" {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		for _, key := range keys {
			switch v[key].(type) {
			case map[string]interface{}, []interface{}:
				collectRecipeNodes(v[key], out)
			}
		}
	}
}

func isRecipeType(value interface{}) bool {
	switch v := value.(type) {
	case string:
		return strings.Contains(strings.ToLower(v), "recipe")
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.Contains(strings.ToLower(s), "recipe") {
				return true
			}
		}
	}
	return false
}

func readText(value interface{}) string {
	switch v := value.(type) {
	case string:
		return DecodeHTML(v)
	case json.Number:
		return v.String()
	case map[string]interface{}:
		if text, ok := v["text"].(string); ok {
			return DecodeHTML(text)
		}
	}
	return ""
}

func readAuthor(value interface{}) string {
	switch v := value.(type) {
	case string:
		return DecodeHTML(v)
	case []interface{}:
		for _, item := range v {
			if author := readAuthor(item); author != "" {
				return author
			}
		}
	case map[string]interface{}:
		if name, ok := v["name"].(string); ok {
			return DecodeHTML(name)
		}
	}
	return ""
}

func readImage(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []interface{}:
		if len(v) > 0 {
			return readImage(v[0])
		}
	case map[string]interface{}:
		if u, ok := v["url"].(string); ok {
			return strings.TrimSpace(u)
		}
	}
	return ""
}

func readIngredients(value interface{}) []string {
	switch v := value.(type) {
	case string:
		return splitLines(v)
	case []interface{}:
		lines := make([]string, 0, len(v))
		for _, item := range v {
			lines = append(lines, readText(item))
		}
		return lines
	}
	return nil
}

// readInstructions 攤平字串、HowToStep、HowToSection 為單一步驟清單
func readInstructions(value interface{}) []string {
	switch v := value.(type) {
	case string:
		return splitLines(v)
	case []interface{}:
		var lines []string
		for _, item := range v {
			lines = append(lines, readInstructionItem(item)...)
		}
		return lines
	case map[string]interface{}:
		return readInstructionItem(v)
	}
	return nil
}

func readInstructionItem(item interface{}) []string {
	switch v := item.(type) {
	case string:
		return []string{v}
	case map[string]interface{}:
		var lines []string
		if text := readText(v["text"]); text != "" {
			lines = append(lines, text)
		}
		if nested, ok := v["itemListElement"].([]interface{}); ok {
			for _, element := range nested {
				lines = append(lines, readInstructionItem(element)...)
			}
		}
		return lines
	}
	return nil
}
