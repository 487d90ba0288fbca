package source

import (
	"fmt"
	"strings"

	"miseflow/internal/pkg/common"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const headingSelector = "h1, h2, h3, h4, h5, h6"

var (
	ingredientHeadings = []string{"ingredients"}
	stepHeadings       = []string{"instructions", "directions", "method", "preparation"}
)

// textStrategy 單一欄位備援鏈中的一環，回傳空字串代表沒有資料
type textStrategy struct {
	name string
	run  func() string
}

// lineStrategy 清單備援鏈中的一環，回傳空清單代表沒有資料
type lineStrategy struct {
	name string
	run  func() []string
}

// firstText 依序執行，第一個非空結果勝出
func firstText(field string, strategies []textStrategy) string {
	for _, s := range strategies {
		if value := strings.TrimSpace(s.run()); value != "" {
			common.LogDebug("欄位來源", zap.String("field", field), zap.String("strategy", s.name))
			return value
		}
	}
	return ""
}

// firstLines 依序執行，第一個清理後非空的結果勝出，並回傳嘗試紀錄
func firstLines(label string, strategies []lineStrategy, clean func([]string) []string) ([]string, string, string) {
	attempts := make([]string, 0, len(strategies))
	for _, s := range strategies {
		lines := clean(s.run())
		if len(lines) > 0 {
			attempts = append(attempts, fmt.Sprintf("%s (%d)", s.name, len(lines)))
			return lines, s.name, fmt.Sprintf("%s strategies tried: %s.", label, strings.Join(attempts, ", "))
		}
		attempts = append(attempts, s.name+" (none)")
	}
	return []string{}, "", fmt.Sprintf("%s strategies tried: %s.", label, strings.Join(attempts, ", "))
}

// extractSectionByHeading 找到含關鍵字的標題，收集到下一個標題為止的清單或文字行
func extractSectionByHeading(doc *goquery.Document, keywords []string, limit int) []string {
	var result []string

	doc.Find(headingSelector).EachWithBreak(func(_ int, heading *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(heading.Text()))
		if !containsAny(text, keywords) {
			return true
		}

		var lines []string
		heading.NextUntil(headingSelector).Each(func(_ int, el *goquery.Selection) {
			switch goquery.NodeName(el) {
			case "ul", "ol":
				el.Find("li").Each(func(_ int, li *goquery.Selection) {
					lines = append(lines, strings.TrimSpace(li.Text()))
				})
			default:
				if text := strings.TrimSpace(el.Text()); text != "" {
					lines = append(lines, splitLines(text)...)
				}
			}
		})

		if cleaned := CleanLines(lines, limit); len(cleaned) > 0 {
			result = cleaned
			return false
		}
		return true
	})

	return result
}

// microdataLines 取出帶有 itemprop 屬性的元素文字
func microdataLines(doc *goquery.Document, prop string) []string {
	var lines []string
	doc.Find("[itemprop='" + prop + "']").Each(func(_ int, s *goquery.Selection) {
		lines = append(lines, strings.TrimSpace(s.Text()))
	})
	return lines
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
