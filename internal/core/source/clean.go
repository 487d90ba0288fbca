package source

import (
	"net/url"
	"regexp"
	"strings"

	"miseflow/internal/pkg/common"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxLines 單一清單保留的行數上限
const DefaultMaxLines = 80

var (
	bulletPrefix     = regexp.MustCompile(`^[-*\x{2022}]\s*`)
	parenNumPrefix   = regexp.MustCompile(`^\d+\)\s*`)
	dotNumPrefix     = regexp.MustCompile(`^\d+\.\s+`)
	dashNumPrefix    = regexp.MustCompile(`^\d+-\s+`)
	stepNumberPrefix = regexp.MustCompile(`^\d+[.)\-\s]*`)
)

// DecodeHTML 解碼實體並去除標籤
func DecodeHTML(value string) string {
	if !strings.ContainsAny(value, "&<") {
		return strings.TrimSpace(value)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<div>" + value + "</div>"))
	if err != nil {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(doc.Find("div").First().Text())
}

// SanitizeLine 解碼、壓縮空白並去除項目符號與編號
func SanitizeLine(value string) string {
	line := common.CollapseSpaces(DecodeHTML(value))
	line = bulletPrefix.ReplaceAllString(line, "")
	line = parenNumPrefix.ReplaceAllString(line, "")
	line = dotNumPrefix.ReplaceAllString(line, "")
	line = dashNumPrefix.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

// CleanLines 清理、不分大小寫去重並截斷
func CleanLines(lines []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultMaxLines
	}
	seen := make(map[string]bool, len(lines))
	cleaned := make([]string, 0, len(lines))
	for _, raw := range lines {
		line := SanitizeLine(raw)
		if line == "" {
			continue
		}
		key := strings.ToLower(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		cleaned = append(cleaned, line)
		if len(cleaned) >= limit {
			break
		}
	}
	return cleaned
}

// stripStepNumbers 去除步驟編號
func stripStepNumbers(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = stepNumberPrefix.ReplaceAllString(strings.TrimSpace(line), "")
	}
	return out
}

// readMeta 讀取 <meta attr='key' content>
func readMeta(doc *goquery.Document, attr, key string) string {
	content, _ := doc.Find("meta[" + attr + "='" + key + "']").First().Attr("content")
	return strings.TrimSpace(content)
}

// absolutizeURL 相對路徑轉為絕對網址，失敗時原樣回傳
func absolutizeURL(value, base string) string {
	if value == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return value
	}
	ref, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return value
	}
	return baseURL.ResolveReference(ref).String()
}

// hostname 取得主機名稱，無法解析時回傳 "source"
func hostname(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return "source"
	}
	return parsed.Hostname()
}

// firstNonEmpty 回傳第一個非空白字串
func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// splitLines 以 \r?\n 拆行
func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
