package publish

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"miseflow/internal/pkg/common"
)

// Fingerprint 擷取內容的雜湊，只用來判斷重新擷取後是否有變動
//
// 各欄位壓縮空白並轉小寫後依固定順序寫入。
func Fingerprint(result *common.ExtractionResult) string {
	h := sha256.New()
	write := func(label string, values ...string) {
		fmt.Fprintf(h, "%s:%d\n", label, len(values))
		for _, value := range values {
			fmt.Fprintf(h, "%s\n", strings.ToLower(common.CollapseSpaces(value)))
		}
	}

	write("title", result.Title)
	write("author", result.Author)
	write("image", result.ImageURL)
	write("ingredients", result.Ingredients...)
	write("steps", result.Steps...)
	write("links", result.Discovery.RecipeLinks...)

	return hex.EncodeToString(h.Sum(nil))
}

// urlKey 比對與快取用的網址鍵
func urlKey(url string) string {
	return strings.ToLower(strings.TrimSpace(url))
}

// ReadURLList 每行一個網址，忽略空行與 # 開頭的註解，不分大小寫去重
func ReadURLList(r io.Reader) ([]string, error) {
	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key := urlKey(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read url list: %w", err)
	}
	return urls, nil
}
