package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ParseJSON 解析 JSON 字符串到結構體（數字保留為 json.Number）
func ParseJSON(data string, v interface{}) error {
	return decodeJSON(strings.NewReader(data), v)
}

// ParseJSONBytes 解析 JSON 位元組切片到結構體
func ParseJSONBytes(data []byte, v interface{}) error {
	return decodeJSON(bytes.NewReader(data), v)
}

func decodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		return err
	}

	// 確保沒有多餘資料
	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return err
		}
		return fmt.Errorf("unexpected extra JSON data")
	}
	return nil
}

var controlCharPattern = regexp.MustCompile(`[\x00-\x1f]+`)

// ParseLenientJSON 先嚴格解析，失敗時去除 BOM 與控制字元後重試
//
// 網頁內嵌的 JSON-LD 常混入原始換行或 BOM。
func ParseLenientJSON(raw string, v interface{}) error {
	if err := ParseJSON(raw, v); err == nil {
		return nil
	}
	sanitized := strings.TrimPrefix(strings.TrimSpace(raw), "\ufeff")
	sanitized = controlCharPattern.ReplaceAllString(sanitized, " ")
	return ParseJSON(sanitized, v)
}

// ToJSON 將結構體轉換為 JSON 字符串
func ToJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ToIndentedJSON 輸出縮排 JSON，供匯出檔案使用
func ToIndentedJSON(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
