package recipe

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	integerPattern  = regexp.MustCompile(`^\d+$`)
	decimalPattern  = regexp.MustCompile(`^\d*\.\d+$`)
	fractionPattern = regexp.MustCompile(`^(\d+)/(\d+)$`)
	mixedPattern    = regexp.MustCompile(`^(\d+)\s+(\d+)/(\d+)$`)
)

// ParseQuantity 解析數量字串：整數、小數、分數、帶分數
//
// ok 為 false 代表無法解析（與「沒有數量」不同，呼叫端自行區分空字串）。
func ParseQuantity(value string) (float64, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, false
	}

	if integerPattern.MatchString(trimmed) || decimalPattern.MatchString(trimmed) {
		n, err := strconv.ParseFloat(trimmed, 64)
		return n, err == nil
	}

	if m := fractionPattern.FindStringSubmatch(trimmed); m != nil {
		return divide(m[1], m[2])
	}

	if m := mixedPattern.FindStringSubmatch(trimmed); m != nil {
		whole, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		frac, ok := divide(m[2], m[3])
		if !ok {
			return 0, false
		}
		return whole + frac, true
	}

	return 0, false
}

func divide(numerator, denominator string) (float64, bool) {
	n, err := strconv.ParseFloat(numerator, 64)
	if err != nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(denominator, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

// quantityPtr 解析成功時回傳指標，否則 nil
func quantityPtr(value string) *float64 {
	n, ok := ParseQuantity(value)
	if !ok {
		return nil
	}
	return &n
}

// FormatQuantity 四捨五入到小數兩位並去除尾端的 0
func FormatQuantity(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ""
	}
	rounded := math.Round(value*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}
