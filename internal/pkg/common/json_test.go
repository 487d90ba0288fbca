package common

import (
	"encoding/json"
	"testing"
)

// TestParseJSON 數字保留為 json.Number，多餘資料視為錯誤
func TestParseJSON(t *testing.T) {
	var v map[string]interface{}
	if err := ParseJSON(`{"servings": 4} `, &v); err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if n, ok := v["servings"].(json.Number); !ok || n.String() != "4" {
		t.Errorf("servings = %#v", v["servings"])
	}

	tests := []struct {
		name string
		data string
	}{
		{"trailing object", `{"a":1}{"b":2}`},
		{"trailing garbage", `{"a":1} x`},
		{"malformed", `{"a":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out map[string]interface{}
			if err := ParseJSONBytes([]byte(tt.data), &out); err == nil {
				t.Errorf("expected error for %q", tt.data)
			}
		})
	}
}

// TestParseLenientJSON 去除 BOM 與原始換行後重試
func TestParseLenientJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	if err := ParseLenientJSON("\ufeff{\"name\":\"Pho\nBo\"}", &v); err != nil {
		t.Fatalf("ParseLenientJSON: %v", err)
	}
	if v.Name != "Pho Bo" {
		t.Errorf("name = %q", v.Name)
	}
}
