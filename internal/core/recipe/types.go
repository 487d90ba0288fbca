package recipe

import (
	"time"

	"miseflow/internal/pkg/common"
)

// SeparateBowl 不進入任何碗的食材標記
const SeparateBowl = "Separate"

// Ingredient 解析後的食材
type Ingredient struct {
	ID             string   `json:"id"`
	Raw            string   `json:"raw"`
	Quantity       string   `json:"quantity"`
	QuantityNumber *float64 `json:"quantity_number,omitempty"`
	Unit           string   `json:"unit"`
	Name           string   `json:"name"`
	Prep           string   `json:"prep"`
	Category       Category `json:"category"`
	Keywords       []string `json:"keywords"`
	FirstStep      int      `json:"first_step"` // 0-based
	Bowl           string   `json:"bowl"`
}

// Bowl 同一步驟前需一起備好的食材
type Bowl struct {
	Name        string   `json:"name"`
	StepIndex   int      `json:"step_index"`
	StepText    string   `json:"step_text"`
	Ingredients []string `json:"ingredients"`
}

// StepNumber 顯示用的步驟編號（1-based）
func (b Bowl) StepNumber() int {
	return b.StepIndex + 1
}

// SeparateItem 不併入碗的食材
type SeparateItem struct {
	Ingredient string `json:"ingredient"`
	StepIndex  int    `json:"step_index"`
	Reason     string `json:"reason"`
}

// BowlPlan 分碗結果
type BowlPlan struct {
	Bowls    []Bowl         `json:"bowls"`
	Separate []SeparateItem `json:"separate"`
}

// ShoppingItem 合併後的購物項目
type ShoppingItem struct {
	Name           string   `json:"name"`
	Unit           string   `json:"unit"`
	Category       Category `json:"category"`
	QuantityNumber *float64 `json:"quantity_number,omitempty"`
	QuantityText   string   `json:"quantity_text"`
}

// ShoppingCategory 一個分類下的購物項目
type ShoppingCategory struct {
	Name  Category       `json:"name"`
	Items []ShoppingItem `json:"items"`
}

// ShoppingList 依分類名稱排序的購物清單
type ShoppingList struct {
	Categories []ShoppingCategory `json:"categories"`
}

// Len 項目總數
func (l ShoppingList) Len() int {
	total := 0
	for _, category := range l.Categories {
		total += len(category.Items)
	}
	return total
}

// Meta 食譜基本資料
type Meta struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Author       string            `json:"author"`
	SourceType   common.SourceType `json:"source_type"`
	SourceURL    string            `json:"source_url"`
	Servings     float64           `json:"servings"`
	CreditNotes  string            `json:"credit_notes"`
	ImageURL     string            `json:"image_url"`
	Slug         string            `json:"slug"`
	NormalizedAt time.Time         `json:"normalized_at"`
}

// Citation 來源標示
type Citation struct {
	SourceType       string   `json:"source_type"`
	SourceURL        string   `json:"source_url"`
	Author           string   `json:"author"`
	CapturedOn       string   `json:"captured_on"`
	CreditLine       string   `json:"credit_line"`
	ExtractionMethod string   `json:"extraction_method"`
	References       []string `json:"references"`
}

// Recipe 正規化後的完整食譜
type Recipe struct {
	Meta        Meta             `json:"meta"`
	Ingredients []Ingredient     `json:"ingredients"`
	Steps       []string         `json:"steps"`
	Bowls       []Bowl           `json:"bowls"`
	Separate    []SeparateItem   `json:"separate"`
	Mise        []string         `json:"mise"`
	Shopping    ShoppingList     `json:"shopping"`
	Citation    Citation         `json:"citation"`
	Discovery   common.Discovery `json:"discovery"`
	Markdown    string           `json:"markdown"`
}

// NormalizeRequest 手動輸入或擷取結果轉成的正規化請求
type NormalizeRequest struct {
	Title          string            `json:"title"`
	Author         string            `json:"author"`
	SourceType     common.SourceType `json:"source_type"`
	SourceURL      string            `json:"source_url"`
	ImageURL       string            `json:"image_url"`
	CreditNotes    string            `json:"credit_notes"`
	Servings       float64           `json:"servings"`
	IngredientsRaw string            `json:"ingredients_raw"`
	StepsRaw       string            `json:"steps_raw"`
	Discovery      *common.Discovery `json:"discovery,omitempty"`
}
