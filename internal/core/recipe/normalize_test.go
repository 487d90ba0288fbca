package recipe

import (
	"strings"
	"testing"
	"time"

	"miseflow/internal/pkg/common"
)

func fixedNormalizer() *Normalizer {
	n := NewNormalizer(nil)
	n.now = func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }
	return n
}

// TestNormalizeManual 手動輸入的完整流程
func TestNormalizeManual(t *testing.T) {
	n := fixedNormalizer()
	recipe := n.Normalize(NormalizeRequest{
		Title:          "  Weeknight Pancakes ",
		Author:         "Ada",
		IngredientsRaw: "2 cups flour\n2 eggs, beaten\n1 cup milk",
		StepsRaw:       "1. Whisk flour.\n2. Add eggs and milk.",
		Servings:       -1,
	})

	if recipe.Meta.Title != "Weeknight Pancakes" || recipe.Meta.Slug != "weeknight-pancakes" {
		t.Fatalf("meta = %+v", recipe.Meta)
	}
	if recipe.Meta.Servings != defaultServings {
		t.Fatalf("servings = %v", recipe.Meta.Servings)
	}
	if recipe.Meta.SourceType != common.SourceManual {
		t.Fatalf("source type = %q", recipe.Meta.SourceType)
	}
	if len(recipe.Ingredients) != 3 || len(recipe.Steps) != 2 {
		t.Fatalf("ingredients %d steps %d", len(recipe.Ingredients), len(recipe.Steps))
	}
	if recipe.Citation.ExtractionMethod != common.MethodManualInput {
		t.Fatalf("method = %q", recipe.Citation.ExtractionMethod)
	}
	if recipe.Citation.CreditLine != "Adapted from Ada. Keep attribution when republishing." {
		t.Fatalf("credit line = %q", recipe.Citation.CreditLine)
	}
	if recipe.Citation.CapturedOn != "March 9, 2024" {
		t.Fatalf("captured on = %q", recipe.Citation.CapturedOn)
	}
	if len(recipe.Citation.References) != 0 {
		t.Fatalf("references = %v", recipe.Citation.References)
	}
	for _, want := range []string{"# Weeknight Pancakes", "| 2 | cups | flour | - | 1 | Bowl 1 |", "1. [ ] Whisk flour."} {
		if !strings.Contains(recipe.Markdown, want) {
			t.Errorf("markdown missing %q:\n%s", want, recipe.Markdown)
		}
	}
}

// TestNormalizeDefaults 空標題與空內容
func TestNormalizeDefaults(t *testing.T) {
	recipe := fixedNormalizer().Normalize(NormalizeRequest{})
	if recipe.Meta.Title != defaultTitle {
		t.Fatalf("title = %q", recipe.Meta.Title)
	}
	if len(recipe.Mise) != 1 || recipe.Mise[0] != gatherTask {
		t.Fatalf("mise = %v", recipe.Mise)
	}
	if recipe.Citation.CreditLine != "Original source credit should be preserved when republishing." {
		t.Fatalf("credit line = %q", recipe.Citation.CreditLine)
	}
}

// TestFromExtraction 擷取結果轉為食譜並保留來源追蹤
func TestFromExtraction(t *testing.T) {
	result := &common.ExtractionResult{
		DetectedType: common.SourceYouTube,
		Title:        "Garlic Noodles",
		Ingredients:  []string{"8 oz pasta", "4 cloves garlic, minced"},
		Steps:        []string{"Boil pasta.", "Fry garlic."},
		CreditNotes:  "Adapted from YouTube creator Chef. Keep original creator credit.",
		Discovery: common.Discovery{
			Method:      common.MethodLinkedRecipe,
			RecipeLinks: []string{"https://youtube.com/watch?v=x", "https://example.com/recipe"},
			Notes:       []string{"Extracted recipe details from linked URL: https://example.com/recipe"},
		},
	}

	recipe := fixedNormalizer().FromExtraction(result, "https://youtube.com/watch?v=x", 2)

	if recipe.Meta.SourceType != common.SourceYouTube || recipe.Citation.SourceType != "YouTube Video" {
		t.Fatalf("source type %q / %q", recipe.Meta.SourceType, recipe.Citation.SourceType)
	}
	if recipe.Meta.Servings != 2 {
		t.Fatalf("servings = %v", recipe.Meta.Servings)
	}
	if recipe.Citation.CreditLine != result.CreditNotes {
		t.Fatalf("credit line = %q", recipe.Citation.CreditLine)
	}
	if got := strings.Join(recipe.Citation.References, ","); got != "https://youtube.com/watch?v=x,https://example.com/recipe" {
		t.Fatalf("references = %s", got)
	}
	if recipe.Ingredients[1].Name != "garlic" || recipe.Ingredients[1].FirstStep != 1 {
		t.Fatalf("garlic = %+v", recipe.Ingredients[1])
	}
	if !strings.Contains(recipe.Markdown, "- Transcript: Not available from the source.") {
		t.Fatalf("markdown missing transcript line:\n%s", recipe.Markdown)
	}

	recipe.Discovery.Notes[0] = "changed"
	if result.Discovery.Notes[0] == "changed" {
		t.Fatalf("discovery notes must be copied")
	}
}

// TestSlugify 測試 slug
func TestSlugify(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := map[string]string{
		"Crème Brûlée!":       "creme-brulee",
		"  --Hello, World-- ": "hello-world",
		"!!!":                 "recipe-20240102030405",
	}
	for in, want := range tests {
		if got := Slugify(in, now); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}

	if got := Slugify(strings.Repeat("a", 100), now); len(got) != maxSlugLength {
		t.Errorf("long slug length = %d", len(got))
	}
}

// TestRenderHTML 表格與待辦清單需轉為 HTML
func TestRenderHTML(t *testing.T) {
	recipe := fixedNormalizer().Normalize(NormalizeRequest{
		Title:          "Toast",
		IngredientsRaw: "2 slices bread\n1 tbsp butter, softened",
		StepsRaw:       "Toast bread.\nSpread butter.",
	})

	out, err := RenderHTML(recipe.Markdown)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"<h1>Toast</h1>", "<table>", `type="checkbox"`, "Softened butter"} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q:\n%s", want, out)
		}
	}
}
