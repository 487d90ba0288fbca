package recipe

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"miseflow/internal/pkg/common"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.TaskList),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// ToMarkdown 匯出可重新發布的 Markdown
func ToMarkdown(recipe *Recipe) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("# %s", recipe.Meta.Title)
	line("")
	line("- Servings: %s", FormatQuantity(recipe.Meta.Servings))
	line("- Normalized: %s", recipe.Meta.NormalizedAt.Format("2006-01-02 15:04 MST"))
	line("- Source Type: %s", recipe.Citation.SourceType)
	if recipe.Citation.SourceURL != "" {
		line("- Source URL: %s", recipe.Citation.SourceURL)
	}
	if recipe.Citation.Author != "" {
		line("- Original Author: %s", recipe.Citation.Author)
	}
	line("- Extraction Method: %s", recipe.Citation.ExtractionMethod)

	line("")
	line("## Ingredients")
	line("")
	line("| Qty | Unit | Ingredient | Prep | First Step | Bowl |")
	line("| --- | --- | --- | --- | --- | --- |")
	for _, ingredient := range recipe.Ingredients {
		line("| %s | %s | %s | %s | %d | %s |",
			orDash(ingredient.Quantity), orDash(ingredient.Unit), cell(ingredient.Name),
			orDash(ingredient.Prep), ingredient.FirstStep+1, orDash(ingredient.Bowl))
	}

	line("")
	line("## Mise en Place")
	line("")
	for _, task := range recipe.Mise {
		line("- [ ] %s", task)
	}

	line("")
	line("## Bowl Plan")
	line("")
	for _, bowl := range recipe.Bowls {
		line("- **%s** for Step %d: %s", bowl.Name, bowl.StepNumber(), strings.Join(bowl.Ingredients, ", "))
	}
	if len(recipe.Separate) > 0 {
		line("- Keep Separate:")
		for _, item := range recipe.Separate {
			line("  - %s (Step %d): %s", item.Ingredient, item.StepIndex+1, item.Reason)
		}
	}

	line("")
	line("## Steps")
	line("")
	for i, step := range recipe.Steps {
		line("%d. [ ] %s", i+1, step)
	}

	line("")
	line("## Citation")
	line("")
	line("- %s", recipe.Citation.CreditLine)
	line("- Captured on: %s", recipe.Citation.CapturedOn)
	for _, reference := range recipe.Citation.References {
		line("- Reference: %s", reference)
	}

	switch {
	case recipe.Discovery.TranscriptAvailable:
		line("- Transcript: Available and analyzed.")
	case recipe.Meta.SourceType == common.SourceYouTube:
		line("- Transcript: Not available from the source.")
	}

	if len(recipe.Discovery.Notes) > 0 {
		line("- Source Discovery Notes:")
		for _, note := range recipe.Discovery.Notes {
			line("  - %s", note)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// RenderHTML 將 Markdown 匯出轉為 HTML 片段
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return cell(value)
}

// cell 表格欄位內的 | 需跳脫
func cell(value string) string {
	return strings.ReplaceAll(value, "|", `\|`)
}
