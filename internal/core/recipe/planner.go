package recipe

import (
	"fmt"
	"sort"
	"strings"

	"miseflow/internal/pkg/common"
)

const (
	reasonMarkedSeparate = "Marked as divided or garnish in source."
	reasonStepSeparate   = "Step indicates separate additions."
	gatherTask           = "Gather all ingredients and cooking tools."
)

// ApplyStepUsage 為每個食材找出第一個用到它的步驟
//
// 沒有任何步驟命中時設為 0（第一步）。
func (p *Parser) ApplyStepUsage(ingredients []Ingredient, steps []string) {
	normalized := make([]string, len(steps))
	for i, step := range steps {
		normalized[i] = common.NormalizeForMatch(step)
	}

	for i := range ingredients {
		words := ingredients[i].Keywords
		if len(words) == 0 {
			if fallback := common.NormalizeForMatch(ingredients[i].Name); fallback != "" {
				words = []string{fallback}
			}
		}
		ingredients[i].FirstStep = firstMatchingStep(normalized, words)
	}
}

func firstMatchingStep(steps, words []string) int {
	for index, step := range steps {
		for _, word := range words {
			if strings.Contains(step, word) {
				return index
			}
		}
	}
	return 0
}

// BuildBowlPlan 依首次使用步驟分碗，並寫回每個食材的 Bowl
//
// 每個食材恰好落在一個碗或 Separate 清單中；碗的編號依步驟順序遞增。
func (p *Parser) BuildBowlPlan(ingredients []Ingredient, steps []string) BowlPlan {
	plan := BowlPlan{Bowls: []Bowl{}, Separate: []SeparateItem{}}
	grouped := make(map[int][]int)

	for i := range ingredients {
		stepIndex := ingredients[i].FirstStep
		if reason := p.separateReason(ingredients[i], stepText(steps, stepIndex)); reason != "" {
			plan.Separate = append(plan.Separate, SeparateItem{
				Ingredient: ingredients[i].Name,
				StepIndex:  stepIndex,
				Reason:     reason,
			})
			ingredients[i].Bowl = SeparateBowl
			continue
		}
		grouped[stepIndex] = append(grouped[stepIndex], i)
	}

	stepIndexes := make([]int, 0, len(grouped))
	for stepIndex := range grouped {
		stepIndexes = append(stepIndexes, stepIndex)
	}
	sort.Ints(stepIndexes)

	for n, stepIndex := range stepIndexes {
		bowl := Bowl{
			Name:        fmt.Sprintf("Bowl %d", n+1),
			StepIndex:   stepIndex,
			StepText:    stepText(steps, stepIndex),
			Ingredients: make([]string, 0, len(grouped[stepIndex])),
		}
		for _, i := range grouped[stepIndex] {
			ingredients[i].Bowl = bowl.Name
			bowl.Ingredients = append(bowl.Ingredients, ingredients[i].Name)
		}
		plan.Bowls = append(plan.Bowls, bowl)
	}

	return plan
}

func (p *Parser) separateReason(ingredient Ingredient, step string) string {
	if p.keepSeparatePattern.MatchString(ingredient.Raw) {
		return reasonMarkedSeparate
	}
	if p.separateStepPattern.MatchString(step) {
		return reasonStepSeparate
	}
	return ""
}

func stepText(steps []string, index int) string {
	if index < 0 || index >= len(steps) {
		return ""
	}
	return steps[index]
}

// BuildMiseList 產生備料清單，不分大小寫去重，先出現者保留
func (p *Parser) BuildMiseList(ingredients []Ingredient, bowls []Bowl, steps []string) []string {
	tasks := make([]string, 0, len(ingredients)+len(bowls)+1)

	for _, step := range steps {
		if p.preheatPattern.MatchString(step) {
			tasks = append(tasks, `Preheat equipment as noted: "`+step+`"`)
			break
		}
	}

	for _, ingredient := range ingredients {
		if ingredient.Prep != "" {
			tasks = append(tasks, common.Capitalize(ingredient.Prep)+" "+ingredient.Name)
		}
	}

	for _, bowl := range bowls {
		tasks = append(tasks, fmt.Sprintf("Stage %s: %s before Step %d",
			bowl.Name, strings.Join(bowl.Ingredients, ", "), bowl.StepNumber()))
	}

	if len(tasks) == 0 {
		tasks = append(tasks, gatherTask)
	}

	return common.DedupeFold(tasks)
}
