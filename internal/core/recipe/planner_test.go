package recipe

import (
	"strings"
	"testing"
)

func sampleIngredients(p *Parser) []Ingredient {
	return p.ParseIngredients(strings.Join([]string{
		"2 cups flour",
		"1 tsp salt",
		"2 eggs, beaten",
		"1 cup milk",
		"2 tbsp parsley, for garnish",
		"1 tbsp butter, melted",
	}, "\n"))
}

var sampleSteps = []string{
	"Preheat the oven to 200C.",
	"Whisk the flour and salt in a large bowl.",
	"Add the eggs one at a time.",
	"Stir in the milk and melted butter.",
	"Bake 20 minutes and top with parsley.",
}

// TestApplyStepUsage 測試首次使用步驟
func TestApplyStepUsage(t *testing.T) {
	p := NewParser(nil)
	ingredients := sampleIngredients(p)
	p.ApplyStepUsage(ingredients, sampleSteps)

	want := map[string]int{"flour": 1, "salt": 1, "eggs": 2, "milk": 3, "parsley": 4, "butter": 3}
	for _, ingredient := range ingredients {
		if ingredient.FirstStep != want[ingredient.Name] {
			t.Errorf("%s first step = %d, want %d", ingredient.Name, ingredient.FirstStep, want[ingredient.Name])
		}
	}
}

// TestApplyStepUsageDefault 沒有命中時預設為第一步
func TestApplyStepUsageDefault(t *testing.T) {
	p := NewParser(nil)
	ingredients := p.ParseIngredients("1 cup quinoa\nto")
	p.ApplyStepUsage(ingredients, []string{"Boil water.", "Serve."})
	for _, ingredient := range ingredients {
		if ingredient.FirstStep != 0 {
			t.Fatalf("%s first step = %d", ingredient.Name, ingredient.FirstStep)
		}
	}

	p.ApplyStepUsage(ingredients, nil)
	if ingredients[0].FirstStep != 0 {
		t.Fatalf("expected 0 with no steps")
	}
}

// TestBuildBowlPlan 測試分碗與 Separate 清單
func TestBuildBowlPlan(t *testing.T) {
	p := NewParser(nil)
	ingredients := sampleIngredients(p)
	p.ApplyStepUsage(ingredients, sampleSteps)
	plan := p.BuildBowlPlan(ingredients, sampleSteps)

	if len(plan.Bowls) != 2 {
		t.Fatalf("bowls = %+v", plan.Bowls)
	}
	if plan.Bowls[0].Name != "Bowl 1" || plan.Bowls[0].StepIndex != 1 {
		t.Errorf("bowl 1 = %+v", plan.Bowls[0])
	}
	if strings.Join(plan.Bowls[0].Ingredients, ",") != "flour,salt" {
		t.Errorf("bowl 1 ingredients = %v", plan.Bowls[0].Ingredients)
	}
	if plan.Bowls[1].Name != "Bowl 2" || plan.Bowls[1].StepIndex != 3 {
		t.Errorf("bowl 2 = %+v", plan.Bowls[1])
	}
	if strings.Join(plan.Bowls[1].Ingredients, ",") != "milk,butter" {
		t.Errorf("bowl 2 ingredients = %v", plan.Bowls[1].Ingredients)
	}

	reasons := map[string]string{}
	for _, item := range plan.Separate {
		reasons[item.Ingredient] = item.Reason
	}
	if reasons["eggs"] != reasonStepSeparate {
		t.Errorf("eggs reason = %q", reasons["eggs"])
	}
	if reasons["parsley"] != reasonMarkedSeparate {
		t.Errorf("parsley reason = %q", reasons["parsley"])
	}

	// 每個食材恰好在一個碗或 Separate 中
	seen := map[string]int{}
	for _, bowl := range plan.Bowls {
		for _, name := range bowl.Ingredients {
			seen[name]++
		}
	}
	for _, item := range plan.Separate {
		seen[item.Ingredient]++
	}
	for _, ingredient := range ingredients {
		if seen[ingredient.Name] != 1 {
			t.Errorf("%s appears %d times", ingredient.Name, seen[ingredient.Name])
		}
		if ingredient.Bowl == "" {
			t.Errorf("%s has no bowl assignment", ingredient.Name)
		}
	}

	for i := 1; i < len(plan.Bowls); i++ {
		if plan.Bowls[i-1].StepIndex > plan.Bowls[i].StepIndex {
			t.Fatalf("bowl order not monotonic: %+v", plan.Bowls)
		}
	}
}

// TestBuildBowlPlanNumbering 碗的編號依步驟順序而非食材順序
func TestBuildBowlPlanNumbering(t *testing.T) {
	p := NewParser(nil)
	ingredients := []Ingredient{
		{Name: "rice", Raw: "rice", FirstStep: 2},
		{Name: "onion", Raw: "onion", FirstStep: 0},
		{Name: "stock", Raw: "stock", FirstStep: 2},
	}
	plan := p.BuildBowlPlan(ingredients, []string{"Fry onion", "Stir", "Add rice and stock"})

	if plan.Bowls[0].Ingredients[0] != "onion" || plan.Bowls[0].Name != "Bowl 1" {
		t.Fatalf("unexpected first bowl %+v", plan.Bowls[0])
	}
	if ingredients[0].Bowl != "Bowl 2" || ingredients[1].Bowl != "Bowl 1" {
		t.Fatalf("unexpected assignments %q %q", ingredients[0].Bowl, ingredients[1].Bowl)
	}
	if plan.Bowls[1].StepText != "Add rice and stock" {
		t.Fatalf("step text = %q", plan.Bowls[1].StepText)
	}
}

// TestBuildMiseList 測試備料清單
func TestBuildMiseList(t *testing.T) {
	p := NewParser(nil)
	ingredients := sampleIngredients(p)
	p.ApplyStepUsage(ingredients, sampleSteps)
	plan := p.BuildBowlPlan(ingredients, sampleSteps)
	tasks := p.BuildMiseList(ingredients, plan.Bowls, sampleSteps)

	want := []string{
		`Preheat equipment as noted: "Preheat the oven to 200C."`,
		"Beaten eggs",
		"For garnish parsley",
		"Melted butter",
		"Stage Bowl 1: flour, salt before Step 2",
		"Stage Bowl 2: milk, butter before Step 4",
	}
	if strings.Join(tasks, "\n") != strings.Join(want, "\n") {
		t.Fatalf("tasks =\n%s\nwant\n%s", strings.Join(tasks, "\n"), strings.Join(want, "\n"))
	}
}

// TestBuildMiseListDedupe 不分大小寫去重與空清單預設任務
func TestBuildMiseListDedupe(t *testing.T) {
	p := NewParser(nil)
	ingredients := []Ingredient{
		{Name: "onion", Prep: "chopped"},
		{Name: "Onion", Prep: "Chopped"},
	}
	tasks := p.BuildMiseList(ingredients, nil, nil)
	if len(tasks) != 1 || tasks[0] != "Chopped onion" {
		t.Fatalf("tasks = %v", tasks)
	}

	tasks = p.BuildMiseList(nil, nil, []string{"Eat."})
	if len(tasks) != 1 || tasks[0] != gatherTask {
		t.Fatalf("tasks = %v", tasks)
	}
}
